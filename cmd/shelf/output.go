package main

import (
	"encoding/json"
	"fmt"
	"io"

	"bookshelf/internal/notify"
	"bookshelf/internal/view"
)

// output writes command results as text or as a JSON envelope.
type output struct {
	format string
	w      io.Writer
	errw   io.Writer
}

// response is the JSON envelope for command output.
type response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// notify prints successes and notices. Failures come back as errors and are
// printed once by main.
func (o *output) notify(message string, severity notify.Severity) {
	if severity == notify.Error {
		return
	}
	w := o.w
	if o.format == "json" {
		w = o.errw
	}
	fmt.Fprintln(w, notify.Message{Text: message, Severity: severity})
}

// value prints data as JSON, or text as-is.
func (o *output) value(data any, text string) error {
	if o.format == "json" {
		return o.json(data)
	}
	_, err := fmt.Fprintln(o.w, text)
	return err
}

func (o *output) display(d view.Display) error {
	if o.format == "json" {
		return o.json(d)
	}
	return view.WriteText(o.w, d)
}

func (o *output) json(data any) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	return enc.Encode(response{Status: "ok", Data: data})
}
