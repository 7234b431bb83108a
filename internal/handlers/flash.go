package handlers

import (
	"net/http"

	"bookshelf/internal/notify"
)

// flashOrder is the order severities are shown in after a redirect.
var flashOrder = []notify.Severity{notify.Error, notify.Success, notify.Info}

// redirectWithFlashes stores messages in the flash cookie, keyed by severity,
// and redirects to the given path.
func (h *Handlers) redirectWithFlashes(w http.ResponseWriter, r *http.Request, to string, messages []notify.Message) {
	if len(messages) > 0 {
		sess, err := h.flashes.Get(r, FlashSessionName)
		if err != nil {
			// A cookie signed with an old secret decodes to a fresh session.
			h.logger.Debug("flash session", "error", err)
		}
		for _, m := range messages {
			sess.AddFlash(m.Text, string(m.Severity))
		}
		if err := sess.Save(r, w); err != nil {
			h.logger.Error("save flash session", "error", err)
		}
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// takeFlashes reads and clears the pending notifications. It must run before
// anything is written to w.
func (h *Handlers) takeFlashes(w http.ResponseWriter, r *http.Request) []notify.Message {
	sess, err := h.flashes.Get(r, FlashSessionName)
	if err != nil {
		h.logger.Debug("flash session", "error", err)
	}

	var messages []notify.Message
	for _, severity := range flashOrder {
		for _, f := range sess.Flashes(string(severity)) {
			if text, ok := f.(string); ok {
				messages = append(messages, notify.Message{Text: text, Severity: severity})
			}
		}
	}
	if len(messages) > 0 {
		if err := sess.Save(r, w); err != nil {
			h.logger.Error("save flash session", "error", err)
		}
	}
	return messages
}
