// Command shelf manages the bookshelf catalog from a terminal. It shares the
// database file, and therefore the logged-in user, with the web server.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"bookshelf/internal/app"
	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/models"
	"bookshelf/internal/notify"
	"bookshelf/internal/session"
	"bookshelf/internal/storage"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", models.UserMessage(err, err.Error()))
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := newRootCommand(stdin)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.Execute()
}

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Config string
	DBPath string
	Format string // "json" | "text"

	stdin *bufio.Reader
}

var validFormats = []string{"text", "json"}

func newRootCommand(stdin io.Reader) *cobra.Command {
	opts := &rootOptions{stdin: bufio.NewReader(stdin)}

	cmd := &cobra.Command{
		Use:           "shelf",
		Short:         "Manage a bookshelf catalog",
		Long:          "Register, log in and keep a shared catalog of books.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range validFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, validFormats)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "path to the database file (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(
		newRegisterCommand(opts),
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newWhoamiCommand(opts),
		newUsersCommand(opts),
		newListCommand(opts),
		newSearchCommand(opts),
		newAddCommand(opts),
		newEditCommand(opts),
		newDeleteCommand(opts),
		newStatsCommand(opts),
	)
	return cmd
}

// shell is one opened database with the stores and dispatcher on top.
type shell struct {
	db       *storage.DB
	sessions *session.Store
	app      *app.App
	out      *output
}

func (s *shell) Close() error { return s.db.Close() }

func (o *rootOptions) open(cmd *cobra.Command) (*shell, error) {
	cfg, err := config.Load(o.Config)
	if err != nil {
		return nil, err
	}
	if o.DBPath != "" {
		cfg.DBPath = o.DBPath
	}

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sessions := session.NewStore(db)
	cat, err := catalog.Open(db, sessions)
	if err != nil {
		db.Close()
		return nil, err
	}

	out := &output{format: o.Format, w: cmd.OutOrStdout(), errw: cmd.ErrOrStderr()}
	a := app.New(sessions, cat, notify.SinkFunc(out.notify), app.WithLogger(cfg.Logger()))
	return &shell{db: db, sessions: sessions, app: a, out: out}, nil
}

// requireSession fails unless someone is logged in.
func (s *shell) requireSession() (*models.Session, error) {
	sess, redirect, err := s.app.CatalogEntry()
	if err != nil {
		return nil, err
	}
	if redirect == app.ToLogin {
		return nil, errors.New("not logged in: run shelf login first")
	}
	return sess, nil
}

// prompt writes label and reads one line of input.
func (o *rootOptions) prompt(w io.Writer, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := o.stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// confirm asks a yes/no question. Anything but y or yes is a no.
func (o *rootOptions) confirm(w io.Writer, label string) (bool, error) {
	answer, err := o.prompt(w, label+" [y/N]: ")
	if err != nil {
		return false, err
	}
	a := strings.ToLower(strings.TrimSpace(answer))
	return a == "y" || a == "yes", nil
}

// password returns value, or prompts for it without echo when empty.
func (o *rootOptions) password(cmd *cobra.Command, value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	w := cmd.OutOrStdout()
	fmt.Fprint(w, label)
	password, err := readPassword(cmd.InOrStdin(), o.stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(w) // Print newline after password input
	return password, nil
}

func readPassword(stdin io.Reader, buffered *bufio.Reader) (string, error) {
	// Check if stdin is a terminal
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Fallback for non-terminal (e.g. tests, pipes)
	line, err := buffered.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return line, nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
