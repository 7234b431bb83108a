// Package app routes user commands to the session and catalog stores and
// keeps the rendered view in step with persisted state.
//
// Every command runs to completion under one lock, so a command never
// observes another one half done. After each successful mutation the
// catalog is re-queried and re-projected in full and handed to the renderer.
package app

import (
	"fmt"
	"log/slog"
	"sync"

	"bookshelf/internal/catalog"
	"bookshelf/internal/models"
	"bookshelf/internal/notify"
	"bookshelf/internal/session"
	"bookshelf/internal/view"
)

// GenericErrorMessage is shown for failures that are not the user's to fix.
const GenericErrorMessage = "An error occurred. Reload the page."

// Notification texts.
const (
	MsgRegistered = "Account created! Log in to continue."
	MsgLoggedIn   = "Logged in successfully!"
	MsgLoggedOut  = "You have been logged out."
	MsgBookAdded  = "Book added successfully!"
	MsgBookSaved  = "Book updated successfully!"
	MsgBookGone   = "Book deleted successfully!"
)

// Redirect is the outcome of an entry guard.
type Redirect int

const (
	// Stay means the requested view may be shown.
	Stay Redirect = iota
	// ToCatalog means a session exists and the login view must hand off.
	ToCatalog
	// ToLogin means no session exists and the catalog view must hand off.
	ToLogin
)

// Renderer receives the full projection after every mutation.
type Renderer func(view.Display)

// Result is what a command produced. Err is nil on success.
type Result struct {
	Err       error
	Session   *models.Session
	User      *models.User
	Book      *models.Book
	Created   bool
	Token     string
	DeletedID string
	Display   *view.Display
}

// App is the command dispatcher. Build one per storage substrate.
type App struct {
	mu       sync.Mutex
	sessions *session.Store
	catalog  *catalog.Store
	sink     notify.Sink
	render   Renderer
	logger   *slog.Logger
	term     string
}

// Option configures an App.
type Option func(*App)

// WithRenderer registers the callback that receives re-rendered views.
func WithRenderer(r Renderer) Option {
	return func(a *App) { a.render = r }
}

// WithLogger sets the logger for unexpected failures.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// New creates an App. sink must not be nil.
func New(sessions *session.Store, cat *catalog.Store, sink notify.Sink, opts ...Option) *App {
	a := &App{
		sessions: sessions,
		catalog:  cat,
		sink:     sink,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Dispatch runs cmd. Failures are reported to the sink and returned in
// Result.Err; they never change persisted state.
func (a *App) Dispatch(cmd Command) Result {
	return a.DispatchTo(a.sink, cmd)
}

// DispatchTo runs cmd like Dispatch but reports notifications to sink.
func (a *App) DispatchTo(sink notify.Sink, cmd Command) Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	res := a.dispatch(sink, cmd)
	if res.Err != nil {
		a.fail(sink, cmd, res.Err)
	}
	return res
}

func (a *App) dispatch(sink notify.Sink, cmd Command) Result {
	switch c := cmd.(type) {
	case Register:
		user, err := a.sessions.Register(c.Name, c.Email, c.Password, c.ConfirmPassword)
		if err != nil {
			return Result{Err: err}
		}
		sink.Notify(MsgRegistered, notify.Success)
		return Result{User: user, Display: a.refresh(sink)}

	case Login:
		// The catalog is read before the session slot is written, so a
		// failed read leaves nobody logged in.
		if err := a.catalog.Reload(); err != nil {
			return Result{Err: err}
		}
		sess, err := a.sessions.Authenticate(c.Email, c.Password)
		if err != nil {
			return Result{Err: err}
		}
		sink.Notify(MsgLoggedIn, notify.Success)
		return Result{Session: sess, Display: a.refresh(sink)}

	case Logout:
		if err := a.sessions.Logout(); err != nil {
			return Result{Err: err}
		}
		a.catalog.CancelEdit()
		a.term = ""
		sink.Notify(MsgLoggedOut, notify.Info)
		return Result{}

	case SubmitBook:
		sub, err := a.catalog.Submit(c.Fields)
		if err != nil {
			return Result{Err: err}
		}
		msg := MsgBookSaved
		if sub.Created {
			msg = MsgBookAdded
		}
		sink.Notify(msg, notify.Success)
		return Result{Book: &sub.Book, Created: sub.Created, Display: a.refresh(sink)}

	case BeginEdit:
		book, ok, err := a.catalog.BeginEdit(c.ID)
		if err != nil {
			return Result{Err: err}
		}
		if !ok {
			return Result{}
		}
		return Result{Book: book}

	case CancelEdit:
		a.catalog.CancelEdit()
		return Result{}

	case RequestDelete:
		token, err := a.catalog.RequestDelete(c.ID)
		if err != nil {
			return Result{Err: err}
		}
		book, _ := a.catalog.Get(c.ID)
		return Result{Token: token, Book: book}

	case ConfirmDelete:
		id, err := a.catalog.ConfirmDelete(c.Token)
		if err != nil {
			return Result{Err: err}
		}
		sink.Notify(MsgBookGone, notify.Success)
		return Result{DeletedID: id, Display: a.refresh(sink)}

	case CancelDelete:
		a.catalog.CancelDelete(c.Token)
		return Result{}

	case Search:
		if _, err := a.catalog.Search(c.Term); err != nil {
			return Result{Err: err}
		}
		return a.filter(catalog.NormalizeTerm(c.Term))

	case ClearSearch:
		return a.filter("")
	}
	return Result{Err: fmt.Errorf("unknown command %T", cmd)}
}

// filter switches the active term. The display is the whole result of a
// search, so a failed read keeps the previous term and fails the command.
func (a *App) filter(term string) Result {
	prev := a.term
	a.term = term
	d, err := a.project()
	if err != nil {
		a.term = prev
		return Result{Err: err}
	}
	return Result{Display: d}
}

// refresh re-renders after a committed mutation. A failed read is reported
// but does not undo the mutation. Without a session there is nothing to
// render.
func (a *App) refresh(sink notify.Sink) *view.Display {
	d, err := a.project()
	if err != nil {
		if models.KindOf(err) != models.KindUnauthenticated {
			a.logger.Error("render catalog", "error", err)
			sink.Notify(GenericErrorMessage, notify.Error)
		}
		return nil
	}
	return d
}

// project re-queries the catalog and hands the projection to the renderer.
func (a *App) project() (*view.Display, error) {
	books, err := a.catalog.ListAll()
	if err != nil {
		return nil, err
	}
	d := view.Project(books, a.term)
	if a.render != nil {
		a.render(d)
	}
	return &d, nil
}

func (a *App) fail(sink notify.Sink, cmd Command, err error) {
	if models.KindOf(err) == models.KindUnexpected {
		a.logger.Error("command failed", "command", fmt.Sprintf("%T", cmd), "error", err)
	}
	sink.Notify(models.UserMessage(err, GenericErrorMessage), notify.Error)
}

// LoginEntry is the guard of the login/registration view.
func (a *App) LoginEntry() (Redirect, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sess, err := a.sessions.CurrentSession()
	if err != nil {
		return Stay, err
	}
	if sess != nil {
		return ToCatalog, nil
	}
	return Stay, nil
}

// CatalogEntry is the guard of the catalog view. On Stay it returns the
// session whose name the view shows, and re-reads the persisted catalog.
func (a *App) CatalogEntry() (*models.Session, Redirect, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	sess, err := a.sessions.CurrentSession()
	if err != nil {
		return nil, Stay, err
	}
	if sess == nil {
		return nil, ToLogin, nil
	}
	if err := a.catalog.Reload(); err != nil {
		return nil, Stay, err
	}
	return sess, Stay, nil
}

// View returns the current projection without dispatching anything.
func (a *App) View() (view.Display, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	books, err := a.catalog.ListAll()
	if err != nil {
		return view.Display{}, err
	}
	return view.Project(books, a.term), nil
}

// Stats summarizes the whole catalog, ignoring the search term.
func (a *App) Stats() (catalog.Summary, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	books, err := a.catalog.ListAll()
	if err != nil {
		return catalog.Summary{}, err
	}
	return catalog.Summarize(books), nil
}

// EditingBook returns the book under edit, if any.
func (a *App) EditingBook() (*models.Book, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id := a.catalog.EditingID()
	if id == "" {
		return nil, false
	}
	return a.catalog.Get(id)
}

// PendingDelete returns the book a confirmation token would delete.
func (a *App) PendingDelete(token string) (*models.Book, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id, ok := a.catalog.PendingDelete(token)
	if !ok {
		return nil, false
	}
	return a.catalog.Get(id)
}
