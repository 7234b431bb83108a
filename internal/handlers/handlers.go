package handlers

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"bookshelf/internal/app"
	"bookshelf/internal/models"
	"bookshelf/internal/notify"
	"bookshelf/internal/view"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserContextKey is the context key for the logged-in session.
	UserContextKey contextKey = "user"
	// FlashSessionName is the name of the cookie carrying notifications.
	FlashSessionName = "bookshelf-flash"
)

// Statuses offered by the book form.
var Statuses = []string{"Available", "Borrowed", "Reserved", "Under Repair"}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	app         *app.App
	flashes     sessions.Store
	templateDir string
	logger      *slog.Logger
}

// NewHandlers creates a new Handlers instance. secret signs the flash cookie.
func NewHandlers(a *app.App, templateDir string, secret []byte, secureCookie bool, logger *slog.Logger) *Handlers {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   secureCookie,
		SameSite: http.SameSiteLaxMode,
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{app: a, flashes: store, templateDir: templateDir, logger: logger}
}

// GetUserFromContext retrieves the logged-in session from request context.
func GetUserFromContext(r *http.Request) *models.Session {
	if sess, ok := r.Context().Value(UserContextKey).(*models.Session); ok {
		return sess
	}
	return nil
}

// RequireSession wraps handlers that need a logged-in user. Without one the
// request is sent to the login page.
func (h *Handlers) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, redirect, err := h.app.CatalogEntry()
		if err != nil {
			h.serverError(w, "catalog entry", err)
			return
		}
		if redirect == app.ToLogin {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		ctx := context.WithValue(r.Context(), UserContextKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// LoginViewModel holds data for the login page.
type LoginViewModel struct {
	Flashes []notify.Message
	Tab     string
	Name    string
	Email   string
}

// BookCard is a card in the list view.
type BookCard struct {
	view.Card
	Editing bool
}

// ListViewModel is the data passed to the list view template.
type ListViewModel struct {
	User     *models.Session
	Flashes  []notify.Message
	Term     string
	Total    int
	Books    []BookCard
	Headline string
	Hint     string
	Editing  *models.Book
	Form     models.BookFields
	Statuses []string
}

// ConfirmViewModel is the data passed to the delete confirmation template.
type ConfirmViewModel struct {
	User  *models.Session
	Book  *models.Book
	Token string
}

// LogoutViewModel is the data passed to the logout confirmation template.
type LogoutViewModel struct {
	User *models.Session
}

// LoginForm renders the login page.
func (h *Handlers) LoginForm(w http.ResponseWriter, r *http.Request) {
	redirect, err := h.app.LoginEntry()
	if err != nil {
		h.serverError(w, "login entry", err)
		return
	}
	if redirect == app.ToCatalog {
		http.Redirect(w, r, "/books", http.StatusFound)
		return
	}
	query := r.URL.Query()
	tab := "login"
	if query.Get("tab") == "register" {
		tab = "register"
	}
	h.render(w, r, "login.html", LoginViewModel{
		Flashes: h.takeFlashes(w, r),
		Tab:     tab,
		Email:   query.Get("email"),
	})
}

// Login handles the login form submission.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	email := r.FormValue("email")

	rec := &notify.Recorder{}
	res := h.app.DispatchTo(rec, app.Login{Email: email, Password: r.FormValue("password")})
	if res.Err != nil {
		if h.unexpected(w, res.Err) {
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		h.render(w, r, "login.html", LoginViewModel{Flashes: rec.Messages(), Tab: "login", Email: email})
		return
	}
	h.redirectWithFlashes(w, r, "/books", rec.Messages())
}

// Register handles the registration form submission.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	cmd := app.Register{
		Name:            r.FormValue("name"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
	}

	rec := &notify.Recorder{}
	res := h.app.DispatchTo(rec, cmd)
	if res.Err != nil {
		if h.unexpected(w, res.Err) {
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		h.render(w, r, "login.html", LoginViewModel{
			Flashes: rec.Messages(),
			Tab:     "register",
			Name:    cmd.Name,
			Email:   cmd.Email,
		})
		return
	}
	h.redirectWithFlashes(w, r, "/login?email="+url.QueryEscape(res.User.Email), rec.Messages())
}

// LogoutForm asks the user to confirm before the session ends.
func (h *Handlers) LogoutForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "confirm_logout.html", LogoutViewModel{User: GetUserFromContext(r)})
}

// Logout handles user logout.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.dispatchAndRedirect(w, r, app.Logout{}, "/login")
}

// ListBooks renders the catalog. A q parameter changes the search term;
// an empty one clears it.
func (h *Handlers) ListBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Has("q") {
		var cmd app.Command = app.Search{Term: query.Get("q")}
		if strings.TrimSpace(query.Get("q")) == "" {
			cmd = app.ClearSearch{}
		}
		if res := h.app.Dispatch(cmd); res.Err != nil {
			h.serverError(w, "search", res.Err)
			return
		}
	}
	h.renderList(w, r, h.takeFlashes(w, r), nil)
}

// SubmitBook creates a book, or saves the one under edit.
func (h *Handlers) SubmitBook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	fields := models.BookFields{
		Title:    r.FormValue("title"),
		Author:   r.FormValue("author"),
		ISBN:     r.FormValue("isbn"),
		Year:     r.FormValue("year"),
		Category: r.FormValue("category"),
		Status:   r.FormValue("status"),
	}

	rec := &notify.Recorder{}
	res := h.app.DispatchTo(rec, app.SubmitBook{Fields: fields})
	if res.Err != nil {
		if h.unexpected(w, res.Err) {
			return
		}
		w.WriteHeader(http.StatusUnprocessableEntity)
		h.renderList(w, r, rec.Messages(), &fields)
		return
	}
	h.redirectWithFlashes(w, r, "/books", rec.Messages())
}

// EditBook puts the form in edit mode for the book in the path.
func (h *Handlers) EditBook(w http.ResponseWriter, r *http.Request) {
	h.dispatchAndRedirect(w, r, app.BeginEdit{ID: mux.Vars(r)["id"]}, "/books#book-form")
}

// CancelEdit puts the form back in create mode.
func (h *Handlers) CancelEdit(w http.ResponseWriter, r *http.Request) {
	h.dispatchAndRedirect(w, r, app.CancelEdit{}, "/books")
}

// RequestDelete issues a confirmation token for the book in the path and
// sends the browser to its confirmation page.
func (h *Handlers) RequestDelete(w http.ResponseWriter, r *http.Request) {
	rec := &notify.Recorder{}
	res := h.app.DispatchTo(rec, app.RequestDelete{ID: mux.Vars(r)["id"]})
	if res.Err != nil {
		if h.unexpected(w, res.Err) {
			return
		}
		h.redirectWithFlashes(w, r, "/books", rec.Messages())
		return
	}
	http.Redirect(w, r, "/deletions/"+url.PathEscape(res.Token), http.StatusSeeOther)
}

// ShowDelete renders the confirmation page for the token in the path.
func (h *Handlers) ShowDelete(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	book, ok := h.app.PendingDelete(token)
	if !ok {
		h.redirectWithFlashes(w, r, "/books", []notify.Message{
			{Text: models.ErrNoPendingDelete.Message, Severity: notify.Error},
		})
		return
	}
	h.render(w, r, "confirm_delete.html", ConfirmViewModel{
		User:  GetUserFromContext(r),
		Book:  book,
		Token: token,
	})
}

// ConfirmDelete performs the deletion behind the token in the path.
func (h *Handlers) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	h.dispatchAndRedirect(w, r, app.ConfirmDelete{Token: mux.Vars(r)["token"]}, "/books")
}

// CancelDelete drops the deletion behind the token in the path.
func (h *Handlers) CancelDelete(w http.ResponseWriter, r *http.Request) {
	h.dispatchAndRedirect(w, r, app.CancelDelete{Token: mux.Vars(r)["token"]}, "/books")
}

func (h *Handlers) renderList(w http.ResponseWriter, r *http.Request, flashes []notify.Message, form *models.BookFields) {
	d, err := h.app.View()
	if err != nil {
		h.serverError(w, "list books", err)
		return
	}
	editing, _ := h.app.EditingBook()

	vm := ListViewModel{
		User:     GetUserFromContext(r),
		Flashes:  flashes,
		Term:     d.Term,
		Total:    d.Total,
		Books:    make([]BookCard, 0, len(d.Cards)),
		Editing:  editing,
	}
	vm.Headline, vm.Hint = d.EmptyMessage()
	for _, c := range d.Cards {
		vm.Books = append(vm.Books, BookCard{Card: c, Editing: editing != nil && editing.ID == c.ID})
	}
	switch {
	case form != nil:
		vm.Form = *form
	case editing != nil:
		vm.Form = models.BookFields{
			Title:    editing.Title,
			Author:   editing.Author,
			ISBN:     editing.ISBN,
			Year:     editing.Year,
			Category: editing.Category,
			Status:   editing.Status,
		}
	}
	vm.Statuses = statusOptions(vm.Form.Status)
	h.render(w, r, "list.html", vm)
}

// statusOptions lists the form's statuses. A status set elsewhere, such as
// from the command line, is offered too so that saving keeps it.
func statusOptions(current string) []string {
	if current == "" || slices.Contains(Statuses, current) {
		return Statuses
	}
	return append(slices.Clone(Statuses), current)
}

func (h *Handlers) dispatchAndRedirect(w http.ResponseWriter, r *http.Request, cmd app.Command, to string) {
	rec := &notify.Recorder{}
	res := h.app.DispatchTo(rec, cmd)
	if res.Err != nil && h.unexpected(w, res.Err) {
		return
	}
	h.redirectWithFlashes(w, r, to, rec.Messages())
}

// unexpected answers 500 for errors that are not the user's to fix.
// The dispatcher has already logged them.
func (h *Handlers) unexpected(w http.ResponseWriter, err error) bool {
	if models.KindOf(err) != models.KindUnexpected {
		return false
	}
	http.Error(w, app.GenericErrorMessage, http.StatusInternalServerError)
	return true
}

func (h *Handlers) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, viewName string, data any) {
	tmpl, err := template.ParseFiles(filepath.Join(h.templateDir, "base.html"), filepath.Join(h.templateDir, viewName))
	if err != nil {
		h.serverError(w, "parse template", err)
		return
	}
	target := "base.html"
	if r.Header.Get("HX-Request") == "true" {
		target = "content"
	}
	if err := tmpl.ExecuteTemplate(w, target, data); err != nil {
		h.logger.Error("execute template", "template", viewName, "error", err)
	}
}
