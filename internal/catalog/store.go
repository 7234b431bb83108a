// Package catalog owns the shared book catalog, the single-slot editing
// context and pending deletions.
//
// The in-memory catalog is loaded once when the store is opened and every
// mutation writes the whole catalog back before the in-memory copy changes,
// so a failed write leaves both sides as they were.
package catalog

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"bookshelf/internal/models"
	"bookshelf/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// SessionReader gates catalog access on a logged-in user.
type SessionReader interface {
	CurrentSession() (*models.Session, error)
}

// Store holds the catalog and the editing context.
type Store struct {
	kv       storage.KV
	sessions SessionReader
	validate *validator.Validate
	now      func() time.Time

	books     []models.Book
	editingID string
	pending   map[string]string // confirmation token -> book id
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Submission is the outcome of a successful Submit.
type Submission struct {
	Book    models.Book
	Created bool
}

// Open loads the persisted catalog.
func Open(kv storage.KV, sessions SessionReader, opts ...Option) (*Store, error) {
	s := &Store{
		kv:       kv,
		sessions: sessions,
		validate: validator.New(),
		now:      time.Now,
		pending:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory catalog with the persisted one.
func (s *Store) Reload() error {
	var books []models.Book
	if _, err := storage.LoadJSON(s.kv, storage.KeyBooks, &books); err != nil {
		return err
	}
	s.books = books
	return nil
}

func (s *Store) authorize() error {
	sess, err := s.sessions.CurrentSession()
	if err != nil {
		return err
	}
	if sess == nil {
		return models.ErrNotAuthenticated
	}
	return nil
}

// ListAll returns every book, oldest first.
func (s *Store) ListAll() ([]models.Book, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}
	return append(make([]models.Book, 0, len(s.books)), s.books...), nil
}

// Search returns the books whose title, author, category or isbn contain
// term, case-insensitively, in catalog order.
func (s *Store) Search(term string) ([]models.Book, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}
	return Filter(s.books, term), nil
}

// Get returns the book with id.
func (s *Store) Get(id string) (*models.Book, bool) {
	i := s.index(id)
	if i < 0 {
		return nil, false
	}
	b := s.books[i]
	return &b, true
}

// BeginEdit points the editing context at id and returns the book for the
// form. It reports false and leaves the context alone if id is unknown.
func (s *Store) BeginEdit(id string) (*models.Book, bool, error) {
	if err := s.authorize(); err != nil {
		return nil, false, err
	}
	b, ok := s.Get(id)
	if !ok {
		return nil, false, nil
	}
	s.editingID = id
	return b, true, nil
}

// CancelEdit clears the editing context.
func (s *Store) CancelEdit() {
	s.editingID = ""
}

// EditingID returns the id under edit, or "" when the next submit creates.
func (s *Store) EditingID() string {
	return s.editingID
}

// Submit creates a book, or overwrites the book under edit. Title and author
// are required after trimming. The editing context is cleared on success.
func (s *Store) Submit(fields models.BookFields) (*Submission, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}

	fields = trimFields(fields)
	if err := s.validate.Struct(fields); err != nil {
		return nil, models.ErrMissingRequiredField
	}
	if fields.Status == "" {
		fields.Status = models.DefaultStatus
	}

	book := models.Book{
		Title:    fields.Title,
		Author:   fields.Author,
		ISBN:     fields.ISBN,
		Year:     fields.Year,
		Category: fields.Category,
		Status:   fields.Status,
	}

	books := slices.Clone(s.books)
	created := false
	if s.editingID != "" {
		book.ID = s.editingID
		if i := s.index(s.editingID); i >= 0 {
			book.CreatedAt = s.books[i].CreatedAt
			books[i] = book
		} else {
			// The record under edit vanished; store it again as new.
			book.CreatedAt = s.now().UTC()
			books = append(books, book)
			created = true
		}
	} else {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate book id: %w", err)
		}
		book.ID = id.String()
		book.CreatedAt = s.now().UTC()
		books = append(books, book)
		created = true
	}

	if err := s.persist(books); err != nil {
		return nil, err
	}
	s.editingID = ""
	return &Submission{Book: book, Created: created}, nil
}

// Delete removes the book with id. Unknown ids are a no-op. Deleting the
// book under edit clears the editing context.
func (s *Store) Delete(id string) error {
	if err := s.authorize(); err != nil {
		return err
	}
	i := s.index(id)
	if i < 0 {
		return nil
	}
	if err := s.persist(slices.Delete(slices.Clone(s.books), i, i+1)); err != nil {
		return err
	}
	if s.editingID == id {
		s.editingID = ""
	}
	return nil
}

// RequestDelete starts a two-phase deletion and returns the token that
// ConfirmDelete or CancelDelete expects.
func (s *Store) RequestDelete(id string) (string, error) {
	if err := s.authorize(); err != nil {
		return "", err
	}
	if s.index(id) < 0 {
		return "", models.ErrBookNotFound
	}
	token := uuid.NewString()
	s.pending[token] = id
	return token, nil
}

// PendingDelete returns the book id a token would delete.
func (s *Store) PendingDelete(token string) (string, bool) {
	id, ok := s.pending[token]
	return id, ok
}

// ConfirmDelete performs the deletion started by RequestDelete and returns
// the deleted id. The token is consumed even if the book vanished meanwhile.
func (s *Store) ConfirmDelete(token string) (string, error) {
	id, ok := s.pending[token]
	if !ok {
		return "", models.ErrNoPendingDelete
	}
	if err := s.Delete(id); err != nil {
		return "", err
	}
	delete(s.pending, token)
	return id, nil
}

// CancelDelete drops a pending deletion. It reports whether token was pending.
func (s *Store) CancelDelete(token string) bool {
	_, ok := s.pending[token]
	delete(s.pending, token)
	return ok
}

func (s *Store) persist(books []models.Book) error {
	if books == nil {
		books = []models.Book{}
	}
	if err := storage.SaveJSON(s.kv, storage.KeyBooks, books); err != nil {
		return err
	}
	s.books = books
	return nil
}

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.books, func(b models.Book) bool { return b.ID == id })
}

func trimFields(f models.BookFields) models.BookFields {
	return models.BookFields{
		Title:    strings.TrimSpace(f.Title),
		Author:   strings.TrimSpace(f.Author),
		ISBN:     strings.TrimSpace(f.ISBN),
		Year:     strings.TrimSpace(f.Year),
		Category: strings.TrimSpace(f.Category),
		Status:   strings.TrimSpace(f.Status),
	}
}
