// Package session owns the user directory and the single current-session slot.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookshelf/internal/models"
	"bookshelf/internal/storage"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 6

// Store registers and authenticates users against the persisted directory
// and manages the persisted session slot.
type Store struct {
	kv       storage.KV
	validate *validator.Validate
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for createdAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store backed by kv.
func NewStore(kv storage.KV, opts ...Option) *Store {
	v := validator.New()
	v.RegisterAlias("password", "min="+strconv.Itoa(MinPasswordLength))
	s := &Store{kv: kv, validate: v, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type registration struct {
	Name            string
	Email           string
	Password        string `validate:"password"`
	ConfirmPassword string `validate:"eqfield=Password"`
}

// Register adds a new user to the directory. The password rules are checked
// before the email, and nothing is written unless every check passes.
// Register does not log the user in.
func (s *Store) Register(name, email, password, confirmPassword string) (*models.User, error) {
	req := registration{
		Name:            strings.TrimSpace(name),
		Email:           strings.TrimSpace(email),
		Password:        password,
		ConfirmPassword: confirmPassword,
	}
	if err := s.checkRegistration(req); err != nil {
		return nil, err
	}

	users, err := s.Users()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email == req.Email {
			return nil, models.ErrEmailTaken
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}
	user := models.User{
		ID:        id.String(),
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		CreatedAt: s.now().UTC(),
	}

	users = append(users, user)
	if err := storage.SaveJSON(s.kv, storage.KeyUsers, users); err != nil {
		return nil, err
	}
	return &user, nil
}

// checkRegistration maps validator failures onto the domain errors. A short
// password wins over a mismatch.
func (s *Store) checkRegistration(req registration) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate registration: %w", err)
	}
	mismatch := false
	for _, fe := range verrs {
		switch fe.Field() {
		case "Password":
			return models.ErrWeakPassword
		case "ConfirmPassword":
			mismatch = true
		}
	}
	if mismatch {
		return models.ErrPasswordMismatch
	}
	return fmt.Errorf("validate registration: %w", err)
}

// Authenticate looks up the first user whose email and password match
// exactly, stores the session projection and returns it.
func (s *Store) Authenticate(email, password string) (*models.Session, error) {
	email = strings.TrimSpace(email)

	users, err := s.Users()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.Email == email && u.Password == password {
			sess := models.SessionFor(u)
			if err := storage.SaveJSON(s.kv, storage.KeySession, sess); err != nil {
				return nil, err
			}
			return &sess, nil
		}
	}
	return nil, models.ErrInvalidCredentials
}

// CurrentSession returns the persisted session, or nil when nobody is logged in.
func (s *Store) CurrentSession() (*models.Session, error) {
	var sess models.Session
	ok, err := storage.LoadJSON(s.kv, storage.KeySession, &sess)
	if err != nil || !ok {
		return nil, err
	}
	return &sess, nil
}

// Logout clears the session slot unconditionally.
func (s *Store) Logout() error {
	if err := s.kv.Remove(storage.KeySession); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Users returns the user directory in registration order.
func (s *Store) Users() ([]models.User, error) {
	var users []models.User
	if _, err := storage.LoadJSON(s.kv, storage.KeyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}
