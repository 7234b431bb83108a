package catalog

import (
	"testing"
	"time"

	"bookshelf/internal/models"
	"bookshelf/internal/session"
	"bookshelf/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// stubSessions is a SessionReader with a fixed answer.
type stubSessions struct {
	sess *models.Session
}

func (s *stubSessions) CurrentSession() (*models.Session, error) { return s.sess, nil }

// StoreTestSuite provides a test suite for catalog operations
type StoreTestSuite struct {
	suite.Suite
	db       *storage.DB
	sessions *stubSessions
	store    *Store
	now      time.Time
}

// SetupTest runs before each test
func (suite *StoreTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	suite.sessions = &stubSessions{sess: &models.Session{ID: "u1", Name: "Ana", Email: "ana@x.com"}}
	suite.store = suite.open()
}

// TearDownTest runs after each test
func (suite *StoreTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *StoreTestSuite) open() *Store {
	store, err := Open(suite.db, suite.sessions, WithClock(func() time.Time { return suite.now }))
	require.NoError(suite.T(), err, "failed to open catalog")
	return store
}

func (suite *StoreTestSuite) add(title, author string) models.Book {
	sub, err := suite.store.Submit(models.BookFields{Title: title, Author: author})
	require.NoError(suite.T(), err, "failed to add %s", title)
	return sub.Book
}

func (suite *StoreTestSuite) list() []models.Book {
	books, err := suite.store.ListAll()
	require.NoError(suite.T(), err)
	return books
}

func (suite *StoreTestSuite) TestSubmitCreatesTwoDistinctBooks() {
	first := suite.add("A", "B")
	second := suite.add("A", "B")

	books := suite.list()
	assert.Len(suite.T(), books, 2)
	assert.NotEqual(suite.T(), first.ID, second.ID)
	assert.Equal(suite.T(), suite.now, first.CreatedAt)
	assert.Equal(suite.T(), models.DefaultStatus, first.Status)
	assert.Empty(suite.T(), first.ISBN)
	assert.Empty(suite.T(), first.Year)
	assert.Empty(suite.T(), first.Category)
}

func (suite *StoreTestSuite) TestSubmitReportsCreated() {
	sub, err := suite.store.Submit(models.BookFields{Title: "Dune", Author: "Herbert", Status: "Borrowed"})
	require.NoError(suite.T(), err)
	assert.True(suite.T(), sub.Created)
	assert.Equal(suite.T(), "Borrowed", sub.Book.Status)
}

func (suite *StoreTestSuite) TestSubmitRequiresTitleAndAuthor() {
	suite.add("Dune", "Herbert")

	for _, fields := range []models.BookFields{
		{Title: "", Author: "Herbert"},
		{Title: "Dune", Author: ""},
		{Title: "   ", Author: "Herbert"},
		{Title: "Dune", Author: "\t"},
	} {
		_, err := suite.store.Submit(fields)
		assert.ErrorIs(suite.T(), err, models.ErrMissingRequiredField)
	}
	assert.Len(suite.T(), suite.list(), 1)
}

func (suite *StoreTestSuite) TestSubmitTrimsFields() {
	book := suite.add("  Dune ", " Herbert  ")
	assert.Equal(suite.T(), "Dune", book.Title)
	assert.Equal(suite.T(), "Herbert", book.Author)
}

func (suite *StoreTestSuite) TestEditPreservesCreatedAtAndLength() {
	original := suite.add("Dune", "Herbert")
	suite.add("Emma", "Austen")

	suite.now = suite.now.Add(48 * time.Hour)
	book, ok, err := suite.store.BeginEdit(original.ID)
	require.NoError(suite.T(), err)
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), "Dune", book.Title)
	assert.Equal(suite.T(), original.ID, suite.store.EditingID())

	sub, err := suite.store.Submit(models.BookFields{
		Title: "Dune Messiah", Author: "Frank Herbert", ISBN: "978-0", Year: "1969",
		Category: "Sci-Fi", Status: "Borrowed",
	})
	require.NoError(suite.T(), err)
	assert.False(suite.T(), sub.Created)

	books := suite.list()
	require.Len(suite.T(), books, 2)
	assert.Equal(suite.T(), models.Book{
		ID: original.ID, Title: "Dune Messiah", Author: "Frank Herbert", ISBN: "978-0",
		Year: "1969", Category: "Sci-Fi", Status: "Borrowed", CreatedAt: original.CreatedAt,
	}, books[0])
	assert.Empty(suite.T(), suite.store.EditingID(), "editing context should be cleared")
}

func (suite *StoreTestSuite) TestEditOverwritesOptionalFields() {
	sub, err := suite.store.Submit(models.BookFields{Title: "Dune", Author: "Herbert", ISBN: "123", Category: "Sci-Fi"})
	require.NoError(suite.T(), err)

	_, _, err = suite.store.BeginEdit(sub.Book.ID)
	require.NoError(suite.T(), err)
	_, err = suite.store.Submit(models.BookFields{Title: "Dune", Author: "Herbert"})
	require.NoError(suite.T(), err)

	books := suite.list()
	assert.Empty(suite.T(), books[0].ISBN)
	assert.Empty(suite.T(), books[0].Category)
	assert.Equal(suite.T(), models.DefaultStatus, books[0].Status)
}

func (suite *StoreTestSuite) TestFailedSubmitKeepsEditingContext() {
	book := suite.add("Dune", "Herbert")
	_, _, err := suite.store.BeginEdit(book.ID)
	require.NoError(suite.T(), err)

	_, err = suite.store.Submit(models.BookFields{Title: "", Author: "Herbert"})
	require.ErrorIs(suite.T(), err, models.ErrMissingRequiredField)
	assert.Equal(suite.T(), book.ID, suite.store.EditingID())
}

func (suite *StoreTestSuite) TestEditTargetVanished() {
	book := suite.add("Dune", "Herbert")
	_, _, err := suite.store.BeginEdit(book.ID)
	require.NoError(suite.T(), err)

	// Another handle on the same storage deletes the record.
	other := suite.open()
	require.NoError(suite.T(), other.Delete(book.ID))
	require.NoError(suite.T(), suite.store.Reload())

	suite.now = suite.now.Add(time.Hour)
	sub, err := suite.store.Submit(models.BookFields{Title: "Dune", Author: "Herbert"})
	require.NoError(suite.T(), err)
	assert.True(suite.T(), sub.Created)
	assert.Equal(suite.T(), book.ID, sub.Book.ID)
	assert.Equal(suite.T(), suite.now, sub.Book.CreatedAt)
	assert.Len(suite.T(), suite.list(), 1)
}

func (suite *StoreTestSuite) TestBeginEditUnknownID() {
	book := suite.add("Dune", "Herbert")
	_, _, err := suite.store.BeginEdit(book.ID)
	require.NoError(suite.T(), err)

	got, ok, err := suite.store.BeginEdit("missing")
	require.NoError(suite.T(), err)
	assert.False(suite.T(), ok)
	assert.Nil(suite.T(), got)
	assert.Equal(suite.T(), book.ID, suite.store.EditingID(), "unknown id must not touch the context")
}

func (suite *StoreTestSuite) TestCancelEdit() {
	book := suite.add("Dune", "Herbert")
	_, _, err := suite.store.BeginEdit(book.ID)
	require.NoError(suite.T(), err)

	suite.store.CancelEdit()
	assert.Empty(suite.T(), suite.store.EditingID())

	sub, err := suite.store.Submit(models.BookFields{Title: "Emma", Author: "Austen"})
	require.NoError(suite.T(), err)
	assert.True(suite.T(), sub.Created)
	assert.Len(suite.T(), suite.list(), 2)
}

func (suite *StoreTestSuite) TestSearchExamples() {
	dune := suite.add("Dune", "Herbert")

	found, err := suite.store.Search("dun")
	require.NoError(suite.T(), err)
	require.Len(suite.T(), found, 1)
	assert.Equal(suite.T(), dune.ID, found[0].ID)

	found, err = suite.store.Search("xyz")
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), found)
}

func (suite *StoreTestSuite) TestSearchEmptyEqualsListAll() {
	suite.add("Dune", "Herbert")
	suite.add("Emma", "Austen")
	suite.add("Ulysses", "Joyce")

	for _, term := range []string{"", "   "} {
		found, err := suite.store.Search(term)
		require.NoError(suite.T(), err)
		assert.Equal(suite.T(), suite.list(), found)
	}
}

func (suite *StoreTestSuite) TestSearchFieldsAndOrder() {
	_, err := suite.store.Submit(models.BookFields{Title: "Emma", Author: "Austen", Category: "Romance"})
	require.NoError(suite.T(), err)
	_, err = suite.store.Submit(models.BookFields{Title: "Dune", Author: "Herbert", ISBN: "978-ROM"})
	require.NoError(suite.T(), err)
	_, err = suite.store.Submit(models.BookFields{Title: "Romeo and Juliet", Author: "Shakespeare"})
	require.NoError(suite.T(), err)
	_, err = suite.store.Submit(models.BookFields{Title: "Ulysses", Author: "Joyce", Year: "1922rom"})
	require.NoError(suite.T(), err)

	found, err := suite.store.Search("  ROM ")
	require.NoError(suite.T(), err)

	titles := make([]string, 0, len(found))
	for _, b := range found {
		titles = append(titles, b.Title)
	}
	// Year is not searched.
	assert.Equal(suite.T(), []string{"Emma", "Dune", "Romeo and Juliet"}, titles)
}

func (suite *StoreTestSuite) TestDeleteUnknownIDIsNoOp() {
	suite.add("Dune", "Herbert")
	before := suite.list()

	require.NoError(suite.T(), suite.store.Delete("missing"))
	assert.Equal(suite.T(), before, suite.list())
}

func (suite *StoreTestSuite) TestDeleteBookUnderEdit() {
	dune := suite.add("Dune", "Herbert")
	emma := suite.add("Emma", "Austen")
	_, _, err := suite.store.BeginEdit(dune.ID)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.store.Delete(emma.ID))
	assert.Equal(suite.T(), dune.ID, suite.store.EditingID(), "deleting another book keeps the context")

	require.NoError(suite.T(), suite.store.Delete(dune.ID))
	assert.Empty(suite.T(), suite.store.EditingID())
	assert.Empty(suite.T(), suite.list())
}

func (suite *StoreTestSuite) TestTwoPhaseDelete() {
	dune := suite.add("Dune", "Herbert")

	token, err := suite.store.RequestDelete(dune.ID)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), suite.list(), 1, "request alone must not delete")

	id, ok := suite.store.PendingDelete(token)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), dune.ID, id)

	deleted, err := suite.store.ConfirmDelete(token)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), dune.ID, deleted)
	assert.Empty(suite.T(), suite.list())

	_, err = suite.store.ConfirmDelete(token)
	assert.ErrorIs(suite.T(), err, models.ErrNoPendingDelete, "token is single use")
}

func (suite *StoreTestSuite) TestCancelDelete() {
	dune := suite.add("Dune", "Herbert")
	token, err := suite.store.RequestDelete(dune.ID)
	require.NoError(suite.T(), err)

	assert.True(suite.T(), suite.store.CancelDelete(token))
	assert.False(suite.T(), suite.store.CancelDelete(token))

	_, err = suite.store.ConfirmDelete(token)
	assert.ErrorIs(suite.T(), err, models.ErrNoPendingDelete)
	assert.Len(suite.T(), suite.list(), 1)
}

func (suite *StoreTestSuite) TestRequestDeleteUnknownID() {
	_, err := suite.store.RequestDelete("missing")
	assert.ErrorIs(suite.T(), err, models.ErrBookNotFound)
}

func (suite *StoreTestSuite) TestRequiresSession() {
	book := suite.add("Dune", "Herbert")
	suite.sessions.sess = nil

	_, err := suite.store.ListAll()
	assert.ErrorIs(suite.T(), err, models.ErrNotAuthenticated)
	_, err = suite.store.Search("dune")
	assert.ErrorIs(suite.T(), err, models.ErrNotAuthenticated)
	_, err = suite.store.Submit(models.BookFields{Title: "A", Author: "B"})
	assert.ErrorIs(suite.T(), err, models.ErrNotAuthenticated)
	_, _, err = suite.store.BeginEdit(book.ID)
	assert.ErrorIs(suite.T(), err, models.ErrNotAuthenticated)
	assert.ErrorIs(suite.T(), suite.store.Delete(book.ID), models.ErrNotAuthenticated)
	_, err = suite.store.RequestDelete(book.ID)
	assert.ErrorIs(suite.T(), err, models.ErrNotAuthenticated)
}

func (suite *StoreTestSuite) TestCatalogSurvivesReopen() {
	dune := suite.add("Dune", "Herbert")
	suite.add("Emma", "Austen")

	reopened := suite.open()
	books, err := reopened.ListAll()
	require.NoError(suite.T(), err)
	require.Len(suite.T(), books, 2)
	assert.Equal(suite.T(), dune, books[0])
}

func TestCatalogGatedByRealSessionStore(t *testing.T) {
	db, err := storage.NewDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	sessions := session.NewStore(db)
	store, err := Open(db, sessions)
	require.NoError(t, err)

	_, err = store.ListAll()
	require.ErrorIs(t, err, models.ErrNotAuthenticated)

	_, err = sessions.Register("Ana", "ana@x.com", "secret1", "secret1")
	require.NoError(t, err)
	_, err = sessions.Authenticate("ana@x.com", "secret1")
	require.NoError(t, err)

	books, err := store.ListAll()
	require.NoError(t, err)
	assert.Empty(t, books)
}

// Test suite runners
func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}
