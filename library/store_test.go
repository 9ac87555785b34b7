package library

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func tempDB(t *testing.T) *Database {
	t.Helper()
	dir := t.TempDir()
	db, err := NewDatabase(filepath.Join(dir, "test.db"))
	require.NoError(t, err, "new db")
	t.Cleanup(func() { db.Close() })
	return db
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(dateLayout, s)
	require.NoError(t, err)
	return d
}

// seedCirculation creates a book with the given copy count, one member and
// one staff record, and returns their ids.
func seedCirculation(t *testing.T, db *Database, copies int) (bookID, memberID, staffID int64) {
	t.Helper()

	bookID, err := db.AddBook(&Book{
		ISBN:            "978-0-452-28423-4",
		Title:           "Nineteen Eighty-Four",
		Author:          "George Orwell",
		Genre:           "Dystopian",
		PublicationYear: 1949,
		TotalCopies:     copies,
		AvailableCopies: copies,
	})
	require.NoError(t, err, "add book")

	memberID, err = db.AddMember(&Member{
		FirstName: "Alice",
		LastName:  "Martin",
		Email:     "alice.martin@example.com",
	})
	require.NoError(t, err, "add member")

	staffID, err = db.AddStaff(&Staff{
		FirstName: "Sam",
		LastName:  "Okafor",
		Email:     "sam.okafor@example.com",
		Role:      "Librarian",
	})
	require.NoError(t, err, "add staff")

	return bookID, memberID, staffID
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	db, err := NewDatabase(path)
	require.NoError(t, err)
	_, err = db.AddCategory("Fiction")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopen against the same file; schema must survive untouched.
	db, err = NewDatabase(path)
	require.NoError(t, err)
	defer db.Close()

	cats, err := db.GetAllCategories()
	require.NoError(t, err)
	require.Len(t, cats, 1)
	require.Equal(t, "Fiction", cats[0].Name)
}
