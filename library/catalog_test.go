package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddBookValidation(t *testing.T) {
	db := tempDB(t)

	testCases := []struct {
		name string
		book Book
	}{
		{"missing isbn", Book{Title: "x", Author: "y", PublicationYear: 2000, TotalCopies: 1, AvailableCopies: 1}},
		{"year zero", Book{ISBN: "1", Title: "x", Author: "y", PublicationYear: 0, TotalCopies: 1, AvailableCopies: 1}},
		{"future year", Book{ISBN: "1", Title: "x", Author: "y", PublicationYear: time.Now().Year() + 1, TotalCopies: 1, AvailableCopies: 1}},
		{"available above total", Book{ISBN: "1", Title: "x", Author: "y", PublicationYear: 2000, TotalCopies: 1, AvailableCopies: 2}},
		{"negative copies", Book{ISBN: "1", Title: "x", Author: "y", PublicationYear: 2000, TotalCopies: -1, AvailableCopies: 0}},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := db.AddBook(&tt.book)
			assert.ErrorIs(t, err, ErrInvalidField)
		})
	}
}

func TestAddBookDuplicateISBN(t *testing.T) {
	db := tempDB(t)

	b := Book{ISBN: "978-1", Title: "One", Author: "A", PublicationYear: 2001, TotalCopies: 1, AvailableCopies: 1}
	_, err := db.AddBook(&b)
	require.NoError(t, err)

	b.Title = "Other"
	_, err = db.AddBook(&b)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestUpdateBookRecomputesAvailability(t *testing.T) {
	db := tempDB(t)
	bookID, memberID, staffID := seedCirculation(t, db, 3)

	// Two copies go out.
	_, err := db.CreateLoan(bookID, memberID, staffID, date(t, "2023-07-01"), date(t, "2023-07-15"))
	require.NoError(t, err)
	m2, err := db.AddMember(&Member{FirstName: "Bob", LastName: "Lee", Email: "bob.lee@example.com"})
	require.NoError(t, err)
	_, err = db.CreateLoan(bookID, m2, staffID, date(t, "2023-07-01"), date(t, "2023-07-15"))
	require.NoError(t, err)

	book, err := db.GetBook(bookID)
	require.NoError(t, err)
	book.TotalCopies = 5
	require.NoError(t, db.UpdateBook(book))

	book, err = db.GetBook(bookID)
	require.NoError(t, err)
	assert.Equal(t, 5, book.TotalCopies)
	assert.Equal(t, 3, book.AvailableCopies, "free copies = total minus the two outstanding loans")

	// Cannot shrink below the outstanding count.
	book.TotalCopies = 1
	assert.ErrorIs(t, db.UpdateBook(book), ErrReferentialIntegrity)
}

func TestDeleteBookCascadesCategoryLinks(t *testing.T) {
	db := tempDB(t)
	bookID, _, _ := seedCirculation(t, db, 1)

	catID, err := db.AddCategory("Dystopian")
	require.NoError(t, err)
	require.NoError(t, db.AssignCategory(bookID, catID))

	require.NoError(t, db.DeleteBook(bookID))

	books, err := db.GetBooksByCategory(catID)
	require.NoError(t, err)
	assert.Empty(t, books)

	// The category itself stays.
	cats, err := db.GetAllCategories()
	require.NoError(t, err)
	assert.Len(t, cats, 1)
}

func TestCategoryAssignment(t *testing.T) {
	db := tempDB(t)
	bookID, _, _ := seedCirculation(t, db, 1)

	catID, err := db.AddCategory("Dystopian")
	require.NoError(t, err)

	_, err = db.AddCategory("Dystopian")
	assert.ErrorIs(t, err, ErrDuplicateKey, "category names are unique")

	require.NoError(t, db.AssignCategory(bookID, catID))
	assert.ErrorIs(t, db.AssignCategory(bookID, catID), ErrDuplicateKey, "composite uniqueness on the join")

	assert.ErrorIs(t, db.AssignCategory(999, catID), ErrReferenceNotFound)
	assert.ErrorIs(t, db.AssignCategory(bookID, 999), ErrReferenceNotFound)

	cats, err := db.GetBookCategories(bookID)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Dystopian", cats[0].Name)

	require.NoError(t, db.UnassignCategory(bookID, catID))
	assert.ErrorIs(t, db.UnassignCategory(bookID, catID), ErrReferenceNotFound)
}
