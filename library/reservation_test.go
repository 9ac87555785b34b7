package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateReservationValidation(t *testing.T) {
	db := tempDB(t)
	bookID, memberID, _ := seedCirculation(t, db, 1)

	_, err := db.CreateReservation(bookID, memberID, date(t, "2023-07-05"), date(t, "2023-07-05"))
	assert.ErrorIs(t, err, ErrInvalidDateRange, "expiry must be strictly after reservation")

	_, err = db.CreateReservation(999, memberID, date(t, "2023-07-05"), date(t, "2023-07-12"))
	assert.ErrorIs(t, err, ErrReferenceNotFound)
	_, err = db.CreateReservation(bookID, 999, date(t, "2023-07-05"), date(t, "2023-07-12"))
	assert.ErrorIs(t, err, ErrReferenceNotFound)

	r, err := db.CreateReservation(bookID, memberID, date(t, "2023-07-05"), date(t, "2023-07-12"))
	require.NoError(t, err)
	assert.Equal(t, ReservationActive, r.Status)

	// Only one Active hold per (book, member).
	_, err = db.CreateReservation(bookID, memberID, date(t, "2023-07-06"), date(t, "2023-07-13"))
	assert.ErrorIs(t, err, ErrDuplicateKey)

	// A cancelled hold frees the slot.
	require.NoError(t, db.CancelReservation(r.ReservationID))
	_, err = db.CreateReservation(bookID, memberID, date(t, "2023-07-06"), date(t, "2023-07-13"))
	require.NoError(t, err)
}

func TestReturnFulfillsOldestReservation(t *testing.T) {
	db := tempDB(t)
	bookID, memberID, staffID := seedCirculation(t, db, 1)
	m2, err := db.AddMember(&Member{FirstName: "Bob", LastName: "Lee", Email: "bob.lee@example.com"})
	require.NoError(t, err)
	m3, err := db.AddMember(&Member{FirstName: "Cara", LastName: "Diaz", Email: "cara.diaz@example.com"})
	require.NoError(t, err)

	loan, err := db.CreateLoan(bookID, memberID, staffID, date(t, "2023-07-01"), date(t, "2023-07-15"))
	require.NoError(t, err)

	// R2 placed first but dated later; R1 must win on reservation_date.
	r2, err := db.CreateReservation(bookID, m3, date(t, "2023-07-10"), date(t, "2023-07-20"))
	require.NoError(t, err)
	r1, err := db.CreateReservation(bookID, m2, date(t, "2023-07-05"), date(t, "2023-07-20"))
	require.NoError(t, err)

	returned, fulfilled, err := db.ReturnLoan(loan.LoanID, date(t, "2023-07-12"))
	require.NoError(t, err)
	assert.Equal(t, LoanReturned, returned.Status)
	require.NotNil(t, fulfilled)
	assert.Equal(t, r1.ReservationID, fulfilled.ReservationID)
	assert.Equal(t, ReservationFulfilled, fulfilled.Status)

	// Fulfillment only marks the hold: no loan is issued, the freed copy
	// stays available.
	book, err := db.GetBook(bookID)
	require.NoError(t, err)
	assert.Equal(t, 1, book.AvailableCopies)
	loans, err := db.GetBookLoans(bookID, true)
	require.NoError(t, err)
	assert.Empty(t, loans)

	got, err := db.GetReservation(r2.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, ReservationActive, got.Status, "younger hold stays queued")
}

func TestReservationTieBrokenByID(t *testing.T) {
	db := tempDB(t)
	bookID, memberID, staffID := seedCirculation(t, db, 1)
	m2, err := db.AddMember(&Member{FirstName: "Bob", LastName: "Lee", Email: "bob.lee@example.com"})
	require.NoError(t, err)
	m3, err := db.AddMember(&Member{FirstName: "Cara", LastName: "Diaz", Email: "cara.diaz@example.com"})
	require.NoError(t, err)

	loan, err := db.CreateLoan(bookID, memberID, staffID, date(t, "2023-07-01"), date(t, "2023-07-15"))
	require.NoError(t, err)

	sameDay := date(t, "2023-07-05")
	first, err := db.CreateReservation(bookID, m2, sameDay, date(t, "2023-07-20"))
	require.NoError(t, err)
	_, err = db.CreateReservation(bookID, m3, sameDay, date(t, "2023-07-20"))
	require.NoError(t, err)

	_, fulfilled, err := db.ReturnLoan(loan.LoanID, date(t, "2023-07-12"))
	require.NoError(t, err)
	require.NotNil(t, fulfilled)
	assert.Equal(t, first.ReservationID, fulfilled.ReservationID, "lower id wins the tie")
}

// The spec's reference scenario: one copy, all out, one hold; the return
// frees the copy and satisfies the hold in one step.
func TestReturnWithHoldScenario(t *testing.T) {
	db := tempDB(t)
	bookID, memberID, staffID := seedCirculation(t, db, 1)
	m2, err := db.AddMember(&Member{FirstName: "Bob", LastName: "Lee", Email: "bob.lee@example.com"})
	require.NoError(t, err)

	loan, err := db.CreateLoan(bookID, memberID, staffID, date(t, "2023-07-01"), date(t, "2023-07-15"))
	require.NoError(t, err)

	book, err := db.GetBook(bookID)
	require.NoError(t, err)
	require.Equal(t, 0, book.AvailableCopies)

	r, err := db.CreateReservation(bookID, m2, date(t, "2023-07-05"), date(t, "2023-07-19"))
	require.NoError(t, err)

	_, fulfilled, err := db.ReturnLoan(loan.LoanID, date(t, "2023-07-12"))
	require.NoError(t, err)

	book, err = db.GetBook(bookID)
	require.NoError(t, err)
	assert.Equal(t, 1, book.AvailableCopies)
	require.NotNil(t, fulfilled)
	assert.Equal(t, r.ReservationID, fulfilled.ReservationID)
}

func TestCancelReservationTerminal(t *testing.T) {
	db := tempDB(t)
	bookID, memberID, _ := seedCirculation(t, db, 1)

	r, err := db.CreateReservation(bookID, memberID, date(t, "2023-07-05"), date(t, "2023-07-12"))
	require.NoError(t, err)
	require.NoError(t, db.CancelReservation(r.ReservationID))

	assert.ErrorIs(t, db.CancelReservation(r.ReservationID), ErrAlreadySettled)
	assert.ErrorIs(t, db.CancelReservation(999), ErrReferenceNotFound)
}

func TestExpirySweepSkipsFulfilled(t *testing.T) {
	db := tempDB(t)
	bookID, memberID, staffID := seedCirculation(t, db, 1)
	m2, err := db.AddMember(&Member{FirstName: "Bob", LastName: "Lee", Email: "bob.lee@example.com"})
	require.NoError(t, err)

	loan, err := db.CreateLoan(bookID, memberID, staffID, date(t, "2023-07-01"), date(t, "2023-07-15"))
	require.NoError(t, err)
	_, err = db.CreateReservation(bookID, m2, date(t, "2023-07-05"), date(t, "2023-07-10"))
	require.NoError(t, err)

	_, fulfilled, err := db.ReturnLoan(loan.LoanID, date(t, "2023-07-08"))
	require.NoError(t, err)
	require.NotNil(t, fulfilled)

	// Past the expiry date, but the hold was already satisfied.
	_, expired, err := db.ApplyDateTransitions(date(t, "2023-07-11"))
	require.NoError(t, err)
	assert.EqualValues(t, 0, expired)

	got, err := db.GetReservation(fulfilled.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, ReservationFulfilled, got.Status)
}

func TestExpiredReservationNotFulfilled(t *testing.T) {
	db := tempDB(t)
	bookID, memberID, staffID := seedCirculation(t, db, 1)
	m2, err := db.AddMember(&Member{FirstName: "Bob", LastName: "Lee", Email: "bob.lee@example.com"})
	require.NoError(t, err)

	loan, err := db.CreateLoan(bookID, memberID, staffID, date(t, "2023-07-01"), date(t, "2023-07-15"))
	require.NoError(t, err)
	r, err := db.CreateReservation(bookID, m2, date(t, "2023-07-02"), date(t, "2023-07-05"))
	require.NoError(t, err)

	_, expired, err := db.ApplyDateTransitions(date(t, "2023-07-05"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, expired)

	_, fulfilled, err := db.ReturnLoan(loan.LoanID, date(t, "2023-07-06"))
	require.NoError(t, err)
	assert.Nil(t, fulfilled, "expired holds are out of the queue")

	got, err := db.GetReservation(r.ReservationID)
	require.NoError(t, err)
	assert.Equal(t, ReservationExpired, got.Status)
}
