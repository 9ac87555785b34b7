package library

import (
	"database/sql"
	"time"
)

// MembershipStatus is mutated by external policy, never by the circulation
// engine.
type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "Active"
	MembershipExpired   MembershipStatus = "Expired"
	MembershipSuspended MembershipStatus = "Suspended"
)

// LoanStatus follows Borrowed -> {Overdue} -> {Returned, Lost}. Returned and
// Lost are terminal.
type LoanStatus string

const (
	LoanBorrowed LoanStatus = "Borrowed"
	LoanOverdue  LoanStatus = "Overdue"
	LoanReturned LoanStatus = "Returned"
	LoanLost     LoanStatus = "Lost"
)

type FineStatus string

const (
	FinePending FineStatus = "Pending"
	FinePaid    FineStatus = "Paid"
	FineWaived  FineStatus = "Waived"
)

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "Active"
	ReservationFulfilled ReservationStatus = "Fulfilled"
	ReservationCancelled ReservationStatus = "Cancelled"
	ReservationExpired   ReservationStatus = "Expired"
)

// Member represents a registered library member.
type Member struct {
	MemberID  int64            `db:"member_id" json:"member_id"`
	FirstName string           `db:"first_name" json:"first_name"`
	LastName  string           `db:"last_name" json:"last_name"`
	Email     string           `db:"email" json:"email"`
	Phone     string           `db:"phone_number" json:"phone_number"`
	Address   string           `db:"address" json:"address"`
	Status    MembershipStatus `db:"membership_status" json:"membership_status"`
}

// Staff processes loans. PasswordHash is a bcrypt hash and is never
// serialized.
type Staff struct {
	StaffID      int64  `db:"staff_id" json:"staff_id"`
	FirstName    string `db:"first_name" json:"first_name"`
	LastName     string `db:"last_name" json:"last_name"`
	Email        string `db:"email" json:"email"`
	Role         string `db:"role" json:"role"`
	PasswordHash string `db:"password_hash" json:"-"`
}

// Book is a catalog entry. AvailableCopies is owned by the circulation
// engine; external writers must not set it directly.
type Book struct {
	BookID          int64  `db:"book_id" json:"book_id"`
	ISBN            string `db:"isbn" json:"isbn"`
	Title           string `db:"title" json:"title"`
	Author          string `db:"author" json:"author"`
	Genre           string `db:"genre" json:"genre"`
	PublicationYear int    `db:"publication_year" json:"publication_year"`
	TotalCopies     int    `db:"total_copies" json:"total_copies"`
	AvailableCopies int    `db:"available_copies" json:"available_copies"`
}

type Category struct {
	CategoryID int64  `db:"category_id" json:"category_id"`
	Name       string `db:"name" json:"name"`
}

// Loan is the circulation record for a single checked-out copy.
type Loan struct {
	LoanID     int64        `db:"loan_id" json:"loan_id"`
	BookID     int64        `db:"book_id" json:"book_id"`
	MemberID   int64        `db:"member_id" json:"member_id"`
	StaffID    int64        `db:"staff_id" json:"staff_id"`
	LoanDate   time.Time    `db:"loan_date" json:"loan_date"`
	DueDate    time.Time    `db:"due_date" json:"due_date"`
	ReturnDate sql.NullTime `db:"return_date" json:"return_date"`
	Status     LoanStatus   `db:"status" json:"status"`
}

// Outstanding reports whether the loan still holds a copy.
func (l *Loan) Outstanding() bool {
	return l.Status == LoanBorrowed || l.Status == LoanOverdue
}

// Fine is a monetary penalty tied to a Loan.
type Fine struct {
	FineID      int64        `db:"fine_id" json:"fine_id"`
	LoanID      int64        `db:"loan_id" json:"loan_id"`
	Amount      float64      `db:"amount" json:"amount"`
	IssueDate   time.Time    `db:"issue_date" json:"issue_date"`
	PaymentDate sql.NullTime `db:"payment_date" json:"payment_date"`
	Status      FineStatus   `db:"status" json:"status"`
}

// Reservation is a member's hold on the next available copy of a book.
type Reservation struct {
	ReservationID   int64             `db:"reservation_id" json:"reservation_id"`
	BookID          int64             `db:"book_id" json:"book_id"`
	MemberID        int64             `db:"member_id" json:"member_id"`
	ReservationDate time.Time         `db:"reservation_date" json:"reservation_date"`
	ExpiryDate      time.Time         `db:"expiry_date" json:"expiry_date"`
	Status          ReservationStatus `db:"status" json:"status"`
}
