package library

import (
	"time"
)

// Default periods applied when the caller does not pick dates. The 14-day
// loan matches the standing lending policy; holds lapse after 7 days.
const (
	DefaultLoanDays = 14
	DefaultHoldDays = 7
)

// LibraryManager is a thin façade over the Database, keeping CLI code
// simple. It supplies wall-clock defaults for the date-taking engine
// methods; tests drive the Database directly with explicit dates.
type LibraryManager struct {
	db *Database

	now func() time.Time
}

// NewLibraryManager opens (or creates) the SQLite database at dbPath.
func NewLibraryManager(dbPath string) (*LibraryManager, error) {
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	return &LibraryManager{db: db, now: time.Now}, nil
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

// Store exposes the underlying database for operations the façade does not
// wrap.
func (lm *LibraryManager) Store() *Database { return lm.db }

// ------------------ Catalog ------------------

func (lm *LibraryManager) AddBook(b *Book) (int64, error)  { return lm.db.AddBook(b) }
func (lm *LibraryManager) GetBook(id int64) (*Book, error) { return lm.db.GetBook(id) }
func (lm *LibraryManager) GetAllBooks() ([]*Book, error)   { return lm.db.GetAllBooks() }
func (lm *LibraryManager) UpdateBook(b *Book) error        { return lm.db.UpdateBook(b) }
func (lm *LibraryManager) DeleteBook(id int64) error       { return lm.db.DeleteBook(id) }
func (lm *LibraryManager) SearchBooks(f BookFilter) ([]*Book, error) {
	return lm.db.SearchBooks(f)
}

func (lm *LibraryManager) AddCategory(name string) (int64, error) { return lm.db.AddCategory(name) }
func (lm *LibraryManager) GetAllCategories() ([]*Category, error) { return lm.db.GetAllCategories() }
func (lm *LibraryManager) DeleteCategory(id int64) error          { return lm.db.DeleteCategory(id) }
func (lm *LibraryManager) AssignCategory(bookID, categoryID int64) error {
	return lm.db.AssignCategory(bookID, categoryID)
}
func (lm *LibraryManager) UnassignCategory(bookID, categoryID int64) error {
	return lm.db.UnassignCategory(bookID, categoryID)
}
func (lm *LibraryManager) GetBooksByCategory(categoryID int64) ([]*Book, error) {
	return lm.db.GetBooksByCategory(categoryID)
}

// ------------------ Membership ------------------

func (lm *LibraryManager) AddMember(m *Member) (int64, error)  { return lm.db.AddMember(m) }
func (lm *LibraryManager) GetMember(id int64) (*Member, error) { return lm.db.GetMember(id) }
func (lm *LibraryManager) GetAllMembers() ([]*Member, error)   { return lm.db.GetAllMembers() }
func (lm *LibraryManager) UpdateMember(m *Member) error        { return lm.db.UpdateMember(m) }
func (lm *LibraryManager) DeleteMember(id int64) error         { return lm.db.DeleteMember(id) }
func (lm *LibraryManager) SetMemberStatus(id int64, status MembershipStatus) error {
	return lm.db.SetMemberStatus(id, status)
}

func (lm *LibraryManager) AddStaff(s *Staff) (int64, error)  { return lm.db.AddStaff(s) }
func (lm *LibraryManager) GetStaff(id int64) (*Staff, error) { return lm.db.GetStaff(id) }
func (lm *LibraryManager) GetAllStaff() ([]*Staff, error)    { return lm.db.GetAllStaff() }
func (lm *LibraryManager) UpdateStaff(s *Staff) error        { return lm.db.UpdateStaff(s) }
func (lm *LibraryManager) DeleteStaff(id int64) error        { return lm.db.DeleteStaff(id) }
func (lm *LibraryManager) SetStaffPassword(id int64, pw string) error {
	return lm.db.SetStaffPassword(id, pw)
}
func (lm *LibraryManager) AuthenticateStaff(id int64, pw string) error {
	return lm.db.AuthenticateStaff(id, pw)
}

// ------------------ Circulation ------------------

// CheckoutBook creates a loan dated today with the default due date.
func (lm *LibraryManager) CheckoutBook(bookID, memberID, staffID int64) (*Loan, error) {
	today := lm.now()
	return lm.db.CreateLoan(bookID, memberID, staffID, today, today.AddDate(0, 0, DefaultLoanDays))
}

// CheckoutBookUntil creates a loan dated today with an explicit due date.
func (lm *LibraryManager) CheckoutBookUntil(bookID, memberID, staffID int64, dueDate time.Time) (*Loan, error) {
	return lm.db.CreateLoan(bookID, memberID, staffID, lm.now(), dueDate)
}

// ReturnBook marks the loan returned today and reports the reservation the
// return fulfilled, if any.
func (lm *LibraryManager) ReturnBook(loanID int64) (*Loan, *Reservation, error) {
	return lm.db.ReturnLoan(loanID, lm.now())
}

func (lm *LibraryManager) MarkLoanLost(loanID int64) (*Loan, error) {
	return lm.db.MarkLoanLost(loanID)
}

func (lm *LibraryManager) GetLoan(id int64) (*Loan, error) { return lm.db.GetLoan(id) }
func (lm *LibraryManager) GetAllLoans() ([]*Loan, error)   { return lm.db.GetAllLoans() }
func (lm *LibraryManager) GetMemberLoans(memberID int64, activeOnly bool) ([]*Loan, error) {
	return lm.db.GetMemberLoans(memberID, activeOnly)
}
func (lm *LibraryManager) GetBookLoans(bookID int64, activeOnly bool) ([]*Loan, error) {
	return lm.db.GetBookLoans(bookID, activeOnly)
}
func (lm *LibraryManager) DeleteLoan(id int64) error { return lm.db.DeleteLoan(id) }

// Sweep applies the date-based transitions as of today.
func (lm *LibraryManager) Sweep() (overdue, expired int64, err error) {
	return lm.db.ApplyDateTransitions(lm.now())
}

// ------------------ Reservations ------------------

// ReserveBook places a hold dated today with the default expiry.
func (lm *LibraryManager) ReserveBook(bookID, memberID int64) (*Reservation, error) {
	today := lm.now()
	return lm.db.CreateReservation(bookID, memberID, today, today.AddDate(0, 0, DefaultHoldDays))
}

func (lm *LibraryManager) CancelReservation(id int64) error { return lm.db.CancelReservation(id) }
func (lm *LibraryManager) GetBookReservations(bookID int64) ([]*Reservation, error) {
	return lm.db.GetBookReservations(bookID)
}
func (lm *LibraryManager) GetMemberReservations(memberID int64) ([]*Reservation, error) {
	return lm.db.GetMemberReservations(memberID)
}

// ------------------ Fines ------------------

// IssueFine records a fine dated today.
func (lm *LibraryManager) IssueFine(loanID int64, amount float64) (*Fine, error) {
	return lm.db.IssueFine(loanID, amount, lm.now())
}

// PayFine settles a fine as Paid, dated today.
func (lm *LibraryManager) PayFine(fineID int64) (*Fine, error) {
	return lm.db.SettleFine(fineID, FinePaid, lm.now())
}

// WaiveFine settles a fine as Waived, dated today.
func (lm *LibraryManager) WaiveFine(fineID int64) (*Fine, error) {
	return lm.db.SettleFine(fineID, FineWaived, lm.now())
}

func (lm *LibraryManager) GetFine(id int64) (*Fine, error) { return lm.db.GetFine(id) }
func (lm *LibraryManager) GetLoanFines(loanID int64) ([]*Fine, error) {
	return lm.db.GetLoanFines(loanID)
}
func (lm *LibraryManager) GetMemberFines(memberID int64) ([]*Fine, error) {
	return lm.db.GetMemberFines(memberID)
}
