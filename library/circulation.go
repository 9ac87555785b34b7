package library

import (
	"fmt"
	"time"
)

// CreateLoan checks out one copy of a book to a member, processed by a staff
// record. The availability check and the decrement are a single guarded
// UPDATE, so two concurrent checkouts can never both take the last copy: the
// loser's UPDATE matches no row and the transaction rolls back with
// ErrNoCopiesAvailable.
func (d *Database) CreateLoan(bookID, memberID, staffID int64, loanDate, dueDate time.Time) (*Loan, error) {
	if dateBefore(dueDate, loanDate) {
		return nil, fmt.Errorf("%w: due %s before loan %s",
			ErrInvalidDateRange, fmtDate(dueDate), fmtDate(loanDate))
	}

	tx, err := d.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if ok, err := memberExists(tx, memberID); err != nil {
		return nil, err
	} else if !ok {
		return nil, notFound("member", memberID)
	}
	if ok, err := staffExists(tx, staffID); err != nil {
		return nil, err
	} else if !ok {
		return nil, notFound("staff", staffID)
	}
	if ok, err := bookExists(tx, bookID); err != nil {
		return nil, err
	} else if !ok {
		return nil, notFound("book", bookID)
	}

	res, err := tx.Exec(`UPDATE books
        SET available_copies = available_copies - 1
        WHERE book_id=? AND available_copies > 0`, bookID)
	if err != nil {
		return nil, storeErr(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, fmt.Errorf("%w: book %d", ErrNoCopiesAvailable, bookID)
	}

	ins, err := tx.Exec(`INSERT INTO loans(book_id,member_id,staff_id,loan_date,due_date,status)
        VALUES(?,?,?,?,?,'Borrowed')`,
		bookID, memberID, staffID, fmtDate(loanDate), fmtDate(dueDate))
	if err != nil {
		return nil, storeErr(err)
	}
	loanID, err := ins.LastInsertId()
	if err != nil {
		return nil, err
	}

	var loan Loan
	if err := tx.Get(&loan, `SELECT * FROM loans WHERE loan_id=?`, loanID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &loan, nil
}

// ReturnLoan transitions a Borrowed or Overdue loan to Returned, frees the
// copy (capped at total_copies) and fulfills the oldest Active reservation
// for the book, all in one transaction. Returning an already-Returned loan
// is a no-op; the fulfilled reservation, if any, is reported to the caller.
func (d *Database) ReturnLoan(loanID int64, returnDate time.Time) (*Loan, *Reservation, error) {
	tx, err := d.db.Beginx()
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var loan Loan
	if err := getOne(tx, &loan, "loan", loanID, `SELECT * FROM loans WHERE loan_id=?`, loanID); err != nil {
		return nil, nil, err
	}

	switch loan.Status {
	case LoanReturned:
		// Idempotent: no second increment, no second fulfillment.
		return &loan, nil, nil
	case LoanLost:
		return nil, nil, fmt.Errorf("%w: loan %d is Lost", ErrAlreadySettled, loanID)
	}

	if dateBefore(returnDate, loan.LoanDate) {
		return nil, nil, fmt.Errorf("%w: return %s before loan %s",
			ErrInvalidDateRange, fmtDate(returnDate), fmtDate(loan.LoanDate))
	}

	res, err := tx.Exec(`UPDATE loans
        SET status='Returned', return_date=?
        WHERE loan_id=? AND status IN ('Borrowed','Overdue')`,
		fmtDate(returnDate), loanID)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, nil, err
	}
	if rows != 1 {
		return nil, nil, fmt.Errorf("%w: loan %d changed state mid-return", ErrInvariantViolation, loanID)
	}

	// Capped so a stray return can never push past total_copies.
	if _, err := tx.Exec(`UPDATE books
        SET available_copies = MIN(available_copies + 1, total_copies)
        WHERE book_id=?`, loan.BookID); err != nil {
		return nil, nil, storeErr(err)
	}

	fulfilled, err := fulfillNextReservation(tx, loan.BookID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Get(&loan, `SELECT * FROM loans WHERE loan_id=?`, loanID); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &loan, fulfilled, nil
}

// MarkLoanLost transitions a Borrowed or Overdue loan to Lost. The copy is
// presumed unrecoverable and stays excluded from availability; reconciling
// total_copies afterwards is a catalog action (UpdateBook).
func (d *Database) MarkLoanLost(loanID int64) (*Loan, error) {
	tx, err := d.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var loan Loan
	if err := getOne(tx, &loan, "loan", loanID, `SELECT * FROM loans WHERE loan_id=?`, loanID); err != nil {
		return nil, err
	}
	if !loan.Outstanding() {
		return nil, fmt.Errorf("%w: loan %d is %s", ErrAlreadySettled, loanID, loan.Status)
	}

	if _, err := tx.Exec(`UPDATE loans SET status='Lost' WHERE loan_id=?`, loanID); err != nil {
		return nil, storeErr(err)
	}
	loan.Status = LoanLost
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &loan, nil
}

// MarkLoanOverdue transitions a single Borrowed loan to Overdue. The bulk
// path is ApplyDateTransitions.
func (d *Database) MarkLoanOverdue(loanID int64) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var loan Loan
	if err := getOne(tx, &loan, "loan", loanID, `SELECT * FROM loans WHERE loan_id=?`, loanID); err != nil {
		return err
	}
	if !loan.Outstanding() {
		return fmt.Errorf("%w: loan %d is %s", ErrAlreadySettled, loanID, loan.Status)
	}

	if _, err := tx.Exec(`UPDATE loans SET status='Overdue' WHERE loan_id=?`, loanID); err != nil {
		return storeErr(err)
	}
	return tx.Commit()
}

// ApplyDateTransitions runs the date-based sweeps as of the given date:
// Borrowed loans past their due date become Overdue, Active reservations at
// or past their expiry date become Expired. Idempotent; returns the number
// of rows each sweep touched.
func (d *Database) ApplyDateTransitions(asOf time.Time) (overdue, expired int64, err error) {
	tx, err := d.db.Beginx()
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE loans SET status='Overdue'
        WHERE status='Borrowed' AND due_date < ?`, fmtDate(asOf))
	if err != nil {
		return 0, 0, err
	}
	if overdue, err = res.RowsAffected(); err != nil {
		return 0, 0, err
	}

	res, err = tx.Exec(`UPDATE reservations SET status='Expired'
        WHERE status='Active' AND expiry_date <= ?`, fmtDate(asOf))
	if err != nil {
		return 0, 0, err
	}
	if expired, err = res.RowsAffected(); err != nil {
		return 0, 0, err
	}

	return overdue, expired, tx.Commit()
}

// DeleteLoan removes a settled loan; its fines cascade. Outstanding loans
// cannot be deleted, that would orphan a checked-out copy.
func (d *Database) DeleteLoan(loanID int64) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var loan Loan
	if err := getOne(tx, &loan, "loan", loanID, `SELECT * FROM loans WHERE loan_id=?`, loanID); err != nil {
		return err
	}
	if loan.Outstanding() {
		return fmt.Errorf("%w: loan %d is outstanding", ErrReferentialIntegrity, loanID)
	}

	if _, err := tx.Exec(`DELETE FROM loans WHERE loan_id=?`, loanID); err != nil {
		return storeErr(err)
	}
	return tx.Commit()
}

func (d *Database) GetLoan(loanID int64) (*Loan, error) {
	var loan Loan
	if err := getOne(d.db, &loan, "loan", loanID, `SELECT * FROM loans WHERE loan_id=?`, loanID); err != nil {
		return nil, err
	}
	return &loan, nil
}

func (d *Database) GetAllLoans() ([]*Loan, error) {
	var loans []*Loan
	if err := d.db.Select(&loans, `SELECT * FROM loans ORDER BY loan_id`); err != nil {
		return nil, err
	}
	return loans, nil
}

// GetMemberLoans lists a member's loans, optionally only the outstanding
// ones.
func (d *Database) GetMemberLoans(memberID int64, activeOnly bool) ([]*Loan, error) {
	query := `SELECT * FROM loans WHERE member_id=?`
	if activeOnly {
		query += ` AND status IN ('Borrowed','Overdue')`
	}
	var loans []*Loan
	if err := d.db.Select(&loans, query+` ORDER BY loan_id`, memberID); err != nil {
		return nil, err
	}
	return loans, nil
}

// GetBookLoans lists a book's loans, optionally only the outstanding ones.
func (d *Database) GetBookLoans(bookID int64, activeOnly bool) ([]*Loan, error) {
	query := `SELECT * FROM loans WHERE book_id=?`
	if activeOnly {
		query += ` AND status IN ('Borrowed','Overdue')`
	}
	var loans []*Loan
	if err := d.db.Select(&loans, query+` ORDER BY loan_id`, bookID); err != nil {
		return nil, err
	}
	return loans, nil
}
