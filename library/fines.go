package library

import (
	"fmt"
	"time"
)

// IssueFine records a penalty against a loan. The amount policy (how much,
// for what) belongs to the caller; the ledger only enforces that it is
// positive.
func (d *Database) IssueFine(loanID int64, amount float64, issueDate time.Time) (*Fine, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %.2f", ErrInvalidAmount, amount)
	}

	tx, err := d.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if ok, err := exists(tx, `SELECT 1 FROM loans WHERE loan_id=?`, loanID); err != nil {
		return nil, err
	} else if !ok {
		return nil, notFound("loan", loanID)
	}

	res, err := tx.Exec(`INSERT INTO fines(loan_id,amount,issue_date,status)
        VALUES(?,?,?,'Pending')`, loanID, amount, fmtDate(issueDate))
	if err != nil {
		return nil, storeErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	var f Fine
	if err := tx.Get(&f, `SELECT * FROM fines WHERE fine_id=?`, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &f, nil
}

// SettleFine transitions a Pending fine to Paid or Waived. Both outcomes are
// terminal; the payment date must not precede the issue date.
func (d *Database) SettleFine(fineID int64, status FineStatus, paymentDate time.Time) (*Fine, error) {
	if status != FinePaid && status != FineWaived {
		return nil, fmt.Errorf("%w: settlement status %q", ErrInvalidField, status)
	}

	tx, err := d.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var f Fine
	if err := getOne(tx, &f, "fine", fineID, `SELECT * FROM fines WHERE fine_id=?`, fineID); err != nil {
		return nil, err
	}
	if f.Status != FinePending {
		return nil, fmt.Errorf("%w: fine %d is %s", ErrAlreadySettled, fineID, f.Status)
	}
	if dateBefore(paymentDate, f.IssueDate) {
		return nil, fmt.Errorf("%w: payment %s before issue %s",
			ErrInvalidDateRange, fmtDate(paymentDate), fmtDate(f.IssueDate))
	}

	if _, err := tx.Exec(`UPDATE fines SET status=?, payment_date=? WHERE fine_id=?`,
		status, fmtDate(paymentDate), fineID); err != nil {
		return nil, storeErr(err)
	}

	if err := tx.Get(&f, `SELECT * FROM fines WHERE fine_id=?`, fineID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (d *Database) GetFine(fineID int64) (*Fine, error) {
	var f Fine
	if err := getOne(d.db, &f, "fine", fineID, `SELECT * FROM fines WHERE fine_id=?`, fineID); err != nil {
		return nil, err
	}
	return &f, nil
}

// GetLoanFines lists the fines recorded against a loan.
func (d *Database) GetLoanFines(loanID int64) ([]*Fine, error) {
	var fines []*Fine
	if err := d.db.Select(&fines, `SELECT * FROM fines WHERE loan_id=? ORDER BY fine_id`, loanID); err != nil {
		return nil, err
	}
	return fines, nil
}

// GetMemberFines lists every fine across a member's loans.
func (d *Database) GetMemberFines(memberID int64) ([]*Fine, error) {
	var fines []*Fine
	err := d.db.Select(&fines, `
        SELECT f.* FROM fines f
        JOIN loans l ON l.loan_id = f.loan_id
        WHERE l.member_id = ?
        ORDER BY f.fine_id`, memberID)
	if err != nil {
		return nil, err
	}
	return fines, nil
}
