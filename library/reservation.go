package library

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// CreateReservation places a hold on a book for a member. A member may hold
// at most one Active reservation per book; the partial unique index backs
// the pre-check up.
func (d *Database) CreateReservation(bookID, memberID int64, reservationDate, expiryDate time.Time) (*Reservation, error) {
	if !dateBefore(reservationDate, expiryDate) {
		return nil, fmt.Errorf("%w: expiry %s not after reservation %s",
			ErrInvalidDateRange, fmtDate(expiryDate), fmtDate(reservationDate))
	}

	tx, err := d.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if ok, err := bookExists(tx, bookID); err != nil {
		return nil, err
	} else if !ok {
		return nil, notFound("book", bookID)
	}
	if ok, err := memberExists(tx, memberID); err != nil {
		return nil, err
	} else if !ok {
		return nil, notFound("member", memberID)
	}

	dup, err := exists(tx, `SELECT 1 FROM reservations
        WHERE book_id=? AND member_id=? AND status='Active'`, bookID, memberID)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, fmt.Errorf("%w: member %d already holds book %d", ErrDuplicateKey, memberID, bookID)
	}

	res, err := tx.Exec(`INSERT INTO reservations(book_id,member_id,reservation_date,expiry_date,status)
        VALUES(?,?,?,?,'Active')`,
		bookID, memberID, fmtDate(reservationDate), fmtDate(expiryDate))
	if err != nil {
		return nil, storeErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	var r Reservation
	if err := tx.Get(&r, `SELECT * FROM reservations WHERE reservation_id=?`, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &r, nil
}

// CancelReservation transitions an Active reservation to Cancelled.
func (d *Database) CancelReservation(reservationID int64) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var r Reservation
	if err := getOne(tx, &r, "reservation", reservationID,
		`SELECT * FROM reservations WHERE reservation_id=?`, reservationID); err != nil {
		return err
	}
	if r.Status != ReservationActive {
		return fmt.Errorf("%w: reservation %d is %s", ErrAlreadySettled, reservationID, r.Status)
	}

	if _, err := tx.Exec(`UPDATE reservations SET status='Cancelled' WHERE reservation_id=?`,
		reservationID); err != nil {
		return storeErr(err)
	}
	return tx.Commit()
}

func (d *Database) GetReservation(reservationID int64) (*Reservation, error) {
	var r Reservation
	if err := getOne(d.db, &r, "reservation", reservationID,
		`SELECT * FROM reservations WHERE reservation_id=?`, reservationID); err != nil {
		return nil, err
	}
	return &r, nil
}

// GetBookReservations returns a book's Active reservations in fulfillment
// order.
func (d *Database) GetBookReservations(bookID int64) ([]*Reservation, error) {
	var rs []*Reservation
	err := d.db.Select(&rs, `SELECT * FROM reservations
        WHERE book_id=? AND status='Active'
        ORDER BY reservation_date ASC, reservation_id ASC`, bookID)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// GetMemberReservations returns a member's Active reservations.
func (d *Database) GetMemberReservations(memberID int64) ([]*Reservation, error) {
	var rs []*Reservation
	err := d.db.Select(&rs, `SELECT * FROM reservations
        WHERE member_id=? AND status='Active'
        ORDER BY reservation_date ASC, reservation_id ASC`, memberID)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// fulfillNextReservation marks the oldest Active reservation for the book as
// Fulfilled, if one exists. Ordering is reservation_date then reservation_id,
// so fulfillment is deterministic under same-day holds. Runs inside the
// return transaction; fulfillment never issues the next loan or touches the
// copy counters.
func fulfillNextReservation(tx *sqlx.Tx, bookID int64) (*Reservation, error) {
	var r Reservation
	err := tx.Get(&r, `SELECT * FROM reservations
        WHERE book_id=? AND status='Active'
        ORDER BY reservation_date ASC, reservation_id ASC
        LIMIT 1`, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	res, err := tx.Exec(`UPDATE reservations SET status='Fulfilled'
        WHERE reservation_id=? AND status='Active'`, r.ReservationID)
	if err != nil {
		return nil, storeErr(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows != 1 {
		return nil, fmt.Errorf("%w: reservation %d changed state mid-return",
			ErrInvariantViolation, r.ReservationID)
	}
	r.Status = ReservationFulfilled
	return &r, nil
}
