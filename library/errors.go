package library

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// Circulation error taxonomy. Callers match with errors.Is; all wrapped
// errors carry one of these sentinels.
var (
	// ErrReferenceNotFound is returned when a record, or a record another
	// operation depends on, does not exist.
	ErrReferenceNotFound = errors.New("referenced record not found")

	// ErrReferentialIntegrity is returned when a restrict-on-delete rule
	// blocks a deletion.
	ErrReferentialIntegrity = errors.New("record is referenced by existing loans")

	// ErrInvalidDateRange covers due < loan, return < loan, expiry <=
	// reservation and payment < issue.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidAmount is returned for non-positive fine amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrNoCopiesAvailable is returned when a checkout finds no free copy.
	ErrNoCopiesAvailable = errors.New("no copies available")

	// ErrDuplicateKey is returned on unique-constraint collisions (email,
	// ISBN, category name, active reservation per book and member).
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrAlreadySettled is returned when a transition is attempted out of a
	// terminal state (Returned/Lost loans, Paid/Waived fines). Re-returning
	// a Returned loan is the one exception and is a no-op.
	ErrAlreadySettled = errors.New("record is in a terminal state")

	// ErrInvalidField is returned by field validation (email shape,
	// publication year, copy counts).
	ErrInvalidField = errors.New("invalid field value")

	// ErrInvariantViolation signals a consistency bug in the engine itself.
	// It is not expected to be observable and should be treated as fatal to
	// the operation.
	ErrInvariantViolation = errors.New("circulation invariant violated")
)

// storeErr maps SQLite constraint failures onto the taxonomy. The engines
// pre-check every constraint themselves inside the same transaction; this
// translates whatever still reaches the database layer.
func storeErr(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%w: %v", ErrReferentialIntegrity, err)
		case sqlite3.ErrConstraintCheck:
			return fmt.Errorf("%w: %v", ErrInvariantViolation, err)
		}
	}
	return err
}
