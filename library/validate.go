package library

import (
	"fmt"
	"strings"
	"time"
)

// dateLayout is the storage format for all date columns. Lexicographic
// comparison of values in this layout matches chronological order, which the
// SQL date predicates rely on.
const dateLayout = "2006-01-02"

func fmtDate(t time.Time) string { return t.Format(dateLayout) }

// dateBefore compares two timestamps at date resolution.
func dateBefore(a, b time.Time) bool {
	return a.Format(dateLayout) < b.Format(dateLayout)
}

// validateEmail applies the format rule used across members and staff.
func validateEmail(email string) error {
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return fmt.Errorf("%w: email %q", ErrInvalidField, email)
	}
	return nil
}

func validatePublicationYear(year int) error {
	if year < 1 || year > time.Now().Year() {
		return fmt.Errorf("%w: publication year %d", ErrInvalidField, year)
	}
	return nil
}

func validateCopyCounts(available, total int) error {
	if total < 0 || available < 0 || available > total {
		return fmt.Errorf("%w: %d of %d copies available", ErrInvalidField, available, total)
	}
	return nil
}
