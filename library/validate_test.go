package library

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	testCases := []struct {
		email string
		ok    bool
	}{
		{"a.b@example.com", true},
		{"weird@but.fine", true},
		{"", false},
		{"no-at.example.com", false},
		{"no-dot@example", false},
	}

	for _, tt := range testCases {
		err := validateEmail(tt.email)
		if tt.ok {
			assert.NoError(t, err, tt.email)
		} else {
			assert.ErrorIs(t, err, ErrInvalidField, tt.email)
		}
	}
}

func TestDateBefore(t *testing.T) {
	morning := time.Date(2023, 7, 5, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2023, 7, 5, 20, 0, 0, 0, time.UTC)
	nextDay := time.Date(2023, 7, 6, 0, 0, 0, 0, time.UTC)

	assert.False(t, dateBefore(evening, morning), "same calendar day is not before")
	assert.False(t, dateBefore(morning, evening))
	assert.True(t, dateBefore(evening, nextDay))
}
