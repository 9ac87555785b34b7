package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMemberValidation(t *testing.T) {
	db := tempDB(t)

	_, err := db.AddMember(&Member{FirstName: "A", LastName: "B", Email: "nope"})
	assert.ErrorIs(t, err, ErrInvalidField)
	_, err = db.AddMember(&Member{FirstName: "A", LastName: "B", Email: "a@b"})
	assert.ErrorIs(t, err, ErrInvalidField, "missing dot")

	id, err := db.AddMember(&Member{FirstName: "A", LastName: "B", Email: "a.b@example.com"})
	require.NoError(t, err)

	m, err := db.GetMember(id)
	require.NoError(t, err)
	assert.Equal(t, MembershipActive, m.Status, "status defaults to Active")

	_, err = db.AddMember(&Member{FirstName: "C", LastName: "D", Email: "a.b@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestSetMemberStatus(t *testing.T) {
	db := tempDB(t)

	id, err := db.AddMember(&Member{FirstName: "A", LastName: "B", Email: "a.b@example.com"})
	require.NoError(t, err)

	require.NoError(t, db.SetMemberStatus(id, MembershipSuspended))
	m, err := db.GetMember(id)
	require.NoError(t, err)
	assert.Equal(t, MembershipSuspended, m.Status)

	assert.ErrorIs(t, db.SetMemberStatus(999, MembershipExpired), ErrReferenceNotFound)
}

func TestDeleteMemberCascadesReservations(t *testing.T) {
	db := tempDB(t)
	bookID, memberID, _ := seedCirculation(t, db, 1)

	r, err := db.CreateReservation(bookID, memberID, date(t, "2023-07-05"), date(t, "2023-07-12"))
	require.NoError(t, err)

	// Reservations alone never block the delete.
	require.NoError(t, db.DeleteMember(memberID))

	_, err = db.GetReservation(r.ReservationID)
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestStaffCredentials(t *testing.T) {
	db := tempDB(t)

	id, err := db.AddStaff(&Staff{FirstName: "Sam", LastName: "Okafor", Email: "sam@example.com", Role: "Librarian"})
	require.NoError(t, err)

	assert.Error(t, db.AuthenticateStaff(id, "anything"), "no password set yet")
	assert.ErrorIs(t, db.SetStaffPassword(id, "short"), ErrInvalidField)

	require.NoError(t, db.SetStaffPassword(id, "correct horse battery"))
	require.NoError(t, db.AuthenticateStaff(id, "correct horse battery"))
	assert.Error(t, db.AuthenticateStaff(id, "wrong password"))
	assert.ErrorIs(t, db.AuthenticateStaff(999, "x"), ErrReferenceNotFound)
}

func TestDuplicateStaffEmail(t *testing.T) {
	db := tempDB(t)

	_, err := db.AddStaff(&Staff{FirstName: "Sam", LastName: "Okafor", Email: "sam@example.com"})
	require.NoError(t, err)
	_, err = db.AddStaff(&Staff{FirstName: "Pam", LastName: "Chen", Email: "sam@example.com"})
	assert.ErrorIs(t, err, ErrDuplicateKey)
}
