package library

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

// AddMember registers a member. Status defaults to Active.
func (d *Database) AddMember(m *Member) (int64, error) {
	if err := validateEmail(m.Email); err != nil {
		return 0, err
	}
	if m.Status == "" {
		m.Status = MembershipActive
	}
	res, err := d.addMemberStmt.Exec(m.FirstName, m.LastName, m.Email, m.Phone, m.Address, m.Status)
	if err != nil {
		return 0, storeErr(err)
	}
	return res.LastInsertId()
}

func (d *Database) GetMember(id int64) (*Member, error) {
	var m Member
	if err := getOne(d.db, &m, "member", id, `SELECT * FROM members WHERE member_id=?`, id); err != nil {
		return nil, err
	}
	return &m, nil
}

func (d *Database) GetAllMembers() ([]*Member, error) {
	var members []*Member
	if err := d.db.Select(&members, `SELECT * FROM members ORDER BY member_id`); err != nil {
		return nil, err
	}
	return members, nil
}

func (d *Database) UpdateMember(m *Member) error {
	if err := validateEmail(m.Email); err != nil {
		return err
	}
	res, err := d.db.Exec(`UPDATE members
        SET first_name=?, last_name=?, email=?, phone_number=?, address=?, membership_status=?
        WHERE member_id=?`,
		m.FirstName, m.LastName, m.Email, m.Phone, m.Address, m.Status, m.MemberID)
	if err != nil {
		return storeErr(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("member", m.MemberID)
	}
	return nil
}

// SetMemberStatus is the hook for external membership policy.
func (d *Database) SetMemberStatus(id int64, status MembershipStatus) error {
	res, err := d.db.Exec(`UPDATE members SET membership_status=? WHERE member_id=?`, status, id)
	if err != nil {
		return storeErr(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("member", id)
	}
	return nil
}

// DeleteMember removes a member. Any loan, settled or not, restricts the
// delete; reservations cascade.
func (d *Database) DeleteMember(id int64) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	referenced, err := exists(tx, `SELECT 1 FROM loans WHERE member_id=?`, id)
	if err != nil {
		return err
	}
	if referenced {
		return fmt.Errorf("%w: member %d has loans", ErrReferentialIntegrity, id)
	}

	res, err := tx.Exec(`DELETE FROM members WHERE member_id=?`, id)
	if err != nil {
		return storeErr(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("member", id)
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Staff
// ---------------------------------------------------------------------------

func (d *Database) AddStaff(s *Staff) (int64, error) {
	if err := validateEmail(s.Email); err != nil {
		return 0, err
	}
	res, err := d.db.Exec(`INSERT INTO staff(first_name,last_name,email,role) VALUES(?,?,?,?)`,
		s.FirstName, s.LastName, s.Email, s.Role)
	if err != nil {
		return 0, storeErr(err)
	}
	return res.LastInsertId()
}

func (d *Database) GetStaff(id int64) (*Staff, error) {
	var s Staff
	if err := getOne(d.db, &s, "staff", id, `SELECT * FROM staff WHERE staff_id=?`, id); err != nil {
		return nil, err
	}
	return &s, nil
}

func (d *Database) GetAllStaff() ([]*Staff, error) {
	var staff []*Staff
	if err := d.db.Select(&staff, `SELECT * FROM staff ORDER BY staff_id`); err != nil {
		return nil, err
	}
	return staff, nil
}

// UpdateStaff rewrites the staff record's profile fields. The password hash
// is managed separately via SetStaffPassword.
func (d *Database) UpdateStaff(s *Staff) error {
	if err := validateEmail(s.Email); err != nil {
		return err
	}
	res, err := d.db.Exec(`UPDATE staff SET first_name=?, last_name=?, email=?, role=? WHERE staff_id=?`,
		s.FirstName, s.LastName, s.Email, s.Role, s.StaffID)
	if err != nil {
		return storeErr(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("staff", s.StaffID)
	}
	return nil
}

// DeleteStaff removes a staff record unless a loan references it.
func (d *Database) DeleteStaff(id int64) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	referenced, err := exists(tx, `SELECT 1 FROM loans WHERE staff_id=?`, id)
	if err != nil {
		return err
	}
	if referenced {
		return fmt.Errorf("%w: staff %d has processed loans", ErrReferentialIntegrity, id)
	}

	res, err := tx.Exec(`DELETE FROM staff WHERE staff_id=?`, id)
	if err != nil {
		return storeErr(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("staff", id)
	}
	return tx.Commit()
}

// SetStaffPassword stores a bcrypt hash of the password.
func (d *Database) SetStaffPassword(id int64, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrInvalidField)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res, err := d.db.Exec(`UPDATE staff SET password_hash=? WHERE staff_id=?`, string(hash), id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("staff", id)
	}
	return nil
}

// AuthenticateStaff verifies a password against the stored hash.
func (d *Database) AuthenticateStaff(id int64, password string) error {
	s, err := d.GetStaff(id)
	if err != nil {
		return err
	}
	if s.PasswordHash == "" {
		return fmt.Errorf("staff %d has no password set", id)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password)); err != nil {
		return fmt.Errorf("invalid credentials for staff %d", id)
	}
	return nil
}
