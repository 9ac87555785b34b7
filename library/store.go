package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Database provides high-level helpers around a SQLite connection. All
// circulation state lives here; the engine methods in catalog.go,
// circulation.go, reservation.go and fines.go operate on it.
type Database struct {
	db *sqlx.DB

	addBookStmt   *sqlx.Stmt
	addMemberStmt *sqlx.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies
// schema migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// busy_timeout and the immediate tx lock serialize concurrent writers;
	// foreign_keys turns on the restrict/cascade actions declared in the
	// schema.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_txlock=immediate", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.addBookStmt != nil {
		d.addBookStmt.Close()
	}
	if d.addMemberStmt != nil {
		d.addMemberStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS members (
            member_id INTEGER PRIMARY KEY AUTOINCREMENT,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            phone_number TEXT NOT NULL DEFAULT '',
            address TEXT NOT NULL DEFAULT '',
            membership_status TEXT NOT NULL DEFAULT 'Active'
                CHECK (membership_status IN ('Active','Expired','Suspended'))
        );`,
		`CREATE TABLE IF NOT EXISTS staff (
            staff_id INTEGER PRIMARY KEY AUTOINCREMENT,
            first_name TEXT NOT NULL,
            last_name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            role TEXT NOT NULL DEFAULT '',
            password_hash TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS books (
            book_id INTEGER PRIMARY KEY AUTOINCREMENT,
            isbn TEXT NOT NULL UNIQUE,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            genre TEXT NOT NULL DEFAULT '',
            publication_year INTEGER NOT NULL,
            total_copies INTEGER NOT NULL DEFAULT 0,
            available_copies INTEGER NOT NULL DEFAULT 0,
            CHECK (available_copies >= 0 AND available_copies <= total_copies)
        );`,
		`CREATE TABLE IF NOT EXISTS categories (
            category_id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL UNIQUE
        );`,
		`CREATE TABLE IF NOT EXISTS book_categories (
            book_id INTEGER NOT NULL REFERENCES books(book_id) ON DELETE CASCADE,
            category_id INTEGER NOT NULL REFERENCES categories(category_id) ON DELETE CASCADE,
            PRIMARY KEY (book_id, category_id)
        );`,
		`CREATE TABLE IF NOT EXISTS loans (
            loan_id INTEGER PRIMARY KEY AUTOINCREMENT,
            book_id INTEGER NOT NULL REFERENCES books(book_id) ON DELETE RESTRICT,
            member_id INTEGER NOT NULL REFERENCES members(member_id) ON DELETE RESTRICT,
            staff_id INTEGER NOT NULL REFERENCES staff(staff_id) ON DELETE RESTRICT,
            loan_date DATE NOT NULL,
            due_date DATE NOT NULL,
            return_date DATE,
            status TEXT NOT NULL DEFAULT 'Borrowed'
                CHECK (status IN ('Borrowed','Overdue','Returned','Lost')),
            CHECK (loan_date <= due_date),
            CHECK (return_date IS NULL OR return_date >= loan_date)
        );`,
		`CREATE TABLE IF NOT EXISTS fines (
            fine_id INTEGER PRIMARY KEY AUTOINCREMENT,
            loan_id INTEGER NOT NULL REFERENCES loans(loan_id) ON DELETE CASCADE,
            amount REAL NOT NULL CHECK (amount > 0),
            issue_date DATE NOT NULL,
            payment_date DATE,
            status TEXT NOT NULL DEFAULT 'Pending'
                CHECK (status IN ('Pending','Paid','Waived')),
            CHECK (payment_date IS NULL OR payment_date >= issue_date)
        );`,
		`CREATE TABLE IF NOT EXISTS reservations (
            reservation_id INTEGER PRIMARY KEY AUTOINCREMENT,
            book_id INTEGER NOT NULL REFERENCES books(book_id) ON DELETE CASCADE,
            member_id INTEGER NOT NULL REFERENCES members(member_id) ON DELETE CASCADE,
            reservation_date DATE NOT NULL,
            expiry_date DATE NOT NULL,
            status TEXT NOT NULL DEFAULT 'Active'
                CHECK (status IN ('Active','Fulfilled','Cancelled','Expired')),
            CHECK (expiry_date > reservation_date)
        );`,
		// One Active hold per (book, member).
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_reservations_one_active
            ON reservations(book_id, member_id) WHERE status = 'Active';`,
		`CREATE INDEX IF NOT EXISTS idx_loans_book_status ON loans(book_id, status);`,
		`CREATE INDEX IF NOT EXISTS idx_loans_member ON loans(member_id);`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_book_status ON reservations(book_id, status);`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.addBookStmt, err = d.db.Preparex(
		`INSERT INTO books(isbn,title,author,genre,publication_year,total_copies,available_copies)
         VALUES(?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	if d.addMemberStmt, err = d.db.Preparex(
		`INSERT INTO members(first_name,last_name,email,phone_number,address,membership_status)
         VALUES(?,?,?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Shared transaction helpers
// ---------------------------------------------------------------------------

type querier interface {
	Get(dest interface{}, query string, args ...interface{}) error
	QueryRow(query string, args ...interface{}) *sql.Row
}

// exists runs an EXISTS probe against q.
func exists(q querier, query string, args ...interface{}) (bool, error) {
	var ok bool
	if err := q.QueryRow(`SELECT EXISTS(`+query+`)`, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func bookExists(q querier, bookID int64) (bool, error) {
	return exists(q, `SELECT 1 FROM books WHERE book_id=?`, bookID)
}

func memberExists(q querier, memberID int64) (bool, error) {
	return exists(q, `SELECT 1 FROM members WHERE member_id=?`, memberID)
}

func staffExists(q querier, staffID int64) (bool, error) {
	return exists(q, `SELECT 1 FROM staff WHERE staff_id=?`, staffID)
}

// notFound wraps a missing-row condition with the record's identity.
func notFound(kind string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrReferenceNotFound, kind, id)
}

// getOne fetches a single row into dest, translating sql.ErrNoRows.
func getOne(q querier, dest interface{}, kind string, id int64, query string, args ...interface{}) error {
	err := q.Get(dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(kind, id)
	}
	return err
}
