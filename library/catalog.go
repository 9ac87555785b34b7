package library

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

// AddBook inserts a catalog entry. The copy counters are only ever set here
// and by the circulation engine afterwards.
func (d *Database) AddBook(b *Book) (int64, error) {
	if b.ISBN == "" {
		return 0, fmt.Errorf("%w: isbn is required", ErrInvalidField)
	}
	if err := validatePublicationYear(b.PublicationYear); err != nil {
		return 0, err
	}
	if err := validateCopyCounts(b.AvailableCopies, b.TotalCopies); err != nil {
		return 0, err
	}

	res, err := d.addBookStmt.Exec(b.ISBN, b.Title, b.Author, b.Genre,
		b.PublicationYear, b.TotalCopies, b.AvailableCopies)
	if err != nil {
		return 0, storeErr(err)
	}
	return res.LastInsertId()
}

func (d *Database) GetBook(id int64) (*Book, error) {
	var b Book
	if err := getOne(d.db, &b, "book", id, `SELECT * FROM books WHERE book_id=?`, id); err != nil {
		return nil, err
	}
	return &b, nil
}

func (d *Database) GetAllBooks() ([]*Book, error) {
	var books []*Book
	if err := d.db.Select(&books, `SELECT * FROM books ORDER BY book_id`); err != nil {
		return nil, err
	}
	return books, nil
}

// UpdateBook rewrites the catalog fields of a book. available_copies is not a
// caller input: when total_copies changes, the free-copy count is recomputed
// from the number of outstanding loans so the circulation engine's
// bookkeeping survives the edit. Lowering total_copies below the outstanding
// count is refused.
func (d *Database) UpdateBook(b *Book) error {
	if b.ISBN == "" {
		return fmt.Errorf("%w: isbn is required", ErrInvalidField)
	}
	if err := validatePublicationYear(b.PublicationYear); err != nil {
		return err
	}
	if b.TotalCopies < 0 {
		return fmt.Errorf("%w: total copies %d", ErrInvalidField, b.TotalCopies)
	}

	tx, err := d.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var outstanding int
	err = tx.Get(&outstanding,
		`SELECT COUNT(*) FROM loans WHERE book_id=? AND status IN ('Borrowed','Overdue')`, b.BookID)
	if err != nil {
		return err
	}
	if b.TotalCopies < outstanding {
		return fmt.Errorf("%w: %d copies on loan exceed total %d",
			ErrReferentialIntegrity, outstanding, b.TotalCopies)
	}

	res, err := tx.Exec(`UPDATE books
        SET isbn=?, title=?, author=?, genre=?, publication_year=?,
            total_copies=?, available_copies=?
        WHERE book_id=?`,
		b.ISBN, b.Title, b.Author, b.Genre, b.PublicationYear,
		b.TotalCopies, b.TotalCopies-outstanding, b.BookID)
	if err != nil {
		return storeErr(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("book", b.BookID)
	}
	return tx.Commit()
}

// DeleteBook removes a book. Loans restrict the delete; reservations and
// category links cascade.
func (d *Database) DeleteBook(id int64) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	referenced, err := exists(tx, `SELECT 1 FROM loans WHERE book_id=?`, id)
	if err != nil {
		return err
	}
	if referenced {
		return fmt.Errorf("%w: book %d has loans", ErrReferentialIntegrity, id)
	}

	res, err := tx.Exec(`DELETE FROM books WHERE book_id=?`, id)
	if err != nil {
		return storeErr(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("book", id)
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Categories
// ---------------------------------------------------------------------------

func (d *Database) AddCategory(name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: category name is required", ErrInvalidField)
	}
	res, err := d.db.Exec(`INSERT INTO categories(name) VALUES(?)`, name)
	if err != nil {
		return 0, storeErr(err)
	}
	return res.LastInsertId()
}

func (d *Database) GetAllCategories() ([]*Category, error) {
	var cats []*Category
	if err := d.db.Select(&cats, `SELECT * FROM categories ORDER BY name`); err != nil {
		return nil, err
	}
	return cats, nil
}

// DeleteCategory removes a category; book links cascade.
func (d *Database) DeleteCategory(id int64) error {
	res, err := d.db.Exec(`DELETE FROM categories WHERE category_id=?`, id)
	if err != nil {
		return storeErr(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("category", id)
	}
	return nil
}

// AssignCategory links a book to a category. Assigning the same pair twice is
// a duplicate-key error, matching the join table's composite uniqueness.
func (d *Database) AssignCategory(bookID, categoryID int64) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if ok, err := bookExists(tx, bookID); err != nil {
		return err
	} else if !ok {
		return notFound("book", bookID)
	}
	if ok, err := exists(tx, `SELECT 1 FROM categories WHERE category_id=?`, categoryID); err != nil {
		return err
	} else if !ok {
		return notFound("category", categoryID)
	}

	if _, err := tx.Exec(`INSERT INTO book_categories(book_id,category_id) VALUES(?,?)`,
		bookID, categoryID); err != nil {
		return storeErr(err)
	}
	return tx.Commit()
}

func (d *Database) UnassignCategory(bookID, categoryID int64) error {
	res, err := d.db.Exec(`DELETE FROM book_categories WHERE book_id=? AND category_id=?`,
		bookID, categoryID)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: book %d is not in category %d", ErrReferenceNotFound, bookID, categoryID)
	}
	return nil
}

// GetBooksByCategory lists the books linked to a category.
func (d *Database) GetBooksByCategory(categoryID int64) ([]*Book, error) {
	var books []*Book
	err := d.db.Select(&books, `
        SELECT b.* FROM books b
        JOIN book_categories bc ON bc.book_id = b.book_id
        WHERE bc.category_id = ?
        ORDER BY b.book_id`, categoryID)
	if err != nil {
		return nil, err
	}
	return books, nil
}

// GetBookCategories lists the categories a book is linked to.
func (d *Database) GetBookCategories(bookID int64) ([]*Category, error) {
	var cats []*Category
	err := d.db.Select(&cats, `
        SELECT c.* FROM categories c
        JOIN book_categories bc ON bc.category_id = c.category_id
        WHERE bc.book_id = ?
        ORDER BY c.name`, bookID)
	if err != nil {
		return nil, err
	}
	return cats, nil
}
