package library

import (
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
)

// BookFilter holds the optional search criteria; empty fields are skipped.
type BookFilter struct {
	Title  string
	Author string
	Genre  string
	ISBN   string
}

var sqliteDialect = goqu.Dialect("sqlite3")

// SearchBooks finds catalog entries matching all provided filters. Text
// fields match as substrings (SQLite LIKE, case-insensitive for ASCII);
// ISBN matches exactly.
func (d *Database) SearchBooks(f BookFilter) ([]*Book, error) {
	ds := sqliteDialect.From("books").Order(goqu.I("book_id").Asc())

	exprs := make([]goqu.Expression, 0, 4)
	if f.Title != "" {
		exprs = append(exprs, goqu.C("title").Like("%"+f.Title+"%"))
	}
	if f.Author != "" {
		exprs = append(exprs, goqu.C("author").Like("%"+f.Author+"%"))
	}
	if f.Genre != "" {
		exprs = append(exprs, goqu.C("genre").Like("%"+f.Genre+"%"))
	}
	if f.ISBN != "" {
		exprs = append(exprs, goqu.C("isbn").Eq(f.ISBN))
	}
	if len(exprs) > 0 {
		ds = ds.Where(exprs...)
	}

	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return nil, err
	}

	var books []*Book
	if err := d.db.Select(&books, query, args...); err != nil {
		return nil, err
	}
	return books, nil
}
