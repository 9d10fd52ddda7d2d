// Package sqlcheck runs verify sessions over query results. Each row is a
// map[string]any keyed by column name, so predicates read columns as members:
//
//	r := verify.Param("r")
//	s := verify.NewSession().Add(verify.That(r.Field("age").Ge(18)))
//	f, n, err := sqlcheck.VerifyRows(ctx, db, s, "SELECT * FROM users")
package sqlcheck

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/funvibe/exprassert/pkg/verify"

	_ "modernc.org/sqlite"
)

// ErrNoRows is returned by VerifyRow when the query matched nothing.
var ErrNoRows = errors.New("query returned no rows")

// RowFailure is a verification failure on one result row.
type RowFailure struct {
	// Row is the zero-based position of the row in the result set.
	Row     int
	Columns map[string]any
	*verify.Failure
}

func (f *RowFailure) Error() string {
	return fmt.Sprintf("row %d: %s", f.Row, f.Failure.Message)
}

func (f *RowFailure) Unwrap() error { return f.Failure }

// Open opens a SQLite database with the pure-Go driver. In-memory
// databases are pinned to a single connection so every query sees the
// same data.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// VerifyRows runs s against every row of the query until one fails. It
// returns that failure (nil when every row passed) and the number of rows
// checked.
func VerifyRows(ctx context.Context, db *sql.DB, s *verify.Session, query string, args ...any) (*RowFailure, int, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, 0, err
	}

	n := 0
	for rows.Next() {
		row, err := scanMap(rows, cols)
		if err != nil {
			return nil, n, err
		}
		f, err := s.Run(row)
		if err != nil {
			return nil, n, fmt.Errorf("row %d: %w", n, err)
		}
		n++
		if f != nil {
			return &RowFailure{Row: n - 1, Columns: row, Failure: f}, n, nil
		}
	}
	return nil, n, rows.Err()
}

// VerifyRow runs s against the first row of the query.
func VerifyRow(ctx context.Context, db *sql.DB, s *verify.Session, query string, args ...any) (*verify.Failure, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoRows
	}
	row, err := scanMap(rows, cols)
	if err != nil {
		return nil, err
	}
	return s.Run(row)
}

func scanMap(rows *sql.Rows, cols []string) (map[string]any, error) {
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	row := make(map[string]any, len(cols))
	for i, c := range cols {
		if b, ok := vals[i].([]byte); ok {
			// copy: the driver may reuse the buffer
			vals[i] = append([]byte(nil), b...)
		}
		row[c] = vals[i]
	}
	return row, nil
}
