// Package sqldb implements the domain repositories on a relational database
// through sqlx. Queries are written with ? placeholders and rebound for the
// connection's driver, so the same code serves MySQL, PostgreSQL and SQLite.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/Pesokrava/jewelry_store/internal/domain"
)

// Rows ids are integers; domain ids are their decimal form
func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: malformed id %q", domain.ErrNotFound, id)
	}
	return n, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func nullableID(id *string) (interface{}, error) {
	if id == nil || *id == "" {
		return nil, nil
	}
	return parseID(*id)
}

// insert runs an INSERT and returns the generated id. PostgreSQL has no
// LastInsertId, so it gets a RETURNING clause instead.
func insert(ctx context.Context, db sqlx.ExtContext, query string, args ...interface{}) (string, error) {
	query = db.Rebind(query)

	if db.DriverName() == "postgres" {
		var id int64
		if err := db.QueryRowxContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			return "", err
		}
		return formatID(id), nil
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return "", err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return "", err
	}
	return formatID(id), nil
}

// requireAffected maps an UPDATE or DELETE that touched nothing to notFound
func requireAffected(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

func mapNoRows(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		// 1451: parent row still referenced, 1452: referenced row missing
		return myErr.Number == 1451 || myErr.Number == 1452
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return false
}
