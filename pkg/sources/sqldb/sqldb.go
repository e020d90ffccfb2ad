// Package sqldb runs queries through database/sql and returns the result as
// a string Document. It serves any registered driver; csvcols registers
// SQLite (mattn/go-sqlite3).
package sqldb

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
	"go.uber.org/zap"

	"github.com/ajitpratap0/csvcols/pkg/columnar"
	"github.com/ajitpratap0/csvcols/pkg/errors"
	"github.com/ajitpratap0/csvcols/pkg/logger"
	"github.com/ajitpratap0/csvcols/pkg/sources"
)

// SQLiteScheme prefixes DSNs that Open routes to SQLite.
const SQLiteScheme = "sqlite://"

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Open opens a SQLite database from a "sqlite://path" DSN and pings it.
// "sqlite://:memory:" opens a private in-memory database.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	path, ok := strings.CutPrefix(dsn, SQLiteScheme)
	if !ok || path == "" {
		return nil, errors.Newf(errors.ErrorTypeConfig, "expected %spath, got %q", SQLiteScheme, dsn)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to open database").WithDetail("path", path)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to open database").WithDetail("path", path)
	}
	return db, nil
}

// Query runs query and returns its result. NULL becomes "", blobs are taken
// as text and other values use their canonical text form (see
// sources.Text). Repeated result column names fail with a construction
// error.
func Query(ctx context.Context, db Querier, query string, args ...any) (*columnar.Document[string], error) {
	return run(ctx, db, false, query, args)
}

// QueryUnique is Query with repeated result column names renamed to
// name_<index>.
func QueryUnique(ctx context.Context, db Querier, query string, args ...any) (*columnar.Document[string], error) {
	return run(ctx, db, true, query, args)
}

func run(ctx context.Context, db Querier, unique bool, query string, args []any) (*columnar.Document[string], error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sources.QueryError(err, "failed to execute query", query)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, sources.QueryError(err, "failed to read result columns", query)
	}

	result := sources.NewResult("sql", names, unique)
	values := make([]any, len(names))
	dest := make([]any, len(names))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, sources.QueryError(err, "failed to scan row", query)
		}
		row := make([]string, len(names))
		for i, v := range values {
			row[i] = sources.Text(v)
		}
		result.Append(row)
	}
	if err := rows.Err(); err != nil {
		return nil, sources.QueryError(err, "failed to read query result", query)
	}

	return result.Document(logger.WithContext(ctx).With(zap.String("driver", "database/sql")))
}
