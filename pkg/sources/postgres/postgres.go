// Package postgres runs PostgreSQL queries and returns the result as a
// string Document.
package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ajitpratap0/csvcols/pkg/columnar"
	"github.com/ajitpratap0/csvcols/pkg/errors"
	"github.com/ajitpratap0/csvcols/pkg/logger"
	"github.com/ajitpratap0/csvcols/pkg/sources"
)

// Querier is satisfied by *pgx.Conn, *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Connect opens a connection pool for dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid PostgreSQL connection string")
	}
	cfg.MaxConns = 4
	cfg.MaxConnIdleTime = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to connect to PostgreSQL").
			WithDetail("host", cfg.ConnConfig.Host)
	}
	return pool, nil
}

// Query runs sql and returns its result. Cells hold PostgreSQL's own text
// rendering of each value and NULL becomes "". Repeated result column names
// fail with a construction error.
func Query(ctx context.Context, q Querier, sql string, args ...any) (*columnar.Document[string], error) {
	return query(ctx, q, false, sql, args)
}

// QueryUnique is Query with repeated result column names renamed to
// name_<index>.
func QueryUnique(ctx context.Context, q Querier, sql string, args ...any) (*columnar.Document[string], error) {
	return query(ctx, q, true, sql, args)
}

func query(ctx context.Context, q Querier, unique bool, sql string, args []any) (*columnar.Document[string], error) {
	// The simple protocol returns every column in text format.
	rows, err := q.Query(ctx, sql, append([]any{pgx.QueryExecModeSimpleProtocol}, args...)...)
	if err != nil {
		return nil, sources.QueryError(err, "failed to execute query", sql)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	names := make([]string, len(fields))
	for i, fd := range fields {
		names[i] = fd.Name
	}

	result := sources.NewResult("postgres", names, unique)
	for rows.Next() {
		raw := rows.RawValues()
		row := make([]string, len(names))
		for i := range row {
			if i < len(raw) && raw[i] != nil {
				row[i] = string(raw[i])
			}
		}
		result.Append(row)
	}
	if err := rows.Err(); err != nil {
		return nil, sources.QueryError(err, "failed to read query result", sql)
	}

	return result.Document(logger.WithContext(ctx).With(zap.String("driver", "pgx")))
}
