// Package sources builds string Documents from query results. The postgres
// and sqldb subpackages feed it rows from their drivers.
package sources

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/csvcols/pkg/columnar"
	"github.com/ajitpratap0/csvcols/pkg/csvio"
	"github.com/ajitpratap0/csvcols/pkg/errors"
	"github.com/ajitpratap0/csvcols/pkg/metrics"
)

// Result accumulates the rows of one query result.
type Result struct {
	source string
	names  []string
	rows   [][]string
	timer  *metrics.Timer
}

// NewResult starts a result for source (used as the metrics label) with
// the given column names. With unique set, repeated names are renamed the
// way the CSV loader renames repeated header names.
func NewResult(source string, names []string, unique bool) *Result {
	if unique {
		names = csvio.UniqueNames(names)
	}
	return &Result{
		source: source,
		names:  names,
		timer:  metrics.NewTimer(source),
	}
}

// Names returns the column names of the result.
func (r *Result) Names() []string {
	return r.names
}

// Append adds one row. The slice is retained.
func (r *Result) Append(row []string) {
	r.rows = append(r.rows, row)
}

// Document builds the Document and records metrics. A result without
// columns, or with repeated names when unique was not set, fails with a
// construction error.
func (r *Result) Document(log *zap.Logger) (*columnar.Document[string], error) {
	doc, err := columnar.FromRows(r.names, r.rows)
	if err != nil {
		return nil, err
	}
	r.timer.ObserveDuration()
	metrics.DocumentsBuilt.WithLabelValues(r.source).Inc()
	metrics.RowsLoaded.Add(float64(len(r.rows)))
	log.Debug("query result loaded",
		zap.String("source", r.source),
		zap.Strings("columns", r.names),
		zap.Int("rows", len(r.rows)))
	return doc, nil
}

// Text renders a driver value as a cell. NULL becomes "".
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// QueryError wraps a driver failure as a query error carrying the SQL.
func QueryError(err error, message, query string) *errors.Error {
	return errors.Wrap(err, errors.ErrorTypeQuery, message).WithDetail("query", query)
}
