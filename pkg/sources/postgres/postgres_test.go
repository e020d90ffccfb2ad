package postgres

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/csvcols/pkg/errors"
)

// fakeRows serves canned text-format rows.
type fakeRows struct {
	names  []string
	data   [][][]byte
	pos    int
	err    error
	closed bool
}

func (r *fakeRows) Close()                        { r.closed = true }
func (r *fakeRows) Err() error                    { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) Conn() *pgx.Conn               { return nil }
func (r *fakeRows) Scan(dest ...any) error        { return stderrors.New("not implemented") }
func (r *fakeRows) Values() ([]any, error)        { return nil, stderrors.New("not implemented") }
func (r *fakeRows) RawValues() [][]byte           { return r.data[r.pos-1] }

func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fields := make([]pgconn.FieldDescription, len(r.names))
	for i, name := range r.names {
		fields[i] = pgconn.FieldDescription{Name: name}
	}
	return fields
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

type fakeQuerier struct {
	rows *fakeRows
	err  error
	sql  string
	args []any
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql = sql
	q.args = args
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func TestQuery(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{
		names: []string{"id", "email", "joined"},
		data: [][][]byte{
			{[]byte("1"), []byte("alice@x.com"), []byte("2024-01-15")},
			{[]byte("2"), nil, []byte("2024-02-01")},
		},
	}}

	doc, err := Query(context.Background(), q, "SELECT id, email, joined FROM users WHERE id < $1", 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "email", "joined"}, doc.Names())
	assert.Equal(t, 2, doc.NumRows())

	email, err := doc.Get("email")
	require.NoError(t, err)
	assert.True(t, email.EqualValues("alice@x.com", ""))

	assert.True(t, q.rows.closed)
	require.Len(t, q.args, 2)
	assert.Equal(t, pgx.QueryExecModeSimpleProtocol, q.args[0])
	assert.Equal(t, 3, q.args[1])
}

func TestQueryDuplicateNames(t *testing.T) {
	newQuerier := func() *fakeQuerier {
		return &fakeQuerier{rows: &fakeRows{
			names: []string{"id", "id", "name"},
			data:  [][][]byte{{[]byte("1"), []byte("10"), []byte("a")}},
		}}
	}

	_, err := Query(context.Background(), newQuerier(), "SELECT u.id, o.id, u.name FROM u JOIN o USING (k)")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConstruction))

	doc, err := QueryUnique(context.Background(), newQuerier(), "SELECT u.id, o.id, u.name FROM u JOIN o USING (k)")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "id_1", "name"}, doc.Names())
}

func TestQueryNoRows(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{names: []string{"a", "b"}}}
	doc, err := Query(context.Background(), q, "SELECT a, b FROM t WHERE false")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, doc.Names())
	assert.Equal(t, 0, doc.NumRows())
}

func TestQueryErrors(t *testing.T) {
	_, err := Query(context.Background(), &fakeQuerier{err: stderrors.New("connection refused")}, "SELECT 1")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeQuery))

	var e *errors.Error
	require.ErrorAs(t, err, &e)
	sql, _ := e.Detail("query")
	assert.Equal(t, "SELECT 1", sql)

	rows := &fakeRows{names: []string{"a"}, err: stderrors.New("canceled")}
	_, err = Query(context.Background(), &fakeQuerier{rows: rows}, "SELECT a FROM t")
	assert.True(t, errors.IsType(err, errors.ErrorTypeQuery))
	assert.True(t, rows.closed)
}

func TestConnectRejectsBadDSN(t *testing.T) {
	_, err := Connect(context.Background(), "postgres://user@host:notaport/db")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
