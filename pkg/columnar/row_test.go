package columnar

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/csvcols/pkg/errors"
)

func TestRowAccess(t *testing.T) {
	doc := people(t)
	row, err := doc.Row(1)
	require.NoError(t, err)

	assert.Equal(t, 3, row.Len())
	assert.Equal(t, []string{"first_name", "last_name", "gender"}, row.Names())

	v, err := row.Lookup(0)
	require.NoError(t, err)
	assert.Equal(t, "Brian", v)

	v, err = row.Lookup("last_name")
	require.NoError(t, err)
	assert.Equal(t, "Jones", v)

	_, err = row.Get("age")
	assert.True(t, errors.IsType(err, errors.ErrorTypeLookup))

	_, err = row.At(-1)
	assert.True(t, errors.IsType(err, errors.ErrorTypeOutOfRange))

	_, err = row.Lookup([]int{0})
	assert.True(t, errors.IsType(err, errors.ErrorTypeLookup))

	assert.Equal(t, map[string]string{
		"first_name": "Brian",
		"last_name":  "Jones",
		"gender":     "M",
	}, row.Map())
	assert.Equal(t, "Row(first_name=Brian, last_name=Jones, gender=M)", row.String())
}

func TestRowSharesNameIndex(t *testing.T) {
	doc := people(t)
	rows := doc.Rows()

	indexPtr := reflect.ValueOf(doc.index).Pointer()
	for _, r := range rows {
		assert.Equal(t, indexPtr, reflect.ValueOf(r.index).Pointer())
	}

	r0, r1 := rows[0], rows[1]
	assert.False(t, r0.Equal(r1))

	again, err := doc.Row(0)
	require.NoError(t, err)
	assert.True(t, r0.Equal(again))
}

func TestRowAll(t *testing.T) {
	doc := people(t)
	row, err := doc.Row(0)
	require.NoError(t, err)

	var names, values []string
	for name, v := range row.All() {
		names = append(names, name)
		values = append(values, v)
	}
	assert.Equal(t, doc.Names(), names)
	assert.Equal(t, []string{"David", "Ormsbee", "M"}, values)

	mutated := row.Values()
	mutated[0] = "changed"
	first, _ := row.At(0)
	assert.Equal(t, "David", first)
}
