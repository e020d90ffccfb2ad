package sources

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/csvcols/pkg/errors"
)

func TestText(t *testing.T) {
	ts := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{[]byte("raw"), "raw"},
		{int64(-42), "-42"},
		{2.5, "2.5"},
		{1e21, "1e+21"},
		{true, "true"},
		{ts, "2024-01-15T10:30:00Z"},
		{time.Second, "1s"},
		{uint8(7), "7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Text(tt.in))
	}
}

func TestResult(t *testing.T) {
	r := NewResult("sources_test", []string{"a", "a", "b"}, true)
	assert.Equal(t, []string{"a", "a_1", "b"}, r.Names())
	r.Append([]string{"1", "2", "3"})

	doc, err := r.Document(zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, "Document[3 cols x 1 rows]", doc.String())
}

func TestResultRaggedRow(t *testing.T) {
	r := NewResult("sources_test", []string{"a", "b"}, false)
	r.Append([]string{"1"})

	_, err := r.Document(zaptest.NewLogger(t))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConstruction))
}
