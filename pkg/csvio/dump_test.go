package csvio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/csvcols/pkg/columnar"
	"github.com/ajitpratap0/csvcols/pkg/errors"
)

func testDoc(t *testing.T) *columnar.Document[string] {
	t.Helper()
	doc, err := columnar.FromRows([]string{"email", "note", "city"}, [][]string{
		{"dave@x.com", "likes, commas", "Zürich"},
		{"rusty@x.com", "says \"hi\"", "Köln"},
		{"jack@x.com", "two\nlines", ""},
	})
	require.NoError(t, err)
	return doc
}

func TestDumps(t *testing.T) {
	out, err := Dumps(testDoc(t))
	require.NoError(t, err)

	assert.Equal(t, "email,note,city\n"+
		"dave@x.com,\"likes, commas\",Zürich\n"+
		"rusty@x.com,\"says \"\"hi\"\"\",Köln\n"+
		"jack@x.com,\"two\nlines\",\n", out)
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"defaults", nil},
		{"semicolon", []Option{WithDelimiter(';')}},
		{"tab", []Option{WithDelimiter('\t')}},
		{"latin-1", []Option{WithEncoding("latin-1")}},
		{"no strip", []Option{WithStripSpaces(false), WithSkipBlankLines(false)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := testDoc(t)
			opts := append([]Option{WithLogger(zaptest.NewLogger(t))}, tt.opts...)

			text, err := Dumps(doc, opts...)
			require.NoError(t, err)

			back, err := Loads(text, opts...)
			require.NoError(t, err)
			assert.True(t, doc.Equal(back), "got %v", back.Columns())
		})
	}
}

func TestRoundTripWhitespaceAndBlankRows(t *testing.T) {
	doc, err := columnar.FromRows([]string{"a", "b"}, [][]string{
		{" padded ", "x"},
		{"", ""},
		{"\ttab", "y"},
	})
	require.NoError(t, err)

	opts := []Option{WithStripSpaces(false), WithSkipBlankLines(false)}
	text, err := Dumps(doc, opts...)
	require.NoError(t, err)
	back, err := Loads(text, opts...)
	require.NoError(t, err)
	assert.True(t, doc.Equal(back))

	stripped, err := Loads(text)
	require.NoError(t, err)
	assert.Equal(t, 2, stripped.NumRows())
	a, _ := stripped.Get("a")
	assert.True(t, a.EqualValues("padded", "tab"))
}

func TestRoundTripSingleColumnBlank(t *testing.T) {
	doc, err := columnar.FromRows([]string{"only"}, [][]string{{"1"}, {""}, {"3"}})
	require.NoError(t, err)

	opts := []Option{WithSkipBlankLines(false)}
	text, err := Dumps(doc, opts...)
	require.NoError(t, err)
	back, err := Loads(text, opts...)
	require.NoError(t, err)
	assert.True(t, doc.Equal(back))
}

func TestDumpEncodingErrors(t *testing.T) {
	doc, err := columnar.FromRows([]string{"price"}, [][]string{{"5 €"}})
	require.NoError(t, err)

	_, err = Dumps(doc, WithEncoding("latin-1"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDecoding))

	var buf bytes.Buffer
	err = Dump(&buf, doc, WithEncoding("windows-1252"))
	require.NoError(t, err)
	assert.Equal(t, "price\n5 \x80\n", buf.String())
}

func TestDumpRejectsBadOptions(t *testing.T) {
	_, err := Dumps(testDoc(t), WithDelimiter('"'))
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = Dumps(testDoc(t), WithEncoding("nope"))
	assert.True(t, errors.IsType(err, errors.ErrorTypeDecoding))
}
