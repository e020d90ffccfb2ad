package csvio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/csvcols/pkg/columnar"
	"github.com/ajitpratap0/csvcols/pkg/errors"
)

const sample = "email,BILLING_FIRST,BILLING_LAST\n" +
	"dave@x.com,  Dave, ormsbee\n" +
	",,,\n" +
	"rusty@x.com,Rusty,ormsbee\n" +
	"jack@x.com,Jack,  ,\n" +
	"clyde@x.com, clyde ,ormsbee,,,,,,,\n" +
	",,,\n"

func column(t *testing.T, doc *columnar.Document[string], name string) []string {
	t.Helper()
	col, err := doc.Get(name)
	require.NoError(t, err)
	return col.Values()
}

func TestLoadsSample(t *testing.T) {
	t.Run("skip blank lines", func(t *testing.T) {
		doc, err := Loads(sample, WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, 4, doc.NumRows())
		assert.Equal(t, []string{"email", "BILLING_FIRST", "BILLING_LAST"}, doc.Names())
	})

	t.Run("keep blank lines", func(t *testing.T) {
		doc, err := Loads(sample, WithSkipBlankLines(false))
		require.NoError(t, err)
		assert.Equal(t, 6, doc.NumRows())
	})

	t.Run("strip spaces", func(t *testing.T) {
		doc, err := Loads(sample)
		require.NoError(t, err)
		assert.Equal(t, []string{"Dave", "Rusty", "Jack", "clyde"}, column(t, doc, "BILLING_FIRST"))
		assert.Equal(t, []string{"ormsbee", "ormsbee", "", "ormsbee"}, column(t, doc, "BILLING_LAST"))
	})

	t.Run("keep spaces", func(t *testing.T) {
		doc, err := Loads(sample, WithStripSpaces(false))
		require.NoError(t, err)
		first := column(t, doc, "BILLING_FIRST")
		assert.Equal(t, "  Dave", first[0])
		assert.Equal(t, " clyde ", first[3])
		assert.Equal(t, "  ", column(t, doc, "BILLING_LAST")[2])
	})
}

func TestLoadsLeadingSpacesUnstripped(t *testing.T) {
	doc, err := Loads("first,last\n  Dave,Ormsbee\n", WithStripSpaces(false))
	require.NoError(t, err)
	assert.Equal(t, "  Dave", column(t, doc, "first")[0])
}

func TestLoadsHeaderAlwaysStripped(t *testing.T) {
	doc, err := Loads(" a , b \n1,2\n", WithStripSpaces(false))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, doc.Names())
}

func TestForceUniqueColNames(t *testing.T) {
	doc, err := Loads("a,a,b\n1,2,3\n", WithForceUniqueColNames(true))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a_1", "b"}, doc.Names())
	assert.Equal(t, []string{"2"}, column(t, doc, "a_1"))

	_, err = Loads("a,a,b\n1,2,3\n")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConstruction))
}

func TestUniqueNames(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{"a", "a", "b"}, []string{"a", "a_1", "b"}},
		{[]string{"a", "b", "a", "a"}, []string{"a", "b", "a_2", "a_3"}},
		{[]string{"a", "a", "a_1"}, []string{"a", "a_1", "a_1_2"}},
		{[]string{"a_2", "a", "a"}, []string{"a_2", "a", "a_2"}},
		{[]string{"x", "y"}, []string{"x", "y"}},
		{nil, []string{}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, UniqueNames(tt.in), "input %v", tt.in)
	}
}

func TestUniqueNamesCollisionFails(t *testing.T) {
	_, err := Loads("a_2,a,a\n1,2,3\n", WithForceUniqueColNames(true))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConstruction))
	assert.Contains(t, err.Error(), "a_2")
}

func TestShortAndBlankRows(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		opts   []Option
		rows   int
		column string
		want   []string
	}{
		{
			name:   "short row is padded",
			input:  "a,b,c\nx\n",
			rows:   1,
			column: "c",
			want:   []string{""},
		},
		{
			name:   "short row of spaces is blank after strip",
			input:  "a,b,c\n   \n1,2,3\n",
			rows:   1,
			column: "a",
			want:   []string{"1"},
		},
		{
			name:   "short row of spaces kept without strip",
			input:  "a,b,c\n   \n1,2,3\n",
			opts:   []Option{WithStripSpaces(false)},
			rows:   2,
			column: "a",
			want:   []string{"   ", "1"},
		},
		{
			name:   "short blank row kept when not skipping",
			input:  "a,b,c\n,\n1,2,3\n",
			opts:   []Option{WithSkipBlankLines(false)},
			rows:   2,
			column: "c",
			want:   []string{"", "3"},
		},
		{
			name:   "extra fields are ignored",
			input:  "a,b\n1,2,3,4\n",
			rows:   1,
			column: "b",
			want:   []string{"2"},
		},
		{
			name:   "value only in extra fields keeps the row",
			input:  "a,b\n,,x\n",
			rows:   1,
			column: "a",
			want:   []string{""},
		},
		{
			name:   "spaces only in extra fields are blank",
			input:  "a,b\n,,  \n",
			rows:   0,
			column: "a",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Loads(tt.input, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.rows, doc.NumRows())
			assert.Equal(t, tt.want, column(t, doc, tt.column))
		})
	}
}

func TestEmptyLines(t *testing.T) {
	t.Run("between records", func(t *testing.T) {
		in := "a,b\n1,2\n\n3,4\n"

		doc, err := Loads(in)
		require.NoError(t, err)
		assert.Equal(t, 2, doc.NumRows())

		doc, err = Loads(in, WithSkipBlankLines(false))
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "", "3"}, column(t, doc, "a"))
	})

	t.Run("after header and at end", func(t *testing.T) {
		doc, err := Loads("a\n\n1\n\n\n", WithSkipBlankLines(false))
		require.NoError(t, err)
		assert.Equal(t, []string{"", "1", "", ""}, column(t, doc, "a"))
	})

	t.Run("after multi-line field", func(t *testing.T) {
		doc, err := Loads("a,b\n\"x\ny\",2\n\n3,4\n", WithSkipBlankLines(false))
		require.NoError(t, err)
		assert.Equal(t, []string{"x\ny", "", "3"}, column(t, doc, "a"))
	})

	t.Run("crlf line endings", func(t *testing.T) {
		doc, err := Loads("a,b\r\n1,2\r\n\r\n3,4\r\n", WithSkipBlankLines(false))
		require.NoError(t, err)
		assert.Equal(t, []string{"2", "", "4"}, column(t, doc, "b"))
	})

	t.Run("no trailing newline", func(t *testing.T) {
		doc, err := Loads("a\n1", WithSkipBlankLines(false))
		require.NoError(t, err)
		assert.Equal(t, []string{"1"}, column(t, doc, "a"))
	})
}

func TestDelimiters(t *testing.T) {
	doc, err := Loads("a;b\n1;2\n", WithDelimiter(';'))
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, column(t, doc, "b"))

	doc, err = Loads("a\tb\n1\t 2 \n", WithDelimiter('\t'))
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, column(t, doc, "b"))

	for _, d := range []rune{'"', '\n', '\r', 0, -1} {
		_, err := Loads("a\n1\n", WithDelimiter(d))
		require.Error(t, err, "delimiter %q", d)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	}
}

func TestEncodings(t *testing.T) {
	t.Run("invalid utf-8", func(t *testing.T) {
		_, err := Loads("name\nok\nbad\xff\n")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeDecoding))

		var e *errors.Error
		require.ErrorAs(t, err, &e)
		line, _ := e.Detail("line")
		assert.Equal(t, 3, line)
		col, _ := e.Detail("column")
		assert.Equal(t, "name", col)
	})

	t.Run("invalid bytes past the header are ignored", func(t *testing.T) {
		doc, err := Loads("a,b\n1,2,\xff\n")
		require.NoError(t, err)
		assert.Equal(t, 1, doc.NumRows())
		assert.Equal(t, []string{"2"}, column(t, doc, "b"))
	})

	t.Run("extra fields keep a row from being blank", func(t *testing.T) {
		doc, err := Loads("a,b\n,, x\n")
		require.NoError(t, err)
		assert.Equal(t, 1, doc.NumRows())
		assert.Equal(t, []string{""}, column(t, doc, "a"))
	})

	t.Run("invalid header", func(t *testing.T) {
		_, err := Loads("na\xffme\n1\n")
		assert.True(t, errors.IsType(err, errors.ErrorTypeDecoding))
	})

	t.Run("latin-1", func(t *testing.T) {
		doc, err := Loads("caf\xe9\nna\xefve\n", WithEncoding("latin-1"))
		require.NoError(t, err)
		assert.Equal(t, []string{"café"}, doc.Names())
		assert.Equal(t, []string{"naïve"}, column(t, doc, "café"))
	})

	t.Run("ascii", func(t *testing.T) {
		_, err := Loads("a\n\xe9\n", WithEncoding("ascii"))
		assert.True(t, errors.IsType(err, errors.ErrorTypeDecoding))
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := Loads("a\n1\n", WithEncoding("klingon"))
		assert.True(t, errors.IsType(err, errors.ErrorTypeDecoding))
	})

	t.Run("not ascii compatible", func(t *testing.T) {
		_, err := Loads("a\n1\n", WithEncoding("utf-16le"))
		assert.True(t, errors.IsType(err, errors.ErrorTypeDecoding))
	})
}

func TestResolveEncoding(t *testing.T) {
	tests := map[string]string{
		"":             "utf-8",
		"UTF8":         "utf-8",
		"latin-1":      "iso-8859-1",
		"ISO-8859-1":   "iso-8859-1",
		"windows-1252": "windows-1252",
		"ascii":        "us-ascii",
	}
	for in, want := range tests {
		got, err := ResolveEncoding(in, ',')
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestMalformedInput(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := Loads("")
		assert.True(t, errors.IsType(err, errors.ErrorTypeConstruction))
	})

	t.Run("unterminated quote", func(t *testing.T) {
		_, err := Loads("a,b\n\"open,2\n")
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeParse))
	})

	t.Run("bare quote", func(t *testing.T) {
		_, err := Loads("a\nx\"y\n")
		assert.True(t, errors.IsType(err, errors.ErrorTypeParse))

		doc, err := Loads("a\nx\"y\n", WithLazyQuotes(true))
		require.NoError(t, err)
		assert.Equal(t, []string{"x\"y"}, column(t, doc, "a"))
	})

	t.Run("header only", func(t *testing.T) {
		doc, err := Loads("a,b\n")
		require.NoError(t, err)
		assert.Equal(t, 0, doc.NumRows())
		assert.Equal(t, 2, doc.Len())
	})
}
