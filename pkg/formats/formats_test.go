package formats

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/csvcols/pkg/columnar"
	"github.com/ajitpratap0/csvcols/pkg/csvio"
	"github.com/ajitpratap0/csvcols/pkg/errors"
)

func people(t *testing.T) *columnar.Document[string] {
	t.Helper()
	doc, err := columnar.New(
		columnar.P("email", columnar.NewColumn("alice@x.com", "bob@x.com", "carol@x.com")),
		columnar.P("first name", columnar.NewColumn("Alice", "", "Carol")),
		columnar.P("1st", columnar.NewColumn("a, \"quoted\"", "b\nc", "")),
		columnar.P("café", columnar.NewColumn("€1", "ü", "日本")),
	)
	require.NoError(t, err)
	return doc
}

func roundTrip(t *testing.T, doc *columnar.Document[string], format Format, cfg WriterConfig) *columnar.Document[string] {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, doc, format, cfg))
	got, err := Read(&buf, format)
	require.NoError(t, err)
	return got
}

func TestRoundTrip(t *testing.T) {
	doc := people(t)
	for _, format := range []Format{Arrow, Parquet, Avro, JSONL} {
		t.Run(format.String(), func(t *testing.T) {
			got := roundTrip(t, doc, format, WriterConfig{Logger: zaptest.NewLogger(t)})
			assert.Equal(t, doc.Names(), got.Names())
			assert.True(t, doc.Equal(got), "got %v", got.Rows())
		})
	}
}

func TestRoundTripSmallBatches(t *testing.T) {
	doc := people(t)
	for _, format := range []Format{Arrow, Parquet, Avro} {
		t.Run(format.String(), func(t *testing.T) {
			got := roundTrip(t, doc, format, WriterConfig{BatchSize: 2})
			assert.True(t, doc.Equal(got))
		})
	}
}

func TestRoundTripCompression(t *testing.T) {
	doc := people(t)
	tests := []struct {
		format Format
		codecs []string
	}{
		{Arrow, []string{"none", "zstd", "lz4"}},
		{Parquet, []string{"none", "snappy", "gzip", "zstd", "lz4", "brotli"}},
		{Avro, []string{"none", "snappy", "deflate"}},
	}
	for _, tt := range tests {
		for _, codec := range tt.codecs {
			t.Run(tt.format.String()+"/"+codec, func(t *testing.T) {
				got := roundTrip(t, doc, tt.format, WriterConfig{Compression: codec})
				assert.True(t, doc.Equal(got))
			})
		}
	}
}

func TestUnsupportedCompression(t *testing.T) {
	doc := people(t)
	for _, format := range []Format{Arrow, Parquet, Avro} {
		err := Write(&bytes.Buffer{}, doc, format, WriterConfig{Compression: "rar"})
		require.Error(t, err, format)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig), format)
	}
}

func TestRoundTripNoRows(t *testing.T) {
	doc, err := columnar.New(
		columnar.P("a", columnar.NewColumn[string]()),
		columnar.P("b", columnar.NewColumn[string]()),
	)
	require.NoError(t, err)

	for _, format := range []Format{Arrow, Parquet, Avro} {
		t.Run(format.String(), func(t *testing.T) {
			got := roundTrip(t, doc, format, DefaultWriterConfig())
			assert.Equal(t, []string{"a", "b"}, got.Names())
			assert.Equal(t, 0, got.NumRows())
		})
	}
}

func TestCSVDelegatesToCSVIO(t *testing.T) {
	doc := people(t)
	var buf bytes.Buffer
	cfg := WriterConfig{CSV: []csvio.Option{csvio.WithDelimiter(';'), csvio.WithStripSpaces(false)}}
	require.NoError(t, Write(&buf, doc, CSV, cfg))
	assert.True(t, strings.HasPrefix(buf.String(), "email;first name;1st;café\n"))

	got, err := Read(&buf, CSV, cfg.CSV...)
	require.NoError(t, err)
	assert.True(t, doc.Equal(got))
}

func TestAvroFieldName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"email", "email"},
		{"first name", "first_name"},
		{"1st", "_1st"},
		{"café", "caf_"},
		{"", "_"},
		{"a-b.c", "a_b_c"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AvroFieldName(tt.in), tt.in)
	}
}

func TestAvroCollidingFieldNames(t *testing.T) {
	doc, err := columnar.New(
		columnar.P("a b", columnar.NewColumn("1")),
		columnar.P("a_b", columnar.NewColumn("2")),
	)
	require.NoError(t, err)

	got := roundTrip(t, doc, Avro, DefaultWriterConfig())
	assert.Equal(t, []string{"a b", "a_b"}, got.Names())
	assert.True(t, doc.Equal(got))
}

func TestToArrowRecord(t *testing.T) {
	doc := people(t)
	rec := ToArrowRecord(doc, memory.NewGoAllocator())
	defer rec.Release()

	assert.EqualValues(t, 4, rec.NumCols())
	assert.EqualValues(t, 3, rec.NumRows())
	assert.Equal(t, "first name", rec.Schema().Field(1).Name)
	assert.Equal(t, "bob@x.com", rec.Column(0).(*array.String).Value(1))

	back, err := FromArrowRecords(rec.Schema(), rec)
	require.NoError(t, err)
	assert.True(t, doc.Equal(back))
}

func TestCellTextRendersOtherTypes(t *testing.T) {
	mem := memory.NewGoAllocator()
	b := array.NewInt64Builder(mem)
	defer b.Release()
	b.AppendValues([]int64{7, 0, 9}, []bool{true, false, true})
	arr := b.NewArray()
	defer arr.Release()

	values := make([][]string, 1)
	appendArrays(values, []arrow.Array{arr})
	assert.Equal(t, []string{"7", "", "9"}, values[0])
}

func TestJSONL(t *testing.T) {
	var buf bytes.Buffer
	doc, err := columnar.New(
		columnar.P("z", columnar.NewColumn("1", "2")),
		columnar.P("a", columnar.NewColumn("x", "")),
	)
	require.NoError(t, err)
	require.NoError(t, Write(&buf, doc, JSONL, WriterConfig{}))
	assert.Equal(t, "{\"z\":\"1\",\"a\":\"x\"}\n{\"z\":\"2\",\"a\":\"\"}\n", buf.String())
}

func TestReadJSONL(t *testing.T) {
	input := `{"id": 1, "name": "Alice", "admin": true}
{"name": "Bob", "id": 2}

{"id": 3, "name": null, "admin": false}
`
	doc, err := Read(strings.NewReader(input), JSONL)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "admin"}, doc.Names())

	admin, err := doc.Get("admin")
	require.NoError(t, err)
	assert.True(t, admin.EqualValues("true", "", "false"))

	name, err := doc.Get("name")
	require.NoError(t, err)
	assert.True(t, name.EqualValues("Alice", "Bob", ""))
}

func TestReadJSONLErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		typ   errors.ErrorType
	}{
		{"unknown key", "{\"a\":\"1\"}\n{\"b\":\"2\"}\n", errors.ErrorTypeParse},
		{"not an object", "[1,2]\n", errors.ErrorTypeParse},
		{"truncated", "{\"a\":", errors.ErrorTypeParse},
		{"empty", "", errors.ErrorTypeConstruction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), JSONL)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.typ), err.Error())
		})
	}
}

func TestReadCorruptInput(t *testing.T) {
	for _, format := range []Format{Arrow, Parquet, Avro} {
		_, err := Read(strings.NewReader("definitely not a columnar file"), format)
		require.Error(t, err, format)
		assert.True(t, errors.IsType(err, errors.ErrorTypeFormat), format)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"csv", CSV},
		{"Parquet", Parquet},
		{"ipc", Arrow},
		{"ndjson", JSONL},
		{" avro ", Avro},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseFormat("xlsx")
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	err = Write(&bytes.Buffer{}, people(t), Format("xlsx"), WriterConfig{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeFormat))
}

func TestFromExtension(t *testing.T) {
	tests := []struct {
		path string
		want Format
		ok   bool
	}{
		{"users.csv", CSV, true},
		{"users.csv.gz", CSV, true},
		{"out/users.parquet", Parquet, true},
		{"users.jsonl.zst", JSONL, true},
		{"users.arrow", Arrow, true},
		{"users", "", false},
		{"users.xlsx", "", false},
	}
	for _, tt := range tests {
		got, ok := FromExtension(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
	assert.Equal(t, ".parquet", Parquet.Extension())
}

func TestWriteNilDocument(t *testing.T) {
	err := Write(&bytes.Buffer{}, nil, Arrow, WriterConfig{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeFormat))
}
