package formats

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/ajitpratap0/csvcols/pkg/columnar"
	"github.com/ajitpratap0/csvcols/pkg/errors"
)

// ArrowSchema returns the Arrow schema of doc: one non-nullable utf8 field
// per column, in column order.
func ArrowSchema(doc *columnar.Document[string]) *arrow.Schema {
	names := doc.Names()
	fields := make([]arrow.Field, len(names))
	for i, name := range names {
		fields[i] = arrow.Field{Name: name, Type: arrow.BinaryTypes.String}
	}
	return arrow.NewSchema(fields, nil)
}

// ToArrowRecord converts doc into a single Arrow record. The caller must
// Release the record.
func ToArrowRecord(doc *columnar.Document[string], mem memory.Allocator) arrow.Record {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return buildRecord(ArrowSchema(doc), columnValues(doc), 0, doc.NumRows(), mem)
}

// FromArrowRecords builds a Document from records sharing schema. Values are
// rendered as text and nulls become "".
func FromArrowRecords(schema *arrow.Schema, records ...arrow.Record) (*columnar.Document[string], error) {
	names := fieldNames(schema)
	values := make([][]string, len(names))
	for _, rec := range records {
		appendArrays(values, recordColumns(rec))
	}
	return fromColumns(names, values)
}

func buildRecord(schema *arrow.Schema, values [][]string, start, end int, mem memory.Allocator) arrow.Record {
	builder := array.NewRecordBuilder(mem, schema)
	defer builder.Release()

	for i := range values {
		builder.Field(i).(*array.StringBuilder).AppendValues(values[i][start:end], nil)
	}
	return builder.NewRecord()
}

func writeArrow(w io.Writer, doc *columnar.Document[string], cfg WriterConfig) error {
	mem := memory.NewGoAllocator()
	schema := ArrowSchema(doc)

	opts := []ipc.Option{ipc.WithSchema(schema), ipc.WithAllocator(mem)}
	switch cfg.Compression {
	case "zstd":
		opts = append(opts, ipc.WithZstd())
	case "lz4":
		opts = append(opts, ipc.WithLZ4())
	case "", "none", "snappy":
		// snappy is the shared default and has no IPC codec
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unsupported arrow compression: %q", cfg.Compression)
	}

	fw, err := ipc.NewFileWriter(w, opts...)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFormat, "failed to create Arrow writer")
	}

	values := columnValues(doc)
	rows := doc.NumRows()
	for start := 0; start < rows; start += cfg.BatchSize {
		end := min(start+cfg.BatchSize, rows)
		rec := buildRecord(schema, values, start, end, mem)
		err := fw.Write(rec)
		rec.Release()
		if err != nil {
			fw.Close()
			return errors.Wrap(err, errors.ErrorTypeFormat, "failed to write record batch")
		}
	}

	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFormat, "failed to close Arrow writer")
	}
	return nil
}

func readArrow(r ipc.ReadAtSeeker) (*columnar.Document[string], error) {
	fr, err := ipc.NewFileReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "failed to create Arrow reader")
	}
	defer fr.Close()

	names := fieldNames(fr.Schema())
	values := make([][]string, len(names))
	for i := 0; i < fr.NumRecords(); i++ {
		// The record is only valid until the next call to Record.
		rec, err := fr.Record(i)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFormat, "failed to read record batch").
				WithDetail("batch", i)
		}
		appendArrays(values, recordColumns(rec))
	}
	return fromColumns(names, values)
}

func fieldNames(schema *arrow.Schema) []string {
	fields := schema.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func recordColumns(rec arrow.Record) []arrow.Array {
	cols := make([]arrow.Array, rec.NumCols())
	for i := range cols {
		cols[i] = rec.Column(i)
	}
	return cols
}

func appendArrays(values [][]string, arrays []arrow.Array) {
	for i, arr := range arrays {
		for k := 0; k < arr.Len(); k++ {
			values[i] = append(values[i], cellText(arr, k))
		}
	}
}

func cellText(arr arrow.Array, i int) string {
	if arr.IsNull(i) {
		return ""
	}
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Binary:
		return string(a.Value(i))
	default:
		return arr.ValueStr(i)
	}
}
