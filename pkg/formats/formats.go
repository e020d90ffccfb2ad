// Package formats converts string Documents to and from file formats other
// than delimited text: Arrow IPC, Parquet, Avro and JSON Lines. CSV is
// included so callers can treat every format alike.
//
// Every reader returns a validated Document with string columns. Values of
// other types are rendered as text and nulls become "".
package formats

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/csvcols/pkg/columnar"
	"github.com/ajitpratap0/csvcols/pkg/compression"
	"github.com/ajitpratap0/csvcols/pkg/csvio"
	"github.com/ajitpratap0/csvcols/pkg/errors"
	"github.com/ajitpratap0/csvcols/pkg/metrics"
)

// Format represents a file format
type Format string

const (
	// CSV is delimited text
	CSV Format = "csv"
	// Arrow is the Apache Arrow IPC file format
	Arrow Format = "arrow"
	// Parquet is Apache Parquet format
	Parquet Format = "parquet"
	// Avro is an Apache Avro object container file
	Avro Format = "avro"
	// JSONL is one JSON object per line
	JSONL Format = "jsonl"
)

// Formats lists every supported format.
var Formats = []Format{CSV, Arrow, Parquet, Avro, JSONL}

var extensions = map[Format]string{
	CSV:     ".csv",
	Arrow:   ".arrow",
	Parquet: ".parquet",
	Avro:    ".avro",
	JSONL:   ".jsonl",
}

var aliases = map[string]Format{
	"tsv":     CSV,
	"ipc":     Arrow,
	"feather": Arrow,
	"pq":      Parquet,
	"ndjson":  JSONL,
	"json":    JSONL,
}

// ParseFormat resolves a case-insensitive format name.
func ParseFormat(name string) (Format, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if f, ok := aliases[key]; ok {
		return f, nil
	}
	for _, f := range Formats {
		if string(f) == key {
			return f, nil
		}
	}
	return "", errors.Newf(errors.ErrorTypeConfig, "unsupported format: %q", name).
		WithDetail("format", name)
}

// FromExtension detects the format from a file name, ignoring a trailing
// compression suffix such as ".gz".
func FromExtension(path string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(compression.TrimExtension(path)))
	if ext == "" {
		return "", false
	}
	f, err := ParseFormat(ext[1:])
	if err != nil {
		return "", false
	}
	return f, true
}

// Extension returns the canonical file suffix of the format.
func (f Format) Extension() string {
	return extensions[f]
}

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// WriterConfig configures Write.
type WriterConfig struct {
	// Compression names the codec used inside the file: snappy, gzip,
	// zstd, lz4, brotli or none for Parquet; snappy, deflate or none for
	// Avro; zstd, lz4 or none for Arrow. It is ignored for CSV and JSONL,
	// which are compressed as a whole stream by the caller.
	Compression string
	// BatchSize is the number of rows per Arrow record batch, Parquet row
	// group or Avro block.
	BatchSize int
	// CSV holds the options used when the format is CSV.
	CSV []csvio.Option
	// Logger receives debug output. Nil means no logging.
	Logger *zap.Logger
}

// DefaultWriterConfig returns default writer configuration
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		Compression: "snappy",
		BatchSize:   10000,
	}
}

func (c WriterConfig) withDefaults() WriterConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultWriterConfig().BatchSize
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	c.Compression = strings.ToLower(strings.TrimSpace(c.Compression))
	return c
}

// Write serializes doc to w in the given format.
func Write(w io.Writer, doc *columnar.Document[string], format Format, cfg WriterConfig) error {
	if doc == nil {
		return errors.New(errors.ErrorTypeFormat, "cannot write a nil Document")
	}
	cfg = cfg.withDefaults()
	// Closing a library writer must not close w.
	sink := struct{ io.Writer }{w}

	var err error
	switch format {
	case CSV:
		return csvio.Dump(w, doc, cfg.CSV...)
	case Arrow:
		err = writeArrow(sink, doc, cfg)
	case Parquet:
		err = writeParquet(sink, doc, cfg)
	case Avro:
		err = writeAvro(sink, doc, cfg)
	case JSONL:
		err = writeJSONL(sink, doc)
	default:
		return errors.Newf(errors.ErrorTypeFormat, "unsupported format: %q", string(format))
	}
	if err != nil {
		return err
	}

	metrics.RowsWritten.WithLabelValues(string(format)).Add(float64(doc.NumRows()))
	cfg.Logger.Debug("document written",
		zap.String("format", string(format)),
		zap.Int("columns", doc.Len()),
		zap.Int("rows", doc.NumRows()),
		zap.String("compression", cfg.Compression))
	return nil
}

// Read builds a Document from r in the given format. csvOpts only apply to
// CSV input. Arrow, Parquet and Avro input is buffered in memory because
// their readers need random access.
func Read(r io.Reader, format Format, csvOpts ...csvio.Option) (*columnar.Document[string], error) {
	if format == CSV {
		return csvio.Load(r, csvOpts...)
	}

	timer := metrics.NewTimer(string(format))
	var (
		doc *columnar.Document[string]
		err error
	)
	switch format {
	case JSONL:
		doc, err = readJSONL(r)
	case Arrow, Parquet, Avro:
		data, rerr := io.ReadAll(r)
		if rerr != nil {
			return nil, errors.Wrap(rerr, errors.ErrorTypeFile, "failed to read input")
		}
		switch format {
		case Arrow:
			doc, err = readArrow(bytes.NewReader(data))
		case Parquet:
			doc, err = readParquet(bytes.NewReader(data))
		default:
			doc, err = readAvro(bytes.NewReader(data))
		}
	default:
		return nil, errors.Newf(errors.ErrorTypeFormat, "unsupported format: %q", string(format))
	}
	if err != nil {
		return nil, err
	}

	timer.ObserveDuration()
	metrics.DocumentsBuilt.WithLabelValues(string(format)).Inc()
	return doc, nil
}

// fromColumns builds a Document from parallel names and column values.
func fromColumns(names []string, values [][]string) (*columnar.Document[string], error) {
	pairs := make([]columnar.Pair[string], len(names))
	for i, name := range names {
		pairs[i] = columnar.P(name, columnar.NewColumn(values[i]...))
	}
	return columnar.New(pairs...)
}

// columnValues returns a copy of every column's values, in column order.
func columnValues(doc *columnar.Document[string]) [][]string {
	cols := doc.Columns()
	out := make([][]string, len(cols))
	for i, col := range cols {
		out[i] = col.Values()
	}
	return out
}
