package csvio

import (
	"encoding/csv"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/csvcols/pkg/columnar"
	"github.com/ajitpratap0/csvcols/pkg/errors"
	"github.com/ajitpratap0/csvcols/pkg/metrics"
)

// Dump writes doc to w as delimited text: the header, then one record per
// row, using the delimiter and encoding from opts. Fields that contain the
// delimiter, a quote or a line break are quoted.
//
// Loading the output with the same options yields an equal Document, except
// that rows made only of empty values are dropped when SkipBlankLines is set
// and surrounding whitespace is lost when StripSpaces is set.
func Dump(w io.Writer, doc *columnar.Document[string], opts ...Option) error {
	o, err := buildOptions(opts)
	if err != nil {
		return err
	}
	codec, err := newCodec(o.Encoding, o.Delimiter)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	cw.Comma = o.Delimiter

	record := make([]string, doc.Len())
	encodeRow := func(values []string, line int) error {
		for i, v := range values {
			out, ok := codec.encode(v)
			if !ok {
				return errors.Newf(errors.ErrorTypeDecoding,
					"line %d field %d cannot be represented in %s", line, i, codec.name).
					WithDetail("line", line).
					WithDetail("position", i).
					WithDetail("encoding", codec.name)
			}
			record[i] = out
		}
		if err := cw.Write(record); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write CSV record")
		}
		return nil
	}

	if err := encodeRow(doc.Names(), 1); err != nil {
		return err
	}
	line := 1
	for row := range doc.IterRows() {
		line++
		if err := encodeRow(row.Values(), line); err != nil {
			return err
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush CSV output")
	}

	o.Logger.Debug("wrote CSV document",
		zap.Int("columns", doc.Len()),
		zap.Int("rows", doc.NumRows()),
		zap.String("encoding", codec.name))
	metrics.RowsWritten.WithLabelValues("csv").Add(float64(doc.NumRows()))
	return nil
}

// Dumps is Dump into a string.
func Dumps(doc *columnar.Document[string], opts ...Option) (string, error) {
	var b strings.Builder
	if err := Dump(&b, doc, opts...); err != nil {
		return "", err
	}
	return b.String(), nil
}
