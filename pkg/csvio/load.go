package csvio

import (
	"bytes"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/ajitpratap0/csvcols/pkg/columnar"
	"github.com/ajitpratap0/csvcols/pkg/errors"
	"github.com/ajitpratap0/csvcols/pkg/metrics"
	stringpool "github.com/ajitpratap0/csvcols/pkg/strings"
)

// Load reads delimited text from r and builds a Document of string columns.
//
// The first record is the header; its fields are always trimmed. Each
// following record is trimmed (StripSpaces), padded with empty fields to the
// header width, decoded, and dropped if every field is empty
// (SkipBlankLines). Fields beyond the header width are ignored. Physically
// empty lines count as rows with no fields.
func Load(r io.Reader, opts ...Option) (*columnar.Document[string], error) {
	o, err := buildOptions(opts)
	if err != nil {
		return nil, err
	}
	codec, err := newCodec(o.Encoding, o.Delimiter)
	if err != nil {
		return nil, err
	}

	timer := metrics.NewTimer("csv")
	l := &loader{
		opts:   o,
		codec:  codec,
		intern: stringpool.NewIntern(stringpool.DefaultInternLimit),
		log:    o.Logger.With(zap.String("encoding", codec.name)),
	}
	doc, err := l.load(r)
	if err != nil {
		return nil, err
	}
	timer.ObserveDuration()

	metrics.RowsLoaded.Add(float64(l.kept))
	metrics.RowsSkipped.Add(float64(l.skipped))
	metrics.DocumentsBuilt.WithLabelValues("csv").Inc()
	return doc, nil
}

// Loads is Load over an in-memory string.
func Loads(text string, opts ...Option) (*columnar.Document[string], error) {
	return Load(strings.NewReader(text), opts...)
}

// UniqueNames renames repeated names. Scanning left to right, a name that
// was already seen becomes name_<index>, index being its zero-based
// position. The suffix is applied once; a renamed header that still
// collides is left for Document construction to reject.
func UniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		if _, dup := seen[norm.NFC.String(name)]; dup {
			name = fmt.Sprintf("%s_%d", name, i)
		}
		seen[norm.NFC.String(name)] = struct{}{}
		out[i] = name
	}
	return out
}

type loader struct {
	opts   Options
	codec  *codec
	intern *stringpool.Intern
	log    *zap.Logger

	names   []string
	values  [][]string
	kept    int
	skipped int
}

// lineCounter counts newline bytes consumed by the CSV reader.
type lineCounter struct {
	r     io.Reader
	lines int
}

func (c *lineCounter) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.lines += bytes.Count(p[:n], []byte{'\n'})
	return n, err
}

func (l *loader) load(r io.Reader) (*columnar.Document[string], error) {
	counter := &lineCounter{r: r}
	cr := csv.NewReader(counter)
	cr.Comma = l.opts.Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = l.opts.LazyQuotes

	header, err := cr.Read()
	if err == io.EOF {
		return columnar.New[string]()
	}
	if err != nil {
		return nil, parseError(err)
	}
	headerLine, _ := cr.FieldPos(0)
	if err := l.readHeader(header, headerLine); err != nil {
		return nil, err
	}
	l.log.Debug("read CSV header", zap.Strings("names", l.names))

	// encoding/csv silently drops empty lines, so they are recovered from
	// the gaps between record line numbers.
	prevEnd := endLine(cr, header)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, parseError(err)
		}
		start, _ := cr.FieldPos(0)
		for line := prevEnd + 1; line < start; line++ {
			if err := l.addRow(nil, line); err != nil {
				return nil, err
			}
		}
		prevEnd = endLine(cr, record)
		if err := l.addRow(record, start); err != nil {
			return nil, err
		}
	}
	for line := prevEnd + 1; line <= counter.lines; line++ {
		if err := l.addRow(nil, line); err != nil {
			return nil, err
		}
	}

	l.log.Debug("loaded CSV rows",
		zap.Int("kept", l.kept),
		zap.Int("skipped", l.skipped))

	pairs := make([]columnar.Pair[string], len(l.names))
	for k, name := range l.names {
		pairs[k] = columnar.P(name, columnar.NewColumn(l.values[k]...))
	}
	return columnar.New(pairs...)
}

func (l *loader) readHeader(header []string, line int) error {
	names := make([]string, len(header))
	for i, field := range header {
		name, ok := l.codec.decode(strings.TrimSpace(field))
		if !ok {
			return decodingError(l.codec, line, i, "")
		}
		names[i] = name
	}
	if l.opts.ForceUniqueColNames {
		unique := UniqueNames(names)
		for i := range names {
			if unique[i] != names[i] {
				l.log.Debug("renamed duplicate column",
					zap.String("name", names[i]),
					zap.String("renamed", unique[i]),
					zap.Int("position", i))
			}
		}
		names = unique
	}
	l.names = names
	l.values = make([][]string, len(names))
	return nil
}

// addRow applies strip, pad, decode and blank check to one raw record.
func (l *loader) addRow(record []string, line int) error {
	row := make([]string, max(len(record), len(l.names)))
	for i, field := range record {
		if l.opts.StripSpaces {
			field = strings.TrimSpace(field)
		}
		row[i] = field
	}

	// Fields past the header are never decoded, but still count against
	// the blank check.
	blank := true
	for _, field := range row[len(l.names):] {
		if field != "" {
			blank = false
		}
	}
	for i, field := range row[:len(l.names)] {
		text, ok := l.codec.decode(field)
		if !ok {
			return decodingError(l.codec, line, i, l.names[i])
		}
		row[i] = l.intern.Get(text)
		if text != "" {
			blank = false
		}
	}

	if blank && l.opts.SkipBlankLines {
		l.skipped++
		return nil
	}
	for k := range l.values {
		l.values[k] = append(l.values[k], row[k])
	}
	l.kept++
	return nil
}

// endLine returns the line on which the last read record ends.
func endLine(cr *csv.Reader, record []string) int {
	if len(record) == 0 {
		return 0
	}
	last := len(record) - 1
	line, _ := cr.FieldPos(last)
	return line + strings.Count(record[last], "\n")
}

func parseError(err error) error {
	e := errors.Wrap(err, errors.ErrorTypeParse, "failed to read CSV record")
	var pe *csv.ParseError
	if stderrors.As(err, &pe) {
		e = e.WithDetail("line", pe.Line).WithDetail("column", pe.Column)
	}
	return e
}

func decodingError(c *codec, line, position int, name string) error {
	e := errors.Newf(errors.ErrorTypeDecoding,
		"line %d field %d is not valid %s", line, position, c.name).
		WithDetail("line", line).
		WithDetail("position", position).
		WithDetail("encoding", c.name)
	if name != "" {
		e = e.WithDetail("column", name)
	}
	return e
}
