package formats

import (
	"bufio"
	"io"

	"github.com/ajitpratap0/csvcols/pkg/columnar"
	"github.com/ajitpratap0/csvcols/pkg/errors"
	"github.com/ajitpratap0/csvcols/pkg/json"
)

func writeJSONL(w io.Writer, doc *columnar.Document[string]) error {
	bw := bufio.NewWriter(w)
	names := doc.Names()
	var line []byte
	for row := range doc.IterRows() {
		var err error
		line, err = json.AppendObject(line[:0], names, row.Values())
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeFormat, "failed to encode row")
		}
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, "failed to write row")
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, "failed to flush output")
	}
	return nil
}

// readJSONL takes its column order from the first object. Later objects may
// omit keys, which read as "", but may not introduce new ones.
func readJSONL(r io.Reader) (*columnar.Document[string], error) {
	dec := json.NewDecoder(r)

	var (
		names  []string
		index  map[string]int
		values [][]string
	)
	for line := 1; dec.More(); line++ {
		keys, vals, err := json.ReadObject(dec)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeParse, "malformed JSON object").
				WithDetail("object", line)
		}

		if names == nil {
			names = keys
			index = make(map[string]int, len(keys))
			for i, k := range keys {
				if _, dup := index[k]; dup {
					return nil, errors.Newf(errors.ErrorTypeParse, "object %d repeats key %q", line, k).
						WithDetail("object", line)
				}
				index[k] = i
			}
			values = make([][]string, len(names))
		}

		row := make([]string, len(names))
		for i, k := range keys {
			pos, ok := index[k]
			if !ok {
				return nil, errors.Newf(errors.ErrorTypeParse, "object %d has unknown key %q", line, k).
					WithDetail("object", line)
			}
			row[pos] = vals[i]
		}
		for i, v := range row {
			values[i] = append(values[i], v)
		}
	}
	return fromColumns(names, values)
}
