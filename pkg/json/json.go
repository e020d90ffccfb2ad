// Package json provides JSON serialization for csvcols on top of
// goccy/go-json, with pooled buffers and helpers that keep object keys in
// column order.
package json

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/csvcols/pkg/pool"
)

// Delim is a JSON array or object delimiter token.
type Delim = gojson.Delim

// Number is a JSON number literal kept as text.
type Number = gojson.Number

// maxPooledBuffer is the largest buffer capacity returned to the pool.
const maxPooledBuffer = 1024 * 1024

var bufferPool = pool.New(
	func() *bytes.Buffer { return bytes.NewBuffer(make([]byte, 0, 4096)) },
	func(buf *bytes.Buffer) { buf.Reset() },
)

// GetBuffer gets an empty pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	return bufferPool.Get()
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer { // Don't pool very large buffers
		buf = bytes.NewBuffer(make([]byte, 0, 4096))
	}
	bufferPool.Put(buf)
}

// BufferStats reports buffer pool usage (see pool.Pool.Stats).
func BufferStats() (allocated, inUse, hits int64) {
	return bufferPool.Stats()
}

// Marshal is a drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// Unmarshal is a drop-in replacement for json.Unmarshal
func Unmarshal(data []byte, v interface{}) error {
	return gojson.Unmarshal(data, v)
}

// MarshalIndent is a drop-in replacement for json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// NewEncoder returns an encoder that does not escape HTML.
func NewEncoder(w io.Writer) *gojson.Encoder {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// NewDecoder returns a decoder that keeps numbers as Number.
func NewDecoder(r io.Reader) *gojson.Decoder {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	return dec
}

// AppendObject appends a JSON object whose keys appear in the order of
// names. names and values must have the same length.
func AppendObject(dst []byte, names, values []string) ([]byte, error) {
	if len(names) != len(values) {
		return dst, fmt.Errorf("object has %d names but %d values", len(names), len(values))
	}
	dst = append(dst, '{')
	for i, name := range names {
		if i > 0 {
			dst = append(dst, ',')
		}
		key, err := gojson.Marshal(name)
		if err != nil {
			return dst, err
		}
		val, err := gojson.Marshal(values[i])
		if err != nil {
			return dst, err
		}
		dst = append(dst, key...)
		dst = append(dst, ':')
		dst = append(dst, val...)
	}
	return append(dst, '}'), nil
}

// ReadObject decodes the next JSON object from dec, returning its keys in
// document order and each value rendered as text (see Text). It returns
// io.EOF when the stream is exhausted.
func ReadObject(dec *gojson.Decoder) ([]string, []string, error) {
	token, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if delim, ok := token.(gojson.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("expected JSON object, got %v", token)
	}

	var keys, values []string
	for dec.More() {
		token, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := token.(string)
		if !ok {
			return nil, nil, fmt.Errorf("expected object key, got %v", token)
		}

		var value interface{}
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("failed to decode value of %q: %w", key, err)
		}
		text, err := Text(value)
		if err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		values = append(values, text)
	}

	if _, err := dec.Token(); err != nil { // closing brace
		return nil, nil, err
	}
	return keys, values, nil
}

// Text renders a decoded JSON value as a column cell: strings unchanged,
// null as "", numbers and booleans by their literal, and arrays or objects
// re-encoded as compact JSON.
func Text(v interface{}) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case gojson.Number:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		data, err := gojson.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

// RawMessage is a raw encoded JSON value.
type RawMessage = gojson.RawMessage
