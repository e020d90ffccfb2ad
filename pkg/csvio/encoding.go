package csvio

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"

	"github.com/ajitpratap0/csvcols/pkg/errors"
)

var encodingAliases = map[string]string{
	"utf8":      "utf-8",
	"latin-1":   "iso-8859-1",
	"latin1":    "iso-8859-1",
	"l1":        "iso-8859-1",
	"iso8859-1": "iso-8859-1",
	"cp1252":    "windows-1252",
	"ascii":     "us-ascii",
}

// codec converts field text between UTF-8 and one ASCII-compatible
// encoding. It is not safe for concurrent use.
type codec struct {
	name  string
	ascii bool
	dec   *encoding.Decoder
	enc   *encoding.Encoder
}

// ResolveEncoding returns the canonical name of an encoding, or a decoding
// error when the name is unknown or the encoding cannot carry the delimiter,
// quote and line breaks as plain ASCII.
func ResolveEncoding(name string, delimiter rune) (string, error) {
	c, err := newCodec(name, delimiter)
	if err != nil {
		return "", err
	}
	return c.name, nil
}

func newCodec(name string, delimiter rune) (*codec, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := encodingAliases[key]; ok {
		key = alias
	}
	switch key {
	case "", "utf-8":
		return &codec{name: "utf-8"}, nil
	case "us-ascii":
		return &codec{name: "us-ascii", ascii: true}, nil
	}

	enc, err := ianaindex.IANA.Encoding(key)
	if err != nil || enc == nil {
		enc, err = htmlindex.Get(key)
	}
	if err != nil || enc == nil {
		return nil, errors.Newf(errors.ErrorTypeDecoding, "unknown encoding %q", name).
			WithDetail("encoding", name)
	}
	if enc == unicode.UTF8 {
		return &codec{name: "utf-8"}, nil
	}

	canonical := key
	if n, err := ianaindex.MIME.Name(enc); err == nil && n != "" {
		canonical = strings.ToLower(n)
	} else if n, err := ianaindex.IANA.Name(enc); err == nil && n != "" {
		canonical = strings.ToLower(n)
	}

	probe := string(delimiter) + "\"\r\n"
	if out, err := enc.NewEncoder().String(probe); err != nil || out != probe {
		return nil, errors.Newf(errors.ErrorTypeDecoding,
			"encoding %q does not represent the delimiter, quote and line breaks as ASCII", name).
			WithDetail("encoding", canonical)
	}

	return &codec{
		name: canonical,
		dec:  enc.NewDecoder(),
		enc:  enc.NewEncoder(),
	}, nil
}

// decode converts raw field bytes to UTF-8. A replacement character in the
// output of a non-UTF-8 decoder counts as undecodable input.
func (c *codec) decode(raw string) (string, bool) {
	switch {
	case c.ascii:
		return raw, isASCII(raw)
	case c.dec == nil:
		return raw, utf8.ValidString(raw)
	}
	out, err := c.dec.String(raw)
	if err != nil || strings.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return out, true
}

// encode converts UTF-8 text to the codec's encoding.
func (c *codec) encode(text string) (string, bool) {
	switch {
	case c.ascii:
		return text, isASCII(text)
	case c.enc == nil:
		return text, utf8.ValidString(text)
	}
	out, err := c.enc.String(text)
	if err != nil {
		return "", false
	}
	return out, true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
