package csvio

import (
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ajitpratap0/csvcols/pkg/errors"
)

// Options controls how delimited text is read and written.
type Options struct {
	// Delimiter separates fields. It must be a single character other than
	// a quote, carriage return or newline.
	Delimiter rune
	// Encoding names the text encoding of the raw bytes, e.g. "utf-8" or
	// "latin-1". Empty means UTF-8.
	Encoding string
	// StripSpaces trims surrounding whitespace from every data field.
	// Header fields are always trimmed.
	StripSpaces bool
	// SkipBlankLines drops rows whose fields are all empty.
	SkipBlankLines bool
	// ForceUniqueColNames renames repeated header names; see UniqueNames.
	ForceUniqueColNames bool
	// LazyQuotes accepts quotes inside unquoted fields and unterminated
	// quoted fields instead of failing.
	LazyQuotes bool
	// Logger receives debug output. Nil disables logging.
	Logger *zap.Logger
}

// DefaultOptions returns the loader defaults.
func DefaultOptions() Options {
	return Options{
		Delimiter:           ',',
		Encoding:            "utf-8",
		StripSpaces:         true,
		SkipBlankLines:      true,
		ForceUniqueColNames: false,
		Logger:              zap.NewNop(),
	}
}

// Option modifies Options.
type Option func(*Options)

// WithDelimiter sets the field delimiter.
func WithDelimiter(d rune) Option {
	return func(o *Options) { o.Delimiter = d }
}

// WithEncoding sets the text encoding.
func WithEncoding(name string) Option {
	return func(o *Options) { o.Encoding = name }
}

// WithStripSpaces toggles whitespace trimming of data fields.
func WithStripSpaces(strip bool) Option {
	return func(o *Options) { o.StripSpaces = strip }
}

// WithSkipBlankLines toggles dropping of blank rows.
func WithSkipBlankLines(skip bool) Option {
	return func(o *Options) { o.SkipBlankLines = skip }
}

// WithForceUniqueColNames toggles renaming of repeated header names.
func WithForceUniqueColNames(force bool) Option {
	return func(o *Options) { o.ForceUniqueColNames = force }
}

// WithLazyQuotes toggles lenient quote handling.
func WithLazyQuotes(lazy bool) Option {
	return func(o *Options) { o.LazyQuotes = lazy }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithOptions replaces every setting with opts.
func WithOptions(opts Options) Option {
	return func(o *Options) { *o = opts }
}

func buildOptions(opts []Option) (Options, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if err := o.Validate(); err != nil {
		return o, err
	}
	return o, nil
}

// Validate checks the delimiter and encoding.
func (o Options) Validate() error {
	if !validDelimiter(o.Delimiter) {
		return errors.Newf(errors.ErrorTypeConfig, "invalid delimiter %q", o.Delimiter).
			WithDetail("delimiter", string(o.Delimiter))
	}
	if _, err := newCodec(o.Encoding, o.Delimiter); err != nil {
		return err
	}
	return nil
}

func validDelimiter(r rune) bool {
	switch r {
	case 0, '"', '\r', '\n', utf8.RuneError:
		return false
	}
	return utf8.ValidRune(r)
}
