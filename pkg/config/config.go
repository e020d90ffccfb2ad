// Package config provides the configuration system for csvcols. A single
// Config structure covers CSV loading, output conversion, logging, metrics
// and the HTTP server, so every command reads its settings the same way.
//
// The configuration is organized into logical sections:
//   - CSV: delimiter, encoding and the loader's row handling
//   - Output: target format and compression for conversions
//   - Log: zap logger settings
//   - Metrics: Prometheus endpoint
//   - Server: HTTP API settings for the serve command
//
// Example usage:
//
//	cfg := config.NewConfig()
//	cfg.CSV.Delimiter = ";"
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/csvcols/pkg/compression"
	"github.com/ajitpratap0/csvcols/pkg/csvio"
	"github.com/ajitpratap0/csvcols/pkg/errors"
	"github.com/ajitpratap0/csvcols/pkg/formats"
	"github.com/ajitpratap0/csvcols/pkg/logger"
)

// Config is the complete csvcols configuration.
type Config struct {
	// Name identifies the configuration in logs
	Name string `yaml:"name" json:"name"`

	// CSV controls how delimited input is parsed
	CSV CSVConfig `yaml:"csv" json:"csv"`

	// Output controls conversions
	Output OutputConfig `yaml:"output" json:"output"`

	// Log configures the global logger
	Log logger.Config `yaml:"log" json:"log"`

	// Metrics configures the Prometheus endpoint
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Server configures the HTTP API
	Server ServerConfig `yaml:"server" json:"server"`
}

// CSVConfig mirrors csvio.Options in a file-friendly form.
type CSVConfig struct {
	// Delimiter is a single character; "tab" and "\t" mean a tab
	Delimiter string `yaml:"delimiter" json:"delimiter"`
	// Encoding is an IANA or WHATWG encoding name
	Encoding string `yaml:"encoding" json:"encoding"`
	// StripSpaces trims whitespace around data fields
	StripSpaces bool `yaml:"strip_spaces" json:"strip_spaces"`
	// SkipBlankLines drops rows whose fields are all empty
	SkipBlankLines bool `yaml:"skip_blank_lines" json:"skip_blank_lines"`
	// ForceUniqueColNames renames repeated header names
	ForceUniqueColNames bool `yaml:"force_unique_col_names" json:"force_unique_col_names"`
	// LazyQuotes tolerates stray quotes in unquoted fields
	LazyQuotes bool `yaml:"lazy_quotes" json:"lazy_quotes"`
	// Compression of the input stream; "auto" detects it from the file name
	Compression string `yaml:"compression" json:"compression"`
}

// OutputConfig controls how Documents are written.
type OutputConfig struct {
	// Format is csv, arrow, parquet, avro or jsonl
	Format string `yaml:"format" json:"format"`
	// Compression of the whole output stream (gzip, zstd, snappy, s2, lz4, none)
	Compression string `yaml:"compression" json:"compression"`
	// Level is the stream compression level (fastest, default, better, best)
	Level string `yaml:"level" json:"level"`
	// Codec is the codec used inside Arrow, Parquet and Avro files
	Codec string `yaml:"codec" json:"codec"`
	// BatchSize is the number of rows per record batch or row group
	BatchSize int `yaml:"batch_size" json:"batch_size"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled serves /metrics while a command runs
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Address is the listen address of the metrics endpoint
	Address string `yaml:"address" json:"address"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	// Address is the listen address
	Address string `yaml:"address" json:"address"`
	// ReadTimeout bounds reading a request
	ReadTimeout time.Duration `yaml:"read_timeout" json:"read_timeout"`
	// WriteTimeout bounds writing a response
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	// DefaultLimit is the page size of /rows when no limit is given
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`
	// MaxLimit caps the page size of /rows
	MaxLimit int `yaml:"max_limit" json:"max_limit"`
}

// NewConfig creates a new Config with the same defaults as the CSV loader.
//
// Example:
//
//	cfg := config.NewConfig()
//	cfg.Output.Format = "parquet"
func NewConfig() *Config {
	return &Config{
		Name: "csvcols",
		CSV: CSVConfig{
			Delimiter:      ",",
			Encoding:       "utf-8",
			StripSpaces:    true,
			SkipBlankLines: true,
			Compression:    "auto",
		},
		Output: OutputConfig{
			Format:      "csv",
			Compression: "none",
			Level:       "default",
			Codec:       "snappy",
			BatchSize:   10000,
		},
		Log: logger.DefaultConfig(),
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9090",
		},
		Server: ServerConfig{
			Address:         ":8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			DefaultLimit:    100,
			MaxLimit:        1000,
		},
	}
}

// Validate checks every section and returns the first problem found as a
// config error with the offending field in its details.
func (c *Config) Validate() error {
	if _, err := c.CSV.Options(); err != nil {
		return err
	}
	if c.CSV.Compression != "auto" {
		if _, err := compression.ParseAlgorithm(c.CSV.Compression); err != nil {
			return fieldError(err, "csv.compression")
		}
	}

	if _, err := formats.ParseFormat(c.Output.Format); err != nil {
		return fieldError(err, "output.format")
	}
	if _, err := compression.ParseAlgorithm(c.Output.Compression); err != nil {
		return fieldError(err, "output.compression")
	}
	if _, err := compression.ParseLevel(c.Output.Level); err != nil {
		return fieldError(err, "output.level")
	}
	if c.Output.BatchSize <= 0 {
		return invalid("output.batch_size", "batch size must be positive, got %d", c.Output.BatchSize)
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "invalid log level %q", c.Log.Level)
	}
	if enc := c.Log.Encoding; enc != "" && enc != "json" && enc != "console" {
		return invalid("log.encoding", "log encoding must be json or console, got %q", enc)
	}

	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return invalid("metrics.address", "metrics address is required when metrics are enabled")
	}

	if c.Server.DefaultLimit <= 0 || c.Server.MaxLimit < c.Server.DefaultLimit {
		return invalid("server.default_limit", "default limit must be positive and at most max limit (%d, %d)",
			c.Server.DefaultLimit, c.Server.MaxLimit)
	}
	return nil
}

// Options converts the section into loader options.
func (c CSVConfig) Options() ([]csvio.Option, error) {
	delimiter, err := c.DelimiterRune()
	if err != nil {
		return nil, err
	}
	opts := csvio.Options{
		Delimiter:           delimiter,
		Encoding:            c.Encoding,
		StripSpaces:         c.StripSpaces,
		SkipBlankLines:      c.SkipBlankLines,
		ForceUniqueColNames: c.ForceUniqueColNames,
		LazyQuotes:          c.LazyQuotes,
	}
	if opts.Encoding == "" {
		opts.Encoding = csvio.DefaultOptions().Encoding
	}
	if err := opts.Validate(); err != nil {
		return nil, fieldError(err, "csv")
	}
	return []csvio.Option{csvio.WithOptions(opts)}, nil
}

// DelimiterRune returns the delimiter as a rune.
func (c CSVConfig) DelimiterRune() (rune, error) {
	switch strings.ToLower(c.Delimiter) {
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(c.Delimiter)
	if size == 0 || size != len(c.Delimiter) || r == utf8.RuneError {
		return 0, invalid("csv.delimiter", "delimiter must be a single character, got %q", c.Delimiter)
	}
	return r, nil
}

// InputCompression returns the input algorithm for path, detecting it from
// the file name when the section says "auto".
func (c CSVConfig) InputCompression(path string) (compression.Algorithm, error) {
	if c.Compression == "auto" {
		return compression.FromExtension(path), nil
	}
	return compression.ParseAlgorithm(c.Compression)
}

// WriterConfig converts the section into format writer settings.
func (o OutputConfig) WriterConfig() formats.WriterConfig {
	return formats.WriterConfig{
		Compression: o.Codec,
		BatchSize:   o.BatchSize,
	}
}

func invalid(field, format string, args ...interface{}) *errors.Error {
	return errors.Newf(errors.ErrorTypeConfig, format, args...).WithDetail("field", field)
}

func fieldError(err error, field string) error {
	if e, ok := err.(*errors.Error); ok && e.Type == errors.ErrorTypeConfig {
		return e.WithDetail("field", field)
	}
	return errors.Wrap(err, errors.ErrorTypeConfig, "invalid "+field).WithDetail("field", field)
}
