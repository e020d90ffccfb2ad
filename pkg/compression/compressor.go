// Package compression provides streaming compression for delimited input and
// output files.
//
// # Overview
//
// The compression package provides:
//   - Multiple compression algorithms (Gzip, Zstd, Snappy, S2, LZ4)
//   - Configurable compression levels (Fastest, Default, Better, Best)
//   - Algorithm detection from a file extension
//   - Streaming readers and writers that wrap any io.Reader / io.Writer
//
// # Algorithm Selection
//
// Choose algorithms based on your requirements:
//   - Snappy/S2: Best for speed, moderate compression
//   - LZ4: Extremely fast, decent compression
//   - Zstd: Best compression ratio, good speed
//   - Gzip: Wide compatibility, good compression
//
// # Basic Usage
//
//	f, _ := os.Open("users.csv.zst")
//	r, err := compression.NewReader(f, compression.FromExtension(f.Name()))
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	doc, err := csvio.Load(r)
//
// Closing a reader or writer returned by this package never closes the
// wrapped stream.
package compression

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/ajitpratap0/csvcols/pkg/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm represents a compression algorithm.
type Algorithm string

const (
	// None represents no compression
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Snappy represents framed snappy compression
	Snappy Algorithm = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// S2 represents s2 compression (Snappy compatible)
	S2 Algorithm = "s2"
)

// Algorithms lists every supported algorithm, None first.
var Algorithms = []Algorithm{None, Gzip, Zstd, Snappy, S2, LZ4}

// Level represents compression level, controlling the trade-off between
// compression speed and compression ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Better improves compression at cost of speed.
	Better Level = 7
	// Best maximizes compression ratio.
	Best Level = 9
)

var extensions = map[Algorithm]string{
	Gzip:   ".gz",
	Zstd:   ".zst",
	Snappy: ".sz",
	S2:     ".s2",
	LZ4:    ".lz4",
}

var aliases = map[string]Algorithm{
	"":          None,
	"gz":        Gzip,
	"zst":       Zstd,
	"zstandard": Zstd,
	"sz":        Snappy,
}

// ParseAlgorithm resolves a case-insensitive algorithm name. The empty
// string means None.
func ParseAlgorithm(name string) (Algorithm, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alg, ok := aliases[key]; ok {
		return alg, nil
	}
	for _, alg := range Algorithms {
		if string(alg) == key {
			return alg, nil
		}
	}
	return None, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %q", name).
		WithDetail("algorithm", name)
}

// ParseLevel resolves a level name (fastest, default, better, best). The
// empty string means Default.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fastest":
		return Fastest, nil
	case "", "default":
		return Default, nil
	case "better":
		return Better, nil
	case "best":
		return Best, nil
	}
	return Default, errors.Newf(errors.ErrorTypeConfig, "unsupported compression level: %q", name).
		WithDetail("level", name)
}

// FromExtension detects the algorithm from the file name suffix, such as
// ".csv.gz". Unknown suffixes yield None.
func FromExtension(path string) Algorithm {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".zstd" {
		return Zstd
	}
	if ext == ".snappy" {
		return Snappy
	}
	for alg, e := range extensions {
		if e == ext {
			return alg
		}
	}
	return None
}

// TrimExtension removes the compression suffix detected by FromExtension.
func TrimExtension(path string) string {
	if FromExtension(path) == None {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// Extension returns the canonical file suffix for alg, or "" for None.
func (a Algorithm) Extension() string {
	return extensions[a]
}

// String returns the algorithm name.
func (a Algorithm) String() string {
	return string(a)
}

// NewReader wraps r with a decompressor for alg.
func NewReader(r io.Reader, alg Algorithm) (io.ReadCloser, error) {
	switch alg {
	case None, "":
		return io.NopCloser(r), nil
	case Gzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeCompression, "failed to open gzip stream")
		}
		return gr, nil
	case Zstd:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeCompression, "failed to open zstd stream")
		}
		return zstdReader{dec}, nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	case S2:
		return io.NopCloser(s2.NewReader(r)), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, unsupported(alg)
	}
}

// NewWriter wraps w with a compressor for alg at level. The returned writer
// must be closed to flush the final frame.
func NewWriter(w io.Writer, alg Algorithm, level Level) (io.WriteCloser, error) {
	switch alg {
	case None, "":
		return nopWriteCloser{w}, nil
	case Gzip:
		gw, err := gzip.NewWriterLevel(w, mapGzipLevel(level))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeCompression, "failed to create gzip writer")
		}
		return gw, nil
	case Zstd:
		enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(mapZstdLevel(level)))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeCompression, "failed to create zstd writer")
		}
		return enc, nil
	case Snappy:
		return snappy.NewBufferedWriter(w), nil
	case S2:
		return s2.NewWriter(w, mapS2Level(level)...), nil
	case LZ4:
		lw := lz4.NewWriter(w)
		if err := lw.Apply(lz4.CompressionLevelOption(mapLZ4Level(level))); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeCompression, "failed to configure lz4 writer")
		}
		return lw, nil
	default:
		return nil, unsupported(alg)
	}
}

func unsupported(alg Algorithm) *errors.Error {
	return errors.Newf(errors.ErrorTypeCompression, "unsupported compression algorithm: %q", string(alg)).
		WithDetail("algorithm", string(alg))
}

type zstdReader struct {
	*zstd.Decoder
}

func (z zstdReader) Close() error {
	z.Decoder.Close()
	return nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// Helper functions to map compression levels

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Better:
		return zstd.SpeedBetterCompression
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}

func mapS2Level(level Level) []s2.WriterOption {
	switch level {
	case Better:
		return []s2.WriterOption{s2.WriterBetterCompression()}
	case Best:
		return []s2.WriterOption{s2.WriterBestCompression()}
	default:
		return nil
	}
}
