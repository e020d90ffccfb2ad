package main

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ajitpratap0/csvcols/pkg/columnar"
	"github.com/ajitpratap0/csvcols/pkg/compression"
	"github.com/ajitpratap0/csvcols/pkg/csvio"
	"github.com/ajitpratap0/csvcols/pkg/errors"
	"github.com/ajitpratap0/csvcols/pkg/formats"
	"github.com/ajitpratap0/csvcols/pkg/logger"
)

// stdinName reads the input from standard input as CSV.
const stdinName = "-"

// csvOptions returns the loader and dumper options for this invocation.
func (a *app) csvOptions() ([]csvio.Option, error) {
	opts, err := a.cfg.CSV.Options()
	if err != nil {
		return nil, err
	}
	return append(opts, csvio.WithLogger(a.log)), nil
}

// loadDocument reads path into a Document. The format and compression are
// detected from the file name; anything unrecognized is read as CSV.
func (a *app) loadDocument(ctx context.Context, path string, stdin io.Reader) (*columnar.Document[string], error) {
	log := logger.WithContext(context.WithValue(ctx, logger.SourceKey, path))

	opts, err := a.csvOptions()
	if err != nil {
		return nil, err
	}

	var src io.Reader = stdin
	if path != stdinName {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open input").
				WithDetail("path", path)
		}
		defer f.Close()
		src = f
	}

	alg := compression.None
	if path != stdinName {
		if alg, err = a.cfg.CSV.InputCompression(path); err != nil {
			return nil, err
		}
	}
	r, err := compression.NewReader(src, alg)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	format, ok := formats.FromExtension(path)
	if !ok {
		format = formats.CSV
	}

	doc, err := formats.Read(r, format, opts...)
	if err != nil {
		return nil, err
	}
	log.Debug("document loaded",
		zap.String("format", format.String()),
		zap.String("compression", alg.String()),
		zap.Int("columns", doc.Len()),
		zap.Int("rows", doc.NumRows()))
	return doc, nil
}

// outputSettings selects the format, file compression and level of an
// output. Explicit values win over the file name, which wins over config.
type outputSettings struct {
	format      string
	compression string
	level       string
}

func (a *app) resolveOutput(path string, s outputSettings) (formats.Format, compression.Algorithm, compression.Level, error) {
	out := a.cfg.Output

	formatName := s.format
	if formatName == "" {
		if f, ok := formats.FromExtension(path); ok && path != "" {
			formatName = string(f)
		} else {
			formatName = out.Format
		}
	}
	format, err := formats.ParseFormat(formatName)
	if err != nil {
		return "", "", 0, err
	}

	algName := s.compression
	if algName == "" {
		if detected := compression.FromExtension(path); detected != compression.None {
			algName = string(detected)
		} else {
			algName = out.Compression
		}
	}
	alg, err := compression.ParseAlgorithm(algName)
	if err != nil {
		return "", "", 0, err
	}

	levelName := s.level
	if levelName == "" {
		levelName = out.Level
	}
	level, err := compression.ParseLevel(levelName)
	if err != nil {
		return "", "", 0, err
	}
	return format, alg, level, nil
}

// writeDocument writes doc to path, or to stdout when path is empty.
func (a *app) writeDocument(doc *columnar.Document[string], path string, stdout io.Writer, format formats.Format, alg compression.Algorithm, level compression.Level, wcfg formats.WriterConfig) (err error) {
	dst := stdout
	if path != "" {
		f, cerr := os.Create(path)
		if cerr != nil {
			return errors.Wrap(cerr, errors.ErrorTypeFile, "failed to create output").
				WithDetail("path", path)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = errors.Wrap(cerr, errors.ErrorTypeFile, "failed to close output").
					WithDetail("path", path)
			}
		}()
		dst = f
	}

	w, err := compression.NewWriter(dst, alg, level)
	if err != nil {
		return err
	}
	if err := formats.Write(w, doc, format, wcfg); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeCompression, "failed to flush output")
	}
	return nil
}

// writerConfig builds format writer settings from config and the CSV
// options of this invocation.
func (a *app) writerConfig(codec string, batchSize int) (formats.WriterConfig, error) {
	wcfg := a.cfg.Output.WriterConfig()
	if codec != "" {
		wcfg.Compression = codec
	}
	if batchSize > 0 {
		wcfg.BatchSize = batchSize
	}
	opts, err := a.csvOptions()
	if err != nil {
		return wcfg, err
	}
	wcfg.CSV = opts
	wcfg.Logger = a.log
	return wcfg, nil
}
