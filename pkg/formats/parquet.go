package formats

import (
	"context"
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/ajitpratap0/csvcols/pkg/columnar"
	"github.com/ajitpratap0/csvcols/pkg/errors"
)

func parquetCompression(name string) (compress.Compression, error) {
	switch name {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "lz4":
		return compress.Codecs.Lz4Raw, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	default:
		return compress.Codecs.Uncompressed, errors.Newf(errors.ErrorTypeConfig,
			"unsupported parquet compression: %q", name)
	}
}

func writeParquet(w io.Writer, doc *columnar.Document[string], cfg WriterConfig) error {
	codec, err := parquetCompression(cfg.Compression)
	if err != nil {
		return err
	}

	mem := memory.NewGoAllocator()
	schema := ArrowSchema(doc)

	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
		parquet.WithDictionaryDefault(true),
		parquet.WithMaxRowGroupLength(int64(cfg.BatchSize)),
		parquet.WithAllocator(mem),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(mem),
	)

	fw, err := pqarrow.NewFileWriter(schema, w, props, arrowProps)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeFormat, "failed to create Parquet writer")
	}

	values := columnValues(doc)
	rows := doc.NumRows()
	for start := 0; start < rows; start += cfg.BatchSize {
		end := min(start+cfg.BatchSize, rows)
		rec := buildRecord(schema, values, start, end, mem)
		err := fw.Write(rec)
		rec.Release()
		if err != nil {
			fw.Close()
			return errors.Wrap(err, errors.ErrorTypeFormat, "failed to write row group")
		}
	}

	if err := fw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFormat, "failed to close Parquet writer")
	}
	return nil
}

func readParquet(r parquet.ReaderAtSeeker) (*columnar.Document[string], error) {
	pf, err := file.NewParquetReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "failed to create Parquet reader")
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "failed to create Arrow reader")
	}

	tbl, err := fr.ReadTable(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "failed to read Parquet table")
	}
	defer tbl.Release()

	names := fieldNames(tbl.Schema())
	values := make([][]string, len(names))
	for i := range names {
		for _, chunk := range tbl.Column(i).Data().Chunks() {
			for k := 0; k < chunk.Len(); k++ {
				values[i] = append(values[i], cellText(chunk, k))
			}
		}
	}
	return fromColumns(names, values)
}
