// Package csvcols loads delimited text into immutable, column-oriented
// documents and moves them between CSV, Arrow, Parquet, Avro, JSON Lines and
// SQL databases.
//
// # Architecture
//
// A Document is an ordered set of named, equal-length Columns. Documents are
// never modified in place: selecting, renaming, mapping and concatenating
// all return new Documents, and Columns are shared between them.
//
// The CSV loader turns a header and records into string columns. It trims
// fields, pads short records, decodes legacy encodings, drops blank rows and
// can make repeated header names unique. The dumper writes a Document back
// as delimited text with the same options.
//
// # Quick Start
//
// Load a file, select two columns and write them as Parquet:
//
//	import (
//	    "github.com/ajitpratap0/csvcols/pkg/csvio"
//	    "github.com/ajitpratap0/csvcols/pkg/formats"
//	)
//
//	f, _ := os.Open("users.csv")
//	defer f.Close()
//
//	doc, err := csvio.Load(f, csvio.WithEncoding("latin-1"))
//	if err != nil {
//	    return err
//	}
//
//	selected, err := doc.Select("id", [2]string{"name", "full_name"})
//	if err != nil {
//	    return err
//	}
//
//	out, _ := os.Create("users.parquet")
//	defer out.Close()
//	err = formats.Write(out, selected, formats.Parquet, formats.DefaultWriterConfig())
//
// # Key Packages
//
//	pkg/columnar     - Column, Row, Document and Selector
//	pkg/csvio        - CSV loader and dumper
//	pkg/formats      - Arrow IPC, Parquet, Avro OCF and JSON Lines readers/writers
//	pkg/compression  - Streaming gzip, zstd, snappy, s2 and lz4
//	pkg/sources      - PostgreSQL (pgx) and database/sql (SQLite) query results as Documents
//	pkg/schema       - Value type inference for string columns
//	pkg/config       - YAML configuration with environment substitution
//	pkg/errors       - Typed errors with details and stack traces
//	pkg/logger       - Structured logging on zap
//	pkg/metrics      - Prometheus collectors
//	internal/server  - Read-only HTTP API over one Document
//	internal/watch   - File change notifications
//
// # Command Line
//
// The csvcols command exposes the library:
//
//	csvcols show users.csv.gz --limit 10
//	csvcols describe users.csv
//	csvcols select users.csv id name=full_name
//	csvcols convert users.csv -o users.arrow --codec zstd
//	csvcols query sqlite://app.db "SELECT * FROM events" --to jsonl
//	csvcols serve users.csv --watch
//
// Global flags (--delimiter, --encoding, --no-strip, --keep-blank,
// --unique-names, --lazy-quotes) override the csv section of the file given
// with --config. Environment variables are supported there with ${VAR} and
// ${VAR:-default} syntax, and a .env file in the working directory is loaded
// first.
package csvcols
