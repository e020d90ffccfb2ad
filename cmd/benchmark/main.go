// Command benchmark measures load, dump and conversion throughput on
// generated CSV data.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/csvcols/pkg/compression"
	"github.com/ajitpratap0/csvcols/pkg/csvio"
	"github.com/ajitpratap0/csvcols/pkg/formats"
	"github.com/ajitpratap0/csvcols/pkg/json"
	"github.com/ajitpratap0/csvcols/pkg/metrics"
)

var (
	rows       = flag.Int("rows", 100000, "Rows of generated CSV")
	cols       = flag.Int("cols", 8, "Columns of generated CSV")
	iterations = flag.Int("count", 3, "Number of iterations per case")
	outputDir  = flag.String("output", "benchmark-results", "Output directory for results")
	only       = flag.String("case", "", "Run only cases whose name contains this text")
)

// Result is one measured case.
type Result struct {
	Name          string        `json:"name"`
	Rows          int           `json:"rows"`
	Bytes         int           `json:"bytes"`
	Best          time.Duration `json:"best_ns"`
	RowsPerSecond float64       `json:"rows_per_second"`
}

// Report is the JSON document written after a run.
type Report struct {
	Timestamp string   `json:"timestamp"`
	Rows      int      `json:"rows"`
	Columns   int      `json:"columns"`
	Results   []Result `json:"results"`
}

func main() {
	flag.Parse()

	// Ensure output directory exists
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	// Generate timestamp for this run
	timestamp := time.Now().Format("20060102-150405")
	fmt.Println("=== csvcols throughput benchmark ===")
	fmt.Printf("Timestamp: %s\n", timestamp)
	fmt.Printf("Data: %d rows x %d columns\n\n", *rows, *cols)

	report, err := run(generateCSV(*rows, *cols), *iterations, *only)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Benchmark failed: %v\n", err)
		os.Exit(1)
	}
	report.Timestamp = timestamp
	report.Rows, report.Columns = *rows, *cols

	for _, r := range report.Results {
		fmt.Printf("  %-22s %10s %14.0f rows/sec %10d bytes\n", r.Name, r.Best.Round(time.Microsecond), r.RowsPerSecond, r.Bytes)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode report: %v\n", err)
		os.Exit(1)
	}
	jsonFile := filepath.Join(*outputDir, fmt.Sprintf("csvcols_%s.json", timestamp))
	if err := os.WriteFile(jsonFile, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save JSON report: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nJSON report saved to: %s\n", jsonFile)
}

// generateCSV builds deterministic CSV text with a mix of repeated and
// unique values.
func generateCSV(rows, cols int) string {
	var b strings.Builder
	for c := 0; c < cols; c++ {
		if c > 0 {
			b.WriteByte(',')
		}
		b.WriteString("col_" + strconv.Itoa(c))
	}
	b.WriteByte('\n')

	cities := []string{"oslo", "rome", "lima", "kyiv", "pune"}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteByte(',')
			}
			switch c % 3 {
			case 0:
				b.WriteString(strconv.Itoa(r))
			case 1:
				b.WriteString(cities[(r+c)%len(cities)])
			default:
				b.WriteString(strconv.FormatFloat(float64(r)*0.25, 'f', 2, 64))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

type benchCase struct {
	name string
	fn   func() (int, error)
}

// run loads input once for the write cases, then times every case and keeps
// the best of iterations runs.
func run(input string, iterations int, only string) (*Report, error) {
	doc, err := csvio.Loads(input)
	if err != nil {
		return nil, err
	}

	cases := []benchCase{
		{name: "csv load", fn: func() (int, error) {
			_, err := csvio.Loads(input)
			return len(input), err
		}},
		{name: "csv dump", fn: func() (int, error) {
			out, err := csvio.Dumps(doc)
			return len(out), err
		}},
	}
	for _, f := range []formats.Format{formats.Arrow, formats.Parquet, formats.Avro, formats.JSONL} {
		cases = append(cases, benchCase{name: string(f) + " write", fn: func() (int, error) {
			var buf bytes.Buffer
			err := formats.Write(&buf, doc, f, formats.DefaultWriterConfig())
			return buf.Len(), err
		}})
	}
	for _, alg := range []compression.Algorithm{compression.Gzip, compression.Zstd, compression.S2, compression.LZ4} {
		cases = append(cases, benchCase{name: "csv " + string(alg), fn: func() (int, error) {
			var buf bytes.Buffer
			w, err := compression.NewWriter(&buf, alg, compression.Default)
			if err != nil {
				return 0, err
			}
			if err := csvio.Dump(w, doc); err != nil {
				return 0, err
			}
			if err := w.Close(); err != nil {
				return 0, err
			}
			return buf.Len(), nil
		}})
	}

	report := &Report{}
	for _, c := range cases {
		if only != "" && !strings.Contains(c.name, only) {
			continue
		}
		result, err := measure(c, doc.NumRows(), iterations)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.name, err)
		}
		report.Results = append(report.Results, result)
	}
	return report, nil
}

func measure(c benchCase, rows, iterations int) (Result, error) {
	tracker := metrics.NewThroughputTracker(c.name)
	result := Result{Name: c.name, Rows: rows}

	for i := 0; i < max(iterations, 1); i++ {
		tracker.GetAndReset() // start a fresh window
		start := time.Now()
		size, err := c.fn()
		if err != nil {
			return result, err
		}
		elapsed := time.Since(start)
		tracker.Increment(int64(rows))
		rate := tracker.GetAndReset()

		if result.Best == 0 || elapsed < result.Best {
			result.Best = elapsed
			result.Bytes = size
			result.RowsPerSecond = rate
		}
	}
	return result, nil
}
