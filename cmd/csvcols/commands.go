package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/csvcols/internal/server"
	"github.com/ajitpratap0/csvcols/internal/watch"
	"github.com/ajitpratap0/csvcols/pkg/columnar"
	"github.com/ajitpratap0/csvcols/pkg/csvio"
	"github.com/ajitpratap0/csvcols/pkg/errors"
	"github.com/ajitpratap0/csvcols/pkg/formats"
	"github.com/ajitpratap0/csvcols/pkg/logger"
	"github.com/ajitpratap0/csvcols/pkg/schema"
	"github.com/ajitpratap0/csvcols/pkg/sources/postgres"
	"github.com/ajitpratap0/csvcols/pkg/sources/sqldb"
)

func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, logger.CommandKey, cmd.Name())
}

func (a *app) showCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show FILE",
		Short: "Print a file as a table",
		Long: `Load FILE and print its rows as a table. Use "-" to read CSV from stdin.
Compressed input (.gz, .zst, .sz, .s2, .lz4) is detected from the file name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDocument(commandContext(cmd), args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			renderTable(cmd.OutOrStdout(), doc, limit)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of rows to print (0 prints all)")
	return cmd
}

func renderTable(w io.Writer, doc *columnar.Document[string], limit int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(doc.Names())
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)

	shown := 0
	for row := range doc.IterRows() {
		if limit > 0 && shown == limit {
			break
		}
		table.Append(row.Values())
		shown++
	}
	table.Render()

	if shown < doc.NumRows() {
		fmt.Fprintf(w, "(%d of %d rows)\n", shown, doc.NumRows())
	}
}

func (a *app) describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe FILE",
		Short: "Summarize the columns of a file",
		Long: `Load FILE and print, per column, the inferred value type, the number of
rows, the number of distinct values and the first few of them in sorted
order.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDocument(commandContext(cmd), args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			describe(cmd.OutOrStdout(), doc)
			return nil
		},
	}
}

func describe(w io.Writer, doc *columnar.Document[string]) {
	fmt.Fprintln(w, doc.String())

	inferred := schema.NewInferenceEngine(logger.Get()).Infer(doc)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"column", "type", "format", "nullable", "rows", "distinct", "values"})
	table.SetAutoFormatHeaders(false)
	for i, col := range doc.Columns() {
		f := inferred.Fields[i]
		table.Append([]string{
			f.Name,
			string(f.Type),
			f.Format,
			strconv.FormatBool(f.Nullable),
			strconv.Itoa(col.Len()),
			strconv.Itoa(col.Unique().Len()),
			sampleValues(col.Unique()),
		})
	}
	table.Render()
}

// describeSample is how many distinct values describe prints per column.
const describeSample = 3

// sampleValues lists the first distinct values in sorted order.
func sampleValues(set columnar.ValueSet[string]) string {
	values := set.Sorted(strings.Compare)
	if len(values) > describeSample {
		return strings.Join(values[:describeSample], ", ") + ", ..."
	}
	return strings.Join(values, ", ")
}

func (a *app) selectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select FILE SPEC...",
		Short: "Select and rename columns",
		Long: `Select columns from FILE and write them to stdout as CSV.
Each SPEC is a column name, or name=rename to rename it in the output.

Example:
  csvcols select users.csv id name=full_name`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadDocument(commandContext(cmd), args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			selected, err := doc.Select(selectSpecs(args[1:])...)
			if err != nil {
				return err
			}
			opts, err := a.csvOptions()
			if err != nil {
				return err
			}
			return csvio.Dump(cmd.OutOrStdout(), selected, opts...)
		},
	}
}

// selectSpecs converts "name" and "name=rename" arguments to selector specs.
func selectSpecs(args []string) []any {
	specs := make([]any, 0, len(args))
	for _, arg := range args {
		if src, dst, ok := strings.Cut(arg, "="); ok {
			specs = append(specs, [2]string{src, dst})
			continue
		}
		specs = append(specs, arg)
	}
	return specs
}

func (a *app) convertCmd() *cobra.Command {
	var (
		output    string
		settings  outputSettings
		codec     string
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "convert FILE",
		Short: "Convert a file to another format",
		Long: `Convert FILE to csv, arrow, parquet, avro or jsonl.
The output format and compression default to the output file name, then to
the output section of the configuration file.

Example:
  csvcols convert users.csv -o users.parquet --codec zstd
  csvcols convert users.csv.gz --to jsonl -o users.jsonl.zst`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			doc, err := a.loadDocument(ctx, args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			format, alg, level, err := a.resolveOutput(output, settings)
			if err != nil {
				return err
			}
			wcfg, err := a.writerConfig(codec, batchSize)
			if err != nil {
				return err
			}
			if err := a.writeDocument(doc, output, cmd.OutOrStdout(), format, alg, level, wcfg); err != nil {
				return err
			}
			logger.WithContext(context.WithValue(ctx, logger.FormatKey, format.String())).Info("converted",
				zap.String("input", args[0]),
				zap.String("output", output),
				zap.Int("rows", doc.NumRows()))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	flags.StringVarP(&settings.format, "to", "t", "", "Output format (csv, arrow, parquet, avro, jsonl)")
	flags.StringVar(&settings.compression, "compression", "", "Output file compression (none, gzip, zstd, snappy, s2, lz4)")
	flags.StringVar(&settings.level, "level", "", "Compression level (fastest, default, better, best)")
	flags.StringVar(&codec, "codec", "", "Codec inside arrow, parquet and avro files")
	flags.IntVar(&batchSize, "batch-size", 0, "Rows per record batch, row group or block")
	return cmd
}

func (a *app) queryCmd() *cobra.Command {
	var (
		to     string
		unique bool
	)

	cmd := &cobra.Command{
		Use:   "query DSN SQL",
		Short: "Run SQL and print the result",
		Long: `Run SQL against PostgreSQL or SQLite and print the result as CSV.
DSN is a PostgreSQL connection string or sqlite://path.

Example:
  csvcols query postgres://localhost/app "SELECT id, email FROM users"
  csvcols query sqlite://app.db "SELECT * FROM events" --to jsonl`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			doc, err := runQuery(ctx, args[0], args[1], unique)
			if err != nil {
				return err
			}
			format, err := formats.ParseFormat(to)
			if err != nil {
				return err
			}
			wcfg, err := a.writerConfig("", 0)
			if err != nil {
				return err
			}
			return formats.Write(cmd.OutOrStdout(), doc, format, wcfg)
		},
	}
	cmd.Flags().StringVarP(&to, "to", "t", "csv", "Output format (csv, jsonl, arrow, parquet, avro)")
	cmd.Flags().BoolVar(&unique, "unique-columns", false, "Rename repeated result columns to name_<index>")
	return cmd
}

func runQuery(ctx context.Context, dsn, query string, unique bool) (*columnar.Document[string], error) {
	if strings.HasPrefix(dsn, sqldb.SQLiteScheme) {
		db, err := sqldb.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		if unique {
			return sqldb.QueryUnique(ctx, db, query)
		}
		return sqldb.Query(ctx, db, query)
	}

	pool, err := postgres.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer pool.Close()
	if unique {
		return postgres.QueryUnique(ctx, pool, query)
	}
	return postgres.Query(ctx, pool, query)
}

func (a *app) serveCmd() *cobra.Command {
	var (
		addr   string
		reload bool
	)

	cmd := &cobra.Command{
		Use:   "serve FILE",
		Short: "Serve a file over HTTP",
		Long: `Serve FILE through a read-only JSON API:
  GET /health, /columns, /columns/{name}, /schema, /rows, /select, /metrics
With --watch the document is reloaded whenever FILE changes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := args[0]
			doc, err := a.loadDocument(ctx, path, cmd.InOrStdin())
			if err != nil {
				return err
			}
			opts, err := a.csvOptions()
			if err != nil {
				return err
			}

			cfg := a.cfg.Server
			if addr != "" {
				cfg.Address = addr
			}
			srv := server.New(doc, path, cfg, a.log, opts...)

			if reload && path != stdinName {
				w := watch.New(path, watch.Options{Logger: a.log})
				go func() {
					_ = w.Run(ctx, func(ctx context.Context) error {
						doc, err := a.loadDocument(ctx, path, nil)
						if err != nil {
							return err
						}
						srv.SetDocument(doc)
						a.log.Info("document reloaded", zap.Int("rows", doc.NumRows()))
						return nil
					})
				}()
			}

			return srv.ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	cmd.Flags().BoolVarP(&reload, "watch", "w", false, "Reload the document when the file changes")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch FILE",
		Short: "Describe a file again every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := args[0]
			if path == stdinName {
				return errors.New(errors.ErrorTypeConfig, "watch needs a file, not stdin")
			}
			out := cmd.OutOrStdout()
			refresh := func(ctx context.Context) error {
				doc, err := a.loadDocument(ctx, path, nil)
				if err != nil {
					fmt.Fprintf(out, "error: %v\n", err)
					return err
				}
				describe(out, doc)
				return nil
			}
			// A broken file at start is reported the same way as later ones.
			_ = refresh(ctx)

			return watch.New(path, watch.Options{Logger: a.log}).Run(ctx, refresh)
		},
	}
}
