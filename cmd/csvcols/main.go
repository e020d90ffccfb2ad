package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/csvcols/pkg/config"
	"github.com/ajitpratap0/csvcols/pkg/logger"
	"github.com/ajitpratap0/csvcols/pkg/metrics"
)

var version = "0.1.0"

// globalFlags override the configuration file for one invocation
type globalFlags struct {
	configFile  string
	logLevel    string
	delimiter   string
	encoding    string
	noStrip     bool
	keepBlank   bool
	uniqueNames bool
	lazyQuotes  bool
	metricsAddr string
}

// app carries the state shared by all commands after flag parsing
type app struct {
	flags   globalFlags
	cfg     *config.Config
	log     *zap.Logger
	metrics *http.Server
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load() // Ignore error if .env doesn't exist

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "csvcols",
		Short: "csvcols - column-oriented CSV toolkit",
		Long: `csvcols loads delimited text into an immutable, column-oriented document.
Columns can be inspected, selected, renamed, served over HTTP and converted to
Arrow, Parquet, Avro or JSON Lines.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.flags.configFile, "config", "c", "", "Path to a YAML configuration file")
	pf.StringVar(&a.flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	pf.StringVarP(&a.flags.delimiter, "delimiter", "d", ",", `Field delimiter, a single character or "tab"`)
	pf.StringVar(&a.flags.encoding, "encoding", "utf-8", "Text encoding of the input (utf-8, latin-1, cp1252, ...)")
	pf.BoolVar(&a.flags.noStrip, "no-strip", false, "Keep leading and trailing spaces around fields")
	pf.BoolVar(&a.flags.keepBlank, "keep-blank", false, "Keep rows whose fields are all empty")
	pf.BoolVar(&a.flags.uniqueNames, "unique-names", false, "Rename repeated header names to name_<index>")
	pf.BoolVar(&a.flags.lazyQuotes, "lazy-quotes", false, "Accept quotes inside unquoted fields")
	pf.StringVar(&a.flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the command runs")

	root.AddCommand(
		a.versionCmd(),
		a.showCmd(),
		a.describeCmd(),
		a.selectCmd(),
		a.convertCmd(),
		a.queryCmd(),
		a.serveCmd(),
		a.watchCmd(),
	)
	return root
}

// setup loads configuration, applies flag overrides and initializes logging.
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.NewConfig()
	if a.flags.configFile != "" {
		loaded, err := config.LoadConfig(a.flags.configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") || a.flags.configFile == "" {
		cfg.Log.Level = a.flags.logLevel
	}
	if flags.Changed("delimiter") {
		cfg.CSV.Delimiter = a.flags.delimiter
	}
	if flags.Changed("encoding") {
		cfg.CSV.Encoding = a.flags.encoding
	}
	if flags.Changed("no-strip") {
		cfg.CSV.StripSpaces = !a.flags.noStrip
	}
	if flags.Changed("keep-blank") {
		cfg.CSV.SkipBlankLines = !a.flags.keepBlank
	}
	if flags.Changed("unique-names") {
		cfg.CSV.ForceUniqueColNames = a.flags.uniqueNames
	}
	if flags.Changed("lazy-quotes") {
		cfg.CSV.LazyQuotes = a.flags.lazyQuotes
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Enabled = a.flags.metricsAddr != ""
		cfg.Metrics.Address = a.flags.metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return err
	}

	a.cfg = cfg
	a.log = logger.Get().With(zap.String("component", "csvcols-cli"))

	if cfg.Metrics.Enabled {
		a.startMetrics(cfg.Metrics.Address)
	}
	return nil
}

func (a *app) teardown() error {
	if a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.metrics.Shutdown(ctx); err != nil {
			a.log.Warn("failed to stop metrics server", zap.Error(err))
		}
	}
	_ = logger.Sync()
	return nil
}

func (a *app) startMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	a.metrics = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		a.log.Info("metrics server listening", zap.String("address", addr))
		if err := a.metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.log.Error("metrics server failed", zap.Error(err))
		}
	}()
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "csvcols v%s\n", version)
	fmt.Fprintf(w, "Go version: %s\n", runtime.Version())
	fmt.Fprintf(w, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
