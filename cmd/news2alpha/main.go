// news2alpha aligns crypto news sentiment with daily market bars.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/slowdive42/news2alpha/internal/config"
	"github.com/slowdive42/news2alpha/internal/logger"
	"github.com/slowdive42/news2alpha/internal/pipeline"
	"github.com/slowdive42/news2alpha/internal/trace"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global state set up by the root command.
var (
	cfg       *config.Config
	log       = zerolog.Nop()
	cleanups  []func(context.Context) error
	runCtx    context.Context
	cancelRun context.CancelFunc
)

func main() {
	if err := execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// execute runs the root command and always releases what setup opened,
// so spans and log files are flushed on failure too.
func execute(args []string) error {
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return errors.Join(err, shutdown())
}

var rootCmd = &cobra.Command{
	Use:   "news2alpha",
	Short: "news2alpha — crypto news sentiment aligned with market data",
	Long: `news2alpha fetches crypto news and exchange klines, scores article
sentiment, aggregates it per UTC day and joins it onto the market bars.
The result is a feature table with sentiment_mean and news_count per bar.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyFlags(cmd)

		runCtx, cancelRun = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		return setupObservability(runCtx)
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("from", "", "first day, YYYY-MM-DD (overrides news.from_date)")
	rootCmd.PersistentFlags().String("to", "", "last day, YYYY-MM-DD (overrides news.to_date)")
	rootCmd.PersistentFlags().String("symbol", "", "market symbol (overrides market.symbol)")
	rootCmd.PersistentFlags().String("query", "", "news query (overrides news.query)")
	rootCmd.PersistentFlags().String("source", "", "news source: newsapi, cryptopanic or rss")
	rootCmd.PersistentFlags().String("data-dir", "", "data directory (overrides paths.data_dir)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(fetchNewsCmd)
	rootCmd.AddCommand(fetchMarketCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(featuresCmd)
	rootCmd.AddCommand(alignCmd)
	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(exportCmd)
}

func applyFlags(cmd *cobra.Command) {
	set := func(name string, dst *string) {
		if v, _ := cmd.Flags().GetString(name); v != "" {
			*dst = v
		}
	}
	set("log-level", &cfg.Logging.Level)
	set("from", &cfg.News.FromDate)
	set("to", &cfg.News.ToDate)
	set("symbol", &cfg.Market.Symbol)
	set("query", &cfg.News.Query)
	set("source", &cfg.News.Source)
	set("data-dir", &cfg.Paths.DataDir)
}

func setupObservability(ctx context.Context) error {
	l, closer, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return err
	}
	log = l
	cleanups = append(cleanups, func(context.Context) error { return closer.Close() })

	if !cfg.Tracing.Enabled {
		return nil
	}
	w, wc, err := openOutput(cfg.Tracing.Output)
	if err != nil {
		return fmt.Errorf("tracing output: %w", err)
	}
	stop, err := trace.Init(ctx, trace.Config{
		Enabled:        true,
		ServiceName:    "news2alpha",
		ServiceVersion: version,
		Writer:         w,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	// Flush spans before closing their destination.
	cleanups = append(cleanups, stop, func(context.Context) error { return wc.Close() })
	return nil
}

func shutdown() error {
	var errs []error
	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := cleanups[i](context.Background()); err != nil {
			errs = append(errs, err)
		}
	}
	cleanups = nil
	if cancelRun != nil {
		cancelRun()
		cancelRun = nil
	}
	return errors.Join(errs...)
}

func openOutput(dest string) (io.Writer, io.Closer, error) {
	switch dest {
	case "", "stderr":
		return os.Stderr, io.NopCloser(nil), nil
	case "stdout":
		return os.Stdout, io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, f, nil
}

func newPipeline() (*pipeline.Pipeline, error) {
	return pipeline.New(cfg, log)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "news2alpha %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit:  %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:   %s\n", date)
	},
}

// --- Config Command ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration and API key status",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		fmt.Fprintln(cmd.OutOrStdout())

		fmt.Fprintln(cmd.OutOrStdout(), "API keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "not set"
			if k.IsSet {
				status = fmt.Sprintf("set (%s: %s)", k.Source, k.Masked)
			}
			if k.Required && !k.IsSet {
				status += " (required by news.source)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %s\n", k.Name+":", status)
		}

		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), err)
		}
		return nil
	},
}

// --- Run Command ---

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline",
	Long: `Fetch news and market bars, clean and score the articles, align the
daily aggregates onto the bars, then write the report, store export,
metrics and run manifest as configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if pdf, _ := cmd.Flags().GetBool("pdf"); pdf {
			cfg.Report.PDF = true
		}
		if noReport, _ := cmd.Flags().GetBool("no-report"); noReport {
			cfg.Report.Enabled = false
		}
		p, err := newPipeline()
		if err != nil {
			return err
		}
		m, err := p.Run(runCtx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Run %s finished: %d rows (%d days with news) -> %s\n",
			m.RunID, m.Counts.AlignedRows, m.Counts.MatchedDays, m.Paths.Final)
		if m.Report != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Report:   %s\n", m.Report)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Manifest: %s\n", m.Paths.Manifest)
		return nil
	},
}

func init() {
	runCmd.Flags().Bool("pdf", false, "also export the report as PDF")
	runCmd.Flags().Bool("no-report", false, "skip the HTML report")
}

// --- Stage Commands ---

var fetchNewsCmd = &cobra.Command{
	Use:   "fetch-news",
	Short: "Fetch news articles into the raw news dump",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline()
		if err != nil {
			return err
		}
		n, err := p.FetchNews(runCtx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d articles -> %s\n", n, p.Paths().RawNews)
		return nil
	},
}

var fetchMarketCmd = &cobra.Command{
	Use:   "fetch-market",
	Short: "Fetch market bars into the market CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline()
		if err != nil {
			return err
		}
		n, err := p.FetchMarket(runCtx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d bars -> %s\n", n, p.Paths().Market)
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Normalize the raw news dump into the cleaned table",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline()
		if err != nil {
			return err
		}
		n, err := p.Clean(runCtx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleaned %d articles -> %s\n", n, p.Paths().Cleaned)
		return nil
	},
}

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Score sentiment and extract entities from cleaned articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline()
		if err != nil {
			return err
		}
		n, err := p.Features(runCtx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Extracted features for %d articles -> %s\n", n, p.Paths().Features)
		return nil
	},
}

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "Join daily news aggregates onto the market bars",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPipeline()
		if err != nil {
			return err
		}
		stats, err := p.Align(runCtx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Aligned %s -> %s\n", stats, p.Paths().Final)
		return nil
	},
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render the HTML report from the final feature table",
	Long: `Render the HTML report from the final feature table. With --text a
plain-text summary is printed to stdout and no files are written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pdf, _ := cmd.Flags().GetBool("pdf")
		p, err := newPipeline()
		if err != nil {
			return err
		}
		if text, _ := cmd.Flags().GetBool("text"); text {
			summary, err := p.Summary()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), summary)
			return nil
		}
		if err := p.Plot(runCtx, pdf || cfg.Report.PDF); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Report -> %s\n", p.Paths().Report)
		return nil
	},
}

func init() {
	plotCmd.Flags().Bool("pdf", false, "also export the report as PDF")
	plotCmd.Flags().Bool("text", false, "print a plain-text summary instead of writing the report")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Upsert the final feature table into the SQL store",
	RunE: func(cmd *cobra.Command, args []string) error {
		if dsn, _ := cmd.Flags().GetString("dsn"); dsn != "" {
			cfg.Store.DSN = dsn
		}
		if driver, _ := cmd.Flags().GetString("driver"); driver != "" {
			cfg.Store.Driver = driver
		}
		p, err := newPipeline()
		if err != nil {
			return err
		}
		n, err := p.Export(runCtx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s table %s (run %s)\n", n, cfg.Store.Driver, cfg.Store.Table, p.RunID())
		return nil
	},
}

func init() {
	exportCmd.Flags().String("dsn", "", "store DSN (overrides store.dsn)")
	exportCmd.Flags().String("driver", "", "store driver: sqlite or postgres")
}
