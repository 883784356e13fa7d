package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/wantedcrawl/internal/config"
	"github.com/IshaanNene/wantedcrawl/internal/observability"
	"github.com/IshaanNene/wantedcrawl/pkg/wantedcrawl"
)

var (
	cfgFile     string
	verbose     bool
	startURL    string
	outputDir   string
	formats     string
	maxPages    int
	concurrent  int
	delay       string
	userAgent   string
	noTranslate bool
	fetcherType string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wantedcrawl",
		Short: "Crawl the politiaromana.ro most-wanted listing into spreadsheets",
		Long: `wantedcrawl walks the paginated most-wanted listing, scrapes every
detail page and writes files/politiaromana_<YYYYMMDD>.xlsx followed by a
machine-translated copy, translated_politiaromana_<YYYYMMDD>.xlsx.

Running without a subcommand is the same as "wantedcrawl crawl".`,
		SilenceUsage: true,
		RunE:         runCrawl,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	addCrawlFlags(rootCmd)

	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// crawlCmd creates the "crawl" subcommand.
func crawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "crawl",
		Short:        "Crawl the listing, export the results and their translation",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runCrawl,
	}
	addCrawlFlags(cmd)
	return cmd
}

func addCrawlFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&startURL, "start-url", "", "first listing page")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "comma-separated export formats: xlsx, csv, json")
	cmd.Flags().IntVarP(&maxPages, "max-pages", "m", 0, "maximum listing pages (0 = follow the chain to the end)")
	cmd.Flags().IntVarP(&concurrent, "concurrency", "n", 0, "concurrent detail page fetches")
	cmd.Flags().StringVar(&delay, "delay", "", "politeness delay between requests per domain")
	cmd.Flags().StringVar(&userAgent, "user-agent", "", "custom User-Agent string")
	cmd.Flags().StringVar(&fetcherType, "fetcher", "", "fetcher type: http or browser")
	cmd.Flags().BoolVar(&noTranslate, "no-translate", false, "skip the translated export")
}

// runCrawl executes a full crawl, export and translation run.
func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := applyCLIOverrides(cmd, cfg); err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []wantedcrawl.Option{}
	if cfg.Metrics.Enabled {
		metrics := observability.NewMetrics(logger)
		metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metrics.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics shutdown error", "error", err)
			}
		}()
		opts = append(opts, wantedcrawl.WithMetrics(metrics))
	}

	logger.Info("starting crawl",
		"start_url", cfg.Crawl.StartURL,
		"max_pages", cfg.Crawl.MaxPages,
		"concurrency", cfg.Crawl.Concurrency,
		"output", cfg.Export.OutputDir,
		"translate", cfg.Translate.Enabled,
	)

	start := time.Now()
	result, err := wantedcrawl.NewCrawlerFromConfig(cfg, logger, opts...).Run(ctx)
	interrupted := errors.Is(err, context.Canceled)
	if err != nil && (!interrupted || result == nil) {
		return err
	}
	elapsed := time.Since(start)

	printSummary(result, elapsed, interrupted)
	return nil
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("wantedcrawl %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand, which prints the effective
// configuration as YAML usable with --config.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

// printSummary renders the run statistics and output files.
func printSummary(result *wantedcrawl.Result, elapsed time.Duration, interrupted bool) {
	stats := result.Stats

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Crawl complete in %s", elapsed.Round(time.Millisecond))
	t.AppendRows([]table.Row{
		{"Listing pages", stats["listing_pages"]},
		{"Detail pages", stats["detail_pages"]},
		{"Requests", fmt.Sprintf("%v sent, %v failed", stats["requests_sent"], stats["requests_failed"])},
		{"Records", fmt.Sprintf("%v scraped, %v dropped", stats["records_scraped"], stats["records_dropped"])},
		{"Bytes", stats["bytes_downloaded"]},
	})
	if len(result.Photos) > 0 {
		t.AppendRow(table.Row{"Photos", len(result.Photos)})
	}
	t.AppendSeparator()
	for _, path := range result.Files {
		t.AppendRow(table.Row{"Output", path})
	}
	if interrupted {
		t.AppendFooter(table.Row{"Interrupted", "partial results exported, translation skipped"})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	if len(result.Records) == 0 {
		fmt.Println("\nNo records were scraped. Check the start URL, the parser selectors and the session cookies.")
	}
}

// setupLogger creates a structured logger.
func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// applyCLIOverrides applies the flags the user set to the config.
func applyCLIOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("start-url") {
		cfg.Crawl.StartURL = startURL
	}
	if flags.Changed("output") {
		cfg.Export.OutputDir = outputDir
	}
	if flags.Changed("format") {
		var list []string
		for _, f := range strings.Split(formats, ",") {
			if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
				list = append(list, f)
			}
		}
		cfg.Export.Formats = list
	}
	if flags.Changed("max-pages") {
		cfg.Crawl.MaxPages = maxPages
	}
	if flags.Changed("concurrency") {
		cfg.Crawl.Concurrency = concurrent
	}
	if flags.Changed("delay") {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid --delay: %w", err)
		}
		cfg.Crawl.PolitenessDelay = d
	}
	if userAgent != "" {
		cfg.Crawl.UserAgent = userAgent
	}
	if fetcherType != "" {
		cfg.Fetcher.Type = fetcherType
	}
	if noTranslate {
		cfg.Translate.Enabled = false
	}
	return nil
}
