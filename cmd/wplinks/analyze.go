package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/wplinks/internal/config"
	"github.com/nao1215/wplinks/internal/crawler"
	"github.com/nao1215/wplinks/internal/database"
	"github.com/nao1215/wplinks/internal/graph"
	"github.com/nao1215/wplinks/internal/log"
	"github.com/nao1215/wplinks/internal/model"
	"github.com/nao1215/wplinks/internal/pipeline"
	"github.com/nao1215/wplinks/internal/report"
	"github.com/nao1215/wplinks/internal/resolver"
	"github.com/nao1215/wplinks/internal/wordpress"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [site-url...]",
		Short: "Analyze the internal link structure of WordPress sites",
		Long: `Analyze discovers all published articles of a WordPress site through the
public REST API, extracts article-to-article links from rendered content
and ACF related-post fields, and reports incoming and outgoing link
counts per article, most linked-to first.

Sites come from positional arguments, from a .wplinks configuration
file, or both.

Examples:
  # Analyze a single site
  wplinks analyze https://example.com

  # Analyze several sites concurrently
  wplinks analyze --batch 3 https://a.example https://b.example https://c.example

  # Export one CSV file per site
  wplinks analyze --csv https://example.com

  # Keep page and category links in the graph
  wplinks analyze --ignore-non-posts=false https://example.com

  # Analyze the sites listed in a configuration file
  wplinks analyze -c sites.yaml

Configuration file (.wplinks) example:
  defaults:
    relatedField: related-posts
  sites:
    - name: example
      url: https://example.com
    - name: blog
      url: https://blog.example.com
      perPage: 50`,
		Args: cobra.ArbitraryArgs,
		RunE: runAnalyzeCmd,
	}

	// Discovery and extraction flags
	cmd.Flags().IntP("per-page", "p", config.DefaultPerPage,
		"Directory pagination page size (max 100)")
	cmd.Flags().StringP("related-field", "r", config.DefaultRelatedField,
		"ACF field name holding curated related posts")
	cmd.Flags().Bool("ignore-non-posts", true,
		"Drop links whose slug resolves only to a page or category")

	// Politeness and resilience flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().IntP("attempts", "a", config.DefaultAttempts,
		"Retry budget per request, including the first try")
	cmd.Flags().Float64("rate", config.DefaultRequestsPerSecond,
		"Maximum requests per second against one site")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Articles processed concurrently per site (1 = sequential)")

	// Batch analysis flags
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of sites analyzed concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .wplinks in current or home directory)")

	// Report flags
	cmd.Flags().Bool("csv", false,
		"Export one semicolon-separated CSV file per site")
	cmd.Flags().String("csv-pattern", config.DefaultCSVPattern,
		"File name pattern for CSV exports ({site} is replaced)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Cancel the whole run on interrupt so in-flight requests stop.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAnalysis(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
// Sites listed in the configuration file come first, positional URL
// arguments are appended after them.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.PerPage, err = cmd.Flags().GetInt("per-page")
	if err != nil {
		return nil, err
	}

	cfg.RelatedField, err = cmd.Flags().GetString("related-field")
	if err != nil {
		return nil, err
	}

	cfg.IgnoreNonPosts, err = cmd.Flags().GetBool("ignore-non-posts")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.Attempts, err = cmd.Flags().GetInt("attempts")
	if err != nil {
		return nil, err
	}

	cfg.RequestsPerSecond, err = cmd.Flags().GetFloat64("rate")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.BatchSize, err = cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load sites from the config file. If the user explicitly specified
	// a path, a missing file is an error; otherwise a missing file just
	// means flags and args carry the whole configuration.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		for i := range file.Sites {
			cfg.Sites = append(cfg.Sites, file.Merged(i))
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	// Positional URL arguments become sites with global defaults.
	for _, arg := range args {
		cfg.Sites = append(cfg.Sites, config.Site{URL: arg})
	}

	cfg.CSVExport, err = cmd.Flags().GetBool("csv")
	if err != nil {
		return nil, err
	}

	cfg.CSVPattern, err = cmd.Flags().GetString("csv-pattern")
	if err != nil {
		return nil, err
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Always save to database using XDG data directory
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// runAnalysis executes the analysis for all configured sites.
func runAnalysis(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting analysis",
		"sites", len(cfg.Sites),
		"batchSize", cfg.BatchSize,
		"concurrency", cfg.Concurrency,
		"saveToDB", cfg.SaveToDB,
	)

	var db *database.LinkDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	if len(cfg.Sites) > 1 && cfg.BatchSize > 1 {
		return runBatchAnalysis(ctx, cfg, db, logger)
	}

	return runSequentialAnalysis(ctx, cfg, db, logger)
}

// runSequentialAnalysis analyzes sites one at a time.
func runSequentialAnalysis(ctx context.Context, cfg *config.Config, db *database.LinkDB, logger *slog.Logger) error {
	for _, site := range cfg.Sites {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		p, err := buildPipeline(cfg, site, logger)
		if err != nil {
			logger.Error("could not build pipeline", "site", site.DisplayName(), "error", err)
			fmt.Fprintf(os.Stderr, "Analysis error for %s: %v\n", site.DisplayName(), err)
			continue
		}

		siteReport := model.NewSiteReport(site.DisplayName(), site.URL)

		fmt.Printf("Analyzing %s...\n", site.URL)

		if err := p.Execute(ctx, siteReport); err != nil {
			logger.Error("analysis failed", "site", site.DisplayName(), "error", err)
			fmt.Fprintf(os.Stderr, "Analysis error for %s: %v\n", site.DisplayName(), err)
			continue
		}

		fmt.Printf("Analysis completed in %s\n\n", siteReport.Elapsed.Round(time.Millisecond))

		if err := outputReport(cfg, siteReport); err != nil {
			logger.Error("report failed", "site", siteReport.Site, "error", err)
		}

		if err := saveRun(ctx, db, siteReport, logger); err != nil {
			logger.Error("failed to save run", "site", siteReport.Site, "error", err)
		}
	}

	return nil
}

// runBatchAnalysis analyzes multiple sites concurrently using BatchProcessor.
func runBatchAnalysis(ctx context.Context, cfg *config.Config, db *database.LinkDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch analysis of %d sites (concurrency: %d)...\n\n",
		len(cfg.Sites), cfg.BatchSize)

	startTime := time.Now()

	bp := pipeline.NewBatchProcessor(
		func(site config.Site) *pipeline.Pipeline {
			p, err := buildPipeline(cfg, site, logger)
			if err != nil {
				// The URL was already validated, so this is unexpected;
				// surface the problem on the site's report.
				failed := pipeline.New(pipeline.WithLogger(logger))
				failed.AddSteps(&failingStep{err: err})
				return failed
			}
			return p
		},
		pipeline.WithBatchConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, cfg.Sites, func(siteReport *model.SiteReport, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Printf("[%d/%d] Analysis completed: %s\n", index+1, len(cfg.Sites), siteReport.Site)

		if err := outputReport(cfg, siteReport); err != nil {
			logger.Error("report failed", "site", siteReport.Site, "error", err)
		}

		if err := saveRun(ctx, db, siteReport, logger); err != nil {
			logger.Error("failed to save run", "site", siteReport.Site, "error", err)
		}
	})

	fmt.Printf("\nBatch analysis completed in %s\n", time.Since(startTime).Round(time.Millisecond))

	return err
}

// failingStep is a pipeline step that always fails with a fixed error.
// It carries pipeline construction failures into batch reports.
type failingStep struct {
	err error
}

// Name returns the step name.
func (s *failingStep) Name() string { return "build_pipeline" }

// Do returns the construction error.
func (s *failingStep) Do(_ context.Context, _ *model.SiteReport) error { return s.err }

// buildPipeline assembles the discover/extract/aggregate pipeline for one
// site, with the site's overrides applied on top of the global settings.
func buildPipeline(cfg *config.Config, site config.Site, logger *slog.Logger) (*pipeline.Pipeline, error) {
	client := wordpress.NewClient(site.URL,
		wordpress.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		wordpress.WithRetryPolicy(wordpress.RetryPolicy{
			Attempts:  cfg.Attempts,
			BaseDelay: time.Second,
		}),
		wordpress.WithRateLimit(cfg.RequestsPerSecond),
		wordpress.WithUserAgent(cfg.UserAgent),
		wordpress.WithLogger(logger),
	)

	builder := crawler.NewDirectoryBuilder(client,
		crawler.WithDirectoryPerPage(site.EffectivePerPage(cfg.PerPage)),
		crawler.WithDirectoryLogger(logger),
	)

	extractor, err := crawler.NewExtractor(site.URL,
		crawler.WithRelatedField(site.EffectiveRelatedField(cfg.RelatedField)),
		crawler.WithExtractorLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor for %s: %w", site.URL, err)
	}

	ignoreNonPosts := site.EffectiveIgnoreNonPosts(cfg.IgnoreNonPosts)

	res := resolver.NewResolver(client,
		resolver.WithIgnoreNonPosts(ignoreNonPosts),
		resolver.WithResolverLogger(logger),
	)

	p := pipeline.New(pipeline.WithLogger(logger))
	p.AddSteps(
		pipeline.NewDiscoverStep(builder),
		pipeline.NewLinkStep(client, extractor, res,
			pipeline.WithLinkIgnoreNonPosts(ignoreNonPosts),
			pipeline.WithLinkConcurrency(cfg.Concurrency),
			pipeline.WithLinkLogger(logger),
		),
		pipeline.NewAggregateStep(graph.NewAggregator(
			graph.WithAggregatorLogger(logger),
		)),
	)

	return p, nil
}

// outputReport outputs the report in the requested format and writes the
// per-site CSV export when enabled.
func outputReport(cfg *config.Config, siteReport *model.SiteReport) error {
	if cfg.CSVExport {
		if err := exportCSV(cfg, siteReport); err != nil {
			return err
		}
	}

	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output)
	}

	_, err := writer.Write(siteReport)
	return err
}

// exportCSV writes the site's rows to its per-site CSV file.
func exportCSV(cfg *config.Config, siteReport *model.SiteReport) error {
	name := report.FileName(cfg.CSVPattern, siteReport.Site)

	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // File name derives from user config
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	if _, err := report.NewCSVWriter(f).Write(siteReport); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}

	fmt.Printf("CSV exported: %s\n", name)
	return nil
}

// saveRun saves the site report to the database if enabled.
// If db is nil, this function is a no-op.
func saveRun(ctx context.Context, db *database.LinkDB, siteReport *model.SiteReport, logger *slog.Logger) error {
	if db == nil {
		return nil
	}

	runID, err := db.SaveRun(ctx, siteReport)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	logger.Info("run saved to database", "site", siteReport.Site, "runID", runID)
	return nil
}
