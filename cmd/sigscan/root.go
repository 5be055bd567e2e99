// ABOUTME: Root command for the sigscan CLI
// ABOUTME: Scans target files and directories against the configured signature tables

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/hikmaai-io/hikmaai-sigscan/internal/config"
	"github.com/hikmaai-io/hikmaai-sigscan/internal/engine"
	"github.com/hikmaai-io/hikmaai-sigscan/internal/observability"
	"github.com/hikmaai-io/hikmaai-sigscan/internal/queue"
	"github.com/hikmaai-io/hikmaai-sigscan/internal/scanner"
)

const serviceName = "sigscan"

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	cfgFile   string
	logLevel  string
	logFormat string
}

// scanOptions are the flags of the scan (root) command.
type scanOptions struct {
	recursive  bool
	outputJSON bool
	noSummary  bool
	noCache    bool
}

func newRootCmd() *cobra.Command {
	var (
		global globalOptions
		opts   scanOptions
	)

	cmd := &cobra.Command{
		Use:   "sigscan [flags] <target>...",
		Short: "sigscan - hash signature scanner for ClamAV HDB and HSB tables",
		Long: `sigscan checks files against ClamAV-style hash signature tables.

Tables are loaded from the directories listed in database_dir of the config
file. Files ending in .hdb hold MD5 signatures, files ending in .hsb hold
SHA1 or SHA256 signatures. Each file is reported as OK, Empty file, Invalid
(with the matched signature names), or Error, followed by a scan summary.

Examples:
  sigscan /tmp/download.bin
  sigscan -r /home/alice/Downloads
  sigscan --json -r /srv/uploads > results.jsonl`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, global, opts, args)
		},
	}

	cmd.PersistentFlags().StringVarP(&global.cfgFile, "config", "c", "", "config file (default: $HOME/.config/sig-scan/config.toml)")
	cmd.PersistentFlags().StringVar(&global.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")
	cmd.PersistentFlags().StringVar(&global.logFormat, "log-format", "", "log format (text, json); overrides config")

	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", false, "scan directories recursively")
	cmd.Flags().BoolVarP(&opts.outputJSON, "json", "j", false, "write results as JSON lines")
	cmd.Flags().BoolVar(&opts.noSummary, "no-summary", false, "do not print the scan summary")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "ignore the configured verdict cache")

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd(&global))

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sigscan version %s\n", version)
			fmt.Fprintf(out, "  Git SHA:    %s\n", gitSHA)
			fmt.Fprintf(out, "  Build Time: %s\n", buildTime)
		},
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(global globalOptions) (*config.Config, error) {
	path := global.cfgFile
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if global.logLevel != "" {
		cfg.Log.Level = global.logLevel
	}
	if global.logFormat != "" {
		cfg.Log.Format = global.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}

	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	return observability.NewLogger(observability.LoggingConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: serviceName,
		Version:     version,
	}, w)
}

// openDatabase builds the signature database from config.
func openDatabase(cfg *config.Config, logger *slog.Logger, useCache bool) (*engine.Database, error) {
	dbCfg := engine.Config{
		Bloom: engine.BloomConfig{
			ExpectedItems:     engine.DefaultBloomConfig().ExpectedItems,
			FalsePositiveRate: cfg.Bloom.FalsePositiveRate,
		},
		DisableBloom: cfg.Bloom.Disabled,
		Logger:       logger,
	}

	if useCache && cfg.Cache.Dir != "" {
		ttl, err := cfg.CacheTTL()
		if err != nil {
			return nil, err
		}
		dbCfg.Cache = engine.CacheConfig{
			Dir:    cfg.Cache.Dir,
			TTL:    ttl,
			Logger: engine.NewBadgerLogger(logger),
		}
	}

	return engine.NewDatabase(dbCfg)
}

func runScan(cmd *cobra.Command, global globalOptions, opts scanOptions, targets []string) error {
	cfg, err := loadConfig(global)
	if err != nil {
		return err
	}

	runID := observability.NewRunID()
	ctx := observability.WithRunID(cmd.Context(), runID)
	logger := newLogger(cfg, cmd.ErrOrStderr())

	tp, err := observability.NewTracerProvider(ctx, observability.TracingConfig{
		Enabled:       cfg.Tracing.Enabled,
		ServiceName:   serviceName,
		Version:       version,
		Endpoint:      cfg.Tracing.Endpoint,
		Insecure:      cfg.Tracing.Insecure,
		SamplingRatio: cfg.Tracing.SamplingRatio,
	})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	db, err := openDatabase(cfg, logger, !opts.noCache)
	if err != nil {
		return err
	}
	defer db.Close()

	summary := scanner.NewSummary(runID.String(), version)
	if err := db.LoadDirs(ctx, cfg.DatabaseDir, summary); err != nil {
		return err
	}

	observability.LogWithContext(ctx, logger, slog.LevelInfo, "signature database ready",
		slog.Int("tables", len(db.Tables())),
		slog.Int("known_signatures", db.KnownSignatures()),
		slog.String("fingerprint", db.Fingerprint()),
	)

	out := cmd.OutOrStdout()
	var reporters scanner.MultiReporter
	if opts.outputJSON {
		reporters = append(reporters, scanner.NewJSONReporter(out, !opts.noSummary))
	} else {
		reporters = append(reporters, scanner.NewTextReporter(out, len(db.Tables()), !opts.noSummary))
	}

	if cfg.NATS.URL != "" {
		natsCfg := queue.DefaultNATSConfig()
		natsCfg.URL = cfg.NATS.URL
		natsCfg.Subject = cfg.NATS.Subject
		natsCfg.Name = cfg.NATS.Name

		pub := queue.NewPublisher(natsCfg, runID.String(), logger)
		if err := pub.Connect(ctx); err != nil {
			return fmt.Errorf("%w (url %s)", err, observability.RedactURL(cfg.NATS.URL))
		}
		defer pub.Close()
		reporters = append(reporters, pub)
	}

	walker := scanner.NewWalker(db, summary, reporters, logger)

	summary.Begin()
	for _, target := range targets {
		if err := walker.ScanPath(ctx, target, opts.recursive); err != nil {
			return fmt.Errorf("scan interrupted: %w", err)
		}
	}
	summary.End()

	stats := db.Stats()
	observability.LogWithContext(ctx, logger, slog.LevelDebug, "scan finished",
		slog.Int64("files", stats.FilesScanned),
		slog.Int64("table_lookups", stats.TableLookups),
		slog.Int64("bloom_rejections", stats.BloomRejections),
		slog.Int64("cache_hits", stats.CacheHits),
		slog.Duration("elapsed", summary.Elapsed()),
	)

	return reporters.Finish(ctx, summary)
}
