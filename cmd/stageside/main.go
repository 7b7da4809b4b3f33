package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/stageside/stageside/pkg/archive"
	"github.com/stageside/stageside/pkg/community"
	"github.com/stageside/stageside/pkg/config"
	"github.com/stageside/stageside/pkg/content"
	"github.com/stageside/stageside/pkg/feed"
	"github.com/stageside/stageside/pkg/images"
	"github.com/stageside/stageside/pkg/llm"
	"github.com/stageside/stageside/pkg/notify"
	"github.com/stageside/stageside/pkg/pipeline"
	"github.com/stageside/stageside/pkg/repository"
	"github.com/stageside/stageside/pkg/scheduler"
	"github.com/stageside/stageside/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"config.yml" description:"configuration file"`
	Once   bool   `long:"once" description:"run ingest once and exit"`
	Repair bool   `long:"repair" description:"re-enrich archived records with failed enrichment and exit"`
	Server bool   `long:"server" description:"serve the archive over HTTP next to scheduled runs"`

	APIKey string `long:"api-key" env:"GEMINI_API_KEY" description:"LLM API key, overrides config"`
	Email  struct {
		Sender   string `long:"sender" env:"SENDER" description:"SMTP user and sender, overrides config"`
		Password string `long:"password" env:"PASSWORD" description:"SMTP password, overrides config"`
		Receiver string `long:"receiver" env:"RECEIVER" description:"digest recipient, overrides config"`
	} `group:"email" namespace:"email" env-namespace:"EMAIL"`

	// Common options
	Debug   bool `long:"dbg" env:"DEBUG" description:"debug mode"`
	Version bool `short:"V" long:"version" description:"show version info"`
	NoColor bool `long:"no-color" env:"NO_COLOR" description:"disable color output"`
}

var revision = "unknown"

func main() {
	var opts Opts
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if opts.Version {
		fmt.Printf("Version: %s\nGolang: %s\n", revision, runtime.Version())
		os.Exit(0)
	}

	setupLog(opts.Debug, opts.NoColor, opts.APIKey, opts.Email.Password)
	log.Printf("[INFO] starting stageside version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	err := run(ctx, opts)
	cancel()

	if err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	log.Print("[INFO] shutdown complete")
}

// run builds all components and executes the requested mode
func run(ctx context.Context, opts Opts) error {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyOverrides(cfg, opts)
	if cfg.LLM.APIKey != "" || cfg.Notify.Password != "" {
		setupLog(opts.Debug, opts.NoColor, cfg.LLM.APIKey, cfg.Notify.Password)
	}

	repos, err := repository.NewRepositories(ctx, repository.Config{DSN: cfg.Database.DSN})
	if err != nil {
		log.Printf("[WARN] run ledger is disabled: %v", err)
	} else {
		defer func() {
			if err := repos.Close(); err != nil {
				log.Printf("[WARN] failed to close run ledger: %v", err)
			}
		}()
	}

	store := archive.NewStore(cfg.Pipeline.ArchivePath)
	p := newPipeline(cfg, store, repos)

	switch {
	case opts.Repair:
		report, err := p.Repair(ctx)
		if err != nil {
			return fmt.Errorf("repair failed: %w", err)
		}
		log.Printf("[INFO] repair done: %d candidates, %d replaced", report.Entries, len(report.Added))
		return nil
	case opts.Once:
		report, err := p.Run(ctx)
		if err != nil {
			return fmt.Errorf("run failed: %w", err)
		}
		log.Printf("[INFO] run done: %d entries, %d skipped, %d admitted, %d rejected, %d failed, %d added",
			report.Entries, report.Skipped, report.Admitted, report.Rejected, report.Failed, len(report.Added))
		return nil
	}

	schedParams := scheduler.Params{Runner: p, Interval: cfg.Pipeline.Interval, KeepRuns: cfg.Database.KeepRuns}
	if repos != nil {
		schedParams.Pruner = repos.Run
	}
	sched := scheduler.NewScheduler(schedParams)
	sched.Start(ctx)
	defer sched.Stop()

	if !opts.Server {
		<-ctx.Done()
		return nil
	}

	srvParams := server.Params{
		Listen:     cfg.Server.Listen,
		Timeout:    cfg.Server.Timeout,
		BaseURL:    cfg.Server.BaseURL,
		AdminToken: cfg.Server.AdminToken,
		Sources:    cfg.FeedSources(),
		Archive:    store,
		Trigger:    sched,
		Version:    revision,
		Debug:      opts.Debug,
	}
	if repos != nil {
		srvParams.Ledger = repos
	}
	if err := server.New(srvParams).Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// newPipeline wires feed reader, entry processor, archive store, notifier and ledger
func newPipeline(cfg *config.Config, store *archive.Store, repos *repository.Repositories) *pipeline.Pipeline {
	enricher := llm.NewEnricher(cfg.LLM)
	if !enricher.Configured() {
		log.Printf("[WARN] llm api key is not set, entries will get fallback enrichment and be rejected")
	}

	markers := append(llm.FailureMarkers(), cfg.Pipeline.FailureMarkers...)
	procParams := pipeline.ProcessorParams{
		Extractor: content.NewHTTPExtractor(cfg.Extraction.Timeout, cfg.Extraction.UserAgent),
		Enricher:  enricher,
		Images:    images.NewResolver(images.NewWikiClient(cfg.Images), cfg.Images.MaxKeywords),
		Admission: pipeline.Admission{
			MinSummaryLength: cfg.Pipeline.MinSummaryLength,
			RequireImage:     cfg.Pipeline.ImageRequired(),
			Markers:          markers,
		},
	}
	if cfg.Community.IsEnabled() {
		matcher := community.NewMatcher(cfg.Community)
		if cfg.LLM.ConfirmRelevance && enricher.Configured() {
			matcher.SetConfirmer(enricher)
		}
		procParams.Reactions = matcher
	}

	params := pipeline.Params{
		Config:    cfg.Pipeline,
		Sources:   cfg.FeedSources(),
		Reader:    feed.NewReader(cfg.Feeds.Timeout, cfg.Feeds.UserAgent, cfg.Pipeline.PerSourceLimit),
		Processor: pipeline.NewProcessor(procParams),
		Store:     store,
		Notifier:  notify.NewEmailNotifier(cfg.Notify),
	}
	if repos != nil {
		params.Ledger = repos
	}
	return pipeline.New(params, markers)
}

// applyOverrides puts credentials passed by flags or env over config values
func applyOverrides(cfg *config.Config, opts Opts) {
	if opts.APIKey != "" {
		cfg.LLM.APIKey = opts.APIKey
	}
	if opts.Email.Sender != "" {
		cfg.Notify.Username = opts.Email.Sender
		if cfg.Notify.From == "" {
			cfg.Notify.From = opts.Email.Sender
		}
	}
	if opts.Email.Password != "" {
		cfg.Notify.Password = opts.Email.Password
	}
	if opts.Email.Receiver != "" {
		cfg.Notify.To = []string{opts.Email.Receiver}
	}
}

func setupLog(dbg, noColor bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	if !noColor {
		colorizer := lgr.Mapper{
			ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
			WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
			InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
			DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
			CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
			TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
		}
		logOpts = append(logOpts, lgr.Map(colorizer))
	}

	var secrets []string
	for _, s := range secs {
		if s != "" {
			secrets = append(secrets, s)
		}
	}
	if len(secrets) > 0 {
		logOpts = append(logOpts, lgr.Secret(secrets...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
