package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"

	"github.com/readkeep/readkeep/pkg/config"
	"github.com/readkeep/readkeep/pkg/content"
	"github.com/readkeep/readkeep/pkg/feed"
	"github.com/readkeep/readkeep/pkg/proxy"
	"github.com/readkeep/readkeep/pkg/repository"
	"github.com/readkeep/readkeep/pkg/scheduler"
	"github.com/readkeep/readkeep/pkg/summarizer"
	"github.com/readkeep/readkeep/server"
)

// Opts with all CLI options
type Opts struct {
	Config string `short:"c" long:"config" env:"CONFIG" default:"config.yml" description:"config file path"`
	Listen string `short:"l" long:"listen" env:"LISTEN" description:"listen address, overrides config"`

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

	setupLog(opts.Debug)

	log.Printf("[INFO] starting readkeep version %s", revision)

	ctx, cancel := context.WithCancel(context.Background())

	// handle termination signals
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Print("[INFO] termination signal received")
		cancel()
	}()

	if err := run(ctx, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		cancel()
		os.Exit(1)
	}
	cancel()

	log.Print("[INFO] shutdown complete")
}

// run wires the application together and blocks until the context is
// cancelled or the server stops
func run(ctx context.Context, opts Opts) error {
	cfg, err := loadConfig(opts.Config)
	if err != nil {
		return err
	}
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}

	fetcher := proxy.NewClient(cfg.Proxy.BaseURL, cfg.Proxy.UserAgent, cfg.Proxy.Timeout)
	feedParser := feed.NewParser(fetcher)
	extractor := content.NewExtractor(fetcher, cfg.Extraction.MinTextLength)

	repos, err := repository.NewRepositories(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer func() {
		if err := repos.Close(); err != nil {
			log.Printf("[WARN] close storage: %v", err)
		}
	}()

	sched := scheduler.NewScheduler(scheduler.Params{
		Feeds:          repos.Feed,
		Articles:       repos.Article,
		Parser:         feedParser,
		UpdateInterval: time.Duration(cfg.Schedule.UpdateInterval) * time.Minute,
	})
	sched.Start(ctx)
	defer sched.Stop()

	sum := summarizer.NewService(summarizer.Config{
		OpenRouterEndpoint: cfg.Summarizer.OpenRouterEndpoint,
		GeminiEndpoint:     cfg.Summarizer.GeminiEndpoint,
		Timeout:            cfg.Summarizer.Timeout,
	})
	prompts := summarizer.NewPrompts(repos.Setting)

	srv := server.New(server.Config{
		Listen:  cfg.Server.Listen,
		Timeout: cfg.Server.Timeout,
		Version: revision,
		Debug:   opts.Debug,
	}, newStore(repos), sched, extractor, sum, prompts, feedParser)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// loadConfig reads the config file, falling back to defaults when the
// default path doesn't exist and no explicit path was given
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("[INFO] config file %s not found, using defaults", path)
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// store aggregates the repositories into the single persistence surface the
// server consumes
type store struct {
	*repository.FeedRepository
	*repository.ArticleRepository
	*repository.NoteRepository
	*repository.HighlightRepository
	*repository.CategoryRepository
	*repository.SettingRepository
	*repository.ExportRepository
}

func newStore(repos *repository.Repositories) *store {
	return &store{
		FeedRepository:      repos.Feed,
		ArticleRepository:   repos.Article,
		NoteRepository:      repos.Note,
		HighlightRepository: repos.Highlight,
		CategoryRepository:  repos.Category,
		SettingRepository:   repos.Setting,
		ExportRepository:    repos.Export,
	}
}

func setupLog(dbg bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
