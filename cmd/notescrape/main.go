// Command notescrape extracts an author's articles into a CSV dataset.
//
// Usage:
//
//	notescrape https://note.com/author                     # full scrape
//	notescrape --existing data.csv https://note.com/author # incremental
//
// The run pauses after opening the article list so a human can log in and
// expand pagination; completion is confirmed interactively, via a sentinel
// file (--signal-file), or via POST /done on --signal-addr.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/hazyhaar/notescrape"
)

type options struct {
	Existing        string        `long:"existing" short:"e" env:"NOTESCRAPE_EXISTING" description:"Existing CSV dataset; enables incremental mode"`
	Output          string        `long:"output" short:"o" description:"Output CSV path (derived when omitted)"`
	Headless        bool          `long:"headless" description:"Run the browser without a window (implies --no-manual)"`
	NoManual        bool          `long:"no-manual" description:"Skip the manual login/pagination phase"`
	BatchSize       int           `long:"batch-size" default:"10" description:"Archive checkpoint interval in articles"`
	ValidateURLs    bool          `long:"validate-urls" description:"Keep only URLs matching the canonical article shape"`
	Delay           time.Duration `long:"delay" default:"1.5s" description:"Pause between article fetches"`
	GenericFallback bool          `long:"generic-fallback" description:"Format unrecognised pages with the generic markdown converter"`
	Archive         string        `long:"archive" env:"NOTESCRAPE_ARCHIVE" description:"SQLite archive path (disabled when empty)"`
	SignalFile      string        `long:"signal-file" env:"NOTESCRAPE_SIGNAL_FILE" description:"Sentinel file confirming manual-step completion"`
	SignalAddr      string        `long:"signal-addr" description:"Local address serving the manual-step HTTP signal (e.g. 127.0.0.1:8753)"`
	Remote          string        `long:"remote" env:"CHROME_REMOTE_URL" description:"Attach to a running Chrome via its WebSocket URL"`
	Tuning          string        `long:"tuning" description:"YAML platform tuning file"`
	ManualTimeout   time.Duration `long:"manual-timeout" default:"2h" description:"Ceiling on the manual-setup wait"`
	LogLevel        string        `long:"log-level" default:"info" description:"Log level: debug, info, warn, error"`

	Args struct {
		ProfileURL string `positional-arg-name:"PROFILE_URL" required:"yes" description:"Author profile URL"`
	} `positional-args:"yes"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}

	var level slog.Level
	switch opts.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, opts); err != nil {
		logger.Error("notescrape: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	cfg := notescrape.Config{
		ProfileURL:      opts.Args.ProfileURL,
		ExistingCSV:     opts.Existing,
		OutputPath:      opts.Output,
		Headless:        opts.Headless,
		ManualSetup:     !opts.NoManual && !opts.Headless,
		BatchSize:       opts.BatchSize,
		ValidateURLs:    opts.ValidateURLs,
		Delay:           opts.Delay,
		GenericFallback: opts.GenericFallback,
		ArchivePath:     opts.Archive,
		SignalFile:      opts.SignalFile,
		SignalAddr:      opts.SignalAddr,
		ManualTimeout:   opts.ManualTimeout,
		RemoteURL:       opts.Remote,
		Logger:          logger,
	}

	if opts.Tuning != "" {
		t, err := notescrape.LoadTuning(opts.Tuning)
		if err != nil {
			return err
		}
		cfg.Tuning = *t
	}

	scraper, err := notescrape.New(cfg)
	if err != nil {
		return err
	}

	res, err := scraper.Run(ctx)
	if err != nil {
		if errors.Is(err, notescrape.ErrManualTimeout) {
			return fmt.Errorf("manual setup was not confirmed in time; retry when ready: %w", err)
		}
		return err
	}

	logger.Info("run complete",
		"output", res.OutputPath,
		"bytes", res.FileBytes,
		"existing", res.ExistingCount,
		"current", res.CurrentCount,
		"new", res.NewCount,
		"total", res.TotalCount)

	fmt.Printf("wrote %s (%d articles, %d new, %.1f MB)\n",
		res.OutputPath, res.TotalCount, res.NewCount,
		float64(res.FileBytes)/(1024*1024))
	return nil
}
