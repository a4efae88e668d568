package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mbialas/leadscout"
	lsgoquery "github.com/mbialas/leadscout/goquery"
	lshttp "github.com/mbialas/leadscout/http"
	lsrod "github.com/mbialas/leadscout/rod"
	"github.com/mbialas/leadscout/scrape"
)

// Dependencies holds shared context for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Search SearchCmd `cmd:"" help:"Run one search and print the JSON result"`
	Serve  ServeCmd  `cmd:"" help:"Serve the search API over HTTP"`
}

// PipelineFlags are pipeline tuning options shared by search and serve.
type PipelineFlags struct {
	ListingURL  string        `name:"listing-url" env:"LEADSCOUT_LISTING_URL" help:"HTML listing endpoint; the search term is appended URL-escaped"`
	Maps        bool          `help:"Drive a headless browser against the maps listing instead of an HTML endpoint"`
	Concurrency int           `short:"c" default:"4" help:"Concurrent fetch limit"`
	Timeout     time.Duration `default:"30s" help:"Per-source fetch ceiling"`
	RPS         float64       `name:"rps" default:"1" help:"Per-domain requests per second"`
	Verbose     bool          `short:"v" help:"Enable debug logging"`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Term string `arg:"" help:"Search phrase (e.g. \"restaurants in coimbatore\")"`
	PipelineFlags
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `default:":8080" env:"LEADSCOUT_ADDR" help:"Listen address"`
	PipelineFlags
}

// newLogger builds the slog logger commands share.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// buildPipeline wires fetcher, lister, and limiter per the flags. The
// returned closer releases fetcher and lister resources.
func buildPipeline(flags PipelineFlags, logger *slog.Logger) (*scrape.Pipeline, func(), error) {
	var (
		fetcher leadscout.Fetcher
		lister  leadscout.SourceLister
		closers []func() error
	)

	if flags.Maps {
		// Maps listings and place pages both need JavaScript rendering.
		rodLister, err := lsrod.NewLister()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start browser: %w (hint: Chrome or Chromium must be installed)", err)
		}
		closers = append(closers, rodLister.Close)

		rodFetcher, err := lsrod.NewFetcher(lsrod.WithRenderDelay(2 * time.Second))
		if err != nil {
			rodLister.Close()
			return nil, nil, fmt.Errorf("failed to start browser: %w", err)
		}
		closers = append(closers, rodFetcher.Close)

		fetcher = rodFetcher
		lister = rodLister
	} else {
		if flags.ListingURL == "" {
			return nil, nil, fmt.Errorf("either --maps or --listing-url is required")
		}
		httpFetcher := lshttp.NewFetcher()
		closers = append(closers, httpFetcher.Close)

		fetcher = httpFetcher
		lister = lshttp.NewLister(httpFetcher, flags.ListingURL)
	}

	pipeline := &scrape.Pipeline{
		Lister:        lister,
		Fetcher:       fetcher,
		Extractor:     lsgoquery.NewExtractor(),
		Limiter:       scrape.NewDomainLimiter(flags.RPS),
		Concurrency:   flags.Concurrency,
		SourceTimeout: flags.Timeout,
		Logger:        logger,
	}

	closeAll := func() {
		for _, c := range closers {
			_ = c()
		}
	}
	return pipeline, closeAll, nil
}
