package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/cardforge/proxysheet/internal/deck"
	"github.com/cardforge/proxysheet/internal/fetch"
	"github.com/cardforge/proxysheet/internal/layout"
	"github.com/cardforge/proxysheet/internal/pdfwriter"
	"github.com/cardforge/proxysheet/internal/resolve"
	"github.com/cardforge/proxysheet/internal/scryfall"
	"github.com/cardforge/proxysheet/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	catalog    resolve.Catalog
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Catalog    resolve.Catalog
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Catalog == nil {
		opts.Catalog = scryfall.NewClient("", opts.HTTPClient, opts.Config.Fetch.UserAgent)
	}

	return &Runner{
		config:     opts.Config,
		catalog:    opts.Catalog,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		buildCommand, resolveCommand, cacheCommand, configCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	return r.writePlain(format+"\n", args...)
}

// buildParams are the effective settings for one build run, merged from the
// config file and command-line flags.
type buildParams struct {
	output         string
	format         string
	cacheDir       string
	skipUnresolved bool
	allowGaps      bool
	noCache        bool
}

func (r *Runner) buildParamsFrom(cmd *cli.Command) (buildParams, error) {
	p := buildParams{
		output:         r.config.Output.Path,
		format:         r.config.Output.Format,
		skipUnresolved: r.config.Resolve.SkipUnresolved,
		noCache:        !r.config.Fetch.CacheEnabled,
	}
	if v := cmd.String("output"); v != "" {
		p.output = v
	}
	if v := cmd.String("format"); v != "" {
		p.format = v
	}
	if cmd.Bool("skip-unresolved") {
		p.skipUnresolved = true
	}
	if cmd.Bool("allow-gaps") {
		p.allowGaps = true
	}
	if cmd.Bool("no-cache") {
		p.noCache = true
	}
	if v := cmd.String("cache-dir"); v != "" {
		p.cacheDir = v
	} else {
		dir, err := r.config.CacheDir()
		if err != nil {
			return p, err
		}
		p.cacheDir = dir
	}
	if p.format != "pdf" && p.format != "png" {
		return p, fmt.Errorf("%w: output format must be pdf or png, got %q", shared.ErrInvalidFlag, p.format)
	}
	return p, nil
}

// Build runs the full pipeline: parse, resolve, fetch, layout, write.
func (r *Runner) Build(ctx context.Context, cmd *cli.Command) error {
	deckPath := cmd.StringArg("deckfile")
	if deckPath == "" {
		return fmt.Errorf("%w: deck file path", shared.ErrMissingArgument)
	}
	if path := cmd.String("config"); path != "" {
		cfg, err := shared.LoadConfig(path)
		if err != nil {
			return err
		}
		r.config = cfg
	}
	params, err := r.buildParamsFrom(cmd)
	if err != nil {
		return err
	}
	return r.runBuild(ctx, deckPath, params)
}

func (r *Runner) runBuild(ctx context.Context, deckPath string, params buildParams) error {
	// Layout config is validated up front so a bad geometry never costs a
	// network round trip.
	engine, err := layout.NewEngine(r.layoutConfig(), r.logger)
	if err != nil {
		return err
	}

	d, err := deck.ParseFile(deckPath)
	if err != nil {
		return err
	}
	r.logger.Info("parsed deck", "cards", d.Len(), "copies", d.Size())

	resolver := resolve.New(r.catalog, resolve.Options{
		SkipUnresolved: params.skipUnresolved,
		Logger:         r.logger,
	})
	resolved, err := resolver.Resolve(ctx, d)
	if err != nil {
		return err
	}
	for _, u := range resolved.Unresolved {
		r.writePlainln("unresolved: %s", u.Ref.Name)
	}
	r.logger.Info("resolved deck", "units", len(resolved.Units), "unresolved", len(resolved.Unresolved))

	fetcher, err := r.newFetcher(params)
	if err != nil {
		return err
	}
	results := fetcher.FetchAll(ctx, resolved.Units)

	items := make([]layout.Item, len(results))
	failed := 0
	for i, res := range results {
		items[i] = layout.Item{Unit: res.Unit, Image: res.Bytes}
		if res.Err != nil {
			failed++
			r.writePlainln("fetch failed: %v", res.Err)
		}
	}
	if failed > 0 && !params.allowGaps {
		return fmt.Errorf("%d of %d images could not be fetched (use --allow-gaps to print anyway)", failed, len(results))
	}

	pages, err := engine.Pages(items)
	if err != nil {
		return err
	}

	var writer pdfwriter.Writer
	switch params.format {
	case "png":
		writer = pdfwriter.NewPNG(params.output, "page")
	default:
		writer = pdfwriter.NewPDF(params.output, r.layoutConfig())
	}
	if err := writer.Write(pages); err != nil {
		return err
	}

	r.writePlainln("wrote %d page(s) to %s (%d image(s), %d from cache, %d failed)",
		len(pages), params.output, len(results), countCached(results), failed)
	return nil
}

// Resolve parses and resolves a deck without fetching, printing the unit list.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	deckPath := cmd.StringArg("deckfile")
	if deckPath == "" {
		return fmt.Errorf("%w: deck file path", shared.ErrMissingArgument)
	}

	d, err := deck.ParseFile(deckPath)
	if err != nil {
		return err
	}

	resolver := resolve.New(r.catalog, resolve.Options{
		SkipUnresolved: cmd.Bool("skip-unresolved") || r.config.Resolve.SkipUnresolved,
		Logger:         r.logger,
	})
	resolved, err := resolver.Resolve(ctx, d)
	if err != nil {
		return err
	}

	for _, unit := range resolved.Units {
		r.writePlainln("%s face=%d copy=%d key=%s", unit.CardName, unit.FaceIndex, unit.CopyIndex, unit.CacheKey)
	}
	for _, u := range resolved.Unresolved {
		r.writePlainln("unresolved: %s", u.Ref.Name)
	}
	r.writePlainln("%d unit(s) from %d card(s)", len(resolved.Units), d.Len())
	return nil
}

// CachePath prints the effective image cache directory.
func (r *Runner) CachePath(ctx context.Context, cmd *cli.Command) error {
	dir, err := r.config.CacheDir()
	if err != nil {
		return err
	}
	return r.writePlainln("%s", dir)
}

// CacheInit creates the image cache directory.
func (r *Runner) CacheInit(ctx context.Context, cmd *cli.Command) error {
	dir, err := r.config.CacheDir()
	if err != nil {
		return err
	}
	if _, err := fetch.NewDiskCache(dir); err != nil {
		return err
	}
	return r.writePlainln("cache ready at %s", dir)
}

// ConfigInit writes the example configuration to the given path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	return r.writePlainln("wrote %s", path)
}

func (r *Runner) layoutConfig() layout.Config {
	lc := r.config.Layout
	return layout.Config{
		DPI:           lc.DPI,
		CardWidthMM:   lc.CardWidthMM,
		CardHeightMM:  lc.CardHeightMM,
		GapMM:         lc.GapMM,
		MarginMM:      lc.MarginMM,
		SheetWidthMM:  lc.SheetWidthMM,
		SheetHeightMM: lc.SheetHeightMM,
		Missing:       layout.MissingPolicy(lc.MissingImage),
	}
}

func (r *Runner) newFetcher(params buildParams) (*fetch.Fetcher, error) {
	var cache *fetch.DiskCache
	if !params.noCache {
		var err error
		if cache, err = fetch.NewDiskCache(params.cacheDir); err != nil {
			return nil, err
		}
	}
	fc := r.config.Fetch
	return fetch.New(fetch.Options{
		RateLimit: fc.RateLimit,
		Workers:   fc.Workers,
		Retries:   fc.Retries,
		Backoff:   time.Duration(fc.BackoffMS) * time.Millisecond,
		UserAgent: fc.UserAgent,
		Client:    r.httpClient,
		Cache:     cache,
		Logger:    r.logger,
	}), nil
}

func countCached(results []fetch.Result) int {
	n := 0
	for _, res := range results {
		if res.FromCache {
			n++
		}
	}
	return n
}
