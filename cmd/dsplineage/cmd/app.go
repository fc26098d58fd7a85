package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/dsplineage/internal/cache"
	"github.com/dbsmedya/dsplineage/internal/catalog"
	"github.com/dbsmedya/dsplineage/internal/config"
	"github.com/dbsmedya/dsplineage/internal/gateway"
	"github.com/dbsmedya/dsplineage/internal/graph"
	"github.com/dbsmedya/dsplineage/internal/lineage"
	"github.com/dbsmedya/dsplineage/internal/logger"
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer (used for testing)
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets output to stdout (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
}

// noticeWriter receives warnings meant for the user, kept off stdout so
// machine-readable output stays clean.
var noticeWriter io.Writer = os.Stderr

// app wires the collaborators every command needs.
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	gateway    *gateway.HTTPClient
	catalog    *catalog.Catalog
	cache      *cache.TypedCache
	service    *lineage.Service
	classifier *graph.Classifier
}

// loadConfig loads, overrides and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	cfg.ApplyOverrides(GetCLIOverrides())

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	a := &app{
		cfg:        cfg,
		log:        log,
		gateway:    gateway.NewFromConfig(cfg.API, log),
		classifier: graph.NewClassifier(cfg.Lineage.TransactionalTypes),
	}

	var source cache.Source = a.gateway
	if cfg.Catalog.Enabled || cfg.Cache.Source == "catalog" {
		cat, err := catalog.Open(ctx, &cfg.Catalog, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open catalog: %w", err)
		}
		a.catalog = cat
		if cfg.Cache.Source == "catalog" {
			source = cat
		}
	}

	a.cache = cache.New(source, cache.Options{
		BuildRetries: cfg.Cache.BuildRetries,
		RetryBackoff: cfg.API.Backoff(),
		Concurrency:  cfg.Cache.Concurrency,
	}, log)

	shape, err := lineage.ParseShape(cfg.Lineage.ResponseShape)
	if err != nil {
		return nil, err
	}
	a.service = lineage.NewService(a.gateway, a.cache, cfg.Lineage.MaxDepth, shape, log)

	return a, nil
}

// source returns where spaces and objects are listed from.
func (a *app) source() cache.Source {
	if a.cfg.Cache.Source == "catalog" && a.catalog != nil {
		return a.catalog
	}
	return a.gateway
}

// ensureCache builds the cache unless a fresh snapshot exists. A partial
// build is reported and accepted.
func (a *app) ensureCache(ctx context.Context, progress cache.ProgressFunc) (*cache.Stats, error) {
	if !a.cache.IsStale(a.cfg.Cache.MaxAge()) {
		return a.cache.Stats(), nil
	}

	stats, err := a.cache.BuildWait(ctx, progress)
	var partial *cache.PartialBuildError
	if errors.As(err, &partial) {
		a.log.Warnw("Cache built with missing spaces", "failed", partial.FailedSpaces())
		return stats, nil
	}
	return stats, err
}

func (a *app) Close() {
	if a.catalog != nil {
		_ = a.catalog.Close()
	}
	_ = a.log.Sync()
}

// useColor reports whether output may be colored.
func useColor() bool {
	if noColor {
		return false
	}
	f, ok := outputWriter.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// progressPrinter reports cache build progress on stderr.
func progressPrinter(quiet bool) cache.ProgressFunc {
	if quiet {
		return nil
	}
	return func(p cache.Progress) {
		status := color.Green.Sprint("ok")
		if p.Err != nil {
			status = color.Red.Sprint("failed")
		}
		fmt.Fprintf(os.Stderr, "[%d/%d] %-30s %s (%d objects loaded)\n",
			p.SpacesProcessed, p.TotalSpaces, p.SpaceID, status, p.ObjectsLoaded)
	}
}

// commandContext returns the command's context, or a background context
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
