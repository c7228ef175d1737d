package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/bundlesched/internal/config"
	"github.com/specialistvlad/bundlesched/internal/ctxlog"
	"github.com/specialistvlad/bundlesched/internal/metrics"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	options config.Options
	metrics *metrics.Metrics
	bundles []*loadedBundle
}

// NewApp is the constructor for the main application. It loads the bundle
// descriptions, resolves the scheduler options and builds the graph. The
// report is written to outW and logs to logW.
func NewApp(outW, logW io.Writer, appConfig *Config, loader config.Loader) (*App, error) {
	logger, err := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	if err != nil {
		return nil, err
	}
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Load all configuration into the format-agnostic model first.
	model, err := loader.Load(ctx, appConfig.Vars, appConfig.Paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load bundle descriptions: %w", err)
	}
	logger.Debug("Bundle descriptions loaded.", "bundles", len(model.Bundles))

	opts, err := appConfig.options(model.Scheduler)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler options: %w", err)
	}
	logger.Debug("Scheduler options resolved.",
		"route_algorithm", opts.RouteAlgorithm,
		"memset_ctrl_dep_optimization", opts.MemsetCtrlDepOptimization,
		"prefetch_next_thread", opts.PrefetchNextThread,
		"prefer_same_thread", opts.PreferSameThread,
	)

	graph, bundles, err := buildBundles(model)
	if err != nil {
		return nil, err
	}
	logger.Debug("Bundle graph built.", "nodes", graph.NumNodes(), "bundles", len(bundles))

	return &App{
		outW:    outW,
		logger:  logger,
		config:  appConfig,
		options: opts,
		metrics: metrics.New(),
		bundles: bundles,
	}, nil
}

// Options returns the resolved scheduler options. This is primarily for testing.
func (a *App) Options() config.Options {
	return a.options
}
