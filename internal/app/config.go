package app

import (
	"errors"
	"fmt"

	"github.com/specialistvlad/bundlesched/internal/config"
	"github.com/specialistvlad/bundlesched/internal/report"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Paths []string // hcl files or directories
	Vars  map[string]string

	LogFormat   string
	LogLevel    string
	Output      string
	MetricsFile string
	DryRun      bool

	// Scheduler overrides; empty or nil keeps the value from the description
	// or the default.
	RouteAlgorithm            string
	MemsetCtrlDepOptimization *bool
	PrefetchNextThread        *bool
	PreferSameThread          *bool
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("at least one bundle description path is required")
	}
	if cfg.Output == "" {
		cfg.Output = string(report.FormatText)
	}
	if _, err := report.ParseFormat(cfg.Output); err != nil {
		return nil, err
	}
	if cfg.RouteAlgorithm != "" {
		if _, err := config.ParseRouteAlgorithm(cfg.RouteAlgorithm); err != nil {
			return nil, err
		}
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	return &cfg, nil
}

// options resolves the scheduler options: defaults, then the description's
// scheduler block, then the overrides of cfg.
func (cfg *Config) options(settings *config.SchedulerSettings) (config.Options, error) {
	opts, err := settings.Apply(config.DefaultOptions())
	if err != nil {
		return opts, err
	}
	overrides := &config.SchedulerSettings{
		MemsetCtrlDepOptimization: cfg.MemsetCtrlDepOptimization,
		PrefetchNextThread:        cfg.PrefetchNextThread,
		PreferSameThread:          cfg.PreferSameThread,
	}
	if cfg.RouteAlgorithm != "" {
		overrides.RouteAlgorithm = &cfg.RouteAlgorithm
	}
	if opts, err = overrides.Apply(opts); err != nil {
		return opts, err
	}
	return opts, opts.Validate()
}
