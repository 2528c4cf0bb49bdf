package app

import (
	"fmt"
	"sync"

	"github.com/newthinker/stratlab/internal/api"
	"github.com/newthinker/stratlab/internal/backtest"
	"github.com/newthinker/stratlab/internal/collector"
	"github.com/newthinker/stratlab/internal/collector/csvfile"
	"github.com/newthinker/stratlab/internal/collector/yahoo"
	"github.com/newthinker/stratlab/internal/config"
	"github.com/newthinker/stratlab/internal/metrics"
	"github.com/newthinker/stratlab/internal/storage/archive"
	"github.com/newthinker/stratlab/internal/storage/results"
	"github.com/newthinker/stratlab/internal/strategy"
	"go.uber.org/zap"
)

// App wires configuration into collectors, strategies, the backtester and
// the report archive.
type App struct {
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *metrics.Registry
	collectors *collector.Registry
	strategies *strategy.Registry

	mu      sync.Mutex
	reports *results.Store
}

// New creates a new App instance. Collectors are registered and
// initialised here, the CSV one only when a directory is configured. The
// archive is opened on first use.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Defaults()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		cfg:        cfg,
		logger:     logger,
		collectors: collector.NewRegistry(),
		strategies: strategy.NewRegistry(cfg.StrategyDefaults(), logger),
	}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewRegistry()
	}

	cc := collector.Config{Timeout: cfg.Data.Timeout, Dir: cfg.Data.CSVDir}
	sources := []collector.Collector{yahoo.New()}
	if cfg.Data.CSVDir != "" {
		sources = append(sources, csvfile.New(cfg.Data.CSVDir))
	}
	for _, c := range sources {
		if err := a.RegisterCollector(c, cc); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// RegisterCollector initialises c and adds it to the registry.
func (a *App) RegisterCollector(c collector.Collector, cfg collector.Config) error {
	if err := c.Init(cfg); err != nil {
		return fmt.Errorf("initializing %s collector: %w", c.Name(), err)
	}
	a.collectors.Register(c)
	a.logger.Debug("collector registered", zap.String("collector", c.Name()))
	return nil
}

// Config returns the configuration the app was built from.
func (a *App) Config() *config.Config { return a.cfg }

// Logger returns the app logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Metrics returns the metrics registry, or nil when metrics are disabled.
func (a *App) Metrics() *metrics.Registry { return a.metrics }

// Strategies returns the strategy registry with configured defaults.
func (a *App) Strategies() *strategy.Registry { return a.strategies }

// Collectors returns the collector registry.
func (a *App) Collectors() *collector.Registry { return a.collectors }

// Backtester returns a backtester fed by the named collector. An empty
// source selects the configured one.
func (a *App) Backtester(source string) (*backtest.Backtester, error) {
	if source == "" {
		source = a.cfg.Data.Source
	}
	c, err := a.collectors.MustGet(source)
	if err != nil {
		return nil, err
	}
	provider := collector.NewMetered(c, a.metrics, a.logger)
	return backtest.New(provider,
		backtest.WithLogger(a.logger),
		backtest.WithMetrics(a.metrics),
	), nil
}

// Reports opens the configured archive on first call.
func (a *App) Reports() (*results.Store, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.reports != nil {
		return a.reports, nil
	}

	ac := a.cfg.Storage.Archive
	s, err := archive.New(archive.Config{
		Type: ac.Type,
		Path: ac.Path,
		S3: archive.S3Config{
			Bucket:    ac.S3.Bucket,
			Endpoint:  ac.S3.Endpoint,
			Region:    ac.S3.Region,
			AccessKey: ac.S3.AccessKey,
			SecretKey: ac.S3.SecretKey,
			Prefix:    ac.S3.Prefix,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("opening report archive: %w", err)
	}
	a.logger.Debug("report archive opened", zap.String("type", ac.Type))
	a.reports = results.NewStore(s)
	return a.reports, nil
}

// Server builds the HTTP API over the configured data source.
func (a *App) Server() (*api.Server, error) {
	bt, err := a.Backtester("")
	if err != nil {
		return nil, err
	}
	reports, err := a.Reports()
	if err != nil {
		return nil, err
	}

	universe := a.cfg.Universe
	if len(universe) == 0 {
		universe = config.DefaultUniverse
	}

	metricsPath := ""
	if a.metrics != nil {
		metricsPath = a.cfg.Metrics.Path
	}

	return api.NewServer(api.Config{
		Host:        a.cfg.Server.Host,
		Port:        a.cfg.Server.Port,
		APIKey:      a.cfg.Server.APIKey,
		MaxJobs:     a.cfg.Server.MaxJobs,
		JobTTL:      a.cfg.JobTTL(),
		MetricsPath: metricsPath,
	}, api.Dependencies{
		Backtester: bt,
		Strategies: a.strategies,
		Reports:    reports,
		Metrics:    a.metrics,
		Universe:   universe,
	}, a.logger)
}
