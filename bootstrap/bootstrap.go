// Package bootstrap wires all dependencies and starts the application.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/artpar/hoops/adapters/clock"
	"github.com/artpar/hoops/adapters/hasher"
	apihttp "github.com/artpar/hoops/adapters/http"
	"github.com/artpar/hoops/adapters/idgen"
	"github.com/artpar/hoops/adapters/memory"
	"github.com/artpar/hoops/adapters/metrics"
	hoopsredis "github.com/artpar/hoops/adapters/redis"
	"github.com/artpar/hoops/adapters/sqldb"
	"github.com/artpar/hoops/app"
	"github.com/artpar/hoops/config"
	"github.com/artpar/hoops/ports"
	"github.com/artpar/hoops/resources"
	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	DB         *sqldb.DB
	Registry   *app.Registry
	Dispatcher *apihttp.Dispatcher
	Metrics    *metrics.Collector
	Handler    http.Handler
	HTTPServer *http.Server

	redis    *goredis.Client
	stopOnce sync.Once
}

// Options provides optional configuration for application initialization.
type Options struct {
	// Specs are registered after the sample resources.
	Specs []app.Spec

	// Version is reported by /version and the OpenAPI document.
	Version string

	// Clock defaults to the system clock.
	Clock ports.Clock

	// Registry receives the metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
}

// New creates the application from a static configuration.
func New(cfg *config.Config) (*App, error) {
	logger := NewLogger(cfg.Logging, os.Stdout)
	return NewWithOptions(config.NewStaticHolder(cfg, logger), logger, Options{})
}

// LoadConfig reads path, or the environment when path does not exist, and
// returns a holder together with the logger it configures.
func LoadConfig(path string) (*config.Holder, zerolog.Logger, error) {
	cfg, err := config.LoadWithFallback(path)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := NewLogger(cfg.Logging, os.Stdout)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			holder, err := config.NewHolder(path, logger.With().Str("component", "config").Logger())
			if err != nil {
				return nil, logger, err
			}
			return holder, logger, nil
		}
	}
	return config.NewStaticHolder(cfg, logger), logger, nil
}

// NewWithOptions creates and initializes the application.
func NewWithOptions(holder *config.Holder, logger zerolog.Logger, opts Options) (*App, error) {
	cfg := holder.Get()
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}

	logger.Info().Str("version", opts.Version).Msg("initializing hoops")

	a := &App{
		Logger: logger,
		Config: holder,
	}

	if err := a.initDatabase(cfg.Database); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		reg := opts.Registry
		if reg == nil {
			reg = prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}
		a.Metrics = metrics.New(reg)
		gatherer = reg
		logger.Info().Msg("prometheus metrics enabled")
	}

	if err := a.initRegistry(cfg.API, opts.Specs); err != nil {
		a.closeStores()
		return nil, fmt.Errorf("init registry: %w", err)
	}

	if err := a.initDispatcher(cfg, opts.Clock); err != nil {
		a.closeStores()
		return nil, fmt.Errorf("init dispatcher: %w", err)
	}

	a.Handler = apihttp.NewRouter(a.Dispatcher, apihttp.NewHealthHandler(a.DB), logger, apihttp.RouterConfig{
		Metrics:       a.Metrics,
		Gatherer:      gatherer,
		EnableOpenAPI: cfg.OpenAPI.Enabled,
		OpenAPI: apihttp.OpenAPIInfo{
			Title:         cfg.OpenAPI.Title,
			Version:       cfg.API.Version,
			Description:   cfg.OpenAPI.Description,
			Authenticated: cfg.Auth.Enabled,
		},
		Timeout: cfg.Server.RequestTimeout,
		Version: opts.Version,
	})

	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.Handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	holder.OnChange(a.applyConfig)

	return a, nil
}

func (a *App) initDatabase(cfg config.DatabaseConfig) error {
	db, err := sqldb.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return err
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	a.DB = db
	a.Logger.Info().Str("driver", cfg.Driver).Msg("database ready")
	return nil
}

func (a *App) initRegistry(cfg config.APIConfig, specs []app.Spec) error {
	a.Registry = app.NewRegistry(a.Logger)

	if cfg.SampleResources {
		deps := resources.Deps{
			Store:  sqldb.NewRecordStore(a.DB),
			IDs:    idgen.UUID{},
			Hasher: hasher.NewBcrypt(0),
		}
		if err := resources.Register(a.Registry, deps); err != nil {
			return err
		}
	}
	for _, spec := range specs {
		if _, err := a.Registry.Register(spec); err != nil {
			return err
		}
	}

	a.Registry.Freeze()
	a.Logger.Info().Int("resources", len(a.Registry.Resources())).Msg("registry frozen")
	return nil
}

func (a *App) initDispatcher(cfg *config.Config, clk ports.Clock) error {
	negotiator, err := apihttp.NewNegotiator(cfg.API.DefaultFormat)
	if err != nil {
		return err
	}

	a.Dispatcher = apihttp.NewDispatcher(a.Registry, negotiator, a.Logger, apihttp.Config{
		APIVersion:           cfg.API.Version,
		Debug:                cfg.API.Debug,
		MaxBodyBytes:         cfg.API.MaxBodyBytes,
		RequireContentLength: cfg.API.RequireContentLength,
	})
	if a.Metrics != nil {
		a.Dispatcher.SetMetrics(a.Metrics)
	}

	if cfg.Auth.Enabled {
		nonces, err := a.nonceStore(cfg.Auth, clk)
		if err != nil {
			return err
		}
		a.Dispatcher.SetAuthenticator(app.NewAuthenticator(
			sqldb.NewCredentialStore(a.DB),
			nonces,
			clk,
			a.Logger,
			app.AuthConfig{Skew: cfg.Auth.Skew, NonceTTL: cfg.Auth.NonceTTL},
		))
		a.Logger.Info().Str("nonce_store", cfg.Auth.NonceStore).Msg("oauth signatures required")
	}

	if cfg.Throttle.Enabled {
		a.Dispatcher.SetThrottle(apihttp.NewThrottle(cfg.Throttle.PerSecond, cfg.Throttle.Burst, clk))
		a.Logger.Info().
			Float64("per_second", cfg.Throttle.PerSecond).
			Int("burst", cfg.Throttle.Burst).
			Msg("throttling enabled")
	}
	return nil
}

// nonceStore returns nil when replay protection is off.
func (a *App) nonceStore(cfg config.AuthConfig, clk ports.Clock) (ports.NonceStore, error) {
	switch cfg.NonceStore {
	case config.NonceStoreMemory:
		return memory.NewNonceStore(clk), nil
	case config.NonceStoreSQL:
		return sqldb.NewNonceStore(a.DB, clk), nil
	case config.NonceStoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client, err := hoopsredis.Open(ctx, cfg.Redis.URL)
		if err != nil {
			return nil, err
		}
		a.redis = client
		return hoopsredis.NewNonceStore(client, cfg.Redis.Prefix), nil
	}
	return nil, nil
}

// applyConfig applies the reloadable fields of a new configuration.
func (a *App) applyConfig(cfg *config.Config) {
	if level, err := zerolog.ParseLevel(cfg.Logging.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	a.Dispatcher.SetDebug(cfg.API.Debug)
	if a.Metrics != nil {
		a.Metrics.ConfigReloads.Inc()
	}
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	if a.Config.Path() != "" {
		if err := a.Config.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("config file watch disabled")
		}
		a.Config.WatchSignals()
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		a.Shutdown()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown drains in-flight requests and releases every resource. It is
// safe to call more than once.
func (a *App) Shutdown() error {
	a.stopOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.Config.Get().Server.ShutdownTimeout)
		defer cancel()

		if a.HTTPServer != nil {
			if err := a.HTTPServer.Shutdown(ctx); err != nil {
				a.Logger.Error().Err(err).Msg("http server shutdown error")
			}
		}

		a.Config.Stop()
		a.closeStores()

		a.Logger.Info().Msg("shutdown complete")
	})
	return nil
}

func (a *App) closeStores() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("redis close error")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}
}

// NewLogger creates the process logger and sets the global level.
func NewLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}

	return zerolog.New(out).With().Timestamp().Logger()
}
