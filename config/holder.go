// Package config provides configuration loading and hot reload.
package config

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// ErrNoFile is returned by Reload and WatchFile on a holder without a
// backing file.
var ErrNoFile = errors.New("config: no backing file")

// reloadDelay coalesces the burst of events a single editor save produces.
const reloadDelay = 100 * time.Millisecond

// Holder serves the configuration in effect. A reload applies only the
// live fields; restart fields keep their running values until the process
// is restarted, so Get always describes what the server is doing.
type Holder struct {
	mu        sync.RWMutex
	current   *Config
	listeners []func(*Config)
	watcher   *fsnotify.Watcher

	path     string
	log      zerolog.Logger
	done     chan struct{}
	stopOnce sync.Once
}

// NewHolder loads path and returns a holder bound to it.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}
	h := NewStaticHolder(cfg, logger)
	h.path = abs
	return h, nil
}

// NewStaticHolder wraps a configuration that has no backing file, e.g. one
// built by LoadFromEnv.
func NewStaticHolder(cfg *Config, logger zerolog.Logger) *Holder {
	return &Holder{current: cfg, log: logger, done: make(chan struct{})}
}

// Path returns the watched file, or "" for a static holder.
func (h *Holder) Path() string {
	return h.path
}

// Get returns the configuration in effect.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// OnChange registers fn to run after every successful reload.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Reload reads the file again. An invalid file leaves the configuration
// untouched.
func (h *Holder) Reload() error {
	if h.path == "" {
		return fmt.Errorf("reload config: %w", ErrNoFile)
	}
	loaded, err := Load(h.path)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	running := h.current
	next := withLiveFields(running, loaded)
	h.current = next
	listeners := slices.Clone(h.listeners)
	h.mu.Unlock()

	for _, f := range restartFields {
		if f.differs(running, loaded) {
			h.log.Warn().Str("field", f.name).Msg("change ignored until restart")
		}
	}
	var applied []string
	for _, f := range liveFields {
		if f.differs(running, next) {
			applied = append(applied, f.name)
		}
	}
	h.log.Info().Strs("applied", applied).Msg("configuration reloaded")

	for _, fn := range listeners {
		fn(next)
	}
	return nil
}

// WatchFile reloads whenever the file is written or replaced. The parent
// directory is watched so atomic renames by editors are seen.
func (h *Holder) WatchFile() error {
	if h.path == "" {
		return fmt.Errorf("watch config: %w", ErrNoFile)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(h.path)); err != nil {
		w.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	h.mu.Lock()
	h.watcher = w
	h.mu.Unlock()

	go h.watchFile(w)
	h.log.Info().Str("path", h.path).Msg("watching config file")
	return nil
}

// WatchSignals reloads on SIGHUP until Stop.
func (h *Holder) WatchSignals() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sig)
		for {
			select {
			case <-sig:
				h.reload("sighup")
			case <-h.done:
				return
			}
		}
	}()
}

// Stop ends file and signal watching. It may be called more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *Holder) watchFile(w *fsnotify.Watcher) {
	name := filepath.Base(h.path)
	var pending <-chan time.Time

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) == name && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				pending = time.After(reloadDelay)
			}
		case <-pending:
			pending = nil
			h.reload("file")
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			h.log.Error().Err(err).Msg("config watcher error")
		case <-h.done:
			return
		}
	}
}

func (h *Holder) reload(trigger string) {
	if err := h.Reload(); err != nil {
		h.log.Error().Err(err).Str("trigger", trigger).Msg("config reload rejected, keeping running config")
	}
}

type field struct {
	name    string
	differs func(a, b *Config) bool
}

var liveFields = []field{
	{"api.debug", func(a, b *Config) bool { return a.API.Debug != b.API.Debug }},
	{"logging.level", func(a, b *Config) bool { return a.Logging.Level != b.Logging.Level }},
}

var restartFields = []field{
	{"server.host", func(a, b *Config) bool { return a.Server.Host != b.Server.Host }},
	{"server.port", func(a, b *Config) bool { return a.Server.Port != b.Server.Port }},
	{"database.driver", func(a, b *Config) bool { return a.Database.Driver != b.Database.Driver }},
	{"database.dsn", func(a, b *Config) bool { return a.Database.DSN != b.Database.DSN }},
	{"api.default_format", func(a, b *Config) bool { return a.API.DefaultFormat != b.API.DefaultFormat }},
	{"api.max_body_bytes", func(a, b *Config) bool { return a.API.MaxBodyBytes != b.API.MaxBodyBytes }},
	{"auth.enabled", func(a, b *Config) bool { return a.Auth.Enabled != b.Auth.Enabled }},
	{"auth.nonce_store", func(a, b *Config) bool { return a.Auth.NonceStore != b.Auth.NonceStore }},
	{"auth.skew", func(a, b *Config) bool { return a.Auth.Skew != b.Auth.Skew }},
	{"throttle.enabled", func(a, b *Config) bool { return a.Throttle.Enabled != b.Throttle.Enabled }},
	{"metrics.enabled", func(a, b *Config) bool { return a.Metrics.Enabled != b.Metrics.Enabled }},
	{"openapi.enabled", func(a, b *Config) bool { return a.OpenAPI.Enabled != b.OpenAPI.Enabled }},
}

// withLiveFields returns a copy of running carrying the live fields of
// loaded.
func withLiveFields(running, loaded *Config) *Config {
	next := *running
	next.API.Debug = loaded.API.Debug
	next.Logging.Level = loaded.Logging.Level
	return &next
}

func names(fields []field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.name
	}
	return out
}

// ReloadableFields returns the fields a reload applies.
func ReloadableFields() []string { return names(liveFields) }

// NonReloadableFields returns the fields that only take effect on restart.
func NonReloadableFields() []string { return names(restartFields) }
