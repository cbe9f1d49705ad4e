package app

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrFrozen is returned by Register after Freeze.
var ErrFrozen = errors.New("registry is frozen")

// Registry collects resources during startup. Once frozen it only serves
// reads.
type Registry struct {
	mu        sync.RWMutex
	resources []*Resource
	byName    map[string]*Resource
	byRoute   map[string]string
	frozen    bool
	logger    zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		byName:  map[string]*Resource{},
		byRoute: map[string]string{},
		logger:  logger.With().Str("component", "api").Logger(),
	}
}

// Register builds spec and adds the resource.
func (r *Registry) Register(spec Spec) (*Resource, error) {
	res, err := Build(spec)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return nil, ErrFrozen
	}
	if _, ok := r.byName[res.name]; ok {
		return nil, fmt.Errorf("resource %s already registered", res.name)
	}
	for _, route := range []string{res.route, res.objectRoute} {
		if route == "" {
			continue
		}
		if owner, ok := r.byRoute[route]; ok {
			return nil, fmt.Errorf("route %s of %s already served by %s", route, res.name, owner)
		}
	}

	r.resources = append(r.resources, res)
	r.byName[res.name] = res
	r.byRoute[res.route] = res.name
	if res.objectRoute != "" {
		r.byRoute[res.objectRoute] = res.name
	}

	ops := make([]string, 0, len(AllOps))
	for _, kind := range AllOps {
		if res.Implemented(kind) {
			ops = append(ops, kind.String())
		}
	}
	r.logger.Info().
		Str("resource", res.name).
		Str("route", res.route).
		Str("object_route", res.objectRoute).
		Bool("read_only", res.readOnly).
		Strs("operations", ops).
		Str("model", describeModel(res.model)).
		Msg("resource registered")

	return res, nil
}

// MustRegister is Register for static resource tables; it panics on error.
func (r *Registry) MustRegister(spec Spec) *Resource {
	res, err := r.Register(spec)
	if err != nil {
		panic(err)
	}
	return res
}

// Freeze refuses further registrations.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Resources returns the registered resources in registration order.
func (r *Registry) Resources() []*Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Resource(nil), r.resources...)
}

// Lookup returns a resource by name.
func (r *Registry) Lookup(name string) (*Resource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.byName[name]
	return res, ok
}
