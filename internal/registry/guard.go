// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package registry

import (
	"sync"

	"github.com/juju/clock"
	"github.com/juju/errors"

	coreerrors "github.com/ondemandenv/contracts/core/errors"
	"github.com/ondemandenv/contracts/internal/config"
)

// Guard allows a single registry to be constructed through it. The zero
// value is ready to use.
type Guard struct {
	// Clock times the wiring of each build. It defaults to the wall clock.
	Clock clock.Clock

	// Metrics, when set, records the constructed graph.
	Metrics *Collector

	mu       sync.Mutex
	instance *Registry
}

// New constructs the registry from factories, in registration order. Only
// the first successful call wins; later calls return DuplicateRegistration
// and leave the first registry in place. A failed construction does not
// claim the guard.
func (g *Guard) New(cfg config.Config, factories ...Factory) (*Registry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.instance != nil {
		return nil, errors.Annotate(coreerrors.DuplicateRegistration, "contracts registry already constructed")
	}
	clk := g.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	r, err := construct(cfg, clk, g.Metrics, factories)
	if err != nil {
		return nil, errors.Trace(err)
	}
	g.instance = r
	return r, nil
}

// Instance returns the registry constructed through the guard.
func (g *Guard) Instance() (*Registry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.instance == nil {
		return nil, errors.NotFoundf("contracts registry")
	}
	return g.instance, nil
}

var defaultGuard Guard

// Default returns the process wide guard behind New and Instance. Its Clock
// and Metrics can be set before the registry is constructed.
func Default() *Guard {
	return &defaultGuard
}

// New constructs the process wide registry.
func New(cfg config.Config, factories ...Factory) (*Registry, error) {
	return defaultGuard.New(cfg, factories...)
}

// Instance returns the process wide registry.
func Instance() (*Registry, error) {
	return defaultGuard.Instance()
}
