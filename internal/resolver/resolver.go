// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package resolver turns consumer edges into deploy time values.
//
// The registry only records edges. A deployment reads the value published
// by the producing environment from a Source; when nothing was published
// yet the consumer's fallback is used, so that a graph with forward
// references can be brought up for the first time. A fallback is never
// used to paper over an edge whose target does not exist in the graph.
package resolver

import (
	"context"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/ondemandenv/contracts/core/contract"
	coreerrors "github.com/ondemandenv/contracts/core/errors"
)

// Source returns values published by producing environments.
type Source interface {
	// SharedValue returns the value published for the edge key. It returns
	// an error satisfying errors.IsNotFound when nothing was published.
	SharedValue(ctx context.Context, key contract.EdgeKey) (string, error)
}

// Graph is the part of the registry the resolver reads.
type Graph interface {
	Lookup(addr contract.Address) (*contract.Node, error)
	Consumer(key contract.EdgeKey) (*contract.Consumer, error)
}

// Logger is the logging interface used by the resolver.
type Logger interface {
	Debugf(string, ...interface{})
	Warningf(string, ...interface{})
}

// Config holds the dependencies of a Resolver.
type Config struct {
	Source  Source
	Graph   Graph
	Clock   clock.Clock
	Logger  Logger
	Metrics *Collector
}

// Validate checks the config is usable.
func (c Config) Validate() error {
	if c.Source == nil {
		return errors.NotValidf("nil Source")
	}
	if c.Graph == nil {
		return errors.NotValidf("nil Graph")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	return nil
}

// Resolver resolves consumer edges.
type Resolver struct {
	config Config
}

// New returns a resolver. A nil Logger logs to the package logger.
func New(config Config) (*Resolver, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if config.Logger == nil {
		config.Logger = loggo.GetLogger("contracts.resolver")
	}
	return &Resolver{config: config}, nil
}

// ResolveKey resolves the edge with the given key. The edge's target must
// exist in the graph: a missing target is an UnresolvedReference even when
// the edge declares a fallback.
func (r *Resolver) ResolveKey(ctx context.Context, key contract.EdgeKey) (contract.ResolvedValue, error) {
	_, target, err := contract.ParseEdgeKey(string(key))
	if err != nil {
		return contract.ResolvedValue{}, errors.Trace(err)
	}
	if _, err := r.config.Graph.Lookup(target); err != nil {
		r.config.Metrics.failure(failureUnresolved)
		return contract.ResolvedValue{}, errors.Annotatef(err, "resolving %q", key)
	}
	consumer, err := r.config.Graph.Consumer(key)
	if err != nil {
		r.config.Metrics.failure(failureUnresolved)
		return contract.ResolvedValue{}, errors.Trace(err)
	}
	return r.Resolve(ctx, consumer)
}

// Resolve returns the value of consumer's target. When the target never
// published a value the declared fallback is returned with OriginFallback;
// without a fallback the result is ValueNotDeployed.
func (r *Resolver) Resolve(ctx context.Context, consumer *contract.Consumer) (contract.ResolvedValue, error) {
	key := consumer.Key()
	value, err := r.config.Source.SharedValue(ctx, key)
	switch {
	case err == nil:
		if consumer.Target().IsSchemaArtifact() {
			if _, err := contract.ParseSchemaURI(value); err != nil {
				r.config.Logger.Warningf("schema artifact %q resolved to %q: %v", consumer.Target().Address(), value, err)
			}
		}
		r.config.Metrics.resolved(contract.OriginShared)
		return r.resolved(key, value, contract.OriginShared), nil

	case errors.Is(err, errors.NotFound):
		fallback, ok := consumer.Fallback()
		if !ok {
			r.config.Metrics.failure(failureNotDeployed)
			return contract.ResolvedValue{}, errors.Annotatef(coreerrors.ValueNotDeployed, "%q", key)
		}
		r.config.Logger.Warningf("%q has no published value, using fallback %q for first deploy", key, fallback)
		r.config.Metrics.resolved(contract.OriginFallback)
		return r.resolved(key, fallback, contract.OriginFallback), nil

	default:
		r.config.Metrics.failure(failureSource)
		return contract.ResolvedValue{}, errors.Annotatef(err, "resolving %q", key)
	}
}

// ResolveEnver resolves every consumer of a wired environment, in
// declaration order.
func (r *Resolver) ResolveEnver(ctx context.Context, enver *contract.Enver) ([]contract.ResolvedValue, error) {
	consumers, err := enver.Consumers()
	if err != nil {
		return nil, errors.Trace(err)
	}
	values := make([]contract.ResolvedValue, 0, len(consumers))
	for _, consumer := range consumers {
		value, err := r.Resolve(ctx, consumer)
		if err != nil {
			return nil, errors.Trace(err)
		}
		values = append(values, value)
	}
	return values, nil
}

func (r *Resolver) resolved(key contract.EdgeKey, value string, origin contract.Origin) contract.ResolvedValue {
	r.config.Logger.Debugf("resolved %q from %s", key, origin)
	return contract.ResolvedValue{
		Key:        key,
		Value:      value,
		Origin:     origin,
		ResolvedAt: r.config.Clock.Now(),
	}
}
