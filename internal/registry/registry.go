// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package registry constructs the contracts graph: it instantiates every
// build, orders them by their declared requirements and wires each build
// exactly once. The resulting Registry is immutable.
package registry

import (
	"strings"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/names/v5"

	"github.com/ondemandenv/contracts/core/contract"
	coreerrors "github.com/ondemandenv/contracts/core/errors"
	"github.com/ondemandenv/contracts/internal/config"
	"github.com/ondemandenv/contracts/internal/dag"
)

var logger = loggo.GetLogger("contracts.registry")

type buildEntry struct {
	build Build
	state BuildState
}

// Registry is the constructed contracts graph.
type Registry struct {
	config config.Config

	entries []*buildEntry
	byName  map[string]*buildEntry
	graph   *dag.DirectedAcyclicGraph[string]
	order   []string

	envers     map[contract.EnverKey]*contract.Enver
	enverOrder []*contract.Enver
	nodes      map[contract.Address]*contract.Node
	producers  []*contract.Producer
	consumers  []*contract.Consumer
}

// construct runs every step of registry construction, failing fast.
func construct(cfg config.Config, clk clock.Clock, metrics *Collector, factories []Factory) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	r := &Registry{
		config: cfg,
		byName: make(map[string]*buildEntry),
		envers: make(map[contract.EnverKey]*contract.Enver),
		nodes:  make(map[contract.Address]*contract.Node),
	}
	if err := r.constructBuilds(factories); err != nil {
		return nil, errors.Trace(err)
	}
	if err := r.computeOrder(); err != nil {
		return nil, errors.Trace(err)
	}
	for _, name := range r.order {
		start := clk.Now()
		if err := r.wire(name); err != nil {
			return nil, errors.Trace(err)
		}
		metrics.observeWiring(name, clk.Now().Sub(start))
	}
	for _, entry := range r.entries {
		if entry.state != BuildWired {
			return nil, errors.Annotatef(coreerrors.NotWired, "build %q missing from wiring order %v", entry.build.Name(), r.order)
		}
	}
	if err := r.index(); err != nil {
		return nil, errors.Trace(err)
	}
	metrics.observeRegistry(r)
	logger.Infof("contracts registry constructed: %d builds, %d environments, %d consumers",
		len(r.entries), len(r.enverOrder), len(r.consumers))
	return r, nil
}

func (r *Registry) constructBuilds(factories []Factory) error {
	repositories := set.NewStrings()
	for _, factory := range factories {
		build, err := factory(r.config)
		if err != nil {
			return errors.Annotate(err, "constructing build")
		}
		name := build.Name()
		if !names.IsValidApplication(name) {
			return errors.NotValidf("build name %q", name)
		}
		if _, exists := r.byName[name]; exists {
			return errors.Annotatef(coreerrors.DuplicateRegistration, "build %q", name)
		}
		repository := build.Repository().String()
		if repositories.Contains(repository) {
			return errors.Annotatef(coreerrors.DuplicateRegistration, "repository %q of build %q", repository, name)
		}
		repositories.Add(repository)

		for _, enver := range build.Envers() {
			if enver.Build() != name {
				return errors.NotValidf("environment %q registered by build %q", enver.Key(), name)
			}
			if _, exists := r.envers[enver.Key()]; exists {
				return errors.Annotatef(coreerrors.DuplicateRegistration, "environment %q", enver.Key())
			}
			if err := enver.SealProducers(); err != nil {
				return errors.Annotatef(err, "build %q", name)
			}
			r.envers[enver.Key()] = enver
			r.enverOrder = append(r.enverOrder, enver)
		}

		entry := &buildEntry{build: build, state: BuildConstructed}
		r.entries = append(r.entries, entry)
		r.byName[name] = entry
		logger.Debugf("constructed build %q from %s with %d environments", name, repository, len(build.Envers()))
	}
	return nil
}

func (r *Registry) computeOrder() error {
	r.graph = dag.NewDirectedAcyclicGraph[string]()
	for i, entry := range r.entries {
		if err := r.graph.AddVertex(entry.build.Name(), i); err != nil {
			return errors.Trace(err)
		}
	}
	for _, entry := range r.entries {
		name := entry.build.Name()
		for _, required := range entry.build.Requires() {
			if _, ok := r.byName[required]; !ok {
				return errors.Annotatef(coreerrors.UnresolvedReference, "build %q requires unknown build %q", name, required)
			}
		}
		if err := r.graph.AddDependencies(name, entry.build.Requires()); err != nil {
			return errors.Annotatef(err, "build %q", name)
		}
	}

	order, err := r.graph.TopologicalSort()
	if err != nil {
		return errors.Annotate(err, "ordering builds")
	}
	if len(r.config.WiringOrder) == 0 {
		r.order = order
		logger.Debugf("computed wiring order %s", strings.Join(r.order, ", "))
		return nil
	}
	r.order = append([]string(nil), r.config.WiringOrder...)
	if err := r.checkOrder(); err != nil {
		return errors.Trace(err)
	}
	logger.Infof("using configured wiring order %s", strings.Join(r.order, ", "))
	return nil
}

// checkOrder rejects a configured order listing a build before one it
// requires. Unknown, repeated and missing builds fail while wiring.
func (r *Registry) checkOrder() error {
	position := make(map[string]int, len(r.order))
	for i, name := range r.order {
		if _, seen := position[name]; !seen {
			position[name] = i
		}
	}
	for i, name := range r.order {
		entry, ok := r.byName[name]
		if !ok || position[name] != i {
			continue
		}
		for _, required := range entry.build.Requires() {
			if at, listed := position[required]; listed && at > i {
				return errors.Annotatef(coreerrors.UnresolvedReference,
					"build %q wired before required build %q", name, required)
			}
		}
	}
	return nil
}

func (r *Registry) wire(name string) error {
	entry, ok := r.byName[name]
	if !ok {
		return errors.Annotatef(coreerrors.UnresolvedReference, "build %q in wiring order", name)
	}
	if entry.state != BuildConstructed {
		return errors.Annotatef(coreerrors.AlreadyWired, "build %q is %s", name, entry.state)
	}
	entry.state = BuildWiring
	envers := entry.build.Envers()
	for _, enver := range envers {
		if err := enver.BeginWiring(); err != nil {
			return errors.Annotatef(err, "build %q", name)
		}
	}
	if err := entry.build.WireConsuming(newWiringContext(r, entry)); err != nil {
		return errors.Annotatef(err, "wiring build %q", name)
	}
	for _, enver := range envers {
		if err := enver.MarkWired(); err != nil {
			return errors.Annotatef(err, "build %q", name)
		}
	}
	entry.state = BuildWired
	logger.Debugf("wired build %q", name)
	return nil
}

// index collects every node, producer and consumer once all builds wired,
// and checks every declared identity lives in its build's namespace.
func (r *Registry) index() error {
	for _, enver := range r.enverOrder {
		for _, producer := range enver.Producers() {
			r.producers = append(r.producers, producer)
			for _, node := range producer.Nodes() {
				r.nodes[node.Address()] = node
			}
		}
		consumers, err := enver.Consumers()
		if err != nil {
			return errors.Trace(err)
		}
		r.consumers = append(r.consumers, consumers...)

		for _, id := range enver.Identities() {
			if err := enver.Namespace().Validate(id); err != nil {
				return errors.Annotatef(err, "build %q", enver.Build())
			}
		}
	}
	return nil
}

// Config returns the deployment context the registry was constructed with.
func (r *Registry) Config() config.Config {
	return r.config
}

// Builds returns the builds in registration order.
func (r *Registry) Builds() []Build {
	builds := make([]Build, len(r.entries))
	for i, entry := range r.entries {
		builds[i] = entry.build
	}
	return builds
}

// Build returns the build with the given name.
func (r *Registry) Build(name string) (Build, error) {
	entry, ok := r.byName[name]
	if !ok {
		return nil, errors.Annotatef(coreerrors.UnresolvedReference, "build %q", name)
	}
	return entry.build, nil
}

// BuildState returns the wiring state of build name.
func (r *Registry) BuildState(name string) (BuildState, error) {
	entry, ok := r.byName[name]
	if !ok {
		return 0, errors.Annotatef(coreerrors.UnresolvedReference, "build %q", name)
	}
	return entry.state, nil
}

// Order returns the order the builds were wired in.
func (r *Registry) Order() []string {
	return append([]string(nil), r.order...)
}

// RequiredBy returns the builds declaring name as a requirement.
func (r *Registry) RequiredBy(name string) []string {
	return r.graph.DependentsOf(name)
}

// Envers returns every environment, grouped by build in registration order.
func (r *Registry) Envers() []*contract.Enver {
	return append([]*contract.Enver(nil), r.enverOrder...)
}

// Enver returns the environment with the given key.
func (r *Registry) Enver(key contract.EnverKey) (*contract.Enver, error) {
	enver, ok := r.envers[key]
	if !ok {
		return nil, errors.Annotatef(coreerrors.UnresolvedReference, "environment %q", key)
	}
	return enver, nil
}

// Producers returns every producer.
func (r *Registry) Producers() []*contract.Producer {
	return append([]*contract.Producer(nil), r.producers...)
}

// Consumers returns every consumer.
func (r *Registry) Consumers() []*contract.Consumer {
	return append([]*contract.Consumer(nil), r.consumers...)
}

// Lookup returns the node at addr.
func (r *Registry) Lookup(addr contract.Address) (*contract.Node, error) {
	node, ok := r.nodes[addr]
	if !ok {
		return nil, errors.Annotatef(coreerrors.UnresolvedReference, "node %q", addr)
	}
	return node, nil
}

// Consumer returns the consumer with the given edge key.
func (r *Registry) Consumer(key contract.EdgeKey) (*contract.Consumer, error) {
	for _, consumer := range r.consumers {
		if consumer.Key() == key {
			return consumer, nil
		}
	}
	return nil, errors.Annotatef(coreerrors.UnresolvedReference, "consumer %q", key)
}

// Dependents returns the consumers of the node at addr or of any node
// below it.
func (r *Registry) Dependents(addr contract.Address) ([]*contract.Consumer, error) {
	if _, err := r.Lookup(addr); err != nil {
		return nil, errors.Trace(err)
	}
	var dependents []*contract.Consumer
	for _, consumer := range r.consumers {
		target := consumer.Target().Address()
		if target.Enver != addr.Enver {
			continue
		}
		if target.Path == addr.Path || strings.HasPrefix(target.Path, addr.Path+"/") {
			dependents = append(dependents, consumer)
		}
	}
	return dependents, nil
}

// RedeployTargets returns the environments to redeploy when the value at
// addr changes: the owners of its dependents that propagate directly.
func (r *Registry) RedeployTargets(addr contract.Address) ([]*contract.Enver, error) {
	dependents, err := r.Dependents(addr)
	if err != nil {
		return nil, errors.Trace(err)
	}
	seen := set.NewStrings()
	var targets []*contract.Enver
	for _, consumer := range dependents {
		if consumer.Propagation() != contract.PropagateDirect {
			continue
		}
		owner := consumer.Owner()
		if seen.Contains(string(owner.Key())) {
			continue
		}
		seen.Add(string(owner.Key()))
		targets = append(targets, owner)
	}
	return targets, nil
}
