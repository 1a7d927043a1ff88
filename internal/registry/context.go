// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package registry

import (
	"github.com/juju/collections/set"
	"github.com/juju/errors"

	"github.com/ondemandenv/contracts/core/contract"
	coreerrors "github.com/ondemandenv/contracts/core/errors"
	"github.com/ondemandenv/contracts/internal/config"
)

// WiringContext is handed to a build's WireConsuming. It resolves the
// producers of other builds and attaches consumers, rejecting reads of
// producers the build has not declared a dependency on.
type WiringContext struct {
	registry *Registry
	entry    *buildEntry
	readable set.Strings
}

func newWiringContext(r *Registry, entry *buildEntry) *WiringContext {
	readable := set.NewStrings(entry.build.Requires()...)
	readable.Add(entry.build.Name())
	return &WiringContext{
		registry: r,
		entry:    entry,
		readable: readable,
	}
}

// Build returns the build being wired.
func (ctx *WiringContext) Build() Build {
	return ctx.entry.build
}

// Config returns the deployment context of the registry.
func (ctx *WiringContext) Config() config.Config {
	return ctx.registry.config
}

// Enver returns the environment with the given key.
func (ctx *WiringContext) Enver(key contract.EnverKey) (*contract.Enver, error) {
	enver, ok := ctx.registry.envers[key]
	if !ok {
		return nil, errors.Annotatef(coreerrors.UnresolvedReference, "environment %q read by build %q", key, ctx.entry.build.Name())
	}
	return enver, nil
}

// Producer returns the producer rooted at root on environment key.
//
// Eager producers of any build can be read. Late producers can only be read
// from builds listed in Requires; a late producer that does not exist yet is
// an unresolved reference.
func (ctx *WiringContext) Producer(key contract.EnverKey, root string) (*contract.Producer, error) {
	enver, err := ctx.Enver(key)
	if err != nil {
		return nil, errors.Trace(err)
	}
	producer, err := enver.Producer(root)
	if err != nil {
		if target := ctx.registry.byName[key.Build()]; target != nil && target.state != BuildWired {
			return nil, errors.Annotatef(err, "build %q is %s", key.Build(), target.state)
		}
		return nil, errors.Trace(err)
	}
	if err := ctx.checkReadable(producer); err != nil {
		return nil, errors.Trace(err)
	}
	return producer, nil
}

// Node returns the node at addr.
func (ctx *WiringContext) Node(addr contract.Address) (*contract.Node, error) {
	producer, err := ctx.Producer(addr.Enver, addr.Root())
	if err != nil {
		return nil, errors.Trace(err)
	}
	if addr.Path == addr.Root() {
		return producer.Root(), nil
	}
	node, err := producer.Lookup(addr.Path[len(addr.Root())+1:])
	if err != nil {
		return nil, errors.Trace(err)
	}
	return node, nil
}

// Consume attaches a consumer from owner, an environment of the build being
// wired, to target.
func (ctx *WiringContext) Consume(owner *contract.Enver, target *contract.Node, args contract.ConsumerArgs) (*contract.Consumer, error) {
	if owner == nil || owner.Build() != ctx.entry.build.Name() {
		return nil, errors.NotValidf("consumer owner %v wired by build %q", owner, ctx.entry.build.Name())
	}
	if target == nil {
		return nil, errors.Annotatef(coreerrors.UnresolvedReference, "nil target consumed by %q", owner.Key())
	}
	if registered, ok := ctx.registry.envers[target.Owner().Key()]; !ok || registered != target.Owner() {
		return nil, errors.Annotatef(coreerrors.UnresolvedReference, "node %q is not registered", target.Address())
	}
	if err := ctx.checkReadable(target.Producer()); err != nil {
		return nil, errors.Trace(err)
	}
	consumer, err := owner.AttachConsumer(target, args)
	if err != nil {
		return nil, errors.Trace(err)
	}
	logger.Tracef("%s consumes %s", owner.Key(), target.Address())
	return consumer, nil
}

func (ctx *WiringContext) checkReadable(producer *contract.Producer) error {
	if !producer.Late() {
		return nil
	}
	build := producer.Owner().Build()
	if ctx.readable.Contains(build) {
		return nil
	}
	return errors.Annotatef(coreerrors.UndeclaredDependency,
		"build %q reads producer %q created while %q wired, without requiring it",
		ctx.entry.build.Name(), producer.Root().Address(), build)
}
