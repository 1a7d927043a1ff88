// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package registry

import (
	"fmt"

	"github.com/juju/errors"
	"github.com/juju/names/v5"

	"github.com/ondemandenv/contracts/core/contract"
	coreerrors "github.com/ondemandenv/contracts/core/errors"
	"github.com/ondemandenv/contracts/internal/config"
)

// Build is one microservice build: its source repository, its deployable
// environments, and the producers and consumers they expose.
type Build interface {
	// Name returns the build name, unique in the registry.
	Name() string

	// Repository returns the source repository of the build.
	Repository() RepositoryIdentity

	// Envers returns the build's environments.
	Envers() []*contract.Enver

	// Requires returns the builds that must be wired before this one,
	// because this build reads producers they only create while wiring.
	Requires() []string

	// WireConsuming attaches the build's consumers and creates its late
	// producers. It is called exactly once, by the registry.
	WireConsuming(ctx *WiringContext) error
}

// Factory constructs a build, including its environments and eager
// producers.
type Factory func(cfg config.Config) (Build, error)

// RepositoryIdentity names a source repository, "<owner>/<name>".
type RepositoryIdentity struct {
	Owner string `yaml:"owner" json:"owner"`
	Name  string `yaml:"name" json:"name"`
}

// String implements fmt.Stringer.
func (r RepositoryIdentity) String() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

// Validate checks the identity is complete.
func (r RepositoryIdentity) Validate() error {
	if r.Owner == "" || r.Name == "" {
		return errors.NotValidf("repository %q", r.String())
	}
	return nil
}

// BuildBase holds the bookkeeping common to every build. Builds embed it and
// implement WireConsuming.
type BuildBase struct {
	name       string
	repository RepositoryIdentity
	requires   []string
	envers     []*contract.Enver
}

// NewBuildBase returns the base of build name.
func NewBuildBase(name string, repository RepositoryIdentity, requires ...string) (BuildBase, error) {
	if !names.IsValidApplication(name) {
		return BuildBase{}, errors.NotValidf("build name %q", name)
	}
	if err := repository.Validate(); err != nil {
		return BuildBase{}, errors.Annotatef(err, "build %q", name)
	}
	return BuildBase{
		name:       name,
		repository: repository,
		requires:   append([]string(nil), requires...),
	}, nil
}

// Name is part of the Build interface.
func (b *BuildBase) Name() string {
	return b.name
}

// Repository is part of the Build interface.
func (b *BuildBase) Repository() RepositoryIdentity {
	return b.repository
}

// Requires is part of the Build interface.
func (b *BuildBase) Requires() []string {
	return append([]string(nil), b.requires...)
}

// Envers is part of the Build interface.
func (b *BuildBase) Envers() []*contract.Enver {
	return append([]*contract.Enver(nil), b.envers...)
}

// AddEnver creates an environment of the build.
func (b *BuildBase) AddEnver(args contract.EnverArgs) (*contract.Enver, error) {
	args.Build = b.name
	enver, err := contract.NewEnver(args)
	if err != nil {
		return nil, errors.Trace(err)
	}
	for _, existing := range b.envers {
		if existing.Key() == enver.Key() {
			return nil, errors.Annotatef(coreerrors.DuplicateRegistration, "environment %q", enver.Key())
		}
	}
	b.envers = append(b.envers, enver)
	return enver, nil
}

// Enver returns the build's environment with the given name.
func (b *BuildBase) Enver(name string) (*contract.Enver, error) {
	for _, enver := range b.envers {
		if enver.Name() == name {
			return enver, nil
		}
	}
	return nil, errors.Annotatef(coreerrors.UnresolvedReference, "environment %q of build %q", name, b.name)
}

// BuildState is the wiring state of a build in the registry.
type BuildState int

const (
	// BuildConstructed builds have their eager producers.
	BuildConstructed BuildState = iota

	// BuildWiring builds are inside WireConsuming.
	BuildWiring

	// BuildWired builds have all their consumers and late producers.
	BuildWired
)

// String implements fmt.Stringer.
func (s BuildState) String() string {
	switch s {
	case BuildConstructed:
		return "constructed"
	case BuildWiring:
		return "wiring"
	case BuildWired:
		return "wired"
	}
	return fmt.Sprintf("BuildState(%d)", int(s))
}
