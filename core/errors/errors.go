// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package errors holds the error values raised while building and wiring the
// contracts graph. All of them are synthesis-time failures: callers annotate
// them with the offending node or edge and abort, nothing retries them.
package errors

import (
	"github.com/juju/errors"
)

const (
	// DuplicateRegistration is raised when two builds share a name or an
	// identity, when a producer root is registered twice on one environment,
	// or when a second registry is constructed through the same guard.
	DuplicateRegistration = errors.ConstError("duplicate registration")

	// UnresolvedReference is raised when a node, producer, environment or
	// build is addressed but does not exist (yet).
	UnresolvedReference = errors.ConstError("unresolved reference")

	// MissingConfiguration is raised when account, region or revision context
	// required to construct the registry is absent.
	MissingConfiguration = errors.ConstError("missing configuration")

	// NamingConventionViolation is raised when an identity is declared
	// outside of its service's hierarchical namespace.
	NamingConventionViolation = errors.ConstError("naming convention violation")

	// CycleDetected is raised when the declared wiring requirements of the
	// builds cannot be ordered.
	CycleDetected = errors.ConstError("wiring cycle detected")

	// UndeclaredDependency is raised when a build reads a producer that only
	// exists after another build wired, without declaring that build as a
	// requirement.
	UndeclaredDependency = errors.ConstError("undeclared wiring dependency")

	// NotWired is raised when consumers are read before wiring completed.
	NotWired = errors.ConstError("not wired")

	// AlreadyWired is raised when wiring is attempted a second time.
	AlreadyWired = errors.ConstError("already wired")

	// ValueNotDeployed is raised when a consumer is resolved, its target has
	// never published a value and no fallback was declared.
	ValueNotDeployed = errors.ConstError("value not deployed")
)
