// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package naming

import (
	"github.com/juju/errors"
	"github.com/juju/names/v5"

	coreerrors "github.com/ondemandenv/contracts/core/errors"
)

// Namespace is the hierarchical name space owned by one service. Identities
// created by the service must live inside it, otherwise trust patterns other
// services grant over the namespace would not cover them, or worse, would
// cover identities the service does not own.
type Namespace struct {
	service string
}

// NewNamespace returns the namespace owned by service.
func NewNamespace(service string) (Namespace, error) {
	if !names.IsValidApplication(service) {
		return Namespace{}, errors.NotValidf("namespace service %q", service)
	}
	return Namespace{service: service}, nil
}

// Service returns the service owning the namespace.
func (ns Namespace) Service() string {
	return ns.service
}

// String returns the namespace prefix, e.g. "embedding/".
func (ns Namespace) String() string {
	return ns.service + "/"
}

// Identity returns the identity for component inside the namespace.
func (ns Namespace) Identity(component, accountID, region string) (Identity, error) {
	id := Identity{
		Service:   ns.service,
		Component: component,
		AccountID: accountID,
		Region:    region,
	}
	if err := id.Validate(); err != nil {
		return Identity{}, errors.Annotatef(coreerrors.NamingConventionViolation, "identity %q in namespace %q: %v", id, ns, err)
	}
	return id, nil
}

// Validate checks that id is a well formed identity inside the namespace.
func (ns Namespace) Validate(id Identity) error {
	if err := id.Validate(); err != nil {
		return errors.Annotatef(coreerrors.NamingConventionViolation, "identity %q in namespace %q: %v", id, ns, err)
	}
	if id.Service != ns.service {
		return errors.Annotatef(coreerrors.NamingConventionViolation, "identity %q outside namespace %q", id, ns)
	}
	return nil
}

// ValidateName parses name and checks it belongs to the namespace.
func (ns Namespace) ValidateName(name string) (Identity, error) {
	id, err := ParseIdentity(name)
	if err != nil {
		return Identity{}, errors.Annotatef(coreerrors.NamingConventionViolation, "identity %q in namespace %q: %v", name, ns, err)
	}
	if err := ns.Validate(id); err != nil {
		return Identity{}, errors.Trace(err)
	}
	return id, nil
}

// TrustPattern returns the pattern granting trust to every identity of the
// namespace in the given account, and region when not empty.
func (ns Namespace) TrustPattern(accountID, region string) TrustPattern {
	return TrustPattern{
		Service:   ns.service,
		AccountID: accountID,
		Region:    region,
	}
}
