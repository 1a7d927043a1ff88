// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package naming

import (
	"fmt"
	"regexp"

	"github.com/juju/errors"
	"github.com/juju/names/v5"
)

const (
	// ComponentSnippet matches the component part of an identity.
	ComponentSnippet = "[a-z][a-z0-9]*(?:-[a-z0-9]+)*"

	// AccountSnippet matches an account id.
	AccountSnippet = "[0-9]+"

	// RegionSnippet matches a region such as us-east-1 or us-gov-west-1.
	RegionSnippet = "[a-z]{2}(?:-[a-z]+)+-[0-9]+"
)

var (
	validComponent = regexp.MustCompile("^" + ComponentSnippet + "$")
	validAccount   = regexp.MustCompile("^" + AccountSnippet + "$")
	validRegion    = regexp.MustCompile("^" + RegionSnippet + "$")

	// identityRegexp parses names of the form
	// <service>/<component>-<account>-<region>.
	identityRegexp = regexp.MustCompile(
		`^(?P<service>[^/]+)/(?P<component>` + ComponentSnippet + `)-(?P<account>` + AccountSnippet + `)-(?P<region>` + RegionSnippet + `)$`,
	)
)

// IsValidComponent reports whether component can be used as the component
// part of an identity.
func IsValidComponent(component string) bool {
	return validComponent.MatchString(component)
}

// IsValidAccount reports whether account looks like an account id.
func IsValidAccount(account string) bool {
	return validAccount.MatchString(account)
}

// IsValidRegion reports whether region looks like a cloud region.
func IsValidRegion(region string) bool {
	return validRegion.MatchString(region)
}

// Identity is a runtime principal (a role, a function) created by a service.
// Every identity lives under its service's namespace so that other services
// can trust the whole family with a prefix pattern.
type Identity struct {
	// Service is the namespace owner, e.g. "embedding".
	Service string

	// Component names the principal inside the service, e.g. "processor".
	Component string

	// AccountID is the account the identity is created in.
	AccountID string

	// Region is the region the identity is created in.
	Region string
}

// String returns the hierarchical name of the identity:
// <service>/<component>-<account>-<region>.
func (id Identity) String() string {
	return fmt.Sprintf("%s/%s-%s-%s", id.Service, id.Component, id.AccountID, id.Region)
}

// Name returns the last path element of the identity, i.e. everything after
// the service namespace.
func (id Identity) Name() string {
	return fmt.Sprintf("%s-%s-%s", id.Component, id.AccountID, id.Region)
}

// Validate checks every part of the identity.
func (id Identity) Validate() error {
	if !names.IsValidApplication(id.Service) {
		return errors.NotValidf("identity service %q", id.Service)
	}
	if !IsValidComponent(id.Component) {
		return errors.NotValidf("identity component %q", id.Component)
	}
	if !IsValidAccount(id.AccountID) {
		return errors.NotValidf("identity account %q", id.AccountID)
	}
	if !IsValidRegion(id.Region) {
		return errors.NotValidf("identity region %q", id.Region)
	}
	return nil
}

// ParseIdentity parses a hierarchical identity name of the form
//
//	<service>/<component>-<account>-<region>
//
// The component may itself contain dashes; the account and region are
// taken from the end of the name.
func ParseIdentity(name string) (Identity, error) {
	if !identityRegexp.MatchString(name) {
		return Identity{}, errors.NotValidf("identity %q, must be <service>/<component>-<account>-<region>", name)
	}
	id := Identity{
		Service:   identityRegexp.ReplaceAllString(name, "$service"),
		Component: identityRegexp.ReplaceAllString(name, "$component"),
		AccountID: identityRegexp.ReplaceAllString(name, "$account"),
		Region:    identityRegexp.ReplaceAllString(name, "$region"),
	}
	if err := id.Validate(); err != nil {
		return Identity{}, errors.Trace(err)
	}
	return id, nil
}
