// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package naming

import (
	"strings"

	"github.com/juju/errors"
	"github.com/juju/names/v5"
)

// Wildcard is the suffix of a trust pattern matching every identity under a
// service namespace.
const Wildcard = "/*"

// TrustPattern grants trust to a family of identities: every identity in the
// service namespace, scoped to an account and optionally a region.
//
// A pattern stands in for an edge to an exact identity, so no deploy order is
// implied between the granting and the trusted service. It covers anything
// created under the namespace in that account; the account scope is
// mandatory.
type TrustPattern struct {
	// Service is the trusted namespace.
	Service string

	// AccountID scopes the pattern to one account.
	AccountID string

	// Region optionally scopes the pattern to one region.
	Region string
}

// ParseTrustPattern parses a pattern of the form <service>/* and scopes it
// to the given account and region.
func ParseTrustPattern(pattern, accountID, region string) (TrustPattern, error) {
	if !strings.HasSuffix(pattern, Wildcard) {
		return TrustPattern{}, errors.NotValidf("trust pattern %q, must be <service>/*", pattern)
	}
	p := TrustPattern{
		Service:   strings.TrimSuffix(pattern, Wildcard),
		AccountID: accountID,
		Region:    region,
	}
	if err := p.Validate(); err != nil {
		return TrustPattern{}, errors.Trace(err)
	}
	return p, nil
}

// String returns the pattern without its scope, e.g. "embedding/*".
func (p TrustPattern) String() string {
	return p.Service + Wildcard
}

// Validate checks the pattern and its scope.
func (p TrustPattern) Validate() error {
	if !names.IsValidApplication(p.Service) {
		return errors.NotValidf("trust pattern service %q", p.Service)
	}
	if p.AccountID == "" {
		return errors.NotValidf("trust pattern %q without account scope", p)
	}
	if !IsValidAccount(p.AccountID) {
		return errors.NotValidf("trust pattern account %q", p.AccountID)
	}
	if p.Region != "" && !IsValidRegion(p.Region) {
		return errors.NotValidf("trust pattern region %q", p.Region)
	}
	return nil
}

// Matches reports whether id falls under the pattern. An unscoped pattern
// (empty account) matches nothing.
func (p TrustPattern) Matches(id Identity) bool {
	if p.AccountID == "" {
		return false
	}
	if id.Service != p.Service || id.AccountID != p.AccountID {
		return false
	}
	return p.Region == "" || id.Region == p.Region
}

// MatchesName parses name as an identity and reports whether it falls under
// the pattern. Malformed names never match.
func (p TrustPattern) MatchesName(name string) bool {
	id, err := ParseIdentity(name)
	if err != nil {
		return false
	}
	return p.Matches(id)
}
