// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package contract

import (
	"strings"

	"github.com/juju/errors"
)

// Propagation says whether a change of the target value redeploys the
// consuming environment.
type Propagation string

const (
	// PropagateDirect redeploys the consumer when the target changes.
	PropagateDirect Propagation = "direct"

	// PropagateNone records the reference without triggering redeploys.
	PropagateNone Propagation = "none"
)

// Validate checks the propagation is known.
func (p Propagation) Validate() error {
	switch p {
	case PropagateDirect, PropagateNone:
		return nil
	}
	return errors.NotValidf("propagation %q", string(p))
}

// ConsumerArgs holds the optional settings of a consumer edge.
type ConsumerArgs struct {
	// Fallback is used at deploy time when the target has not produced a
	// value yet.
	Fallback *string

	// Propagation defaults to PropagateDirect.
	Propagation Propagation
}

// WithFallback returns ConsumerArgs carrying the fallback value.
func WithFallback(value string) ConsumerArgs {
	return ConsumerArgs{Fallback: &value}
}

// EdgeKey is the symbolic key a consumer's deploy time value is stored
// under: "<owner enver key>-><target address>".
type EdgeKey string

const edgeArrow = "->"

// NewEdgeKey returns the key of the edge from owner to target.
func NewEdgeKey(owner EnverKey, target Address) EdgeKey {
	return EdgeKey(string(owner) + edgeArrow + target.String())
}

// ParseEdgeKey splits an edge key into its owner and target.
func ParseEdgeKey(s string) (EnverKey, Address, error) {
	owner, target, ok := strings.Cut(s, edgeArrow)
	if !ok {
		return "", Address{}, errors.NotValidf("edge key %q, must be <build>/<enver>-><address>", s)
	}
	key := EnverKey(owner)
	if err := key.Validate(); err != nil {
		return "", Address{}, errors.Annotatef(err, "edge key %q", s)
	}
	addr, err := ParseAddress(target)
	if err != nil {
		return "", Address{}, errors.Annotatef(err, "edge key %q", s)
	}
	return key, addr, nil
}

// Consumer is a directed edge from an environment to a node of another
// environment's producer.
type Consumer struct {
	owner       *Enver
	target      *Node
	fallback    *string
	propagation Propagation
}

// Owner returns the consuming environment.
func (c *Consumer) Owner() *Enver {
	return c.owner
}

// Target returns the consumed node.
func (c *Consumer) Target() *Node {
	return c.target
}

// Fallback returns the fallback value and whether one was declared.
func (c *Consumer) Fallback() (string, bool) {
	if c.fallback == nil {
		return "", false
	}
	return *c.fallback, true
}

// Propagation returns the redeploy policy of the edge.
func (c *Consumer) Propagation() Propagation {
	return c.propagation
}

// Key returns the symbolic key of the edge.
func (c *Consumer) Key() EdgeKey {
	return NewEdgeKey(c.owner.Key(), c.target.Address())
}

// String implements fmt.Stringer.
func (c *Consumer) String() string {
	return string(c.Key())
}
