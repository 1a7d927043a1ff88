// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package contract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/juju/collections/set"
	"github.com/juju/errors"

	coreerrors "github.com/ondemandenv/contracts/core/errors"
	"github.com/ondemandenv/contracts/core/naming"
)

// NodeKind distinguishes live resources from versioned content.
type NodeKind int

const (
	// LiveResource is an addressable runtime artifact: a bucket, an
	// endpoint, an event bus.
	LiveResource NodeKind = iota

	// SchemaArtifact is an opaque pointer to an externally stored,
	// revision stamped document. See SchemaURI.
	SchemaArtifact
)

// String implements fmt.Stringer.
func (k NodeKind) String() string {
	switch k {
	case LiveResource:
		return "resource"
	case SchemaArtifact:
		return "schema"
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k NodeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

const pathSeparator = "/"

var validSegment = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// NodeSpec declares a node of a producer tree. Specs are turned into
// immutable nodes when the producer is added to its environment.
type NodeSpec struct {
	Segment  string
	Kind     NodeKind
	Children []NodeSpec

	// Grants lists the identity families allowed to access the resource.
	Grants []naming.TrustPattern
}

// Leaf declares a live resource node.
func Leaf(segment string, grants ...naming.TrustPattern) NodeSpec {
	return NodeSpec{Segment: segment, Kind: LiveResource, Grants: grants}
}

// Schema declares a schema artifact node.
func Schema(segment string) NodeSpec {
	return NodeSpec{Segment: segment, Kind: SchemaArtifact}
}

// Group declares an internal node.
func Group(segment string, children ...NodeSpec) NodeSpec {
	return NodeSpec{Segment: segment, Kind: LiveResource, Children: children}
}

// Node is one addressable artifact of a producer tree.
type Node struct {
	segment  string
	kind     NodeKind
	grants   []naming.TrustPattern
	parent   *Node
	producer *Producer
	children []*Node
	byName   map[string]*Node
}

// Segment returns the node's path segment, unique among its siblings.
func (n *Node) Segment() string {
	return n.segment
}

// Kind returns the node kind.
func (n *Node) Kind() NodeKind {
	return n.kind
}

// IsSchemaArtifact reports whether the node points at versioned content.
func (n *Node) IsSchemaArtifact() bool {
	return n.kind == SchemaArtifact
}

// Grants returns the trust patterns declared on the node.
func (n *Node) Grants() []naming.TrustPattern {
	return append([]naming.TrustPattern(nil), n.grants...)
}

// Parent returns the parent node, nil for a producer root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Producer returns the producer the node belongs to.
func (n *Node) Producer() *Producer {
	return n.producer
}

// Owner returns the environment owning the node's producer.
func (n *Node) Owner() *Enver {
	return n.producer.owner
}

// Children returns the children in insertion order.
func (n *Node) Children() []*Node {
	return append([]*Node(nil), n.children...)
}

// Path returns the segments from the producer root down to the node joined
// with "/".
func (n *Node) Path() string {
	if n.parent == nil {
		return n.segment
	}
	return n.parent.Path() + pathSeparator + n.segment
}

// Address returns the node's address, unique across the whole graph.
func (n *Node) Address() Address {
	return Address{Enver: n.producer.owner.Key(), Path: n.Path()}
}

// Child returns the child with the given segment.
func (n *Node) Child(segment string) (*Node, error) {
	child, ok := n.byName[segment]
	if !ok {
		return nil, errors.Annotatef(coreerrors.UnresolvedReference, "node %q has no child %q", n.Address(), segment)
	}
	return child, nil
}

// ChildAt returns the child at the ordinal position assigned when the
// producer was declared.
func (n *Node) ChildAt(i int) (*Node, error) {
	if i < 0 || i >= len(n.children) {
		return nil, errors.Annotatef(coreerrors.UnresolvedReference, "node %q has no child at %d (%d children)", n.Address(), i, len(n.children))
	}
	return n.children[i], nil
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	return n.Address().String()
}

func (n *Node) walk(fn func(*Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, child := range n.children {
		if err := child.walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// buildNode turns spec into a node owned by producer, validating segments
// and sibling uniqueness.
func buildNode(producer *Producer, parent *Node, spec NodeSpec) (*Node, error) {
	node := &Node{
		segment:  spec.Segment,
		kind:     spec.Kind,
		grants:   append([]naming.TrustPattern(nil), spec.Grants...),
		parent:   parent,
		producer: producer,
		byName:   make(map[string]*Node, len(spec.Children)),
	}
	if !validSegment.MatchString(spec.Segment) {
		return nil, errors.NotValidf("segment %q of node %q", spec.Segment, node.Address())
	}
	if spec.Kind == SchemaArtifact && len(spec.Children) > 0 {
		return nil, errors.NotValidf("schema artifact %q with children", node.Address())
	}
	for _, grant := range spec.Grants {
		if err := grant.Validate(); err != nil {
			return nil, errors.Annotatef(err, "grant on node %q", node.Address())
		}
	}
	seen := set.NewStrings()
	for _, childSpec := range spec.Children {
		if seen.Contains(childSpec.Segment) {
			return nil, errors.NotValidf("duplicate child %q of node %q", childSpec.Segment, node.Address())
		}
		seen.Add(childSpec.Segment)
		child, err := buildNode(producer, node, childSpec)
		if err != nil {
			return nil, errors.Trace(err)
		}
		node.children = append(node.children, child)
		node.byName[child.segment] = child
	}
	return node, nil
}

// Address locates a node in the graph: the owning environment and the path
// below it, rendered as "<build>/<enver>:<root>/<child>/...".
type Address struct {
	Enver EnverKey
	Path  string
}

// String implements fmt.Stringer.
func (a Address) String() string {
	return string(a.Enver) + ":" + a.Path
}

// Root returns the producer root segment of the address.
func (a Address) Root() string {
	root, _, _ := strings.Cut(a.Path, pathSeparator)
	return root
}

// ParseAddress parses "<build>/<enver>:<path>".
func ParseAddress(s string) (Address, error) {
	enver, path, ok := strings.Cut(s, ":")
	if !ok || path == "" {
		return Address{}, errors.NotValidf("address %q, must be <build>/<enver>:<path>", s)
	}
	key := EnverKey(enver)
	if err := key.Validate(); err != nil {
		return Address{}, errors.Annotatef(err, "address %q", s)
	}
	for _, segment := range strings.Split(path, pathSeparator) {
		if !validSegment.MatchString(segment) {
			return Address{}, errors.NotValidf("segment %q of address %q", segment, s)
		}
	}
	return Address{Enver: key, Path: path}, nil
}
