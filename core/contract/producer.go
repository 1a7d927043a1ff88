// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package contract

import (
	"strings"

	"github.com/juju/errors"
)

// Producer is a tree of resource handles exposed by exactly one
// environment. It never changes once added to its environment.
type Producer struct {
	owner *Enver
	root  *Node
	late  bool
}

// Owner returns the environment exposing the producer.
func (p *Producer) Owner() *Enver {
	return p.owner
}

// Root returns the producer's root node.
func (p *Producer) Root() *Node {
	return p.root
}

// Name returns the root segment.
func (p *Producer) Name() string {
	return p.root.segment
}

// Late reports whether the producer was added while its environment was
// being wired, i.e. it only exists once the owning build wired.
func (p *Producer) Late() bool {
	return p.late
}

// Lookup returns the node at path below the root, "<child>/<grandchild>".
func (p *Producer) Lookup(path string) (*Node, error) {
	node := p.root
	for _, segment := range strings.Split(path, pathSeparator) {
		child, err := node.Child(segment)
		if err != nil {
			return nil, errors.Trace(err)
		}
		node = child
	}
	return node, nil
}

// MustLookup is Lookup for accessors over trees declared in code, where a
// missing node is a programming error.
func (p *Producer) MustLookup(path string) *Node {
	node, err := p.Lookup(path)
	if err != nil {
		panic(err)
	}
	return node
}

// Walk calls fn for every node of the tree, depth first, in insertion order.
func (p *Producer) Walk(fn func(*Node) error) error {
	return p.root.walk(fn)
}

// Nodes returns every node of the tree, depth first, in insertion order.
func (p *Producer) Nodes() []*Node {
	var nodes []*Node
	_ = p.Walk(func(n *Node) error {
		nodes = append(nodes, n)
		return nil
	})
	return nodes
}
