// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package dag orders vertices by their declared dependencies.
package dag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/juju/errors"

	coreerrors "github.com/ondemandenv/contracts/core/errors"
)

// Vertex is a node of the graph.
type Vertex[K comparable] struct {
	ID K

	// Order breaks ties between vertices that are ready at the same time;
	// lower orders come first.
	Order int

	// DependsOn holds the vertices that must come before this one.
	DependsOn map[K]struct{}
}

// DirectedAcyclicGraph holds vertices and their dependencies. Cycles may be
// added; they are reported by TopologicalSort.
type DirectedAcyclicGraph[K comparable] struct {
	Vertices map[K]*Vertex[K]
}

// NewDirectedAcyclicGraph returns an empty graph.
func NewDirectedAcyclicGraph[K comparable]() *DirectedAcyclicGraph[K] {
	return &DirectedAcyclicGraph[K]{
		Vertices: make(map[K]*Vertex[K]),
	}
}

// AddVertex adds a vertex with the given tie-break order.
func (d *DirectedAcyclicGraph[K]) AddVertex(id K, order int) error {
	if _, exists := d.Vertices[id]; exists {
		return errors.Annotatef(coreerrors.DuplicateRegistration, "vertex %v", id)
	}
	d.Vertices[id] = &Vertex[K]{
		ID:        id,
		Order:     order,
		DependsOn: make(map[K]struct{}),
	}
	return nil
}

// AddDependencies records that from must come after every vertex in
// dependencies.
func (d *DirectedAcyclicGraph[K]) AddDependencies(from K, dependencies []K) error {
	vertex, ok := d.Vertices[from]
	if !ok {
		return errors.Annotatef(coreerrors.UnresolvedReference, "vertex %v", from)
	}
	for _, dep := range dependencies {
		if dep == from {
			return &CycleError[K]{Cycle: []K{from, from}}
		}
		if _, ok := d.Vertices[dep]; !ok {
			return errors.Annotatef(coreerrors.UnresolvedReference, "vertex %v depends on %v", from, dep)
		}
		vertex.DependsOn[dep] = struct{}{}
	}
	return nil
}

// DependenciesOf returns the direct dependencies of id sorted by order.
func (d *DirectedAcyclicGraph[K]) DependenciesOf(id K) []K {
	vertex, ok := d.Vertices[id]
	if !ok {
		return nil
	}
	deps := make([]*Vertex[K], 0, len(vertex.DependsOn))
	for dep := range vertex.DependsOn {
		deps = append(deps, d.Vertices[dep])
	}
	return ids(sortByOrder(deps))
}

// DependentsOf returns the vertices depending directly on id sorted by
// order.
func (d *DirectedAcyclicGraph[K]) DependentsOf(id K) []K {
	var dependents []*Vertex[K]
	for _, vertex := range d.Vertices {
		if _, ok := vertex.DependsOn[id]; ok {
			dependents = append(dependents, vertex)
		}
	}
	return ids(sortByOrder(dependents))
}

// TopologicalSort returns every vertex after its dependencies. Among the
// vertices whose dependencies are satisfied the lowest order is emitted
// first, so the result is deterministic. A cycle is reported as a
// *CycleError.
func (d *DirectedAcyclicGraph[K]) TopologicalSort() ([]K, error) {
	remaining := make(map[K]int, len(d.Vertices))
	for id, vertex := range d.Vertices {
		remaining[id] = len(vertex.DependsOn)
	}

	var order []K
	for len(remaining) > 0 {
		var ready []*Vertex[K]
		for id, pending := range remaining {
			if pending == 0 {
				ready = append(ready, d.Vertices[id])
			}
		}
		if len(ready) == 0 {
			return nil, &CycleError[K]{Cycle: d.findCycle(remaining)}
		}
		next := sortByOrder(ready)[0]
		order = append(order, next.ID)
		delete(remaining, next.ID)
		for id := range remaining {
			if _, ok := d.Vertices[id].DependsOn[next.ID]; ok {
				remaining[id]--
			}
		}
	}
	return order, nil
}

// findCycle walks dependencies among the unsorted vertices, starting from
// the lowest order one, until a vertex repeats. Every unsorted vertex has
// an unsorted dependency, so the walk always closes a cycle.
func (d *DirectedAcyclicGraph[K]) findCycle(remaining map[K]int) []K {
	var candidates []*Vertex[K]
	for id := range remaining {
		candidates = append(candidates, d.Vertices[id])
	}
	current := sortByOrder(candidates)[0]

	position := make(map[K]int)
	var path []K
	for {
		if start, seen := position[current.ID]; seen {
			return append(path[start:], current.ID)
		}
		position[current.ID] = len(path)
		path = append(path, current.ID)

		var deps []*Vertex[K]
		for dep := range current.DependsOn {
			if _, ok := remaining[dep]; ok {
				deps = append(deps, d.Vertices[dep])
			}
		}
		current = sortByOrder(deps)[0]
	}
}

func sortByOrder[K comparable](vertices []*Vertex[K]) []*Vertex[K] {
	sort.SliceStable(vertices, func(i, j int) bool {
		return vertices[i].Order < vertices[j].Order
	})
	return vertices
}

func ids[K comparable](vertices []*Vertex[K]) []K {
	result := make([]K, len(vertices))
	for i, vertex := range vertices {
		result[i] = vertex.ID
	}
	return result
}

// CycleError reports a dependency cycle. The first and last elements of
// Cycle are the same vertex.
type CycleError[K comparable] struct {
	Cycle []K
}

// Error implements error.
func (e *CycleError[K]) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, id := range e.Cycle {
		parts[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("%s: %s", strings.Join(parts, " -> "), coreerrors.CycleDetected)
}

// Unwrap makes the error match coreerrors.CycleDetected.
func (e *CycleError[K]) Unwrap() error {
	return coreerrors.CycleDetected
}

// AsCycleError returns the *CycleError wrapped by err, or nil.
func AsCycleError[K comparable](err error) *CycleError[K] {
	var cycleErr *CycleError[K]
	if errors.As(err, &cycleErr) {
		return cycleErr
	}
	return nil
}
