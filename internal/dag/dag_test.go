// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package dag_test

import (
	"strings"

	jc "github.com/juju/testing/checkers"
	gc "gopkg.in/check.v1"

	coreerrors "github.com/ondemandenv/contracts/core/errors"
	"github.com/ondemandenv/contracts/internal/dag"
)

type dagSuite struct{}

var _ = gc.Suite(&dagSuite{})

// build returns a graph of comma separated nodes, registered in order, and
// "a->b" edges meaning b depends on a.
func build(c *gc.C, nodes, edges string) *dag.DirectedAcyclicGraph[string] {
	d := dag.NewDirectedAcyclicGraph[string]()
	for i, node := range strings.Split(nodes, ",") {
		c.Assert(d.AddVertex(node, i), jc.ErrorIsNil)
	}
	if edges == "" {
		return d
	}
	for _, edge := range strings.Split(edges, ",") {
		from, to, _ := strings.Cut(edge, "->")
		c.Assert(d.AddDependencies(to, []string{from}), jc.ErrorIsNil)
	}
	return d
}

func (s *dagSuite) TestAddVertexDuplicate(c *gc.C) {
	d := dag.NewDirectedAcyclicGraph[string]()
	c.Assert(d.AddVertex("A", 0), jc.ErrorIsNil)
	c.Check(d.AddVertex("A", 1), jc.ErrorIs, coreerrors.DuplicateRegistration)
	c.Check(d.Vertices, gc.HasLen, 1)
}

func (s *dagSuite) TestAddDependencies(c *gc.C) {
	d := build(c, "A,B", "")
	c.Check(d.AddDependencies("A", []string{"B"}), jc.ErrorIsNil)
	c.Check(d.AddDependencies("A", []string{"C"}), jc.ErrorIs, coreerrors.UnresolvedReference)
	c.Check(d.AddDependencies("C", []string{"A"}), jc.ErrorIs, coreerrors.UnresolvedReference)
	c.Check(d.AddDependencies("A", []string{"A"}), jc.ErrorIs, coreerrors.CycleDetected)
}

func (s *dagSuite) TestTopologicalSort(c *gc.C) {
	tests := []struct {
		nodes string
		edges string
		want  string
	}{
		{nodes: "A,B", want: "A,B"},
		{nodes: "A,B", edges: "A->B", want: "A,B"},
		{nodes: "A,B", edges: "B->A", want: "B,A"},
		{nodes: "A,B,C,D,E,F", edges: "C->D", want: "A,B,C,D,E,F"},
		{nodes: "A,B,C,D,E,F", edges: "D->C", want: "A,B,D,C,E,F"},
		{nodes: "A,B,C,D,E,F", edges: "F->A,F->B,B->A", want: "C,D,E,F,B,A"},
		{nodes: "A,B,C,D,E,F", edges: "B->A,C->A,D->B,D->C,F->E,A->E", want: "D,B,C,A,F,E"},
	}
	for i, test := range tests {
		c.Logf("test %d: nodes=%s edges=%s", i, test.nodes, test.edges)
		order, err := build(c, test.nodes, test.edges).TopologicalSort()
		c.Assert(err, jc.ErrorIsNil)
		c.Check(strings.Join(order, ","), gc.Equals, test.want)
	}
}

func (s *dagSuite) TestCycle(c *gc.C) {
	d := build(c, "A,B,C,D", "A->B,B->C,C->A,C->D")
	_, err := d.TopologicalSort()
	c.Assert(err, jc.ErrorIs, coreerrors.CycleDetected)

	cycleErr := dag.AsCycleError[string](err)
	c.Assert(cycleErr, gc.NotNil)
	c.Check(cycleErr.Cycle, jc.DeepEquals, []string{"A", "C", "B", "A"})
	c.Check(err, gc.ErrorMatches, `A -> C -> B -> A: wiring cycle detected`)
}

func (s *dagSuite) TestAsCycleErrorOther(c *gc.C) {
	c.Check(dag.AsCycleError[string](coreerrors.UnresolvedReference), gc.IsNil)
}

func (s *dagSuite) TestDependenciesAndDependents(c *gc.C) {
	d := build(c, "A,B,C", "A->C,B->C")
	c.Check(d.DependenciesOf("C"), jc.DeepEquals, []string{"A", "B"})
	c.Check(d.DependenciesOf("A"), gc.HasLen, 0)
	c.Check(d.DependentsOf("A"), jc.DeepEquals, []string{"C"})
	c.Check(d.DependenciesOf("missing"), gc.IsNil)
}
