package depgraph

import (
	"context"
	"sync"

	"github.com/vk/tyckorder/internal/ctxlog"
	"github.com/vk/tyckorder/internal/graph"
	"github.com/vk/tyckorder/internal/unit"
)

// Graph is a scheduling graph over order-nodes.
type Graph = graph.Graph[unit.Order]

// Graphs holds the declaration and sample dependency graphs built for one
// resolution pass. It is immutable once Build returns.
type Graphs struct {
	Decl   *Graph
	Sample *Graph

	// Head and body references exactly as the collector reported them.
	headRefs map[*unit.Unit][]*unit.Unit

	declUsageOnce   sync.Once
	declUsage       *Graph
	sampleUsageOnce sync.Once
	sampleUsage     *Graph
}

// Build asks c for the references of every unit and assembles both graphs.
// Units are interned in the order given, which fixes the SCC order.
func Build(ctx context.Context, units []*unit.Unit, c Collector) *Graphs {
	logger := ctxlog.FromContext(ctx)
	g := &Graphs{
		Decl:     graph.New[unit.Order](),
		Sample:   graph.New[unit.Order](),
		headRefs: make(map[*unit.Unit][]*unit.Unit, len(units)),
	}

	edges := 0
	for _, u := range units {
		head, body := c.BuildDependencyEdges(u)
		g.headRefs[u] = head

		target := g.Decl
		if u.Kind.IsSample() {
			target = g.Sample
		}
		target.AddNode(unit.HeadOf(u))
		bodyAdj := target.SuccessorsMut(unit.BodyOf(u))
		bodyAdj.Append(unit.HeadOf(u))

		headAdj := target.SuccessorsMut(unit.HeadOf(u))
		for _, v := range head {
			headAdj.Append(unit.BodyOf(v))
		}
		for _, v := range body {
			bodyAdj.Append(unit.BodyOf(v))
		}
		edges += 1 + len(head) + len(body)
	}

	logger.Debug("Dependency graphs built.",
		"units", len(units),
		"edges", edges,
		"decl_nodes", g.Decl.Len(),
		"sample_nodes", g.Sample.Len(),
	)
	return g
}

// HeadRefs returns the signature references reported for u.
func (g *Graphs) HeadRefs(u *unit.Unit) []*unit.Unit {
	return g.headRefs[u]
}

// DeclUsage returns the transpose of the declaration graph.
func (g *Graphs) DeclUsage() *Graph {
	g.declUsageOnce.Do(func() {
		g.declUsage = g.Decl.Transpose()
	})
	return g.declUsage
}

// SampleUsage returns the transpose of the sample graph.
func (g *Graphs) SampleUsage() *Graph {
	g.sampleUsageOnce.Do(func() {
		g.sampleUsage = g.Sample.Transpose()
	})
	return g.sampleUsage
}

// UsageGraphs returns both usage graphs, declarations first.
func (g *Graphs) UsageGraphs() []*Graph {
	return []*Graph{g.DeclUsage(), g.SampleUsage()}
}

// IsSelfReferencing reports whether u's body can reach itself through at
// least one edge, including paths that run through u's own head.
func IsSelfReferencing(g *Graph, u *unit.Unit) bool {
	body := unit.BodyOf(u)
	for _, s := range g.Successors(body) {
		if g.HasPath(s, body) {
			return true
		}
	}
	return false
}
