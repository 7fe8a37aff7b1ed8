package propagate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tyckorder/internal/depgraph"
	"github.com/vk/tyckorder/internal/unit"
	"github.com/vk/tyckorder/internal/unitid"
)

func newUnit(name string, kind unit.Kind) *unit.Unit {
	return unit.New(unitid.MustParse(name), kind, "")
}

func names(s []Skipped) []string {
	out := make([]string, len(s))
	for i, x := range s {
		out[i] = x.Unit.ID()
	}
	return out
}

// chain builds a -> b -> c (b uses a, c uses b) plus an unrelated d and an
// example e of c.
func chain() (*depgraph.Graphs, map[string]*unit.Unit) {
	u := map[string]*unit.Unit{
		"a": newUnit("a", unit.Fn),
		"b": newUnit("b", unit.Fn),
		"c": newUnit("c", unit.Fn),
		"d": newUnit("d", unit.Fn),
		"e": newUnit("e", unit.Example),
	}
	refs := map[*unit.Unit][]*unit.Unit{
		u["b"]: {u["a"]},
		u["c"]: {u["b"]},
		u["e"]: {u["c"]},
	}
	g := depgraph.Build(context.Background(),
		[]*unit.Unit{u["a"], u["b"], u["c"], u["d"], u["e"]},
		depgraph.CollectorFunc(func(x *unit.Unit) ([]*unit.Unit, []*unit.Unit) {
			return nil, refs[x]
		}),
	)
	return g, u
}

func TestSkipSet(t *testing.T) {
	s := NewSkipSet()
	a := newUnit("a", unit.Fn)
	assert.True(t, s.Add(a))
	assert.False(t, s.Add(a))
	assert.True(t, s.Contains(a))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, []*unit.Unit{a}, s.Units())
}

func TestBlame_SkipsTransitiveUsers(t *testing.T) {
	g, u := chain()
	p := New(NewSkipSet(), g.UsageGraphs()...)

	added := p.Blame(context.Background(), u["a"])

	assert.Equal(t, []string{"a", "b", "c", "e"}, names(added))
	assert.Nil(t, added[0].Cause)
	assert.Same(t, u["a"], added[1].Cause)
	assert.False(t, p.SkipSet().Contains(u["d"]))
}

func TestBlame_StopsAtKnownUnits(t *testing.T) {
	g, u := chain()
	p := New(NewSkipSet(), g.UsageGraphs()...)

	require.Len(t, p.Blame(context.Background(), u["b"]), 3)
	assert.Empty(t, p.Blame(context.Background(), u["b"]))

	added := p.Blame(context.Background(), u["a"])
	assert.Equal(t, []string{"a"}, names(added))
}

func TestBlame_DeclarationsIgnoreSampleGraph(t *testing.T) {
	g, u := chain()
	p := New(NewSkipSet(), g.DeclUsage())

	added := p.Blame(context.Background(), u["c"])
	assert.Equal(t, []string{"c"}, names(added))
}
