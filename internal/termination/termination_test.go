package termination

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tyckorder/internal/unit"
	"github.com/vk/tyckorder/internal/unitid"
)

type siteTable map[*unit.Unit][]CallSite

func (s siteTable) CallSites(_ context.Context, caller *unit.Unit) ([]CallSite, error) {
	return s[caller], nil
}

type failingCollector struct{}

func (failingCollector) CallSites(context.Context, *unit.Unit) ([]CallSite, error) {
	return nil, fmt.Errorf("body not available")
}

func fn(name string, arity int) *unit.Unit {
	u := unit.New(unitid.MustParse(name), unit.Fn, "")
	u.Arity = arity
	return u
}

func matrix(caller, callee *unit.Unit, cells ...Relation) *CallMatrix {
	m := NewCallMatrix(caller, callee, "")
	copy(m.cells, cells)
	return m
}

func TestRelation_Semiring(t *testing.T) {
	lt1 := Decrease(true, 1)
	eq := Decrease(true, 0)
	weak := Decrease(false, 2)

	t.Run("unknown absorbs in mul", func(t *testing.T) {
		assert.True(t, Mul(Unknown, lt1).IsUnknown())
		assert.True(t, Mul(lt1, Unknown).IsUnknown())
	})
	t.Run("mul accumulates decreases", func(t *testing.T) {
		assert.Equal(t, Decrease(true, 3), Mul(lt1, weak))
		assert.Equal(t, Decrease(false, 4), Mul(weak, weak))
	})
	t.Run("add keeps the larger decrease", func(t *testing.T) {
		assert.Equal(t, lt1, Add(eq, lt1))
		assert.Equal(t, lt1, Add(Unknown, lt1))
		assert.Equal(t, weak, Add(lt1, weak))
	})
	t.Run("order", func(t *testing.T) {
		assert.Equal(t, -1, Unknown.Compare(eq))
		assert.Equal(t, 1, Decrease(true, 2).Compare(Decrease(false, 2)))
		assert.Equal(t, 0, Unknown.Compare(Unknown))
	})
	t.Run("decreasing", func(t *testing.T) {
		assert.True(t, lt1.IsDecreasing())
		assert.False(t, eq.IsDecreasing())
		assert.False(t, Decrease(false, 1).IsDecreasing())
		assert.False(t, Unknown.IsDecreasing())
	})
	assert.Equal(t, "? = <1 ~2", fmt.Sprintf("%s %s %s %s", Unknown, eq, lt1, weak))
}

func TestCombine_IsAssociative(t *testing.T) {
	f, g, h, k := fn("f", 2), fn("g", 3), fn("h", 1), fn("k", 2)
	rels := []Relation{Unknown, Decrease(true, 0), Decrease(true, 1), Decrease(false, 2), Decrease(true, 3)}
	pick := func(seed, n int) []Relation {
		out := make([]Relation, n)
		for i := range out {
			out[i] = rels[(seed*7+i*3+i*i)%len(rels)]
		}
		return out
	}

	for seed := 0; seed < 25; seed++ {
		a := matrix(f, g, pick(seed, 6)...)   // rows g=3, cols f=2
		b := matrix(g, h, pick(seed+1, 3)...) // rows h=1, cols g=3
		c := matrix(h, k, pick(seed+2, 2)...) // rows k=2, cols h=1

		left := Combine(Combine(a, b), c)
		right := Combine(a, Combine(b, c))
		require.True(t, left.SameCells(right), "seed %d: %s vs %s", seed, left, right)
		assert.Same(t, f, left.Caller)
		assert.Same(t, k, left.Callee)
		assert.Len(t, left.Path, 3)
	}
}

func TestCombine_PanicsOnMismatch(t *testing.T) {
	f, g := fn("f", 1), fn("g", 1)
	assert.Panics(t, func() {
		Combine(matrix(f, g, Unknown), matrix(f, g, Unknown))
	})
}

func TestCallGraph_KeepsWorstMatrices(t *testing.T) {
	f := fn("f", 1)
	g := NewCallGraph(1)

	require.True(t, g.Put(matrix(f, f, Decrease(true, 1))))
	require.True(t, g.Put(matrix(f, f, Decrease(true, 0))), "a worse matrix replaces a better one")
	assert.False(t, g.Put(matrix(f, f, Decrease(true, 1))), "a better matrix is redundant")

	ms := g.Matrices(f, f)
	require.Len(t, ms, 1)
	assert.Equal(t, Decrease(true, 0), ms[0].Get(0, 0))
}

func TestCallGraph_RetainsIncomparable(t *testing.T) {
	f := fn("f", 2)
	g := NewCallGraph(1)
	require.True(t, g.Put(matrix(f, f, Decrease(true, 1), Unknown, Unknown, Unknown)))
	require.True(t, g.Put(matrix(f, f, Unknown, Unknown, Unknown, Decrease(true, 1))))
	assert.Len(t, g.Matrices(f, f), 2)
}

func TestAnalyze(t *testing.T) {
	ctx := context.Background()

	t.Run("structural descent terminates", func(t *testing.T) {
		// f (suc n) = f n
		f := fn("f", 1)
		v, err := Analyze(ctx, []*unit.Unit{f}, siteTable{
			f: {{Callee: f, Args: []Arg{{Param: 0, Peel: 1}}}},
		})
		require.NoError(t, err)
		assert.True(t, v.Terminating())
	})

	t.Run("same argument loops", func(t *testing.T) {
		// f n = f n
		f := fn("f", 1)
		v, err := Analyze(ctx, []*unit.Unit{f}, siteTable{
			f: {{Callee: f, Label: "f n", Args: []Arg{{Param: 0}}}},
		})
		require.NoError(t, err)
		require.False(t, v.Terminating())
		assert.Equal(t, []string{"f", "f"}, v.Bad[0].PathNames())
		assert.Equal(t, "f n", v.Bad[0].Path[0].Label)
	})

	t.Run("unknown argument loops", func(t *testing.T) {
		f := fn("f", 1)
		v, err := Analyze(ctx, []*unit.Unit{f}, siteTable{
			f: {{Callee: f, Args: []Arg{UnknownArg}}},
		})
		require.NoError(t, err)
		assert.False(t, v.Terminating())
	})

	t.Run("one bad call site spoils a good one", func(t *testing.T) {
		f := fn("f", 1)
		v, err := Analyze(ctx, []*unit.Unit{f}, siteTable{
			f: {
				{Callee: f, Args: []Arg{{Param: 0, Peel: 1}}},
				{Callee: f, Args: []Arg{{Param: 0}}},
			},
		})
		require.NoError(t, err)
		assert.False(t, v.Terminating())
	})

	t.Run("argument swap with decrease terminates", func(t *testing.T) {
		// f x y = f y (pred x)
		f := fn("f", 2)
		v, err := Analyze(ctx, []*unit.Unit{f}, siteTable{
			f: {{Callee: f, Args: []Arg{{Param: 1}, {Param: 0, Peel: 1}}}},
		})
		require.NoError(t, err)
		assert.True(t, v.Terminating())
	})

	t.Run("lexicographic descent terminates", func(t *testing.T) {
		// ack (suc m) zero = ack m 1; ack (suc m) (suc n) = ack m (ack (suc m) n)
		ack := fn("ack", 2)
		v, err := Analyze(ctx, []*unit.Unit{ack}, siteTable{
			ack: {
				{Callee: ack, Args: []Arg{{Param: 0, Peel: 1}, UnknownArg}},
				{Callee: ack, Args: []Arg{{Param: 0, Peel: 1}, UnknownArg}},
				{Callee: ack, Args: []Arg{{Param: 0}, {Param: 1, Peel: 1}}},
			},
		})
		require.NoError(t, err)
		assert.True(t, v.Terminating())
	})

	t.Run("three-way cycle without decrease implicates everyone", func(t *testing.T) {
		a, b, c := fn("A", 1), fn("B", 1), fn("C", 1)
		same := []Arg{{Param: 0}}
		v, err := Analyze(ctx, []*unit.Unit{a, b, c}, siteTable{
			a: {{Callee: b, Args: same}},
			b: {{Callee: c, Args: same}},
			c: {{Callee: a, Args: same}},
		})
		require.NoError(t, err)
		require.False(t, v.Terminating())
		assert.Len(t, v.Bad, 3)
		assert.Equal(t, []string{"A", "B", "C", "A"}, v.Bad[0].PathNames())
		assert.ElementsMatch(t, []string{"A", "B", "C"}, unitNames(v.Implicated()))
	})

	t.Run("mutual recursion with decrease terminates", func(t *testing.T) {
		even, odd := fn("even", 1), fn("odd", 1)
		v, err := Analyze(ctx, []*unit.Unit{even, odd}, siteTable{
			even: {{Callee: odd, Args: []Arg{{Param: 0, Peel: 1}}}},
			odd:  {{Callee: even, Args: []Arg{{Param: 0, Peel: 1}}}},
		})
		require.NoError(t, err)
		assert.True(t, v.Terminating())
	})

	t.Run("partial and non-function members are ignored", func(t *testing.T) {
		f := fn("f", 1)
		f.Partial = true
		d := unit.New(unitid.MustParse("D"), unit.Data, "")
		v, err := Analyze(ctx, []*unit.Unit{f, d}, siteTable{
			f: {{Callee: f, Args: []Arg{{Param: 0}}}},
		})
		require.NoError(t, err)
		assert.True(t, v.Terminating())
		assert.Empty(t, v.Functions)
	})

	t.Run("collector error is returned", func(t *testing.T) {
		_, err := Analyze(ctx, []*unit.Unit{fn("f", 1)}, failingCollector{})
		assert.ErrorContains(t, err, "collecting call sites of 'f'")
	})
}

func TestVerify_DirectMatrices(t *testing.T) {
	f := fn("f", 1)
	testCases := []struct {
		name string
		cell Relation
		want bool
	}{
		{"usable decrease", Decrease(true, 1), true},
		{"unusable decrease", Decrease(false, 1), false},
		{"unknown", Unknown, false},
		{"equal", Decrease(true, 0), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := NewCallGraph(1)
			g.Put(matrix(f, f, tc.cell))
			g.Complete()
			assert.Equal(t, tc.want, Verify(g, []*unit.Unit{f}).Terminating())
		})
	}
}

func unitNames(us []*unit.Unit) []string {
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = u.ID()
	}
	return out
}
