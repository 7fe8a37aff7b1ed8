package program

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tyckorder/internal/config"
	"github.com/vk/tyckorder/internal/depgraph"
	"github.com/vk/tyckorder/internal/diag"
	"github.com/vk/tyckorder/internal/inmemorystore"
	"github.com/vk/tyckorder/internal/inmemorytopology"
	"github.com/vk/tyckorder/internal/scheduler"
	"github.com/vk/tyckorder/internal/session"
	"github.com/vk/tyckorder/internal/termination"
	"github.com/vk/tyckorder/internal/testutil"
	"github.com/vk/tyckorder/internal/unit"
	"github.com/vk/tyckorder/internal/unitid"
)

func natModel() *config.Model {
	return &config.Model{Files: []*config.File{
		{
			Path:   "nat.hcl",
			Module: "nat",
			Decls: []*config.Decl{
				{Kind: "data", Name: "Nat"},
				{
					Kind: "fn", Name: "plus", Params: []string{"a", "b"},
					Head: []string{"Nat"}, Body: []string{"plus"},
					Calls: []*config.Call{{Callee: "plus", Args: []config.Arg{{Param: "a", Peel: 1}, {Param: "b"}}}},
				},
			},
		},
		{
			Path:    "app.hcl",
			Module:  "app",
			Imports: []string{"nat"},
			Decls: []*config.Decl{
				{Kind: "fn", Name: "double", Params: []string{"n"}, Head: []string{"Nat"}, Body: []string{"nat.plus"}},
				{Kind: "example", Name: "two", Of: "double"},
			},
		},
	}}
}

func unitByID(t *testing.T, p *Program, id string) *unit.Unit {
	t.Helper()
	for _, u := range p.Units() {
		if u.ID() == id {
			return u
		}
	}
	require.FailNow(t, "unit not found", id)
	return nil
}

func TestBuild_RegistersUnitsAndReferences(t *testing.T) {
	ctx, _ := testutil.LoggedContext(t)
	topo := inmemorytopology.New()

	p, err := Build(ctx, natModel(), topo)
	require.NoError(t, err)

	assert.Equal(t, []string{"nat.Nat", "nat.plus", "app.double", "app.two"}, ids(p.Units()))
	assert.Equal(t, []string{"nat.Nat", "nat.plus"}, ids(p.UnitsOf("nat.hcl")))

	plus := unitByID(t, p, "nat.plus")
	assert.Equal(t, unit.Fn, plus.Kind)
	assert.Equal(t, 2, plus.Arity)
	assert.Equal(t, "nat", plus.Module)

	head, body, err := topo.References(ctx, plus)
	require.NoError(t, err)
	assert.Equal(t, []string{"nat.Nat"}, ids(head))
	assert.Equal(t, []string{"nat.plus"}, ids(body))

	// Imported names resolve unqualified and qualified.
	double := unitByID(t, p, "app.double")
	head, body, err = topo.References(ctx, double)
	require.NoError(t, err)
	assert.Equal(t, []string{"nat.Nat"}, ids(head))
	assert.Equal(t, []string{"nat.plus"}, ids(body))

	// A sample depends on the declaration it belongs to.
	two := unitByID(t, p, "app.two")
	assert.True(t, two.Of == double)
	_, body, err = topo.References(ctx, two)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.double"}, ids(body))

	d, ok := p.Decl(plus)
	require.True(t, ok)
	assert.Equal(t, "plus", d.Name)
}

func TestBuild_CallSites(t *testing.T) {
	ctx, _ := testutil.LoggedContext(t)
	p, err := Build(ctx, natModel(), inmemorytopology.New())
	require.NoError(t, err)

	plus := unitByID(t, p, "nat.plus")
	sites, err := p.CallSites(ctx, plus)
	require.NoError(t, err)
	require.Len(t, sites, 1)
	assert.True(t, sites[0].Callee == plus)
	assert.Equal(t, []termination.Arg{{Param: 0, Peel: 1}, {Param: 1}}, sites[0].Args)
	assert.Equal(t, "nat.plus -> nat.plus #1", sites[0].Label)

	_, err = p.CallSites(ctx, unit.New(unitid.MustParse("x.y"), unit.Fn, "x"))
	assert.Error(t, err)
}

func TestBuild_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		files   []*config.File
		wantErr error
	}{
		{
			name:    "unknown reference",
			files:   []*config.File{{Path: "m.hcl", Module: "m", Decls: []*config.Decl{{Kind: "fn", Name: "f", Body: []string{"g"}}}}},
			wantErr: config.ErrUnknownReference,
		},
		{
			name: "qualified reference to a module not imported",
			files: []*config.File{
				{Path: "a.hcl", Module: "a", Decls: []*config.Decl{{Kind: "data", Name: "T"}}},
				{Path: "b.hcl", Module: "b", Decls: []*config.Decl{{Kind: "fn", Name: "f", Head: []string{"a.T"}}}},
			},
			wantErr: config.ErrUnknownReference,
		},
		{
			name:    "unknown import",
			files:   []*config.File{{Path: "m.hcl", Module: "m", Imports: []string{"gone"}}},
			wantErr: config.ErrUnknownReference,
		},
		{
			name: "duplicate declaration",
			files: []*config.File{{Path: "m.hcl", Module: "m", Decls: []*config.Decl{
				{Kind: "fn", Name: "f"}, {Kind: "data", Name: "f"},
			}}},
			wantErr: config.ErrDuplicateDecl,
		},
		{
			name: "duplicate module",
			files: []*config.File{
				{Path: "m.hcl", Module: "m"},
				{Path: "m.yaml", Module: "m"},
			},
			wantErr: ErrDuplicateModule,
		},
		{
			name:    "invalid module name",
			files:   []*config.File{{Path: "my.lib.hcl", Module: "my.lib"}},
			wantErr: ErrInvalidModule,
		},
		{
			name: "sample of a sample",
			files: []*config.File{{Path: "m.hcl", Module: "m", Decls: []*config.Decl{
				{Kind: "example", Name: "e1"}, {Kind: "example", Name: "e2", Of: "e1"},
			}}},
			wantErr: config.ErrInvalidDecl,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := testutil.LoggedContext(t)
			_, err := Build(ctx, &config.Model{Files: tc.files}, inmemorytopology.New())
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestBuild_ReuseUnits(t *testing.T) {
	ctx, _ := testutil.LoggedContext(t)
	model := natModel()
	prev, err := Build(ctx, model, inmemorytopology.New())
	require.NoError(t, err)

	next, err := Build(ctx, model, inmemorytopology.New(), ReuseUnits(prev, "app.hcl"))
	require.NoError(t, err)

	assert.True(t, unitByID(t, prev, "nat.plus") == unitByID(t, next, "nat.plus"))
	assert.True(t, unitByID(t, prev, "app.double") != unitByID(t, next, "app.double"))
}

func TestChecker_Script(t *testing.T) {
	ctx, _ := testutil.LoggedContext(t)
	model := &config.Model{Files: []*config.File{{Path: "m.hcl", Module: "m", Decls: []*config.Decl{
		{Kind: "data", Name: "ok"},
		{Kind: "fn", Name: "badHead", Fail: config.FailHead},
		{Kind: "fn", Name: "badBody", Fail: config.FailBody},
		{Kind: "fn", Name: "gaveUp", Fail: config.FailInterrupt},
		{Kind: "fn", Name: "blamer", Fail: config.FailBody, Blame: []string{"ok"}},
	}}}}
	p, err := Build(ctx, model, inmemorytopology.New())
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		u := unitByID(t, p, "m.ok")
		require.NoError(t, p.CheckHeader(ctx, u))
		artifact, err := p.CheckBody(ctx, u)
		require.NoError(t, err)
		assert.Equal(t, &Artifact{Unit: "m.ok", Kind: "data"}, artifact)
	})

	t.Run("header failure", func(t *testing.T) {
		u := unitByID(t, p, "m.badHead")
		assert.ErrorIs(t, p.CheckHeader(ctx, u), ErrRejected)
		_, err := p.CheckBody(ctx, u)
		assert.ErrorIs(t, err, ErrRejected, "a body check covers the signature")
	})

	t.Run("body failure", func(t *testing.T) {
		u := unitByID(t, p, "m.badBody")
		require.NoError(t, p.CheckHeader(ctx, u))
		_, err := p.CheckBody(ctx, u)
		assert.ErrorIs(t, err, ErrRejected)
	})

	t.Run("interruption", func(t *testing.T) {
		_, err := p.CheckBody(ctx, unitByID(t, p, "m.gaveUp"))
		assert.ErrorIs(t, err, scheduler.ErrInterrupted)
	})

	t.Run("blame", func(t *testing.T) {
		_, err := p.CheckBody(ctx, unitByID(t, p, "m.blamer"))
		var blame *scheduler.BlameError
		require.True(t, errors.As(err, &blame))
		assert.Equal(t, []string{"m.ok"}, ids(blame.Units))
		assert.ErrorIs(t, err, ErrRejected)
	})
}

func TestProgram_DrivesScheduler(t *testing.T) {
	ctx, _ := testutil.LoggedContext(t)
	model := &config.Model{Files: []*config.File{{Path: "m.hcl", Module: "m", Decls: []*config.Decl{
		{Kind: "data", Name: "Nat"},
		{Kind: "fn", Name: "even", Params: []string{"n"}, Head: []string{"Nat"}, Body: []string{"odd"},
			Calls: []*config.Call{{Callee: "odd", Args: []config.Arg{{Param: "n", Peel: 1}}}}},
		{Kind: "fn", Name: "odd", Params: []string{"n"}, Head: []string{"Nat"}, Body: []string{"even"},
			Calls: []*config.Call{{Callee: "even", Args: []config.Arg{{Param: "n", Peel: 1}}}}},
		{Kind: "fn", Name: "spin", Params: []string{"n"}, Body: []string{"spin"},
			Calls: []*config.Call{{Callee: "spin", Args: []config.Arg{{Param: "n"}}}}},
		{Kind: "fn", Name: "broken", Fail: config.FailBody},
		{Kind: "fn", Name: "user", Body: []string{"broken"}},
		{Kind: "counterexample", Name: "nope", Body: []string{"Nat"}, Fail: config.FailBody},
	}}}}

	topo := inmemorytopology.New()
	p, err := Build(ctx, model, topo)
	require.NoError(t, err)

	collector := diag.NewCollector()
	sess := session.New(topo, inmemorystore.New(), collector)
	graphs := depgraph.Build(ctx, p.Units(), topo)

	res, err := scheduler.New(sess, graphs, p, p).RunAll(ctx, p.Units())
	require.NoError(t, err)

	assert.Equal(t, []string{"m.Nat", "m.even", "m.odd", "m.spin", "m.nope"}, ids(res.Succeeded))
	assert.Equal(t, []string{"m.broken"}, ids(res.Failed))
	assert.Equal(t, []string{"m.user"}, ids(res.Skipped))
	assert.Equal(t, []string{"m.spin"}, ids(res.NonTerminating))
	assert.Len(t, collector.OfKind(diag.KindBadRecursion), 1)
	assert.False(t, res.OK())
}

func ids(us []*unit.Unit) []string {
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = u.ID()
	}
	return out
}
