package inmemorytopology

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tyckorder/internal/depgraph"
	"github.com/vk/tyckorder/internal/topologystore"
	"github.com/vk/tyckorder/internal/unit"
	"github.com/vk/tyckorder/internal/unitid"
)

func TestAddAndGetUnit(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := unit.New(unitid.MustParse("nat.plus"), unit.Fn, "nat")

	require.NoError(t, s.AddUnit(ctx, u))
	require.NoError(t, s.AddUnit(ctx, u), "re-adding the same unit is idempotent")

	got, ok := s.Unit(ctx, unitid.MustParse("nat.plus"))
	require.True(t, ok)
	assert.Same(t, u, got)

	clash := unit.New(unitid.MustParse("nat.plus"), unit.Fn, "nat")
	assert.ErrorIs(t, s.AddUnit(ctx, clash), topologystore.ErrDuplicateUnit)
}

func TestReferences(t *testing.T) {
	s := New()
	ctx := context.Background()
	nat := unit.New(unitid.MustParse("Nat"), unit.Data, "")
	plus := unit.New(unitid.MustParse("plus"), unit.Fn, "")
	require.NoError(t, s.AddUnit(ctx, nat))
	require.NoError(t, s.AddUnit(ctx, plus))

	require.NoError(t, s.AddReference(ctx, plus.Name(), nat.Name(), unit.Head))
	require.NoError(t, s.AddReference(ctx, plus.Name(), nat.Name(), unit.Body))
	require.NoError(t, s.AddReference(ctx, plus.Name(), plus.Name(), unit.Body))
	require.NoError(t, s.AddReference(ctx, plus.Name(), plus.Name(), unit.Body))

	head, body, err := s.References(ctx, plus)
	require.NoError(t, err)
	assert.Equal(t, []*unit.Unit{nat}, head)
	assert.Equal(t, []*unit.Unit{plus}, body, "head references are not repeated in body")

	err = s.AddReference(ctx, plus.Name(), unitid.MustParse("missing"), unit.Body)
	assert.ErrorIs(t, err, topologystore.ErrUnknownUnit)

	stranger := unit.New(unitid.MustParse("plus"), unit.Fn, "")
	_, _, err = s.References(ctx, stranger)
	assert.ErrorIs(t, err, topologystore.ErrUnknownUnit)
}

func TestStoreIsACollector(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := unit.New(unitid.MustParse("a"), unit.Fn, "")
	b := unit.New(unitid.MustParse("b"), unit.Fn, "")
	require.NoError(t, s.AddUnit(ctx, a))
	require.NoError(t, s.AddUnit(ctx, b))
	require.NoError(t, s.AddReference(ctx, b.Name(), a.Name(), unit.Body))

	g := depgraph.Build(ctx, s.AllUnits(ctx), s)
	assert.True(t, g.Decl.HasPath(unit.BodyOf(b), unit.BodyOf(a)))
	assert.False(t, g.Decl.HasPath(unit.BodyOf(a), unit.BodyOf(b)))
}
