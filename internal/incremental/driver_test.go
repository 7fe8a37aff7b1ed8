package incremental

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/tyckorder/internal/diag"
	"github.com/vk/tyckorder/internal/graph"
	"github.com/vk/tyckorder/internal/hcl"
	"github.com/vk/tyckorder/internal/inmemorystore"
	"github.com/vk/tyckorder/internal/inmemorytopology"
	"github.com/vk/tyckorder/internal/session"
	"github.com/vk/tyckorder/internal/testutil"
	"github.com/vk/tyckorder/internal/unit"
)

const (
	natBroken = `
data "Nat" {}
fn "plus" {
  head = ["Nat"]
  fail = "body"
}
`
	natFixed = `
data "Nat" {}
fn "plus" {
  head = ["Nat"]
}
`
	appSrc = `
imports = ["nat"]
fn "double" {
  head = ["Nat"]
  body = ["plus"]
}
`
	otherSrc = `
fn "solo" {}
`
)

func newDriver(t *testing.T) (*Driver, *diag.Collector) {
	t.Helper()
	collector := diag.NewCollector()
	sess := session.New(inmemorytopology.New(), inmemorystore.New(), collector)
	return New(sess, hcl.NewLoader()), collector
}

func ids(us []*unit.Unit) []string {
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = u.ID()
	}
	return out
}

func bodyChecks(logs, id string) int {
	n := 0
	for _, line := range strings.Split(logs, "\n") {
		if strings.Contains(line, `msg="Scripted check."`) && strings.Contains(line, "unit="+id+" phase=body") {
			n++
		}
	}
	return n
}

func TestDriver_RerunRechecksImporters(t *testing.T) {
	ctx, logs := testutil.LoggedContext(t)
	dir := testutil.WriteProgram(t, map[string]string{
		"nat.hcl":   natBroken,
		"app.hcl":   appSrc,
		"other.hcl": otherSrc,
	})
	d, collector := newDriver(t)

	res, err := d.Run(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"nat.plus"}, ids(res.Failed))
	assert.Equal(t, []string{"app.double"}, ids(res.Skipped))
	require.Len(t, collector.OfKind(diag.KindModuleDisliked), 1)
	disliked := collector.OfKind(diag.KindModuleDisliked)[0]
	assert.Equal(t, "I dislike the following module(s): app", disliked.Message)
	assert.Equal(t, []string{"app.double"}, disliked.Units)

	soloBefore := d.Program().UnitsOf(filepath.Join(dir, "other.hcl"))[0]

	nat := testutil.WriteFile(t, dir, "nat.hcl", natFixed)
	res, err = d.Rerun(ctx, nat)
	require.NoError(t, err)

	assert.Empty(t, res.Failed)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, []string{"app.double", "nat.Nat", "nat.plus", "other.solo"}, ids(res.Succeeded))
	assert.True(t, res.OK())

	soloAfter := d.Program().UnitsOf(filepath.Join(dir, "other.hcl"))[0]
	assert.True(t, soloBefore == soloAfter, "unaffected units keep their identity")
	assert.Equal(t, 1, bodyChecks(logs.String(), "other.solo"))
	assert.Equal(t, 2, bodyChecks(logs.String(), "nat.Nat"))
}

func TestDriver_PreviousFailureSeedsSkips(t *testing.T) {
	ctx, _ := testutil.LoggedContext(t)
	dir := testutil.WriteProgram(t, map[string]string{
		"nat.hcl": natBroken,
		"app.hcl": appSrc,
	})
	d, collector := newDriver(t)

	_, err := d.Run(ctx, dir)
	require.NoError(t, err)

	app := testutil.WriteFile(t, dir, "app.hcl", appSrc+"\nfn \"triple\" {\n  body = [\"plus\"]\n}\n")
	res, err := d.Rerun(ctx, app)
	require.NoError(t, err)

	assert.Equal(t, []string{"nat.plus"}, ids(res.Failed))
	assert.Equal(t, []string{"app.double", "app.triple"}, ids(res.Skipped))
	assert.Len(t, collector.OfKind(diag.KindModuleDisliked), 2)
}

func TestDriver_CancelledPassReportsDislikedModules(t *testing.T) {
	logged, _ := testutil.LoggedContext(t)
	ctx, cancel := context.WithCancel(logged)
	cancel()
	dir := testutil.WriteProgram(t, map[string]string{
		"nat.hcl": natFixed,
		"app.hcl": appSrc,
	})
	d, collector := newDriver(t)

	res, err := d.Run(ctx, dir)
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Empty(t, res.Succeeded)
	assert.Equal(t, []string{"app.double", "nat.Nat", "nat.plus"}, ids(res.Skipped))

	disliked := collector.OfKind(diag.KindModuleDisliked)
	require.Len(t, disliked, 2)
	assert.Equal(t, []string{"app.double"}, disliked[0].Units)
	assert.Equal(t, []string{"nat.Nat", "nat.plus"}, disliked[1].Units)
}

func TestDriver_Affected(t *testing.T) {
	ctx, _ := testutil.LoggedContext(t)
	dir := testutil.WriteProgram(t, map[string]string{
		"nat.hcl":   natFixed,
		"app.hcl":   appSrc,
		"other.hcl": otherSrc,
		"top.hcl":   "imports = [\"app\"]\n",
	})
	d, _ := newDriver(t)

	_, err := d.Affected(filepath.Join(dir, "nat.hcl"))
	assert.Error(t, err, "nothing loaded yet")

	_, err = d.Run(ctx, dir)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		changed []string
		want    []string
	}{
		{name: "leaf module", changed: []string{"nat.hcl"}, want: []string{"app.hcl", "nat.hcl", "top.hcl"}},
		{name: "middle module", changed: []string{"app.hcl"}, want: []string{"app.hcl", "top.hcl"}},
		{name: "isolated module", changed: []string{"other.hcl"}, want: []string{"other.hcl"}},
		{name: "several", changed: []string{"other.hcl", "top.hcl"}, want: []string{"other.hcl", "top.hcl"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var changed, want []string
			for _, c := range tc.changed {
				changed = append(changed, filepath.Join(dir, c))
			}
			for _, w := range tc.want {
				want = append(want, filepath.Join(dir, w))
			}
			got, err := d.Affected(changed...)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	t.Run("unknown file", func(t *testing.T) {
		_, err := d.Affected(filepath.Join(dir, "missing.hcl"))
		assert.ErrorIs(t, err, graph.ErrNodeNotFound)
	})
}

func TestDriver_Errors(t *testing.T) {
	ctx, _ := testutil.LoggedContext(t)
	d, _ := newDriver(t)

	_, err := d.Rerun(ctx, "x.hcl")
	assert.Error(t, err)

	_, err = d.Run(ctx, t.TempDir())
	assert.ErrorContains(t, err, "no program files found")
}
