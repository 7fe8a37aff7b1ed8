package unit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vk/tyckorder/internal/unitid"
)

func TestUnit_IdentityNotValue(t *testing.T) {
	a := New(unitid.MustParse("m.f"), Fn, "m")
	b := New(unitid.MustParse("m.f"), Fn, "m")

	set := map[*Unit]bool{a: true}
	assert.True(t, set[a])
	assert.False(t, set[b], "a unit with the same name must be a distinct key")
	assert.False(t, HeadOf(a) == HeadOf(b), "order nodes compare units by identity")
	assert.True(t, HeadOf(a) == Order{Unit: a, Phase: Head})
}

func TestUnit_NeedsCheck(t *testing.T) {
	u := New(unitid.MustParse("m.f"), Fn, "m")
	only := func(current string) func(string) bool {
		return func(module string) bool { return module == current }
	}
	assert.True(t, u.NeedsCheck(only("m")))
	assert.False(t, u.NeedsCheck(only("other")))

	u.MarkChecked()
	assert.False(t, u.NeedsCheck(only("m")))
}

func TestUnit_MarkNonTerminatingIsOpaque(t *testing.T) {
	u := New(unitid.MustParse("f"), Fn, "")
	assert.False(t, u.Opaque())
	u.MarkNonTerminating()
	assert.True(t, u.NonTerminating())
	assert.True(t, u.Opaque())
}

func TestKind(t *testing.T) {
	k, ok := ParseKind("counterexample")
	assert.True(t, ok)
	assert.Equal(t, Counterexample, k)
	assert.True(t, k.IsSample())
	assert.False(t, Data.IsSample())

	_, ok = ParseKind("module")
	assert.False(t, ok)
}

func TestStatus_Transitions(t *testing.T) {
	testCases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusUnqueued, StatusQueued, true},
		{StatusQueued, StatusChecking, true},
		{StatusChecking, StatusSucceeded, true},
		{StatusChecking, StatusFailed, true},
		{StatusQueued, StatusSkipped, true},
		{StatusUnqueued, StatusSkipped, true},
		{StatusChecking, StatusSkipped, true},
		{StatusUnqueued, StatusChecking, false},
		{StatusSkipped, StatusChecking, false},
		{StatusSucceeded, StatusFailed, false},
	}
	for _, tc := range testCases {
		t.Run(tc.from.String()+"->"+tc.to.String(), func(t *testing.T) {
			assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to))
		})
	}
	assert.True(t, StatusSkipped.Terminal())
	assert.False(t, StatusChecking.Terminal())
}
