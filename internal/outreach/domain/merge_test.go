package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func TestMergeSetsStageAndTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	state := &OutreachFunnelState{CorrelationID: "corr-1"}

	changed := Merge(state, StageFlags{Opened: boolPtr(true)}, now)
	assert.True(t, changed)
	assert.True(t, state.Opened)
	require.NotNil(t, state.OpenedAt)
	assert.Equal(t, now, *state.OpenedAt)
	assert.False(t, state.Clicked)
}

func TestMergeFalseFlagNeverClears(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	state := &OutreachFunnelState{CorrelationID: "corr-1"}
	Merge(state, StageFlags{Opened: boolPtr(true)}, now)

	// An explicit false for an already-true stage is a no-op, while the
	// true flag in the same update still applies.
	changed := Merge(state, StageFlags{
		Opened:  boolPtr(false),
		Clicked: boolPtr(true),
	}, now.Add(time.Minute))
	assert.True(t, changed)
	assert.True(t, state.Opened)
	assert.True(t, state.Clicked)
}

func TestMergeTimestampFirstWriteWins(t *testing.T) {
	first := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	later := first.Add(2 * time.Hour)
	state := &OutreachFunnelState{CorrelationID: "corr-1"}

	Merge(state, StageFlags{Replied: boolPtr(true)}, first)
	changed := Merge(state, StageFlags{Replied: boolPtr(true)}, later)

	assert.False(t, changed)
	require.NotNil(t, state.RepliedAt)
	assert.Equal(t, first, *state.RepliedAt)
}

func TestMergeOrderIndependent(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	flagsA := StageFlags{Opened: boolPtr(true)}
	flagsB := StageFlags{Clicked: boolPtr(true), Opened: boolPtr(false)}

	ab := &OutreachFunnelState{CorrelationID: "corr-1"}
	Merge(ab, flagsA, now)
	Merge(ab, flagsB, now)

	ba := &OutreachFunnelState{CorrelationID: "corr-1"}
	Merge(ba, flagsB, now)
	Merge(ba, flagsA, now)

	assert.Equal(t, ab.Opened, ba.Opened)
	assert.Equal(t, ab.Clicked, ba.Clicked)
	assert.True(t, ab.Opened)
	assert.True(t, ab.Clicked)
}

func TestMergeNilFlagsNoChange(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	state := &OutreachFunnelState{CorrelationID: "corr-1"}

	assert.False(t, Merge(state, StageFlags{}, now))
	assert.True(t, state.UpdatedAt.IsZero())
}
