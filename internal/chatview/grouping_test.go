package chatview

import (
	"testing"
	"time"

	"backend/internal/app/message"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func msgAt(sender uuid.UUID, at time.Time) *message.Message {
	return &message.Message{
		ID:        uuid.New(),
		SenderID:  sender,
		Content:   "hey",
		CreatedAt: at,
	}
}

func positions(meta []DisplayMeta) []GroupPosition {
	out := make([]GroupPosition, len(meta))
	for i, m := range meta {
		out[i] = m.Position
	}
	return out
}

func TestComputeDisplayGroupPositions(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	msgs := []*message.Message{
		msgAt(alice, base),
		msgAt(alice, base.Add(100*time.Second)),
		msgAt(bob, base.Add(120*time.Second)),
		msgAt(alice, base.Add(400*time.Second)),
	}

	meta := ComputeDisplay(msgs, base, time.UTC)
	assert.Equal(t,
		[]GroupPosition{PositionFirst, PositionLast, PositionSingle, PositionSingle},
		positions(meta),
	)
}

func TestComputeDisplayMiddle(t *testing.T) {
	alice := uuid.New()
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	msgs := []*message.Message{
		msgAt(alice, base),
		msgAt(alice, base.Add(time.Minute)),
		msgAt(alice, base.Add(2*time.Minute)),
	}

	meta := ComputeDisplay(msgs, base, time.UTC)
	assert.Equal(t,
		[]GroupPosition{PositionFirst, PositionMiddle, PositionLast},
		positions(meta),
	)
}

func TestComputeDisplayDeterministic(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	msgs := []*message.Message{
		msgAt(alice, base),
		msgAt(bob, base.Add(30*time.Second)),
		msgAt(bob, base.Add(50*time.Second)),
		msgAt(alice, base.Add(10*time.Minute)),
	}

	first := ComputeDisplay(msgs, base, time.UTC)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeDisplay(msgs, base, time.UTC))
	}
}

func TestGroupWindowBoundary(t *testing.T) {
	alice := uuid.New()
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	// Exactly at the window: two separate groups.
	atWindow := []*message.Message{
		msgAt(alice, base),
		msgAt(alice, base.Add(GroupWindow)),
	}
	meta := ComputeDisplay(atWindow, base, time.UTC)
	assert.Equal(t, []GroupPosition{PositionSingle, PositionSingle}, positions(meta))

	// One millisecond under: grouped.
	underWindow := []*message.Message{
		msgAt(alice, base),
		msgAt(alice, base.Add(GroupWindow-time.Millisecond)),
	}
	meta = ComputeDisplay(underWindow, base, time.UTC)
	assert.Equal(t, []GroupPosition{PositionFirst, PositionLast}, positions(meta))
}

func TestDaySeparatorAcrossMidnight(t *testing.T) {
	alice := uuid.New()
	lateNight := time.Date(2026, 3, 13, 23, 59, 59, 0, time.UTC)
	earlyMorning := time.Date(2026, 3, 14, 0, 0, 1, 0, time.UTC)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	msgs := []*message.Message{
		msgAt(alice, lateNight),
		msgAt(alice, earlyMorning),
	}

	meta := ComputeDisplay(msgs, now, time.UTC)
	require.Len(t, meta, 2)
	assert.Equal(t, "Yesterday", meta[0].DaySeparator)
	assert.Equal(t, "Today", meta[1].DaySeparator)
}

func TestNoSeparatorWithinSameDay(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	msgs := []*message.Message{
		msgAt(alice, base),
		msgAt(bob, base.Add(6*time.Hour)),
	}

	meta := ComputeDisplay(msgs, now, time.UTC)
	assert.Equal(t, "March 10, 2026", meta[0].DaySeparator)
	assert.Empty(t, meta[1].DaySeparator)
}

func TestDayLabelUsesViewerZone(t *testing.T) {
	zone := time.FixedZone("UTC+5", 5*60*60)
	// 22:00 UTC on the 13th is already the 14th at UTC+5.
	ts := time.Date(2026, 3, 13, 22, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, zone)

	assert.Equal(t, "Today", DayLabel(ts, now, zone))
	assert.Equal(t, "Yesterday", DayLabel(ts, now, time.UTC))
}
