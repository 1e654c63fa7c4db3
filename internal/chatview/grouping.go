package chatview

import (
	"time"

	"backend/internal/app/message"
)

// GroupWindow is the maximum gap between two same-sender messages for
// them to render as one visual group. Two messages separated by
// exactly this much are not grouped.
const GroupWindow = 5 * time.Minute

// GroupPosition is a message's place inside its visual group.
type GroupPosition string

const (
	PositionSingle GroupPosition = "single"
	PositionFirst  GroupPosition = "first"
	PositionMiddle GroupPosition = "middle"
	PositionLast   GroupPosition = "last"
)

// DisplayMeta is the derived per-message presentation metadata. It is
// recomputed from scratch on every list change; nothing here is
// stored.
type DisplayMeta struct {
	Position GroupPosition
	// DaySeparator is the label to render above the message, empty
	// when the previous message falls on the same calendar day.
	DaySeparator string
}

// groupable reports whether b can join a's group: same sender and
// strictly under GroupWindow apart.
func groupable(a, b *message.Message) bool {
	if a.SenderID != b.SenderID {
		return false
	}
	gap := b.CreatedAt.Sub(a.CreatedAt)
	if gap < 0 {
		gap = -gap
	}
	return gap < GroupWindow
}

// ComputeDisplay derives grouping and day separators for messages
// ordered by creation time ascending. It trusts the given order and is
// a pure function of the list, now and the zone; rerunning on the same
// inputs produces identical output.
func ComputeDisplay(msgs []*message.Message, now time.Time, zone *time.Location) []DisplayMeta {
	out := make([]DisplayMeta, len(msgs))
	for i, m := range msgs {
		withPrev := i > 0 && groupable(msgs[i-1], m)
		withNext := i < len(msgs)-1 && groupable(m, msgs[i+1])

		switch {
		case withPrev && withNext:
			out[i].Position = PositionMiddle
		case withNext:
			out[i].Position = PositionFirst
		case withPrev:
			out[i].Position = PositionLast
		default:
			out[i].Position = PositionSingle
		}

		if i == 0 || !sameCalendarDay(msgs[i-1].CreatedAt, m.CreatedAt, zone) {
			out[i].DaySeparator = DayLabel(m.CreatedAt, now, zone)
		}
	}
	return out
}

func sameCalendarDay(a, b time.Time, zone *time.Location) bool {
	ay, am, ad := a.In(zone).Date()
	by, bm, bd := b.In(zone).Date()
	return ay == by && am == bm && ad == bd
}

// DayLabel renders a separator label for the given timestamp in the
// viewer's zone: Today, Yesterday, or an absolute date.
func DayLabel(ts, now time.Time, zone *time.Location) string {
	if sameCalendarDay(ts, now, zone) {
		return "Today"
	}
	if sameCalendarDay(ts, now.AddDate(0, 0, -1), zone) {
		return "Yesterday"
	}
	return ts.In(zone).Format("January 2, 2006")
}
