package scheduling

import (
	"testing"
	"time"

	"github.com/courtsync/tournament-system/models"
)

var day = time.Date(2025, time.June, 14, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func iv(startHour, startMin, endHour, endMin int) Interval {
	return Interval{Start: at(startHour, startMin), End: at(endHour, endMin)}
}

func TestIntervalOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"partial overlap", iv(10, 0, 11, 30), iv(11, 0, 12, 0), true},
		{"touching endpoints", iv(10, 0, 11, 0), iv(11, 0, 12, 0), false},
		{"contained", iv(10, 0, 14, 0), iv(11, 0, 12, 0), true},
		{"disjoint", iv(8, 0, 9, 0), iv(11, 0, 12, 0), false},
		{"identical", iv(10, 0, 11, 0), iv(10, 0, 11, 0), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Errorf("reversed: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFreeSlots(t *testing.T) {
	window := iv(9, 0, 18, 0)
	busy := []Interval{
		iv(12, 0, 13, 0),
		iv(10, 0, 11, 0),
		iv(10, 30, 11, 30), // overlaps the previous busy block
	}

	free := FreeSlots(window, busy)
	want := []Interval{
		iv(9, 0, 10, 0),
		iv(11, 30, 12, 0),
		iv(13, 0, 18, 0),
	}
	if len(free) != len(want) {
		t.Fatalf("got %d free slots %v, want %d", len(free), free, len(want))
	}
	for i := range want {
		if !free[i].Start.Equal(want[i].Start) || !free[i].End.Equal(want[i].End) {
			t.Errorf("slot %d is %v..%v, want %v..%v",
				i, free[i].Start, free[i].End, want[i].Start, want[i].End)
		}
	}
}

func TestFreeSlotsFullyBooked(t *testing.T) {
	window := iv(9, 0, 12, 0)
	if free := FreeSlots(window, []Interval{iv(8, 0, 13, 0)}); len(free) != 0 {
		t.Fatalf("got %v, want no free slots", free)
	}
}

func TestCourtWindowClampsToAvailability(t *testing.T) {
	availStart := at(10, 0)
	availEnd := at(16, 0)
	c := &models.Court{ID: 1, AvailabilityStart: &availStart, AvailabilityEnd: &availEnd}

	out := CourtWindow(c, iv(9, 0, 18, 0))
	if !out.Start.Equal(availStart) || !out.End.Equal(availEnd) {
		t.Errorf("got %v..%v, want %v..%v", out.Start, out.End, availStart, availEnd)
	}

	// A nil bound keeps the tournament bound.
	open := &models.Court{ID: 2}
	out = CourtWindow(open, iv(9, 0, 18, 0))
	if !out.Start.Equal(at(9, 0)) || !out.End.Equal(at(18, 0)) {
		t.Errorf("unbounded court clamped to %v..%v", out.Start, out.End)
	}
}

func TestCourtTimelineEarliestSlotAndReserve(t *testing.T) {
	tl := NewCourtTimeline(court(1), iv(9, 0, 12, 0), []Interval{iv(9, 0, 10, 0)})

	slot, ok := tl.EarliestSlot(90 * time.Minute)
	if !ok {
		t.Fatal("no slot found")
	}
	if !slot.Start.Equal(at(10, 0)) || !slot.End.Equal(at(11, 30)) {
		t.Fatalf("got %v..%v, want 10:00..11:30", slot.Start, slot.End)
	}

	tl.Reserve(slot)
	if _, ok := tl.EarliestSlot(90 * time.Minute); ok {
		t.Fatal("found a 90 minute slot in the remaining 30 minutes")
	}
	short, ok := tl.EarliestSlot(30 * time.Minute)
	if !ok || !short.Start.Equal(at(11, 30)) {
		t.Fatalf("remaining half hour not offered, got %v ok=%v", short, ok)
	}
}

func TestAssignTimesFillsEarliestCourtFirst(t *testing.T) {
	timelines := []*CourtTimeline{
		NewCourtTimeline(court(1), iv(9, 0, 12, 0), nil),
		NewCourtTimeline(court(2), iv(9, 0, 12, 0), nil),
	}
	matches := []*models.Match{
		groupMatch(1, 1, 1, 2),
		groupMatch(2, 1, 3, 4),
		groupMatch(3, 1, 1, 3),
	}

	placed, unplaced := AssignTimes(matches, timelines, func(*models.Match) time.Duration {
		return 90 * time.Minute
	})
	if len(unplaced) != 0 {
		t.Fatalf("unplaced matches %v", ids(unplaced))
	}
	if len(placed) != 3 {
		t.Fatalf("placed %d matches, want 3", len(placed))
	}

	// First two start together on different courts, third follows on court 1.
	if !placed[0].ScheduledStart.Equal(at(9, 0)) || !placed[1].ScheduledStart.Equal(at(9, 0)) {
		t.Errorf("first wave starts %v and %v, want both 9:00",
			placed[0].ScheduledStart, placed[1].ScheduledStart)
	}
	if *placed[0].CourtID == *placed[1].CourtID {
		t.Errorf("first wave shares court %d", *placed[0].CourtID)
	}
	if !placed[2].ScheduledStart.Equal(at(10, 30)) {
		t.Errorf("third match starts %v, want 10:30", placed[2].ScheduledStart)
	}
}

func TestAssignTimesHonoursPinnedCourt(t *testing.T) {
	timelines := []*CourtTimeline{
		NewCourtTimeline(court(1), iv(9, 0, 18, 0), nil),
		NewCourtTimeline(court(2), iv(9, 0, 18, 0), []Interval{iv(9, 0, 12, 0)}),
	}
	pinned := 2
	m := groupMatch(1, 1, 1, 2)
	m.CourtID = &pinned

	placed, unplaced := AssignTimes([]*models.Match{m}, timelines, func(*models.Match) time.Duration {
		return time.Hour
	})
	if len(unplaced) != 0 || len(placed) != 1 {
		t.Fatalf("placed=%d unplaced=%d, want 1/0", len(placed), len(unplaced))
	}
	if *m.CourtID != 2 {
		t.Errorf("pinned match moved to court %d", *m.CourtID)
	}
	if !m.ScheduledStart.Equal(at(12, 0)) {
		t.Errorf("pinned match starts %v, want 12:00 after the busy block", m.ScheduledStart)
	}
}

func TestAssignTimesReportsUnplaced(t *testing.T) {
	timelines := []*CourtTimeline{
		NewCourtTimeline(court(1), iv(9, 0, 10, 0), nil),
	}
	matches := []*models.Match{
		groupMatch(1, 1, 1, 2),
		groupMatch(2, 1, 3, 4),
	}

	placed, unplaced := AssignTimes(matches, timelines, func(*models.Match) time.Duration {
		return time.Hour
	})
	if len(placed) != 1 || len(unplaced) != 1 {
		t.Fatalf("placed=%d unplaced=%d, want 1/1", len(placed), len(unplaced))
	}
	if unplaced[0].ID != 2 {
		t.Errorf("unplaced match %d, want 2", unplaced[0].ID)
	}
}
