package scheduling

import (
	"sort"
	"time"

	"github.com/courtsync/tournament-system/models"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints do not overlap, so a match ending 11:00 and one starting 11:00
// can share a court.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

// Duration returns the interval length.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// FreeSlots subtracts the busy intervals from the window and returns the
// remaining free ranges in chronological order. Busy intervals may be
// unsorted and may overlap each other.
func FreeSlots(window Interval, busy []Interval) []Interval {
	if !window.Start.Before(window.End) {
		return nil
	}

	sorted := make([]Interval, len(busy))
	copy(sorted, busy)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	free := make([]Interval, 0, len(sorted)+1)
	cursor := window.Start
	for _, b := range sorted {
		if !b.End.After(cursor) || !b.Start.Before(window.End) {
			continue
		}
		if b.Start.After(cursor) {
			end := b.Start
			if end.After(window.End) {
				end = window.End
			}
			free = append(free, Interval{Start: cursor, End: end})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
		if !cursor.Before(window.End) {
			return free
		}
	}
	if cursor.Before(window.End) {
		free = append(free, Interval{Start: cursor, End: window.End})
	}
	return free
}

// CourtWindow clamps the tournament window to the court's availability
// bounds. A nil bound keeps the tournament bound.
func CourtWindow(court *models.Court, window Interval) Interval {
	out := window
	if court.AvailabilityStart != nil && court.AvailabilityStart.After(out.Start) {
		out.Start = *court.AvailabilityStart
	}
	if court.AvailabilityEnd != nil && court.AvailabilityEnd.Before(out.End) {
		out.End = *court.AvailabilityEnd
	}
	return out
}

// CourtTimeline tracks one court's window and the intervals already taken,
// and hands out the earliest fitting slot on demand.
type CourtTimeline struct {
	CourtID int
	Window  Interval
	busy    []Interval
}

// NewCourtTimeline builds a timeline for the court, clamping the tournament
// window to its availability and seeding it with already scheduled matches.
func NewCourtTimeline(court *models.Court, window Interval, taken []Interval) *CourtTimeline {
	t := &CourtTimeline{CourtID: court.ID, Window: CourtWindow(court, window)}
	t.busy = append(t.busy, taken...)
	return t
}

// EarliestSlot returns the earliest free interval of the given length, or
// false when the timeline has no room left. The slot is not reserved.
func (t *CourtTimeline) EarliestSlot(d time.Duration) (Interval, bool) {
	for _, slot := range FreeSlots(t.Window, t.busy) {
		if slot.Duration() >= d {
			return Interval{Start: slot.Start, End: slot.Start.Add(d)}, true
		}
	}
	return Interval{}, false
}

// Reserve marks the interval as taken.
func (t *CourtTimeline) Reserve(iv Interval) {
	t.busy = append(t.busy, iv)
}

// AssignTimes walks the matches in play order and books each one onto the
// court with the earliest available slot fitting its duration. Matches
// pinned to a court (CourtID already set) only consider that court. The
// second return value lists matches no court could fit.
func AssignTimes(ordered []*models.Match, timelines []*CourtTimeline, durationFor func(*models.Match) time.Duration) (placed, unplaced []*models.Match) {
	byID := make(map[int]*CourtTimeline, len(timelines))
	for _, t := range timelines {
		byID[t.CourtID] = t
	}

	for _, m := range ordered {
		d := durationFor(m)

		candidates := timelines
		if m.CourtID != nil {
			if t, ok := byID[*m.CourtID]; ok {
				candidates = []*CourtTimeline{t}
			}
		}

		var best *CourtTimeline
		var bestSlot Interval
		for _, t := range candidates {
			slot, ok := t.EarliestSlot(d)
			if !ok {
				continue
			}
			if best == nil || slot.Start.Before(bestSlot.Start) {
				best = t
				bestSlot = slot
			}
		}
		if best == nil {
			unplaced = append(unplaced, m)
			continue
		}

		best.Reserve(bestSlot)
		id := best.CourtID
		start, end := bestSlot.Start, bestSlot.End
		m.CourtID = &id
		m.ScheduledStart = &start
		m.ScheduledEnd = &end
		placed = append(placed, m)
	}
	return placed, unplaced
}
