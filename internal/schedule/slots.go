package schedule

import (
	"sort"
	"time"

	"rehab-booking/internal/models"
)

const DefaultSlotStep = 30

type SlotQuery struct {
	// Day is any instant on the calendar date to enumerate, in local time.
	Day       time.Time
	Week      models.WeeklyAvailability
	Duration  int
	StepMins  int
	TrainerID string
	Role      models.Role
	// Boundary is the lead-time limit; customer candidates before it are dropped.
	Boundary  time.Time
	Bookings  []models.Booking
	ExcludeID string
}

// Slots lists bookable "HH:MM" start times on q.Day. Candidates step through
// each availability range from its start up to end-duration inclusive.
// The list is a UI affordance; admission is re-run on submit.
func Slots(q SlotQuery) []string {
	if q.Duration <= 0 || q.Week == nil {
		return []string{}
	}
	step := q.StepMins
	if step <= 0 {
		step = DefaultSlotStep
	}
	checkLead := rulesFor(q.Role).leadTime
	taken := NewTrainerIndex(q.Bookings)

	seen := make(map[string]struct{})
	for _, r := range q.Week[WeekdayKey(q.Day.Weekday())] {
		if !IsHHMM(r.Start) || !IsHHMM(r.End) {
			continue
		}
		last := HHMMToMinutes(r.End) - q.Duration
		for m := HHMMToMinutes(r.Start); m <= last; m += step {
			start := AtMinutes(q.Day, m)
			if checkLead && start.Before(q.Boundary) {
				continue
			}
			if taken.HasConflict(q.TrainerID, start, CalcEnd(start, q.Duration), q.ExcludeID) {
				continue
			}
			seen[MinutesToHHMM(m)] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
