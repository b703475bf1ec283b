package schedule

import (
	"fmt"
	"sort"
	"time"

	"rehab-booking/internal/models"
)

// Validate normalizes a weekly availability document.
//
// A key that is not one of the seven lowercase day names fails with
// MISSING_INPUT. Each day is checked independently, in monday..sunday order: ranges that are
// not strict "HH:MM" pairs are dropped, a range whose start is not before its
// end fails with INVALID_RANGE, the rest is sorted by start and adjacent
// ranges that overlap fail with OVERLAPPING_RANGE. The first failure wins and
// nothing of the input is returned with it.
//
// The result always carries all seven days.
func Validate(week models.WeeklyAvailability) (models.WeeklyAvailability, error) {
	for day := range week {
		if err := checkDay(day); err != nil {
			return nil, err
		}
	}

	out := models.EmptyWeek()

	for _, day := range models.DayKeys {
		ranges, err := normalizeDay(day, week[day])
		if err != nil {
			return nil, err
		}
		out[day] = ranges
	}

	return out, nil
}

func normalizeDay(day models.DayKey, ranges []models.TimeRange) ([]models.TimeRange, error) {
	kept := make([]models.TimeRange, 0, len(ranges))
	for _, r := range ranges {
		if !IsHHMM(r.Start) || !IsHHMM(r.End) {
			continue
		}
		if r.Start >= r.End {
			return nil, newError(KindInvalidRange, fmt.Sprintf("%s: %s-%s start must be before end", day, r.Start, r.End))
		}
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Start < kept[j].Start
	})

	for i := 1; i < len(kept); i++ {
		prev, cur := kept[i-1], kept[i]
		if prev.Start < cur.End && prev.End > cur.Start {
			return nil, newError(KindOverlappingRange, fmt.Sprintf("%s: %s-%s overlaps %s-%s", day, prev.Start, prev.End, cur.Start, cur.End))
		}
	}

	return kept, nil
}

// Contains reports whether [start, start+minutes) lies entirely inside one of
// the ranges declared for start's weekday. Intervals running past midnight
// never fit.
func Contains(week models.WeeklyAvailability, start time.Time, minutes int) bool {
	if week == nil || minutes <= 0 {
		return false
	}

	from := ClockMinutes(start)
	to := from + minutes
	if to > minutesPerDay {
		return false
	}

	for _, r := range week[WeekdayKey(start.Weekday())] {
		if HHMMToMinutes(r.Start) <= from && to <= HHMMToMinutes(r.End) {
			return true
		}
	}
	return false
}
