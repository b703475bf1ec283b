package schedule

import (
	"fmt"
	"strconv"
	"time"

	"rehab-booking/internal/models"
)

// Horizons are the series lengths, in months, a booking may repeat for.
var Horizons = []int{3, 6, 12}

const DefaultHorizon = 3

// Expand lists the occurrence instants of a booking series, first occurrence
// included. Weekly and biweekly series step by calendar days until
// start+horizonMonths (inclusive). When the first step already passes the
// horizon the series is just [start].
func Expand(start time.Time, cadence models.Cadence, horizonMonths int) []time.Time {
	occurrences := []time.Time{start}

	var stepDays int
	switch cadence {
	case models.RepeatWeekly:
		stepDays = 7
	case models.RepeatBiweekly:
		stepDays = 14
	default:
		return occurrences
	}

	until := AddMonths(start, horizonMonths)
	for cursor := AddDays(start, stepDays); !cursor.After(until); cursor = AddDays(cursor, stepDays) {
		occurrences = append(occurrences, cursor)
	}

	return occurrences
}

func ParseCadence(s string) (models.Cadence, error) {
	switch models.Cadence(s) {
	case "", models.RepeatNone:
		return models.RepeatNone, nil
	case models.RepeatWeekly, models.RepeatBiweekly:
		return models.Cadence(s), nil
	default:
		return "", newError(KindMissingInput, fmt.Sprintf("unknown repeat %q", s))
	}
}

func ParseHorizon(s string) (int, error) {
	if s == "" {
		return DefaultHorizon, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || !ValidHorizon(n) {
		return 0, newError(KindMissingInput, fmt.Sprintf("repeat horizon must be one of 3, 6 or 12 months, got %q", s))
	}
	return n, nil
}

func ValidHorizon(months int) bool {
	for _, h := range Horizons {
		if h == months {
			return true
		}
	}
	return false
}
