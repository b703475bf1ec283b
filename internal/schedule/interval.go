package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"rehab-booking/internal/models"
)

const minutesPerDay = 24 * 60

var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Back-to-back intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func CalcEnd(start time.Time, minutes int) time.Time {
	return start.Add(time.Duration(minutes) * time.Minute)
}

func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// AddMonths shifts by calendar months. A day-of-month missing in the target
// month rolls over into the next one (Jan 31 + 1 month = Mar 3 or Mar 2).
func AddMonths(t time.Time, n int) time.Time {
	return t.AddDate(0, n, 0)
}

func IsHHMM(s string) bool {
	return hhmmPattern.MatchString(s)
}

// HHMMToMinutes converts "HH:MM" to minutes since midnight; malformed input is 0.
func HHMMToMinutes(s string) int {
	if !IsHHMM(s) {
		return 0
	}
	h, _ := strconv.Atoi(s[:2])
	m, _ := strconv.Atoi(s[3:])
	return h*60 + m
}

func MinutesToHHMM(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

var weekdayKeys = [...]models.DayKey{
	time.Sunday:    models.Sunday,
	time.Monday:    models.Monday,
	time.Tuesday:   models.Tuesday,
	time.Wednesday: models.Wednesday,
	time.Thursday:  models.Thursday,
	time.Friday:    models.Friday,
	time.Saturday:  models.Saturday,
}

func WeekdayKey(wd time.Weekday) models.DayKey {
	return weekdayKeys[wd%7]
}

// ClockMinutes is the minute of the day of t in its own location.
func ClockMinutes(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// AtClock returns the instant on day's calendar date at the given "HH:MM".
func AtClock(day time.Time, hhmm string) time.Time {
	return AtMinutes(day, HHMMToMinutes(hhmm))
}

func AtMinutes(day time.Time, minutes int) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, day.Location())
}
