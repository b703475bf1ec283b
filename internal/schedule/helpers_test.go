package schedule

import (
	"time"

	"rehab-booking/internal/models"
)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func booking(id, trainerID string, start time.Time, minutes int) models.Booking {
	return models.Booking{
		ID:        id,
		TrainerID: trainerID,
		ClientID:  "client-" + id,
		StartTime: start,
		EndTime:   CalcEnd(start, minutes),
		Duration:  minutes,
		Status:    models.BookingActive,
		Repeat:    models.RepeatNone,
	}
}

func weekdays(start, end string) models.WeeklyAvailability {
	week := models.EmptyWeek()
	for _, day := range []models.DayKey{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday} {
		week[day] = []models.TimeRange{{Start: start, End: end}}
	}
	return week
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
