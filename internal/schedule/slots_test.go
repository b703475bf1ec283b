package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"rehab-booking/internal/models"
)

func TestSlots(t *testing.T) {
	monday := at(2026, 10, 26, 0, 0)
	week := models.EmptyWeek()
	week[models.Monday] = []models.TimeRange{{Start: "09:00", End: "11:00"}}

	base := SlotQuery{
		Day:       monday,
		Week:      week,
		Duration:  50,
		StepMins:  30,
		TrainerID: "t1",
		Role:      models.RoleClient,
		Boundary:  at(2026, 10, 20, 10, 0),
	}

	t.Run("steps through the range", func(t *testing.T) {
		assert.Equal(t, []string{"09:00", "09:30", "10:00"}, Slots(base))
	})

	t.Run("drops conflicting starts", func(t *testing.T) {
		q := base
		q.Bookings = []models.Booking{booking("b1", "t1", AtClock(monday, "09:00"), 25)}
		assert.Equal(t, []string{"09:30", "10:00"}, Slots(q))

		q.ExcludeID = "b1"
		assert.Equal(t, []string{"09:00", "09:30", "10:00"}, Slots(q))
	})

	t.Run("lead time applies to customers only", func(t *testing.T) {
		q := base
		q.Boundary = AtClock(monday, "09:15")
		assert.Equal(t, []string{"09:30", "10:00"}, Slots(q))

		q.Role = models.RoleTrainer
		assert.Equal(t, []string{"09:00", "09:30", "10:00"}, Slots(q))
	})

	t.Run("deduplicates and sorts", func(t *testing.T) {
		q := base
		q.Duration = 25
		q.Week = models.WeeklyAvailability{
			models.Monday: {
				{Start: "09:30", End: "10:30"},
				{Start: "09:00", End: "10:00"},
			},
		}
		assert.Equal(t, []string{"09:00", "09:30", "10:00"}, Slots(q))
	})

	t.Run("empty when nothing fits", func(t *testing.T) {
		q := base
		q.Duration = 150
		assert.Empty(t, Slots(q))

		q = base
		q.Day = AddDays(monday, 1)
		assert.Empty(t, Slots(q))

		q = base
		q.Week = nil
		assert.NotNil(t, Slots(q))
		assert.Empty(t, Slots(q))
	})

	t.Run("default step", func(t *testing.T) {
		q := base
		q.StepMins = 0
		q.Duration = 15
		assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, Slots(q))
	})

	t.Run("long earlier booking, other trainers and cancellations", func(t *testing.T) {
		cancelled := booking("b3", "t1", AtClock(monday, "10:00"), 50)
		cancelled.Status = models.BookingCancelled

		q := base
		q.Bookings = []models.Booking{
			booking("b1", "t1", AtClock(monday, "08:00"), 100),
			booking("b2", "t2", AtClock(monday, "10:00"), 50),
			cancelled,
		}
		assert.Equal(t, []string{"10:00"}, Slots(q))
	})
}

func TestSnapshot(t *testing.T) {
	loaded := at(2026, 10, 19, 10, 0)
	snap := NewSnapshot(nil, loaded)

	assert.Equal(t, 5*time.Minute, snap.Age(loaded.Add(5*time.Minute)))
	assert.False(t, snap.Stale(loaded.Add(time.Minute), time.Minute))
	assert.True(t, snap.Stale(loaded.Add(time.Minute+time.Second), time.Minute))
	assert.False(t, snap.Stale(loaded.Add(time.Hour), 0))

	b := booking("b1", "t1", at(2026, 10, 26, 10, 0), 50)
	next := snap.With(b)

	assert.Empty(t, snap.Bookings)
	assert.Len(t, next.Bookings, 1)
	assert.Equal(t, loaded, next.LoadedAt)
	assert.True(t, next.HasConflict("t1", at(2026, 10, 26, 10, 30), at(2026, 10, 26, 11, 0), ""))
}
