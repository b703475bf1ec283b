package schedule

import (
	"time"

	"rehab-booking/internal/models"
)

// Snapshot is the set of bookings admission decisions are made against,
// stamped with the moment it was loaded.
type Snapshot struct {
	Bookings []models.Booking
	LoadedAt time.Time
}

func NewSnapshot(bookings []models.Booking, loadedAt time.Time) Snapshot {
	return Snapshot{Bookings: bookings, LoadedAt: loadedAt}
}

// Age is how old the snapshot is at now.
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.LoadedAt)
}

// Stale reports whether the snapshot is older than maxAge. A zero maxAge
// never goes stale.
func (s Snapshot) Stale(now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	return s.Age(now) > maxAge
}

// With returns a snapshot that also contains b, used to keep later
// occurrences of a series from colliding with earlier ones.
func (s Snapshot) With(b models.Booking) Snapshot {
	bookings := make([]models.Booking, 0, len(s.Bookings)+1)
	bookings = append(bookings, s.Bookings...)
	bookings = append(bookings, b)
	return Snapshot{Bookings: bookings, LoadedAt: s.LoadedAt}
}

func (s Snapshot) HasConflict(trainerID string, start, end time.Time, excludeID string) bool {
	return HasConflict(s.Bookings, trainerID, start, end, excludeID)
}
