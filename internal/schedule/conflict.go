package schedule

import (
	"sort"
	"time"

	"rehab-booking/internal/models"
)

// Conflicting returns the first active booking of trainerID overlapping
// [start, end), skipping excludeID (the booking being edited).
func Conflicting(bookings []models.Booking, trainerID string, start, end time.Time, excludeID string) (models.Booking, bool) {
	for _, b := range bookings {
		if !blocks(b, trainerID, excludeID) {
			continue
		}
		if Overlaps(start, end, b.StartTime, b.EndTime) {
			return b, true
		}
	}
	return models.Booking{}, false
}

func HasConflict(bookings []models.Booking, trainerID string, start, end time.Time, excludeID string) bool {
	_, found := Conflicting(bookings, trainerID, start, end, excludeID)
	return found
}

func blocks(b models.Booking, trainerID, excludeID string) bool {
	if b.Status == models.BookingCancelled || b.TrainerID != trainerID {
		return false
	}
	return excludeID == "" || b.ID != excludeID
}

// TrainerIndex answers the same question as HasConflict when many candidates
// are checked against one booking set, as slot generation does: active
// bookings grouped per trainer and sorted by start, searched around the
// candidate instant.
type TrainerIndex struct {
	byTrainer map[string][]models.Booking
	// longest booking per trainer bounds how far back an overlap can start
	longest map[string]time.Duration
}

func NewTrainerIndex(bookings []models.Booking) *TrainerIndex {
	idx := &TrainerIndex{
		byTrainer: make(map[string][]models.Booking),
		longest:   make(map[string]time.Duration),
	}
	for _, b := range bookings {
		if b.Status == models.BookingCancelled {
			continue
		}
		idx.byTrainer[b.TrainerID] = append(idx.byTrainer[b.TrainerID], b)
		if d := b.EndTime.Sub(b.StartTime); d > idx.longest[b.TrainerID] {
			idx.longest[b.TrainerID] = d
		}
	}
	for _, list := range idx.byTrainer {
		sort.Slice(list, func(i, j int) bool {
			return list[i].StartTime.Before(list[j].StartTime)
		})
	}
	return idx
}

func (idx *TrainerIndex) HasConflict(trainerID string, start, end time.Time, excludeID string) bool {
	list := idx.byTrainer[trainerID]
	if len(list) == 0 {
		return false
	}

	earliest := start.Add(-idx.longest[trainerID])
	i := sort.Search(len(list), func(i int) bool {
		return !list[i].StartTime.Before(earliest)
	})

	for ; i < len(list) && list[i].StartTime.Before(end); i++ {
		b := list[i]
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if Overlaps(start, end, b.StartTime, b.EndTime) {
			return true
		}
	}
	return false
}
