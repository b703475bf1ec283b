package dialog

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rehab-booking/internal/models"
	"rehab-booking/internal/schedule"
	"rehab-booking/pkg/response"
)

var now = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

type fakeStore struct {
	created   []models.Booking
	updates   map[string]models.BookingUpdate
	cancelled []string

	calls  int
	failAt int
	err    error
}

func (f *fakeStore) CreateBooking(_ context.Context, b *models.Booking) (*models.Booking, error) {
	f.calls++
	if f.failAt == f.calls {
		return nil, f.err
	}
	created := *b
	created.ID = fmt.Sprintf("bk-%d", f.calls)
	f.created = append(f.created, created)
	return &created, nil
}

func (f *fakeStore) UpdateBooking(_ context.Context, id string, update models.BookingUpdate) error {
	if f.err != nil {
		return f.err
	}
	if f.updates == nil {
		f.updates = make(map[string]models.BookingUpdate)
	}
	f.updates[id] = update
	return nil
}

func (f *fakeStore) CancelBooking(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.cancelled = append(f.cancelled, id)
	return nil
}

func mondayMorning() models.WeeklyAvailability {
	week := models.EmptyWeek()
	week[models.Monday] = []models.TimeRange{{Start: "09:00", End: "12:00"}}
	return week
}

func existingBooking(id, clientID string, start time.Time, minutes int) models.Booking {
	return models.Booking{
		ID:        id,
		TrainerID: "t1",
		ClientID:  clientID,
		StartTime: start,
		EndTime:   schedule.CalcEnd(start, minutes),
		Duration:  minutes,
		Status:    models.BookingActive,
		Repeat:    models.RepeatNone,
	}
}

type harness struct {
	store     *fakeStore
	refreshes int
}

func (h *harness) params(role models.Role, bookings ...models.Booking) Params {
	return Params{
		Mode:      ModeCreate,
		Role:      role,
		TrainerID: "t1",
		ClientID:  "c1",
		Week:      mondayMorning(),
		Snapshot:  schedule.NewSnapshot(bookings, now),
		Policy:    schedule.NewPolicy(24*time.Hour, func() time.Time { return now }),
		Location:  time.UTC,
		Store:     h.store,
		Refresh:   func(context.Context) { h.refreshes++ },
	}
}

func newHarness() *harness {
	return &harness{store: &fakeStore{}}
}

func TestCreate_Single(t *testing.T) {
	h := newHarness()
	p := h.params(models.RoleClient)
	p.Selected = at(2026, 10, 26, 10, 0)

	s := Open(p)
	assert.Equal(t, 50, s.Duration(), "longest duration is the default")
	s.SetDuration(25)
	note := "knee"
	s.SetNote(&note)

	require.True(t, s.CanConfirm())

	res, err := s.Confirm(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Bookings, 1)
	b := res.Bookings[0]
	assert.Equal(t, at(2026, 10, 26, 10, 0), b.StartTime)
	assert.Equal(t, at(2026, 10, 26, 10, 25), b.EndTime)
	assert.Equal(t, models.BookingActive, b.Status)
	assert.Equal(t, "knee", *b.Note)

	assert.True(t, s.Closed())
	assert.Empty(t, s.Err())
	assert.Equal(t, 1, h.refreshes)

	_, err = s.Confirm(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCreate_WeeklySeriesSkipsConflictingOccurrence(t *testing.T) {
	h := newHarness()
	blocker := existingBooking("other", "c2", at(2026, 11, 2, 10, 0), 50)
	p := h.params(models.RoleClient, blocker)
	p.Selected = at(2026, 10, 26, 10, 0)

	s := Open(p)
	s.SetRepeat(models.RepeatWeekly, 3)

	res, err := s.Confirm(context.Background())
	require.NoError(t, err)

	assert.Len(t, res.Occurrences, 14)
	assert.Len(t, res.Bookings, 13)
	assert.Len(t, h.store.created, 13)

	second := res.Occurrences[1]
	assert.Equal(t, at(2026, 11, 2, 10, 0), second.Start)
	assert.Equal(t, schedule.RejectedConflict, second.Outcome)
	assert.Equal(t, "other", second.ConflictWith)
	assert.Empty(t, second.BookingID)

	for _, b := range h.store.created {
		assert.NotEqual(t, blocker.StartTime, b.StartTime)
		assert.Equal(t, models.RepeatNone, b.Repeat, "each occurrence is an independent booking")
	}
	assert.Equal(t, 1, h.refreshes)
}

func TestCreate_FirstOccurrenceRejectedAbortsSeries(t *testing.T) {
	h := newHarness()
	blocker := existingBooking("other", "c2", at(2026, 10, 26, 10, 0), 50)
	p := h.params(models.RoleClient, blocker)
	p.Selected = at(2026, 10, 26, 10, 0)

	s := Open(p)
	s.SetRepeat(models.RepeatWeekly, 3)

	res, err := s.Confirm(context.Background())

	assert.Nil(t, res)
	assert.ErrorIs(t, err, schedule.ErrConflict)
	assert.Empty(t, h.store.created)
	assert.False(t, s.Closed())
	assert.Equal(t, schedule.ErrConflict.Msg, s.Err())
	assert.Zero(t, h.refreshes)
}

func TestCreate_LaterStoreConflictIsSkipped(t *testing.T) {
	h := newHarness()
	h.store.failAt = 2
	h.store.err = fmt.Errorf("storage: %w", schedule.ErrConflict)

	p := h.params(models.RoleClient)
	p.Selected = at(2026, 10, 26, 10, 0)

	s := Open(p)
	s.SetRepeat(models.RepeatBiweekly, 3)

	res, err := s.Confirm(context.Background())
	require.NoError(t, err)

	assert.Len(t, res.Occurrences, 7)
	assert.Len(t, res.Bookings, 6)
	assert.Equal(t, schedule.RejectedConflict, res.Occurrences[1].Outcome)
}

func TestCreate_StoreFailure(t *testing.T) {
	t.Run("first occurrence", func(t *testing.T) {
		h := newHarness()
		h.store.failAt = 1
		h.store.err = errors.New("connection refused")

		p := h.params(models.RoleClient)
		p.Selected = at(2026, 10, 26, 10, 0)
		s := Open(p)

		res, err := s.Confirm(context.Background())

		assert.Nil(t, res)
		assert.ErrorIs(t, err, schedule.ErrStoreFailure)
		assert.Equal(t, "connection refused", s.Err())
		assert.False(t, s.Closed())
		assert.True(t, s.CanConfirm(), "the user may retry")
		assert.Zero(t, h.refreshes)
	})

	t.Run("mid series keeps what was written", func(t *testing.T) {
		h := newHarness()
		h.store.failAt = 3
		h.store.err = errors.New("connection reset")

		p := h.params(models.RoleClient)
		p.Selected = at(2026, 10, 26, 10, 0)
		s := Open(p)
		s.SetRepeat(models.RepeatWeekly, 3)

		res, err := s.Confirm(context.Background())

		assert.ErrorIs(t, err, schedule.ErrStoreFailure)
		require.NotNil(t, res)
		assert.Len(t, res.Bookings, 2)
		assert.False(t, s.Closed())
		assert.Equal(t, 1, h.refreshes)
	})

	t.Run("retry resumes after what was written", func(t *testing.T) {
		h := newHarness()
		h.store.failAt = 3
		h.store.err = errors.New("connection reset")

		p := h.params(models.RoleClient)
		p.Selected = at(2026, 10, 26, 10, 0)
		s := Open(p)
		s.SetRepeat(models.RepeatWeekly, 3)

		_, err := s.Confirm(context.Background())
		require.ErrorIs(t, err, schedule.ErrStoreFailure)
		require.Len(t, h.store.created, 2)
		require.True(t, s.CanConfirm())

		res, err := s.Confirm(context.Background())
		require.NoError(t, err)

		assert.Len(t, res.Occurrences, 14)
		assert.Len(t, res.Bookings, 14)
		assert.Len(t, h.store.created, 14)
		assert.Equal(t, "bk-1", res.Bookings[0].ID)
		assert.Equal(t, "bk-2", res.Bookings[1].ID)

		starts := make(map[time.Time]int)
		for _, b := range h.store.created {
			starts[b.StartTime]++
		}
		for start, n := range starts {
			assert.Equal(t, 1, n, "trainer booked twice at %s", start)
		}
		assert.True(t, s.Closed())
	})

	t.Run("retry at another time sees the written occurrences", func(t *testing.T) {
		h := newHarness()
		h.store.failAt = 2
		h.store.err = errors.New("connection reset")

		p := h.params(models.RoleAdmin)
		p.Selected = at(2026, 10, 26, 10, 0)
		s := Open(p)
		s.SetRepeat(models.RepeatWeekly, 3)

		_, err := s.Confirm(context.Background())
		require.ErrorIs(t, err, schedule.ErrStoreFailure)
		require.Len(t, h.store.created, 1)

		s.SetTime("10:30")
		_, err = s.Confirm(context.Background())

		assert.ErrorIs(t, err, schedule.ErrConflict)
		assert.Len(t, h.store.created, 1)
	})
}

func TestCreate_RejectsUnsupportedDuration(t *testing.T) {
	h := newHarness()
	p := h.params(models.RoleAdmin)
	p.Selected = at(2026, 10, 26, 10, 0)

	s := Open(p)
	s.SetDuration(40)

	assert.False(t, s.CanConfirm())
	_, err := s.Confirm(context.Background())
	assert.ErrorIs(t, err, schedule.ErrInvalidDuration)
}

func TestCreate_InvalidHorizon(t *testing.T) {
	h := newHarness()
	p := h.params(models.RoleClient)
	p.Selected = at(2026, 10, 26, 10, 0)

	s := Open(p)
	s.SetRepeat(models.RepeatWeekly, 2)

	_, err := s.Confirm(context.Background())
	assert.ErrorIs(t, err, schedule.ErrMissingInput)
}

func TestCreate_StaffAdvisory(t *testing.T) {
	h := newHarness()
	p := h.params(models.RoleTrainer)
	p.Selected = at(2026, 10, 26, 13, 0)

	s := Open(p)
	s.SetDuration(25)

	assert.True(t, s.Check().Advisory)

	res, err := s.Confirm(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Occurrences[0].Advisory)
	assert.Equal(t, at(2026, 10, 26, 13, 25), res.Bookings[0].EndTime)
}

func TestCreate_MissingTime(t *testing.T) {
	h := newHarness()
	s := Open(h.params(models.RoleClient))
	s.SetDate(at(2026, 10, 26, 0, 0))

	assert.False(t, s.CanConfirm())

	_, err := s.Confirm(context.Background())
	assert.ErrorIs(t, err, schedule.ErrMissingInput)

	s.SetTime("10:00")
	_, err = s.Confirm(context.Background())
	assert.NoError(t, err)
}

func TestSlots(t *testing.T) {
	h := newHarness()
	blocker := existingBooking("other", "c2", at(2026, 10, 26, 9, 0), 50)
	s := Open(h.params(models.RoleClient, blocker))

	assert.Empty(t, s.Slots(), "no date chosen")

	s.SetDate(at(2026, 10, 26, 15, 0))
	s.SetDuration(50)

	assert.Equal(t, []string{"10:00", "10:30", "11:00"}, s.Slots())
}

func TestEdit_MovesWithoutSelfConflict(t *testing.T) {
	h := newHarness()
	own := existingBooking("b1", "c1", at(2026, 10, 26, 10, 0), 50)
	p := h.params(models.RoleClient, own)
	p.Mode = ModeEdit
	p.Existing = &own

	s := Open(p)

	start, ok := s.Start()
	require.True(t, ok)
	assert.Equal(t, own.StartTime, start)
	assert.Equal(t, 50, s.Duration())

	s.SetTime("10:15")

	res, err := s.Confirm(context.Background())
	require.NoError(t, err)

	update := h.store.updates["b1"]
	assert.Equal(t, at(2026, 10, 26, 10, 15), update.StartTime)
	assert.Equal(t, at(2026, 10, 26, 11, 5), update.EndTime)
	assert.Equal(t, at(2026, 10, 26, 10, 15), res.Bookings[0].StartTime)
	assert.Equal(t, own.StartTime, p.Existing.StartTime, "caller's booking is not mutated")
}

func TestEdit_ConflictWithAnotherBooking(t *testing.T) {
	h := newHarness()
	own := existingBooking("b1", "c1", at(2026, 10, 26, 9, 0), 50)
	other := existingBooking("b2", "c2", at(2026, 10, 26, 11, 0), 50)
	p := h.params(models.RoleClient, own, other)
	p.Mode = ModeEdit
	p.Existing = &own

	s := Open(p)
	s.SetTime("10:30")

	_, err := s.Confirm(context.Background())
	assert.ErrorIs(t, err, schedule.ErrConflict)
	assert.Empty(t, h.store.updates)
}

func TestEdit_CustomerLockedWithinLeadTime(t *testing.T) {
	h := newHarness()
	soon := existingBooking("b1", "c1", now.Add(20*time.Hour), 50)
	p := h.params(models.RoleClient, soon)
	p.Mode = ModeEdit
	p.Existing = &soon

	s := Open(p)

	assert.True(t, s.EditLocked())
	assert.False(t, s.CanConfirm())
	assert.False(t, s.CanCancel())
	assert.Equal(t, schedule.ClientEditLocked, s.Check().Outcome)

	s.SetDate(at(2026, 10, 26, 0, 0))
	s.SetTime("10:00")
	_, err := s.Confirm(context.Background())
	assert.ErrorIs(t, err, schedule.ErrClientEditLocked, "the stored start decides, not the new one")

	assert.ErrorIs(t, s.Cancel(context.Background()), schedule.ErrClientEditLocked)
	assert.Empty(t, h.store.cancelled)
}

func TestCancel(t *testing.T) {
	t.Run("trainer may cancel inside lead time", func(t *testing.T) {
		h := newHarness()
		soon := existingBooking("b1", "c1", now.Add(2*time.Hour), 50)
		p := h.params(models.RoleTrainer, soon)
		p.Mode = ModeEdit
		p.Existing = &soon

		s := Open(p)
		require.True(t, s.CanCancel())
		require.NoError(t, s.Cancel(context.Background()))

		assert.Equal(t, []string{"b1"}, h.store.cancelled)
		assert.True(t, s.Closed())
		assert.Equal(t, 1, h.refreshes)
	})

	t.Run("already cancelled is a no-op", func(t *testing.T) {
		h := newHarness()
		gone := existingBooking("b1", "c1", at(2026, 10, 26, 10, 0), 50)
		gone.Status = models.BookingCancelled
		p := h.params(models.RoleClient)
		p.Mode = ModeEdit
		p.Existing = &gone

		s := Open(p)
		require.NoError(t, s.Cancel(context.Background()))
		assert.Empty(t, h.store.cancelled)
	})

	t.Run("create mode has nothing to cancel", func(t *testing.T) {
		h := newHarness()
		s := Open(h.params(models.RoleAdmin))
		assert.ErrorIs(t, s.Cancel(context.Background()), schedule.ErrMissingInput)
	})

	t.Run("store failure leaves the dialog open", func(t *testing.T) {
		h := newHarness()
		h.store.err = errors.New("timeout")
		own := existingBooking("b1", "c1", at(2026, 10, 26, 10, 0), 50)
		p := h.params(models.RoleClient)
		p.Mode = ModeEdit
		p.Existing = &own

		s := Open(p)
		err := s.Cancel(context.Background())

		assert.ErrorIs(t, err, schedule.ErrStoreFailure)
		assert.Equal(t, "timeout", s.Err())
		assert.False(t, s.Closed())
	})

	t.Run("vanished booking is not a store failure", func(t *testing.T) {
		h := newHarness()
		h.store.err = fmt.Errorf("storage: %w", response.ErrNotFound)
		own := existingBooking("b1", "c1", at(2026, 10, 26, 10, 0), 50)
		p := h.params(models.RoleClient)
		p.Mode = ModeEdit
		p.Existing = &own

		s := Open(p)
		err := s.Cancel(context.Background())

		assert.ErrorIs(t, err, response.ErrNotFound)
		assert.NotErrorIs(t, err, schedule.ErrStoreFailure)
	})
}

func TestEdit_VanishedBooking(t *testing.T) {
	h := newHarness()
	h.store.err = fmt.Errorf("storage: %w", response.ErrNotFound)
	own := existingBooking("b1", "c1", at(2026, 10, 26, 10, 0), 50)
	p := h.params(models.RoleClient, own)
	p.Mode = ModeEdit
	p.Existing = &own

	s := Open(p)
	s.SetTime("10:30")
	_, err := s.Confirm(context.Background())

	assert.ErrorIs(t, err, response.ErrNotFound)
	assert.NotErrorIs(t, err, schedule.ErrStoreFailure)
	assert.False(t, s.Closed())
}
