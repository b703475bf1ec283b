package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"rehab-booking/api"
	"rehab-booking/internal/dialog"
	"rehab-booking/internal/feed"
	"rehab-booking/internal/models"
	"rehab-booking/internal/schedule"
	"rehab-booking/pkg/response"
)

const dateLayout = "2006-01-02"

func (s *Service) parseDate(date string) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, date, s.opts.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, response.ErrBadRequest)
	}
	return day, nil
}

func (s *Service) open(p dialog.Params) *dialog.Session {
	p.Policy = s.policy()
	p.Durations = s.opts.Durations
	p.SlotStep = s.opts.SlotStep
	p.Location = s.opts.Location
	p.Store = s.store
	return dialog.Open(p)
}

// refresher publishes the change once a dialog operation has written
// something. It outlives the confirm timeout of the operation itself.
func (s *Service) refresher(trainerID, clientID string) func(ctx context.Context) {
	return func(ctx context.Context) {
		s.publish(context.WithoutCancel(ctx), feed.TrainerScope(trainerID), feed.ClientScope(clientID))
	}
}

// #### slots ####

// Slots lists selectable start times for trainerID on date. A zero duration
// means the default (longest) one.
func (s *Service) Slots(ctx context.Context, id models.Identity, trainerID, date string, duration int, excludeID string) (*api.SlotsResponse, error) {
	const op = "service.Slots"

	day, err := s.parseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if duration == 0 {
		duration = s.opts.Durations[len(s.opts.Durations)-1]
	}
	if !slices.Contains(s.opts.Durations, duration) {
		return nil, fmt.Errorf("%s: %w", op, schedule.ErrInvalidDuration)
	}

	week, err := s.availability(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	snap, err := s.snapshot(ctx, trainerID, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slots := schedule.Slots(schedule.SlotQuery{
		Day:       day,
		Week:      week,
		Duration:  duration,
		StepMins:  s.opts.SlotStep,
		TrainerID: trainerID,
		Role:      id.Role,
		Boundary:  s.policy().Boundary(),
		Bookings:  snap.Bookings,
		ExcludeID: excludeID,
	})

	return &api.SlotsResponse{
		TrainerID:       trainerID,
		Date:            day.Format(dateLayout),
		DurationMinutes: duration,
		Slots:           slots,
	}, nil
}

// #### bookings ####

// CreateBooking admits and persists a booking, or a weekly/biweekly series of
// them. The first occurrence must be admitted; later occurrences that are
// rejected are skipped and reported in the response. When the store fails
// partway through a series the response is returned with the error and lists
// the occurrences that were saved.
func (s *Service) CreateBooking(ctx context.Context, id models.Identity, req *api.BookingCreateRequest) (*api.BookingCreateResponse, error) {
	const op = "service.CreateBooking"

	trainerID, clientID := parties(id, req.TrainerID, req.ClientID)
	if trainerID == "" {
		return nil, fmt.Errorf("%s: %w", op, schedule.ErrMissingInput)
	}

	var day time.Time
	if req.Date != "" {
		var err error
		if day, err = s.parseDate(req.Date); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	cadence, err := schedule.ParseCadence(req.Repeat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	horizon := req.RepeatMonths
	if horizon == 0 {
		horizon = schedule.DefaultHorizon
	}

	var out *api.BookingCreateResponse

	err = s.withTrainerLock(ctx, trainerID, func(ctx context.Context) error {
		week, err := s.availability(ctx, trainerID)
		if err != nil {
			return err
		}

		snap, err := s.snapshot(ctx, trainerID, true)
		if err != nil {
			return err
		}

		session := s.open(dialog.Params{
			Mode:      dialog.ModeCreate,
			Role:      id.Role,
			TrainerID: trainerID,
			ClientID:  clientID,
			Week:      week,
			Snapshot:  snap,
			Refresh:   s.refresher(trainerID, clientID),
		})
		if !day.IsZero() {
			session.SetDate(day)
		}
		session.SetTime(req.Time)
		if req.DurationMinutes != 0 {
			session.SetDuration(req.DurationMinutes)
		}
		session.SetRepeat(cadence, horizon)
		session.SetNote(req.Note)

		res, err := session.Confirm(ctx)
		if res != nil {
			out = s.toCreateResponse(id, res)
		}
		return err
	})
	if err != nil {
		// out lists the occurrences saved before a series failed
		return out, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// UpdateBooking moves or annotates an existing booking. Fields left empty in
// req keep their stored values.
func (s *Service) UpdateBooking(ctx context.Context, id models.Identity, bookingID string, req *api.BookingUpdateRequest) (*api.BookingUpdateResponse, error) {
	const op = "service.UpdateBooking"

	existing, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !canTouch(id, existing) || existing.Status != models.BookingActive {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	var day time.Time
	if req.Date != "" {
		if day, err = s.parseDate(req.Date); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	var out *api.BookingUpdateResponse

	err = s.withTrainerLock(ctx, existing.TrainerID, func(ctx context.Context) error {
		week, err := s.availability(ctx, existing.TrainerID)
		if err != nil {
			return err
		}

		snap, err := s.snapshot(ctx, existing.TrainerID, true)
		if err != nil {
			return err
		}

		session := s.open(dialog.Params{
			Mode:     dialog.ModeEdit,
			Existing: existing,
			Role:     id.Role,
			Week:     week,
			Snapshot: snap,
			Refresh:  s.refresher(existing.TrainerID, existing.ClientID),
		})
		if !day.IsZero() {
			session.SetDate(day)
		}
		if req.Time != "" {
			session.SetTime(req.Time)
		}
		if req.DurationMinutes != 0 {
			session.SetDuration(req.DurationMinutes)
		}
		if req.Note != nil {
			session.SetNote(req.Note)
		}

		res, err := session.Confirm(ctx)
		if err != nil {
			return err
		}

		out = &api.BookingUpdateResponse{
			Booking:  s.toBookingResponse(id, &res.Bookings[0]),
			Advisory: res.Occurrences[0].Advisory,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// CancelBooking soft-deletes a booking. Cancelling an already cancelled
// booking succeeds without writing.
func (s *Service) CancelBooking(ctx context.Context, id models.Identity, bookingID string) (*api.BookingResponse, error) {
	const op = "service.CancelBooking"

	existing, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !canTouch(id, existing) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	session := s.open(dialog.Params{
		Mode:     dialog.ModeEdit,
		Existing: existing,
		Role:     id.Role,
		Refresh:  s.refresher(existing.TrainerID, existing.ClientID),
	})

	ctx, cancel := context.WithTimeout(ctx, s.opts.ConfirmTimeout)
	defer cancel()

	if err := session.Cancel(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cancelled := *existing
	cancelled.Status = models.BookingCancelled

	resp := s.toBookingResponse(id, &cancelled)
	return &resp, nil
}

func (s *Service) GetBooking(ctx context.Context, id models.Identity, bookingID string) (*api.BookingResponse, error) {
	const op = "service.GetBooking"

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !id.Role.IsStaff() && booking.ClientID != id.UserID {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	resp := s.toBookingResponse(id, booking)
	return &resp, nil
}

// ListBookings returns bookings matching filter ordered by start. Customers
// only ever see their own.
func (s *Service) ListBookings(ctx context.Context, id models.Identity, filter models.BookingFilter) ([]api.BookingResponse, error) {
	const op = "service.ListBookings"

	if !id.Role.IsStaff() {
		self := id.UserID
		filter.ClientID = &self
	}

	bookings, err := s.store.ListBookings(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]api.BookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, s.toBookingResponse(id, &bookings[i]))
	}

	return out, nil
}

// #### conversion ####

func (s *Service) toBookingResponse(id models.Identity, b *models.Booking) api.BookingResponse {
	local := b.StartTime.In(s.opts.Location)
	editable := b.Status == models.BookingActive &&
		canTouch(id, b) &&
		s.policy().EditLock(id.Role, *b).Outcome != schedule.ClientEditLocked

	return api.BookingResponse{
		ID:              b.ID,
		TrainerID:       b.TrainerID,
		ClientID:        b.ClientID,
		StartTime:       b.StartTime,
		EndTime:         b.EndTime,
		Date:            local.Format(dateLayout),
		Time:            schedule.MinutesToHHMM(schedule.ClockMinutes(local)),
		DurationMinutes: b.Duration,
		Status:          string(b.Status),
		Repeat:          string(b.Repeat),
		Note:            b.Note,
		Editable:        editable,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func (s *Service) toCreateResponse(id models.Identity, res *dialog.Result) *api.BookingCreateResponse {
	out := &api.BookingCreateResponse{
		Bookings:    make([]api.BookingResponse, 0, len(res.Bookings)),
		Occurrences: make([]api.OccurrenceResponse, 0, len(res.Occurrences)),
	}

	for i := range res.Bookings {
		out.Bookings = append(out.Bookings, s.toBookingResponse(id, &res.Bookings[i]))
	}

	for _, o := range res.Occurrences {
		out.Occurrences = append(out.Occurrences, api.OccurrenceResponse{
			StartTime:    o.Start,
			Outcome:      string(o.Outcome),
			Advisory:     o.Advisory,
			BookingID:    o.BookingID,
			ConflictWith: o.ConflictWith,
		})
	}

	return out
}
