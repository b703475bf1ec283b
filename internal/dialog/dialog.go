// Package dialog holds the transient session behind one booking dialog:
// choosing a date, time, duration and repeat for a new booking, or moving,
// annotating or cancelling an existing one.
package dialog

import (
	"context"
	"errors"
	"slices"
	"time"

	"rehab-booking/internal/models"
	"rehab-booking/internal/schedule"
	"rehab-booking/pkg/response"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

var DefaultDurations = []int{15, 25, 50}

var ErrClosed = errors.New("dialog: session closed")

// Store is the part of the booking store a dialog writes to.
type Store interface {
	CreateBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	UpdateBooking(ctx context.Context, id string, update models.BookingUpdate) error
	CancelBooking(ctx context.Context, id string) error
}

type Params struct {
	Mode     Mode
	Existing *models.Booking
	// Selected pre-fills date and time when creating, e.g. from a calendar click.
	Selected  time.Time
	Role      models.Role
	TrainerID string
	ClientID  string
	Week      models.WeeklyAvailability
	Snapshot  schedule.Snapshot
	Policy    schedule.Policy
	Durations []int
	SlotStep  int
	Location  *time.Location
	Store     Store
	// Refresh is called after every successful operation.
	Refresh func(ctx context.Context)
}

type OccurrenceResult struct {
	Start        time.Time
	Outcome      schedule.Outcome
	Advisory     bool
	BookingID    string
	ConflictWith string
}

type Result struct {
	Bookings    []models.Booking
	Occurrences []OccurrenceResult
}

type Session struct {
	p Params

	date     time.Time
	clock    string
	duration int
	repeat   models.Cadence
	horizon  int
	note     *string

	errMsg string
	closed bool

	// written remembers occurrences already persisted by an earlier confirm
	// that failed partway, so a retry resumes instead of writing them again.
	written map[occurrenceKey]writtenOccurrence
}

type occurrenceKey struct {
	start    int64
	duration int
}

type writtenOccurrence struct {
	booking models.Booking
	result  OccurrenceResult
}

func Open(p Params) *Session {
	if len(p.Durations) == 0 {
		p.Durations = DefaultDurations
	}
	if p.Location == nil {
		p.Location = time.Local
	}
	if p.Policy.Now == nil || p.Policy.LeadTime <= 0 {
		p.Policy = schedule.NewPolicy(p.Policy.LeadTime, p.Policy.Now)
	}

	s := &Session{
		p:        p,
		duration: p.Durations[len(p.Durations)-1],
		repeat:   models.RepeatNone,
		horizon:  schedule.DefaultHorizon,
		written:  make(map[occurrenceKey]writtenOccurrence),
	}

	switch {
	case p.Mode == ModeEdit && p.Existing != nil:
		existing := *p.Existing
		s.p.Existing = &existing
		s.p.TrainerID = existing.TrainerID
		s.p.ClientID = existing.ClientID
		s.setInstant(existing.StartTime)
		s.duration = existing.Duration
		s.note = existing.Note
	case !p.Selected.IsZero():
		s.setInstant(p.Selected)
	}

	return s
}

func (s *Session) setInstant(t time.Time) {
	local := t.In(s.p.Location)
	s.date = schedule.AtMinutes(local, 0)
	s.clock = schedule.MinutesToHHMM(schedule.ClockMinutes(local))
}

func (s *Session) SetDate(day time.Time) {
	s.date = schedule.AtMinutes(day.In(s.p.Location), 0)
}

func (s *Session) SetTime(hhmm string) {
	s.clock = hhmm
}

func (s *Session) SetDuration(minutes int) {
	s.duration = minutes
}

func (s *Session) SetRepeat(cadence models.Cadence, horizonMonths int) {
	s.repeat = cadence
	s.horizon = horizonMonths
}

func (s *Session) SetNote(note *string) {
	s.note = note
}

func (s *Session) Mode() Mode {
	return s.p.Mode
}

func (s *Session) Duration() int {
	return s.duration
}

// Start is the effective start instant; false until date and a valid time are set.
func (s *Session) Start() (time.Time, bool) {
	if s.date.IsZero() || !schedule.IsHHMM(s.clock) {
		return time.Time{}, false
	}
	return schedule.AtClock(s.date, s.clock), true
}

func (s *Session) End() (time.Time, bool) {
	start, ok := s.Start()
	if !ok {
		return time.Time{}, false
	}
	return schedule.CalcEnd(start, s.duration), true
}

func (s *Session) candidate(start time.Time) schedule.Candidate {
	c := schedule.Candidate{
		TrainerID: s.p.TrainerID,
		ClientID:  s.p.ClientID,
		Start:     start,
		Duration:  s.duration,
	}
	if s.p.Existing != nil {
		c.ExcludeID = s.p.Existing.ID
	}
	return c
}

func (s *Session) excludeID() string {
	if s.p.Existing == nil {
		return ""
	}
	return s.p.Existing.ID
}

// Slots lists selectable start times for the chosen date and duration.
func (s *Session) Slots() []string {
	if s.date.IsZero() {
		return []string{}
	}
	return schedule.Slots(schedule.SlotQuery{
		Day:       s.date,
		Week:      s.p.Week,
		Duration:  s.duration,
		StepMins:  s.p.SlotStep,
		TrainerID: s.p.TrainerID,
		Role:      s.p.Role,
		Boundary:  s.p.Policy.Boundary(),
		Bookings:  s.p.Snapshot.Bookings,
		ExcludeID: s.excludeID(),
	})
}

// EditLocked is true when a customer opens a booking that starts within the
// lead time; edit and cancel are then disabled outright.
func (s *Session) EditLocked() bool {
	if s.p.Mode != ModeEdit || s.p.Existing == nil {
		return false
	}
	return s.p.Policy.EditLock(s.p.Role, *s.p.Existing).Outcome == schedule.ClientEditLocked
}

func (s *Session) validDuration() bool {
	return slices.Contains(s.p.Durations, s.duration)
}

func (s *Session) CanConfirm() bool {
	if s.closed || s.EditLocked() || !s.validDuration() {
		return false
	}
	if s.p.TrainerID == "" || s.p.ClientID == "" {
		return false
	}
	_, ok := s.Start()
	return ok
}

func (s *Session) CanCancel() bool {
	if s.closed || s.p.Mode != ModeEdit || s.p.Existing == nil {
		return false
	}
	return s.p.Existing.Status == models.BookingActive && !s.EditLocked()
}

// Check previews the admission decision for the current selection without
// writing anything.
func (s *Session) Check() schedule.Decision {
	if s.EditLocked() {
		return schedule.Decision{Outcome: schedule.ClientEditLocked}
	}
	start, _ := s.Start()
	return s.p.Policy.Admit(s.p.Role, s.candidate(start), s.p.Week, s.p.Snapshot)
}

// Err is the message of the last failed operation.
func (s *Session) Err() string {
	return s.errMsg
}

func (s *Session) Closed() bool {
	return s.closed
}

// Confirm creates or updates according to the session mode. On failure the
// session stays open with Err set.
func (s *Session) Confirm(ctx context.Context) (*Result, error) {
	if s.closed {
		return nil, ErrClosed
	}

	var (
		res *Result
		err error
	)
	switch s.p.Mode {
	case ModeCreate:
		res, err = s.create(ctx)
	case ModeEdit:
		res, err = s.update(ctx)
	default:
		err = schedule.ErrMissingInput
	}

	if err != nil {
		if res != nil && len(res.Bookings) > 0 {
			// part of a series was written before the store failed
			s.refresh(ctx)
		}
		s.errMsg = err.Error()
		return res, err
	}

	s.finish(ctx)
	return res, nil
}

func (s *Session) create(ctx context.Context) (*Result, error) {
	if !s.validDuration() {
		return nil, schedule.ErrInvalidDuration
	}
	if s.repeat != models.RepeatNone && !schedule.ValidHorizon(s.horizon) {
		return nil, schedule.ErrMissingInput
	}

	start, _ := s.Start()
	res := &Result{}

	for i, at := range schedule.Expand(start, s.repeat, s.horizon) {
		key := occurrenceKey{start: at.UnixNano(), duration: s.duration}
		if done, ok := s.written[key]; ok {
			res.Bookings = append(res.Bookings, done.booking)
			res.Occurrences = append(res.Occurrences, done.result)
			continue
		}

		c := s.candidate(at)
		d := s.p.Policy.Admit(s.p.Role, c, s.p.Week, s.p.Snapshot)
		if !d.Admitted() {
			if i == 0 {
				return nil, d.Err()
			}
			res.Occurrences = append(res.Occurrences, OccurrenceResult{
				Start:        at,
				Outcome:      d.Outcome,
				ConflictWith: d.ConflictWith,
			})
			continue
		}

		created, err := s.p.Store.CreateBooking(ctx, &models.Booking{
			TrainerID: c.TrainerID,
			ClientID:  c.ClientID,
			StartTime: c.Start,
			EndTime:   c.End(),
			Duration:  c.Duration,
			Status:    models.BookingActive,
			Repeat:    models.RepeatNone,
			Note:      s.note,
		})
		if err != nil {
			if i > 0 && errors.Is(err, schedule.ErrConflict) {
				res.Occurrences = append(res.Occurrences, OccurrenceResult{Start: at, Outcome: schedule.RejectedConflict})
				continue
			}
			if i == 0 {
				return nil, schedule.StoreFailure(err)
			}
			return res, schedule.StoreFailure(err)
		}

		// later occurrences, and any retry, must see this one as taken
		s.p.Snapshot = s.p.Snapshot.With(*created)

		done := OccurrenceResult{
			Start:     at,
			Outcome:   schedule.Admitted,
			Advisory:  d.Advisory,
			BookingID: created.ID,
		}
		s.written[key] = writtenOccurrence{booking: *created, result: done}
		res.Bookings = append(res.Bookings, *created)
		res.Occurrences = append(res.Occurrences, done)
	}

	return res, nil
}

func (s *Session) update(ctx context.Context) (*Result, error) {
	if s.p.Existing == nil {
		return nil, schedule.ErrMissingInput
	}
	if s.EditLocked() {
		return nil, schedule.ErrClientEditLocked
	}
	if !s.validDuration() {
		return nil, schedule.ErrInvalidDuration
	}

	start, _ := s.Start()
	c := s.candidate(start)
	d := s.p.Policy.Admit(s.p.Role, c, s.p.Week, s.p.Snapshot)
	if !d.Admitted() {
		return nil, d.Err()
	}

	update := models.BookingUpdate{
		StartTime: c.Start,
		EndTime:   c.End(),
		Duration:  c.Duration,
		Note:      s.note,
	}
	if err := s.p.Store.UpdateBooking(ctx, s.p.Existing.ID, update); err != nil {
		return nil, storeError(err)
	}

	updated := *s.p.Existing
	updated.StartTime = update.StartTime
	updated.EndTime = update.EndTime
	updated.Duration = update.Duration
	updated.Note = update.Note

	return &Result{
		Bookings: []models.Booking{updated},
		Occurrences: []OccurrenceResult{{
			Start:     updated.StartTime,
			Outcome:   schedule.Admitted,
			Advisory:  d.Advisory,
			BookingID: updated.ID,
		}},
	}, nil
}

// Cancel soft-deletes the booking being edited. Customers are refused when
// the stored start is within the lead time.
func (s *Session) Cancel(ctx context.Context) error {
	if s.closed {
		return ErrClosed
	}

	err := s.cancel(ctx)
	if err != nil {
		s.errMsg = err.Error()
		return err
	}

	s.finish(ctx)
	return nil
}

func (s *Session) cancel(ctx context.Context) error {
	if s.p.Mode != ModeEdit || s.p.Existing == nil {
		return schedule.ErrMissingInput
	}
	if s.EditLocked() {
		return schedule.ErrClientEditLocked
	}
	if s.p.Existing.Status == models.BookingCancelled {
		return nil
	}
	if err := s.p.Store.CancelBooking(ctx, s.p.Existing.ID); err != nil {
		return storeError(err)
	}
	s.p.Existing.Status = models.BookingCancelled
	return nil
}

// storeError keeps a vanished row distinguishable from a failing store.
func storeError(err error) error {
	if errors.Is(err, response.ErrNotFound) {
		return err
	}
	return schedule.StoreFailure(err)
}

func (s *Session) finish(ctx context.Context) {
	s.errMsg = ""
	s.closed = true
	s.refresh(ctx)
}

func (s *Session) refresh(ctx context.Context) {
	if s.p.Refresh != nil {
		s.p.Refresh(ctx)
	}
}
