package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"rehab-booking/internal/dialog"
	"rehab-booking/internal/feed"
	"rehab-booking/internal/lock"
	"rehab-booking/internal/models"
	"rehab-booking/internal/schedule"
	"rehab-booking/pkg/response"
	"rehab-booking/pkg/sl"
)

type Store interface {
	dialog.Store

	// Availability
	GetAvailability(ctx context.Context, trainerID string) (models.WeeklyAvailability, error)
	SaveAvailability(ctx context.Context, trainerID string, week models.WeeklyAvailability) error

	// Bookings
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
}

type Publisher interface {
	Publish(ctx context.Context, scopes ...string) error
}

type Options struct {
	Location       *time.Location
	Durations      []int
	LeadTime       time.Duration
	SlotStep       int
	ConfirmTimeout time.Duration
	SnapshotMaxAge time.Duration
	LockTTL        time.Duration
}

type Service struct {
	store  Store
	locker lock.Locker
	feed   Publisher
	log    *slog.Logger
	opts   Options
	now    func() time.Time

	mu        sync.Mutex
	snapshots map[string]schedule.Snapshot
}

func NewService(log *slog.Logger, store Store, locker lock.Locker, feed Publisher, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if len(opts.Durations) == 0 {
		opts.Durations = dialog.DefaultDurations
	}
	if opts.LeadTime <= 0 {
		opts.LeadTime = schedule.DefaultLeadTime
	}
	if opts.SlotStep <= 0 {
		opts.SlotStep = schedule.DefaultSlotStep
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = 10 * time.Second
	}
	// the lock must outlive the work it guards
	if opts.LockTTL <= opts.ConfirmTimeout {
		opts.LockTTL = 3 * opts.ConfirmTimeout
	}

	return &Service{
		store:     store,
		locker:    locker,
		feed:      feed,
		log:       log,
		opts:      opts,
		now:       time.Now,
		snapshots: make(map[string]schedule.Snapshot),
	}
}

// SetClock replaces the wall clock, used by tests.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Service) policy() schedule.Policy {
	return schedule.NewPolicy(s.opts.LeadTime, s.now)
}

// #### snapshot cache ####

// Invalidate drops the cached bookings of the scope's trainer. It is the
// change-feed callback, so unrelated scopes are ignored.
func (s *Service) Invalidate(scope string) {
	trainerID, ok := strings.CutPrefix(scope, feed.TrainerScope(""))
	if !ok {
		return
	}

	s.mu.Lock()
	delete(s.snapshots, trainerID)
	s.mu.Unlock()

	s.log.Debug("Snapshot invalidated", slog.String("trainer_id", trainerID))
}

// snapshot returns the trainer's active bookings. Cached copies older than
// SnapshotMaxAge are reloaded; fresh forces a reload.
func (s *Service) snapshot(ctx context.Context, trainerID string, fresh bool) (schedule.Snapshot, error) {
	const op = "service.snapshot"

	now := s.now()

	if !fresh {
		s.mu.Lock()
		snap, ok := s.snapshots[trainerID]
		s.mu.Unlock()
		if ok && !snap.Stale(now, s.opts.SnapshotMaxAge) {
			return snap, nil
		}
	}

	active := models.BookingActive
	bookings, err := s.store.ListBookings(ctx, models.BookingFilter{
		TrainerID: &trainerID,
		Status:    &active,
	})
	if err != nil {
		return schedule.Snapshot{}, fmt.Errorf("%s: %w", op, schedule.StoreFailure(err))
	}

	snap := schedule.NewSnapshot(bookings, now)

	s.mu.Lock()
	s.snapshots[trainerID] = snap
	s.mu.Unlock()

	return snap, nil
}

// availability loads the trainer's weekly document; a trainer who never
// saved one has an empty week.
func (s *Service) availability(ctx context.Context, trainerID string) (models.WeeklyAvailability, error) {
	const op = "service.availability"

	week, err := s.store.GetAvailability(ctx, trainerID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return models.EmptyWeek(), nil
		}
		return nil, fmt.Errorf("%s: %w", op, schedule.StoreFailure(err))
	}
	if week == nil {
		return models.EmptyWeek(), nil
	}

	return week, nil
}

// publish announces changes; subscribers reload on their own, so a failed
// publish is logged and not returned.
func (s *Service) publish(ctx context.Context, scopes ...string) {
	const op = "service.publish"

	for _, scope := range scopes {
		s.Invalidate(scope)
	}

	if s.feed == nil {
		return
	}

	if err := s.feed.Publish(ctx, scopes...); err != nil {
		s.log.Warn("Failed to publish change", slog.String("op", op), slog.Any("scopes", scopes), sl.Err(err))
	}
}

// withTrainerLock serializes writes to one trainer's schedule across
// instances.
func (s *Service) withTrainerLock(ctx context.Context, trainerID string, fn func(ctx context.Context) error) error {
	const op = "service.withTrainerLock"

	lockKey := lock.TrainerKey(trainerID)

	token, locked, err := s.locker.Lock(ctx, lockKey, s.opts.LockTTL)
	if err != nil {
		return fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), lockKey, token); err != nil {
			s.log.Warn("Failed to release lock", slog.String("key", lockKey), sl.Err(err))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, s.opts.ConfirmTimeout)
	defer cancel()

	return fn(ctx)
}

// #### authorization ####

// canTouch reports whether the caller may modify or cancel b.
func canTouch(id models.Identity, b *models.Booking) bool {
	switch id.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTrainer:
		return id.UserID != "" && b.TrainerID == id.UserID
	case models.RoleClient:
		return id.UserID != "" && b.ClientID == id.UserID
	default:
		return false
	}
}

// canManageAvailability reports whether the caller may change trainerID's
// weekly document.
func canManageAvailability(id models.Identity, trainerID string) bool {
	switch id.Role {
	case models.RoleAdmin:
		return true
	case models.RoleTrainer:
		return id.UserID != "" && id.UserID == trainerID
	default:
		return false
	}
}

// parties fills in trainer and client from the caller's identity: customers
// book for themselves, trainers on their own schedule, admins for anyone.
func parties(id models.Identity, trainerID, clientID string) (string, string) {
	switch id.Role {
	case models.RoleAdmin:
		return trainerID, clientID
	case models.RoleTrainer:
		return id.UserID, clientID
	default:
		return trainerID, id.UserID
	}
}
