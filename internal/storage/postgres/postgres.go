package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"rehab-booking/internal/models"
	"rehab-booking/internal/schedule"
	"rehab-booking/pkg/response"
)

//go:embed schema.sql
var schema string

const (
	codeExclusionViolation = "23P01"
	codeInvalidTextRep     = "22P02"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) Migrate(ctx context.Context) error {
	const op = "storage.postgres.Migrate"

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// #### availability ####

func (s *Storage) GetAvailability(ctx context.Context, trainerID string) (models.WeeklyAvailability, error) {
	const op = "storage.postgres.GetAvailability"

	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT weekly FROM trainer_availability WHERE trainer_id=$1`, trainerID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var week models.WeeklyAvailability
	if err := json.Unmarshal(raw, &week); err != nil {
		return nil, fmt.Errorf("%s: decode weekly: %w", op, err)
	}

	return week, nil
}

// SaveAvailability replaces the trainer's whole document.
func (s *Storage) SaveAvailability(ctx context.Context, trainerID string, week models.WeeklyAvailability) error {
	const op = "storage.postgres.SaveAvailability"

	raw, err := json.Marshal(week)
	if err != nil {
		return fmt.Errorf("%s: encode weekly: %w", op, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trainer_availability (trainer_id, weekly, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (trainer_id)
		DO UPDATE SET weekly = EXCLUDED.weekly, updated_at = EXCLUDED.updated_at`,
		trainerID, raw,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// #### bookings ####

const bookingColumns = `id, trainer_id, client_id, start_time, end_time, duration_minutes, status, repeat, note, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var note sql.NullString

	err := row.Scan(
		&b.ID,
		&b.TrainerID,
		&b.ClientID,
		&b.StartTime,
		&b.EndTime,
		&b.Duration,
		&b.Status,
		&b.Repeat,
		&note,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if note.Valid {
		b.Note = &note.String
	}

	return &b, nil
}

func (s *Storage) CreateBooking(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	const op = "storage.postgres.CreateBooking"

	id := uuid.NewString()
	status := booking.Status
	if status == "" {
		status = models.BookingActive
	}
	repeat := booking.Repeat
	if repeat == "" {
		repeat = models.RepeatNone
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO bookings (id, trainer_id, client_id, start_time, end_time, duration_minutes, status, repeat, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+bookingColumns,
		id,
		booking.TrainerID,
		booking.ClientID,
		booking.StartTime,
		booking.EndTime,
		booking.Duration,
		string(status),
		string(repeat),
		nullString(booking.Note),
	)

	created, err := scanBooking(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}

	return created, nil
}

func (s *Storage) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	const op = "storage.postgres.GetBooking"

	row := s.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id)

	booking, err := scanBooking(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}

	return booking, nil
}

func (s *Storage) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	const op = "storage.postgres.ListBookings"

	query, args := listQuery(filter)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	bookings := make([]models.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		bookings = append(bookings, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookings, nil
}

func listQuery(filter models.BookingFilter) (string, []any) {
	var (
		where []string
		args  []any
	)

	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if filter.TrainerID != nil {
		add("trainer_id=$%d", *filter.TrainerID)
	}
	if filter.ClientID != nil {
		add("client_id=$%d", *filter.ClientID)
	}
	if filter.From != nil {
		add("end_time > $%d", *filter.From)
	}
	if filter.To != nil {
		add("start_time < $%d", *filter.To)
	}
	if filter.Status != nil {
		add("status=$%d", string(*filter.Status))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY start_time ASC`

	return query, args
}

func (s *Storage) UpdateBooking(ctx context.Context, id string, update models.BookingUpdate) error {
	const op = "storage.postgres.UpdateBooking"

	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings
		SET start_time=$2, end_time=$3, duration_minutes=$4, note=$5, updated_at=now()
		WHERE id=$1`,
		id,
		update.StartTime,
		update.EndTime,
		update.Duration,
		nullString(update.Note),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}

	return expectOne(op, res)
}

// CancelBooking marks the booking cancelled; rows are never deleted.
func (s *Storage) CancelBooking(ctx context.Context, id string) error {
	const op = "storage.postgres.CancelBooking"

	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings SET status=$2, updated_at=now() WHERE id=$1`,
		id, string(models.BookingCancelled),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}

	return expectOne(op, res)
}

func expectOne(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}
	return nil
}

// mapError turns driver errors into the errors callers branch on. The
// exclusion constraint is the server-side twin of the conflict detector.
func mapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return response.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeExclusionViolation:
			return schedule.ErrConflict
		case codeInvalidTextRep:
			// malformed uuid in a lookup
			return response.ErrNotFound
		}
	}

	return err
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
