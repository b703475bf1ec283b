package models

import "time"

type BookingStatus string

const (
	BookingActive    BookingStatus = "active"
	BookingCancelled BookingStatus = "cancelled"
)

type Role string

const (
	RoleClient  Role = "client"
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
	RoleNone    Role = "none"
)

// ParseRole maps an externally supplied role name onto the closed set,
// anything unknown becomes RoleNone.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleClient, RoleTrainer, RoleAdmin:
		return Role(s)
	default:
		return RoleNone
	}
}

func (r Role) IsStaff() bool {
	return r == RoleTrainer || r == RoleAdmin
}

type Cadence string

const (
	RepeatNone     Cadence = "none"
	RepeatWeekly   Cadence = "weekly"
	RepeatBiweekly Cadence = "biweekly"
)

type DayKey string

const (
	Monday    DayKey = "monday"
	Tuesday   DayKey = "tuesday"
	Wednesday DayKey = "wednesday"
	Thursday  DayKey = "thursday"
	Friday    DayKey = "friday"
	Saturday  DayKey = "saturday"
	Sunday    DayKey = "sunday"
)

// DayKeys lists the week in the order availability is validated and rendered.
var DayKeys = []DayKey{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// TimeRange is a local time-of-day window in fixed-width "HH:MM" form.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// WeeklyAvailability holds a trainer's recurring open ranges per weekday.
type WeeklyAvailability map[DayKey][]TimeRange

// EmptyWeek returns a document with all seven days present and no ranges.
func EmptyWeek() WeeklyAvailability {
	week := make(WeeklyAvailability, len(DayKeys))
	for _, day := range DayKeys {
		week[day] = []TimeRange{}
	}
	return week
}

// Clone deep-copies the document so edits never alias stored slices.
func (w WeeklyAvailability) Clone() WeeklyAvailability {
	if w == nil {
		return nil
	}
	out := make(WeeklyAvailability, len(w))
	for day, ranges := range w {
		cp := make([]TimeRange, len(ranges))
		copy(cp, ranges)
		out[day] = cp
	}
	return out
}

type Availability struct {
	TrainerID string             `db:"trainer_id"`
	Weekly    WeeklyAvailability `db:"weekly"`
	UpdatedAt time.Time          `db:"updated_at"`
}

type Booking struct {
	ID        string        `db:"id"`
	TrainerID string        `db:"trainer_id"`
	ClientID  string        `db:"client_id"`
	StartTime time.Time     `db:"start_time"`
	EndTime   time.Time     `db:"end_time"`
	Duration  int           `db:"duration_minutes"`
	Status    BookingStatus `db:"status"`
	Repeat    Cadence       `db:"repeat"`
	Note      *string       `db:"note"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}

// BookingUpdate carries the fields an edit may change.
type BookingUpdate struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  int
	Note      *string
}

// BookingFilter scopes a booking listing; nil fields are not applied.
type BookingFilter struct {
	TrainerID *string
	ClientID  *string
	From      *time.Time
	To        *time.Time
	Status    *BookingStatus
}

// Identity is the caller as reported by the gateway. It is trusted as-is.
type Identity struct {
	UserID string
	Role   Role
}
