package api

import "time"

type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type AvailabilityRequest struct {
	Weekly map[string][]TimeRange `json:"weekly"`
}

type AvailabilityEdit struct {
	Op    string `json:"op"`
	Day   string `json:"day"`
	Index int    `json:"index,omitempty"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	To    string `json:"to,omitempty"`
}

type AvailabilityEditRequest struct {
	Edits []AvailabilityEdit `json:"edits"`
}

type AvailabilityResponse struct {
	TrainerID string                 `json:"trainer_id"`
	Weekly    map[string][]TimeRange `json:"weekly"`
}

type SlotsResponse struct {
	TrainerID       string   `json:"trainer_id"`
	Date            string   `json:"date"`
	DurationMinutes int      `json:"duration_minutes"`
	Slots           []string `json:"slots"`
}

type BookingCreateRequest struct {
	TrainerID       string  `json:"trainer_id"`
	ClientID        string  `json:"client_id,omitempty"`
	Date            string  `json:"date"`
	Time            string  `json:"time"`
	DurationMinutes int     `json:"duration_minutes"`
	Repeat          string  `json:"repeat,omitempty"`
	RepeatMonths    int     `json:"repeat_months,omitempty"`
	Note            *string `json:"note,omitempty"`
}

// BookingUpdateRequest changes only the fields that are set.
type BookingUpdateRequest struct {
	Date            string  `json:"date,omitempty"`
	Time            string  `json:"time,omitempty"`
	DurationMinutes int     `json:"duration_minutes,omitempty"`
	Note            *string `json:"note,omitempty"`
}

type BookingResponse struct {
	ID              string    `json:"booking_id"`
	TrainerID       string    `json:"trainer_id"`
	ClientID        string    `json:"client_id"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Date            string    `json:"date"`
	Time            string    `json:"time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"`
	Repeat          string    `json:"repeat"`
	Note            *string   `json:"note,omitempty"`
	Editable        bool      `json:"editable"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type OccurrenceResponse struct {
	StartTime    time.Time `json:"start_time"`
	Outcome      string    `json:"outcome"`
	Advisory     bool      `json:"advisory,omitempty"`
	BookingID    string    `json:"booking_id,omitempty"`
	ConflictWith string    `json:"conflict_with,omitempty"`
}

type BookingCreateResponse struct {
	Bookings    []BookingResponse    `json:"bookings"`
	Occurrences []OccurrenceResponse `json:"occurrences"`
}

type BookingUpdateResponse struct {
	Booking  BookingResponse `json:"booking"`
	Advisory bool            `json:"advisory,omitempty"`
}
