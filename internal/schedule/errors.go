package schedule

import "errors"

// Kind classifies a scheduling failure. The values double as the error codes
// returned to API callers.
type Kind string

const (
	KindMissingInput        Kind = "MISSING_INPUT"
	KindInvalidRange        Kind = "INVALID_RANGE"
	KindOverlappingRange    Kind = "OVERLAPPING_RANGE"
	KindInvalidDuration     Kind = "INVALID_DURATION"
	KindLeadTimeViolation   Kind = "LEAD_TIME_VIOLATION"
	KindOutsideAvailability Kind = "OUTSIDE_AVAILABILITY"
	KindConflict            Kind = "CONFLICT"
	KindClientEditLocked    Kind = "CLIENT_EDIT_LOCKED"
	KindStoreFailure        Kind = "STORE_FAILURE"
)

// Error is a scheduling failure carrying one user-facing message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrMissingInput        = &Error{Kind: KindMissingInput, Msg: "trainer, client and start time are required"}
	ErrInvalidRange        = &Error{Kind: KindInvalidRange, Msg: "start must be before end"}
	ErrOverlappingRange    = &Error{Kind: KindOverlappingRange, Msg: "time ranges overlap"}
	ErrInvalidDuration     = &Error{Kind: KindInvalidDuration, Msg: "unsupported duration"}
	ErrLeadTimeViolation   = &Error{Kind: KindLeadTimeViolation, Msg: "bookings must be made at least 24 hours in advance"}
	ErrOutsideAvailability = &Error{Kind: KindOutsideAvailability, Msg: "the requested time is outside the trainer's availability"}
	ErrConflict            = &Error{Kind: KindConflict, Msg: "the trainer already has a booking at this time"}
	ErrClientEditLocked    = &Error{Kind: KindClientEditLocked, Msg: "bookings cannot be changed less than 24 hours before they start"}
	ErrStoreFailure        = &Error{Kind: KindStoreFailure, Msg: "store failure"}
)

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// StoreFailure wraps an external call failure, passing its message through.
func StoreFailure(err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return &Error{Kind: KindStoreFailure, Msg: err.Error(), Err: err}
}

// KindOf reports the kind of a scheduling error, or "" for anything else.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
