package response

import (
	"errors"
	"net/http"
)

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error Codes
type ErrCode string

var (
	FAILED_REQUEST ErrCode = "REQUEST_FAILED"
	BAD_REQUEST    ErrCode = "FAILED_TO_DECODE"
	NOT_FOUND      ErrCode = "NOT_FOUND"
	LOCKED         ErrCode = "LOCKED"
	FORBIDDEN      ErrCode = "FORBIDDEN"

	// scheduling outcomes, shared with schedule.Kind
	MISSING_INPUT        ErrCode = "MISSING_INPUT"
	INVALID_RANGE        ErrCode = "INVALID_RANGE"
	OVERLAPPING_RANGE    ErrCode = "OVERLAPPING_RANGE"
	INVALID_DURATION     ErrCode = "INVALID_DURATION"
	LEAD_TIME_VIOLATION  ErrCode = "LEAD_TIME_VIOLATION"
	OUTSIDE_AVAILABILITY ErrCode = "OUTSIDE_AVAILABILITY"
	CONFLICT             ErrCode = "CONFLICT"
	CLIENT_EDIT_LOCKED   ErrCode = "CLIENT_EDIT_LOCKED"
	STORE_FAILURE        ErrCode = "STORE_FAILURE"
)

var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("resource not found")
	ErrLocked     = errors.New("resource is locked")
	ErrForbidden  = errors.New("forbidden")
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}

// StatusFor picks the HTTP status a code is reported with.
func StatusFor(code ErrCode) int {
	switch code {
	case BAD_REQUEST, MISSING_INPUT, INVALID_RANGE, OVERLAPPING_RANGE, INVALID_DURATION:
		return http.StatusBadRequest
	case NOT_FOUND:
		return http.StatusNotFound
	case FORBIDDEN:
		return http.StatusForbidden
	case LOCKED:
		return http.StatusLocked
	case CONFLICT:
		return http.StatusConflict
	case LEAD_TIME_VIOLATION, OUTSIDE_AVAILABILITY, CLIENT_EDIT_LOCKED:
		return http.StatusUnprocessableEntity
	case STORE_FAILURE:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
