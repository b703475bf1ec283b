package reply

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"rehab-booking/internal/schedule"
	"rehab-booking/pkg/response"
	"rehab-booking/pkg/sl"
)

// Error writes the JSON error envelope for err. Scheduling rejections carry
// their own code and message; anything unrecognised is reported with
// fallback as a 500.
func Error(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, fallback string) {
	status, envelope := Envelope(log, err, fallback)
	w.WriteHeader(status)
	render.JSON(w, r, envelope)
}

// Envelope logs err and returns the status and envelope Error would write,
// for handlers that send more than the envelope alongside a failure.
func Envelope(log *slog.Logger, err error, fallback string) (int, response.Response) {
	code, msg := classify(log, err, fallback)
	return response.StatusFor(code), response.Error(string(code), msg)
}

func classify(log *slog.Logger, err error, fallback string) (response.ErrCode, string) {
	var se *schedule.Error
	switch {
	case errors.As(err, &se):
		code := response.ErrCode(se.Kind)
		if se.Kind == schedule.KindStoreFailure {
			log.Error("Store failure", sl.Err(err))
		} else {
			log.Warn("Request rejected", slog.String("code", string(code)), sl.Err(err))
		}
		return code, se.Msg

	case errors.Is(err, response.ErrNotFound):
		log.Warn("resource not found", sl.Err(err))
		return response.NOT_FOUND, "resource not found"

	case errors.Is(err, response.ErrForbidden):
		log.Warn("forbidden", sl.Err(err))
		return response.FORBIDDEN, "not allowed for this user"

	case errors.Is(err, response.ErrLocked):
		log.Warn("trainer schedule is locked", sl.Err(err))
		return response.LOCKED, "the trainer's schedule is being changed, try again"

	case errors.Is(err, response.ErrBadRequest):
		log.Warn("bad request", sl.Err(err))
		return response.BAD_REQUEST, "invalid request parameters"

	default:
		log.Error(fallback, sl.Err(err))
		return response.FAILED_REQUEST, fallback
	}
}

// BadRequest reports a request that could not be decoded or is missing a
// required field.
func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	write(w, r, response.BAD_REQUEST, msg)
}

func write(w http.ResponseWriter, r *http.Request, code response.ErrCode, msg string) {
	w.WriteHeader(response.StatusFor(code))
	render.JSON(w, r, response.Error(string(code), msg))
}
