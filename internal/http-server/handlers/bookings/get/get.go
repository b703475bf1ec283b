package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"rehab-booking/api"
	"rehab-booking/internal/http-server/handlers/reply"
	"rehab-booking/internal/http-server/middleware/identity"
	"rehab-booking/internal/models"
	"rehab-booking/pkg/response"
)

type BookingGetter interface {
	GetBooking(ctx context.Context, id models.Identity, bookingID string) (*api.BookingResponse, error)
	ListBookings(ctx context.Context, id models.Identity, filter models.BookingFilter) ([]api.BookingResponse, error)
}

type Response struct {
	response.Response
	Bookings []api.BookingResponse `json:"bookings,omitempty"`
	Booking  *api.BookingResponse  `json:"booking,omitempty"`
}

// New serves a single booking when the route carries {id} and a filtered
// listing otherwise.
func New(log *slog.Logger, getter BookingGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.get.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		caller := identity.FromContext(r.Context())

		if id := chi.URLParam(r, "id"); id != "" {
			booking, err := getter.GetBooking(r.Context(), caller, id)
			if err != nil {
				reply.Error(w, r, log, err, "failed to get booking")
				return
			}

			log.Debug("Booking retrieved", slog.String("booking_id", booking.ID))
			render.JSON(w, r, Response{
				Booking: booking,
			})
			return
		}

		filter, ok := parseFilter(r)
		if !ok {
			log.Error("invalid filter", slog.String("query", r.URL.RawQuery))
			reply.BadRequest(w, r, "from and to must be RFC3339 timestamps or YYYY-MM-DD dates, status active or cancelled")
			return
		}

		bookings, err := getter.ListBookings(r.Context(), caller, filter)
		if err != nil {
			reply.Error(w, r, log, err, "failed to list bookings")
			return
		}

		log.Debug("Bookings retrieved", slog.Int("count", len(bookings)))
		render.JSON(w, r, Response{
			Bookings: bookings,
		})
	}
}

func parseFilter(r *http.Request) (models.BookingFilter, bool) {
	q := r.URL.Query()

	var filter models.BookingFilter

	if trainerID := q.Get("trainer_id"); trainerID != "" {
		filter.TrainerID = &trainerID
	}
	if clientID := q.Get("client_id"); clientID != "" {
		filter.ClientID = &clientID
	}

	if raw := q.Get("status"); raw != "" {
		status := models.BookingStatus(raw)
		if status != models.BookingActive && status != models.BookingCancelled {
			return filter, false
		}
		filter.Status = &status
	}

	var ok bool
	if filter.From, ok = parseTime(q.Get("from")); !ok {
		return filter, false
	}
	if filter.To, ok = parseTime(q.Get("to")); !ok {
		return filter, false
	}

	return filter, true
}

func parseTime(raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, true
	}
	return nil, false
}
