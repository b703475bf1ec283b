package cancel

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"rehab-booking/api"
	"rehab-booking/internal/http-server/handlers/reply"
	"rehab-booking/internal/http-server/middleware/identity"
	"rehab-booking/internal/models"
	"rehab-booking/pkg/response"
)

type BookingCanceller interface {
	CancelBooking(ctx context.Context, id models.Identity, bookingID string) (*api.BookingResponse, error)
}

type Response struct {
	response.Response
	Booking *api.BookingResponse `json:"booking,omitempty"`
}

func New(log *slog.Logger, canceller BookingCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.cancel.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		bookingID := chi.URLParam(r, "id")
		if bookingID == "" {
			log.Error("booking_id is empty")
			reply.BadRequest(w, r, "booking_id is required")
			return
		}

		booking, err := canceller.CancelBooking(r.Context(), identity.FromContext(r.Context()), bookingID)
		if err != nil {
			reply.Error(w, r, log, err, "failed to cancel booking")
			return
		}

		log.Info("Booking cancelled", slog.String("booking_id", bookingID))
		responseOK(w, r, booking)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, booking *api.BookingResponse) {
	render.JSON(w, r, Response{
		Booking: booking,
	})
}
