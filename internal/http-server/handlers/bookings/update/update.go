package update

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
	"rehab-booking/pkg/sl"
)

type BookingUpdater interface {
	UpdateBooking(ctx context.Context, id models.Identity, bookingID string, req *api.BookingUpdateRequest) (*api.BookingUpdateResponse, error)
}

type Request struct {
	api.BookingUpdateRequest
}

type Response struct {
	response.Response
	api.BookingUpdateResponse
}

// New moves, resizes or annotates an existing booking.
func New(log *slog.Logger, updater BookingUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.update.New"

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

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			reply.BadRequest(w, r, "failed to decode request")
			return
		}

		updated, err := updater.UpdateBooking(r.Context(), identity.FromContext(r.Context()), bookingID, &req.BookingUpdateRequest)
		if err != nil {
			reply.Error(w, r, log, err, "failed to update booking")
			return
		}

		log.Info("Booking updated", slog.String("booking_id", bookingID), slog.Bool("advisory", updated.Advisory))
		render.JSON(w, r, Response{
			BookingUpdateResponse: *updated,
		})
	}
}
