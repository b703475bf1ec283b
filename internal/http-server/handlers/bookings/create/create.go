package create

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"rehab-booking/api"
	"rehab-booking/internal/http-server/handlers/reply"
	"rehab-booking/internal/http-server/middleware/identity"
	"rehab-booking/internal/models"
	"rehab-booking/pkg/response"
	"rehab-booking/pkg/sl"
)

type BookingCreator interface {
	CreateBooking(ctx context.Context, id models.Identity, req *api.BookingCreateRequest) (*api.BookingCreateResponse, error)
}

type Request struct {
	api.BookingCreateRequest
}

type Response struct {
	response.Response
	api.BookingCreateResponse
}

func New(log *slog.Logger, creator BookingCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.bookings.create.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			reply.BadRequest(w, r, "failed to decode request")
			return
		}

		log.Debug("Request body decoded", slog.Any("request", req))

		created, err := creator.CreateBooking(r.Context(), identity.FromContext(r.Context()), &req.BookingCreateRequest)
		if err != nil && created != nil {
			// a series failed partway; report what was already saved
			status, envelope := reply.Envelope(log, err, "failed to create booking")
			log.Warn("Booking series partially created", slog.Int("created", len(created.Bookings)))

			render.Status(r, status)
			render.JSON(w, r, Response{
				Response:              envelope,
				BookingCreateResponse: *created,
			})
			return
		}
		if err != nil {
			reply.Error(w, r, log, err, "failed to create booking")
			return
		}

		log.Info("Booking created",
			slog.Int("created", len(created.Bookings)),
			slog.Int("occurrences", len(created.Occurrences)),
		)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			BookingCreateResponse: *created,
		})
	}
}
