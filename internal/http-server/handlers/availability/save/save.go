package save

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

type AvailabilitySaver interface {
	SaveAvailability(ctx context.Context, id models.Identity, trainerID string, req *api.AvailabilityRequest) (*api.AvailabilityResponse, error)
}

type Request struct {
	api.AvailabilityRequest
}

type Response struct {
	response.Response
	Availability *api.AvailabilityResponse `json:"availability,omitempty"`
}

// New replaces the trainer's whole weekly availability document.
func New(log *slog.Logger, saver AvailabilitySaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.save.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		trainerID := chi.URLParam(r, "trainerID")
		if trainerID == "" {
			log.Error("trainer_id is empty")
			reply.BadRequest(w, r, "trainer_id is required")
			return
		}

		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.Error("Failed to decode request body", sl.Err(err))
			reply.BadRequest(w, r, "failed to decode request")
			return
		}

		if req.Weekly == nil {
			log.Error("weekly is empty")
			reply.BadRequest(w, r, "weekly is required")
			return
		}

		availability, err := saver.SaveAvailability(r.Context(), identity.FromContext(r.Context()), trainerID, &req.AvailabilityRequest)
		if err != nil {
			reply.Error(w, r, log, err, "failed to save availability")
			return
		}

		log.Info("Availability saved", slog.String("trainer_id", trainerID))
		render.JSON(w, r, Response{
			Availability: availability,
		})
	}
}
