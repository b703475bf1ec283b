package edit

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

type AvailabilityEditor interface {
	EditAvailability(ctx context.Context, id models.Identity, trainerID string, req *api.AvailabilityEditRequest) (*api.AvailabilityResponse, error)
}

type Request struct {
	api.AvailabilityEditRequest
}

type Response struct {
	response.Response
	Availability *api.AvailabilityResponse `json:"availability,omitempty"`
}

// New applies a batch of add/update/remove/copy/clear actions to the stored
// document and saves the result if it validates.
func New(log *slog.Logger, editor AvailabilityEditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.edit.New"

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

		if len(req.Edits) == 0 {
			log.Error("edits are empty")
			reply.BadRequest(w, r, "edits are required")
			return
		}

		availability, err := editor.EditAvailability(r.Context(), identity.FromContext(r.Context()), trainerID, &req.AvailabilityEditRequest)
		if err != nil {
			reply.Error(w, r, log, err, "failed to edit availability")
			return
		}

		log.Info("Availability edited", slog.String("trainer_id", trainerID), slog.Int("edits", len(req.Edits)))
		render.JSON(w, r, Response{
			Availability: availability,
		})
	}
}
