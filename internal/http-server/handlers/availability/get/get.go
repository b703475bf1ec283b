package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"rehab-booking/api"
	"rehab-booking/internal/http-server/handlers/reply"
	"rehab-booking/pkg/response"
)

type AvailabilityGetter interface {
	GetAvailability(ctx context.Context, trainerID string) (*api.AvailabilityResponse, error)
}

type Response struct {
	response.Response
	Availability *api.AvailabilityResponse `json:"availability,omitempty"`
}

func New(log *slog.Logger, getter AvailabilityGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.availability.get.New"

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

		availability, err := getter.GetAvailability(r.Context(), trainerID)
		if err != nil {
			reply.Error(w, r, log, err, "failed to get availability")
			return
		}

		log.Debug("Availability retrieved", slog.String("trainer_id", trainerID))
		render.JSON(w, r, Response{
			Availability: availability,
		})
	}
}
