package get

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"rehab-booking/api"
	"rehab-booking/internal/http-server/handlers/reply"
	"rehab-booking/internal/http-server/middleware/identity"
	"rehab-booking/internal/models"
	"rehab-booking/pkg/response"
)

type SlotLister interface {
	Slots(ctx context.Context, id models.Identity, trainerID, date string, duration int, excludeID string) (*api.SlotsResponse, error)
}

type Response struct {
	response.Response
	api.SlotsResponse
}

func New(log *slog.Logger, lister SlotLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.slots.get.New"

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

		q := r.URL.Query()

		date := q.Get("date")
		if date == "" {
			log.Error("date is empty")
			reply.BadRequest(w, r, "date is required")
			return
		}

		var duration int
		if raw := q.Get("duration"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				log.Error("invalid duration", slog.String("duration", raw))
				reply.BadRequest(w, r, "duration must be a positive number of minutes")
				return
			}
			duration = n
		}

		slots, err := lister.Slots(r.Context(), identity.FromContext(r.Context()), trainerID, date, duration, q.Get("exclude"))
		if err != nil {
			reply.Error(w, r, log, err, "failed to list slots")
			return
		}

		log.Debug("Slots listed", slog.String("trainer_id", trainerID), slog.Int("count", len(slots.Slots)))
		render.JSON(w, r, Response{
			SlotsResponse: *slots,
		})
	}
}
