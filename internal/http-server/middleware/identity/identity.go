// Package identity lifts the caller's id and role, as set by the trusted
// gateway, into the request context.
package identity

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"rehab-booking/internal/models"
)

const (
	HeaderUserID = "X-User-ID"
	HeaderRole   = "X-User-Role"
)

type ctxKey struct{}

func New(log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		log := log.With(
			slog.String("component", "middleware/identity"),
		)

		log.Info("identity middleware enabled")

		fn := func(w http.ResponseWriter, r *http.Request) {
			id := models.Identity{
				UserID: strings.TrimSpace(r.Header.Get(HeaderUserID)),
				Role:   models.ParseRole(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderRole)))),
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		}

		return http.HandlerFunc(fn)
	}
}

func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the caller, or an anonymous RoleNone identity when the
// middleware did not run.
func FromContext(ctx context.Context) models.Identity {
	if id, ok := ctx.Value(ctxKey{}).(models.Identity); ok {
		return id
	}
	return models.Identity{Role: models.RoleNone}
}
