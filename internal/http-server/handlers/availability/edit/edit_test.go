package edit

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rehab-booking/api"
	"rehab-booking/internal/http-server/middleware/identity"
	"rehab-booking/internal/models"
	"rehab-booking/internal/schedule"
	"rehab-booking/pkg/response"
)

type editorFunc func(ctx context.Context, id models.Identity, trainerID string, req *api.AvailabilityEditRequest) (*api.AvailabilityResponse, error)

func (f editorFunc) EditAvailability(ctx context.Context, id models.Identity, trainerID string, req *api.AvailabilityEditRequest) (*api.AvailabilityResponse, error) {
	return f(ctx, id, trainerID, req)
}

func patch(editor AvailabilityEditor, body string) *httptest.ResponseRecorder {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Use(identity.New(log))
	r.Patch("/trainers/{trainerID}/availability", New(log, editor))

	req := httptest.NewRequest(http.MethodPatch, "/trainers/t1/availability", bytes.NewBufferString(body))
	req.Header.Set(identity.HeaderUserID, "t1")
	req.Header.Set(identity.HeaderRole, "trainer")

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestEdit(t *testing.T) {
	var got []api.AvailabilityEdit
	editor := editorFunc(func(_ context.Context, _ models.Identity, trainerID string, req *api.AvailabilityEditRequest) (*api.AvailabilityResponse, error) {
		got = req.Edits
		return &api.AvailabilityResponse{
			TrainerID: trainerID,
			Weekly:    map[string][]api.TimeRange{"monday": {{Start: "09:00", End: "10:00"}}},
		}, nil
	})

	rr := patch(editor, `{"edits":[{"op":"add","day":"monday"},{"op":"copy","day":"monday","to":"friday"}]}`)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, got, 2)
	assert.Equal(t, "copy", got[1].Op)
	assert.Equal(t, "friday", got[1].To)

	var body Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.NotNil(t, body.Availability)
	assert.Equal(t, "t1", body.Availability.TrainerID)
}

func TestEdit_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"no edits", `{"edits":[]}`, nil, http.StatusBadRequest, string(response.BAD_REQUEST)},
		{"not json", `edits`, nil, http.StatusBadRequest, string(response.BAD_REQUEST)},
		{"bad index", `{"edits":[{"op":"remove","day":"monday","index":4}]}`, schedule.ErrInvalidRange, http.StatusBadRequest, "INVALID_RANGE"},
		{"overlap on commit", `{"edits":[{"op":"add","day":"monday"}]}`, schedule.ErrOverlappingRange, http.StatusBadRequest, "OVERLAPPING_RANGE"},
		{"forbidden", `{"edits":[{"op":"clear","day":"monday"}]}`, response.ErrForbidden, http.StatusForbidden, string(response.FORBIDDEN)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			editor := editorFunc(func(context.Context, models.Identity, string, *api.AvailabilityEditRequest) (*api.AvailabilityResponse, error) {
				return nil, tt.err
			})

			rr := patch(editor, tt.body)
			assert.Equal(t, tt.status, rr.Code)

			var body Response
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}
