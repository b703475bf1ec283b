package service

import (
	"context"
	"fmt"

	"rehab-booking/api"
	"rehab-booking/internal/feed"
	"rehab-booking/internal/models"
	"rehab-booking/internal/schedule"
	"rehab-booking/pkg/response"
)

func (s *Service) GetAvailability(ctx context.Context, trainerID string) (*api.AvailabilityResponse, error) {
	const op = "service.GetAvailability"

	week, err := s.availability(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toAvailabilityResponse(trainerID, week), nil
}

// SaveAvailability validates and replaces the trainer's whole document.
func (s *Service) SaveAvailability(ctx context.Context, id models.Identity, trainerID string, req *api.AvailabilityRequest) (*api.AvailabilityResponse, error) {
	const op = "service.SaveAvailability"

	if !canManageAvailability(id, trainerID) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	normalized, err := schedule.Validate(fromAPIWeek(req.Weekly))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.saveAvailability(ctx, trainerID, normalized)
}

// EditAvailability replays a batch of editor actions on the stored document
// and commits the result. Nothing is saved if any action or the final
// validation fails.
func (s *Service) EditAvailability(ctx context.Context, id models.Identity, trainerID string, req *api.AvailabilityEditRequest) (*api.AvailabilityResponse, error) {
	const op = "service.EditAvailability"

	if !canManageAvailability(id, trainerID) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrForbidden)
	}

	week, err := s.availability(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	editor := schedule.NewEditor(week)
	for _, e := range req.Edits {
		if err := editor.Apply(fromAPIEdit(e)); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	normalized, err := editor.Commit()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.saveAvailability(ctx, trainerID, normalized)
}

func (s *Service) saveAvailability(ctx context.Context, trainerID string, week models.WeeklyAvailability) (*api.AvailabilityResponse, error) {
	const op = "service.saveAvailability"

	if err := s.store.SaveAvailability(ctx, trainerID, week); err != nil {
		return nil, fmt.Errorf("%s: %w", op, schedule.StoreFailure(err))
	}

	s.publish(ctx, feed.TrainerScope(trainerID))

	return toAvailabilityResponse(trainerID, week), nil
}

func fromAPIWeek(in map[string][]api.TimeRange) models.WeeklyAvailability {
	week := make(models.WeeklyAvailability, len(in))
	for day, ranges := range in {
		out := make([]models.TimeRange, 0, len(ranges))
		for _, r := range ranges {
			out = append(out, models.TimeRange{Start: r.Start, End: r.End})
		}
		week[models.DayKey(day)] = out
	}
	return week
}

func fromAPIEdit(e api.AvailabilityEdit) schedule.Edit {
	return schedule.Edit{
		Op:    schedule.EditOp(e.Op),
		Day:   models.DayKey(e.Day),
		Index: e.Index,
		Start: e.Start,
		End:   e.End,
		To:    models.DayKey(e.To),
	}
}

func toAvailabilityResponse(trainerID string, week models.WeeklyAvailability) *api.AvailabilityResponse {
	weekly := make(map[string][]api.TimeRange, len(models.DayKeys))
	for _, day := range models.DayKeys {
		ranges := make([]api.TimeRange, 0, len(week[day]))
		for _, r := range week[day] {
			ranges = append(ranges, api.TimeRange{Start: r.Start, End: r.End})
		}
		weekly[string(day)] = ranges
	}

	return &api.AvailabilityResponse{
		TrainerID: trainerID,
		Weekly:    weekly,
	}
}
