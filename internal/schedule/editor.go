package schedule

import (
	"fmt"

	"rehab-booking/internal/models"
)

const (
	defaultRangeStart   = "09:00"
	defaultRangeMinutes = 60
	lastMinute          = minutesPerDay - 1
)

type EditOp string

const (
	EditAdd    EditOp = "add"
	EditUpdate EditOp = "update"
	EditRemove EditOp = "remove"
	EditCopy   EditOp = "copy"
	EditClear  EditOp = "clear"
)

// Edit is one user action against the availability draft.
type Edit struct {
	Op    EditOp        `json:"op"`
	Day   models.DayKey `json:"day"`
	Index int           `json:"index,omitempty"`
	Start string        `json:"start,omitempty"`
	End   string        `json:"end,omitempty"`
	To    models.DayKey `json:"to,omitempty"`
}

// Editor holds an in-progress availability draft. Drafts may be malformed;
// only Commit validates. While Dirty, external reloads are ignored so a
// change-feed refresh cannot wipe unsaved edits.
//
// The HTTP service replays a whole batch of edits on a fresh Editor per
// request and never reloads one. Load is for long-lived editors that stay
// subscribed to the change feed while the user edits.
type Editor struct {
	Draft models.WeeklyAvailability
	Dirty bool
}

func NewEditor(loaded models.WeeklyAvailability) *Editor {
	e := &Editor{}
	e.Reset(loaded)
	return e
}

// Load replaces the draft with an externally loaded document unless there are
// unsaved edits. It reports whether the draft was replaced.
func (e *Editor) Load(external models.WeeklyAvailability) bool {
	if e.Dirty {
		return false
	}
	e.Reset(external)
	return true
}

// Reset discards edits and starts over from loaded.
func (e *Editor) Reset(loaded models.WeeklyAvailability) {
	draft := models.EmptyWeek()
	for day, ranges := range loaded.Clone() {
		draft[day] = ranges
	}
	e.Draft = draft
	e.Dirty = false
}

// AddRange appends a one-hour range starting where the day's last range ends,
// or at 09:00 on an empty day.
func (e *Editor) AddRange(day models.DayKey) error {
	if err := checkDay(day); err != nil {
		return err
	}

	start := HHMMToMinutes(defaultRangeStart)
	if ranges := e.Draft[day]; len(ranges) > 0 {
		latest := 0
		for _, r := range ranges {
			if end := HHMMToMinutes(r.End); end > latest {
				latest = end
			}
		}
		start = latest
	}
	end := min(start+defaultRangeMinutes, lastMinute)

	e.Draft[day] = append(e.Draft[day], models.TimeRange{
		Start: MinutesToHHMM(start),
		End:   MinutesToHHMM(end),
	})
	e.Dirty = true
	return nil
}

func (e *Editor) UpdateRange(day models.DayKey, i int, start, end string) error {
	if err := e.checkIndex(day, i); err != nil {
		return err
	}
	e.Draft[day][i] = models.TimeRange{Start: start, End: end}
	e.Dirty = true
	return nil
}

func (e *Editor) RemoveRange(day models.DayKey, i int) error {
	if err := e.checkIndex(day, i); err != nil {
		return err
	}
	ranges := e.Draft[day]
	e.Draft[day] = append(ranges[:i:i], ranges[i+1:]...)
	e.Dirty = true
	return nil
}

// CopyDay overwrites to's ranges with a copy of from's.
func (e *Editor) CopyDay(from, to models.DayKey) error {
	if err := checkDay(from); err != nil {
		return err
	}
	if err := checkDay(to); err != nil {
		return err
	}
	src := e.Draft[from]
	cp := make([]models.TimeRange, len(src))
	copy(cp, src)
	e.Draft[to] = cp
	e.Dirty = true
	return nil
}

func (e *Editor) ClearDay(day models.DayKey) error {
	if err := checkDay(day); err != nil {
		return err
	}
	e.Draft[day] = []models.TimeRange{}
	e.Dirty = true
	return nil
}

func (e *Editor) Apply(edit Edit) error {
	switch edit.Op {
	case EditAdd:
		return e.AddRange(edit.Day)
	case EditUpdate:
		return e.UpdateRange(edit.Day, edit.Index, edit.Start, edit.End)
	case EditRemove:
		return e.RemoveRange(edit.Day, edit.Index)
	case EditCopy:
		return e.CopyDay(edit.Day, edit.To)
	case EditClear:
		return e.ClearDay(edit.Day)
	default:
		return newError(KindMissingInput, fmt.Sprintf("unknown edit %q", edit.Op))
	}
}

// Commit validates the draft. On success the draft becomes the normalized
// document, the dirty flag clears and the document is returned for saving.
// On failure the draft is left as is.
func (e *Editor) Commit() (models.WeeklyAvailability, error) {
	normalized, err := Validate(e.Draft)
	if err != nil {
		return nil, err
	}
	e.Draft = normalized.Clone()
	e.Dirty = false
	return normalized, nil
}

func (e *Editor) checkIndex(day models.DayKey, i int) error {
	if err := checkDay(day); err != nil {
		return err
	}
	if i < 0 || i >= len(e.Draft[day]) {
		return newError(KindInvalidRange, fmt.Sprintf("%s has no range #%d", day, i))
	}
	return nil
}

func checkDay(day models.DayKey) error {
	for _, d := range models.DayKeys {
		if d == day {
			return nil
		}
	}
	return newError(KindMissingInput, fmt.Sprintf("unknown day %q", day))
}
