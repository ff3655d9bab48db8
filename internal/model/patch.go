package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/templui/goalsetter/internal/apperror"
)

// GoalPatch is a partial goal update. Only whitelisted fields survive
// parsing; identity, ownership and persistence timestamps are never
// assignable, and completedAt is owned by the status engine.
type GoalPatch struct {
	fields map[string]json.RawMessage
}

// MilestonePatch is a partial milestone update. Nil pointers mean "leave as
// is". DueDateSet with a nil DueDate clears the due date.
type MilestonePatch struct {
	Title       *string
	Description *string
	Completed   *bool
	DueDate     *time.Time
	DueDateSet  bool
}

type patchEnv struct {
	now   time.Time
	newID func() string
}

type goalSetter struct {
	field string
	apply func(g *Goal, raw json.RawMessage, env patchEnv) error
}

// goalSetters run in this order. Status goes last so a manual completion
// wins over a progress value sent in the same patch.
var goalSetters = []goalSetter{
	stringSetter("text", func(g *Goal, v string) { g.Text = strings.TrimSpace(v) }),
	stringSetter("title", func(g *Goal, v string) { g.Title = strings.TrimSpace(v) }),
	stringSetter("shortDescription", func(g *Goal, v string) { g.ShortDescription = strings.TrimSpace(v) }),
	stringSetter("longDescription", func(g *Goal, v string) { g.LongDescription = v }),
	stringSetter("category", func(g *Goal, v string) { g.Category = Category(v) }),
	stringSetter("priority", func(g *Goal, v string) { g.Priority = Priority(v) }),
	stringSetter("deadlineFlexibility", func(g *Goal, v string) { g.DeadlineFlexibility = DeadlineFlexibility(v) }),
	dateSetter("startDate", func(g *Goal, t time.Time) { g.StartDate = t }),
	dateSetter("endDate", func(g *Goal, t time.Time) { g.EndDate = t }),
	{"smartAttributes", func(g *Goal, raw json.RawMessage, _ patchEnv) error {
		v, err := decode[SmartAttributes]("smartAttributes", raw)
		if err != nil {
			return err
		}
		g.SmartAttributes = v
		return nil
	}},
	{"progress", func(g *Goal, raw json.RawMessage, _ patchEnv) error {
		v, err := decode[int]("progress", raw)
		if err != nil {
			return err
		}
		g.Progress = v
		return nil
	}},
	{"milestones", func(g *Goal, raw json.RawMessage, env patchEnv) error {
		v, err := decode[[]MilestoneInput]("milestones", raw)
		if err != nil {
			return err
		}
		return g.replaceMilestones(v, env.now, env.newID)
	}},
	{"status", func(g *Goal, raw json.RawMessage, env patchEnv) error {
		v, err := decode[GoalStatus]("status", raw)
		if err != nil {
			return err
		}
		if !v.IsValid() {
			return apperror.Validation("status", "unknown status %q", v)
		}
		g.SetStatus(v, env.now)
		return nil
	}},
}

// ParseGoalPatch decodes a JSON object into a GoalPatch, dropping keys that
// are not patchable.
func ParseGoalPatch(data []byte) (GoalPatch, error) {
	raw, err := decodeObject(data)
	if err != nil {
		return GoalPatch{}, err
	}

	fields := make(map[string]json.RawMessage, len(raw))
	for _, s := range goalSetters {
		if v, ok := raw[s.field]; ok {
			fields[s.field] = v
		}
	}
	return GoalPatch{fields: fields}, nil
}

// Has reports whether the patch sets field.
func (p GoalPatch) Has(field string) bool {
	_, ok := p.fields[field]
	return ok
}

func (p GoalPatch) IsEmpty() bool {
	return len(p.fields) == 0
}

// Apply merges the patch into g. The goal may be partially modified when an
// error is returned, so callers must discard it in that case.
func (p GoalPatch) Apply(g *Goal, now time.Time, newID func() string) error {
	env := patchEnv{now: now, newID: newID}
	for _, s := range goalSetters {
		raw, ok := p.fields[s.field]
		if !ok {
			continue
		}
		if err := s.apply(g, raw, env); err != nil {
			return err
		}
	}
	return nil
}

// ParseMilestonePatch decodes a JSON object into a MilestonePatch. Unknown
// keys are ignored.
func ParseMilestonePatch(data []byte) (MilestonePatch, error) {
	raw, err := decodeObject(data)
	if err != nil {
		return MilestonePatch{}, err
	}

	var patch MilestonePatch
	if v, ok := raw["title"]; ok {
		title, err := decode[string]("title", v)
		if err != nil {
			return MilestonePatch{}, err
		}
		patch.Title = &title
	}
	if v, ok := raw["description"]; ok {
		description, err := decode[string]("description", v)
		if err != nil {
			return MilestonePatch{}, err
		}
		patch.Description = &description
	}
	if v, ok := raw["completed"]; ok {
		completed, err := decode[bool]("completed", v)
		if err != nil {
			return MilestonePatch{}, err
		}
		patch.Completed = &completed
	}
	if v, ok := raw["dueDate"]; ok {
		s, err := decode[string]("dueDate", v)
		if err != nil {
			return MilestonePatch{}, err
		}
		patch.DueDate, err = ParseOptionalDate("dueDate", s)
		if err != nil {
			return MilestonePatch{}, err
		}
		patch.DueDateSet = true
	}

	return patch, nil
}

func stringSetter(field string, set func(*Goal, string)) goalSetter {
	return goalSetter{field, func(g *Goal, raw json.RawMessage, _ patchEnv) error {
		v, err := decode[string](field, raw)
		if err != nil {
			return err
		}
		set(g, v)
		return nil
	}}
}

func dateSetter(field string, set func(*Goal, time.Time)) goalSetter {
	return goalSetter{field, func(g *Goal, raw json.RawMessage, _ patchEnv) error {
		s, err := decode[string](field, raw)
		if err != nil {
			return err
		}
		t, err := ParseRequiredDate(field, s)
		if err != nil {
			return err
		}
		set(g, t)
		return nil
	}}
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, apperror.Validation("", "request body must be a JSON object")
	}
	return raw, nil
}

// decode unmarshals one field. JSON null decodes to the zero value.
func decode[T any](field string, raw json.RawMessage) (T, error) {
	var v T
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, apperror.Validation(field, "%s has an invalid value", field)
	}
	return v, nil
}
