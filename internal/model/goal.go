package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/templui/goalsetter/internal/apperror"
)

const (
	MaxShortDescription = 200
	MaxLongDescription  = 2000
)

type Category string

const (
	CategoryHealth        Category = "Health"
	CategoryCareer        Category = "Career"
	CategoryFinance       Category = "Finance"
	CategoryLearning      Category = "Learning"
	CategoryPersonal      Category = "Personal"
	CategoryRelationships Category = "Relationships"
	CategoryTravel        Category = "Travel"
	CategoryHobbies       Category = "Hobbies"
	CategoryOther         Category = "Other"
)

var Categories = []Category{
	CategoryHealth,
	CategoryCareer,
	CategoryFinance,
	CategoryLearning,
	CategoryPersonal,
	CategoryRelationships,
	CategoryTravel,
	CategoryHobbies,
	CategoryOther,
}

func (c Category) IsValid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) IsValid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// Rank orders priorities for sorting, High first when descending.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type DeadlineFlexibility string

const (
	FlexibilityHard DeadlineFlexibility = "Hard"
	FlexibilitySoft DeadlineFlexibility = "Soft"
)

func (f DeadlineFlexibility) IsValid() bool {
	return f == FlexibilityHard || f == FlexibilitySoft
}

type GoalStatus string

const (
	GoalStatusNotStarted GoalStatus = "Not Started"
	GoalStatusInProgress GoalStatus = "In Progress"
	GoalStatusCompleted  GoalStatus = "Completed"
	GoalStatusOnHold     GoalStatus = "On Hold"
	GoalStatusCancelled  GoalStatus = "Cancelled"
)

var GoalStatuses = []GoalStatus{
	GoalStatusNotStarted,
	GoalStatusInProgress,
	GoalStatusCompleted,
	GoalStatusOnHold,
	GoalStatusCancelled,
}

func (s GoalStatus) IsValid() bool {
	for _, v := range GoalStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// SmartAttributes are planning notes with no computed semantics.
type SmartAttributes struct {
	Specific   string `json:"specific"`
	Measurable string `json:"measurable"`
	Achievable string `json:"achievable"`
	Relevant   string `json:"relevant"`
	TimeBound  string `json:"timeBound"`
}

type Goal struct {
	ID     string `json:"id"`
	UserID string `json:"owner"`

	// Text is the free-text field goals had before titles and descriptions
	// existed. Kept so old records keep their original wording.
	Text string `json:"text,omitempty"`

	Title               string              `json:"title" validate:"required"`
	ShortDescription    string              `json:"shortDescription" validate:"required,max=200"`
	LongDescription     string              `json:"longDescription" validate:"max=2000"`
	Category            Category            `json:"category" validate:"required,enum"`
	Priority            Priority            `json:"priority" validate:"required,enum"`
	StartDate           time.Time           `json:"startDate" validate:"required"`
	EndDate             time.Time           `json:"endDate" validate:"required,gtfield=StartDate"`
	DeadlineFlexibility DeadlineFlexibility `json:"deadlineFlexibility" validate:"required,enum"`
	Status              GoalStatus          `json:"status" validate:"required,enum"`
	Progress            int                 `json:"progress" validate:"min=0,max=100"`
	Milestones          []Milestone         `json:"milestones" validate:"dive"`
	SmartAttributes     SmartAttributes     `json:"smartAttributes"`
	CompletedAt         *time.Time          `json:"completedAt,omitempty"`

	// Version is bumped on every write-back and guards against lost updates.
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewGoal is the client payload for creating a goal. Dates are ISO-8601
// strings and are parsed by Build.
type NewGoal struct {
	Text                string              `json:"text"`
	Title               string              `json:"title"`
	ShortDescription    string              `json:"shortDescription"`
	LongDescription     string              `json:"longDescription"`
	Category            Category            `json:"category"`
	Priority            Priority            `json:"priority"`
	StartDate           string              `json:"startDate"`
	EndDate             string              `json:"endDate"`
	DeadlineFlexibility DeadlineFlexibility `json:"deadlineFlexibility"`
	Milestones          []MilestoneInput    `json:"milestones"`
	SmartAttributes     SmartAttributes     `json:"smartAttributes"`
}

// Build turns the payload into a fresh goal owned by userID. Title and short
// description fall back to the legacy text field, and optional enums get
// their defaults. Field invariants are checked separately by the validator.
//
// A malformed date or milestone fails the build, but the goal is still
// returned with every field it could fill, so a caller can report earlier
// fields first.
func (in NewGoal) Build(userID, id string, now time.Time, newID func() string) (*Goal, error) {
	text := strings.TrimSpace(in.Text)

	goal := &Goal{
		ID:                  id,
		UserID:              userID,
		Text:                text,
		Title:               strings.TrimSpace(in.Title),
		ShortDescription:    strings.TrimSpace(in.ShortDescription),
		LongDescription:     in.LongDescription,
		Category:            in.Category,
		Priority:            in.Priority,
		DeadlineFlexibility: in.DeadlineFlexibility,
		Status:              GoalStatusNotStarted,
		Progress:            0,
		Milestones:          []Milestone{},
		SmartAttributes:     in.SmartAttributes,
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if goal.Title == "" {
		goal.Title = text
	}
	if goal.ShortDescription == "" {
		goal.ShortDescription = truncate(text, MaxShortDescription)
	}
	if goal.Priority == "" {
		goal.Priority = PriorityMedium
	}
	if goal.DeadlineFlexibility == "" {
		goal.DeadlineFlexibility = FlexibilitySoft
	}

	var firstErr error
	keep := func(err error) {
		if firstErr == nil {
			firstErr = err
		}
	}

	var err error
	goal.StartDate, err = ParseRequiredDate("startDate", in.StartDate)
	keep(err)
	goal.EndDate, err = ParseRequiredDate("endDate", in.EndDate)
	keep(err)

	for i, m := range in.Milestones {
		milestone, err := m.build(newID(), now)
		if err != nil {
			keep(withIndex(err, i))
			continue
		}
		goal.Milestones = append(goal.Milestones, milestone)
	}

	return goal, firstErr
}

// IsCompleted reports whether the goal reached its terminal success state.
func (g *Goal) IsCompleted() bool {
	return g.Status == GoalStatusCompleted
}

// IsLegacy reports whether the goal predates titled goals and still needs a
// backfill from its text field.
func (g *Goal) IsLegacy() bool {
	return strings.TrimSpace(g.Title) == "" && strings.TrimSpace(g.Text) != ""
}

// BackfillLegacy fills the fields a pre-title record is missing. Existing
// values are never overwritten. Returns false when nothing changed.
func (g *Goal) BackfillLegacy(now time.Time) bool {
	changed := false
	set := func(cond bool, apply func()) {
		if cond {
			apply()
			changed = true
		}
	}

	set(g.Title == "" && g.Text != "", func() { g.Title = g.Text })
	set(g.ShortDescription == "" && g.Text != "", func() { g.ShortDescription = truncate(g.Text, MaxShortDescription) })
	set(g.Category == "", func() { g.Category = CategoryPersonal })
	set(g.Priority == "", func() { g.Priority = PriorityMedium })
	set(g.StartDate.IsZero(), func() {
		g.StartDate = g.CreatedAt
		if g.StartDate.IsZero() {
			g.StartDate = now
		}
	})
	set(g.EndDate.IsZero(), func() { g.EndDate = g.StartDate.Add(30 * 24 * time.Hour) })
	set(g.DeadlineFlexibility == "", func() { g.DeadlineFlexibility = FlexibilitySoft })
	set(g.Status == "", func() { g.Status = GoalStatusNotStarted })
	set(g.Milestones == nil, func() { g.Milestones = []Milestone{} })

	return changed
}

// GoalFilter narrows a listing. Zero values mean "any".
type GoalFilter struct {
	Category Category
	Priority Priority
	Status   GoalStatus
}

// Validate checks that every set filter names an enumerated value.
func (f GoalFilter) Validate() error {
	if f.Category != "" && !f.Category.IsValid() {
		return apperror.Validation("category", "unknown category %q", f.Category)
	}
	if f.Priority != "" && !f.Priority.IsValid() {
		return apperror.Validation("priority", "unknown priority %q", f.Priority)
	}
	if f.Status != "" && !f.Status.IsValid() {
		return apperror.Validation("status", "unknown status %q", f.Status)
	}
	return nil
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
