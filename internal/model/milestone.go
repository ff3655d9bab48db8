package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/templui/goalsetter/internal/apperror"
)

// Milestone is a step inside a goal. Its ID is only unique within the goal
// that owns it.
type Milestone struct {
	ID          string     `json:"id"`
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// MilestoneInput is the client shape of a new milestone.
type MilestoneInput struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Completed   bool   `json:"completed"`
}

func (in MilestoneInput) build(id string, now time.Time) (Milestone, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return Milestone{}, apperror.Validation("title", "milestone title is required")
	}

	dueDate, err := ParseOptionalDate("dueDate", in.DueDate)
	if err != nil {
		return Milestone{}, err
	}

	m := Milestone{
		ID:          id,
		Title:       title,
		Description: in.Description,
		Completed:   in.Completed,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if m.Completed {
		m.CompletedAt = &now
	}
	return m, nil
}

// AddMilestone appends a new, not yet completed milestone. Insertion order is
// the display order.
func (g *Goal) AddMilestone(in MilestoneInput, id string, now time.Time) (Milestone, error) {
	in.Completed = false

	m, err := in.build(id, now)
	if err != nil {
		return Milestone{}, err
	}

	g.Milestones = append(g.Milestones, m)
	return m, nil
}

// Milestone looks up a milestone by ID.
func (g *Goal) Milestone(id string) (Milestone, bool) {
	idx, ok := g.milestoneIndex()[id]
	if !ok {
		return Milestone{}, false
	}
	return g.Milestones[idx], true
}

// UpdateMilestone applies patch to the milestone with the given ID.
//
// Marking a milestone completed stamps CompletedAt. Marking it not completed
// leaves CompletedAt as it was; existing clients read it as "last completed".
func (g *Goal) UpdateMilestone(id string, patch MilestonePatch, now time.Time) error {
	idx, ok := g.milestoneIndex()[id]
	if !ok {
		return apperror.NotFound("milestone not found")
	}

	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return apperror.Validation("title", "milestone title is required")
	}

	m := &g.Milestones[idx]
	if patch.Title != nil {
		m.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		m.Description = *patch.Description
	}
	if patch.DueDateSet {
		m.DueDate = patch.DueDate
	}
	if patch.Completed != nil {
		m.Completed = *patch.Completed
		if m.Completed {
			m.CompletedAt = &now
		}
	}
	m.UpdatedAt = now

	return nil
}

// RemoveMilestone drops the milestone with the given ID. Removing an unknown
// ID is not an error; the return value reports whether anything was removed.
func (g *Goal) RemoveMilestone(id string) bool {
	idx, ok := g.milestoneIndex()[id]
	if !ok {
		return false
	}
	g.Milestones = append(g.Milestones[:idx], g.Milestones[idx+1:]...)
	return true
}

// CompletedMilestones counts milestones marked completed.
func (g *Goal) CompletedMilestones() int {
	n := 0
	for _, m := range g.Milestones {
		if m.Completed {
			n++
		}
	}
	return n
}

// milestoneIndex is rebuilt on every call so positions never go stale across
// mutations.
func (g *Goal) milestoneIndex() map[string]int {
	index := make(map[string]int, len(g.Milestones))
	for i, m := range g.Milestones {
		index[m.ID] = i
	}
	return index
}

// replaceMilestones swaps the whole collection, keeping creation and
// completion times of milestones that survive and minting IDs for new or
// duplicate ones.
func (g *Goal) replaceMilestones(inputs []MilestoneInput, now time.Time, newID func() string) error {
	existing := g.milestoneIndex()
	seen := make(map[string]bool, len(inputs))
	milestones := make([]Milestone, 0, len(inputs))

	for i, in := range inputs {
		id := in.ID
		if id == "" || seen[id] {
			id = newID()
		}
		seen[id] = true

		m, err := in.build(id, now)
		if err != nil {
			return withIndex(err, i)
		}

		if idx, ok := existing[id]; ok {
			prev := g.Milestones[idx]
			m.CreatedAt = prev.CreatedAt
			// Same rule as UpdateMilestone: only a fresh completion restamps,
			// un-completing keeps the last stamp.
			newlyDone := m.Completed && !prev.Completed
			if prev.CompletedAt != nil && !newlyDone {
				m.CompletedAt = prev.CompletedAt
			}
		}
		milestones = append(milestones, m)
	}

	g.Milestones = milestones
	return nil
}

func withIndex(err error, i int) error {
	appErr, ok := apperror.As(err)
	if !ok || appErr.Field == "" {
		return err
	}
	appErr.Field = fmt.Sprintf("milestones[%d].%s", i, appErr.Field)
	return appErr
}
