package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/templui/goalsetter/internal/apperror"
	"github.com/templui/goalsetter/internal/metrics"
	"github.com/templui/goalsetter/internal/model"
	"github.com/templui/goalsetter/internal/repository"
	"github.com/templui/goalsetter/internal/validation"
)

type GoalService struct {
	repo    repository.GoalRepository
	metrics *metrics.Collector
	now     func() time.Time
	newID   func() string
}

// NewGoalService wires the goal operations. metrics may be nil.
func NewGoalService(repo repository.GoalRepository, metrics *metrics.Collector) *GoalService {
	return &GoalService{
		repo:    repo,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.New().String() },
	}
}

// Goals lists the requester's goals. Filters must name enumerated values.
func (s *GoalService) Goals(ctx context.Context, userID string, filter model.GoalFilter) ([]*model.Goal, error) {
	err := filter.Validate()
	if err != nil {
		return nil, err
	}

	goals, err := s.repo.Goals(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return goals, nil
}

func (s *GoalService) Goal(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	return s.load(ctx, userID, goalID)
}

func (s *GoalService) Create(ctx context.Context, userID string, in model.NewGoal) (goal *model.Goal, err error) {
	defer func() { s.record("create", err) }()

	now := s.now()
	goal, err = in.Build(userID, s.newID(), now, s.newID)
	if err != nil {
		// Fields ahead of the one that failed to parse are reported first.
		if appErr, ok := apperror.As(err); ok && goal != nil {
			if leading := validation.GoalBefore(goal, appErr.Field); leading != nil {
				return nil, leading
			}
		}
		return nil, err
	}

	goal.Recalculate(now)

	err = validation.Goal(goal)
	if err != nil {
		return nil, err
	}

	err = s.repo.Create(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}

	slog.Debug("goal created", "goal_id", goal.ID, "user_id", userID)
	return goal, nil
}

// Update applies a whitelisted field patch.
func (s *GoalService) Update(ctx context.Context, userID, goalID string, patch model.GoalPatch) (*model.Goal, error) {
	return s.mutate(ctx, "update", userID, goalID, func(g *model.Goal, now time.Time) error {
		return patch.Apply(g, now, s.newID)
	})
}

func (s *GoalService) UpdateStatus(ctx context.Context, userID, goalID string, status model.GoalStatus) (*model.Goal, error) {
	if !status.IsValid() {
		err := apperror.Validation("status", "unknown status %q", status)
		s.record("update_status", err)
		return nil, err
	}

	return s.mutate(ctx, "update_status", userID, goalID, func(g *model.Goal, now time.Time) error {
		g.SetStatus(status, now)
		return nil
	})
}

func (s *GoalService) AddMilestone(ctx context.Context, userID, goalID string, in model.MilestoneInput) (*model.Goal, error) {
	return s.mutate(ctx, "add_milestone", userID, goalID, func(g *model.Goal, now time.Time) error {
		_, err := g.AddMilestone(in, s.newID(), now)
		return err
	})
}

func (s *GoalService) UpdateMilestone(ctx context.Context, userID, goalID, milestoneID string, patch model.MilestonePatch) (*model.Goal, error) {
	return s.mutate(ctx, "update_milestone", userID, goalID, func(g *model.Goal, now time.Time) error {
		return g.UpdateMilestone(milestoneID, patch, now)
	})
}

// RemoveMilestone succeeds whether or not the milestone exists.
func (s *GoalService) RemoveMilestone(ctx context.Context, userID, goalID, milestoneID string) (*model.Goal, error) {
	return s.mutate(ctx, "remove_milestone", userID, goalID, func(g *model.Goal, _ time.Time) error {
		g.RemoveMilestone(milestoneID)
		return nil
	})
}

func (s *GoalService) Delete(ctx context.Context, userID, goalID string) (err error) {
	defer func() { s.record("delete", err) }()

	_, err = s.load(ctx, userID, goalID)
	if err != nil {
		return err
	}

	err = s.repo.Delete(ctx, userID, goalID)
	if errors.Is(err, repository.ErrGoalNotFound) {
		return apperror.NotFound("goal not found")
	}
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}

func (s *GoalService) Stats(ctx context.Context, userID string) (model.GoalStats, error) {
	goals, err := s.repo.Goals(ctx, userID, model.GoalFilter{})
	if err != nil {
		return model.GoalStats{}, fmt.Errorf("failed to load goals for stats: %w", err)
	}
	return model.ComputeStats(goals), nil
}

// load fetches a goal and checks the requester owns it.
func (s *GoalService) load(ctx context.Context, userID, goalID string) (*model.Goal, error) {
	goal, err := s.repo.ByID(ctx, goalID)
	if errors.Is(err, repository.ErrGoalNotFound) {
		goal, err = nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load goal: %w", err)
	}

	err = Authorize(goal, userID)
	if err != nil {
		return nil, err
	}
	return goal, nil
}

// mutate runs one read-modify-write cycle: load and authorize, apply fn,
// rerun the progress engine, validate, then write back under the version
// read at load time.
func (s *GoalService) mutate(ctx context.Context, op, userID, goalID string, fn func(g *model.Goal, now time.Time) error) (goal *model.Goal, err error) {
	defer func() { s.record(op, err) }()

	goal, err = s.load(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	wasCompleted := goal.IsCompleted()

	// Pre-title goals are upgraded on their first write.
	if goal.IsLegacy() {
		goal.BackfillLegacy(now)
	}

	err = fn(goal, now)
	if err != nil {
		return nil, err
	}

	goal.Recalculate(now)
	goal.UpdatedAt = now

	err = validation.Goal(goal)
	if err != nil {
		return nil, err
	}

	err = s.repo.Update(ctx, goal)
	switch {
	case errors.Is(err, repository.ErrVersionConflict):
		return nil, apperror.Conflict(err, "goal was modified by another request, reload and retry")
	case errors.Is(err, repository.ErrGoalNotFound):
		return nil, apperror.NotFound("goal not found")
	case err != nil:
		return nil, fmt.Errorf("failed to save goal: %w", err)
	}

	if !wasCompleted && goal.IsCompleted() && s.metrics != nil {
		s.metrics.RecordGoalCompleted()
	}

	return goal, nil
}

func (s *GoalService) record(op string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordGoalOperation(op, outcome(err))
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if appErr, ok := apperror.As(err); ok {
		return string(appErr.Kind)
	}
	return "error"
}
