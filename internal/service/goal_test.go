package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalsetter/internal/apperror"
	"github.com/templui/goalsetter/internal/metrics"
	"github.com/templui/goalsetter/internal/model"
)

func TestAuthorize(t *testing.T) {
	goal := storedGoal("g1", "alice", 0)

	assert.NoError(t, Authorize(goal, "alice"))
	assert.ErrorIs(t, Authorize(goal, "bob"), apperror.ErrUnauthorized)
	assert.ErrorIs(t, Authorize(goal, ""), apperror.ErrUnauthorized)
	assert.ErrorIs(t, Authorize(nil, "alice"), apperror.ErrNotFound)
}

func TestGoalService_CreateThenGet(t *testing.T) {
	repo := newFakeGoalRepository()
	svc := newTestGoalService(repo)
	ctx := context.Background()

	created, err := svc.Create(ctx, "alice", model.NewGoal{
		Title:            "Write a novel",
		ShortDescription: "50k words",
		Category:         model.CategoryHobbies,
		StartDate:        "2026-04-01",
		EndDate:          "2026-11-30",
		Milestones:       []model.MilestoneInput{{Title: "Outline"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "id-1", created.ID)
	assert.Equal(t, "alice", created.UserID)
	assert.Equal(t, model.GoalStatusNotStarted, created.Status)
	assert.Equal(t, 0, created.Progress)
	assert.Equal(t, model.PriorityMedium, created.Priority)
	assert.Equal(t, "id-2", created.Milestones[0].ID)

	got, err := svc.Goal(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestGoalService_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		in    model.NewGoal
		field string
	}{
		{"no title or text", model.NewGoal{ShortDescription: "x", Category: model.CategoryOther, StartDate: "2026-01-01", EndDate: "2026-02-01"}, "title"},
		{"no category", model.NewGoal{Title: "x", ShortDescription: "x", StartDate: "2026-01-01", EndDate: "2026-02-01"}, "category"},
		{"no dates", model.NewGoal{Title: "x", ShortDescription: "x", Category: model.CategoryOther}, "startDate"},
		{"end before start", model.NewGoal{Title: "x", ShortDescription: "x", Category: model.CategoryOther, StartDate: "2026-02-01", EndDate: "2026-01-01"}, "endDate"},
		{"bad priority", model.NewGoal{Title: "x", ShortDescription: "x", Category: model.CategoryOther, Priority: "Urgent", StartDate: "2026-01-01", EndDate: "2026-02-01"}, "priority"},
		{"no title and bad start date", model.NewGoal{ShortDescription: "d", Category: model.CategoryHealth, StartDate: "not-a-date", EndDate: "2026-02-01"}, "title"},
		{"bad category and bad end date", model.NewGoal{Title: "x", ShortDescription: "x", Category: "Chores", StartDate: "2026-01-01", EndDate: "someday"}, "category"},
		{"bad start date reported before end date", model.NewGoal{Title: "x", ShortDescription: "x", Category: model.CategoryOther, StartDate: "soon", EndDate: "later"}, "startDate"},
		{"no title and untitled milestone", model.NewGoal{ShortDescription: "d", Category: model.CategoryOther, StartDate: "2026-01-01", EndDate: "2026-02-01", Milestones: []model.MilestoneInput{{Title: ""}}}, "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeGoalRepository()
			svc := newTestGoalService(repo)

			_, err := svc.Create(context.Background(), "alice", tt.in)

			appErr, ok := apperror.As(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, apperror.KindValidation, appErr.Kind)
			assert.Equal(t, tt.field, appErr.Field)
			assert.Empty(t, repo.goals)
		})
	}
}

func TestGoalService_CreateFromLegacyText(t *testing.T) {
	svc := newTestGoalService(newFakeGoalRepository())

	goal, err := svc.Create(context.Background(), "alice", model.NewGoal{
		Text:      "Learn to juggle",
		Category:  model.CategoryHobbies,
		StartDate: "2026-01-01",
		EndDate:   "2026-03-01",
	})
	require.NoError(t, err)

	assert.Equal(t, "Learn to juggle", goal.Title)
	assert.Equal(t, "Learn to juggle", goal.ShortDescription)
}

func TestGoalService_Guard(t *testing.T) {
	repo := newFakeGoalRepository(storedGoal("g1", "alice", 1))
	svc := newTestGoalService(repo)
	ctx := context.Background()

	_, err := svc.Goal(ctx, "bob", "g1")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Goal(ctx, "alice", "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.AddMilestone(ctx, "bob", "g1", model.MilestoneInput{Title: "sneaky"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Len(t, repo.stored("g1").Milestones, 1)

	err = svc.Delete(ctx, "bob", "g1")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.NotNil(t, repo.stored("g1"))
}

func TestGoalService_MilestoneProgression(t *testing.T) {
	repo := newFakeGoalRepository(storedGoal("g1", "alice", 3))
	svc := newTestGoalService(repo)
	ctx := context.Background()
	done := true

	want := []struct {
		id       string
		progress int
		status   model.GoalStatus
	}{
		{"m1", 33, model.GoalStatusInProgress},
		{"m2", 67, model.GoalStatusInProgress},
		{"m3", 100, model.GoalStatusCompleted},
	}

	for _, step := range want {
		goal, err := svc.UpdateMilestone(ctx, "alice", "g1", step.id, model.MilestonePatch{Completed: &done})
		require.NoError(t, err)
		assert.Equal(t, step.progress, goal.Progress)
		assert.Equal(t, step.status, goal.Status)
	}

	stored := repo.stored("g1")
	assert.Equal(t, 100, stored.Progress)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, testNow, *stored.CompletedAt)
	assert.Equal(t, 4, stored.Version)
}

func TestGoalService_AddMilestoneRecalculates(t *testing.T) {
	goal := storedGoal("g1", "alice", 1)
	goal.Milestones[0].Completed = true
	goal.Progress = 100
	goal.Status = model.GoalStatusCompleted
	goal.CompletedAt = &testNow
	svc := newTestGoalService(newFakeGoalRepository(goal))

	updated, err := svc.AddMilestone(context.Background(), "alice", "g1", model.MilestoneInput{Title: "Encore"})
	require.NoError(t, err)

	assert.Equal(t, 50, updated.Progress)
	assert.Equal(t, model.GoalStatusCompleted, updated.Status, "status is never downgraded")
	require.Len(t, updated.Milestones, 2)
	assert.Equal(t, "Encore", updated.Milestones[1].Title)
}

func TestGoalService_RemoveMilestoneIdempotent(t *testing.T) {
	repo := newFakeGoalRepository(storedGoal("g1", "alice", 2))
	svc := newTestGoalService(repo)
	ctx := context.Background()

	first, err := svc.RemoveMilestone(ctx, "alice", "g1", "m1")
	require.NoError(t, err)
	second, err := svc.RemoveMilestone(ctx, "alice", "g1", "m1")
	require.NoError(t, err)

	assert.Equal(t, first.Milestones, second.Milestones)
	assert.Len(t, second.Milestones, 1)
}

func TestGoalService_UpdateMilestoneUnknown(t *testing.T) {
	svc := newTestGoalService(newFakeGoalRepository(storedGoal("g1", "alice", 1)))
	title := "x"

	_, err := svc.UpdateMilestone(context.Background(), "alice", "g1", "nope", model.MilestonePatch{Title: &title})

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindNotFound, appErr.Kind)
	assert.Equal(t, "milestone not found", appErr.Message)
}

func TestGoalService_UpdateStatus(t *testing.T) {
	repo := newFakeGoalRepository(storedGoal("g1", "alice", 0))
	svc := newTestGoalService(repo)
	ctx := context.Background()

	goal, err := svc.UpdateStatus(ctx, "alice", "g1", model.GoalStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, 100, goal.Progress)
	require.NotNil(t, goal.CompletedAt)

	goal, err = svc.UpdateStatus(ctx, "alice", "g1", model.GoalStatusOnHold)
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusOnHold, goal.Status)
	assert.Nil(t, goal.CompletedAt)

	_, err = svc.UpdateStatus(ctx, "alice", "g1", "Done")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGoalService_UpdateStatusWithMilestonesRatioWins(t *testing.T) {
	svc := newTestGoalService(newFakeGoalRepository(storedGoal("g1", "alice", 4)))

	goal, err := svc.UpdateStatus(context.Background(), "alice", "g1", model.GoalStatusCompleted)
	require.NoError(t, err)

	assert.Equal(t, model.GoalStatusCompleted, goal.Status)
	assert.Equal(t, 0, goal.Progress)
}

func TestGoalService_UpdateFields(t *testing.T) {
	repo := newFakeGoalRepository(storedGoal("g1", "alice", 0))
	svc := newTestGoalService(repo)
	ctx := context.Background()

	patch, err := model.ParseGoalPatch([]byte(`{"title": "Run an ultra", "owner": "bob", "priority": "Low"}`))
	require.NoError(t, err)

	goal, err := svc.Update(ctx, "alice", "g1", patch)
	require.NoError(t, err)
	assert.Equal(t, "Run an ultra", goal.Title)
	assert.Equal(t, "alice", goal.UserID)
	assert.Equal(t, model.PriorityLow, goal.Priority)
	assert.Equal(t, testNow, goal.UpdatedAt)
}

func TestGoalService_UpdateRejectsBadDates(t *testing.T) {
	repo := newFakeGoalRepository(storedGoal("g1", "alice", 0))
	svc := newTestGoalService(repo)

	patch, err := model.ParseGoalPatch([]byte(`{"endDate": "2020-01-01"}`))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "alice", "g1", patch)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, "endDate", appErr.Field)
	assert.Equal(t, testNow.AddDate(0, 6, 0), repo.stored("g1").EndDate, "nothing persisted")
}

func TestGoalService_ConcurrentWriteConflicts(t *testing.T) {
	repo := newFakeGoalRepository(storedGoal("g1", "alice", 1))
	svc := newTestGoalService(repo)
	done := true

	_, err := svc.mutate(context.Background(), "update_milestone", "alice", "g1", func(g *model.Goal, now time.Time) error {
		repo.bumpVersion("g1")
		return g.UpdateMilestone("m1", model.MilestonePatch{Completed: &done}, now)
	})

	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.False(t, repo.stored("g1").Milestones[0].Completed)
}

func TestGoalService_Delete(t *testing.T) {
	repo := newFakeGoalRepository(storedGoal("g1", "alice", 2))
	svc := newTestGoalService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "alice", "g1"))
	assert.Nil(t, repo.stored("g1"))

	assert.ErrorIs(t, svc.Delete(ctx, "alice", "g1"), apperror.ErrNotFound)
}

func TestGoalService_GoalsFilterValidation(t *testing.T) {
	svc := newTestGoalService(newFakeGoalRepository(storedGoal("g1", "alice", 0)))

	_, err := svc.Goals(context.Background(), "alice", model.GoalFilter{Category: "Sports"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	goals, err := svc.Goals(context.Background(), "alice", model.GoalFilter{Category: model.CategoryHealth})
	require.NoError(t, err)
	assert.Len(t, goals, 1)
}

func TestGoalService_StatsScopedToOwner(t *testing.T) {
	completed := storedGoal("g2", "alice", 0)
	completed.Status = model.GoalStatusCompleted
	completed.Progress = 100
	repo := newFakeGoalRepository(
		storedGoal("g1", "alice", 0),
		completed,
		storedGoal("g3", "bob", 0),
	)
	svc := newTestGoalService(repo)

	stats, err := svc.Stats(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.NotStarted)
	assert.Equal(t, 50, stats.AverageProgress)
	assert.Equal(t, 2, stats.ByPriority[model.PriorityHigh])
}

func TestGoalService_RepositoryFailurePropagates(t *testing.T) {
	repo := newFakeGoalRepository()
	repo.failing = errors.New("disk on fire")
	svc := newTestGoalService(repo)

	_, err := svc.Goal(context.Background(), "alice", "g1")

	assert.ErrorIs(t, err, repo.failing)
	_, typed := apperror.As(err)
	assert.False(t, typed)
}

func TestGoalService_LegacyGoalUpgradedOnWrite(t *testing.T) {
	legacy := &model.Goal{ID: "old", UserID: "alice", Text: "Drink more water", Version: 1, CreatedAt: testNow}
	repo := newFakeGoalRepository(legacy)
	svc := newTestGoalService(repo)

	goal, err := svc.AddMilestone(context.Background(), "alice", "old", model.MilestoneInput{Title: "Buy a bottle"})
	require.NoError(t, err)

	assert.Equal(t, "Drink more water", goal.Title)
	assert.Equal(t, model.CategoryPersonal, goal.Category)
	assert.False(t, repo.stored("old").IsLegacy())
}

func TestGoalService_Metrics(t *testing.T) {
	collector := metrics.NewCollector("test")
	svc := NewGoalService(newFakeGoalRepository(storedGoal("g1", "alice", 0)), collector)
	svc.now = func() time.Time { return testNow }
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, "alice", "g1", model.GoalStatusCompleted)
	require.NoError(t, err)
	_, err = svc.Goal(ctx, "bob", "g1")
	require.Error(t, err)
	err = svc.Delete(ctx, "bob", "g1")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.GoalOperations.WithLabelValues("update_status", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.GoalOperations.WithLabelValues("delete", "unauthorized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.GoalsCompleted))
}
