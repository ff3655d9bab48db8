package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/goalsetter/internal/model"
)

func legacyGoal(id, text string) *model.Goal {
	return &model.Goal{
		ID:        id,
		UserID:    "alice",
		Text:      text,
		Version:   1,
		CreatedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

func newTestBackfill(repo *fakeGoalRepository) *LegacyBackfill {
	b := NewLegacyBackfill(repo)
	b.now = func() time.Time { return testNow }
	return b
}

func TestLegacyBackfill_Run(t *testing.T) {
	repo := newFakeGoalRepository(
		legacyGoal("old-1", "Learn the guitar"),
		legacyGoal("old-2", strings.Repeat("long ", 60)),
		storedGoal("modern", "alice", 0),
	)

	result, err := newTestBackfill(repo).Run(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 2, result.Migrated)
	assert.Empty(t, result.Skipped)

	migrated := repo.stored("old-1")
	assert.Equal(t, "Learn the guitar", migrated.Title)
	assert.Equal(t, model.CategoryPersonal, migrated.Category)
	assert.Equal(t, migrated.CreatedAt, migrated.StartDate)
	assert.Equal(t, migrated.CreatedAt.AddDate(0, 0, 30), migrated.EndDate)
	assert.Equal(t, 2, migrated.Version)
	assert.Equal(t, testNow, migrated.UpdatedAt)

	assert.Len(t, []rune(repo.stored("old-2").ShortDescription), model.MaxShortDescription)

	again, err := newTestBackfill(repo).Run(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, again.Scanned)
}

func TestLegacyBackfill_DryRun(t *testing.T) {
	repo := newFakeGoalRepository(legacyGoal("old-1", "Learn the guitar"))

	result, err := newTestBackfill(repo).Run(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Migrated)
	assert.True(t, repo.stored("old-1").IsLegacy())
	assert.Equal(t, 1, repo.stored("old-1").Version)
}

func TestLegacyBackfill_SkipsInvalid(t *testing.T) {
	broken := legacyGoal("old-1", "Fix the bike")
	broken.Priority = "Urgent"
	repo := newFakeGoalRepository(broken)

	result, err := newTestBackfill(repo).Run(context.Background(), false)
	require.NoError(t, err)

	assert.Zero(t, result.Migrated)
	assert.Equal(t, []string{"old-1"}, result.Skipped)
	assert.True(t, repo.stored("old-1").IsLegacy())
}

func TestLegacyBackfill_RecalculatesProgress(t *testing.T) {
	old := legacyGoal("old-1", "Run a 10k")
	old.Milestones = []model.Milestone{
		{ID: "m1", Title: "5k", Completed: true},
		{ID: "m2", Title: "8k", Completed: true},
		{ID: "m3", Title: "10k"},
		{ID: "m4", Title: "race day"},
	}
	repo := newFakeGoalRepository(old)

	_, err := newTestBackfill(repo).Run(context.Background(), false)
	require.NoError(t, err)

	migrated := repo.stored("old-1")
	assert.Equal(t, 50, migrated.Progress)
	assert.Equal(t, model.GoalStatusInProgress, migrated.Status)
}
