package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/templui/goalsetter/internal/repository"
	"github.com/templui/goalsetter/internal/validation"
)

// BackfillResult summarizes a legacy backfill run.
type BackfillResult struct {
	Scanned  int
	Migrated int
	Skipped  []string
}

// LegacyBackfill upgrades goals created before titles existed, deriving the
// missing fields from their free-text field.
type LegacyBackfill struct {
	repo repository.GoalRepository
	now  func() time.Time
}

func NewLegacyBackfill(repo repository.GoalRepository) *LegacyBackfill {
	return &LegacyBackfill{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Run backfills every legacy goal. With dryRun set nothing is written and
// Migrated counts the goals that would change. Goals that still fail
// validation after the backfill are skipped and reported.
func (b *LegacyBackfill) Run(ctx context.Context, dryRun bool) (BackfillResult, error) {
	var result BackfillResult

	goals, err := b.repo.LegacyGoals(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load legacy goals: %w", err)
	}
	result.Scanned = len(goals)

	for _, goal := range goals {
		now := b.now()
		if !goal.BackfillLegacy(now) {
			continue
		}
		goal.Recalculate(now)

		err := validation.Goal(goal)
		if err != nil {
			slog.Warn("legacy goal still invalid after backfill", "goal_id", goal.ID, "error", err)
			result.Skipped = append(result.Skipped, goal.ID)
			continue
		}

		if dryRun {
			slog.Info("would migrate legacy goal", "goal_id", goal.ID, "title", goal.Title)
			result.Migrated++
			continue
		}

		goal.UpdatedAt = now
		err = b.repo.Update(ctx, goal)
		if err != nil {
			return result, fmt.Errorf("failed to migrate goal %s: %w", goal.ID, err)
		}
		slog.Info("migrated legacy goal", "goal_id", goal.ID, "title", goal.Title)
		result.Migrated++
	}

	return result, nil
}
