package model

import (
	"math"
	"time"
)

// Recalculate derives progress and status from milestone completion. It must
// run after every mutation that can touch milestones or status, right before
// the goal is written back.
//
// Goals without milestones are left alone: their progress only changes
// through SetStatus or an explicit field update. Status is never downgraded
// here.
func (g *Goal) Recalculate(now time.Time) {
	if len(g.Milestones) == 0 {
		return
	}

	g.Progress = Percent(g.CompletedMilestones(), len(g.Milestones))

	switch {
	case g.Progress == 100 && g.Status != GoalStatusCompleted:
		g.Status = GoalStatusCompleted
		g.CompletedAt = &now
	case g.Progress > 0 && g.Status == GoalStatusNotStarted:
		g.Status = GoalStatusInProgress
	}
}

// SetStatus is the manual status command. Any status can follow any other.
// Completing stamps CompletedAt and forces progress to 100 regardless of
// milestones; leaving Completed clears CompletedAt.
func (g *Goal) SetStatus(status GoalStatus, now time.Time) {
	g.Status = status
	if status == GoalStatusCompleted {
		g.CompletedAt = &now
		g.Progress = 100
		return
	}
	g.CompletedAt = nil
}

// Percent returns round(100 * part / whole), rounding halves up.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(whole)))
}
