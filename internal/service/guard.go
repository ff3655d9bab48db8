package service

import (
	"github.com/templui/goalsetter/internal/apperror"
	"github.com/templui/goalsetter/internal/model"
)

// Authorize allows requesterID to act on goal only when they own it. A nil
// goal is reported as not found.
func Authorize(goal *model.Goal, requesterID string) error {
	if goal == nil {
		return apperror.NotFound("goal not found")
	}
	if requesterID == "" || goal.UserID != requesterID {
		return apperror.Unauthorized("not authorized to access this goal")
	}
	return nil
}
