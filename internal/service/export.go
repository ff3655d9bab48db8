package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/templui/goalsetter/internal/apperror"
	"github.com/templui/goalsetter/internal/model"
	"github.com/templui/goalsetter/internal/storage"
)

// GoalExport is a point-in-time copy of one owner's goals.
type GoalExport struct {
	Owner      string          `json:"owner"`
	ExportedAt time.Time       `json:"exportedAt"`
	Stats      model.GoalStats `json:"stats"`
	Goals      []*model.Goal   `json:"goals"`
}

// ExportUpload locates an uploaded export.
type ExportUpload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type ExportService struct {
	goals   *GoalService
	storage storage.Storage
	now     func() time.Time
}

// NewExportService builds exports from goals. store may be nil, in which
// case only Export works.
func NewExportService(goals *GoalService, store storage.Storage) *ExportService {
	return &ExportService{
		goals:   goals,
		storage: store,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *ExportService) Export(ctx context.Context, userID string) (*GoalExport, error) {
	goals, err := s.goals.Goals(ctx, userID, model.GoalFilter{})
	if err != nil {
		return nil, err
	}

	return &GoalExport{
		Owner:      userID,
		ExportedAt: s.now(),
		Stats:      model.ComputeStats(goals),
		Goals:      goals,
	}, nil
}

// Upload stores an export under exports/<owner>/ and returns a temporary
// download link.
func (s *ExportService) Upload(ctx context.Context, userID string) (*ExportUpload, error) {
	if s.storage == nil {
		return nil, apperror.NotFound("export storage not configured")
	}

	export, err := s.Export(ctx, userID)
	if err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s.json", userID, export.ExportedAt.Format("20060102T150405Z"))

	err = s.storage.Save(ctx, key, bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, fmt.Errorf("failed to store export: %w", err)
	}

	url, err := s.storage.PresignedURL(ctx, key)
	if err != nil {
		// An export nobody can download is just clutter.
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			slog.Error("failed to remove unreachable export", "error", delErr, "key", key)
		}
		return nil, fmt.Errorf("failed to presign export: %w", err)
	}

	slog.Info("goal export uploaded", "user_id", userID, "key", key, "goals", len(export.Goals))
	return &ExportUpload{Key: key, URL: url}, nil
}
