package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/templui/goalsetter/internal/ctxkeys"
	"github.com/templui/goalsetter/internal/service"
)

type ExportHandler struct {
	exportService *service.ExportService
}

func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
	}
}

// Download streams the requester's goals as a JSON attachment.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	export, err := h.exportService.Export(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("goals-export-%s.json", export.ExportedAt.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	err = json.NewEncoder(w).Encode(export)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to encode export", "error", err, "user_id", userID)
	}
}

// Upload stores the export in object storage and returns a download link.
func (h *ExportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	upload, err := h.exportService.Upload(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, upload)
}
