package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okiba/bookd/internal/domain"
)

// BackupService defines the behavior needed by BackupHandler.
type BackupService interface {
	Export(ctx context.Context, scope domain.Scope) (*domain.Backup, error)
	Import(ctx context.Context, scope domain.Scope, backup *domain.Backup) error
}

// BackupHandler handles backup export and import.
type BackupHandler struct {
	backupUC BackupService
}

// NewBackupHandler creates a new BackupHandler.
func NewBackupHandler(backupUC BackupService) *BackupHandler {
	return &BackupHandler{backupUC: backupUC}
}

// Export streams the caller's books as a versioned JSON bundle.
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	backup, err := h.backupUC.Export(r.Context(), scope)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="bookd-backup.json"`)
	writeJSON(w, http.StatusOK, backup)
}

// Import restores a previously exported bundle. The bundle itself carries
// the response shape; validation happens in the domain.
func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	var backup domain.Backup
	if err := json.NewDecoder(r.Body).Decode(&backup); err != nil {
		writeDomainError(w, &domain.ValidationError{Field: "body", Message: "invalid JSON"})
		return
	}

	if err := h.backupUC.Import(r.Context(), scope, &backup); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"counts": backup.Counts})
}
