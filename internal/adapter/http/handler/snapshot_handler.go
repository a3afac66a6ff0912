package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/okiba/bookd/internal/adapter/http/dto"
	"github.com/okiba/bookd/internal/domain"
)

// SnapshotService defines the behavior needed by SnapshotHandler.
type SnapshotService interface {
	RecomputeAccount(ctx context.Context, scope domain.Scope, accountID string, g domain.Granularity, from time.Time) error
	ListSnapshots(ctx context.Context, scope domain.Scope, accountID string, g domain.Granularity, limit, offset int) ([]*domain.BalanceSnapshot, error)
}

// SnapshotHandler handles balance snapshot HTTP requests.
type SnapshotHandler struct {
	snapshotUC SnapshotService
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(snapshotUC SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshotUC: snapshotUC}
}

// Recompute rebuilds snapshots for one account from a point in time.
func (h *SnapshotHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req dto.RecomputeSnapshotsRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	err := h.snapshotUC.RecomputeAccount(r.Context(), scope, req.AccountID, domain.Granularity(req.Granularity), req.From)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// List lists snapshots for one account and granularity, newest first.
func (h *SnapshotHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	accountID := q.Get("account_id")
	if accountID == "" {
		writeDomainError(w, &domain.ValidationError{Field: "account_id", Message: "account_id query parameter is required"})
		return
	}

	g := domain.Granularity(q.Get("granularity"))
	if g == "" {
		g = domain.GranularityMonth
	}
	if g != domain.GranularityDay && g != domain.GranularityMonth {
		writeDomainError(w, &domain.ValidationError{Field: "granularity", Message: "must be day or month"})
		return
	}

	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	snapshots, err := h.snapshotUC.ListSnapshots(r.Context(), scope, accountID, g, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListSnapshotsResponse{
		Snapshots: dto.SnapshotsFromDomain(snapshots),
		Total:     int64(len(snapshots)),
	})
}
