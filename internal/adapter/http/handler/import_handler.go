package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okiba/bookd/internal/adapter/http/dto"
	"github.com/okiba/bookd/internal/domain"
	"github.com/okiba/bookd/internal/usecase"
)

// ImportService defines the behavior needed by ImportHandler.
type ImportService interface {
	Upload(ctx context.Context, scope domain.Scope, input usecase.UploadInput) (*domain.ImportRecord, error)
	GetDetail(ctx context.Context, scope domain.Scope, id string) (*usecase.ImportDetail, error)
	ListHistory(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.ImportRecord, error)
	UpdateMapping(ctx context.Context, scope domain.Scope, importID string, input usecase.UpdateMappingInput) (*domain.ImportRecord, error)
	UpdateItems(ctx context.Context, scope domain.Scope, importID string, edits []usecase.ItemEdit) error
	Execute(ctx context.Context, scope domain.Scope, importID string, input usecase.ExecuteInput) (*domain.ImportRecord, error)
	Delete(ctx context.Context, scope domain.Scope, id string, force bool) error
}

// ImportHandler handles bank statement import HTTP requests.
type ImportHandler struct {
	importUC       ImportService
	maxUploadBytes int64
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importUC ImportService, maxUploadBytes int64) *ImportHandler {
	return &ImportHandler{importUC: importUC, maxUploadBytes: maxUploadBytes}
}

// Upload accepts a multipart statement file plus an optional mode hint and
// parses it into candidate items. An unreadable file still answers with the
// failed record so the client can show the audit trail.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large", err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDomainError(w, &domain.ValidationError{Field: "file", Message: "file part is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file", err.Error())
		return
	}

	record, err := h.importUC.Upload(r.Context(), scope, usecase.UploadInput{
		FileName: header.Filename,
		Data:     data,
		ModeHint: r.FormValue("mode"),
	})
	if err != nil {
		var parseErr *domain.ParseError
		if errors.As(err, &parseErr) && record != nil {
			writeJSON(w, http.StatusUnprocessableEntity, dto.ImportRecordFromDomain(record))
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ImportRecordFromDomain(record))
}

// Get retrieves an import record with its items.
func (h *ImportHandler) Get(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	detail, err := h.importUC.GetDetail(r.Context(), scope, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ImportDetailFromUseCase(detail))
}

// List lists import history, newest first.
func (h *ImportHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	records, err := h.importUC.ListHistory(r.Context(), scope, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListImportsResponse{
		Imports: dto.ImportRecordsFromDomain(records),
		Total:   int64(len(records)),
	})
}

// UpdateMapping sets or changes the import's mapping strategy and reparses
// item targeting.
func (h *ImportHandler) UpdateMapping(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req dto.UpdateImportMappingRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	record, err := h.importUC.UpdateMapping(r.Context(), scope, chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ImportRecordFromDomain(record))
}

// UpdateItems applies row edits during review.
func (h *ImportHandler) UpdateItems(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req dto.UpdateImportItemsRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	if err := h.importUC.UpdateItems(r.Context(), scope, chi.URLParam(r, "id"), req.ToUseCaseInput()); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Execute creates real transactions from pending items. Per-item failures
// do not fail the call; the record carries the outcome counts.
func (h *ImportHandler) Execute(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req dto.ExecuteImportRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	record, err := h.importUC.Execute(r.Context(), scope, chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		var partial *domain.PartialBatchFailure
		if errors.As(err, &partial) && record != nil {
			writeJSON(w, http.StatusOK, dto.ImportRecordFromDomain(record))
			return
		}
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ImportRecordFromDomain(record))
}

// Delete removes an import record and its items. Imported transactions
// stay in the ledger; deleting a completed import needs the force flag.
func (h *ImportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	force := r.URL.Query().Get("force") == "true"
	if err := h.importUC.Delete(r.Context(), scope, chi.URLParam(r, "id"), force); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
