package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okiba/bookd/internal/adapter/http/dto"
	"github.com/okiba/bookd/internal/domain"
)

// CategoryService defines the behavior needed by CategoryHandler.
type CategoryService interface {
	CreateCategory(ctx context.Context, scope domain.Scope, name string, kind domain.CategoryKind) (*domain.Category, error)
	ListCategories(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.Category, error)
	DeleteCategory(ctx context.Context, scope domain.Scope, id string) error
}

// CategoryHandler handles category HTTP requests.
type CategoryHandler struct {
	categoryUC CategoryService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryUC CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryUC: categoryUC}
}

// Create creates a category.
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	var req dto.CreateCategoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	category, err := h.categoryUC.CreateCategory(r.Context(), scope, req.Name, domain.CategoryKind(req.Kind))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.CategoryFromDomain(category))
}

// List lists categories.
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	limit := parseIntQuery(r, "limit", 100)
	offset := parseIntQuery(r, "offset", 0)

	categories, err := h.categoryUC.ListCategories(r.Context(), scope, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListCategoriesResponse{
		Categories: dto.CategoriesFromDomain(categories),
		Total:      int64(len(categories)),
	})
}

// Delete removes a category. Existing transactions keep the name they were
// written with.
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := callerScope(w, r)
	if !ok {
		return
	}

	if err := h.categoryUC.DeleteCategory(r.Context(), scope, chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
