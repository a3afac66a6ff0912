package usecase

import (
	"context"
	"time"

	"github.com/okiba/bookd/internal/domain"
)

// CategoryUseCase handles transaction category management.
type CategoryUseCase struct {
	categoryRepo CategoryRepository
	idGen        IDGenerator
}

// NewCategoryUseCase creates a new CategoryUseCase.
func NewCategoryUseCase(categoryRepo CategoryRepository, idGen IDGenerator) *CategoryUseCase {
	return &CategoryUseCase{
		categoryRepo: categoryRepo,
		idGen:        idGen,
	}
}

// CreateCategory creates a category.
func (uc *CategoryUseCase) CreateCategory(ctx context.Context, scope domain.Scope, name string, kind domain.CategoryKind) (*domain.Category, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	if err := scope.Require(domain.CapLedgerWrite); err != nil {
		return nil, err
	}

	category := &domain.Category{
		ID:        uc.idGen.Generate(),
		OwnerID:   scope.OwnerID,
		OrgID:     scope.OrgID,
		Name:      name,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}

	if err := category.Validate(); err != nil {
		return nil, err
	}

	if err := uc.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// ListCategories lists categories.
func (uc *CategoryUseCase) ListCategories(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.Category, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}

	return uc.categoryRepo.List(ctx, scope, clampLimit(limit), offset)
}

// DeleteCategory removes a category. Transactions keep the category name
// they were written with.
func (uc *CategoryUseCase) DeleteCategory(ctx context.Context, scope domain.Scope, id string) error {
	if err := scope.Require(domain.CapLedgerWrite); err != nil {
		return err
	}

	if _, err := uc.categoryRepo.GetByID(ctx, scope, id); err != nil {
		return err
	}

	return uc.categoryRepo.Delete(ctx, scope, id)
}
