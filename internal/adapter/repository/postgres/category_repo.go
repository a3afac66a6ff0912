package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okiba/bookd/internal/domain"
)

// CategoryRepository implements usecase.CategoryRepository.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create inserts a new category.
func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (id, owner_id, org_id, name, kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		category.ID,
		category.OwnerID,
		category.OrgID,
		category.Name,
		category.Kind,
		category.CreatedAt,
	)
	if isUniqueViolation(err) {
		return &domain.ConflictError{Message: "category " + category.Name + " already exists"}
	}

	return err
}

// GetByID retrieves a category by ID within the caller's scope.
func (r *CategoryRepository) GetByID(ctx context.Context, scope domain.Scope, id string) (*domain.Category, error) {
	query := `
		SELECT id, owner_id, org_id, name, kind, created_at
		FROM categories
		WHERE id = $1 AND owner_id = $2
	`

	var category domain.Category
	err := r.pool.QueryRow(ctx, query, id, scope.OwnerID).Scan(
		&category.ID,
		&category.OwnerID,
		&category.OrgID,
		&category.Name,
		&category.Kind,
		&category.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("category", id)
	}
	if err != nil {
		return nil, err
	}

	return &category, nil
}

// List lists categories within scope, alphabetically.
func (r *CategoryRepository) List(ctx context.Context, scope domain.Scope, limit, offset int) ([]*domain.Category, error) {
	query := `
		SELECT id, owner_id, org_id, name, kind, created_at
		FROM categories
		WHERE owner_id = $1
		ORDER BY name, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, scope.OwnerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*domain.Category
	for rows.Next() {
		var category domain.Category
		err := rows.Scan(
			&category.ID,
			&category.OwnerID,
			&category.OrgID,
			&category.Name,
			&category.Kind,
			&category.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		categories = append(categories, &category)
	}

	return categories, rows.Err()
}

// Delete removes a category. Transactions keep the category name they were
// written with.
func (r *CategoryRepository) Delete(ctx context.Context, scope domain.Scope, id string) error {
	query := `DELETE FROM categories WHERE id = $1 AND owner_id = $2`

	tag, err := r.pool.Exec(ctx, query, id, scope.OwnerID)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return notFound("category", id)
	}

	return nil
}
