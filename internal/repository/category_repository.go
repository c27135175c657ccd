package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/lostfound-id/lostfound-api/internal/models"
)

// CategoryRepository manages persistence for item categories.
type CategoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository constructs a CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// List returns all categories ordered by name.
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	const query = `SELECT id, name, created_at, updated_at FROM categories ORDER BY name ASC`
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FindByID fetches a category by ID.
func (r *CategoryRepository) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	const query = `SELECT id, name, created_at, updated_at FROM categories WHERE id = $1`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		return nil, err
	}
	return &category, nil
}

// Create inserts a category and fills in its generated ID.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	now := time.Now().UTC()
	category.CreatedAt = now
	category.UpdatedAt = now
	const query = `INSERT INTO categories (name, created_at, updated_at) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.GetContext(ctx, &category.ID, query, category.Name, category.CreatedAt, category.UpdatedAt); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// Update renames a category and reports whether it existed.
func (r *CategoryRepository) Update(ctx context.Context, category *models.Category) (bool, error) {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE categories SET name = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, category.ID, category.Name, category.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("update category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update category: %w", err)
	}
	return affected > 0, nil
}

// Delete removes a category and reports whether a row existed. Items keep
// their category reference; no cascade.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	return affected > 0, nil
}
