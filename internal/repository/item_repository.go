package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/lostfound-id/lostfound-api/internal/models"
)

const itemColumns = `i.id, i.category_id, i.kind, i.name, i.description, i.photo_url,
        i.contact_type, i.contact_value, i.status, i.owner_id, i.created_at, i.updated_at,
        c.name AS category_name, u.name AS owner_name, u.email AS owner_email`

// likeEscaper neutralises LIKE metacharacters so a search term always
// matches as a literal substring, same as the in-memory store.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ItemRepository manages persistence for lost/found reports.
type ItemRepository struct {
	db *sqlx.DB
}

// NewItemRepository constructs an ItemRepository.
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// List returns items matching the filter, newest first, plus the total
// count. The page and the count are two independent reads; under concurrent
// writes the total may not match the page exactly.
func (r *ItemRepository) List(ctx context.Context, filter models.ItemFilter, offset, limit int) ([]models.ItemDetail, int, error) {
	base := "FROM items i JOIN categories c ON c.id = i.category_id LEFT JOIN users u ON u.id = i.owner_id"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.CategoryID != nil {
		conditions = append(conditions, fmt.Sprintf("i.category_id = $%d", len(args)+1))
		args = append(args, *filter.CategoryID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("i.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Kind != nil {
		conditions = append(conditions, fmt.Sprintf("i.kind = $%d", len(args)+1))
		args = append(args, *filter.Kind)
	}
	if filter.OwnerID != nil {
		conditions = append(conditions, fmt.Sprintf("i.owner_id = $%d", len(args)+1))
		args = append(args, *filter.OwnerID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(`(LOWER(i.name) LIKE $%d ESCAPE '\' OR LOWER(i.description) LIKE $%d ESCAPE '\')`, len(args)+1, len(args)+1))
		args = append(args, "%"+escapeLike(strings.ToLower(filter.Search))+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	query := fmt.Sprintf("SELECT %s %s ORDER BY i.created_at DESC, i.id DESC LIMIT %d OFFSET %d",
		itemColumns, base, limit, offset)

	items := []models.ItemDetail{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(i.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}
	return items, total, nil
}

// FindByID fetches an item with its category and owner by ID.
func (r *ItemRepository) FindByID(ctx context.Context, id string) (*models.ItemDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM items i
        JOIN categories c ON c.id = i.category_id
        LEFT JOIN users u ON u.id = i.owner_id
        WHERE i.id = $1`, itemColumns)
	var detail models.ItemDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new item record.
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	const query = `INSERT INTO items (id, category_id, kind, name, description, photo_url, contact_type, contact_value, status, owner_id, created_at, updated_at)
        VALUES (:id, :category_id, :kind, :name, :description, :photo_url, :contact_type, :contact_value, :status, :owner_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

// Update rewrites an existing item row.
func (r *ItemRepository) Update(ctx context.Context, item *models.Item) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE items SET category_id = :category_id, kind = :kind, name = :name, description = :description,
        photo_url = :photo_url, contact_type = :contact_type, contact_value = :contact_value, status = :status,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// Delete removes an item and reports whether a row existed.
func (r *ItemRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM items WHERE id = $1", id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	return affected > 0, nil
}
