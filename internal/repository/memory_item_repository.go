package repository

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lostfound-id/lostfound-api/internal/models"
)

// MemoryItemRepository is an in-memory item store honoring the same
// observable contract as the Postgres implementation: identical filter
// semantics, ordering by creation time descending with insertion order as
// the tie breaker, and list/count issued as two logically independent reads.
// It backs tests and serves as the reference for filter behaviour.
type MemoryItemRepository struct {
	mu         sync.RWMutex
	items      map[string]models.Item
	seq        map[string]int64
	nextSeq    int64
	categories map[int64]string
	users      map[string]models.User
}

// NewMemoryItemRepository returns an empty in-memory store.
func NewMemoryItemRepository() *MemoryItemRepository {
	return &MemoryItemRepository{
		items:      make(map[string]models.Item),
		seq:        make(map[string]int64),
		categories: make(map[int64]string),
		users:      make(map[string]models.User),
	}
}

// RegisterCategory records a category name used when joining item details.
func (r *MemoryItemRepository) RegisterCategory(id int64, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[id] = name
}

// RegisterUser records a user joined into item details as the owner.
func (r *MemoryItemRepository) RegisterUser(user models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
}

// List returns the filtered page plus the total count.
func (r *MemoryItemRepository) List(ctx context.Context, filter models.ItemFilter, offset, limit int) ([]models.ItemDetail, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Item, 0, len(r.items))
	for _, item := range r.items {
		if r.matches(item, filter) {
			matched = append(matched, item)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return r.seq[a.ID] > r.seq[b.ID]
	})

	total := len(matched)
	if offset >= total {
		return []models.ItemDetail{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]models.ItemDetail, 0, end-offset)
	for _, item := range matched[offset:end] {
		page = append(page, r.detail(item))
	}
	return page, total, nil
}

// FindByID fetches a single item; sql.ErrNoRows on miss, mirroring the
// database-backed store.
func (r *MemoryItemRepository) FindByID(ctx context.Context, id string) (*models.ItemDetail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	detail := r.detail(item)
	return &detail, nil
}

// Create stores a new item.
func (r *MemoryItemRepository) Create(ctx context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	r.nextSeq++
	r.seq[item.ID] = r.nextSeq
	r.items[item.ID] = *item
	return nil
}

// Update rewrites a stored item, preserving its insertion order.
func (r *MemoryItemRepository) Update(ctx context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item.UpdatedAt = time.Now().UTC()
	r.items[item.ID] = *item
	return nil
}

// Delete removes an item and reports whether it existed.
func (r *MemoryItemRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return false, nil
	}
	delete(r.items, id)
	delete(r.seq, id)
	return true, nil
}

func (r *MemoryItemRepository) matches(item models.Item, filter models.ItemFilter) bool {
	if filter.CategoryID != nil && item.CategoryID != *filter.CategoryID {
		return false
	}
	if filter.Status != nil && item.Status != *filter.Status {
		return false
	}
	if filter.Kind != nil && item.Kind != *filter.Kind {
		return false
	}
	if filter.OwnerID != nil {
		if item.OwnerID == nil || *item.OwnerID != *filter.OwnerID {
			return false
		}
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(item.Name), needle) &&
			!strings.Contains(strings.ToLower(item.Description), needle) {
			return false
		}
	}
	return true
}

func (r *MemoryItemRepository) detail(item models.Item) models.ItemDetail {
	detail := models.ItemDetail{Item: item, CategoryName: r.categories[item.CategoryID]}
	if item.OwnerID != nil {
		if owner, ok := r.users[*item.OwnerID]; ok {
			name, email := owner.Name, owner.Email
			detail.OwnerName = &name
			detail.OwnerEmail = &email
		}
	}
	return detail
}
