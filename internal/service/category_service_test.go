package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lostfound-id/lostfound-api/internal/dto"
	"github.com/lostfound-id/lostfound-api/internal/models"
	appErrors "github.com/lostfound-id/lostfound-api/pkg/errors"
)

type mockCategoryRepo struct {
	categories map[int64]*models.Category
	nextID     int64
}

func (m *mockCategoryRepo) List(ctx context.Context) ([]models.Category, error) {
	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockCategoryRepo) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	if c, ok := m.categories[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCategoryRepo) Create(ctx context.Context, category *models.Category) error {
	if m.categories == nil {
		m.categories = make(map[int64]*models.Category)
	}
	m.nextID++
	category.ID = m.nextID
	cp := *category
	m.categories[category.ID] = &cp
	return nil
}

func (m *mockCategoryRepo) Update(ctx context.Context, category *models.Category) (bool, error) {
	if _, ok := m.categories[category.ID]; !ok {
		return false, nil
	}
	cp := *category
	m.categories[category.ID] = &cp
	return true, nil
}

func (m *mockCategoryRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := m.categories[id]; !ok {
		return false, nil
	}
	delete(m.categories, id)
	return true, nil
}

func newTestCategoryService(repo *mockCategoryRepo) *CategoryService {
	return NewCategoryService(repo, validator.New(), zap.NewNop())
}

func TestCategoryCreateAndGet(t *testing.T) {
	repo := &mockCategoryRepo{}
	svc := newTestCategoryService(repo)

	created, err := svc.Create(context.Background(), dto.CategoryRequest{Name: "Electronics"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Electronics", got.Name)
}

func TestCategoryCreateRequiresName(t *testing.T) {
	svc := newTestCategoryService(&mockCategoryRepo{})

	_, err := svc.Create(context.Background(), dto.CategoryRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCategoryUpdateMissing(t *testing.T) {
	svc := newTestCategoryService(&mockCategoryRepo{})

	_, err := svc.Update(context.Background(), 42, dto.CategoryRequest{Name: "Keys"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCategoryDelete(t *testing.T) {
	repo := &mockCategoryRepo{}
	svc := newTestCategoryService(repo)

	created, err := svc.Create(context.Background(), dto.CategoryRequest{Name: "Keys"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), created.ID))

	err = svc.Delete(context.Background(), created.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
