package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lostfound-id/lostfound-api/internal/dto"
	"github.com/lostfound-id/lostfound-api/internal/models"
	appErrors "github.com/lostfound-id/lostfound-api/pkg/errors"
	"github.com/lostfound-id/lostfound-api/pkg/storage"
)

type stubItemStore struct {
	items map[string]models.ItemDetail

	lastFilter models.ItemFilter
	lastOffset int
	lastLimit  int
	listCalls  int
	listResult []models.ItemDetail
	listTotal  int

	created []models.Item
	updated []models.Item
	deleted []string
}

func (s *stubItemStore) List(ctx context.Context, filter models.ItemFilter, offset, limit int) ([]models.ItemDetail, int, error) {
	s.listCalls++
	s.lastFilter = filter
	s.lastOffset = offset
	s.lastLimit = limit
	return s.listResult, s.listTotal, nil
}

func (s *stubItemStore) FindByID(ctx context.Context, id string) (*models.ItemDetail, error) {
	if detail, ok := s.items[id]; ok {
		cp := detail
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubItemStore) Create(ctx context.Context, item *models.Item) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	s.created = append(s.created, *item)
	s.put(*item)
	return nil
}

func (s *stubItemStore) Update(ctx context.Context, item *models.Item) error {
	s.updated = append(s.updated, *item)
	s.put(*item)
	return nil
}

func (s *stubItemStore) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	s.deleted = append(s.deleted, id)
	return true, nil
}

func (s *stubItemStore) put(item models.Item) {
	if s.items == nil {
		s.items = make(map[string]models.ItemDetail)
	}
	s.items[item.ID] = models.ItemDetail{Item: item, CategoryName: "Electronics"}
}

type stubCategories struct {
	known map[int64]string
}

func (s *stubCategories) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	name, ok := s.known[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.Category{ID: id, Name: name}, nil
}

type stubPhotos struct {
	stored int
}

func (s *stubPhotos) Allowed(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".jpg")
}

func (s *stubPhotos) MaxSize() int64 { return 1024 }

func (s *stubPhotos) Store(originalName string, r io.Reader) (storage.PhotoRef, error) {
	s.stored++
	return storage.PhotoRef{Filename: "stored.jpg", URL: "http://localhost/uploads/stored.jpg"}, nil
}

func newTestItemService(store *stubItemStore, ownerlessWritable bool) *ItemService {
	return NewItemService(store, &stubCategories{known: map[int64]string{1: "Electronics"}}, &stubPhotos{}, nil, validator.New(), zap.NewNop(), ownerlessWritable)
}

func userClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleUser}
}

func adminClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleAdmin}
}

func seedItem(store *stubItemStore, owner string) models.Item {
	item := models.Item{
		ID:           uuid.NewString(),
		CategoryID:   1,
		Kind:         models.KindLost,
		Name:         "Black wallet",
		ContactType:  models.ContactWhatsApp,
		ContactValue: "+628123",
		Status:       models.StatusOpen,
	}
	if owner != "" {
		item.OwnerID = &owner
	}
	store.put(item)
	return item
}

func TestListEmptyFiltersReturnEverything(t *testing.T) {
	store := &stubItemStore{listTotal: 3}
	svc := newTestItemService(store, true)

	page, err := svc.List(context.Background(), dto.ListItemsQuery{Status: "", Type: "", CategoryID: ""})
	require.NoError(t, err)

	assert.Nil(t, store.lastFilter.Status)
	assert.Nil(t, store.lastFilter.Kind)
	assert.Nil(t, store.lastFilter.CategoryID)
	assert.Nil(t, store.lastFilter.OwnerID)
	assert.Equal(t, 3, page.Pagination.Total)
}

func TestListCategorySentinelZeroMeansAll(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)

	_, err := svc.List(context.Background(), dto.ListItemsQuery{CategoryID: "0"})
	require.NoError(t, err)
	assert.Nil(t, store.lastFilter.CategoryID)
}

func TestListRejectsNonNumericCategory(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)

	_, err := svc.List(context.Background(), dto.ListItemsQuery{CategoryID: "shoes"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, store.listCalls)
}

func TestListRejectsUnknownType(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)

	_, err := svc.List(context.Background(), dto.ListItemsQuery{Type: "banana"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, store.listCalls)
}

func TestListClampsPagination(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)

	_, err := svc.List(context.Background(), dto.ListItemsQuery{Offset: "-3", Limit: "9999"})
	require.NoError(t, err)
	assert.Equal(t, 0, store.lastOffset)
	assert.Equal(t, 100, store.lastLimit)

	_, err = svc.List(context.Background(), dto.ListItemsQuery{Offset: "abc", Limit: "abc"})
	require.NoError(t, err)
	assert.Equal(t, 0, store.lastOffset)
	assert.Equal(t, 20, store.lastLimit)
}

func TestHistoryScopesToCaller(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)

	_, err := svc.History(context.Background(), dto.ListItemsQuery{}, userClaims("u1"))
	require.NoError(t, err)
	require.NotNil(t, store.lastFilter.OwnerID)
	assert.Equal(t, "u1", *store.lastFilter.OwnerID)
}

func TestHistoryIgnoresOwnerLikeQueryInput(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)

	// the query surface has no owner parameter; the scope comes from claims
	_, err := svc.History(context.Background(), dto.ListItemsQuery{Q: "owner_id=u2"}, userClaims("u1"))
	require.NoError(t, err)
	assert.Equal(t, "u1", *store.lastFilter.OwnerID)
}

func TestHistoryRequiresClaims(t *testing.T) {
	svc := newTestItemService(&stubItemStore{}, true)

	_, err := svc.History(context.Background(), dto.ListItemsQuery{}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestGetInvalidID(t *testing.T) {
	svc := newTestItemService(&stubItemStore{}, true)

	_, err := svc.Get(context.Background(), "not-a-uuid")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestGetNotFound(t *testing.T) {
	svc := newTestItemService(&stubItemStore{}, true)

	_, err := svc.Get(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCreateSetsOwnerAndDefaults(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)

	detail, err := svc.Create(context.Background(), dto.CreateItemRequest{
		CategoryID:   "1",
		Name:         "Black wallet",
		ContactType:  "whatsapp",
		ContactValue: "+628123",
	}, userClaims("u1"))
	require.NoError(t, err)

	assert.Equal(t, models.KindLost, detail.Kind)
	assert.Equal(t, models.StatusOpen, detail.Status)
	require.NotNil(t, detail.OwnerID)
	assert.Equal(t, "u1", *detail.OwnerID)
	require.Len(t, store.created, 1)
}

func TestCreateRejectsUnknownKindWithoutWriting(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)

	_, err := svc.Create(context.Background(), dto.CreateItemRequest{
		CategoryID:   "1",
		Type:         "banana",
		Name:         "Black wallet",
		ContactType:  "whatsapp",
		ContactValue: "+628123",
	}, userClaims("u1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.created)
}

func TestCreateRejectsUnknownCategory(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)

	_, err := svc.Create(context.Background(), dto.CreateItemRequest{
		CategoryID:   "99",
		Name:         "Black wallet",
		ContactType:  "whatsapp",
		ContactValue: "+628123",
	}, userClaims("u1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.created)
}

func TestUpdateForbiddenForStranger(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)
	item := seedItem(store, "u1")

	_, err := svc.Update(context.Background(), item.ID, dto.UpdateItemRequest{Status: "claimed"}, userClaims("u2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.updated)
}

func TestUpdateOwnerCanClaim(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)
	item := seedItem(store, "u1")

	detail, err := svc.Update(context.Background(), item.ID, dto.UpdateItemRequest{Status: "claimed"}, userClaims("u1"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusClaimed, detail.Status)
	// untouched fields survive the partial update
	assert.Equal(t, item.Name, detail.Name)
	assert.Equal(t, item.ContactValue, detail.ContactValue)
}

func TestUpdateAdminCanAlwaysModify(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)
	item := seedItem(store, "u1")

	_, err := svc.Update(context.Background(), item.ID, dto.UpdateItemRequest{Name: "Renamed"}, adminClaims("admin"))
	require.NoError(t, err)
	require.Len(t, store.updated, 1)
	assert.Equal(t, "Renamed", store.updated[0].Name)
}

func TestUpdateWithoutClaimsIsUnauthorizedEvenForMissingItems(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)

	_, err := svc.Update(context.Background(), uuid.NewString(), dto.UpdateItemRequest{Name: "x"}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), uuid.NewString(), nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestUpdateMissingItemIsNotFoundBeforeForbidden(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)

	_, err := svc.Update(context.Background(), uuid.NewString(), dto.UpdateItemRequest{Name: "x"}, userClaims("u2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateRejectsInvalidStatus(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)
	item := seedItem(store, "u1")

	_, err := svc.Update(context.Background(), item.ID, dto.UpdateItemRequest{Status: "resolved"}, userClaims("u1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.updated)
}

func TestDeleteForbiddenForStranger(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)
	item := seedItem(store, "u1")

	err := svc.Delete(context.Background(), item.ID, userClaims("u2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDeleteByOwner(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)
	item := seedItem(store, "u1")

	require.NoError(t, svc.Delete(context.Background(), item.ID, userClaims("u1")))
	assert.Equal(t, []string{item.ID}, store.deleted)
}

func TestCanMutateMatrix(t *testing.T) {
	owner := "u1"
	tests := []struct {
		name              string
		itemOwner         *string
		claims            *models.JWTClaims
		ownerlessWritable bool
		want              bool
	}{
		{"owner on owned item", &owner, userClaims("u1"), true, true},
		{"stranger on owned item", &owner, userClaims("u2"), true, false},
		{"admin on owned item", &owner, adminClaims("a1"), true, true},
		{"user on ownerless item, legacy policy", nil, userClaims("u2"), true, true},
		{"user on ownerless item, strict policy", nil, userClaims("u2"), false, false},
		{"admin on ownerless item, strict policy", nil, adminClaims("a1"), false, true},
		{"empty owner treated as ownerless", ptr(""), userClaims("u2"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestItemService(&stubItemStore{}, tt.ownerlessWritable)
			item := &models.Item{OwnerID: tt.itemOwner}
			assert.Equal(t, tt.want, svc.canMutate(tt.claims, item))
		})
	}
}

func TestExportUnknownFormat(t *testing.T) {
	svc := newTestItemService(&stubItemStore{}, true)

	_, _, err := svc.Export(context.Background(), dto.ExportItemsQuery{Format: "xlsx"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportCSV(t *testing.T) {
	store := &stubItemStore{}
	svc := newTestItemService(store, true)
	item := seedItem(store, "u1")
	store.listResult = []models.ItemDetail{store.items[item.ID]}
	store.listTotal = 1

	payload, contentType, err := svc.Export(context.Background(), dto.ExportItemsQuery{})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "Black wallet")
}

func TestBuildItemFilterTrimsSearch(t *testing.T) {
	filter, err := buildItemFilter(dto.ListItemsQuery{Q: "  wallet  "}, "")
	require.NoError(t, err)
	assert.Equal(t, "wallet", filter.Search)
}

func ptr(s string) *string { return &s }
