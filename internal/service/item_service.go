package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lostfound-id/lostfound-api/internal/dto"
	"github.com/lostfound-id/lostfound-api/internal/models"
	appErrors "github.com/lostfound-id/lostfound-api/pkg/errors"
	"github.com/lostfound-id/lostfound-api/pkg/export"
	"github.com/lostfound-id/lostfound-api/pkg/storage"
)

const itemCachePattern = "items:public:*"

type itemStore interface {
	List(ctx context.Context, filter models.ItemFilter, offset, limit int) ([]models.ItemDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.ItemDetail, error)
	Create(ctx context.Context, item *models.Item) error
	Update(ctx context.Context, item *models.Item) error
	Delete(ctx context.Context, id string) (bool, error)
}

type categoryReader interface {
	FindByID(ctx context.Context, id int64) (*models.Category, error)
}

type photoStore interface {
	Allowed(filename string) bool
	MaxSize() int64
	Store(originalName string, r io.Reader) (storage.PhotoRef, error)
}

// ItemPage is one page of a listing plus its pagination block.
type ItemPage struct {
	Items      []models.ItemDetail `json:"items"`
	Pagination models.Pagination   `json:"pagination"`
}

// ItemService implements the item query-and-authorization engine: it turns
// untrusted query parameters into a bounded filter, paginates
// deterministically, and enforces owner-or-admin mutation rights.
type ItemService struct {
	store             itemStore
	categories        categoryReader
	photos            photoStore
	cache             *CacheService
	csv               *export.CSVExporter
	pdf               *export.PDFExporter
	validator         *validator.Validate
	logger            *zap.Logger
	ownerlessWritable bool
}

// NewItemService constructs an ItemService.
func NewItemService(store itemStore, categories categoryReader, photos photoStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger, ownerlessWritable bool) *ItemService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemService{
		store:             store,
		categories:        categories,
		photos:            photos,
		cache:             cache,
		csv:               export.NewCSVExporter(),
		pdf:               export.NewPDFExporter(),
		validator:         validate,
		logger:            logger,
		ownerlessWritable: ownerlessWritable,
	}
}

// List serves the public listing.
func (s *ItemService) List(ctx context.Context, query dto.ListItemsQuery) (*ItemPage, error) {
	filter, err := buildItemFilter(query, "")
	if err != nil {
		return nil, err
	}
	offset, limit := models.ParsePageRequest(query.Offset, query.Limit)

	cacheKey := publicListCacheKey(query, offset, limit)
	if s.cache.Enabled() {
		var cached ItemPage
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	page, err := s.listPage(ctx, filter, offset, limit)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, page, 0)
	}
	return page, nil
}

// History serves the authenticated caller's own reports. The owner scope
// comes from the verified identity, never from query input.
func (s *ItemService) History(ctx context.Context, query dto.ListItemsQuery, claims *models.JWTClaims) (*ItemPage, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter, err := buildItemFilter(query, claims.UserID)
	if err != nil {
		return nil, err
	}
	offset, limit := models.ParsePageRequest(query.Offset, query.Limit)
	return s.listPage(ctx, filter, offset, limit)
}

// Get returns a single item by ID.
func (s *ItemService) Get(ctx context.Context, id string) (*models.ItemDetail, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid item id")
	}
	detail, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	return detail, nil
}

// Create stores a new report owned by the caller.
func (s *ItemService) Create(ctx context.Context, req dto.CreateItemRequest, claims *models.JWTClaims) (*models.ItemDetail, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "category_id, name, contact_type and contact_value are required")
	}

	categoryID, err := parseCategoryID(req.CategoryID)
	if err != nil {
		return nil, err
	}
	if categoryID == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category_id is required")
	}

	kind := models.KindLost
	if req.Type != "" {
		if kind, err = models.ParseKind(req.Type); err != nil {
			return nil, err
		}
	}
	contactType, err := models.ParseContactType(req.ContactType)
	if err != nil {
		return nil, err
	}
	if err := s.ensureCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	photoURL, err := s.storePhoto(req.Photo)
	if err != nil {
		return nil, err
	}

	ownerID := claims.UserID
	item := &models.Item{
		CategoryID:   categoryID,
		Kind:         kind,
		Name:         req.Name,
		Description:  req.Description,
		PhotoURL:     photoURL,
		ContactType:  contactType,
		ContactValue: req.ContactValue,
		Status:       models.StatusOpen,
		OwnerID:      &ownerID,
	}
	if err := s.store.Create(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create item")
	}

	s.invalidateListings(ctx)
	return s.reload(ctx, item.ID)
}

// Update applies a partial update after the ownership check. Empty
// submitted fields leave the stored value unchanged.
func (s *ItemService) Update(ctx context.Context, id string, req dto.UpdateItemRequest, claims *models.JWTClaims) (*models.ItemDetail, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canMutate(claims, &current.Item) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the owner or an admin may modify this item")
	}

	item := current.Item

	if req.Name != "" {
		item.Name = req.Name
	}
	if req.Description != "" {
		item.Description = req.Description
	}
	if req.CategoryID != "" {
		categoryID, err := parseCategoryID(req.CategoryID)
		if err != nil {
			return nil, err
		}
		if categoryID != 0 {
			if err := s.ensureCategory(ctx, categoryID); err != nil {
				return nil, err
			}
			item.CategoryID = categoryID
		}
	}
	if req.ContactType != "" {
		contactType, err := models.ParseContactType(req.ContactType)
		if err != nil {
			return nil, err
		}
		item.ContactType = contactType
	}
	if req.ContactValue != "" {
		item.ContactValue = req.ContactValue
	}
	if req.Status != "" {
		status, err := models.ParseStatus(req.Status)
		if err != nil {
			return nil, err
		}
		item.Status = status
	}
	if req.Type != "" {
		kind, err := models.ParseKind(req.Type)
		if err != nil {
			return nil, err
		}
		item.Kind = kind
	}
	if req.Photo != nil {
		photoURL, err := s.storePhoto(req.Photo)
		if err != nil {
			return nil, err
		}
		item.PhotoURL = photoURL
	}

	if err := s.store.Update(ctx, &item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update item")
	}

	s.invalidateListings(ctx)
	return s.reload(ctx, item.ID)
}

// Delete removes an item after the ownership check.
func (s *ItemService) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.canMutate(claims, &current.Item) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the owner or an admin may delete this item")
	}

	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete item")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "item not found")
	}

	s.invalidateListings(ctx)
	return nil
}

// Export renders the filtered public listing as CSV or PDF.
func (s *ItemService) Export(ctx context.Context, query dto.ExportItemsQuery) ([]byte, string, error) {
	filter, err := buildItemFilter(query.ListItemsQuery, "")
	if err != nil {
		return nil, "", err
	}
	offset, limit := models.ParsePageRequest(query.Offset, query.Limit)

	items, _, err := s.store.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list items")
	}

	dataset := export.Dataset{
		Headers: []string{"ID", "Type", "Name", "Category", "Status", "Contact", "Reported At"},
	}
	for _, item := range items {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"ID":          item.ID,
			"Type":        string(item.Kind),
			"Name":        item.Name,
			"Category":    item.CategoryName,
			"Status":      string(item.Status),
			"Contact":     fmt.Sprintf("%s: %s", item.ContactType, item.ContactValue),
			"Reported At": item.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	switch strings.ToLower(query.Format) {
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, "Lost & Found Items")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// canMutate is the ownership guard: items without an owner follow the
// legacy writable policy, otherwise only the owner or an admin may write.
func (s *ItemService) canMutate(claims *models.JWTClaims, item *models.Item) bool {
	if item.OwnerID == nil || *item.OwnerID == "" {
		return s.ownerlessWritable || claims.Role == models.RoleAdmin
	}
	return claims.UserID == *item.OwnerID || claims.Role == models.RoleAdmin
}

func (s *ItemService) listPage(ctx context.Context, filter models.ItemFilter, offset, limit int) (*ItemPage, error) {
	items, total, err := s.store.List(ctx, filter, offset, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list items")
	}
	return &ItemPage{
		Items:      items,
		Pagination: *models.NewPagination(offset, limit, len(items), total),
	}, nil
}

func (s *ItemService) ensureCategory(ctx context.Context, id int64) error {
	if _, err := s.categories.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "category not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	return nil
}

// storePhoto persists an uploaded photo and returns its public URL. A
// missing upload yields an empty URL; a failed upload the caller asked for
// is a server error, never silently dropped.
func (s *ItemService) storePhoto(photo *dto.PhotoUpload) (string, error) {
	if photo == nil {
		return "", nil
	}
	if !s.photos.Allowed(photo.Filename) {
		return "", appErrors.Clone(appErrors.ErrValidation, "photo must be jpg, jpeg, png or webp")
	}
	if max := s.photos.MaxSize(); max > 0 && photo.Size > max {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("photo exceeds the %d byte limit", max))
	}
	ref, err := s.photos.Store(photo.Filename, photo.Reader)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store photo")
	}
	return ref.URL, nil
}

func (s *ItemService) reload(ctx context.Context, id string) (*models.ItemDetail, error) {
	detail, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load item")
	}
	return detail, nil
}

func (s *ItemService) invalidateListings(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, itemCachePattern); err != nil {
		s.logger.Warn("failed to invalidate listing cache", zap.Error(err))
	}
}

// buildItemFilter normalises raw query parameters into the filter
// specification shared by the public and history listings. Sentinel values
// ("", "0") become "unrestricted"; the owner scope comes only from the
// ownerID argument.
func buildItemFilter(query dto.ListItemsQuery, ownerID string) (models.ItemFilter, error) {
	filter := models.ItemFilter{Search: strings.TrimSpace(query.Q)}

	if raw := strings.TrimSpace(query.CategoryID); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 0 {
			return models.ItemFilter{}, appErrors.Clone(appErrors.ErrValidation, "category_id must be a numeric id")
		}
		if id != 0 {
			filter.CategoryID = &id
		}
	}
	if raw := strings.TrimSpace(query.Status); raw != "" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			return models.ItemFilter{}, err
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(query.Type); raw != "" {
		kind, err := models.ParseKind(raw)
		if err != nil {
			return models.ItemFilter{}, err
		}
		filter.Kind = &kind
	}
	if ownerID != "" {
		filter.OwnerID = &ownerID
	}

	return filter, nil
}

func parseCategoryID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "category_id must be a numeric id")
	}
	return id, nil
}

func publicListCacheKey(query dto.ListItemsQuery, offset, limit int) string {
	return fmt.Sprintf("items:public:q=%s&cat=%s&status=%s&type=%s&offset=%d&limit=%d",
		strings.ToLower(strings.TrimSpace(query.Q)),
		strings.TrimSpace(query.CategoryID),
		strings.ToLower(strings.TrimSpace(query.Status)),
		strings.ToLower(strings.TrimSpace(query.Type)),
		offset, limit)
}
