package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lostfound-id/lostfound-api/internal/dto"
	"github.com/lostfound-id/lostfound-api/internal/middleware"
	"github.com/lostfound-id/lostfound-api/internal/models"
	"github.com/lostfound-id/lostfound-api/internal/service"
	appErrors "github.com/lostfound-id/lostfound-api/pkg/errors"
	"github.com/lostfound-id/lostfound-api/pkg/response"
)

type itemService interface {
	List(ctx context.Context, query dto.ListItemsQuery) (*service.ItemPage, error)
	History(ctx context.Context, query dto.ListItemsQuery, claims *models.JWTClaims) (*service.ItemPage, error)
	Get(ctx context.Context, id string) (*models.ItemDetail, error)
	Create(ctx context.Context, req dto.CreateItemRequest, claims *models.JWTClaims) (*models.ItemDetail, error)
	Update(ctx context.Context, id string, req dto.UpdateItemRequest, claims *models.JWTClaims) (*models.ItemDetail, error)
	Delete(ctx context.Context, id string, claims *models.JWTClaims) error
	Export(ctx context.Context, query dto.ExportItemsQuery) ([]byte, string, error)
}

// ItemHandler serves the item endpoints.
type ItemHandler struct {
	service itemService
}

// NewItemHandler constructs an ItemHandler.
func NewItemHandler(service itemService) *ItemHandler {
	return &ItemHandler{service: service}
}

// List godoc
// @Summary List reported items
// @Description Public listing with optional search, category, status and type filters.
// @Tags items
// @Produce json
// @Param q query string false "Search in name and description"
// @Param category_id query string false "Category ID, 0 means all"
// @Param status query string false "open or claimed"
// @Param type query string false "lost or found"
// @Param offset query int false "Pagination offset"
// @Param limit query int false "Page size, max 100"
// @Success 200 {object} response.Envelope{data=[]models.ItemDetail}
// @Failure 400 {object} response.Envelope
// @Router /items [get]
func (h *ItemHandler) List(c *gin.Context) {
	page, err := h.service.List(c.Request.Context(), listQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, page.Items, &page.Pagination)
}

// History godoc
// @Summary List the caller's own reports
// @Tags items
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search in name and description"
// @Param category_id query string false "Category ID, 0 means all"
// @Param status query string false "open or claimed"
// @Param type query string false "lost or found"
// @Param offset query int false "Pagination offset"
// @Param limit query int false "Page size, max 100"
// @Success 200 {object} response.Envelope{data=[]models.ItemDetail}
// @Failure 401 {object} response.Envelope
// @Router /items/history [get]
func (h *ItemHandler) History(c *gin.Context) {
	page, err := h.service.History(c.Request.Context(), listQuery(c), middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, page.Items, &page.Pagination)
}

// Get godoc
// @Summary Get one item by ID
// @Tags items
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} response.Envelope{data=models.ItemDetail}
// @Failure 404 {object} response.Envelope
// @Router /items/{id} [get]
func (h *ItemHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail, "")
}

// Create godoc
// @Summary Report a lost or found item
// @Tags items
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param category_id formData string true "Category ID"
// @Param type formData string false "lost or found, defaults to lost"
// @Param name formData string true "Item name"
// @Param description formData string false "Description"
// @Param contact_type formData string true "whatsapp, instagram, telegram, line or other"
// @Param contact_value formData string true "Contact address"
// @Param photo formData file false "Item photo"
// @Success 201 {object} response.Envelope{data=models.ItemDetail}
// @Failure 400 {object} response.Envelope
// @Router /items [post]
func (h *ItemHandler) Create(c *gin.Context) {
	photo, closePhoto, err := formPhoto(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closePhoto()

	req := dto.CreateItemRequest{
		CategoryID:   c.PostForm("category_id"),
		Type:         c.PostForm("type"),
		Name:         c.PostForm("name"),
		Description:  c.PostForm("description"),
		ContactType:  c.PostForm("contact_type"),
		ContactValue: c.PostForm("contact_value"),
		Photo:        photo,
	}
	detail, err := h.service.Create(c.Request.Context(), req, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Update godoc
// @Summary Update an item report
// @Description Partial update; empty fields keep their stored value. Only the owner or an admin may modify an item.
// @Tags items
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Param category_id formData string false "Category ID"
// @Param type formData string false "lost or found"
// @Param name formData string false "Item name"
// @Param description formData string false "Description"
// @Param contact_type formData string false "Contact channel"
// @Param contact_value formData string false "Contact address"
// @Param status formData string false "open or claimed"
// @Param photo formData file false "Replacement photo"
// @Success 200 {object} response.Envelope{data=models.ItemDetail}
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /items/{id} [patch]
func (h *ItemHandler) Update(c *gin.Context) {
	photo, closePhoto, err := formPhoto(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closePhoto()

	req := dto.UpdateItemRequest{
		CategoryID:   c.PostForm("category_id"),
		Type:         c.PostForm("type"),
		Name:         c.PostForm("name"),
		Description:  c.PostForm("description"),
		ContactType:  c.PostForm("contact_type"),
		ContactValue: c.PostForm("contact_value"),
		Status:       c.PostForm("status"),
		Photo:        photo,
	}
	detail, err := h.service.Update(c.Request.Context(), c.Param("id"), req, middleware.CurrentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail, "")
}

// Delete godoc
// @Summary Delete an item report
// @Tags items
// @Security BearerAuth
// @Param id path string true "Item ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /items/{id} [delete]
func (h *ItemHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export the filtered listing as CSV or PDF
// @Tags items
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf, defaults to csv"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /items/export [get]
func (h *ItemHandler) Export(c *gin.Context) {
	query := dto.ExportItemsQuery{
		ListItemsQuery: listQuery(c),
		Format:         c.Query("format"),
	}
	payload, contentType, err := h.service.Export(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}

	ext := "csv"
	if contentType == "application/pdf" {
		ext = "pdf"
	}
	filename := fmt.Sprintf("items-%s.%s", time.Now().Format("20060102-150405"), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(200, contentType, payload)
}

func listQuery(c *gin.Context) dto.ListItemsQuery {
	return dto.ListItemsQuery{
		Q:          c.Query("q"),
		CategoryID: c.Query("category_id"),
		Status:     c.Query("status"),
		Type:       c.Query("type"),
		Offset:     c.Query("offset"),
		Limit:      c.Query("limit"),
	}
}

// formPhoto extracts the optional "photo" part of a multipart request. The
// returned closer is always safe to call.
func formPhoto(c *gin.Context) (*dto.PhotoUpload, func(), error) {
	noop := func() {}
	header, err := c.FormFile("photo")
	if err != nil {
		return nil, noop, nil
	}
	file, err := header.Open()
	if err != nil {
		return nil, noop, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unreadable photo upload")
	}
	upload := &dto.PhotoUpload{
		Filename: header.Filename,
		Size:     header.Size,
		Reader:   file,
	}
	return upload, func() { _ = file.Close() }, nil
}
