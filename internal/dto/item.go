package dto

import "io"

// ListItemsQuery carries the raw, untrusted query parameters of a listing
// request. Normalisation and validation happen in the service.
type ListItemsQuery struct {
	Q          string
	CategoryID string
	Status     string
	Type       string
	Offset     string
	Limit      string
}

// PhotoUpload wraps an uploaded photo stream and its metadata.
type PhotoUpload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

// CreateItemRequest is the multipart payload for posting a new report.
type CreateItemRequest struct {
	CategoryID   string `validate:"required"`
	Type         string
	Name         string `validate:"required"`
	Description  string
	ContactType  string `validate:"required"`
	ContactValue string `validate:"required"`
	Photo        *PhotoUpload
}

// UpdateItemRequest is the multipart payload for a partial update. Empty
// fields mean "leave unchanged"; the form cannot distinguish an omitted
// field from an explicitly empty one.
type UpdateItemRequest struct {
	CategoryID   string
	Type         string
	Name         string
	Description  string
	ContactType  string
	ContactValue string
	Status       string
	Photo        *PhotoUpload
}

// ExportItemsQuery selects the format for a listing export.
type ExportItemsQuery struct {
	ListItemsQuery
	Format string
}
