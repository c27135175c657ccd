package models

import (
	"fmt"
	"strings"
	"time"

	appErrors "github.com/lostfound-id/lostfound-api/pkg/errors"
)

// ItemKind distinguishes lost reports from found reports.
type ItemKind string

const (
	KindLost  ItemKind = "lost"
	KindFound ItemKind = "found"
)

// ItemStatus tracks whether an item has been claimed by its owner.
type ItemStatus string

const (
	StatusOpen    ItemStatus = "open"
	StatusClaimed ItemStatus = "claimed"
)

// ContactType enumerates the accepted ways to reach a reporter.
type ContactType string

const (
	ContactWhatsApp  ContactType = "whatsapp"
	ContactInstagram ContactType = "instagram"
	ContactTelegram  ContactType = "telegram"
	ContactLine      ContactType = "line"
	ContactOther     ContactType = "other"
)

var (
	itemKinds    = map[ItemKind]struct{}{KindLost: {}, KindFound: {}}
	itemStatuses = map[ItemStatus]struct{}{StatusOpen: {}, StatusClaimed: {}}
	contactTypes = map[ContactType]struct{}{
		ContactWhatsApp:  {},
		ContactInstagram: {},
		ContactTelegram:  {},
		ContactLine:      {},
		ContactOther:     {},
	}
)

// ParseKind normalises and validates a raw kind value against the closed set.
func ParseKind(raw string) (ItemKind, error) {
	kind := ItemKind(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := itemKinds[kind]; !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("type must be %q or %q", KindLost, KindFound))
	}
	return kind, nil
}

// ParseStatus normalises and validates a raw status value.
func ParseStatus(raw string) (ItemStatus, error) {
	status := ItemStatus(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := itemStatuses[status]; !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("status must be %q or %q", StatusOpen, StatusClaimed))
	}
	return status, nil
}

// ParseContactType normalises and validates a raw contact type.
func ParseContactType(raw string) (ContactType, error) {
	contact := ContactType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := contactTypes[contact]; !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, "contact_type must be one of whatsapp, instagram, telegram, line, other")
	}
	return contact, nil
}

// Item represents a lost/found report stored in the items table.
type Item struct {
	ID           string      `db:"id" json:"id"`
	CategoryID   int64       `db:"category_id" json:"category_id"`
	Kind         ItemKind    `db:"kind" json:"type"`
	Name         string      `db:"name" json:"name"`
	Description  string      `db:"description" json:"description,omitempty"`
	PhotoURL     string      `db:"photo_url" json:"photo_url,omitempty"`
	ContactType  ContactType `db:"contact_type" json:"contact_type"`
	ContactValue string      `db:"contact_value" json:"contact_value"`
	Status       ItemStatus  `db:"status" json:"status"`
	OwnerID      *string     `db:"owner_id" json:"owner_id,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// ItemDetail is an Item joined with its category and owner for read paths.
type ItemDetail struct {
	Item
	CategoryName string  `db:"category_name" json:"category_name"`
	OwnerName    *string `db:"owner_name" json:"owner_name,omitempty"`
	OwnerEmail   *string `db:"owner_email" json:"owner_email,omitempty"`
}

// ItemFilter is the normalised filter specification handed to the item
// store. Nil fields mean "unrestricted"; OwnerID is only ever set from the
// authenticated caller's identity, never from query input.
type ItemFilter struct {
	CategoryID *int64
	Status     *ItemStatus
	Kind       *ItemKind
	OwnerID    *string
	Search     string
}
