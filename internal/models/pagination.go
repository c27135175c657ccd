package models

import "strconv"

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Offset  int  `json:"offset"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"has_more"`
}

// ParsePageRequest clamps raw offset/limit query values into safe bounds.
// It never fails: unparseable or negative offsets become 0, unparseable or
// non-positive limits become 20, and limits are capped at 100.
func ParsePageRequest(offsetRaw, limitRaw string) (offset, limit int) {
	offset, err := strconv.Atoi(offsetRaw)
	if err != nil || offset < 0 {
		offset = 0
	}

	limit, err = strconv.Atoi(limitRaw)
	if err != nil || limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	return offset, limit
}

// NewPagination assembles the pagination block for a returned page.
func NewPagination(offset, limit, count, total int) *Pagination {
	return &Pagination{
		Offset:  offset,
		Limit:   limit,
		Total:   total,
		HasMore: offset+count < total,
	}
}
