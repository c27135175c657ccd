package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePageRequest(t *testing.T) {
	tests := []struct {
		name       string
		offset     string
		limit      string
		wantOffset int
		wantLimit  int
	}{
		{"defaults", "", "", 0, 20},
		{"garbage", "abc", "xyz", 0, 20},
		{"negative offset", "-5", "10", 0, 10},
		{"zero limit", "0", "0", 0, 20},
		{"negative limit", "0", "-1", 0, 20},
		{"capped limit", "0", "500", 0, 100},
		{"at the cap", "0", "100", 0, 100},
		{"normal", "40", "25", 40, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offset, limit := ParsePageRequest(tt.offset, tt.limit)
			assert.Equal(t, tt.wantOffset, offset)
			assert.Equal(t, tt.wantLimit, limit)
		})
	}
}

func TestNewPaginationHasMore(t *testing.T) {
	tests := []struct {
		name    string
		offset  int
		count   int
		total   int
		hasMore bool
	}{
		{"more pages remain", 0, 20, 50, true},
		{"exactly consumed", 40, 10, 50, false},
		{"empty result", 0, 0, 0, false},
		{"offset past the end", 100, 0, 50, false},
		{"last partial page", 40, 5, 45, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.offset, 20, tt.count, tt.total)
			assert.Equal(t, tt.hasMore, p.HasMore)
			assert.Equal(t, tt.total, p.Total)
		})
	}
}
