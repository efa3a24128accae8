package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/himilaisan-astr/elts-backend/internal/models"
)

func TestPageBounds(t *testing.T) {
	cases := []struct {
		name          string
		page, size    int
		limit, offset int
	}{
		{name: "defaults", page: 0, size: 0, limit: models.DefaultPageSize, offset: 0},
		{name: "second page", page: 2, size: 10, limit: 10, offset: 10},
		{name: "oversized page size", page: 1, size: 1000, limit: models.DefaultPageSize, offset: 0},
		{name: "huge page is clamped", page: 999999999999999999, size: models.MaxPageSize, limit: models.MaxPageSize, offset: (models.MaxPage - 1) * models.MaxPageSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			limit, offset := pageBounds(tc.page, tc.size)
			assert.Equal(t, tc.limit, limit)
			assert.Equal(t, tc.offset, offset)
			assert.GreaterOrEqual(t, offset, 0)
		})
	}
}
