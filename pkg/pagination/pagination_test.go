// Copyright (c) 2026 Veyra. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/veyra/pkg/pagination"
)

/*
TestFromRequest verifies query-string parsing and clamping.
*/
func TestFromRequest(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "", 1, pagination.DefaultLimit},
		{"explicit", "page=3&limit=25", 3, 25},
		{"zero_page_clamped", "page=0&limit=10", 1, 10},
		{"negative_page_clamped", "page=-4", 1, pagination.DefaultLimit},
		{"excessive_limit_clamped", "limit=9999", 1, pagination.DefaultLimit},
		{"garbage_ignored", "page=abc&limit=xyz", 1, pagination.DefaultLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest("GET", "/?"+tt.query, nil)
			params := pagination.FromRequest(request)

			assert.Equal(t, tt.wantPage, params.Page)
			assert.Equal(t, tt.wantLimit, params.Limit)
		})
	}
}

/*
TestParams_Offset verifies the SQL offset derivation.
*/
func TestParams_Offset(t *testing.T) {
	assert.Equal(t, 0, pagination.Params{Page: 1, Limit: 50}.Offset())
	assert.Equal(t, 50, pagination.Params{Page: 2, Limit: 50}.Offset())
	assert.Equal(t, 0, pagination.Params{Page: 0, Limit: 50}.Offset())
}

/*
TestNewMeta verifies total-page arithmetic, including partial last pages.
*/
func TestNewMeta(t *testing.T) {
	meta := pagination.NewMeta(2, 20, 41)
	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 20, meta.Limit)
	assert.Equal(t, 41, meta.Total)
	assert.Equal(t, 3, meta.TotalPages)

	empty := pagination.NewMeta(1, 20, 0)
	assert.Equal(t, 0, empty.TotalPages)
}
