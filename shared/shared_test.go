package shared_test

import (
	"braidbook/shared"
	cacheMocks "braidbook/shared/cache/mocks"
	"braidbook/shared/dto"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestCalculateTotalPage(t *testing.T) {
	tests := []struct {
		name  string
		total int
		limit int
		want  int
	}{
		{name: "no rows", total: 0, limit: 10, want: 1},
		{name: "exact pages", total: 20, limit: 10, want: 2},
		{name: "partial last page", total: 21, limit: 10, want: 3},
		{name: "paging off", total: 21, limit: 0, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shared.CalculateTotalPage(tt.total, tt.limit))
		})
	}
}

func TestFilterByID(t *testing.T) {
	filter := shared.FilterByID("bk_1", "id", "appointments")
	where, args := filter.GetWhereClause()

	assert.Equal(t, "(appointments.id = :id)", where)
	assert.Equal(t, map[string]any{"id": "bk_1"}, args)
}

func TestBuildCacheKey(t *testing.T) {
	assert.Equal(t, "availability", shared.BuildCacheKey("availability"))
	assert.Equal(t, "availability:2026-03-14", shared.BuildCacheKey("availability", "2026-03-14"))
	assert.Equal(t, "limiter:127.0.0.1:curl", shared.BuildCacheKey("limiter", "127.0.0.1", "curl"))
}

func TestBuildCacheKeyWithQuery(t *testing.T) {
	params := dto.QueryParams{Page: 1, Limit: 10}
	pending := shared.FilterByID("pending", "status", "appointments")
	confirmed := shared.FilterByID("confirmed", "status", "appointments")

	first := shared.BuildCacheKeyWithQuery("booking:gets", params, pending)
	second := shared.BuildCacheKeyWithQuery("booking:gets", params, pending)
	other := shared.BuildCacheKeyWithQuery("booking:gets", params, confirmed)

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.True(t, strings.HasPrefix(first, "booking:gets:"))
}

func TestInvalidateCaches(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	mockCache.EXPECT().Clear(gomock.Any(), "availability:*").Return(nil)
	shared.InvalidateCaches(context.Background(), mockCache, "availability")

	mockCache.EXPECT().Clear(gomock.Any(), "gallery:get_all:*").Return(errors.New("redis down"))
	shared.InvalidateCaches(context.Background(), mockCache, "gallery:get_all")
}
