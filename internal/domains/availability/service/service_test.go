package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"braidbook/config"
	"braidbook/infras/otel/mocks"
	availabilityMocks "braidbook/internal/domains/availability/mocks"
	"braidbook/internal/domains/availability/model"
	"braidbook/internal/domains/availability/model/dto"
	"braidbook/internal/domains/availability/service"
	cacheMocks "braidbook/shared/cache/mocks"
	"braidbook/shared/constant"
	"braidbook/shared/failure"
)

func newService(t *testing.T) (*availabilityMocks.MockAvailability, *cacheMocks.MockRedisCache, service.Availability) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600
	cfg.Booking.DailySlots = []string{"09:00", "13:00"}

	repo := availabilityMocks.NewMockAvailability(ctrl)
	redis := cacheMocks.NewMockRedisCache(ctrl)

	return repo, redis, service.New(repo, cfg, redis, mocks.NewOtel())
}

func TestAvailabilityService_Publish(t *testing.T) {
	tests := []struct {
		name          string
		req           dto.PublishAvailabilityRequest
		setupMock     func(repo *availabilityMocks.MockAvailability, redis *cacheMocks.MockRedisCache)
		wantPublished int
		wantCode      int
	}{
		{
			name: "publishes the requested clocks",
			req:  dto.PublishAvailabilityRequest{Date: "2026-03-14", Times: []string{"13:00"}},
			setupMock: func(repo *availabilityMocks.MockAvailability, redis *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Publish(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, models []model.Availability) (int, error) {
						require.Len(t, models, 1)
						assert.Equal(t, "2026-03-14T13:00", models[0].ID)
						assert.False(t, models[0].IsBooked)

						return 1, nil
					})
				redis.EXPECT().Clear(gomock.Any(), "availability:get").Return(nil).AnyTimes()
				redis.EXPECT().Clear(gomock.Any(), constant.CacheKeyBookingAvailability).Return(nil).AnyTimes()
			},
			wantPublished: 1,
		},
		{
			name: "empty times publishes the daily slots",
			req:  dto.PublishAvailabilityRequest{Date: "2026-03-14"},
			setupMock: func(repo *availabilityMocks.MockAvailability, redis *cacheMocks.MockRedisCache) {
				repo.EXPECT().
					Publish(gomock.Any(), gomock.Len(2)).
					Return(2, nil)
				redis.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
			wantPublished: 2,
		},
		{
			name:      "invalid date",
			req:       dto.PublishAvailabilityRequest{Date: "14/03/2026"},
			setupMock: func(*availabilityMocks.MockAvailability, *cacheMocks.MockRedisCache) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name:      "clock outside the daily slots",
			req:       dto.PublishAvailabilityRequest{Date: "2026-03-14", Times: []string{"9am"}},
			setupMock: func(*availabilityMocks.MockAvailability, *cacheMocks.MockRedisCache) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "store failure",
			req:  dto.PublishAvailabilityRequest{Date: "2026-03-14"},
			setupMock: func(repo *availabilityMocks.MockAvailability, _ *cacheMocks.MockRedisCache) {
				repo.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(0, errors.New("connection reset"))
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, redis, svc := newService(t)
			tt.setupMock(repo, redis)

			res, err := svc.Publish(context.Background(), tt.req)

			time.Sleep(10 * time.Millisecond)

			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.req.Date, res.Date)
			assert.Equal(t, tt.wantPublished, res.Published)
		})
	}
}

func TestAvailabilityService_GetByDate(t *testing.T) {
	tests := []struct {
		name      string
		date      string
		setupMock func(repo *availabilityMocks.MockAvailability, redis *cacheMocks.MockRedisCache)
		wantSlots int
		wantErr   bool
	}{
		{
			name: "cache miss reads the store",
			date: "2026-03-14",
			setupMock: func(repo *availabilityMocks.MockAvailability, redis *cacheMocks.MockRedisCache) {
				redis.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss"))
				repo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					Return([]model.Availability{
						{ID: "2026-03-14T09:00", SlotDate: "2026-03-14", SlotTime: "09:00"},
						{ID: "2026-03-14T13:00", SlotDate: "2026-03-14", SlotTime: "13:00", IsBooked: true, Version: 1},
					}, nil)
				redis.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), 3600).Return(nil).AnyTimes()
			},
			wantSlots: 2,
		},
		{
			name: "cache hit skips the store",
			date: "2026-03-14",
			setupMock: func(_ *availabilityMocks.MockAvailability, redis *cacheMocks.MockRedisCache) {
				redis.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
			},
		},
		{
			name:      "invalid date",
			date:      "tomorrow",
			setupMock: func(*availabilityMocks.MockAvailability, *cacheMocks.MockRedisCache) {},
			wantErr:   true,
		},
		{
			name: "store failure",
			date: "2026-03-14",
			setupMock: func(repo *availabilityMocks.MockAvailability, redis *cacheMocks.MockRedisCache) {
				redis.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss"))
				repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, redis, svc := newService(t)
			tt.setupMock(repo, redis)

			res, err := svc.GetByDate(context.Background(), tt.date)

			time.Sleep(10 * time.Millisecond)

			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Len(t, res.Slots, tt.wantSlots)
		})
	}
}
