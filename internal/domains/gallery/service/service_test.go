package service_test

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"braidbook/config"
	"braidbook/infras/otel/mocks"
	s3Mocks "braidbook/infras/s3/mocks"
	galleryMocks "braidbook/internal/domains/gallery/mocks"
	"braidbook/internal/domains/gallery/model"
	"braidbook/internal/domains/gallery/model/dto"
	"braidbook/internal/domains/gallery/service"
	cacheMocks "braidbook/shared/cache/mocks"
	"braidbook/shared/constant"
	gDto "braidbook/shared/dto"
	"braidbook/shared/failure"
	gModel "braidbook/shared/model"
)

type nopFile struct {
	*strings.Reader
}

func (nopFile) Close() error { return nil }

func newService(t *testing.T) (*galleryMocks.MockGallery, *cacheMocks.MockRedisCache, *s3Mocks.MockS3, service.Gallery) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	cfg := &config.Config{}
	cfg.Cache.TTL = 3600

	repo := galleryMocks.NewMockGallery(ctrl)
	redis := cacheMocks.NewMockRedisCache(ctrl)
	storage := s3Mocks.NewMockS3(ctrl)

	return repo, redis, storage, service.New(repo, cfg, redis, mocks.NewOtel(), storage)
}

func TestGalleryService_List(t *testing.T) {
	tests := []struct {
		name       string
		section    string
		setupMock  func(repo *galleryMocks.MockGallery, redis *cacheMocks.MockRedisCache)
		wantImages int
		wantErr    bool
	}{
		{
			name:    "filters by a known section",
			section: model.SectionSignature,
			setupMock: func(repo *galleryMocks.MockGallery, redis *cacheMocks.MockRedisCache) {
				redis.EXPECT().Get(gomock.Any(), "gallery:get_all:signature", gomock.Any()).Return(errors.New("miss"))
				repo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, params gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Image, error) {
						assert.Equal(t, gDto.SortDirDesc, params.SortDir)
						require.Len(t, filter.Filters, 1)
						assert.Equal(t, model.SectionSignature, filter.Filters[0].(gDto.Filter).Value)

						return []model.Image{{ID: "img-1", Section: model.SectionSignature, Metadata: gModel.NewMetadata("admin")}}, nil
					})
				redis.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), 3600).Return(nil).AnyTimes()
			},
			wantImages: 1,
		},
		{
			name:    "unknown section lists everything",
			section: "backstage",
			setupMock: func(repo *galleryMocks.MockGallery, redis *cacheMocks.MockRedisCache) {
				redis.EXPECT().Get(gomock.Any(), "gallery:get_all:all", gomock.Any()).Return(errors.New("miss"))
				repo.EXPECT().
					GetAll(gomock.Any(), gomock.Any(), gDto.FilterGroup{}).
					Return([]model.Image{{ID: "img-1"}, {ID: "img-2"}}, nil)
				redis.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
			wantImages: 2,
		},
		{
			name:    "cache hit",
			section: model.SectionPortfolio,
			setupMock: func(_ *galleryMocks.MockGallery, redis *cacheMocks.MockRedisCache) {
				redis.EXPECT().Get(gomock.Any(), "gallery:get_all:portfolio", gomock.Any()).Return(nil)
			},
		},
		{
			name: "store failure",
			setupMock: func(repo *galleryMocks.MockGallery, redis *cacheMocks.MockRedisCache) {
				redis.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("miss"))
				repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, redis, _, svc := newService(t)
			tt.setupMock(repo, redis)

			res, err := svc.List(context.Background(), tt.section)

			time.Sleep(10 * time.Millisecond)

			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Len(t, res.Images, tt.wantImages)
		})
	}
}

func uploadRequest(contentType string) dto.UploadImageRequest {
	header := textproto.MIMEHeader{}
	header.Set(constant.RequestHeaderContentType, contentType)

	return dto.UploadImageRequest{
		ServiceSlug: "Knotless Braids",
		Image: &multipart.FileHeader{
			Filename: "photo.jpg",
			Header:   header,
			Size:     1024,
		},
		ImageFile: nopFile{strings.NewReader("jpeg-bytes")},
	}
}

func TestGalleryService_Upload(t *testing.T) {
	tests := []struct {
		name      string
		req       dto.UploadImageRequest
		setupMock func(repo *galleryMocks.MockGallery, redis *cacheMocks.MockRedisCache, storage *s3Mocks.MockS3)
		wantCode  int
	}{
		{
			name: "stores the object then the row",
			req:  uploadRequest("image/jpeg"),
			setupMock: func(repo *galleryMocks.MockGallery, redis *cacheMocks.MockRedisCache, storage *s3Mocks.MockS3) {
				storage.EXPECT().
					Upload(gomock.Any(), model.EntityName, gomock.Any(), "image/jpeg", gomock.Any()).
					DoAndReturn(func(_ context.Context, _, fileName, _ string, _ io.Reader) (string, error) {
						assert.True(t, strings.HasPrefix(fileName, "knotless-braids-"))
						assert.True(t, strings.HasSuffix(fileName, ".jpg"))

						return "https://images.example/gallery/" + fileName, nil
					})
				repo.EXPECT().
					Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, image model.Image) error {
						assert.Equal(t, model.SectionPortfolio, image.Section)
						assert.Equal(t, "admin", image.CreatedBy)

						return nil
					})
				redis.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
			},
		},
		{
			name:      "rejects non-image files",
			req:       uploadRequest("application/pdf"),
			setupMock: func(*galleryMocks.MockGallery, *cacheMocks.MockRedisCache, *s3Mocks.MockS3) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "rejects an unknown section",
			req: func() dto.UploadImageRequest {
				req := uploadRequest("image/png")
				req.Section = "backstage"

				return req
			}(),
			setupMock: func(*galleryMocks.MockGallery, *cacheMocks.MockRedisCache, *s3Mocks.MockS3) {},
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "storage failure writes no row",
			req:  uploadRequest("image/png"),
			setupMock: func(_ *galleryMocks.MockGallery, _ *cacheMocks.MockRedisCache, storage *s3Mocks.MockS3) {
				storage.EXPECT().
					Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return("", errors.New("bucket unavailable"))
			},
			wantCode: http.StatusInternalServerError,
		},
		{
			name: "row failure removes the uploaded object",
			req:  uploadRequest("image/png"),
			setupMock: func(repo *galleryMocks.MockGallery, _ *cacheMocks.MockRedisCache, storage *s3Mocks.MockS3) {
				storage.EXPECT().
					Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return("https://images.example/gallery/x.jpg", nil)
				repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
				storage.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, redis, storage, svc := newService(t)
			tt.setupMock(repo, redis, storage)

			ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin")
			res, err := svc.Upload(ctx, tt.req)

			time.Sleep(10 * time.Millisecond)

			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, res.URL)
			assert.Equal(t, model.SectionPortfolio, res.Section)
		})
	}
}

func TestGalleryService_Delete(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(repo *galleryMocks.MockGallery, redis *cacheMocks.MockRedisCache, storage *s3Mocks.MockS3)
		wantCode  int
	}{
		{
			name: "removes the row and the object",
			setupMock: func(repo *galleryMocks.MockGallery, redis *cacheMocks.MockRedisCache, storage *s3Mocks.MockS3) {
				repo.EXPECT().
					Get(gomock.Any(), gomock.Any()).
					Return(model.Image{ID: "img-1", ImageURL: "https://images.example/gallery/x.jpg"}, nil)
				repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)
				redis.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
				storage.EXPECT().KeyFromURL("https://images.example/gallery/x.jpg").Return("gallery/x.jpg").AnyTimes()
				storage.EXPECT().Delete(gomock.Any(), "gallery/x.jpg").Return(nil).AnyTimes()
			},
		},
		{
			name: "unknown image",
			setupMock: func(repo *galleryMocks.MockGallery, _ *cacheMocks.MockRedisCache, _ *s3Mocks.MockS3) {
				repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Image{}, nil)
			},
			wantCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, redis, storage, svc := newService(t)
			tt.setupMock(repo, redis, storage)

			err := svc.Delete(context.Background(), "img-1")

			time.Sleep(10 * time.Millisecond)

			if tt.wantCode != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
		})
	}
}
