package service

import (
	"braidbook/config"
	"braidbook/infras/otel"
	"braidbook/infras/s3"
	"braidbook/internal/domains/gallery/model"
	"braidbook/internal/domains/gallery/model/dto"
	"braidbook/internal/domains/gallery/repository"
	"braidbook/shared"
	"braidbook/shared/cache"
	"braidbook/shared/constant"
	gDto "braidbook/shared/dto"
	"braidbook/shared/failure"
	"braidbook/shared/timezone"
	"braidbook/shared/validator"
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	cacheGetAllGallery = "gallery:get_all"
	sectionAll         = "all"
)

var unsafeSlugChars = regexp.MustCompile(`[^a-z0-9-]`)

type Gallery interface {
	List(ctx context.Context, section string) (dto.GetImagesResponse, error)
	Upload(ctx context.Context, req dto.UploadImageRequest) (dto.UploadImageResponse, error)
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo  repository.Gallery
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
	s3    s3.S3
}

func New(repo repository.Gallery, cfg *config.Config, cache cache.RedisCache, otel otel.Otel, s3 s3.S3) Gallery {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
		s3:    s3,
	}
}

// List returns the newest images first. An unknown or empty section lists every section.
func (s *serviceImpl) List(ctx context.Context, section string) (res dto.GetImagesResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".gallery.List")
	defer scope.End()
	defer scope.TraceIfError(&err)

	filter := gDto.FilterGroup{}
	keyPart := sectionAll

	if section == model.SectionSignature || section == model.SectionPortfolio {
		filter = shared.FilterByID(section, model.FieldSection, model.TableName)
		keyPart = section
	}

	cacheKey := shared.BuildCacheKey(cacheGetAllGallery, keyPart)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for gallery")

		return res, nil
	}

	params := gDto.QueryParams{
		SortBy:  model.TableName + "." + constant.FieldCreatedAt,
		SortDir: gDto.SortDirDesc,
	}

	images, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get gallery images")

		return res, fmt.Errorf("failed to get gallery images: %w", err)
	}

	res.FromModels(images)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save gallery to cache")
		}
	}()

	return res, nil
}

// Upload stores the image under a slug-and-timestamp name and records it. The object is removed
// again when the row cannot be written.
func (s *serviceImpl) Upload(ctx context.Context, req dto.UploadImageRequest) (res dto.UploadImageResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".gallery.Upload")
	defer scope.End()
	defer scope.TraceIfError(&err)

	req.Normalize()

	if err = validator.ValidateStruct(&req); err != nil {
		return res, err
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	fileName := objectName(req.ServiceSlug, req.Image.Filename)
	contentType := req.Image.Header.Get(constant.RequestHeaderContentType)

	url, err := s.s3.Upload(ctx, model.EntityName, fileName, contentType, req.ImageFile)
	if err != nil {
		log.Error().Err(err).Msg("failed to upload image to S3")

		return res, fmt.Errorf("failed to upload image: %w", err)
	}

	if err = s.repo.Insert(ctx, req.ToModel(url, user)); err != nil {
		if delErr := s.s3.Delete(ctx, path.Join(model.EntityName, fileName)); delErr != nil {
			log.Error().Err(delErr).Str("fileName", fileName).Msg("failed to remove orphaned image")
		}

		return res, fmt.Errorf("failed to save gallery image: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllGallery)
	}()

	res.URL = url
	res.Section = req.Section
	res.FileName = fileName

	return res, nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".gallery.Delete")
	defer scope.End()
	defer scope.TraceIfError(&err)

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	image, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get gallery image")

		return fmt.Errorf("failed to get gallery image: %w", err)
	}

	if image.ID == constant.Empty {
		return failure.NotFound("gallery image not found")
	}

	if err = s.repo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete gallery image")

		return fmt.Errorf("failed to delete gallery image: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllGallery)

		key := s.s3.KeyFromURL(image.ImageURL)
		if key == constant.Empty {
			log.Warn().Str("url", image.ImageURL).Msg("image is not stored in this bucket, skipping object delete")

			return
		}

		if err := s.s3.Delete(c, key); err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to delete image from S3")
		}
	}()

	return nil
}

// objectName builds "<slug>-<unix millis>.<ext>" so repeated uploads never overwrite each other.
func objectName(slug, original string) string {
	base := unsafeSlugChars.ReplaceAllString(strings.ToLower(slug), "-")
	name := fmt.Sprintf("%s-%d", base, timezone.Now().UnixMilli())

	if ext := path.Ext(original); ext != "" {
		name += ext
	}

	return name
}
