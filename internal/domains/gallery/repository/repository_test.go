package repository_test

import (
	"braidbook/infras/otel/mocks"
	"braidbook/internal/domains/gallery/model"
	"braidbook/internal/domains/gallery/repository"
	"braidbook/internal/testutil"
	"braidbook/shared"
	gDto "braidbook/shared/dto"
	sharedModel "braidbook/shared/model"
	gRepo "braidbook/shared/repository"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func image(id, section, slug string) model.Image {
	return model.Image{
		ID:          id,
		ServiceSlug: slug,
		ImageURL:    "https://cdn.example.com/gallery/" + id + ".jpg",
		Section:     section,
		Metadata:    sharedModel.NewMetadata("admin"),
	}
}

func bySection(section string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: model.FieldSection, Operator: gDto.FilterOperatorEq, Value: section, Table: model.TableName},
		},
	}
}

func TestGallery(t *testing.T) {
	repo := repository.New(testutil.NewDB(t), mocks.NewOtel())
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, image("a", model.SectionSignature, "knotless")))
	require.NoError(t, repo.Insert(ctx, image("b", model.SectionPortfolio, "")))
	require.NoError(t, repo.Insert(ctx, image("c", model.SectionPortfolio, "boho")))

	t.Run("list by section", func(t *testing.T) {
		images, err := repo.GetAll(ctx, gDto.QueryParams{SortBy: model.FieldID, SortDir: gDto.SortDirAsc}, bySection(model.SectionPortfolio))
		require.NoError(t, err)
		require.Len(t, images, 2)

		assert.Equal(t, "b", images[0].ID)
		assert.Equal(t, "boho", images[1].ServiceSlug)
		assert.Equal(t, "admin", images[1].CreatedBy)
	})

	t.Run("page", func(t *testing.T) {
		images, err := repo.GetAll(ctx, gDto.QueryParams{SortBy: model.FieldID, SortDir: gDto.SortDirDesc, Page: 2, Limit: 2}, gDto.FilterGroup{})
		require.NoError(t, err)
		require.Len(t, images, 1)
		assert.Equal(t, "a", images[0].ID)
	})

	t.Run("get missing returns zero value", func(t *testing.T) {
		img, err := repo.Get(ctx, shared.FilterByID("nope", model.FieldID, model.TableName))
		require.NoError(t, err)
		assert.Empty(t, img.ID)
	})

	t.Run("delete requires a filter", func(t *testing.T) {
		err := repo.Delete(ctx, gDto.FilterGroup{})
		require.ErrorIs(t, err, gRepo.ErrRequiredFilter)
	})

	t.Run("delete by id", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, shared.FilterByID("a", model.FieldID, model.TableName)))

		img, err := repo.Get(ctx, shared.FilterByID("a", model.FieldID, model.TableName))
		require.NoError(t, err)
		assert.Empty(t, img.ID)

		images, err := repo.GetAll(ctx, gDto.QueryParams{}, bySection(model.SectionSignature))
		require.NoError(t, err)
		assert.Empty(t, images)
	})
}
