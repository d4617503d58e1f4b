package dto

import (
	"braidbook/internal/domains/gallery/model"
	"braidbook/shared/constant"
	gModel "braidbook/shared/model"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
)

type UploadImageRequest struct {
	ServiceSlug string                `json:"service_slug" validate:"required,max=100"`
	Section     string                `json:"section"      validate:"omitempty,oneof=signature portfolio"`
	Image       *multipart.FileHeader `json:"file"         validate:"required,mimetypes=image/png image/jpg image/jpeg image/webp,maxfilesize=10"`
	ImageFile   multipart.File        `json:"-"`
}

func (r *UploadImageRequest) Normalize() {
	r.ServiceSlug = strings.TrimSpace(r.ServiceSlug)
	r.Section = strings.ToLower(strings.TrimSpace(r.Section))

	if r.Section == "" {
		r.Section = model.SectionPortfolio
	}
}

func (r *UploadImageRequest) ToModel(imageURL, user string) model.Image {
	return model.Image{
		ID:          uuid.NewString(),
		ServiceSlug: r.ServiceSlug,
		ImageURL:    imageURL,
		Section:     r.Section,
		Metadata:    gModel.NewMetadata(user),
	}
}

type ImageResponse struct {
	ID          string `json:"id"`
	ServiceSlug string `json:"service_slug"`
	ImageURL    string `json:"image_url"`
	Section     string `json:"section"`
	UploadedAt  string `json:"uploaded_at"`
}

func (r *ImageResponse) FromModel(m model.Image) {
	r.ID = m.ID
	r.ServiceSlug = m.ServiceSlug
	r.ImageURL = m.ImageURL
	r.Section = m.Section
	r.UploadedAt = m.CreatedAt.Format(constant.DateFormat)
}

type GetImagesResponse struct {
	Images []ImageResponse `json:"images"`
}

func (r *GetImagesResponse) FromModels(models []model.Image) {
	r.Images = make([]ImageResponse, len(models))
	for i, m := range models {
		r.Images[i].FromModel(m)
	}
}

type UploadImageResponse struct {
	URL      string `json:"url"`
	Section  string `json:"section"`
	FileName string `json:"file_name"`
}
