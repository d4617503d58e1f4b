package model

import "braidbook/shared/model"

const (
	TableName  = "gallery_images"
	EntityName = "gallery"

	FieldID          = "id"
	FieldServiceSlug = "service_slug"
	FieldImageURL    = "image_url"
	FieldSection     = "section"
)

const (
	SectionSignature = "signature"
	SectionPortfolio = "portfolio"
)

type Image struct {
	ID          string `db:"id"`
	ServiceSlug string `db:"service_slug"`
	ImageURL    string `db:"image_url"`
	Section     string `db:"section"`
	model.Metadata
}
