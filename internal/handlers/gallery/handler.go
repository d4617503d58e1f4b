package gallery

import (
	"braidbook/infras/otel"
	"braidbook/internal/domains/gallery/model"
	"braidbook/internal/domains/gallery/model/dto"
	"braidbook/internal/domains/gallery/service"
	"braidbook/shared/constant"
	"braidbook/shared/failure"
	"braidbook/transport/http/response"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Gallery
	otel    otel.Otel
}

func New(service service.Gallery, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Get("/gallery", handler.GetImages)
}

func (handler *Handler) AdminRouter(router chi.Router) {
	router.Route("/admin/gallery", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.UploadImage)
		routerGroup.Delete("/{id}", handler.DeleteImage)
	})
}

// GetImages lists gallery images, newest first.
// @Summary List gallery images
// @Tags Gallery
// @Produce json
// @Param section query string false "signature or portfolio"
// @Success 200 {object} response.Data[dto.GetImagesResponse]
// @Failure 500 {object} response.Error
// @Router /v1/gallery [get]
func (handler *Handler) GetImages(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetImages")
	defer scope.End()

	res, err := handler.service.List(ctx, request.URL.Query().Get(model.FieldSection))
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to list gallery images")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusOK, res)
}

// UploadImage stores an image in object storage and records it in the gallery.
// @Summary Upload a gallery image
// @Tags Admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Param service_slug formData string true "Service slug"
// @Param section formData string false "signature or portfolio"
// @Success 201 {object} response.Data[dto.UploadImageResponse]
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/admin/gallery [post]
// @Security BearerAuth
func (handler *Handler) UploadImage(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UploadImage")
	defer scope.End()

	if err := request.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		err = failure.BadRequestFromString("invalid multipart form")

		scope.TraceError(err)
		log.Warn().Err(err).Msg("failed to parse multipart form")

		response.WithError(writer, err)

		return
	}

	file, fileHeader, err := request.FormFile(constant.FormFile)
	if err != nil {
		err = failure.BadRequestFromString("image file is required")

		scope.TraceError(err)
		log.Warn().Err(err).Msg("failed to get file from form")

		response.WithError(writer, err)

		return
	}
	defer file.Close()

	req := dto.UploadImageRequest{
		ServiceSlug: request.FormValue(model.FieldServiceSlug),
		Section:     request.FormValue(model.FieldSection),
		Image:       fileHeader,
		ImageFile:   file,
	}

	res, err := handler.service.Upload(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to upload gallery image")

		response.WithError(writer, err)

		return
	}

	response.WithJSON(writer, http.StatusCreated, res)
}

// @Summary Delete a gallery image
// @Tags Admin
// @Produce json
// @Param id path string true "Image ID"
// @Success 200 {object} response.Message
// @Failure 404 {object} response.Error
// @Router /v1/admin/gallery/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteImage(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteImage")
	defer scope.End()

	if err := handler.service.Delete(ctx, chi.URLParam(request, constant.RequestParamID)); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete gallery image")

		response.WithError(writer, err)

		return
	}

	response.WithMessage(writer, http.StatusOK, "Image deleted successfully")
}
