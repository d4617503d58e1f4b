package validator

import (
	"braidbook/config"
	"braidbook/shared/constant"
	"braidbook/shared/failure"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	val "github.com/go-playground/validator/v10"
)

const bytesPerMB = 1 << 20

var validate *val.Validate

func fileHeader(field val.FieldLevel) *multipart.FileHeader {
	switch file := field.Field().Interface().(type) {
	case multipart.FileHeader:
		return &file
	case *multipart.FileHeader:
		return file
	default:
		return nil
	}
}

// mimetypes=image/png image/jpeg checks the part's declared content type.
func mimeTypes(field val.FieldLevel) bool {
	file := fileHeader(field)

	return file != nil && slices.Contains(strings.Fields(field.Param()), file.Header.Get(constant.RequestHeaderContentType))
}

// maxfilesize=10 caps an upload in megabytes.
func maxFileSize(field val.FieldLevel) bool {
	file := fileHeader(field)
	if file == nil {
		return false
	}

	limitMB, err := strconv.ParseFloat(field.Param(), 64)

	return err == nil && float64(file.Size) <= limitMB*bytesPerMB
}

func layout(format string) val.Func {
	return func(field val.FieldLevel) bool {
		_, err := time.Parse(format, field.Field().String())

		return err == nil
	}
}

// dailySlot accepts an "HH:MM" clock that is one of the studio's configured start times.
func dailySlot(cfg *config.Config) val.Func {
	isClock := layout(constant.ClockFormat)

	return func(field val.FieldLevel) bool {
		if !isClock(field) {
			return false
		}

		return len(cfg.Booking.DailySlots) == 0 || slices.Contains(cfg.Booking.DailySlots, field.Field().String())
	}
}

func jsonName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return field.Name
	}

	return name
}

func init() {
	validate = val.New(val.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonName)

	custom := map[string]val.Func{
		"dateonly":    layout(constant.DateOnlyFormat),
		"dailyslot":   dailySlot(config.Get()),
		"mimetypes":   mimeTypes,
		"maxfilesize": maxFileSize,
	}

	for tag, fn := range custom {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("validator: register %s: %v", tag, err))
		}
	}
}

// Decode reads exactly one JSON object from r. Unknown fields and trailing documents are rejected.
func Decode[T any](r io.Reader, data *T) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(data); err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	if decoder.More() {
		return failure.BadRequestFromString("failed to decode request body: unexpected trailing data") //nolint:wrapcheck
	}

	return nil
}

// Validate decodes r into data and checks its validate tags.
func Validate[T any](r io.Reader, data *T) error {
	if err := Decode(r, data); err != nil {
		return err
	}

	return ValidateStruct(data)
}

// ValidateStruct reports the first broken rule as a 400.
func ValidateStruct[T any](data *T) error {
	return asFailure(validate.Struct(data))
}

func ValidateVar(field any, tag string) error {
	return asFailure(validate.Var(field, tag))
}

func asFailure(err error) error {
	if err == nil {
		return nil
	}

	var invalid *val.InvalidValidationError
	if errors.As(err, &invalid) {
		return failure.BadRequestFromString(invalid.Error()) //nolint:wrapcheck
	}

	return failure.BadRequestFromString(message(err)) //nolint:wrapcheck
}
