package response

import (
	"braidbook/shared/constant"
	"braidbook/shared/failure"
	"braidbook/shared/logger"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

type Data[T any] struct {
	Data *T `json:"data,omitempty"`
}

type Error struct {
	Error string `json:"error"`
}

type Message struct {
	Message string `json:"message"`
}

func WithMessage(w http.ResponseWriter, code int, message string) {
	write(w, code, Message{Message: message})
}

// WithJSON wraps payload in the {"data": ...} envelope used by the admin and gallery APIs.
func WithJSON(w http.ResponseWriter, code int, payload any) {
	write(w, code, Data[any]{Data: &payload})
}

// WithBody writes payload as the whole document. Booking intake and webhooks answer this way.
func WithBody(w http.ResponseWriter, code int, payload any) {
	write(w, code, payload)
}

// WithError maps err to its status. Errors that are not a failure.Failure are logged and answered with a
// generic message so driver or SDK text never reaches the client.
func WithError(w http.ResponseWriter, err error) {
	code := failure.GetCode(err)
	message := err.Error()

	if !failure.IsFailure(err) {
		log.Error().Err(err).Int("status", code).Msg("unhandled error")

		message = constant.ResponseErrorInternal
	}

	write(w, code, Error{Error: message})
}

func WithRequestLimitExceeded(w http.ResponseWriter) {
	WithMessage(w, http.StatusTooManyRequests, constant.ResponseErrorRequestLimitExceeded)
}

func WithPreparingShutdown(w http.ResponseWriter) {
	WithMessage(w, http.StatusServiceUnavailable, constant.ResponseErrorPrepareShutdown)
}

func WithUnhealthy(w http.ResponseWriter) {
	WithMessage(w, http.StatusServiceUnavailable, constant.ResponseErrorUnhealthy)
}

func write(w http.ResponseWriter, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		logger.ErrorWithStack(err)
		w.WriteHeader(http.StatusInternalServerError)

		return
	}

	w.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	w.WriteHeader(code)

	if _, err := w.Write(body); err != nil {
		logger.ErrorWithStack(err)
	}
}
