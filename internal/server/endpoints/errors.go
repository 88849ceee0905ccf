package endpoints

import (
	"context"
	"errors"
	"net/http"

	"github.com/jackzampolin/fireform/internal/extract"
	"github.com/jackzampolin/fireform/internal/fill"
	"github.com/jackzampolin/fireform/internal/form"
	"github.com/jackzampolin/fireform/internal/render"
	"github.com/jackzampolin/fireform/internal/templates"
)

// statusFor maps a service error to an HTTP status.
func statusFor(err error) int {
	var fieldErr *extract.FieldError
	switch {
	case errors.Is(err, extract.ErrInvalidInput),
		errors.Is(err, extract.ErrDuplicateField),
		errors.Is(err, templates.ErrInvalid),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, fill.ErrTemplateNotFound),
		errors.Is(err, templates.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, form.ErrCountMismatch),
		render.IsCompileError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &fieldErr):
		// The inference service failed on one field.
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}
