package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/simple-cms/pkg/simplecms"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
	Max   int    `json:"max,omitempty"`
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, simplecms.ErrTooManySections):
		return http.StatusUnprocessableEntity, "too_many_sections"
	case errors.Is(err, simplecms.ErrCategoryNotFound):
		return http.StatusNotFound, "category_not_found"
	case errors.Is(err, simplecms.ErrRecordNotFound),
		errors.Is(err, simplecms.ErrSnapshotNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, simplecms.ErrUnknownDocument):
		return http.StatusNotFound, "unknown_document"
	case errors.Is(err, simplecms.ErrDuplicateID):
		return http.StatusConflict, "duplicate_id"
	case errors.Is(err, simplecms.ErrValidation),
		errors.Is(err, simplecms.ErrInvalidSectionType),
		errors.Is(err, simplecms.ErrInvalidKind),
		errors.Is(err, simplecms.ErrSectionInactive):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// writeError maps domain errors to status codes. Storage failures are logged
// and reported without their details.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, msg string, err error) {
	status, code := statusFor(err)
	resp := ErrorResponse{Error: err.Error(), Code: code}

	var verr *simplecms.ValidationError
	if errors.As(err, &verr) {
		resp.Field = verr.Field
	}
	var capErr *simplecms.TooManySectionsError
	if errors.As(err, &capErr) {
		resp.Max = capErr.Max
	}

	if status == http.StatusInternalServerError {
		logger.Error(msg, "method", r.Method, "path", r.URL.Path, "error", err)
		resp.Error = msg
	} else {
		logger.Debug(msg, "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}

func badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{Error: msg, Code: "invalid_request"})
}
