package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/hanzi-backend/internal/domain"
	"github.com/heartmarshall/hanzi-backend/pkg/ctxutil"
)

// errorResponse is the JSON body of every non-2xx Unihan response.
type errorResponse struct {
	Error     string              `json:"error"`
	Code      string              `json:"code"`
	Fields    []domain.FieldError `json:"fields,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error:     message,
		Code:      code,
		RequestID: ctxutil.RequestIDFromCtx(r.Context()),
	})
}

// handleError maps domain errors to HTTP status codes. Unexpected errors
// are logged and answered with a generic 500.
func handleError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:     ve.Error(),
			Code:      "VALIDATION",
			Fields:    ve.Errors,
			RequestID: ctxutil.RequestIDFromCtx(r.Context()),
		})

	case errors.Is(err, domain.ErrValidation):
		writeError(w, r, http.StatusBadRequest, "VALIDATION", err.Error())

	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "not found in Unihan data")

	default:
		log.ErrorContext(r.Context(), "unexpected error",
			slog.String("error", err.Error()),
			slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())),
		)
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}
