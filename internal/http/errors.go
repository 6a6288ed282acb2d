package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/target/courtlist-publisher/internal/errors"
)

// statusForCode maps application error codes to HTTP statuses.
var statusForCode = map[apperrors.ErrorCode]int{ //nolint:gochecknoglobals // read-only lookup
	apperrors.ErrCodeValidation:  http.StatusBadRequest,
	apperrors.ErrCodeNotFound:    http.StatusNotFound,
	apperrors.ErrCodeConflict:    http.StatusConflict,
	apperrors.ErrCodeUnavailable: http.StatusServiceUnavailable,
	apperrors.ErrCodeTimeout:     http.StatusGatewayTimeout,
	apperrors.ErrCodeCanceled:    http.StatusServiceUnavailable,
	apperrors.ErrCodeInternal:    http.StatusInternalServerError,
}

// WriteServiceError writes err using its application error code. Errors without a code are
// logged and reported as 500 with a generic message.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := apperrors.GetCode(err)
	if code == "" && errors.Is(err, context.DeadlineExceeded) {
		code = apperrors.ErrCodeTimeout
	}

	status, ok := statusForCode[code]
	if !ok {
		status = http.StatusInternalServerError
		code = apperrors.ErrCodeInternal
	}

	if status >= http.StatusInternalServerError {
		if logger == nil {
			logger = slog.Default()
		}
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err,
		)
	}

	var appErr *apperrors.AppError
	message := http.StatusText(status)
	if errors.As(err, &appErr) && status < http.StatusInternalServerError {
		message = appErr.Message
	}
	WriteJSON(w, status, errorBody{Error: string(code), Message: message, Field: apperrors.GetField(err)})
}
