package serviceutils

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/locvowork/hrms/internal/domain"
	"github.com/locvowork/hrms/internal/logger"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Field   string      `json:"field,omitempty"`
	Message string      `json:"message,omitempty"`
}

// ResponseSuccess writes a successful envelope.
func ResponseSuccess(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, APIResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// ResponseError writes a failed envelope. Server errors are logged and their
// detail is not sent to the client.
func ResponseError(c echo.Context, status int, message string, err error) error {
	resp := APIResponse{Success: false, Message: message}
	if err != nil {
		resp.Error = err.Error()
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			resp.Field = verr.Field
		}
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorLog(c.Request().Context(), "%s: %v", message, err)
		resp.Error = http.StatusText(status)
	}
	return c.JSON(status, resp)
}

// ErrorStatus maps domain errors to HTTP status codes.
func ErrorStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case domain.IsAuthorization(err):
		return http.StatusForbidden
	case domain.IsState(err), domain.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ResponseFromError writes err with the status ErrorStatus picks.
func ResponseFromError(c echo.Context, message string, err error) error {
	return ResponseError(c, ErrorStatus(err), message, err)
}
