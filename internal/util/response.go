package util

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkvault/backend/internal/auth"
	apierrors "github.com/inkvault/backend/internal/errors"
	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/repository"
	"github.com/inkvault/backend/internal/services"
	"github.com/inkvault/backend/internal/storage"
	"go.uber.org/zap"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// RespondWithAPIError sends a structured API error response
func RespondWithAPIError(c *gin.Context, apiErr *apierrors.APIError) {
	if apiErr.Status >= http.StatusInternalServerError {
		logger.For(c.Request.Context()).Error("API error",
			zap.String("code", string(apiErr.Code)),
			zap.String("message", apiErr.Message),
			zap.String("path", c.FullPath()),
			zap.Int("status", apiErr.Status),
		)
	} else if apiErr.Status >= http.StatusBadRequest {
		logger.For(c.Request.Context()).Warn("API error",
			zap.String("code", string(apiErr.Code)),
			zap.String("message", apiErr.Message),
			zap.String("field", apiErr.Field),
		)
	}

	c.AbortWithStatusJSON(apiErr.Status, ErrorResponse{
		Code:    string(apiErr.Code),
		Message: apiErr.Message,
		Field:   apiErr.Field,
		Details: apiErr.Details,
	})
}

// RespondWithError maps a service or repository error onto an API error.
// resource names the thing that was looked up for 404 messages.
func RespondWithError(c *gin.Context, err error, resource string) {
	RespondWithAPIError(c, ToAPIError(err, resource))
}

// ToAPIError translates known sentinels. Unknown errors become a 500 whose
// message does not leak the cause.
func ToAPIError(err error, resource string) *apierrors.APIError {
	var apiErr *apierrors.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, auth.ErrUserNotFound):
		return apierrors.NotFound(resource)
	case errors.Is(err, repository.ErrDuplicateKey):
		return apierrors.AlreadyExists(resource)
	case errors.Is(err, repository.ErrVersionConflict):
		return apierrors.Conflict("concurrent update, try again")
	case errors.Is(err, repository.ErrInvalidInput):
		return apierrors.BadRequest("invalid input")
	case errors.Is(err, services.ErrForbidden):
		return apierrors.Forbidden("not allowed")
	case errors.Is(err, services.ErrSelfFollow):
		return apierrors.BadRequest(err.Error())
	case errors.Is(err, auth.ErrUsernameExists):
		return apierrors.ValidationError("username", err.Error()).WithStatus(http.StatusConflict)
	case errors.Is(err, auth.ErrEmailExists):
		return apierrors.ValidationError("email", err.Error()).WithStatus(http.StatusConflict)
	case errors.Is(err, auth.ErrWeakPassword):
		return apierrors.ValidationError("password", err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrSessionExpired):
		return apierrors.Unauthorized(err.Error())
	case errors.Is(err, auth.ErrInvalidCode):
		return apierrors.BadRequest(err.Error())
	case errors.Is(err, storage.ErrTooLarge):
		return apierrors.PayloadTooLarge(storage.MaxVideoSizeBytes)
	case errors.Is(err, storage.ErrUnsupportedType), errors.Is(err, storage.ErrEmptyFile):
		return apierrors.BadRequest(err.Error())
	}
	return apierrors.InternalError("internal server error")
}

// RespondUnauthorized sends a 401 Unauthorized response
func RespondUnauthorized(c *gin.Context, message ...string) {
	msg := "user not authenticated"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, apierrors.Unauthorized(msg))
}

// RespondNotFound sends a 404 Not Found response
func RespondNotFound(c *gin.Context, resource string) {
	RespondWithAPIError(c, apierrors.NotFound(resource))
}

// RespondBadRequest sends a 400 Bad Request response
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithAPIError(c, apierrors.BadRequest(message))
}

// RespondForbidden sends a 403 Forbidden response
func RespondForbidden(c *gin.Context, message ...string) {
	msg := "forbidden"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	RespondWithAPIError(c, apierrors.Forbidden(msg))
}

// RespondValidationError sends a 422 Unprocessable Entity response
func RespondValidationError(c *gin.Context, field, message string) {
	RespondWithAPIError(c, apierrors.ValidationError(field, message))
}
