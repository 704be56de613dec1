package middleware

import (
	"errors"
	"net/http"

	"github.com/gatherly/gatherly/internal/app/models/dto"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	"github.com/gatherly/gatherly/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	targets []error
	status  int
	code    dto.ErrorCode
	message string
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{[]error{apperrors.ErrInvalidCredentials}, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"},
	{[]error{apperrors.ErrTokenExpired}, http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"},
	{[]error{apperrors.ErrTokenNotFound}, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound, "Token not found"},
	{[]error{apperrors.ErrTokenInvalid, apperrors.ErrTokenRevoked}, http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"},
	{[]error{apperrors.ErrUnauthenticated}, http.StatusUnauthorized, dto.ErrorCodeUnauthorized, "Authentication required"},
	{[]error{apperrors.ErrAccountDisabled}, http.StatusForbidden, dto.ErrorCodeForbidden, "Account disabled"},
	{[]error{apperrors.ErrPermissionDenied}, http.StatusForbidden, dto.ErrorCodeForbidden, "Permission denied"},
	{[]error{
		apperrors.ErrResourceNotFound, apperrors.ErrUserNotFound, apperrors.ErrProfileNotFound,
		apperrors.ErrEventNotFound, apperrors.ErrRSVPNotFound, apperrors.ErrAnnouncementNotFound,
		apperrors.ErrNotificationNotFound,
	}, http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"},
	{[]error{apperrors.ErrValidationFailed}, http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"},
	{[]error{apperrors.ErrBadRequest, apperrors.ErrInvalidPasswordResetToken, apperrors.ErrPasswordResetTokenUsed}, http.StatusBadRequest, dto.ErrorCodeBadRequest, "Bad request"},
	{[]error{
		apperrors.ErrResourceAlreadyExists, apperrors.ErrRSVPAlreadyExists,
		apperrors.ErrEmailAlreadyExists, apperrors.ErrUsernameAlreadyExists,
	}, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"},
	{[]error{apperrors.ErrConflict}, http.StatusConflict, dto.ErrorCodeConflict, "Conflict"},
}

// HandleAPIError writes the error response matching err. Unknown errors become 500 and
// are logged.
func HandleAPIError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if !apperrors.Is(err, m.targets[0], m.targets[1:]...) {
			continue
		}
		detail := dto.NewErrorDetail(m.code, m.message)

		var ce *apperrors.CustomError
		if errors.As(err, &ce) {
			if ce.Message != "" {
				detail.Message = ce.Message
			}
			if len(ce.Details) > 0 {
				detail.WithDetails(ce.Details)
				if len(ce.Details) == 1 {
					for field := range ce.Details {
						detail.WithField(field)
					}
				}
			}
		} else {
			detail.WithDetails(err.Error())
		}

		c.AbortWithStatusJSON(m.status, dto.NewErrorResponse(detail))
		return
	}

	logger.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("Unhandled API error")
	c.AbortWithStatusJSON(http.StatusInternalServerError,
		dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error")))
}
