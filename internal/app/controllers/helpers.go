// Package controllers handles HTTP request handling
package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gatherly/gatherly/internal/app/auth"
	"github.com/gatherly/gatherly/internal/app/models/dto"
	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
)

// IdentityResolver loads the authorization identity of a user id.
type IdentityResolver interface {
	LoadIdentity(ctx context.Context, userID int64) (auth.Identity, error)
}

// resolveIdentity resolves the caller. On failure the error response is written and ok is false.
func resolveIdentity(ctx *gin.Context, resolver IdentityResolver) (auth.Identity, bool) {
	id, err := resolver.LoadIdentity(ctx.Request.Context(), middleware.UserIDFromContext(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return auth.Anonymous, false
	}
	return id, true
}

// idParam parses a positive path id.
func idParam(ctx *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid ID format").
			WithField(name).
			WithDetails("ID must be a positive integer")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// eventQueryParam reads the optional ?event= filter of list endpoints.
func eventQueryParam(ctx *gin.Context) (*int64, bool) {
	raw := ctx.Query("event")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("event", "must be an integer"))
		return nil, false
	}
	return &id, true
}

// bindJSON binds the request body and writes a validation error on failure.
func bindJSON(ctx *gin.Context, req interface{}) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return false
	}
	return true
}
