package controllers

import (
	"net/http"

	"github.com/gatherly/gatherly/internal/app/models/dto"
	"github.com/gatherly/gatherly/internal/app/services"
	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ProfileController serves user profiles
type ProfileController struct {
	profileService *services.ProfileService
	identities     IdentityResolver
	logger         zerolog.Logger
}

func NewProfileController(profileService *services.ProfileService, identities IdentityResolver, logger zerolog.Logger) *ProfileController {
	return &ProfileController{profileService: profileService, identities: identities, logger: logger}
}

// GetMyProfile godoc
// @Summary Get my profile
// @Tags profiles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Router /profiles/me [get]
func (c *ProfileController) GetMyProfile(ctx *gin.Context) {
	identity, ok := resolveIdentity(ctx, c.identities)
	if !ok {
		return
	}
	p, err := c.profileService.GetMyProfile(ctx.Request.Context(), identity)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewProfileResponse(p)))
}

// UpdateMyProfile godoc
// @Summary Update my profile
// @Description Changes opt-out, about me and picture URL. isOrganizer is ignored unless the caller is a superuser.
// @Tags profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Changed fields"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Router /profiles/me [patch]
func (c *ProfileController) UpdateMyProfile(ctx *gin.Context) {
	var req dto.UpdateProfileRequest
	if !bindJSON(ctx, &req) {
		return
	}
	identity, ok := resolveIdentity(ctx, c.identities)
	if !ok {
		return
	}
	p, err := c.profileService.UpdateMyProfile(ctx.Request.Context(), identity, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewProfileResponse(p)))
}

// UploadPicture godoc
// @Summary Upload my profile picture
// @Tags profiles
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param picture formData file true "Image (jpg, jpeg, png, gif, webp)"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Failure 400 {object} dto.ErrorResponse "Missing or unsupported file"
// @Router /profiles/me/picture [post]
func (c *ProfileController) UploadPicture(ctx *gin.Context) {
	file, err := ctx.FormFile("picture")
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("picture", "file is required"))
		return
	}
	identity, ok := resolveIdentity(ctx, c.identities)
	if !ok {
		return
	}
	p, err := c.profileService.UploadPicture(ctx.Request.Context(), identity, file)
	if err != nil {
		c.logger.Warn().Err(err).Int64("userId", identity.UserID).Msg("Profile picture upload failed")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewProfileResponse(p)))
}

// GetProfile godoc
// @Summary Get a user's profile
// @Tags profiles
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /profiles/{id} [get]
func (c *ProfileController) GetProfile(ctx *gin.Context) {
	userID, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	p, err := c.profileService.GetProfile(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewProfileResponse(p)))
}

// UpdateProfile godoc
// @Summary Update any profile
// @Description Superusers only.
// @Tags profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateProfileRequest true "Changed fields"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Failure 403 {object} dto.ErrorResponse "Not a superuser"
// @Router /profiles/{id} [patch]
func (c *ProfileController) UpdateProfile(ctx *gin.Context) {
	userID, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateProfileRequest
	if !bindJSON(ctx, &req) {
		return
	}
	identity, ok := resolveIdentity(ctx, c.identities)
	if !ok {
		return
	}
	p, err := c.profileService.UpdateProfile(ctx.Request.Context(), identity, userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewProfileResponse(p)))
}

// SetOrganizer godoc
// @Summary Grant or revoke organizer status
// @Description Superusers only.
// @Tags profiles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.SetOrganizerRequest true "Organizer flag"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Failure 403 {object} dto.ErrorResponse "Not a superuser"
// @Router /profiles/{id}/organizer [post]
func (c *ProfileController) SetOrganizer(ctx *gin.Context) {
	userID, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.SetOrganizerRequest
	if !bindJSON(ctx, &req) {
		return
	}
	identity, ok := resolveIdentity(ctx, c.identities)
	if !ok {
		return
	}
	p, err := c.profileService.SetOrganizer(ctx.Request.Context(), identity, userID, *req.IsOrganizer)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewProfileResponse(p)))
}
