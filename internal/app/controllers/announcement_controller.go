package controllers

import (
	"net/http"

	"github.com/gatherly/gatherly/internal/app/models/dto"
	"github.com/gatherly/gatherly/internal/app/services"
	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type AnnouncementController struct {
	announcementService *services.AnnouncementService
	identities          IdentityResolver
	logger              zerolog.Logger
}

func NewAnnouncementController(announcementService *services.AnnouncementService, identities IdentityResolver, logger zerolog.Logger) *AnnouncementController {
	return &AnnouncementController{announcementService: announcementService, identities: identities, logger: logger}
}

// ListAnnouncements godoc
// @Summary List announcements
// @Tags announcements
// @Produce json
// @Param event query int false "Only announcements of this event"
// @Success 200 {object} dto.APIResponse{data=[]models.Announcement}
// @Router /announcements [get]
func (c *AnnouncementController) ListAnnouncements(ctx *gin.Context) {
	eventID, ok := eventQueryParam(ctx)
	if !ok {
		return
	}
	items, err := c.announcementService.ListAnnouncements(ctx.Request.Context(), eventID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(items))
}

// GetAnnouncement godoc
// @Summary Get an announcement
// @Tags announcements
// @Produce json
// @Param id path int true "Announcement ID"
// @Success 200 {object} dto.APIResponse{data=models.Announcement}
// @Failure 404 {object} dto.ErrorResponse "Announcement not found"
// @Router /announcements/{id} [get]
func (c *AnnouncementController) GetAnnouncement(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	a, err := c.announcementService.GetAnnouncement(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(a))
}

// CreateAnnouncement godoc
// @Summary Post an announcement
// @Description Event owner or staff. Going attendees are notified.
// @Tags announcements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateAnnouncementRequest true "Announcement"
// @Success 201 {object} dto.APIResponse{data=models.Announcement}
// @Failure 403 {object} dto.ErrorResponse "Not allowed to announce"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /announcements [post]
func (c *AnnouncementController) CreateAnnouncement(ctx *gin.Context) {
	var req dto.CreateAnnouncementRequest
	if !bindJSON(ctx, &req) {
		return
	}
	identity, ok := resolveIdentity(ctx, c.identities)
	if !ok {
		return
	}
	a, err := c.announcementService.CreateAnnouncement(ctx.Request.Context(), identity, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("announcementId", a.ID).Int64("eventId", a.EventID).Msg("Announcement posted")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(a))
}

// DeleteAnnouncement godoc
// @Summary Delete an announcement
// @Tags announcements
// @Security BearerAuth
// @Param id path int true "Announcement ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse "Not allowed"
// @Router /announcements/{id} [delete]
func (c *AnnouncementController) DeleteAnnouncement(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	identity, ok := resolveIdentity(ctx, c.identities)
	if !ok {
		return
	}
	if err := c.announcementService.DeleteAnnouncement(ctx.Request.Context(), identity, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
