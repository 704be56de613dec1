package controllers

import (
	"net/http"

	"github.com/gatherly/gatherly/internal/app/models/dto"
	"github.com/gatherly/gatherly/internal/app/services"
	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type RSVPController struct {
	rsvpService *services.RSVPService
	identities  IdentityResolver
	logger      zerolog.Logger
}

func NewRSVPController(rsvpService *services.RSVPService, identities IdentityResolver, logger zerolog.Logger) *RSVPController {
	return &RSVPController{rsvpService: rsvpService, identities: identities, logger: logger}
}

// ListRSVPs godoc
// @Summary List RSVPs
// @Tags rsvps
// @Produce json
// @Param event query int false "Only RSVPs of this event"
// @Success 200 {object} dto.APIResponse{data=[]models.RSVP}
// @Router /rsvps [get]
func (c *RSVPController) ListRSVPs(ctx *gin.Context) {
	eventID, ok := eventQueryParam(ctx)
	if !ok {
		return
	}
	rsvps, err := c.rsvpService.ListRSVPs(ctx.Request.Context(), eventID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(rsvps))
}

// GetRSVP godoc
// @Summary Get an RSVP
// @Tags rsvps
// @Produce json
// @Param id path int true "RSVP ID"
// @Success 200 {object} dto.APIResponse{data=models.RSVP}
// @Failure 404 {object} dto.ErrorResponse "RSVP not found"
// @Router /rsvps/{id} [get]
func (c *RSVPController) GetRSVP(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	rsvp, err := c.rsvpService.GetRSVP(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(rsvp))
}

// CreateRSVP godoc
// @Summary RSVP to an event
// @Description Records the caller's answer. One RSVP per user and event.
// @Tags rsvps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateRSVPRequest true "RSVP"
// @Success 201 {object} dto.APIResponse{data=models.RSVP}
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Failure 409 {object} dto.ErrorResponse "Already RSVPed"
// @Router /rsvps [post]
func (c *RSVPController) CreateRSVP(ctx *gin.Context) {
	var req dto.CreateRSVPRequest
	if !bindJSON(ctx, &req) {
		return
	}
	identity, ok := resolveIdentity(ctx, c.identities)
	if !ok {
		return
	}
	rsvp, err := c.rsvpService.CreateRSVP(ctx.Request.Context(), identity, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(rsvp))
}

// UpdateRSVP godoc
// @Summary Change an RSVP status
// @Tags rsvps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "RSVP ID"
// @Param request body dto.UpdateRSVPRequest true "New status"
// @Success 200 {object} dto.APIResponse{data=models.RSVP}
// @Failure 403 {object} dto.ErrorResponse "Not your RSVP"
// @Router /rsvps/{id} [patch]
func (c *RSVPController) UpdateRSVP(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateRSVPRequest
	if !bindJSON(ctx, &req) {
		return
	}
	identity, ok := resolveIdentity(ctx, c.identities)
	if !ok {
		return
	}
	rsvp, err := c.rsvpService.UpdateRSVP(ctx.Request.Context(), identity, id, req.Status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(rsvp))
}

// DeleteRSVP godoc
// @Summary Withdraw an RSVP
// @Tags rsvps
// @Security BearerAuth
// @Param id path int true "RSVP ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse "Not your RSVP"
// @Router /rsvps/{id} [delete]
func (c *RSVPController) DeleteRSVP(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	identity, ok := resolveIdentity(ctx, c.identities)
	if !ok {
		return
	}
	if err := c.rsvpService.DeleteRSVP(ctx.Request.Context(), identity, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
