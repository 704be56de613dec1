package controllers

import (
	"net/http"

	"github.com/gatherly/gatherly/internal/app/models/dto"
	"github.com/gatherly/gatherly/internal/app/services"
	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// EventController handles event listing and management
type EventController struct {
	queryService *services.EventQueryService
	eventService *services.EventService
	identities   IdentityResolver
	logger       zerolog.Logger
}

func NewEventController(
	queryService *services.EventQueryService,
	eventService *services.EventService,
	identities IdentityResolver,
	logger zerolog.Logger,
) *EventController {
	return &EventController{
		queryService: queryService,
		eventService: eventService,
		identities:   identities,
		logger:       logger,
	}
}

// ListEvents godoc
// @Summary List events
// @Description Lists events with RSVP counts. Supports text search, date bounds, ownership and RSVP filters, and proximity search.
// @Tags events
// @Produce json
// @Param q query string false "Case-insensitive text search"
// @Param date_from query string false "Earliest start time (ISO-8601)"
// @Param date_to query string false "Latest start time (ISO-8601)"
// @Param mine query string false "Only events created by the caller (1 or true)"
// @Param created_by query int false "Only events created by this user"
// @Param rsvp query string false "Only events the caller RSVPed with this status" Enums(going, maybe, not_going)
// @Param lat query number false "Latitude of the search point"
// @Param lon query number false "Longitude of the search point"
// @Param radius_km query number false "Search radius in km (default 25)"
// @Success 200 {object} dto.APIResponse{data=[]dto.EventResponse}
// @Failure 400 {object} dto.ErrorResponse "Malformed filter"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /events [get]
func (c *EventController) ListEvents(ctx *gin.Context) {
	filter, err := services.ParseEventFilter(ctx.Request.URL.Query())
	if err != nil {
		c.logger.Debug().Err(err).Str("query", ctx.Request.URL.RawQuery).Msg("Rejected event filter")
		middleware.HandleAPIError(ctx, err)
		return
	}

	identity, ok := resolveIdentity(ctx, c.identities)
	if !ok {
		return
	}

	events, err := c.queryService.ListEvents(ctx.Request.Context(), identity, filter)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to list events")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewEventListResponse(events)))
}

// GetEvent godoc
// @Summary Get an event
// @Tags events
// @Produce json
// @Param id path int true "Event ID"
// @Success 200 {object} dto.APIResponse{data=dto.EventResponse}
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{id} [get]
func (c *EventController) GetEvent(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	event, err := c.eventService.GetEvent(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewEventResponse(event)))
}

// CreateEvent godoc
// @Summary Create an event
// @Description Organizers and superusers only. The map link is derived from coordinates or address when omitted.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateEventRequest true "Event"
// @Success 201 {object} dto.APIResponse{data=dto.EventResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 403 {object} dto.ErrorResponse "Not an organizer"
// @Router /events [post]
func (c *EventController) CreateEvent(ctx *gin.Context) {
	var req dto.CreateEventRequest
	if !bindJSON(ctx, &req) {
		return
	}
	identity, ok := resolveIdentity(ctx, c.identities)
	if !ok {
		return
	}

	event, err := c.eventService.CreateEvent(ctx.Request.Context(), identity, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewEventResponse(event)))
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Owner or staff. Omitted fields keep their value. Going attendees are notified about changed fields.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Param request body dto.UpdateEventRequest true "Changed fields"
// @Success 200 {object} dto.APIResponse{data=dto.EventResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{id} [put]
// @Router /events/{id} [patch]
func (c *EventController) UpdateEvent(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateEventRequest
	if !bindJSON(ctx, &req) {
		return
	}
	identity, ok := resolveIdentity(ctx, c.identities)
	if !ok {
		return
	}

	event, err := c.eventService.UpdateEvent(ctx.Request.Context(), identity, id, &req)
	if err != nil {
		c.logger.Warn().Err(err).Int64("eventId", id).Msg("Event update failed")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewEventResponse(event)))
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Owner or staff. RSVPs, announcements and notifications of the event are removed too.
// @Tags events
// @Security BearerAuth
// @Param id path int true "Event ID"
// @Success 204
// @Failure 403 {object} dto.ErrorResponse "Not the owner"
// @Failure 404 {object} dto.ErrorResponse "Event not found"
// @Router /events/{id} [delete]
func (c *EventController) DeleteEvent(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	identity, ok := resolveIdentity(ctx, c.identities)
	if !ok {
		return
	}
	if err := c.eventService.DeleteEvent(ctx.Request.Context(), identity, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
