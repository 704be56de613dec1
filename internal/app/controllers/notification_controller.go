package controllers

import (
	"net/http"

	"github.com/gatherly/gatherly/internal/app/models/dto"
	"github.com/gatherly/gatherly/internal/app/services"
	"github.com/gatherly/gatherly/internal/middleware"
	"github.com/gatherly/gatherly/internal/pkg/helpers"
	"github.com/gatherly/gatherly/internal/pkg/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type NotificationController struct {
	notificationService *services.NotificationService
	wsHandler           *websocket.Handler
	identities          IdentityResolver
	logger              zerolog.Logger
}

func NewNotificationController(
	notificationService *services.NotificationService,
	wsHandler *websocket.Handler,
	identities IdentityResolver,
	logger zerolog.Logger,
) *NotificationController {
	return &NotificationController{
		notificationService: notificationService,
		wsHandler:           wsHandler,
		identities:          identities,
		logger:              logger,
	}
}

// ListNotifications godoc
// @Summary List my notifications
// @Description Newest first, with the number of unread notifications.
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (1-based)"
// @Param size query int false "Page size (max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.NotificationListResponse}
// @Router /notifications [get]
func (c *NotificationController) ListNotifications(ctx *gin.Context) {
	identity, ok := resolveIdentity(ctx, c.identities)
	if !ok {
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)
	resp, err := c.notificationService.ListNotifications(ctx.Request.Context(), identity, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}

// GetNotification godoc
// @Summary Get one of my notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} dto.APIResponse{data=models.Notification}
// @Failure 404 {object} dto.ErrorResponse "Notification not found"
// @Router /notifications/{id} [get]
func (c *NotificationController) GetNotification(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	identity, ok := resolveIdentity(ctx, c.identities)
	if !ok {
		return
	}
	n, err := c.notificationService.GetNotification(ctx.Request.Context(), identity, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(n))
}

// MarkRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param id path int true "Notification ID"
// @Success 200 {object} dto.APIResponse{data=models.Notification}
// @Failure 404 {object} dto.ErrorResponse "Notification not found"
// @Router /notifications/{id}/read [post]
func (c *NotificationController) MarkRead(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		return
	}
	identity, ok := resolveIdentity(ctx, c.identities)
	if !ok {
		return
	}
	n, err := c.notificationService.MarkRead(ctx.Request.Context(), identity, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(n))
}

// Stream hands the request to the websocket feed; documented on the handler.
func (c *NotificationController) Stream(ctx *gin.Context) {
	c.wsHandler.HandleConnection(ctx)
}
