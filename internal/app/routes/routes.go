package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatherly/gatherly/internal/app/controllers"
	"github.com/gatherly/gatherly/internal/app/models/dto"
	"github.com/gatherly/gatherly/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	rsvpController *controllers.RSVPController,
	announcementController *controllers.AnnouncementController,
	notificationController *controllers.NotificationController,
	profileController *controllers.ProfileController,
	authMiddleware *middleware.AuthMiddleware,
) {
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/signup", authController.Signup)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.RefreshToken)
		auth.POST("/password/reset", authController.RequestPasswordReset)
		auth.POST("/password/reset/confirm", authController.ConfirmPasswordReset)
	}

	// --- Read routes: anonymous allowed, identity attached when a token is present ---
	public := v1.Group("")
	public.Use(authMiddleware.OptionalAuth())
	{
		public.GET("/events", eventController.ListEvents)
		public.GET("/events/:id", eventController.GetEvent)

		public.GET("/rsvps", rsvpController.ListRSVPs)
		public.GET("/rsvps/:id", rsvpController.GetRSVP)

		public.GET("/announcements", announcementController.ListAnnouncements)
		public.GET("/announcements/:id", announcementController.GetAnnouncement)

		public.GET("/profiles/:id", profileController.GetProfile)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	authenticated.POST("/auth/logout", authController.Logout)

	events := authenticated.Group("/events")
	{
		events.POST("", eventController.CreateEvent)
		events.PUT("/:id", eventController.UpdateEvent)
		events.PATCH("/:id", eventController.UpdateEvent)
		events.DELETE("/:id", eventController.DeleteEvent)
	}

	rsvps := authenticated.Group("/rsvps")
	{
		rsvps.POST("", rsvpController.CreateRSVP)
		rsvps.PATCH("/:id", rsvpController.UpdateRSVP)
		rsvps.DELETE("/:id", rsvpController.DeleteRSVP)
	}

	announcements := authenticated.Group("/announcements")
	{
		announcements.POST("", announcementController.CreateAnnouncement)
		announcements.DELETE("/:id", announcementController.DeleteAnnouncement)
	}

	notifications := authenticated.Group("/notifications")
	{
		notifications.GET("", notificationController.ListNotifications)
		notifications.GET("/ws", notificationController.Stream)
		notifications.GET("/:id", notificationController.GetNotification)
		notifications.POST("/:id/read", notificationController.MarkRead)
	}

	profiles := authenticated.Group("/profiles")
	{
		profiles.GET("/me", profileController.GetMyProfile)
		profiles.PATCH("/me", profileController.UpdateMyProfile)
		profiles.POST("/me/picture", profileController.UploadPicture)
		profiles.PATCH("/:id", profileController.UpdateProfile)
		profiles.POST("/:id/organizer", profileController.SetOrganizer)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "UP"}))
	})
}
