package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appAuth "github.com/gatherly/gatherly/internal/app/auth"
	appControllers "github.com/gatherly/gatherly/internal/app/controllers"
	appMigrations "github.com/gatherly/gatherly/internal/app/migrations"
	appRepos "github.com/gatherly/gatherly/internal/app/repositories"
	appRoutes "github.com/gatherly/gatherly/internal/app/routes"
	appServices "github.com/gatherly/gatherly/internal/app/services"
	"github.com/gatherly/gatherly/internal/config"
	"github.com/gatherly/gatherly/internal/db"
	appMiddleware "github.com/gatherly/gatherly/internal/middleware"
	pkgAuth "github.com/gatherly/gatherly/internal/pkg/auth"
	"github.com/gatherly/gatherly/internal/pkg/email"
	"github.com/gatherly/gatherly/internal/pkg/filestorage"
	"github.com/gatherly/gatherly/internal/pkg/helpers"
	"github.com/gatherly/gatherly/internal/pkg/logger"
	"github.com/gatherly/gatherly/internal/pkg/pubsub"
	"github.com/gatherly/gatherly/internal/pkg/websocket"
	"github.com/gatherly/gatherly/internal/seed"
)

// UploadsURLPrefix is where stored files are served from.
const UploadsURLPrefix = "/uploads"

var pictureExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos        *appRepos.Repositories
	JWTService   *pkgAuth.JWTService
	AuthzService *appAuth.AuthorizationService
	FileStorage  *filestorage.LocalStorage
	Mailer       email.EmailService

	Hub         *websocket.Hub
	RedisClient *redis.Client
	Subscriber  *pubsub.Subscriber
	Notifier    *appServices.ChangeNotifier

	AuthService         *appServices.AuthService
	EventQueryService   *appServices.EventQueryService
	EventService        *appServices.EventService
	RSVPService         *appServices.RSVPService
	AnnouncementService *appServices.AnnouncementService
	NotificationService *appServices.NotificationService
	ProfileService      *appServices.ProfileService

	AuthController         *appControllers.AuthController
	EventController        *appControllers.EventController
	RSVPController         *appControllers.RSVPController
	AnnouncementController *appControllers.AnnouncementController
	NotificationController *appControllers.NotificationController
	ProfileController      *appControllers.ProfileController
	AuthMiddleware         *appMiddleware.AuthMiddleware

	Logger zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig(filepath.Join("configs", "config.yaml"))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logger.Configure(logger.Config{
		Level:  cfg.Logging.Level,
		Pretty: strings.EqualFold(cfg.Logging.Format, "text"),
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and seeds the
// admin account.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	migrator := appMigrations.NewMigrator(dbPool, logger.Component("migrations"))
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		dbPool.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	admin := seed.Admin{
		Username: cfg.App.AdminUsername,
		Email:    cfg.App.AdminEmail,
		Password: cfg.App.AdminPassword,
	}
	if err := seed.CreateDefaultData(ctx, appRepos.NewUserRepository(dbPool), admin, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.App.UploadDir, UploadsURLPrefix, pictureExtensions...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.UserRepository, deps.Repos.ProfileRepository)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.Mailer = email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
		BaseURL:   cfg.App.BaseURL,
		Timeout:   helpers.ParseDuration(cfg.SMTP.Timeout, email.DefaultTimeout),
	}, logger.Component("email"))

	deps.Hub = websocket.NewHub(logger.Component("websocket"))
	broadcaster, err := buildBroadcaster(ctx, cfg, deps)
	if err != nil {
		return nil, err
	}

	deps.Notifier = appServices.NewChangeNotifier(
		deps.Repos.RSVPRepository,
		deps.Repos.NotificationRepository,
		deps.Mailer,
		broadcaster,
		logger.Component("notifier"),
	)

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.TokenRepository,
		deps.Repos.PasswordResetTokenRepository,
		deps.JWTService,
		deps.Mailer,
		helpers.ParseDuration(cfg.App.ResetTokenTTL, appServices.DefaultResetTokenTTL),
		logger.Component("auth"),
	)
	deps.EventQueryService = appServices.NewEventQueryService(deps.Repos.EventRepository, logger.Component("event_query"))
	deps.EventService = appServices.NewEventService(deps.Repos.EventRepository, deps.Notifier, logger.Component("events"))
	deps.RSVPService = appServices.NewRSVPService(deps.Repos.RSVPRepository, logger.Component("rsvps"))
	deps.AnnouncementService = appServices.NewAnnouncementService(
		deps.Repos.AnnouncementRepository,
		deps.Repos.EventRepository,
		deps.Notifier,
		logger.Component("announcements"),
	)
	deps.NotificationService = appServices.NewNotificationService(deps.Repos.NotificationRepository, logger.Component("notifications"))
	deps.ProfileService = appServices.NewProfileService(
		deps.Repos.ProfileRepository,
		deps.Repos.UserRepository,
		deps.FileStorage,
		logger.Component("profiles"),
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	deps.AuthController = appControllers.NewAuthController(
		deps.AuthService,
		appControllers.CookieConfig{Domain: cfg.App.CookieDomain, Secure: cfg.App.CookieSecure},
		lgr,
	)
	deps.EventController = appControllers.NewEventController(deps.EventQueryService, deps.EventService, deps.AuthzService, lgr)
	deps.RSVPController = appControllers.NewRSVPController(deps.RSVPService, deps.AuthzService, lgr)
	deps.AnnouncementController = appControllers.NewAnnouncementController(deps.AnnouncementService, deps.AuthzService, lgr)
	deps.NotificationController = appControllers.NewNotificationController(
		deps.NotificationService,
		websocket.NewHandler(deps.Hub, logger.Component("websocket")),
		deps.AuthzService,
		lgr,
	)
	deps.ProfileController = appControllers.NewProfileController(deps.ProfileService, deps.AuthzService, lgr)

	return deps, nil
}

// buildBroadcaster fans pushes out over redis when enabled, so every instance's hub
// receives them; otherwise pushes go straight to the local hub.
func buildBroadcaster(ctx context.Context, cfg *config.Config, deps *Dependencies) (appServices.Broadcaster, error) {
	if !cfg.Redis.Enabled {
		deps.Logger.Info().Msg("Redis disabled, notification pushes stay in-process")
		return pubsub.NewLocalBroadcaster(deps.Hub), nil
	}

	client, err := pubsub.NewRedisClient(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis: %w", err)
	}
	deps.RedisClient = client
	deps.Subscriber = pubsub.NewSubscriber(client, cfg.Redis.Channel, deps.Hub, logger.Component("pubsub"))
	return pubsub.NewRedisBroadcaster(client, cfg.Redis.Channel), nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.EqualFold(cfg.Server.Mode, "production") {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestID(),
		appMiddleware.RequestLogger(),
		appMiddleware.CORS(cfg.CORS.AllowedOrigins, helpers.ParseDuration(cfg.CORS.MaxAge, 12*time.Hour)),
	)

	appRoutes.SetupSwagger(router)

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.EventController,
		deps.RSVPController,
		deps.AnnouncementController,
		deps.NotificationController,
		deps.ProfileController,
		deps.AuthMiddleware,
	)

	router.Static(UploadsURLPrefix, cfg.App.UploadDir)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
