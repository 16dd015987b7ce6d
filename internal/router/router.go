package router

import (
	"fmt"
	"time"

	"github.com/anonto42/inkwell/backend/internal/handlers"
	"github.com/anonto42/inkwell/backend/internal/logger"
	"github.com/anonto42/inkwell/backend/internal/middleware"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/realtime"
	"github.com/anonto42/inkwell/backend/internal/repositories"
	"github.com/anonto42/inkwell/backend/internal/services"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const fanoutTimeout = 30 * time.Second

// Dependencies are the long-lived collaborators the routes are built from.
type Dependencies struct {
	Postgres *gorm.DB
	Articles repositories.ArticleRepository
	Hub      *realtime.Hub
	// Publisher receives inserted notifications. Defaults to Hub; set it to a
	// RedisRelay when several API instances share subscribers.
	Publisher services.Publisher
	// Verifier enables POST /api/auth/firebase-login when non-nil.
	Verifier       handlers.IdentityVerifier
	JWTSecret      string
	AdminTimeout   time.Duration
	AllowedOrigins []string
}

// SetupRoutes migrates the relational schema, wires repositories, services
// and handlers, and registers every route. The returned dispatcher must be
// drained with Wait during shutdown.
func SetupRoutes(e *echo.Echo, deps Dependencies) (*services.Dispatcher, error) {
	if err := deps.Postgres.AutoMigrate(models.Relational()...); err != nil {
		return nil, fmt.Errorf("failed to auto migrate models: %w", err)
	}
	logger.Log.Info("PostgreSQL auto-migrations completed")

	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(deps.Postgres)
	profileRepo := repositories.NewPostgresProfileRepository(deps.Postgres)
	categoryRepo := repositories.NewPostgresCategoryRepository(deps.Postgres)
	commentRepo := repositories.NewPostgresCommentRepository(deps.Postgres)
	likeRepo := repositories.NewPostgresLikeRepository(deps.Postgres)
	notificationRepo := repositories.NewPostgresNotificationRepository(deps.Postgres)

	// --- Services ---
	publisher := deps.Publisher
	if publisher == nil {
		publisher = deps.Hub
	}
	notificationService := services.NewNotificationService(userRepo, deps.Articles, likeRepo, commentRepo, notificationRepo, publisher)
	dispatcher := services.NewDispatcher(notificationService, fanoutTimeout)

	auth := middleware.JWTAuthMiddleware(deps.JWTSecret)
	admin := middleware.AdminOnly(profileRepo, deps.AdminTimeout)

	api := e.Group("/api")

	authHandler := handlers.NewAuthHandler(userRepo, profileRepo, deps.Verifier, deps.JWTSecret, deps.AdminTimeout)
	authHandler.RegisterAuthRoutes(api.Group("/auth"), auth)

	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterUserRoutes(api.Group("/users"), auth)

	articleHandler := handlers.NewArticleHandler(deps.Articles, userRepo, categoryRepo, dispatcher)
	articleHandler.RegisterArticleRoutes(api.Group("/posts"), auth, admin)

	categoryHandler := handlers.NewCategoryHandler(categoryRepo)
	categoryHandler.RegisterCategoryRoutes(api.Group("/categories"), auth, admin)

	commentHandler := handlers.NewCommentHandler(commentRepo, deps.Articles, userRepo, profileRepo, dispatcher, deps.AdminTimeout)
	commentHandler.RegisterCommentRoutes(api.Group("/comments"), auth)

	likeHandler := handlers.NewLikeHandler(likeRepo, deps.Articles, userRepo, dispatcher)
	likeHandler.RegisterLikeRoutes(api.Group("/likes"), auth)

	notificationHandler := handlers.NewNotificationHandler(notificationService, deps.Hub, deps.AllowedOrigins)
	notificationHandler.RegisterNotificationRoutes(api.Group("/notifications", auth))

	logger.Log.Info("All routes configured")
	return dispatcher, nil
}
