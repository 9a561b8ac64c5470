package router

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rifat-dv/meshly/backend/internal/handlers"
	"github.com/rifat-dv/meshly/backend/internal/middleware"
	"github.com/rifat-dv/meshly/backend/internal/models"
	"github.com/rifat-dv/meshly/backend/internal/realtime"
	"github.com/rifat-dv/meshly/backend/internal/repositories"
	"github.com/rifat-dv/meshly/backend/internal/services"
	"github.com/rifat-dv/meshly/backend/pkg/config"
	"github.com/rifat-dv/meshly/backend/pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	logger.Log.Info("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, cfg *config.Config, pgdb *gorm.DB, mgClient *mongo.Client, firebaseAuthClient *auth.Client) error {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.FollowRequest{},
		&models.Follow{},
		&models.Block{},
		&models.Notification{},
	)
	if err != nil {
		return err
	}
	logger.Log.Info("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	requestRepo := repositories.NewPostgresFollowRequestRepository(pgdb)
	followRepo := repositories.NewPostgresFollowRepository(pgdb)
	blockRepo := repositories.NewPostgresBlockRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	conversationRepo := repositories.NewMongoConversationRepository(mgClient.Database(cfg.MongoDatabase))

	if err := conversationRepo.EnsureIndexes(context.Background()); err != nil {
		return err
	}
	logger.Log.Info("MongoDB indexes ensured.")

	// --- Realtime hub, owned here and injected downward ---
	hub := realtime.NewHub()

	// --- Services ---
	notificationService := services.NewNotificationService(notificationRepo, userRepo, hub)
	relationshipService := services.NewRelationshipService(requestRepo, followRepo, blockRepo, userRepo, notificationService)
	chatService := services.NewChatService(conversationRepo, blockRepo, userRepo, hub)

	// --- Protected routes ---
	api := e.Group("/api/v1")
	if cfg.AuthMode == "firebase" && firebaseAuthClient != nil {
		api.Use(middleware.FirebaseAuthMiddleware(firebaseAuthClient, userRepo))
		logger.Log.Info("Firebase authentication middleware applied to /api/v1 group.")
	} else {
		api.Use(middleware.JWTAuthMiddleware())
		logger.Log.Info("JWT authentication middleware applied to /api/v1 group.")
	}

	// Relationship routes
	relationshipHandler := handlers.NewRelationshipHandler(relationshipService)
	relationshipHandler.RegisterRelationshipRoutes(api)
	logger.Log.Info("Relationship routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	notificationHandler.RegisterNotificationRoutes(api)
	logger.Log.Info("Notification routes configured.")

	// Chat routes
	chatHandler := handlers.NewChatHandler(chatService)
	chatHandler.RegisterChatRoutes(api)
	logger.Log.Info("Chat routes configured.")

	// Realtime routes
	realtimeHandler := handlers.NewRealtimeHandler(hub)
	realtimeHandler.RegisterRealtimeRoutes(api)
	logger.Log.Info("Realtime routes configured.")

	logger.Log.Info("All routes configured.")
	return nil
}
