package main

import (
	"context"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/rifat-dv/meshly/backend/internal/router"
	"github.com/rifat-dv/meshly/backend/pkg/config"
	"github.com/rifat-dv/meshly/backend/pkg/firebase"
	"github.com/rifat-dv/meshly/backend/pkg/logger"
	"github.com/rifat-dv/meshly/backend/validators"
)

func main() {
	logger.InitLogger()

	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize databases")
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase only when it is the selected auth boundary
	var firebaseAuthClient *auth.Client
	if cfg.AuthMode == "firebase" {
		firebaseApp, err := firebase.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath)
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to initialize Firebase")
		}
		firebaseAuthClient = firebaseApp.AuthClient
	}

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Validator
	e.Validator = validators.NewValidator()

	// Setup routes and dependencies
	if err := router.SetupRoutes(e, cfg, db.Postgres, db.Mongo, firebaseAuthClient); err != nil {
		logger.Log.WithError(err).Fatal("Failed to set up routes")
	}

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
