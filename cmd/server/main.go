package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"totalfit/training-app/internal/api"
	"totalfit/training-app/internal/config"
	"totalfit/training-app/internal/repository/mongo"
	"totalfit/training-app/internal/service"
	"totalfit/training-app/internal/storage"

	"github.com/gin-gonic/gin"
)

// @title TotalFit Training API
// @version 1.0
// @description Prescription versioning and execution history for athlete training programs.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting training app server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureAthleteIndexes(ctx, appDB.Collection("athletes"))
		mongo.EnsureExerciseIndexes(ctx, appDB.Collection("exercises"))
		mongo.EnsurePlanIndexes(ctx, appDB.Collection("plans"))
		mongo.EnsureSessionIndexes(ctx, appDB.Collection("training_sessions"))
		mongo.EnsureSlotIndexes(ctx, appDB.Collection("prescription_slots"))
		mongo.EnsureExecutionIndexes(ctx, appDB)
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	athleteRepo := mongo.NewMongoAthleteRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	planRepo := mongo.NewMongoPlanRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)
	slotRepo := mongo.NewMongoSlotRepository(appDB)
	executionRepo := mongo.NewMongoExecutionRepository(appDB)
	planOverlays := mongo.NewMongoPlanOverlayRepository(appDB)
	sessionOverlays := mongo.NewMongoSessionOverlayRepository(appDB)
	slotOverlays := mongo.NewMongoSlotOverlayRepository(appDB)
	exerciseOverlays := mongo.NewMongoExerciseOverlayRepository(appDB)
	txRunner := mongo.NewTxRunner(dbClient)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	exerciseService := service.NewExerciseService(exerciseRepo, exerciseOverlays, fileStorage)
	planService := service.NewPlanService(planRepo, sessionRepo, slotRepo, exerciseRepo, athleteRepo, planOverlays, sessionOverlays, slotOverlays, txRunner)
	prescriptionService := service.NewPrescriptionService(sessionRepo, slotRepo, exerciseRepo, sessionOverlays, slotOverlays, exerciseOverlays, txRunner)
	executionService := service.NewExecutionService(executionRepo, slotRepo, sessionRepo, planRepo, exerciseRepo, athleteRepo, slotOverlays, txRunner)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, planService, prescriptionService, executionService, exerciseService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
