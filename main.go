package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/BetJor/plantilla-sub000/config"
	"github.com/BetJor/plantilla-sub000/database"
	"github.com/BetJor/plantilla-sub000/handlers"
	"github.com/BetJor/plantilla-sub000/middleware"
	"github.com/BetJor/plantilla-sub000/routes"
	"github.com/BetJor/plantilla-sub000/store"
	"github.com/BetJor/plantilla-sub000/websocket"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it")
	}

	config.LoadConfig()

	// Persistence backend: MongoDB when reachable, in-memory otherwise.
	var blobs store.Blobs
	if err := database.Connect(); err != nil {
		log.Printf("Database unavailable, falling back to in-memory storage: %v", err)
		blobs = store.NewMemoryBlobs()
	} else {
		defer database.Disconnect()
		blobs = store.NewMongoBlobs(database.Client, database.Name)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := handlers.InitServices(ctx, blobs); err != nil {
		cancel()
		log.Fatalf("Failed to initialize services: %v", err)
	}
	cancel()

	go websocket.GetHub().Run()

	sweeper, err := handlers.DeadlineSweep.Start(config.DeadlineSweepCron)
	if err != nil {
		log.Fatalf("Failed to start deadline sweep: %v", err)
	}
	defer sweeper.Stop()

	// Router setup
	router := mux.NewRouter()
	routes.RegisterRoutes(router)

	handler := middleware.CorsMiddleware(
		middleware.LoggingMiddleware(
			middleware.RecoveryMiddleware(router)))

	server := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", config.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
