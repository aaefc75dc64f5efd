package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/mbfrancisco/skportal/docs"
	"github.com/mbfrancisco/skportal/internal/attendance"
	"github.com/mbfrancisco/skportal/internal/config"
	"github.com/mbfrancisco/skportal/internal/database"
	"github.com/mbfrancisco/skportal/internal/event"
	"github.com/mbfrancisco/skportal/internal/notification"
	"github.com/mbfrancisco/skportal/internal/registration"
	"github.com/mbfrancisco/skportal/internal/stats"
	mw "github.com/mbfrancisco/skportal/pkg/middleware"
)

// @title        SK Portal Event API
// @version      1.0
// @description  Event registration, approval and attendance service for the barangay youth module
// @BasePath     /api/v1
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Connected to database successfully")

	// Notification feature
	notificationRepo := notification.NewRepository(db)
	notificationService := notification.NewService(notificationRepo)
	notificationHandler := notification.NewHandler(notificationService)

	// Event feature
	eventRepo := event.NewRepository(db)
	eventService := event.NewService(eventRepo)
	eventHandler := event.NewHandler(eventService)

	// Registration feature (approval outcomes notify residents)
	registrationRepo := registration.NewRepository(db)
	registrationService := registration.NewService(registrationRepo, notificationService)
	registrationHandler := registration.NewHandler(registrationService)

	// Attendance feature
	attendanceRepo := attendance.NewRepository(db)
	attendanceService := attendance.NewService(attendanceRepo)
	attendanceHandler := attendance.NewHandler(attendanceService)

	// Statistics feature (read-only rollups)
	statsRepo := stats.NewRepository(db)
	statsService := stats.NewService(statsRepo)
	statsHandler := stats.NewHandler(statsService)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.IdentityMiddleware)

		// Mount feature routers
		r.Mount("/events", eventHandler.Routes())
		r.Mount("/registrations", registrationHandler.Routes())
		r.Mount("/attendance", attendanceHandler.Routes())
		r.Mount("/stats", statsHandler.Routes())
		r.Mount("/notifications", notificationHandler.Routes())
	})

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
