package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/hollandpark-shiatsu/bookings/internal/http/handlers"
	httpmw "github.com/hollandpark-shiatsu/bookings/internal/http/middleware"
	"github.com/hollandpark-shiatsu/bookings/internal/platform/mailer"
	"github.com/hollandpark-shiatsu/bookings/internal/repo/postgres"
	"github.com/hollandpark-shiatsu/bookings/internal/repo/ratelimit"
	"github.com/hollandpark-shiatsu/bookings/internal/service"
	"github.com/hollandpark-shiatsu/bookings/pkg/config"
	"github.com/hollandpark-shiatsu/bookings/pkg/database"
	"github.com/hollandpark-shiatsu/bookings/pkg/events"
	"github.com/hollandpark-shiatsu/bookings/pkg/logger"
	mw "github.com/hollandpark-shiatsu/bookings/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid Redis URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	limiter := ratelimit.New(rdb, 60, time.Minute)

	// Repositories
	productsRepo := postgres.NewProductsRepo(pool)
	bookingsRepo := postgres.NewBookingsRepo(pool)
	usersRepo := postgres.NewUsersRepo(pool)
	verifyRepo := postgres.NewVerifyRepo(pool)

	// Services
	bookingService := service.NewBookingService(bookingsRepo, productsRepo, usersRepo, eventBus)

	// Handlers
	productsH := handlers.NewProductsHandler(productsRepo)
	slotsH := handlers.NewSlotsHandler(bookingService)
	bookingsH := handlers.NewBookingsHandler(bookingService)
	authH := handlers.NewAuthHandler(usersRepo, verifyRepo, newMailer(cfg.Email), cfg.Auth, cfg.Server.BaseURL)

	// Router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("api"))
	r.Use(mw.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.Server.BaseURL},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httpmw.CSRF)
	r.Use(mw.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/products", productsH.List)
		r.Get("/slots", slotsH.Week)
		r.With(httpmw.RateLimit(limiter)).Mount("/auth", authH.Routes())

		r.Route("/bookings", func(r chi.Router) {
			r.Use(httpmw.RequireJWT(cfg.Auth.JWTSecret))
			r.Use(httpmw.RateLimit(limiter))
			r.Post("/", bookingsH.Create)
			r.Get("/", bookingsH.List)
			r.Delete("/{id}", bookingsH.Cancel)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down API...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("API shutdown error", "error", err)
		}
	}()

	logger.Info("Starting API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("API server error", "error", err)
		os.Exit(1)
	}
}

// newMailer picks the outbound email transport: MailerSend when a key is
// configured, plain SMTP otherwise, log-only in dev mode.
func newMailer(cfg config.EmailConfig) mailer.Service {
	if cfg.DevMode {
		return mailer.NewDevMailer()
	}
	if cfg.MailerSendKey != "" {
		return mailer.NewMailer(cfg.MailerSendKey, cfg.FromName, cfg.SMTPFrom)
	}
	return mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass)
}
