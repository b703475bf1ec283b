package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"

	"rehab-booking/internal/config"
	"rehab-booking/internal/feed"
	availEdit "rehab-booking/internal/http-server/handlers/availability/edit"
	availGet "rehab-booking/internal/http-server/handlers/availability/get"
	availSave "rehab-booking/internal/http-server/handlers/availability/save"
	bookingCancel "rehab-booking/internal/http-server/handlers/bookings/cancel"
	bookingCreate "rehab-booking/internal/http-server/handlers/bookings/create"
	bookingGet "rehab-booking/internal/http-server/handlers/bookings/get"
	bookingUpdate "rehab-booking/internal/http-server/handlers/bookings/update"
	slotGet "rehab-booking/internal/http-server/handlers/slots/get"
	"rehab-booking/internal/http-server/middleware/identity"
	"rehab-booking/internal/lock"
	svc "rehab-booking/internal/service"
	"rehab-booking/internal/storage/postgres"
	"rehab-booking/pkg/handlers/slogpretty"
	"rehab-booking/pkg/middleware/mwLogger"
	"rehab-booking/pkg/sl"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+identity.HeaderUserID+", "+identity.HeaderRole)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	loc, err := cfg.Booking.TimeLocation()
	if err != nil {
		log.Error("Invalid booking location", sl.Err(err))
		os.Exit(1)
	}

	storage, err := postgres.New(cfg.StoragePath)
	if err != nil {
		log.Error("Failed to init storage", sl.Err(err))
		os.Exit(1)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		log.Error("Failed to migrate storage", sl.Err(err))
		os.Exit(1)
	}

	redisClient, err := lock.Connect(cfg.Redis.Address)
	if err != nil {
		log.Error("Failed to connect to redis", sl.Err(err))
		os.Exit(1)
	}

	locker := lock.NewRedisLock(redisClient)
	changes := feed.NewRedisFeed(redisClient, cfg.Redis.FeedPrefix, log)

	service := svc.NewService(log, storage, locker, changes, svc.Options{
		Location:       loc,
		Durations:      cfg.Booking.Durations,
		LeadTime:       cfg.Booking.LeadTime,
		SlotStep:       cfg.Booking.SlotStep,
		ConfirmTimeout: cfg.Booking.ConfirmTimeout,
		SnapshotMaxAge: cfg.Booking.SnapshotMaxAge,
		LockTTL:        cfg.Redis.LockTTL,
	})

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()

	go func() {
		if err := changes.Watch(watchCtx, feed.TrainerScope("*"), service.Invalidate); err != nil {
			log.Error("Change feed stopped", sl.Err(err))
		}
	}()

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)
	router.Use(identity.New(log))

	// Availability
	router.Get("/trainers/{trainerID}/availability", availGet.New(log, service))
	router.Put("/trainers/{trainerID}/availability", availSave.New(log, service))
	router.Patch("/trainers/{trainerID}/availability", availEdit.New(log, service))

	// Slots
	router.Get("/trainers/{trainerID}/slots", slotGet.New(log, service))

	// Bookings
	router.Get("/bookings", bookingGet.New(log, service))
	router.Get("/bookings/{id}", bookingGet.New(log, service))
	router.Post("/bookings", bookingCreate.New(log, service))
	router.Put("/bookings/{id}", bookingUpdate.New(log, service))
	router.Put("/bookings/{id}/cancel", bookingCancel.New(log, service))

	serv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", serv.Addr))
		if err := serv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	stopWatch()

	if err := storage.Close(); err != nil {
		log.Error("Failed to close storage", sl.Err(err))
	} else {
		log.Info("Storage closed")
	}

	if err := redisClient.Close(); err != nil {
		log.Error("Failed to close redis client", sl.Err(err))
	} else {
		log.Info("Redis client closed")
	}

	log.Info("Shutdown finished, server stopped")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
