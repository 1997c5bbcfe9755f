// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hnvivek/game-management-sub002/internal/api/availability"
	"github.com/hnvivek/game-management-sub002/internal/api/bookings"
	"github.com/hnvivek/game-management-sub002/internal/api/suggestions"
	"github.com/hnvivek/game-management-sub002/internal/api/venues"
	"github.com/hnvivek/game-management-sub002/internal/booking"
	"github.com/hnvivek/game-management-sub002/internal/config"
	"github.com/hnvivek/game-management-sub002/internal/db"
	"github.com/hnvivek/game-management-sub002/internal/ratelimit"
	"github.com/hnvivek/game-management-sub002/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	engine := booking.NewEngine(
		db.NewStore(database),
		booking.WithGraceMinutes(cfg.Booking.GraceMinutes),
	)

	limiter := ratelimit.New(ratelimit.DefaultConfig())
	defer limiter.Close()

	availability.InitHandlers(engine)
	bookings.InitHandlers(engine, database)
	suggestions.InitHandlers(engine, database)
	venues.InitHandlers(database)

	sched, err := scheduler.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	if err := sched.RegisterSweeps(database, cfg.Booking.SweepCron); err != nil {
		log.Fatal().Err(err).Msg("Failed to register sweeps")
	}
	sched.Start()

	server := newServer(cfg, limiter)

	// Setup graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := sched.Stop(); err != nil {
			log.Error().Err(err).Msg("Scheduler shutdown error")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
