// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/hnvivek/game-management-sub002/internal/api"
	"github.com/hnvivek/game-management-sub002/internal/api/availability"
	"github.com/hnvivek/game-management-sub002/internal/api/bookings"
	"github.com/hnvivek/game-management-sub002/internal/api/suggestions"
	"github.com/hnvivek/game-management-sub002/internal/api/venues"
	"github.com/hnvivek/game-management-sub002/internal/config"
	"github.com/hnvivek/game-management-sub002/internal/ratelimit"
)

func newServer(cfg *config.Config, limiter *ratelimit.Limiter) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	registerRoutes(router, limiter)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, limiter *ratelimit.Limiter) {
	trustProxy := os.Getenv("TRUST_PROXY") == "true"

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Availability routes
	mux.HandleFunc("GET /api/v1/courts/{id}/slots", availability.HandleSlots)
	mux.HandleFunc("GET /api/v1/courts/{id}/availability", availability.HandleAvailability)

	// Booking routes. Creation goes through the admission limiter so one
	// client cannot hammer the admission path.
	mux.Handle("POST /api/v1/bookings",
		api.WithAdmissionLimit(limiter, trustProxy)(http.HandlerFunc(bookings.HandleBookingCreate)))
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", bookings.HandleBookingCancel)
	mux.HandleFunc("GET /api/v1/bookings", bookings.HandleBookingsList)

	// Suggestion routes
	mux.HandleFunc("POST /api/v1/suggestions", suggestions.HandleSuggestionCreate)
	mux.HandleFunc("GET /api/v1/suggestions/{id}", suggestions.HandleSuggestionGet)
	mux.HandleFunc("POST /api/v1/suggestions/{id}/accept", suggestions.HandleSuggestionAccept)
	mux.HandleFunc("POST /api/v1/suggestions/{id}/withdraw", suggestions.HandleSuggestionWithdraw)

	// Venue administration routes
	mux.HandleFunc("POST /api/v1/venues", venues.HandleVenueCreate)
	mux.HandleFunc("POST /api/v1/venues/{id}/courts", venues.HandleCourtCreate)
	mux.HandleFunc("GET /api/v1/venues/{id}/courts", venues.HandleCourtsList)
	mux.HandleFunc("PUT /api/v1/venues/{id}/hours/{day_of_week}", venues.HandleOperatingHoursUpdate)
	mux.HandleFunc("PUT /api/v1/courts/{id}/formats", venues.HandleCourtFormatUpdate)
}
