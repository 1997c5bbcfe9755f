// internal/api/availability/handlers.go
package availability

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hnvivek/game-management-sub002/internal/api/apiutil"
	"github.com/hnvivek/game-management-sub002/internal/booking"
)

const availabilityQueryTimeout = 5 * time.Second

var (
	engine     *booking.Engine
	engineOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(e *booking.Engine) {
	if e == nil {
		return
	}
	engineOnce.Do(func() {
		engine = e
	})
}

// GET /api/v1/courts/{id}/slots?date=YYYY-MM-DD&duration_hours=N
func HandleSlots(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	e := loadEngine()
	if e == nil {
		logger.Error().Msg("Booking engine not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	courtID, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		http.Error(w, "date is required", http.StatusBadRequest)
		return
	}

	durationHours, err := apiutil.ParsePositiveInt64Field(r.URL.Query().Get("duration_hours"), "duration_hours")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), availabilityQueryTimeout)
	defer cancel()

	schedule, err := e.GenerateSlots(ctx, courtID, date, time.Duration(durationHours)*time.Hour)
	if err != nil {
		apiutil.WriteEngineError(w, r, err, "Failed to generate slots")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, schedule); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to write slots response")
	}
}

// GET /api/v1/courts/{id}/availability?start_time=...&end_time=...&format_id=...
func HandleAvailability(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	e := loadEngine()
	if e == nil {
		logger.Error().Msg("Booking engine not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	courtID, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	startTime, err := apiutil.ParseInstant(r.URL.Query().Get("start_time"), "start_time")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	endTime, err := apiutil.ParseInstant(r.URL.Query().Get("end_time"), "end_time")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	window, err := booking.NewTimeWindow(startTime, endTime)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	formatID, err := apiutil.ParseOptionalInt64Field(r.URL.Query().Get("format_id"), "format_id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), availabilityQueryTimeout)
	defer cancel()

	available, err := e.CheckAvailability(ctx, courtID, window, formatID)
	if err != nil {
		apiutil.WriteEngineError(w, r, err, "Failed to check availability")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"court_id":  courtID,
		"available": available,
	}); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to write availability response")
	}
}

func loadEngine() *booking.Engine {
	return engine
}
