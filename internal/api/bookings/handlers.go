// internal/api/bookings/handlers.go
package bookings

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hnvivek/game-management-sub002/internal/api/apiutil"
	"github.com/hnvivek/game-management-sub002/internal/booking"
	appdb "github.com/hnvivek/game-management-sub002/internal/db"
)

const bookingQueryTimeout = 5 * time.Second

var (
	engine   *booking.Engine
	store    *appdb.DB
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(e *booking.Engine, database *appdb.DB) {
	if e == nil || database == nil {
		return
	}
	initOnce.Do(func() {
		engine = e
		store = database
	})
}

type bookingRequest struct {
	CourtID   int64  `json:"court_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	FormatID  *int64 `json:"format_id,omitempty"`
	CreatedBy *int64 `json:"created_by,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// POST /api/v1/bookings
//
// The only call with side effects: admits a court reservation. A lost
// race or full slot surfaces as 409, which the UI shows as "this slot is
// no longer available".
func HandleBookingCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	e := loadEngine()
	if e == nil {
		logger.Error().Msg("Booking engine not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req bookingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	startTime, err := apiutil.ParseInstant(req.StartTime, "start_time")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	endTime, err := apiutil.ParseInstant(req.EndTime, "end_time")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	window, err := booking.NewTimeWindow(startTime, endTime)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	admitted, err := e.Admit(ctx, booking.AdmitRequest{
		CourtID:   req.CourtID,
		Window:    window,
		FormatID:  req.FormatID,
		Source:    booking.SourceBooking,
		CreatedBy: req.CreatedBy,
		Notes:     req.Notes,
	})
	if err != nil {
		if booking.IsConflict(err) {
			logger.Info().
				Int64("court_id", req.CourtID).
				Str("window", window.String()).
				Msg("Booking admission lost to existing occupancy")
		}
		apiutil.WriteEngineError(w, r, err, "Failed to create booking")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, admitted); err != nil {
		logger.Error().Err(err).Int64("occupancy_id", admitted.ID).Msg("Failed to write booking response")
	}
}

// POST /api/v1/bookings/{id}/cancel
func HandleBookingCancel(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	database := loadDB()
	if database == nil {
		logger.Error().Msg("Database not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	occupancyID, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	err = database.RunInTx(ctx, func(txdb *appdb.DB) error {
		occupancy, err := txdb.Queries.GetOccupancyByID(ctx, occupancyID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apiutil.HandlerError{Status: http.StatusNotFound, Message: "Booking not found", Err: err}
			}
			return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to fetch booking", Err: err}
		}
		switch booking.OccupancyStatus(occupancy.Status) {
		case booking.StatusPending, booking.StatusConfirmed:
		default:
			return apiutil.HandlerError{Status: http.StatusConflict, Message: "Booking is not active", Err: nil}
		}

		if _, err := txdb.Queries.UpdateOccupancyStatus(ctx, appdb.UpdateOccupancyStatusParams{
			ID:     occupancyID,
			Status: string(booking.StatusCancelled),
		}); err != nil {
			return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to cancel booking", Err: err}
		}
		return nil
	})
	if err != nil {
		var herr apiutil.HandlerError
		if errors.As(err, &herr) {
			if herr.Status == http.StatusInternalServerError {
				logger.Error().Err(herr.Err).Int64("occupancy_id", occupancyID).Msg(herr.Message)
			}
			http.Error(w, herr.Message, herr.Status)
			return
		}
		logger.Error().Err(err).Int64("occupancy_id", occupancyID).Msg("Failed to cancel booking")
		http.Error(w, "Failed to cancel booking", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/bookings?court_id=...&start_time=...&end_time=...
func HandleBookingsList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	database := loadDB()
	if database == nil {
		logger.Error().Msg("Database not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	courtID, err := apiutil.ParsePositiveInt64Field(r.URL.Query().Get("court_id"), "court_id")
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
	if !endTime.After(startTime) {
		http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	occupancies, err := database.Queries.ListOccupanciesByCourtRange(ctx, appdb.ListOccupanciesByCourtRangeParams{
		CourtID:  courtID,
		StartsAt: startTime,
		EndsAt:   endTime,
	})
	if err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to list bookings")
		http.Error(w, "Failed to list bookings", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, occupancies); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to write bookings response")
	}
}

func loadEngine() *booking.Engine {
	return engine
}

func loadDB() *appdb.DB {
	return store
}
