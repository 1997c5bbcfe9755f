// internal/api/venues/handlers.go
package venues

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hnvivek/game-management-sub002/internal/api/apiutil"
	appdb "github.com/hnvivek/game-management-sub002/internal/db"
)

const (
	venueQueryTimeout = 5 * time.Second
	dayOfWeekParam    = "day_of_week"
)

var (
	store    *appdb.DB
	initOnce sync.Once
)

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(database *appdb.DB) {
	if database == nil {
		return
	}
	initOnce.Do(func() {
		store = database
	})
}

type venueRequest struct {
	VendorID int64  `json:"vendor_id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Timezone string `json:"timezone"`
}

// POST /api/v1/venues
func HandleVenueCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	database := loadDB()
	if database == nil {
		logger.Error().Msg("Database not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req venueRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case req.VendorID <= 0:
		http.Error(w, "vendor_id must be a positive integer", http.StatusBadRequest)
		return
	case strings.TrimSpace(req.Name) == "":
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	case strings.TrimSpace(req.Slug) == "":
		http.Error(w, "slug is required", http.StatusBadRequest)
		return
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		http.Error(w, "timezone must be a valid IANA zone id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	created, err := database.Queries.CreateVenue(ctx, appdb.CreateVenueParams{
		VendorID: req.VendorID,
		Name:     strings.TrimSpace(req.Name),
		Slug:     strings.TrimSpace(req.Slug),
		Timezone: req.Timezone,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create venue")
		http.Error(w, "Failed to create venue", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		logger.Error().Err(err).Int64("venue_id", created.ID).Msg("Failed to write venue response")
	}
}

type courtRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone,omitempty"`
}

// POST /api/v1/venues/{id}/courts
func HandleCourtCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	database := loadDB()
	if database == nil {
		logger.Error().Msg("Database not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	venueID, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req courtRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	timezone := sql.NullString{}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			http.Error(w, "timezone must be a valid IANA zone id", http.StatusBadRequest)
			return
		}
		timezone = sql.NullString{String: req.Timezone, Valid: true}
	}

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	if _, err := database.Queries.GetVenueByID(ctx, venueID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Venue not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("venue_id", venueID).Msg("Failed to fetch venue")
		http.Error(w, "Failed to fetch venue", http.StatusInternalServerError)
		return
	}

	created, err := database.Queries.CreateCourt(ctx, appdb.CreateCourtParams{
		VenueID:  venueID,
		Name:     strings.TrimSpace(req.Name),
		Timezone: timezone,
	})
	if err != nil {
		logger.Error().Err(err).Int64("venue_id", venueID).Msg("Failed to create court")
		http.Error(w, "Failed to create court", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		logger.Error().Err(err).Int64("court_id", created.ID).Msg("Failed to write court response")
	}
}

// GET /api/v1/venues/{id}/courts
func HandleCourtsList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	database := loadDB()
	if database == nil {
		logger.Error().Msg("Database not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	venueID, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	courts, err := database.Queries.ListCourtsByVenue(ctx, venueID)
	if err != nil {
		logger.Error().Err(err).Int64("venue_id", venueID).Msg("Failed to list courts")
		http.Error(w, "Failed to list courts", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, courts); err != nil {
		logger.Error().Err(err).Int64("venue_id", venueID).Msg("Failed to write courts response")
	}
}

type operatingHoursRequest struct {
	OpensAt  string `json:"opens_at"`
	ClosesAt string `json:"closes_at"`
	IsClosed bool   `json:"is_closed"`
}

// PUT /api/v1/venues/{id}/hours/{day_of_week}
func HandleOperatingHoursUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	database := loadDB()
	if database == nil {
		logger.Error().Msg("Database not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	venueID, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	dayOfWeek, err := dayOfWeekFromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req operatingHoursRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	if req.IsClosed {
		if _, err := database.Queries.DeleteOperatingHours(ctx, appdb.DeleteOperatingHoursParams{
			VenueID:   venueID,
			DayOfWeek: dayOfWeek,
		}); err != nil {
			logger.Error().Err(err).Int64("venue_id", venueID).Int64("day_of_week", dayOfWeek).Msg("Failed to delete operating hours")
			http.Error(w, "Failed to update operating hours", http.StatusInternalServerError)
			return
		}
		if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"deleted": true}); err != nil {
			logger.Error().Err(err).Int64("venue_id", venueID).Msg("Failed to write operating hours response")
		}
		return
	}

	opensAt, err := apiutil.ParseLocalTime(req.OpensAt, "opens_at")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	closesAt, err := apiutil.ParseLocalTime(req.ClosesAt, "closes_at")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if opensAt >= closesAt {
		http.Error(w, "opens_at must be before closes_at", http.StatusBadRequest)
		return
	}

	updated, err := database.Queries.UpsertOperatingHours(ctx, appdb.UpsertOperatingHoursParams{
		VenueID:   venueID,
		DayOfWeek: dayOfWeek,
		OpensAt:   opensAt,
		ClosesAt:  closesAt,
	})
	if err != nil {
		logger.Error().Err(err).Int64("venue_id", venueID).Int64("day_of_week", dayOfWeek).Msg("Failed to upsert operating hours")
		http.Error(w, "Failed to update operating hours", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, updated); err != nil {
		logger.Error().Err(err).Int64("venue_id", venueID).Msg("Failed to write operating hours response")
	}
}

type courtFormatRequest struct {
	FormatID int64 `json:"format_id"`
	MaxSlots int64 `json:"max_slots"`
}

// PUT /api/v1/courts/{id}/formats
//
// Configures how many simultaneous occupancies the court hosts for one
// game format. A court without any format rows stays exclusive.
func HandleCourtFormatUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	database := loadDB()
	if database == nil {
		logger.Error().Msg("Database not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	courtID, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req courtFormatRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	switch {
	case req.FormatID <= 0:
		http.Error(w, "format_id must be a positive integer", http.StatusBadRequest)
		return
	case req.MaxSlots < 1:
		http.Error(w, "max_slots must be at least 1", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), venueQueryTimeout)
	defer cancel()

	if _, err := database.Queries.GetCourtByID(ctx, courtID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Court not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to fetch court")
		http.Error(w, "Failed to fetch court", http.StatusInternalServerError)
		return
	}

	if err := database.Queries.UpsertCourtFormat(ctx, appdb.UpsertCourtFormatParams{
		CourtID:  courtID,
		FormatID: req.FormatID,
		MaxSlots: req.MaxSlots,
	}); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to upsert court format")
		http.Error(w, "Failed to update court format", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"court_id":  courtID,
		"format_id": req.FormatID,
		"max_slots": req.MaxSlots,
	}); err != nil {
		logger.Error().Err(err).Int64("court_id", courtID).Msg("Failed to write court format response")
	}
}

func dayOfWeekFromRequest(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(dayOfWeekParam))
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 || value > 6 {
		return 0, apiutil.FieldError{Field: dayOfWeekParam, Reason: "must be between 0 and 6"}
	}
	return value, nil
}

func loadDB() *appdb.DB {
	return store
}
