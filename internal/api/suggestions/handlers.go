// internal/api/suggestions/handlers.go
package suggestions

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

const suggestionQueryTimeout = 5 * time.Second

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

type createSuggestionRequest struct {
	CourtID   int64   `json:"court_id"`
	FormatID  *int64  `json:"format_id,omitempty"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	PartyA    int64   `json:"party_a"`
	PartyB    int64   `json:"party_b"`
	Score     float64 `json:"score"`
}

// POST /api/v1/suggestions
//
// Records a non-binding match proposal. Pending suggestions do not
// consume capacity, so multiple proposals for the identical window may
// coexist; only scheduling one of them does. format_id must be given
// for courts with format capacities or scheduling will be rejected.
func HandleSuggestionCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	database := loadDB()
	if database == nil {
		logger.Error().Msg("Database not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var req createSuggestionRequest
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
	if _, err := booking.NewTimeWindow(startTime, endTime); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case req.CourtID <= 0:
		http.Error(w, "court_id must be a positive integer", http.StatusBadRequest)
		return
	case req.FormatID != nil && *req.FormatID <= 0:
		http.Error(w, "format_id must be a positive integer", http.StatusBadRequest)
		return
	case req.PartyA <= 0 || req.PartyB <= 0:
		http.Error(w, "party_a and party_b must be positive integers", http.StatusBadRequest)
		return
	case req.PartyA == req.PartyB:
		http.Error(w, "party_a and party_b must differ", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), suggestionQueryTimeout)
	defer cancel()

	formatID := sql.NullInt64{}
	if req.FormatID != nil {
		formatID = sql.NullInt64{Int64: *req.FormatID, Valid: true}
	}

	created, err := database.Queries.CreateSuggestion(ctx, appdb.CreateSuggestionParams{
		CourtID:  req.CourtID,
		FormatID: formatID,
		StartsAt: startTime,
		EndsAt:   endTime,
		PartyA:   req.PartyA,
		PartyB:   req.PartyB,
		Score:    req.Score,
	})
	if err != nil {
		logger.Error().Err(err).Int64("court_id", req.CourtID).Msg("Failed to create suggestion")
		http.Error(w, "Failed to create suggestion", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		logger.Error().Err(err).Int64("suggestion_id", created.ID).Msg("Failed to write suggestion response")
	}
}

type acceptSuggestionRequest struct {
	UserID int64 `json:"user_id"`
}

// POST /api/v1/suggestions/{id}/accept
//
// Records one party's acceptance. When the second party accepts, the
// suggestion is scheduled through the admission path: a 409 here means
// another occupancy won the court first and the suggestion stays pending.
func HandleSuggestionAccept(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	e := loadEngine()
	if e == nil {
		logger.Error().Msg("Booking engine not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	suggestionID, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req acceptSuggestionRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.UserID <= 0 {
		http.Error(w, "user_id must be a positive integer", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), suggestionQueryTimeout)
	defer cancel()

	suggestion, err := e.AcceptSuggestion(ctx, suggestionID, req.UserID)
	if err != nil {
		apiutil.WriteEngineError(w, r, err, "Failed to accept suggestion")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, suggestion); err != nil {
		logger.Error().Err(err).Int64("suggestion_id", suggestionID).Msg("Failed to write suggestion response")
	}
}

type withdrawSuggestionRequest struct {
	Reason string `json:"reason,omitempty"`
}

// POST /api/v1/suggestions/{id}/withdraw
func HandleSuggestionWithdraw(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	e := loadEngine()
	if e == nil {
		logger.Error().Msg("Booking engine not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	suggestionID, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req withdrawSuggestionRequest
	if apiutil.IsJSONRequest(r) {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), suggestionQueryTimeout)
	defer cancel()

	if err := e.WithdrawSuggestion(ctx, suggestionID, req.Reason); err != nil {
		apiutil.WriteEngineError(w, r, err, "Failed to withdraw suggestion")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/suggestions/{id}
func HandleSuggestionGet(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	database := loadDB()
	if database == nil {
		logger.Error().Msg("Database not initialized")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	suggestionID, err := apiutil.PathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), suggestionQueryTimeout)
	defer cancel()

	suggestion, err := database.Queries.GetSuggestionByID(ctx, suggestionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "Suggestion not found", http.StatusNotFound)
			return
		}
		logger.Error().Err(err).Int64("suggestion_id", suggestionID).Msg("Failed to fetch suggestion")
		http.Error(w, "Failed to fetch suggestion", http.StatusInternalServerError)
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, suggestion); err != nil {
		logger.Error().Err(err).Int64("suggestion_id", suggestionID).Msg("Failed to write suggestion response")
	}
}

func loadEngine() *booking.Engine {
	return engine
}

func loadDB() *appdb.DB {
	return store
}
