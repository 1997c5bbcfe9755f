// internal/booking/suggestions.go
package booking

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// CascadeCancelReason is recorded on suggestions cancelled because a
// competing suggestion for an overlapping window was scheduled first.
const CascadeCancelReason = "overlapping suggestion was scheduled"

// AcceptSuggestion records userID's acceptance of a pending suggestion.
// Once both parties have accepted, the suggestion is scheduled: a
// confirmed match occupancy is admitted for its window, the suggestion
// transitions to scheduled, and every other pending suggestion for the
// same court whose window overlaps is cascade-cancelled, all in one
// transaction, so no reader ever observes the new occupancy without the
// cascade applied.
//
// Scheduling goes through the same admission check as any booking and
// can still lose the race: in that case the suggestion stays pending
// (the blocking occupancy may itself be cancelled later) and the caller
// receives ConflictError.
func (e *Engine) AcceptSuggestion(ctx context.Context, suggestionID, userID int64) (Suggestion, error) {
	suggestion, err := e.store.GetSuggestion(ctx, suggestionID)
	if err != nil {
		if err == ErrNotFound {
			return Suggestion{}, ValidationError{Field: "suggestion_id", Reason: "is unknown"}
		}
		return Suggestion{}, fmt.Errorf("load suggestion: %w", err)
	}
	if suggestion.Status != SuggestionPending {
		return Suggestion{}, ConflictError{CourtID: suggestion.CourtID, Window: suggestion.Window}
	}

	var party int64
	switch userID {
	case suggestion.PartyA:
		party = 1
	case suggestion.PartyB:
		party = 2
	default:
		return Suggestion{}, ValidationError{Field: "user_id", Reason: "is not a party to this suggestion"}
	}

	suggestion, err = e.store.SetSuggestionAcceptance(ctx, suggestionID, party)
	if err != nil {
		return Suggestion{}, fmt.Errorf("record acceptance: %w", err)
	}
	if !suggestion.PartyAAccepted || !suggestion.PartyBAccepted {
		return suggestion, nil
	}

	return e.scheduleSuggestion(ctx, suggestion)
}

// WithdrawSuggestion cancels a pending suggestion outright.
func (e *Engine) WithdrawSuggestion(ctx context.Context, suggestionID int64, reason string) error {
	suggestion, err := e.store.GetSuggestion(ctx, suggestionID)
	if err != nil {
		if err == ErrNotFound {
			return ValidationError{Field: "suggestion_id", Reason: "is unknown"}
		}
		return fmt.Errorf("load suggestion: %w", err)
	}
	if suggestion.Status != SuggestionPending {
		return ConflictError{CourtID: suggestion.CourtID, Window: suggestion.Window}
	}
	if reason == "" {
		reason = "withdrawn"
	}
	if err := e.store.CancelSuggestion(ctx, suggestionID, reason); err != nil {
		return fmt.Errorf("cancel suggestion: %w", err)
	}
	return nil
}

func (e *Engine) scheduleSuggestion(ctx context.Context, suggestion Suggestion) (Suggestion, error) {
	court, err := e.getActiveCourt(ctx, e.store, suggestion.CourtID)
	if err != nil {
		return Suggestion{}, err
	}

	lock := e.unitLock(court.ID)
	lock.Lock()
	defer lock.Unlock()

	var scheduled Suggestion
	err = e.store.Transact(ctx, func(tx Store) error {
		capacity, query, err := e.resolveCapacity(ctx, tx, court, suggestion.Window, suggestion.FormatID)
		if err != nil {
			return err
		}
		count, err := tx.CountOverlapping(ctx, query)
		if err != nil {
			return fmt.Errorf("count overlapping occupancies: %w", err)
		}
		if count >= capacity {
			return ConflictError{CourtID: court.ID, Window: suggestion.Window}
		}

		occupancy, err := tx.InsertOccupancy(ctx, NewOccupancy{
			Reference: uuid.New().String(),
			CourtID:   court.ID,
			FormatID:  suggestion.FormatID,
			Source:    SourceMatch,
			Status:    StatusConfirmed,
			Window:    suggestion.Window,
		})
		if err != nil {
			return fmt.Errorf("insert match occupancy: %w", err)
		}

		if err := tx.MarkSuggestionScheduled(ctx, suggestion.ID, occupancy.ID); err != nil {
			return fmt.Errorf("mark suggestion scheduled: %w", err)
		}

		losers, err := tx.ListPendingOverlapping(ctx, court.ID, suggestion.Window, suggestion.ID)
		if err != nil {
			return fmt.Errorf("list overlapping suggestions: %w", err)
		}
		for _, loser := range losers {
			if err := tx.CancelSuggestion(ctx, loser.ID, CascadeCancelReason); err != nil {
				return fmt.Errorf("cascade cancel suggestion %d: %w", loser.ID, err)
			}
		}

		scheduled, err = tx.GetSuggestion(ctx, suggestion.ID)
		if err != nil {
			return fmt.Errorf("reload suggestion: %w", err)
		}

		log.Ctx(ctx).Info().
			Int64("suggestion_id", suggestion.ID).
			Int64("court_id", court.ID).
			Int64("occupancy_id", occupancy.ID).
			Int("cascade_cancelled", len(losers)).
			Msg("Suggestion scheduled")
		return nil
	})
	if err != nil {
		return Suggestion{}, err
	}
	return scheduled, nil
}
