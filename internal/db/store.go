// internal/db/store.go
package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hnvivek/game-management-sub002/internal/booking"
)

// Store adapts DB to the booking engine's storage port. Engine writes go
// through Transact, which maps to a SQL transaction; ErrNoRows maps to
// booking.ErrNotFound so the engine can distinguish unknown ids from
// storage failures.
type Store struct {
	db *DB
}

// NewStore wraps the database as a booking.Store.
func NewStore(database *DB) *Store {
	return &Store{db: database}
}

var _ booking.Store = (*Store)(nil)

func (s *Store) GetCourt(ctx context.Context, courtID int64) (booking.Court, error) {
	court, err := s.db.Queries.GetCourtByID(ctx, courtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.Court{}, booking.ErrNotFound
		}
		return booking.Court{}, err
	}
	return booking.Court{
		ID:            court.ID,
		VenueID:       court.VenueID,
		Name:          court.Name,
		Timezone:      court.Timezone.String,
		VenueTimezone: court.VenueTimezone,
		Active:        court.Active,
	}, nil
}

func (s *Store) ListFormatCapacities(ctx context.Context, courtID int64) ([]booking.FormatCapacity, error) {
	formats, err := s.db.Queries.ListCourtFormats(ctx, courtID)
	if err != nil {
		return nil, err
	}
	capacities := make([]booking.FormatCapacity, 0, len(formats))
	for _, format := range formats {
		capacities = append(capacities, booking.FormatCapacity{
			CourtID:  format.CourtID,
			FormatID: format.FormatID,
			MaxSlots: format.MaxSlots,
		})
	}
	return capacities, nil
}

func (s *Store) OperatingHours(ctx context.Context, venueID int64, day time.Weekday) (booking.DayHours, error) {
	hours, err := s.db.Queries.GetOperatingHours(ctx, venueID, int64(day))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// No row for the day means the venue is closed.
			return booking.DayHours{Open: false}, nil
		}
		return booking.DayHours{}, err
	}
	return booking.DayHours{Open: true, OpensAt: hours.OpensAt, ClosesAt: hours.ClosesAt}, nil
}

func (s *Store) CountOverlapping(ctx context.Context, query booking.OverlapQuery) (int64, error) {
	return s.db.Queries.CountOverlappingOccupancies(ctx, CountOverlappingOccupanciesParams{
		CourtID:  query.CourtID,
		StartsAt: query.Window.Start,
		EndsAt:   query.Window.End,
		FormatID: toNullInt64(query.FormatID),
	})
}

func (s *Store) InsertOccupancy(ctx context.Context, occ booking.NewOccupancy) (booking.Occupancy, error) {
	created, err := s.db.Queries.CreateOccupancy(ctx, CreateOccupancyParams{
		Reference: occ.Reference,
		CourtID:   occ.CourtID,
		FormatID:  toNullInt64(occ.FormatID),
		Source:    string(occ.Source),
		Status:    string(occ.Status),
		StartsAt:  occ.Window.Start,
		EndsAt:    occ.Window.End,
		CreatedBy: toNullInt64(occ.CreatedBy),
		Notes:     occ.Notes,
	})
	if err != nil {
		return booking.Occupancy{}, err
	}
	return occupancyFromRow(created), nil
}

func (s *Store) GetSuggestion(ctx context.Context, id int64) (booking.Suggestion, error) {
	suggestion, err := s.db.Queries.GetSuggestionByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.Suggestion{}, booking.ErrNotFound
		}
		return booking.Suggestion{}, err
	}
	return suggestionFromRow(suggestion), nil
}

func (s *Store) SetSuggestionAcceptance(ctx context.Context, id int64, party int64) (booking.Suggestion, error) {
	suggestion, err := s.db.Queries.SetSuggestionAcceptance(ctx, SetSuggestionAcceptanceParams{ID: id, Party: party})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.Suggestion{}, booking.ErrNotFound
		}
		return booking.Suggestion{}, err
	}
	return suggestionFromRow(suggestion), nil
}

func (s *Store) MarkSuggestionScheduled(ctx context.Context, id, occupancyID int64) error {
	affected, err := s.db.Queries.MarkSuggestionScheduled(ctx, MarkSuggestionScheduledParams{
		ID:          id,
		OccupancyID: occupancyID,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (s *Store) CancelSuggestion(ctx context.Context, id int64, reason string) error {
	affected, err := s.db.Queries.CancelSuggestion(ctx, CancelSuggestionParams{ID: id, CancelReason: reason})
	if err != nil {
		return err
	}
	if affected == 0 {
		return booking.ErrNotFound
	}
	return nil
}

func (s *Store) ListPendingOverlapping(ctx context.Context, courtID int64, window booking.TimeWindow, excludeID int64) ([]booking.Suggestion, error) {
	rows, err := s.db.Queries.ListPendingOverlappingSuggestions(ctx, ListPendingOverlappingSuggestionsParams{
		CourtID:   courtID,
		StartsAt:  window.Start,
		EndsAt:    window.End,
		ExcludeID: excludeID,
	})
	if err != nil {
		return nil, err
	}
	suggestions := make([]booking.Suggestion, 0, len(rows))
	for _, row := range rows {
		suggestions = append(suggestions, suggestionFromRow(row))
	}
	return suggestions, nil
}

func (s *Store) Transact(ctx context.Context, fn func(booking.Store) error) error {
	return s.db.RunInTx(ctx, func(txdb *DB) error {
		return fn(&Store{db: txdb})
	})
}

func occupancyFromRow(row Occupancy) booking.Occupancy {
	return booking.Occupancy{
		ID:        row.ID,
		Reference: row.Reference,
		CourtID:   row.CourtID,
		FormatID:  fromNullInt64(row.FormatID),
		Source:    booking.OccupancySource(row.Source),
		Status:    booking.OccupancyStatus(row.Status),
		Window:    booking.TimeWindow{Start: row.StartsAt, End: row.EndsAt},
		CreatedBy: fromNullInt64(row.CreatedBy),
		Notes:     row.Notes,
		CreatedAt: row.CreatedAt,
	}
}

func suggestionFromRow(row Suggestion) booking.Suggestion {
	return booking.Suggestion{
		ID:             row.ID,
		CourtID:        row.CourtID,
		FormatID:       fromNullInt64(row.FormatID),
		Window:         booking.TimeWindow{Start: row.StartsAt, End: row.EndsAt},
		PartyA:         row.PartyA,
		PartyB:         row.PartyB,
		PartyAAccepted: row.PartyAAccepted,
		PartyBAccepted: row.PartyBAccepted,
		Score:          row.Score,
		Status:         booking.SuggestionStatus(row.Status),
		CancelReason:   row.CancelReason,
		OccupancyID:    fromNullInt64(row.OccupancyID),
		CreatedAt:      row.CreatedAt,
	}
}

func toNullInt64(value *int64) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *value, Valid: true}
}

func fromNullInt64(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}
