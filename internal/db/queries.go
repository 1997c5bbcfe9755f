// internal/db/queries.go
package db

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same queries run
// inside and outside transactions.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func NewQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

type Venue struct {
	ID        int64
	VendorID  int64
	Name      string
	Slug      string
	Timezone  string
	CreatedAt time.Time
}

type Court struct {
	ID            int64
	VenueID       int64
	Name          string
	Timezone      sql.NullString
	Active        bool
	VenueTimezone string
	CreatedAt     time.Time
}

type CourtFormat struct {
	ID       int64
	CourtID  int64
	FormatID int64
	MaxSlots int64
}

type OperatingHour struct {
	VenueID   int64
	DayOfWeek int64
	OpensAt   string
	ClosesAt  string
}

type Occupancy struct {
	ID        int64
	Reference string
	CourtID   int64
	FormatID  sql.NullInt64
	Source    string
	Status    string
	StartsAt  time.Time
	EndsAt    time.Time
	CreatedBy sql.NullInt64
	Notes     string
	CreatedAt time.Time
}

type Suggestion struct {
	ID             int64
	CourtID        int64
	FormatID       sql.NullInt64
	StartsAt       time.Time
	EndsAt         time.Time
	PartyA         int64
	PartyB         int64
	PartyAAccepted bool
	PartyBAccepted bool
	Score          float64
	Status         string
	CancelReason   string
	OccupancyID    sql.NullInt64
	CreatedAt      time.Time
}

type CreateVenueParams struct {
	VendorID int64
	Name     string
	Slug     string
	Timezone string
}

func (q *Queries) CreateVenue(ctx context.Context, arg CreateVenueParams) (Venue, error) {
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO venues (vendor_id, name, slug, timezone) VALUES (?, ?, ?, ?)`,
		arg.VendorID, arg.Name, arg.Slug, arg.Timezone,
	)
	if err != nil {
		return Venue{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Venue{}, err
	}
	return q.GetVenueByID(ctx, id)
}

func (q *Queries) GetVenueByID(ctx context.Context, id int64) (Venue, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT id, vendor_id, name, slug, timezone, created_at FROM venues WHERE id = ?`, id)
	var v Venue
	err := row.Scan(&v.ID, &v.VendorID, &v.Name, &v.Slug, &v.Timezone, &v.CreatedAt)
	return v, err
}

type CreateCourtParams struct {
	VenueID  int64
	Name     string
	Timezone sql.NullString
}

func (q *Queries) CreateCourt(ctx context.Context, arg CreateCourtParams) (Court, error) {
	result, err := q.db.ExecContext(ctx,
		`INSERT INTO courts (venue_id, name, timezone) VALUES (?, ?, ?)`,
		arg.VenueID, arg.Name, arg.Timezone,
	)
	if err != nil {
		return Court{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Court{}, err
	}
	return q.GetCourtByID(ctx, id)
}

func (q *Queries) GetCourtByID(ctx context.Context, id int64) (Court, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT c.id, c.venue_id, c.name, c.timezone, c.active, v.timezone, c.created_at
		FROM courts c
		JOIN venues v ON v.id = c.venue_id
		WHERE c.id = ?`, id)
	var c Court
	err := row.Scan(&c.ID, &c.VenueID, &c.Name, &c.Timezone, &c.Active, &c.VenueTimezone, &c.CreatedAt)
	return c, err
}

func (q *Queries) ListCourtsByVenue(ctx context.Context, venueID int64) ([]Court, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT c.id, c.venue_id, c.name, c.timezone, c.active, v.timezone, c.created_at
		FROM courts c
		JOIN venues v ON v.id = c.venue_id
		WHERE c.venue_id = ?
		ORDER BY c.id`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courts []Court
	for rows.Next() {
		var c Court
		if err := rows.Scan(&c.ID, &c.VenueID, &c.Name, &c.Timezone, &c.Active, &c.VenueTimezone, &c.CreatedAt); err != nil {
			return nil, err
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

func (q *Queries) SetCourtActive(ctx context.Context, id int64, active bool) (int64, error) {
	result, err := q.db.ExecContext(ctx, `UPDATE courts SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type UpsertCourtFormatParams struct {
	CourtID  int64
	FormatID int64
	MaxSlots int64
}

func (q *Queries) UpsertCourtFormat(ctx context.Context, arg UpsertCourtFormatParams) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO court_formats (court_id, format_id, max_slots)
		VALUES (?, ?, ?)
		ON CONFLICT (court_id, format_id) DO UPDATE SET max_slots = excluded.max_slots`,
		arg.CourtID, arg.FormatID, arg.MaxSlots,
	)
	return err
}

func (q *Queries) ListCourtFormats(ctx context.Context, courtID int64) ([]CourtFormat, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, court_id, format_id, max_slots FROM court_formats WHERE court_id = ? ORDER BY format_id`,
		courtID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var formats []CourtFormat
	for rows.Next() {
		var f CourtFormat
		if err := rows.Scan(&f.ID, &f.CourtID, &f.FormatID, &f.MaxSlots); err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, rows.Err()
}

type UpsertOperatingHoursParams struct {
	VenueID   int64
	DayOfWeek int64
	OpensAt   string
	ClosesAt  string
}

func (q *Queries) UpsertOperatingHours(ctx context.Context, arg UpsertOperatingHoursParams) (OperatingHour, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO operating_hours (venue_id, day_of_week, opens_at, closes_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (venue_id, day_of_week) DO UPDATE SET opens_at = excluded.opens_at, closes_at = excluded.closes_at`,
		arg.VenueID, arg.DayOfWeek, arg.OpensAt, arg.ClosesAt,
	)
	if err != nil {
		return OperatingHour{}, err
	}
	return OperatingHour{
		VenueID:   arg.VenueID,
		DayOfWeek: arg.DayOfWeek,
		OpensAt:   arg.OpensAt,
		ClosesAt:  arg.ClosesAt,
	}, nil
}

type DeleteOperatingHoursParams struct {
	VenueID   int64
	DayOfWeek int64
}

func (q *Queries) DeleteOperatingHours(ctx context.Context, arg DeleteOperatingHoursParams) (int64, error) {
	result, err := q.db.ExecContext(ctx,
		`DELETE FROM operating_hours WHERE venue_id = ? AND day_of_week = ?`,
		arg.VenueID, arg.DayOfWeek)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (q *Queries) GetOperatingHours(ctx context.Context, venueID, dayOfWeek int64) (OperatingHour, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT venue_id, day_of_week, opens_at, closes_at FROM operating_hours WHERE venue_id = ? AND day_of_week = ?`,
		venueID, dayOfWeek)
	var h OperatingHour
	err := row.Scan(&h.VenueID, &h.DayOfWeek, &h.OpensAt, &h.ClosesAt)
	return h, err
}

func (q *Queries) ListOperatingHours(ctx context.Context, venueID int64) ([]OperatingHour, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT venue_id, day_of_week, opens_at, closes_at FROM operating_hours WHERE venue_id = ? ORDER BY day_of_week`,
		venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hours []OperatingHour
	for rows.Next() {
		var h OperatingHour
		if err := rows.Scan(&h.VenueID, &h.DayOfWeek, &h.OpensAt, &h.ClosesAt); err != nil {
			return nil, err
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

type CreateOccupancyParams struct {
	Reference string
	CourtID   int64
	FormatID  sql.NullInt64
	Source    string
	Status    string
	StartsAt  time.Time
	EndsAt    time.Time
	CreatedBy sql.NullInt64
	Notes     string
}

func (q *Queries) CreateOccupancy(ctx context.Context, arg CreateOccupancyParams) (Occupancy, error) {
	result, err := q.db.ExecContext(ctx, `
		INSERT INTO occupancies (reference, court_id, format_id, source, status, starts_at, ends_at, created_by, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Reference, arg.CourtID, arg.FormatID, arg.Source, arg.Status,
		arg.StartsAt.UTC(), arg.EndsAt.UTC(), arg.CreatedBy, arg.Notes,
	)
	if err != nil {
		return Occupancy{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Occupancy{}, err
	}
	return q.GetOccupancyByID(ctx, id)
}

const occupancyColumns = `id, reference, court_id, format_id, source, status, starts_at, ends_at, created_by, notes, created_at`

func (q *Queries) GetOccupancyByID(ctx context.Context, id int64) (Occupancy, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+occupancyColumns+` FROM occupancies WHERE id = ?`, id)
	return scanOccupancy(row)
}

type CountOverlappingOccupanciesParams struct {
	CourtID  int64
	StartsAt time.Time
	EndsAt   time.Time
	FormatID sql.NullInt64
}

// CountOverlappingOccupancies counts pending and confirmed occupancies
// overlapping the half-open window [StartsAt, EndsAt). Windows that only
// touch at a boundary do not overlap. When FormatID is set, the count
// covers occupancies tagged with that format plus untagged rows, which
// consume the physical court and block every format.
func (q *Queries) CountOverlappingOccupancies(ctx context.Context, arg CountOverlappingOccupanciesParams) (int64, error) {
	query := `
		SELECT COUNT(*) FROM occupancies
		WHERE court_id = ?
		  AND status IN ('pending', 'confirmed')
		  AND starts_at < ?
		  AND ? < ends_at`
	args := []any{arg.CourtID, arg.EndsAt.UTC(), arg.StartsAt.UTC()}
	if arg.FormatID.Valid {
		query += ` AND (format_id IS NULL OR format_id = ?)`
		args = append(args, arg.FormatID.Int64)
	}

	var count int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

type ListOccupanciesByCourtRangeParams struct {
	CourtID  int64
	StartsAt time.Time
	EndsAt   time.Time
}

func (q *Queries) ListOccupanciesByCourtRange(ctx context.Context, arg ListOccupanciesByCourtRangeParams) ([]Occupancy, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+occupancyColumns+` FROM occupancies
		 WHERE court_id = ? AND starts_at < ? AND ? < ends_at
		 ORDER BY starts_at`,
		arg.CourtID, arg.EndsAt.UTC(), arg.StartsAt.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var occupancies []Occupancy
	for rows.Next() {
		occ, err := scanOccupancy(rows)
		if err != nil {
			return nil, err
		}
		occupancies = append(occupancies, occ)
	}
	return occupancies, rows.Err()
}

type UpdateOccupancyStatusParams struct {
	ID     int64
	Status string
}

func (q *Queries) UpdateOccupancyStatus(ctx context.Context, arg UpdateOccupancyStatusParams) (int64, error) {
	result, err := q.db.ExecContext(ctx,
		`UPDATE occupancies SET status = ? WHERE id = ?`, arg.Status, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CompletePastOccupancies transitions capacity-consuming occupancies
// whose window has fully elapsed to completed, returning the number of
// rows moved. Run by the background sweep.
func (q *Queries) CompletePastOccupancies(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, `
		UPDATE occupancies SET status = 'completed'
		WHERE status IN ('pending', 'confirmed') AND ends_at <= ?`,
		now.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type CreateSuggestionParams struct {
	CourtID  int64
	FormatID sql.NullInt64
	StartsAt time.Time
	EndsAt   time.Time
	PartyA   int64
	PartyB   int64
	Score    float64
}

func (q *Queries) CreateSuggestion(ctx context.Context, arg CreateSuggestionParams) (Suggestion, error) {
	result, err := q.db.ExecContext(ctx, `
		INSERT INTO suggestions (court_id, format_id, starts_at, ends_at, party_a, party_b, score)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.CourtID, arg.FormatID, arg.StartsAt.UTC(), arg.EndsAt.UTC(), arg.PartyA, arg.PartyB, arg.Score,
	)
	if err != nil {
		return Suggestion{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Suggestion{}, err
	}
	return q.GetSuggestionByID(ctx, id)
}

const suggestionColumns = `id, court_id, format_id, starts_at, ends_at, party_a, party_b, party_a_accepted, party_b_accepted, score, status, cancel_reason, occupancy_id, created_at`

func (q *Queries) GetSuggestionByID(ctx context.Context, id int64) (Suggestion, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+suggestionColumns+` FROM suggestions WHERE id = ?`, id)
	return scanSuggestion(row)
}

type SetSuggestionAcceptanceParams struct {
	ID    int64
	Party int64
}

func (q *Queries) SetSuggestionAcceptance(ctx context.Context, arg SetSuggestionAcceptanceParams) (Suggestion, error) {
	column := "party_a_accepted"
	if arg.Party == 2 {
		column = "party_b_accepted"
	}
	_, err := q.db.ExecContext(ctx,
		`UPDATE suggestions SET `+column+` = 1 WHERE id = ? AND status = 'pending'`, arg.ID)
	if err != nil {
		return Suggestion{}, err
	}
	return q.GetSuggestionByID(ctx, arg.ID)
}

type MarkSuggestionScheduledParams struct {
	ID          int64
	OccupancyID int64
}

func (q *Queries) MarkSuggestionScheduled(ctx context.Context, arg MarkSuggestionScheduledParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, `
		UPDATE suggestions SET status = 'scheduled', occupancy_id = ?
		WHERE id = ? AND status = 'pending'`,
		arg.OccupancyID, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type CancelSuggestionParams struct {
	ID           int64
	CancelReason string
}

func (q *Queries) CancelSuggestion(ctx context.Context, arg CancelSuggestionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, `
		UPDATE suggestions SET status = 'cancelled', cancel_reason = ?
		WHERE id = ? AND status = 'pending'`,
		arg.CancelReason, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type ListPendingOverlappingSuggestionsParams struct {
	CourtID   int64
	StartsAt  time.Time
	EndsAt    time.Time
	ExcludeID int64
}

func (q *Queries) ListPendingOverlappingSuggestions(ctx context.Context, arg ListPendingOverlappingSuggestionsParams) ([]Suggestion, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+suggestionColumns+` FROM suggestions
		 WHERE court_id = ?
		   AND status = 'pending'
		   AND id != ?
		   AND starts_at < ?
		   AND ? < ends_at
		 ORDER BY id`,
		arg.CourtID, arg.ExcludeID, arg.EndsAt.UTC(), arg.StartsAt.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suggestions []Suggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, rows.Err()
}

// ExpireStaleSuggestions cancels pending suggestions whose window has
// already ended. Run by the background sweep.
func (q *Queries) ExpireStaleSuggestions(ctx context.Context, now time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, `
		UPDATE suggestions SET status = 'cancelled', cancel_reason = 'expired'
		WHERE status = 'pending' AND ends_at <= ?`,
		now.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOccupancy(row rowScanner) (Occupancy, error) {
	var occ Occupancy
	err := row.Scan(
		&occ.ID, &occ.Reference, &occ.CourtID, &occ.FormatID, &occ.Source,
		&occ.Status, &occ.StartsAt, &occ.EndsAt, &occ.CreatedBy, &occ.Notes, &occ.CreatedAt,
	)
	return occ, err
}

func scanSuggestion(row rowScanner) (Suggestion, error) {
	var s Suggestion
	err := row.Scan(
		&s.ID, &s.CourtID, &s.FormatID, &s.StartsAt, &s.EndsAt, &s.PartyA, &s.PartyB,
		&s.PartyAAccepted, &s.PartyBAccepted, &s.Score, &s.Status,
		&s.CancelReason, &s.OccupancyID, &s.CreatedAt,
	)
	return s, err
}
