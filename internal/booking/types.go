// internal/booking/types.go
package booking

import (
	"context"
	"time"
)

// OccupancyStatus is the lifecycle state of a committed occupancy. Only
// Pending and Confirmed occupancies consume capacity; Completed and
// Cancelled rows are inert for future conflict checks but are retained
// for history.
type OccupancyStatus string

const (
	StatusPending   OccupancyStatus = "pending"
	StatusConfirmed OccupancyStatus = "confirmed"
	StatusCompleted OccupancyStatus = "completed"
	StatusCancelled OccupancyStatus = "cancelled"
)

// OccupancySource records which subsystem created an occupancy. Both
// sources consume the same physical court; conflict checks must not
// assume which subsystem created a blocking row.
type OccupancySource string

const (
	SourceBooking OccupancySource = "booking"
	SourceMatch   OccupancySource = "match"
)

// SuggestionStatus is the lifecycle state of a match suggestion.
type SuggestionStatus string

const (
	SuggestionPending   SuggestionStatus = "pending"
	SuggestionScheduled SuggestionStatus = "scheduled"
	SuggestionCancelled SuggestionStatus = "cancelled"
)

// Court is a bookable unit. Timezone may be empty, in which case the
// owning venue's timezone applies.
type Court struct {
	ID            int64
	VenueID       int64
	Name          string
	Timezone      string
	VenueTimezone string
	Active        bool
}

// FormatCapacity allows a court to host up to MaxSlots simultaneous
// occupancies for one game format. A court with no format capacities is
// exclusive (capacity 1) for any reservation regardless of format.
type FormatCapacity struct {
	CourtID  int64
	FormatID int64
	MaxSlots int64
}

// DayHours is the operating window for one day of week, as local
// wall-clock strings in "15:04" form. Open is false on closed days.
type DayHours struct {
	Open     bool
	OpensAt  string
	ClosesAt string
}

// Occupancy is a reservation or scheduled match consuming capacity on a
// court for a time window. Window instants are timezone-normalized.
type Occupancy struct {
	ID        int64
	Reference string
	CourtID   int64
	FormatID  *int64
	Source    OccupancySource
	Status    OccupancyStatus
	Window    TimeWindow
	CreatedBy *int64
	Notes     string
	CreatedAt time.Time
}

// NewOccupancy carries the fields of an occupancy about to be admitted.
type NewOccupancy struct {
	Reference string
	CourtID   int64
	FormatID  *int64
	Source    OccupancySource
	Status    OccupancyStatus
	Window    TimeWindow
	CreatedBy *int64
	Notes     string
}

// Suggestion is a proposed, non-binding pairing of two parties for a
// court and window. Pending suggestions do not consume capacity; only
// scheduling does. FormatID must be set for courts with format
// capacities or scheduling will fail admission.
type Suggestion struct {
	ID             int64
	CourtID        int64
	FormatID       *int64
	Window         TimeWindow
	PartyA         int64
	PartyB         int64
	PartyAAccepted bool
	PartyBAccepted bool
	Score          float64
	Status         SuggestionStatus
	CancelReason   string
	OccupancyID    *int64
	CreatedAt      time.Time
}

// OverlapQuery selects the committed occupancies that block a candidate
// window: rows for the court with status pending or confirmed whose
// window overlaps the candidate, optionally narrowed to one format.
type OverlapQuery struct {
	CourtID  int64
	Window   TimeWindow
	FormatID *int64
}

// Slot is one bookable start time produced by the slot generator,
// expressed as local wall-clock strings plus the absolute start instant.
type Slot struct {
	Start      time.Time `json:"start"`
	StartLocal string    `json:"start_local"`
	EndLocal   string    `json:"end_local"`
}

// DaySchedule is the ordered slot sequence for one court and date,
// qualified with the timezone the local strings are expressed in.
type DaySchedule struct {
	CourtID  int64  `json:"court_id"`
	Date     string `json:"date"`
	Timezone string `json:"timezone"`
	Slots    []Slot `json:"slots"`
}

// Store is the storage port the engine is wired with. Implementations
// must be safe for concurrent use; Transact runs fn against a view of
// the store whose writes commit atomically or not at all.
type Store interface {
	GetCourt(ctx context.Context, courtID int64) (Court, error)
	ListFormatCapacities(ctx context.Context, courtID int64) ([]FormatCapacity, error)
	OperatingHours(ctx context.Context, venueID int64, day time.Weekday) (DayHours, error)

	CountOverlapping(ctx context.Context, query OverlapQuery) (int64, error)
	InsertOccupancy(ctx context.Context, occ NewOccupancy) (Occupancy, error)

	GetSuggestion(ctx context.Context, id int64) (Suggestion, error)
	SetSuggestionAcceptance(ctx context.Context, id int64, party int64) (Suggestion, error)
	MarkSuggestionScheduled(ctx context.Context, id, occupancyID int64) error
	CancelSuggestion(ctx context.Context, id int64, reason string) error
	ListPendingOverlapping(ctx context.Context, courtID int64, window TimeWindow, excludeID int64) ([]Suggestion, error)

	Transact(ctx context.Context, fn func(Store) error) error
}

// Clock abstracts time for testing the "has this slot passed" checks.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }
