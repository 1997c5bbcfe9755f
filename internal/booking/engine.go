// internal/booking/engine.go
package booking

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Engine decides whether a reservation for a court and time window may be
// admitted without overlapping existing committed occupancies, and
// persists admitted occupancies atomically with respect to concurrent
// competing attempts for the same court.
//
// Admission is serialized per court with a keyed mutex around the
// check-then-insert critical section, so unrelated courts never contend
// with each other. The storage layer's commit order is the sole arbiter
// among racing attempts; there is no fairness policy.
type Engine struct {
	store Store
	clock Clock
	grace int // minutes of the current hour after which its slot is suppressed

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine clock, used by tests.
func WithClock(clock Clock) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithGraceMinutes overrides the current-hour grace window for slot
// generation. The default of 30 preserves the behavior users rely on:
// a slot that started less than half an hour ago can still be booked.
func WithGraceMinutes(minutes int) Option {
	return func(e *Engine) { e.grace = minutes }
}

// NewEngine wires an Engine to its storage port.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		clock: realClock{},
		grace: defaultGraceMinutes,
		locks: make(map[int64]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

const defaultGraceMinutes = 30

// AdmitRequest carries a candidate occupancy into Admit.
type AdmitRequest struct {
	CourtID   int64
	Window    TimeWindow
	FormatID  *int64
	Source    OccupancySource
	CreatedBy *int64
	Notes     string
}

// CheckAvailability is the read-only probe behind the availability UI.
// It answers exactly what Admit would decide at this instant, modulo
// races: admissible iff the count of blocking occupancies is strictly
// below the unit's capacity. Operating hours have no bearing here; they
// only shape slot generation.
func (e *Engine) CheckAvailability(ctx context.Context, courtID int64, window TimeWindow, formatID *int64) (bool, error) {
	court, err := e.getActiveCourt(ctx, e.store, courtID)
	if err != nil {
		return false, err
	}

	capacity, query, err := e.resolveCapacity(ctx, e.store, court, window, formatID)
	if err != nil {
		return false, err
	}

	count, err := e.store.CountOverlapping(ctx, query)
	if err != nil {
		return false, fmt.Errorf("count overlapping occupancies: %w", err)
	}
	return count < capacity, nil
}

// Admit re-validates admissibility and persists the new occupancy in one
// critical section per court. Among N concurrent attempts for the same
// exclusive court and overlapping window exactly one succeeds; the rest
// receive ConflictError. An abandoned attempt leaves no partial state.
func (e *Engine) Admit(ctx context.Context, req AdmitRequest) (Occupancy, error) {
	if req.Source == "" {
		req.Source = SourceBooking
	}
	if req.Source != SourceBooking && req.Source != SourceMatch {
		return Occupancy{}, ValidationError{Field: "source", Reason: "must be booking or match"}
	}

	court, err := e.getActiveCourt(ctx, e.store, req.CourtID)
	if err != nil {
		return Occupancy{}, err
	}

	lock := e.unitLock(court.ID)
	lock.Lock()
	defer lock.Unlock()

	var admitted Occupancy
	err = e.store.Transact(ctx, func(tx Store) error {
		capacity, query, err := e.resolveCapacity(ctx, tx, court, req.Window, req.FormatID)
		if err != nil {
			return err
		}

		count, err := tx.CountOverlapping(ctx, query)
		if err != nil {
			return fmt.Errorf("count overlapping occupancies: %w", err)
		}
		if count >= capacity {
			return ConflictError{CourtID: court.ID, Window: req.Window}
		}

		admitted, err = tx.InsertOccupancy(ctx, NewOccupancy{
			Reference: uuid.New().String(),
			CourtID:   court.ID,
			FormatID:  req.FormatID,
			Source:    req.Source,
			Status:    StatusConfirmed,
			Window:    req.Window,
			CreatedBy: req.CreatedBy,
			Notes:     req.Notes,
		})
		if err != nil {
			return fmt.Errorf("insert occupancy: %w", err)
		}
		return nil
	})
	if err != nil {
		return Occupancy{}, err
	}
	return admitted, nil
}

// resolveCapacity maps (court, formatID) to the unit's capacity and the
// overlap query that selects its blocking occupancies.
//
// A court with no format capacities is exclusive for any reservation,
// and the check unions booking- and match-origin occupancies since both
// consume the same physical court. A court with capacity configuration
// only accepts reservations tagged with one of its formats; untagged
// requests are rejected outright, otherwise an exclusive booking could
// slip past the format-scoped count and double-book the court. The
// scoped count still includes untagged occupancies, which predate the
// configuration and consume the physical court.
func (e *Engine) resolveCapacity(ctx context.Context, store Store, court Court, window TimeWindow, formatID *int64) (int64, OverlapQuery, error) {
	query := OverlapQuery{CourtID: court.ID, Window: window}

	capacities, err := store.ListFormatCapacities(ctx, court.ID)
	if err != nil {
		return 0, OverlapQuery{}, fmt.Errorf("list format capacities: %w", err)
	}

	if len(capacities) == 0 {
		return 1, query, nil
	}
	if formatID == nil {
		return 0, OverlapQuery{}, ValidationError{Field: "format_id", Reason: "is required for a court with format capacities"}
	}

	for _, capacity := range capacities {
		if capacity.FormatID == *formatID {
			query.FormatID = formatID
			return capacity.MaxSlots, query, nil
		}
	}
	return 0, OverlapQuery{}, ValidationError{Field: "format_id", Reason: "is not supported by this court"}
}

func (e *Engine) getActiveCourt(ctx context.Context, store Store, courtID int64) (Court, error) {
	if courtID <= 0 {
		return Court{}, ValidationError{Field: "court_id", Reason: "must be a positive integer"}
	}
	court, err := store.GetCourt(ctx, courtID)
	if err != nil {
		if err == ErrNotFound {
			return Court{}, ValidationError{Field: "court_id", Reason: "is unknown"}
		}
		return Court{}, fmt.Errorf("load court: %w", err)
	}
	if !court.Active {
		return Court{}, ValidationError{Field: "court_id", Reason: "is not active"}
	}
	return court, nil
}

// unitLock returns the mutex guarding admissions for one court.
func (e *Engine) unitLock(courtID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	lock, ok := e.locks[courtID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[courtID] = lock
	}
	return lock
}
