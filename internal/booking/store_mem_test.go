package booking

import (
	"context"
	"sync"
	"time"
)

// memStore is an in-memory Store for engine tests. Transact serializes
// all mutations behind one mutex and rolls back on error by restoring a
// snapshot, which is enough to exercise the engine's atomicity contract
// without a database.
type memStore struct {
	mu sync.Mutex

	courts      map[int64]Court
	capacities  map[int64][]FormatCapacity
	hours       map[int64]map[time.Weekday]DayHours
	occupancies map[int64]Occupancy
	suggestions map[int64]Suggestion
	nextID      int64
}

func newMemStore() *memStore {
	return &memStore{
		courts:      make(map[int64]Court),
		capacities:  make(map[int64][]FormatCapacity),
		hours:       make(map[int64]map[time.Weekday]DayHours),
		occupancies: make(map[int64]Occupancy),
		suggestions: make(map[int64]Suggestion),
	}
}

func (s *memStore) addCourt(c Court) Court {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	s.courts[c.ID] = c
	return c
}

func (s *memStore) addCapacity(courtID, formatID, maxSlots int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capacities[courtID] = append(s.capacities[courtID], FormatCapacity{
		CourtID:  courtID,
		FormatID: formatID,
		MaxSlots: maxSlots,
	})
}

func (s *memStore) setHours(venueID int64, day time.Weekday, hours DayHours) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hours[venueID] == nil {
		s.hours[venueID] = make(map[time.Weekday]DayHours)
	}
	s.hours[venueID][day] = hours
}

func (s *memStore) addSuggestion(sg Suggestion) Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	sg.ID = s.nextID
	if sg.Status == "" {
		sg.Status = SuggestionPending
	}
	s.suggestions[sg.ID] = sg
	return sg
}

func (s *memStore) occupancyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.occupancies)
}

func (s *memStore) GetCourt(_ context.Context, courtID int64) (Court, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCourtLocked(courtID)
}

func (s *memStore) getCourtLocked(courtID int64) (Court, error) {
	court, ok := s.courts[courtID]
	if !ok {
		return Court{}, ErrNotFound
	}
	return court, nil
}

func (s *memStore) ListFormatCapacities(_ context.Context, courtID int64) ([]FormatCapacity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FormatCapacity(nil), s.capacities[courtID]...), nil
}

func (s *memStore) OperatingHours(_ context.Context, venueID int64, day time.Weekday) (DayHours, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hours, ok := s.hours[venueID][day]
	if !ok {
		return DayHours{Open: false}, nil
	}
	return hours, nil
}

func (s *memStore) CountOverlapping(_ context.Context, query OverlapQuery) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countOverlappingLocked(query)
}

func (s *memStore) countOverlappingLocked(query OverlapQuery) (int64, error) {
	var count int64
	for _, occ := range s.occupancies {
		if occ.CourtID != query.CourtID {
			continue
		}
		if occ.Status != StatusPending && occ.Status != StatusConfirmed {
			continue
		}
		if query.FormatID != nil && occ.FormatID != nil && *occ.FormatID != *query.FormatID {
			continue
		}
		if occ.Window.Overlaps(query.Window) {
			count++
		}
	}
	return count, nil
}

func (s *memStore) InsertOccupancy(_ context.Context, occ NewOccupancy) (Occupancy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertOccupancyLocked(occ)
}

func (s *memStore) insertOccupancyLocked(occ NewOccupancy) (Occupancy, error) {
	s.nextID++
	created := Occupancy{
		ID:        s.nextID,
		Reference: occ.Reference,
		CourtID:   occ.CourtID,
		FormatID:  occ.FormatID,
		Source:    occ.Source,
		Status:    occ.Status,
		Window:    occ.Window,
		CreatedBy: occ.CreatedBy,
		Notes:     occ.Notes,
		CreatedAt: time.Now().UTC(),
	}
	s.occupancies[created.ID] = created
	return created, nil
}

func (s *memStore) GetSuggestion(_ context.Context, id int64) (Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getSuggestionLocked(id)
}

func (s *memStore) getSuggestionLocked(id int64) (Suggestion, error) {
	sg, ok := s.suggestions[id]
	if !ok {
		return Suggestion{}, ErrNotFound
	}
	return sg, nil
}

func (s *memStore) SetSuggestionAcceptance(_ context.Context, id, party int64) (Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setSuggestionAcceptanceLocked(id, party)
}

func (s *memStore) setSuggestionAcceptanceLocked(id, party int64) (Suggestion, error) {
	sg, ok := s.suggestions[id]
	if !ok {
		return Suggestion{}, ErrNotFound
	}
	if party == 1 {
		sg.PartyAAccepted = true
	} else {
		sg.PartyBAccepted = true
	}
	s.suggestions[id] = sg
	return sg, nil
}

func (s *memStore) MarkSuggestionScheduled(_ context.Context, id, occupancyID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markSuggestionScheduledLocked(id, occupancyID)
}

func (s *memStore) markSuggestionScheduledLocked(id, occupancyID int64) error {
	sg, ok := s.suggestions[id]
	if !ok {
		return ErrNotFound
	}
	sg.Status = SuggestionScheduled
	sg.OccupancyID = &occupancyID
	s.suggestions[id] = sg
	return nil
}

func (s *memStore) CancelSuggestion(_ context.Context, id int64, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelSuggestionLocked(id, reason)
}

func (s *memStore) cancelSuggestionLocked(id int64, reason string) error {
	sg, ok := s.suggestions[id]
	if !ok {
		return ErrNotFound
	}
	sg.Status = SuggestionCancelled
	sg.CancelReason = reason
	s.suggestions[id] = sg
	return nil
}

func (s *memStore) ListPendingOverlapping(_ context.Context, courtID int64, window TimeWindow, excludeID int64) ([]Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listPendingOverlappingLocked(courtID, window, excludeID)
}

func (s *memStore) listPendingOverlappingLocked(courtID int64, window TimeWindow, excludeID int64) ([]Suggestion, error) {
	var out []Suggestion
	for _, sg := range s.suggestions {
		if sg.ID == excludeID || sg.CourtID != courtID || sg.Status != SuggestionPending {
			continue
		}
		if sg.Window.Overlaps(window) {
			out = append(out, sg)
		}
	}
	return out, nil
}

// Transact holds the store lock for the whole callback and restores a
// snapshot when fn fails, so a losing admission leaves no partial state.
func (s *memStore) Transact(_ context.Context, fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.snapshotLocked()
	if err := fn(&memTx{store: s}); err != nil {
		s.restoreLocked(snapshot)
		return err
	}
	return nil
}

type memSnapshot struct {
	occupancies map[int64]Occupancy
	suggestions map[int64]Suggestion
	nextID      int64
}

func (s *memStore) snapshotLocked() memSnapshot {
	occ := make(map[int64]Occupancy, len(s.occupancies))
	for k, v := range s.occupancies {
		occ[k] = v
	}
	sg := make(map[int64]Suggestion, len(s.suggestions))
	for k, v := range s.suggestions {
		sg[k] = v
	}
	return memSnapshot{occupancies: occ, suggestions: sg, nextID: s.nextID}
}

func (s *memStore) restoreLocked(snap memSnapshot) {
	s.occupancies = snap.occupancies
	s.suggestions = snap.suggestions
	s.nextID = snap.nextID
}

// memTx routes Store calls back to the already-locked memStore.
type memTx struct {
	store *memStore
}

func (t *memTx) GetCourt(_ context.Context, courtID int64) (Court, error) {
	return t.store.getCourtLocked(courtID)
}

func (t *memTx) ListFormatCapacities(_ context.Context, courtID int64) ([]FormatCapacity, error) {
	return append([]FormatCapacity(nil), t.store.capacities[courtID]...), nil
}

func (t *memTx) OperatingHours(_ context.Context, venueID int64, day time.Weekday) (DayHours, error) {
	hours, ok := t.store.hours[venueID][day]
	if !ok {
		return DayHours{Open: false}, nil
	}
	return hours, nil
}

func (t *memTx) CountOverlapping(_ context.Context, query OverlapQuery) (int64, error) {
	return t.store.countOverlappingLocked(query)
}

func (t *memTx) InsertOccupancy(_ context.Context, occ NewOccupancy) (Occupancy, error) {
	return t.store.insertOccupancyLocked(occ)
}

func (t *memTx) GetSuggestion(_ context.Context, id int64) (Suggestion, error) {
	return t.store.getSuggestionLocked(id)
}

func (t *memTx) SetSuggestionAcceptance(_ context.Context, id, party int64) (Suggestion, error) {
	return t.store.setSuggestionAcceptanceLocked(id, party)
}

func (t *memTx) MarkSuggestionScheduled(_ context.Context, id, occupancyID int64) error {
	return t.store.markSuggestionScheduledLocked(id, occupancyID)
}

func (t *memTx) CancelSuggestion(_ context.Context, id int64, reason string) error {
	return t.store.cancelSuggestionLocked(id, reason)
}

func (t *memTx) ListPendingOverlapping(_ context.Context, courtID int64, window TimeWindow, excludeID int64) ([]Suggestion, error) {
	return t.store.listPendingOverlappingLocked(courtID, window, excludeID)
}

func (t *memTx) Transact(_ context.Context, fn func(Store) error) error {
	return fn(t)
}
