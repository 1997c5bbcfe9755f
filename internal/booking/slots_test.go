package booking

import (
	"context"
	"testing"
	"time"
)

func slotStarts(schedule DaySchedule) []string {
	starts := make([]string, 0, len(schedule.Slots))
	for _, slot := range schedule.Slots {
		starts = append(starts, slot.StartLocal)
	}
	return starts
}

func assertStarts(t *testing.T, schedule DaySchedule, want []string) {
	t.Helper()
	got := slotStarts(schedule)
	if len(got) != len(want) {
		t.Fatalf("slot starts = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slot starts = %v, want %v", got, want)
		}
	}
}

func setupSlotsTest(t *testing.T, clock Clock) (*memStore, *Engine, Court) {
	t.Helper()
	store := newMemStore()
	court := newTestCourt(store)
	engine := NewEngine(store, WithClock(clock))
	return store, engine, court
}

func TestGenerateSlots_FutureDate(t *testing.T) {
	clock := newMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store, engine, court := setupSlotsTest(t, clock)

	// Tuesday 2026-03-10, open 06:00 to 22:00.
	store.setHours(court.VenueID, time.Tuesday, DayHours{Open: true, OpensAt: "06:00", ClosesAt: "22:00"})

	schedule, err := engine.GenerateSlots(context.Background(), court.ID, "2026-03-10", 3*time.Hour)
	if err != nil {
		t.Fatalf("generate slots: %v", err)
	}

	if len(schedule.Slots) == 0 {
		t.Fatal("expected slots for an open future date")
	}
	if got := schedule.Slots[0].StartLocal; got != "06:00" {
		t.Errorf("first slot = %s, want 06:00", got)
	}
	// 19:00 + 3h = 22:00 fits exactly; 20:00 would run past closing.
	if got := schedule.Slots[len(schedule.Slots)-1].StartLocal; got != "19:00" {
		t.Errorf("last slot = %s, want 19:00", got)
	}
	if got := schedule.Slots[0].EndLocal; got != "09:00" {
		t.Errorf("first slot end = %s, want 09:00", got)
	}
}

func TestGenerateSlots_ClosedDay(t *testing.T) {
	clock := newMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	_, engine, court := setupSlotsTest(t, clock)

	// No operating hours configured for the requested weekday.
	schedule, err := engine.GenerateSlots(context.Background(), court.ID, "2026-03-10", time.Hour)
	if err != nil {
		t.Fatalf("generate slots: %v", err)
	}
	if len(schedule.Slots) != 0 {
		t.Errorf("closed day produced %d slots, want 0", len(schedule.Slots))
	}
}

func TestGenerateSlots_TodayGraceWindow(t *testing.T) {
	// Local time 10:40: the 10:00 slot is past its 30-minute grace, the
	// 11:00 slot onward remains.
	clock := newMockClock(time.Date(2026, 3, 10, 10, 40, 0, 0, time.UTC))
	store, engine, court := setupSlotsTest(t, clock)
	store.setHours(court.VenueID, time.Tuesday, DayHours{Open: true, OpensAt: "09:00", ClosesAt: "14:00"})

	schedule, err := engine.GenerateSlots(context.Background(), court.ID, "2026-03-10", time.Hour)
	if err != nil {
		t.Fatalf("generate slots: %v", err)
	}
	assertStarts(t, schedule, []string{"11:00", "12:00", "13:00"})
}

func TestGenerateSlots_TodayWithinGrace(t *testing.T) {
	// At 10:20 the 10:00 slot is still inside the grace window.
	clock := newMockClock(time.Date(2026, 3, 10, 10, 20, 0, 0, time.UTC))
	store, engine, court := setupSlotsTest(t, clock)
	store.setHours(court.VenueID, time.Tuesday, DayHours{Open: true, OpensAt: "09:00", ClosesAt: "13:00"})

	schedule, err := engine.GenerateSlots(context.Background(), court.ID, "2026-03-10", time.Hour)
	if err != nil {
		t.Fatalf("generate slots: %v", err)
	}
	assertStarts(t, schedule, []string{"10:00", "11:00", "12:00"})
}

func TestGenerateSlots_CourtTimezone(t *testing.T) {
	// Server clock is 12:15 UTC; in Kolkata it is already 17:45, so
	// morning slots are gone for "today" there.
	clock := newMockClock(time.Date(2026, 3, 10, 12, 15, 0, 0, time.UTC))
	store := newMemStore()
	court := store.addCourt(Court{
		VenueID:       1,
		Name:          "Court 1",
		Timezone:      "Asia/Kolkata",
		VenueTimezone: "UTC",
		Active:        true,
	})
	store.setHours(court.VenueID, time.Tuesday, DayHours{Open: true, OpensAt: "06:00", ClosesAt: "22:00"})
	engine := NewEngine(store, WithClock(clock))

	schedule, err := engine.GenerateSlots(context.Background(), court.ID, "2026-03-10", time.Hour)
	if err != nil {
		t.Fatalf("generate slots: %v", err)
	}
	if schedule.Timezone != "Asia/Kolkata" {
		t.Errorf("timezone = %s, want Asia/Kolkata", schedule.Timezone)
	}
	if len(schedule.Slots) == 0 {
		t.Fatal("expected evening slots")
	}
	if got := schedule.Slots[0].StartLocal; got != "18:00" {
		t.Errorf("first slot = %s, want 18:00 (17:45 local is past the 17:00 grace)", got)
	}
}

func TestGenerateSlots_BadTimezoneFallsBack(t *testing.T) {
	clock := newMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store := newMemStore()
	court := store.addCourt(Court{
		VenueID:       1,
		Name:          "Court 1",
		Timezone:      "Not/AZone",
		VenueTimezone: "Also/Bogus",
		Active:        true,
	})
	store.setHours(court.VenueID, time.Tuesday, DayHours{Open: true, OpensAt: "09:00", ClosesAt: "12:00"})
	engine := NewEngine(store, WithClock(clock))

	// Resolution degrades to the server-local zone instead of failing.
	schedule, err := engine.GenerateSlots(context.Background(), court.ID, "2026-03-10", time.Hour)
	if err != nil {
		t.Fatalf("generate slots: %v", err)
	}
	if schedule.Timezone != time.Local.String() {
		t.Errorf("timezone = %s, want server-local %s", schedule.Timezone, time.Local.String())
	}
	assertStarts(t, schedule, []string{"09:00", "10:00", "11:00"})
}

func TestGenerateSlots_FractionalOpeningRoundsUp(t *testing.T) {
	clock := newMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store, engine, court := setupSlotsTest(t, clock)
	store.setHours(court.VenueID, time.Tuesday, DayHours{Open: true, OpensAt: "09:30", ClosesAt: "12:00"})

	schedule, err := engine.GenerateSlots(context.Background(), court.ID, "2026-03-10", time.Hour)
	if err != nil {
		t.Fatalf("generate slots: %v", err)
	}
	// Slots sit on hour boundaries, so a 09:30 opening yields 10:00 first.
	assertStarts(t, schedule, []string{"10:00", "11:00"})
}

func TestGenerateSlots_Validation(t *testing.T) {
	clock := newMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	_, engine, court := setupSlotsTest(t, clock)
	ctx := context.Background()

	if _, err := engine.GenerateSlots(ctx, court.ID, "2026-03-10", 0); !IsValidation(err) {
		t.Errorf("zero duration error = %v, want ValidationError", err)
	}
	if _, err := engine.GenerateSlots(ctx, court.ID, "March 10", time.Hour); !IsValidation(err) {
		t.Errorf("bad date error = %v, want ValidationError", err)
	}
	if _, err := engine.GenerateSlots(ctx, 999, "2026-03-10", time.Hour); !IsValidation(err) {
		t.Errorf("unknown court error = %v, want ValidationError", err)
	}
}

func TestGenerateSlots_DurationLongerThanDay(t *testing.T) {
	clock := newMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	store, engine, court := setupSlotsTest(t, clock)
	store.setHours(court.VenueID, time.Tuesday, DayHours{Open: true, OpensAt: "09:00", ClosesAt: "12:00"})

	schedule, err := engine.GenerateSlots(context.Background(), court.ID, "2026-03-10", 5*time.Hour)
	if err != nil {
		t.Fatalf("generate slots: %v", err)
	}
	if len(schedule.Slots) != 0 {
		t.Errorf("oversized duration produced %d slots, want 0", len(schedule.Slots))
	}
}
