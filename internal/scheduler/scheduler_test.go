package scheduler

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/hnvivek/game-management-sub002/internal/db"
	"github.com/hnvivek/game-management-sub002/internal/testutil"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	sched, err := New()
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	t.Cleanup(func() {
		_ = sched.Stop()
	})
	return sched
}

func TestRegisterSweeps(t *testing.T) {
	sched := newTestScheduler(t)
	database := testutil.NewTestDB(t)

	if err := sched.RegisterSweeps(database, "*/15 * * * *"); err != nil {
		t.Fatalf("register sweeps: %v", err)
	}
	if n := len(sched.cron.Jobs()); n != 2 {
		t.Errorf("registered jobs = %d, want 2", n)
	}
}

func TestRegisterSweeps_Validation(t *testing.T) {
	sched := newTestScheduler(t)
	database := testutil.NewTestDB(t)

	if err := sched.RegisterSweeps(nil, "*/15 * * * *"); err == nil {
		t.Error("expected error for nil database")
	}
	if err := sched.RegisterSweeps(database, ""); !errors.Is(err, ErrEmptyCronExpr) {
		t.Errorf("empty cron error = %v, want ErrEmptyCronExpr", err)
	}
	if err := sched.RegisterSweeps(database, "not a cron"); err == nil {
		t.Error("expected error for malformed cron expression")
	}
}

func TestStop_Idempotent(t *testing.T) {
	sched, err := New()
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	sched.Start()

	if err := sched.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if err := sched.Stop(); err != nil {
		t.Errorf("second stop: %v", err)
	}
}

func TestSweepTask_CompletesPastOccupancies(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	venue, err := database.Queries.CreateVenue(ctx, db.CreateVenueParams{
		VendorID: 1,
		Name:     "Riverside Sports",
		Slug:     "riverside-sports",
		Timezone: "UTC",
	})
	if err != nil {
		t.Fatalf("seed venue: %v", err)
	}
	court, err := database.Queries.CreateCourt(ctx, db.CreateCourtParams{VenueID: venue.ID, Name: "Court 1"})
	if err != nil {
		t.Fatalf("seed court: %v", err)
	}

	past := time.Date(2020, 1, 6, 10, 0, 0, 0, time.UTC)
	occ, err := database.Queries.CreateOccupancy(ctx, db.CreateOccupancyParams{
		Reference: "past-booking",
		CourtID:   court.ID,
		Source:    "booking",
		Status:    "confirmed",
		StartsAt:  past,
		EndsAt:    past.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("seed occupancy: %v", err)
	}
	stale, err := database.Queries.CreateSuggestion(ctx, db.CreateSuggestionParams{
		CourtID:  court.ID,
		FormatID: sql.NullInt64{},
		StartsAt: past,
		EndsAt:   past.Add(time.Hour),
		PartyA:   101,
		PartyB:   202,
	})
	if err != nil {
		t.Fatalf("seed suggestion: %v", err)
	}

	sweepTask("complete_past_occupancies", database.Queries.CompletePastOccupancies)()
	sweepTask("expire_stale_suggestions", database.Queries.ExpireStaleSuggestions)()

	reloaded, err := database.Queries.GetOccupancyByID(ctx, occ.ID)
	if err != nil {
		t.Fatalf("reload occupancy: %v", err)
	}
	if reloaded.Status != "completed" {
		t.Errorf("occupancy status = %s, want completed", reloaded.Status)
	}

	suggestion, err := database.Queries.GetSuggestionByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("reload suggestion: %v", err)
	}
	if suggestion.Status != "cancelled" || suggestion.CancelReason != "expired" {
		t.Errorf("suggestion = (%s, %q), want (cancelled, expired)", suggestion.Status, suggestion.CancelReason)
	}
}
