package habits

import (
	"context"
	"testing"
	"time"

	"github.com/tendhq/tend/internal/app/domain/habit"
	"github.com/tendhq/tend/internal/app/storage/memory"
	"github.com/tendhq/tend/internal/errors"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	store.NowFunc = func() time.Time { return testNow }
	svc := New(store, nil).WithNow(func() time.Time { return testNow })
	return svc, store
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", "  ", habit.FrequencyDaily, ""); !errors.IsCode(err, errors.CodeValidation) {
		t.Errorf("blank name: err = %v, want validation error", err)
	}
	if _, err := svc.Create(ctx, "u1", "read", "hourly", ""); !errors.IsCode(err, errors.CodeValidation) {
		t.Errorf("bad frequency: err = %v, want validation error", err)
	}
	if _, err := svc.Create(ctx, "u1", "read", habit.FrequencyDaily, "25:99"); !errors.IsCode(err, errors.CodeValidation) {
		t.Errorf("bad reminder: err = %v, want validation error", err)
	}

	created, err := svc.Create(ctx, "u1", "read", "", "21:30")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Frequency != habit.FrequencyDaily {
		t.Errorf("frequency = %q, want default daily", created.Frequency)
	}
	if !created.IsActive {
		t.Error("new habit should be active")
	}
}

func TestLogDedupsWithinPeriod(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "u1", "meditate", habit.FrequencyDaily, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, already, err := svc.Log(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if already {
		t.Fatal("first log of the day reported as duplicate")
	}

	_, already, err = svc.Log(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("second Log: %v", err)
	}
	if !already {
		t.Fatal("second log same day should report already completed")
	}

	stats, err := svc.Stats(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalCompletions != 1 {
		t.Errorf("TotalCompletions = %d, want 1 after duplicate log", stats.TotalCompletions)
	}
	if !stats.CompletedToday {
		t.Error("CompletedToday should be true")
	}
	if stats.CurrentStreak != 1 {
		t.Errorf("CurrentStreak = %d, want 1", stats.CurrentStreak)
	}
}

func TestWeeklyHabitDedupsAcrossDays(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "u1", "long run", habit.FrequencyWeekly, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Complete on Saturday, then try again on Sunday of the same ISO week.
	if _, _, err := svc.Log(ctx, "u1", created.ID); err != nil {
		t.Fatalf("Log: %v", err)
	}
	sunday := testNow.AddDate(0, 0, 1)
	store.NowFunc = func() time.Time { return sunday }
	svc.WithNow(func() time.Time { return sunday })

	_, already, err := svc.Log(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if !already {
		t.Error("same ISO week should dedup a weekly habit")
	}
}

func TestDeleteIsSoftAndIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "u1", "stretch", habit.FrequencyDaily, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, _, err := svc.Log(ctx, "u1", created.ID); err != nil {
		t.Fatalf("Log: %v", err)
	}

	if err := svc.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}

	listed, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("List returned %d habits after delete, want 0", len(listed))
	}

	// History survives the soft delete.
	got, err := svc.Get(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if got.IsActive {
		t.Error("deleted habit should be inactive")
	}
	stats, err := svc.Stats(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("Stats after delete: %v", err)
	}
	if stats.TotalCompletions != 1 {
		t.Errorf("TotalCompletions = %d, want history preserved", stats.TotalCompletions)
	}

	// Logging a deleted habit is rejected.
	if _, _, err := svc.Log(ctx, "u1", created.ID); !errors.IsCode(err, errors.CodeNotFound) {
		t.Errorf("Log on inactive habit: err = %v, want not found", err)
	}
}

func TestListAnnotatesStatus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	first, err := svc.Create(ctx, "u1", "journal", habit.FrequencyDaily, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "u1", "run", habit.FrequencyDaily, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, _, err := svc.Log(ctx, "u1", first.ID); err != nil {
		t.Fatalf("Log: %v", err)
	}

	listed, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("List returned %d habits, want 2", len(listed))
	}
	byName := map[string]WithStatus{}
	for _, h := range listed {
		byName[h.Name] = h
	}
	if !byName["journal"].CompletedToday || byName["journal"].CurrentStreak != 1 {
		t.Errorf("journal = %+v, want completed today with streak 1", byName["journal"])
	}
	if byName["run"].CompletedToday || byName["run"].CurrentStreak != 0 {
		t.Errorf("run = %+v, want untouched", byName["run"])
	}
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "u1", "water plants", habit.FrequencyDaily, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(ctx, "u2", created.ID); !errors.IsCode(err, errors.CodeNotFound) {
		t.Errorf("Get as other user: err = %v, want not found", err)
	}
	if _, _, err := svc.Log(ctx, "u2", created.ID); !errors.IsCode(err, errors.CodeNotFound) {
		t.Errorf("Log as other user: err = %v, want not found", err)
	}
	if err := svc.Delete(ctx, "u2", created.ID); !errors.IsCode(err, errors.CodeNotFound) {
		t.Errorf("Delete as other user: err = %v, want not found", err)
	}
}
