package checkins

import (
	"context"
	"testing"
	"time"

	"github.com/tendhq/tend/internal/app/storage/memory"
	"github.com/tendhq/tend/internal/errors"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	store.NowFunc = func() time.Time { return testNow }
	return New(store, nil).WithNow(func() time.Time { return testNow }), store
}

func TestCreateMoodBounds(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, mood := range []int{0, -1, 6, 100} {
		if _, err := svc.Create(ctx, "u1", mood, ""); !errors.IsCode(err, errors.CodeValidation) {
			t.Errorf("mood %d: err = %v, want validation error", mood, err)
		}
	}
	for mood := 1; mood <= 5; mood++ {
		created, err := svc.Create(ctx, "u1", mood, "fine")
		if err != nil {
			t.Fatalf("mood %d: %v", mood, err)
		}
		if created.Mood != mood {
			t.Errorf("stored mood = %d, want %d", created.Mood, mood)
		}
	}
}

func TestCheckedInToday(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	checked, err := svc.CheckedInToday(ctx, "u1")
	if err != nil {
		t.Fatalf("CheckedInToday: %v", err)
	}
	if checked {
		t.Error("no check-in yet, want false")
	}

	if _, err := svc.Create(ctx, "u1", 4, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	checked, err = svc.CheckedInToday(ctx, "u1")
	if err != nil {
		t.Fatalf("CheckedInToday: %v", err)
	}
	if !checked {
		t.Error("checked in today, want true")
	}

	// The next day the flag resets even though history remains.
	tomorrow := testNow.AddDate(0, 0, 1)
	store.NowFunc = func() time.Time { return tomorrow }
	svc.WithNow(func() time.Time { return tomorrow })
	checked, err = svc.CheckedInToday(ctx, "u1")
	if err != nil {
		t.Fatalf("CheckedInToday: %v", err)
	}
	if checked {
		t.Error("yesterday's check-in must not count for today")
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i, mood := range []int{2, 3, 5} {
		at := testNow.AddDate(0, 0, -2+i)
		svc.WithNow(func() time.Time { return at })
		if _, err := svc.Create(ctx, "u1", mood, ""); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	svc.WithNow(func() time.Time { return testNow })

	history, err := svc.History(ctx, "u1", 7)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("History returned %d check-ins, want 3", len(history))
	}
	if history[0].Mood != 5 || history[2].Mood != 2 {
		t.Errorf("history order = [%d %d %d], want newest first [5 3 2]",
			history[0].Mood, history[1].Mood, history[2].Mood)
	}

	// A one-day window drops the older entries.
	short, err := svc.History(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(short) != 1 || short[0].Mood != 5 {
		t.Errorf("1-day history = %+v, want only today's check-in", short)
	}
}
