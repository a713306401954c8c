package commitments

import (
	"context"
	"testing"
	"time"

	"github.com/tendhq/tend/internal/app/domain/commitment"
	"github.com/tendhq/tend/internal/app/storage/memory"
	"github.com/tendhq/tend/internal/errors"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store := memory.New()
	store.NowFunc = func() time.Time { return testNow }
	return New(store, nil).WithNow(func() time.Time { return testNow })
}

func ptr[T any](v T) *T { return &v }

func TestCreateRequiresDescription(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Create(context.Background(), "u1", CreateParams{TaskDescription: "   "})
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("Create with blank description: err = %v, want validation error", err)
	}
}

func TestCreateRecurringRequiresPattern(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Create(context.Background(), "u1", CreateParams{
		TaskDescription: "water the plants",
		IsRecurring:     true,
	})
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("recurring without pattern: err = %v, want validation error", err)
	}
}

func TestCreateNonRecurringClearsPattern(t *testing.T) {
	svc := newTestService(t)
	created, err := svc.Create(context.Background(), "u1", CreateParams{
		TaskDescription:   "call mom",
		IsRecurring:       false,
		RecurrencePattern: commitment.RecurWeekly,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.RecurrencePattern != "" {
		t.Errorf("pattern = %q, want cleared for non-recurring", created.RecurrencePattern)
	}
	if created.Status != commitment.StatusPending {
		t.Errorf("status = %q, want pending", created.Status)
	}
}

func TestCompleteIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "u1", CreateParams{TaskDescription: "file taxes"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	first, err := svc.Complete(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if first.Status != commitment.StatusCompleted || first.CompletedAt == nil {
		t.Fatalf("first Complete: status=%q completed_at=%v", first.Status, first.CompletedAt)
	}

	second, err := svc.Complete(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("second Complete: %v", err)
	}
	if !second.CompletedAt.Equal(*first.CompletedAt) {
		t.Errorf("second Complete moved completed_at from %v to %v", first.CompletedAt, second.CompletedAt)
	}
}

func TestOverdueIsDerivedNotStored(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	past := testNow.Add(-48 * time.Hour)
	created, err := svc.Create(ctx, "u1", CreateParams{
		TaskDescription: "return library books",
		Deadline:        &past,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.Get(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Overdue {
		t.Error("pending commitment past deadline should read as overdue")
	}
	if got.Status != commitment.StatusPending {
		t.Errorf("stored status = %q, want pending (overdue is never persisted)", got.Status)
	}

	// Moving the deadline into the future reclassifies it with no status write.
	future := testNow.Add(72 * time.Hour)
	if _, err := svc.Update(ctx, "u1", created.ID, UpdateParams{Deadline: &future}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err = svc.Get(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if got.Overdue {
		t.Error("future-deadline commitment still reads as overdue")
	}

	// Completing an overdue commitment stops it being overdue immediately.
	if _, err := svc.Update(ctx, "u1", created.ID, UpdateParams{Deadline: &past}); err != nil {
		t.Fatalf("Update back: %v", err)
	}
	if _, err := svc.Complete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got, err = svc.Get(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("Get after complete: %v", err)
	}
	if got.Overdue {
		t.Error("completed commitment must not be overdue")
	}
}

func TestUpdateRecurringTransitions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "u1", CreateParams{
		TaskDescription:   "weekly review",
		IsRecurring:       true,
		RecurrencePattern: commitment.RecurWeekly,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(ctx, "u1", created.ID, UpdateParams{IsRecurring: ptr(false)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.IsRecurring || updated.RecurrencePattern != "" {
		t.Errorf("turning recurring off: got recurring=%v pattern=%q, want false and empty", updated.IsRecurring, updated.RecurrencePattern)
	}

	_, err = svc.Update(ctx, "u1", created.ID, UpdateParams{IsRecurring: ptr(true)})
	if !errors.IsCode(err, errors.CodeValidation) {
		t.Fatalf("turning recurring on without pattern: err = %v, want validation error", err)
	}
}

func TestUpdateClearDeadline(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	deadline := testNow.Add(-time.Hour)
	created, err := svc.Create(ctx, "u1", CreateParams{TaskDescription: "send invoice", Deadline: &deadline})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(ctx, "u1", created.ID, UpdateParams{ClearDeadline: true})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Deadline != nil {
		t.Errorf("deadline = %v, want cleared", updated.Deadline)
	}

	got, err := svc.Get(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Overdue {
		t.Error("commitment without deadline can never be overdue")
	}
}

func TestListPriorityOrdering(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	overdue := testNow.Add(-24 * time.Hour)
	today := testNow.Add(2 * time.Hour)
	later := testNow.Add(7 * 24 * time.Hour)

	if _, err := svc.Create(ctx, "u1", CreateParams{TaskDescription: "someday", Deadline: &later}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "u1", CreateParams{TaskDescription: "due today", Deadline: &today}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "u1", CreateParams{TaskDescription: "late", Deadline: &overdue}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "u1", CreateParams{TaskDescription: "no deadline"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	listed, err := svc.List(ctx, "u1", SortByDeadline, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listed) != 4 {
		t.Fatalf("List returned %d commitments, want 4", len(listed))
	}

	want := []string{"late", "due today", "someday", "no deadline"}
	for i, desc := range want {
		if listed[i].TaskDescription != desc {
			t.Errorf("listed[%d] = %q, want %q", i, listed[i].TaskDescription, desc)
		}
	}
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, "u1", CreateParams{TaskDescription: "secret errand"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(ctx, "u2", created.ID); !errors.IsCode(err, errors.CodeNotFound) {
		t.Errorf("Get as other user: err = %v, want not found", err)
	}
	if _, err := svc.Complete(ctx, "u2", created.ID); !errors.IsCode(err, errors.CodeNotFound) {
		t.Errorf("Complete as other user: err = %v, want not found", err)
	}
	if err := svc.Delete(ctx, "u2", created.ID); !errors.IsCode(err, errors.CodeNotFound) {
		t.Errorf("Delete as other user: err = %v, want not found", err)
	}

	// The owner still sees it untouched.
	got, err := svc.Get(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("owner Get: %v", err)
	}
	if got.Status != commitment.StatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
}
