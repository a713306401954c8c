package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tendhq/tend/internal/app/domain/checkin"
	"github.com/tendhq/tend/internal/app/domain/commitment"
	"github.com/tendhq/tend/internal/app/domain/habit"
	"github.com/tendhq/tend/internal/app/storage"
	"github.com/tendhq/tend/internal/app/storage/memory"
	"github.com/tendhq/tend/internal/errors"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	store.NowFunc = func() time.Time { return testNow }
	svc := New(store, store, store, store, nil).WithNow(func() time.Time { return testNow })
	return svc, store
}

func TestOverviewZeroActivity(t *testing.T) {
	svc, _ := newTestService(t)

	overview, err := svc.Overview(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Overview with no data must succeed, got %v", err)
	}
	if overview.CurrentMood != nil {
		t.Errorf("CurrentMood = %v, want nil with no check-in today", *overview.CurrentMood)
	}
	if overview.HabitsCompletedToday != 0 || overview.LongestStreak != 0 || overview.TotalConversations != 0 {
		t.Errorf("zero-activity overview = %+v", overview)
	}
}

func TestOverviewCountsToday(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	h, err := store.CreateHabit(ctx, habit.Habit{UserID: "u1", Name: "read", Frequency: habit.FrequencyDaily, IsActive: true})
	if err != nil {
		t.Fatalf("CreateHabit: %v", err)
	}
	for d := 2; d >= 0; d-- {
		_, err := store.CreateHabitLog(ctx, habit.Log{HabitID: h.ID, CompletedAt: testNow.AddDate(0, 0, -d)})
		if err != nil {
			t.Fatalf("CreateHabitLog: %v", err)
		}
	}

	past := testNow.Add(-24 * time.Hour)
	if _, err := store.CreateCommitment(ctx, commitment.Commitment{
		UserID: "u1", TaskDescription: "late task", Status: commitment.StatusPending, Deadline: &past,
	}); err != nil {
		t.Fatalf("CreateCommitment: %v", err)
	}
	completedAt := testNow.Add(-time.Hour)
	if _, err := store.CreateCommitment(ctx, commitment.Commitment{
		UserID: "u1", TaskDescription: "done today", Status: commitment.StatusCompleted, CompletedAt: &completedAt,
	}); err != nil {
		t.Fatalf("CreateCommitment: %v", err)
	}

	if _, err := store.CreateCheckIn(ctx, checkin.CheckIn{UserID: "u1", Mood: 2, Timestamp: testNow.Add(-3 * time.Hour)}); err != nil {
		t.Fatalf("CreateCheckIn: %v", err)
	}
	if _, err := store.CreateCheckIn(ctx, checkin.CheckIn{UserID: "u1", Mood: 4, Timestamp: testNow.Add(-time.Hour)}); err != nil {
		t.Fatalf("CreateCheckIn: %v", err)
	}

	overview, err := svc.Overview(ctx, "u1")
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if overview.HabitsCompletedToday != 1 {
		t.Errorf("HabitsCompletedToday = %d, want 1", overview.HabitsCompletedToday)
	}
	if overview.LongestStreak != 3 {
		t.Errorf("LongestStreak = %d, want 3", overview.LongestStreak)
	}
	if overview.CommitmentsCompletedToday != 1 {
		t.Errorf("CommitmentsCompletedToday = %d, want 1", overview.CommitmentsCompletedToday)
	}
	if overview.PendingCommitments != 1 || overview.OverdueCommitments != 1 {
		t.Errorf("pending=%d overdue=%d, want 1 and 1", overview.PendingCommitments, overview.OverdueCommitments)
	}
	if overview.CurrentMood == nil || *overview.CurrentMood != 4 {
		t.Errorf("CurrentMood = %v, want latest check-in today (4)", overview.CurrentMood)
	}
}

func TestHabitsReportWindow(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	h, err := store.CreateHabit(ctx, habit.Habit{UserID: "u1", Name: "read", Frequency: habit.FrequencyDaily, IsActive: true})
	if err != nil {
		t.Fatalf("CreateHabit: %v", err)
	}
	// 7 of the last 10 days completed, including a same-day duplicate.
	for _, d := range []int{0, 1, 2, 4, 5, 7, 9, 9} {
		_, err := store.CreateHabitLog(ctx, habit.Log{HabitID: h.ID, CompletedAt: testNow.AddDate(0, 0, -d)})
		if err != nil {
			t.Fatalf("CreateHabitLog: %v", err)
		}
	}

	reports, err := svc.Habits(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("Habits: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	r := reports[0]
	if r.TotalCompletions != 7 {
		t.Errorf("TotalCompletions = %d, want 7 (duplicate deduped)", r.TotalCompletions)
	}
	if r.TotalEligibleDays > 10 {
		t.Errorf("TotalEligibleDays = %d, want at most the window", r.TotalEligibleDays)
	}
	if r.CurrentStreak != 3 {
		t.Errorf("CurrentStreak = %d, want 3", r.CurrentStreak)
	}
	if r.CompletionRate < 0 || r.CompletionRate > 100 {
		t.Errorf("CompletionRate = %d, out of range", r.CompletionRate)
	}
}

func TestCommitmentsReport(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	past := testNow.Add(-24 * time.Hour)
	done := testNow.Add(-time.Hour)
	seeds := []commitment.Commitment{
		{UserID: "u1", TaskDescription: "a", Status: commitment.StatusCompleted, CompletedAt: &done},
		{UserID: "u1", TaskDescription: "b", Status: commitment.StatusPending},
		{UserID: "u1", TaskDescription: "c", Status: commitment.StatusPending, Deadline: &past},
	}
	for _, c := range seeds {
		if _, err := store.CreateCommitment(ctx, c); err != nil {
			t.Fatalf("CreateCommitment: %v", err)
		}
	}

	report, err := svc.Commitments(ctx, "u1", 30)
	if err != nil {
		t.Fatalf("Commitments: %v", err)
	}
	want := CommitmentReport{TotalCreated: 3, TotalCompleted: 1, TotalPending: 2, TotalOverdue: 1, CompletionRate: 33}
	if report != want {
		t.Errorf("report = %+v, want %+v", report, want)
	}
}

func TestMoodReportAverage(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	for d, mood := range map[int]int{0: 4, 1: 2} {
		at := testNow.AddDate(0, 0, -d)
		if _, err := store.CreateCheckIn(ctx, checkin.CheckIn{UserID: "u1", Mood: mood, Timestamp: at}); err != nil {
			t.Fatalf("CreateCheckIn: %v", err)
		}
	}

	report, err := svc.Mood(ctx, "u1", 30)
	if err != nil {
		t.Fatalf("Mood: %v", err)
	}
	if len(report.Trend) != 2 {
		t.Fatalf("trend has %d points, want 2", len(report.Trend))
	}
	if report.AverageMood != 3 {
		t.Errorf("AverageMood = %v, want 3", report.AverageMood)
	}
}

func TestMoodReportEmptyWindow(t *testing.T) {
	svc, _ := newTestService(t)
	report, err := svc.Mood(context.Background(), "u1", 30)
	if err != nil {
		t.Fatalf("Mood with no check-ins must succeed, got %v", err)
	}
	if len(report.Trend) != 0 || report.AverageMood != 0 {
		t.Errorf("empty-window report = %+v", report)
	}
}

// failingCheckIns simulates an unreachable store for one interface.
type failingCheckIns struct {
	storage.CheckInStore
}

func (f failingCheckIns) ListCheckIns(ctx context.Context, userID string, since time.Time) ([]checkin.CheckIn, error) {
	return nil, fmt.Errorf("connection refused")
}

func TestStoreFailureIsDataUnavailable(t *testing.T) {
	store := memory.New()
	svc := New(store, store, failingCheckIns{store}, store, nil).WithNow(func() time.Time { return testNow })

	_, err := svc.Mood(context.Background(), "u1", 30)
	if !errors.IsCode(err, errors.CodeDataUnavailable) {
		t.Fatalf("Mood with failing store: err = %v, want data_unavailable", err)
	}
	_, err = svc.Overview(context.Background(), "u1")
	if !errors.IsCode(err, errors.CodeDataUnavailable) {
		t.Fatalf("Overview with failing store: err = %v, want data_unavailable", err)
	}
}
