package habits

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/habitstore/internal/models"
	"github.com/julianstephens/habitstore/internal/storage"
	"github.com/julianstephens/habitstore/internal/storage/sqlite"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func setupTestService(t *testing.T) (*Service, *fakeClock) {
	t.Helper()

	store := sqlite.NewStore(filepath.Join(t.TempDir(), "habits.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	clock := &fakeClock{now: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)}
	return NewService(store, WithClock(clock.Now), WithLocation(time.UTC)), clock
}

func TestServiceCreate(t *testing.T) {
	svc, clock := setupTestService(t)
	ctx := context.Background()

	habit, err := svc.Create(ctx, "  Run  ", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := uuid.Parse(habit.ID); err != nil {
		t.Errorf("expected a UUID id, got %q", habit.ID)
	}
	if habit.TitleOrEmpty() != "Run" {
		t.Errorf("expected trimmed title, got %q", habit.TitleOrEmpty())
	}
	if habit.Description != nil {
		t.Errorf("expected null description, got %q", *habit.Description)
	}
	if habit.CreatedAt != clock.now.UnixMilli() {
		t.Errorf("CreatedAt = %d, want %d", habit.CreatedAt, clock.now.UnixMilli())
	}

	stored, found, err := svc.Get(ctx, habit.ID)
	if err != nil || !found {
		t.Fatalf("Get failed: found=%v err=%v", found, err)
	}
	if !stored.Equal(habit) {
		t.Errorf("stored habit %+v differs from created %+v", stored, habit)
	}
}

func TestServiceCreateRejectsEmptyTitle(t *testing.T) {
	svc, _ := setupTestService(t)

	if _, err := svc.Create(context.Background(), "   ", "desc"); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
}

func TestServiceEdit(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	habit, err := svc.Create(ctx, "Run", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	edited, err := svc.Edit(ctx, habit.ID, "Run 5k", "before breakfast")
	if err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if edited.TitleOrEmpty() != "Run 5k" || edited.DescriptionOrEmpty() != "before breakfast" {
		t.Errorf("unexpected edit result: %+v", edited)
	}
	if edited.CreatedAt != habit.CreatedAt {
		t.Error("Edit must not change CreatedAt")
	}

	if _, err := svc.Edit(ctx, "missing", "x", ""); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing habit, got %v", err)
	}
}

func TestServiceComplete(t *testing.T) {
	svc, clock := setupTestService(t)
	ctx := context.Background()

	habit, err := svc.Create(ctx, "Run", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	done, err := svc.Complete(ctx, habit.ID, true)
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if !done.IsCompleted || !done.CompletedDates.Has("2024-01-10") {
		t.Errorf("expected today completed, got %+v", done)
	}

	clock.now = clock.now.AddDate(0, 0, 1)
	if _, err := svc.Complete(ctx, habit.ID, true); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	undone, err := svc.Complete(ctx, habit.ID, false)
	if err != nil {
		t.Fatalf("undo failed: %v", err)
	}
	if undone.IsCompleted {
		t.Error("expected IsCompleted=false after undo")
	}
	if got := undone.CompletedDates.Sorted(); len(got) != 1 || got[0] != "2024-01-10" {
		t.Errorf("undo should only remove today, got %v", got)
	}

	if _, err := svc.Complete(ctx, "missing", true); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing habit, got %v", err)
	}
}

func TestServiceToggle(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	habit, err := svc.Create(ctx, "Read", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	on, err := svc.Toggle(ctx, habit.ID)
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if !on.CompletedDates.Has(svc.Today()) {
		t.Error("first toggle should complete today")
	}

	off, err := svc.Toggle(ctx, habit.ID)
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if off.CompletedDates.Has(svc.Today()) {
		t.Error("second toggle should clear today")
	}
}

func TestServiceListAndDelete(t *testing.T) {
	svc, clock := setupTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, "First", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	clock.now = clock.now.Add(time.Minute)
	second, err := svc.Create(ctx, "Second", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}

	if err := svc.Delete(ctx, first.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := svc.Delete(ctx, first.ID); err != nil {
		t.Errorf("deleting twice should succeed, got %v", err)
	}

	list, err = svc.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != second.ID {
		t.Errorf("unexpected list after delete: %+v", list)
	}
}

func TestServiceWatch(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	sub, err := svc.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer sub.Close()

	select {
	case snapshot := <-sub.Updates():
		if len(snapshot) != 0 {
			t.Fatalf("expected empty initial snapshot, got %d", len(snapshot))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for initial snapshot")
	}

	habit, err := svc.Create(ctx, "Meditate", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	select {
	case snapshot := <-sub.Updates():
		if len(snapshot) != 1 || snapshot[0].ID != habit.ID {
			t.Errorf("expected the new habit in the snapshot, got %+v", snapshot)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for update")
	}
}

func TestServiceStatsAndRisk(t *testing.T) {
	svc, clock := setupTestService(t)
	ctx := context.Background()

	clock.now = time.Date(2023, 12, 1, 9, 0, 0, 0, time.UTC)
	if _, err := svc.Create(ctx, "Stretch", ""); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	clock.now = time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalHabits != 1 || stats.CurrentStreak != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	atRisk, err := svc.AtRisk(ctx)
	if err != nil {
		t.Fatalf("AtRisk failed: %v", err)
	}
	if len(atRisk) != 1 || atRisk[0].MissRate != 1 {
		t.Errorf("expected a never-completed habit to be at risk, got %+v", atRisk)
	}
}

func TestServiceNudgeIsCachedPerDay(t *testing.T) {
	svc, clock := setupTestService(t)
	ctx := context.Background()

	if svc.cache == nil {
		t.Fatal("expected the sqlite store to provide the coaching cache")
	}

	habit, err := svc.Create(ctx, "Run", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first, err := svc.Nudge(ctx, false)
	if err != nil {
		t.Fatalf("Nudge failed: %v", err)
	}
	if !strings.HasPrefix(first.Message, "Your habits are waiting") {
		t.Errorf("first nudge = %q", first.Message)
	}

	if _, err := svc.Complete(ctx, habit.ID, true); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	cached, err := svc.Nudge(ctx, false)
	if err != nil {
		t.Fatalf("Nudge failed: %v", err)
	}
	if cached != first {
		t.Errorf("expected cached nudge %+v, got %+v", first, cached)
	}

	refreshed, err := svc.Nudge(ctx, true)
	if err != nil {
		t.Fatalf("Nudge refresh failed: %v", err)
	}
	if !strings.HasPrefix(refreshed.Message, "All habits done today!") {
		t.Errorf("refreshed nudge = %q", refreshed.Message)
	}
	if again, _ := svc.Nudge(ctx, false); again.Message != refreshed.Message {
		t.Errorf("refresh was not cached, got %q", again.Message)
	}

	clock.now = clock.now.AddDate(0, 0, 1)
	next, err := svc.Nudge(ctx, false)
	if err != nil {
		t.Fatalf("Nudge failed: %v", err)
	}
	if next.Date != "2024-01-11" || next.Message == refreshed.Message {
		t.Errorf("expected a new nudge for the next day, got %+v", next)
	}
}

func TestServiceCoachingEvictsOldEntries(t *testing.T) {
	svc, _ := setupTestService(t)
	ctx := context.Background()

	old := models.DailyNudge{Date: "2023-11-01", Message: "old", Source: models.SourceRules}
	if err := svc.cache.SaveNudge(ctx, old); err != nil {
		t.Fatalf("SaveNudge failed: %v", err)
	}
	recent := models.DailyNudge{Date: "2024-01-01", Message: "recent", Source: models.SourceRules}
	if err := svc.cache.SaveNudge(ctx, recent); err != nil {
		t.Fatalf("SaveNudge failed: %v", err)
	}

	if _, err := svc.Nudge(ctx, false); err != nil {
		t.Fatalf("Nudge failed: %v", err)
	}

	if _, found, err := svc.cache.GetNudge(ctx, old.Date); err != nil || found {
		t.Errorf("expected old nudge to be evicted, found=%v err=%v", found, err)
	}
	if _, found, err := svc.cache.GetNudge(ctx, recent.Date); err != nil || !found {
		t.Errorf("expected recent nudge to stay, found=%v err=%v", found, err)
	}
}

func TestServiceInsightIsCachedPerWeek(t *testing.T) {
	svc, clock := setupTestService(t)
	ctx := context.Background()

	habit, err := svc.Create(ctx, "Run", "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	first, err := svc.Insight(ctx, false)
	if err != nil {
		t.Fatalf("Insight failed: %v", err)
	}
	if first.WeekOf != "2024-01-08" || first.OverallScore != 0 {
		t.Errorf("unexpected first insight: %+v", first)
	}

	if _, err := svc.Complete(ctx, habit.ID, true); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	// Later in the same week
	clock.now = clock.now.Add(2 * time.Hour)
	cached, err := svc.Insight(ctx, false)
	if err != nil {
		t.Fatalf("Insight failed: %v", err)
	}
	if cached.GeneratedAt != first.GeneratedAt || cached.OverallScore != first.OverallScore {
		t.Errorf("expected cached insight, got %+v", cached)
	}

	refreshed, err := svc.Insight(ctx, true)
	if err != nil {
		t.Fatalf("Insight refresh failed: %v", err)
	}
	if refreshed.OverallScore != 100 {
		t.Errorf("refreshed score = %d, want 100", refreshed.OverallScore)
	}
	if refreshed.TopPerformingHabit == nil || *refreshed.TopPerformingHabit != "Run" {
		t.Errorf("TopPerformingHabit = %v", refreshed.TopPerformingHabit)
	}
}
