package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/julianstephens/habitstore/internal/constants"
	"github.com/julianstephens/habitstore/internal/models"
)

func TestNudgeCache(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, found, err := store.GetNudge(ctx, "2024-01-10"); err != nil || found {
		t.Fatalf("expected no nudge, found=%v err=%v", found, err)
	}

	nudge := models.DailyNudge{Date: "2024-01-10", Message: "first", GeneratedAt: 1, Source: models.SourceRules}
	if err := store.SaveNudge(ctx, nudge); err != nil {
		t.Fatalf("SaveNudge failed: %v", err)
	}
	nudge.Message = "second"
	if err := store.SaveNudge(ctx, nudge); err != nil {
		t.Fatalf("SaveNudge replace failed: %v", err)
	}

	got, found, err := store.GetNudge(ctx, "2024-01-10")
	if err != nil || !found {
		t.Fatalf("GetNudge found=%v err=%v", found, err)
	}
	if got != nudge {
		t.Errorf("got %+v, want %+v", got, nudge)
	}
}

func TestInsightCache(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	insight := models.WeeklyInsight{
		WeekOf:             "2024-01-08",
		Summary:            "Habit completion this week: 50%",
		TopPerformingHabit: models.StringPtr("Run"),
		Recommendation:     "More than halfway there.",
		OverallScore:       50,
		GeneratedAt:        42,
		Source:             models.SourceRules,
	}
	if err := store.SaveInsight(ctx, insight); err != nil {
		t.Fatalf("SaveInsight failed: %v", err)
	}

	got, found, err := store.GetInsight(ctx, "2024-01-08")
	if err != nil || !found {
		t.Fatalf("GetInsight found=%v err=%v", found, err)
	}
	if got.TopPerformingHabit == nil || *got.TopPerformingHabit != "Run" {
		t.Errorf("TopPerformingHabit = %v", got.TopPerformingHabit)
	}
	if got.MostAtRiskHabit != nil {
		t.Errorf("MostAtRiskHabit should stay null, got %q", *got.MostAtRiskHabit)
	}
	if got.Summary != insight.Summary || got.OverallScore != 50 || got.GeneratedAt != 42 {
		t.Errorf("got %+v", got)
	}
}

func TestEvictCoaching(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, date := range []string{"2023-11-01", "2024-01-10"} {
		if err := store.SaveNudge(ctx, models.DailyNudge{Date: date, Message: date, Source: models.SourceRules}); err != nil {
			t.Fatalf("SaveNudge failed: %v", err)
		}
		if err := store.SaveInsight(ctx, models.WeeklyInsight{WeekOf: date, Source: models.SourceRules}); err != nil {
			t.Fatalf("SaveInsight failed: %v", err)
		}
	}

	if err := store.EvictCoaching(ctx, "2023-12-11"); err != nil {
		t.Fatalf("EvictCoaching failed: %v", err)
	}

	if _, found, _ := store.GetNudge(ctx, "2023-11-01"); found {
		t.Error("old nudge was not evicted")
	}
	if _, found, _ := store.GetInsight(ctx, "2023-11-01"); found {
		t.Error("old insight was not evicted")
	}
	if _, found, _ := store.GetNudge(ctx, "2024-01-10"); !found {
		t.Error("recent nudge was evicted")
	}
	if _, found, _ := store.GetInsight(ctx, "2024-01-10"); !found {
		t.Error("recent insight was evicted")
	}
}

func TestCoachingWritesDoNotEmitHabits(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	sub, err := store.ObserveAll(ctx)
	if err != nil {
		t.Fatalf("ObserveAll failed: %v", err)
	}
	defer sub.Close()
	nextSnapshot(t, sub)

	if err := store.SaveNudge(ctx, models.DailyNudge{Date: "2024-01-10", Message: "m", Source: models.SourceRules}); err != nil {
		t.Fatalf("SaveNudge failed: %v", err)
	}

	select {
	case snapshot := <-sub.Updates():
		t.Fatalf("cache write produced a habits snapshot: %v", ids(snapshot))
	case <-time.After(3 * constants.SQLitePollInterval):
	}
}
