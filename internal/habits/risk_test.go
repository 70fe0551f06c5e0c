package habits

import (
	"testing"
	"time"

	"github.com/julianstephens/habitstore/internal/models"
)

func TestAssessRisk(t *testing.T) {
	// Thursday; the previous Thursdays are 01-25, 01-18, 01-11, 01-04
	now := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	longAgo := time.Date(2023, 12, 1, 8, 0, 0, 0, time.UTC).UnixMilli()

	tests := []struct {
		name         string
		createdAt    int64
		dates        models.DateSet
		wantAssessed bool
		wantAtRisk   bool
		wantMissRate float64
	}{
		{
			name:         "missed three of four",
			createdAt:    longAgo,
			dates:        models.NewDateSet("2024-01-25"),
			wantAssessed: true,
			wantAtRisk:   true,
			wantMissRate: 0.75,
		},
		{
			name:         "missed one of four",
			createdAt:    longAgo,
			dates:        models.NewDateSet("2024-01-25", "2024-01-18", "2024-01-11"),
			wantAssessed: true,
			wantAtRisk:   false,
			wantMissRate: 0.25,
		},
		{
			name:         "exactly half is at risk",
			createdAt:    longAgo,
			dates:        models.NewDateSet("2024-01-25", "2024-01-18"),
			wantAssessed: true,
			wantAtRisk:   true,
			wantMissRate: 0.5,
		},
		{
			name:         "other weekdays do not count",
			createdAt:    longAgo,
			dates:        models.NewDateSet("2024-01-24", "2024-01-26", "2024-01-31"),
			wantAssessed: true,
			wantAtRisk:   true,
			wantMissRate: 1,
		},
		{
			name:         "too new to assess",
			createdAt:    time.Date(2024, 1, 20, 8, 0, 0, 0, time.UTC).UnixMilli(),
			dates:        nil,
			wantAssessed: false,
			wantAtRisk:   false,
		},
		{
			name:         "creation day is inside the window",
			createdAt:    time.Date(2024, 1, 18, 23, 0, 0, 0, time.UTC).UnixMilli(),
			dates:        models.NewDateSet("2024-01-25"),
			wantAssessed: true,
			wantAtRisk:   true,
			wantMissRate: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := models.Habit{ID: "h", CreatedAt: tt.createdAt, CompletedDates: tt.dates}
			got := AssessRisk(h, now)

			if got.Assessed != tt.wantAssessed {
				t.Errorf("Assessed = %v, want %v", got.Assessed, tt.wantAssessed)
			}
			if got.AtRisk != tt.wantAtRisk {
				t.Errorf("AtRisk = %v, want %v", got.AtRisk, tt.wantAtRisk)
			}
			if !approxEqual(got.MissRate, tt.wantMissRate) {
				t.Errorf("MissRate = %v, want %v", got.MissRate, tt.wantMissRate)
			}
		})
	}
}

func TestDetectAtRisk(t *testing.T) {
	now := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	longAgo := time.Date(2023, 12, 1, 8, 0, 0, 0, time.UTC).UnixMilli()

	habits := []models.Habit{
		{ID: "steady", CreatedAt: longAgo, CompletedDates: models.NewDateSet("2024-01-25", "2024-01-18", "2024-01-11", "2024-01-04")},
		{ID: "slipping", CreatedAt: longAgo},
		{ID: "new", CreatedAt: now.UnixMilli()},
	}

	atRisk := DetectAtRisk(habits, now)
	if len(atRisk) != 1 {
		t.Fatalf("expected 1 habit at risk, got %d", len(atRisk))
	}
	if atRisk[0].Habit.ID != "slipping" {
		t.Errorf("expected 'slipping' at risk, got %q", atRisk[0].Habit.ID)
	}
}
