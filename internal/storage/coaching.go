package storage

import (
	"context"
	"database/sql"

	"github.com/julianstephens/habitstore/internal/models"
)

// CoachingCache keeps at most one nudge per day and one insight per week.
type CoachingCache interface {
	GetNudge(ctx context.Context, date string) (models.DailyNudge, bool, error)
	SaveNudge(ctx context.Context, nudge models.DailyNudge) error
	GetInsight(ctx context.Context, weekOf string) (models.WeeklyInsight, bool, error)
	SaveInsight(ctx context.Context, insight models.WeeklyInsight) error
	// EvictCoaching removes nudges and insights keyed before cutoff.
	EvictCoaching(ctx context.Context, cutoff string) error
}

const (
	NudgeColumns   = "date, message, generated_at, source"
	InsightColumns = "week_of, summary, top_performing_habit, most_at_risk_habit, recommendation, overall_score, generated_at, source"
)

func EncodeNudge(n models.DailyNudge) []any {
	return []any{n.Date, n.Message, n.GeneratedAt, n.Source}
}

func ScanNudge(row Scanner) (models.DailyNudge, error) {
	var n models.DailyNudge
	err := row.Scan(&n.Date, &n.Message, &n.GeneratedAt, &n.Source)
	return n, err
}

func EncodeInsight(in models.WeeklyInsight) []any {
	return []any{
		in.WeekOf,
		in.Summary,
		nullString(in.TopPerformingHabit),
		nullString(in.MostAtRiskHabit),
		in.Recommendation,
		in.OverallScore,
		in.GeneratedAt,
		in.Source,
	}
}

func ScanInsight(row Scanner) (models.WeeklyInsight, error) {
	var (
		in       models.WeeklyInsight
		top, low sql.NullString
	)
	err := row.Scan(&in.WeekOf, &in.Summary, &top, &low, &in.Recommendation,
		&in.OverallScore, &in.GeneratedAt, &in.Source)
	if err != nil {
		return models.WeeklyInsight{}, err
	}
	if top.Valid {
		in.TopPerformingHabit = &top.String
	}
	if low.Valid {
		in.MostAtRiskHabit = &low.String
	}
	return in, nil
}
