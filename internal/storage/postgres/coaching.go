package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/julianstephens/habitstore/internal/models"
	"github.com/julianstephens/habitstore/internal/storage"
)

const (
	selectNudgeSQL = `SELECT ` + storage.NudgeColumns + ` FROM daily_nudges WHERE date = $1 LIMIT 1`

	replaceNudgeSQL = `
		INSERT INTO daily_nudges (` + storage.NudgeColumns + `)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (date) DO UPDATE SET
			message = EXCLUDED.message,
			generated_at = EXCLUDED.generated_at,
			source = EXCLUDED.source`

	evictNudgesSQL = `DELETE FROM daily_nudges WHERE date < $1`

	selectInsightSQL = `SELECT ` + storage.InsightColumns + ` FROM weekly_insights WHERE week_of = $1 LIMIT 1`

	replaceInsightSQL = `
		INSERT INTO weekly_insights (` + storage.InsightColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (week_of) DO UPDATE SET
			summary = EXCLUDED.summary,
			top_performing_habit = EXCLUDED.top_performing_habit,
			most_at_risk_habit = EXCLUDED.most_at_risk_habit,
			recommendation = EXCLUDED.recommendation,
			overall_score = EXCLUDED.overall_score,
			generated_at = EXCLUDED.generated_at,
			source = EXCLUDED.source`

	evictInsightsSQL = `DELETE FROM weekly_insights WHERE week_of < $1`
)

func (s *Store) GetNudge(ctx context.Context, date string) (models.DailyNudge, bool, error) {
	if s.db == nil {
		return models.DailyNudge{}, false, storage.ErrNotLoaded
	}
	nudge, err := storage.ScanNudge(s.db.QueryRowContext(ctx, selectNudgeSQL, date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DailyNudge{}, false, nil
		}
		return models.DailyNudge{}, false, storage.Wrap("get nudge", err)
	}
	return nudge, true, nil
}

func (s *Store) SaveNudge(ctx context.Context, nudge models.DailyNudge) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, replaceNudgeSQL, storage.EncodeNudge(nudge)...)
		return err
	})
	return storage.Wrap("save nudge", err)
}

func (s *Store) GetInsight(ctx context.Context, weekOf string) (models.WeeklyInsight, bool, error) {
	if s.db == nil {
		return models.WeeklyInsight{}, false, storage.ErrNotLoaded
	}
	insight, err := storage.ScanInsight(s.db.QueryRowContext(ctx, selectInsightSQL, weekOf))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.WeeklyInsight{}, false, nil
		}
		return models.WeeklyInsight{}, false, storage.Wrap("get insight", err)
	}
	return insight, true, nil
}

func (s *Store) SaveInsight(ctx context.Context, insight models.WeeklyInsight) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, replaceInsightSQL, storage.EncodeInsight(insight)...)
		return err
	})
	return storage.Wrap("save insight", err)
}

func (s *Store) EvictCoaching(ctx context.Context, cutoff string) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, evictNudgesSQL, cutoff); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, evictInsightsSQL, cutoff)
		return err
	})
	return storage.Wrap("evict coaching cache", err)
}
