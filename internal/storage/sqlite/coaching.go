package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/julianstephens/habitstore/internal/models"
	"github.com/julianstephens/habitstore/internal/storage"
)

const (
	selectNudgeSQL  = `SELECT ` + storage.NudgeColumns + ` FROM daily_nudges WHERE date = ? LIMIT 1`
	replaceNudgeSQL = `INSERT OR REPLACE INTO daily_nudges (` + storage.NudgeColumns + `) VALUES (?, ?, ?, ?)`
	evictNudgesSQL  = `DELETE FROM daily_nudges WHERE date < ?`

	selectInsightSQL  = `SELECT ` + storage.InsightColumns + ` FROM weekly_insights WHERE week_of = ? LIMIT 1`
	replaceInsightSQL = `INSERT OR REPLACE INTO weekly_insights (` + storage.InsightColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	evictInsightsSQL  = `DELETE FROM weekly_insights WHERE week_of < ?`
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
	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
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
	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, replaceInsightSQL, storage.EncodeInsight(insight)...)
		return err
	})
	return storage.Wrap("save insight", err)
}

func (s *Store) EvictCoaching(ctx context.Context, cutoff string) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}
	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, evictNudgesSQL, cutoff); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, evictInsightsSQL, cutoff)
		return err
	})
	return storage.Wrap("evict coaching cache", err)
}
