package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/julianstephens/habitstore/internal/constants"
	"github.com/julianstephens/habitstore/internal/logger"
	"github.com/julianstephens/habitstore/internal/models"
	"github.com/julianstephens/habitstore/internal/storage"
)

const (
	insertHabitSQL = `
		INSERT INTO habits (` + storage.HabitColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			is_completed = EXCLUDED.is_completed,
			created_at = EXCLUDED.created_at,
			completed_dates = EXCLUDED.completed_dates`

	updateHabitSQL = `
		UPDATE habits SET
			title = $2, description = $3, is_completed = $4, created_at = $5, completed_dates = $6
		WHERE id = $1`

	deleteHabitSQL = `DELETE FROM habits WHERE id = $1`

	selectHabitSQL = `SELECT ` + storage.HabitColumns + ` FROM habits WHERE id = $1 LIMIT 1`

	selectAllHabitsSQL = `SELECT ` + storage.HabitColumns + ` FROM habits ORDER BY created_at DESC`

	// Delivered to listeners only when the surrounding transaction commits
	notifySQL = `SELECT pg_notify($1, $2)`
)

// payloadSeparator splits the origin from the habit id in a notification
const payloadSeparator = ":"

func encodePayload(origin, id string) string {
	return origin + payloadSeparator + id
}

// parsePayload splits a notification payload. Payloads without an origin
// are treated as coming from another store.
func parsePayload(extra string) (origin, id string) {
	origin, id, ok := strings.Cut(extra, payloadSeparator)
	if !ok {
		return "", extra
	}
	return origin, id
}

func (s *Store) notifyChange(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, notifySQL, constants.PostgresNotifyChannel, encodePayload(s.origin, id))
	return err
}

func (s *Store) Insert(ctx context.Context, habit models.Habit) error {
	if err := habit.Validate(); err != nil {
		return err
	}
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, insertHabitSQL, storage.EncodeHabit(habit)...); err != nil {
			return err
		}
		return s.notifyChange(ctx, tx, habit.ID)
	})
	if err != nil {
		return storage.Wrap("insert habit", err)
	}

	logger.Debug("Inserted habit", "id", habit.ID)
	s.tracker.Notify(constants.HabitsTable)
	return nil
}

func (s *Store) Update(ctx context.Context, habit models.Habit) error {
	if err := habit.Validate(); err != nil {
		return err
	}
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, updateHabitSQL, storage.EncodeHabit(habit)...)
		if err != nil {
			return err
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return &storage.NotFoundError{ID: habit.ID}
		}
		return s.notifyChange(ctx, tx, habit.ID)
	})
	if err != nil {
		var notFound *storage.NotFoundError
		if errors.As(err, &notFound) {
			return err
		}
		return storage.Wrap("update habit", err)
	}

	logger.Debug("Updated habit", "id", habit.ID)
	s.tracker.Notify(constants.HabitsTable)
	return nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	if s.db == nil {
		return storage.ErrNotLoaded
	}

	var removed int64
	err := storage.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, deleteHabitSQL, id)
		if err != nil {
			return err
		}
		if removed, err = result.RowsAffected(); err != nil {
			return err
		}
		if removed == 0 {
			return nil
		}
		return s.notifyChange(ctx, tx, id)
	})
	if err != nil {
		return storage.Wrap("delete habit", err)
	}

	if removed > 0 {
		logger.Debug("Deleted habit", "id", id)
		s.tracker.Notify(constants.HabitsTable)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (models.Habit, bool, error) {
	if s.db == nil {
		return models.Habit{}, false, storage.ErrNotLoaded
	}

	habit, err := storage.ScanHabit(s.db.QueryRowContext(ctx, selectHabitSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Habit{}, false, nil
		}
		return models.Habit{}, false, storage.Wrap("get habit", err)
	}
	return habit, true, nil
}

func (s *Store) ObserveAll(ctx context.Context) (*storage.Subscription, error) {
	if s.db == nil {
		return nil, storage.ErrNotLoaded
	}
	return storage.Observe(ctx, s.tracker, constants.HabitsTable, s.getAll), nil
}

func (s *Store) getAll(ctx context.Context) ([]models.Habit, error) {
	rows, err := s.db.QueryContext(ctx, selectAllHabitsSQL)
	if err != nil {
		return nil, storage.Wrap("list habits", err)
	}
	defer rows.Close()

	habits := []models.Habit{}
	for rows.Next() {
		h, err := storage.ScanHabit(rows)
		if err != nil {
			return nil, storage.Wrap("list habits", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Wrap("list habits", err)
	}

	return habits, nil
}
