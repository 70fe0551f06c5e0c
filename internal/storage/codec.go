package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/julianstephens/habitstore/internal/constants"
	"github.com/julianstephens/habitstore/internal/models"
)

// HabitColumns lists the habits columns in the order EncodeHabit and
// ScanHabit use.
const HabitColumns = "id, title, description, is_completed, created_at, completed_dates"

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// EncodeDates joins the set in sorted order. An empty set encodes to "".
func EncodeDates(dates models.DateSet) string {
	if dates.Len() == 0 {
		return ""
	}
	return strings.Join(dates.Sorted(), constants.CompletedDatesSeparator)
}

// DecodeDates is the inverse of EncodeDates. NULL, "" and stray separators
// yield an empty, non-nil set.
func DecodeDates(stored sql.NullString) models.DateSet {
	dates := models.DateSet{}
	if !stored.Valid || stored.String == "" {
		return dates
	}
	for _, d := range strings.Split(stored.String, constants.CompletedDatesSeparator) {
		if d == "" {
			continue
		}
		dates[d] = struct{}{}
	}
	return dates
}

// EncodeHabit returns the column values of h in HabitColumns order.
func EncodeHabit(h models.Habit) []any {
	return []any{
		h.ID,
		nullString(h.Title),
		nullString(h.Description),
		boolToInt(h.IsCompleted),
		h.CreatedAt,
		EncodeDates(h.CompletedDates),
	}
}

// ScanHabit reads one row laid out as HabitColumns.
func ScanHabit(row Scanner) (models.Habit, error) {
	var h models.Habit
	var title, description, completedDates sql.NullString
	var isCompleted int64

	if err := row.Scan(&h.ID, &title, &description, &isCompleted, &h.CreatedAt, &completedDates); err != nil {
		return models.Habit{}, err
	}

	switch isCompleted {
	case 0:
	case 1:
		h.IsCompleted = true
	default:
		return models.Habit{}, fmt.Errorf("invalid is_completed value %d for habit %s", isCompleted, h.ID)
	}

	if title.Valid {
		h.Title = &title.String
	}
	if description.Valid {
		h.Description = &description.String
	}
	h.CompletedDates = DecodeDates(completedDates)

	return h, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
