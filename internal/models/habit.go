package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/habitstore/internal/constants"
)

// Habit represents a recurring practice and the days it was done
type Habit struct {
	ID             string  `json:"id"`
	Title          *string `json:"title,omitempty"`
	Description    *string `json:"description,omitempty"`
	IsCompleted    bool    `json:"is_completed"`
	CreatedAt      int64   `json:"created_at"` // epoch millis
	CompletedDates DateSet `json:"completed_dates"`
}

var (
	ErrEmptyHabitID         = errors.New("habit id must not be empty")
	ErrInvalidCompletedDate = errors.New("invalid completed date")
)

// Validate reports whether the habit can be persisted. Completed dates must
// survive the single-column encoding, so they may not be empty or contain
// the separator.
func (h Habit) Validate() error {
	if h.ID == "" {
		return ErrEmptyHabitID
	}
	for d := range h.CompletedDates {
		if d == "" || strings.Contains(d, constants.CompletedDatesSeparator) {
			return fmt.Errorf("%w: %q", ErrInvalidCompletedDate, d)
		}
	}
	return nil
}

// CreatedTime returns CreatedAt as a time in the given location.
func (h Habit) CreatedTime(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(h.CreatedAt).In(loc)
}

// TitleOrEmpty returns the title, or "" when it is null.
func (h Habit) TitleOrEmpty() string {
	if h.Title == nil {
		return ""
	}
	return *h.Title
}

// DescriptionOrEmpty returns the description, or "" when it is null.
func (h Habit) DescriptionOrEmpty() string {
	if h.Description == nil {
		return ""
	}
	return *h.Description
}

// Equal compares every persisted field. Nil and empty date sets are equal.
func (h Habit) Equal(other Habit) bool {
	return h.ID == other.ID &&
		equalNullable(h.Title, other.Title) &&
		equalNullable(h.Description, other.Description) &&
		h.IsCompleted == other.IsCompleted &&
		h.CreatedAt == other.CreatedAt &&
		h.CompletedDates.Equal(other.CompletedDates)
}

func equalNullable(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}

// MillisOf converts t to epoch milliseconds.
func MillisOf(t time.Time) int64 {
	return t.UnixMilli()
}

// DateSet is a set of YYYY-MM-DD date strings
type DateSet map[string]struct{}

// NewDateSet builds a set from the given dates.
func NewDateSet(dates ...string) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s[d] = struct{}{}
	}
	return s
}

func (s DateSet) Has(date string) bool {
	_, ok := s[date]
	return ok
}

func (s DateSet) Len() int {
	return len(s)
}

// Add returns a copy of s containing date.
func (s DateSet) Add(date string) DateSet {
	c := s.Clone()
	c[date] = struct{}{}
	return c
}

// Remove returns a copy of s without date.
func (s DateSet) Remove(date string) DateSet {
	c := s.Clone()
	delete(c, date)
	return c
}

// Clone returns a non-nil copy of s.
func (s DateSet) Clone() DateSet {
	c := make(DateSet, len(s))
	for d := range s {
		c[d] = struct{}{}
	}
	return c
}

// Sorted returns the members in ascending order.
func (s DateSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (s DateSet) Equal(other DateSet) bool {
	if len(s) != len(other) {
		return false
	}
	for d := range s {
		if !other.Has(d) {
			return false
		}
	}
	return true
}
