package habit

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const MaxNameLength = 64

var ErrEmptyName = errors.New("habit name is required")

type Habit struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Completion records that a habit was done on CompletedDate (yyyy-MM-dd).
// At most one exists per (HabitID, CompletedDate).
type Completion struct {
	ID            string    `json:"id"`
	HabitID       string    `json:"habit_id"`
	CompletedDate string    `json:"completed_date"`
	CreatedAt     time.Time `json:"created_at"`
}

type HabitSummary struct {
	HabitID           string  `json:"habit_id"`
	Name              string  `json:"name"`
	CreatedAt         int64   `json:"created_at"`
	CurrentStreak     int     `json:"current_streak"`
	LongestStreak     int     `json:"longest_streak"`
	TotalCompletions  int     `json:"total_completions"`
	TotalMissedDays   int     `json:"total_missed_days"`
	TotalEligibleDays int     `json:"total_eligible_days"`
	CompletionRatio   float64 `json:"completion_ratio"`
	LastCompleted     string  `json:"last_completed,omitempty"`
}

// NormalizeName trims name and checks it is usable as a display name.
func NormalizeName(name string) (string, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return "", ErrEmptyName
	}
	if utf8.RuneCountInString(n) > MaxNameLength {
		return "", fmt.Errorf("bad habit name: must be 1-%d characters", MaxNameLength)
	}
	return n, nil
}
