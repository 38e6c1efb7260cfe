package storage

import (
	"errors"

	"github.com/brk3/habitgrid/pkg/habit"
)

var ErrNotFound = errors.New("not found")

// Store is the backend's row storage. All habit and completion operations
// are scoped to a user. Completion dates are yyyy-MM-dd strings.
type Store interface {
	PutHabit(userID string, h habit.Habit) error
	GetHabit(userID, habitID string) (habit.Habit, error)
	ListHabits(userID string) ([]habit.Habit, error)
	// DeleteHabit removes the habit and all of its completions.
	DeleteHabit(userID, habitID string) error

	// PutCompletion stores c unless a completion for (c.HabitID,
	// c.CompletedDate) already exists. It returns the stored row and
	// whether it was newly created.
	PutCompletion(userID string, c habit.Completion) (habit.Completion, bool, error)
	DeleteCompletion(userID, habitID, date string) error
	// ListCompletions returns a habit's completions with from <= date <= to,
	// ascending. Empty bounds are open.
	ListCompletions(userID, habitID, from, to string) ([]habit.Completion, error)
	// ListUserCompletions returns completions across all of a user's habits
	// dated on or after since (empty = all), ascending by date.
	ListUserCompletions(userID, since string) ([]habit.Completion, error)

	PutAPIKey(keyHash, userID string) error
	GetAPIKey(keyHash string) (userID string, found bool, err error)
	DeleteAPIKey(keyHash string) error
	ListAPIKeyHashes(userID string) ([]string, error)

	Close() error
}
