package server

import (
	"errors"
	"sort"
	"sync"

	"github.com/brk3/habitgrid/internal/storage"
	"github.com/brk3/habitgrid/pkg/habit"
)

type memStore struct {
	mu          sync.RWMutex
	habits      map[string]map[string]habit.Habit                 // user -> habit id
	completions map[string]map[string]map[string]habit.Completion // user -> habit id -> date
	apiKeys     map[string]string

	// failReads makes completion listing fail, simulating an unreachable backend.
	failReads bool
}

var errStoreDown = errors.New("store unavailable")

func newMemStore() *memStore {
	return &memStore{
		habits:      map[string]map[string]habit.Habit{},
		completions: map[string]map[string]map[string]habit.Completion{},
		apiKeys:     map[string]string{},
	}
}

func (m *memStore) PutHabit(userID string, h habit.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.habits[userID] == nil {
		m.habits[userID] = map[string]habit.Habit{}
	}
	m.habits[userID][h.ID] = h
	return nil
}

func (m *memStore) GetHabit(userID, habitID string) (habit.Habit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.habits[userID][habitID]
	if !ok {
		return habit.Habit{}, storage.ErrNotFound
	}
	return h, nil
}

func (m *memStore) ListHabits(userID string) ([]habit.Habit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []habit.Habit{}
	for _, h := range m.habits[userID] {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) DeleteHabit(userID, habitID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.habits[userID][habitID]; !ok {
		return storage.ErrNotFound
	}
	delete(m.habits[userID], habitID)
	delete(m.completions[userID], habitID)
	return nil
}

func (m *memStore) PutCompletion(userID string, c habit.Completion) (habit.Completion, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.habits[userID][c.HabitID]; !ok {
		return habit.Completion{}, false, storage.ErrNotFound
	}
	if m.completions[userID] == nil {
		m.completions[userID] = map[string]map[string]habit.Completion{}
	}
	byDate := m.completions[userID][c.HabitID]
	if byDate == nil {
		byDate = map[string]habit.Completion{}
		m.completions[userID][c.HabitID] = byDate
	}
	if existing, ok := byDate[c.CompletedDate]; ok {
		return existing, false, nil
	}
	byDate[c.CompletedDate] = c
	return c, true, nil
}

func (m *memStore) DeleteCompletion(userID, habitID, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.completions[userID][habitID][date]; !ok {
		return storage.ErrNotFound
	}
	delete(m.completions[userID][habitID], date)
	return nil
}

func (m *memStore) ListCompletions(userID, habitID, from, to string) ([]habit.Completion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failReads {
		return nil, errStoreDown
	}
	out := []habit.Completion{}
	for date, c := range m.completions[userID][habitID] {
		if (from == "" || date >= from) && (to == "" || date <= to) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedDate < out[j].CompletedDate })
	return out, nil
}

func (m *memStore) ListUserCompletions(userID, since string) ([]habit.Completion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failReads {
		return nil, errStoreDown
	}
	out := []habit.Completion{}
	for _, byDate := range m.completions[userID] {
		for date, c := range byDate {
			if since == "" || date >= since {
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletedDate < out[j].CompletedDate })
	return out, nil
}

func (m *memStore) PutAPIKey(keyHash, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apiKeys[keyHash] = userID
	return nil
}

func (m *memStore) GetAPIKey(keyHash string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	userID, ok := m.apiKeys[keyHash]
	return userID, ok, nil
}

func (m *memStore) DeleteAPIKey(keyHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.apiKeys, keyHash)
	return nil
}

func (m *memStore) ListAPIKeyHashes(userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k, v := range m.apiKeys {
		if v == userID {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memStore) Close() error {
	return nil
}

var _ storage.Store = (*memStore)(nil)
