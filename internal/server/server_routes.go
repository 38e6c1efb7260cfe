package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/brk3/habitgrid/internal/logger"
	"github.com/brk3/habitgrid/internal/storage"
	"github.com/brk3/habitgrid/pkg/habit"
	"github.com/brk3/habitgrid/pkg/versioninfo"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	if err := writeJSON(w, code, ErrorResponse{Error: msg}); err != nil {
		logger.Error("Failed to write error response", "status", code, "error", err)
	}
}

func (s *Server) getVersionInfo(w http.ResponseWriter, _ *http.Request) {
	info := versioninfo.VersionInfo{
		Version:   versioninfo.Version,
		BuildDate: versioninfo.BuildDate,
	}
	if err := writeJSON(w, http.StatusOK, info); err != nil {
		logger.Error("Failed to serialize version info response", "error", err)
	}
}

// requireUser returns the caller's user ID, writing a 400 if there is none.
func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := userIDFromContext(s.cfg.AuthEnabled, r)
	if userID == "" {
		logger.Warn("Missing user ID", "path", r.URL.Path)
		writeError(w, http.StatusBadRequest, "user id is required")
		return "", false
	}
	return userID, true
}

// lookupHabit resolves the {habit_id} URL parameter for the caller.
func (s *Server) lookupHabit(w http.ResponseWriter, r *http.Request) (habit.Habit, bool) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return habit.Habit{}, false
	}
	habitID := chi.URLParam(r, "habit_id")
	h, err := s.store.GetHabit(userID, habitID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "habit not found")
		return habit.Habit{}, false
	case err != nil:
		logger.Error("Failed to get habit", "user_id", userID, "habit_id", habitID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return habit.Habit{}, false
	}
	return h, true
}

func decodeName(r *http.Request) (string, error) {
	var req HabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", errors.New("invalid JSON body")
	}
	return habit.NormalizeName(req.Name)
}

func (s *Server) listHabits(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habits, err := s.store.ListHabits(userID)
	if err != nil {
		logger.Error("Failed to list habits", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	if habits == nil {
		habits = []habit.Habit{}
	}
	logger.Debug("Listed habits successfully", "user_id", userID, "count", len(habits))
	if err := writeJSON(w, http.StatusOK, HabitListResponse{Habits: habits}); err != nil {
		logger.Error("Failed to serialize habit list response", "user_id", userID, "error", err)
	}
}

func (s *Server) createHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	name, err := decodeName(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h := habit.Habit{
		ID:        uuid.NewString(),
		Name:      name,
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.PutHabit(userID, h); err != nil {
		logger.Error("Failed to create habit", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	s.updateActiveHabits(userID)

	logger.Info("Habit created", "user_id", userID, "habit_id", h.ID, "name", h.Name)
	if err := writeJSON(w, http.StatusCreated, h); err != nil {
		logger.Error("Failed to serialize habit", "habit_id", h.ID, "error", err)
	}
}

func (s *Server) getHabit(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookupHabit(w, r)
	if !ok {
		return
	}
	if err := writeJSON(w, http.StatusOK, h); err != nil {
		logger.Error("Failed to serialize habit", "habit_id", h.ID, "error", err)
	}
}

func (s *Server) renameHabit(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookupHabit(w, r)
	if !ok {
		return
	}
	name, err := decodeName(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.Name = name
	if err := s.store.PutHabit(h.UserID, h); err != nil {
		logger.Error("Failed to rename habit", "user_id", h.UserID, "habit_id", h.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	logger.Info("Habit renamed", "user_id", h.UserID, "habit_id", h.ID, "name", h.Name)
	if err := writeJSON(w, http.StatusOK, h); err != nil {
		logger.Error("Failed to serialize habit", "habit_id", h.ID, "error", err)
	}
}

func (s *Server) deleteHabit(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	habitID := chi.URLParam(r, "habit_id")
	err := s.store.DeleteHabit(userID, habitID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "habit not found")
		return
	case err != nil:
		logger.Error("Failed to delete habit", "user_id", userID, "habit_id", habitID, "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	s.updateActiveHabits(userID)

	logger.Info("Habit deleted", "user_id", userID, "habit_id", habitID)
	w.WriteHeader(http.StatusNoContent)
}
