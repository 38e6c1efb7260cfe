package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/brk3/habitgrid/internal/calendar"
	"github.com/brk3/habitgrid/internal/loader"
	"github.com/brk3/habitgrid/internal/logger"
	"github.com/brk3/habitgrid/internal/storage"
	"github.com/brk3/habitgrid/internal/view"
	"github.com/brk3/habitgrid/pkg/habit"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// dateParam normalises an optional yyyy-MM-dd query value. ok is false if
// the value is present but malformed.
func (s *Server) dateParam(r *http.Request, key string) (string, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return "", true
	}
	return calendar.NormalizeDate(v, s.loc)
}

// intParam parses an optional integer query value, falling back to def.
func intParam(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return n, nil
}

func (s *Server) listHabitCompletions(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookupHabit(w, r)
	if !ok {
		return
	}
	from, okFrom := s.dateParam(r, "from")
	to, okTo := s.dateParam(r, "to")
	if !okFrom || !okTo {
		writeError(w, http.StatusBadRequest, "from and to must be yyyy-MM-dd")
		return
	}

	resp := CompletionListResponse{HabitID: h.ID, Completions: []habit.Completion{}}
	// An inverted range is empty, not an error.
	if from == "" || to == "" || from <= to {
		rows, err := s.store.ListCompletions(h.UserID, h.ID, from, to)
		if err != nil {
			logger.Error("Failed to list completions", "user_id", h.UserID, "habit_id", h.ID, "error", err)
			writeError(w, http.StatusServiceUnavailable, loader.ErrDataUnavailable.Error())
			return
		}
		resp.Completions = rows
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize completions", "habit_id", h.ID, "error", err)
	}
}

func (s *Server) markCompletion(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookupHabit(w, r)
	if !ok {
		return
	}
	date, ok := calendar.NormalizeDate(chi.URLParam(r, "date"), s.loc)
	if !ok {
		writeError(w, http.StatusBadRequest, "date must be yyyy-MM-dd")
		return
	}
	if date > calendar.FormatDate(s.today()) {
		writeError(w, http.StatusBadRequest, "cannot complete a future date")
		return
	}
	if date < calendar.FormatDate(calendar.Day(h.CreatedAt, s.loc)) {
		writeError(w, http.StatusBadRequest, "cannot complete a day before the habit was created")
		return
	}

	c := habit.Completion{
		ID:            uuid.NewString(),
		HabitID:       h.ID,
		CompletedDate: date,
		CreatedAt:     s.now().UTC(),
	}
	stored, created, err := s.store.PutCompletion(h.UserID, c)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		completionMutationsTotal.WithLabelValues("mark", "not_found").Inc()
		writeError(w, http.StatusNotFound, "habit not found")
		return
	case err != nil:
		completionMutationsTotal.WithLabelValues("mark", "error").Inc()
		logger.Error("Failed to mark completion", "user_id", h.UserID, "habit_id", h.ID, "date", date, "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}

	code := http.StatusOK
	result := "exists"
	if created {
		code, result = http.StatusCreated, "created"
	}
	completionMutationsTotal.WithLabelValues("mark", result).Inc()
	logger.Info("Completion marked", "user_id", h.UserID, "habit_id", h.ID, "date", date, "created", created)
	if err := writeJSON(w, code, CompletionResponse{Completion: stored, Created: created}); err != nil {
		logger.Error("Failed to serialize completion", "habit_id", h.ID, "error", err)
	}
}

func (s *Server) unmarkCompletion(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookupHabit(w, r)
	if !ok {
		return
	}
	date, ok := calendar.NormalizeDate(chi.URLParam(r, "date"), s.loc)
	if !ok {
		writeError(w, http.StatusBadRequest, "date must be yyyy-MM-dd")
		return
	}

	err := s.store.DeleteCompletion(h.UserID, h.ID, date)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		completionMutationsTotal.WithLabelValues("unmark", "not_found").Inc()
		writeError(w, http.StatusNotFound, "completion not found")
		return
	case err != nil:
		completionMutationsTotal.WithLabelValues("unmark", "error").Inc()
		logger.Error("Failed to unmark completion", "user_id", h.UserID, "habit_id", h.ID, "date", date, "error", err)
		writeError(w, http.StatusInternalServerError, "storage error")
		return
	}
	completionMutationsTotal.WithLabelValues("unmark", "deleted").Inc()
	logger.Info("Completion unmarked", "user_id", h.UserID, "habit_id", h.ID, "date", date)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listUserCompletions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	since, ok := s.dateParam(r, "since")
	if !ok {
		writeError(w, http.StatusBadRequest, "since must be yyyy-MM-dd")
		return
	}
	rows, err := s.store.ListUserCompletions(userID, since)
	if err != nil {
		logger.Error("Failed to list user completions", "user_id", userID, "error", err)
		writeError(w, http.StatusServiceUnavailable, loader.ErrDataUnavailable.Error())
		return
	}
	if err := writeJSON(w, http.StatusOK, CompletionListResponse{Completions: rows}); err != nil {
		logger.Error("Failed to serialize completions", "user_id", userID, "error", err)
	}
}

func (s *Server) getHabitGrid(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookupHabit(w, r)
	if !ok {
		return
	}
	months, err := intParam(r, "months", s.cfg.LookbackMonths)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit := s.cfg.LookbackLimit(); months > limit {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("months must be <= %d", limit))
		return
	}

	gv := view.NewGridView(loader.NewStoreLoader(s.store, h.UserID, s.loc), h, months, s.loc)
	gv.Now = s.now
	snap := gv.Render(r.Context(), 0)
	if snap.Err != nil {
		writeError(w, http.StatusServiceUnavailable, loader.ErrDataUnavailable.Error())
		return
	}

	resp := GridResponse{
		HabitID:       h.ID,
		Months:        gridMonths(snap.Months),
		CurrentStreak: snap.CurrentStreak,
		LongestStreak: snap.LongestStreak,
		Completed:     snap.Completed,
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize grid", "habit_id", h.ID, "error", err)
	}
}

func (s *Server) getHabitSummary(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookupHabit(w, r)
	if !ok {
		return
	}
	rows, err := s.store.ListCompletions(h.UserID, h.ID, "", "")
	if err != nil {
		logger.Error("Failed to list completions", "user_id", h.UserID, "habit_id", h.ID, "error", err)
		writeError(w, http.StatusServiceUnavailable, loader.ErrDataUnavailable.Error())
		return
	}

	asOf := s.today()
	set := loader.DateSetOf(rows, s.loc)
	totals := calendar.CountHabit(h, rows, asOf)
	current, longest := calendar.Streaks(set, asOf)
	summary := habit.HabitSummary{
		HabitID:           h.ID,
		Name:              h.Name,
		CreatedAt:         h.CreatedAt.Unix(),
		CurrentStreak:     current,
		LongestStreak:     longest,
		TotalCompletions:  totals.TotalCompletions,
		TotalMissedDays:   totals.TotalMissedDays,
		TotalEligibleDays: totals.TotalEligibleDays,
		CompletionRatio:   totals.CompletionRatio(),
		LastCompleted:     calendar.LastCompleted(set, asOf),
	}
	if err := writeJSON(w, http.StatusOK, HabitSummaryResponse{HabitID: h.ID, HabitSummary: summary}); err != nil {
		logger.Error("Failed to serialize habit summary response", "habit_id", h.ID, "error", err)
	}
}

func (s *Server) statsSnapshot(r *http.Request, userID string, days int) view.StatsSnapshot {
	sv := view.NewStatsView(loader.NewStoreLoader(s.store, userID, s.loc), days, s.loc)
	sv.Now = s.now
	return sv.Render(r.Context(), 0)
}

func (s *Server) getTotals(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	snap := s.statsSnapshot(r, userID, 0)
	if snap.Err != nil {
		writeError(w, http.StatusServiceUnavailable, loader.ErrDataUnavailable.Error())
		return
	}
	resp := TotalsResponse{
		Totals:          snap.Totals,
		CompletionRatio: snap.Totals.CompletionRatio(),
		Today:           snap.Today,
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize totals", "user_id", userID, "error", err)
	}
}

func (s *Server) getSeries(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	days, err := intParam(r, "days", s.cfg.SeriesDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit := s.cfg.SeriesLimit(); days > limit {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("days must be <= %d", limit))
		return
	}
	snap := s.statsSnapshot(r, userID, days)
	if snap.Err != nil {
		writeError(w, http.StatusServiceUnavailable, loader.ErrDataUnavailable.Error())
		return
	}
	resp := SeriesResponse{Days: max(days, 0), Buckets: seriesBuckets(snap.Series)}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		logger.Error("Failed to serialize series", "user_id", userID, "error", err)
	}
}
