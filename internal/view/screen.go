package view

import (
	"context"

	"github.com/brk3/habitgrid/internal/events"
)

// Screen binds views to a bus for its own lifetime. Any CompletionsChanged
// event for the screen's habit (or with no habit) bumps the trigger.
type Screen struct {
	Grid  *GridView
	Stats *StatsView

	trigger     Trigger
	unsubscribe func()
}

// NewScreen subscribes to bus. grid or stats may be nil.
func NewScreen(bus *events.Bus, grid *GridView, stats *StatsView) *Screen {
	s := &Screen{Grid: grid, Stats: stats}
	s.unsubscribe = bus.Subscribe(events.CompletionsChanged, func(payload any) {
		id, _ := payload.(string)
		if s.affected(id) {
			s.trigger.Bump()
		}
	})
	return s
}

func (s *Screen) affected(habitID string) bool {
	switch {
	case habitID == "", s.Stats != nil:
		return true
	case s.Grid != nil:
		return habitID == s.Grid.Habit.ID
	}
	return false
}

// Refresh forces the next render to refetch.
func (s *Screen) Refresh() {
	s.trigger.Bump()
}

func (s *Screen) RenderGrid(ctx context.Context) GridSnapshot {
	return s.Grid.Render(ctx, s.trigger.Value())
}

func (s *Screen) RenderStats(ctx context.Context) StatsSnapshot {
	return s.Stats.Render(ctx, s.trigger.Value())
}

func (s *Screen) Close() {
	s.unsubscribe()
}
