// Package apiclient talks to the habits HTTP backend. A Client doubles as
// the CLI's loader.Loader and loader.History.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brk3/habitgrid/internal/calendar"
	"github.com/brk3/habitgrid/internal/loader"
	"github.com/brk3/habitgrid/internal/logger"
	"github.com/brk3/habitgrid/internal/server"
	"github.com/brk3/habitgrid/pkg/habit"
	"github.com/brk3/habitgrid/pkg/versioninfo"
	"golang.org/x/oauth2"
)

var (
	ErrHabitNotFound  = errors.New("habit not found")
	ErrAmbiguousHabit = errors.New("habit name matches more than one habit")
)

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%d %s: %s", e.Code, http.StatusText(e.Code), e.Message)
}

func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	// Location normalises completion dates; nil means time.Local.
	Location *time.Location
}

// New returns a client for base. A non-empty token is sent as a bearer
// credential on every request.
func New(base, token string) *Client {
	hc := &http.Client{}
	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		hc = oauth2.NewClient(context.Background(), src)
	}
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		HTTP:    hc,
	}
}

func habitPath(habitID string, rest ...string) string {
	p := "/habits/" + url.PathEscape(habitID)
	for _, r := range rest {
		p += "/" + url.PathEscape(r)
	}
	return p
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	logger.Debug("API request", "method", method, "path", path)
	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		var e server.ErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&e)
		return &StatusError{Code: res.StatusCode, Message: e.Error}
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) Version(ctx context.Context) (versioninfo.VersionInfo, error) {
	var out versioninfo.VersionInfo
	err := c.do(ctx, http.MethodGet, "/version", nil, &out)
	return out, err
}

func (c *Client) ListHabits(ctx context.Context) ([]habit.Habit, error) {
	var out server.HabitListResponse
	if err := c.do(ctx, http.MethodGet, "/habits", nil, &out); err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return out.Habits, nil
}

func (c *Client) GetHabit(ctx context.Context, habitID string) (habit.Habit, error) {
	var out habit.Habit
	err := c.do(ctx, http.MethodGet, habitPath(habitID), nil, &out)
	return out, err
}

// FindHabit resolves ref as a habit ID, then as a case-insensitive name.
func (c *Client) FindHabit(ctx context.Context, ref string) (habit.Habit, error) {
	habits, err := c.ListHabits(ctx)
	if err != nil {
		return habit.Habit{}, err
	}
	var matches []habit.Habit
	for _, h := range habits {
		if h.ID == ref {
			return h, nil
		}
		if strings.EqualFold(h.Name, strings.TrimSpace(ref)) {
			matches = append(matches, h)
		}
	}
	switch len(matches) {
	case 0:
		return habit.Habit{}, fmt.Errorf("%w: %s", ErrHabitNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return habit.Habit{}, fmt.Errorf("%w: %s", ErrAmbiguousHabit, ref)
	}
}

func (c *Client) CreateHabit(ctx context.Context, name string) (habit.Habit, error) {
	var out habit.Habit
	err := c.do(ctx, http.MethodPost, "/habits", server.HabitRequest{Name: name}, &out)
	return out, err
}

func (c *Client) RenameHabit(ctx context.Context, habitID, name string) (habit.Habit, error) {
	var out habit.Habit
	err := c.do(ctx, http.MethodPatch, habitPath(habitID), server.HabitRequest{Name: name}, &out)
	return out, err
}

func (c *Client) DeleteHabit(ctx context.Context, habitID string) error {
	return c.do(ctx, http.MethodDelete, habitPath(habitID), nil, nil)
}

// MarkCompletion records habitID as done on date. created is false when the
// day was already marked.
func (c *Client) MarkCompletion(ctx context.Context, habitID, date string) (completion habit.Completion, created bool, err error) {
	var out server.CompletionResponse
	if err := c.do(ctx, http.MethodPut, habitPath(habitID, "completions", date), nil, &out); err != nil {
		return habit.Completion{}, false, err
	}
	return out.Completion, out.Created, nil
}

func (c *Client) UnmarkCompletion(ctx context.Context, habitID, date string) error {
	return c.do(ctx, http.MethodDelete, habitPath(habitID, "completions", date), nil, nil)
}

// HabitCompletions lists every completion of habitID, ascending by date.
func (c *Client) HabitCompletions(ctx context.Context, habitID string) ([]habit.Completion, error) {
	var out server.CompletionListResponse
	if err := c.do(ctx, http.MethodGet, habitPath(habitID, "completions"), nil, &out); err != nil {
		return nil, loader.Unavailable(habitID, err)
	}
	return out.Completions, nil
}

func (c *Client) Summary(ctx context.Context, habitID string) (habit.HabitSummary, error) {
	var out server.HabitSummaryResponse
	if err := c.do(ctx, http.MethodGet, habitPath(habitID, "summary"), nil, &out); err != nil {
		return habit.HabitSummary{}, err
	}
	return out.HabitSummary, nil
}

func (c *Client) CreateAPIKey(ctx context.Context) (string, error) {
	var out server.APIKeyResponse
	if err := c.do(ctx, http.MethodPost, "/auth/api_keys", nil, &out); err != nil {
		return "", err
	}
	return out.APIKey, nil
}

func (c *Client) LoadCompletions(ctx context.Context, habitID string, start, end time.Time) (calendar.DateSet, error) {
	q := url.Values{}
	q.Set("from", calendar.FormatDate(start))
	q.Set("to", calendar.FormatDate(end))

	var out server.CompletionListResponse
	if err := c.do(ctx, http.MethodGet, habitPath(habitID, "completions")+"?"+q.Encode(), nil, &out); err != nil {
		return nil, loader.Unavailable(habitID, err)
	}
	return loader.DateSetOf(out.Completions, c.Location), nil
}

func (c *Client) ListCompletions(ctx context.Context, since time.Time) ([]habit.Completion, error) {
	path := "/completions"
	if !since.IsZero() {
		path += "?since=" + url.QueryEscape(calendar.FormatDate(since))
	}
	var out server.CompletionListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, loader.Unavailable("", err)
	}
	return out.Completions, nil
}

var (
	_ loader.Loader  = (*Client)(nil)
	_ loader.History = (*Client)(nil)
)
