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
	"strconv"
	"strings"
	"time"

	"github.com/brk3/habitboard/internal/server"
	"github.com/brk3/habitboard/internal/tracker"
	"github.com/brk3/habitboard/pkg/habit"
	"github.com/brk3/habitboard/pkg/versioninfo"
)

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.New("not found")

// APIError carries a non-2xx response and its {"error": ...} message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func New(base, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) ListHabits(ctx context.Context) ([]habit.Habit, error) {
	var resp server.HabitListResponse
	if err := c.do(ctx, http.MethodGet, "/habits/", nil, &resp); err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return resp.Habits, nil
}

// RestoreHabits replaces the caller's whole collection with habits.
func (c *Client) RestoreHabits(ctx context.Context, habits []habit.Habit) ([]habit.Habit, error) {
	var resp server.HabitListResponse
	if err := c.do(ctx, http.MethodPut, "/habits/", server.RestoreRequest{Habits: habits}, &resp); err != nil {
		return nil, fmt.Errorf("restore habits: %w", err)
	}
	return resp.Habits, nil
}

func (c *Client) GetHabit(ctx context.Context, id string) (*habit.Habit, error) {
	var h habit.Habit
	if err := c.do(ctx, http.MethodGet, habitPath(id), nil, &h); err != nil {
		return nil, fmt.Errorf("get habit %s: %w", id, err)
	}
	return &h, nil
}

func (c *Client) CreateHabit(ctx context.Context, in habit.NewHabit) (*habit.Habit, error) {
	var h habit.Habit
	if err := c.do(ctx, http.MethodPost, "/habits/", in, &h); err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}
	return &h, nil
}

// UpdateHabit sends only the fields set in p.
func (c *Client) UpdateHabit(ctx context.Context, id string, p tracker.Patch) (*habit.Habit, error) {
	var h habit.Habit
	if err := c.do(ctx, http.MethodPatch, habitPath(id), p, &h); err != nil {
		return nil, fmt.Errorf("update habit %s: %w", id, err)
	}
	return &h, nil
}

func (c *Client) ToggleHabit(ctx context.Context, id, date string) (*habit.Habit, error) {
	var h habit.Habit
	if err := c.do(ctx, http.MethodPost, habitPath(id)+"/toggle", server.ToggleRequest{Date: date}, &h); err != nil {
		return nil, fmt.Errorf("toggle habit %s: %w", id, err)
	}
	return &h, nil
}

func (c *Client) DeleteHabit(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, habitPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete habit %s: %w", id, err)
	}
	return nil
}

func (c *Client) GetHabitSummary(ctx context.Context, id string) (*habit.HabitSummary, error) {
	var resp server.HabitSummaryResponse
	if err := c.do(ctx, http.MethodGet, habitPath(id)+"/summary", nil, &resp); err != nil {
		return nil, fmt.Errorf("summary %s: %w", id, err)
	}
	return &resp.HabitSummary, nil
}

func (c *Client) GetOverview(ctx context.Context, id string, year int) ([]habit.MonthOverview, error) {
	path := habitPath(id) + "/overview"
	if year > 0 {
		path += "?year=" + strconv.Itoa(year)
	}
	var resp server.HabitOverviewResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("overview %s: %w", id, err)
	}
	return resp.Months, nil
}

func (c *Client) Version(ctx context.Context) (*versioninfo.VersionInfo, error) {
	var v versioninfo.VersionInfo
	if err := c.do(ctx, http.MethodGet, "/version", nil, &v); err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}
	return &v, nil
}

func habitPath(id string) string {
	return "/habits/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		var e server.ErrorResponse
		if json.NewDecoder(res.Body).Decode(&e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
