// Package client talks to the timer REST API. A logged-in Client satisfies
// both countdown.TimerAPI and widget.Source.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	apperrors "dashboard/backend/internal/errors"
	"dashboard/backend/internal/model"
	"dashboard/backend/internal/widget"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

type authResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (c *Client) Register(ctx context.Context, email, password string) (*model.User, error) {
	return c.authenticate(ctx, "/api/auth/register", email, password)
}

func (c *Client) Login(ctx context.Context, email, password string) (*model.User, error) {
	return c.authenticate(ctx, "/api/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*model.User, error) {
	var resp authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return &resp.User, nil
}

func (c *Client) ListTimers(ctx context.Context) ([]model.Timer, error) {
	var resp struct {
		Timers []model.Timer `json:"timers"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/timers", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Timers, nil
}

func (c *Client) GetTimer(ctx context.Context, id string) (*model.Timer, error) {
	var resp struct {
		Timer model.Timer `json:"timer"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/timers/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Timer, nil
}

func (c *Client) Summary(ctx context.Context) (*widget.Summary, error) {
	var resp struct {
		Summary widget.Summary `json:"summary"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/timers/summary", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Summary, nil
}

func (c *Client) CreateTimer(ctx context.Context, name string, durationSeconds int) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	body := map[string]interface{}{"name": name, "durationSeconds": durationSeconds}
	if err := c.do(ctx, http.MethodPost, "/api/timers", body, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) StartTimer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/timers/"+id+"/start", nil, nil)
}

func (c *Client) PauseTimer(ctx context.Context, id string, remainingSeconds int) error {
	body := map[string]int{"remainingSeconds": remainingSeconds}
	return c.do(ctx, http.MethodPost, "/api/timers/"+id+"/pause", body, nil)
}

func (c *Client) ResetTimer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/timers/"+id+"/reset", nil, nil)
}

func (c *Client) UpdateTimer(ctx context.Context, id string, patch model.TimerPatch) error {
	return c.do(ctx, http.MethodPatch, "/api/timers/"+id, patchBody(patch), nil)
}

func (c *Client) DeleteTimer(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/timers/"+id, nil, nil)
}

func (c *Client) ReorderTimers(ctx context.Context, ids []string) error {
	return c.do(ctx, http.MethodPut, "/api/timers/order", map[string][]string{"ids": ids}, nil)
}

// patchBody encodes a patch for PATCH /api/timers/:id, where a null endTime
// clears it.
func patchBody(p model.TimerPatch) map[string]interface{} {
	body := map[string]interface{}{}
	if p.Name != nil {
		body["name"] = *p.Name
	}
	if p.DurationSeconds != nil {
		body["durationSeconds"] = *p.DurationSeconds
	}
	if p.RemainingSeconds != nil {
		body["remainingSeconds"] = *p.RemainingSeconds
	}
	if p.State != nil {
		body["state"] = *p.State
	}
	if p.ClearEndTime {
		body["endTime"] = nil
	} else if p.EndTime != nil {
		body["endTime"] = p.EndTime.UTC().Format(time.RFC3339Nano)
	}
	if p.EnableCompletionColor != nil {
		body["enableCompletionColor"] = *p.EnableCompletionColor
	}
	if p.CompletionColor != nil {
		body["completionColor"] = *p.CompletionColor
	}
	if p.EnableAlarm != nil {
		body["enableAlarm"] = *p.EnableAlarm
	}
	if p.AlarmSound != nil {
		body["alarmSound"] = *p.AlarmSound
	}
	if p.DisplayOrder != nil {
		body["displayOrder"] = *p.DisplayOrder
	}
	return body
}

type errorEnvelope struct {
	Error *apperrors.APIError `json:"error"`
}

// do sends one request. Non-2xx responses are returned as *apperrors.APIError
// carrying the response status.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.RLock()
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env errorEnvelope
		if jsonErr := json.Unmarshal(raw, &env); jsonErr != nil || env.Error == nil {
			return apperrors.New(resp.StatusCode, "http_error", fmt.Sprintf("%s %s: %s", method, path, resp.Status))
		}
		env.Error.Status = resp.StatusCode
		return env.Error
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}
