package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kanban-cli/internal/logging"
	"kanban-cli/internal/model"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	msg := "API Error: " + e.Status
	if b := strings.TrimSpace(e.Body); b != "" {
		msg += " " + b
	}
	return msg
}

// Client talks to the board backend over JSON/HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Log     log.FieldLogger
}

func New(baseURL string, timeout time.Duration, logger log.FieldLogger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Log:     logger,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf := new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		rd = buf
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-Id", reqID)

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		c.Log.WithFields(log.Fields{"method": method, "path": path, "request_id": reqID, "error": err}).Debug("request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.Log.WithFields(log.Fields{
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"duration":   time.Since(start).String(),
		"request_id": reqID,
	}).Debug("request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       string(b),
		}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func idPath(prefix string, id model.ID) string {
	return prefix + "/" + url.PathEscape(id.String())
}

// Boards

func (c *Client) ListBoards(ctx context.Context) ([]model.Board, error) {
	var out []model.Board
	if err := c.do(ctx, http.MethodGet, "/boards", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetBoard(ctx context.Context, id model.ID) (model.Board, error) {
	var out model.Board
	err := c.do(ctx, http.MethodGet, idPath("/boards", id), nil, &out)
	return out, err
}

func (c *Client) CreateBoard(ctx context.Context, in model.CreateBoardInput) (model.Board, error) {
	var out model.Board
	err := c.do(ctx, http.MethodPost, "/boards", in, &out)
	return out, err
}

func (c *Client) UpdateBoard(ctx context.Context, id model.ID, in model.UpdateBoardInput) (model.Board, error) {
	var out model.Board
	err := c.do(ctx, http.MethodPatch, idPath("/boards", id), in, &out)
	return out, err
}

func (c *Client) DeleteBoard(ctx context.Context, id model.ID) error {
	return c.do(ctx, http.MethodDelete, idPath("/boards", id), nil, nil)
}

// Columns

func (c *Client) CreateColumn(ctx context.Context, in model.CreateColumnInput) (model.Column, error) {
	var out model.Column
	err := c.do(ctx, http.MethodPost, "/columns", in, &out)
	return out, err
}

func (c *Client) UpdateColumn(ctx context.Context, id model.ID, in model.UpdateColumnInput) (model.Column, error) {
	var out model.Column
	err := c.do(ctx, http.MethodPatch, idPath("/columns", id), in, &out)
	return out, err
}

func (c *Client) DeleteColumn(ctx context.Context, id model.ID) error {
	return c.do(ctx, http.MethodDelete, idPath("/columns", id), nil, nil)
}

// Tasks

func (c *Client) CreateTask(ctx context.Context, in model.CreateTaskInput) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, http.MethodPost, "/tasks", in, &out)
	return out, err
}

func (c *Client) UpdateTask(ctx context.Context, id model.ID, in model.UpdateTaskInput) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, http.MethodPatch, idPath("/tasks", id), in, &out)
	return out, err
}

// MoveTask persists a drag-and-drop result: PATCH /tasks/{id} {column_id, position}.
func (c *Client) MoveTask(ctx context.Context, id model.ID, in model.MoveTaskInput) (model.Task, error) {
	var out model.Task
	err := c.do(ctx, http.MethodPatch, idPath("/tasks", id), in, &out)
	return out, err
}

func (c *Client) DeleteTask(ctx context.Context, id model.ID) error {
	return c.do(ctx, http.MethodDelete, idPath("/tasks", id), nil, nil)
}

// Subtasks

func (c *Client) CreateSubtask(ctx context.Context, in model.CreateSubtaskInput) (model.Subtask, error) {
	var out model.Subtask
	err := c.do(ctx, http.MethodPost, "/subtasks", in, &out)
	return out, err
}

func (c *Client) UpdateSubtask(ctx context.Context, id model.ID, in model.UpdateSubtaskInput) (model.Subtask, error) {
	var out model.Subtask
	err := c.do(ctx, http.MethodPatch, idPath("/subtasks", id), in, &out)
	return out, err
}

func (c *Client) DeleteSubtask(ctx context.Context, id model.ID) error {
	return c.do(ctx, http.MethodDelete, idPath("/subtasks", id), nil, nil)
}

// ResetDatabase restores the backend's seed data.
func (c *Client) ResetDatabase(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/database/reset", struct{}{}, nil)
}
