// Package assist talks to the language service that turns a chat message into
// board intents.
package assist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kanban-cli/internal/logging"

	log "github.com/sirupsen/logrus"
)

const StatusSuccess = "success"

// Response is the language service reply. The same endpoint answers either with plain
// text (FunctionCall) or with a list of tool calls; see Reply.
type Response struct {
	Status       string     `json:"status"`
	FunctionCall string     `json:"function_call"`
	HasToolCalls bool       `json:"has_tool_calls"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
}

type ToolCall struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Function Function `json:"function"`
}

// Function carries the intent name and its JSON-encoded arguments object.
type Function struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Reply is the decoded meaning of a Response.
type Reply struct {
	Failed bool
	Text   string
	Calls  []ToolCall
}

// FailedText is shown when the service reports a non-success status.
const FailedText = "Something went wrong processing your request."

// Reply applies the switching rule: a non-success status is a failure; a successful
// reply with tool calls yields the calls in order; anything else is plain text.
func (r Response) Reply() Reply {
	if r.Status != StatusSuccess {
		return Reply{Failed: true, Text: FailedText}
	}
	if r.HasToolCalls && len(r.ToolCalls) > 0 {
		return Reply{Calls: r.ToolCalls}
	}
	return Reply{Text: r.FunctionCall}
}

// ErrUnreachable is wrapped when the service answers with a non-2xx status and no message.
var ErrUnreachable = errors.New("failed to reach chat server")

type Client struct {
	URL  string
	HTTP *http.Client
	Log  log.FieldLogger
}

func New(url string, timeout time.Duration, logger log.FieldLogger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{URL: url, HTTP: &http.Client{Timeout: timeout}, Log: logger}
}

type generateRequest struct {
	UserRequest string `json:"user_request"`
}

// Generate posts the user's text and decodes the reply.
func (c *Client) Generate(ctx context.Context, text string) (Response, error) {
	body, err := json.Marshal(generateRequest{UserRequest: text})
	if err != nil {
		return Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()
	c.Log.WithFields(log.Fields{"status": resp.StatusCode, "duration": time.Since(start).String()}).Debug("assist reply")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
		}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(b, &e) == nil && strings.TrimSpace(e.Message) != "" {
			return Response{}, errors.New(e.Message)
		}
		return Response{}, fmt.Errorf("%w (%s)", ErrUnreachable, http.StatusText(resp.StatusCode))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decode assist reply: %w", err)
	}
	return out, nil
}
