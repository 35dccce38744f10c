// Package client consumes the hive HTTP API and maintains a local view
// of the hive for interactive frontends. Client is the thin HTTP layer,
// Cache holds the mirrored state, and Poller keeps the cache fresh.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/openchamber/hive/internal/hive"
)

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hive api: %s (status %d)", e.Message, e.StatusCode)
}

// Client talks to a hive server for a single working directory.
type Client struct {
	baseURL   string
	directory string
	http      *http.Client

	// retryMax bounds the backoff used for idempotent GETs. Mutations
	// are never retried.
	retryMax time.Duration
}

// NewClient creates a client for the hive server at baseURL scoped to
// the given working directory.
func NewClient(baseURL, directory string) *Client {
	return &Client{
		baseURL:   baseURL,
		directory: directory,
		http:      &http.Client{Timeout: 10 * time.Second},
		retryMax:  2 * time.Second,
	}
}

// Directory returns the working directory this client is scoped to.
func (c *Client) Directory() string {
	return c.directory
}

func (c *Client) endpoint(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("directory", c.directory)
	return c.baseURL + path + "?" + query.Encode()
}

// get performs a GET with bounded exponential backoff. Server errors
// and transport failures are retried; 4xx responses are not.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	operation := func() error {
		err := c.do(ctx, http.MethodGet, c.endpoint(path, query), nil, out)
		var apiErr *APIError
		if isAPIError(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = c.retryMax
	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, method, c.endpoint(path, nil), body, out)
}

func (c *Client) do(ctx context.Context, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("client: read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := decodeErrorBody(data)
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("client: decode response: %w", err)
		}
	}
	return nil
}

func decodeErrorBody(data []byte) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Error
}

func isAPIError(err error, target **APIError) bool {
	if err == nil {
		return false
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		return false
	}
	*target = apiErr
	return true
}

// --- Reads ---

func (c *Client) Status(ctx context.Context) (hive.Status, error) {
	var status hive.Status
	err := c.get(ctx, "/api/hive/status", nil, &status)
	return status, err
}

func (c *Client) Features(ctx context.Context) ([]hive.Feature, error) {
	var body struct {
		Features []hive.Feature `json:"features"`
	}
	err := c.get(ctx, "/api/hive/features", nil, &body)
	return body.Features, err
}

func (c *Client) Summaries(ctx context.Context) ([]hive.FeatureSummary, error) {
	var body struct {
		Summaries []hive.FeatureSummary `json:"summaries"`
	}
	err := c.get(ctx, "/api/hive/summaries", nil, &body)
	return body.Summaries, err
}

func (c *Client) Feature(ctx context.Context, name string) (*hive.Feature, error) {
	var body struct {
		Feature *hive.Feature `json:"feature"`
	}
	err := c.get(ctx, "/api/hive/features/"+url.PathEscape(name), nil, &body)
	return body.Feature, err
}

func (c *Client) Plan(ctx context.Context, feature string) (*hive.Plan, error) {
	var body struct {
		Plan *hive.Plan `json:"plan"`
	}
	err := c.get(ctx, "/api/hive/features/"+url.PathEscape(feature)+"/plan", nil, &body)
	return body.Plan, err
}

func (c *Client) Tasks(ctx context.Context, feature string) ([]hive.Task, error) {
	var body struct {
		Tasks []hive.Task `json:"tasks"`
	}
	err := c.get(ctx, "/api/hive/features/"+url.PathEscape(feature)+"/tasks", nil, &body)
	return body.Tasks, err
}

func (c *Client) Task(ctx context.Context, feature, folder string) (*hive.TaskDetail, error) {
	var body struct {
		Task *hive.TaskDetail `json:"task"`
	}
	err := c.get(ctx, "/api/hive/features/"+url.PathEscape(feature)+"/tasks/"+url.PathEscape(folder), nil, &body)
	return body.Task, err
}

func (c *Client) ContextFiles(ctx context.Context, feature string) ([]hive.ContextFile, error) {
	var body struct {
		Files []hive.ContextFile `json:"files"`
	}
	err := c.get(ctx, "/api/hive/features/"+url.PathEscape(feature)+"/context", nil, &body)
	return body.Files, err
}

func (c *Client) ContextFile(ctx context.Context, feature, name string) (string, error) {
	var body struct {
		Content string `json:"content"`
	}
	err := c.get(ctx, "/api/hive/features/"+url.PathEscape(feature)+"/context/"+url.PathEscape(name), nil, &body)
	return body.Content, err
}

func (c *Client) Sessions(ctx context.Context, feature string) ([]hive.SessionLink, error) {
	var body struct {
		Sessions []hive.SessionLink `json:"sessions"`
	}
	err := c.get(ctx, "/api/hive/features/"+url.PathEscape(feature)+"/sessions", nil, &body)
	return body.Sessions, err
}

func (c *Client) Comments(ctx context.Context, feature string) ([]hive.Comment, error) {
	var body struct {
		Threads []hive.Comment `json:"threads"`
	}
	err := c.get(ctx, "/api/hive/features/"+url.PathEscape(feature)+"/comments", nil, &body)
	return body.Threads, err
}

func (c *Client) Search(ctx context.Context, query string) ([]json.RawMessage, error) {
	var body struct {
		Results []json.RawMessage `json:"results"`
	}
	err := c.get(ctx, "/api/hive/search", url.Values{"q": {query}}, &body)
	return body.Results, err
}

// --- Mutations ---

func (c *Client) CreateFeature(ctx context.Context, name, ticket string) (*hive.Feature, error) {
	var body struct {
		Feature *hive.Feature `json:"feature"`
	}
	err := c.send(ctx, http.MethodPost, "/api/hive/features",
		map[string]string{"name": name, "ticket": ticket}, &body)
	return body.Feature, err
}

func (c *Client) UpdateFeatureStatus(ctx context.Context, name string, status hive.FeatureStatus) error {
	return c.send(ctx, http.MethodPatch, "/api/hive/features/"+url.PathEscape(name),
		map[string]hive.FeatureStatus{"status": status}, nil)
}

func (c *Client) SavePlan(ctx context.Context, feature, content string) error {
	return c.send(ctx, http.MethodPut, "/api/hive/features/"+url.PathEscape(feature)+"/plan",
		map[string]string{"content": content}, nil)
}

func (c *Client) ApprovePlan(ctx context.Context, feature string) error {
	return c.send(ctx, http.MethodPost, "/api/hive/features/"+url.PathEscape(feature)+"/plan/approve", nil, nil)
}

func (c *Client) SyncTasks(ctx context.Context, feature string) (hive.SyncResult, error) {
	var result hive.SyncResult
	err := c.send(ctx, http.MethodPost, "/api/hive/features/"+url.PathEscape(feature)+"/tasks/sync", nil, &result)
	return result, err
}

func (c *Client) CreateTask(ctx context.Context, feature, name string) error {
	return c.send(ctx, http.MethodPost, "/api/hive/features/"+url.PathEscape(feature)+"/tasks",
		map[string]string{"name": name}, nil)
}

func (c *Client) UpdateTask(ctx context.Context, feature, folder string, updates hive.TaskUpdate) error {
	return c.send(ctx, http.MethodPatch,
		"/api/hive/features/"+url.PathEscape(feature)+"/tasks/"+url.PathEscape(folder), updates, nil)
}

func (c *Client) WriteContext(ctx context.Context, feature, name, content string) error {
	return c.send(ctx, http.MethodPut,
		"/api/hive/features/"+url.PathEscape(feature)+"/context/"+url.PathEscape(name),
		map[string]string{"content": content}, nil)
}

func (c *Client) DeleteContext(ctx context.Context, feature, name string) error {
	return c.send(ctx, http.MethodDelete,
		"/api/hive/features/"+url.PathEscape(feature)+"/context/"+url.PathEscape(name), nil, nil)
}

func (c *Client) LinkSession(ctx context.Context, feature, sessionID, taskFolder string) error {
	return c.send(ctx, http.MethodPost, "/api/hive/features/"+url.PathEscape(feature)+"/sessions",
		map[string]string{"sessionId": sessionID, "taskFolder": taskFolder}, nil)
}

func (c *Client) AddComment(ctx context.Context, feature string, line int, body string) error {
	return c.send(ctx, http.MethodPost, "/api/hive/features/"+url.PathEscape(feature)+"/comments",
		map[string]any{"line": line, "body": body}, nil)
}

func (c *Client) DeleteComment(ctx context.Context, feature, commentID string) error {
	return c.send(ctx, http.MethodDelete,
		"/api/hive/features/"+url.PathEscape(feature)+"/comments/"+url.PathEscape(commentID), nil, nil)
}
