// Package client talks to a running kaiwa server over HTTP.
package client

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

	"github.com/hyperjump/kaiwa/internal/models"
)

// DefaultURL is the server address used when none is configured.
const DefaultURL = "http://127.0.0.1:5050"

// Client is a small JSON client for the kaiwa API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. A nil httpClient uses one with a two minute timeout,
// long enough for a slow completion.
func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Ingest posts a document.
func (c *Client) Ingest(ctx context.Context, req *models.IngestRequest) (*models.IngestResponse, error) {
	var out models.IngestResponse
	if err := c.do(ctx, http.MethodPost, "/ingest", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ask posts a query.
func (c *Client) Ask(ctx context.Context, req *models.AskRequest) (*models.AskResponse, error) {
	var out models.AskResponse
	if err := c.do(ctx, http.MethodPost, "/ask", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status calls the liveness probe.
func (c *Client) Status(ctx context.Context) (*models.StatusResponse, error) {
	var out models.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats fetches store sizes and settings.
func (c *Client) Stats(ctx context.Context) (*models.StatsResponse, error) {
	var out models.StatsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// History fetches every turn of a session.
func (c *Client) History(ctx context.Context, sessionID string) (*models.SessionHistory, error) {
	var out models.SessionHistory
	if err := c.do(ctx, http.MethodGet, "/api/v1/sessions/"+url.PathEscape(sessionID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(b))
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
