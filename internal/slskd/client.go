package slskd

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
)

const apiPrefix = "/api/v0"

// API defines the slskd operations used by the search and download stages.
type API interface {
	Searches(ctx context.Context) ([]SearchState, error)
	StartSearch(ctx context.Context, text string, timeout time.Duration) (*SearchState, error)
	GetSearch(ctx context.Context, id string, includeResponses bool) (*SearchState, error)
	StopSearch(ctx context.Context, id string) error
	DeleteSearch(ctx context.Context, id string) error
	EnqueueDownloads(ctx context.Context, username string, files []DownloadRequest) error
	Downloads(ctx context.Context, username string) (*DownloadQueue, error)
	CancelDownload(ctx context.Context, username, transferID string, remove bool) error
}

// Client provides access to the slskd REST API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ API = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates a slskd client.
func New(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("slskd base url required")
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("slskd api key required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Searches lists every search the daemon currently remembers.
func (c *Client) Searches(ctx context.Context) ([]SearchState, error) {
	var searches []SearchState
	if err := c.do(ctx, http.MethodGet, "/searches", nil, &searches, "list searches"); err != nil {
		return nil, err
	}
	return searches, nil
}

// StartSearch submits a new search. The timeout is forwarded to the server so
// slskd stops soliciting peers at the same moment the caller stops waiting.
func (c *Client) StartSearch(ctx context.Context, text string, timeout time.Duration) (*SearchState, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("search text must not be empty")
	}
	body := map[string]any{"searchText": text}
	if timeout > 0 {
		body["searchTimeout"] = timeout.Milliseconds()
	}
	var state SearchState
	if err := c.do(ctx, http.MethodPost, "/searches", body, &state, "start search"); err != nil {
		return nil, err
	}
	if state.ID == "" {
		return nil, errors.New("slskd returned a search without an id")
	}
	return &state, nil
}

// GetSearch fetches the state of a search. With includeResponses the full
// peer responses ride along on the state document; the dedicated responses
// endpoint intermittently returns empty arrays, so it is never used.
func (c *Client) GetSearch(ctx context.Context, id string, includeResponses bool) (*SearchState, error) {
	if id == "" {
		return nil, errors.New("search id must not be empty")
	}
	path := "/searches/" + url.PathEscape(id)
	if includeResponses {
		path += "?includeResponses=true"
	}
	var state SearchState
	if err := c.do(ctx, http.MethodGet, path, nil, &state, "get search"); err != nil {
		return nil, err
	}
	return &state, nil
}

// StopSearch asks the server to stop soliciting responses for a search.
func (c *Client) StopSearch(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("search id must not be empty")
	}
	return c.do(ctx, http.MethodPut, "/searches/"+url.PathEscape(id), nil, nil, "stop search")
}

// DeleteSearch removes a search record from the server. slskd keeps finished
// searches in memory; letting them accumulate makes includeResponses return
// empty arrays even when responseCount is positive.
func (c *Client) DeleteSearch(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("search id must not be empty")
	}
	return c.do(ctx, http.MethodDelete, "/searches/"+url.PathEscape(id), nil, nil, "delete search")
}

// EnqueueDownloads queues remote files for download from a single user.
func (c *Client) EnqueueDownloads(ctx context.Context, username string, files []DownloadRequest) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("username must not be empty")
	}
	if len(files) == 0 {
		return errors.New("at least one file is required")
	}
	path := "/transfers/downloads/" + url.PathEscape(username)
	return c.do(ctx, http.MethodPost, path, files, nil, "enqueue downloads")
}

// Downloads fetches the transfer queue for a single user.
func (c *Client) Downloads(ctx context.Context, username string) (*DownloadQueue, error) {
	if strings.TrimSpace(username) == "" {
		return nil, errors.New("username must not be empty")
	}
	var queue DownloadQueue
	path := "/transfers/downloads/" + url.PathEscape(username)
	if err := c.do(ctx, http.MethodGet, path, nil, &queue, "get downloads"); err != nil {
		return nil, err
	}
	return &queue, nil
}

// CancelDownload cancels a transfer; with remove the record is also dropped
// from the server's queue listing.
func (c *Client) CancelDownload(ctx context.Context, username, transferID string, remove bool) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("username must not be empty")
	}
	if transferID == "" {
		return errors.New("transfer id must not be empty")
	}
	path := "/transfers/downloads/" + url.PathEscape(username) + "/" + url.PathEscape(transferID)
	if remove {
		path += "?remove=true"
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil, "cancel download")
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, operation string) error {
	endpoint, err := url.Parse(c.baseURL + apiPrefix + path)
	if err != nil {
		return fmt.Errorf("parse slskd url: %w", err)
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", operation, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		msg := strings.TrimSpace(string(detail))
		if msg != "" {
			return fmt.Errorf("slskd %s returned %d (latency=%v): %s", operation, resp.StatusCode, latency, msg)
		}
		return fmt.Errorf("slskd %s returned %d (latency=%v)", operation, resp.StatusCode, latency)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}
