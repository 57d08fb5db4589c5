package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/zombor/receipt-tracker/internal/expense"
)

// ErrNotLoggedIn is returned by Analyze before a successful Login or after Invalidate
var ErrNotLoggedIn = errors.New("not logged in")

// Client calls a receipt-tracker server. It implements expense.Analyzer and
// expense.Invalidator.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a Client for the server at baseURL
func NewClient(baseURL string, timeout time.Duration) *Client {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP creates a Client with a custom HTTP client for testing
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	Error     string    `json:"error"`
}

// Login exchanges credentials for a bearer token that is attached to every analysis request
func (c *Client) Login(ctx context.Context, username, password string) error {
	var resp loginResponse
	status, err := c.post(ctx, "/api/login", "", loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	if status != http.StatusOK || !resp.Success || resp.Token == "" {
		msg := resp.Error
		if msg == "" {
			msg = http.StatusText(status)
		}
		return fmt.Errorf("logging in: %w: %s", expense.ErrUnauthorized, msg)
	}

	c.mu.Lock()
	c.token = resp.Token
	c.mu.Unlock()
	slog.Info("Logged in", "server", c.baseURL, "expires_at", resp.ExpiresAt)
	return nil
}

// SetToken uses an existing bearer token
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Invalidate forgets the bearer token; a new Login is required afterwards
func (c *Client) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	slog.Warn("Session invalidated, please log in again", "server", c.baseURL)
}

// Analyze sends one receipt to the server. A rejected credential is reported
// as expense.ErrUnauthorized; any other HTTP status carries the server's
// success/error envelope.
func (c *Client) Analyze(ctx context.Context, req expense.AnalysisRequest) (*expense.AnalysisResponse, error) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token == "" {
		return nil, fmt.Errorf("%w: %w", expense.ErrUnauthorized, ErrNotLoggedIn)
	}

	var resp expense.AnalysisResponse
	status, err := c.post(ctx, "/api/process-receipt", token, req, &resp)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, fmt.Errorf("%w: server answered %d", expense.ErrUnauthorized, status)
	}
	if err != nil {
		return nil, fmt.Errorf("processing receipt: %w", err)
	}
	return &resp, nil
}

// post sends body as JSON and decodes the JSON answer into out. The status
// code is returned even when decoding fails.
func (c *Client) post(ctx context.Context, path, token string, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decoding response (status %d): %w", resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}
