package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultUserAgent = "clinic-agenda/0.1"

// ClientConfig controls how the HTTP settings client behaves.
type ClientConfig struct {
	BaseURL    string
	APIToken   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
	UserAgent  string
}

// Client talks to a remote clinic-settings REST API.
type Client struct {
	baseURL    string
	apiToken   string
	httpClient *http.Client
	logger     *slog.Logger
	userAgent  string
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("settings: remote status %d", e.StatusCode)
	}
	return fmt.Sprintf("settings: remote status %d: %s", e.StatusCode, e.Message)
}

// NewClient creates a Client. BaseURL is required.
func NewClient(cfg ClientConfig) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("settings: base URL is required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("settings: parse base URL: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:    baseURL,
		apiToken:   cfg.APIToken,
		httpClient: httpClient,
		logger:     logger,
		userAgent:  userAgent,
	}, nil
}

// ListByClinic fetches every setting stored for the clinic.
// GET /clinic-settings/clinic/{clinicId}
func (c *Client) ListByClinic(ctx context.Context, clinicID string) ([]Setting, error) {
	if strings.TrimSpace(clinicID) == "" {
		return nil, errors.New("settings: clinic id required")
	}
	data, err := c.invoke(ctx, http.MethodGet, "/clinic-settings/clinic/"+url.PathEscape(clinicID), nil)
	if err != nil {
		return nil, err
	}
	var out []Setting
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("settings: decode list: %w", err)
	}
	return out, nil
}

// Update replaces the value of an existing setting.
// PUT /clinic-settings/{id}
func (c *Client) Update(ctx context.Context, id string, s Setting) (Setting, error) {
	if strings.TrimSpace(id) == "" {
		return Setting{}, errors.New("settings: setting id required")
	}
	return c.write(ctx, http.MethodPut, "/clinic-settings/"+url.PathEscape(id), s)
}

// Create stores a new setting.
// POST /clinic-settings
func (c *Client) Create(ctx context.Context, s Setting) (Setting, error) {
	return c.write(ctx, http.MethodPost, "/clinic-settings", s)
}

func (c *Client) write(ctx context.Context, method, path string, s Setting) (Setting, error) {
	if err := s.Validate(); err != nil {
		return Setting{}, err
	}
	body, err := json.Marshal(s)
	if err != nil {
		return Setting{}, fmt.Errorf("settings: marshal setting: %w", err)
	}
	data, err := c.invoke(ctx, method, path, body)
	if err != nil {
		return Setting{}, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}
	var out Setting
	if err := json.Unmarshal(data, &out); err != nil {
		return Setting{}, fmt.Errorf("settings: decode setting: %w", err)
	}
	return out, nil
}

func (c *Client) invoke(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("settings: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("settings: http error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("settings: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeAPIError(resp.StatusCode, data)
		c.logger.Warn("settings request failed",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
		)
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, apiErr.Error())
		}
		return nil, apiErr
	}
	return data, nil
}

func decodeAPIError(status int, data []byte) *APIError {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(data, &payload); err == nil {
		apiErr.Message = payload.Error
		if apiErr.Message == "" {
			apiErr.Message = payload.Message
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
