package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	simerrors "github.com/Aman-CERP/simscore/internal/errors"
)

// DefaultClientTimeout bounds a single request when the caller sets none.
const DefaultClientTimeout = 60 * time.Second

// Client calls a running simscore HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CompareTexts posts a form-encoded comparison.
func (c *Client) CompareTexts(ctx context.Context, text1, text2, method string) (CompareResponse, error) {
	form := url.Values{
		"text1":  {text1},
		"text2":  {text2},
		"method": {method},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/compare-texts/", strings.NewReader(form.Encode()))
	if err != nil {
		return CompareResponse{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out CompareResponse
	if err := c.do(req, &out); err != nil {
		return CompareResponse{}, err
	}
	return out, nil
}

// Health fetches GET /healthz.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return HealthResponse{}, fmt.Errorf("failed to build request: %w", err)
	}

	var out HealthResponse
	if err := c.do(req, &out); err != nil {
		return HealthResponse{}, err
	}
	return out, nil
}

// do sends req and decodes a success body into out. Error bodies become
// SimErrors carrying the server's code and suggestion.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return simerrors.New(simerrors.ErrCodeNetworkTimeout,
			fmt.Sprintf("failed to reach simscore server at %s", c.baseURL), err).
			WithSuggestion("start it with 'simscore serve'")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var er ErrorResponse
		if json.Unmarshal(body, &er) != nil || er.Code == "" {
			return simerrors.New(simerrors.ErrCodeInternal,
				fmt.Sprintf("server returned %s", resp.Status), nil)
		}
		se := simerrors.New(er.Code, er.Error, nil)
		if er.Suggestion != "" {
			se = se.WithSuggestion(er.Suggestion)
		}
		if er.RequestID != "" {
			se = se.WithDetail("request_id", er.RequestID)
		}
		return se
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
