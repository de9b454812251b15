// Package advisor calls an external financial-advice service with a snapshot
// of the player's finances. The advice is display-only and never feeds back
// into the simulation.
package advisor

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

	"centsible/internal/game"
)

// ErrNotConfigured is returned when no advisor endpoint was configured.
var ErrNotConfigured = errors.New("advisor service not configured")

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type adviceResponse struct {
	Advice string `json:"advice"`
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Configured reports whether the client has an endpoint to talk to.
func (c *Client) Configured() bool {
	return c != nil && c.baseURL != ""
}

// Advise sends the summary and returns the generated advice text.
func (c *Client) Advise(ctx context.Context, summary game.FinancialSummary) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	var out adviceResponse
	if err := c.postJSON(ctx, "/v1/advice", summary, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Advice) == "" {
		return "", fmt.Errorf("advisor returned empty advice")
	}
	return out.Advice, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in any, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("advisor request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("advisor status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode advice: %w", err)
	}
	return nil
}
