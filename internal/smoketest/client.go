package smoketest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// client wraps the HTTP calls the smoke test makes against the service.
type client struct {
	base string
	http *http.Client
}

func newClient(cfg *Config) *client {
	return &client{
		base: cfg.BaseURL,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// seederIdentity is the author identity used for seeded notes.
const (
	seederEmail = "seeder@example.com"
	seederName  = "Smoke Seeder"
)

func (c *client) checkHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("service unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected health status %d", resp.StatusCode)
	}
	return nil
}

func (c *client) createNote(ctx context.Context, n seedNote) (noteCreated, error) {
	var out noteCreated
	err := c.doJSON(ctx, http.MethodPost, "/notes", seederEmail, seederName, n, &out, http.StatusCreated)
	return out, err
}

func (c *client) rateNote(ctx context.Context, v vote) error {
	return c.doJSON(ctx, http.MethodPost, "/notes/"+v.noteID+"/rate", v.voter, "", voteRequest{Value: v.value}, nil, http.StatusOK)
}

func (c *client) download(ctx context.Context, noteID string) error {
	return c.doJSON(ctx, http.MethodPost, "/notes/"+noteID+"/download", "", "", nil, nil, http.StatusOK)
}

func (c *client) ranking(ctx context.Context, metric string, days, limit int) ([]rankedEntry, error) {
	path := fmt.Sprintf("/ranking?by=%s&days=%d&limit=%d", metric, days, limit)
	var out struct {
		Items []rankedEntry `json:"items"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, "", "", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// doJSON performs one request with optional identity headers, JSON body, and
// decoded JSON response. A status other than want is an error.
func (c *client) doJSON(ctx context.Context, method, path, email, name string, body, out any, want int) error {
	var rd io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if email != "" {
		req.Header.Set("X-User-Email", email)
	}
	if name != "" {
		req.Header.Set("X-User-Name", name)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(raw))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
