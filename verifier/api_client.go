package verifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

const maxErrBody = 256

// Client is the HTTP implementation of ApiGateway. It talks to the backend
// the same way the SPA does: JSON bodies, bearer tokens.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("login: status %d: %s", resp.StatusCode, truncate(payload))
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("login: decode response: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("login: empty access_token in response")
	}
	return out.AccessToken, nil
}

func (c *Client) Me(ctx context.Context, token string) (Identity, error) {
	payload, err := c.get(ctx, "/api/auth/me", token)
	if err != nil {
		return Identity{}, err
	}
	var identity Identity
	if err := json.Unmarshal(payload, &identity); err != nil {
		return Identity{}, fmt.Errorf("me: decode response: %w", err)
	}
	return identity, nil
}

// Restaurants fetches the supplier-scoped listing. A non-array body is
// treated as an empty sequence.
func (c *Client) Restaurants(ctx context.Context, token string) ([]Restaurant, error) {
	payload, err := c.get(ctx, "/api/supplier/restaurants", token)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return []Restaurant{}, nil
	}
	var restaurants []Restaurant
	if err := json.Unmarshal(trimmed, &restaurants); err != nil {
		return nil, fmt.Errorf("restaurants: decode response: %w", err)
	}
	return restaurants, nil
}

func (c *Client) get(ctx context.Context, path, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, truncate(payload))
	}
	return payload, nil
}

func truncate(body []byte) string {
	s := string(bytes.TrimSpace(body))
	if len(s) > maxErrBody {
		return s[:maxErrBody] + "..."
	}
	return s
}
