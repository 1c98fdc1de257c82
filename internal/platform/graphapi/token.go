package graphapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ClientCredentials drives the OAuth2 client-credentials grant against
// the platform's token endpoint and caches the token until shortly
// before expiry.
type ClientCredentials struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scope        string
	HTTPClient   *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// Provider returns a TokenProvider backed by the cached grant.
func (c *ClientCredentials) Provider() TokenProvider {
	return c.acquire
}

func (c *ClientCredentials) acquire(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expiresAt) {
		return c.token, nil
	}

	if strings.TrimSpace(c.TokenURL) == "" {
		return "", errors.New("token url is required")
	}
	scope := c.Scope
	if scope == "" {
		scope = "https://graph.microsoft.com/.default"
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.ClientID)
	form.Set("client_secret", c.ClientSecret)
	form.Set("scope", scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint status %d: %s", resp.StatusCode, truncate(body))
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &grant); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if grant.AccessToken == "" {
		return "", errors.New("token endpoint returned no access token")
	}

	c.token = grant.AccessToken
	lifetime := time.Duration(grant.ExpiresIn) * time.Second
	if lifetime <= time.Minute {
		lifetime = 5 * time.Minute
	}
	c.expiresAt = time.Now().Add(lifetime - time.Minute)
	return c.token, nil
}
