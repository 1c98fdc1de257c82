package graphapi

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

	routerports "graphrelay/contexts/collaboration-ingest/notification-router/ports"
	lifecycleports "graphrelay/contexts/collaboration-ingest/subscription-lifecycle/ports"
)

// ErrNotFound reports a resource the platform no longer has. Callers map
// it into their own taxonomy.
var ErrNotFound = errors.New("resource not found on platform")

// TokenProvider supplies a bearer token for each request.
type TokenProvider func(ctx context.Context) (string, error)

type Options struct {
	BaseURL       string
	TokenProvider TokenProvider
	HTTPClient    *http.Client
	UserAgent     string
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	Logger        *slog.Logger
}

// Client talks to the collaboration platform's REST API. It serves both
// the router's fetch-by-id needs and the lifecycle manager's subscription
// management.
type Client struct {
	baseURL       string
	tokenProvider TokenProvider
	httpClient    *http.Client
	userAgent     string
	maxRetries    int
	baseDelay     time.Duration
	maxDelay      time.Duration
	logger        *slog.Logger
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://graph.microsoft.com/v1.0"
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:       baseURL,
		tokenProvider: opts.TokenProvider,
		httpClient:    httpClient,
		userAgent:     strings.TrimSpace(opts.UserAgent),
		maxRetries:    maxRetries,
		baseDelay:     baseDelay,
		maxDelay:      maxDelay,
		logger:        logger,
	}
}

func (c *Client) GetCallRecord(ctx context.Context, callID string) (routerports.Resource, error) {
	path := fmt.Sprintf("/communications/callRecords/%s?$expand=%s",
		url.PathEscape(callID),
		url.QueryEscape("sessions($expand=segments)"),
	)
	return c.fetchResource(ctx, path)
}

func (c *Client) GetUserEvent(ctx context.Context, userID string, eventID string) (routerports.Resource, error) {
	path := fmt.Sprintf("/users/%s/events/%s", url.PathEscape(userID), url.PathEscape(eventID))
	return c.fetchResource(ctx, path)
}

func (c *Client) GetChatMessage(ctx context.Context, chatID string, messageID string) (routerports.Resource, error) {
	path := fmt.Sprintf("/chats/%s/messages/%s", url.PathEscape(chatID), url.PathEscape(messageID))
	return c.fetchResource(ctx, path)
}

func (c *Client) ListPrincipals(ctx context.Context) ([]lifecycleports.Principal, error) {
	body, err := c.do(ctx, http.MethodGet, "/users", nil)
	if err != nil {
		return nil, err
	}

	var page struct {
		Value []struct {
			ID          string `json:"id"`
			DisplayName string `json:"displayName"`
		} `json:"value"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("decode principal listing: %w", err)
	}

	principals := make([]lifecycleports.Principal, 0, len(page.Value))
	for _, user := range page.Value {
		principals = append(principals, lifecycleports.Principal{
			ID:          user.ID,
			DisplayName: user.DisplayName,
		})
	}
	return principals, nil
}

func (c *Client) CreateSubscription(ctx context.Context, spec lifecycleports.SubscriptionSpec) (lifecycleports.Subscription, error) {
	request := map[string]string{
		"changeType":                spec.ChangeTypes,
		"notificationUrl":           spec.NotificationURL,
		"resource":                  spec.Resource,
		"expirationDateTime":        spec.ExpiresAt.UTC().Format(time.RFC3339),
		"clientState":               spec.ClientState,
		"latestSupportedTlsVersion": "v1_2",
	}
	body, err := c.do(ctx, http.MethodPost, "/subscriptions", request)
	if err != nil {
		return lifecycleports.Subscription{}, err
	}

	var created struct {
		ID                 string    `json:"id"`
		ExpirationDateTime time.Time `json:"expirationDateTime"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return lifecycleports.Subscription{}, fmt.Errorf("decode created subscription: %w", err)
	}
	return lifecycleports.Subscription{
		ID:        created.ID,
		ExpiresAt: created.ExpirationDateTime,
	}, nil
}

func (c *Client) RenewSubscription(ctx context.Context, subscriptionID string, expiresAt time.Time) error {
	request := map[string]string{
		"expirationDateTime": expiresAt.UTC().Format(time.RFC3339),
	}
	_, err := c.do(ctx, http.MethodPatch, "/subscriptions/"+url.PathEscape(subscriptionID), request)
	return err
}

func (c *Client) fetchResource(ctx context.Context, path string) (routerports.Resource, error) {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return routerports.Resource{}, err
	}

	var identified struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &identified); err != nil {
		return routerports.Resource{}, fmt.Errorf("decode resource id: %w", err)
	}
	return routerports.Resource{
		ID:      identified.ID,
		Payload: body,
	}, nil
}

func (c *Client) do(ctx context.Context, method string, path string, payload any) ([]byte, error) {
	if c.tokenProvider == nil {
		return nil, errors.New("graph token provider is required")
	}

	var requestBody []byte
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		requestBody = encoded
	}

	endpoint := c.baseURL + path
	for attempt := 0; ; attempt++ {
		token, err := c.tokenProvider(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire platform token: %w", err)
		}

		var reader io.Reader
		if requestBody != nil {
			reader = bytes.NewReader(requestBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if requestBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < c.maxRetries {
				if waitErr := c.backoff(ctx, attempt); waitErr != nil {
					return nil, waitErr
				}
				continue
			}
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, fmt.Errorf("%s %s: read response: %w", method, path, readErr)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			if attempt < c.maxRetries {
				c.logger.Warn("platform api retrying",
					"event", "graphapi_retry",
					"module", "internal/platform/graphapi",
					"layer", "platform",
					"method", method,
					"path", path,
					"status", resp.StatusCode,
					"attempt", attempt+1,
				)
				if waitErr := c.backoff(ctx, attempt); waitErr != nil {
					return nil, waitErr
				}
				continue
			}
			return nil, fmt.Errorf("%s %s: status %d after %d attempts: %s", method, path, resp.StatusCode, attempt+1, truncate(body))
		default:
			return nil, fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, truncate(body))
		}
	}
}

func (c *Client) backoff(ctx context.Context, attempt int) error {
	delay := c.baseDelay << uint(attempt)
	if delay > c.maxDelay {
		delay = c.maxDelay
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(body []byte) string {
	const limit = 256
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
