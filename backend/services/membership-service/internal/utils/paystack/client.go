package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/techcircle/community-site/backend/shared/go-utils"
)

const (
	DefaultBaseURL = "https://api.paystack.co"
	ProviderName   = "paystack"
)

// retryableError marks failures worth another attempt (429, 5xx, transport).
type retryableError struct {
	err error
}

func (r *retryableError) Error() string { return r.err.Error() }
func (r *retryableError) Unwrap() error { return r.err }

// Client manages communication with the Paystack REST API.
type Client struct {
	BaseURL      *url.URL
	SecretKey    string
	HTTPClient   *http.Client
	MaxRetries   int           // extra attempts on 429, 5xx and transport errors
	RetryInitial time.Duration // initial backoff
}

// NewClient initializes a Paystack client. An empty baseURL means the live
// API.
func NewClient(secretKey, baseURL string, timeout time.Duration, maxRetries int, retryInitial time.Duration) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid baseURL: %w", err)
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if retryInitial <= 0 {
		retryInitial = 500 * time.Millisecond
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		BaseURL:      parsed,
		SecretKey:    secretKey,
		HTTPClient:   &http.Client{Timeout: timeout},
		MaxRetries:   maxRetries,
		RetryInitial: retryInitial,
	}, nil
}

// VerifyTransaction calls GET /transaction/verify/{reference}.
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	var env Envelope[Transaction]
	endpoint := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.doRequest(ctx, http.MethodGet, endpoint, &env); err != nil {
		return nil, fmt.Errorf("VerifyTransaction error: %w", err)
	}
	if !env.Status {
		return nil, &utils.ProviderError{Provider: ProviderName, StatusCode: http.StatusOK, Message: env.Message}
	}
	return &env.Data, nil
}

// doRequest retries doOnce with exponential backoff while the failure is
// retryable and the context is alive.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, out any) error {
	backoff := c.RetryInitial
	for attempt := 0; ; attempt++ {
		err := c.doOnce(ctx, method, endpoint, out)
		if err == nil {
			return nil
		}

		var re *retryableError
		if !errors.As(err, &re) || attempt >= c.MaxRetries {
			return err
		}

		utils.Logger.WithError(err).Warnf("Paystack request failed (attempt %d/%d); retrying in %v", attempt+1, c.MaxRetries+1, backoff)
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", utils.ErrProviderCommunication, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

func (c *Client) doOnce(ctx context.Context, method, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL.String()+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &retryableError{fmt.Errorf("%w: %v", utils.ErrProviderCommunication, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleHTTPError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", utils.ErrProviderCommunication, err)
	}
	return nil
}

// handleHTTPError turns a non-2xx response into a *utils.ProviderError,
// marked retryable for 429 and 5xx.
func (c *Client) handleHTTPError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var env Envelope[json.RawMessage]
	msg := strings.TrimSpace(string(bodyBytes))
	if err := json.Unmarshal(bodyBytes, &env); err == nil && env.Message != "" {
		msg = env.Message
	}

	perr := &utils.ProviderError{Provider: ProviderName, StatusCode: resp.StatusCode, Message: msg}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &retryableError{perr}
	}
	return perr
}
