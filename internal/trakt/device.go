package trakt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"boxdsync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// DeviceCode is the response from /oauth/device/code.
type DeviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURL string `json:"verification_url"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// tokenResponse is Trakt's OAuth token payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	CreatedAt    int64  `json:"created_at"`
}

func (t tokenResponse) oauth2Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
	}
	if t.ExpiresIn > 0 {
		created := time.Unix(t.CreatedAt, 0)
		if t.CreatedAt == 0 {
			created = time.Now()
		}
		tok.Expiry = created.Add(time.Duration(t.ExpiresIn) * time.Second)
	}
	return tok
}

// GetDeviceCode starts the device-code authorization flow.
func (c *Client) GetDeviceCode(ctx context.Context) (*DeviceCode, error) {
	payload := map[string]string{"client_id": c.clientID}

	status, body, err := c.postAuth(ctx, "/oauth/device/code", payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: device code request returned status %d", shared.ErrAuthFailed, status)
	}

	var dc DeviceCode
	if err := json.Unmarshal(body, &dc); err != nil {
		return nil, fmt.Errorf("decode device code response: %w", err)
	}
	return &dc, nil
}

// PollDeviceToken makes one token poll attempt. Returns
// [shared.ErrAuthPending] while the user has not yet approved the code.
func (c *Client) PollDeviceToken(ctx context.Context, deviceCode string) (*oauth2.Token, error) {
	payload := map[string]string{
		"code":          deviceCode,
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	}

	status, body, err := c.postAuth(ctx, "/oauth/device/token", payload)
	if err != nil {
		return nil, err
	}

	switch status {
	case http.StatusOK:
		var tr tokenResponse
		if err := json.Unmarshal(body, &tr); err != nil {
			return nil, fmt.Errorf("decode token response: %w", err)
		}
		return tr.oauth2Token(), nil
	case http.StatusBadRequest:
		return nil, shared.ErrAuthPending
	case http.StatusGone:
		return nil, fmt.Errorf("%w: device code expired", shared.ErrAuthFailed)
	case http.StatusConflict:
		return nil, fmt.Errorf("%w: device code already used", shared.ErrAuthFailed)
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: token poll", shared.ErrThrottled)
	default:
		return nil, fmt.Errorf("%w: token poll returned status %d", shared.ErrAuthFailed, status)
	}
}

// WaitForDeviceToken polls until the user approves the device code, the
// code expires, or the context is cancelled. Polling is paced with the
// interval Trakt hands back.
func (c *Client) WaitForDeviceToken(ctx context.Context, dc *DeviceCode) (*oauth2.Token, error) {
	interval := time.Duration(dc.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	deadline := time.Now().Add(time.Duration(dc.ExpiresIn) * time.Second)
	limiter := rate.NewLimiter(rate.Every(interval), 1)

	for time.Now().Before(deadline) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}

		tok, err := c.PollDeviceToken(ctx, dc.DeviceCode)
		switch {
		case err == nil:
			return tok, nil
		case errors.Is(err, shared.ErrAuthPending), errors.Is(err, shared.ErrThrottled):
			continue
		default:
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: device code expired before approval", shared.ErrAuthFailed)
}

// postAuth posts to an OAuth endpoint; these carry no bearer token and sit
// outside the gateway pacer because Trakt hands them their own interval.
func (c *Client) postAuth(ctx context.Context, endpoint string, payload map[string]string) (int, []byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, false)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}
