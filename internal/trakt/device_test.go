package trakt

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"boxdsync/internal/shared"
)

func TestGetDeviceCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/device/code" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("device code request must not carry a bearer token")
		}
		io.WriteString(w, `{"device_code":"dev123","user_code":"ABCD1234","verification_url":"https://trakt.tv/activate","expires_in":600,"interval":5}`)
	}))
	defer server.Close()

	c := NewClient("client-id", "client-secret", fastOptions(server.URL))
	dc, err := c.GetDeviceCode(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dc.UserCode != "ABCD1234" || dc.Interval != 5 {
		t.Errorf("unexpected device code: %+v", dc)
	}
}

func TestPollDeviceToken(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"pending", http.StatusBadRequest, "", shared.ErrAuthPending},
		{"expired", http.StatusGone, "", shared.ErrAuthFailed},
		{"already used", http.StatusConflict, "", shared.ErrAuthFailed},
		{"slow down", http.StatusTooManyRequests, "", shared.ErrThrottled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			c := NewClient("client-id", "client-secret", fastOptions(server.URL))
			_, err := c.PollDeviceToken(context.Background(), "dev123")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("approved", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"access_token":"at","token_type":"bearer","expires_in":7200,"refresh_token":"rt","created_at":1700000000}`)
		}))
		defer server.Close()

		c := NewClient("client-id", "client-secret", fastOptions(server.URL))
		tok, err := c.PollDeviceToken(context.Background(), "dev123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.AccessToken != "at" || tok.RefreshToken != "rt" {
			t.Errorf("unexpected token: %+v", tok)
		}
		want := time.Unix(1700000000, 0).Add(7200 * time.Second)
		if !tok.Expiry.Equal(want) {
			t.Errorf("expected expiry %v, got %v", want, tok.Expiry)
		}
	})
}

func TestWaitForDeviceTokenApproval(t *testing.T) {
	polls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls++
		if polls < 3 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		io.WriteString(w, `{"access_token":"at","token_type":"bearer"}`)
	}))
	defer server.Close()

	c := NewClient("client-id", "client-secret", fastOptions(server.URL))
	dc := &DeviceCode{DeviceCode: "dev123", ExpiresIn: 60, Interval: 1}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	start := time.Now()
	tok, err := c.WaitForDeviceToken(ctx, dc)
	if err != nil {
		t.Fatalf("unexpected error after %v: %v", time.Since(start), err)
	}
	if tok.AccessToken != "at" {
		t.Errorf("unexpected token: %+v", tok)
	}
	if polls != 3 {
		t.Errorf("expected 3 polls, got %d", polls)
	}
}

func TestWaitForDeviceTokenDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	c := NewClient("client-id", "client-secret", fastOptions(server.URL))
	dc := &DeviceCode{DeviceCode: "dev123", ExpiresIn: 60, Interval: 1}

	_, err := c.WaitForDeviceToken(context.Background(), dc)
	if !errors.Is(err, shared.ErrAuthFailed) {
		t.Fatalf("expected auth failure, got %v", err)
	}
}
