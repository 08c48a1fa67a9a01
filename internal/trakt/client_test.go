package trakt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"boxdsync/internal/shared"
	"golang.org/x/oauth2"
)

// fastOptions keeps pacing out of the way for transport tests.
func fastOptions(baseURL string) Options {
	return Options{
		BaseURL:       baseURL,
		Interval:      time.Millisecond,
		Cooldown:      time.Millisecond,
		CooldownEvery: 1000,
		BackoffBase:   time.Millisecond,
		MaxRetries:    3,
	}
}

func authedClient(baseURL string) *Client {
	c := NewClient("client-id", "client-secret", fastOptions(baseURL))
	c.SetToken(&oauth2.Token{AccessToken: "access-token"})
	return c
}

func TestCallFailsClosedWithoutToken(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer server.Close()

	c := NewClient("client-id", "client-secret", fastOptions(server.URL))

	_, err := c.SearchMovie(context.Background(), "Heat", 1995)
	if !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Fatalf("expected not authenticated, got %v", err)
	}
	if requests != 0 {
		t.Errorf("expected no network traffic, got %d requests", requests)
	}
}

func TestCallSetsTraktHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		io.WriteString(w, "[]")
	}))
	defer server.Close()

	c := authedClient(server.URL)
	if _, err := c.SearchMovie(context.Background(), "Heat", 1995); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Get("trakt-api-version") != "2" {
		t.Errorf("expected api version 2, got %q", got.Get("trakt-api-version"))
	}
	if got.Get("trakt-api-key") != "client-id" {
		t.Errorf("expected client id header, got %q", got.Get("trakt-api-key"))
	}
	if got.Get("Authorization") != "Bearer access-token" {
		t.Errorf("expected bearer token, got %q", got.Get("Authorization"))
	}
	if got.Get("Content-Type") != "application/json" {
		t.Errorf("expected json content type, got %q", got.Get("Content-Type"))
	}
}

func TestCallRetriesAfterThrottle(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		io.WriteString(w, "[]")
	}))
	defer server.Close()

	c := authedClient(server.URL)
	if _, err := c.SearchMovie(context.Background(), "Heat", 1995); err != nil {
		t.Fatalf("expected retries to recover, got %v", err)
	}
	if attempts != 4 {
		t.Errorf("expected 4 attempts, got %d", attempts)
	}
}

func TestCallPropagatesSustainedThrottle(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := authedClient(server.URL)
	_, err := c.SearchMovie(context.Background(), "Heat", 1995)
	if !errors.Is(err, shared.ErrThrottled) {
		t.Fatalf("expected throttled error, got %v", err)
	}
	// Initial attempt plus three retries.
	if attempts != 4 {
		t.Errorf("expected 4 attempts, got %d", attempts)
	}
}

func TestCallStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"unauthorized", http.StatusUnauthorized, shared.ErrNotAuthenticated},
		{"forbidden", http.StatusForbidden, shared.ErrNotAuthenticated},
		{"not found", http.StatusNotFound, shared.ErrNotFound},
		{"server error", http.StatusInternalServerError, shared.ErrAPIRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			c := authedClient(server.URL)
			_, err := c.SearchMovie(context.Background(), "Heat", 1995)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSearchMovieBuildsQuery(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.RequestURI()
		io.WriteString(w, `[{"type":"movie","score":100,"movie":{"title":"The Third Man","year":1949,"ids":{"trakt":77}}}]`)
	}))
	defer server.Close()

	c := authedClient(server.URL)
	results, err := c.SearchMovie(context.Background(), "The Third Man", 1949)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if path != "/search/movie?query=The+Third+Man&years=1949" {
		t.Errorf("unexpected request path: %s", path)
	}
	if len(results) != 1 || results[0].Movie == nil || results[0].Movie.IDs.Trakt != 77 {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestMovieHistoryDecodesEntries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sync/history/movies/77" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		io.WriteString(w, `[{"id":1,"watched_at":"2023-01-01T20:00:00.000Z","action":"watch","type":"movie"}]`)
	}))
	defer server.Close()

	c := authedClient(server.URL)
	entries, err := c.MovieHistory(context.Background(), 77)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	want := time.Date(2023, 1, 1, 20, 0, 0, 0, time.UTC)
	if !entries[0].WatchedAt.Equal(want) {
		t.Errorf("expected watched at %v, got %v", want, entries[0].WatchedAt)
	}
}

func TestAddToHistoryPayload(t *testing.T) {
	var payload struct {
		Movies []HistoryMovie `json:"movies"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sync/history" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"added":{"movies":1,"episodes":0},"not_found":{"movies":[]}}`)
	}))
	defer server.Close()

	c := authedClient(server.URL)
	result, err := c.AddToHistory(context.Background(), []HistoryMovie{
		{WatchedAt: "2023-01-01T00:00:00.000Z", IDs: IDs{Trakt: 77}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(payload.Movies) != 1 {
		t.Fatalf("expected 1 movie in payload, got %d", len(payload.Movies))
	}
	if payload.Movies[0].WatchedAt != "2023-01-01T00:00:00.000Z" {
		t.Errorf("unexpected watched_at: %q", payload.Movies[0].WatchedAt)
	}
	if result.Added.Movies != 1 {
		t.Errorf("expected 1 added movie, got %d", result.Added.Movies)
	}
}

func TestAddRatingsPayload(t *testing.T) {
	var payload struct {
		Movies []RatingMovie `json:"movies"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sync/ratings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"added":{"movies":1,"episodes":0},"not_found":{"movies":[]}}`)
	}))
	defer server.Close()

	c := authedClient(server.URL)
	if _, err := c.AddRatings(context.Background(), []RatingMovie{
		{Rating: 9, RatedAt: "2023-01-01T00:00:00.000Z", IDs: IDs{Trakt: 77}},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(payload.Movies) != 1 || payload.Movies[0].Rating != 9 {
		t.Errorf("unexpected payload: %+v", payload.Movies)
	}
}
