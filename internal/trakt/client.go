// Package trakt implements the rate-limited gateway to the Trakt API.
//
// Every outbound call goes through [Client.call], which enforces request
// spacing, the batch cooldown, and exponential backoff on 429 responses.
// Endpoint wrappers are thin: they marshal payloads, attach the required
// Trakt headers, and decode responses.
//
// API reference: https://trakt.docs.apiary.io
package trakt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"boxdsync/internal/shared"
	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

const (
	defaultBaseURL = "https://api.trakt.tv"
	apiVersion     = "2"
)

// IDs holds external identifiers for a movie.
type IDs struct {
	Trakt int    `json:"trakt,omitempty"`
	Slug  string `json:"slug,omitempty"`
	IMDB  string `json:"imdb,omitempty"`
	TMDB  int    `json:"tmdb,omitempty"`
}

// Movie represents a Trakt movie.
type Movie struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   IDs    `json:"ids"`
}

// SearchResult is one ranked entry from the search endpoint.
type SearchResult struct {
	Type  string  `json:"type"`
	Score float64 `json:"score"`
	Movie *Movie  `json:"movie,omitempty"`
}

// HistoryEntry is one prior watch event from the user's history.
type HistoryEntry struct {
	ID        int64     `json:"id"`
	WatchedAt time.Time `json:"watched_at"`
	Action    string    `json:"action"`
	Type      string    `json:"type"`
	Movie     *Movie    `json:"movie,omitempty"`
}

// HistoryMovie is one movie in a history-add request.
type HistoryMovie struct {
	WatchedAt string `json:"watched_at,omitempty"`
	IDs       IDs    `json:"ids"`
}

// RatingMovie is one movie in a ratings-add request.
type RatingMovie struct {
	RatedAt string `json:"rated_at,omitempty"`
	Rating  int    `json:"rating"`
	IDs     IDs    `json:"ids"`
}

// SyncResult reports how many items a write call added and which were not
// found on the remote side.
type SyncResult struct {
	Added struct {
		Movies   int `json:"movies"`
		Episodes int `json:"episodes"`
	} `json:"added"`
	NotFound struct {
		Movies []HistoryMovie `json:"movies"`
	} `json:"not_found"`
}

// Options configures a [Client]. Zero values use the Trakt defaults.
type Options struct {
	BaseURL       string
	HTTPClient    *http.Client
	Logger        *log.Logger
	Interval      time.Duration
	Cooldown      time.Duration
	CooldownEvery int
	BackoffBase   time.Duration
	MaxRetries    int
}

// Client is the single choke point for Trakt API calls.
//
// Pacing state lives on the instance; concurrent callers are serialized
// by the pacer's lock, but a single sequential driver is the intended use.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	token        *oauth2.Token
	httpClient   *http.Client
	pacer        *pacer
	backoffBase  time.Duration
	maxRetries   int
	logger       *log.Logger
}

// NewClient creates a Trakt client with the given application credentials.
func NewClient(clientID, clientSecret string, opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = defaultBackoffBase
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultMaxRetries
	}

	return &Client{
		baseURL:      opts.BaseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   opts.HTTPClient,
		pacer:        newPacer(opts.Interval, opts.Cooldown, opts.CooldownEvery),
		backoffBase:  opts.BackoffBase,
		maxRetries:   opts.MaxRetries,
		logger:       opts.Logger,
	}
}

// SetToken installs the bearer token attached to every subsequent call.
func (c *Client) SetToken(tok *oauth2.Token) {
	c.token = tok
}

// Token returns the installed token, nil when not authenticated.
func (c *Client) Token() *oauth2.Token {
	return c.token
}

// Authenticated reports whether a usable access token is installed.
func (c *Client) Authenticated() bool {
	return c.token != nil && c.token.AccessToken != ""
}

// OAuthConfig returns the standard OAuth2 configuration for Trakt's token
// endpoint, used for refreshing expired tokens.
func (c *Client) OAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
		Endpoint: oauth2.Endpoint{
			AuthURL:  "https://trakt.tv/oauth/authorize",
			TokenURL: c.baseURL + "/oauth/token",
		},
	}
}

// setHeaders adds the required Trakt API headers to a request.
func (c *Client) setHeaders(req *http.Request, withToken bool) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("trakt-api-version", apiVersion)
	req.Header.Set("trakt-api-key", c.clientID)
	if withToken && c.token != nil {
		req.Header.Set("Authorization", "Bearer "+c.token.AccessToken)
	}
}

// call performs one paced, authenticated request. 429 responses are retried
// with exponential backoff (backoffBase * 2^attempt); any other failure
// propagates immediately. Absence of a token fails closed without touching
// the network.
func (c *Client) call(ctx context.Context, method, endpoint string, payload, result any) error {
	if !c.Authenticated() {
		return fmt.Errorf("%w: gateway has no access token", shared.ErrNotAuthenticated)
	}

	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		if err := c.pacer.wait(ctx); err != nil {
			return err
		}

		status, respBody, err := c.do(ctx, method, endpoint, body)
		c.pacer.done()
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}

		if status == http.StatusTooManyRequests {
			if attempt >= c.maxRetries {
				return fmt.Errorf("%w: %s (after %d retries)", shared.ErrThrottled, endpoint, c.maxRetries)
			}
			delay := c.backoffBase << attempt
			c.logger.Warn("throttled by trakt, backing off", "endpoint", endpoint, "attempt", attempt, "delay", delay)
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}
			continue
		}

		switch {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return fmt.Errorf("%w: trakt returned status %d", shared.ErrNotAuthenticated, status)
		case status == http.StatusNotFound:
			return fmt.Errorf("%w: %s", shared.ErrNotFound, endpoint)
		case status < 200 || status >= 300:
			return fmt.Errorf("%w: %s returned status %d: %s", shared.ErrAPIRequest, endpoint, status, truncate(respBody, 200))
		}

		if result != nil {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("%w: decode %s response: %v", shared.ErrAPIRequest, endpoint, err)
			}
		}
		return nil
	}
}

// do issues a single HTTP request and drains the response.
func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, true)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

// SearchMovie queries Trakt's movie search by title and year, returning
// ranked matches. Zero matches is not an error.
func (c *Client) SearchMovie(ctx context.Context, title string, year int) ([]SearchResult, error) {
	endpoint := fmt.Sprintf("/search/movie?query=%s", url.QueryEscape(title))
	if year > 0 {
		endpoint += "&years=" + strconv.Itoa(year)
	}

	var results []SearchResult
	if err := c.call(ctx, http.MethodGet, endpoint, nil, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// MovieHistory returns the user's prior watch entries for one movie.
// An empty slice means the movie is not in the remote history.
func (c *Client) MovieHistory(ctx context.Context, traktID int) ([]HistoryEntry, error) {
	endpoint := fmt.Sprintf("/sync/history/movies/%d", traktID)

	var entries []HistoryEntry
	if err := c.call(ctx, http.MethodGet, endpoint, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// AddToHistory submits watch events to the user's history.
func (c *Client) AddToHistory(ctx context.Context, movies []HistoryMovie) (*SyncResult, error) {
	payload := struct {
		Movies []HistoryMovie `json:"movies"`
	}{Movies: movies}

	var result SyncResult
	if err := c.call(ctx, http.MethodPost, "/sync/history", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AddRatings submits ratings for movies.
func (c *Client) AddRatings(ctx context.Context, movies []RatingMovie) (*SyncResult, error) {
	payload := struct {
		Movies []RatingMovie `json:"movies"`
	}{Movies: movies}

	var result SyncResult
	if err := c.call(ctx, http.MethodPost, "/sync/ratings", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
