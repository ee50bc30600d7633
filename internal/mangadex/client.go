package mangadex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/denshikawa/go-manga-backend/internal/config"
)

const (
	// requestTimeout bounds a single HTTP call, independent of the retry
	// engine's wall-clock budget.
	requestTimeout = 30 * time.Second

	// permitPollInterval is how long a request sleeps between token-bucket
	// checks. Only the waiting request suspends, never the process.
	permitPollInterval = 100 * time.Millisecond

	// banCooldown is the suggested wait after a 403, which the upstream uses
	// as a temporary ban signal.
	banCooldown = 120 * time.Second

	// maxErrorBody caps how much of a failing response body is retained.
	maxErrorBody = 64 << 10
)

// Client is the typed upstream catalog client. One long-lived instance serves
// all concurrent requests; the rate limiter and credential state are the only
// shared pieces, both guarded by short-held exclusive access.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	baseURL string
	cfg     config.MangaDexConfig
	tokens  *tokenManager
	policy  retryPolicy

	// Injectable for deterministic tests.
	sleep func(time.Duration)
	now   func() time.Time
}

// NewClient builds a client from configuration. The limiter replenishes at
// the configured rate with capacity equal to one second of permits, so there
// is no burst carry-over beyond that.
func NewClient(cfg config.MangaDexConfig) *Client {
	httpClient := &http.Client{Timeout: requestTimeout}
	c := &Client{
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitPerSec),
		baseURL: cfg.BaseURL,
		cfg:     cfg,
		policy:  defaultRetryPolicy(),
		sleep:   time.Sleep,
		now:     time.Now,
	}
	c.tokens = newTokenManager(cfg, httpClient, func() time.Time { return c.now() })
	return c
}

// SearchManga queries the catalog by title.
func (c *Client) SearchManga(ctx context.Context, title string, limit, offset int) (Envelope[[]Manga], error) {
	u := fmt.Sprintf("%s/manga?title=%s&limit=%d&offset=%d&includes[]=cover_art&includes[]=author&includes[]=artist",
		c.baseURL, url.QueryEscape(title), limit, offset)
	return fetch[Envelope[[]Manga]](ctx, c, u)
}

// GetPopularManga lists the catalog ordered by follower count.
func (c *Client) GetPopularManga(ctx context.Context, limit, offset int) (Envelope[[]Manga], error) {
	u := fmt.Sprintf("%s/manga?order[followedCount]=desc&limit=%d&offset=%d&includes[]=cover_art&includes[]=author&includes[]=artist",
		c.baseURL, limit, offset)
	return fetch[Envelope[[]Manga]](ctx, c, u)
}

// GetLatestManga lists the catalog ordered by latest uploaded chapter.
func (c *Client) GetLatestManga(ctx context.Context, limit, offset int) (Envelope[[]Manga], error) {
	u := fmt.Sprintf("%s/manga?order[latestUploadedChapter]=desc&limit=%d&offset=%d&includes[]=cover_art&includes[]=author&includes[]=artist",
		c.baseURL, limit, offset)
	return fetch[Envelope[[]Manga]](ctx, c, u)
}

// GetManga fetches one manga with its relationships expanded.
func (c *Client) GetManga(ctx context.Context, id string) (Manga, error) {
	u := fmt.Sprintf("%s/manga/%s?includes[]=cover_art&includes[]=author&includes[]=artist&includes[]=tag",
		c.baseURL, url.PathEscape(id))
	env, err := fetch[Envelope[Manga]](ctx, c, u)
	if err != nil {
		return Manga{}, err
	}
	return env.Data, nil
}

// GetChapterFeed fetches one page of a manga's chapter feed for a language,
// in ascending chapter order with scanlation groups expanded.
func (c *Client) GetChapterFeed(ctx context.Context, mangaID, lang string, limit, offset int) (Envelope[[]Chapter], error) {
	u := fmt.Sprintf("%s/manga/%s/feed?translatedLanguage[]=%s&limit=%d&offset=%d&includes[]=scanlation_group&order[chapter]=asc",
		c.baseURL, url.PathEscape(mangaID), url.QueryEscape(lang), limit, offset)
	return fetch[Envelope[[]Chapter]](ctx, c, u)
}

// GetChapter fetches one chapter.
func (c *Client) GetChapter(ctx context.Context, id string) (Chapter, error) {
	u := fmt.Sprintf("%s/chapter/%s", c.baseURL, url.PathEscape(id))
	env, err := fetch[Envelope[Chapter]](ctx, c, u)
	if err != nil {
		return Chapter{}, err
	}
	return env.Data, nil
}

// GetAtHome fetches the page manifest for a chapter.
func (c *Client) GetAtHome(ctx context.Context, chapterID string) (AtHome, error) {
	u := fmt.Sprintf("%s/at-home/server/%s", c.baseURL, url.PathEscape(chapterID))
	return fetch[AtHome](ctx, c, u)
}

// fetch wraps one logical request in the retry engine. Every attempt
// revalidates the credential so a renewal between attempts is picked up.
func fetch[T any](ctx context.Context, c *Client, u string) (T, error) {
	return runWithRetry(func() (T, error) {
		var zero T
		if err := c.tokens.EnsureValid(ctx); err != nil {
			// Rejected credentials will not fix themselves mid-request.
			return zero, backoff.Permanent(err)
		}
		return getJSON[T](ctx, c, u)
	}, c.policy, c.sleep, c.now)
}

// getJSON performs a single attempt: acquire a rate-limiter permit, issue the
// call with the current access token, and classify the outcome for the retry
// engine.
func getJSON[T any](ctx context.Context, c *Client, u string) (T, error) {
	var zero T

	// Spin on the shared gate. Allow never blocks; the wait happens here, in
	// this request only.
	for !c.limiter.Allow() {
		c.sleep(permitPollInterval)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return zero, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if tok, ok := c.tokens.Token(); ok {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport and timeout failures are transient.
		return zero, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		if err := c.tokens.HandleUnauthorized(ctx); err != nil {
			// Still transient: the outer wall-clock budget bounds how long a
			// broken identity endpoint is retried.
			return zero, err
		}
		return zero, fmt.Errorf("%w: access token rejected", ErrAuthenticationFailed)

	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return zero, ErrRateLimited

	case resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return zero, newBanError()

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return zero, backoff.Permanent(&UpstreamError{Status: resp.StatusCode, Body: string(body)})
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, backoff.Permanent(ErrInvalidResponse)
	}
	return out, nil
}

// newBanError pairs the ban sentinel with the upstream's cooldown as a
// suggested wait, keeping both visible in the error chain.
func newBanError() error {
	return fmt.Errorf("%w: %w", ErrTemporarilyBanned, &backoff.RetryAfterError{Duration: banCooldown})
}
