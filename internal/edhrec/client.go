// Package edhrec fetches aggregated Commander deck statistics from EDHREC's
// JSON pages and stores them as corpus data.
package edhrec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/danethurber/ponderous/internal/corpus"
)

const (
	// DefaultBaseURL serves EDHREC's JSON pages.
	DefaultBaseURL = "https://json.edhrec.com"

	// DefaultTimeout bounds one HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the client to EDHREC.
	DefaultUserAgent = "ponderous/1.0 (MTG collection analyzer)"

	// DefaultRequestsPerSecond keeps scraping polite.
	DefaultRequestsPerSecond = 1.5

	maxBodyBytes = 16 << 20
)

// ClientOptions configures the EDHREC client.
type ClientOptions struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// BreakerFailures is the number of consecutive failures that opens the circuit.
	BreakerFailures uint32
	// BreakerOpenDelay is how long the circuit stays open before a trial request.
	BreakerOpenDelay time.Duration

	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// DefaultClientOptions returns conservative defaults.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		BaseURL:          DefaultBaseURL,
		UserAgent:        DefaultUserAgent,
		Timeout:          DefaultTimeout,
		BreakerFailures:  5,
		BreakerOpenDelay: time.Minute,
	}
}

// NewLimiter returns a limiter allowing rps requests per second with no burst.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Client fetches EDHREC pages. Every request waits on the shared limiter
// and runs through a circuit breaker.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     zerolog.Logger
}

// NewClient creates a client. The limiter is owned by the caller so several
// clients can share one budget; a nil limiter gets the default rate.
func NewClient(opts ClientOptions, limiter *rate.Limiter) *Client {
	defaults := DefaultClientOptions()
	if opts.BaseURL == "" {
		opts.BaseURL = defaults.BaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaults.Timeout
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = defaults.BreakerFailures
	}
	if opts.BreakerOpenDelay <= 0 {
		opts.BreakerOpenDelay = defaults.BreakerOpenDelay
	}
	if limiter == nil {
		limiter = NewLimiter(DefaultRequestsPerSecond)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	logger = logger.With().Str("component", "edhrec").Logger()

	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "edhrec",
		MaxRequests: 1,
		Timeout:     opts.BreakerOpenDelay,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// A missing page is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || IsNotFound(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userAgent:  opts.UserAgent,
		limiter:    limiter,
		breaker:    breaker,
		logger:     logger,
	}
}

// budgetPath maps a bracket to EDHREC's page suffix. The unsuffixed page
// aggregates every deck and stands in for the mid bracket.
func budgetPath(b corpus.BudgetBracket) (string, bool) {
	switch b {
	case "", corpus.Mid:
		return "", true
	case corpus.Budget:
		return "/budget", true
	case corpus.High:
		return "/expensive", true
	}
	return "", false
}

// FetchCommander fetches the page of a commander for a budget bracket.
func (c *Client) FetchCommander(ctx context.Context, slug string, budget corpus.BudgetBracket) (*CommanderPage, error) {
	slug = Slugify(slug)
	if slug == "" {
		return nil, &APIError{Type: ErrInvalidSlug, Message: "commander slug cannot be empty"}
	}
	suffix, ok := budgetPath(budget)
	if !ok {
		return nil, &APIError{Type: ErrNotFound, Message: fmt.Sprintf("no EDHREC page for budget %q", budget)}
	}

	url := fmt.Sprintf("%s/pages/commanders/%s%s.json", c.baseURL, slug, suffix)
	body, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	var page CommanderPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &APIError{Type: ErrParseError, URL: url, Message: "failed to decode commander page", Err: err}
	}

	return &page, nil
}

// FetchTopCommanders returns up to limit commander slugs in popularity order.
func (c *Client) FetchTopCommanders(ctx context.Context, limit int) ([]string, error) {
	url := c.baseURL + "/pages/commanders/year.json"
	body, err := c.doRequest(ctx, url)
	if err != nil {
		return nil, err
	}

	var page ListPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &APIError{Type: ErrParseError, URL: url, Message: "failed to decode commander list", Err: err}
	}
	if page.Container == nil || page.Container.JSONDict == nil {
		return nil, nil
	}

	var slugs []string
	seen := make(map[string]struct{})
	for _, list := range page.Container.JSONDict.CardLists {
		for _, view := range list.CardViews {
			slug := view.Sanitized
			if slug == "" {
				slug = Slugify(view.Name)
			}
			if _, dup := seen[slug]; dup || slug == "" {
				continue
			}
			seen[slug] = struct{}{}
			slugs = append(slugs, slug)
			if limit > 0 && len(slugs) >= limit {
				return slugs, nil
			}
		}
	}

	return slugs, nil
}

// doRequest performs a rate-limited GET through the circuit breaker.
func (c *Client) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Type: ErrRateLimited, URL: url, Message: "rate limiter wait failed", Err: err}
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.get(ctx, url)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &APIError{Type: ErrUnavailable, URL: url, Message: "EDHREC circuit open", Err: err}
	}
	return body, err
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Type: ErrUnavailable, URL: url, Message: "failed to execute request", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug().Str("url", url).Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).Msg("EDHREC request")

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		return nil, &APIError{Type: ErrNotFound, StatusCode: resp.StatusCode, URL: url, Message: "page not found: " + url}
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &APIError{Type: ErrRateLimited, StatusCode: resp.StatusCode, URL: url, Message: "rate limit exceeded"}
	case resp.StatusCode != http.StatusOK:
		return nil, &APIError{
			Type:       ErrUnavailable,
			StatusCode: resp.StatusCode,
			URL:        url,
			Message:    fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &APIError{Type: ErrUnavailable, URL: url, Message: "failed to read response", Err: err}
	}
	return body, nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9\s-]+`)
var slugSpace = regexp.MustCompile(`[\s-]+`)

// Slugify converts a commander name to EDHREC's URL form:
// "Meren of Clan Nel Toth" becomes "meren-of-clan-nel-toth". Partner
// pairs joined by "//" keep both halves.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "//", " ")
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpace.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
