// Package transport performs outbound GET requests with a timeout, bounded
// retries and exponential backoff.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"

	"github.com/pauljones0/steam-deals-bot/internal/metrics"
	"github.com/pauljones0/steam-deals-bot/internal/util"
)

// ErrRequestFailed wraps every terminal fetch failure.
var ErrRequestFailed = errors.New("request failed")

const (
	DefaultUserAgent = "DiscordSteamDealsBot/1.0"
	maxBodyBytes     = 8 << 20
)

// DefaultAllowedHosts limits outbound requests to the Steam store.
var DefaultAllowedHosts = []string{"store.steampowered.com"}

// Fetcher is the black-box transport consumed by the Steam adapters.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, params url.Values) (string, error)
}

type Options struct {
	Timeout      time.Duration
	MaxRetries   int
	BaseDelay    time.Duration
	UserAgent    string
	AllowedHosts []string
}

type Client struct {
	httpClient   *http.Client
	log          zerolog.Logger
	maxRetries   int
	baseDelay    time.Duration
	userAgent    string
	allowedHosts []string
}

func New(log zerolog.Logger, opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	setAgeGateCookies(jar)

	return &Client{
		httpClient:   &http.Client{Timeout: opts.Timeout, Jar: jar},
		log:          log,
		maxRetries:   opts.MaxRetries,
		baseDelay:    opts.BaseDelay,
		userAgent:    opts.UserAgent,
		allowedHosts: opts.AllowedHosts,
	}, nil
}

// setAgeGateCookies pre-answers the store's age check so mature titles are
// returned like any other.
func setAgeGateCookies(jar http.CookieJar) {
	storeURL := &url.URL{Scheme: "https", Host: "store.steampowered.com", Path: "/"}
	jar.SetCookies(storeURL, []*http.Cookie{
		{Name: "birthtime", Value: "568022401", Path: "/"},
		{Name: "lastagecheckage", Value: "1-January-1988", Path: "/"},
		{Name: "mature_content", Value: "1", Path: "/"},
	})
}

// Fetch GETs rawURL with params and returns the body as text.
func (c *Client) Fetch(ctx context.Context, rawURL string, params url.Values) (string, error) {
	if err := util.HostAllowed(rawURL, c.allowedHosts); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	target := rawURL
	if len(params) > 0 {
		target = rawURL + "?" + params.Encode()
	}

	var body string
	err := util.RetryWithBackoff(ctx, c.maxRetries, c.baseDelay, func(attempt int) error {
		start := time.Now()
		text, err := c.get(ctx, target)
		metrics.ObserveNetworkRequest("transport", start, err)
		if err != nil {
			c.log.Warn().Err(err).Int("attempt", attempt+1).Str("url", rawURL).Msg("HTTP GET failed")
			return err
		}
		c.log.Debug().Int("attempt", attempt+1).Str("url", rawURL).Int("bytes", len(text)).Msg("HTTP GET ok")
		body = text
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRequestFailed, rawURL, err)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", util.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json,text/plain,*/*")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return string(data), nil
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= 500:
		return "", fmt.Errorf("status code %d", res.StatusCode)
	default:
		return "", util.Permanent(fmt.Errorf("status code %d", res.StatusCode))
	}
}
