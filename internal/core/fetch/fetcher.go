// Package fetch provides the rate-limited HTTP client used for article page
// resolution and image probing.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/finbrief/trend-curator/internal/platform/observability"
)

// ErrTooManyRedirects indicates too many HTTP redirects.
var ErrTooManyRedirects = errors.New("too many redirects")

// ErrStatusNotOK indicates an HTTP response with a non-2xx status code.
var ErrStatusNotOK = errors.New("HTTP status not OK")

const (
	defaultTimeout    = 8 * time.Second
	maxRedirects      = 5
	globalBurst       = 5
	maxBodySizeBytes  = 5 * 1024 * 1024
	domainLimiterRate = 1
	domainBurst       = 2

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// Result is one fetched page. Body is already charset-decoded to UTF-8 for
// HTML responses; FinalURL reflects any redirects followed.
type Result struct {
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
}

// IsHTML reports whether the response carried an HTML content type.
func (r *Result) IsHTML() bool {
	return strings.Contains(strings.ToLower(r.ContentType), "text/html")
}

type Fetcher struct {
	client         *http.Client
	probeClient    *http.Client
	globalLimiter  *rate.Limiter
	domainLimiters map[string]*rate.Limiter
	mu             sync.RWMutex
	maxImageBytes  int64
}

// New creates a Fetcher with a global rate limit of rps requests per second
// plus a 1 req/sec per-domain limit, so one slow or strict host cannot eat
// the whole budget.
func New(rps float64, timeout, probeTimeout time.Duration, maxImageBytes int64) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if probeTimeout <= 0 {
		probeTimeout = timeout / 2
	}

	checkRedirect := func(_ *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return ErrTooManyRedirects
		}

		return nil
	}

	return &Fetcher{
		client: &http.Client{
			Timeout:       timeout,
			CheckRedirect: checkRedirect,
		},
		probeClient: &http.Client{
			Timeout:       probeTimeout,
			CheckRedirect: checkRedirect,
		},
		globalLimiter:  rate.NewLimiter(rate.Limit(rps), globalBurst),
		domainLimiters: make(map[string]*rate.Limiter),
		maxImageBytes:  maxImageBytes,
	}
}

// Fetch performs a redirect-following GET and returns the final URL, status,
// content type and decoded body. A non-2xx status is returned as a Result
// with an ErrStatusNotOK error so callers can still use the final URL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	if err := f.wait(ctx, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		observability.FetchRequests.WithLabelValues("error").Inc()

		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	result := &Result{
		FinalURL:    finalURL(resp, rawURL),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		observability.FetchRequests.WithLabelValues("non_2xx").Inc()

		return result, fmt.Errorf("%w: %d", ErrStatusNotOK, resp.StatusCode)
	}

	body, err := readBody(resp, result.ContentType)
	if err != nil {
		observability.FetchRequests.WithLabelValues("error").Inc()

		return result, err
	}

	observability.FetchRequests.WithLabelValues("ok").Inc()

	result.Body = body

	return result, nil
}

// ProbeImage reports whether url serves a real image: a 2xx response with an
// image/* content type under the configured size ceiling. It tries HEAD
// first and falls back to a ranged GET for hosts that reject HEAD.
func (f *Fetcher) ProbeImage(ctx context.Context, rawURL string) bool {
	if ok, decided := f.probeOnce(ctx, http.MethodHead, rawURL); decided {
		observability.ImageProbes.WithLabelValues(probeLabel(ok)).Inc()

		return ok
	}

	ok, _ := f.probeOnce(ctx, http.MethodGet, rawURL)
	observability.ImageProbes.WithLabelValues(probeLabel(ok)).Inc()

	return ok
}

// probeOnce returns (valid, decided). decided is false when the host
// rejected the method outright and a fallback is worth trying.
func (f *Fetcher) probeOnce(ctx context.Context, method, rawURL string) (bool, bool) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return false, true
	}

	req.Header.Set("User-Agent", userAgent)

	if method == http.MethodGet {
		req.Header.Set("Range", "bytes=0-0")
	}

	resp, err := f.probeClient.Do(req)
	if err != nil {
		return false, method == http.MethodGet
	}
	defer resp.Body.Close()

	if method == http.MethodHead && (resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented) {
		return false, false
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return false, true
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(ct, "image/") {
		return false, true
	}

	if f.maxImageBytes > 0 && resp.ContentLength > f.maxImageBytes {
		return false, true
	}

	return true, true
}

func probeLabel(ok bool) string {
	if ok {
		return "valid"
	}

	return "invalid"
}

func (f *Fetcher) wait(ctx context.Context, rawURL string) error {
	if err := f.globalLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("global rate limiter wait: %w", err)
	}

	limiter := f.getDomainLimiter(extractDomain(rawURL))
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("domain rate limiter wait: %w", err)
	}

	return nil
}

func (f *Fetcher) getDomainLimiter(domain string) *rate.Limiter {
	f.mu.RLock()
	limiter, exists := f.domainLimiters[domain]
	f.mu.RUnlock()

	if exists {
		return limiter
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double check
	if limiter, exists := f.domainLimiters[domain]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(domainLimiterRate, domainBurst)
	f.domainLimiters[domain] = limiter

	return limiter
}

// readBody reads at most maxBodySizeBytes, decoding legacy charsets (EUC-KR
// is still common on Korean news sites) to UTF-8 for HTML responses.
func readBody(resp *http.Response, contentType string) ([]byte, error) {
	var reader io.Reader = io.LimitReader(resp.Body, maxBodySizeBytes)

	if strings.Contains(strings.ToLower(contentType), "text/html") {
		decoded, err := charset.NewReader(reader, contentType)
		if err == nil {
			reader = decoded
		}
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return body, nil
}

func finalURL(resp *http.Response, fallback string) string {
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}

	return fallback
}

func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Host)
}
