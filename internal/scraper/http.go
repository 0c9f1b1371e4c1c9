package scraper

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

	"ad-discovery-scraper/internal/config"
	"ad-discovery-scraper/internal/models"
	"ad-discovery-scraper/internal/observability"

	"golang.org/x/sync/errgroup"
)

// MaxRedirects bounds redirect chains followed by the HTTP client
const MaxRedirects = 5

type HTTPClient struct {
	client *http.Client
	config config.ScrapeConfig
}

func NewHTTPClient() *HTTPClient {
	return NewHTTPClientWithConfig(config.DefaultScrapeConfig())
}

func NewHTTPClientWithConfig(cfg config.ScrapeConfig) *HTTPClient {
	// Configure HTTP client with connection pooling
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DisableKeepAlives:   false,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   time.Duration(cfg.TimeoutMs) * time.Millisecond,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= MaxRedirects {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return &HTTPClient{
		client: client,
		config: cfg,
	}
}

// setRequestHeaders sets browser-like headers on the request
func (h *HTTPClient) setRequestHeaders(req *http.Request) {
	req.Header.Set("User-Agent", h.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "id-ID,id;q=0.9,en-US;q=0.8,en;q=0.7")
	req.Header.Set("Cache-Control", "no-cache")
}

// LoadPage fetches a page without rendering it
func (h *HTTPClient) LoadPage(ctx context.Context, targetURL string) (string, string, error) {
	start := time.Now()
	html, finalURL, err := h.fetch(ctx, targetURL)
	observability.PageLoadLatency.WithLabelValues("http").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.PageLoadCount.WithLabelValues("http", "error").Inc()
		return "", "", err
	}
	observability.PageLoadCount.WithLabelValues("http", "ok").Inc()
	return html, finalURL, nil
}

// FetchHTML fetches HTML content from a URL, retrying 5xx responses with backoff
func (h *HTTPClient) FetchHTML(ctx context.Context, targetURL string) (string, error) {
	html, _, err := h.fetch(ctx, targetURL)
	return html, err
}

func (h *HTTPClient) fetch(ctx context.Context, targetURL string) (string, string, error) {
	u, err := url.Parse(targetURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		if err == nil {
			err = errors.New("unsupported scheme")
		}
		return "", "", &models.InvalidURLError{URL: targetURL, Err: err}
	}

	var lastErr error
	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepCtx(ctx, backoff(attempt)); err != nil {
				return "", "", err
			}
		}

		html, finalURL, retry, err := h.fetchOnce(ctx, targetURL)
		if err == nil {
			return html, finalURL, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return "", "", lastErr
}

// backoff doubles from one second, capped at five
func backoff(attempt int) time.Duration {
	delay := time.Duration(1000*(1<<(attempt-1))) * time.Millisecond
	if delay > 5*time.Second {
		delay = 5 * time.Second
	}
	return delay
}

// fetchOnce performs a single request and reports whether a failure is retryable
func (h *HTTPClient) fetchOnce(ctx context.Context, targetURL string) (string, string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", "", false, fmt.Errorf("failed to create request: %w", err)
	}
	h.setRequestHeaders(req)

	resp, err := h.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", "", false, &models.TimeoutError{Operation: "http fetch", Timeout: h.client.Timeout.String(), Err: err}
		}
		return "", "", true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", "", true, &models.HTTPError{StatusCode: resp.StatusCode, URL: targetURL, Err: errors.New(resp.Status)}
	}
	if resp.StatusCode >= 400 {
		return "", "", false, &models.HTTPError{StatusCode: resp.StatusCode, URL: targetURL, Err: errors.New(resp.Status)}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return "", "", false, fmt.Errorf("non-HTML content-type: %s", contentType)
	}

	reader := io.LimitReader(resp.Body, int64(h.config.SizeLimitBytes))
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", "", true, fmt.Errorf("failed to read response: %w", err)
	}

	return string(body), resp.Request.URL.String(), false, nil
}

// FetchAll fetches several pages concurrently, at most limit at a time.
// Failed pages are left out of the result map.
func (h *HTTPClient) FetchAll(ctx context.Context, urls []string, limit int) map[string]string {
	var mu sync.Mutex
	pages := make(map[string]string, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, u := range urls {
		u := u
		g.Go(func() error {
			html, err := h.FetchHTML(ctx, u)
			if err != nil {
				return nil
			}
			mu.Lock()
			pages[u] = html
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return pages
}
