package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ad-discovery-scraper/internal/config"
	"ad-discovery-scraper/internal/models"
	"ad-discovery-scraper/internal/observability"

	"github.com/chromedp/chromedp"
)

type BrowserClient struct {
	config  config.ScrapeConfig
	options BrowserOptions
}

func NewBrowserClientWithConfig(cfg config.ScrapeConfig) *BrowserClient {
	opts := DefaultBrowserOptions()
	opts.UserAgent = cfg.UserAgent
	if cfg.MaxScrolls > 0 {
		opts.MaxScrolls = cfg.MaxScrolls
	}
	return &BrowserClient{
		config:  cfg,
		options: opts,
	}
}

// LoadPage renders a page in headless Chrome, scrolls to load more results,
// annotates media sizes and returns the HTML snapshot with the final URL
func (b *BrowserClient) LoadPage(ctx context.Context, targetURL string) (string, string, error) {
	start := time.Now()
	html, finalURL, err := b.loadWithOptions(ctx, targetURL, b.options)
	observability.PageLoadLatency.WithLabelValues("browser").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.PageLoadCount.WithLabelValues("browser", "error").Inc()
		return "", "", err
	}
	observability.PageLoadCount.WithLabelValues("browser", "ok").Inc()
	return html, finalURL, nil
}

// loadWithOptions is the unified loading function using browser options
func (b *BrowserClient) loadWithOptions(ctx context.Context, targetURL string, opts BrowserOptions) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, BrowserTimeout)
	defer cancel()

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, BuildChromeOptions(opts)...)
	defer cancel()

	ctx, cancel = chromedp.NewContext(allocCtx)
	defer cancel()

	err := chromedp.Run(ctx, chromedp.Tasks{
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body"),
	})
	if err != nil {
		return "", "", wrapBrowserError("navigate", err)
	}

	if err := sleepCtx(ctx, NavigateWait); err != nil {
		return "", "", wrapBrowserError("navigate", err)
	}

	if err := b.scroll(ctx, opts); err != nil {
		return "", "", wrapBrowserError("scroll", err)
	}

	if err := sleepCtx(ctx, b.config.SettleDelay); err != nil {
		return "", "", wrapBrowserError("settle", err)
	}

	var html, finalURL string
	var annotated bool
	err = chromedp.Run(ctx, chromedp.Tasks{
		chromedp.Evaluate(MediaAnnotationScript, &annotated),
		chromedp.Location(&finalURL),
		chromedp.OuterHTML("html", &html),
	})
	if err != nil {
		return "", "", wrapBrowserError("snapshot", err)
	}

	return html, finalURL, nil
}

// scroll steps down the page until the bottom or the scroll budget is reached
func (b *BrowserClient) scroll(ctx context.Context, opts BrowserOptions) error {
	script := ScrollStepScript(opts.ScrollDistance)
	for i := 0; i < opts.MaxScrolls; i++ {
		var atBottom bool
		if err := chromedp.Run(ctx, chromedp.Evaluate(script, &atBottom)); err != nil {
			return err
		}
		if atBottom {
			return nil
		}
		if err := sleepCtx(ctx, b.config.ScrollDelay); err != nil {
			return err
		}
	}
	return nil
}

func wrapBrowserError(step string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &models.TimeoutError{Operation: "browser " + step, Timeout: BrowserTimeout.String(), Err: err}
	}
	return fmt.Errorf("browser %s failed: %w", step, err)
}

// sleepCtx waits for d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
