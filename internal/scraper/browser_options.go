// Package scraper provides browser configuration options for Chrome automation.
package scraper

import (
	"fmt"

	"github.com/chromedp/chromedp"
)

// Browser window and scrolling defaults
const (
	DefaultWindowWidth    = 1920
	DefaultWindowHeight   = 1080
	DefaultScrollDistance = 500
)

// BrowserOptions contains configuration for browser automation
type BrowserOptions struct {
	BlockFonts     bool
	WindowWidth    int
	WindowHeight   int
	UserAgent      string
	MaxScrolls     int
	ScrollDistance int
}

// DefaultBrowserOptions returns standard browser options
func DefaultBrowserOptions() BrowserOptions {
	return BrowserOptions{
		BlockFonts:     false,
		WindowWidth:    DefaultWindowWidth,
		WindowHeight:   DefaultWindowHeight,
		MaxScrolls:     20,
		ScrollDistance: DefaultScrollDistance,
	}
}

// BuildChromeOptions creates Chrome options based on BrowserOptions
func BuildChromeOptions(opts BrowserOptions) []chromedp.ExecAllocatorOption {
	chromeOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-features", "VizDisplayCompositor"),
		chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight),
	)

	// Add user agent if provided
	if opts.UserAgent != "" {
		chromeOpts = append(chromeOpts, chromedp.UserAgent(opts.UserAgent))
	}

	if opts.BlockFonts {
		chromeOpts = append(chromeOpts,
			chromedp.Flag("disable-remote-fonts", true),
			chromedp.Flag("disable-plugins", true),
			chromedp.Flag("disable-extensions", true),
		)
	}

	return chromeOpts
}

// ScrollStepScript scrolls one step and reports whether the bottom was reached
func ScrollStepScript(distance int) string {
	return fmt.Sprintf(`(() => {
		window.scrollBy(0, %d);
		return window.scrollY + window.innerHeight >= document.body.scrollHeight;
	})()`, distance)
}

// MediaAnnotationScript copies rendered media sizes, video durations and
// carousel slots into attributes so the HTML snapshot carries them
const MediaAnnotationScript = `(() => {
	document.querySelectorAll('img').forEach((img) => {
		if (img.naturalWidth) img.setAttribute('` + NaturalWidthAttr + `', img.naturalWidth);
		if (img.naturalHeight) img.setAttribute('` + NaturalHeightAttr + `', img.naturalHeight);
	});
	document.querySelectorAll('video').forEach((video) => {
		if (video.videoWidth) video.setAttribute('` + NaturalWidthAttr + `', video.videoWidth);
		if (video.videoHeight) video.setAttribute('` + NaturalHeightAttr + `', video.videoHeight);
		if (video.duration && isFinite(video.duration)) video.setAttribute('` + DurationAttr + `', video.duration);
	});
	document.querySelectorAll('[aria-roledescription="slide"], li[role="listitem"]').forEach((slide) => {
		const i = Array.prototype.indexOf.call(slide.parentElement.children, slide);
		slide.querySelectorAll('img, video').forEach((el) => {
			if (!el.hasAttribute('` + PositionAttr + `')) el.setAttribute('` + PositionAttr + `', i);
		});
	});
	return true;
})()`
