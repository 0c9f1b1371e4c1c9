// Package scraper provides constants used throughout ad discovery.
package scraper

import "time"

// Timeout constants
const (
	HTTPTimeout    = 18 * time.Second
	BrowserTimeout = 10 * time.Minute
	DefaultTimeout = 15 * time.Second
	NavigateWait   = 8 * time.Second
)

// Ad library search
const (
	AdLibraryBaseURL = "https://www.facebook.com/ads/library/"
	MaxAdTextLen     = 600
)

// Container candidate selectors, in discovery order
var CandidateSelectors = []string{
	`[data-testid*="ad"]`,
	`[data-testid*="result"]`,
	`[data-testid*="page"]`,
	"div",
	"article",
	"section",
}

// Advertiser name selectors, tried in order
var AdvertiserSelectors = []string{
	`[data-testid="page_name"] a`,
	`[data-testid="advertiser_name"]`,
	`a[href*="facebook.com/"][role="link"]`,
	"h3 a", "h2 a", "h4 a",
	".advertiser-name", ".page-name",
	`a[href*="facebook.com/"]:not([href*="ads"])`,
	`span:has(a[href*="facebook.com/"])`,
}

// Body text selectors, tried in order
var BodyTextSelectors = []string{
	`[data-testid*="text"]`,
	`[data-testid*="body"]`,
	".ad-creative-text",
	"p", "div p",
	"span", "div",
}

// CTASelectors match clickable elements that may carry the call to action
const CTASelectors = `button, [role="button"], a`

// Name fragments that belong to platform chrome rather than an advertiser
var AdvertiserNameBlocklist = []string{"sponsored", "ad library", "meta", "facebook"}

// Full names never accepted as an advertiser
var RejectedAdvertiserNames = []string{"Unknown", "Meta Ad Library"}

// Sponsored markers used to spot ad containers and boosted posts
var SponsoredMarkers = []string{"sponsored", "iklan", "bersponsor"}

// Hosts that belong to the ad platform itself
var PlatformDomains = []string{
	"facebook.com", "fb.com", "fb.me", "instagram.com", "messenger.com",
	"meta.com", "fbcdn.net", "whatsapp.com",
}

// CTA verbs, English and Indonesian
var CTAKeywords = []string{
	"learn", "sign", "get", "join", "start", "shop", "buy", "download", "install",
	"book", "register", "apply", "subscribe", "contact", "try", "order", "send", "watch",
	"daftar", "pelajari", "coba", "beli", "gabung", "mulai", "hubungi", "pesan", "kirim", "tonton",
}

// Login wall indicators shown to anonymous visitors
var LoginWallPatterns = []string{
	"log in to continue",
	"you must log in",
	"masuk untuk melanjutkan",
	"create new account",
}

// Text length bounds
const (
	MinNameLen       = 2
	MaxNameLen       = 100
	MinCTALen        = 2
	MaxCTALen        = 50
	MinBodyLen       = 30
	MinFallbackBody  = 50
	MinContainerText = 50
	MaxInsightHits   = 5
)
