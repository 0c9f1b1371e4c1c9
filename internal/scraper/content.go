package scraper

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"ad-discovery-scraper/internal/config"
	"ad-discovery-scraper/internal/dom"
	"ad-discovery-scraper/internal/models"

	"github.com/microcosm-cc/bluemonday"
)

// ContentExtractor pulls the textual fields of an ad out of its container
type ContentExtractor struct {
	sanitizer    *bluemonday.Policy
	bodyKeywords []string
	regexes      map[string]*regexp.Regexp
}

func NewContentExtractor(indicators config.Indicators) *ContentExtractor {
	// Body candidates mentioning education or a subject beat generic long text
	keywords := make([]string, 0, len(indicators.EducationTerms)+len(indicators.Subjects))
	keywords = append(keywords, indicators.EducationTerms...)
	keywords = append(keywords, indicators.Subjects...)

	return &ContentExtractor{
		sanitizer:    bluemonday.StrictPolicy(),
		bodyKeywords: keywords,
		regexes:      config.CompileRegexes(),
	}
}

// Extract reads advertiser, body, library ID, landing page and CTA.
// Missing fields come back empty (nil for the library ID).
func (ce *ContentExtractor) Extract(container dom.Node) models.AdContent {
	return models.AdContent{
		AdvertiserName: ce.extractAdvertiser(container),
		BodyText:       ce.extractBodyText(container),
		LibraryID:      ce.extractLibraryID(container),
		LandingPageURL: ce.extractLandingPage(container),
		CTAText:        ce.extractCTA(container),
	}
}

// extractAdvertiser walks the advertiser selector chain
func (ce *ContentExtractor) extractAdvertiser(container dom.Node) string {
	for _, selector := range AdvertiserSelectors {
		for _, n := range container.Find(selector) {
			if isRedirectLink(n) {
				continue
			}
			name := ce.sanitizeText(n.Text())
			if isAcceptableAdvertiser(name) {
				return name
			}
		}
	}
	return models.UnknownAdvertiser
}

// isRedirectLink reports whether n is, or wraps, an outbound l.php link.
// Those carry CTA text, never the page name.
func isRedirectLink(n dom.Node) bool {
	a := n
	if n.Tag() != "a" {
		if a = dom.FindFirst(n, "a[href]"); a == nil {
			return false
		}
	}
	return strings.Contains(dom.AttrOr(a, "href", ""), "/l.php")
}

func isAcceptableAdvertiser(name string) bool {
	length := runeLen(name)
	if length <= MinNameLen || length >= MaxNameLen {
		return false
	}
	for _, rejected := range RejectedAdvertiserNames {
		if strings.EqualFold(name, rejected) {
			return false
		}
	}
	return !ContainsAny(name, AdvertiserNameBlocklist)
}

// extractBodyText returns the first keyword-bearing candidate, or the first
// long candidate of the earliest selector that produced any text
func (ce *ContentExtractor) extractBodyText(container dom.Node) string {
	for _, selector := range BodyTextSelectors {
		var fallback string
		for _, n := range container.Find(selector) {
			text := ce.sanitizeText(n.Text())
			length := runeLen(text)
			if length <= MinBodyLen {
				continue
			}
			if ContainsAny(text, ce.bodyKeywords) {
				return Truncate(text, MaxAdTextLen)
			}
			if fallback == "" && length > MinFallbackBody {
				fallback = text
			}
		}
		if fallback != "" {
			return Truncate(fallback, MaxAdTextLen)
		}
	}
	return ""
}

func (ce *ContentExtractor) extractLibraryID(container dom.Node) *string {
	text := container.Text()
	for _, key := range []string{"libraryID", "genericID"} {
		if m := ce.regexes[key].FindStringSubmatch(text); len(m) > 1 {
			id := m[1]
			return &id
		}
	}
	return nil
}

// extractLandingPage returns the first outbound link that leaves the platform
func (ce *ContentExtractor) extractLandingPage(container dom.Node) string {
	for _, a := range container.Find("a[href]") {
		href := unwrapRedirect(dom.AttrOr(a, "href", ""))
		if !strings.HasPrefix(href, "http") && !strings.HasPrefix(href, "www") {
			continue
		}
		if isPlatformURL(href) {
			continue
		}
		return href
	}
	return ""
}

// unwrapRedirect resolves the platform's outbound link shim (l.php?u=...)
func unwrapRedirect(href string) string {
	if !strings.Contains(href, "/l.php") {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("u"); target != "" {
		return target
	}
	return href
}

func isPlatformURL(href string) bool {
	raw := href
	if strings.HasPrefix(raw, "www") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return true
	}
	host := strings.ToLower(u.Hostname())
	for _, domain := range PlatformDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func (ce *ContentExtractor) extractCTA(container dom.Node) string {
	for _, n := range container.Find(CTASelectors) {
		text := ce.sanitizeText(n.Text())
		length := runeLen(text)
		if length <= MinCTALen || length >= MaxCTALen {
			continue
		}
		if ContainsAny(text, CTAKeywords) {
			return text
		}
	}
	return ""
}

// sanitizeText strips markup and normalizes whitespace
func (ce *ContentExtractor) sanitizeText(text string) string {
	return CleanWhitespace(html.UnescapeString(ce.sanitizer.Sanitize(text)))
}
