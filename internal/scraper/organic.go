package scraper

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"ad-discovery-scraper/internal/config"
	"ad-discovery-scraper/internal/dom"
	"ad-discovery-scraper/internal/models"

	readability "github.com/go-shiori/go-readability"
)

// Feed post selectors, outermost match wins
var OrganicPostSelectors = []string{`[role="article"]`, `[data-pagelet^="FeedUnit"]`}

// Post message selectors, tried in order
var OrganicTextSelectors = []string{
	`[data-ad-preview="message"]`,
	`[data-ad-comet-preview="message"]`,
	`div[dir="auto"]`,
}

// Link fragments that identify a post permalink
var PermalinkMarkers = []string{"/posts/", "/permalink", "story_fbid", "/videos/", "/photos/"}

// MinOrganicText is the shortest message kept without a permalink lookup
const MinOrganicText = 20

// PageFetcher fetches several pages at once
type PageFetcher interface {
	FetchAll(ctx context.Context, urls []string, limit int) map[string]string
}

// OrganicExtractor reads public feed posts from a rendered brand page
type OrganicExtractor struct {
	media   *MediaExtractor
	regexes map[string]*regexp.Regexp
}

func NewOrganicExtractor() *OrganicExtractor {
	return &OrganicExtractor{
		media:   NewMediaExtractor(),
		regexes: config.CompileRegexes(),
	}
}

// ExtractPosts returns the feed posts on a page in document order.
// Comments nested inside a post are not reported as posts.
func (oe *OrganicExtractor) ExtractPosts(root dom.Node) []models.OrganicPost {
	posts := []models.OrganicPost{}
	covered := make(map[any]bool)

	for _, selector := range OrganicPostSelectors {
		for _, n := range root.Find(selector) {
			if covered[n.Key()] {
				continue
			}
			covered[n.Key()] = true
			for _, d := range n.Find("*") {
				covered[d.Key()] = true
			}
			posts = append(posts, oe.extractPost(n))
		}
	}
	return posts
}

func (oe *OrganicExtractor) extractPost(n dom.Node) models.OrganicPost {
	text := CleanWhitespace(n.Text())
	post := models.OrganicPost{
		PostText:    oe.extractMessage(n),
		PostURL:     extractPermalink(n),
		Images:      []string{},
		IsSponsored: ContainsAny(text, SponsoredMarkers),
		PostedAt:    extractPostedAt(n),
	}

	for _, img := range n.Find("img") {
		src := dom.AttrOr(img, "src", "")
		if oe.media.IsValidMedia(src) {
			post.Images = append(post.Images, src)
		}
	}

	post.ReactionsTotal, post.CommentsTotal, post.SharesTotal = oe.ParseEngagement(text)
	return post
}

func (oe *OrganicExtractor) extractMessage(n dom.Node) string {
	for _, selector := range OrganicTextSelectors {
		for _, m := range n.Find(selector) {
			text := CleanWhitespace(m.Text())
			if runeLen(text) >= MinOrganicText {
				return text
			}
		}
	}
	return ""
}

func extractPermalink(n dom.Node) string {
	for _, a := range n.Find("a[href]") {
		href := dom.AttrOr(a, "href", "")
		for _, marker := range PermalinkMarkers {
			if strings.Contains(href, marker) {
				return href
			}
		}
	}
	return ""
}

// extractPostedAt reads the post timestamp from abbr[data-utime] or time[datetime]
func extractPostedAt(n dom.Node) *time.Time {
	if abbr := dom.FindFirst(n, "abbr[data-utime]"); abbr != nil {
		if sec, err := strconv.ParseInt(dom.AttrOr(abbr, "data-utime", ""), 10, 64); err == nil {
			t := time.Unix(sec, 0).UTC()
			return &t
		}
	}
	if tm := dom.FindFirst(n, "time[datetime]"); tm != nil {
		if t, err := time.Parse(time.RFC3339, dom.AttrOr(tm, "datetime", "")); err == nil {
			return &t
		}
	}
	return nil
}

// ParseEngagement sums reaction, comment and share counters in post text
func (oe *OrganicExtractor) ParseEngagement(text string) (reactions, comments, shares int) {
	for _, m := range oe.regexes["engagement"].FindAllStringSubmatch(text, -1) {
		count := ParseCount(m[1], m[2])
		label := strings.ToLower(m[3])
		switch {
		case strings.HasPrefix(label, "reaction") || label == "tanggapan":
			reactions += count
		case strings.HasPrefix(label, "comment") || label == "komentar":
			comments += count
		default:
			shares += count
		}
	}
	return reactions, comments, shares
}

// ParseCount converts "1.2", "k" or "3,5", "rb" style counters to integers
func ParseCount(number, suffix string) int {
	suffix = strings.ToLower(suffix)
	multiplier := 1.0
	switch suffix {
	case "k", "rb":
		multiplier = 1e3
	case "m", "jt":
		multiplier = 1e6
	}

	if multiplier == 1 {
		// Plain counts only use separators for thousands
		digits := strings.NewReplacer(".", "", ",", "").Replace(number)
		n, err := strconv.Atoi(digits)
		if err != nil {
			return 0
		}
		return n
	}

	f, err := strconv.ParseFloat(strings.ReplaceAll(number, ",", "."), 64)
	if err != nil {
		return 0
	}
	return int(f*multiplier + 0.5)
}

// FillFromPermalinks fetches permalink pages for posts whose feed preview
// had no usable message and fills text and date from the article body
func (oe *OrganicExtractor) FillFromPermalinks(ctx context.Context, posts []models.OrganicPost, fetcher PageFetcher, limit int) {
	var urls []string
	for _, p := range posts {
		if p.PostText == "" && p.PostURL != "" {
			urls = append(urls, p.PostURL)
		}
	}
	if len(urls) == 0 {
		return
	}

	pages := fetcher.FetchAll(ctx, urls, limit)
	for i := range posts {
		html, ok := pages[posts[i].PostURL]
		if !ok || posts[i].PostText != "" {
			continue
		}
		pageURL, _ := url.Parse(posts[i].PostURL)
		article, err := readability.FromReader(strings.NewReader(html), pageURL)
		if err != nil {
			continue
		}
		posts[i].PostText = CleanWhitespace(article.TextContent)
		if posts[i].PostedAt == nil && article.PublishedTime != nil {
			posts[i].PostedAt = article.PublishedTime
		}
	}
}
