package scoring

import (
	"math"
	"regexp"
	"strings"
	"time"

	"ad-discovery-scraper/internal/config"
	"ad-discovery-scraper/internal/models"
	"ad-discovery-scraper/internal/observability"
)

// Match weights and thresholds
const (
	TextWeight        = 0.6
	ImageMatchBonus   = 0.3
	DateWeight        = 0.1
	DateWindowDays    = 7.0
	MatchThreshold    = 0.7
	DarkPostThreshold = 0.4
	SimilarityMaxLen  = 300
)

// Engagement sources
const (
	SourceOrganicPost = "organic_post"
	SourceDarkPost    = "possible_dark_post"
	SourceNotFound    = "not_found"
)

// EngagementMatcher links paid ads to organic posts of the same brand
type EngagementMatcher struct {
	punctuation *regexp.Regexp
	now         func() time.Time
}

func NewEngagementMatcher() *EngagementMatcher {
	return &EngagementMatcher{
		punctuation: config.CompileRegexes()["punctuation"],
		now:         time.Now,
	}
}

// WithClock fixes the reference time used to date ads
func (m *EngagementMatcher) WithClock(now func() time.Time) *EngagementMatcher {
	m.now = now
	return m
}

// Match returns a copy of ads with engagement metrics attached. Sponsored
// posts are never candidates.
func (m *EngagementMatcher) Match(ads []models.AdRecord, posts []models.OrganicPost) []models.AdRecord {
	now := m.now()
	out := make([]models.AdRecord, len(ads))

	for i, ad := range ads {
		bestScore := 0.0
		var best *models.OrganicPost
		for j := range posts {
			if posts[j].IsSponsored {
				continue
			}
			score := m.score(ad, posts[j], now)
			if best == nil || score > bestScore {
				bestScore = score
				best = &posts[j]
			}
		}

		metrics := models.EngagementMetrics{EngagementSource: SourceNotFound}
		switch {
		case best != nil && bestScore > MatchThreshold:
			metrics = models.EngagementMetrics{
				EngagementMatched: true,
				EngagementSource:  SourceOrganicPost,
				MatchScore:        int(math.Round(bestScore * 100)),
				MatchedPostURL:    best.PostURL,
				ReactionsTotal:    best.ReactionsTotal,
				CommentsTotal:     best.CommentsTotal,
				SharesTotal:       best.SharesTotal,
			}
		case best != nil && bestScore > DarkPostThreshold:
			metrics.EngagementSource = SourceDarkPost
		}
		observability.EngagementMatchCount.WithLabelValues(metrics.EngagementSource).Inc()

		ad.Engagement = &metrics
		out[i] = ad
	}
	return out
}

func (m *EngagementMatcher) score(ad models.AdRecord, post models.OrganicPost, now time.Time) float64 {
	return TextWeight*m.TextSimilarity(ad.BodyText, post.PostText) +
		ImageIdentityMatch(ad.FirstImageURL(), post.Images) +
		DateProximityScore(ad.ActiveDays, post.PostedAt, now)
}

// TextSimilarity is the Jaccard similarity of the word sets of a and b
func (m *EngagementMatcher) TextSimilarity(a, b string) float64 {
	wordsA := m.tokenize(a)
	wordsB := m.tokenize(b)
	if len(wordsA) == 0 && len(wordsB) == 0 {
		return 0
	}

	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection
	return float64(intersection) / float64(union)
}

func (m *EngagementMatcher) tokenize(s string) map[string]struct{} {
	s = truncateRunes(s, SimilarityMaxLen)
	s = m.punctuation.ReplaceAllString(strings.ToLower(s), " ")
	words := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		words[w] = struct{}{}
	}
	return words
}

// ImageIdentityMatch returns the image bonus when the ad image file name
// appears in a post image URL or the other way round
func ImageIdentityMatch(adImage string, postImages []string) float64 {
	adName := fileName(adImage)
	if adName == "" {
		return 0
	}
	for _, img := range postImages {
		postName := fileName(img)
		if strings.Contains(img, adName) || (postName != "" && strings.Contains(adImage, postName)) {
			return ImageMatchBonus
		}
	}
	return 0
}

// DateProximityScore rewards posts published near the ad's implied start.
// Unknown running times and undated posts contribute nothing.
func DateProximityScore(activeDays int, postedAt *time.Time, now time.Time) float64 {
	if activeDays < 0 || postedAt == nil {
		return 0
	}
	adDate := now.Add(-time.Duration(activeDays) * 24 * time.Hour)
	diff := math.Abs(adDate.Sub(*postedAt).Hours()) / 24
	if diff > DateWindowDays {
		return 0
	}
	return DateWeight * (1 - diff/DateWindowDays)
}

// fileName returns the last path segment of a URL without its query string
func fileName(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimRight(u, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		u = u[i+1:]
	}
	return u
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
