package scoring

import (
	"testing"
	"time"

	"ad-discovery-scraper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var matchNow = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

const (
	adImage = "https://scontent.fcgk1-1.fna.fbcdn.net/v/t39.35426-6/481516_creative.jpg?stp=dst-jpg"
	adBody  = "Kursus coding anak usia 7-12 tahun, belajar bikin game sendiri!"
)

func newTestMatcher() *EngagementMatcher {
	return NewEngagementMatcher().WithClock(func() time.Time { return matchNow })
}

func TestMatchFindsOrganicTwin(t *testing.T) {
	ads := []models.AdRecord{record("1", adImage, adBody, 10)}
	posted := matchNow.AddDate(0, 0, -10)
	posts := []models.OrganicPost{
		{PostText: "Unrelated update about our office", PostURL: "https://www.facebook.com/acme/posts/1"},
		{
			PostText:       "kursus coding anak usia 7 12 tahun belajar bikin game sendiri",
			PostURL:        "https://www.facebook.com/acme/posts/2",
			Images:         []string{"https://scontent.xx.fbcdn.net/v/t1.6435-9/481516_creative.jpg?_nc_cat=1"},
			ReactionsTotal: 1200,
			CommentsTotal:  45,
			SharesTotal:    12,
			PostedAt:       &posted,
		},
	}

	out := newTestMatcher().Match(ads, posts)

	require.Len(t, out, 1)
	require.NotNil(t, out[0].Engagement)
	e := out[0].Engagement
	assert.True(t, e.EngagementMatched)
	assert.Equal(t, SourceOrganicPost, e.EngagementSource)
	assert.Equal(t, 100, e.MatchScore)
	assert.Equal(t, "https://www.facebook.com/acme/posts/2", e.MatchedPostURL)
	assert.Equal(t, 1200, e.ReactionsTotal)
	assert.Equal(t, 45, e.CommentsTotal)
	assert.Equal(t, 12, e.SharesTotal)
	assert.Nil(t, ads[0].Engagement)
}

func TestMatchDarkPostAndNotFound(t *testing.T) {
	ads := []models.AdRecord{
		record("dark", adImage, adBody, 10),
		record("none", adImage, "Promo liburan keluarga", 10),
	}
	posts := []models.OrganicPost{
		{PostText: adBody, PostURL: "https://www.facebook.com/acme/posts/3"},
	}

	out := newTestMatcher().Match(ads, posts)

	dark := out[0].Engagement
	assert.False(t, dark.EngagementMatched)
	assert.Equal(t, SourceDarkPost, dark.EngagementSource)
	assert.Zero(t, dark.MatchScore)
	assert.Empty(t, dark.MatchedPostURL)

	assert.Equal(t, SourceNotFound, out[1].Engagement.EngagementSource)
}

func TestMatchSkipsSponsoredPosts(t *testing.T) {
	ads := []models.AdRecord{record("1", adImage, adBody, 10)}
	posts := []models.OrganicPost{
		{PostText: adBody, Images: []string{adImage}, IsSponsored: true, ReactionsTotal: 99},
	}

	out := newTestMatcher().Match(ads, posts)
	assert.Equal(t, SourceNotFound, out[0].Engagement.EngagementSource)
	assert.Zero(t, out[0].Engagement.ReactionsTotal)

	out = newTestMatcher().Match(ads, nil)
	assert.Equal(t, SourceNotFound, out[0].Engagement.EngagementSource)
}

func TestTextSimilarity(t *testing.T) {
	m := NewEngagementMatcher()
	assert.Equal(t, 1.0, m.TextSimilarity("Hello, World!", "hello world"))
	assert.Equal(t, 0.0, m.TextSimilarity("", ""))
	assert.Equal(t, 0.0, m.TextSimilarity("abc", ""))
	assert.InDelta(t, 1.0/3.0, m.TextSimilarity("a b", "b c"), 1e-9)
}

func TestImageIdentityMatch(t *testing.T) {
	assert.Equal(t, ImageMatchBonus, ImageIdentityMatch(adImage, []string{"https://other.cdn/481516_creative.jpg"}))
	assert.Equal(t, 0.0, ImageIdentityMatch(adImage, []string{"https://other.cdn/different.jpg"}))
	assert.Equal(t, 0.0, ImageIdentityMatch("", []string{adImage}))
	assert.Equal(t, 0.0, ImageIdentityMatch(adImage, nil))
}

func TestDateProximityScore(t *testing.T) {
	exact := matchNow.AddDate(0, 0, -10)
	halfWindow := exact.Add(84 * time.Hour)
	outside := exact.AddDate(0, 0, 8)

	assert.InDelta(t, DateWeight, DateProximityScore(10, &exact, matchNow), 1e-9)
	assert.InDelta(t, DateWeight/2, DateProximityScore(10, &halfWindow, matchNow), 1e-9)
	assert.Equal(t, 0.0, DateProximityScore(10, &outside, matchNow))
	assert.Equal(t, 0.0, DateProximityScore(10, nil, matchNow))
	assert.Equal(t, 0.0, DateProximityScore(models.ActiveDaysUnknown, &exact, matchNow))
}
