package scraper

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"ad-discovery-scraper/internal/config"
	"ad-discovery-scraper/internal/dom"
	"ad-discovery-scraper/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// adCard renders one ad library result card
func adCard(advertiser, body, extra string) string {
	slug := strings.ToLower(strings.ReplaceAll(advertiser, " ", ""))
	return fmt.Sprintf(`<div class="card">
		<span data-testid="page_name"><a href="https://www.facebook.com/%s">%s</a></span>
		<div data-testid="ad_text">%s</div>
		<img src="%s" width="600" height="600">
		<span>Sponsored</span>
		<span>%s</span>
	</div>`, slug, advertiser, body, cdn("creative_"+slug), extra)
}

func cards(t *testing.T, html ...string) []dom.Node {
	t.Helper()
	root, err := dom.Parse("<html><body>" + strings.Join(html, "\n") + "</body></html>")
	require.NoError(t, err)
	return root.Find("div.card")
}

func newTestBuilder(cfg config.DiscoveryConfig) *AdRecordBuilder {
	return NewAdRecordBuilder(cfg).
		WithLogger(zerolog.Nop()).
		WithActiveDaysEstimator(NewActiveDaysEstimator(false).WithClock(fixedClock))
}

const (
	acmeBody   = "Kursus coding anak usia 7-12 tahun, belajar bikin game sendiri. Daftar sekarang!"
	brightBody = "Belajar matematika seru untuk anak SD bersama tutor berpengalaman setiap minggu."
	qualifies  = "Library ID: 555000111 · Active for 14 days"
)

func TestBuildKeepsFirstAdPerAdvertiser(t *testing.T) {
	containers := cards(t,
		adCard("Acme EdTech", acmeBody, qualifies),
		adCard("Acme EdTech", "Kursus coding anak edisi kedua, belajar Python dari nol sampai mahir.", qualifies),
		adCard("BrightKids", brightBody, qualifies),
	)
	require.Len(t, containers, 3)

	scrapedAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	records := newTestBuilder(config.DefaultDiscoveryConfig()).
		Build(containers, SeenAdvertisers{}, PageMeta{SearchTerm: "kursus coding anak", ScrapedAt: scrapedAt})

	require.Len(t, records, 2)
	assert.Equal(t, "Acme EdTech", records[0].AdvertiserName)
	assert.Equal(t, acmeBody, records[0].BodyText)
	assert.Equal(t, "BrightKids", records[1].AdvertiserName)

	first := records[0]
	assert.NotEmpty(t, first.AdID)
	assert.NotEqual(t, first.AdID, records[1].AdID)
	require.NotNil(t, first.LibraryID)
	assert.Equal(t, "555000111", *first.LibraryID)
	assert.Equal(t, 14, first.ActiveDays)
	assert.True(t, first.MeetsMinDays)
	assert.Equal(t, "kursus coding anak", first.SearchTerm)
	assert.Equal(t, "dynamic_competitor_discovery", first.DiscoveryMethod)
	assert.Equal(t, scrapedAt, first.ScrapedAt)
	assert.Equal(t, []string{cdn("creative_acmeedtech")}, first.AllImageURLs)
	assert.Empty(t, first.AllVideoURLs)
	require.NotNil(t, first.Quality)
	assert.True(t, first.Quality.IsQualified)
	require.NotNil(t, first.Enrichment)
	assert.Equal(t, 1, first.VisualSummary.TotalImages)
}

func TestBuildSharesSeenSetAcrossCalls(t *testing.T) {
	builder := newTestBuilder(config.DefaultDiscoveryConfig())
	seen := SeenAdvertisers{}

	first := builder.Build(cards(t, adCard("Acme EdTech", acmeBody, qualifies)), seen, PageMeta{})
	second := builder.Build(cards(t, adCard("acme edtech", acmeBody, qualifies)), seen, PageMeta{})

	assert.Len(t, first, 1)
	assert.Empty(t, second)
	assert.False(t, first[0].ScrapedAt.IsZero())
}

func TestBuildEmptyAndBrokenInput(t *testing.T) {
	builder := newTestBuilder(config.DefaultDiscoveryConfig())

	empty := builder.Build(nil, nil, PageMeta{})
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	containers := append([]dom.Node{nil}, cards(t, adCard("BrightKids", brightBody, qualifies))...)
	records := builder.Build(containers, nil, PageMeta{})
	require.Len(t, records, 1)
	assert.Equal(t, "BrightKids", records[0].AdvertiserName)
}

func TestBuildRejectsUnqualifiedAds(t *testing.T) {
	containers := cards(t,
		adCard("Acme EdTech", acmeBody, "Library ID: 555000111 · Active for 2 days"),
		adCard("Acme EdTech", acmeBody, "Library ID: 555000111"),
		adCard("Enterprise Co", "Coding training for enterprise teams, belajar bersama mentor profesional.", qualifies),
	)

	records := newTestBuilder(config.DefaultDiscoveryConfig()).Build(containers, nil, PageMeta{})
	assert.Empty(t, records)
}

func TestBuildCollectAllLimits(t *testing.T) {
	var html []string
	for i := 0; i < 5; i++ {
		html = append(html, adCard("Acme EdTech", fmt.Sprintf("Promo keluarga nomor %d untuk liburan sekolah.", i), "Active for 10 days"))
	}
	cfg := config.DefaultCollectAllConfig()

	records := newTestBuilder(cfg).Build(cards(t, html...), nil, PageMeta{})
	require.Len(t, records, 3)
	assert.Equal(t, "collect_all_discovery", records[0].DiscoveryMethod)
	assert.Contains(t, records[2].BodyText, "nomor 2")

	html = html[:0]
	for i := 0; i < 5; i++ {
		html = append(html, adCard(fmt.Sprintf("Brand %c", 'A'+i), "Promo keluarga untuk liburan sekolah tahun ini.", "Active for 10 days"))
	}
	cfg.MaxPerPage = 2
	records = newTestBuilder(cfg).Build(cards(t, html...), nil, PageMeta{})
	require.Len(t, records, 2)
	assert.Equal(t, "Brand A", records[0].AdvertiserName)
	assert.Equal(t, "Brand B", records[1].AdvertiserName)
}

func TestBuildLegacyRandomDays(t *testing.T) {
	cfg := config.DefaultCollectAllConfig()
	cfg.MinActiveDays = 0
	builder := NewAdRecordBuilder(cfg).
		WithLogger(zerolog.Nop()).
		WithActiveDaysEstimator(NewActiveDaysEstimator(true).WithRand(rand.New(rand.NewSource(7))))

	records := builder.Build(cards(t, adCard("Acme EdTech", acmeBody, "no date")), nil, PageMeta{})
	require.Len(t, records, 1)
	assert.GreaterOrEqual(t, records[0].ActiveDays, 1)
	assert.LessOrEqual(t, records[0].ActiveDays, 60)
	assert.NotEqual(t, models.ActiveDaysUnknown, records[0].ActiveDays)
}

func TestBuildCardWithHeaderOutsideCreative(t *testing.T) {
	root, err := dom.Parse(`<html><body><div id="feed">` + splitCard("Acme EdTech", acmeBody) + `</div></body></html>`)
	require.NoError(t, err)

	records := newTestBuilder(config.DefaultDiscoveryConfig()).Build(FindCandidates(root), nil, PageMeta{})
	require.Len(t, records, 1)
	assert.Equal(t, "Acme EdTech", records[0].AdvertiserName)
	assert.Equal(t, acmeBody, records[0].BodyText)
	assert.Equal(t, "https://acmeedtech.id/daftar", records[0].LandingPageURL)
	assert.Equal(t, "Daftar Sekarang", records[0].CTAText)
	assert.Equal(t, 14, records[0].ActiveDays)
}

func TestBuildRecordsTargetLocations(t *testing.T) {
	body := "Kursus coding anak di Jakarta dan Surabaya, belajar bikin game sendiri bersama mentor."
	records := newTestBuilder(config.DefaultDiscoveryConfig()).
		Build(cards(t, adCard("Acme EdTech", body, qualifies)), nil, PageMeta{})

	require.Len(t, records, 1)
	assert.Equal(t, []string{"jakarta", "surabaya"}, records[0].Insights.MarketLocations)
}
