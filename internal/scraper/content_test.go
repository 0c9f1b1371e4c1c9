package scraper

import (
	"testing"

	"ad-discovery-scraper/internal/config"
	"ad-discovery-scraper/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContentExtractor() *ContentExtractor {
	return NewContentExtractor(config.DefaultDiscoveryConfig().Indicators)
}

func TestContentExtractorReadsAllFields(t *testing.T) {
	container := parseContainer(t, `<div>
		<span data-testid="page_name"><a href="https://www.facebook.com/acmeedtech">Acme  EdTech</a></span>
		<div data-testid="ad_text">Promo spesial bulan ini untuk keluarga Indonesia, hanya minggu ini saja!</div>
		<div data-testid="ad_text">Kursus coding anak usia 7-12 tahun, belajar bikin game sendiri bersama mentor.</div>
		<a href="https://l.facebook.com/l.php?u=https%3A%2F%2Facme.id%2Fpromo&amp;h=AT0">acme.id</a>
		<span>Library ID: 123456789</span>
		<div role="button">Daftar Sekarang</div>
	</div>`)

	content := newTestContentExtractor().Extract(container)

	assert.Equal(t, "Acme EdTech", content.AdvertiserName)
	assert.Equal(t, "Kursus coding anak usia 7-12 tahun, belajar bikin game sendiri bersama mentor.", content.BodyText)
	require.NotNil(t, content.LibraryID)
	assert.Equal(t, "123456789", *content.LibraryID)
	assert.Equal(t, "https://acme.id/promo", content.LandingPageURL)
	assert.Equal(t, "Daftar Sekarang", content.CTAText)
}

func TestContentExtractorFallbacks(t *testing.T) {
	container := parseContainer(t, `<div>
		<h3><a href="https://www.facebook.com/ads/library">Sponsored</a></h3>
		<p>Short text</p>
		<p>A long generic paragraph with no relevant vocabulary that still exceeds fifty characters.</p>
		<a href="https://www.instagram.com/acme">Instagram</a>
	</div>`)

	content := newTestContentExtractor().Extract(container)

	assert.Equal(t, models.UnknownAdvertiser, content.AdvertiserName)
	assert.False(t, content.HasKnownAdvertiser())
	assert.Equal(t, "A long generic paragraph with no relevant vocabulary that still exceeds fifty characters.", content.BodyText)
	assert.Nil(t, content.LibraryID)
	assert.Empty(t, content.LandingPageURL)
	assert.Empty(t, content.CTAText)
}

func TestContentExtractorTruncatesBody(t *testing.T) {
	long := ""
	for i := 0; i < 80; i++ {
		long += "belajar "
	}
	container := parseContainer(t, `<div><div data-testid="ad_text">`+long+`</div></div>`)

	content := newTestContentExtractor().Extract(container)
	assert.Equal(t, MaxAdTextLen, runeLen(content.BodyText))
}

func TestIsAcceptableAdvertiser(t *testing.T) {
	assert.True(t, isAcceptableAdvertiser("BrightKids"))
	assert.False(t, isAcceptableAdvertiser("AB"))
	assert.False(t, isAcceptableAdvertiser("Meta Ad Library"))
	assert.False(t, isAcceptableAdvertiser("Facebook Page"))
	assert.False(t, isAcceptableAdvertiser("unknown"))
}

func TestUnwrapRedirect(t *testing.T) {
	assert.Equal(t, "https://example.com/x", unwrapRedirect("https://l.facebook.com/l.php?u=https%3A%2F%2Fexample.com%2Fx"))
	assert.Equal(t, "https://example.com/y", unwrapRedirect("https://example.com/y"))
	assert.Equal(t, "https://l.facebook.com/l.php", unwrapRedirect("https://l.facebook.com/l.php"))
}
