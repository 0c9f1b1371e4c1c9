package scraper

import (
	"strings"
	"testing"

	"ad-discovery-scraper/internal/dom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsAdCandidate(t *testing.T) {
	root, err := dom.Parse(`<html><body>
		<div id="ok">` + adCard("Acme EdTech", acmeBody, "") + `</div>
		<div id="nomedia"><a href="https://www.facebook.com/acme">Acme</a> A long text block without any picture or clip attached to it at all.</div>
		<div id="short"><img src="x.jpg"><span>Sponsored</span></div>
		<div id="plain"><img src="x.jpg"> Just a regular block of text with an image and nothing that marks it as an ad.</div>
	</body></html>`)
	require.NoError(t, err)

	byID := func(id string) dom.Node { return dom.FindFirst(root, "#"+id) }
	assert.True(t, IsAdCandidate(byID("ok")))
	assert.False(t, IsAdCandidate(byID("nomedia")))
	assert.False(t, IsAdCandidate(byID("short")))
	assert.False(t, IsAdCandidate(byID("plain")))
}

func TestFindCandidatesKeepsInnermostCards(t *testing.T) {
	root, err := dom.Parse(`<html><body>
		<div id="feed">
			<div data-testid="results">
				` + adCard("Acme EdTech", acmeBody, "") + `
				` + adCard("BrightKids", brightBody, "") + `
			</div>
		</div>
	</body></html>`)
	require.NoError(t, err)

	candidates := FindCandidates(root)
	require.Len(t, candidates, 2)
	for _, c := range candidates {
		class, _ := c.Attr("class")
		assert.Equal(t, "card", class)
	}
	assert.Contains(t, candidates[0].Text(), "Acme EdTech")
	assert.Contains(t, candidates[1].Text(), "BrightKids")
}

func TestFindCandidatesEmptyPage(t *testing.T) {
	root, err := dom.Parse(`<html><body><div>Log in to continue</div></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, FindCandidates(root))
}

// splitCard renders a card whose header sits outside the creative block,
// with the CTA going through the outbound l.php shim
func splitCard(advertiser, body string) string {
	slug := strings.ToLower(strings.ReplaceAll(advertiser, " ", ""))
	return `<div class="card">
		<div class="header">
			<span data-testid="page_name"><a href="https://www.facebook.com/` + slug + `">` + advertiser + `</a></span>
			<span>Sponsored</span>
		</div>
		<div class="creative">
			<div data-testid="ad_text">` + body + `</div>
			<img src="` + cdn("creative_"+slug) + `" width="600" height="600">
			<a href="https://l.facebook.com/l.php?u=https%3A%2F%2F` + slug + `.id%2Fdaftar&amp;h=AT1">Daftar Sekarang</a>
		</div>
		<span>` + qualifies + `</span>
	</div>`
}

func TestFindCandidatesKeepsCardAroundUnnamedCreative(t *testing.T) {
	root, err := dom.Parse(`<html><body><div id="feed">` + splitCard("Acme EdTech", acmeBody) + `</div></body></html>`)
	require.NoError(t, err)

	candidates := FindCandidates(root)
	require.Len(t, candidates, 1)
	class, _ := candidates[0].Attr("class")
	assert.Equal(t, "card", class)
}

func TestFindCandidatesDropsWrapperOfSplitCards(t *testing.T) {
	root, err := dom.Parse(`<html><body><div id="feed">` +
		splitCard("Acme EdTech", acmeBody) + splitCard("BrightKids", brightBody) +
		`</div></body></html>`)
	require.NoError(t, err)

	candidates := FindCandidates(root)
	require.Len(t, candidates, 2)
	assert.Contains(t, candidates[0].Text(), "Acme EdTech")
	assert.Contains(t, candidates[1].Text(), "BrightKids")
}
