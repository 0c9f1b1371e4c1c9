package scraper

import (
	"context"
	"testing"
	"time"

	"ad-discovery-scraper/internal/dom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brandPage = `<html><body>
<div role="feed">
	<div role="article">
		<a href="https://www.facebook.com/acmeedtech/posts/pfbid01">2h</a>
		<abbr data-utime="1740787200">1 March</abbr>
		<div data-ad-preview="message">Kursus coding anak usia 7-12 tahun, belajar bikin game sendiri!</div>
		<img src="` + cdnBase + `organic_creative.jpg?stp=dst-jpg" width="600" height="600">
		<img src="` + cdnBase + `profile_pic_acme.jpg">
		<span>1,2 rb tanggapan</span> <span>45 komentar</span> <span>12 shares</span>
		<div role="article">
			<div dir="auto">Wah keren sekali programnya, anak saya mau ikut!</div>
			<span>3 reactions</span>
		</div>
	</div>
	<div role="article">
		<span>Sponsored</span>
		<time datetime="2025-02-20T08:00:00Z">Feb 20</time>
		<div dir="auto">Daftar sekarang dan dapatkan kelas trial gratis minggu ini.</div>
		<span>1.5K reactions</span>
	</div>
	<div role="article">
		<a href="https://www.facebook.com/acmeedtech/photos/a.1/2">Photo</a>
		<div dir="auto">Too short</div>
	</div>
</div>
</body></html>`

func TestExtractPosts(t *testing.T) {
	root, err := dom.Parse(brandPage)
	require.NoError(t, err)

	posts := NewOrganicExtractor().ExtractPosts(root)
	require.Len(t, posts, 3)

	first := posts[0]
	assert.Equal(t, "Kursus coding anak usia 7-12 tahun, belajar bikin game sendiri!", first.PostText)
	assert.Equal(t, "https://www.facebook.com/acmeedtech/posts/pfbid01", first.PostURL)
	assert.Equal(t, []string{cdnBase + "organic_creative.jpg?stp=dst-jpg"}, first.Images)
	assert.False(t, first.IsSponsored)
	// Counters of the nested comment are included in the post text
	assert.Equal(t, 1203, first.ReactionsTotal)
	assert.Equal(t, 45, first.CommentsTotal)
	assert.Equal(t, 12, first.SharesTotal)
	require.NotNil(t, first.PostedAt)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), *first.PostedAt)

	sponsored := posts[1]
	assert.True(t, sponsored.IsSponsored)
	assert.Equal(t, 1500, sponsored.ReactionsTotal)
	require.NotNil(t, sponsored.PostedAt)
	assert.Equal(t, 20, sponsored.PostedAt.Day())
	assert.Empty(t, sponsored.PostURL)

	short := posts[2]
	assert.Empty(t, short.PostText)
	assert.Equal(t, "https://www.facebook.com/acmeedtech/photos/a.1/2", short.PostURL)
	assert.Nil(t, short.PostedAt)
	assert.Empty(t, short.Images)
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		number, suffix string
		want           int
	}{
		{"45", "", 45},
		{"1,234", "", 1234},
		{"1.234", "", 1234},
		{"1.2", "K", 1200},
		{"3,5", "rb", 3500},
		{"2", "jt", 2000000},
		{"1.5", "m", 1500000},
		{"abc", "", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCount(tt.number, tt.suffix), "%s%s", tt.number, tt.suffix)
	}
}

func TestParseEngagement(t *testing.T) {
	r, c, s := NewOrganicExtractor().ParseEngagement("10 reactions · 2 comments · 1 share · 5 kali dibagikan")
	assert.Equal(t, 10, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 6, s)
}

type fakeFetcher struct {
	pages     map[string]string
	requested []string
}

func (f *fakeFetcher) FetchAll(_ context.Context, urls []string, _ int) map[string]string {
	f.requested = append(f.requested, urls...)
	out := make(map[string]string)
	for _, u := range urls {
		if html, ok := f.pages[u]; ok {
			out[u] = html
		}
	}
	return out
}

func TestFillFromPermalinks(t *testing.T) {
	root, err := dom.Parse(brandPage)
	require.NoError(t, err)
	oe := NewOrganicExtractor()
	posts := oe.ExtractPosts(root)

	permalink := "https://www.facebook.com/acmeedtech/photos/a.1/2"
	fetcher := &fakeFetcher{pages: map[string]string{
		permalink: `<html><head><title>Acme EdTech</title></head><body><article>
			<p>Robotika untuk anak sekolah dasar kini hadir di Jakarta. Anak-anak belajar merakit robot
			sederhana dan memprogramnya sendiri bersama mentor berpengalaman setiap akhir pekan.</p>
			<p>Kelas kecil dengan maksimal delapan siswa memastikan setiap anak mendapat perhatian penuh
			dari pengajar selama sesi berlangsung.</p>
		</article></body></html>`,
	}}

	oe.FillFromPermalinks(context.Background(), posts, fetcher, 2)

	assert.Equal(t, []string{permalink}, fetcher.requested)
	assert.Contains(t, posts[2].PostText, "Robotika untuk anak sekolah dasar")
	assert.Equal(t, "Kursus coding anak usia 7-12 tahun, belajar bikin game sendiri!", posts[0].PostText)
}
