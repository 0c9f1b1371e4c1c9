package scraper

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"ad-discovery-scraper/internal/config"
	"ad-discovery-scraper/internal/dom"
	"ad-discovery-scraper/internal/models"
)

// Attributes written by the browser loader before the snapshot is taken
const (
	NaturalWidthAttr  = "data-natural-width"
	NaturalHeightAttr = "data-natural-height"
	DurationAttr      = "data-duration"
	PositionAttr      = "data-position"
)

// MediaExtractor finds creative images and videos inside an ad container
type MediaExtractor struct {
	config  config.MediaConfig
	regexes map[string]*regexp.Regexp
}

func NewMediaExtractor() *MediaExtractor {
	return NewMediaExtractorWithConfig(config.DefaultMediaConfig())
}

func NewMediaExtractorWithConfig(cfg config.MediaConfig) *MediaExtractor {
	return &MediaExtractor{
		config:  cfg,
		regexes: config.CompileRegexes(),
	}
}

// Extract returns the creative media of a container. Multi-resolution
// variants sharing a carousel position are collapsed to the largest one.
func (me *MediaExtractor) Extract(container dom.Node) models.MediaSet {
	media := models.MediaSet{
		Images:     []models.MediaAsset{},
		Videos:     []models.MediaAsset{},
		Thumbnails: []models.MediaAsset{},
	}

	var candidates []models.MediaAsset
	for i, img := range container.Find("img") {
		candidates = append(candidates, me.extractImage(img, i)...)
	}
	media.Images = SelectHighestResolutionByPosition(candidates)

	for i, video := range container.Find("video") {
		asset, thumb, ok := me.extractVideo(video, i)
		if !ok {
			continue
		}
		media.Videos = append(media.Videos, asset)
		if thumb != nil {
			media.Thumbnails = append(media.Thumbnails, *thumb)
		}
	}

	return media
}

// extractImage returns one asset per usable resolution of an img element
func (me *MediaExtractor) extractImage(img dom.Node, index int) []models.MediaAsset {
	position := positionOf(img, index)
	width, height := me.extractDimensions(img)
	alt := dom.AttrOr(img, "alt", "")

	var assets []models.MediaAsset
	src := dom.AttrOr(img, "src", "")
	if src == "" {
		src = dom.AttrOr(img, "data-src", "")
	}
	if src != "" && me.IsValidMedia(src) && !me.isTooSmall(width, height) {
		assets = append(assets, me.newImageAsset(src, alt, width, height, position))
	}

	// srcset entries are alternate resolutions of the same slot
	if srcset, ok := img.Attr("srcset"); ok {
		for _, item := range me.parseSrcset(srcset) {
			if !me.IsValidMedia(item.url) {
				continue
			}
			h := 0
			if width > 0 && height > 0 {
				h = item.w * height / width
			}
			if me.isTooSmall(item.w, h) {
				continue
			}
			assets = append(assets, me.newImageAsset(item.url, alt, item.w, h, position))
		}
	}

	return assets
}

func (me *MediaExtractor) newImageAsset(url, alt string, width, height, position int) models.MediaAsset {
	return models.MediaAsset{
		URL:         url,
		Kind:        models.MediaImage,
		Alt:         alt,
		Width:       width,
		Height:      height,
		IsHighRes:   width >= me.config.HighResMin && height >= me.config.HighResMin,
		AspectClass: ClassifyAspect(width, height),
		Format:      DetectFormat(url),
		Position:    position,
	}
}

// extractVideo reads a video element and its poster thumbnail
func (me *MediaExtractor) extractVideo(video dom.Node, index int) (models.MediaAsset, *models.MediaAsset, bool) {
	src := dom.AttrOr(video, "src", "")
	if src == "" {
		if source := dom.FindFirst(video, "source"); source != nil {
			src = dom.AttrOr(source, "src", "")
		}
	}
	poster := dom.AttrOr(video, "poster", "")
	if src == "" && poster == "" {
		return models.MediaAsset{}, nil, false
	}

	position := positionOf(video, index)
	width, height := me.extractDimensions(video)
	duration, _ := strconv.ParseFloat(dom.AttrOr(video, DurationAttr, "0"), 64)

	asset := models.MediaAsset{
		URL:          src,
		Kind:         models.MediaVideo,
		Width:        width,
		Height:       height,
		ThumbnailURL: poster,
		Duration:     duration,
		Position:     position,
	}

	var thumb *models.MediaAsset
	if poster != "" && me.IsValidMedia(poster) {
		thumb = &models.MediaAsset{
			URL:         poster,
			Kind:        models.MediaThumbnail,
			LinkedVideo: src,
			Format:      DetectFormat(poster),
			Position:    position,
		}
	}
	return asset, thumb, true
}

// IsValidMedia rejects inline data, UI chrome assets and short URLs
func (me *MediaExtractor) IsValidMedia(url string) bool {
	if url == "" || me.regexes["imageDataURI"].MatchString(url) {
		return false
	}
	for _, pattern := range me.config.BlockedPatterns {
		if strings.Contains(url, pattern) {
			return false
		}
	}
	return len(url) > me.config.MinURLLength
}

// isTooSmall only rejects when both dimensions are known
func (me *MediaExtractor) isTooSmall(width, height int) bool {
	if width == 0 || height == 0 {
		return false
	}
	return width < me.config.MinWidth || height < me.config.MinHeight
}

// extractDimensions prefers the rendered natural size over markup attributes
func (me *MediaExtractor) extractDimensions(n dom.Node) (int, int) {
	width := attrInt(n, NaturalWidthAttr)
	if width == 0 {
		width = attrInt(n, "width")
	}
	height := attrInt(n, NaturalHeightAttr)
	if height == 0 {
		height = attrInt(n, "height")
	}
	return width, height
}

type srcsetCandidate struct {
	url string
	w   int
}

// parseSrcset returns the width-described entries of a srcset attribute
func (me *MediaExtractor) parseSrcset(srcset string) []srcsetCandidate {
	var candidates []srcsetCandidate
	for _, item := range strings.Split(srcset, ",") {
		matches := me.regexes["srcsetItem"].FindStringSubmatch(strings.TrimSpace(item))
		if len(matches) > 2 {
			if w, err := strconv.Atoi(matches[2]); err == nil {
				candidates = append(candidates, srcsetCandidate{url: matches[1], w: w})
			}
		}
	}
	return candidates
}

// SelectHighestResolutionByPosition keeps the largest asset per position,
// ordered by position. Ties keep the earliest asset.
func SelectHighestResolutionByPosition(assets []models.MediaAsset) []models.MediaAsset {
	best := make(map[int]models.MediaAsset)
	var positions []int
	for _, a := range assets {
		current, ok := best[a.Position]
		if !ok {
			positions = append(positions, a.Position)
			best[a.Position] = a
			continue
		}
		if resolution(a) > resolution(current) {
			best[a.Position] = a
		}
	}

	sort.Ints(positions)
	out := make([]models.MediaAsset, 0, len(positions))
	for _, p := range positions {
		out = append(out, best[p])
	}
	return out
}

func resolution(a models.MediaAsset) int {
	if a.Width > 0 && a.Height > 0 {
		return a.Width * a.Height
	}
	return a.Width * a.Width
}

// ClassifyAspect buckets an image by proportions; unknown sizes are unclassified
func ClassifyAspect(width, height int) models.AspectClass {
	if width == 0 || height == 0 {
		return ""
	}
	switch {
	case float64(width) > float64(height)*1.5:
		return models.AspectBanner
	case float64(height) > float64(width)*1.5:
		return models.AspectVertical
	case absInt(width-height) < 50:
		return models.AspectSquare
	default:
		return models.AspectStandard
	}
}

// DetectFormat guesses the image format from its URL
func DetectFormat(src string) models.ImageFormat {
	switch {
	case strings.Contains(src, ".jpg") || strings.Contains(src, "jpeg"):
		return models.FormatJPEG
	case strings.Contains(src, ".png"):
		return models.FormatPNG
	case strings.Contains(src, ".gif"):
		return models.FormatGIF
	case strings.Contains(src, ".webp"):
		return models.FormatWebP
	default:
		return models.FormatUnknown
	}
}

func positionOf(n dom.Node, index int) int {
	if v, ok := n.Attr(PositionAttr); ok {
		if p, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return p
		}
	}
	return index
}

func attrInt(n dom.Node, name string) int {
	v, ok := n.Attr(name)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "px"), 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
