// Package models defines the records produced by ad discovery and scoring.
// Everything here is plain data and JSON-serializable.
package models

import "time"

// MediaKind distinguishes creative media types
type MediaKind string

const (
	MediaImage     MediaKind = "image"
	MediaVideo     MediaKind = "video"
	MediaThumbnail MediaKind = "thumbnail"
)

// AspectClass buckets an image by its proportions
type AspectClass string

const (
	AspectBanner   AspectClass = "banner"
	AspectVertical AspectClass = "vertical"
	AspectSquare   AspectClass = "square"
	AspectStandard AspectClass = "standard"
)

// ImageFormat is guessed from the media URL
type ImageFormat string

const (
	FormatJPEG    ImageFormat = "JPEG"
	FormatPNG     ImageFormat = "PNG"
	FormatGIF     ImageFormat = "GIF"
	FormatWebP    ImageFormat = "WebP"
	FormatUnknown ImageFormat = "Unknown"
)

// UnknownAdvertiser is used when no advertiser name could be extracted
const UnknownAdvertiser = "Unknown"

// ActiveDaysUnknown marks an ad whose running time could not be parsed
const ActiveDaysUnknown = -1

// MediaAsset is one image, video or video thumbnail found in an ad container
type MediaAsset struct {
	URL          string      `json:"url"`
	Kind         MediaKind   `json:"kind"`
	Alt          string      `json:"alt,omitempty"`
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	IsHighRes    bool        `json:"isHighRes"`
	AspectClass  AspectClass `json:"aspectClass,omitempty"`
	Format       ImageFormat `json:"format,omitempty"`
	Position     int         `json:"position"`
	ThumbnailURL string      `json:"thumbnailUrl,omitempty"`
	LinkedVideo  string      `json:"linkedVideo,omitempty"`
	Duration     float64     `json:"duration,omitempty"`
}

// MediaSet groups the media of a single ad container
type MediaSet struct {
	Images     []MediaAsset `json:"images"`
	Videos     []MediaAsset `json:"videos"`
	Thumbnails []MediaAsset `json:"thumbnails"`
}

// Empty reports whether the set has neither images nor videos
func (m MediaSet) Empty() bool {
	return len(m.Images) == 0 && len(m.Videos) == 0
}

// HasHighResImage reports whether any image is at least 400x400
func (m MediaSet) HasHighResImage() bool {
	for _, img := range m.Images {
		if img.IsHighRes {
			return true
		}
	}
	return false
}

// AdContent is the textual part of an ad container
type AdContent struct {
	AdvertiserName string  `json:"advertiserName"`
	BodyText       string  `json:"bodyText"`
	LibraryID      *string `json:"libraryId"`
	LandingPageURL string  `json:"landingPageUrl"`
	CTAText        string  `json:"ctaText"`
}

// HasKnownAdvertiser reports whether a real advertiser name was extracted
func (c AdContent) HasKnownAdvertiser() bool {
	return c.AdvertiserName != "" && c.AdvertiserName != UnknownAdvertiser
}

// QualityScore is the 0-100 discovery confidence of a single ad
type QualityScore struct {
	Total            int  `json:"total"`
	ContentRelevance int  `json:"contentRelevance"`
	DataCompleteness int  `json:"dataCompleteness"`
	MediaQuality     int  `json:"mediaQuality"`
	IsQualified      bool `json:"isQualified"`
}

// VisualSummary condenses a MediaSet for reporting
type VisualSummary struct {
	TotalImages              int    `json:"totalImages"`
	TotalVideos              int    `json:"totalVideos"`
	TotalThumbnails          int    `json:"totalThumbnails"`
	HasCarousel              bool   `json:"hasCarousel"`
	HasVideo                 bool   `json:"hasVideo"`
	HasHighResImages         bool   `json:"hasHighResImages"`
	DominantMediaType        string `json:"dominantMediaType"`
	EstimatedCreativeQuality int    `json:"estimatedCreativeQuality"`
}

// AdInsights holds phrases pulled from the ad copy
type AdInsights struct {
	AgeTargeting    []string `json:"ageTargeting"`
	CourseSubjects  []string `json:"courseSubjects"`
	Offers          []string `json:"offers"`
	PricingInfo     []string `json:"pricingInfo"`
	// MarketLocations lists the configured target locations named in the copy
	MarketLocations []string `json:"marketLocations"`
}

// Enrichment is the per-record classification computed after discovery
type Enrichment struct {
	EffectivenessScore  float64 `json:"effectivenessScore"`
	ContentType         string  `json:"contentType"`
	AgeFocus            string  `json:"ageFocus"`
	CompetitiveStrength string  `json:"competitiveStrength"`
}

// ScoringMetrics is the corpus-relative scoring of one record
type ScoringMetrics struct {
	TextVariants   int     `json:"textVariants"`
	ImageVariants  int     `json:"imageVariants"`
	SameImageCount int     `json:"sameImageCount"`
	HasVideo       bool    `json:"hasVideo"`
	PlatformCount  int     `json:"platformCount"`
	RawScore       float64 `json:"rawScore"`
	Score          int     `json:"score"`
}

// EngagementMetrics links a paid ad to an organic post of the same brand
type EngagementMetrics struct {
	EngagementMatched bool   `json:"engagementMatched"`
	EngagementSource  string `json:"engagementSource"`
	MatchScore        int    `json:"matchScore"`
	MatchedPostURL    string `json:"matchedPostUrl,omitempty"`
	ReactionsTotal    int    `json:"reactionsTotal"`
	CommentsTotal     int    `json:"commentsTotal"`
	SharesTotal       int    `json:"sharesTotal"`
}

// AdRecord is the unit of discovery output
type AdRecord struct {
	AdID string `json:"adId"`
	AdContent
	Media            MediaSet      `json:"mediaAssets"`
	VisualSummary    VisualSummary `json:"visualSummary"`
	Insights         AdInsights    `json:"insights"`
	ActiveDays       int           `json:"activeDays"`
	MeetsMinDays     bool          `json:"meetsMinActiveDays"`
	Platforms        []string      `json:"platforms,omitempty"`
	SnapshotURL      string        `json:"adSnapshotUrl,omitempty"`
	StartDate        string        `json:"startDate,omitempty"`
	SearchTerm       string        `json:"searchTerm"`
	DiscoveryMethod  string        `json:"discoveryMethod"`
	IsNewCompetitor  bool          `json:"isNewDiscoveredCompetitor"`
	ScrapedAt        time.Time     `json:"scrapedAt"`
	AllImageURLs     []string      `json:"allImageUrls"`
	AllVideoURLs     []string      `json:"allVideoUrls"`
	AllThumbnailURLs []string      `json:"allThumbnailUrls"`

	Quality    *QualityScore      `json:"quality,omitempty"`
	Enrichment *Enrichment        `json:"enrichment,omitempty"`
	Scoring    *ScoringMetrics    `json:"scoringMetrics,omitempty"`
	Engagement *EngagementMetrics `json:"engagement,omitempty"`
}

// FirstImageURL returns the first image of the record, if any
func (r AdRecord) FirstImageURL() string {
	if len(r.AllImageURLs) > 0 {
		return r.AllImageURLs[0]
	}
	return ""
}

// OrganicPost is a public feed post scraped from a brand page
type OrganicPost struct {
	PostText       string     `json:"postText"`
	PostURL        string     `json:"postUrl"`
	Images         []string   `json:"images"`
	ReactionsTotal int        `json:"reactionsTotal"`
	CommentsTotal  int        `json:"commentsTotal"`
	SharesTotal    int        `json:"sharesTotal"`
	IsSponsored    bool       `json:"isSponsored"`
	PostedAt       *time.Time `json:"postedAt,omitempty"`
}

// ResultRecord reports a search term that produced no records
type ResultRecord struct {
	Error        bool      `json:"error"`
	SearchTerm   string    `json:"searchTerm"`
	Message      string    `json:"message,omitempty"`
	ResultType   string    `json:"resultType,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	ErrorType    string    `json:"errorType,omitempty"`
	ScrapedAt    time.Time `json:"scrapedAt"`
}

// DiscoveryResponse is the outcome of one discovery run
type DiscoveryResponse struct {
	Records  []AdRecord     `json:"records"`
	Results  []ResultRecord `json:"results,omitempty"`
	Metadata Metadata       `json:"metadata"`
}

// ErrorResponse represents error responses
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Metadata contains request metadata
type Metadata struct {
	SearchTerms []string  `json:"searchTerms"`
	ScrapedAt   time.Time `json:"scrapedAt"`
	DurationMs  int64     `json:"durationMs"`
}
