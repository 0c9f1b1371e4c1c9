package scraper

import (
	"errors"
	"fmt"
	"time"

	"ad-discovery-scraper/internal/config"
	"ad-discovery-scraper/internal/dom"
	"ad-discovery-scraper/internal/models"
	"ad-discovery-scraper/internal/observability"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// PageMeta describes the page load a batch of containers came from
type PageMeta struct {
	SearchTerm string
	ScrapedAt  time.Time
}

// AdRecordBuilder turns the candidate containers of one page into ad records
type AdRecordBuilder struct {
	cfg     config.DiscoveryConfig
	policy  Policy
	media   *MediaExtractor
	content *ContentExtractor
	days    *ActiveDaysEstimator
	logger  zerolog.Logger
}

func NewAdRecordBuilder(cfg config.DiscoveryConfig) *AdRecordBuilder {
	return &AdRecordBuilder{
		cfg:     cfg,
		policy:  NewPolicy(cfg),
		media:   NewMediaExtractor(),
		content: NewContentExtractor(cfg.Indicators),
		days:    NewActiveDaysEstimator(cfg.RandomActiveDaysFallback),
		logger:  log.Logger,
	}
}

// WithActiveDaysEstimator replaces the estimator, mainly to pin clock and random source
func (b *AdRecordBuilder) WithActiveDaysEstimator(e *ActiveDaysEstimator) *AdRecordBuilder {
	b.days = e
	return b
}

// WithMediaExtractor replaces the media extractor
func (b *AdRecordBuilder) WithMediaExtractor(m *MediaExtractor) *AdRecordBuilder {
	b.media = m
	return b
}

// WithLogger sets the logger used for skipped containers
func (b *AdRecordBuilder) WithLogger(logger zerolog.Logger) *AdRecordBuilder {
	b.logger = logger
	return b
}

// Policy returns the acceptance policy in use
func (b *AdRecordBuilder) Policy() Policy {
	return b.policy
}

// extraction holds everything read from one container
type extraction struct {
	content    models.AdContent
	media      models.MediaSet
	activeDays int
}

// Build extracts, assesses and filters containers in order. seen is scoped
// to one page load; the first accepted container of an advertiser wins.
// A container that fails extraction is logged and skipped.
func (b *AdRecordBuilder) Build(containers []dom.Node, seen SeenAdvertisers, meta PageMeta) []models.AdRecord {
	records := []models.AdRecord{}
	if seen == nil {
		seen = SeenAdvertisers{}
	}

	for i, container := range containers {
		if b.policy.Full(len(records)) {
			break
		}

		ext, err := b.extract(i, container)
		if err != nil {
			b.logger.Warn().Err(err).Int("container", i).Str("searchTerm", meta.SearchTerm).Msg("skipping ad container")
			observability.ContainerCount.WithLabelValues("failed").Inc()
			continue
		}

		quality := AssessQuality(ext.content, ext.media, ext.activeDays,
			b.cfg.Indicators, b.cfg.ExcludeTerms, b.cfg.MinActiveDays)

		if !b.policy.Accept(ext.content, quality, ext.activeDays) ||
			!seen.Allow(ext.content.AdvertiserName, b.policy.MaxPerAdvertiser) {
			observability.ContainerCount.WithLabelValues("rejected").Inc()
			continue
		}

		seen.Add(ext.content.AdvertiserName)
		records = append(records, b.newRecord(ext, quality, meta))
		observability.ContainerCount.WithLabelValues("accepted").Inc()
	}

	observability.RecordCount.WithLabelValues(string(b.policy.Mode)).Add(float64(len(records)))
	return records
}

// extract runs every extractor on a container, converting panics from
// malformed markup into a ContentExtractionError
func (b *AdRecordBuilder) extract(index int, container dom.Node) (ext extraction, err error) {
	step := "container"
	defer func() {
		if r := recover(); r != nil {
			err = &models.ContentExtractionError{Step: step, Index: index, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if container == nil {
		return ext, &models.ContentExtractionError{Step: step, Index: index, Err: errors.New("nil container")}
	}

	step = "content"
	ext.content = b.content.Extract(container)
	step = "media"
	ext.media = b.media.Extract(container)
	step = "activeDays"
	ext.activeDays = b.days.Estimate(container)
	return ext, nil
}

func (b *AdRecordBuilder) newRecord(ext extraction, quality models.QualityScore, meta PageMeta) models.AdRecord {
	insights := ExtractInsights(ext.content.BodyText)
	insights.MarketLocations = MatchLocations(ext.content.BodyText, b.cfg.Indicators.Locations)
	enrichment := Enrich(quality, insights, ext.activeDays)

	scrapedAt := meta.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}

	record := models.AdRecord{
		AdID:             uuid.NewString(),
		AdContent:        ext.content,
		Media:            ext.media,
		VisualSummary:    SummarizeMedia(ext.media),
		Insights:         insights,
		ActiveDays:       ext.activeDays,
		MeetsMinDays:     MeetsMinDays(ext.activeDays, b.cfg.MinActiveDays),
		SearchTerm:       meta.SearchTerm,
		DiscoveryMethod:  b.cfg.DiscoveryMethod,
		ScrapedAt:        scrapedAt,
		AllImageURLs:     []string{},
		AllVideoURLs:     []string{},
		AllThumbnailURLs: []string{},
		Quality:          &quality,
		Enrichment:       &enrichment,
	}

	for _, img := range ext.media.Images {
		record.AllImageURLs = append(record.AllImageURLs, img.URL)
	}
	for _, video := range ext.media.Videos {
		if video.URL != "" {
			record.AllVideoURLs = append(record.AllVideoURLs, video.URL)
		}
	}
	for _, thumb := range ext.media.Thumbnails {
		record.AllThumbnailURLs = append(record.AllThumbnailURLs, thumb.URL)
	}

	return record
}
