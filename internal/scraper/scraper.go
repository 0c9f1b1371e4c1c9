// Package scraper turns rendered ad library pages into structured ad records:
// candidate detection, text and media extraction, quality assessment and
// per-page deduplication, plus the page loaders and discovery orchestration.
package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ad-discovery-scraper/internal/config"
	"ad-discovery-scraper/internal/dom"
	"ad-discovery-scraper/internal/models"
	"ad-discovery-scraper/internal/observability"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Result record types
const (
	ErrorTypeDiscovery     = "discovery_error"
	ResultNoQualifyingAds  = "no_qualifying_advertisers"
	discoveryMaxConcurrent = 4
)

// PageLoader loads a page and returns its HTML and final URL
type PageLoader interface {
	LoadPage(ctx context.Context, targetURL string) (string, string, error)
}

// CompetitorRegistry remembers advertisers across runs
type CompetitorRegistry interface {
	MarkSeen(ctx context.Context, advertiser string) (bool, error)
}

// RecordSink persists discovered records
type RecordSink interface {
	SaveRecords(ctx context.Context, records []models.AdRecord) error
}

// Scraper orchestrates discovery: load each search page, find ad containers,
// build records and report terms that produced nothing
type Scraper struct {
	cfg      config.DiscoveryConfig
	loader   PageLoader
	builder  *AdRecordBuilder
	registry CompetitorRegistry
	sink     RecordSink
	logger   zerolog.Logger
	now      func() time.Time
}

func NewScraper(cfg config.DiscoveryConfig, scrapeCfg config.ScrapeConfig) *Scraper {
	var loader PageLoader
	if scrapeCfg.Loader == "http" {
		loader = NewHTTPClientWithConfig(scrapeCfg)
	} else {
		loader = NewBrowserClientWithConfig(scrapeCfg)
	}

	return &Scraper{
		cfg:     cfg,
		loader:  loader,
		builder: NewAdRecordBuilder(cfg),
		logger:  log.Logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithLoader replaces the page loader
func (s *Scraper) WithLoader(loader PageLoader) *Scraper {
	s.loader = loader
	return s
}

// WithRegistry enables cross-run new competitor detection
func (s *Scraper) WithRegistry(registry CompetitorRegistry) *Scraper {
	s.registry = registry
	return s
}

// WithSink persists every discovered batch
func (s *Scraper) WithSink(sink RecordSink) *Scraper {
	s.sink = sink
	return s
}

// WithClock fixes the scrape timestamp
func (s *Scraper) WithClock(now func() time.Time) *Scraper {
	s.now = now
	return s
}

// Builder exposes the record builder, mainly for tests
func (s *Scraper) Builder() *AdRecordBuilder {
	return s.builder
}

// BuildSearchURL returns the ad library search page for a term
func BuildSearchURL(country, term string) string {
	q := strings.ReplaceAll(url.QueryEscape(term), "+", "%20")
	return fmt.Sprintf("%s?active_status=active&ad_type=all&country=%s&q=%s&media_type=all",
		AdLibraryBaseURL, url.QueryEscape(country), q)
}

// termResult is the outcome of one search term
type termResult struct {
	records []models.AdRecord
	result  *models.ResultRecord
}

// Discover runs every search term (the configured list when terms is empty),
// at most MaxSearchTerms of them, and merges the outcomes in term order
func (s *Scraper) Discover(ctx context.Context, terms []string) (models.DiscoveryResponse, error) {
	start := time.Now()
	terms = s.termList(terms)
	if len(terms) == 0 {
		return models.DiscoveryResponse{}, fmt.Errorf("no search terms")
	}

	outcomes := make([]termResult, len(terms))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())
	for i, term := range terms {
		i, term := i, term
		g.Go(func() error {
			outcomes[i] = s.discoverTerm(gctx, term)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.DiscoveryResponse{}, err
	}

	resp := models.DiscoveryResponse{
		Records: []models.AdRecord{},
		Metadata: models.Metadata{
			SearchTerms: terms,
			ScrapedAt:   s.now(),
		},
	}
	for _, o := range outcomes {
		resp.Records = append(resp.Records, o.records...)
		if o.result != nil {
			resp.Results = append(resp.Results, *o.result)
		}
	}

	s.markCompetitors(ctx, resp.Records)
	s.persist(ctx, resp.Records)

	resp.Metadata.DurationMs = time.Since(start).Milliseconds()
	s.logger.Info().Int("records", len(resp.Records)).Int("terms", len(terms)).
		Int64("durationMs", resp.Metadata.DurationMs).Msg("discovery finished")
	return resp, nil
}

func (s *Scraper) termList(terms []string) []string {
	cfg := s.cfg
	if len(terms) > 0 {
		cfg.SearchTerms = terms
	}
	return cfg.SearchTermList()
}

func (s *Scraper) concurrency() int {
	switch {
	case s.cfg.MaxConcurrency < 1:
		return 1
	case s.cfg.MaxConcurrency > discoveryMaxConcurrent:
		return discoveryMaxConcurrent
	default:
		return s.cfg.MaxConcurrency
	}
}

// discoverTerm never fails; load errors become error result records
func (s *Scraper) discoverTerm(ctx context.Context, term string) termResult {
	searchURL := BuildSearchURL(s.cfg.Country, term)
	s.logger.Info().Str("searchTerm", term).Str("url", searchURL).Msg("loading ad library page")

	html, _, err := s.loader.LoadPage(ctx, searchURL)
	if err != nil {
		return s.errorResult(term, err)
	}

	records, err := s.ExtractFromHTML(html, term)
	if err != nil {
		return s.errorResult(term, err)
	}
	if len(records) == 0 {
		return termResult{records: records, result: &models.ResultRecord{
			Error:      false,
			SearchTerm: term,
			Message:    s.noResultsMessage(),
			ResultType: ResultNoQualifyingAds,
			ScrapedAt:  s.now(),
		}}
	}

	s.logger.Info().Str("searchTerm", term).Int("records", len(records)).Msg("page processed")
	return termResult{records: records}
}

// ExtractFromHTML builds records from a page snapshot. A page showing a login
// wall and no ad candidates is reported as a LoginWallError.
func (s *Scraper) ExtractFromHTML(html, term string) ([]models.AdRecord, error) {
	root, err := dom.Parse(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	candidates := FindCandidates(root)
	if len(candidates) == 0 && IsLoginWall(root.Text()) {
		return nil, &models.LoginWallError{URL: BuildSearchURL(s.cfg.Country, term), Err: fmt.Errorf("no ad containers visible")}
	}
	s.logger.Debug().Str("searchTerm", term).Int("candidates", len(candidates)).Msg("found potential ad containers")

	return s.builder.Build(candidates, SeenAdvertisers{}, PageMeta{SearchTerm: term, ScrapedAt: s.now()}), nil
}

func (s *Scraper) errorResult(term string, err error) termResult {
	s.logger.Error().Err(err).Str("searchTerm", term).Msg("discovery failed")
	return termResult{records: []models.AdRecord{}, result: &models.ResultRecord{
		Error:        true,
		SearchTerm:   term,
		ErrorMessage: err.Error(),
		ErrorType:    ErrorTypeDiscovery,
		ScrapedAt:    s.now(),
	}}
}

func (s *Scraper) noResultsMessage() string {
	if s.cfg.Mode == config.ModeCollectAll {
		return fmt.Sprintf("No advertisers met collection criteria (known advertiser, text >%d chars, active ≥%d days)",
			s.cfg.MinCollectBody, s.cfg.MinActiveDays)
	}
	return fmt.Sprintf("No advertisers met quality criteria (score ≥50, active ≥%d days, has media)", s.cfg.MinActiveDays)
}

// markCompetitors flags advertisers never seen before. Without a registry
// every advertiser counts as newly discovered.
func (s *Scraper) markCompetitors(ctx context.Context, records []models.AdRecord) {
	known := make(map[string]bool)
	for i := range records {
		name := records[i].AdvertiserName
		if s.registry == nil {
			records[i].IsNewCompetitor = true
			continue
		}

		key := advertiserKey(name)
		isNew, checked := known[key]
		if !checked {
			var err error
			isNew, err = s.registry.MarkSeen(ctx, name)
			if err != nil {
				s.logger.Warn().Err(err).Str("advertiser", name).Msg("competitor registry unavailable")
				isNew = false
			}
			if isNew {
				observability.NewCompetitorCount.Inc()
			}
			known[key] = isNew
		}
		records[i].IsNewCompetitor = isNew
	}
}

func (s *Scraper) persist(ctx context.Context, records []models.AdRecord) {
	if s.sink == nil || len(records) == 0 {
		return
	}
	if err := s.sink.SaveRecords(ctx, records); err != nil {
		observability.PersistErrors.Inc()
		s.logger.Error().Err(err).Int("records", len(records)).Msg("failed to persist records")
	}
}
