package scraper

import (
	"strings"

	"ad-discovery-scraper/internal/config"
	"ad-discovery-scraper/internal/models"
)

// Policy decides which extracted ads become records. Qualified and
// collect-all discovery differ only in the values it carries.
type Policy struct {
	Mode             config.Mode
	MinActiveDays    int
	MaxPerPage       int
	MaxPerAdvertiser int
	MinCollectBody   int
}

// NewPolicy derives a policy from a validated discovery config
func NewPolicy(cfg config.DiscoveryConfig) Policy {
	p := Policy{
		Mode:             cfg.Mode,
		MinActiveDays:    cfg.MinActiveDays,
		MaxPerPage:       cfg.MaxPerPage,
		MaxPerAdvertiser: cfg.MaxPerAdvertiser,
		MinCollectBody:   cfg.MinCollectBody,
	}
	if p.Mode != config.ModeCollectAll {
		p.Mode = config.ModeQualified
		p.MaxPerAdvertiser = 1
	}
	if p.MaxPerAdvertiser < 1 {
		p.MaxPerAdvertiser = 1
	}
	return p
}

// Accept reports whether an assessed ad passes the mode's acceptance rule.
// Ads without a real advertiser name are never accepted.
func (p Policy) Accept(content models.AdContent, quality models.QualityScore, activeDays int) bool {
	if !content.HasKnownAdvertiser() {
		return false
	}
	if p.Mode == config.ModeCollectAll {
		return runeLen(content.BodyText) > p.MinCollectBody &&
			MeetsMinDays(activeDays, p.MinActiveDays)
	}
	return quality.IsQualified
}

// Full reports whether the per-page cap has been reached
func (p Policy) Full(emitted int) bool {
	return p.MaxPerPage > 0 && emitted >= p.MaxPerPage
}

// SeenAdvertisers counts records per advertiser within one page load
type SeenAdvertisers map[string]int

func advertiserKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Allow reports whether another record for name fits under limit
func (s SeenAdvertisers) Allow(name string, limit int) bool {
	return s[advertiserKey(name)] < limit
}

// Add records one emitted record for name
func (s SeenAdvertisers) Add(name string) {
	s[advertiserKey(name)]++
}
