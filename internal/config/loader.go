package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadDiscoveryConfig loads a discovery policy from a YAML or JSON file.
// Fields absent from the file keep the defaults of the mode it names.
func LoadDiscoveryConfig(path string) (DiscoveryConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DiscoveryConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var head struct {
		Mode Mode `yaml:"mode" json:"mode"`
	}
	if err := unmarshalConfig(path, data, &head); err != nil {
		return DiscoveryConfig{}, err
	}

	cfg := DefaultConfigForMode(head.Mode)
	if err := unmarshalConfig(path, data, &cfg); err != nil {
		return DiscoveryConfig{}, err
	}

	if err := ValidateDiscoveryConfig(&cfg); err != nil {
		return DiscoveryConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func unmarshalConfig(path string, data []byte, v any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	return nil
}

// DefaultConfigForMode returns the collect-all defaults for ModeCollectAll
// and the qualified defaults otherwise
func DefaultConfigForMode(mode Mode) DiscoveryConfig {
	if mode == ModeCollectAll {
		return DefaultCollectAllConfig()
	}
	return DefaultDiscoveryConfig()
}

// WithMode switches the mode. Limits still at the old mode's defaults move
// to the new mode's defaults; explicit values are kept.
func (c DiscoveryConfig) WithMode(mode Mode) DiscoveryConfig {
	if mode == "" || mode == c.Mode {
		return c
	}
	from, to := DefaultConfigForMode(c.Mode), DefaultConfigForMode(mode)
	if c.MaxPerPage == from.MaxPerPage {
		c.MaxPerPage = to.MaxPerPage
	}
	if c.DiscoveryMethod == from.DiscoveryMethod {
		c.DiscoveryMethod = to.DiscoveryMethod
	}
	c.Mode = mode
	return c
}

// ValidateDiscoveryConfig checks consistency and fills zero limits with defaults
func ValidateDiscoveryConfig(cfg *DiscoveryConfig) error {
	switch cfg.Mode {
	case ModeQualified, ModeCollectAll:
	case "":
		cfg.Mode = ModeQualified
	default:
		return fmt.Errorf("unknown mode: %s (valid: qualified, collect_all)", cfg.Mode)
	}

	if cfg.MinActiveDays < 0 {
		return fmt.Errorf("minActiveDays must be >= 0")
	}
	if cfg.MaxPerPage < 0 || cfg.MaxPerAdvertiser < 0 {
		return fmt.Errorf("maxPerPage and maxPerAdvertiser must be >= 0")
	}

	defaults := DefaultConfigForMode(cfg.Mode)
	if cfg.MaxPerPage == 0 {
		cfg.MaxPerPage = defaults.MaxPerPage
	}
	if cfg.MaxPerAdvertiser == 0 {
		cfg.MaxPerAdvertiser = defaults.MaxPerAdvertiser
	}
	if cfg.MinCollectBody == 0 {
		cfg.MinCollectBody = defaults.MinCollectBody
	}
	if cfg.MaxSearchTerms <= 0 {
		cfg.MaxSearchTerms = defaults.MaxSearchTerms
	}
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	if cfg.DiscoveryMethod == "" {
		cfg.DiscoveryMethod = defaults.DiscoveryMethod
	}
	if cfg.Country == "" {
		cfg.Country = defaults.Country
	}

	if len(cfg.Indicators.AgeTargets)+len(cfg.Indicators.Subjects)+len(cfg.Indicators.EducationTerms) == 0 {
		return fmt.Errorf("at least one indicator set must be non-empty")
	}
	return nil
}

// SearchTermList returns the configured search terms capped at MaxSearchTerms
func (c DiscoveryConfig) SearchTermList() []string {
	terms := make([]string, 0, len(c.SearchTerms))
	for _, t := range c.SearchTerms {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	if c.MaxSearchTerms > 0 && len(terms) > c.MaxSearchTerms {
		terms = terms[:c.MaxSearchTerms]
	}
	return terms
}
