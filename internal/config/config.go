package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"
)

// Mode selects how the discovery policy accepts ad containers
type Mode string

const (
	// ModeQualified keeps only qualified ads, one per advertiser per page
	ModeQualified Mode = "qualified"
	// ModeCollectAll keeps any ad with a known advertiser and enough copy
	ModeCollectAll Mode = "collect_all"
)

// Indicators are the keyword sets used to judge content relevance
type Indicators struct {
	AgeTargets     []string `yaml:"ageTargets" json:"ageTargets"`
	Subjects       []string `yaml:"subjects" json:"subjects"`
	EducationTerms []string `yaml:"educationTerms" json:"educationTerms"`
	Locations      []string `yaml:"locations" json:"locations"`
}

// DiscoveryConfig controls which ad containers become records
type DiscoveryConfig struct {
	Mode             Mode       `yaml:"mode" json:"mode"`
	MinActiveDays    int        `yaml:"minActiveDays" json:"minActiveDays"`
	MaxPerPage       int        `yaml:"maxPerPage" json:"maxPerPage"`
	MaxPerAdvertiser int        `yaml:"maxPerAdvertiser" json:"maxPerAdvertiser"`
	MinCollectBody   int        `yaml:"minCollectBody" json:"minCollectBody"`
	Indicators       Indicators `yaml:"indicators" json:"indicators"`
	ExcludeTerms     []string   `yaml:"excludeTerms" json:"excludeTerms"`
	// RandomActiveDaysFallback restores the legacy behaviour of inventing a
	// running time in [1,60] when no date text matches.
	RandomActiveDaysFallback bool     `yaml:"randomActiveDaysFallback" json:"randomActiveDaysFallback"`
	DiscoveryMethod          string   `yaml:"discoveryMethod" json:"discoveryMethod"`
	SearchTerms              []string `yaml:"searchTerms" json:"searchTerms"`
	Country                  string   `yaml:"country" json:"country"`
	MaxSearchTerms           int      `yaml:"maxSearchTerms" json:"maxSearchTerms"`
	MaxConcurrency           int      `yaml:"maxConcurrency" json:"maxConcurrency"`
}

// MediaConfig contains configuration for creative media extraction
type MediaConfig struct {
	MinWidth        int      `yaml:"minWidth" json:"minWidth"`
	MinHeight       int      `yaml:"minHeight" json:"minHeight"`
	HighResMin      int      `yaml:"highResMin" json:"highResMin"`
	MinURLLength    int      `yaml:"minUrlLength" json:"minUrlLength"`
	BlockedPatterns []string `yaml:"blockedPatterns" json:"blockedPatterns"`
}

// ScrapeConfig contains general scraping configuration
type ScrapeConfig struct {
	UserAgent      string
	TimeoutMs      int
	SizeLimitBytes int
	MaxRetries     int
	ChromeMajor    int
	MaxScrolls     int
	ScrollDelay    time.Duration
	SettleDelay    time.Duration
	Loader         string
	PostgresDSN    string
	RedisAddr      string
}

// DefaultDiscoveryConfig returns the kids EdTech discovery policy
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		Mode:             ModeQualified,
		MinActiveDays:    7,
		MaxPerPage:       25,
		MaxPerAdvertiser: 3,
		MinCollectBody:   30,
		Indicators: Indicators{
			AgeTargets: []string{"anak", "kids", "children", "sd", "smp", "sma", "kelas", "umur", "usia"},
			Subjects: []string{"coding", "programming", "pemrograman", "robotika", "robotics", "scratch",
				"matematika", "math", "stem", "design", "desain", "digital literacy",
				"literasi digital", "visual programming"},
			EducationTerms: []string{"belajar", "kursus", "sekolah", "pendidikan", "edukasi", "pembelajaran",
				"course", "learning", "education", "study", "training"},
			Locations: []string{"indonesia", "jakarta", "surabaya", "bandung", "medan", "online indonesia"},
		},
		ExcludeTerms: []string{
			"ai coding tools", "developer api", "anthropic", "claude code", "adult learning",
			"professional development", "enterprise", "b2b", "startup", "meta ad library",
			"facebook ads", "social media marketing",
		},
		DiscoveryMethod: "dynamic_competitor_discovery",
		SearchTerms: []string{
			"kursus coding anak", "belajar programming anak", "coding untuk anak", "math for kids indonesia",
			"design course kids", "scratch programming", "visual programming anak", "digital literacy anak",
			"robotika anak", "STEM education Indonesia",
		},
		Country:        envString("AD_LIBRARY_COUNTRY", "ID"),
		MaxSearchTerms: 4,
		MaxConcurrency: 1,
	}
}

// DefaultCollectAllConfig returns the looser collect-all policy
func DefaultCollectAllConfig() DiscoveryConfig {
	cfg := DefaultDiscoveryConfig()
	cfg.Mode = ModeCollectAll
	cfg.MaxPerPage = 15
	cfg.DiscoveryMethod = "collect_all_discovery"
	return cfg
}

// DefaultMediaConfig returns the default media extraction configuration
func DefaultMediaConfig() MediaConfig {
	return MediaConfig{
		MinWidth:     200,
		MinHeight:    200,
		HighResMin:   400,
		MinURLLength: 50,
		BlockedPatterns: []string{
			"profile_pic", "favicon", "/images/emoji/", "spinner", "icon-",
			"_thumb", "_small", "avatar", "logo_", "button",
			"s60x60", "p60x60", "s32x32", "p32x32",
		},
	}
}

// DefaultScrapeConfig returns the default scraping configuration
func DefaultScrapeConfig() ScrapeConfig {
	chromeMajor := envInt("CHROME_MAJOR", 133)

	userAgent := os.Getenv("SCRAPE_USER_AGENT")
	if userAgent == "" {
		userAgent = fmt.Sprintf("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.0.0 Safari/537.36", chromeMajor)
	}

	return ScrapeConfig{
		UserAgent:      userAgent,
		TimeoutMs:      envInt("SCRAPE_TIMEOUT_MS", 15000),
		SizeLimitBytes: 6_000_000,
		MaxRetries:     2,
		ChromeMajor:    chromeMajor,
		MaxScrolls:     envInt("MAX_SCROLLS", 20),
		ScrollDelay:    envDuration("SCROLL_DELAY", 4*time.Second),
		SettleDelay:    envDuration("SETTLE_DELAY", 5*time.Second),
		Loader:         envString("PAGE_LOADER", "browser"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
	}
}

// CompileRegexes pre-compiles regex patterns for better performance
func CompileRegexes() map[string]*regexp.Regexp {
	return map[string]*regexp.Regexp{
		"daysAgo":      regexp.MustCompile(`(?i)(\d+)\s*days?\s*ago`),
		"hariLalu":     regexp.MustCompile(`(?i)(\d+)\s*hari\s*yang\s*lalu`),
		"activeFor":    regexp.MustCompile(`(?i)active\s*for\s*(\d+)\s*days?`),
		"runningFor":   regexp.MustCompile(`(?i)running\s*for\s*(\d+)\s*days?`),
		"aktifSelama":  regexp.MustCompile(`(?i)aktif\s*selama\s*(\d+)\s*hari`),
		"startedOn":    regexp.MustCompile(`(?i)started\s+running\s+on\s+([A-Za-z]{3,9}\s+\d{1,2},\s+\d{4})`),
		"mulaiTayang":  regexp.MustCompile(`(?i)mulai\s+(?:tayang|ditayangkan)\s+(?:pada\s+)?(\d{1,2}\s+[A-Za-z]{3,9}\s+\d{4})`),
		"libraryID":    regexp.MustCompile(`(?i)library[:\s]+(\d+)`),
		"genericID":    regexp.MustCompile(`(?i)id[:\s]+(\d+)`),
		"srcsetItem":   regexp.MustCompile(`(\S+)\s+(\d+)w`),
		"engagement":   regexp.MustCompile(`(?i)([\d.,]+)\s*(k|m|rb|jt)?\s*(reactions?|comments?|shares?|komentar|kali dibagikan|tanggapan)`),
		"punctuation":  regexp.MustCompile(`[^\p{L}\p{N}\s]+`),
		"imageDataURI": regexp.MustCompile(`^data:image`),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
