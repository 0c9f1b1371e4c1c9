package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ad-discovery-scraper/internal/config"
	"ad-discovery-scraper/internal/dom"
	"ad-discovery-scraper/internal/models"
	"ad-discovery-scraper/internal/observability"
	"ad-discovery-scraper/internal/scoring"
	"ad-discovery-scraper/internal/scraper"
	"ad-discovery-scraper/internal/store"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	logLevel  string
	logFormat string
	outPath   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "adscout",
		Short:         "Discover, score and match competitor ads from the public ad library",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, err := zerolog.ParseLevel(strings.ToLower(logLevel))
			if err != nil || logLevel == "" {
				level = zerolog.InfoLevel
			}
			observability.InitLoggerWithLevel(level, logFormat)
		},
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console or json)")
	root.PersistentFlags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	root.AddCommand(newDiscoverCmd(), newScoreCmd(), newMatchCmd())
	return root
}

func newDiscoverCmd() *cobra.Command {
	var (
		configPath string
		mode       string
		minDays    int
		terms      []string
		snapshots  []string
		loader     string
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Load ad library search pages and extract competitor ads",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := discoveryConfig(configPath, mode)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("min-days") {
				cfg.MinActiveDays = minDays
			}
			if err := config.ValidateDiscoveryConfig(&cfg); err != nil {
				return err
			}

			scrapeCfg := config.DefaultScrapeConfig()
			if loader != "" {
				scrapeCfg.Loader = loader
			}

			s := scraper.NewScraper(cfg, scrapeCfg)
			ctx := cmd.Context()

			if len(snapshots) > 0 {
				resp, err := discoverSnapshots(s, snapshots, terms)
				if err != nil {
					return err
				}
				return writeJSON(resp)
			}

			if scrapeCfg.PostgresDSN != "" {
				pg, err := store.InitPostgres(ctx, scrapeCfg.PostgresDSN)
				if err != nil {
					return err
				}
				defer pg.Close()
				s.WithSink(pg)
			}
			if scrapeCfg.RedisAddr != "" {
				registry, err := store.InitRedis(ctx, scrapeCfg.RedisAddr, 0)
				if err != nil {
					return err
				}
				defer registry.Close()
				s.WithRegistry(registry)
			}

			resp, err := s.Discover(ctx, terms)
			if err != nil {
				return err
			}
			return writeJSON(resp)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "discovery policy file (YAML or JSON)")
	cmd.Flags().StringVar(&mode, "mode", "", "discovery mode (qualified or collect_all)")
	cmd.Flags().IntVar(&minDays, "min-days", 7, "minimum days an ad must have been running")
	cmd.Flags().StringSliceVarP(&terms, "term", "t", nil, "search term (repeatable)")
	cmd.Flags().StringSliceVar(&snapshots, "html", nil, "extract from saved page snapshots instead of loading pages")
	cmd.Flags().StringVar(&loader, "loader", "", "page loader (browser or http)")
	return cmd
}

// discoveryConfig loads the policy file, or the defaults for the requested mode
func discoveryConfig(path, mode string) (config.DiscoveryConfig, error) {
	cfg := config.DefaultConfigForMode(config.Mode(mode))
	if path != "" {
		loaded, err := config.LoadDiscoveryConfig(path)
		if err != nil {
			return config.DiscoveryConfig{}, err
		}
		cfg = loaded
	}
	return cfg.WithMode(config.Mode(mode)), nil
}

// discoverSnapshots extracts records from saved pages; the i-th term labels the i-th file
func discoverSnapshots(s *scraper.Scraper, paths, terms []string) (models.DiscoveryResponse, error) {
	start := time.Now()
	resp := models.DiscoveryResponse{Records: []models.AdRecord{}}
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return resp, fmt.Errorf("failed to read snapshot: %w", err)
		}
		term := path
		if i < len(terms) {
			term = terms[i]
		}
		records, err := s.ExtractFromHTML(string(data), term)
		if err != nil {
			log.Warn().Err(err).Str("snapshot", path).Msg("snapshot skipped")
			continue
		}
		resp.Records = append(resp.Records, records...)
		resp.Metadata.SearchTerms = append(resp.Metadata.SearchTerms, term)
	}
	resp.Metadata.ScrapedAt = time.Now().UTC()
	resp.Metadata.DurationMs = time.Since(start).Milliseconds()
	return resp, nil
}

func newScoreCmd() *cobra.Command {
	var (
		inPath  string
		csvPath string
		topN    int
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a batch of ads by longevity, variants, video and image reuse",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := scoring.LoadRecords(inPath, time.Now())
			if err != nil {
				return err
			}
			scored := scoring.Score(records)

			for i, r := range scored {
				if i >= topN {
					break
				}
				log.Info().Int("rank", i+1).Str("page", r.AdvertiserName).Str("adId", r.AdID).
					Int("score", r.Scoring.Score).Int("daysActive", r.ActiveDays).
					Int("textVariants", r.Scoring.TextVariants).Int("imageVariants", r.Scoring.ImageVariants).
					Bool("video", r.Scoring.HasVideo).Int("sameImage", r.Scoring.SameImageCount).
					Msg("top creative")
			}
			summary := scoring.Summarize(scored)
			log.Info().Int("total", summary.TotalAds).Float64("average", summary.AverageScore).
				Int("min", summary.MinScore).Int("max", summary.MaxScore).
				Int("withVideo", summary.WithVideo).Int("multiPlatform", summary.MultiPlatform).
				Msg("scoring summary")

			if csvPath != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return fmt.Errorf("failed to create CSV: %w", err)
				}
				defer f.Close()
				if err := scoring.WriteCSV(f, scored); err != nil {
					return err
				}
				log.Info().Str("path", csvPath).Msg("results saved")
			}
			return writeJSON(scored)
		},
	}

	cmd.Flags().StringVarP(&inPath, "in", "i", "ads_data.json", "records or ad library JSON")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write the scored CSV export here")
	cmd.Flags().IntVar(&topN, "top", 10, "number of top creatives to log")
	return cmd
}

func newMatchCmd() *cobra.Command {
	var (
		adsPath   string
		postsPath string
		pagePath  string
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Attach organic post engagement to paid ads",
		RunE: func(cmd *cobra.Command, args []string) error {
			ads, err := scoring.LoadRecords(adsPath, time.Now())
			if err != nil {
				return err
			}

			var posts []models.OrganicPost
			switch {
			case postsPath != "":
				posts, err = scoring.LoadOrganicPosts(postsPath)
			case pagePath != "":
				posts, err = organicFromSnapshot(cmd.Context(), pagePath)
			default:
				err = fmt.Errorf("either --posts or --page is required")
			}
			if err != nil {
				return err
			}

			matched := scoring.NewEngagementMatcher().Match(ads, posts)
			return writeJSON(matched)
		},
	}

	cmd.Flags().StringVar(&adsPath, "ads", "", "records JSON")
	cmd.Flags().StringVar(&postsPath, "posts", "", "organic posts JSON")
	cmd.Flags().StringVar(&pagePath, "page", "", "saved brand page snapshot")
	cmd.MarkFlagRequired("ads")
	return cmd
}

// organicFromSnapshot reads posts from a saved brand page, fetching
// permalinks for posts without a visible message
func organicFromSnapshot(ctx context.Context, path string) ([]models.OrganicPost, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	root, err := dom.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	extractor := scraper.NewOrganicExtractor()
	posts := extractor.ExtractPosts(root)
	extractor.FillFromPermalinks(ctx, posts, scraper.NewHTTPClient(), 4)
	log.Info().Int("posts", len(posts)).Msg("organic posts extracted")
	return posts, nil
}

func writeJSON(v any) error {
	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
