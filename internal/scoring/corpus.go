// Package scoring ranks a batch of discovered ads against each other and
// links paid ads to the organic posts of the same brand.
package scoring

import (
	"math"
	"sort"

	"ad-discovery-scraper/internal/models"
)

// Score weights shared with downstream spreadsheet formulas
const (
	WeightDaysActive    = 2
	WeightTextVariants  = 3
	WeightImageVariants = 3
	WeightHasVideo      = 4
	WeightMultiPlatform = 2
	WeightImageReuse    = 5
)

// CorpusIndex holds the cross-record lookups of one scoring run
type CorpusIndex struct {
	ImageToTextVariants map[string]map[string]struct{}
	TextToImageVariants map[string]map[string]struct{}
	ImageFrequency      map[string]int
}

// BuildIndex indexes the first image and body text of every record
func BuildIndex(records []models.AdRecord) CorpusIndex {
	idx := CorpusIndex{
		ImageToTextVariants: make(map[string]map[string]struct{}),
		TextToImageVariants: make(map[string]map[string]struct{}),
		ImageFrequency:      make(map[string]int),
	}

	for _, r := range records {
		image := r.FirstImageURL()
		body := r.BodyText

		if image != "" {
			if idx.ImageToTextVariants[image] == nil {
				idx.ImageToTextVariants[image] = make(map[string]struct{})
			}
			if body != "" {
				idx.ImageToTextVariants[image][body] = struct{}{}
			}
			idx.ImageFrequency[image]++
		}

		if body != "" {
			if idx.TextToImageVariants[body] == nil {
				idx.TextToImageVariants[body] = make(map[string]struct{})
			}
			if image != "" {
				idx.TextToImageVariants[body][image] = struct{}{}
			}
		}
	}
	return idx
}

// Metrics computes the scoring metrics of one record against the index
func (idx CorpusIndex) Metrics(r models.AdRecord) models.ScoringMetrics {
	image := r.FirstImageURL()
	m := models.ScoringMetrics{
		HasVideo:      hasVideo(r),
		PlatformCount: len(r.Platforms),
	}
	if image != "" {
		m.TextVariants = len(idx.ImageToTextVariants[image])
		m.SameImageCount = idx.ImageFrequency[image]
	}
	if r.BodyText != "" {
		m.ImageVariants = len(idx.TextToImageVariants[r.BodyText])
	}

	m.RawScore = RawScore(effectiveDays(r.ActiveDays), m)
	m.Score = int(math.Round(m.RawScore))
	return m
}

// RawScore applies the fixed weights
func RawScore(activeDays int, m models.ScoringMetrics) float64 {
	score := float64(activeDays*WeightDaysActive +
		m.TextVariants*WeightTextVariants +
		m.ImageVariants*WeightImageVariants)
	if m.HasVideo {
		score += WeightHasVideo
	}
	if m.PlatformCount > 1 {
		score += WeightMultiPlatform
	}
	if m.SameImageCount > 1 {
		score += WeightImageReuse
	}
	return score
}

// Score annotates a copy of the batch with scoring metrics and sorts it by
// score descending, newest first on ties. The whole batch is indexed
// before any record is scored.
func Score(records []models.AdRecord) []models.AdRecord {
	idx := BuildIndex(records)

	scored := make([]models.AdRecord, len(records))
	for i, r := range records {
		m := idx.Metrics(r)
		r.Scoring = &m
		scored[i] = r
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Scoring.RawScore != b.Scoring.RawScore {
			return a.Scoring.RawScore > b.Scoring.RawScore
		}
		return effectiveDays(a.ActiveDays) < effectiveDays(b.ActiveDays)
	})
	return scored
}

// Summary describes a scored batch
type Summary struct {
	TotalAds      int     `json:"totalAds"`
	AverageScore  float64 `json:"averageScore"`
	MinScore      int     `json:"minScore"`
	MaxScore      int     `json:"maxScore"`
	WithVideo     int     `json:"withVideo"`
	MultiPlatform int     `json:"multiPlatform"`
}

// Summarize aggregates scored records; unscored records are ignored
func Summarize(records []models.AdRecord) Summary {
	var s Summary
	total := 0
	for _, r := range records {
		if r.Scoring == nil {
			continue
		}
		score := r.Scoring.Score
		if s.TotalAds == 0 || score < s.MinScore {
			s.MinScore = score
		}
		if s.TotalAds == 0 || score > s.MaxScore {
			s.MaxScore = score
		}
		s.TotalAds++
		total += score
		if r.Scoring.HasVideo {
			s.WithVideo++
		}
		if r.Scoring.PlatformCount > 1 {
			s.MultiPlatform++
		}
	}
	if s.TotalAds > 0 {
		s.AverageScore = float64(total) / float64(s.TotalAds)
	}
	return s
}

func hasVideo(r models.AdRecord) bool {
	return len(r.AllVideoURLs) > 0 || len(r.Media.Videos) > 0
}

// effectiveDays counts an unknown running time as zero
func effectiveDays(days int) int {
	if days < 0 {
		return 0
	}
	return days
}
