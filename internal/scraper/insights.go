package scraper

import (
	"regexp"
	"strings"

	"ad-discovery-scraper/internal/models"
)

// Insight patterns, applied in order; age and subject patterns run on lowercased copy
var (
	agePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)usia\s+\d+\s*-\s*\d+`),
		regexp.MustCompile(`(?i)umur\s+\d+\s*tahun`),
		regexp.MustCompile(`(?i)\b(sd|smp|sma)\b`),
		regexp.MustCompile(`(?i)kelas\s+\d+`),
		regexp.MustCompile(`(?i)tingkat\s+\w+`),
	}
	subjectPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)coding|programming|pemrograman`),
		regexp.MustCompile(`(?i)scratch|visual programming`),
		regexp.MustCompile(`(?i)robotika|robotics|robot`),
		regexp.MustCompile(`(?i)matematika|matematik|math`),
		regexp.MustCompile(`(?i)design|desain`),
		regexp.MustCompile(`(?i)\bstem\b`),
		regexp.MustCompile(`(?i)digital literacy|literasi digital`),
	}
	offerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)gratis|free|cuma-cuma`),
		regexp.MustCompile(`(?i)diskon|discount|potongan`),
		regexp.MustCompile(`(?i)\d+%\s*off`),
		regexp.MustCompile(`(?i)trial|coba|demo`),
		regexp.MustCompile(`(?i)promo|penawaran`),
	}
	pricingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Rp\s*[\d.,]+`),
		regexp.MustCompile(`(?i)per bulan|monthly|/bulan`),
		regexp.MustCompile(`(?i)per tahun|yearly|/tahun`),
	}
)

// ExtractInsights pulls targeting, subject, offer and pricing phrases from ad copy
func ExtractInsights(text string) models.AdInsights {
	lower := strings.ToLower(text)
	return models.AdInsights{
		AgeTargeting:    extractMatches(lower, agePatterns),
		CourseSubjects:  extractMatches(lower, subjectPatterns),
		Offers:          extractMatches(text, offerPatterns),
		PricingInfo:     extractMatches(text, pricingPatterns),
		MarketLocations: []string{},
	}
}

// MatchLocations returns the locations named in text, in configured order
func MatchLocations(text string, locations []string) []string {
	matches := []string{}
	for _, loc := range locations {
		if loc == "" || !ContainsAny(text, []string{loc}) {
			continue
		}
		matches = append(matches, loc)
		if len(matches) == MaxInsightHits {
			break
		}
	}
	return matches
}

// extractMatches returns up to MaxInsightHits distinct matches in pattern order
func extractMatches(text string, patterns []*regexp.Regexp) []string {
	matches := []string{}
	seen := make(map[string]bool)
	for _, re := range patterns {
		for _, m := range re.FindAllString(text, -1) {
			m = strings.TrimSpace(m)
			if m == "" || seen[m] {
				continue
			}
			seen[m] = true
			matches = append(matches, m)
			if len(matches) == MaxInsightHits {
				return matches
			}
		}
	}
	return matches
}

// SummarizeMedia condenses a media set for reporting
func SummarizeMedia(media models.MediaSet) models.VisualSummary {
	summary := models.VisualSummary{
		TotalImages:      len(media.Images),
		TotalVideos:      len(media.Videos),
		TotalThumbnails:  len(media.Thumbnails),
		HasCarousel:      len(media.Images) > 1,
		HasVideo:         len(media.Videos) > 0,
		HasHighResImages: media.HasHighResImage(),
	}

	switch {
	case summary.HasVideo:
		summary.DominantMediaType = "video"
	case summary.HasCarousel:
		summary.DominantMediaType = "carousel"
	case summary.TotalImages == 1:
		summary.DominantMediaType = "single_image"
	default:
		summary.DominantMediaType = "text_only"
	}

	quality := 3
	if summary.HasVideo {
		quality += 4
	}
	if summary.HasHighResImages {
		quality += 2
	}
	if summary.HasCarousel {
		quality++
	}
	if quality > 10 {
		quality = 10
	}
	summary.EstimatedCreativeQuality = quality

	return summary
}

// Enrich classifies a record from its quality score, insights and running time
func Enrich(quality models.QualityScore, insights models.AdInsights, activeDays int) models.Enrichment {
	return models.Enrichment{
		EffectivenessScore:  effectivenessScore(quality.Total, activeDays),
		ContentType:         categorizeContent(insights.CourseSubjects),
		AgeFocus:            inferAgeGroup(insights.AgeTargeting),
		CompetitiveStrength: competitiveStrength(quality.Total, activeDays),
	}
}

func effectivenessScore(total, activeDays int) float64 {
	score := float64(total) / 10
	if activeDays > 30 {
		score++
	}
	if activeDays > 60 {
		score++
	}
	if score > 10 {
		score = 10
	}
	return score
}

func categorizeContent(subjects []string) string {
	joined := strings.ToLower(strings.Join(subjects, " "))
	switch {
	case strings.Contains(joined, "coding") || strings.Contains(joined, "programming"):
		return "coding_programming"
	case strings.Contains(joined, "scratch"):
		return "visual_programming"
	case strings.Contains(joined, "robotics") || strings.Contains(joined, "robotika"):
		return "robotics"
	case strings.Contains(joined, "math") || strings.Contains(joined, "matematika"):
		return "mathematics"
	case strings.Contains(joined, "design"):
		return "design"
	default:
		return "general_kids_education"
	}
}

func inferAgeGroup(targets []string) string {
	joined := strings.ToLower(strings.Join(targets, " "))
	switch {
	case strings.Contains(joined, "sd") || strings.Contains(joined, "kelas 1") || strings.Contains(joined, "kelas 2"):
		return "elementary_5_11"
	case strings.Contains(joined, "smp") || strings.Contains(joined, "kelas 7") || strings.Contains(joined, "kelas 8"):
		return "middle_school_12_14"
	case strings.Contains(joined, "sma") || strings.Contains(joined, "kelas 10") || strings.Contains(joined, "kelas 11"):
		return "high_school_15_17"
	default:
		return "all_ages_5_17"
	}
}

// competitiveStrength checks "high" before "very_high", so a long running
// ad at 90+ is reported as high
func competitiveStrength(total, activeDays int) string {
	switch {
	case total >= 80 && activeDays > 60:
		return "high"
	case total >= 90:
		return "very_high"
	case total < 60 || activeDays < 14:
		return "low"
	default:
		return "medium"
	}
}
