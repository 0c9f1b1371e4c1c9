package scraper

import (
	"ad-discovery-scraper/internal/config"
	"ad-discovery-scraper/internal/models"
)

// Qualification thresholds
const (
	QualifiedMinTotal      = 50
	QualifiedMinRelevance  = 20
	QualifiedMinCompletion = 15
)

// AssessQuality scores an extracted ad on a 0-100 scale and decides whether
// it qualifies as a competitor ad. It never fails; empty input scores low.
func AssessQuality(content models.AdContent, media models.MediaSet, activeDays int,
	indicators config.Indicators, excludeTerms []string, minDays int) models.QualityScore {

	combined := content.AdvertiserName + " " + content.BodyText
	meetsMinDays := MeetsMinDays(activeDays, minDays)

	// Content relevance (0-40 points)
	relevance := 0
	if ContainsAny(combined, indicators.AgeTargets) {
		relevance += 15
	}
	if ContainsAny(combined, indicators.Subjects) {
		relevance += 15
	}
	if ContainsAny(combined, indicators.EducationTerms) {
		relevance += 10
	}
	// Exclude terms veto everything above
	if ContainsAny(combined, excludeTerms) {
		relevance = 0
	}

	// Data completeness (0-30 points)
	completeness := 0
	if content.HasKnownAdvertiser() {
		completeness += 10
	}
	if runeLen(content.BodyText) > MinFallbackBody {
		completeness += 10
	}
	if content.LibraryID != nil {
		completeness += 5
	}
	if meetsMinDays {
		completeness += 5
	}

	// Media quality (0-30 points)
	mediaQuality := 0
	if len(media.Images) > 0 {
		mediaQuality += 10
	}
	if len(media.Videos) > 0 {
		mediaQuality += 15
	}
	if media.HasHighResImage() {
		mediaQuality += 5
	}

	total := relevance + completeness + mediaQuality
	return models.QualityScore{
		Total:            total,
		ContentRelevance: relevance,
		DataCompleteness: completeness,
		MediaQuality:     mediaQuality,
		IsQualified: total >= QualifiedMinTotal &&
			relevance >= QualifiedMinRelevance &&
			completeness >= QualifiedMinCompletion &&
			meetsMinDays &&
			!media.Empty(),
	}
}

// MeetsMinDays reports whether a known day count reaches minDays
func MeetsMinDays(activeDays, minDays int) bool {
	return activeDays != models.ActiveDaysUnknown && activeDays >= minDays
}
