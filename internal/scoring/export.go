package scoring

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ad-discovery-scraper/internal/models"
)

// CSVHeaders is the column order of the scored export
var CSVHeaders = []string{
	"Page Name",
	"Ad ID",
	"Score",
	"Days Active",
	"Text Variants",
	"Image Variants",
	"Has Video",
	"Platform Count",
	"Same Image Count",
	"Image URL",
	"Video URL",
	"Ad Body",
	"Ad Snapshot URL",
	"Platforms",
	"Start Date",
}

// CSVBodyLen is the ad body length kept in the export
const CSVBodyLen = 100

// WriteCSV writes scored records as plain values, one row per record
func WriteCSV(w io.Writer, records []models.AdRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeaders); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(csvRow(r)); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", r.AdID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(r models.AdRecord) []string {
	m := models.ScoringMetrics{}
	if r.Scoring != nil {
		m = *r.Scoring
	}

	pageName := r.AdvertiserName
	if pageName == "" {
		pageName = models.UnknownAdvertiser
	}
	adID := r.AdID
	if adID == "" {
		adID = "N/A"
	}
	video := ""
	if len(r.AllVideoURLs) > 0 {
		video = r.AllVideoURLs[0]
	}
	hasVideo := "No"
	if m.HasVideo {
		hasVideo = "Yes"
	}

	return []string{
		pageName,
		adID,
		strconv.Itoa(m.Score),
		strconv.Itoa(effectiveDays(r.ActiveDays)),
		strconv.Itoa(m.TextVariants),
		strconv.Itoa(m.ImageVariants),
		hasVideo,
		strconv.Itoa(m.PlatformCount),
		strconv.Itoa(m.SameImageCount),
		r.FirstImageURL(),
		video,
		truncateRunes(r.BodyText, CSVBodyLen),
		r.SnapshotURL,
		strings.Join(r.Platforms, "|"),
		r.StartDate,
	}
}
