package scoring

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"ad-discovery-scraper/internal/models"
)

// libraryAd is an ad as returned by the public ad library API or its exports
type libraryAd struct {
	AdID          string          `json:"ad_id"`
	AdIDAlt       string          `json:"adId"`
	PageName      string          `json:"page_name"`
	PageNameAlt   string          `json:"pageName"`
	StartTime     string          `json:"ad_delivery_start_time"`
	StartTimeAlt  string          `json:"adDeliveryStartTime"`
	SnapshotURL   string          `json:"ad_snapshot_url"`
	SnapshotAlt   string          `json:"adSnapshotUrl"`
	Platforms     json.RawMessage `json:"platforms"`
	Creative      *creative       `json:"creative"`
	creativeProps creative
}

type creative struct {
	ImageURL    string `json:"image_url"`
	ImageURLAlt string `json:"imageUrl"`
	VideoURL    string `json:"video_url"`
	VideoURLAlt string `json:"videoUrl"`
	Body        string `json:"body"`
	AdBody      string `json:"ad_body"`
	AdBodyAlt   string `json:"adBody"`
}

// LoadRecords reads a JSON file of discovered records or library ads. The
// top level may be an array or an object with a "records" or "ads" array.
func LoadRecords(path string, now time.Time) ([]models.AdRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return ParseRecords(data, now)
}

// ParseRecords decodes records; library ads are converted and dated against now
func ParseRecords(data []byte, now time.Time) ([]models.AdRecord, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		var wrapper struct {
			Records []json.RawMessage `json:"records"`
			Ads     []json.RawMessage `json:"ads"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("failed to parse input: %w", err)
		}
		items = append(wrapper.Records, wrapper.Ads...)
	}

	records := make([]models.AdRecord, 0, len(items))
	for i, raw := range items {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		if _, ok := probe["advertiserName"]; ok {
			var r models.AdRecord
			if err := json.Unmarshal(raw, &r); err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			records = append(records, r)
			continue
		}

		var ad libraryAd
		if err := json.Unmarshal(raw, &ad); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if ad.Creative != nil {
			ad.creativeProps = *ad.Creative
		} else if err := json.Unmarshal(raw, &ad.creativeProps); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		records = append(records, ad.toRecord(now))
	}
	return records, nil
}

func (ad libraryAd) toRecord(now time.Time) models.AdRecord {
	c := ad.creativeProps
	start := firstNonEmpty(ad.StartTime, ad.StartTimeAlt)

	r := models.AdRecord{
		AdID: firstNonEmpty(ad.AdID, ad.AdIDAlt),
		AdContent: models.AdContent{
			AdvertiserName: firstNonEmpty(ad.PageName, ad.PageNameAlt, models.UnknownAdvertiser),
			BodyText:       firstNonEmpty(c.Body, c.AdBody, c.AdBodyAlt),
		},
		ActiveDays:       daysBetween(start, now),
		Platforms:        parsePlatforms(ad.Platforms),
		SnapshotURL:      firstNonEmpty(ad.SnapshotURL, ad.SnapshotAlt),
		StartDate:        start,
		AllImageURLs:     []string{},
		AllVideoURLs:     []string{},
		AllThumbnailURLs: []string{},
	}
	if img := firstNonEmpty(c.ImageURL, c.ImageURLAlt); img != "" {
		r.AllImageURLs = append(r.AllImageURLs, img)
	}
	if video := firstNonEmpty(c.VideoURL, c.VideoURLAlt); video != "" {
		r.AllVideoURLs = append(r.AllVideoURLs, video)
	}
	return r
}

// daysBetween returns whole days since start, 0 when missing or unparseable
func daysBetween(start string, now time.Time) int {
	if start == "" {
		return 0
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700", "2006-01-02"} {
		if t, err := time.Parse(layout, start); err == nil {
			days := int(now.Sub(t).Hours() / 24)
			if days < 0 {
				return 0
			}
			return days
		}
	}
	return 0
}

// parsePlatforms accepts an array or a "|" or "," separated string
func parsePlatforms(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var joined string
	if err := json.Unmarshal(raw, &joined); err != nil || joined == "" {
		return nil
	}
	return strings.FieldsFunc(joined, func(r rune) bool { return r == '|' || r == ',' })
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// LoadOrganicPosts reads a JSON array of organic posts
func LoadOrganicPosts(path string) ([]models.OrganicPost, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read posts: %w", err)
	}
	var posts []models.OrganicPost
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("failed to parse posts: %w", err)
	}
	return posts, nil
}
