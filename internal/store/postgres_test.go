package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ad-discovery-scraper/internal/models"
)

func sampleRecord() models.AdRecord {
	libraryID := "555000111"
	return models.AdRecord{
		AdID: "5f2b8c1e-0000-4000-8000-000000000001",
		AdContent: models.AdContent{
			AdvertiserName: "Acme EdTech",
			BodyText:       "Kursus coding anak",
			LibraryID:      &libraryID,
			LandingPageURL: "https://acme.id/promo",
			CTAText:        "Daftar Sekarang",
		},
		ActiveDays:      14,
		SearchTerm:      "kursus coding anak",
		DiscoveryMethod: "dynamic_competitor_discovery",
		IsNewCompetitor: true,
		ScrapedAt:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		AllImageURLs:    []string{"https://cdn.example.com/a.jpg"},
		AllVideoURLs:    []string{},
		Quality:         &models.QualityScore{Total: 85, IsQualified: true},
	}
}

func TestRecordArgs(t *testing.T) {
	r := sampleRecord()
	args, err := recordArgs(r)
	require.NoError(t, err)
	require.Len(t, args, 18)

	assert.Equal(t, r.AdID, args[0])
	assert.Equal(t, "Acme EdTech", args[1])
	assert.Equal(t, sql.NullString{String: "555000111", Valid: true}, args[3])
	assert.Equal(t, 14, args[6])
	assert.Equal(t, true, args[9])
	assert.Equal(t, pq.Array(r.AllImageURLs), args[11])
	assert.Equal(t, sql.NullInt64{Int64: 85, Valid: true}, args[14])
	assert.Equal(t, sql.NullBool{Bool: true, Valid: true}, args[15])
	assert.Equal(t, sql.NullInt64{}, args[16])

	var decoded models.AdRecord
	require.NoError(t, json.Unmarshal(args[17].([]byte), &decoded))
	assert.Equal(t, r.AdvertiserName, decoded.AdvertiserName)
	assert.Equal(t, r.ActiveDays, decoded.ActiveDays)
}

func TestRecordArgsOptionalColumns(t *testing.T) {
	r := sampleRecord()
	r.LibraryID = nil
	r.Quality = nil
	r.Scoring = &models.ScoringMetrics{Score: 42}

	args, err := recordArgs(r)
	require.NoError(t, err)
	assert.Equal(t, sql.NullString{}, args[3])
	assert.Equal(t, sql.NullInt64{}, args[14])
	assert.Equal(t, sql.NullBool{}, args[15])
	assert.Equal(t, sql.NullInt64{Int64: 42, Valid: true}, args[16])
}

// TestSaveRecordsRoundTrip needs a disposable database in POSTGRES_TEST_DSN.
func TestSaveRecordsRoundTrip(t *testing.T) {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()

	pg, err := InitPostgres(ctx, dsn)
	require.NoError(t, err)
	defer pg.Close()

	r := sampleRecord()
	require.NoError(t, pg.SaveRecords(ctx, []models.AdRecord{r}))
	r.ActiveDays = 15
	require.NoError(t, pg.SaveRecords(ctx, []models.AdRecord{r}))

	records, err := pg.RecentRecords(ctx, 10)
	require.NoError(t, err)
	var found *models.AdRecord
	for i := range records {
		if records[i].AdID == r.AdID {
			found = &records[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 15, found.ActiveDays)
}
