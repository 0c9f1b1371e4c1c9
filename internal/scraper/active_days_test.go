package scraper

import (
	"math/rand"
	"testing"
	"time"

	"ad-discovery-scraper/internal/models"

	"github.com/stretchr/testify/assert"
)

func fixedClock() time.Time {
	return time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
}

func TestEstimateTextPatterns(t *testing.T) {
	e := NewActiveDaysEstimator(false).WithClock(fixedClock)

	tests := []struct {
		text string
		want int
	}{
		{"Started 12 days ago", 12},
		{"Dimulai 9 hari yang lalu", 9},
		{"Active for 14 days", 14},
		{"Running for 1 day", 1},
		{"Aktif selama 30 hari", 30},
		{"3 days ago · Active for 40 days", 3},
		{"Started running on Feb 15, 2025", 14},
		{"Started running on February 15, 2025", 14},
		{"Mulai tayang pada 10 Februari 2025", 19},
		{"Mulai ditayangkan 1 Mar 2025", 0},
		{"Started running on Dec 1, 2025", 0},
		{"No date text at all", models.ActiveDaysUnknown},
		{"Started running on Foo 1, 2025", models.ActiveDaysUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, e.EstimateText(tt.text))
		})
	}
}

func TestEstimateTextRandomFallback(t *testing.T) {
	e := NewActiveDaysEstimator(true).WithRand(rand.New(rand.NewSource(42)))

	for i := 0; i < 200; i++ {
		days := e.EstimateText("nothing here")
		assert.GreaterOrEqual(t, days, 1)
		assert.LessOrEqual(t, days, 60)
	}
	// A matched pattern always wins over the fallback
	assert.Equal(t, 5, e.EstimateText("5 days ago"))
}

func TestEstimateReadsContainerText(t *testing.T) {
	container := parseContainer(t, `<div><span>Active for</span> <span>21 days</span></div>`)
	assert.Equal(t, 21, NewActiveDaysEstimator(false).Estimate(container))
}
