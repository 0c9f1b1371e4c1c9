package scraper

import (
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"ad-discovery-scraper/internal/config"
	"ad-discovery-scraper/internal/dom"
	"ad-discovery-scraper/internal/models"
)

// Relative patterns, tried in order before absolute start dates
var relativeDayPatterns = []string{"daysAgo", "hariLalu", "activeFor", "runningFor", "aktifSelama"}

// Indonesian and English month prefixes
var monthPrefixes = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "mei": time.May, "jun": time.June, "jul": time.July,
	"aug": time.August, "agu": time.August, "agt": time.August, "sep": time.September,
	"oct": time.October, "okt": time.October, "nov": time.November,
	"dec": time.December, "des": time.December,
}

// ActiveDaysEstimator turns "N days ago" style text into a day count.
// It is safe for concurrent use.
type ActiveDaysEstimator struct {
	regexes        map[string]*regexp.Regexp
	randomFallback bool
	now            func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

func NewActiveDaysEstimator(randomFallback bool) *ActiveDaysEstimator {
	return &ActiveDaysEstimator{
		regexes:        config.CompileRegexes(),
		randomFallback: randomFallback,
		rng:            rand.New(rand.NewSource(time.Now().UnixNano())),
		now:            time.Now,
	}
}

// WithClock fixes the reference time used for absolute start dates
func (e *ActiveDaysEstimator) WithClock(now func() time.Time) *ActiveDaysEstimator {
	e.now = now
	return e
}

// WithRand replaces the random source used by the legacy fallback
func (e *ActiveDaysEstimator) WithRand(rng *rand.Rand) *ActiveDaysEstimator {
	e.mu.Lock()
	e.rng = rng
	e.mu.Unlock()
	return e
}

// Estimate reads the container text
func (e *ActiveDaysEstimator) Estimate(container dom.Node) int {
	return e.EstimateText(container.Text())
}

// EstimateText returns the first matched day count. Without a match it
// returns models.ActiveDaysUnknown, or a value in [1,60] in legacy mode.
func (e *ActiveDaysEstimator) EstimateText(text string) int {
	for _, key := range relativeDayPatterns {
		if m := e.regexes[key].FindStringSubmatch(text); len(m) > 1 {
			if days, err := strconv.Atoi(m[1]); err == nil {
				return days
			}
		}
	}

	if m := e.regexes["startedOn"].FindStringSubmatch(text); len(m) > 1 {
		if start, ok := parseEnglishDate(m[1]); ok {
			return e.daysSince(start)
		}
	}
	if m := e.regexes["mulaiTayang"].FindStringSubmatch(text); len(m) > 1 {
		if start, ok := parseIndonesianDate(m[1]); ok {
			return e.daysSince(start)
		}
	}

	if e.randomFallback {
		return e.randomDays()
	}
	return models.ActiveDaysUnknown
}

func (e *ActiveDaysEstimator) randomDays() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(60) + 1
}

func (e *ActiveDaysEstimator) daysSince(start time.Time) int {
	days := int(e.now().Sub(start).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// parseEnglishDate handles "Jan 2, 2006" and "January 2, 2006"
func parseEnglishDate(s string) (time.Time, bool) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", ""))
	if len(fields) != 3 {
		return time.Time{}, false
	}
	return buildDate(fields[1], fields[0], fields[2])
}

// parseIndonesianDate handles "2 Jan 2006" and "2 Januari 2006"
func parseIndonesianDate(s string) (time.Time, bool) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return time.Time{}, false
	}
	return buildDate(fields[0], fields[1], fields[2])
}

func buildDate(dayStr, monthStr, yearStr string) (time.Time, bool) {
	if len(monthStr) < 3 {
		return time.Time{}, false
	}
	month, ok := monthPrefixes[strings.ToLower(monthStr[:3])]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}
