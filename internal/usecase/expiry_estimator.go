package usecase

import (
	"regexp"
	"strconv"

	"github.com/pantrylens/backend/internal/domain"
)

// Shelf-life defaults used when the expiry text has no usable pattern
const (
	defaultFreshDays    = 5
	defaultFrozenMonths = 3
	daysPerMonth        = 30 // a month is approximated as 30 days throughout

	// maxShelfLifeDays rejects OCR garbage such as "90000 months" that would overflow date math
	maxShelfLifeDays = 100 * 365
)

// expiryPattern extracts a number of days from a shelf-life description
type expiryPattern struct {
	name    string
	pattern *regexp.Regexp
	days    func(match []string) (int, bool)
}

// Fresh and frozen patterns, range before singular. Italian catalog wording is accepted too.
var (
	freshPatterns = []expiryPattern{
		{
			name:    "fresh_range",
			pattern: regexp.MustCompile(`(?i)(\d+)\s*-\s*(\d+)\s*(?:days?|giorni?)\s*\((?:fresh|fresc)`),
			days:    averageOf(1),
		},
		{
			name:    "fresh_single",
			pattern: regexp.MustCompile(`(?i)(\d+)\s*(?:days?|giorni?)\s*\((?:fresh|fresc)`),
			days:    singleOf(1),
		},
	}

	frozenPatterns = []expiryPattern{
		{
			name:    "frozen_range",
			pattern: regexp.MustCompile(`(?i)(\d+)\s*-\s*(\d+)\s*(?:months?|mesi|mese)\s*\((?:frozen|congelat)`),
			days:    averageOf(daysPerMonth),
		},
		{
			name:    "frozen_single",
			pattern: regexp.MustCompile(`(?i)(\d+)\s*(?:months?|mesi|mese)\s*\((?:frozen|congelat)`),
			days:    singleOf(daysPerMonth),
		},
	}
)

// EstimateExpiry turns a shelf-life description such as
// "5-7 days (fresh), 3-4 months (frozen)" into fresh and frozen expiry dates.
// Ranges use the truncated average of both ends. Fresh and frozen are resolved
// independently and fall back to today+5 days and today+3 months.
func EstimateExpiry(expiryRange string, today domain.Date) (fresh domain.Date, frozen domain.Date) {
	freshDays, ok := matchDays(freshPatterns, expiryRange)
	if !ok {
		freshDays = defaultFreshDays
	}
	frozenDays, ok := matchDays(frozenPatterns, expiryRange)
	if !ok {
		frozenDays = defaultFrozenMonths * daysPerMonth
	}
	return today.AddDays(freshDays), today.AddDays(frozenDays)
}

func matchDays(patterns []expiryPattern, text string) (int, bool) {
	for _, p := range patterns {
		match := p.pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		if days, ok := p.days(match); ok && days <= maxShelfLifeDays {
			return days, true
		}
	}
	return 0, false
}

// averageOf returns an extractor for "<min>-<max>" captures, floor((min+max)/2) * unitDays
func averageOf(unitDays int) func([]string) (int, bool) {
	return func(match []string) (int, bool) {
		lo, ok := parseCount(match[1])
		if !ok {
			return 0, false
		}
		hi, ok := parseCount(match[2])
		if !ok {
			return 0, false
		}
		return (lo + hi) / 2 * unitDays, true
	}
}

// singleOf returns an extractor for a single "<n>" capture, n * unitDays
func singleOf(unitDays int) func([]string) (int, bool) {
	return func(match []string) (int, bool) {
		n, ok := parseCount(match[1])
		if !ok {
			return 0, false
		}
		return n * unitDays, true
	}
}

func parseCount(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n > maxShelfLifeDays {
		return 0, false
	}
	return n, true
}
