package search

import (
	"strings"
	"time"
)

// TemporalRange is a half-open [Start, End) creation-time interval derived
// from a keyword found in a search query.
type TemporalRange struct {
	Start   time.Time
	End     time.Time
	Keyword string
}

// temporalKeywords are checked in order; multi-word phrases come first so
// "last week" wins over any shorter keyword it could contain.
var temporalKeywords = []string{
	"last week",
	"past week",
	"this week",
	"yesterday",
	"today",
}

// DetectTemporalRange scans the query for a date keyword and returns the
// interval it denotes relative to now, or nil when the query carries no
// temporal intent. Matching is plain lowercase substring search, not NLP;
// a miss just means the caller falls through to pure semantic ranking.
// Weeks start on Monday.
func DetectTemporalRange(query string, now time.Time) *TemporalRange {
	lowered := strings.ToLower(query)

	for _, keyword := range temporalKeywords {
		if !strings.Contains(lowered, keyword) {
			continue
		}
		start, end := rangeFor(keyword, now)
		return &TemporalRange{Start: start, End: end, Keyword: keyword}
	}
	return nil
}

func rangeFor(keyword string, now time.Time) (time.Time, time.Time) {
	dayStart := startOfDay(now)

	switch keyword {
	case "today":
		return dayStart, dayStart.AddDate(0, 0, 1)
	case "yesterday":
		return dayStart.AddDate(0, 0, -1), dayStart
	case "this week":
		weekStart := startOfWeek(now)
		return weekStart, weekStart.AddDate(0, 0, 7)
	case "last week", "past week":
		weekStart := startOfWeek(now)
		return weekStart.AddDate(0, 0, -7), weekStart
	}
	return time.Time{}, time.Time{}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns midnight of the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	offset := int(t.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday
	}
	return startOfDay(t).AddDate(0, 0, -offset)
}
