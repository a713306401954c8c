package analytics

import (
	"math"
	"time"

	"github.com/tendhq/tend/internal/app/domain/checkin"
	"github.com/tendhq/tend/internal/app/domain/habit"
)

// Pure aggregation functions. Everything here is a function of stored rows
// and an explicit "now"; nothing is cached or maintained incrementally.

// DedupCompletions counts at most one completion per eligible period.
// Duplicate same-period log rows never double-count.
func DedupCompletions(h habit.Habit, logs []habit.Log) int {
	seen := make(map[string]struct{}, len(logs))
	for _, log := range logs {
		seen[h.PeriodKey(log.CompletedAt)] = struct{}{}
	}
	return len(seen)
}

// CompletedInPeriod reports whether any log falls in the period containing t.
func CompletedInPeriod(h habit.Habit, logs []habit.Log, t time.Time) bool {
	key := h.PeriodKey(t)
	for _, log := range logs {
		if h.PeriodKey(log.CompletedAt) == key {
			return true
		}
	}
	return false
}

// Streak counts consecutive completed eligible periods ending at "now". The
// current period counts if already completed; otherwise the scan starts at
// the previous period. The first gap walking backward resets the count.
func Streak(h habit.Habit, logs []habit.Log, now time.Time) int {
	if len(logs) == 0 {
		return 0
	}
	completed := make(map[string]struct{}, len(logs))
	for _, log := range logs {
		completed[h.PeriodKey(log.CompletedAt)] = struct{}{}
	}

	cursor := now
	if _, ok := completed[h.PeriodKey(cursor)]; !ok {
		cursor = h.PreviousPeriod(cursor)
		if _, ok := completed[h.PeriodKey(cursor)]; !ok {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := completed[h.PeriodKey(cursor)]; !ok {
			break
		}
		streak++
		cursor = h.PreviousPeriod(cursor)
	}
	return streak
}

// EligiblePeriods counts the habit's eligible periods inside a window of
// `days` calendar days ending at now. Periods before the habit existed are
// not eligible.
func EligiblePeriods(h habit.Habit, now time.Time, days int) int {
	if days <= 0 {
		return 0
	}
	start := now.UTC().AddDate(0, 0, -(days - 1))
	if created := h.CreatedAt.UTC(); created.After(start) {
		start = created
	}
	startDay := truncateDay(start)
	endDay := truncateDay(now.UTC())
	if startDay.After(endDay) {
		return 0
	}
	elapsed := int(endDay.Sub(startDay).Hours()/24) + 1

	if h.Frequency == habit.FrequencyWeekly {
		weeks := make(map[string]struct{})
		for d := 0; d < elapsed; d++ {
			weeks[h.PeriodKey(startDay.AddDate(0, 0, d))] = struct{}{}
		}
		return len(weeks)
	}
	return elapsed
}

// CompletionRate returns completions/eligible as a whole percent in [0,100].
// A window with zero eligible periods reports 0, never NaN.
func CompletionRate(completions, eligible int) int {
	if eligible <= 0 {
		return 0
	}
	rate := int(math.Round(float64(completions) / float64(eligible) * 100))
	if rate > 100 {
		rate = 100
	}
	if rate < 0 {
		rate = 0
	}
	return rate
}

// MoodPoint is one day's authoritative mood.
type MoodPoint struct {
	Date string `json:"date"`
	Mood int    `json:"mood"`
}

// MoodTrend reduces check-ins to one (date, mood) point per calendar day,
// taking the latest check-in of each day. Days without a check-in are
// omitted, not zero-filled.
func MoodTrend(checkins []checkin.CheckIn) []MoodPoint {
	latest := make(map[string]checkin.CheckIn)
	var order []string
	for _, c := range checkins {
		day := c.Day()
		prev, ok := latest[day]
		if !ok {
			order = append(order, day)
			latest[day] = c
			continue
		}
		if c.Timestamp.After(prev.Timestamp) {
			latest[day] = c
		}
	}

	points := make([]MoodPoint, 0, len(order))
	for _, day := range order {
		points = append(points, MoodPoint{Date: day, Mood: latest[day].Mood})
	}
	return points
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
