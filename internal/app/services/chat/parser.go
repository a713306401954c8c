package chat

import (
	"regexp"
	"strings"
	"time"
)

// Commitment phrase detection. Messages like "I'll call mom tomorrow" or
// "I need to finish the report by friday" yield a task description and a
// deadline so the assistant can track the promise without the user filing it
// by hand.

var commitmentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)I'll\s+(.+?)\s+(today|tonight|tomorrow|this\s+weekend|(?:by|this)\s+(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`),
	regexp.MustCompile(`(?i)I\s+(?:really\s+)?need\s+to\s+(.+?)\s+(today|tonight|tomorrow|this\s+weekend|(?:by|this)\s+(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`),
	regexp.MustCompile(`(?i)I\s+should\s+(.+?)\s+(today|tonight|tomorrow|this\s+weekend|(?:by|this)\s+(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`),
	regexp.MustCompile(`(?i)I'm\s+going\s+to\s+(.+?)\s+(today|tonight|tomorrow|this\s+weekend|(?:by|this)\s+(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`),
	regexp.MustCompile(`(?i)I\s+have\s+to\s+(.+?)\s+(today|tonight|tomorrow|this\s+weekend|(?:by|this)\s+(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`),
	regexp.MustCompile(`(?i)I\s+must\s+(.+?)\s+(today|tonight|tomorrow|this\s+weekend|(?:by|this)\s+(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday))\b`),
}

var genericTasks = map[string]bool{
	"it": true, "this": true, "that": true, "do it": true,
	"do this": true, "do that": true, "something": true, "do something": true,
}

// ParsedCommitment is a commitment detected in free text.
type ParsedCommitment struct {
	TaskDescription string
	TimePhrase      string
	Deadline        time.Time
}

// ParseCommitments extracts commitment phrases from a message. Duplicate
// tasks (case-insensitive) are collapsed to the first occurrence.
func ParseCommitments(message string, now time.Time) []ParsedCommitment {
	var out []ParsedCommitment
	seen := make(map[string]bool)

	for _, pattern := range commitmentPatterns {
		for _, match := range pattern.FindAllStringSubmatch(message, -1) {
			task := cleanTask(match[1])
			phrase := strings.ToLower(strings.Join(strings.Fields(match[2]), " "))

			if len(task) < 3 || genericTasks[strings.ToLower(task)] {
				continue
			}
			deadline, ok := parseDeadline(phrase, now)
			if !ok {
				continue
			}
			key := strings.ToLower(task)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, ParsedCommitment{TaskDescription: task, TimePhrase: phrase, Deadline: deadline})
		}
	}
	return out
}

func cleanTask(task string) string {
	task = strings.TrimSpace(task)
	for _, prefix := range []string{"to ", "the "} {
		if strings.HasPrefix(strings.ToLower(task), prefix) {
			task = task[len(prefix):]
		}
	}
	if task != "" {
		task = strings.ToUpper(task[:1]) + task[1:]
	}
	return strings.TrimSpace(task)
}

// parseDeadline resolves a time phrase to an end-of-day deadline.
func parseDeadline(phrase string, now time.Time) (time.Time, bool) {
	now = now.UTC()
	switch phrase {
	case "today", "tonight":
		return endOfDay(now), true
	case "tomorrow":
		return endOfDay(now.AddDate(0, 0, 1)), true
	case "this weekend":
		return endOfDay(nextWeekday(now, time.Saturday)), true
	}

	for day := time.Sunday; day <= time.Saturday; day++ {
		name := strings.ToLower(day.String())
		if phrase == "by "+name || phrase == "this "+name {
			return endOfDay(nextWeekday(now, day)), true
		}
	}
	return time.Time{}, false
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 0, 0, time.UTC)
}

// nextWeekday returns the next occurrence of day, counting today as a match.
func nextWeekday(now time.Time, day time.Weekday) time.Time {
	offset := (int(day) - int(now.Weekday()) + 7) % 7
	return now.AddDate(0, 0, offset)
}
