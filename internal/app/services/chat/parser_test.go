package chat

import (
	"testing"
	"time"
)

// 2026-03-11 is a Wednesday.
var parseNow = time.Date(2026, 3, 11, 10, 0, 0, 0, time.UTC)

func TestParseCommitmentsTomorrow(t *testing.T) {
	parsed := ParseCommitments("I'll call the dentist tomorrow, promise", parseNow)
	if len(parsed) != 1 {
		t.Fatalf("parsed %d commitments, want 1", len(parsed))
	}
	if parsed[0].TaskDescription != "Call the dentist" {
		t.Errorf("task = %q, want %q", parsed[0].TaskDescription, "Call the dentist")
	}
	want := time.Date(2026, 3, 12, 23, 59, 0, 0, time.UTC)
	if !parsed[0].Deadline.Equal(want) {
		t.Errorf("deadline = %v, want end of tomorrow %v", parsed[0].Deadline, want)
	}
}

func TestParseCommitmentsByWeekday(t *testing.T) {
	parsed := ParseCommitments("I need to finish the report by friday", parseNow)
	if len(parsed) != 1 {
		t.Fatalf("parsed %d commitments, want 1", len(parsed))
	}
	if parsed[0].TaskDescription != "Finish the report" {
		t.Errorf("task = %q, want %q", parsed[0].TaskDescription, "Finish the report")
	}
	want := time.Date(2026, 3, 13, 23, 59, 0, 0, time.UTC)
	if !parsed[0].Deadline.Equal(want) {
		t.Errorf("deadline = %v, want end of Friday %v", parsed[0].Deadline, want)
	}
}

func TestParseCommitmentsSameWeekdayCountsAsToday(t *testing.T) {
	parsed := ParseCommitments("I should water the plants this wednesday", parseNow)
	if len(parsed) != 1 {
		t.Fatalf("parsed %d commitments, want 1", len(parsed))
	}
	want := time.Date(2026, 3, 11, 23, 59, 0, 0, time.UTC)
	if !parsed[0].Deadline.Equal(want) {
		t.Errorf("deadline = %v, want end of today %v", parsed[0].Deadline, want)
	}
}

func TestParseCommitmentsFiltersGenericTasks(t *testing.T) {
	for _, msg := range []string{
		"I'll do it tomorrow",
		"I have to do this today",
		"I must do that tomorrow",
	} {
		if parsed := ParseCommitments(msg, parseNow); len(parsed) != 0 {
			t.Errorf("%q: parsed %v, want no commitments for a generic task", msg, parsed)
		}
	}
}

func TestParseCommitmentsNoTimePhrase(t *testing.T) {
	if parsed := ParseCommitments("I'll call the dentist at some point", parseNow); len(parsed) != 0 {
		t.Errorf("parsed %v, want none without a time phrase", parsed)
	}
}

func TestParseCommitmentsDedup(t *testing.T) {
	msg := "I'll call mom tomorrow. Seriously, I need to call mom tomorrow."
	parsed := ParseCommitments(msg, parseNow)
	if len(parsed) != 1 {
		t.Fatalf("parsed %d commitments, want duplicates collapsed to 1", len(parsed))
	}
}

func TestParseCommitmentsMultiple(t *testing.T) {
	msg := "I'll buy groceries tomorrow and I need to clean the garage this weekend"
	parsed := ParseCommitments(msg, parseNow)
	if len(parsed) != 2 {
		t.Fatalf("parsed %d commitments, want 2", len(parsed))
	}
	saturday := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)
	for _, p := range parsed {
		if p.TimePhrase == "this weekend" && !p.Deadline.Equal(saturday) {
			t.Errorf("weekend deadline = %v, want %v", p.Deadline, saturday)
		}
	}
}
