package daily

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// recoveryStatus buckets a recovery score into a spoken-friendly word.
func recoveryStatus(score float64) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	default:
		return "low"
	}
}

// renderMorning produces the spoken one-paragraph briefing. Clause
// order is fixed; clauses for absent sections are dropped.
func renderMorning(s Sections) string {
	parts := []string{"Good morning!"}

	if h := s.Health; h != nil {
		if h.Sleep != nil && h.Sleep.TotalHours != 0 {
			clause := fmt.Sprintf("You slept %.1f hours", h.Sleep.TotalHours)
			if h.Sleep.QualityScore != nil && *h.Sleep.QualityScore != 0 {
				clause += fmt.Sprintf(" with %s%% quality", formatNumber(*h.Sleep.QualityScore))
			}
			parts = append(parts, clause+".")
		}
		if h.Recovery != nil && h.Recovery.Score != nil && *h.Recovery.Score != 0 {
			score := *h.Recovery.Score
			parts = append(parts, fmt.Sprintf("Recovery is %s at %s%%.", recoveryStatus(score), formatNumber(score)))
		}
	}

	if c := s.Calendar; c != nil && c.Summary.TotalEvents != 0 {
		clause := fmt.Sprintf("You have %d events today", c.Summary.TotalEvents)
		if c.Summary.OnlineMeetings > 0 {
			clause += fmt.Sprintf(" including %d meetings", c.Summary.OnlineMeetings)
		}
		parts = append(parts, clause+".")
	}

	if t := s.Training; t != nil && t.Plan != "" {
		parts = append(parts, "Training today: "+previewClause(t.Plan, 100))
	}

	if w := s.Weather; w != nil && w.Condition != "" {
		clause := "Weather is " + w.Condition
		if w.Temperature != nil {
			clause += fmt.Sprintf(", %s°", formatNumber(*w.Temperature))
		}
		parts = append(parts, clause+".")
	}

	return strings.Join(parts, " ")
}

// renderEvening produces the spoken evening reflection.
func renderEvening(s Sections) string {
	parts := []string{"Good evening!"}

	if a := s.Activity; a != nil {
		if a.Stats != nil && a.Stats.Steps != nil && *a.Stats.Steps != 0 {
			parts = append(parts, fmt.Sprintf("Today you walked %s steps.", humanize.Comma(*a.Stats.Steps)))
		}
		if len(a.Workouts) > 0 {
			parts = append(parts, fmt.Sprintf("You completed %d workout(s).", len(a.Workouts)))
		}
	}

	if c := s.Completed; c != nil && c.EventsCount != 0 {
		parts = append(parts, fmt.Sprintf("You had %d calendar events.", c.EventsCount))
	}

	if t := s.Tomorrow; t != nil && t.EventsCount != 0 {
		parts = append(parts, fmt.Sprintf("Tomorrow you have %d events.", t.EventsCount))
		if t.FirstEvent != nil && t.FirstEvent.Title != "" {
			parts = append(parts, "First event: "+t.FirstEvent.Title+".")
		}
	}

	parts = append(parts, "Get some rest!")
	return strings.Join(parts, " ")
}

// previewClause truncates a plan body to its leading characters,
// collapsing newlines so the clause reads as one sentence.
func previewClause(text string, n int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if len(flat) <= n {
		return flat
	}
	return flat[:n] + "..."
}

// formatNumber renders a float without trailing zeros, so whole scores
// read as "85" rather than "85.0".
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
