package model

import (
	"fmt"
	"strings"
)

// DateLayout is the canonical calendar-date format used in generated text
const DateLayout = "2006-01-02"

const (
	contextInsightLimit    = 3
	contextGrowthAreaLimit = 3
	contextChallengeLimit  = 2
)

// GenerateProgressSummary renders a human-readable progress report.
// It returns an empty string when there are no sessions.
func GenerateProgressSummary(h *ClientHistoryContext) string {
	if h == nil || len(h.Sessions) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Client Progress Summary\n")
	fmt.Fprintf(&sb, "- Total sessions: %d\n", len(h.Sessions))
	fmt.Fprintf(&sb, "- Last session: %s\n", formatOptionalDate(h))
	fmt.Fprintf(&sb, "- Average score: %.1f/10\n", h.AverageScore())
	fmt.Fprintf(&sb, "- Trend: %s\n", CalculateTrend(h.Sessions))

	sb.WriteString("\nStrengths:\n")
	writeBullets(&sb, h.Patterns.Strengths, 0, "None identified yet")

	sb.WriteString("\nGrowth areas:\n")
	writeBullets(&sb, h.Patterns.GrowthAreas, 0, "None identified yet")

	if len(h.Patterns.Challenges) > 0 {
		sb.WriteString("\nChallenges:\n")
		writeBullets(&sb, h.Patterns.Challenges, 0, "")
	}

	return sb.String()
}

// GenerateRelevantContext renders a short priming string for an upcoming
// session. It returns an empty string only when h is nil.
func GenerateRelevantContext(h *ClientHistoryContext) string {
	if h == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Previous coaching context:\n")
	fmt.Fprintf(&sb, "- Sessions completed: %d\n", len(h.Sessions))

	if last := h.LatestSession(); last != nil {
		fmt.Fprintf(&sb, "- Last session: %s (score %.1f/10)\n", last.Date.UTC().Format(DateLayout), last.OverallScore)
		if len(last.KeyInsights) > 0 {
			sb.WriteString("\nKey insights from last session:\n")
			writeBullets(&sb, last.KeyInsights, contextInsightLimit, "")
		}
	}

	if len(h.Patterns.GrowthAreas) > 0 {
		sb.WriteString("\nFocus growth areas:\n")
		writeBullets(&sb, h.Patterns.GrowthAreas, contextGrowthAreaLimit, "")
	}

	if len(h.Patterns.Challenges) > 0 {
		sb.WriteString("\nKnown challenges:\n")
		writeBullets(&sb, h.Patterns.Challenges, contextChallengeLimit, "")
	}

	return sb.String()
}

func formatOptionalDate(h *ClientHistoryContext) string {
	if h.LastSessionDate == nil {
		return "Unknown"
	}
	return h.LastSessionDate.UTC().Format(DateLayout)
}

// writeBullets writes up to limit items (all when limit is 0), or the
// placeholder when items is empty and placeholder is set.
func writeBullets(sb *strings.Builder, items []string, limit int, placeholder string) {
	if len(items) == 0 {
		if placeholder != "" {
			fmt.Fprintf(sb, "- %s\n", placeholder)
		}
		return
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	for _, item := range items {
		fmt.Fprintf(sb, "- %s\n", item)
	}
}
