// Package record defines the text layout of coaching memory records. The
// formatter and the parser live together so that a change to one is made
// against the other; bump SchemaVersion whenever the layout changes and keep
// Parse able to read every earlier version.
package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/secmon-lab/coachmem/pkg/domain/model"
)

const (
	// SummaryMarker identifies summary records written by this system
	SummaryMarker = "COACHING SESSION SUMMARY"
	// UpdateMarker identifies incremental update records
	UpdateMarker = "COACHING SESSION UPDATE"

	// SchemaVersion is written into every new record. Records without a
	// version line are version 1.
	SchemaVersion = 2

	keyVersion      = "Schema-Version:"
	keySessionID    = "Session ID:"
	keyDate         = "Date:"
	keyClient       = "Client:"
	keyCoach        = "Coach:"
	keySessionType  = "Session Type:"
	keyOverallScore = "Overall Score:"

	headerKeyInsights = "KEY INSIGHTS:"
	headerAnalysis    = "COACHING ANALYSIS:"
	headerTranscript  = "TRANSCRIPT:"

	bulletPrefix = "- "
)

// Summary is everything rendered into a session summary record
type Summary struct {
	SessionID   string
	Date        time.Time
	ClientName  string
	CoachLabel  string
	SessionType string
	KeyInsights []string
	// OverallScore is nil when no analysis is available
	OverallScore *float64
	Suggestions  []model.Suggestion
	// Transcript holds pre-formatted "speaker: text" lines
	Transcript []string
}

// Update is an incremental append to an already uploaded session
type Update struct {
	SessionID    string
	Date         time.Time
	OverallScore *float64
	Transcript   []string
}

// Title returns the record title for a session summary
func Title(clientName string, date time.Time) string {
	return fmt.Sprintf("Coaching Session - %s - %s", singleLine(clientName), date.UTC().Format(model.DateLayout))
}

// UpdateTitle returns the record title for a session update
func UpdateTitle(sessionID string) string {
	return fmt.Sprintf("Coaching Session Update - %s", singleLine(sessionID))
}

// Format renders s. Output is deterministic for equal input.
func Format(s Summary) string {
	var sb strings.Builder

	sb.WriteString(SummaryMarker + "\n")
	fmt.Fprintf(&sb, "%s %d\n", keyVersion, SchemaVersion)
	fmt.Fprintf(&sb, "%s %s\n", keySessionID, singleLine(s.SessionID))
	fmt.Fprintf(&sb, "%s %s\n", keyDate, s.Date.UTC().Format(model.DateLayout))
	fmt.Fprintf(&sb, "%s %s\n", keyClient, singleLine(s.ClientName))
	fmt.Fprintf(&sb, "%s %s\n", keyCoach, singleLine(s.CoachLabel))
	fmt.Fprintf(&sb, "%s %s\n", keySessionType, singleLine(s.SessionType))

	sb.WriteString("\n" + headerKeyInsights + "\n")
	for _, insight := range s.KeyInsights {
		sb.WriteString(bulletPrefix + singleLine(insight) + "\n")
	}

	sb.WriteString("\n" + headerAnalysis + "\n")
	fmt.Fprintf(&sb, "%s %s\n", keyOverallScore, formatScore(s.OverallScore))
	for _, suggestion := range s.Suggestions {
		fmt.Fprintf(&sb, "%s%s: %s\n", bulletPrefix, singleLine(suggestion.Category), singleLine(suggestion.Rationale))
	}

	sb.WriteString("\n" + headerTranscript + "\n")
	sb.WriteString(strings.Join(s.Transcript, "\n"))
	sb.WriteString("\n")

	return sb.String()
}

// FormatUpdate renders u. Update records do not carry SummaryMarker and are
// skipped when history is rebuilt.
func FormatUpdate(u Update) string {
	var sb strings.Builder

	sb.WriteString(UpdateMarker + "\n")
	fmt.Fprintf(&sb, "%s %d\n", keyVersion, SchemaVersion)
	fmt.Fprintf(&sb, "%s %s\n", keySessionID, singleLine(u.SessionID))
	fmt.Fprintf(&sb, "%s %s\n", keyDate, u.Date.UTC().Format(model.DateLayout))
	if u.OverallScore != nil {
		fmt.Fprintf(&sb, "Updated %s %s\n", keyOverallScore, formatScore(u.OverallScore))
	}

	sb.WriteString("\n" + headerTranscript + "\n")
	sb.WriteString(strings.Join(u.Transcript, "\n"))
	sb.WriteString("\n")

	return sb.String()
}

// IsSummary reports whether body is a summary record written by Format
func IsSummary(body string) bool {
	return strings.Contains(body, SummaryMarker)
}

func formatScore(score *float64) string {
	if score == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*score, 'f', -1, 64) + "/10"
}

// singleLine keeps a value on one line so it cannot open a new section
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
