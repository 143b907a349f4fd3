package model

import (
	"time"

	"github.com/secmon-lab/coachmem/pkg/domain/types"
)

// CoachingSession is the identity and metadata of one coaching session as
// produced by the hosting application's session recorder.
type CoachingSession struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id,omitempty"`
	CoachName   string    `json:"coach_name,omitempty"`
	SessionType string    `json:"session_type,omitempty"`
	StartedAt   time.Time `json:"started_at"`
}

// TranscriptEntry is one utterance of the session transcript. Only entries
// with IsFinal set are persisted; interim recognition results are dropped.
type TranscriptEntry struct {
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	IsFinal   bool      `json:"is_final"`
}

// SessionAnalysis is the coaching-panel analysis attached to a session
type SessionAnalysis struct {
	OverallScore      float64      `json:"overall_score"`
	DetectedPatterns  []string     `json:"detected_patterns,omitempty"`
	MetaOpportunities []string     `json:"meta_opportunities,omitempty"`
	Suggestions       []Suggestion `json:"suggestions,omitempty"`
}

// HighPrioritySuggestions returns suggestions marked high priority, in original order
func (a *SessionAnalysis) HighPrioritySuggestions() []Suggestion {
	if a == nil {
		return nil
	}
	var result []Suggestion
	for _, s := range a.Suggestions {
		if s.Priority.IsHigh() {
			result = append(result, s)
		}
	}
	return result
}

type Suggestion struct {
	Category  string                   `json:"category"`
	Priority  types.SuggestionPriority `json:"priority"`
	Text      string                   `json:"text,omitempty"`
	Rationale string                   `json:"rationale,omitempty"`
}

// Client is the coachee the session belongs to
type Client struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DisplayName returns the client name, or "Unknown" when it is not available
func (c *Client) DisplayName() string {
	if c == nil || c.Name == "" {
		return "Unknown"
	}
	return c.Name
}

// SessionUpload is the payload a host submits when a session ends
type SessionUpload struct {
	Session    CoachingSession   `json:"session"`
	Transcript []TranscriptEntry `json:"transcript"`
	Analysis   *SessionAnalysis  `json:"analysis,omitempty"`
	Client     *Client           `json:"client,omitempty"`
}

// SessionUpdate is the payload for an incremental append after the initial upload
type SessionUpdate struct {
	Transcript []TranscriptEntry `json:"transcript"`
	Analysis   *SessionAnalysis  `json:"analysis,omitempty"`
}
