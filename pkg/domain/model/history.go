package model

import "time"

// SessionRecord is the structured reconstruction of one session summary
// record read back from the provider. KeyInsights and ProgressAreas are
// never nil.
type SessionRecord struct {
	SessionID     string    `json:"session_id"`
	Date          time.Time `json:"date"`
	OverallScore  float64   `json:"overall_score"`
	KeyInsights   []string  `json:"key_insights"`
	ProgressAreas []string  `json:"progress_areas"`
}

// PatternSummary holds phrases derived from keyword analysis of a client's history
type PatternSummary struct {
	Strengths   []string `json:"strengths"`
	Challenges  []string `json:"challenges"`
	GrowthAreas []string `json:"growth_areas"`
}

// ClientHistoryContext is the analyzable history of a client. It is built
// once per cache fill and must not be mutated afterwards; a refresh replaces
// it wholesale.
type ClientHistoryContext struct {
	ClientID        string          `json:"client_id"`
	Sessions        []SessionRecord `json:"sessions"` // oldest first
	Patterns        PatternSummary  `json:"patterns"`
	LastSessionDate *time.Time      `json:"last_session_date,omitempty"`
}

// LatestSession returns the most recent session, or nil if there is none
func (h *ClientHistoryContext) LatestSession() *SessionRecord {
	if h == nil || len(h.Sessions) == 0 {
		return nil
	}
	return &h.Sessions[len(h.Sessions)-1]
}

// AverageScore returns the mean overall score across all sessions
func (h *ClientHistoryContext) AverageScore() float64 {
	if h == nil || len(h.Sessions) == 0 {
		return 0
	}
	return averageScore(h.Sessions)
}

func averageScore(sessions []SessionRecord) float64 {
	if len(sessions) == 0 {
		return 0
	}
	var sum float64
	for _, s := range sessions {
		sum += s.OverallScore
	}
	return sum / float64(len(sessions))
}
