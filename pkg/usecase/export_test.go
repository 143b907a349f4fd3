package usecase

import "time"

// ExtractKeyInsights is exported for testing
var ExtractKeyInsights = extractKeyInsights

// FormatTranscript is exported for testing
var FormatTranscript = formatTranscript

// HistorySessionID is exported for testing
var HistorySessionID = historySessionID

// WithClock replaces time.Now for cache expiry and record dates
func WithClock(now func() time.Time) Option {
	return withClock(now)
}
