package types

import (
	"fmt"
	"strings"
)

// SuggestionPriority represents how urgently a coaching suggestion should be acted on
type SuggestionPriority string

const (
	SuggestionPriorityHigh   SuggestionPriority = "high"
	SuggestionPriorityMedium SuggestionPriority = "medium"
	SuggestionPriorityLow    SuggestionPriority = "low"
)

// IsValid checks if the priority is valid
func (p SuggestionPriority) IsValid() bool {
	switch p {
	case SuggestionPriorityHigh,
		SuggestionPriorityMedium,
		SuggestionPriorityLow:
		return true
	default:
		return false
	}
}

// IsHigh reports whether p is the high priority, ignoring case
func (p SuggestionPriority) IsHigh() bool {
	return SuggestionPriority(strings.ToLower(string(p))) == SuggestionPriorityHigh
}

// String returns the string representation of the priority
func (p SuggestionPriority) String() string {
	return string(p)
}

// ParseSuggestionPriority parses a string into a SuggestionPriority
func ParseSuggestionPriority(s string) (SuggestionPriority, error) {
	p := SuggestionPriority(strings.ToLower(s))
	if !p.IsValid() {
		return "", fmt.Errorf("invalid suggestion priority: %s", s)
	}
	return p, nil
}
