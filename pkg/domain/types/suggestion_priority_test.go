package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/coachmem/pkg/domain/types"
)

func TestSuggestionPriority_IsHigh(t *testing.T) {
	tests := []struct {
		name     string
		priority types.SuggestionPriority
		want     bool
	}{
		{name: "high", priority: types.SuggestionPriorityHigh, want: true},
		{name: "upper case high", priority: types.SuggestionPriority("HIGH"), want: true},
		{name: "medium", priority: types.SuggestionPriorityMedium, want: false},
		{name: "empty", priority: types.SuggestionPriority(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, tt.priority.IsHigh()).Equal(tt.want)
		})
	}
}

func TestParseSuggestionPriority(t *testing.T) {
	p, err := types.ParseSuggestionPriority("Medium")
	gt.NoError(t, err).Required()
	gt.Value(t, p).Equal(types.SuggestionPriorityMedium)

	_, err = types.ParseSuggestionPriority("urgent")
	gt.Value(t, err).NotNil()
}

func TestParsePatternCategory(t *testing.T) {
	for _, c := range types.AllPatternCategories() {
		parsed, err := types.ParsePatternCategory(string(c))
		gt.NoError(t, err).Required()
		gt.Value(t, parsed).Equal(c)
	}

	_, err := types.ParsePatternCategory("weakness")
	gt.Value(t, err).NotNil()
}
