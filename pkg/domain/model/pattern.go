package model

import (
	"strings"

	"github.com/secmon-lab/coachmem/pkg/domain/types"
)

// AnalyzePatterns applies rules to the full history corpus. It is keyword
// matching, not classification: the output is advisory text. GrowthAreas is
// never empty.
func AnalyzePatterns(corpus string, rules *Rules) PatternSummary {
	lower := strings.ToLower(corpus)
	summary := PatternSummary{
		Strengths:   []string{},
		Challenges:  []string{},
		GrowthAreas: []string{},
	}

	for _, rule := range rules.PatternRules {
		if !rule.Matches(lower) {
			continue
		}
		switch rule.Category {
		case types.PatternCategoryStrength:
			summary.Strengths = appendUnique(summary.Strengths, rule.Phrase)
		case types.PatternCategoryChallenge:
			summary.Challenges = appendUnique(summary.Challenges, rule.Phrase)
		case types.PatternCategoryGrowthArea:
			summary.GrowthAreas = appendUnique(summary.GrowthAreas, rule.Phrase)
		}
	}

	if len(summary.GrowthAreas) == 0 {
		summary.GrowthAreas = append(summary.GrowthAreas, rules.DefaultGrowthArea)
	}

	return summary
}

func appendUnique(list []string, phrase string) []string {
	for _, existing := range list {
		if existing == phrase {
			return list
		}
	}
	return append(list, phrase)
}
