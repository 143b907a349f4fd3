package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/coachmem/pkg/domain/model"
	"github.com/secmon-lab/coachmem/pkg/domain/types"
)

func sessionsWithScores(scores ...float64) []model.SessionRecord {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sessions := make([]model.SessionRecord, len(scores))
	for i, s := range scores {
		sessions[i] = model.SessionRecord{
			Date:          base.AddDate(0, 0, 7*i),
			OverallScore:  s,
			KeyInsights:   []string{},
			ProgressAreas: []string{},
		}
	}
	return sessions
}

func TestCalculateTrend(t *testing.T) {
	tests := []struct {
		name   string
		scores []float64
		want   types.Trend
	}{
		{name: "no sessions", scores: nil, want: types.TrendInsufficientData},
		{name: "single session", scores: []float64{7}, want: types.TrendInsufficientData},
		{name: "two sessions have no earlier window", scores: []float64{5, 9}, want: types.TrendBuildingBaseline},
		{name: "three sessions have no earlier window", scores: []float64{5, 6, 9}, want: types.TrendBuildingBaseline},
		{name: "improving", scores: []float64{5, 5, 5, 8, 8, 8}, want: types.TrendImproving},
		{name: "stable within threshold", scores: []float64{5, 5, 5, 5.2, 5.1, 5.3}, want: types.TrendStable},
		{name: "declining", scores: []float64{8, 8, 8, 6, 6, 6}, want: types.TrendNeedsAttention},
		{name: "partial earlier window", scores: []float64{4, 7, 7, 7}, want: types.TrendImproving},
		{name: "only last six sessions count", scores: []float64{0, 0, 6, 6, 6, 6, 6, 6}, want: types.TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, model.CalculateTrend(sessionsWithScores(tt.scores...))).Equal(tt.want)
		})
	}
}

func TestAnalyzePatterns(t *testing.T) {
	rules := model.DefaultRules()

	t.Run("listening with improvement need is a challenge", func(t *testing.T) {
		summary := model.AnalyzePatterns("Listening could IMPROVE next time", rules)
		gt.Array(t, summary.Challenges).Has("Active listening needs development")
		gt.Bool(t, contains(summary.Strengths, "Strong active listening")).False()
	})

	t.Run("listening alone is a strength", func(t *testing.T) {
		summary := model.AnalyzePatterns("excellent listening throughout", rules)
		gt.Array(t, summary.Strengths).Has("Strong active listening")
		gt.Array(t, summary.Challenges).Length(0)
	})

	t.Run("default growth area when no rule fires", func(t *testing.T) {
		summary := model.AnalyzePatterns("nothing notable", rules)
		gt.Value(t, summary.GrowthAreas).Equal([]string{rules.DefaultGrowthArea})
		gt.Value(t, summary.Strengths).NotNil()
		gt.Value(t, summary.Challenges).NotNil()
	})

	t.Run("phrases are deduplicated", func(t *testing.T) {
		custom := &model.Rules{
			DefaultGrowthArea: "keep going",
			PatternRules: []model.PatternRule{
				{Category: types.PatternCategoryGrowthArea, Phrase: "Accountability", Triggers: []string{"commitment"}},
				{Category: types.PatternCategoryGrowthArea, Phrase: "Accountability", Triggers: []string{"follow up"}},
			},
		}
		summary := model.AnalyzePatterns("commitment and follow up", custom)
		gt.Value(t, summary.GrowthAreas).Equal([]string{"Accountability"})
	})
}

func TestRulesClassifySpeaker(t *testing.T) {
	rules := model.DefaultRules()

	tests := []struct {
		speaker string
		want    types.SpeakerRole
	}{
		{speaker: "Coach", want: types.SpeakerRoleCoach},
		{speaker: "AI COACH", want: types.SpeakerRoleCoach},
		{speaker: "Lead Facilitator", want: types.SpeakerRoleCoach},
		{speaker: "mentor-bot", want: types.SpeakerRoleCoach},
		{speaker: "Jane", want: types.SpeakerRoleClient},
		{speaker: "", want: types.SpeakerRoleClient},
	}

	for _, tt := range tests {
		t.Run(tt.speaker, func(t *testing.T) {
			gt.Value(t, rules.ClassifySpeaker(tt.speaker)).Equal(tt.want)
		})
	}
}

func TestRulesDetectEmotions(t *testing.T) {
	rules := model.DefaultRules()
	found := rules.DetectEmotions("I was Frustrated at first but now I'm hopeful and a bit excited")
	gt.Value(t, found).Equal([]string{"excited", "frustrated", "hopeful"})
	gt.Array(t, rules.DetectEmotions("calm day")).Length(0)
}

func TestRulesValidate(t *testing.T) {
	gt.NoError(t, model.DefaultRules().Validate()).Required()

	rules := model.DefaultRules()
	rules.PatternRules = append(rules.PatternRules, model.PatternRule{Category: "weakness", Phrase: "x", Triggers: []string{"x"}})
	gt.Value(t, rules.Validate()).NotNil()

	rules = model.DefaultRules()
	rules.DefaultGrowthArea = " "
	gt.Value(t, rules.Validate()).NotNil()

	rules = model.DefaultRules()
	rules.CoachRoleWords = nil
	gt.Value(t, rules.Validate()).NotNil()
}

func TestSessionAnalysisHighPrioritySuggestions(t *testing.T) {
	var nilAnalysis *model.SessionAnalysis
	gt.Array(t, nilAnalysis.HighPrioritySuggestions()).Length(0)

	analysis := &model.SessionAnalysis{Suggestions: []model.Suggestion{
		{Category: "a", Priority: types.SuggestionPriorityLow},
		{Category: "b", Priority: "HIGH"},
		{Category: "c", Priority: types.SuggestionPriorityHigh},
	}}
	high := analysis.HighPrioritySuggestions()
	gt.Array(t, high).Length(2).Required()
	gt.Value(t, high[0].Category).Equal("b")
	gt.Value(t, high[1].Category).Equal("c")
}

func TestClientDisplayName(t *testing.T) {
	var c *model.Client
	gt.Value(t, c.DisplayName()).Equal("Unknown")
	gt.Value(t, (&model.Client{ID: "c1"}).DisplayName()).Equal("Unknown")
	gt.Value(t, (&model.Client{ID: "c1", Name: "Jane"}).DisplayName()).Equal("Jane")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
