package model

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/coachmem/pkg/domain/types"
)

// PatternRule maps keyword co-occurrence in a client's history to a phrase.
// A rule matches when any trigger appears, at least one Requires keyword
// appears (if any are listed) and no Excludes keyword appears.
type PatternRule struct {
	Category types.PatternCategory
	Phrase   string
	Triggers []string
	Requires []string
	Excludes []string
}

// Matches reports whether the rule fires on an already lowercased corpus
func (r PatternRule) Matches(corpus string) bool {
	if !containsAny(corpus, r.Triggers) {
		return false
	}
	if len(r.Requires) > 0 && !containsAny(corpus, r.Requires) {
		return false
	}
	return !containsAny(corpus, r.Excludes)
}

// Validate checks if the PatternRule is valid
func (r PatternRule) Validate() error {
	if !r.Category.IsValid() {
		return goerr.New("invalid pattern category", goerr.V("category", r.Category), goerr.V("phrase", r.Phrase))
	}
	if strings.TrimSpace(r.Phrase) == "" {
		return goerr.New("pattern phrase is required", goerr.V("category", r.Category))
	}
	if len(r.Triggers) == 0 {
		return goerr.New("pattern rule needs at least one trigger", goerr.V("phrase", r.Phrase))
	}
	return nil
}

// Rules is the replaceable vocabulary used by the uploader's insight
// heuristics and the history pattern analysis.
type Rules struct {
	// Speaker labels containing any of these words are treated as the coach
	CoachRoleWords []string
	// Emotional vocabulary scanned in client speech
	EmotionWords []string
	// Client turn count above which the client is reported as highly engaged
	EngagementThreshold int
	PatternRules        []PatternRule
	// Emitted when no rule produces a growth area
	DefaultGrowthArea string
}

// DefaultRules returns the built-in English rule tables
func DefaultRules() *Rules {
	return &Rules{
		CoachRoleWords:      []string{"coach", "facilitator", "trainer", "mentor"},
		EmotionWords:        []string{"excited", "frustrated", "confused", "confident", "worried", "hopeful", "anxious", "overwhelmed"},
		EngagementThreshold: 10,
		DefaultGrowthArea:   "Continue developing core coaching skills",
		PatternRules: []PatternRule{
			{
				Category: types.PatternCategoryChallenge,
				Phrase:   "Active listening needs development",
				Triggers: []string{"listening"},
				Requires: []string{"need", "improve"},
			},
			{
				Category: types.PatternCategoryStrength,
				Phrase:   "Strong active listening",
				Triggers: []string{"listening"},
				Excludes: []string{"need", "improve"},
			},
			{
				Category: types.PatternCategoryStrength,
				Phrase:   "Asks thoughtful questions",
				Triggers: []string{"question"},
				Requires: []string{"good", "great", "strong", "thoughtful", "powerful"},
			},
			{
				Category: types.PatternCategoryGrowthArea,
				Phrase:   "Deepening questioning techniques",
				Triggers: []string{"question"},
				Requires: []string{"more", "deeper", "improve", "need"},
			},
			{
				Category: types.PatternCategoryStrength,
				Phrase:   "Builds rapport and trust",
				Triggers: []string{"rapport", "trust"},
				Excludes: []string{"lack", "low", "difficult"},
			},
			{
				Category: types.PatternCategoryChallenge,
				Phrase:   "Establishing rapport and trust",
				Triggers: []string{"rapport", "trust"},
				Requires: []string{"lack", "low", "difficult"},
			},
			{
				Category: types.PatternCategoryStrength,
				Phrase:   "Sets clear goals",
				Triggers: []string{"goal"},
				Requires: []string{"clear", "achieved", "progress"},
			},
			{
				Category: types.PatternCategoryGrowthArea,
				Phrase:   "Clarifying goals and next steps",
				Triggers: []string{"goal"},
				Requires: []string{"unclear", "vague", "define"},
			},
			{
				Category: types.PatternCategoryChallenge,
				Phrase:   "Managing stress and overwhelm",
				Triggers: []string{"stress", "overwhelm", "frustrat"},
			},
			{
				Category: types.PatternCategoryGrowthArea,
				Phrase:   "Building confidence",
				Triggers: []string{"confiden"},
				Requires: []string{"build", "low", "lack", "more"},
			},
			{
				Category: types.PatternCategoryGrowthArea,
				Phrase:   "Strengthening accountability",
				Triggers: []string{"accountab", "follow-up", "follow up", "commitment"},
			},
		},
	}
}

// Validate checks if the Rules are valid
func (r *Rules) Validate() error {
	if len(r.CoachRoleWords) == 0 {
		return goerr.New("at least one coach role word is required")
	}
	if r.EngagementThreshold < 0 {
		return goerr.New("engagement threshold must not be negative", goerr.V("threshold", r.EngagementThreshold))
	}
	if strings.TrimSpace(r.DefaultGrowthArea) == "" {
		return goerr.New("default growth area is required")
	}
	for i, rule := range r.PatternRules {
		if err := rule.Validate(); err != nil {
			return goerr.Wrap(err, "invalid pattern rule", goerr.V("index", i))
		}
	}
	return nil
}

// ClassifySpeaker returns SpeakerRoleCoach if the label contains a coach role word
func (r *Rules) ClassifySpeaker(speaker string) types.SpeakerRole {
	if containsAny(strings.ToLower(speaker), r.CoachRoleWords) {
		return types.SpeakerRoleCoach
	}
	return types.SpeakerRoleClient
}

// DetectEmotions returns the emotion words found in text, in vocabulary order
func (r *Rules) DetectEmotions(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, word := range r.EmotionWords {
		if word != "" && strings.Contains(lower, strings.ToLower(word)) {
			found = append(found, word)
		}
	}
	return found
}

func containsAny(lowerText string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(lowerText, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
