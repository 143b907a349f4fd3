package config

import (
	"log/slog"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/coachmem/pkg/domain/model"
	"github.com/secmon-lab/coachmem/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// Rules holds the CLI flag pointing at an optional rule table file
type Rules struct {
	path string
}

func (r *Rules) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "rules",
			Usage:       "TOML file overriding the built-in vocabulary and pattern rules",
			Sources:     cli.EnvVars("COACHMEM_RULES"),
			Destination: &r.path,
		},
	}
}

func (r Rules) LogValue() slog.Value {
	if r.path == "" {
		return slog.StringValue("built-in")
	}
	return slog.StringValue(r.path)
}

// Configure returns the built-in rules, or the rules loaded from the file
func (r *Rules) Configure() (*model.Rules, error) {
	if r.path == "" {
		return model.DefaultRules(), nil
	}

	file, err := LoadRulesFile(r.path)
	if err != nil {
		return nil, err
	}
	return file.ToDomainRules()
}

// RulesFile is the TOML layout of a rule table. Omitted fields keep their
// built-in values; a non-empty pattern list replaces all built-in patterns.
type RulesFile struct {
	CoachRoleWords      []string      `toml:"coach_role_words"`
	EmotionWords        []string      `toml:"emotion_words"`
	EngagementThreshold *int          `toml:"engagement_threshold"`
	DefaultGrowthArea   string        `toml:"default_growth_area"`
	Patterns            []PatternRule `toml:"pattern"`
}

// PatternRule is one [[pattern]] table
type PatternRule struct {
	Category string   `toml:"category"`
	Phrase   string   `toml:"phrase"`
	Triggers []string `toml:"triggers"`
	Requires []string `toml:"requires"`
	Excludes []string `toml:"excludes"`
}

// LoadRulesFile loads a rule table from a TOML file
func LoadRulesFile(path string) (*RulesFile, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, goerr.Wrap(ErrConfigNotFound, "rules file not found", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read rules file", goerr.V(ConfigPathKey, path))
	}

	var file RulesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML rules", goerr.V(ConfigPathKey, path))
	}

	return &file, nil
}

// ToDomainRules merges the file over the built-in rules and validates the result
func (f *RulesFile) ToDomainRules() (*model.Rules, error) {
	rules := model.DefaultRules()

	if len(f.CoachRoleWords) > 0 {
		rules.CoachRoleWords = f.CoachRoleWords
	}
	if len(f.EmotionWords) > 0 {
		rules.EmotionWords = f.EmotionWords
	}
	if f.EngagementThreshold != nil {
		rules.EngagementThreshold = *f.EngagementThreshold
	}
	if f.DefaultGrowthArea != "" {
		rules.DefaultGrowthArea = f.DefaultGrowthArea
	}

	if len(f.Patterns) > 0 {
		patterns := make([]model.PatternRule, 0, len(f.Patterns))
		for i, p := range f.Patterns {
			category, err := types.ParsePatternCategory(p.Category)
			if err != nil {
				return nil, goerr.Wrap(ErrInvalidConfig, "invalid pattern category",
					goerr.V(PatternIndexKey, i), goerr.V("category", p.Category))
			}
			patterns = append(patterns, model.PatternRule{
				Category: category,
				Phrase:   p.Phrase,
				Triggers: p.Triggers,
				Requires: p.Requires,
				Excludes: p.Excludes,
			})
		}
		rules.PatternRules = patterns
	}

	if err := rules.Validate(); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "invalid rules", goerr.V("reason", err.Error()))
	}

	return rules, nil
}
