package types

import "fmt"

// PatternCategory is the bucket a pattern rule contributes its phrase to
type PatternCategory string

const (
	PatternCategoryStrength   PatternCategory = "strength"
	PatternCategoryChallenge  PatternCategory = "challenge"
	PatternCategoryGrowthArea PatternCategory = "growth_area"
)

// AllPatternCategories returns all valid pattern categories
func AllPatternCategories() []PatternCategory {
	return []PatternCategory{
		PatternCategoryStrength,
		PatternCategoryChallenge,
		PatternCategoryGrowthArea,
	}
}

// IsValid checks if the category is valid
func (c PatternCategory) IsValid() bool {
	switch c {
	case PatternCategoryStrength,
		PatternCategoryChallenge,
		PatternCategoryGrowthArea:
		return true
	default:
		return false
	}
}

// String returns the string representation of the category
func (c PatternCategory) String() string {
	return string(c)
}

// ParsePatternCategory parses a string into a PatternCategory
func ParsePatternCategory(s string) (PatternCategory, error) {
	c := PatternCategory(s)
	if !c.IsValid() {
		return "", fmt.Errorf("invalid pattern category: %s", s)
	}
	return c, nil
}
