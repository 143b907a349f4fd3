package model

import "github.com/secmon-lab/coachmem/pkg/domain/types"

const (
	trendWindow    = 3
	trendThreshold = 0.5
)

// CalculateTrend compares the mean score of the last three sessions with the
// three sessions before them. sessions must be ordered oldest first.
func CalculateTrend(sessions []SessionRecord) types.Trend {
	if len(sessions) < 2 {
		return types.TrendInsufficientData
	}

	recentStart := max(len(sessions)-trendWindow, 0)
	if recentStart == 0 {
		return types.TrendBuildingBaseline
	}
	previousStart := max(recentStart-trendWindow, 0)

	diff := averageScore(sessions[recentStart:]) - averageScore(sessions[previousStart:recentStart])
	switch {
	case diff > trendThreshold:
		return types.TrendImproving
	case diff < -trendThreshold:
		return types.TrendNeedsAttention
	default:
		return types.TrendStable
	}
}
