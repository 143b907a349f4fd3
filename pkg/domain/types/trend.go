package types

// Trend labels the direction of a client's session scores over time
type Trend string

const (
	TrendInsufficientData Trend = "Insufficient data"
	TrendBuildingBaseline Trend = "Building baseline"
	TrendImproving        Trend = "Improving"
	TrendNeedsAttention   Trend = "Needs attention"
	TrendStable           Trend = "Stable"
)

// String returns the human-readable label
func (t Trend) String() string {
	return string(t)
}
