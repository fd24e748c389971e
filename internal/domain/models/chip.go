package models

// ChipDistributionItem is one bucket of the cost-basis (chip) histogram.
// Percentage is the bucket's share of total volume; all percentages of one
// snapshot sum to 1.
type ChipDistributionItem struct {
	Price      float64 `json:"price"`
	Volume     float64 `json:"volume"`
	Percentage float64 `json:"percentage"`
}

// ChipPeak is a detected concentration peak in a chip distribution.
// Volume and Ratio describe the center bucket; Dominance covers the whole
// expanded peak span.
type ChipPeak struct {
	Price               float64 `json:"price"`
	Ratio               float64 `json:"ratio"`
	Volume              float64 `json:"volume"`
	Width               float64 `json:"width"`
	Dominance           float64 `json:"dominance"`
	Strength            float64 `json:"strength"`
	Reliability         float64 `json:"reliability"`
	CenterPrice         float64 `json:"centerPrice"`
	VolumeWeightedPrice float64 `json:"volumeWeightedPrice"`
}

// ChipPeakInfo is the full peak-detection result for one snapshot.
type ChipPeakInfo struct {
	Peaks        []ChipPeak `json:"peaks"`
	DominantPeak *ChipPeak  `json:"dominantPeak,omitempty"`
	IsSinglePeak bool       `json:"isSinglePeak"`
	TotalVolume  float64    `json:"totalVolume"`
}

// Concentration summarizes how tightly chips cluster.
type Concentration struct {
	HHI   float64 `json:"hhi"`
	Gini  float64 `json:"gini"`
	Grade string  `json:"grade"` // "high", "medium", "low"
}

// LevelType distinguishes support from resistance.
type LevelType string

const (
	LevelSupport    LevelType = "support"
	LevelResistance LevelType = "resistance"
)

// SupportResistanceLevel is one dense price cluster relative to the current
// price. Supports sit below it, resistances above.
type SupportResistanceLevel struct {
	Price       float64   `json:"price"`
	Strength    float64   `json:"strength"`
	Volume      float64   `json:"volume"`
	Reliability float64   `json:"reliability"`
	Width       float64   `json:"width"`
	Distance    float64   `json:"distance"`
	Type        LevelType `json:"type"`
}

// SupportResistanceLevels groups the detected levels for one snapshot.
type SupportResistanceLevels struct {
	Supports     []SupportResistanceLevel `json:"supports"`
	Resistances  []SupportResistanceLevel `json:"resistances"`
	CurrentPrice float64                  `json:"currentPrice"`
}
