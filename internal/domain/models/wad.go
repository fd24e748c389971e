package models

// WADPoint is one step of the Williams accumulation/distribution series.
// WAD is the single-bar increment, CumulativeWAD the running sum, Weight the
// recency decay factor and WeightedWAD the decayed cumulative value.
type WADPoint struct {
	Timestamp     int64   `json:"timestamp"`
	WAD           float64 `json:"wad"`
	CumulativeWAD float64 `json:"cumulativeWad"`
	Weight        float64 `json:"weight"`
	WeightedWAD   float64 `json:"weightedWad"`
}

// Direction is a trade signal direction.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
	DirectionHold Direction = "hold"
)

// Signal is a directional reading derived from an indicator series.
type Signal struct {
	Timestamp  int64     `json:"timestamp"`
	Direction  Direction `json:"direction"`
	Strength   float64   `json:"strength"`   // [0,1]
	Confidence float64   `json:"confidence"` // [0,1]
}
