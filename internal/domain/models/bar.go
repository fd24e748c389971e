package models

// PriceBar represents one OHLCV record. Timestamp is Unix milliseconds.
type PriceBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Tick is a single trade print from the market stream.
type Tick struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"timestamp"` // ms
	Price     float64 `json:"price"`
	Volume    float64 `json:"volume"`
}

// Amount returns the traded notional of the tick.
func (t *Tick) Amount() float64 {
	return t.Price * t.Volume
}
