package models

// DynamicThreshold holds the robust statistics of an order-amount window and
// the derived large-order cutoffs. Threshold is mean+k*std, UpperThreshold
// mean+(k+1)*std.
type DynamicThreshold struct {
	Mean           float64 `json:"mean"`
	Std            float64 `json:"std"`
	Threshold      float64 `json:"threshold"`
	UpperThreshold float64 `json:"upperThreshold"`
	Median         float64 `json:"median"`
	Mode           float64 `json:"mode"`
	Q1             float64 `json:"q1"`
	Q3             float64 `json:"q3"`
	IQR            float64 `json:"iqr"`
	OutlierCount   int     `json:"outlierCount"`
	SampleSize     int     `json:"sampleSize"`
}
