package models

// Requests for the analysis HTTP endpoints. Defined in domain for consistency
// and reuse.

type WADRequest struct {
	Symbol    string  `query:"symbol" json:"symbol" validate:"required"`
	N         int     `query:"n" json:"n" default:"250" validate:"gte=2,lte=5000"`
	TF        string  `query:"tf" json:"tf" default:"1d" validate:"oneof=1m 5m 1d"`
	DecayRate float64 `query:"decay" json:"decay" default:"0.05" validate:"gte=0,lte=1"`
}

type ChipRequest struct {
	Symbol    string  `query:"symbol" json:"symbol" validate:"required"`
	N         int     `query:"n" json:"n" default:"250" validate:"gte=2,lte=5000"`
	TF        string  `query:"tf" json:"tf" default:"1d" validate:"oneof=1m 5m 1d"`
	BucketPct float64 `query:"bucket" json:"bucket" default:"0.01" validate:"gt=0,lte=0.2"`
}

type LevelsRequest struct {
	Symbol    string  `query:"symbol" json:"symbol" validate:"required"`
	N         int     `query:"n" json:"n" default:"250" validate:"gte=2,lte=5000"`
	TF        string  `query:"tf" json:"tf" default:"1d" validate:"oneof=1m 5m 1d"`
	BucketPct float64 `query:"bucket" json:"bucket" default:"0.01" validate:"gt=0,lte=0.2"`
}

type ThresholdRequest struct {
	Symbol   string  `query:"symbol" json:"symbol" validate:"required"`
	K        float64 `query:"k" json:"k" default:"2" validate:"gt=0,lte=10"`
	WindowMs int64   `query:"window_ms" json:"window_ms" default:"3600000" validate:"gte=0"`
	Limit    int     `query:"limit" json:"limit" default:"2000" validate:"gte=1,lte=50000"`
}

type AnalyzeRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"250" validate:"gte=2,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"1d" validate:"oneof=1m 5m 1d"`
}

type WeightsRequest struct {
	Limit int `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type EvaluateRequest struct {
	ID string `query:"id" json:"id" validate:"required"`
}
