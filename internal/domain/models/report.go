package models

import "time"

// AnalysisReport is the consolidated per-symbol output of one analysis run.
// Engine sections may be nil when a partial failure occurred; Errors carries
// the per-part reason.
type AnalysisReport struct {
	Symbol        string                   `json:"symbol"`
	Timestamp     time.Time                `json:"timestamp"`
	CurrentPrice  float64                  `json:"currentPrice"`
	WAD           []WADPoint               `json:"wad,omitempty"`
	Signals       []Signal                 `json:"signals,omitempty"`
	Distribution  []ChipDistributionItem   `json:"distribution,omitempty"`
	Concentration *Concentration           `json:"concentration,omitempty"`
	Peaks         *ChipPeakInfo            `json:"peaks,omitempty"`
	Levels        *SupportResistanceLevels `json:"levels,omitempty"`
	Threshold     *DynamicThreshold        `json:"threshold,omitempty"`
	Consensus     *ConsensusResult         `json:"consensus,omitempty"`
	Errors        map[string]string        `json:"errors,omitempty"`
}
