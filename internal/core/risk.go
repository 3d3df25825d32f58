package core

import "math"

// Risk thresholds shared by the classifier and the score gauge
const (
	DangerousThreshold  = 0.75
	SuspiciousThreshold = 0.4
)

// ClassifyRisk maps a phishing score to a risk level
func ClassifyRisk(score float64) RiskLevel {
	switch {
	case score > DangerousThreshold:
		return RiskDangerous
	case score > SuspiciousThreshold:
		return RiskSuspicious
	default:
		return RiskSafe
	}
}

// Gauge is the display form of a score
type Gauge struct {
	Percentage int       `json:"percentage"`
	Label      string    `json:"label"`
	Band       RiskLevel `json:"band"`
}

// GaugeFor computes the gauge shown next to a result
func GaugeFor(score float64) Gauge {
	band := ClassifyRisk(score)
	label := "SAFE"
	switch band {
	case RiskDangerous:
		label = "HIGH RISK"
	case RiskSuspicious:
		label = "CAUTION"
	}
	return Gauge{
		Percentage: int(math.Round(score * 100)),
		Label:      label,
		Band:       band,
	}
}
