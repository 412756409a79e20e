// Package gauge maps a value onto a fixed ceiling for dial-style display.
package gauge

import "math"

// Band classifies how close a value is to its ceiling.
type Band string

const (
	BandLow      Band = "low"
	BandMedium   Band = "medium"
	BandHigh     Band = "high"
	BandCritical Band = "critical"
)

// Band boundaries as fractions of the ceiling.
const (
	MediumThreshold   = 0.5
	HighThreshold     = 0.8
	CriticalThreshold = 0.9
)

// NoRatio marks a gauge whose ceiling is not positive.
const NoRatio = -1.0

type Gauge struct {
	Value   float64 `json:"value"`
	Ceiling float64 `json:"ceiling"`
	Ratio   float64 `json:"ratio"`
	Percent float64 `json:"percent"`
	Band    Band    `json:"band"`
}

// Score normalizes value against ceiling. The band is taken from the unclamped
// ratio so values past the ceiling read as critical; Ratio and Percent are
// clamped to [0, 1] and [0, 100].
func Score(value, ceiling float64) Gauge {
	g := Gauge{Value: value, Ceiling: ceiling}
	if ceiling <= 0 {
		g.Ratio = NoRatio
		g.Band = BandLow
		return g
	}

	raw := value / ceiling
	g.Band = bandFor(raw)
	g.Ratio = math.Min(math.Max(raw, 0), 1)
	g.Percent = math.Round(g.Ratio*1000) / 10
	return g
}

func bandFor(ratio float64) Band {
	switch {
	case ratio >= CriticalThreshold:
		return BandCritical
	case ratio >= HighThreshold:
		return BandHigh
	case ratio >= MediumThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

// Marks are the absolute values at which the bands change.
type Marks struct {
	Medium   float64 `json:"medium"`
	High     float64 `json:"high"`
	Critical float64 `json:"critical"`
}

func Thresholds(ceiling float64) Marks {
	return Marks{
		Medium:   ceiling * MediumThreshold,
		High:     ceiling * HighThreshold,
		Critical: ceiling * CriticalThreshold,
	}
}
