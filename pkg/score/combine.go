package score

import "math"

// Terms holds the sub-scores of one candidate against one spectrum.
type Terms struct {
	PreScore    float64 // matched fraction of theoretical peaks
	PercentTIC  float64 // matched ion current / total ion current
	WeightedTIC float64
	MatchOdds   float64 // mean match odds over the scored ion series
	XCorrX      float64 // cross-link ion correlation
	XCorrC      float64 // common ion correlation
	Intensity   float64 // matched ion current, absolute

	MatchOddsAlpha, MatchOddsBeta float64 // per-chain, averaged into MatchOdds
	IntensityAlpha, IntensityBeta float64 // per-chain matched current
	CommonMatched, XLinkMatched   int     // matched peak counts
}

// Weights are the linear coefficients of Combine.
type Weights struct {
	XCorrX      float64
	XCorrC      float64
	MatchOdds   float64
	WeightedTIC float64
	Intensity   float64
}

// DefaultWeights returns the coefficients fitted for the standard
// combined score.
func DefaultWeights() Weights {
	return Weights{
		XCorrX:      2.488,
		XCorrC:      21.279,
		MatchOdds:   1.973,
		WeightedTIC: 12.829,
		Intensity:   1.8,
	}
}

// Combine returns the weighted sum of the sub-scores. The intensity term
// uses PercentTIC so scores do not depend on the spectrum's intensity
// scale. Non-finite terms count as 0, and so does a non-finite total.
func (w Weights) Combine(t Terms) float64 {
	s := w.XCorrX*finite(t.XCorrX) +
		w.XCorrC*finite(t.XCorrC) +
		w.MatchOdds*finite(t.MatchOdds) +
		w.WeightedTIC*finite(t.WeightedTIC) +
		w.Intensity*finite(t.PercentTIC)
	return finite(s)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
