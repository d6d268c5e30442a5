package search

import (
	"context"
	"fmt"
	"time"

	"github.com/ChrisMcGann/xlsearch/pkg/align"
	"github.com/ChrisMcGann/xlsearch/pkg/candidate"
	"github.com/ChrisMcGann/xlsearch/pkg/core"
	"github.com/ChrisMcGann/xlsearch/pkg/rank"
	"github.com/ChrisMcGann/xlsearch/pkg/score"
	"github.com/ChrisMcGann/xlsearch/pkg/theo"
)

// scorer is the per-worker state. It is not safe for concurrent use.
type scorer struct {
	opt     Options
	aligner align.Aligner
	ions    theo.Generator
}

func newScorer(opt Options) *scorer {
	return &scorer{opt: opt}
}

// search scores every candidate of one spectrum. It reports false when
// the run context was cancelled before the spectrum finished.
func (s *scorer) search(ctx context.Context, gen *candidate.Generator, j job, stats *Stats) (Result, bool) {
	spec := j.spectrum
	res := Result{Index: j.index, Spectrum: spec}
	stats.Searched++

	precursorMass := spec.PrecursorMass()
	generated := gen.Generate(precursorMass)
	stats.UnlinkablePairs += generated.UnlinkablePairs
	stats.DoubleEmissions += generated.DoubleEmissions

	n := len(generated.Candidates)
	if n == 0 {
		stats.NoCandidates++
		return res, true
	}
	stats.Candidates += n
	if n > stats.MaxCandidates {
		stats.MaxCandidates = n
	}

	specCtx := ctx
	if s.opt.SpectrumTimeout > 0 {
		var cancel context.CancelFunc
		specCtx, cancel = context.WithTimeout(ctx, s.opt.SpectrumTimeout)
		defer cancel()
	}

	total := spec.TotalIntensity()
	scoredList := make([]rank.Scored, 0, n)
	for _, c := range generated.Candidates {
		if ctx.Err() != nil {
			return res, false
		}
		if expired(specCtx) {
			stats.TimedOut++
			break
		}
		sc, outcome := s.score(spec, c, total)
		switch outcome {
		case scored:
			scoredList = append(scoredList, sc)
		case noIons:
			stats.EmptyTheoretical++
		case noMatches:
			stats.Unmatched++
		}
	}

	for _, m := range rank.Rank(scoredList, s.opt.TopHits) {
		mass := m.Candidate.Mass()
		observed := candidate.Corrected(precursorMass, m.Candidate.Correction)
		res.Matches = append(res.Matches, Match{
			Match:             m,
			PrecursorErrorPPM: (observed - mass) / mass * 1e6,
		})
	}
	stats.Matches += len(res.Matches)
	return res, true
}

// expired reports whether ctx is done or its deadline has passed, without
// waiting for the deadline timer to fire.
func expired(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	d, ok := ctx.Deadline()
	return ok && !time.Now().Before(d)
}

// series is one theoretical ion series and its alignment to the spectrum.
type series struct {
	theo  []core.Peak
	pairs []align.Pair
}

func (s *scorer) align(theoretical []core.Peak, obs []core.Peak, tol core.Tolerance) series {
	return series{
		theo:  theoretical,
		pairs: s.aligner.Align(theoretical, obs, align.Options{Tolerance: tol, IntensityCutoff: s.opt.IntensityCutoff}),
	}
}

// sites returns the theoretical-spectrum link sites of both chains.
func sites(c candidate.Candidate) (theo.Site, theo.Site) {
	switch l := c.Link.(type) {
	case candidate.Cross:
		return theo.Single(l.AlphaPos), theo.Single(l.BetaPos)
	case candidate.Mono:
		return theo.Single(l.Pos), theo.Site{Pos: -1, Partner: -1}
	case candidate.Loop:
		return theo.Site{Pos: l.PosA, Partner: l.PosB}, theo.Site{Pos: -1, Partner: -1}
	default:
		panic(fmt.Sprintf("search: unknown link type %T", c.Link))
	}
}

type outcome int

const (
	scored    outcome = iota
	noIons            // alpha has no common or no cross-link ions
	noMatches         // no theoretical peak matched
)

// score computes all sub-scores of c. Cross-link ions are placed using
// the candidate mass, so corrected precursors get the right ion masses.
func (s *scorer) score(spec *core.Spectrum, c candidate.Candidate, total float64) (rank.Scored, outcome) {
	obs := spec.Peaks
	z := spec.Charge
	linkedMass := c.Mass()
	alpha := c.Alpha()
	beta, cross := c.Beta()
	alphaSite, betaSite := sites(c)

	// cross-link ions of mono- and loop-links start at charge 2
	minXLinkCharge := 2
	if cross {
		minXLinkCharge = 1
	}

	commonAlpha := s.ions.CommonIons(alpha, alphaSite, true, CommonIonMaxCharge)
	xlinkAlpha := s.ions.CrossLinkIons(alpha, alphaSite, linkedMass, true, minXLinkCharge, z)
	if len(commonAlpha) == 0 || len(xlinkAlpha) == 0 {
		return rank.Scored{}, noIons
	}

	ca := s.align(commonAlpha, obs, s.opt.CommonTolerance)
	xa := s.align(xlinkAlpha, obs, s.opt.XLinkTolerance)
	var cb, xb series
	if cross {
		cb = s.align(s.ions.CommonIons(beta, betaSite, false, CommonIonMaxCharge), obs, s.opt.CommonTolerance)
		xb = s.align(s.ions.CrossLinkIons(beta, betaSite, linkedMass, false, 1, z), obs, s.opt.XLinkTolerance)
	}

	matchedAlpha := len(ca.pairs) + len(xa.pairs)
	matchedBeta := len(cb.pairs) + len(xb.pairs)
	if matchedAlpha+matchedBeta == 0 {
		return rank.Scored{}, noMatches
	}

	var t score.Terms
	t.CommonMatched = len(ca.pairs) + len(cb.pairs)
	t.XLinkMatched = len(xa.pairs) + len(xb.pairs)
	t.PreScore = score.PreScore(matchedAlpha, len(ca.theo)+len(xa.theo), matchedBeta, len(cb.theo)+len(xb.theo), cross)

	// Chain currents are computed separately and then scaled so they add
	// up to the current of the distinct matched peaks.
	t.Intensity = score.MatchedIntensity(obs, ca.pairs, cb.pairs, xa.pairs, xb.pairs)
	rawAlpha := score.MatchedIntensity(obs, ca.pairs, xa.pairs)
	rawBeta := score.MatchedIntensity(obs, cb.pairs, xb.pairs)
	if sum := rawAlpha + rawBeta; sum > 0 {
		t.IntensityAlpha = t.Intensity * rawAlpha / sum
		t.IntensityBeta = t.Intensity * rawBeta / sum
	}
	if total > 0 {
		t.PercentTIC = t.Intensity / total
	}
	t.WeightedTIC = score.WeightedTIC(alpha.Len(), beta.Len(), t.IntensityAlpha, t.IntensityBeta, t.Intensity, total, cross)

	nCharges := score.CrossLinkCharges(z)
	t.MatchOddsAlpha = (score.MatchOdds(ca.theo, len(ca.pairs), s.opt.CommonTolerance, false, 1) +
		score.MatchOdds(xa.theo, len(xa.pairs), s.opt.XLinkTolerance, true, nCharges)) / 2
	t.MatchOdds = t.MatchOddsAlpha
	if cross {
		t.MatchOddsBeta = (score.MatchOdds(cb.theo, len(cb.pairs), s.opt.CommonTolerance, false, 1) +
			score.MatchOdds(xb.theo, len(xb.pairs), s.opt.XLinkTolerance, true, nCharges)) / 2
		t.MatchOdds = (t.MatchOddsAlpha + t.MatchOddsBeta) / 2
	}

	xlinkTheo := merge(xa.theo, xb.theo)
	commonTheo := merge(ca.theo, cb.theo)
	t.XCorrX = score.NormalizedXCorr(obs, xlinkTheo, XCorrMaxShift, XCorrBinXLink)
	t.XCorrC = score.NormalizedXCorr(obs, commonTheo, XCorrMaxShift, XCorrBinCommon)

	return rank.Scored{
		Candidate:   c,
		Score:       s.opt.Weights.Combine(t),
		Terms:       t,
		Annotations: annotate(obs, ca, cb, xa, xb),
	}, scored
}

func merge(a, b []core.Peak) []core.Peak {
	out := make([]core.Peak, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	core.SortPeaks(out)
	return out
}

func annotate(obs []core.Peak, all ...series) []rank.Annotation {
	var out []rank.Annotation
	for _, s := range all {
		for _, p := range s.pairs {
			t := s.theo[p.Theo]
			out = append(out, rank.Annotation{
				Label:     t.Annotation,
				MZ:        obs[p.Obs].MZ,
				Intensity: obs[p.Obs].Intensity,
				Charge:    t.Charge,
			})
		}
	}
	return out
}
