// Package search runs the cross-link search: it preprocesses spectra,
// builds the mass-window candidate list once, then scores every spectrum
// against its candidates on a pool of workers.
package search

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/ChrisMcGann/xlsearch/pkg/candidate"
	"github.com/ChrisMcGann/xlsearch/pkg/core"
	"github.com/ChrisMcGann/xlsearch/pkg/index"
	"github.com/ChrisMcGann/xlsearch/pkg/preprocess"
	"github.com/ChrisMcGann/xlsearch/pkg/rank"
	"github.com/ChrisMcGann/xlsearch/pkg/score"
)

// Fixed scoring constants.
const (
	CommonIonMaxCharge = 2
	XCorrMaxShift      = 5
	XCorrBinXLink      = 0.3
	XCorrBinCommon     = 0.2
	progressEvery      = 1000
)

// Options configures a search run.
type Options struct {
	Preprocess      preprocess.Config
	Candidates      candidate.Config // linker and precursor tolerance
	CommonTolerance core.Tolerance   // fragment tolerance for common ions
	XLinkTolerance  core.Tolerance   // fragment tolerance for cross-link ions
	IntensityCutoff float64          // aligner intensity ratio cutoff (0 = off)
	Weights         score.Weights
	TopHits         int           // matches kept per spectrum (0 = all)
	Threads         int           // worker goroutines (0 = runtime.NumCPU())
	SpectrumTimeout time.Duration // scoring budget per spectrum (0 = none)
	Progress        io.Writer     // optional progress lines
}

// DefaultOptions returns the settings for a DSS search.
func DefaultOptions() Options {
	return Options{
		Preprocess: preprocess.DefaultConfig(),
		Candidates: candidate.Config{
			LinkerName:     "DSS",
			LinkerMass:     138.0680796,
			MonoLinkMasses: []float64{156.07864431, 155.094628715},
			Residues1:      "K",
			Residues2:      "K",
			NTermLinker:    true,
			Tolerance:      core.Tolerance{Value: 10, Unit: core.PPM},
			Corrections:    []int{2, 1, 0},
		},
		CommonTolerance: core.Tolerance{Value: 0.2, Unit: core.Dalton},
		XLinkTolerance:  core.Tolerance{Value: 0.3, Unit: core.Dalton},
		Weights:         score.DefaultWeights(),
		TopHits:         5,
	}
}

// Match is a ranked candidate with its precursor mass error.
type Match struct {
	rank.Match
	PrecursorErrorPPM float64
}

// Result holds the matches for one searched spectrum.
type Result struct {
	Index    int            // position of the spectrum in the Run input
	Spectrum *core.Spectrum // preprocessed spectrum
	Matches  []Match
}

// Engine searches spectra against a peptide mass index.
type Engine struct {
	index *index.Index
	opt   Options
}

// NewEngine returns an engine over ix. The index must not be modified
// while a Run is in progress.
func NewEngine(ix *index.Index, opt Options) *Engine {
	if opt.Threads <= 0 {
		opt.Threads = runtime.NumCPU()
	}
	if opt.Weights == (score.Weights{}) {
		opt.Weights = score.DefaultWeights()
	}
	return &Engine{index: ix, opt: opt}
}

type job struct {
	index    int
	spectrum *core.Spectrum
}

// Run preprocesses and searches spectra. Results come back ordered by
// input index; spectra removed by preprocessing have no Result and are
// only counted in Stats. Run stops early when ctx is cancelled.
func (e *Engine) Run(ctx context.Context, spectra []*core.Spectrum) ([]Result, Stats, error) {
	var stats Stats
	stats.SpectraRead = len(spectra)

	var kept []job
	for i, raw := range spectra {
		spec, reason := e.opt.Preprocess.Apply(raw)
		switch reason {
		case preprocess.Kept:
			kept = append(kept, job{index: i, spectrum: spec})
		case preprocess.SkipCharge:
			stats.SkippedCharge++
		case preprocess.SkipTooFewPeaks:
			stats.SkippedTooFewPeaks++
		case preprocess.SkipTooFewProcessed:
			stats.SkippedTooFewPeaksProcessed++
		}
	}
	if len(kept) == 0 {
		return nil, stats, nil
	}

	masses := make([]float64, len(kept))
	for i, j := range kept {
		masses[i] = j.spectrum.PrecursorMass()
	}
	gen := candidate.NewGenerator(e.index, masses, e.opt.Candidates)
	e.progressf("Searching %d spectra against %d precursor candidates with %d threads\n",
		len(kept), len(gen.Precursors()), e.opt.Threads)

	threads := e.opt.Threads
	if threads > len(kept) {
		threads = len(kept)
	}
	jobs := make(chan job, threads*2)
	out := make(chan Result, threads*2)
	workerStats := make([]Stats, threads)

	var wg sync.WaitGroup
	wg.Add(threads)
	for w := 0; w < threads; w++ {
		go func(w int) {
			defer wg.Done()
			s := newScorer(e.opt)
			for {
				select {
				case <-ctx.Done():
					return
				case j, ok := <-jobs:
					if !ok {
						return
					}
					res, done := s.search(ctx, gen, j, &workerStats[w])
					if !done {
						return
					}
					select {
					case out <- res:
					case <-ctx.Done():
						return
					}
				}
			}
		}(w)
	}

	var (
		results []Result
		cwg     sync.WaitGroup
	)
	cwg.Add(1)
	go func() {
		defer cwg.Done()
		for r := range out {
			results = append(results, r)
			if n := len(results); n%progressEvery == 0 {
				e.progressf("Processed %d spectra...\n", n)
			}
		}
	}()

feed:
	for _, j := range kept {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- j:
		}
	}

	close(jobs)
	wg.Wait()
	close(out)
	cwg.Wait()

	for _, ws := range workerStats {
		stats.Merge(ws)
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Index < results[b].Index
	})
	return results, stats, nil
}

func (e *Engine) progressf(format string, args ...interface{}) {
	if e.opt.Progress != nil {
		fmt.Fprintf(e.opt.Progress, format, args...)
	}
}
