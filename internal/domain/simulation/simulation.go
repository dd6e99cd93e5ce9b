// Package simulation draws Monte Carlo final scores around a deterministic
// projection and summarizes them.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	defaultSamples      = 1000
	defaultPossessionSD = 3.5
	defaultPPPSD        = 0.04
	defaultFloor        = 50
	ctxCheckEvery       = 1024
)

// ErrInvalidInput is returned for non-finite projection inputs.
var ErrInvalidInput = errors.New("simulation input is not finite")

// Input is the deterministic projection the trials are centered on.
type Input struct {
	Possessions float64
	PPPAway     float64
	PPPHome     float64
	HomeEdge    float64
	// Samples overrides the simulator default when positive.
	Samples int
}

// Summary aggregates the simulated scores.
type Summary struct {
	Samples      int     `json:"samples"`
	AwayMean     float64 `json:"awayMean"`
	HomeMean     float64 `json:"homeMean"`
	AwayQ25      float64 `json:"awayQ25"`
	AwayQ75      float64 `json:"awayQ75"`
	HomeQ25      float64 `json:"homeQ25"`
	HomeQ75      float64 `json:"homeQ75"`
	TotalMean    float64 `json:"totalMean"`
	TotalQ25     float64 `json:"totalQ25"`
	TotalQ75     float64 `json:"totalQ75"`
	HomeWinProb  float64 `json:"homeWinProb"`
	AwayWinProb  float64 `json:"awayWinProb"`
	MarginStdDev float64 `json:"marginStdDev"`
	// AnalyticHomeWinProb is the normal approximation of the home margin.
	AnalyticHomeWinProb float64 `json:"analyticHomeWinProb"`
}

// Simulator runs independent trials. It is safe for concurrent use; every
// run owns its random streams.
type Simulator struct {
	samples int
	possSD  float64
	pppSD   float64
	floor   float64
	workers int
	seed    uint64
	seeded  bool
}

// New creates a Simulator with the documented defaults.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		samples: defaultSamples,
		possSD:  defaultPossessionSD,
		pppSD:   defaultPPPSD,
		floor:   defaultFloor,
		workers: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Samples is the default trial count.
func (s *Simulator) Samples() int { return s.samples }

// Run draws the trials and summarizes them. Percentiles are taken only after
// every trial has been collected.
func (s *Simulator) Run(ctx context.Context, in Input) (Summary, error) {
	if !finite(in.Possessions) || !finite(in.PPPAway) || !finite(in.PPPHome) || !finite(in.HomeEdge) {
		return Summary{}, ErrInvalidInput
	}
	n := s.samples
	if in.Samples > 0 {
		n = in.Samples
	}
	away := make([]float64, n)
	home := make([]float64, n)

	seed := s.seed
	if !s.seeded {
		seed = rand.Uint64() //nolint:gosec // not a security context
	}
	workers := max(1, min(s.workers, n))

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for w := range workers {
		// Even split; every worker gets at least one trial since workers <= n.
		lo, hi := w*n/workers, (w+1)*n/workers
		wg.Add(1)
		go func() {
			defer wg.Done()
			z := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewPCG(seed, uint64(w))}
			errs[w] = s.trials(ctx, z, in, away[lo:hi], home[lo:hi])
		}()
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return Summary{}, fmt.Errorf("simulation aborted: %w", err)
	}

	return s.summarize(in, away, home), nil
}

func (s *Simulator) trials(ctx context.Context, z distuv.Normal, in Input, away, home []float64) error {
	for i := range away {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		p := math.Max(s.floor, in.Possessions+s.possSD*z.Rand())
		a := (in.PPPAway + s.pppSD*z.Rand()) * p
		h := (in.PPPHome+s.pppSD*z.Rand())*p + in.HomeEdge
		away[i], home[i] = a, h
	}
	return nil
}

func (s *Simulator) summarize(in Input, away, home []float64) Summary {
	n := len(away)
	total := make([]float64, n)
	margin := make([]float64, n)
	homeWins := 0
	for i := range away {
		total[i] = away[i] + home[i]
		margin[i] = home[i] - away[i]
		if home[i] > away[i] {
			homeWins++
		}
	}

	sum := Summary{Samples: n}
	sum.AwayMean, sum.AwayQ25, sum.AwayQ75 = describe(away)
	sum.HomeMean, sum.HomeQ25, sum.HomeQ75 = describe(home)
	sum.TotalMean, sum.TotalQ25, sum.TotalQ75 = describe(total)
	sum.HomeWinProb = float64(homeWins) / float64(n)
	sum.AwayWinProb = 1 - sum.HomeWinProb
	if n > 1 {
		sum.MarginStdDev = stat.StdDev(margin, nil)
	}
	sum.AnalyticHomeWinProb = s.analytic(in)
	return sum
}

// analytic treats the home margin p*(pH-pA)+edge as normal, with the
// variance of a product of independent normals.
func (s *Simulator) analytic(in Input) float64 {
	d := in.PPPHome - in.PPPAway
	mu := in.Possessions*d + in.HomeEdge
	diffVar := 2 * s.pppSD * s.pppSD
	possVar := s.possSD * s.possSD
	variance := in.Possessions*in.Possessions*diffVar + d*d*possVar + possVar*diffVar
	if variance <= 0 {
		if mu > 0 {
			return 1
		}
		return 0
	}
	margin := distuv.Normal{Mu: mu, Sigma: math.Sqrt(variance)}
	return 1 - margin.CDF(0)
}

// describe sorts xs in place and returns the mean and the 25th and 75th
// percentiles at index floor(q*(n-1)). The mean is bounded by the sample range.
func describe(xs []float64) (mean, q25, q75 float64) {
	slices.Sort(xs)
	mean = stat.Mean(xs, nil)
	mean = math.Min(math.Max(mean, xs[0]), xs[len(xs)-1])
	return mean, quantile(xs, 0.25), quantile(xs, 0.75)
}

func quantile(sorted []float64, q float64) float64 {
	idx := int(math.Floor(q * float64(len(sorted)-1)))
	return sorted[max(0, min(idx, len(sorted)-1))]
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
