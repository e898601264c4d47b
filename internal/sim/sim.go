// Package sim runs simulated examinees through the adaptive engine to check
// how well a quiz configuration and pool recover known abilities.
package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/mindengage-adaptivequiz/internal/cat"
)

type Params struct {
	Config    cat.Config
	Pool      *cat.Pool
	Examinees int
	Seed      uint64
	Workers   int // 0 = GOMAXPROCS
	// True abilities are drawn from N(AbilityMean, AbilitySD) in logits.
	AbilityMean float64
	AbilitySD   float64
}

// Examinee is one simulated attempt.
type Examinee struct {
	Index       int
	TrueAbility float64 // logits
	Estimate    cat.Score
	Answered    int
	Reason      cat.StopReason
}

// Error is estimate minus truth in logits.
func (e Examinee) Error() float64 { return e.Estimate.Ability - e.TrueAbility }

type Summary struct {
	Config     cat.Config
	Examinees  []Examinee // ordered by Index
	Bias       float64    // mean error, logits
	RMSE       float64    // logits
	MeanLength float64
	MeanStdErr float64 // logits
	Reasons    map[cat.StopReason]int
}

// Run simulates p.Examinees attempts concurrently. Each examinee draws from
// its own generator seeded from (Seed, index), so results do not depend on
// scheduling.
func Run(ctx context.Context, p Params) (Summary, error) {
	if p.Pool == nil || p.Pool.Len() == 0 {
		return Summary{}, fmt.Errorf("%w: empty pool", cat.ErrConfiguration)
	}
	if p.Examinees <= 0 {
		return Summary{}, fmt.Errorf("examinees must be positive, got %d", p.Examinees)
	}
	cfg := p.Config.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}
	sd := p.AbilitySD
	if sd <= 0 {
		sd = 1
	}
	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := make([]Examinee, p.Examinees)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range out {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(p.Seed, uint64(i)))
			truth := p.AbilityMean + sd*rng.NormFloat64()
			ex, err := simulate(i, truth, cfg, p.Pool, rng)
			if err != nil {
				return fmt.Errorf("examinee %d: %w", i, err)
			}
			out[i] = ex
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return summarise(cfg, out), nil
}

func simulate(idx int, truth float64, cfg cat.Config, pool *cat.Pool, rng *rand.Rand) (Examinee, error) {
	sess, err := cat.NewSession(fmt.Sprintf("sim-%d", idx), cfg, pool)
	if err != nil {
		return Examinee{}, err
	}
	first, err := sess.Start()
	if err != nil {
		return Examinee{}, err
	}
	scale := sess.Scale()
	next := &first
	for next != nil {
		correct := rng.Float64() < cat.ProbabilityCorrect(truth, *next, scale)
		if next, err = sess.RecordResponse(next.ID, correct); err != nil {
			return Examinee{}, err
		}
	}
	return Examinee{
		Index:       idx,
		TrueAbility: truth,
		Estimate:    sess.Score(),
		Answered:    len(sess.Responses()),
		Reason:      sess.StopReason(),
	}, nil
}

func summarise(cfg cat.Config, ex []Examinee) Summary {
	s := Summary{Config: cfg, Examinees: ex, Reasons: map[cat.StopReason]int{}}
	var sumErr, sumSq, sumLen, sumSE float64
	for _, e := range ex {
		d := e.Error()
		sumErr += d
		sumSq += d * d
		sumLen += float64(e.Answered)
		sumSE += e.Estimate.StdErr
		s.Reasons[e.Reason]++
	}
	n := float64(len(ex))
	s.Bias = sumErr / n
	s.RMSE = math.Sqrt(sumSq / n)
	s.MeanLength = sumLen / n
	s.MeanStdErr = sumSE / n
	return s
}

// ReasonKeys returns the stop reasons present, sorted.
func (s Summary) ReasonKeys() []cat.StopReason {
	out := make([]cat.StopReason, 0, len(s.Reasons))
	for r := range s.Reasons {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
