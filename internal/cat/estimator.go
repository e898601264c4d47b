package cat

import (
	"fmt"
	"math"
)

// Estimator turns the current score and one scored response into a new score.
// Implementations are pure: the input score is never modified.
//
// Every implementation guarantees that a correct answer never lowers the
// ability estimate, an incorrect one never raises it, and the standard error
// never grows.
type Estimator interface {
	Update(current Score, item Item, correct bool) (Score, error)
}

// NewEstimator builds the estimator selected by cfg.Model.
func NewEstimator(cfg Config) (Estimator, error) {
	cfg = cfg.WithDefaults()
	b := newBounds(cfg)
	switch cfg.Model {
	case ModelBayes:
		return &BayesEstimator{bounds: b}, nil
	case ModelFisher:
		return &FisherEstimator{bounds: b}, nil
	default:
		return nil, &ConfigError{Fields: map[string]string{"catmodel": fmt.Sprintf("unknown model %q", cfg.Model)}}
	}
}

// probitScale converts a logistic slope into the equivalent normal-ogive slope.
const probitScale = 1.702

type bounds struct {
	lowest, highest int
	scale           Scale
	minAbility      float64
	maxAbility      float64
}

func newBounds(cfg Config) bounds {
	return bounds{
		lowest:     cfg.LowestLevel,
		highest:    cfg.HighestLevel,
		scale:      cfg.Scale(),
		minAbility: -2 * LogitHalfRange,
		maxAbility: 2 * LogitHalfRange,
	}
}

// difficulty returns the item's difficulty in logits.
func (b bounds) difficulty(it Item) (float64, error) {
	if it.Level < b.lowest || it.Level > b.highest {
		return 0, &InvalidItemError{
			ItemID: it.ID,
			Level:  it.Level,
			Reason: fmt.Sprintf("level outside [%d, %d]", b.lowest, b.highest),
		}
	}
	return b.scale.LevelToLogit(float64(it.Level)), nil
}

func (b bounds) clampAbility(v float64) float64 {
	return math.Max(b.minAbility, math.Min(b.maxAbility, v))
}

// BayesEstimator keeps a normal posterior N(ability, stdErr²) and updates it
// with the exact posterior moments under a normal-ogive response function.
// The posterior variance shrinks with every response.
type BayesEstimator struct {
	bounds
}

func (e *BayesEstimator) Update(current Score, item Item, correct bool) (Score, error) {
	b, err := e.difficulty(item)
	if err != nil {
		return Score{}, err
	}
	a := item.slope() / probitScale
	mu, v := current.Ability, current.StdErr*current.StdErr
	if v == 0 {
		return current, nil
	}

	s := math.Sqrt(1/(a*a) + v)
	z := (mu - b) / s

	var shift, k float64
	if correct {
		lambda := millsRatio(z)
		shift = v / s * lambda
		k = lambda * (lambda + z)
	} else {
		lambda := millsRatio(-z)
		shift = -v / s * lambda
		k = lambda * (lambda - z)
	}
	k = math.Max(0, math.Min(1, k))
	nv := v * (1 - v/(s*s)*k)

	return FromLogits(e.clampAbility(mu+shift), math.Min(current.StdErr, math.Sqrt(nv))), nil
}

// millsRatio returns φ(z)/Φ(z).
func millsRatio(z float64) float64 {
	cdf := 0.5 * math.Erfc(-z/math.Sqrt2)
	if cdf > 0 {
		pdf := math.Exp(-z*z/2) / math.Sqrt(2*math.Pi)
		return pdf / cdf
	}
	// Far left tail: φ(z)/Φ(z) ≈ -z / (1 - 1/z²).
	return -z / (1 - 1/(z*z))
}

// FisherEstimator treats the standard error as the inverse square root of the
// information gathered so far and moves the ability by one Newton step of the
// logistic log-likelihood per response.
type FisherEstimator struct {
	bounds
}

func (e *FisherEstimator) Update(current Score, item Item, correct bool) (Score, error) {
	b, err := e.difficulty(item)
	if err != nil {
		return Score{}, err
	}
	if current.StdErr == 0 {
		return current, nil
	}
	a := item.slope()
	p := logistic(a * (current.Ability - b))
	info := 1/(current.StdErr*current.StdErr) + a*a*p*(1-p)

	x := 0.0
	if correct {
		x = 1
	}
	ability := current.Ability + a*(x-p)/info

	return FromLogits(e.clampAbility(ability), math.Min(current.StdErr, 1/math.Sqrt(info))), nil
}

func logistic(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// ProbabilityCorrect is the logistic response probability for an examinee of
// the given ability (logits). Used by simulations and reports.
func ProbabilityCorrect(ability float64, item Item, scale Scale) float64 {
	return logistic(item.slope() * (ability - scale.LevelToLogit(float64(item.Level))))
}
