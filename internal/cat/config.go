package cat

import "fmt"

// Model selects the ability estimation algorithm.
type Model string

const (
	// ModelBayes is a sequential Bayesian update of a normal posterior under
	// a normal-ogive response function (Owen's procedure).
	ModelBayes Model = "bayes"
	// ModelFisher is a one-step Newton update of the logistic likelihood with
	// accumulated Fisher information.
	ModelFisher Model = "fisher"
)

const (
	// DefaultInitialStdErr is the prior standard error in logits.
	DefaultInitialStdErr = 2.0
	// MaxTargetStdErr is the exclusive upper bound of the target standard error.
	MaxTargetStdErr = 50.0
)

// Config holds the settings an attempt runs with. Levels and the target
// standard error are on the display scale; InitialStdErr is in logits.
type Config struct {
	StartingLevel int     `json:"starting_level" yaml:"startinglevel"`
	LowestLevel   int     `json:"lowest_level" yaml:"lowestlevel"`
	HighestLevel  int     `json:"highest_level" yaml:"highestlevel"`
	MinQuestions  int     `json:"min_questions" yaml:"minimumquestions"`
	MaxQuestions  int     `json:"max_questions" yaml:"maximumquestions"`
	TargetStdErr  float64 `json:"target_std_err" yaml:"standarderror"`
	InitialStdErr float64 `json:"initial_std_err,omitempty" yaml:"initialstderr"`
	Model         Model   `json:"model,omitempty" yaml:"catmodel"`
}

// DefaultConfig mirrors the plugin-wide defaults.
func DefaultConfig() Config {
	return Config{
		StartingLevel: 5,
		LowestLevel:   1,
		HighestLevel:  10,
		MinQuestions:  5,
		MaxQuestions:  20,
		TargetStdErr:  1.0,
		InitialStdErr: DefaultInitialStdErr,
		Model:         ModelBayes,
	}
}

// WithDefaults fills optional fields.
func (c Config) WithDefaults() Config {
	if c.InitialStdErr == 0 {
		c.InitialStdErr = DefaultInitialStdErr
	}
	if c.Model == "" {
		c.Model = ModelBayes
	}
	return c
}

// Validate checks every bound and reports all violations at once as a
// *ConfigError.
func (c Config) Validate() error {
	c = c.WithDefaults()
	ce := &ConfigError{}

	positive := []struct {
		name string
		v    int
	}{
		{"minimumquestions", c.MinQuestions},
		{"maximumquestions", c.MaxQuestions},
		{"startinglevel", c.StartingLevel},
		{"lowestlevel", c.LowestLevel},
		{"highestlevel", c.HighestLevel},
	}
	for _, p := range positive {
		if p.v <= 0 {
			ce.add(p.name, "must be a positive number")
		}
	}
	if c.TargetStdErr < 0 || c.TargetStdErr >= MaxTargetStdErr {
		ce.add("standarderror", fmt.Sprintf("must be at least 0 and less than %g", MaxTargetStdErr))
	}
	if c.InitialStdErr < 0 {
		ce.add("initialstderr", "must be positive")
	}
	if c.MinQuestions >= c.MaxQuestions {
		ce.add("minimumquestions", "must be less than maximumquestions")
	}
	if c.LowestLevel >= c.HighestLevel {
		ce.add("lowestlevel", "must be less than highestlevel")
	}
	if c.StartingLevel < c.LowestLevel || c.StartingLevel > c.HighestLevel {
		ce.add("startinglevel", "must lie between lowestlevel and highestlevel")
	}
	switch c.Model {
	case ModelBayes, ModelFisher:
	default:
		ce.add("catmodel", fmt.Sprintf("unknown model %q", c.Model))
	}

	if len(ce.Fields) > 0 {
		return ce
	}
	return nil
}

// Scale returns the logit/display map for the configured level bounds.
func (c Config) Scale() Scale { return NewScale(c.LowestLevel, c.HighestLevel) }

// InitialScore is the score an attempt starts from.
func (c Config) InitialScore() Score {
	c = c.WithDefaults()
	return FromLogits(c.Scale().LevelToLogit(float64(c.StartingLevel)), c.InitialStdErr)
}
