package cat

// LogitHalfRange is the logit distance from the middle of the level range to
// either bound. The level range [lowest, highest] maps onto
// [-LogitHalfRange, +LogitHalfRange].
const LogitHalfRange = 3.0

// Score is an ability estimate with its measurement uncertainty, both on the
// logit scale. Scores are values: every update produces a new one.
type Score struct {
	Ability float64 `json:"ability"`
	StdErr  float64 `json:"std_err"`
}

// FromLogits builds a Score. A negative standard error is clamped to zero.
func FromLogits(ability, stdErr float64) Score {
	if stdErr < 0 {
		stdErr = 0
	}
	return Score{Ability: ability, StdErr: stdErr}
}

// DisplayScore is a Score expressed on the level (display) scale.
type DisplayScore struct {
	Ability float64 `json:"ability"`
	StdErr  float64 `json:"std_err"`
}

// Scale is the affine map between logits and display levels:
//
//	level = Center + Slope*logit
type Scale struct {
	Center float64 `json:"center"`
	Slope  float64 `json:"slope"`
}

// NewScale derives the scale for a level range. lowest must be below highest.
func NewScale(lowest, highest int) Scale {
	lo, hi := float64(lowest), float64(highest)
	return Scale{
		Center: (lo + hi) / 2,
		Slope:  (hi - lo) / (2 * LogitHalfRange),
	}
}

func (s Scale) LevelToLogit(level float64) float64 { return (level - s.Center) / s.Slope }
func (s Scale) LogitToLevel(logit float64) float64 { return s.Center + s.Slope*logit }

// ToDisplay converts a logit score to the display scale. The standard error
// is a width, so only the slope applies.
func (s Scale) ToDisplay(sc Score) DisplayScore {
	return DisplayScore{
		Ability: s.LogitToLevel(sc.Ability),
		StdErr:  sc.StdErr * s.Slope,
	}
}

// ToLogits is the inverse of ToDisplay.
func (s Scale) ToLogits(d DisplayScore) Score {
	return FromLogits(s.LevelToLogit(d.Ability), d.StdErr/s.Slope)
}
