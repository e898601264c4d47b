package cat

// StopReason records which condition ended an attempt.
type StopReason string

const (
	StopNone          StopReason = ""
	StopMaxQuestions  StopReason = "max_questions"
	StopStdErr        StopReason = "standard_error"
	StopPoolExhausted StopReason = "pool_exhausted"
)

// ShouldStop evaluates the stopping conditions against the session's current
// state:
//
//   - the maximum number of questions has been answered;
//   - at least the minimum number has been answered and the display standard
//     error is at or below the target;
//   - no eligible item is left in the pool.
//
// The standard error condition never fires before the minimum is reached.
func ShouldStop(s *Session) (bool, StopReason) {
	n := len(s.responses)
	cfg := s.cfg
	if n >= cfg.MaxQuestions {
		return true, StopMaxQuestions
	}
	if n >= cfg.MinQuestions && n > 0 && s.scale.ToDisplay(s.score).StdErr <= cfg.TargetStdErr {
		return true, StopStdErr
	}
	if s.selector.Remaining(s.pool, s.answered) == 0 {
		return true, StopPoolExhausted
	}
	return false, StopNone
}
