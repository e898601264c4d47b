package cat

// Hook observes a session's lifecycle. Calls are synchronous and happen after
// the session state has changed. The persistence layer implements it; the
// engine itself keeps no durable state.
type Hook interface {
	OnAttemptStart(attemptID string, initial Score)
	OnResponseRecorded(attemptID string, r Response, score Score)
	OnAttemptCompleted(attemptID string, final Score, reason StopReason)
}

// NopHook ignores every event.
type NopHook struct{}

func (NopHook) OnAttemptStart(string, Score)                 {}
func (NopHook) OnResponseRecorded(string, Response, Score)   {}
func (NopHook) OnAttemptCompleted(string, Score, StopReason) {}
