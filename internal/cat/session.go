package cat

import (
	"errors"
	"fmt"
	"time"
)

type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// Response is one answered question. Responses are never modified after they
// are appended to a session.
type Response struct {
	ItemID     int64     `json:"item_id"`
	Level      int       `json:"level"`
	Correct    bool      `json:"correct"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Session drives a single examinee's attempt. It is not safe for concurrent
// use; the caller guarantees a single writer.
type Session struct {
	id        string
	cfg       Config
	pool      *Pool
	estimator Estimator
	selector  Selector
	scale     Scale
	hook      Hook
	now       func() time.Time

	state     State
	score     Score
	history   []Score
	responses []Response
	answered  map[int64]bool
	next      *Item
	stop      StopReason
}

type Option func(*Session)

// WithHook injects a lifecycle observer.
func WithHook(h Hook) Option { return func(s *Session) { s.hook = h } }

// WithClock overrides the clock used to timestamp responses.
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// WithEstimator replaces the estimator derived from the config.
func WithEstimator(e Estimator) Option { return func(s *Session) { s.estimator = e } }

// NewSession validates cfg and returns a session in StateNotStarted.
func NewSession(id string, cfg Config, pool *Pool, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if pool == nil {
		return nil, errors.New("cat: nil pool")
	}
	cfg = cfg.WithDefaults()
	s := &Session{
		id:       id,
		cfg:      cfg,
		pool:     pool,
		selector: NewSelector(cfg),
		scale:    cfg.Scale(),
		hook:     NopHook{},
		now:      time.Now,
		state:    StateNotStarted,
		answered: map[int64]bool{},
	}
	for _, o := range opts {
		o(s)
	}
	if s.estimator == nil {
		est, err := NewEstimator(cfg)
		if err != nil {
			return nil, err
		}
		s.estimator = est
	}
	return s, nil
}

// Start moves the session to StateInProgress, places the examinee at the
// starting level and returns the first item.
func (s *Session) Start() (Item, error) {
	if s.state != StateNotStarted {
		return Item{}, fmt.Errorf("%w: start called in state %s", ErrInvalidState, s.state)
	}
	score := s.cfg.InitialScore()
	first, err := s.selector.SelectNext(score, s.pool, s.answered)
	if err != nil {
		return Item{}, &ConfigError{Fields: map[string]string{
			"questionpool": "no valid starting questions in the question pool",
		}}
	}
	s.state = StateInProgress
	s.score = score
	s.history = []Score{score}
	s.next = &first
	s.hook.OnAttemptStart(s.id, score)
	return first, nil
}

// RecordResponse scores an answer to itemID, updates the ability estimate and
// either returns the next item or completes the session. A nil item with a nil
// error means the session is now complete.
//
// On error the session is left untouched.
func (s *Session) RecordResponse(itemID int64, correct bool) (*Item, error) {
	switch s.state {
	case StateCompleted:
		return nil, ErrSessionClosed
	case StateNotStarted:
		return nil, fmt.Errorf("%w: response recorded before start", ErrInvalidState)
	}

	item, ok := s.pool.Item(itemID)
	if !ok {
		return nil, &InvalidItemError{ItemID: itemID, Reason: "not in the question pool"}
	}
	if s.answered[itemID] {
		return nil, &InvalidItemError{ItemID: itemID, Level: item.Level, Reason: "already answered in this attempt"}
	}
	score, err := s.estimator.Update(s.score, item, correct)
	if err != nil {
		return nil, err
	}

	r := Response{ItemID: item.ID, Level: item.Level, Correct: correct, AnsweredAt: s.now().UTC()}
	s.responses = append(s.responses, r)
	s.answered[item.ID] = true
	s.score = score
	s.history = append(s.history, score)
	s.next = nil
	s.hook.OnResponseRecorded(s.id, r, score)

	if stop, reason := ShouldStop(s); stop {
		s.complete(reason)
		return nil, nil
	}
	next, err := s.selector.SelectNext(s.score, s.pool, s.answered)
	if errors.Is(err, ErrPoolExhausted) {
		s.complete(StopPoolExhausted)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.next = &next
	cp := next
	return &cp, nil
}

func (s *Session) complete(reason StopReason) {
	s.state = StateCompleted
	s.stop = reason
	s.next = nil
	s.hook.OnAttemptCompleted(s.id, s.score, reason)
}

func (s *Session) ID() string             { return s.id }
func (s *Session) State() State           { return s.state }
func (s *Session) Config() Config         { return s.cfg }
func (s *Session) Scale() Scale           { return s.scale }
func (s *Session) Score() Score           { return s.score }
func (s *Session) StopReason() StopReason { return s.stop }

// DisplayScore is the current score on the level scale.
func (s *Session) DisplayScore() DisplayScore { return s.scale.ToDisplay(s.score) }

// Next is the item awaiting an answer, or nil.
func (s *Session) Next() *Item {
	if s.next == nil {
		return nil
	}
	cp := *s.next
	return &cp
}

// History returns the initial score followed by one score per response.
func (s *Session) History() []Score {
	out := make([]Score, len(s.history))
	copy(out, s.history)
	return out
}

func (s *Session) Responses() []Response {
	out := make([]Response, len(s.responses))
	copy(out, s.responses)
	return out
}

// Snapshot is the plain-data form of a session for persistence.
type Snapshot struct {
	ID         string     `json:"id"`
	Config     Config     `json:"config"`
	State      State      `json:"state"`
	Score      Score      `json:"score"`
	History    []Score    `json:"history"`
	Responses  []Response `json:"responses"`
	NextItemID int64      `json:"next_item_id,omitempty"`
	StopReason StopReason `json:"stop_reason,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:         s.id,
		Config:     s.cfg,
		State:      s.state,
		Score:      s.score,
		History:    s.History(),
		Responses:  s.Responses(),
		StopReason: s.stop,
	}
	if s.next != nil {
		snap.NextItemID = s.next.ID
	}
	return snap
}

// Restore rebuilds a session from a snapshot against the same pool. Hooks are
// never called: an in-progress snapshot whose pool has nothing left to offer
// comes back completed with StopPoolExhausted and no completion event.
func Restore(snap Snapshot, pool *Pool, opts ...Option) (*Session, error) {
	s, err := NewSession(snap.ID, snap.Config, pool, opts...)
	if err != nil {
		return nil, err
	}
	switch snap.State {
	case StateNotStarted, "":
		return s, nil
	case StateInProgress, StateCompleted:
	default:
		return nil, fmt.Errorf("%w: unknown state %q", ErrInvalidState, snap.State)
	}
	if len(snap.History) != len(snap.Responses)+1 {
		return nil, fmt.Errorf("%w: history has %d entries for %d responses", ErrInvalidState, len(snap.History), len(snap.Responses))
	}

	s.state = snap.State
	s.score = snap.Score
	s.history = append([]Score(nil), snap.History...)
	s.responses = append([]Response(nil), snap.Responses...)
	for _, r := range s.responses {
		s.answered[r.ItemID] = true
	}
	s.stop = snap.StopReason

	if s.state == StateInProgress {
		if it, ok := pool.Item(snap.NextItemID); ok && !s.answered[it.ID] {
			s.next = &it
		} else {
			next, err := s.selector.SelectNext(s.score, pool, s.answered)
			if err != nil {
				s.state = StateCompleted
				s.stop = StopPoolExhausted
				return s, nil
			}
			s.next = &next
		}
	}
	return s, nil
}
