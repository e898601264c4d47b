package cat

import (
	"encoding/json"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newStarted(t *testing.T, cfg Config, pool *Pool, opts ...Option) (*Session, Item) {
	t.Helper()
	s, err := NewSession("a-1", cfg, pool, append([]Option{WithClock(fixedClock())}, opts...)...)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	first, err := s.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	return s, first
}

func TestSession_FiveCorrectScenario(t *testing.T) {
	s, item := newStarted(t, scenarioConfig(), levelPool(t, 1, 10, 3))
	if item.Level != 5 {
		t.Fatalf("first item level = %d, want starting level 5", item.Level)
	}

	prevAbility := s.Score().Ability
	prevLevel := 0
	for i := 0; i < 5; i++ {
		if s.State() != StateInProgress {
			t.Fatalf("stopped after %d responses, minimum is 5", i)
		}
		if item.Level < prevLevel {
			t.Errorf("response %d: level dropped %d -> %d after correct answers", i, prevLevel, item.Level)
		}
		prevLevel = item.Level

		next, err := s.RecordResponse(item.ID, true)
		if err != nil {
			t.Fatalf("RecordResponse %d: %v", i, err)
		}
		if s.Score().Ability <= prevAbility {
			t.Errorf("response %d: ability did not rise: %v -> %v", i, prevAbility, s.Score().Ability)
		}
		prevAbility = s.Score().Ability
		if next == nil {
			if i < 4 {
				t.Fatalf("session completed after %d responses", i+1)
			}
			break
		}
		item = *next
	}
	if got := len(s.History()); got != 6 {
		t.Errorf("history length = %d, want 6", got)
	}
}

func TestSession_NoStopBeforeMinimumEvenWithLowStdErr(t *testing.T) {
	cfg := scenarioConfig()
	cfg.TargetStdErr = 49 // met after the very first response
	s, item := newStarted(t, cfg, levelPool(t, 1, 10, 3))

	for i := 0; i < 5; i++ {
		if i >= 3 && s.DisplayScore().StdErr > cfg.TargetStdErr {
			t.Fatalf("std err %v not below target", s.DisplayScore().StdErr)
		}
		next, err := s.RecordResponse(item.ID, true)
		if err != nil {
			t.Fatal(err)
		}
		if i < 4 {
			if next == nil || s.State() != StateInProgress {
				t.Fatalf("stopped after %d responses", i+1)
			}
			item = *next
		}
	}
	if s.State() != StateCompleted || s.StopReason() != StopStdErr {
		t.Errorf("state=%s reason=%s, want completed/standard_error", s.State(), s.StopReason())
	}
}

func TestSession_NeverStopsBeforeMinimum(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 60; run++ {
		cfg := scenarioConfig()
		cfg.MinQuestions = 1 + rng.Intn(10)
		cfg.MaxQuestions = cfg.MinQuestions + 1 + rng.Intn(10)
		cfg.TargetStdErr = rng.Float64() * 49
		if run%2 == 1 {
			cfg.Model = ModelFisher
		}
		s, item := newStarted(t, cfg, levelPool(t, 1, 10, 3))
		for n := 1; ; n++ {
			next, err := s.RecordResponse(item.ID, rng.Intn(2) == 0)
			if err != nil {
				t.Fatalf("run %d: %v", run, err)
			}
			if next == nil {
				if n < cfg.MinQuestions {
					t.Fatalf("run %d: completed after %d responses, min %d", run, n, cfg.MinQuestions)
				}
				if n > cfg.MaxQuestions {
					t.Fatalf("run %d: ran past max", run)
				}
				break
			}
			item = *next
		}
	}
}

func TestSession_RecordOnCompletedSession(t *testing.T) {
	cfg := scenarioConfig()
	cfg.MinQuestions, cfg.MaxQuestions = 1, 2
	s, item := newStarted(t, cfg, levelPool(t, 1, 10, 3))
	next, err := s.RecordResponse(item.ID, false)
	if err != nil || next == nil {
		t.Fatalf("first response: next=%v err=%v", next, err)
	}
	if n, _ := s.RecordResponse(next.ID, true); n != nil {
		t.Fatalf("expected completion at max questions")
	}
	if s.StopReason() != StopMaxQuestions {
		t.Errorf("reason = %s", s.StopReason())
	}

	before := s.Snapshot()
	_, err = s.RecordResponse(301, true)
	if !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("got %v, want ErrSessionClosed", err)
	}
	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Errorf("state changed (-before +after):\n%s", diff)
	}
}

func TestSession_SmallPoolExhausts(t *testing.T) {
	cfg := scenarioConfig()
	cfg.MinQuestions, cfg.MaxQuestions = 5, 10
	pool, _ := NewPool([]Item{{ID: 1, Level: 4}, {ID: 2, Level: 5}, {ID: 3, Level: 6}})
	s, item := newStarted(t, cfg, pool)

	for i := 0; i < 3; i++ {
		next, err := s.RecordResponse(item.ID, i%2 == 0)
		if err != nil {
			t.Fatalf("response %d: %v", i, err)
		}
		if i < 2 {
			if next == nil {
				t.Fatalf("completed early after %d", i+1)
			}
			item = *next
		} else if next != nil {
			t.Fatalf("expected completion, got next %d", next.ID)
		}
	}
	if stop, reason := ShouldStop(s); !stop || reason != StopPoolExhausted {
		t.Errorf("ShouldStop = %v, %s", stop, reason)
	}
	if s.State() != StateCompleted || s.StopReason() != StopPoolExhausted {
		t.Errorf("state=%s reason=%s", s.State(), s.StopReason())
	}
}

func TestSession_StateMachineMisuse(t *testing.T) {
	pool := levelPool(t, 1, 10, 1)
	s, err := NewSession("a-2", scenarioConfig(), pool)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordResponse(501, true); !errors.Is(err, ErrInvalidState) {
		t.Errorf("record before start: %v", err)
	}
	item, err := s.Start()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Start(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second start: %v", err)
	}
	if _, err := s.RecordResponse(999, true); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("unknown item: %v", err)
	}
	if _, err := s.RecordResponse(item.ID, true); err != nil {
		t.Fatal(err)
	}
	before := s.Snapshot()
	if _, err := s.RecordResponse(item.ID, true); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("answered twice: %v", err)
	}
	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Errorf("failed response changed state:\n%s", diff)
	}
}

func TestSession_InvalidConfigNeverStarts(t *testing.T) {
	cfg := scenarioConfig()
	cfg.StartingLevel = 12
	if _, err := NewSession("x", cfg, levelPool(t, 1, 10, 1)); !errors.Is(err, ErrConfiguration) {
		t.Errorf("got %v", err)
	}
}

func TestSession_StartWithoutEligibleItems(t *testing.T) {
	pool, _ := NewPool([]Item{{ID: 1, Level: 40}})
	s, err := NewSession("x", scenarioConfig(), pool)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Start(); !errors.Is(err, ErrConfiguration) {
		t.Errorf("got %v, want ErrConfiguration", err)
	}
	if s.State() != StateNotStarted {
		t.Errorf("state = %s", s.State())
	}
}

func TestSession_HookSequence(t *testing.T) {
	cfg := scenarioConfig()
	cfg.MinQuestions, cfg.MaxQuestions = 1, 2
	h := &recordingHook{}
	s, item := newStarted(t, cfg, levelPool(t, 1, 10, 2), WithHook(h))
	next, _ := s.RecordResponse(item.ID, true)
	_, _ = s.RecordResponse(next.ID, false)

	want := []string{
		"start:a-1",
		"response:a-1:right",
		"response:a-1:wrong",
		"completed:a-1:max_questions",
	}
	if diff := cmp.Diff(want, h.events); diff != "" {
		t.Errorf("hook events (-want +got):\n%s", diff)
	}
}

func TestSession_SnapshotRestore(t *testing.T) {
	pool := levelPool(t, 1, 10, 3)
	answers := []bool{true, false, true, true, false, false, true, true}

	a, item := newStarted(t, scenarioConfig(), pool)
	for _, c := range answers[:4] {
		next, err := a.RecordResponse(item.ID, c)
		if err != nil || next == nil {
			t.Fatalf("next=%v err=%v", next, err)
		}
		item = *next
	}

	raw, err := json.Marshal(a.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatal(err)
	}
	b, err := Restore(snap, pool, WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if diff := cmp.Diff(a.Snapshot(), b.Snapshot()); diff != "" {
		t.Fatalf("restored snapshot differs:\n%s", diff)
	}
	if b.Next() == nil || b.Next().ID != item.ID {
		t.Fatalf("restored next item = %v, want %d", b.Next(), item.ID)
	}

	for _, c := range answers[4:] {
		na, errA := a.RecordResponse(a.Next().ID, c)
		nb, errB := b.RecordResponse(b.Next().ID, c)
		if errA != nil || errB != nil {
			t.Fatalf("errA=%v errB=%v", errA, errB)
		}
		if (na == nil) != (nb == nil) || (na != nil && na.ID != nb.ID) {
			t.Fatalf("sessions diverged: %v vs %v", na, nb)
		}
		if na == nil {
			break
		}
	}
	if diff := cmp.Diff(a.Score(), b.Score()); diff != "" {
		t.Errorf("scores diverged:\n%s", diff)
	}
}

func TestRestore_RejectsInconsistentHistory(t *testing.T) {
	snap := Snapshot{ID: "x", Config: scenarioConfig(), State: StateInProgress, History: nil, Responses: []Response{{ItemID: 1}}}
	if _, err := Restore(snap, levelPool(t, 1, 10, 1)); !errors.Is(err, ErrInvalidState) {
		t.Errorf("got %v", err)
	}
}

func TestRestore_ExhaustedPoolFiresNoHook(t *testing.T) {
	a, item := newStarted(t, scenarioConfig(), levelPool(t, 1, 10, 1))
	if _, err := a.RecordResponse(item.ID, true); err != nil {
		t.Fatal(err)
	}
	only, err := NewPool([]Item{item})
	if err != nil {
		t.Fatal(err)
	}
	h := &recordingHook{}
	b, err := Restore(a.Snapshot(), only, WithHook(h))
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if b.State() != StateCompleted || b.StopReason() != StopPoolExhausted || b.Next() != nil {
		t.Errorf("restored state=%s reason=%s next=%v", b.State(), b.StopReason(), b.Next())
	}
	if len(h.events) != 0 {
		t.Errorf("hook called during restore: %v", h.events)
	}
}
