package cat

import (
	"testing"
	"time"
)

// levelPool builds perLevel items for every level in [lo, hi]. IDs are
// level*100 + k so ordering by ID follows level.
func levelPool(t *testing.T, lo, hi, perLevel int) *Pool {
	t.Helper()
	var items []Item
	for lvl := lo; lvl <= hi; lvl++ {
		for k := 1; k <= perLevel; k++ {
			items = append(items, Item{ID: int64(lvl*100 + k), Level: lvl, Category: "c1"})
		}
	}
	p, err := NewPool(items)
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	return p
}

func fixedClock() func() time.Time {
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return t0.Add(time.Duration(n) * time.Second)
	}
}

func scenarioConfig() Config {
	return Config{
		StartingLevel: 5,
		LowestLevel:   1,
		HighestLevel:  10,
		MinQuestions:  5,
		MaxQuestions:  20,
		TargetStdErr:  1.0,
	}
}

type recordingHook struct {
	events []string
}

func (h *recordingHook) OnAttemptStart(id string, _ Score) {
	h.events = append(h.events, "start:"+id)
}
func (h *recordingHook) OnResponseRecorded(id string, r Response, _ Score) {
	c := "wrong"
	if r.Correct {
		c = "right"
	}
	h.events = append(h.events, "response:"+id+":"+c)
}
func (h *recordingHook) OnAttemptCompleted(id string, _ Score, reason StopReason) {
	h.events = append(h.events, "completed:"+id+":"+string(reason))
}
