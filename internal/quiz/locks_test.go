package quiz

import (
	"sync"
	"testing"
)

func TestKeyedLocksReleaseEntries(t *testing.T) {
	var k keyedLocks
	var wg sync.WaitGroup
	// Each counter is only touched under its own key's lock.
	counts := map[string]*int{"a": new(int), "b": new(int), "c": new(int)}
	for i := range 50 {
		key := []string{"a", "b", "c"}[i%3]
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.lock(key)
			*counts[key]++
			unlock()
		}()
	}
	wg.Wait()

	if got := *counts["a"] + *counts["b"] + *counts["c"]; got != 50 {
		t.Errorf("counted %d, want 50", got)
	}
	if n := k.len(); n != 0 {
		t.Errorf("%d lock entries left after all unlocks", n)
	}
}
