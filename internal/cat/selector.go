package cat

import "math"

// Selector picks the next item to administer. It holds no attempt state.
type Selector struct {
	Lowest  int
	Highest int
	Scale   Scale
}

// NewSelector builds a selector for the configured level bounds.
func NewSelector(cfg Config) Selector {
	return Selector{Lowest: cfg.LowestLevel, Highest: cfg.HighestLevel, Scale: cfg.Scale()}
}

// SelectNext returns the unanswered item whose level is closest to the current
// ability estimate. Ties go to the lowest item ID. Items outside the level
// bounds are never selected. ErrPoolExhausted is returned when nothing is left.
func (s Selector) SelectNext(current Score, pool *Pool, answered map[int64]bool) (Item, error) {
	if pool == nil {
		return Item{}, ErrPoolExhausted
	}
	target := s.Scale.LogitToLevel(current.Ability)

	var (
		best  Item
		found bool
		dist  = math.Inf(1)
	)
	// pool.items is sorted by ID, so a strict comparison keeps the lowest ID
	// among equally distant items.
	for _, it := range pool.items {
		if answered[it.ID] || it.Level < s.Lowest || it.Level > s.Highest {
			continue
		}
		if d := math.Abs(float64(it.Level) - target); d < dist {
			best, dist, found = it, d, true
		}
	}
	if !found {
		return Item{}, ErrPoolExhausted
	}
	return best, nil
}

// Remaining counts eligible unanswered items.
func (s Selector) Remaining(pool *Pool, answered map[int64]bool) int {
	if pool == nil {
		return 0
	}
	n := 0
	for _, it := range pool.items {
		if !answered[it.ID] && it.Level >= s.Lowest && it.Level <= s.Highest {
			n++
		}
	}
	return n
}
