package cat

import (
	"fmt"
	"sort"
)

// Item is a question as the engine sees it.
type Item struct {
	ID       int64  `json:"id"`
	Level    int    `json:"level"`
	Category string `json:"category,omitempty"`
	// Discrimination scales the slope of the response curve; 0 means 1.
	Discrimination float64 `json:"discrimination,omitempty"`
}

func (it Item) slope() float64 {
	if it.Discrimination <= 0 {
		return 1
	}
	return it.Discrimination
}

// Pool is an immutable set of items ordered by ID. It is safe to share
// between sessions.
type Pool struct {
	items []Item
	byID  map[int64]int
}

// NewPool copies items into a pool. Duplicate IDs are rejected.
func NewPool(items []Item) (*Pool, error) {
	cp := make([]Item, len(items))
	copy(cp, items)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].ID < cp[j].ID })

	byID := make(map[int64]int, len(cp))
	for i, it := range cp {
		if _, dup := byID[it.ID]; dup {
			return nil, fmt.Errorf("cat: duplicate item id %d in pool", it.ID)
		}
		byID[it.ID] = i
	}
	return &Pool{items: cp, byID: byID}, nil
}

func (p *Pool) Len() int { return len(p.items) }

// Items returns a copy of the pool contents, ordered by ID.
func (p *Pool) Items() []Item {
	out := make([]Item, len(p.items))
	copy(out, p.items)
	return out
}

func (p *Pool) Item(id int64) (Item, bool) {
	i, ok := p.byID[id]
	if !ok {
		return Item{}, false
	}
	return p.items[i], true
}

// CountAtLevel counts the items at exactly the given level.
func (p *Pool) CountAtLevel(level int) int {
	n := 0
	for _, it := range p.items {
		if it.Level == level {
			n++
		}
	}
	return n
}
