package rules

import (
	"errors"
	"sync"
)

// EntryKind describes the type of object on the chain.
type EntryKind string

const (
	// EntrySpell represents a spell being played.
	EntrySpell EntryKind = "SPELL"
	// EntryActivated represents an activated ability.
	EntryActivated EntryKind = "ACTIVATED"
	// EntryTriggered represents a triggered ability.
	EntryTriggered EntryKind = "TRIGGERED"
)

// ChainEntry represents a single pending spell or ability on the chain.
// An entry with unresolved mandatory targets reports Ready == false and
// may not resolve.
type ChainEntry struct {
	ID          string
	Controller  string
	Description string
	Kind        EntryKind
	SourceID    string
	ClauseIndex int
	// Targets holds the chosen target IDs per op index of the entry's
	// clause.
	Targets map[int][]string
	// NeedsTargets marks entries whose clause has mandatory target specs.
	NeedsTargets bool
	// Ready reports that all mandatory targets are set.
	Ready    bool
	Metadata map[string]string
	Resolve  func() error
	// OnFizzle runs when the entry is removed without resolving (illegal
	// targets at resolution time).
	OnFizzle func()
}

// Resolvable reports whether the entry may resolve.
func (e *ChainEntry) Resolvable() bool {
	return !e.NeedsTargets || e.Ready
}

// Chain manages the pending-effect chain. Entries resolve last-in,
// first-out.
type Chain struct {
	mu      sync.Mutex
	entries []ChainEntry
}

// NewChain creates an empty chain.
func NewChain() *Chain {
	return &Chain{entries: make([]ChainEntry, 0, 16)}
}

// Push adds an entry to the top of the chain.
func (c *Chain) Push(entry ChainEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry.Targets == nil {
		entry.Targets = make(map[int][]string)
	}
	c.entries = append(c.entries, entry)
}

// Pop removes and returns the top entry.
func (c *Chain) Pop() (ChainEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		return ChainEntry{}, errors.New("chain empty")
	}
	idx := len(c.entries) - 1
	entry := c.entries[idx]
	c.entries = c.entries[:idx]
	return entry, nil
}

// Peek returns the top entry without removing it.
func (c *Chain) Peek() (ChainEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		return ChainEntry{}, false
	}
	return c.entries[len(c.entries)-1], true
}

// SetTargets stores a target selection for the identified entry's op and
// marks the entry ready when markReady is true.
func (c *Chain) SetTargets(entryID string, opIndex int, targets []string, markReady bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.entries {
		if c.entries[i].ID != entryID {
			continue
		}
		if c.entries[i].Targets == nil {
			c.entries[i].Targets = make(map[int][]string)
		}
		c.entries[i].Targets[opIndex] = append([]string(nil), targets...)
		if markReady {
			c.entries[i].Ready = true
		}
		return true
	}
	return false
}

// Remove deletes an entry from anywhere in the chain by ID.
func (c *Chain) Remove(id string) (ChainEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for idx := len(c.entries) - 1; idx >= 0; idx-- {
		if c.entries[idx].ID == id {
			entry := c.entries[idx]
			c.entries = append(c.entries[:idx], c.entries[idx+1:]...)
			return entry, true
		}
	}
	return ChainEntry{}, false
}

// List returns a copy of all entries (topmost last).
func (c *Chain) List() []ChainEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	cpy := make([]ChainEntry, len(c.entries))
	copy(cpy, c.entries)
	return cpy
}

// IsEmpty reports whether the chain holds no entries.
func (c *Chain) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries) == 0
}

// Len returns the number of entries.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RemoveIllegalEntries removes entries the checker reports as illegal and
// returns their IDs. Each removed entry's OnFizzle hook runs.
func (c *Chain) RemoveIllegalEntries(checker *LegalityChecker) []string {
	if checker == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []string
	valid := make([]ChainEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		result := checker.CheckChainEntry(entry)
		if !result.Legal {
			removed = append(removed, entry.ID)
			if entry.OnFizzle != nil {
				entry.OnFizzle()
			}
			continue
		}
		valid = append(valid, entry)
	}
	c.entries = valid
	return removed
}
