package rules

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Trigger encapsulates the logic for reacting to a specific event and
// producing a chain entry when its condition is satisfied.
type Trigger struct {
	ID         string
	SourceID   string
	Controller string
	// SourceOrder is the order the trigger's source entered play; ties
	// between simultaneous triggers of the same controller break on it.
	SourceOrder int
	// ClauseIndex orders multiple triggers from the same source.
	ClauseIndex int
	EventType   EventType
	Condition   func(Event) bool
	Build       func(Event) ChainEntry
	Once        bool
}

// TriggerManager stores triggers and evaluates events against them.
type TriggerManager struct {
	mu       sync.Mutex
	triggers map[string]Trigger
}

// NewTriggerManager creates an empty trigger manager.
func NewTriggerManager() *TriggerManager {
	return &TriggerManager{triggers: make(map[string]Trigger)}
}

// Register adds a trigger and returns its ID.
func (tm *TriggerManager) Register(trigger Trigger) string {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if trigger.ID == "" {
		trigger.ID = uuid.NewString()
	}
	tm.triggers[trigger.ID] = trigger
	return trigger.ID
}

// Unregister removes a trigger by ID.
func (tm *TriggerManager) Unregister(id string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	delete(tm.triggers, id)
}

// UnregisterSource removes all triggers registered for a source instance.
func (tm *TriggerManager) UnregisterSource(sourceID string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	for id, trigger := range tm.triggers {
		if trigger.SourceID == sourceID {
			delete(tm.triggers, id)
		}
	}
}

// Handle evaluates the event against all registered triggers and returns
// the chain entries they produce, in the order they must be queued:
// the active player's triggers first, then by source order (the order the
// sources entered play), then by clause index. The ordering is total so
// identical inputs always queue identically.
func (tm *TriggerManager) Handle(event Event, activePlayer string) []ChainEntry {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if len(tm.triggers) == 0 {
		return nil
	}

	type firing struct {
		trigger Trigger
	}
	var (
		fired    []firing
		toRemove []string
	)
	for id, trigger := range tm.triggers {
		if trigger.EventType != event.Type {
			continue
		}
		if trigger.Condition != nil && !trigger.Condition(event) {
			continue
		}
		if trigger.Build == nil {
			continue
		}
		fired = append(fired, firing{trigger: trigger})
		if trigger.Once {
			toRemove = append(toRemove, id)
		}
	}

	sort.SliceStable(fired, func(i, j int) bool {
		ti, tj := fired[i].trigger, fired[j].trigger
		iActive := ti.Controller == activePlayer
		jActive := tj.Controller == activePlayer
		if iActive != jActive {
			return iActive
		}
		if ti.SourceOrder != tj.SourceOrder {
			return ti.SourceOrder < tj.SourceOrder
		}
		if ti.ClauseIndex != tj.ClauseIndex {
			return ti.ClauseIndex < tj.ClauseIndex
		}
		return ti.ID < tj.ID
	})

	entries := make([]ChainEntry, 0, len(fired))
	for _, f := range fired {
		entry := f.trigger.Build(event)
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		entries = append(entries, entry)
	}

	for _, id := range toRemove {
		delete(tm.triggers, id)
	}
	return entries
}
