package rules

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// DelayedTrigger is a scheduled one-shot check: "this turn, the next time
// X happens, do Y". Consumed when it fires, or expired at the end of the
// turn named by ExpiresAfterTurn.
type DelayedTrigger struct {
	ID         string
	SourceID   string
	Controller string
	EventType  EventType
	Condition  func(Event) bool
	Build      func(Event) ChainEntry
	// ExpiresAfterTurn is the last turn number the trigger may fire in;
	// zero means it never expires by turn.
	ExpiresAfterTurn int
}

// DelayedTriggerManager stores delayed triggers.
type DelayedTriggerManager struct {
	mu       sync.Mutex
	triggers map[string]DelayedTrigger
}

// NewDelayedTriggerManager creates an empty manager.
func NewDelayedTriggerManager() *DelayedTriggerManager {
	return &DelayedTriggerManager{triggers: make(map[string]DelayedTrigger)}
}

// Schedule adds a delayed trigger and returns its ID.
func (dm *DelayedTriggerManager) Schedule(trigger DelayedTrigger) string {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if trigger.ID == "" {
		trigger.ID = uuid.NewString()
	}
	dm.triggers[trigger.ID] = trigger
	return trigger.ID
}

// Handle fires matching delayed triggers for the event, consuming each one
// that fires. Returned entries follow the same ordering contract as
// TriggerManager.Handle via the caller queueing them in returned order;
// delayed triggers from one event are ordered by schedule ID.
func (dm *DelayedTriggerManager) Handle(event Event) []ChainEntry {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	var (
		entries []ChainEntry
		fired   []string
	)
	ids := make([]string, 0, len(dm.triggers))
	for id := range dm.triggers {
		ids = append(ids, id)
	}
	// Map iteration order is random; sort for determinism.
	sort.Strings(ids)

	for _, id := range ids {
		trigger := dm.triggers[id]
		if trigger.EventType != event.Type {
			continue
		}
		if trigger.Condition != nil && !trigger.Condition(event) {
			continue
		}
		if trigger.Build == nil {
			continue
		}
		entry := trigger.Build(event)
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		entries = append(entries, entry)
		fired = append(fired, id)
	}
	for _, id := range fired {
		delete(dm.triggers, id)
	}
	return entries
}

// ExpireTurn drops all triggers whose lifetime ended with the given turn.
func (dm *DelayedTriggerManager) ExpireTurn(turn int) []string {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	var expired []string
	for id, trigger := range dm.triggers {
		if trigger.ExpiresAfterTurn != 0 && trigger.ExpiresAfterTurn <= turn {
			delete(dm.triggers, id)
			expired = append(expired, id)
		}
	}
	return expired
}

// Len returns the number of pending delayed triggers.
func (dm *DelayedTriggerManager) Len() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return len(dm.triggers)
}
