package rules

import (
	"sync"
)

// WatcherScope defines the scope of a watcher's tracking.
type WatcherScope int

const (
	// WatcherScopeGame tracks events for the entire game.
	WatcherScopeGame WatcherScope = iota
	// WatcherScopePlayer tracks events for a specific player.
	WatcherScopePlayer
	// WatcherScopeCard tracks events for a specific card instance.
	WatcherScopeCard
)

// Watcher observes game events and tracks derived conditions (cards
// played this turn, units that died, battlefields conquered). Watchers
// never mutate game state.
type Watcher interface {
	// Watch is called for every published event.
	Watch(event Event)
	// Reset clears per-turn state; called during the ending phase.
	Reset()
	// GetKey returns a unique key for this watcher instance.
	GetKey() string
	// GetScope returns the watcher's scope.
	GetScope() WatcherScope
}

// BaseWatcher provides the common bookkeeping for watcher
// implementations.
type BaseWatcher struct {
	key          string
	scope        WatcherScope
	controllerID string
	sourceID     string
	conditionMet bool
}

// NewBaseWatcher creates a base watcher with the given scope.
func NewBaseWatcher(scope WatcherScope) *BaseWatcher {
	return &BaseWatcher{scope: scope}
}

// SetKey sets the watcher key.
func (w *BaseWatcher) SetKey(key string) { w.key = key }

// GetKey returns the watcher key, qualified by controller or source for
// PLAYER and CARD scopes.
func (w *BaseWatcher) GetKey() string {
	switch w.scope {
	case WatcherScopePlayer:
		return w.controllerID + ":" + w.key
	case WatcherScopeCard:
		return w.sourceID + ":" + w.key
	default:
		return w.key
	}
}

// GetScope returns the watcher's scope.
func (w *BaseWatcher) GetScope() WatcherScope { return w.scope }

// SetControllerID attaches the watcher to a player.
func (w *BaseWatcher) SetControllerID(id string) { w.controllerID = id }

// GetControllerID returns the attached player ID.
func (w *BaseWatcher) GetControllerID() string { return w.controllerID }

// SetSourceID attaches the watcher to a card instance.
func (w *BaseWatcher) SetSourceID(id string) { w.sourceID = id }

// GetSourceID returns the attached card instance ID.
func (w *BaseWatcher) GetSourceID() string { return w.sourceID }

// SetCondition records that the watched condition occurred this turn.
func (w *BaseWatcher) SetCondition(met bool) { w.conditionMet = met }

// ConditionMet reports whether the watched condition occurred this turn.
func (w *BaseWatcher) ConditionMet() bool { return w.conditionMet }

// Reset clears the per-turn condition; implementations extend this.
func (w *BaseWatcher) Reset() { w.conditionMet = false }

// WatcherRegistry owns all watchers of a game and feeds them events.
type WatcherRegistry struct {
	mu       sync.Mutex
	watchers map[string]Watcher
}

// NewWatcherRegistry creates an empty registry.
func NewWatcherRegistry() *WatcherRegistry {
	return &WatcherRegistry{watchers: make(map[string]Watcher)}
}

// Add registers a watcher under its key, replacing any previous watcher
// with the same key.
func (r *WatcherRegistry) Add(w Watcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers[w.GetKey()] = w
}

// Get returns the watcher registered under key.
func (r *WatcherRegistry) Get(key string) (Watcher, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.watchers[key]
	return w, ok
}

// Dispatch feeds an event to every watcher.
func (r *WatcherRegistry) Dispatch(event Event) {
	r.mu.Lock()
	watchers := make([]Watcher, 0, len(r.watchers))
	for _, w := range r.watchers {
		watchers = append(watchers, w)
	}
	r.mu.Unlock()
	for _, w := range watchers {
		w.Watch(event)
	}
}

// ResetAll resets every watcher; called at end of turn.
func (r *WatcherRegistry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.watchers {
		w.Reset()
	}
}
