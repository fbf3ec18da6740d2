package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a rules event.
type EventType string

const (
	// Turn structure events
	EventTurnBegan    EventType = "TURN_BEGAN"
	EventTurnEnded    EventType = "TURN_ENDED"
	EventPhaseChanged EventType = "PHASE_CHANGED"

	// Card and zone events
	EventCardPlayed    EventType = "CARD_PLAYED"
	EventUnitEntered   EventType = "UNIT_ENTERED"
	EventUnitDied      EventType = "UNIT_DIED"
	EventUnitMoved     EventType = "UNIT_MOVED"
	EventCardDrawn     EventType = "CARD_DRAWN"
	EventCardHidden    EventType = "CARD_HIDDEN"
	EventCardDiscarded EventType = "CARD_DISCARDED"
	EventGearEquipped  EventType = "GEAR_EQUIPPED"

	// Resource events
	EventRuneChanneled EventType = "RUNE_CHANNELED"
	EventRuneExhausted EventType = "RUNE_EXHAUSTED"
	EventRuneRecycled  EventType = "RUNE_RECYCLED"
	EventSealExhausted EventType = "SEAL_EXHAUSTED"

	// Combat events
	EventAttackDeclared EventType = "ATTACK_DECLARED"
	EventCombatBegan    EventType = "COMBAT_BEGAN"
	EventCombatEnded    EventType = "COMBAT_ENDED"
	EventDamageDealt    EventType = "DAMAGE_DEALT"

	// Battlefield and scoring events
	EventOccupancyChanged EventType = "OCCUPANCY_CHANGED"
	EventConquer          EventType = "CONQUER"
	EventHold             EventType = "HOLD"
	EventScoreChanged     EventType = "SCORE_CHANGED"

	// Chain events
	EventChainEntryAdded    EventType = "CHAIN_ENTRY_ADDED"
	EventChainEntryResolved EventType = "CHAIN_ENTRY_RESOLVED"
	EventChainEntryFizzled  EventType = "CHAIN_ENTRY_FIZZLED"

	// Terminal events
	EventBurnOut  EventType = "BURN_OUT"
	EventGameOver EventType = "GAME_OVER"
)

// Event carries the facts of a single rules event.
type Event struct {
	Type          EventType
	PlayerID      string
	SourceID      string
	TargetID      string
	BattlefieldID string
	Amount        int
	Turn          int
	Metadata      map[string]string
	Timestamp     time.Time
}

// NewEvent creates an event stamped with the current time.
func NewEvent(eventType EventType) Event {
	return Event{
		Type:      eventType,
		Metadata:  make(map[string]string),
		Timestamp: time.Now(),
	}
}

// EventHandler consumes published events.
type EventHandler func(Event)

// EventBus delivers events synchronously to subscribed handlers in
// subscription order. The engine publishes every state transition through
// the bus; watchers and the trigger manager subscribe.
type EventBus struct {
	mu       sync.Mutex
	handlers []EventHandler
}

// NewEventBus creates an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers a handler for all events.
func (b *EventBus) Subscribe(handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, handler)
}

// Publish delivers the event to every handler, in order, on the calling
// goroutine.
func (b *EventBus) Publish(event Event) {
	b.mu.Lock()
	handlers := make([]EventHandler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.Unlock()

	for _, h := range handlers {
		h(event)
	}
}
