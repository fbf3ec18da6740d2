package watchers

import (
	"github.com/riftforge/rift-server-go/internal/game/rules"
)

// CardsPlayedWatcher tracks cards played by each player this turn. Legion
// conditions check it: a Legion ability is live once its controller has
// played another card in the same turn.
type CardsPlayedWatcher struct {
	*rules.BaseWatcher
	cardsPlayed map[string][]string // playerID -> card instance IDs
}

// NewCardsPlayedWatcher creates a cards played watcher.
func NewCardsPlayedWatcher() *CardsPlayedWatcher {
	w := &CardsPlayedWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame),
		cardsPlayed: make(map[string][]string),
	}
	w.SetKey("CardsPlayedWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *CardsPlayedWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventCardPlayed {
		return
	}
	if event.PlayerID == "" || event.SourceID == "" {
		return
	}
	w.cardsPlayed[event.PlayerID] = append(w.cardsPlayed[event.PlayerID], event.SourceID)
	w.SetCondition(true)
}

// Reset clears the per-turn state.
func (w *CardsPlayedWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.cardsPlayed = make(map[string][]string)
}

// GetCardsPlayed returns the instance IDs the player played this turn.
func (w *CardsPlayedWatcher) GetCardsPlayed(playerID string) []string {
	return w.cardsPlayed[playerID]
}

// GetCount returns the number of cards the player played this turn.
func (w *CardsPlayedWatcher) GetCount(playerID string) int {
	return len(w.cardsPlayed[playerID])
}

// LegionMet reports whether the player has played a card this turn other
// than the given instance.
func (w *CardsPlayedWatcher) LegionMet(playerID, excludeID string) bool {
	for _, id := range w.cardsPlayed[playerID] {
		if id != excludeID {
			return true
		}
	}
	return false
}

// UnitsDiedWatcher tracks units that died this turn, by controller and by
// owner.
type UnitsDiedWatcher struct {
	*rules.BaseWatcher
	diedByController map[string]int
	diedByOwner      map[string]int
}

// NewUnitsDiedWatcher creates a units died watcher.
func NewUnitsDiedWatcher() *UnitsDiedWatcher {
	w := &UnitsDiedWatcher{
		BaseWatcher:      rules.NewBaseWatcher(rules.WatcherScopeGame),
		diedByController: make(map[string]int),
		diedByOwner:      make(map[string]int),
	}
	w.SetKey("UnitsDiedWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *UnitsDiedWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventUnitDied {
		return
	}
	controllerID := event.PlayerID
	ownerID := event.Metadata["owner_id"]
	if ownerID == "" {
		ownerID = controllerID
	}
	if controllerID != "" {
		w.diedByController[controllerID]++
	}
	if ownerID != "" {
		w.diedByOwner[ownerID]++
	}
	w.SetCondition(true)
}

// Reset clears the per-turn state.
func (w *UnitsDiedWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.diedByController = make(map[string]int)
	w.diedByOwner = make(map[string]int)
}

// GetAmountByController returns how many of the controller's units died
// this turn.
func (w *UnitsDiedWatcher) GetAmountByController(controllerID string) int {
	return w.diedByController[controllerID]
}

// GetAmountByOwner returns how many of the owner's units died this turn.
func (w *UnitsDiedWatcher) GetAmountByOwner(ownerID string) int {
	return w.diedByOwner[ownerID]
}

// GetTotalAmount returns the total number of units that died this turn.
func (w *UnitsDiedWatcher) GetTotalAmount() int {
	total := 0
	for _, count := range w.diedByController {
		total += count
	}
	return total
}

// ConquestsWatcher tracks battlefield conquests per player this turn.
type ConquestsWatcher struct {
	*rules.BaseWatcher
	conquests map[string][]string // playerID -> battlefield IDs
}

// NewConquestsWatcher creates a conquests watcher.
func NewConquestsWatcher() *ConquestsWatcher {
	w := &ConquestsWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame),
		conquests:   make(map[string][]string),
	}
	w.SetKey("ConquestsWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *ConquestsWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventConquer {
		return
	}
	if event.PlayerID == "" || event.BattlefieldID == "" {
		return
	}
	w.conquests[event.PlayerID] = append(w.conquests[event.PlayerID], event.BattlefieldID)
	w.SetCondition(true)
}

// Reset clears the per-turn state.
func (w *ConquestsWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.conquests = make(map[string][]string)
}

// GetConquests returns the battlefields the player conquered this turn.
func (w *ConquestsWatcher) GetConquests(playerID string) []string {
	return w.conquests[playerID]
}

// GetCount returns the number of conquests by the player this turn.
func (w *ConquestsWatcher) GetCount(playerID string) int {
	return len(w.conquests[playerID])
}

// CardsDrawnWatcher tracks cards drawn by players this turn.
type CardsDrawnWatcher struct {
	*rules.BaseWatcher
	cardsDrawn map[string]int
}

// NewCardsDrawnWatcher creates a cards drawn watcher.
func NewCardsDrawnWatcher() *CardsDrawnWatcher {
	w := &CardsDrawnWatcher{
		BaseWatcher: rules.NewBaseWatcher(rules.WatcherScopeGame),
		cardsDrawn:  make(map[string]int),
	}
	w.SetKey("CardsDrawnWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *CardsDrawnWatcher) Watch(event rules.Event) {
	if event.Type != rules.EventCardDrawn {
		return
	}
	if event.PlayerID == "" {
		return
	}
	w.cardsDrawn[event.PlayerID]++
	w.SetCondition(true)
}

// Reset clears the per-turn state.
func (w *CardsDrawnWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.cardsDrawn = make(map[string]int)
}

// GetCount returns the number of cards the player drew this turn.
func (w *CardsDrawnWatcher) GetCount(playerID string) int {
	return w.cardsDrawn[playerID]
}
