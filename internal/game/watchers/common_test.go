package watchers

import (
	"testing"

	"github.com/riftforge/rift-server-go/internal/game/rules"
)

func TestCardsPlayedWatcherLegion(t *testing.T) {
	w := NewCardsPlayedWatcher()

	if w.LegionMet("alice", "unit-1") {
		t.Error("Legion met before any card was played")
	}

	played := rules.NewEvent(rules.EventCardPlayed)
	played.PlayerID = "alice"
	played.SourceID = "unit-1"
	w.Watch(played)

	// The Legion unit itself does not satisfy its own condition.
	if w.LegionMet("alice", "unit-1") {
		t.Error("Legion met by the unit's own play")
	}

	second := rules.NewEvent(rules.EventCardPlayed)
	second.PlayerID = "alice"
	second.SourceID = "spell-2"
	w.Watch(second)

	if !w.LegionMet("alice", "unit-1") {
		t.Error("Legion not met after a second card this turn")
	}
	if w.LegionMet("bob", "unit-9") {
		t.Error("Legion met for a player who played nothing")
	}
	if w.GetCount("alice") != 2 {
		t.Errorf("expected 2 cards played, got %d", w.GetCount("alice"))
	}

	w.Reset()
	if w.GetCount("alice") != 0 || w.LegionMet("alice", "unit-1") {
		t.Error("reset did not clear per-turn state")
	}
}

func TestUnitsDiedWatcherCounts(t *testing.T) {
	w := NewUnitsDiedWatcher()

	died := rules.NewEvent(rules.EventUnitDied)
	died.PlayerID = "alice"
	died.Metadata["owner_id"] = "bob"
	w.Watch(died)

	again := rules.NewEvent(rules.EventUnitDied)
	again.PlayerID = "alice"
	w.Watch(again)

	if w.GetAmountByController("alice") != 2 {
		t.Errorf("expected 2 by controller, got %d", w.GetAmountByController("alice"))
	}
	if w.GetAmountByOwner("bob") != 1 {
		t.Errorf("expected 1 by owner bob, got %d", w.GetAmountByOwner("bob"))
	}
	if w.GetAmountByOwner("alice") != 1 {
		t.Errorf("expected 1 by owner alice, got %d", w.GetAmountByOwner("alice"))
	}
	if w.GetTotalAmount() != 2 {
		t.Errorf("expected total 2, got %d", w.GetTotalAmount())
	}
}

func TestConquestsWatcherIgnoresOtherEvents(t *testing.T) {
	w := NewConquestsWatcher()

	conquer := rules.NewEvent(rules.EventConquer)
	conquer.PlayerID = "bob"
	conquer.BattlefieldID = "bf-1"
	w.Watch(conquer)

	hold := rules.NewEvent(rules.EventHold)
	hold.PlayerID = "bob"
	hold.BattlefieldID = "bf-2"
	w.Watch(hold)

	if got := w.GetConquests("bob"); len(got) != 1 || got[0] != "bf-1" {
		t.Fatalf("unexpected conquests: %v", got)
	}
	if !w.ConditionMet() {
		t.Error("condition not marked after conquer")
	}
}

func TestWatcherRegistryDispatch(t *testing.T) {
	registry := rules.NewWatcherRegistry()
	drawn := NewCardsDrawnWatcher()
	registry.Add(drawn)

	event := rules.NewEvent(rules.EventCardDrawn)
	event.PlayerID = "alice"
	registry.Dispatch(event)
	registry.Dispatch(event)

	if drawn.GetCount("alice") != 2 {
		t.Errorf("expected 2 draws, got %d", drawn.GetCount("alice"))
	}

	registry.ResetAll()
	if drawn.GetCount("alice") != 0 {
		t.Error("ResetAll did not clear watcher")
	}
}
