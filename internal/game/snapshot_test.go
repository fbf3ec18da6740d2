package game

import (
	"testing"

	"github.com/riftforge/rift-server-go/internal/game/rules"
)

func TestSnapshotReflectsGameState(t *testing.T) {
	h := newDuel(t, MatchOptions{})
	h.keepHands()
	h.toActionPhase()

	snap, err := h.engine.Snapshot(h.gameID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Phase != rules.PhaseAction.String() {
		t.Errorf("expected ACTION phase, got %s", snap.Phase)
	}
	if snap.ActivePlayer != h.p1 || snap.PriorityPlayer != h.p1 {
		t.Errorf("active/priority wrong: %s / %s", snap.ActivePlayer, snap.PriorityPlayer)
	}
	if len(snap.Players) != 2 || len(snap.Battlefields) != 2 {
		t.Fatalf("expected 2 players and 2 battlefields, got %d/%d", len(snap.Players), len(snap.Battlefields))
	}
	alice := snap.Players[h.p1]
	if len(alice.Hand) != len(h.player(h.p1).Hand) {
		t.Errorf("hand view out of sync: %d vs %d", len(alice.Hand), len(h.player(h.p1).Hand))
	}
	if len(alice.RunesInPlay) != 1 {
		t.Errorf("expected the channeled rune in the view, got %d", len(alice.RunesInPlay))
	}
}

func TestSnapshotChecksumDeterministic(t *testing.T) {
	h := newDuel(t, MatchOptions{})
	h.keepHands()
	h.toActionPhase()

	first, err := h.engine.Snapshot(h.gameID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	second, err := h.engine.Snapshot(h.gameID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	cs1, err := first.ComputeChecksum()
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	cs2, err := second.ComputeChecksum()
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	if cs1.Hash != cs2.Hash {
		t.Errorf("checksums of identical state differ: %s vs %s", cs1.Hash, cs2.Hash)
	}

	h.player(h.p1).Score++
	changed, err := h.engine.Snapshot(h.gameID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	cs3, err := changed.ComputeChecksum()
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	if cs3.Hash == cs1.Hash {
		t.Error("checksum unchanged after a state change")
	}
}

func TestSnapshotVerifyChecksum(t *testing.T) {
	h := newDuel(t, MatchOptions{})
	h.keepHands()

	snap, err := h.engine.Snapshot(h.gameID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	cs, err := snap.ComputeChecksum()
	if err != nil {
		t.Fatalf("checksum: %v", err)
	}
	ok, err := snap.VerifyChecksum(cs)
	if err != nil || !ok {
		t.Fatalf("verify against own checksum failed: ok=%v err=%v", ok, err)
	}

	snap.TurnNumber++
	ok, err = snap.VerifyChecksum(cs)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Error("verification passed against a mutated snapshot")
	}
}

func TestSnapshotSerializationRoundtrip(t *testing.T) {
	h := newDuel(t, MatchOptions{})
	h.keepHands()
	h.toActionPhase()

	// Put something on the chain so the roundtrip covers entry views.
	bolt := h.give(h.p1, "spell-bolt")
	h.addEnergy(h.p1, 1)
	h.accept(Action{Type: ActionPlayCard, PlayerID: h.p1, CardID: bolt.ID})

	snap, err := h.engine.Snapshot(h.gameID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Chain) != 1 {
		t.Fatalf("expected 1 chain entry in the view, got %d", len(snap.Chain))
	}
	if err := ValidateSerializationRoundtrip(snap); err != nil {
		t.Fatalf("roundtrip: %v", err)
	}

	data, err := snap.SerializeToBytes()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	restored, err := DeserializeFromBytes(data)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if restored.GameID != snap.GameID || restored.Phase != snap.Phase {
		t.Errorf("restored snapshot differs: %s/%s vs %s/%s",
			restored.GameID, restored.Phase, snap.GameID, snap.Phase)
	}
}

func TestRestoreTurnStateFromSnapshot(t *testing.T) {
	h := newDuel(t, MatchOptions{})
	h.keepHands()
	h.toActionPhase()

	snap, err := h.engine.Snapshot(h.gameID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	tm, err := snap.RestoreTurnState()
	if err != nil {
		t.Fatalf("restore turn state: %v", err)
	}
	if got := tm.CurrentPhase().String(); got != snap.Phase {
		t.Errorf("phase not restored: %s vs %s", got, snap.Phase)
	}
	if tm.TurnNumber() != snap.TurnNumber {
		t.Errorf("turn not restored: %d vs %d", tm.TurnNumber(), snap.TurnNumber)
	}
	if tm.ActivePlayer() != snap.ActivePlayer || tm.PriorityPlayer() != snap.PriorityPlayer {
		t.Errorf("players not restored: %s/%s vs %s/%s",
			tm.ActivePlayer(), tm.PriorityPlayer(), snap.ActivePlayer, snap.PriorityPlayer)
	}

	snap.Phase = "NOT_A_PHASE"
	if _, err := snap.RestoreTurnState(); err == nil {
		t.Error("expected an error for an unknown phase name")
	}
}
