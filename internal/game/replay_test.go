package game

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/riftforge/rift-server-go/internal/catalog"
)

func newRecordedDuel(t *testing.T, saveDir string) (*duelHarness, *ReplayRecorder) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	cat, err := catalog.Parse([]byte(duelCatalog), logger)
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	engine := NewEngine(logger, cat)
	recorder := NewReplayRecorder(logger, saveDir)
	engine.SetReplayRecorder(recorder)

	seats := []SeatConfig{
		{PlayerID: "alice", Deck: testDeck(), RuneDeck: testRuneDeck(), Legend: "legend-kai", Battlefield: "bf-forge"},
		{PlayerID: "bob", Deck: testDeck(), RuneDeck: testRuneDeck(), Legend: "legend-kai", Battlefield: "bf-garden"},
	}
	if err := engine.StartMatch("duel-1", seats, MatchOptions{Seed: 99}); err != nil {
		t.Fatalf("start match: %v", err)
	}
	h := &duelHarness{
		t:      t,
		engine: engine,
		gameID: "duel-1",
		ds:     engine.games["duel-1"],
		p1:     "alice",
		p2:     "bob",
	}
	return h, recorder
}

func TestRecorderCapturesAcceptedActions(t *testing.T) {
	h, recorder := newRecordedDuel(t, t.TempDir())
	if !recorder.IsRecording(h.gameID) {
		t.Fatal("recording should start with the match")
	}

	h.keepHands()
	h.rejected(Action{Type: ActionAdvanceStep, PlayerID: h.p2})
	h.accept(Action{Type: ActionAdvanceStep, PlayerID: h.p1})

	replay, ok := recorder.GetReplay(h.gameID)
	if !ok {
		t.Fatal("no replay for the game")
	}
	if got := replay.Size(); got != 3 {
		t.Fatalf("expected 3 recorded actions, got %d", got)
	}
	if replay.Seed != 99 {
		t.Errorf("seed not preserved, got %d", replay.Seed)
	}
	last := replay.ActionAt(2)
	if last == nil || last.Action.Type != ActionAdvanceStep {
		t.Errorf("unexpected final recorded action: %+v", last)
	}
}

func TestRecorderSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	h, recorder := newRecordedDuel(t, dir)
	h.keepHands()
	h.toActionPhase()

	snap, err := h.engine.Snapshot(h.gameID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	recorder.RecordCheckpoint(h.gameID, snap)

	if err := recorder.SaveReplay(h.gameID); err != nil {
		t.Fatalf("save: %v", err)
	}
	recorder.ClearReplay(h.gameID)

	loaded, err := recorder.LoadReplay(h.gameID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.GameID != h.gameID || loaded.Seed != 99 {
		t.Errorf("metadata lost: id=%s seed=%d", loaded.GameID, loaded.Seed)
	}
	if got := loaded.Size(); got != len(h.ds.actionLog) {
		t.Errorf("expected %d actions after reload, got %d", len(h.ds.actionLog), got)
	}
	if len(loaded.Checkpoints) != 1 {
		t.Errorf("expected 1 checkpoint, got %d", len(loaded.Checkpoints))
	}
}

func TestReplayNavigation(t *testing.T) {
	replay := NewReplay("nav", 1)
	for i := 0; i < 5; i++ {
		replay.RecordAction(LoggedAction{
			Seq:       i,
			Turn:      1,
			Phase:     "ACTION",
			Action:    Action{Type: ActionPassPriority, PlayerID: "alice"},
			Timestamp: time.Now(),
		})
	}

	replay.Start()
	first := replay.Next()
	if first == nil || first.Seq != 0 {
		t.Fatalf("expected seq 0 first, got %+v", first)
	}
	second := replay.Next()
	if second == nil || second.Seq != 1 {
		t.Fatalf("expected seq 1, got %+v", second)
	}
	back := replay.Previous()
	if back == nil || back.Seq != 1 {
		t.Fatalf("previous should step back to seq 1, got %+v", back)
	}

	jumped := replay.Skip(10)
	if jumped == nil || jumped.Seq != 4 {
		t.Fatalf("skip past the end should clamp to the last action, got %+v", jumped)
	}
	if replay.Skip(-10); replay.CurrentIndex != 0 {
		t.Errorf("skip before the start should clamp to 0, index %d", replay.CurrentIndex)
	}

	for replay.Next() != nil {
	}
	if replay.Next() != nil {
		t.Error("exhausted replay should keep returning nil")
	}
}

func TestReplayActionAtBounds(t *testing.T) {
	replay := NewReplay("bounds", 1)
	replay.RecordAction(LoggedAction{Seq: 0})
	if replay.ActionAt(-1) != nil || replay.ActionAt(1) != nil {
		t.Error("out-of-range lookups should return nil")
	}
	if got := replay.ActionAt(0); got == nil || got.Seq != 0 {
		t.Errorf("expected seq 0, got %+v", got)
	}
}
