package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/riftforge/rift-server-go/internal/catalog"
	"github.com/riftforge/rift-server-go/internal/game"
)

// TestRecordedMatchRoundtrip plays a short scripted opening with a
// recorder attached, checkpoints mid-game, saves the replay to disk and
// reloads it for step-through navigation.
func TestRecordedMatchRoundtrip(t *testing.T) {
	saveDir := t.TempDir()
	d, recorder := startDuelWithRecorder(t, game.MatchOptions{BestOf: 1, Seed: 99}, saveDir)

	require.True(t, recorder.IsRecording(d.gameID))

	d.keepHands()
	d.advanceTo(d.p1, "ACTION")

	snapshot := d.snap()
	recorder.RecordCheckpoint(d.gameID, snapshot)

	d.endTurn(d.p1)

	// Rejected actions never reach the log.
	d.rejected(d.p1, game.Action{Type: game.ActionAdvanceStep})

	log, err := d.engine.ActionLog(d.gameID)
	require.NoError(t, err)

	replay, ok := recorder.GetReplay(d.gameID)
	require.True(t, ok)
	require.Equal(t, len(log), replay.Size(), "recorder and engine logs must agree")
	require.Equal(t, int64(99), replay.Seed)

	require.NoError(t, recorder.SaveReplay(d.gameID))
	recorder.ClearReplay(d.gameID)

	loaded, err := recorder.LoadReplay(d.gameID)
	require.NoError(t, err)
	require.Equal(t, d.gameID, loaded.GameID)
	require.Equal(t, int64(99), loaded.Seed)
	require.Equal(t, len(log), loaded.Size())
	require.Len(t, loaded.Checkpoints, 1)
	assert.Equal(t, snapshot.TurnNumber, loaded.Checkpoints[0].TurnNumber)

	// Step through the loaded replay front to back and verify it
	// matches the engine's own log.
	loaded.Start()
	for i := 0; i < loaded.Size(); i++ {
		entry := loaded.Next()
		require.NotNil(t, entry, "replay exhausted early at %d", i)
		assert.Equal(t, log[i].Seq, entry.Seq)
		assert.Equal(t, log[i].Action.Type, entry.Action.Type)
		assert.Equal(t, log[i].Action.PlayerID, entry.Action.PlayerID)
	}
	assert.Nil(t, loaded.Next(), "navigation past the end returns nil")

	back := loaded.Previous()
	require.NotNil(t, back)
	assert.Equal(t, log[len(log)-1].Seq, back.Seq)
}

// TestSameSeedDealsSameOpeningHands verifies that the seed fully
// determines shuffling: two matches over a mixed deck with the same
// seed deal the same card names in the same hand order.
func TestSameSeedDealsSameOpeningHands(t *testing.T) {
	logger := zaptest.NewLogger(t)
	cat, err := catalog.Parse([]byte(integrationCatalog), logger)
	require.NoError(t, err)

	mixedDeck := []string{
		"unit-drake", "unit-squire", "spell-bolt", "unit-drake",
		"unit-squire", "spell-bolt", "unit-drake", "unit-squire",
		"spell-bolt", "unit-drake", "unit-squire", "spell-bolt",
	}
	seats := func() []game.SeatConfig {
		return []game.SeatConfig{
			{PlayerID: "alice", Deck: mixedDeck, RuneDeck: deckOf("rune-fury", 10),
				Legend: "legend-kai", Battlefield: "bf-forge"},
			{PlayerID: "bob", Deck: mixedDeck, RuneDeck: deckOf("rune-fury", 10),
				Legend: "legend-kai", Battlefield: "bf-garden"},
		}
	}

	handNames := func(seed int64) []string {
		engine := game.NewEngine(logger, cat)
		require.NoError(t, engine.StartMatch("seeded", seats(), game.MatchOptions{BestOf: 1, Seed: seed}))
		snapshot, err := engine.Snapshot("seeded")
		require.NoError(t, err)
		var names []string
		for _, player := range []string{"alice", "bob"} {
			for _, id := range snapshot.Players[player].Hand {
				names = append(names, snapshot.Cards[id].Name)
			}
		}
		return names
	}

	first := handNames(1234)
	second := handNames(1234)
	assert.Equal(t, first, second, "same seed must deal the same hands")
	assert.NotEqual(t, first, handNames(77), "different seeds should differ over a mixed deck")
}
