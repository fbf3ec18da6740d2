// Package integration drives full matches through the engine's public
// API only: actions in, snapshots out. Where the engine package tests
// reach into internal state, these scripts play the game the way a
// client would.
package integration

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/riftforge/rift-server-go/internal/catalog"
	"github.com/riftforge/rift-server-go/internal/game"
	"github.com/riftforge/rift-server-go/internal/game/targeting"
)

// integrationCatalog keeps each deck single-minded: alice plays drakes,
// bob plays squires, so scripts never depend on draw order.
const integrationCatalog = `
cards:
  - id: legend-kai
    name: Kai, Stormbrand
    type: legend
    domains: [fury]
    text:
      - "Exhaust me: gain two energy."
  - id: bf-forge
    name: Molten Forge
    type: battlefield
  - id: bf-garden
    name: Sunken Garden
    type: battlefield
  - id: unit-squire
    name: Forge Squire
    type: unit
    cost: "1"
    might: 2
    domains: [fury]
  - id: unit-drake
    name: Ember Drake
    type: unit
    cost: "2F"
    might: 4
    domains: [fury]
    text:
      - "[Accelerate]"
  - id: spell-bolt
    name: Rift Bolt
    type: spell
    cost: "1"
    domains: [fury]
    keywords: "[Reaction]"
    text:
      - "Deal two damage to an enemy unit."
  - id: rune-fury
    name: Fury Rune
    type: rune
    power_value: 1
    domains: [fury]
`

type duel struct {
	t      *testing.T
	req    *require.Assertions
	engine *game.Engine
	gameID string
	p1, p2 string
}

func deckOf(defID string, n int) []string {
	deck := make([]string, n)
	for i := range deck {
		deck[i] = defID
	}
	return deck
}

func startDuel(t *testing.T, opts game.MatchOptions) *duel {
	t.Helper()
	logger := zaptest.NewLogger(t)

	cat, err := catalog.Parse([]byte(integrationCatalog), logger)
	require.NoError(t, err, "catalog must compile")
	require.Zero(t, cat.Report().UnsupportedCount(), "catalog has unsupported clauses")

	engine := game.NewEngine(logger, cat)
	d := &duel{
		t:      t,
		req:    require.New(t),
		engine: engine,
		gameID: "integration-duel",
		p1:     "alice",
		p2:     "bob",
	}

	seats := []game.SeatConfig{
		{
			PlayerID:    d.p1,
			Name:        "Alice",
			Deck:        deckOf("unit-drake", 12),
			RuneDeck:    deckOf("rune-fury", 10),
			Legend:      "legend-kai",
			Battlefield: "bf-forge",
		},
		{
			PlayerID:    d.p2,
			Name:        "Bob",
			Deck:        deckOf("unit-squire", 12),
			RuneDeck:    deckOf("rune-fury", 10),
			Legend:      "legend-kai",
			Battlefield: "bf-garden",
		},
	}
	d.req.NoError(engine.StartMatch(d.gameID, seats, opts))
	return d
}

// startDuelWithRecorder builds the duel with a replay recorder attached
// before the match starts, so the opening state is captured.
func startDuelWithRecorder(t *testing.T, opts game.MatchOptions, saveDir string) (*duel, *game.ReplayRecorder) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	cat, err := catalog.Parse([]byte(integrationCatalog), logger)
	require.NoError(t, err)

	engine := game.NewEngine(logger, cat)
	recorder := game.NewReplayRecorder(logger, saveDir)
	engine.SetReplayRecorder(recorder)

	d := &duel{
		t:      t,
		req:    require.New(t),
		engine: engine,
		gameID: "recorded-duel",
		p1:     "alice",
		p2:     "bob",
	}
	seats := []game.SeatConfig{
		{PlayerID: d.p1, Deck: deckOf("unit-drake", 12), RuneDeck: deckOf("rune-fury", 10),
			Legend: "legend-kai", Battlefield: "bf-forge"},
		{PlayerID: d.p2, Deck: deckOf("unit-squire", 12), RuneDeck: deckOf("rune-fury", 10),
			Legend: "legend-kai", Battlefield: "bf-garden"},
	}
	d.req.NoError(engine.StartMatch(d.gameID, seats, opts))
	return d, recorder
}

// do submits an action and requires the engine to accept it.
func (d *duel) do(player string, action game.Action) *game.ActionResult {
	d.t.Helper()
	action.PlayerID = player
	result, err := d.engine.ProcessAction(d.gameID, action)
	d.req.NoError(err)
	d.req.True(result.Accepted, "action %s by %s rejected: %s", action.Type, player, result.Reason)
	return result
}

// rejected submits an action and requires a rule rejection.
func (d *duel) rejected(player string, action game.Action) *game.ActionResult {
	d.t.Helper()
	action.PlayerID = player
	result, err := d.engine.ProcessAction(d.gameID, action)
	d.req.NoError(err)
	d.req.False(result.Accepted, "action %s by %s unexpectedly accepted", action.Type, player)
	return result
}

func (d *duel) snap() *game.Snapshot {
	d.t.Helper()
	snapshot, err := d.engine.Snapshot(d.gameID)
	d.req.NoError(err)
	return snapshot
}

func (d *duel) keepHands() {
	d.t.Helper()
	d.do(d.p1, game.Action{Type: game.ActionConfirmMulligan})
	d.do(d.p2, game.Action{Type: game.ActionConfirmMulligan})
}

// advanceTo steps the active player's turn forward to the named phase.
func (d *duel) advanceTo(player, phase string) {
	d.t.Helper()
	for i := 0; i < 8; i++ {
		if d.snap().Phase == phase {
			return
		}
		d.do(player, game.Action{Type: game.ActionAdvanceStep})
	}
	d.req.Equal(phase, d.snap().Phase, "never reached phase %s", phase)
}

// endTurn advances until the opponent's turn begins.
func (d *duel) endTurn(player string) {
	d.t.Helper()
	for i := 0; i < 8; i++ {
		if d.snap().ActivePlayer != player {
			return
		}
		d.do(player, game.Action{Type: game.ActionAdvanceStep})
	}
	d.req.NotEqual(player, d.snap().ActivePlayer, "turn never passed")
}

// handCard returns an instance ID from the player's hand whose card
// carries the given name.
func (d *duel) handCard(player, name string) string {
	d.t.Helper()
	snapshot := d.snap()
	for _, id := range snapshot.Players[player].Hand {
		if snapshot.Cards[id].Name == name {
			return id
		}
	}
	d.t.Fatalf("no %q in %s's hand", name, player)
	return ""
}

// boardUnit returns the player's unit in play at the given battlefield
// ("" for base).
func (d *duel) boardUnit(player, battlefieldID string) string {
	d.t.Helper()
	snapshot := d.snap()
	for id, cv := range snapshot.Cards {
		if cv.ControllerID == player && cv.Type == "UNIT" && !cv.FaceDown &&
			cv.Zone == targeting.ZoneBoard && cv.BattlefieldID == battlefieldID {
			return id
		}
	}
	d.t.Fatalf("no unit of %s at %q", player, battlefieldID)
	return ""
}

// battlefieldOf returns the battlefield a seat brought to the match.
func (d *duel) battlefieldOf(owner string) game.BattlefieldView {
	d.t.Helper()
	for _, bf := range d.snap().Battlefields {
		if bf.OwnerID == owner {
			return bf
		}
	}
	d.t.Fatalf("no battlefield owned by %s", owner)
	return game.BattlefieldView{}
}
