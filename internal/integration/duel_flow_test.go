package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftforge/rift-server-go/internal/game"
)

// TestScriptedDuelToVictory plays a complete match through the public
// API: ramp, unit deployment, a battlefield garrison, an attack that
// conquers it, and hold scoring until the victory score is reached.
func TestScriptedDuelToVictory(t *testing.T) {
	d := startDuel(t, game.MatchOptions{VictoryScore: 3, BestOf: 1, Seed: 42})

	snapshot := d.snap()
	require.Equal(t, "MULLIGAN", snapshot.Phase)
	require.Len(t, snapshot.Players[d.p1].Hand, 4)
	require.Len(t, snapshot.Players[d.p2].Hand, 4)

	d.keepHands()
	snapshot = d.snap()
	require.Equal(t, "AWAKEN", snapshot.Phase)
	require.Equal(t, d.p1, snapshot.ActivePlayer)
	require.Equal(t, 1, snapshot.TurnNumber)

	// Turn 1: one channeled rune cannot pay a drake's {2}{F}.
	d.advanceTo(d.p1, "ACTION")
	assert.Len(t, d.snap().Players[d.p1].RunesInPlay, 1)
	drake := d.handCard(d.p1, "Ember Drake")
	result := d.rejected(d.p1, game.Action{Type: game.ActionPlayCard, CardID: drake})
	assert.Equal(t, "ACTION", result.Phase)
	d.endTurn(d.p1)

	// Turn 2: bob deploys a squire at base; the payment planner
	// exhausts his only rune for it.
	d.advanceTo(d.p2, "ACTION")
	squire := d.handCard(d.p2, "Forge Squire")
	d.do(d.p2, game.Action{Type: game.ActionPlayCard, CardID: squire})
	snapshot = d.snap()
	assert.Equal(t, "", snapshot.Cards[squire].BattlefieldID)
	assert.False(t, snapshot.Cards[squire].Ready, "units enter play exhausted")
	bobRune := snapshot.Players[d.p2].RunesInPlay[0]
	assert.False(t, snapshot.Cards[bobRune].Ready, "the rune was exhausted for payment")
	d.endTurn(d.p2)

	// Turn 3: two runes still fall one energy short.
	d.advanceTo(d.p1, "ACTION")
	d.rejected(d.p1, game.Action{Type: game.ActionPlayCard, CardID: d.handCard(d.p1, "Ember Drake")})
	d.endTurn(d.p1)

	// Turn 4: bob garrisons his own battlefield, taking control of it.
	d.advanceTo(d.p2, "ACTION")
	garden := d.battlefieldOf(d.p2)
	d.do(d.p2, game.Action{Type: game.ActionMoveUnit, CardID: squire, BattlefieldID: garden.ID})
	snapshot = d.snap()
	assert.Equal(t, d.p2, d.battlefieldOf(d.p2).ControllerID)
	assert.Equal(t, 1, snapshot.Players[d.p2].Score, "moving in scores the conquest")
	d.endTurn(d.p2)

	// Turn 5: three runes pay {2}{F}; Accelerate lets the drake attack
	// the turn it entered.
	d.advanceTo(d.p1, "ACTION")
	drake = d.handCard(d.p1, "Ember Drake")
	d.do(d.p1, game.Action{Type: game.ActionPlayCard, CardID: drake})
	snapshot = d.snap()
	require.Len(t, snapshot.Players[d.p1].RunesInPlay, 2, "one rune recycled for the pip")

	d.do(d.p1, game.Action{Type: game.ActionDeclareAttack, BattlefieldID: garden.ID, UnitIDs: []string{drake}})
	snapshot = d.snap()
	require.Equal(t, d.p2, snapshot.PriorityPlayer, "the defender answers the declaration")

	d.do(d.p2, game.Action{Type: game.ActionPassPriority})
	d.do(d.p1, game.Action{Type: game.ActionPassPriority})
	d.do(d.p1, game.Action{Type: game.ActionConfirmDamage})

	snapshot = d.snap()
	assert.Equal(t, d.p1, d.battlefieldOf(d.p2).ControllerID, "drake conquered the garden")
	assert.Equal(t, 1, snapshot.Players[d.p1].Score)
	assert.Equal(t, garden.ID, snapshot.Cards[drake].BattlefieldID)
	d.endTurn(d.p1)

	// Turns 6-8: nothing further; alice holds the garden and scores at
	// the end of each of her turns.
	d.endTurn(d.p2)
	d.endTurn(d.p1)
	assert.Equal(t, 2, d.snap().Players[d.p1].Score, "held battlefield scores at turn end")
	d.endTurn(d.p2)

	// Turn 9: the second hold point reaches the victory score.
	d.advanceTo(d.p1, "ENDING")
	snapshot = d.snap()
	require.True(t, snapshot.MatchOver)
	require.Equal(t, d.p1, snapshot.WinnerID)
	assert.Equal(t, 3, snapshot.Players[d.p1].Score)

	// Nothing more is accepted once the match ends.
	d.rejected(d.p2, game.Action{Type: game.ActionAdvanceStep})

	log, err := d.engine.ActionLog(d.gameID)
	require.NoError(t, err)
	assert.NotEmpty(t, log)
	for i, entry := range log {
		assert.Equal(t, i, entry.Seq)
	}
}

// TestShowdownTimingAndManualAssignment checks the combat sub-protocol
// from the defender's side: action-speed plays are shut out during the
// showdown, and manual damage assignments must spend the side's full
// might.
func TestShowdownTimingAndManualAssignment(t *testing.T) {
	d := startDuel(t, game.MatchOptions{VictoryScore: 8, BestOf: 1, Seed: 7})
	d.keepHands()

	// Alice ramps three turns, bob garrisons his battlefield as before.
	d.endTurn(d.p1)
	d.advanceTo(d.p2, "ACTION")
	squire := d.handCard(d.p2, "Forge Squire")
	d.do(d.p2, game.Action{Type: game.ActionPlayCard, CardID: squire})
	d.endTurn(d.p2)
	d.endTurn(d.p1)
	d.advanceTo(d.p2, "ACTION")
	garden := d.battlefieldOf(d.p2)
	d.do(d.p2, game.Action{Type: game.ActionMoveUnit, CardID: squire, BattlefieldID: garden.ID})
	d.endTurn(d.p2)

	// Turn 5: alice attacks into the garrison.
	d.advanceTo(d.p1, "ACTION")
	drake := d.handCard(d.p1, "Ember Drake")
	d.do(d.p1, game.Action{Type: game.ActionPlayCard, CardID: drake})
	d.do(d.p1, game.Action{Type: game.ActionDeclareAttack, BattlefieldID: garden.ID, UnitIDs: []string{drake}})

	// Action-speed plays are illegal for the defender mid-showdown.
	d.rejected(d.p2, game.Action{Type: game.ActionPlayCard, CardID: d.handCard(d.p2, "Forge Squire")})

	d.do(d.p2, game.Action{Type: game.ActionPassPriority})
	d.do(d.p1, game.Action{Type: game.ActionPassPriority})

	// In the damage step the defender's two might must all land on the
	// only attacker.
	d.rejected(d.p2, game.Action{Type: game.ActionAssignDamage, Assignments: map[string]int{drake: 1}})
	d.do(d.p2, game.Action{Type: game.ActionAssignDamage, Assignments: map[string]int{drake: 2}})
	d.do(d.p1, game.Action{Type: game.ActionConfirmDamage})

	snapshot := d.snap()
	assert.Equal(t, 2, snapshot.Cards[drake].Damage)
	assert.Equal(t, d.p1, d.battlefieldOf(d.p2).ControllerID)
}
