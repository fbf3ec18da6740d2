package game

import (
	"github.com/riftforge/rift-server-go/internal/game/rules"
)

// scoreHeldBattlefields scores the active player's held battlefields
// during the ending phase. A battlefield counts as held when its control
// predates the current turn; one conquered this turn already scored its
// conquest point.
func (e *Engine) scoreHeldBattlefields(ds *duelState, active *playerState) {
	for _, bf := range ds.battlefields {
		if bf.ControllerID != active.PlayerID || bf.HeldSince >= ds.turns.TurnNumber() {
			continue
		}
		held := rules.NewEvent(rules.EventHold)
		held.PlayerID = active.PlayerID
		held.BattlefieldID = bf.ID
		held.Turn = ds.turns.TurnNumber()
		ds.bus.Publish(held)
		e.queueTriggers(ds, held)

		e.addScore(ds, active, 1, "hold")
		if ds.matchOver || active.Lost {
			return
		}
	}
}

// fireTurnEndClauses queues the active player's end-of-turn triggered
// clauses. The turn-ended event itself publishes once the ending phase
// concludes.
func (e *Engine) fireTurnEndClauses(ds *duelState, active *playerState) {
	ending := rules.NewEvent(rules.EventTurnEnded)
	ending.PlayerID = active.PlayerID
	ending.Turn = ds.turns.TurnNumber()
	e.queueTriggers(ds, ending)
}
