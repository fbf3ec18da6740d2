package game

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/riftforge/rift-server-go/internal/game/card"
	"github.com/riftforge/rift-server-go/internal/game/counters"
	"github.com/riftforge/rift-server-go/internal/game/effects"
	"github.com/riftforge/rift-server-go/internal/game/rules"
	"github.com/riftforge/rift-server-go/internal/game/targeting"
)

// applyOps applies a clause's operation sequence in order. Optional and
// each-player operations suspend the sequence into a pending choice; the
// remaining ops resume when the choice resolves. Effects of one sequence
// apply atomically with respect to other chain entries: nothing else
// resolves while a sequence is suspended.
func (e *Engine) applyOps(ds *duelState, controller, sourceID string, ops []effects.Op, targets map[int][]string, entryID string) error {
	for i := 0; i < len(ops); i++ {
		op := ops[i]
		if op.Optional {
			ds.pending = &pendingChoice{
				ID:           uuid.NewString(),
				Kind:         choiceOptional,
				EntryID:      entryID,
				Player:       controller,
				Op:           op,
				RemainingOps: ops[i+1:],
				SourceID:     sourceID,
				Controller:   controller,
				Prompt:       op.Text,
			}
			e.notify(ds, "PENDING_CHOICE", map[string]interface{}{
				"choice_id": ds.pending.ID,
				"player":    controller,
				"prompt":    op.Text,
			})
			return nil
		}
		if op.EachPlayer && op.Kind == effects.OpDiscard {
			awaiting := make([]string, len(ds.playerOrder))
			copy(awaiting, ds.playerOrder)
			ds.pending = &pendingChoice{
				ID:           uuid.NewString(),
				Kind:         choiceEachPlayer,
				EntryID:      entryID,
				Awaiting:     awaiting,
				Op:           op,
				RemainingOps: ops[i+1:],
				SourceID:     sourceID,
				Controller:   controller,
				Responses:    make(map[string]bool),
				Prompt:       op.Text,
			}
			e.notify(ds, "PENDING_CHOICE", map[string]interface{}{
				"choice_id": ds.pending.ID,
				"awaiting":  awaiting,
				"prompt":    op.Text,
			})
			return nil
		}
		if err := e.applyOp(ds, controller, sourceID, op, targets[i]); err != nil {
			return err
		}
	}
	return nil
}

// applyOp applies one effect operation.
func (e *Engine) applyOp(ds *duelState, controller, sourceID string, op effects.Op, targetIDs []string) error {
	switch op.Kind {
	case effects.OpNothing:
		// Degraded mode: unsupported text resolves as a logged no-op.
		e.logger.Info("unsupported effect resolved as no-op",
			zap.String("game_id", ds.gameID),
			zap.String("source_id", sourceID),
			zap.String("text", op.Text))
		return nil

	case effects.OpDraw:
		if op.EachPlayer {
			for _, id := range e.playersStartingWithActive(ds) {
				for n := 0; n < op.Amount; n++ {
					e.drawCard(ds, ds.players[id], true)
				}
			}
			return nil
		}
		for n := 0; n < op.Amount; n++ {
			e.drawCard(ds, ds.players[controller], true)
		}
		return nil

	case effects.OpDamage:
		for _, targetID := range e.resolveTargets(ds, controller, op, targetIDs) {
			e.dealDamage(ds, targetID, op.Amount, sourceID)
		}
		return nil

	case effects.OpBuff:
		for _, targetID := range e.resolveTargets(ds, controller, op, targetIDs) {
			ci, ok := ds.cards[targetID]
			if !ok || ci.Zone != zoneBoard {
				continue
			}
			if op.Duration == effects.DurationPermanent && op.Amount > 0 {
				ci.Counters.AddCounter(counters.CounterTypeBuff.CreateInstance(op.Amount))
			} else {
				ci.TempMight = append(ci.TempMight, tempModifier{
					Amount:   op.Amount,
					Expires:  op.Duration,
					SourceID: sourceID,
				})
			}
		}
		return nil

	case effects.OpGrantKeyword:
		for _, targetID := range e.resolveTargets(ds, controller, op, targetIDs) {
			ci, ok := ds.cards[targetID]
			if !ok || ci.Zone != zoneBoard {
				continue
			}
			ci.Granted = append(ci.Granted, grantedKeyword{
				Keyword: card.Keyword(op.Keyword),
				Expires: effects.DurationEndOfTurn,
			})
		}
		return nil

	case effects.OpKill:
		for _, targetID := range e.resolveTargets(ds, controller, op, targetIDs) {
			if ci, ok := ds.cards[targetID]; ok && ci.Zone == zoneBoard {
				e.killUnit(ds, ci, sourceID)
			}
		}
		return nil

	case effects.OpMove:
		for _, targetID := range e.resolveTargets(ds, controller, op, targetIDs) {
			ci, ok := ds.cards[targetID]
			if !ok || ci.Zone != zoneBoard {
				continue
			}
			if op.MoveToBase {
				e.moveUnit(ds, ci, "")
			}
		}
		return nil

	case effects.OpReady, effects.OpExhaust:
		ready := op.Kind == effects.OpReady
		ids := targetIDs
		if len(ids) == 0 && op.Target == nil {
			ids = []string{sourceID}
		}
		for _, targetID := range ids {
			if ci, ok := ds.cards[targetID]; ok && ci.Zone == zoneBoard {
				ci.Ready = ready
			}
		}
		return nil

	case effects.OpGainEnergy:
		ds.players[controller].Pool.AddEnergy(op.Amount)
		return nil

	case effects.OpGainPower:
		ds.players[controller].Pool.AddPower(op.Domain, op.Amount)
		return nil

	case effects.OpScore:
		e.addScore(ds, ds.players[controller], op.Amount, "effect")
		return nil

	case effects.OpDiscard:
		player := ds.players[controller]
		for n := 0; n < op.Amount && len(player.Hand) > 0; n++ {
			e.discardCard(ds, player, player.Hand[0].ID)
		}
		return nil

	case effects.OpRecycle:
		e.recycleFirstReadyRune(ds, ds.players[controller])
		return nil

	case effects.OpChannelRune:
		e.channelRune(ds, ds.players[controller])
		return nil

	default:
		return fmt.Errorf("unhandled effect op %s", op.Kind)
	}
}

// resolveTargets returns the object IDs an op applies to: chosen targets
// when present, otherwise objects matched implicitly by the op's
// target spec (auras, "your opponent", self).
func (e *Engine) resolveTargets(ds *duelState, controller string, op effects.Op, chosen []string) []string {
	if len(chosen) > 0 {
		return chosen
	}
	if op.Target == nil {
		return nil
	}
	// "Your opponent" needs no selection.
	if op.Target.Kind == targeting.KindPlayer && op.Target.Controller == targeting.ControllerOpponent {
		return []string{ds.opponentOf(controller)}
	}
	return nil
}

// dealDamage deals non-combat damage to a unit instance.
func (e *Engine) dealDamage(ds *duelState, targetID string, amount int, sourceID string) {
	ci, ok := ds.cards[targetID]
	if !ok || ci.Zone != zoneBoard || amount <= 0 {
		return
	}
	if ci.hasKeyword(card.KeywordShield) && !ci.ShieldUsed {
		ci.ShieldUsed = true
		return
	}
	ci.Damage += amount

	event := rules.NewEvent(rules.EventDamageDealt)
	event.PlayerID = ci.ControllerID
	event.SourceID = sourceID
	event.TargetID = ci.ID
	event.BattlefieldID = ci.BattlefieldID
	event.Amount = amount
	event.Turn = ds.turns.TurnNumber()
	ds.bus.Publish(event)
	e.queueTriggers(ds, event)

	if ci.Damage >= e.effectiveMight(ds, ci, roleNone) {
		e.killUnit(ds, ci, sourceID)
	}
}

// discardCard moves a hand card to the trash.
func (e *Engine) discardCard(ds *duelState, player *playerState, cardID string) bool {
	for i, ci := range player.Hand {
		if ci.ID != cardID {
			continue
		}
		player.Hand = append(player.Hand[:i], player.Hand[i+1:]...)
		ci.Zone = zoneTrash
		player.Trash = append(player.Trash, ci)

		event := rules.NewEvent(rules.EventCardDiscarded)
		event.PlayerID = player.PlayerID
		event.SourceID = ci.ID
		event.Turn = ds.turns.TurnNumber()
		ds.bus.Publish(event)
		return true
	}
	return false
}

// recycleFirstReadyRune recycles the leftmost rune in play for one
// power of its domain.
func (e *Engine) recycleFirstReadyRune(ds *duelState, player *playerState) {
	if len(player.RunesInPlay) == 0 {
		return
	}
	ci := player.RunesInPlay[0]
	if len(ci.Def.Domains) > 0 {
		player.Pool.AddPower(ci.Def.Domains[0], 1)
	}
	e.recycleRune(ds, player, ci.ID)
}

// playersStartingWithActive returns the seats in APNAP order.
func (e *Engine) playersStartingWithActive(ds *duelState) []string {
	active := ds.turns.ActivePlayer()
	ordered := make([]string, 0, len(ds.playerOrder))
	for i, id := range ds.playerOrder {
		if id == active {
			ordered = append(ordered, ds.playerOrder[i:]...)
			ordered = append(ordered, ds.playerOrder[:i]...)
			return ordered
		}
	}
	return ds.playerOrder
}

// addScore adds points and checks victory immediately.
func (e *Engine) addScore(ds *duelState, player *playerState, amount int, reason string) {
	if amount == 0 || player.Lost {
		return
	}
	player.Score += amount

	event := rules.NewEvent(rules.EventScoreChanged)
	event.PlayerID = player.PlayerID
	event.Amount = amount
	event.Turn = ds.turns.TurnNumber()
	event.Metadata["reason"] = reason
	ds.bus.Publish(event)

	e.checkVictory(ds)
}
