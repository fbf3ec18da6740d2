package game

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/riftforge/rift-server-go/internal/game/card"
	"github.com/riftforge/rift-server-go/internal/game/effects"
	"github.com/riftforge/rift-server-go/internal/game/rules"
	"github.com/riftforge/rift-server-go/internal/game/targeting"
)

// stateAccessor adapts duelState for the legality checker and the
// targeting validator.
type stateAccessor struct {
	ds     *duelState
	engine *Engine
}

func (sa *stateAccessor) FindCard(cardID string) (rules.CardInfo, bool) {
	ci, ok := sa.ds.cards[cardID]
	if !ok || ci.Zone == zoneTrash {
		return rules.CardInfo{}, false
	}
	return rules.CardInfo{
		ID:            ci.ID,
		Name:          ci.Def.Name,
		Type:          string(ci.Def.Type),
		Zone:          ci.Zone,
		ControllerID:  ci.ControllerID,
		OwnerID:       ci.OwnerID,
		Ready:         ci.Ready,
		FaceDown:      ci.FaceDown,
		BattlefieldID: ci.BattlefieldID,
	}, true
}

func (sa *stateAccessor) FindPlayer(playerID string) (rules.PlayerInfo, bool) {
	player, ok := sa.ds.players[playerID]
	if !ok {
		return rules.PlayerInfo{}, false
	}
	return rules.PlayerInfo{
		PlayerID: player.PlayerID,
		Name:     player.Name,
		Score:    player.Score,
		Lost:     player.Lost,
	}, true
}

func (sa *stateAccessor) TargetStillLegal(entry rules.ChainEntry, opIndex int, targetID string) bool {
	ops, ok := sa.engine.entryOps(sa.ds, entry)
	if !ok || opIndex >= len(ops) {
		return false
	}
	spec := ops[opIndex].Target
	if spec == nil {
		return true
	}
	source, _ := sa.ds.cards[entry.SourceID]
	sourceBattlefield := ""
	if source != nil {
		sourceBattlefield = source.BattlefieldID
	}
	validator := targeting.NewValidator(sa)
	return validator.ValidateTarget(targetID, entry.Controller, entry.SourceID, sourceBattlefield, *spec) == nil
}

// FindCandidate implements targeting.Accessor.
func (sa *stateAccessor) FindCandidate(id string) (targeting.CandidateInfo, bool) {
	if _, ok := sa.ds.players[id]; ok {
		return targeting.CandidateInfo{
			ID:           id,
			Kind:         targeting.KindPlayer,
			Zone:         targeting.ZoneAny,
			ControllerID: id,
		}, true
	}
	if bf := sa.ds.findBattlefield(id); bf != nil {
		return targeting.CandidateInfo{
			ID:           id,
			Kind:         targeting.KindBattlefield,
			Zone:         targeting.ZoneBoard,
			ControllerID: bf.ControllerID,
		}, true
	}
	ci, ok := sa.ds.cards[id]
	if !ok {
		return targeting.CandidateInfo{}, false
	}
	kind := targeting.KindUnit
	switch ci.Def.Type {
	case card.TypeGear:
		kind = targeting.KindGear
	case card.TypeRune:
		kind = targeting.KindRune
	}
	return targeting.CandidateInfo{
		ID:            ci.ID,
		Kind:          kind,
		Zone:          ci.Zone,
		ControllerID:  ci.ControllerID,
		Tags:          ci.Def.Tags,
		BattlefieldID: ci.BattlefieldID,
		FaceDown:      ci.FaceDown,
	}, true
}

// IsOpponent implements targeting.Accessor.
func (sa *stateAccessor) IsOpponent(playerID, otherID string) bool {
	return playerID != otherID
}

// entryOps recovers the op list a chain entry resolves, from its source
// clause.
func (e *Engine) entryOps(ds *duelState, entry rules.ChainEntry) ([]effects.Op, bool) {
	ci, ok := ds.cards[entry.SourceID]
	if !ok {
		return nil, false
	}
	if entry.ClauseIndex < 0 || entry.ClauseIndex >= len(ci.Def.Clauses) {
		return nil, false
	}
	return ci.Def.Clauses[entry.ClauseIndex].Ops, true
}

// triggerEventTypes maps clause trigger kinds to the events they listen
// for. Static, activated and enter-ready clauses never register event
// triggers.
var triggerEventTypes = map[effects.TriggerKind]rules.EventType{
	effects.TriggerPlayed:     rules.EventCardPlayed,
	effects.TriggerDeathknell: rules.EventUnitDied,
	effects.TriggerConquer:    rules.EventConquer,
	effects.TriggerHold:       rules.EventHold,
	effects.TriggerAttacking:  rules.EventAttackDeclared,
	effects.TriggerDefending:  rules.EventCombatBegan,
	effects.TriggerUnitEnters: rules.EventUnitEntered,
	effects.TriggerTurnEnd:    rules.EventTurnEnded,
}

// registerCardTriggers registers event triggers for every triggered
// clause of an in-play instance.
func (e *Engine) registerCardTriggers(ds *duelState, ci *cardInstance) {
	for idx, clause := range ci.Def.Clauses {
		eventType, ok := triggerEventTypes[clause.Trigger]
		if !ok {
			continue
		}
		// Spells resolve their played clauses directly; only permanents
		// watch events.
		if ci.Def.Type == card.TypeSpell {
			continue
		}
		idx := idx
		clause := clause
		ds.triggers.Register(rules.Trigger{
			ID:          fmt.Sprintf("%s#%d", ci.ID, idx),
			SourceID:    ci.ID,
			Controller:  ci.ControllerID,
			SourceOrder: ci.PlayOrder,
			ClauseIndex: idx,
			EventType:   eventType,
			Condition: func(event rules.Event) bool {
				return e.triggerApplies(ds, ci, clause, event)
			},
			Build: func(event rules.Event) rules.ChainEntry {
				return e.buildClauseEntry(ds, ci, idx, clause, event)
			},
		})
	}
}

// triggerApplies decides whether an event concerns this instance's
// clause: self-scoped triggers check the source, controller-scoped ones
// check the controller, and gating conditions are evaluated at fire
// time.
func (e *Engine) triggerApplies(ds *duelState, ci *cardInstance, clause effects.Clause, event rules.Event) bool {
	if ci.Zone != zoneBoard || ci.FaceDown {
		// Deathknell fires from the dying unit itself.
		if !(clause.Trigger == effects.TriggerDeathknell && event.SourceID == ci.ID) {
			return false
		}
	}
	switch clause.Trigger {
	case effects.TriggerPlayed, effects.TriggerDeathknell, effects.TriggerAttacking:
		if event.SourceID != ci.ID {
			return false
		}
	case effects.TriggerDefending:
		if event.BattlefieldID == "" || event.BattlefieldID != ci.BattlefieldID || !ci.Defending {
			return false
		}
	case effects.TriggerConquer, effects.TriggerHold, effects.TriggerTurnEnd:
		if event.PlayerID != ci.ControllerID {
			return false
		}
	case effects.TriggerUnitEnters:
		if event.PlayerID != ci.ControllerID || event.SourceID == ci.ID {
			return false
		}
	}
	if clause.Condition != nil && !e.conditionMet(ds, ci, clause.Condition) {
		return false
	}
	return true
}

// conditionMet evaluates a gating condition against the board.
func (e *Engine) conditionMet(ds *duelState, ci *cardInstance, cond *effects.Condition) bool {
	switch cond.Kind {
	case effects.CondAlone:
		for _, other := range ds.unitsAt(ci.ControllerID, ci.BattlefieldID) {
			if other.ID != ci.ID {
				return false
			}
		}
		return true
	case effects.CondLegion:
		return ds.cardsPlayed.LegionMet(ci.ControllerID, ci.ID)
	case effects.CondMighty:
		return e.effectiveMight(ds, ci, roleNone) >= cond.Amount
	case effects.CondUnitsDied:
		return ds.unitsDied.GetTotalAmount() > 0
	case effects.CondConquered:
		return ds.conquests.GetCount(ci.ControllerID) > 0
	case effects.CondDrewCards:
		return ds.cardsDrawn.GetCount(ci.ControllerID) >= cond.Amount
	case effects.CondControlTag:
		count := 0
		for _, other := range ds.cards {
			if other.Zone == zoneBoard && other.ControllerID == ci.ControllerID &&
				other.ID != ci.ID && !other.FaceDown && other.Def.HasTag(cond.Tag) {
				count++
			}
		}
		return count >= cond.Amount
	default:
		return false
	}
}

// buildClauseEntry builds the chain entry a firing clause queues.
func (e *Engine) buildClauseEntry(ds *duelState, ci *cardInstance, clauseIndex int, clause effects.Clause, event rules.Event) rules.ChainEntry {
	entryID := uuid.NewString()
	entry := rules.ChainEntry{
		ID:           entryID,
		Controller:   ci.ControllerID,
		Description:  fmt.Sprintf("%s: %s", ci.Def.Name, clause.Text),
		Kind:         rules.EntryTriggered,
		SourceID:     ci.ID,
		ClauseIndex:  clauseIndex,
		NeedsTargets: clause.NeedsTargets(),
	}
	entry.Resolve = func() error {
		current, _ := ds.cards[ci.ID]
		if current == nil {
			return nil
		}
		targets := e.chainTargetsFor(ds, entryID)
		return e.applyOps(ds, ci.ControllerID, ci.ID, clause.Ops, targets, entryID)
	}
	return entry
}

// armDelayedDeathTrigger schedules a one-shot trigger that fires the
// clause's effects on the next friendly unit death this turn.
func (e *Engine) armDelayedDeathTrigger(ds *duelState, controller string, ci *cardInstance, clauseIndex int, clause effects.Clause) {
	ds.delayed.Schedule(rules.DelayedTrigger{
		ID:               fmt.Sprintf("%s#%d", ci.ID, clauseIndex),
		SourceID:         ci.ID,
		Controller:       controller,
		EventType:        rules.EventUnitDied,
		ExpiresAfterTurn: ds.turns.TurnNumber(),
		Condition: func(event rules.Event) bool {
			return event.PlayerID == controller
		},
		Build: func(event rules.Event) rules.ChainEntry {
			return e.buildClauseEntry(ds, ci, clauseIndex, clause, event)
		},
	})
}

// chainTargetsFor reads back the chosen targets of an entry. During
// resolution the entry has already been popped off the chain, so the
// in-flight entry is checked first.
func (e *Engine) chainTargetsFor(ds *duelState, entryID string) map[int][]string {
	if ds.resolving != nil && ds.resolving.ID == entryID {
		return ds.resolving.Targets
	}
	for _, entry := range ds.chain.List() {
		if entry.ID == entryID {
			return entry.Targets
		}
	}
	return nil
}

// queueTriggers evaluates an event against registered and delayed
// triggers and queues the produced entries on the chain. Non-reactable
// clauses (pure resource gains) apply immediately instead.
func (e *Engine) queueTriggers(ds *duelState, event rules.Event) {
	entries := ds.triggers.Handle(event, ds.turns.ActivePlayer())
	entries = append(entries, ds.delayed.Handle(event)...)
	if len(entries) == 0 {
		return
	}
	for _, entry := range entries {
		source, ok := ds.cards[entry.SourceID]
		if ok && entry.ClauseIndex < len(source.Def.Clauses) {
			clause := source.Def.Clauses[entry.ClauseIndex]
			if !clause.IsReactable() {
				if entry.Resolve != nil {
					entry.Resolve()
				}
				continue
			}
		}
		ds.chain.Push(entry)
		added := rules.NewEvent(rules.EventChainEntryAdded)
		added.PlayerID = entry.Controller
		added.SourceID = entry.SourceID
		added.Turn = ds.turns.TurnNumber()
		ds.bus.Publish(added)
	}
	if !ds.chain.IsEmpty() && ds.windows.Current().Kind == rules.WindowOpen {
		ds.windows.Push(rules.Window{Kind: rules.WindowClosed, Initiator: event.PlayerID})
	}
}
