package game

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/riftforge/rift-server-go/internal/game/card"
	"github.com/riftforge/rift-server-go/internal/game/counters"
	"github.com/riftforge/rift-server-go/internal/game/effects"
	"github.com/riftforge/rift-server-go/internal/game/rules"
	"github.com/riftforge/rift-server-go/internal/game/runes"
	"github.com/riftforge/rift-server-go/internal/game/targeting"
)

const hideCost = 1

// handlePlayCard plays a card from hand, or flips a face-down card at a
// battlefield. Units and gear enter play directly; spells go on the
// chain and close the window.
func (e *Engine) handlePlayCard(ds *duelState, action Action) *ActionResult {
	if r := ds.requirePriority(action); r != nil {
		return r
	}
	if r := ds.requireNoPendingChoice(action); r != nil {
		return r
	}
	player := ds.players[action.PlayerID]

	ci, fromHidden := e.findPlayable(ds, player, action.CardID)
	if ci == nil {
		return ds.reject(action, "card not in hand or hidden", map[string]string{"card_id": action.CardID})
	}

	switch ci.Def.Type {
	case card.TypeUnit, card.TypeGear, card.TypeSpell:
	default:
		return ds.reject(action, fmt.Sprintf("%s cards cannot be played", ci.Def.Type), nil)
	}

	if r := e.checkPlayTiming(ds, action, ci.Def.PlaySpeed()); r != nil {
		return r
	}

	if ci.Def.Type == card.TypeUnit && action.BattlefieldID != "" {
		bf := ds.findBattlefield(action.BattlefieldID)
		if bf == nil {
			return ds.reject(action, "unknown battlefield", map[string]string{"battlefield_id": action.BattlefieldID})
		}
		opponent := ds.opponentOf(action.PlayerID)
		if len(ds.unitsAt(opponent, action.BattlefieldID)) > 0 {
			return ds.reject(action, "cannot play a unit into a contested battlefield", nil)
		}
	}

	// Validate provided spell targets before paying anything.
	var playedClause int = -1
	if ci.Def.Type == card.TypeSpell {
		playedClause = firstPlayedClause(ci.Def)
		if playedClause < 0 {
			return ds.reject(action, "spell has no playable effect", nil)
		}
		if len(action.TargetIDs) > 0 {
			if err := e.validateSpellTargets(ds, ci, playedClause, action); err != nil {
				return ds.reject(action, err.Error(), nil)
			}
		}
	}

	cost := effectiveCost(ci.Def.Cost, e.deflectSurcharge(ds, action.PlayerID, action.TargetIDs))
	if reason, ok := e.payCost(ds, player, cost); !ok {
		return ds.reject(action, reason, nil)
	}

	e.removeFromOrigin(ds, player, ci, fromHidden)

	if ci.Def.Type == card.TypeSpell {
		e.pushSpell(ds, player, ci, playedClause, action.TargetIDs)
	} else {
		e.enterPlay(ds, player, ci, action.BattlefieldID)
	}
	return ds.accept(action)
}

// findPlayable locates the card in the player's hand, or face-down at a
// battlefield.
func (e *Engine) findPlayable(ds *duelState, player *playerState, cardID string) (*cardInstance, bool) {
	for _, ci := range player.Hand {
		if ci.ID == cardID {
			return ci, false
		}
	}
	for _, bf := range ds.battlefields {
		for _, ci := range bf.Hidden[player.PlayerID] {
			if ci.ID == cardID {
				return ci, true
			}
		}
	}
	return nil, false
}

// checkPlayTiming enforces play-speed rules: Action speed needs the
// player's own ACTION phase, an open window and an empty chain; Reaction
// speed only needs priority during the ACTION phase.
func (e *Engine) checkPlayTiming(ds *duelState, action Action, speed effects.Timing) *ActionResult {
	if ds.turns.CurrentPhase() != rules.PhaseAction {
		return ds.reject(action, "cards can only be played during the action phase", nil)
	}
	if speed == effects.TimingReaction {
		return nil
	}
	if ds.turns.ActivePlayer() != action.PlayerID {
		return ds.reject(action, "action-speed cards require your own turn", nil)
	}
	if ds.windows.Current().Kind != rules.WindowOpen {
		return ds.reject(action, "action-speed cards require an open window", map[string]string{
			"window": string(ds.windows.Current().Kind),
		})
	}
	if !ds.chain.IsEmpty() {
		return ds.reject(action, "action-speed cards require an empty chain", nil)
	}
	return nil
}

func firstPlayedClause(def *card.Definition) int {
	for i, clause := range def.Clauses {
		if clause.Trigger == effects.TriggerPlayed {
			return i
		}
	}
	return -1
}

func (e *Engine) validateSpellTargets(ds *duelState, ci *cardInstance, clauseIndex int, action Action) error {
	ops := ci.Def.Clauses[clauseIndex].Ops
	validator := targeting.NewValidator(&stateAccessor{ds: ds, engine: e})
	remaining := action.TargetIDs
	for _, op := range ops {
		if op.Target == nil {
			continue
		}
		take := op.Target.MaxTargets
		if take > len(remaining) {
			take = len(remaining)
		}
		for _, targetID := range remaining[:take] {
			if err := validator.ValidateTarget(targetID, action.PlayerID, ci.ID, "", *op.Target); err != nil {
				return err
			}
		}
		remaining = remaining[take:]
	}
	return nil
}

// deflectSurcharge totals the Deflect taxes of targeted enemy units.
func (e *Engine) deflectSurcharge(ds *duelState, playerID string, targetIDs []string) int {
	surcharge := 0
	for _, targetID := range targetIDs {
		ci, ok := ds.cards[targetID]
		if !ok || ci.Zone != zoneBoard || ci.ControllerID == playerID {
			continue
		}
		if ci.hasKeyword(card.KeywordDeflect) {
			surcharge += ci.keywordValue(card.KeywordDeflect)
		}
	}
	return surcharge
}

// effectiveCost returns the printed cost plus an energy surcharge,
// without mutating the definition's cost.
func effectiveCost(base *runes.Cost, surcharge int) *runes.Cost {
	if base == nil && surcharge == 0 {
		return nil
	}
	cost := runes.NewCost()
	if base != nil {
		cost = cost.Add(base)
	}
	cost.Energy += surcharge
	return cost
}

// paymentSources collects the player's rune and seal sources in board
// order.
func (e *Engine) paymentSources(ds *duelState, player *playerState) (runeSources, sealSources []runes.Source) {
	for _, ci := range player.RunesInPlay {
		domain := runes.Domain("")
		if len(ci.Def.Domains) > 0 {
			domain = ci.Def.Domains[0]
		}
		runeSources = append(runeSources, runes.Source{ID: ci.ID, Domain: domain, Ready: ci.Ready})
	}
	for _, ci := range e.sortedBoard(ds) {
		if ci.ControllerID != player.PlayerID || ci.Def.Type != card.TypeGear || !ci.Def.HasTag("seal") {
			continue
		}
		domain := runes.Domain("")
		if len(ci.Def.Domains) > 0 {
			domain = ci.Def.Domains[0]
		}
		sealSources = append(sealSources, runes.Source{ID: ci.ID, Domain: domain, Ready: ci.Ready})
	}
	return runeSources, sealSources
}

// planPayment computes a payment plan without touching the pool or any
// sources. A nil plan with ok=true means the cost was free.
func (e *Engine) planPayment(ds *duelState, player *playerState, cost *runes.Cost) (*runes.PaymentPlan, string, bool) {
	if cost == nil || cost.IsFree() {
		return nil, "", true
	}
	runeSources, sealSources := e.paymentSources(ds, player)
	result := runes.CalculatePayment(cost, player.Pool, runeSources, sealSources)
	if !result.Success {
		return nil, result.Reason, false
	}
	return result.Plan, "", true
}

// commitPayment applies a previously computed plan: spends the pool and
// exhausts or recycles the planned sources.
func (e *Engine) commitPayment(ds *duelState, player *playerState, plan *runes.PaymentPlan) bool {
	if plan == nil {
		return true
	}
	if !runes.ExecutePoolSpend(plan, player.Pool) {
		return false
	}
	for _, id := range plan.ExhaustRunes {
		if ci, ok := ds.cards[id]; ok {
			ci.Ready = false
		}
	}
	for _, id := range plan.RecycleRunes {
		e.recycleRune(ds, player, id)
	}
	for _, id := range plan.ExhaustSeals {
		if ci, ok := ds.cards[id]; ok {
			ci.Ready = false
		}
	}
	return true
}

// payCost plans and commits a payment. Either the whole payment applies
// or nothing does.
func (e *Engine) payCost(ds *duelState, player *playerState, cost *runes.Cost) (string, bool) {
	plan, reason, ok := e.planPayment(ds, player, cost)
	if !ok {
		return reason, false
	}
	if !e.commitPayment(ds, player, plan) {
		return "pool spend failed", false
	}
	return "", true
}

// recycleRune removes a rune from play to the bottom of the rune deck.
func (e *Engine) recycleRune(ds *duelState, player *playerState, runeID string) bool {
	for i, ci := range player.RunesInPlay {
		if ci.ID != runeID {
			continue
		}
		player.RunesInPlay = append(player.RunesInPlay[:i], player.RunesInPlay[i+1:]...)
		ci.Zone = zoneRunes
		ci.Ready = false
		player.RuneDeck = append(player.RuneDeck, ci)

		event := rules.NewEvent(rules.EventRuneRecycled)
		event.PlayerID = player.PlayerID
		event.SourceID = ci.ID
		event.Turn = ds.turns.TurnNumber()
		ds.bus.Publish(event)
		return true
	}
	return false
}

// removeFromOrigin detaches the card from its hand or hidden slot.
func (e *Engine) removeFromOrigin(ds *duelState, player *playerState, ci *cardInstance, fromHidden bool) {
	if fromHidden {
		for _, bf := range ds.battlefields {
			cards := bf.Hidden[player.PlayerID]
			for i, hidden := range cards {
				if hidden.ID == ci.ID {
					bf.Hidden[player.PlayerID] = append(cards[:i], cards[i+1:]...)
					ci.FaceDown = false
					return
				}
			}
		}
		return
	}
	for i, held := range player.Hand {
		if held.ID == ci.ID {
			player.Hand = append(player.Hand[:i], player.Hand[i+1:]...)
			return
		}
	}
}

// enterPlay puts a unit or gear instance onto the board.
func (e *Engine) enterPlay(ds *duelState, player *playerState, ci *cardInstance, battlefieldID string) {
	ci.Zone = zoneBoard
	ci.ControllerID = player.PlayerID
	ci.BattlefieldID = battlefieldID
	ci.Damage = 0
	ci.ShieldUsed = false
	ci.EnteredTurn = ds.turns.TurnNumber()
	ci.PlayedTurn = ds.turns.TurnNumber()
	ci.PlayOrder = ds.playCounter
	ds.playCounter++
	ci.Ready = e.entersReady(ds, ci)

	e.registerCardTriggers(ds, ci)

	played := rules.NewEvent(rules.EventCardPlayed)
	played.PlayerID = player.PlayerID
	played.SourceID = ci.ID
	played.BattlefieldID = battlefieldID
	played.Turn = ds.turns.TurnNumber()
	ds.bus.Publish(played)
	e.queueTriggers(ds, played)

	if ci.Def.Type == card.TypeUnit {
		entered := rules.NewEvent(rules.EventUnitEntered)
		entered.PlayerID = player.PlayerID
		entered.SourceID = ci.ID
		entered.BattlefieldID = battlefieldID
		entered.Turn = ds.turns.TurnNumber()
		ds.bus.Publish(entered)
		e.queueTriggers(ds, entered)
		e.recomputeOccupancy(ds)
	}
	e.notify(ds, "CARD_ENTERED", map[string]interface{}{
		"card_id":   ci.ID,
		"player_id": player.PlayerID,
	})
}

// entersReady decides whether an instance enters play ready: Accelerate,
// or a met enters-ready condition. Everything else enters exhausted.
func (e *Engine) entersReady(ds *duelState, ci *cardInstance) bool {
	if ci.hasKeyword(card.KeywordAccelerate) {
		return true
	}
	for _, clause := range ci.Def.Clauses {
		if clause.Trigger != effects.TriggerEnterReady || clause.Condition == nil {
			continue
		}
		if e.conditionMet(ds, ci, clause.Condition) {
			return true
		}
	}
	return false
}

// pushSpell puts a spell on the chain and closes the window.
func (e *Engine) pushSpell(ds *duelState, player *playerState, ci *cardInstance, clauseIndex int, targetIDs []string) {
	ci.Zone = zoneChain
	clause := ci.Def.Clauses[clauseIndex]
	entryID := uuid.NewString()

	entry := rules.ChainEntry{
		ID:           entryID,
		Controller:   player.PlayerID,
		Description:  fmt.Sprintf("%s: %s", ci.Def.Name, clause.Text),
		Kind:         rules.EntrySpell,
		SourceID:     ci.ID,
		ClauseIndex:  clauseIndex,
		NeedsTargets: clause.NeedsTargets(),
	}
	entry.Resolve = func() error {
		if clause.Trigger == effects.TriggerNextDeath {
			// Resolving arms the delayed trigger; the effect itself
			// waits for the death.
			e.armDelayedDeathTrigger(ds, player.PlayerID, ci, clauseIndex, clause)
			e.spellToTrash(ds, ci)
			return nil
		}
		if clause.Condition != nil && !e.conditionMet(ds, ci, clause.Condition) {
			e.spellToTrash(ds, ci)
			return nil
		}
		targets := e.chainTargetsFor(ds, entryID)
		err := e.applyOps(ds, player.PlayerID, ci.ID, clause.Ops, targets, entryID)
		e.spellToTrash(ds, ci)
		return err
	}
	entry.OnFizzle = func() {
		e.spellToTrash(ds, ci)
	}
	ds.chain.Push(entry)
	if len(targetIDs) > 0 {
		e.assignTargetsInOrder(ds, entryID, clause.Ops, targetIDs)
	}

	played := rules.NewEvent(rules.EventCardPlayed)
	played.PlayerID = player.PlayerID
	played.SourceID = ci.ID
	played.Turn = ds.turns.TurnNumber()
	ds.bus.Publish(played)
	e.queueTriggers(ds, played)

	added := rules.NewEvent(rules.EventChainEntryAdded)
	added.PlayerID = player.PlayerID
	added.SourceID = ci.ID
	added.Turn = ds.turns.TurnNumber()
	ds.bus.Publish(added)

	if ds.windows.Current().Kind == rules.WindowOpen {
		ds.windows.Push(rules.Window{Kind: rules.WindowClosed, Initiator: player.PlayerID})
	}
	// The opponent answers first.
	ds.turns.SetPriority(ds.opponentOf(player.PlayerID))
	ds.consecutivePasses = 0
}

// assignTargetsInOrder distributes a flat target list over the clause's
// target-bearing ops, marking the entry ready when all mandatory specs
// are filled.
func (e *Engine) assignTargetsInOrder(ds *duelState, entryID string, ops []effects.Op, targetIDs []string) {
	remaining := targetIDs
	for i, op := range ops {
		if op.Target == nil || len(remaining) == 0 {
			continue
		}
		take := op.Target.MaxTargets
		if take > len(remaining) {
			take = len(remaining)
		}
		ds.chain.SetTargets(entryID, i, remaining[:take], false)
		remaining = remaining[take:]
	}
	e.refreshEntryReadiness(ds, entryID)
}

// refreshEntryReadiness recomputes Ready for a chain entry by checking
// every mandatory target spec against the chosen selections.
func (e *Engine) refreshEntryReadiness(ds *duelState, entryID string) {
	for _, entry := range ds.chain.List() {
		if entry.ID != entryID {
			continue
		}
		ops, ok := e.entryOps(ds, entry)
		if !ok {
			return
		}
		ready := true
		for i, op := range ops {
			if !op.NeedsTargets() {
				continue
			}
			sel := targeting.Selection{Targets: entry.Targets[i], Spec: *op.Target}
			if !sel.IsComplete() {
				ready = false
				break
			}
		}
		if ready {
			// SetTargets with markReady flips the Ready flag in place.
			last := lastTargetOp(ops)
			ds.chain.SetTargets(entryID, last, entry.Targets[last], true)
		}
		return
	}
}

func lastTargetOp(ops []effects.Op) int {
	last := 0
	for i, op := range ops {
		if op.Target != nil {
			last = i
		}
	}
	return last
}

func (e *Engine) spellToTrash(ds *duelState, ci *cardInstance) {
	ci.Zone = zoneTrash
	owner := ds.players[ci.OwnerID]
	if owner != nil {
		owner.Trash = append(owner.Trash, ci)
	}
}

// handleHideCard plays a Hidden-keyword card face down at a battlefield
// for a flat cost. The card flips by playing it later for its printed
// cost.
func (e *Engine) handleHideCard(ds *duelState, action Action) *ActionResult {
	if r := ds.requirePriority(action); r != nil {
		return r
	}
	if r := ds.requireNoPendingChoice(action); r != nil {
		return r
	}
	player := ds.players[action.PlayerID]

	var ci *cardInstance
	for _, held := range player.Hand {
		if held.ID == action.CardID {
			ci = held
			break
		}
	}
	if ci == nil {
		return ds.reject(action, "card not in hand", map[string]string{"card_id": action.CardID})
	}
	if !ci.hasKeyword(card.KeywordHidden) {
		return ds.reject(action, "card cannot be hidden", nil)
	}
	bf := ds.findBattlefield(action.BattlefieldID)
	if bf == nil {
		return ds.reject(action, "unknown battlefield", map[string]string{"battlefield_id": action.BattlefieldID})
	}
	if r := e.checkPlayTiming(ds, action, effects.TimingAction); r != nil {
		return r
	}

	cost := runes.NewCost()
	cost.Energy = hideCost
	if reason, ok := e.payCost(ds, player, cost); !ok {
		return ds.reject(action, reason, nil)
	}

	e.removeFromOrigin(ds, player, ci, false)
	ci.Zone = zoneBoard
	ci.FaceDown = true
	ci.Ready = false
	ci.BattlefieldID = bf.ID
	bf.Hidden[player.PlayerID] = append(bf.Hidden[player.PlayerID], ci)
	return ds.accept(action)
}

// handleMoveUnit exhausts a ready unit to move it between its base and a
// battlefield. Moving into enemy units is an attack, not a move.
func (e *Engine) handleMoveUnit(ds *duelState, action Action) *ActionResult {
	if r := ds.requirePriority(action); r != nil {
		return r
	}
	if r := ds.requireNoPendingChoice(action); r != nil {
		return r
	}
	if ds.turns.ActivePlayer() != action.PlayerID || ds.turns.CurrentPhase() != rules.PhaseAction {
		return ds.reject(action, "units move during your own action phase", nil)
	}
	if ds.windows.Current().Kind != rules.WindowOpen || !ds.chain.IsEmpty() {
		return ds.reject(action, "units move only in an open window with an empty chain", nil)
	}

	ci, ok := ds.cards[action.CardID]
	if !ok || ci.Zone != zoneBoard || ci.ControllerID != action.PlayerID || ci.Def.Type != card.TypeUnit {
		return ds.reject(action, "not a unit you control in play", map[string]string{"card_id": action.CardID})
	}
	if !ci.Ready {
		return ds.reject(action, "unit is exhausted", nil)
	}
	if action.BattlefieldID == ci.BattlefieldID {
		return ds.reject(action, "unit is already there", nil)
	}
	if action.BattlefieldID != "" {
		if ds.findBattlefield(action.BattlefieldID) == nil {
			return ds.reject(action, "unknown battlefield", map[string]string{"battlefield_id": action.BattlefieldID})
		}
		opponent := ds.opponentOf(action.PlayerID)
		if len(ds.unitsAt(opponent, action.BattlefieldID)) > 0 {
			return ds.reject(action, "moving into enemy units requires an attack declaration", nil)
		}
	}

	ci.Ready = false
	e.moveUnit(ds, ci, action.BattlefieldID)
	return ds.accept(action)
}

// moveUnit relocates a unit and rechecks battlefield occupancy.
func (e *Engine) moveUnit(ds *duelState, ci *cardInstance, battlefieldID string) {
	ci.BattlefieldID = battlefieldID
	ci.Attacking = false
	ci.Defending = false
	e.recomputeOccupancy(ds)
}

// handleSetChainTargets sets the chosen targets for one op of a pending
// chain entry. Only the entry's controller may choose.
func (e *Engine) handleSetChainTargets(ds *duelState, action Action) *ActionResult {
	var entry *rules.ChainEntry
	for _, candidate := range ds.chain.List() {
		if candidate.ID == action.EntryID {
			c := candidate
			entry = &c
			break
		}
	}
	if entry == nil {
		return ds.reject(action, "chain entry not found", map[string]string{"entry_id": action.EntryID})
	}
	if entry.Controller != action.PlayerID {
		return ds.reject(action, "only the entry's controller chooses targets", nil)
	}
	ops, ok := e.entryOps(ds, *entry)
	if !ok || action.OpIndex < 0 || action.OpIndex >= len(ops) {
		return ds.reject(action, "invalid op index", nil)
	}
	spec := ops[action.OpIndex].Target
	if spec == nil {
		return ds.reject(action, "op takes no targets", nil)
	}

	sel := targeting.Selection{Targets: action.TargetIDs, Spec: *spec}
	if err := sel.Validate(); err != nil {
		return ds.reject(action, err.Error(), nil)
	}
	source, _ := ds.cards[entry.SourceID]
	sourceBattlefield := ""
	if source != nil {
		sourceBattlefield = source.BattlefieldID
	}
	validator := targeting.NewValidator(&stateAccessor{ds: ds, engine: e})
	for _, targetID := range action.TargetIDs {
		if err := validator.ValidateTarget(targetID, entry.Controller, entry.SourceID, sourceBattlefield, *spec); err != nil {
			return ds.reject(action, err.Error(), map[string]string{"target_id": targetID})
		}
	}
	// Deflect tax applies when aiming at protected enemy units.
	if surcharge := e.deflectSurcharge(ds, action.PlayerID, action.TargetIDs); surcharge > 0 {
		cost := runes.NewCost()
		cost.Energy = surcharge
		if reason, ok := e.payCost(ds, ds.players[action.PlayerID], cost); !ok {
			return ds.reject(action, reason, nil)
		}
	}

	ds.chain.SetTargets(action.EntryID, action.OpIndex, action.TargetIDs, false)
	e.refreshEntryReadiness(ds, action.EntryID)
	e.notify(ds, "CHAIN_UPDATE", map[string]interface{}{"chain_len": ds.chain.Len()})
	return ds.accept(action)
}

// handleResolveChoice answers a pending optional ("you may") choice.
func (e *Engine) handleResolveChoice(ds *duelState, action Action) *ActionResult {
	pending := ds.pending
	if pending == nil || pending.Kind != choiceOptional {
		return ds.reject(action, "no optional choice pending", nil)
	}
	if pending.Player != action.PlayerID {
		return ds.reject(action, "choice belongs to another player", map[string]string{"player": pending.Player})
	}
	if action.ChoiceID != "" && action.ChoiceID != pending.ID {
		return ds.reject(action, "choice id mismatch", nil)
	}

	ds.pending = nil
	if action.Accept {
		if err := e.applyOp(ds, pending.Controller, pending.SourceID, pending.Op, action.TargetIDs); err != nil {
			return ds.reject(action, err.Error(), nil)
		}
	}
	if err := e.applyOps(ds, pending.Controller, pending.SourceID, pending.RemainingOps, nil, pending.EntryID); err != nil {
		return ds.reject(action, err.Error(), nil)
	}
	return ds.accept(action)
}

// handleEachPlayerChoice records one player's answer to a symmetric
// choice (each player discards a card). The suspended sequence resumes
// once every player has answered.
func (e *Engine) handleEachPlayerChoice(ds *duelState, action Action) *ActionResult {
	pending := ds.pending
	if pending == nil || pending.Kind != choiceEachPlayer {
		return ds.reject(action, "no each-player choice pending", nil)
	}
	idx := -1
	for i, id := range pending.Awaiting {
		if id == action.PlayerID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ds.reject(action, "player already answered or is not part of this choice", nil)
	}

	player := ds.players[action.PlayerID]
	if pending.Op.Kind == effects.OpDiscard && len(player.Hand) > 0 {
		if !e.discardCard(ds, player, action.CardID) {
			return ds.reject(action, "card not in hand", map[string]string{"card_id": action.CardID})
		}
	}

	pending.Awaiting = append(pending.Awaiting[:idx], pending.Awaiting[idx+1:]...)
	pending.Responses[action.PlayerID] = true
	if len(pending.Awaiting) > 0 {
		return ds.accept(action)
	}

	ds.pending = nil
	if err := e.applyOps(ds, pending.Controller, pending.SourceID, pending.RemainingOps, nil, pending.EntryID); err != nil {
		return ds.reject(action, err.Error(), nil)
	}
	return ds.accept(action)
}

// handleExhaustRune exhausts a ready rune for one energy.
func (e *Engine) handleExhaustRune(ds *duelState, action Action) *ActionResult {
	if r := ds.requirePriority(action); r != nil {
		return r
	}
	player := ds.players[action.PlayerID]
	for _, ci := range player.RunesInPlay {
		if ci.ID != action.CardID {
			continue
		}
		if !ci.Ready {
			return ds.reject(action, "rune is exhausted", nil)
		}
		ci.Ready = false
		player.Pool.AddEnergy(1)
		return ds.accept(action)
	}
	return ds.reject(action, "rune not in play", map[string]string{"card_id": action.CardID})
}

// handleRecycleRune recycles a rune in play for one power of its domain.
func (e *Engine) handleRecycleRune(ds *duelState, action Action) *ActionResult {
	if r := ds.requirePriority(action); r != nil {
		return r
	}
	player := ds.players[action.PlayerID]
	for _, ci := range player.RunesInPlay {
		if ci.ID != action.CardID {
			continue
		}
		if len(ci.Def.Domains) > 0 {
			player.Pool.AddPower(ci.Def.Domains[0], 1)
		}
		e.recycleRune(ds, player, ci.ID)
		return ds.accept(action)
	}
	return ds.reject(action, "rune not in play", map[string]string{"card_id": action.CardID})
}

// handleExhaustSeal exhausts a ready seal for one power of its domain.
func (e *Engine) handleExhaustSeal(ds *duelState, action Action) *ActionResult {
	if r := ds.requirePriority(action); r != nil {
		return r
	}
	ci, ok := ds.cards[action.CardID]
	if !ok || ci.Zone != zoneBoard || ci.ControllerID != action.PlayerID ||
		ci.Def.Type != card.TypeGear || !ci.Def.HasTag("seal") {
		return ds.reject(action, "not a seal you control", map[string]string{"card_id": action.CardID})
	}
	if !ci.Ready {
		return ds.reject(action, "seal is exhausted", nil)
	}
	ci.Ready = false
	if len(ci.Def.Domains) > 0 {
		ds.players[action.PlayerID].Pool.AddPower(ci.Def.Domains[0], 1)
	}
	return ds.accept(action)
}

// handleActivateLegend activates the legend's ability, once per turn.
func (e *Engine) handleActivateLegend(ds *duelState, action Action) *ActionResult {
	if r := ds.requirePriority(action); r != nil {
		return r
	}
	if r := ds.requireNoPendingChoice(action); r != nil {
		return r
	}
	player := ds.players[action.PlayerID]
	if player.Legend == nil {
		return ds.reject(action, "player has no legend", nil)
	}
	if player.LegendUsedTurn == ds.turns.TurnNumber() {
		return ds.reject(action, "legend already activated this turn", nil)
	}
	idx, clause := activatedClause(player.Legend.Def, action.ClauseIndex)
	if idx < 0 {
		return ds.reject(action, "legend has no activated ability", nil)
	}
	if r := e.activateClause(ds, action, player.Legend, idx, clause); r != nil {
		return r
	}
	player.LegendUsedTurn = ds.turns.TurnNumber()
	return ds.accept(action)
}

// handleActivateAbility activates an ability of a unit or gear in play.
func (e *Engine) handleActivateAbility(ds *duelState, action Action) *ActionResult {
	if r := ds.requirePriority(action); r != nil {
		return r
	}
	if r := ds.requireNoPendingChoice(action); r != nil {
		return r
	}
	ci, ok := ds.cards[action.CardID]
	if !ok || ci.Zone != zoneBoard || ci.ControllerID != action.PlayerID || ci.FaceDown {
		return ds.reject(action, "not a card you control in play", map[string]string{"card_id": action.CardID})
	}
	idx, clause := activatedClause(ci.Def, action.ClauseIndex)
	if idx < 0 {
		return ds.reject(action, "card has no activated ability", nil)
	}
	if r := e.activateClause(ds, action, ci, idx, clause); r != nil {
		return r
	}
	return ds.accept(action)
}

// activatedClause returns the requested activated clause, or the first
// one when no index is given.
func activatedClause(def *card.Definition, clauseIndex int) (int, effects.Clause) {
	if clauseIndex > 0 {
		if clauseIndex < len(def.Clauses) && def.Clauses[clauseIndex].Trigger == effects.TriggerActivated {
			return clauseIndex, def.Clauses[clauseIndex]
		}
		return -1, effects.Clause{}
	}
	for i, clause := range def.Clauses {
		if clause.Trigger == effects.TriggerActivated {
			return i, clause
		}
	}
	return -1, effects.Clause{}
}

// activateClause pays an ability's additional costs and puts it on the
// chain. Returns a rejection result, or nil on success.
func (e *Engine) activateClause(ds *duelState, action Action, ci *cardInstance, clauseIndex int, clause effects.Clause) *ActionResult {
	if clause.Timing == effects.TimingAction {
		if r := e.checkPlayTiming(ds, action, effects.TimingAction); r != nil {
			return r
		}
	} else if ds.turns.CurrentPhase() != rules.PhaseAction {
		return ds.reject(action, "abilities activate during the action phase", nil)
	}

	// Validate every cost component before paying any of them: a rejected
	// activation must leave state untouched.
	player := ds.players[action.PlayerID]
	cost := clause.Extra
	if cost.ExhaustSelf && !ci.Ready {
		return ds.reject(action, "source is already exhausted", nil)
	}
	if cost.SpendBuffs > 0 && ci.Counters.GetCount(counters.CounterTypeBuff.String()) < cost.SpendBuffs {
		return ds.reject(action, "not enough buff counters", nil)
	}
	var plan *runes.PaymentPlan
	if cost.Energy > 0 {
		extraCost := runes.NewCost()
		extraCost.Energy = cost.Energy
		var reason string
		var ok bool
		plan, reason, ok = e.planPayment(ds, player, extraCost)
		if !ok {
			return ds.reject(action, reason, nil)
		}
	}
	if cost.DiscardN > 0 && len(player.Hand) < cost.DiscardN {
		return ds.reject(action, "not enough cards to discard", nil)
	}

	if !e.commitPayment(ds, player, plan) {
		return ds.reject(action, "pool spend failed", nil)
	}
	if cost.SpendBuffs > 0 {
		ci.Counters.RemoveCounter(counters.CounterTypeBuff.String(), cost.SpendBuffs)
	}
	for n := 0; n < cost.DiscardN; n++ {
		e.discardCard(ds, player, player.Hand[0].ID)
	}
	if cost.ExhaustSelf {
		ci.Ready = false
	}
	if cost.KillSelf {
		e.killUnit(ds, ci, ci.ID)
	}

	entryID := uuid.NewString()
	entry := rules.ChainEntry{
		ID:           entryID,
		Controller:   action.PlayerID,
		Description:  fmt.Sprintf("%s: %s", ci.Def.Name, clause.Text),
		Kind:         rules.EntryActivated,
		SourceID:     ci.ID,
		ClauseIndex:  clauseIndex,
		NeedsTargets: clause.NeedsTargets(),
	}
	ops := clause.Ops
	controller := action.PlayerID
	sourceID := ci.ID
	entry.Resolve = func() error {
		targets := e.chainTargetsFor(ds, entryID)
		return e.applyOps(ds, controller, sourceID, ops, targets, entryID)
	}
	ds.chain.Push(entry)
	if len(action.TargetIDs) > 0 {
		e.assignTargetsInOrder(ds, entryID, ops, action.TargetIDs)
	}

	added := rules.NewEvent(rules.EventChainEntryAdded)
	added.PlayerID = action.PlayerID
	added.SourceID = ci.ID
	added.Turn = ds.turns.TurnNumber()
	ds.bus.Publish(added)

	if ds.windows.Current().Kind == rules.WindowOpen {
		ds.windows.Push(rules.Window{Kind: rules.WindowClosed, Initiator: action.PlayerID})
	}
	ds.turns.SetPriority(ds.opponentOf(action.PlayerID))
	ds.consecutivePasses = 0
	return nil
}

// handleEquipStart opens an equip flow attaching gear to a unit. The
// attachment commits on confirm and rolls back on cancel.
func (e *Engine) handleEquipStart(ds *duelState, action Action) *ActionResult {
	if r := ds.requirePriority(action); r != nil {
		return r
	}
	if r := ds.requireNoPendingChoice(action); r != nil {
		return r
	}
	if ds.turns.ActivePlayer() != action.PlayerID || ds.turns.CurrentPhase() != rules.PhaseAction {
		return ds.reject(action, "gear equips during your own action phase", nil)
	}
	gear, ok := ds.cards[action.GearID]
	if !ok || gear.Zone != zoneBoard || gear.ControllerID != action.PlayerID || gear.Def.Type != card.TypeGear {
		return ds.reject(action, "not a gear you control in play", map[string]string{"gear_id": action.GearID})
	}
	unit, ok := ds.cards[action.UnitID]
	if !ok || unit.Zone != zoneBoard || unit.ControllerID != action.PlayerID || unit.Def.Type != card.TypeUnit {
		return ds.reject(action, "not a unit you control in play", map[string]string{"unit_id": action.UnitID})
	}
	if gear.AttachedTo == unit.ID {
		return ds.reject(action, "gear is already attached to this unit", nil)
	}

	ds.pending = &pendingChoice{
		ID:     uuid.NewString(),
		Kind:   choiceEquip,
		Player: action.PlayerID,
		GearID: gear.ID,
		UnitID: unit.ID,
		Prompt: fmt.Sprintf("equip %s to %s", gear.Def.Name, unit.Def.Name),
	}
	return ds.accept(action)
}

func (e *Engine) handleEquipConfirm(ds *duelState, action Action) *ActionResult {
	pending := ds.pending
	if pending == nil || pending.Kind != choiceEquip || pending.Player != action.PlayerID {
		return ds.reject(action, "no equip in progress for this player", nil)
	}
	gear, gok := ds.cards[pending.GearID]
	unit, uok := ds.cards[pending.UnitID]
	if !gok || !uok || gear.Zone != zoneBoard || unit.Zone != zoneBoard {
		// The flow stays open so the player can cancel or retry.
		return ds.reject(action, "equip target left play", nil)
	}
	ds.pending = nil

	e.detachGear(ds, gear)
	gear.AttachedTo = unit.ID
	gear.BattlefieldID = unit.BattlefieldID
	unit.AttachedGear = append(unit.AttachedGear, gear.ID)

	event := rules.NewEvent(rules.EventGearEquipped)
	event.PlayerID = action.PlayerID
	event.SourceID = gear.ID
	event.TargetID = unit.ID
	event.Turn = ds.turns.TurnNumber()
	ds.bus.Publish(event)
	return ds.accept(action)
}

func (e *Engine) handleEquipCancel(ds *duelState, action Action) *ActionResult {
	pending := ds.pending
	if pending == nil || pending.Kind != choiceEquip || pending.Player != action.PlayerID {
		return ds.reject(action, "no equip in progress for this player", nil)
	}
	ds.pending = nil
	return ds.accept(action)
}

// detachGear removes a gear from whatever unit currently carries it.
func (e *Engine) detachGear(ds *duelState, gear *cardInstance) {
	if gear.AttachedTo == "" {
		return
	}
	if carrier, ok := ds.cards[gear.AttachedTo]; ok {
		for i, id := range carrier.AttachedGear {
			if id == gear.ID {
				carrier.AttachedGear = append(carrier.AttachedGear[:i], carrier.AttachedGear[i+1:]...)
				break
			}
		}
	}
	gear.AttachedTo = ""
}
