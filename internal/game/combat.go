package game

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/riftforge/rift-server-go/internal/game/card"
	"github.com/riftforge/rift-server-go/internal/game/rules"
)

// handleDeclareAttack declares an attack at a battlefield holding enemy
// units. Attackers exhaust and move in; a showdown window opens and the
// defender reacts first.
func (e *Engine) handleDeclareAttack(ds *duelState, action Action) *ActionResult {
	if r := ds.requirePriority(action); r != nil {
		return r
	}
	if r := ds.requireNoPendingChoice(action); r != nil {
		return r
	}
	if ds.turns.ActivePlayer() != action.PlayerID || ds.turns.CurrentPhase() != rules.PhaseAction {
		return ds.reject(action, "attacks are declared during your own action phase", nil)
	}
	if ds.windows.Current().Kind != rules.WindowOpen || !ds.chain.IsEmpty() {
		return ds.reject(action, "attacks require an open window and an empty chain", nil)
	}
	if ds.combat != nil {
		return ds.reject(action, "a combat is already in progress", nil)
	}
	bf := ds.findBattlefield(action.BattlefieldID)
	if bf == nil {
		return ds.reject(action, "unknown battlefield", map[string]string{"battlefield_id": action.BattlefieldID})
	}
	if len(action.UnitIDs) == 0 {
		return ds.reject(action, "an attack needs at least one attacker", nil)
	}

	opponent := ds.opponentOf(action.PlayerID)
	defenders := ds.unitsAt(opponent, bf.ID)
	if len(defenders) == 0 {
		return ds.reject(action, "no defenders there; move in instead", nil)
	}

	attackers := make([]*cardInstance, 0, len(action.UnitIDs))
	for _, unitID := range action.UnitIDs {
		ci, ok := ds.cards[unitID]
		if !ok || ci.Zone != zoneBoard || ci.ControllerID != action.PlayerID ||
			ci.Def.Type != card.TypeUnit || ci.FaceDown {
			return ds.reject(action, "not a unit you control in play", map[string]string{"unit_id": unitID})
		}
		if !ci.Ready {
			return ds.reject(action, fmt.Sprintf("%s is exhausted", ci.Def.Name), nil)
		}
		if ci.EnteredTurn == ds.turns.TurnNumber() && !ci.hasKeyword(card.KeywordAccelerate) {
			return ds.reject(action, fmt.Sprintf("%s cannot attack the turn it entered", ci.Def.Name), nil)
		}
		if ci.BattlefieldID == bf.ID {
			return ds.reject(action, fmt.Sprintf("%s is already at that battlefield", ci.Def.Name), nil)
		}
		// Units attack from base; Ganking lets a unit join from another
		// battlefield.
		if ci.BattlefieldID != "" && !ci.hasKeyword(card.KeywordGanking) {
			return ds.reject(action, fmt.Sprintf("%s can only attack from base", ci.Def.Name), nil)
		}
		attackers = append(attackers, ci)
	}

	combat := &combatState{
		BattlefieldID:      bf.ID,
		AttackerID:         action.PlayerID,
		DefenderID:         opponent,
		AttackAssignments:  make(map[string]int),
		DefenseAssignments: make(map[string]int),
		FromBase:           true,
	}
	for _, ci := range attackers {
		if ci.BattlefieldID != "" {
			combat.FromBase = false
		}
		ci.Ready = false
		ci.BattlefieldID = bf.ID
		ci.Attacking = true
		combat.Attackers = append(combat.Attackers, ci.ID)
	}
	for _, ci := range defenders {
		ci.Defending = true
		combat.Defenders = append(combat.Defenders, ci.ID)
	}
	ds.combat = combat
	bf.Contested = true

	ds.windows.Push(rules.Window{
		Kind:          rules.WindowShowdown,
		BattlefieldID: bf.ID,
		Initiator:     action.PlayerID,
	})

	for _, ci := range attackers {
		declared := rules.NewEvent(rules.EventAttackDeclared)
		declared.PlayerID = action.PlayerID
		declared.SourceID = ci.ID
		declared.BattlefieldID = bf.ID
		declared.Turn = ds.turns.TurnNumber()
		ds.bus.Publish(declared)
		e.queueTriggers(ds, declared)
	}
	began := rules.NewEvent(rules.EventCombatBegan)
	began.PlayerID = opponent
	began.BattlefieldID = bf.ID
	began.Turn = ds.turns.TurnNumber()
	ds.bus.Publish(began)
	e.queueTriggers(ds, began)

	// The defender answers the declaration first.
	ds.turns.SetPriority(opponent)
	ds.consecutivePasses = 0
	e.notify(ds, "COMBAT_DECLARED", map[string]interface{}{
		"battlefield_id": bf.ID,
		"attackers":      combat.Attackers,
	})
	return ds.accept(action)
}

// beginCombatDamage moves a showdown into its damage step after both
// players pass. Default lethal-first assignments are precomputed; either
// side may reassign before damage is confirmed.
func (e *Engine) beginCombatDamage(ds *duelState) {
	combat := ds.combat
	if combat == nil {
		return
	}
	e.pruneCombat(ds)
	ds.windows.Push(rules.Window{
		Kind:          rules.WindowCombat,
		BattlefieldID: combat.BattlefieldID,
		Initiator:     combat.AttackerID,
	})
	combat.AttackAssignments = e.autoAssignment(ds, combat.Attackers, combat.Defenders, roleAttacking, roleDefending)
	combat.DefenseAssignments = e.autoAssignment(ds, combat.Defenders, combat.Attackers, roleDefending, roleAttacking)
	ds.turns.SetPriority(combat.AttackerID)
	ds.consecutivePasses = 0
	e.notify(ds, "COMBAT_DAMAGE_STEP", map[string]interface{}{
		"battlefield_id": combat.BattlefieldID,
	})
}

// pruneCombat drops combatants that left play or moved away during the
// showdown.
func (e *Engine) pruneCombat(ds *duelState) {
	combat := ds.combat
	combat.Attackers = e.survivingCombatants(ds, combat.Attackers, combat.BattlefieldID)
	combat.Defenders = e.survivingCombatants(ds, combat.Defenders, combat.BattlefieldID)
}

func (e *Engine) survivingCombatants(ds *duelState, ids []string, battlefieldID string) []string {
	kept := ids[:0]
	for _, id := range ids {
		ci, ok := ds.cards[id]
		if ok && ci.Zone == zoneBoard && ci.BattlefieldID == battlefieldID {
			kept = append(kept, id)
		}
	}
	return kept
}

// autoAssignment distributes one side's total might over the other
// side's units: tanks first, then play order, lethal before spreading.
func (e *Engine) autoAssignment(ds *duelState, dealers, receivers []string, dealerRole, receiverRole combatRole) map[string]int {
	assignments := make(map[string]int)
	total := 0
	for _, id := range dealers {
		if ci, ok := ds.cards[id]; ok {
			total += e.effectiveMight(ds, ci, dealerRole)
		}
	}
	for _, id := range e.tanksFirst(ds, receivers) {
		if total == 0 {
			break
		}
		ci, ok := ds.cards[id]
		if !ok {
			continue
		}
		lethal := e.effectiveMight(ds, ci, receiverRole) - ci.Damage
		if lethal < 1 {
			lethal = 1
		}
		dealt := lethal
		if dealt > total {
			dealt = total
		}
		assignments[id] = dealt
		total -= dealt
	}
	// Leftover damage piles onto the last receiver as excess.
	if total > 0 {
		if ordered := e.tanksFirst(ds, receivers); len(ordered) > 0 {
			assignments[ordered[len(ordered)-1]] += total
		}
	}
	return assignments
}

// tanksFirst orders receiver IDs with Tank units ahead, play order
// within each group.
func (e *Engine) tanksFirst(ds *duelState, ids []string) []string {
	tanks := make([]*cardInstance, 0, len(ids))
	others := make([]*cardInstance, 0, len(ids))
	for _, id := range ids {
		ci, ok := ds.cards[id]
		if !ok {
			continue
		}
		if ci.hasKeyword(card.KeywordTank) {
			tanks = append(tanks, ci)
		} else {
			others = append(others, ci)
		}
	}
	sortByPlayOrder(tanks)
	sortByPlayOrder(others)
	ordered := make([]string, 0, len(tanks)+len(others))
	for _, ci := range tanks {
		ordered = append(ordered, ci.ID)
	}
	for _, ci := range others {
		ordered = append(ordered, ci.ID)
	}
	return ordered
}

// handleAssignDamage replaces one side's damage assignment during the
// combat window. The assigning player must spend their side's full
// might, and tanks must be assigned lethal damage before anything else
// takes any.
func (e *Engine) handleAssignDamage(ds *duelState, action Action) *ActionResult {
	combat := ds.combat
	if combat == nil || ds.windows.Current().Kind != rules.WindowCombat {
		return ds.reject(action, "no combat damage step in progress", nil)
	}
	var dealers, receivers []string
	var dealerRole, receiverRole combatRole
	switch action.PlayerID {
	case combat.AttackerID:
		dealers, receivers = combat.Attackers, combat.Defenders
		dealerRole, receiverRole = roleAttacking, roleDefending
	case combat.DefenderID:
		dealers, receivers = combat.Defenders, combat.Attackers
		dealerRole, receiverRole = roleDefending, roleAttacking
	default:
		return ds.reject(action, "player is not part of this combat", nil)
	}

	total := 0
	for _, id := range dealers {
		if ci, ok := ds.cards[id]; ok {
			total += e.effectiveMight(ds, ci, dealerRole)
		}
	}
	assigned := 0
	valid := make(map[string]bool, len(receivers))
	for _, id := range receivers {
		valid[id] = true
	}
	for id, amount := range action.Assignments {
		if !valid[id] {
			return ds.reject(action, "assignment names a unit outside this combat", map[string]string{"unit_id": id})
		}
		if amount < 0 {
			return ds.reject(action, "negative damage assignment", nil)
		}
		assigned += amount
	}
	if assigned != total {
		return ds.reject(action, fmt.Sprintf("assignment must spend all %d damage, got %d", total, assigned), nil)
	}
	if reason := e.checkTankPriority(ds, action.Assignments, receivers, receiverRole); reason != "" {
		return ds.reject(action, reason, nil)
	}

	assignment := make(map[string]int, len(action.Assignments))
	for id, amount := range action.Assignments {
		assignment[id] = amount
	}
	if action.PlayerID == combat.AttackerID {
		combat.AttackAssignments = assignment
	} else {
		combat.DefenseAssignments = assignment
	}
	return ds.accept(action)
}

// checkTankPriority enforces that every Tank receiver is assigned lethal
// damage before any non-Tank receiver is assigned anything.
func (e *Engine) checkTankPriority(ds *duelState, assignments map[string]int, receivers []string, receiverRole combatRole) string {
	nonTankHit := false
	for _, id := range receivers {
		ci, ok := ds.cards[id]
		if !ok || ci.hasKeyword(card.KeywordTank) {
			continue
		}
		if assignments[id] > 0 {
			nonTankHit = true
			break
		}
	}
	if !nonTankHit {
		return ""
	}
	for _, id := range receivers {
		ci, ok := ds.cards[id]
		if !ok || !ci.hasKeyword(card.KeywordTank) {
			continue
		}
		lethal := e.effectiveMight(ds, ci, receiverRole) - ci.Damage
		if assignments[id] < lethal {
			return fmt.Sprintf("%s must be assigned lethal damage first", ci.Def.Name)
		}
	}
	return ""
}

// handleAutoAssign restores the default assignment for the player's
// side.
func (e *Engine) handleAutoAssign(ds *duelState, action Action) *ActionResult {
	combat := ds.combat
	if combat == nil || ds.windows.Current().Kind != rules.WindowCombat {
		return ds.reject(action, "no combat damage step in progress", nil)
	}
	switch action.PlayerID {
	case combat.AttackerID:
		combat.AttackAssignments = e.autoAssignment(ds, combat.Attackers, combat.Defenders, roleAttacking, roleDefending)
	case combat.DefenderID:
		combat.DefenseAssignments = e.autoAssignment(ds, combat.Defenders, combat.Attackers, roleDefending, roleAttacking)
	default:
		return ds.reject(action, "player is not part of this combat", nil)
	}
	return ds.accept(action)
}

// handleConfirmDamage locks in both assignments and resolves combat
// immediately. Only the attacker confirms.
func (e *Engine) handleConfirmDamage(ds *duelState, action Action) *ActionResult {
	combat := ds.combat
	if combat == nil || ds.windows.Current().Kind != rules.WindowCombat {
		return ds.reject(action, "no combat damage step in progress", nil)
	}
	if action.PlayerID != combat.AttackerID {
		return ds.reject(action, "only the attacker confirms damage", nil)
	}
	combat.Confirmed = true
	e.closeCombat(ds)
	return ds.accept(action)
}

// closeCombat resolves assigned damage, applies deaths, pops the combat
// windows and rechecks battlefield control.
func (e *Engine) closeCombat(ds *duelState) {
	combat := ds.combat
	if combat == nil {
		return
	}
	e.pruneCombat(ds)
	e.applyCombatDamage(ds, combat.AttackAssignments, combat.Defenders, roleDefending, combat)
	e.applyCombatDamage(ds, combat.DefenseAssignments, combat.Attackers, roleAttacking, nil)

	for _, id := range append(append([]string{}, combat.Attackers...), combat.Defenders...) {
		ci, ok := ds.cards[id]
		if !ok {
			continue
		}
		ci.Attacking = false
		ci.Defending = false
		ci.expireEndOfCombat()
	}
	if bf := ds.findBattlefield(combat.BattlefieldID); bf != nil {
		bf.Contested = false
	}

	// Pop COMBAT, then SHOWDOWN.
	ds.windows.Pop()
	ds.windows.Pop()
	ds.combat = nil

	ended := rules.NewEvent(rules.EventCombatEnded)
	ended.PlayerID = combat.AttackerID
	ended.BattlefieldID = combat.BattlefieldID
	// Amount carries the damage dealt beyond lethal this combat, for
	// effects that reference it.
	ended.Amount = combat.Excess
	ended.Turn = ds.turns.TurnNumber()
	ds.bus.Publish(ended)

	e.recomputeOccupancy(ds)
	ds.turns.SetPriority(ds.turns.ActivePlayer())
	ds.consecutivePasses = 0
	e.notify(ds, "COMBAT_ENDED", map[string]interface{}{
		"battlefield_id": combat.BattlefieldID,
		"excess":         combat.Excess,
	})
}

// applyCombatDamage marks assigned damage on one side's units and kills
// the ones taking lethal. Shield absorbs the unit's first damage of the
// turn; combat tracks attack damage beyond lethal as excess.
func (e *Engine) applyCombatDamage(ds *duelState, assignments map[string]int, receivers []string, receiverRole combatRole, combat *combatState) {
	var dead []*cardInstance
	for _, id := range receivers {
		amount := assignments[id]
		if amount <= 0 {
			continue
		}
		ci, ok := ds.cards[id]
		if !ok || ci.Zone != zoneBoard {
			continue
		}
		if ci.hasKeyword(card.KeywordShield) && !ci.ShieldUsed {
			ci.ShieldUsed = true
			continue
		}
		ci.Damage += amount
		might := e.effectiveMight(ds, ci, receiverRole)
		if ci.Damage >= might {
			if combat != nil {
				combat.Excess += ci.Damage - might
			}
			dead = append(dead, ci)
		}
	}
	for _, ci := range dead {
		e.killUnit(ds, ci, "")
	}
}

// killUnit moves a unit from play to its owner's trash, firing its
// deathknell and releasing its triggers.
func (e *Engine) killUnit(ds *duelState, ci *cardInstance, killerID string) {
	if ci.Zone != zoneBoard {
		return
	}
	battlefieldID := ci.BattlefieldID
	for _, gearID := range append([]string{}, ci.AttachedGear...) {
		if gear, ok := ds.cards[gearID]; ok {
			e.detachGear(ds, gear)
			gear.BattlefieldID = ""
		}
	}
	ci.Zone = zoneTrash
	ci.BattlefieldID = ""
	ci.Attacking = false
	ci.Defending = false
	ci.Ready = false
	ci.Damage = 0
	ci.TempMight = nil
	ci.Granted = nil

	owner := ds.players[ci.OwnerID]
	if owner != nil {
		owner.Trash = append(owner.Trash, ci)
	}

	died := rules.NewEvent(rules.EventUnitDied)
	died.PlayerID = ci.ControllerID
	died.SourceID = ci.ID
	died.TargetID = killerID
	died.BattlefieldID = battlefieldID
	died.Turn = ds.turns.TurnNumber()
	died.Metadata["owner_id"] = ci.OwnerID
	ds.bus.Publish(died)
	e.queueTriggers(ds, died)

	ds.triggers.UnregisterSource(ci.ID)
	e.recomputeOccupancy(ds)
}

// recomputeOccupancy rechecks who controls each battlefield. Sole
// presence controls; taking a battlefield from the opponent or from
// neutral is a conquest worth a point, fired once per transition.
func (e *Engine) recomputeOccupancy(ds *duelState) {
	for _, bf := range ds.battlefields {
		counts := make(map[string]int, len(ds.playerOrder))
		for _, playerID := range ds.playerOrder {
			counts[playerID] = len(ds.unitsAt(playerID, bf.ID))
		}
		if e.checkBattlefieldWin(ds, bf, counts) {
			return
		}
		controller := ""
		for _, playerID := range ds.playerOrder {
			if counts[playerID] > 0 && counts[ds.opponentOf(playerID)] == 0 {
				controller = playerID
			}
		}
		if controller == bf.ControllerID {
			continue
		}
		previous := bf.ControllerID
		bf.ControllerID = controller
		bf.HeldSince = ds.turns.TurnNumber()

		changed := rules.NewEvent(rules.EventOccupancyChanged)
		changed.PlayerID = controller
		changed.BattlefieldID = bf.ID
		changed.Turn = ds.turns.TurnNumber()
		changed.Metadata["previous"] = previous
		ds.bus.Publish(changed)

		if controller != "" {
			conquered := rules.NewEvent(rules.EventConquer)
			conquered.PlayerID = controller
			conquered.BattlefieldID = bf.ID
			conquered.Turn = ds.turns.TurnNumber()
			ds.bus.Publish(conquered)
			e.queueTriggers(ds, conquered)
			e.addScore(ds, ds.players[controller], 1, "conquest")
		}
	}
}

// checkBattlefieldWin ends the game when a battlefield's special win
// threshold is met. Checked on every occupancy change, not only at
// phase boundaries.
func (e *Engine) checkBattlefieldWin(ds *duelState, bf *battlefieldState, counts map[string]int) bool {
	if bf.Def.WinUnits <= 0 || ds.matchOver || ds.turns.CurrentPhase() == rules.PhaseGameOver {
		return false
	}
	for _, playerID := range ds.playerOrder {
		if counts[playerID] >= bf.Def.WinUnits {
			e.logger.Info("battlefield win condition met",
				zap.String("game_id", ds.gameID),
				zap.String("battlefield", bf.Def.Name),
				zap.String("player", playerID))
			e.endGame(ds, playerID)
			return true
		}
	}
	return false
}
