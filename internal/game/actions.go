package game

import (
	"fmt"
	"time"
)

// ActionType identifies a player action.
type ActionType string

const (
	ActionAdvanceStep      ActionType = "ADVANCE_STEP"
	ActionPassPriority     ActionType = "PASS_PRIORITY"
	ActionMulligan         ActionType = "MULLIGAN"
	ActionConfirmMulligan  ActionType = "CONFIRM_MULLIGAN"
	ActionPlayCard         ActionType = "PLAY_CARD"
	ActionHideCard         ActionType = "HIDE_CARD"
	ActionMoveUnit         ActionType = "MOVE_UNIT"
	ActionSetChainTargets  ActionType = "SET_CHAIN_TARGETS"
	ActionResolveChoice    ActionType = "RESOLVE_CHOICE"
	ActionEachPlayerChoice ActionType = "EACH_PLAYER_CHOICE"
	ActionExhaustRune      ActionType = "EXHAUST_RUNE"
	ActionRecycleRune      ActionType = "RECYCLE_RUNE"
	ActionExhaustSeal      ActionType = "EXHAUST_SEAL"
	ActionActivateLegend   ActionType = "ACTIVATE_LEGEND"
	ActionActivateGear     ActionType = "ACTIVATE_GEAR"
	ActionActivateAbility  ActionType = "ACTIVATE_ABILITY"
	ActionEquipStart       ActionType = "EQUIP_START"
	ActionEquipConfirm     ActionType = "EQUIP_CONFIRM"
	ActionEquipCancel      ActionType = "EQUIP_CANCEL"
	ActionDeclareAttack    ActionType = "DECLARE_ATTACK"
	ActionAssignDamage     ActionType = "ASSIGN_DAMAGE"
	ActionAutoAssign       ActionType = "AUTO_ASSIGN_DAMAGE"
	ActionConfirmDamage    ActionType = "CONFIRM_DAMAGE"
	ActionConcede          ActionType = "CONCEDE"
)

// Action is one externally supplied player action. Fields beyond Type
// and PlayerID are action-specific.
type Action struct {
	Type     ActionType `json:"type"`
	PlayerID string     `json:"player_id"`

	// CardID names the card the action operates on (play, hide, move,
	// activate, exhaust, recycle).
	CardID string `json:"card_id,omitempty"`
	// BattlefieldID is the destination or combat battlefield; empty
	// means base where a location is expected.
	BattlefieldID string `json:"battlefield_id,omitempty"`
	// ClauseIndex selects the activated clause of a multi-clause card.
	ClauseIndex int `json:"clause_index,omitempty"`

	// EntryID and OpIndex address a chain entry op for target selection.
	EntryID   string   `json:"entry_id,omitempty"`
	OpIndex   int      `json:"op_index,omitempty"`
	TargetIDs []string `json:"target_ids,omitempty"`

	// Accept answers optional and each-player choices.
	Accept bool `json:"accept,omitempty"`
	// ChoiceID addresses the pending choice being answered.
	ChoiceID string `json:"choice_id,omitempty"`

	// UnitIDs lists attackers for DECLARE_ATTACK.
	UnitIDs []string `json:"unit_ids,omitempty"`
	// Assignments maps unit instance ID to damage for ASSIGN_DAMAGE.
	Assignments map[string]int `json:"assignments,omitempty"`

	// GearID and UnitID carry the equip flow.
	GearID string `json:"gear_id,omitempty"`
	UnitID string `json:"unit_id,omitempty"`
}

// ActionResult reports acceptance or rejection of an action. Rejections
// carry the action, the phase and window it was attempted in, and the
// offending constraint; state is unchanged on rejection.
type ActionResult struct {
	Accepted bool              `json:"accepted"`
	Action   ActionType        `json:"action"`
	Reason   string            `json:"reason,omitempty"`
	Phase    string            `json:"phase"`
	Window   string            `json:"window"`
	Details  map[string]string `json:"details,omitempty"`
}

func (ds *duelState) reject(action Action, reason string, details map[string]string) *ActionResult {
	return &ActionResult{
		Accepted: false,
		Action:   action.Type,
		Reason:   reason,
		Phase:    ds.turns.CurrentPhase().String(),
		Window:   string(ds.windows.Current().Kind),
		Details:  details,
	}
}

func (ds *duelState) accept(action Action) *ActionResult {
	return &ActionResult{
		Accepted: true,
		Action:   action.Type,
		Phase:    ds.turns.CurrentPhase().String(),
		Window:   string(ds.windows.Current().Kind),
	}
}

// ProcessAction validates and executes one player action against the
// game. The returned error covers only unknown games and malformed
// requests; rule rejections come back in the result with state
// unchanged.
func (e *Engine) ProcessAction(gameID string, action Action) (*ActionResult, error) {
	e.mu.RLock()
	ds, ok := e.games[gameID]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("game %s not found", gameID)
	}
	if action.PlayerID == "" {
		return nil, fmt.Errorf("action has no player")
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if _, ok := ds.players[action.PlayerID]; !ok {
		return nil, fmt.Errorf("player %s not in game %s", action.PlayerID, gameID)
	}

	result := e.dispatch(ds, action)
	if result.Accepted {
		if action.Type != ActionPassPriority {
			ds.consecutivePasses = 0
		}
		logged := LoggedAction{
			Seq:       len(ds.actionLog),
			Turn:      ds.turns.TurnNumber(),
			Phase:     ds.turns.CurrentPhase().String(),
			Action:    action,
			Timestamp: time.Now(),
		}
		ds.actionLog = append(ds.actionLog, logged)
		if e.recorder != nil {
			e.recorder.RecordAction(gameID, logged)
		}
		e.afterAction(ds)
	}
	return result, nil
}

func (e *Engine) dispatch(ds *duelState, action Action) *ActionResult {
	if ds.matchOver {
		return ds.reject(action, "match is over", nil)
	}
	if ds.players[action.PlayerID].Lost && action.Type != ActionConcede {
		return ds.reject(action, "player has lost this game", nil)
	}

	switch action.Type {
	case ActionConcede:
		return e.handleConcede(ds, action)
	case ActionMulligan:
		return e.handleMulligan(ds, action)
	case ActionConfirmMulligan:
		return e.handleConfirmMulligan(ds, action)
	case ActionAdvanceStep:
		return e.handleAdvanceStep(ds, action)
	case ActionPassPriority:
		return e.handlePassPriority(ds, action)
	case ActionPlayCard:
		return e.handlePlayCard(ds, action)
	case ActionHideCard:
		return e.handleHideCard(ds, action)
	case ActionMoveUnit:
		return e.handleMoveUnit(ds, action)
	case ActionSetChainTargets:
		return e.handleSetChainTargets(ds, action)
	case ActionResolveChoice:
		return e.handleResolveChoice(ds, action)
	case ActionEachPlayerChoice:
		return e.handleEachPlayerChoice(ds, action)
	case ActionExhaustRune:
		return e.handleExhaustRune(ds, action)
	case ActionRecycleRune:
		return e.handleRecycleRune(ds, action)
	case ActionExhaustSeal:
		return e.handleExhaustSeal(ds, action)
	case ActionActivateLegend:
		return e.handleActivateLegend(ds, action)
	case ActionActivateGear, ActionActivateAbility:
		return e.handleActivateAbility(ds, action)
	case ActionEquipStart:
		return e.handleEquipStart(ds, action)
	case ActionEquipConfirm:
		return e.handleEquipConfirm(ds, action)
	case ActionEquipCancel:
		return e.handleEquipCancel(ds, action)
	case ActionDeclareAttack:
		return e.handleDeclareAttack(ds, action)
	case ActionAssignDamage:
		return e.handleAssignDamage(ds, action)
	case ActionAutoAssign:
		return e.handleAutoAssign(ds, action)
	case ActionConfirmDamage:
		return e.handleConfirmDamage(ds, action)
	default:
		return ds.reject(action, fmt.Sprintf("unknown action type %q", action.Type), nil)
	}
}

// requirePriority rejects actions from a player who does not hold
// priority.
func (ds *duelState) requirePriority(action Action) *ActionResult {
	if ds.turns.PriorityPlayer() != action.PlayerID {
		return ds.reject(action, "player does not have priority", map[string]string{
			"priority_player": ds.turns.PriorityPlayer(),
		})
	}
	return nil
}

// requireNoPendingChoice rejects actions other than choice resolution
// while a choice blocks progress.
func (ds *duelState) requireNoPendingChoice(action Action) *ActionResult {
	if ds.pending != nil {
		return ds.reject(action, "a pending choice blocks this action", map[string]string{
			"choice_id":   ds.pending.ID,
			"choice_kind": string(ds.pending.Kind),
		})
	}
	return nil
}
