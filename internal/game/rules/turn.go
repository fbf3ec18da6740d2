package rules

import (
	"fmt"
	"strings"
)

// Phase represents the phases of a duel, including the pre-game states.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseMulligan
	PhaseAwaken
	PhaseScoring
	PhaseChannel
	PhaseDraw
	PhaseAction
	PhaseEnding
	PhaseGameOver
)

var phaseNames = map[Phase]string{
	PhaseSetup:    "SETUP",
	PhaseMulligan: "MULLIGAN",
	PhaseAwaken:   "AWAKEN",
	PhaseScoring:  "SCORING",
	PhaseChannel:  "CHANNEL",
	PhaseDraw:     "DRAW",
	PhaseAction:   "ACTION",
	PhaseEnding:   "ENDING",
	PhaseGameOver: "GAME_OVER",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// turnSequence is the per-turn phase cycle, repeated with alternating
// active players until the game ends.
var turnSequence = []Phase{
	PhaseAwaken,
	PhaseScoring,
	PhaseChannel,
	PhaseDraw,
	PhaseAction,
	PhaseEnding,
}

// TurnManager tracks the game phase, turn number, active player and
// priority player.
type TurnManager struct {
	phase          Phase
	orderIndex     int
	turnNumber     int
	activePlayer   string
	priorityPlayer string
}

// NewTurnManager creates a turn manager in SETUP with the given player on
// the play.
func NewTurnManager(activePlayer string) *TurnManager {
	active := strings.TrimSpace(activePlayer)
	return &TurnManager{
		phase:          PhaseSetup,
		turnNumber:     0,
		activePlayer:   active,
		priorityPlayer: active,
	}
}

// CurrentPhase returns the phase currently in progress.
func (tm *TurnManager) CurrentPhase() Phase {
	return tm.phase
}

// TurnNumber returns the current turn number (1-based once turns begin).
func (tm *TurnManager) TurnNumber() int {
	return tm.turnNumber
}

// ActivePlayer returns the player whose turn it is.
func (tm *TurnManager) ActivePlayer() string {
	return tm.activePlayer
}

// PriorityPlayer returns the player who currently holds priority.
func (tm *TurnManager) PriorityPlayer() string {
	return tm.priorityPlayer
}

// SetPriority hands priority to the given player.
func (tm *TurnManager) SetPriority(player string) {
	tm.priorityPlayer = strings.TrimSpace(player)
}

// BeginMulligan moves SETUP into MULLIGAN.
func (tm *TurnManager) BeginMulligan() error {
	if tm.phase != PhaseSetup {
		return fmt.Errorf("cannot begin mulligan from %s", tm.phase)
	}
	tm.phase = PhaseMulligan
	return nil
}

// BeginTurns leaves MULLIGAN and starts turn 1 at AWAKEN.
func (tm *TurnManager) BeginTurns() error {
	if tm.phase != PhaseMulligan {
		return fmt.Errorf("cannot begin turns from %s", tm.phase)
	}
	tm.phase = PhaseAwaken
	tm.orderIndex = 0
	tm.turnNumber = 1
	tm.priorityPlayer = tm.activePlayer
	return nil
}

// AdvancePhase advances to the next phase of the turn cycle. Completing
// ENDING increments the turn number and rotates the active player to
// nextActivePlayer. Priority reverts to the active player at the start of
// every phase.
func (tm *TurnManager) AdvancePhase(nextActivePlayer string) (Phase, error) {
	if tm.phase == PhaseSetup || tm.phase == PhaseMulligan || tm.phase == PhaseGameOver {
		return tm.phase, fmt.Errorf("cannot advance phase from %s", tm.phase)
	}

	tm.orderIndex++
	if tm.orderIndex >= len(turnSequence) {
		tm.orderIndex = 0
		tm.turnNumber++
		if next := strings.TrimSpace(nextActivePlayer); next != "" {
			tm.activePlayer = next
		}
	}
	tm.phase = turnSequence[tm.orderIndex]
	tm.priorityPlayer = tm.activePlayer
	return tm.phase, nil
}

// EndGame moves the manager into GAME_OVER.
func (tm *TurnManager) EndGame() {
	tm.phase = PhaseGameOver
}

// IsTurnPhase reports whether the manager is inside the per-turn cycle.
func (tm *TurnManager) IsTurnPhase() bool {
	switch tm.phase {
	case PhaseAwaken, PhaseScoring, PhaseChannel, PhaseDraw, PhaseAction, PhaseEnding:
		return true
	}
	return false
}

// Restore rebuilds a turn manager from snapshot fields.
func Restore(phase Phase, turnNumber int, activePlayer, priorityPlayer string) *TurnManager {
	tm := &TurnManager{
		phase:          phase,
		turnNumber:     turnNumber,
		activePlayer:   activePlayer,
		priorityPlayer: priorityPlayer,
	}
	for i, p := range turnSequence {
		if p == phase {
			tm.orderIndex = i
			break
		}
	}
	return tm
}

// PhaseFromName parses a phase name produced by Phase.String.
func PhaseFromName(name string) (Phase, error) {
	for p, n := range phaseNames {
		if n == name {
			return p, nil
		}
	}
	return PhaseSetup, fmt.Errorf("unknown phase name %q", name)
}
