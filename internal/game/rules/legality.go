package rules

import (
	"fmt"
)

// GameStateAccessor provides access to game state needed for legality
// checks at resolution time.
type GameStateAccessor interface {
	// FindCard finds a card instance by ID in any zone.
	FindCard(cardID string) (CardInfo, bool)
	// FindPlayer finds player info by ID.
	FindPlayer(playerID string) (PlayerInfo, bool)
	// TargetStillLegal re-validates a previously chosen target for an
	// entry's op.
	TargetStillLegal(entry ChainEntry, opIndex int, targetID string) bool
}

// CardInfo provides card facts for legality checks.
type CardInfo struct {
	ID            string
	Name          string
	Type          string
	Zone          int
	ControllerID  string
	OwnerID       string
	Ready         bool
	FaceDown      bool
	BattlefieldID string
}

// PlayerInfo provides player facts for legality checks.
type PlayerInfo struct {
	PlayerID string
	Name     string
	Score    int
	Lost     bool
}

// LegalityResult is the outcome of a legality check. Rejections carry
// enough context for the caller to explain them.
type LegalityResult struct {
	Legal   bool
	Reason  string
	Details map[string]string
}

// LegalityChecker validates chain entries before resolution.
type LegalityChecker struct {
	gameState GameStateAccessor
}

// NewLegalityChecker creates a checker over the accessor.
func NewLegalityChecker(gameState GameStateAccessor) *LegalityChecker {
	return &LegalityChecker{gameState: gameState}
}

// CheckChainEntry validates a chain entry at resolution time. Entries
// whose controller left the game or whose chosen targets all became
// illegal fizzle.
func (lc *LegalityChecker) CheckChainEntry(entry ChainEntry) LegalityResult {
	if lc == nil || lc.gameState == nil {
		return LegalityResult{Legal: true, Reason: "legality checker not initialized"}
	}

	if entry.Controller != "" {
		player, found := lc.gameState.FindPlayer(entry.Controller)
		if !found {
			return LegalityResult{
				Legal:  false,
				Reason: "controller not found",
				Details: map[string]string{
					"controller_id": entry.Controller,
				},
			}
		}
		if player.Lost {
			return LegalityResult{
				Legal:  false,
				Reason: "controller has lost the game",
				Details: map[string]string{
					"controller_id": entry.Controller,
				},
			}
		}
	}

	// Triggered abilities resolve even if their source left play; spells
	// and activated abilities need a live source.
	if entry.Kind != EntryTriggered && entry.SourceID != "" {
		if _, found := lc.gameState.FindCard(entry.SourceID); !found {
			return LegalityResult{
				Legal:  false,
				Reason: "source no longer exists",
				Details: map[string]string{
					"source_id": entry.SourceID,
				},
			}
		}
	}

	// An entry with chosen targets fizzles when every chosen target of
	// some op became illegal.
	for opIndex, targets := range entry.Targets {
		if len(targets) == 0 {
			continue
		}
		anyLegal := false
		for _, targetID := range targets {
			if lc.gameState.TargetStillLegal(entry, opIndex, targetID) {
				anyLegal = true
				break
			}
		}
		if !anyLegal {
			return LegalityResult{
				Legal:  false,
				Reason: "all targets became illegal",
				Details: map[string]string{
					"entry_id": entry.ID,
					"op_index": fmt.Sprintf("%d", opIndex),
				},
			}
		}
	}

	return LegalityResult{Legal: true}
}
