package game

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/riftforge/rift-server-go/internal/game/card"
	"github.com/riftforge/rift-server-go/internal/game/counters"
	"github.com/riftforge/rift-server-go/internal/game/effects"
	"github.com/riftforge/rift-server-go/internal/game/rules"
	"github.com/riftforge/rift-server-go/internal/game/runes"
	"github.com/riftforge/rift-server-go/internal/game/targeting"
	"github.com/riftforge/rift-server-go/internal/game/watchers"
)

// Zone constants shared with the targeting package.
const (
	zoneDeck     = targeting.ZoneDeck
	zoneHand     = targeting.ZoneHand
	zoneBoard    = targeting.ZoneBoard
	zoneTrash    = targeting.ZoneTrash
	zoneChain    = targeting.ZoneChain
	zoneChampion = targeting.ZoneChampion
	zoneRunes    = targeting.ZoneRunes
)

// tempModifier is a timed might modifier on a card instance.
type tempModifier struct {
	Amount   int
	Expires  effects.Duration
	SourceID string
}

// grantedKeyword is a timed keyword grant on a card instance.
type grantedKeyword struct {
	Keyword card.Keyword
	Value   int
	Expires effects.Duration
}

// cardInstance is one card bound to a zone with its runtime state.
type cardInstance struct {
	ID           string
	Def          *card.Definition
	OwnerID      string
	ControllerID string
	Zone         int
	// BattlefieldID locates an in-play instance; empty means the
	// controller's base.
	BattlefieldID string
	Ready         bool
	FaceDown      bool
	Damage        int
	ShieldUsed    bool
	EnteredTurn   int
	// PlayOrder is the global order the instance entered play; trigger
	// ordering ties break on it.
	PlayOrder int
	Counters  *counters.Counters
	TempMight []tempModifier
	Granted   []grantedKeyword
	// AttachedGear lists gear instance IDs equipped to this unit.
	AttachedGear []string
	// AttachedTo is the unit a gear instance is equipped to.
	AttachedTo string
	Attacking  bool
	Defending  bool
	// PlayedTurn is the turn the card was played from hand.
	PlayedTurn int
}

func newCardInstance(id string, def *card.Definition, ownerID string, zone int) *cardInstance {
	return &cardInstance{
		ID:           id,
		Def:          def,
		OwnerID:      ownerID,
		ControllerID: ownerID,
		Zone:         zone,
		Counters:     counters.NewCounters(),
	}
}

// resetInstance clears every per-game field so the instance can start
// the next game of a match fresh in the given zone.
func resetInstance(ci *cardInstance, zone int) {
	ci.ControllerID = ci.OwnerID
	ci.Zone = zone
	ci.BattlefieldID = ""
	ci.Ready = false
	ci.FaceDown = false
	ci.Damage = 0
	ci.ShieldUsed = false
	ci.EnteredTurn = 0
	ci.PlayOrder = 0
	ci.Counters = counters.NewCounters()
	ci.TempMight = nil
	ci.Granted = nil
	ci.AttachedGear = nil
	ci.AttachedTo = ""
	ci.Attacking = false
	ci.Defending = false
	ci.PlayedTurn = 0
}

// hasKeyword checks printed plus granted keywords.
func (ci *cardInstance) hasKeyword(k card.Keyword) bool {
	if ci.Def.Keywords.Has(k) {
		return true
	}
	for _, g := range ci.Granted {
		if g.Keyword == k {
			return true
		}
	}
	return false
}

// keywordValue returns the highest value among printed and granted copies
// of a valued keyword.
func (ci *cardInstance) keywordValue(k card.Keyword) int {
	best := 0
	if v, ok := ci.Def.Keywords.Value(k); ok && v > best {
		best = v
	}
	for _, g := range ci.Granted {
		if g.Keyword == k && g.Value > best {
			best = g.Value
		}
	}
	return best
}

// atBase reports whether an in-play instance is at its controller's base.
func (ci *cardInstance) atBase() bool {
	return ci.Zone == zoneBoard && ci.BattlefieldID == ""
}

// expireEndOfTurn drops end-of-turn modifiers and keyword grants.
func (ci *cardInstance) expireEndOfTurn() {
	ci.TempMight = filterModifiers(ci.TempMight, effects.DurationEndOfTurn)
	ci.Granted = filterGrants(ci.Granted, effects.DurationEndOfTurn)
	ci.ShieldUsed = false
}

// expireEndOfCombat drops end-of-combat modifiers and keyword grants.
func (ci *cardInstance) expireEndOfCombat() {
	ci.TempMight = filterModifiers(ci.TempMight, effects.DurationEndOfCombat)
	ci.Granted = filterGrants(ci.Granted, effects.DurationEndOfCombat)
}

func filterModifiers(mods []tempModifier, expired effects.Duration) []tempModifier {
	kept := mods[:0]
	for _, m := range mods {
		if m.Expires != expired {
			kept = append(kept, m)
		}
	}
	return kept
}

func filterGrants(grants []grantedKeyword, expired effects.Duration) []grantedKeyword {
	kept := grants[:0]
	for _, g := range grants {
		if g.Expires != expired {
			kept = append(kept, g)
		}
	}
	return kept
}

// playerState holds one seat's zones and resources. Lifetime is the
// match; decks are rebuilt between games of a best-of series.
type playerState struct {
	PlayerID string
	Name     string

	Deck        []*cardInstance
	Hand        []*cardInstance
	Trash       []*cardInstance
	RuneDeck    []*cardInstance
	RunesInPlay []*cardInstance
	Legend      *cardInstance

	// DeckList and RuneList hold the seat's instances in mint order;
	// between-game rebuilds start from them.
	DeckList []*cardInstance
	RuneList []*cardInstance

	Pool  *runes.Pool
	Score int

	Passed     bool
	Lost       bool
	LostReason string
	Conceded   bool
	Wins       int

	MulliganUsed bool
	KeptHand     bool

	// LegendUsedTurn is the last turn the legend ability was activated.
	LegendUsedTurn int
}

// battlefieldState is a battlefield card in the battle row plus its
// derived control state and hidden-card slots.
type battlefieldState struct {
	ID      string
	Def     *card.Definition
	OwnerID string
	// Hidden holds facedown card instances per player.
	Hidden map[string][]*cardInstance
	// ControllerID is derived from occupancy after every change; empty
	// means uncontrolled or contested.
	ControllerID string
	Contested    bool
	// HeldSince is the turn the current controller took control; zero
	// when uncontrolled.
	HeldSince int
}

// choiceKind identifies a pending choice blocking resolution.
type choiceKind string

const (
	choiceOptional         choiceKind = "OPTIONAL"
	choiceEachPlayer       choiceKind = "EACH_PLAYER"
	choiceDamageAssignment choiceKind = "DAMAGE_ASSIGNMENT"
	choiceEquip            choiceKind = "EQUIP"
)

// pendingChoice is a suspended resolution point. The engine refuses
// chain and window progress until the relevant players resolve it.
type pendingChoice struct {
	ID      string
	Kind    choiceKind
	EntryID string
	// Player is the deciding player for OPTIONAL and DAMAGE_ASSIGNMENT.
	Player string
	// Awaiting lists players still to answer an EACH_PLAYER choice.
	Awaiting []string
	// Op is the suspended operation.
	Op effects.Op
	// RemainingOps resume after the choice, in order.
	RemainingOps []effects.Op
	// SourceID is the resolving card instance.
	SourceID string
	// Controller is the resolving entry's controller.
	Controller string
	// GearID and UnitID carry an in-progress equip.
	GearID string
	UnitID string
	// Responses collects each-player answers.
	Responses map[string]bool
	Prompt    string
}

// combatState tracks one declared attack from declaration through damage
// resolution.
type combatState struct {
	BattlefieldID string
	AttackerID    string
	DefenderID    string
	// Attackers and Defenders are unit instance IDs.
	Attackers []string
	Defenders []string
	FromBase  bool
	// AttackAssignments maps defender unit ID to damage from the
	// attacking side. DefenseAssignments maps attacker unit ID to damage
	// from the defending side.
	AttackAssignments  map[string]int
	DefenseAssignments map[string]int
	Confirmed          bool
	// Excess is attack damage beyond lethal, tracked for effects that
	// reference it this combat.
	Excess int
}

// LoggedAction is one accepted action in the replay log.
type LoggedAction struct {
	Seq       int       `json:"seq"`
	Turn      int       `json:"turn"`
	Phase     string    `json:"phase"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// duelState is the complete state of one duel (one game of a match).
type duelState struct {
	gameID      string
	players     map[string]*playerState
	playerOrder []string
	// cards indexes every instance of the game by ID.
	cards        map[string]*cardInstance
	battlefields []*battlefieldState

	turns    *rules.TurnManager
	windows  *rules.WindowStack
	chain    *rules.Chain
	bus      *rules.EventBus
	triggers *rules.TriggerManager
	delayed  *rules.DelayedTriggerManager
	watchers *rules.WatcherRegistry
	legality *rules.LegalityChecker

	cardsPlayed *watchers.CardsPlayedWatcher
	unitsDied   *watchers.UnitsDiedWatcher
	conquests   *watchers.ConquestsWatcher
	cardsDrawn  *watchers.CardsDrawnWatcher

	// rng is seeded once from the match seed; every shuffle in the match
	// draws from it so identical seeds and action logs reproduce deals.
	rng *rand.Rand

	combat  *combatState
	pending *pendingChoice
	// resolving holds the chain entry currently being resolved: it has
	// already been popped, so target lookups go through it instead of
	// the chain.
	resolving *rules.ChainEntry

	consecutivePasses int
	// playCounter stamps PlayOrder on instances entering play.
	playCounter int
	// entryCounter stamps deterministic chain entry descriptions.
	entryCounter int

	victoryScore int
	bestOf       int
	gameNumber   int
	matchWins    map[string]int
	matchOver    bool
	winnerID     string

	actionLog []LoggedAction

	startedAt time.Time
	mu        sync.RWMutex
}

// nextPlayer returns the seat after the given player in turn order.
func (ds *duelState) nextPlayer(playerID string) string {
	for i, id := range ds.playerOrder {
		if id == playerID {
			return ds.playerOrder[(i+1)%len(ds.playerOrder)]
		}
	}
	return ds.playerOrder[0]
}

// opponentOf returns the other seat of a two-player duel.
func (ds *duelState) opponentOf(playerID string) string {
	return ds.nextPlayer(playerID)
}

// findBattlefield returns the battlefield with the given ID.
func (ds *duelState) findBattlefield(id string) *battlefieldState {
	for _, bf := range ds.battlefields {
		if bf.ID == id {
			return bf
		}
	}
	return nil
}

// unitsAt returns the player's units at the battlefield (or base when
// battlefieldID is empty), in play order.
func (ds *duelState) unitsAt(playerID, battlefieldID string) []*cardInstance {
	var units []*cardInstance
	for _, ci := range ds.cards {
		if ci.Zone == zoneBoard && ci.ControllerID == playerID &&
			ci.BattlefieldID == battlefieldID && ci.Def.Type == card.TypeUnit && !ci.FaceDown {
			units = append(units, ci)
		}
	}
	sortByPlayOrder(units)
	return units
}

func sortByPlayOrder(units []*cardInstance) {
	sort.Slice(units, func(i, j int) bool {
		return units[i].PlayOrder < units[j].PlayOrder
	})
}
