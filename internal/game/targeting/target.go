package targeting

import (
	"fmt"
)

// Zone constants shared with the engine. ZoneAny matches any zone.
// ZoneBoard covers everything in play; whether an instance sits at base or
// at a battlefield is a location attribute, not a zone.
const (
	ZoneAny      = -1
	ZoneDeck     = 0
	ZoneHand     = 1
	ZoneBoard    = 2
	ZoneTrash    = 3
	ZoneChain    = 4
	ZoneChampion = 5
	ZoneRunes    = 6
)

// Kind represents the kind of game object a spec can select.
type Kind string

const (
	// KindUnit targets unit instances in play.
	KindUnit Kind = "UNIT"
	// KindGear targets gear instances in play.
	KindGear Kind = "GEAR"
	// KindBattlefield targets battlefield zones.
	KindBattlefield Kind = "BATTLEFIELD"
	// KindPlayer targets players.
	KindPlayer Kind = "PLAYER"
	// KindRune targets rune instances.
	KindRune Kind = "RUNE"
	// KindChainEntry targets pending entries on the chain.
	KindChainEntry Kind = "CHAIN_ENTRY"
)

// Controller constrains who must control a candidate.
type Controller string

const (
	ControllerAny      Controller = "ANY"
	ControllerSelf     Controller = "SELF"
	ControllerOpponent Controller = "OPPONENT"
)

// Spec defines what a single effect operation may be aimed at.
type Spec struct {
	Kind       Kind
	Zone       int
	Controller Controller
	// Tag, when set, restricts candidates to instances carrying the tag
	// (e.g. "dragon").
	Tag string
	// ExcludeSource excludes the effect's own source ("another unit").
	ExcludeSource bool
	// SameBattlefield restricts candidates to the source's battlefield
	// ("here").
	SameBattlefield bool
	MinTargets      int
	MaxTargets      int
	// Optional marks "up to N" selections that may pick fewer than
	// MinTargets, including none.
	Optional    bool
	Description string
}

// Selection holds the chosen target IDs for one spec.
type Selection struct {
	Targets []string
	Spec    Spec
}

// IsComplete reports whether the selection satisfies its spec's counts.
func (s *Selection) IsComplete() bool {
	if s == nil {
		return false
	}
	count := len(s.Targets)
	if s.Spec.Optional {
		return count <= s.Spec.MaxTargets
	}
	return count >= s.Spec.MinTargets && count <= s.Spec.MaxTargets
}

// Validate checks selection counts against the Spec's min and max.
func (s *Selection) Validate() error {
	if s == nil {
		return fmt.Errorf("target selection is nil")
	}
	count := len(s.Targets)
	if !s.Spec.Optional && count < s.Spec.MinTargets {
		return fmt.Errorf("not enough targets: need at least %d, got %d", s.Spec.MinTargets, count)
	}
	if count > s.Spec.MaxTargets {
		return fmt.Errorf("too many targets: need at most %d, got %d", s.Spec.MaxTargets, count)
	}
	return nil
}

// Single returns a spec for exactly one mandatory target.
func Single(kind Kind, controller Controller, description string) Spec {
	return Spec{
		Kind:        kind,
		Zone:        ZoneAny,
		Controller:  controller,
		MinTargets:  1,
		MaxTargets:  1,
		Description: description,
	}
}
