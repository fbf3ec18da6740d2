package card

import (
	"fmt"
	"strings"

	"github.com/riftforge/rift-server-go/internal/game/effects"
	"github.com/riftforge/rift-server-go/internal/game/runes"
)

// Type classifies a card definition.
type Type string

const (
	TypeUnit        Type = "UNIT"
	TypeSpell       Type = "SPELL"
	TypeGear        Type = "GEAR"
	TypeLegend      Type = "LEGEND"
	TypeBattlefield Type = "BATTLEFIELD"
	TypeRune        Type = "RUNE"
)

// ParseType parses a catalog type string.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToUpper(strings.TrimSpace(s))); t {
	case TypeUnit, TypeSpell, TypeGear, TypeLegend, TypeBattlefield, TypeRune:
		return t, nil
	default:
		return "", fmt.Errorf("unknown card type %q", s)
	}
}

// Definition is the immutable printed card: everything instances share.
type Definition struct {
	ID   string
	Name string
	Type Type

	// Cost is the printed play cost. Nil for runes, battlefields and
	// legends, which are never paid for.
	Cost *runes.Cost

	// Might is a unit's base combat stat.
	Might int
	// PowerValue is the domain power a rune or seal provides when
	// exhausted or recycled.
	PowerValue int
	// WinUnits is a battlefield's special win condition: a player with
	// this many units on it wins the game outright. Zero means none.
	WinUnits int

	// Domains are the card's identity domains.
	Domains []runes.Domain
	// Tags are subtype words (champion, dragon, mech, ...), lowercase.
	Tags []string

	Keywords KeywordSet

	// Clauses are the card's compiled rules-text clauses, in printed
	// order.
	Clauses []effects.Clause

	// Text is the raw normalized rules text the clauses were compiled
	// from.
	Text string
}

// HasTag reports whether the definition carries the tag (case-insensitive).
func (d *Definition) HasTag(tag string) bool {
	tag = strings.ToLower(tag)
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsChampion reports whether the unit is a champion.
func (d *Definition) IsChampion() bool {
	return d.Type == TypeUnit && d.HasTag("champion")
}

// PlaySpeed returns the timing at which the card may be played: Reaction
// cards may be played in closed windows, everything else needs an open
// one.
func (d *Definition) PlaySpeed() effects.Timing {
	if d.Keywords.Has(KeywordReaction) {
		return effects.TimingReaction
	}
	return effects.TimingAction
}

var supportRank = map[effects.Support]int{
	effects.SupportNoText:      0,
	effects.SupportFull:        1,
	effects.SupportPartial:     2,
	effects.SupportUnsupported: 3,
}

// SupportSummary returns the weakest support status over all clauses.
// Definitions without text report full support.
func (d *Definition) SupportSummary() effects.Support {
	summary := effects.SupportFull
	for _, clause := range d.Clauses {
		if supportRank[clause.Support] > supportRank[summary] {
			summary = clause.Support
		}
	}
	return summary
}

// Validate checks definition-level structural invariants.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("definition has no ID")
	}
	if d.Name == "" {
		return fmt.Errorf("definition %s has no name", d.ID)
	}
	if d.WinUnits != 0 && d.Type != TypeBattlefield {
		return fmt.Errorf("%s %q cannot carry a win threshold", d.Type, d.Name)
	}
	switch d.Type {
	case TypeUnit, TypeSpell, TypeGear:
		if d.Cost == nil {
			return fmt.Errorf("%s %q has no cost", d.Type, d.Name)
		}
	case TypeRune:
		if d.PowerValue <= 0 {
			return fmt.Errorf("rune %q has no power value", d.Name)
		}
	case TypeBattlefield:
		if d.WinUnits < 0 {
			return fmt.Errorf("battlefield %q has negative win threshold", d.Name)
		}
	case TypeLegend:
	default:
		return fmt.Errorf("definition %q has unknown type %q", d.Name, d.Type)
	}
	return nil
}
