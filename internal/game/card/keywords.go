package card

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Keyword names a rules keyword a definition can carry.
type Keyword string

const (
	// KeywordTank forces attackers to assign combat damage to this unit
	// first.
	KeywordTank Keyword = "Tank"
	// KeywordGanking lets the unit attack directly from its controller's
	// base.
	KeywordGanking Keyword = "Ganking"
	// KeywordLegion gates abilities on having played another card this
	// turn.
	KeywordLegion Keyword = "Legion"
	// KeywordAlone gates abilities on being the controller's only unit at
	// the battlefield.
	KeywordAlone Keyword = "Alone"
	// KeywordDeathknell marks a death-triggered ability.
	KeywordDeathknell Keyword = "Deathknell"
	// KeywordMighty gates abilities on effective might (valued).
	KeywordMighty Keyword = "Mighty"
	// KeywordAccelerate lets the unit attack the turn it enters play.
	KeywordAccelerate Keyword = "Accelerate"
	// KeywordHidden lets the card be placed facedown at a battlefield.
	KeywordHidden Keyword = "Hidden"
	// KeywordAction marks default play timing.
	KeywordAction Keyword = "Action"
	// KeywordReaction lets the card be played into closed windows.
	KeywordReaction Keyword = "Reaction"
	// KeywordDeflect surcharges enemy spells and abilities targeting the
	// unit (valued).
	KeywordDeflect Keyword = "Deflect"
	// KeywordShield absorbs the first damage dealt to the unit each turn.
	KeywordShield Keyword = "Shield"
	// KeywordTemporary kills the unit at the end of the turn.
	KeywordTemporary Keyword = "Temporary"
)

var knownKeywords = map[string]Keyword{
	"tank":       KeywordTank,
	"ganking":    KeywordGanking,
	"legion":     KeywordLegion,
	"alone":      KeywordAlone,
	"deathknell": KeywordDeathknell,
	"mighty":     KeywordMighty,
	"accelerate": KeywordAccelerate,
	"hidden":     KeywordHidden,
	"action":     KeywordAction,
	"reaction":   KeywordReaction,
	"deflect":    KeywordDeflect,
	"shield":     KeywordShield,
	"temporary":  KeywordTemporary,
}

// KeywordSet holds a definition's keywords with their values. Unvalued
// keywords store zero.
type KeywordSet map[Keyword]int

// NewKeywordSet builds a set from unvalued keywords.
func NewKeywordSet(keywords ...Keyword) KeywordSet {
	ks := make(KeywordSet, len(keywords))
	for _, k := range keywords {
		ks[k] = 0
	}
	return ks
}

// Has reports whether the keyword is present.
func (ks KeywordSet) Has(k Keyword) bool {
	_, ok := ks[k]
	return ok
}

// Value returns the keyword's value (Mighty 3 → 3) and whether it is
// present.
func (ks KeywordSet) Value(k Keyword) (int, bool) {
	v, ok := ks[k]
	return v, ok
}

// Add puts a keyword with its value into the set.
func (ks KeywordSet) Add(k Keyword, value int) {
	ks[k] = value
}

// Copy returns an independent copy.
func (ks KeywordSet) Copy() KeywordSet {
	cpy := make(KeywordSet, len(ks))
	for k, v := range ks {
		cpy[k] = v
	}
	return cpy
}

// Names returns the keywords in sorted render order, valued keywords as
// "Mighty 3".
func (ks KeywordSet) Names() []string {
	names := make([]string, 0, len(ks))
	for k, v := range ks {
		if v > 0 {
			names = append(names, fmt.Sprintf("%s %d", k, v))
		} else {
			names = append(names, string(k))
		}
	}
	sort.Strings(names)
	return names
}

var keywordToken = regexp.MustCompile(`(?i)\[([a-z]+)(?:\s+(\d+))?\]`)

// ParseKeywords extracts bracketed keyword tokens ("[Tank] [Mighty 3]")
// from a line of rules text. Unknown tokens are returned separately.
func ParseKeywords(line string) (KeywordSet, []string) {
	ks := make(KeywordSet)
	var unknown []string
	for _, m := range keywordToken.FindAllStringSubmatch(line, -1) {
		kw, ok := knownKeywords[strings.ToLower(m[1])]
		if !ok {
			unknown = append(unknown, m[1])
			continue
		}
		value := 0
		if m[2] != "" {
			value, _ = strconv.Atoi(m[2])
		}
		ks[kw] = value
	}
	return ks, unknown
}
