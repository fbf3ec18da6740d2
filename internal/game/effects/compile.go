package effects

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/riftforge/rift-server-go/internal/game/runes"
	"github.com/riftforge/rift-server-go/internal/game/targeting"
)

// The compiler turns one normalized rules-text clause into a Clause.
// It works against a constrained grammar, not open-ended language: a
// trigger prefix followed by a comma- or "then"-separated list of effect
// phrases. Anything outside the grammar degrades to OpNothing with an
// Unsupported or Partial status so play can continue.

var (
	triggerPatterns = []struct {
		re      *regexp.Regexp
		trigger TriggerKind
	}{
		{regexp.MustCompile(`(?i)^when i'?m played,?\s*`), TriggerPlayed},
		{regexp.MustCompile(`(?i)^deathknell:\s*`), TriggerDeathknell},
		{regexp.MustCompile(`(?i)^when you conquer,?\s*`), TriggerConquer},
		{regexp.MustCompile(`(?i)^(?:hold:|when you hold this battlefield,?)\s*`), TriggerHold},
		{regexp.MustCompile(`(?i)^when i attack,?\s*`), TriggerAttacking},
		{regexp.MustCompile(`(?i)^when i defend,?\s*`), TriggerDefending},
		{regexp.MustCompile(`(?i)^when (?:another friendly unit is played|a unit enters play under your control),?\s*`), TriggerUnitEnters},
		{regexp.MustCompile(`(?i)^at the end of your turn,?\s*`), TriggerTurnEnd},
		{regexp.MustCompile(`(?i)^this turn, the next time (?:a friendly unit|one of your units) dies,?\s*`), TriggerNextDeath},
	}

	conditionPattern  = regexp.MustCompile(`(?i)^\[(alone|legion|mighty\s+(\d+))\]\s*`)
	enterReadyPattern = regexp.MustCompile(`(?i)^i enter play ready if you control another ([a-z]+)\.?$`)
	keywordLine       = regexp.MustCompile(`(?i)^(\[[a-z ]+(?:\s+\d+)?\]\s*)+$`)

	activatedCostPattern = regexp.MustCompile(`(?i)^((?:exhaust me|pay \{(\d+)\}|kill me|discard (a card|\d+)|spend (a buff|\d+ buffs?))(?:,\s*)?)+:\s*`)

	turnConditionPattern = regexp.MustCompile(`(?i)^if (a unit died this turn|you conquered this turn|you'?ve drawn (\w+) or more cards? this turn),\s*`)

	staticAuraPattern = regexp.MustCompile(`(?i)^(friendly|enemy) units here (?:have|get) ([+-]\d+) might\.?$`)
	staticSelfPattern = regexp.MustCompile(`(?i)^i have ([+-]\d+) might while (attacking|defending)\.?$`)

	numberWords = map[string]int{"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5}
)

// Compile compiles one clause of normalized rules text.
func Compile(text string) Clause {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Clause{Text: text, Trigger: TriggerNone, Support: SupportNoText}
	}

	// Lines holding only bracketed keywords carry no operations; the
	// catalog records the keywords on the definition itself.
	if keywordLine.MatchString(trimmed) {
		return Clause{Text: trimmed, Trigger: TriggerNone, Support: SupportFull}
	}

	clause := Clause{Text: trimmed, Timing: TimingAction, Support: SupportUnsupported}
	body := trimmed

	// Gating condition prefix: [Alone], [Legion], [Mighty N].
	if m := conditionPattern.FindStringSubmatch(body); m != nil {
		cond := strings.ToLower(m[1])
		switch {
		case cond == "alone":
			clause.Condition = &Condition{Kind: CondAlone}
		case cond == "legion":
			clause.Condition = &Condition{Kind: CondLegion}
		case strings.HasPrefix(cond, "mighty"):
			n, _ := strconv.Atoi(m[2])
			clause.Condition = &Condition{Kind: CondMighty, Amount: n}
		}
		body = body[len(m[0]):]
	}

	// Conditional entry readiness.
	if m := enterReadyPattern.FindStringSubmatch(body); m != nil {
		clause.Trigger = TriggerEnterReady
		clause.Condition = &Condition{Kind: CondControlTag, Tag: strings.ToLower(m[1]), Amount: 1}
		clause.Ops = []Op{{Kind: OpReady, Text: body}}
		clause.Support = SupportFull
		return clause
	}

	// Static auras.
	if m := staticAuraPattern.FindStringSubmatch(body); m != nil {
		delta, _ := strconv.Atoi(m[2])
		controller := targeting.ControllerSelf
		if strings.EqualFold(m[1], "enemy") {
			controller = targeting.ControllerOpponent
		}
		clause.Trigger = TriggerStatic
		clause.Ops = []Op{{
			Kind:   OpBuff,
			Amount: delta,
			Target: &targeting.Spec{
				Kind:            targeting.KindUnit,
				Zone:            targeting.ZoneBoard,
				Controller:      controller,
				SameBattlefield: true,
			},
			Duration: DurationPermanent,
			Text:     body,
		}}
		clause.Support = SupportFull
		return clause
	}
	if m := staticSelfPattern.FindStringSubmatch(body); m != nil {
		delta, _ := strconv.Atoi(m[1])
		clause.Trigger = TriggerStatic
		role := TriggerAttacking
		if strings.EqualFold(m[2], "defending") {
			role = TriggerDefending
		}
		clause.Ops = []Op{{Kind: OpBuff, Amount: delta, Duration: DurationPermanent, Keyword: string(role), Text: body}}
		clause.Support = SupportFull
		return clause
	}

	// Activated ability with additional costs before the colon.
	if m := activatedCostPattern.FindString(body); m != "" {
		clause.Trigger = TriggerActivated
		clause.Extra = parseActivationCost(m)
		body = body[len(m):]
	} else {
		for _, tp := range triggerPatterns {
			if loc := tp.re.FindString(body); loc != "" {
				clause.Trigger = tp.trigger
				body = body[len(loc):]
				break
			}
		}
	}

	// "If ... this turn," mid-clause conditions consult the turn's
	// watchers when the clause fires.
	if clause.Condition == nil {
		if m := turnConditionPattern.FindStringSubmatch(body); m != nil {
			phrase := strings.ToLower(m[1])
			switch {
			case phrase == "a unit died this turn":
				clause.Condition = &Condition{Kind: CondUnitsDied}
			case phrase == "you conquered this turn":
				clause.Condition = &Condition{Kind: CondConquered}
			default:
				clause.Condition = &Condition{Kind: CondDrewCards, Amount: wordNumber(m[2])}
			}
			body = body[len(m[0]):]
		}
	}

	if clause.Trigger == "" || clause.Trigger == TriggerNone {
		// Spell bodies carry no trigger prefix: a plain effect list on a
		// spell card resolves when the spell does. Reaction spells are
		// flagged by the Reaction keyword at the definition level.
		clause.Trigger = TriggerPlayed
	}

	ops, parsed, total := parseEffectList(body)
	clause.Ops = ops
	switch {
	case total == 0 || parsed == 0:
		clause.Support = SupportUnsupported
		clause.Ops = []Op{{Kind: OpNothing, Text: body}}
	case parsed < total:
		clause.Support = SupportPartial
	default:
		clause.Support = SupportFull
	}
	return clause
}

func parseActivationCost(prefix string) Cost {
	lower := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(prefix), ":"))
	cost := Cost{}
	for _, part := range strings.Split(lower, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "exhaust me":
			cost.ExhaustSelf = true
		case part == "kill me":
			cost.KillSelf = true
		case strings.HasPrefix(part, "pay {"):
			n, _ := strconv.Atoi(strings.Trim(part[len("pay {"):], "{}"))
			cost.Energy = n
		case strings.HasPrefix(part, "discard"):
			cost.DiscardN = wordNumber(strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(part, "discard"), "card")))
		case strings.HasPrefix(part, "spend"):
			rest := strings.TrimSpace(strings.TrimPrefix(part, "spend"))
			rest = strings.TrimSuffix(rest, "buffs")
			rest = strings.TrimSuffix(rest, "buff")
			cost.SpendBuffs = wordNumber(strings.TrimSpace(rest))
		}
	}
	return cost
}

var effectSeparator = regexp.MustCompile(`(?i)(?:,\s*then\s+|,\s*and\s+|,\s*|\.\s+then\s+|\.\s+)`)

// parseEffectList parses the comma/then-separated effect phrases of a
// clause body. Returns the compiled ops plus how many phrases parsed out
// of how many were present.
func parseEffectList(body string) ([]Op, int, int) {
	body = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(body), "."))
	if body == "" {
		return nil, 0, 0
	}

	var (
		ops    []Op
		parsed int
		total  int
	)
	for _, phrase := range effectSeparator.Split(body, -1) {
		phrase = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(phrase), "."))
		if phrase == "" {
			continue
		}
		total++
		op, ok := parseEffectPhrase(phrase)
		if !ok {
			op = Op{Kind: OpNothing, Text: phrase}
		} else {
			parsed++
		}
		ops = append(ops, op)
	}
	return ops, parsed, total
}

var (
	drawPattern      = regexp.MustCompile(`(?i)^(?:you may )?draw (\w+)(?: cards?)?$`)
	eachDrawPattern  = regexp.MustCompile(`(?i)^each player draws (\w+)(?: cards?)?$`)
	damagePattern    = regexp.MustCompile(`(?i)^(?:you may )?deal (\w+) damage to (.+)$`)
	buffTempPattern  = regexp.MustCompile(`(?i)^(?:you may )?give (.+?) ([+-]\d+) might this turn$`)
	buffPermPattern  = regexp.MustCompile(`(?i)^(?:you may )?give (.+?) (\w+) buffs?$`)
	grantPattern     = regexp.MustCompile(`(?i)^(?:you may )?grant (.+?) \[([a-z ]+)\] this turn$`)
	killPattern      = regexp.MustCompile(`(?i)^(?:you may )?kill (.+)$`)
	readyPattern     = regexp.MustCompile(`(?i)^(?:you may )?ready (.+)$`)
	exhaustPattern   = regexp.MustCompile(`(?i)^(?:you may )?exhaust (.+)$`)
	energyPattern    = regexp.MustCompile(`(?i)^gain (\w+) energy$`)
	powerPattern     = regexp.MustCompile(`(?i)^gain (\w+) (fury|calm|mind|body|order|chaos) power$`)
	scorePattern     = regexp.MustCompile(`(?i)^score (\w+) points?$`)
	discardPattern   = regexp.MustCompile(`(?i)^discard (\w+)(?: cards?)?$`)
	eachDiscard      = regexp.MustCompile(`(?i)^each player discards (\w+)(?: cards?)?$`)
	recyclePattern   = regexp.MustCompile(`(?i)^recycle a rune$`)
	channelPattern   = regexp.MustCompile(`(?i)^channel a rune$`)
	moveBasePattern  = regexp.MustCompile(`(?i)^(?:you may )?return (.+?) to base$`)
	domainsByName    = map[string]runes.Domain{"fury": runes.DomainFury, "calm": runes.DomainCalm, "mind": runes.DomainMind, "body": runes.DomainBody, "order": runes.DomainOrder, "chaos": runes.DomainChaos}
	optionalPrefixRE = regexp.MustCompile(`(?i)^you may `)
)

func parseEffectPhrase(phrase string) (Op, bool) {
	optional := optionalPrefixRE.MatchString(phrase)

	if m := eachDrawPattern.FindStringSubmatch(phrase); m != nil {
		return Op{Kind: OpDraw, Amount: wordNumber(m[1]), EachPlayer: true, Text: phrase}, true
	}
	if m := eachDiscard.FindStringSubmatch(phrase); m != nil {
		return Op{Kind: OpDiscard, Amount: wordNumber(m[1]), EachPlayer: true, Text: phrase}, true
	}
	if m := drawPattern.FindStringSubmatch(phrase); m != nil {
		return Op{Kind: OpDraw, Amount: wordNumber(m[1]), Optional: optional, Text: phrase}, true
	}
	if m := damagePattern.FindStringSubmatch(phrase); m != nil {
		spec, ok := parseTargetPhrase(m[2])
		if !ok {
			return Op{}, false
		}
		return Op{Kind: OpDamage, Amount: wordNumber(m[1]), Target: spec, Optional: optional, Text: phrase}, true
	}
	if m := buffTempPattern.FindStringSubmatch(phrase); m != nil {
		delta, _ := strconv.Atoi(m[2])
		spec, ok := parseTargetPhrase(m[1])
		if !ok {
			return Op{}, false
		}
		return Op{Kind: OpBuff, Amount: delta, Target: spec, Duration: DurationEndOfTurn, Optional: optional, Text: phrase}, true
	}
	if m := buffPermPattern.FindStringSubmatch(phrase); m != nil {
		spec, ok := parseTargetPhrase(m[1])
		if !ok {
			return Op{}, false
		}
		return Op{Kind: OpBuff, Amount: wordNumber(m[2]), Target: spec, Duration: DurationPermanent, Optional: optional, Text: phrase}, true
	}
	if m := grantPattern.FindStringSubmatch(phrase); m != nil {
		spec, ok := parseTargetPhrase(m[1])
		if !ok {
			return Op{}, false
		}
		return Op{Kind: OpGrantKeyword, Keyword: titleCase(m[2]), Target: spec, Duration: DurationEndOfTurn, Optional: optional, Text: phrase}, true
	}
	if m := killPattern.FindStringSubmatch(phrase); m != nil {
		spec, ok := parseTargetPhrase(m[1])
		if !ok {
			return Op{}, false
		}
		return Op{Kind: OpKill, Target: spec, Optional: optional, Text: phrase}, true
	}
	if m := moveBasePattern.FindStringSubmatch(phrase); m != nil {
		spec, ok := parseTargetPhrase(m[1])
		if !ok {
			if strings.EqualFold(strings.TrimSpace(m[1]), "me") {
				return Op{Kind: OpMove, MoveToBase: true, Optional: optional, Text: phrase}, true
			}
			return Op{}, false
		}
		return Op{Kind: OpMove, MoveToBase: true, Target: spec, Optional: optional, Text: phrase}, true
	}
	if m := readyPattern.FindStringSubmatch(phrase); m != nil {
		if strings.EqualFold(strings.TrimSpace(m[1]), "me") {
			return Op{Kind: OpReady, Optional: optional, Text: phrase}, true
		}
		spec, ok := parseTargetPhrase(m[1])
		if !ok {
			return Op{}, false
		}
		return Op{Kind: OpReady, Target: spec, Optional: optional, Text: phrase}, true
	}
	if m := exhaustPattern.FindStringSubmatch(phrase); m != nil {
		if strings.EqualFold(strings.TrimSpace(m[1]), "me") {
			return Op{Kind: OpExhaust, Optional: optional, Text: phrase}, true
		}
		spec, ok := parseTargetPhrase(m[1])
		if !ok {
			return Op{}, false
		}
		return Op{Kind: OpExhaust, Target: spec, Optional: optional, Text: phrase}, true
	}
	if m := energyPattern.FindStringSubmatch(phrase); m != nil {
		return Op{Kind: OpGainEnergy, Amount: wordNumber(m[1]), Text: phrase}, true
	}
	if m := powerPattern.FindStringSubmatch(phrase); m != nil {
		return Op{Kind: OpGainPower, Amount: wordNumber(m[1]), Domain: domainsByName[strings.ToLower(m[2])], Text: phrase}, true
	}
	if m := scorePattern.FindStringSubmatch(phrase); m != nil {
		return Op{Kind: OpScore, Amount: wordNumber(m[1]), Text: phrase}, true
	}
	if m := discardPattern.FindStringSubmatch(phrase); m != nil {
		return Op{Kind: OpDiscard, Amount: wordNumber(m[1]), Text: phrase}, true
	}
	if recyclePattern.MatchString(phrase) {
		return Op{Kind: OpRecycle, Amount: 1, Text: phrase}, true
	}
	if channelPattern.MatchString(phrase) {
		return Op{Kind: OpChannelRune, Amount: 1, Text: phrase}, true
	}
	return Op{}, false
}

var targetPhrasePattern = regexp.MustCompile(`(?i)^(an? |another )?(enemy |friendly )?([a-z]+ )?(unit|gear|battlefield)( here)?$`)

// parseTargetPhrase parses phrases like "an enemy unit", "another friendly
// dragon unit", "a battlefield", "an enemy unit here".
func parseTargetPhrase(phrase string) (*targeting.Spec, bool) {
	phrase = strings.TrimSpace(phrase)
	if strings.EqualFold(phrase, "your opponent") {
		return &targeting.Spec{
			Kind:        targeting.KindPlayer,
			Zone:        targeting.ZoneAny,
			Controller:  targeting.ControllerOpponent,
			MinTargets:  1,
			MaxTargets:  1,
			Description: phrase,
		}, true
	}
	m := targetPhrasePattern.FindStringSubmatch(phrase)
	if m == nil {
		return nil, false
	}

	spec := &targeting.Spec{
		Zone:        targeting.ZoneBoard,
		Controller:  targeting.ControllerAny,
		MinTargets:  1,
		MaxTargets:  1,
		Description: phrase,
	}
	if strings.EqualFold(strings.TrimSpace(m[1]), "another") {
		spec.ExcludeSource = true
	}
	switch strings.ToLower(strings.TrimSpace(m[2])) {
	case "enemy":
		spec.Controller = targeting.ControllerOpponent
	case "friendly":
		spec.Controller = targeting.ControllerSelf
	}
	if tag := strings.ToLower(strings.TrimSpace(m[3])); tag != "" {
		spec.Tag = tag
	}
	switch strings.ToLower(m[4]) {
	case "unit":
		spec.Kind = targeting.KindUnit
	case "gear":
		spec.Kind = targeting.KindGear
		spec.Zone = targeting.ZoneAny
	case "battlefield":
		spec.Kind = targeting.KindBattlefield
		spec.Zone = targeting.ZoneAny
	}
	if m[5] != "" {
		spec.SameBattlefield = true
	}
	return spec, true
}

func titleCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func wordNumber(w string) int {
	w = strings.ToLower(strings.TrimSpace(w))
	if n, ok := numberWords[w]; ok {
		return n
	}
	if n, err := strconv.Atoi(w); err == nil {
		return n
	}
	return 1
}
