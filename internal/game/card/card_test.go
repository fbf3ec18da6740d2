package card

import (
	"testing"

	"github.com/riftforge/rift-server-go/internal/game/effects"
	"github.com/riftforge/rift-server-go/internal/game/runes"
)

func TestParseKeywords(t *testing.T) {
	ks, unknown := ParseKeywords("[Tank] [Mighty 3] [Deflect 1]")
	if len(unknown) != 0 {
		t.Fatalf("unexpected unknown keywords: %v", unknown)
	}
	if !ks.Has(KeywordTank) {
		t.Error("expected Tank")
	}
	if v, ok := ks.Value(KeywordMighty); !ok || v != 3 {
		t.Errorf("expected Mighty 3, got %d %v", v, ok)
	}
	if v, _ := ks.Value(KeywordDeflect); v != 1 {
		t.Errorf("expected Deflect 1, got %d", v)
	}
}

func TestParseKeywordsUnknown(t *testing.T) {
	ks, unknown := ParseKeywords("[Tank] [Overdrive]")
	if len(unknown) != 1 || unknown[0] != "Overdrive" {
		t.Fatalf("expected unknown Overdrive, got %v", unknown)
	}
	if !ks.Has(KeywordTank) {
		t.Error("known keyword dropped alongside unknown one")
	}
}

func TestKeywordSetNames(t *testing.T) {
	ks := NewKeywordSet(KeywordGanking)
	ks.Add(KeywordMighty, 2)
	names := ks.Names()
	if len(names) != 2 || names[0] != "Ganking" || names[1] != "Mighty 2" {
		t.Fatalf("unexpected names: %v", names)
	}
}

func TestDefinitionPlaySpeed(t *testing.T) {
	cost, err := runes.ParseCost("1")
	if err != nil {
		t.Fatalf("parse cost: %v", err)
	}
	action := &Definition{ID: "c1", Name: "Bolt", Type: TypeSpell, Cost: cost, Keywords: NewKeywordSet()}
	if action.PlaySpeed() != effects.TimingAction {
		t.Error("expected Action timing by default")
	}
	reaction := &Definition{ID: "c2", Name: "Counter", Type: TypeSpell, Cost: cost, Keywords: NewKeywordSet(KeywordReaction)}
	if reaction.PlaySpeed() != effects.TimingReaction {
		t.Error("expected Reaction timing")
	}
}

func TestDefinitionValidate(t *testing.T) {
	cost, _ := runes.ParseCost("2F")
	good := &Definition{ID: "u1", Name: "Vanguard", Type: TypeUnit, Cost: cost, Might: 3}
	if err := good.Validate(); err != nil {
		t.Errorf("valid unit rejected: %v", err)
	}

	noCost := &Definition{ID: "u2", Name: "Broken", Type: TypeUnit}
	if err := noCost.Validate(); err == nil {
		t.Error("unit without cost accepted")
	}

	runeDef := &Definition{ID: "r1", Name: "Fury Rune", Type: TypeRune}
	if err := runeDef.Validate(); err == nil {
		t.Error("rune without power value accepted")
	}
	runeDef.PowerValue = 1
	if err := runeDef.Validate(); err != nil {
		t.Errorf("valid rune rejected: %v", err)
	}
}

func TestDefinitionSupportSummary(t *testing.T) {
	d := &Definition{
		ID: "x", Name: "Mixed", Type: TypeBattlefield,
		Clauses: []effects.Clause{
			{Support: effects.SupportFull},
			{Support: effects.SupportPartial},
		},
	}
	if got := d.SupportSummary(); got != effects.SupportPartial {
		t.Errorf("expected PARTIAL, got %s", got)
	}
	d.Clauses = append(d.Clauses, effects.Clause{Support: effects.SupportUnsupported})
	if got := d.SupportSummary(); got != effects.SupportUnsupported {
		t.Errorf("expected UNSUPPORTED, got %s", got)
	}
}

func TestDefinitionTags(t *testing.T) {
	d := &Definition{ID: "u3", Name: "Kato", Type: TypeUnit, Tags: []string{"champion", "support"}}
	if !d.HasTag("Champion") {
		t.Error("tag lookup should be case-insensitive")
	}
	if !d.IsChampion() {
		t.Error("expected champion")
	}
}
