package catalog

import (
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/riftforge/rift-server-go/internal/game/card"
	"github.com/riftforge/rift-server-go/internal/game/effects"
	"github.com/riftforge/rift-server-go/internal/game/runes"
)

const sampleCatalog = `
cards:
  - id: unit-vanguard
    name: Rift Vanguard
    type: unit
    cost: "2F"
    might: 3
    domains: [fury]
    tags: [soldier]
    keywords: "[Tank]"
    text:
      - "When I'm played, draw a card."
  - id: unit-drake
    name: Ember Drake
    type: unit
    cost: "3FF"
    might: 4
    domains: [fury]
    tags: [dragon]
    text:
      - "[Accelerate]"
      - "I enter play ready if you control another dragon."
  - id: spell-riddle
    name: Unknowable Riddle
    type: spell
    cost: "1M"
    domains: [mind]
    text:
      - "Rearrange the strands of fate."
  - id: rune-fury
    name: Fury Rune
    type: rune
    power_value: 1
    domains: [fury]
`

func TestParseCatalog(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Size() != 4 {
		t.Fatalf("expected 4 cards, got %d", c.Size())
	}

	vanguard, ok := c.Get("unit-vanguard")
	if !ok {
		t.Fatal("unit-vanguard not found")
	}
	if vanguard.Type != card.TypeUnit || vanguard.Might != 3 {
		t.Errorf("unexpected definition: %+v", vanguard)
	}
	if !vanguard.Keywords.Has(card.KeywordTank) {
		t.Error("Tank keyword missing")
	}
	if len(vanguard.Clauses) != 1 || vanguard.Clauses[0].Trigger != effects.TriggerPlayed {
		t.Errorf("played clause not compiled: %+v", vanguard.Clauses)
	}
	if vanguard.Cost.Energy != 2 || vanguard.Cost.Pips[runes.DomainFury] != 1 {
		t.Errorf("cost mis-parsed: %+v", vanguard.Cost)
	}
}

func TestKeywordOnlyLinesBecomeKeywords(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	drake, _ := c.Get("unit-drake")
	if !drake.Keywords.Has(card.KeywordAccelerate) {
		t.Error("keyword-only text line not recorded as keyword")
	}
	// The enter-ready clause stays a clause.
	if len(drake.Clauses) != 1 || drake.Clauses[0].Trigger != effects.TriggerEnterReady {
		t.Errorf("enter-ready clause missing: %+v", drake.Clauses)
	}
}

func TestUnsupportedTextReported(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	riddle, _ := c.Get("spell-riddle")
	if riddle.SupportSummary() != effects.SupportUnsupported {
		t.Errorf("expected unsupported summary, got %s", riddle.SupportSummary())
	}
	if c.Report().UnsupportedCount() == 0 {
		t.Error("report missing unsupported diagnostic")
	}
}

func TestRejectedEntries(t *testing.T) {
	bad := `
cards:
  - id: broken-unit
    name: Broken
    type: unit
    might: 2
  - id: ok-rune
    name: Calm Rune
    type: rune
    power_value: 1
`
	c, err := Parse([]byte(bad), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Size() != 1 {
		t.Fatalf("expected 1 loaded, got %d", c.Size())
	}
	if len(c.Report().Rejected) != 1 {
		t.Fatalf("expected 1 rejection, got %v", c.Report().Rejected)
	}
}

func TestGetByName(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, ok := c.GetByName("ember drake"); !ok {
		t.Error("case-insensitive name lookup failed")
	}
	if _, ok := c.GetByName("missing"); ok {
		t.Error("lookup of missing name succeeded")
	}
}
