package runes

import "testing"

func TestParseCost(t *testing.T) {
	cost, err := ParseCost("{3}{F}{F}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost.Energy != 3 {
		t.Errorf("expected 3 energy, got %d", cost.Energy)
	}
	if cost.Pips[DomainFury] != 2 {
		t.Errorf("expected 2 fury pips, got %d", cost.Pips[DomainFury])
	}
	if cost.AnyPips != 0 {
		t.Errorf("expected 0 generic pips, got %d", cost.AnyPips)
	}
}

func TestParseCostGenericPips(t *testing.T) {
	cost, err := ParseCost("{2}{A}{A}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cost.Energy != 2 {
		t.Errorf("expected 2 energy, got %d", cost.Energy)
	}
	if cost.AnyPips != 2 {
		t.Errorf("expected 2 generic pips, got %d", cost.AnyPips)
	}
}

func TestParseCostEmpty(t *testing.T) {
	cost, err := ParseCost("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cost.IsFree() {
		t.Error("expected empty expression to parse as free cost")
	}
}

func TestParseCostUnknownSymbol(t *testing.T) {
	if _, err := ParseCost("{Z}"); err == nil {
		t.Error("expected error for unknown symbol")
	}
}

func TestParseCostCompact(t *testing.T) {
	cost, err := ParseCost("3FF")
	if err != nil {
		t.Fatalf("parse compact: %v", err)
	}
	if cost.Energy != 3 || cost.Pips[DomainFury] != 2 {
		t.Errorf("compact cost mis-parsed: %+v", cost)
	}
	if _, err := ParseCost("2X"); err == nil {
		t.Error("expected error for unknown compact symbol")
	}
}

func TestCostAdd(t *testing.T) {
	base, _ := ParseCost("{1}{M}")
	surcharge, _ := ParseCost("{2}")
	sum := base.Add(surcharge)
	if sum.Energy != 3 {
		t.Errorf("expected 3 energy after surcharge, got %d", sum.Energy)
	}
	if sum.Pips[DomainMind] != 1 {
		t.Errorf("expected mind pip preserved, got %d", sum.Pips[DomainMind])
	}
	// Add must not mutate the base cost.
	if base.Energy != 1 {
		t.Errorf("base cost mutated: energy %d", base.Energy)
	}
}
