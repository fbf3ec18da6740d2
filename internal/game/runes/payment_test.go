package runes

import (
	"testing"
)

func sources(domains ...Domain) []Source {
	out := make([]Source, len(domains))
	for i, d := range domains {
		out[i] = Source{ID: string(rune('a' + i)), Domain: d, Ready: true}
	}
	return out
}

func TestCalculatePaymentFromPoolOnly(t *testing.T) {
	pool := NewPool()
	pool.AddEnergy(3)
	pool.AddPower(DomainFury, 2)

	cost, _ := ParseCost("{3}{F}{F}")
	result := CalculatePayment(cost, pool, nil, nil)

	if !result.Success {
		t.Fatalf("expected success, got: %s", result.Reason)
	}
	if result.Plan.PoolEnergy != 3 {
		t.Errorf("expected 3 pool energy, got %d", result.Plan.PoolEnergy)
	}
	if result.Plan.PoolPower[DomainFury] != 2 {
		t.Errorf("expected 2 pool fury, got %d", result.Plan.PoolPower[DomainFury])
	}
	if result.Plan.ConsumedSources() != 0 {
		t.Errorf("expected no sources consumed, got %d", result.Plan.ConsumedSources())
	}
	// Planning must not touch the pool.
	if pool.GetEnergy() != 3 {
		t.Errorf("pool mutated during planning: energy %d", pool.GetEnergy())
	}
}

func TestCalculatePaymentExhaustsRunesForEnergy(t *testing.T) {
	pool := NewPool()
	runesInPlay := sources(DomainFury, DomainFury, DomainCalm)

	cost, _ := ParseCost("{2}")
	result := CalculatePayment(cost, pool, runesInPlay, nil)

	if !result.Success {
		t.Fatalf("expected success, got: %s", result.Reason)
	}
	if len(result.Plan.ExhaustRunes) != 2 {
		t.Fatalf("expected 2 rune exhausts, got %d", len(result.Plan.ExhaustRunes))
	}
	// Leftmost-first ordering.
	if result.Plan.ExhaustRunes[0] != "a" || result.Plan.ExhaustRunes[1] != "b" {
		t.Errorf("expected leftmost runes a,b, got %v", result.Plan.ExhaustRunes)
	}
}

func TestCalculatePaymentPrefersSealsOverRecycling(t *testing.T) {
	pool := NewPool()
	runesInPlay := sources(DomainMind)
	seals := []Source{{ID: "seal-1", Domain: DomainMind, Ready: true}}

	cost, _ := ParseCost("{M}")
	result := CalculatePayment(cost, pool, runesInPlay, seals)

	if !result.Success {
		t.Fatalf("expected success, got: %s", result.Reason)
	}
	if len(result.Plan.ExhaustSeals) != 1 {
		t.Fatalf("expected the seal to pay the pip, got plan %+v", result.Plan)
	}
	if len(result.Plan.RecycleRunes) != 0 {
		t.Errorf("expected no rune recycled while a seal is available, got %v", result.Plan.RecycleRunes)
	}
}

func TestCalculatePaymentRecyclesForPower(t *testing.T) {
	pool := NewPool()
	runesInPlay := sources(DomainBody, DomainBody)

	cost, _ := ParseCost("{1}{B}")
	result := CalculatePayment(cost, pool, runesInPlay, nil)

	if !result.Success {
		t.Fatalf("expected success, got: %s", result.Reason)
	}
	if len(result.Plan.RecycleRunes) != 1 || result.Plan.RecycleRunes[0] != "a" {
		t.Errorf("expected leftmost rune recycled, got %v", result.Plan.RecycleRunes)
	}
	if len(result.Plan.ExhaustRunes) != 1 || result.Plan.ExhaustRunes[0] != "b" {
		t.Errorf("expected remaining rune exhausted for energy, got %v", result.Plan.ExhaustRunes)
	}
}

func TestCalculatePaymentRuneNotDoubleSpent(t *testing.T) {
	pool := NewPool()
	runesInPlay := sources(DomainOrder)

	// One rune cannot pay both a power pip and an energy.
	cost, _ := ParseCost("{1}{O}")
	result := CalculatePayment(cost, pool, runesInPlay, nil)

	if result.Success {
		t.Fatal("expected failure: single rune cannot pay pip and energy")
	}
}

func TestCalculatePaymentUnaffordable(t *testing.T) {
	pool := NewPool()
	pool.AddEnergy(1)
	runesInPlay := sources(DomainFury)

	cost, _ := ParseCost("{1}{K}")
	result := CalculatePayment(cost, pool, runesInPlay, nil)

	if result.Success {
		t.Fatal("expected failure for missing chaos power")
	}
	if result.Reason == "" {
		t.Error("expected a failure reason")
	}
	// The pool must be untouched on rejection.
	if pool.GetEnergy() != 1 {
		t.Errorf("pool mutated on rejection: energy %d", pool.GetEnergy())
	}
}

func TestCalculatePaymentSkipsExhaustedSources(t *testing.T) {
	pool := NewPool()
	runesInPlay := []Source{
		{ID: "spent", Domain: DomainFury, Ready: false},
		{ID: "fresh", Domain: DomainFury, Ready: true},
	}

	cost, _ := ParseCost("{1}")
	result := CalculatePayment(cost, pool, runesInPlay, nil)

	if !result.Success {
		t.Fatalf("expected success, got: %s", result.Reason)
	}
	if len(result.Plan.ExhaustRunes) != 1 || result.Plan.ExhaustRunes[0] != "fresh" {
		t.Errorf("expected only the ready rune, got %v", result.Plan.ExhaustRunes)
	}
}

func TestExecutePoolSpendAtomic(t *testing.T) {
	pool := NewPool()
	pool.AddEnergy(1)
	pool.AddPower(DomainCalm, 1)

	plan := NewPaymentPlan()
	plan.PoolEnergy = 2 // more than available
	plan.PoolPower[DomainCalm] = 1

	if ExecutePoolSpend(plan, pool) {
		t.Fatal("expected spend to fail")
	}
	if pool.GetEnergy() != 1 || pool.GetPower(DomainCalm) != 1 {
		t.Error("pool partially spent on failed execution")
	}

	plan.PoolEnergy = 1
	if !ExecutePoolSpend(plan, pool) {
		t.Fatal("expected spend to succeed")
	}
	if pool.GetEnergy() != 0 || pool.GetPower(DomainCalm) != 0 {
		t.Error("pool not fully spent on success")
	}
}

func TestCalculatePaymentDeterministic(t *testing.T) {
	pool := NewPool()
	runesInPlay := sources(DomainFury, DomainCalm, DomainMind, DomainBody)

	cost, _ := ParseCost("{2}{A}")
	first := CalculatePayment(cost, pool, runesInPlay, nil)
	second := CalculatePayment(cost, pool, runesInPlay, nil)

	if !first.Success || !second.Success {
		t.Fatal("expected both plans to succeed")
	}
	if len(first.Plan.ExhaustRunes) != len(second.Plan.ExhaustRunes) {
		t.Fatal("plans differ in rune count")
	}
	for i := range first.Plan.ExhaustRunes {
		if first.Plan.ExhaustRunes[i] != second.Plan.ExhaustRunes[i] {
			t.Errorf("plan not deterministic at %d: %s vs %s", i, first.Plan.ExhaustRunes[i], second.Plan.ExhaustRunes[i])
		}
	}
}
