package runes

import (
	"fmt"
)

// Source describes a rune or seal available for payment, in board order.
// Board order is the order the sources entered play; the planner always
// consumes the leftmost available source first so replays are reproducible.
type Source struct {
	ID     string
	Domain Domain
	Ready  bool
}

// PaymentPlan represents one concrete way of paying a cost.
// Pool amounts are spent from the player's pool; the ID lists name the
// rune and seal instances to exhaust or recycle, leftmost first.
type PaymentPlan struct {
	PoolEnergy   int
	PoolPower    map[Domain]int
	ExhaustRunes []string // each produces 1 energy
	RecycleRunes []string // each produces 1 power of its domain, rune leaves play
	ExhaustSeals []string // each produces 1 power of its domain
}

// NewPaymentPlan creates an empty payment plan.
func NewPaymentPlan() *PaymentPlan {
	return &PaymentPlan{PoolPower: make(map[Domain]int)}
}

// PaymentResult represents the outcome of payment planning.
type PaymentResult struct {
	Success bool
	Plan    *PaymentPlan
	Reason  string
}

// CalculatePayment computes a payment plan for cost against the given pool,
// runes in play and seals in play. The planner prefers resources already in
// the pool, then seal exhausts, then rune recycles for power; energy
// shortfalls exhaust ready runes. It never mutates its inputs.
func CalculatePayment(cost *Cost, pool *Pool, runesInPlay []Source, seals []Source) *PaymentResult {
	if cost == nil || cost.IsFree() {
		return &PaymentResult{Success: true, Plan: NewPaymentPlan()}
	}

	plan := NewPaymentPlan()
	testPool := pool.Copy()
	usedRune := make(map[string]bool)
	usedSeal := make(map[string]bool)

	// Specific domain pips first: pool power, then seals, then recycling.
	for _, d := range AllDomains {
		need := cost.Pips[d]
		if need == 0 {
			continue
		}
		fromPool := min(need, testPool.Power[d])
		if fromPool > 0 {
			testPool.SpendPower(d, fromPool)
			plan.PoolPower[d] += fromPool
			need -= fromPool
		}
		for _, s := range seals {
			if need == 0 {
				break
			}
			if !s.Ready || usedSeal[s.ID] || s.Domain != d {
				continue
			}
			usedSeal[s.ID] = true
			plan.ExhaustSeals = append(plan.ExhaustSeals, s.ID)
			need--
		}
		for _, r := range runesInPlay {
			if need == 0 {
				break
			}
			if !r.Ready || usedRune[r.ID] || r.Domain != d {
				continue
			}
			usedRune[r.ID] = true
			plan.RecycleRunes = append(plan.RecycleRunes, r.ID)
			need--
		}
		if need > 0 {
			return &PaymentResult{
				Success: false,
				Reason:  fmt.Sprintf("insufficient %s power (short %d)", d, need),
			}
		}
	}

	// Generic pips: remaining pool power in canonical order, then any seal,
	// then any rune recycle.
	need := cost.AnyPips
	for _, d := range AllDomains {
		if need == 0 {
			break
		}
		spend := min(need, testPool.Power[d])
		if spend > 0 {
			testPool.SpendPower(d, spend)
			plan.PoolPower[d] += spend
			need -= spend
		}
	}
	for _, s := range seals {
		if need == 0 {
			break
		}
		if !s.Ready || usedSeal[s.ID] {
			continue
		}
		usedSeal[s.ID] = true
		plan.ExhaustSeals = append(plan.ExhaustSeals, s.ID)
		need--
	}
	for _, r := range runesInPlay {
		if need == 0 {
			break
		}
		if !r.Ready || usedRune[r.ID] {
			continue
		}
		usedRune[r.ID] = true
		plan.RecycleRunes = append(plan.RecycleRunes, r.ID)
		need--
	}
	if need > 0 {
		return &PaymentResult{
			Success: false,
			Reason:  fmt.Sprintf("insufficient power for generic pips (short %d)", need),
		}
	}

	// Energy: pool first, then exhaust remaining ready runes.
	needEnergy := cost.Energy
	fromPool := min(needEnergy, testPool.Energy)
	if fromPool > 0 {
		testPool.SpendEnergy(fromPool)
		plan.PoolEnergy = fromPool
		needEnergy -= fromPool
	}
	for _, r := range runesInPlay {
		if needEnergy == 0 {
			break
		}
		if !r.Ready || usedRune[r.ID] {
			continue
		}
		usedRune[r.ID] = true
		plan.ExhaustRunes = append(plan.ExhaustRunes, r.ID)
		needEnergy--
	}
	if needEnergy > 0 {
		return &PaymentResult{
			Success: false,
			Reason:  fmt.Sprintf("insufficient energy (short %d)", needEnergy),
		}
	}

	return &PaymentResult{Success: true, Plan: plan}
}

// ExecutePoolSpend commits the pool portion of a payment plan.
// The whole spend succeeds or the pool is left untouched.
func ExecutePoolSpend(plan *PaymentPlan, pool *Pool) bool {
	if plan == nil {
		return false
	}
	if pool.GetEnergy() < plan.PoolEnergy {
		return false
	}
	for _, d := range AllDomains {
		if pool.GetPower(d) < plan.PoolPower[d] {
			return false
		}
	}
	pool.SpendEnergy(plan.PoolEnergy)
	for _, d := range AllDomains {
		pool.SpendPower(d, plan.PoolPower[d])
	}
	return true
}

// ConsumedSources returns the total number of rune and seal instances the
// plan consumes, used to compare candidate plans.
func (p *PaymentPlan) ConsumedSources() int {
	return len(p.ExhaustRunes) + len(p.RecycleRunes) + len(p.ExhaustSeals)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
