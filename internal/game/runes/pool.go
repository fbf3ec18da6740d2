package runes

import (
	"sort"
	"strings"
	"sync"
)

// Domain represents one of the six power domains.
type Domain string

const (
	DomainFury  Domain = "FURY"
	DomainCalm  Domain = "CALM"
	DomainMind  Domain = "MIND"
	DomainBody  Domain = "BODY"
	DomainOrder Domain = "ORDER"
	DomainChaos Domain = "CHAOS"
	// DomainAny marks a power pip that any domain may pay.
	DomainAny Domain = "ANY"
)

// AllDomains lists the concrete domains in canonical order.
// Iteration over power maps must use this order for deterministic results.
var AllDomains = []Domain{DomainFury, DomainCalm, DomainMind, DomainBody, DomainOrder, DomainChaos}

// ParseDomain parses a domain name, case-insensitively.
func ParseDomain(name string) (Domain, bool) {
	upper := Domain(strings.ToUpper(strings.TrimSpace(name)))
	for _, d := range AllDomains {
		if d == upper {
			return d, true
		}
	}
	return "", false
}

// Pool represents a player's resource pool: energy plus power by domain.
// Energy and power are produced by exhausting or recycling runes and
// exhausting seals; the pool empties at end of turn.
type Pool struct {
	mu sync.RWMutex

	Energy int
	Power  map[Domain]int
}

// NewPool creates a new empty resource pool.
func NewPool() *Pool {
	return &Pool{
		Power: make(map[Domain]int),
	}
}

// AddEnergy adds energy to the pool.
func (p *Pool) AddEnergy(amount int) {
	if amount <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Energy += amount
}

// AddPower adds power of the given domain to the pool.
func (p *Pool) AddPower(domain Domain, amount int) {
	if amount <= 0 || domain == DomainAny {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Power[domain] += amount
}

// GetEnergy returns the current energy in the pool.
func (p *Pool) GetEnergy() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Energy
}

// GetPower returns the current power of a specific domain.
func (p *Pool) GetPower(domain Domain) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Power[domain]
}

// TotalPower returns the sum of power across all domains.
func (p *Pool) TotalPower() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	total := 0
	for _, d := range AllDomains {
		total += p.Power[d]
	}
	return total
}

// SpendEnergy attempts to spend energy from the pool.
// Returns false without mutating if the pool holds less than amount.
func (p *Pool) SpendEnergy(amount int) bool {
	if amount <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Energy < amount {
		return false
	}
	p.Energy -= amount
	return true
}

// SpendPower attempts to spend power of a specific domain.
// Returns false without mutating if the pool holds less than amount.
func (p *Pool) SpendPower(domain Domain, amount int) bool {
	if amount <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Power[domain] < amount {
		return false
	}
	p.Power[domain] -= amount
	return true
}

// Empty clears all energy and power. Called at end of turn.
func (p *Pool) Empty() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Energy = 0
	for d := range p.Power {
		p.Power[d] = 0
	}
}

// Copy creates a deep copy of the pool.
func (p *Pool) Copy() *Pool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cp := &Pool{
		Energy: p.Energy,
		Power:  make(map[Domain]int, len(p.Power)),
	}
	for d, n := range p.Power {
		cp.Power[d] = n
	}
	return cp
}

// Domains returns the domains with nonzero power, in canonical order.
func (p *Pool) Domains() []Domain {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []Domain
	for _, d := range AllDomains {
		if p.Power[d] > 0 {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return domainIndex(out[i]) < domainIndex(out[j]) })
	return out
}

func domainIndex(d Domain) int {
	for i, cand := range AllDomains {
		if cand == d {
			return i
		}
	}
	return len(AllDomains)
}
