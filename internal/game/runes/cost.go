package runes

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Cost represents a parsed card or ability cost: an energy amount plus
// power pips. A pip is either bound to a concrete domain or generic
// (payable with power of any domain).
type Cost struct {
	Energy  int
	Pips    map[Domain]int
	AnyPips int
}

// NewCost creates an empty cost.
func NewCost() *Cost {
	return &Cost{Pips: make(map[Domain]int)}
}

var symbolPattern = regexp.MustCompile(`\{([^}]+)\}`)

// domainSymbols maps single-letter cost symbols to domains.
// K is used for Chaos to keep symbols unambiguous.
var domainSymbols = map[string]Domain{
	"F": DomainFury,
	"C": DomainCalm,
	"M": DomainMind,
	"B": DomainBody,
	"O": DomainOrder,
	"K": DomainChaos,
}

// ParseCost parses a cost expression such as "{3}{F}{F}" (3 energy, two
// Fury pips) or "{2}{A}" (2 energy, one pip of any domain).
// Supported symbols:
//   - {N}: energy amount
//   - {F} {C} {M} {B} {O} {K}: one power pip of the named domain
//   - {A}: one power pip payable by any domain
//
// The compact form "3FF" (no braces, leading energy digits followed by
// pip letters) is accepted as well; catalog files use it.
func ParseCost(expr string) (*Cost, error) {
	cost := NewCost()
	if expr == "" {
		return cost, nil
	}

	matches := symbolPattern.FindAllStringSubmatch(expr, -1)
	if len(matches) == 0 {
		return parseCompactCost(expr)
	}

	for _, match := range matches {
		symbol := strings.ToUpper(strings.TrimSpace(match[1]))
		if domain, ok := domainSymbols[symbol]; ok {
			cost.Pips[domain]++
			continue
		}
		if symbol == "A" {
			cost.AnyPips++
			continue
		}
		if num, err := strconv.Atoi(symbol); err == nil {
			cost.Energy += num
			continue
		}
		return nil, fmt.Errorf("unknown cost symbol: {%s}", symbol)
	}

	return cost, nil
}

func parseCompactCost(expr string) (*Cost, error) {
	cost := NewCost()
	trimmed := strings.ToUpper(strings.TrimSpace(expr))
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i > 0 {
		n, err := strconv.Atoi(trimmed[:i])
		if err != nil {
			return nil, fmt.Errorf("malformed cost expression: %q", expr)
		}
		cost.Energy = n
	}
	for _, r := range trimmed[i:] {
		symbol := string(r)
		if domain, ok := domainSymbols[symbol]; ok {
			cost.Pips[domain]++
			continue
		}
		if symbol == "A" {
			cost.AnyPips++
			continue
		}
		return nil, fmt.Errorf("malformed cost expression: %q", expr)
	}
	return cost, nil
}

// TotalPips returns the total number of power pips, generic included.
func (c *Cost) TotalPips() int {
	total := c.AnyPips
	for _, d := range AllDomains {
		total += c.Pips[d]
	}
	return total
}

// IsFree reports whether the cost requires nothing at all.
func (c *Cost) IsFree() bool {
	return c.Energy == 0 && c.TotalPips() == 0
}

// Add returns a new cost that is the sum of c and other.
// Used for additional costs such as Deflect surcharges.
func (c *Cost) Add(other *Cost) *Cost {
	sum := NewCost()
	sum.Energy = c.Energy
	sum.AnyPips = c.AnyPips
	for d, n := range c.Pips {
		sum.Pips[d] += n
	}
	if other != nil {
		sum.Energy += other.Energy
		sum.AnyPips += other.AnyPips
		for d, n := range other.Pips {
			sum.Pips[d] += n
		}
	}
	return sum
}

// String renders the cost back to symbol form.
func (c *Cost) String() string {
	var sb strings.Builder
	if c.Energy > 0 || c.TotalPips() == 0 {
		fmt.Fprintf(&sb, "{%d}", c.Energy)
	}
	for _, d := range AllDomains {
		for i := 0; i < c.Pips[d]; i++ {
			for sym, cand := range domainSymbols {
				if cand == d {
					fmt.Fprintf(&sb, "{%s}", sym)
				}
			}
		}
	}
	for i := 0; i < c.AnyPips; i++ {
		sb.WriteString("{A}")
	}
	return sb.String()
}
