package counters

// CounterType represents a type of counter.
type CounterType string

const (
	// CounterTypeBuff is the general-purpose unit counter. Each buff
	// counter grants +1 might, and some abilities spend buff counters as
	// part of their cost.
	CounterTypeBuff CounterType = "buff"
	// CounterTypeDamage tracks damage marked on a unit. It persists until
	// the unit dies or an effect removes it.
	CounterTypeDamage CounterType = "damage"
	// CounterTypeCharge accumulates on gear with charged activated
	// abilities.
	CounterTypeCharge CounterType = "charge"
)

// String returns the string representation of the counter type.
func (ct CounterType) String() string {
	return string(ct)
}

// CreateInstance creates a counter of this type with the given amount.
func (ct CounterType) CreateInstance(amount int) *Counter {
	return NewCounter(string(ct), amount)
}

// MightBonus returns the might contribution of a counter collection:
// +1 per buff counter.
func MightBonus(cs *Counters) int {
	if cs == nil {
		return 0
	}
	return cs.GetCount(string(CounterTypeBuff))
}
