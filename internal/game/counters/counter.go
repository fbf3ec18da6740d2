package counters

import "sort"

// Counter represents a named counter on a unit, gear or battlefield.
type Counter struct {
	Name  string
	Count int
}

// NewCounter creates a counter with the given name and count.
func NewCounter(name string, count int) *Counter {
	if count <= 0 {
		count = 1
	}
	return &Counter{Name: name, Count: count}
}

// Add adds the specified amount to the counter.
func (c *Counter) Add(amount int) {
	if amount > 0 {
		c.Count += amount
	}
}

// Remove removes the specified amount from the counter. The count never
// goes below zero.
func (c *Counter) Remove(amount int) {
	if amount > 0 {
		if c.Count >= amount {
			c.Count -= amount
		} else {
			c.Count = 0
		}
	}
}

// Copy creates a deep copy of the counter.
func (c *Counter) Copy() *Counter {
	return &Counter{Name: c.Name, Count: c.Count}
}

// Counters manages the counters of a single object.
type Counters struct {
	Counters map[string]*Counter
}

// NewCounters creates an empty collection.
func NewCounters() *Counters {
	return &Counters{Counters: make(map[string]*Counter)}
}

// AddCounter adds a counter to the collection, merging with an existing
// counter of the same name.
func (cs *Counters) AddCounter(counter *Counter) {
	if counter == nil {
		return
	}
	if existing, ok := cs.Counters[counter.Name]; ok {
		existing.Add(counter.Count)
	} else {
		cs.Counters[counter.Name] = counter.Copy()
	}
}

// RemoveCounter removes up to amount counters of the given name. Returns
// the number actually removed.
func (cs *Counters) RemoveCounter(name string, amount int) int {
	if amount <= 0 {
		return 0
	}
	counter, ok := cs.Counters[name]
	if !ok {
		return 0
	}
	removed := amount
	if counter.Count < amount {
		removed = counter.Count
	}
	counter.Remove(removed)
	if counter.Count == 0 {
		delete(cs.Counters, name)
	}
	return removed
}

// GetCount returns the count of counters with the given name.
func (cs *Counters) GetCount(name string) int {
	if counter, ok := cs.Counters[name]; ok {
		return counter.Count
	}
	return 0
}

// HasCounter reports whether any counters of the given name exist.
func (cs *Counters) HasCounter(name string) bool {
	return cs.GetCount(name) > 0
}

// GetTotalCount returns the total over all counter names.
func (cs *Counters) GetTotalCount() int {
	total := 0
	for _, counter := range cs.Counters {
		total += counter.Count
	}
	return total
}

// Copy creates a deep copy of the collection.
func (cs *Counters) Copy() *Counters {
	cpy := NewCounters()
	for name, counter := range cs.Counters {
		cpy.Counters[name] = counter.Copy()
	}
	return cpy
}

// ToView converts the collection to the view format, ordered by name so
// snapshots render deterministically.
func (cs *Counters) ToView() []CounterView {
	var views []CounterView
	for name, counter := range cs.Counters {
		views = append(views, CounterView{Name: name, Count: counter.Count})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })
	return views
}

// CounterView represents a counter in the client view format.
type CounterView struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
