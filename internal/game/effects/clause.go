package effects

// TriggerKind identifies when a compiled clause fires.
type TriggerKind string

const (
	// TriggerNone marks clauses with no trigger (unsupported or empty text).
	TriggerNone TriggerKind = "NONE"
	// TriggerPlayed fires when the source enters play from hand.
	TriggerPlayed TriggerKind = "PLAYED"
	// TriggerDeathknell fires when the source dies.
	TriggerDeathknell TriggerKind = "DEATHKNELL"
	// TriggerConquer fires when the controller conquers a battlefield.
	TriggerConquer TriggerKind = "CONQUER"
	// TriggerHold fires when the controller holds a battlefield at turn end.
	TriggerHold TriggerKind = "HOLD"
	// TriggerAttacking fires when the source is declared as an attacker.
	TriggerAttacking TriggerKind = "ATTACKING"
	// TriggerDefending fires when combat begins and the source defends.
	TriggerDefending TriggerKind = "DEFENDING"
	// TriggerUnitEnters fires when a unit enters play under the
	// controller's control.
	TriggerUnitEnters TriggerKind = "UNIT_ENTERS"
	// TriggerTurnEnd fires during the controller's ending phase.
	TriggerTurnEnd TriggerKind = "TURN_END"
	// TriggerNextDeath arms a one-shot delayed trigger when the clause
	// resolves: it fires on the next friendly unit death this turn.
	TriggerNextDeath TriggerKind = "NEXT_DEATH"
	// TriggerActivated marks abilities the player activates explicitly.
	TriggerActivated TriggerKind = "ACTIVATED"
	// TriggerStatic marks continuous aura clauses consulted by stat
	// computation, never queued on the chain.
	TriggerStatic TriggerKind = "STATIC"
	// TriggerEnterReady marks conditional "enters ready" clauses evaluated
	// as the source enters play.
	TriggerEnterReady TriggerKind = "ENTER_READY"
)

// Timing gates when an ability can be put on the chain.
type Timing string

const (
	// TimingAction requires an open window and priority.
	TimingAction Timing = "ACTION"
	// TimingReaction may answer an existing chain entry or combat.
	TimingReaction Timing = "REACTION"
)

// Support is the diagnostics status of a compiled clause.
type Support string

const (
	SupportFull        Support = "SUPPORTED"
	SupportPartial     Support = "PARTIAL"
	SupportUnsupported Support = "UNSUPPORTED"
	SupportNoText      Support = "NO_TEXT"
)

// CondKind identifies a clause gating condition.
type CondKind string

const (
	// CondControlTag requires controlling at least Amount other instances
	// with the given tag (entry-ready style conditions).
	CondControlTag CondKind = "CONTROL_TAG"
	// CondAlone requires the source to be the controller's only unit at
	// its battlefield.
	CondAlone CondKind = "ALONE"
	// CondMighty requires the source's effective might to be at least
	// Amount.
	CondMighty CondKind = "MIGHTY"
	// CondUnitsDied requires any unit to have died this turn.
	CondUnitsDied CondKind = "UNITS_DIED"
	// CondConquered requires the controller to have conquered a
	// battlefield this turn.
	CondConquered CondKind = "CONQUERED"
	// CondDrewCards requires the controller to have drawn at least
	// Amount cards this turn.
	CondDrewCards CondKind = "DREW_CARDS"
	// CondLegion requires the controller to have played another card this
	// turn.
	CondLegion CondKind = "LEGION"
)

// Condition gates a clause on board state, evaluated at fire time.
type Condition struct {
	Kind   CondKind
	Tag    string
	Amount int
}

// Cost is an additional cost attached to an activated clause, validated
// and paid before the ability goes on the chain.
type Cost struct {
	Energy      int
	DiscardN    int
	KillSelf    bool
	SpendBuffs  int
	ExhaustSelf bool
}

// IsFree reports whether no additional cost is attached.
func (c Cost) IsFree() bool {
	return c.Energy == 0 && c.DiscardN == 0 && !c.KillSelf && c.SpendBuffs == 0 && !c.ExhaustSelf
}

// Clause is one compiled ability clause of a card definition: a trigger
// condition plus an ordered operation sequence. Clauses are immutable
// after catalog load.
type Clause struct {
	Text      string
	Trigger   TriggerKind
	Timing    Timing
	Condition *Condition
	Extra     Cost
	Ops       []Op
	Support   Support
}

// NeedsTargets reports whether any op in the clause requires mandatory
// target selection.
func (c *Clause) NeedsTargets() bool {
	for _, op := range c.Ops {
		if op.NeedsTargets() {
			return true
		}
	}
	return false
}

// IsReactable reports whether the clause resolves via the chain. Pure
// resource gains apply immediately and cannot be reacted to.
func (c *Clause) IsReactable() bool {
	for _, op := range c.Ops {
		switch op.Kind {
		case OpGainEnergy, OpGainPower, OpChannelRune:
			continue
		case OpNothing:
			continue
		default:
			return true
		}
	}
	return false
}
