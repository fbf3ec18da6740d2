package effects

import (
	"github.com/riftforge/rift-server-go/internal/game/runes"
	"github.com/riftforge/rift-server-go/internal/game/targeting"
)

// OpKind identifies one of the closed set of effect operations.
// The resolver switches exhaustively over these; unrecognized rules text
// compiles to OpNothing so resolution degrades to a no-op instead of
// corrupting state.
type OpKind string

const (
	OpDraw         OpKind = "DRAW"
	OpDamage       OpKind = "DAMAGE"
	OpBuff         OpKind = "BUFF"          // temporary or permanent might change
	OpGrantKeyword OpKind = "GRANT_KEYWORD" // until end of turn
	OpKill         OpKind = "KILL"
	OpMove         OpKind = "MOVE"
	OpReady        OpKind = "READY"
	OpExhaust      OpKind = "EXHAUST"
	OpGainEnergy   OpKind = "GAIN_ENERGY"
	OpGainPower    OpKind = "GAIN_POWER"
	OpScore        OpKind = "SCORE"
	OpDiscard      OpKind = "DISCARD"
	OpRecycle      OpKind = "RECYCLE"
	OpChannelRune  OpKind = "CHANNEL_RUNE"
	OpNothing      OpKind = "NOTHING"
)

// Duration scopes how long a buff or granted keyword lasts.
type Duration string

const (
	DurationEndOfTurn   Duration = "END_OF_TURN"
	DurationEndOfCombat Duration = "END_OF_COMBAT"
	DurationPermanent   Duration = "PERMANENT"
)

// Op is a single executable effect operation.
type Op struct {
	Kind OpKind
	// Amount carries the operation's magnitude (cards drawn, damage dealt,
	// might delta, points scored).
	Amount int
	// Domain qualifies OpGainPower.
	Domain runes.Domain
	// Keyword qualifies OpGrantKeyword.
	Keyword string
	// Target, when non-nil, requires a selection before the op can apply.
	// Self-directed ops leave it nil.
	Target   *targeting.Spec
	Duration Duration
	// EachPlayer applies the op once per player (each-player choices and
	// symmetric draws).
	EachPlayer bool
	// Optional marks "you may" operations; resolution suspends on a
	// pending choice before applying.
	Optional bool
	// MoveToBase directs OpMove toward the owner's base rather than a
	// chosen battlefield.
	MoveToBase bool
	// Text preserves the clause fragment the op was compiled from,
	// for diagnostics and logging.
	Text string
}

// NeedsTargets reports whether the op requires target selection with at
// least one mandatory pick.
func (o Op) NeedsTargets() bool {
	return o.Target != nil && !o.Target.Optional && o.Target.MinTargets > 0
}
