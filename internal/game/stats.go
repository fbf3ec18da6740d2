package game

import (
	"github.com/riftforge/rift-server-go/internal/game/card"
	"github.com/riftforge/rift-server-go/internal/game/counters"
	"github.com/riftforge/rift-server-go/internal/game/effects"
	"github.com/riftforge/rift-server-go/internal/game/targeting"
)

// combatRole qualifies stat computation for role-scoped static buffs.
type combatRole int

const (
	roleNone combatRole = iota
	roleAttacking
	roleDefending
)

// effectiveMight computes a unit's current might: printed value, buff
// counters, temporary modifiers, attached gear, and static auras from
// units sharing its location. Pure with respect to state: it never
// mutates anything, so legality checks and snapshots can call it freely.
func (e *Engine) effectiveMight(ds *duelState, ci *cardInstance, role combatRole) int {
	might := ci.Def.Might
	might += counters.MightBonus(ci.Counters)
	for _, mod := range ci.TempMight {
		might += mod.Amount
	}
	for _, gearID := range ci.AttachedGear {
		if gear, ok := ds.cards[gearID]; ok && gear.Zone == zoneBoard {
			might += gear.Def.Might
		}
	}
	might += e.staticBonus(ds, ci, role)
	if might < 0 {
		might = 0
	}
	return might
}

// staticBonus sums continuous aura contributions affecting the unit.
func (e *Engine) staticBonus(ds *duelState, ci *cardInstance, role combatRole) int {
	bonus := 0
	for _, source := range ds.cards {
		if source.Zone != zoneBoard || source.FaceDown {
			continue
		}
		for _, clause := range source.Def.Clauses {
			if clause.Trigger != effects.TriggerStatic {
				continue
			}
			for _, op := range clause.Ops {
				if op.Kind != effects.OpBuff {
					continue
				}
				if op.Target == nil {
					// Role-scoped self buff ("+N while attacking").
					if source.ID != ci.ID {
						continue
					}
					if matchesRole(op.Keyword, role) {
						bonus += op.Amount
					}
					continue
				}
				if auraApplies(source, ci, op.Target) {
					bonus += op.Amount
				}
			}
		}
	}
	return bonus
}

func matchesRole(keyword string, role combatRole) bool {
	switch keyword {
	case string(effects.TriggerAttacking):
		return role == roleAttacking
	case string(effects.TriggerDefending):
		return role == roleDefending
	default:
		return false
	}
}

// auraApplies reports whether a static aura op on source covers the
// candidate unit.
func auraApplies(source, candidate *cardInstance, spec *targeting.Spec) bool {
	if spec.Kind != targeting.KindUnit || candidate.Def.Type != card.TypeUnit {
		return false
	}
	if spec.ExcludeSource && source.ID == candidate.ID {
		return false
	}
	if spec.SameBattlefield && source.BattlefieldID != candidate.BattlefieldID {
		return false
	}
	switch spec.Controller {
	case targeting.ControllerSelf:
		if source.ControllerID != candidate.ControllerID {
			return false
		}
	case targeting.ControllerOpponent:
		if source.ControllerID == candidate.ControllerID {
			return false
		}
	}
	if spec.Tag != "" && !candidate.Def.HasTag(spec.Tag) {
		return false
	}
	return true
}
