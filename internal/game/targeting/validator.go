package targeting

import (
	"fmt"
)

// CandidateInfo provides the facts a validator needs about a game object.
type CandidateInfo struct {
	ID            string
	Kind          Kind
	Zone          int
	ControllerID  string
	Tags          []string
	BattlefieldID string
	FaceDown      bool
}

// Accessor provides access to engine state for target validation.
type Accessor interface {
	// FindCandidate finds any targetable object by ID.
	FindCandidate(id string) (CandidateInfo, bool)
	// IsOpponent reports whether other is an opponent of player.
	IsOpponent(player, other string) bool
}

// Validator validates that selected targets are legal for a spec.
type Validator struct {
	state Accessor
}

// NewValidator creates a validator over the given state accessor.
func NewValidator(state Accessor) *Validator {
	return &Validator{state: state}
}

// ValidateTarget checks a single target ID against a spec.
// controllerID is the player choosing the targets; sourceID and
// sourceBattlefield describe the effect's source for Exclude/Here checks.
func (v *Validator) ValidateTarget(targetID, controllerID, sourceID, sourceBattlefield string, spec Spec) error {
	if v == nil || v.state == nil {
		return fmt.Errorf("target validator not initialized")
	}

	cand, found := v.state.FindCandidate(targetID)
	if !found {
		return fmt.Errorf("target %s not found", targetID)
	}
	if cand.Kind != spec.Kind {
		return fmt.Errorf("target %s is %s, requirement is %s", targetID, cand.Kind, spec.Kind)
	}
	if spec.Zone != ZoneAny && cand.Zone != spec.Zone {
		return fmt.Errorf("target %s is not in the required zone", targetID)
	}
	if cand.FaceDown {
		return fmt.Errorf("target %s is facedown and cannot be chosen", targetID)
	}
	if spec.ExcludeSource && cand.ID == sourceID {
		return fmt.Errorf("target %s cannot be the effect's own source", targetID)
	}
	if spec.SameBattlefield && cand.BattlefieldID != sourceBattlefield {
		return fmt.Errorf("target %s is not at the source's battlefield", targetID)
	}

	switch spec.Controller {
	case ControllerSelf:
		if cand.ControllerID != controllerID {
			return fmt.Errorf("target %s is not controlled by %s", targetID, controllerID)
		}
	case ControllerOpponent:
		if !v.state.IsOpponent(controllerID, cand.ControllerID) {
			return fmt.Errorf("target %s is not controlled by an opponent", targetID)
		}
	}

	if spec.Tag != "" && !hasTag(cand.Tags, spec.Tag) {
		return fmt.Errorf("target %s lacks required tag %q", targetID, spec.Tag)
	}

	return nil
}

// ValidateSelection checks a full selection, counts included.
func (v *Validator) ValidateSelection(sel *Selection, controllerID, sourceID, sourceBattlefield string) error {
	if err := sel.Validate(); err != nil {
		return err
	}
	seen := make(map[string]bool, len(sel.Targets))
	for _, id := range sel.Targets {
		if seen[id] {
			return fmt.Errorf("duplicate target %s", id)
		}
		seen[id] = true
		if err := v.ValidateTarget(id, controllerID, sourceID, sourceBattlefield, sel.Spec); err != nil {
			return err
		}
	}
	return nil
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
