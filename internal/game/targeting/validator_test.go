package targeting

import (
	"strings"
	"testing"
)

type fakeState struct {
	candidates map[string]CandidateInfo
}

func (f *fakeState) FindCandidate(id string) (CandidateInfo, bool) {
	c, ok := f.candidates[id]
	return c, ok
}

func (f *fakeState) IsOpponent(player, other string) bool {
	return player != other && other != ""
}

func newFakeState() *fakeState {
	return &fakeState{candidates: map[string]CandidateInfo{
		"u1": {ID: "u1", Kind: KindUnit, Zone: ZoneBoard, ControllerID: "alice", Tags: []string{"dragon"}, BattlefieldID: "bf1"},
		"u2": {ID: "u2", Kind: KindUnit, Zone: ZoneBoard, ControllerID: "bob", BattlefieldID: "bf2"},
		"g1": {ID: "g1", Kind: KindGear, Zone: ZoneBoard, ControllerID: "alice"},
		"h1": {ID: "h1", Kind: KindUnit, Zone: ZoneBoard, ControllerID: "bob", BattlefieldID: "bf1", FaceDown: true},
	}}
}

func TestValidateTargetKindMismatch(t *testing.T) {
	v := NewValidator(newFakeState())
	spec := Single(KindUnit, ControllerAny, "a unit")
	if err := v.ValidateTarget("g1", "alice", "", "", spec); err == nil {
		t.Error("expected kind mismatch error")
	}
}

func TestValidateTargetControllerConstraints(t *testing.T) {
	v := NewValidator(newFakeState())

	own := Single(KindUnit, ControllerSelf, "a friendly unit")
	if err := v.ValidateTarget("u1", "alice", "", "", own); err != nil {
		t.Errorf("expected u1 legal for alice: %v", err)
	}
	if err := v.ValidateTarget("u2", "alice", "", "", own); err == nil {
		t.Error("expected u2 illegal as friendly target for alice")
	}

	enemy := Single(KindUnit, ControllerOpponent, "an enemy unit")
	if err := v.ValidateTarget("u2", "alice", "", "", enemy); err != nil {
		t.Errorf("expected u2 legal as enemy target: %v", err)
	}
}

func TestValidateTargetExcludeSource(t *testing.T) {
	v := NewValidator(newFakeState())
	spec := Single(KindUnit, ControllerSelf, "another friendly unit")
	spec.ExcludeSource = true
	if err := v.ValidateTarget("u1", "alice", "u1", "", spec); err == nil {
		t.Error("expected source to be excluded")
	}
}

func TestValidateTargetSameBattlefield(t *testing.T) {
	v := NewValidator(newFakeState())
	spec := Single(KindUnit, ControllerOpponent, "an enemy unit here")
	spec.SameBattlefield = true
	if err := v.ValidateTarget("u2", "alice", "u1", "bf1", spec); err == nil {
		t.Error("expected unit at other battlefield rejected")
	}
}

func TestValidateTargetFaceDown(t *testing.T) {
	v := NewValidator(newFakeState())
	spec := Single(KindUnit, ControllerAny, "a unit")
	err := v.ValidateTarget("h1", "alice", "", "", spec)
	if err == nil || !strings.Contains(err.Error(), "facedown") {
		t.Errorf("expected facedown rejection, got %v", err)
	}
}

func TestValidateTargetTag(t *testing.T) {
	v := NewValidator(newFakeState())
	spec := Single(KindUnit, ControllerAny, "a dragon")
	spec.Tag = "dragon"
	if err := v.ValidateTarget("u1", "alice", "", "", spec); err != nil {
		t.Errorf("expected dragon target legal: %v", err)
	}
	if err := v.ValidateTarget("u2", "alice", "", "", spec); err == nil {
		t.Error("expected untagged unit rejected")
	}
}

func TestValidateSelectionCountsAndDuplicates(t *testing.T) {
	v := NewValidator(newFakeState())
	spec := Spec{Kind: KindUnit, Zone: ZoneAny, Controller: ControllerAny, MinTargets: 1, MaxTargets: 2}

	sel := &Selection{Targets: []string{"u1", "u1"}, Spec: spec}
	if err := v.ValidateSelection(sel, "alice", "", ""); err == nil {
		t.Error("expected duplicate rejection")
	}

	sel = &Selection{Targets: []string{}, Spec: spec}
	if err := v.ValidateSelection(sel, "alice", "", ""); err == nil {
		t.Error("expected count rejection for empty mandatory selection")
	}

	optional := spec
	optional.Optional = true
	sel = &Selection{Targets: []string{}, Spec: optional}
	if err := v.ValidateSelection(sel, "alice", "", ""); err != nil {
		t.Errorf("expected empty optional selection legal: %v", err)
	}
}
