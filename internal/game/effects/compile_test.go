package effects

import (
	"testing"

	"github.com/riftforge/rift-server-go/internal/game/runes"
	"github.com/riftforge/rift-server-go/internal/game/targeting"
)

func TestCompilePlayedDraw(t *testing.T) {
	clause := Compile("When I'm played, draw a card.")
	if clause.Trigger != TriggerPlayed {
		t.Fatalf("expected PLAYED trigger, got %s", clause.Trigger)
	}
	if clause.Support != SupportFull {
		t.Fatalf("expected full support, got %s", clause.Support)
	}
	if len(clause.Ops) != 1 || clause.Ops[0].Kind != OpDraw || clause.Ops[0].Amount != 1 {
		t.Fatalf("expected draw 1, got %+v", clause.Ops)
	}
}

func TestCompileDeathknellDamage(t *testing.T) {
	clause := Compile("Deathknell: deal 2 damage to an enemy unit.")
	if clause.Trigger != TriggerDeathknell {
		t.Fatalf("expected DEATHKNELL trigger, got %s", clause.Trigger)
	}
	op := clause.Ops[0]
	if op.Kind != OpDamage || op.Amount != 2 {
		t.Fatalf("expected damage 2, got %+v", op)
	}
	if op.Target == nil || op.Target.Kind != targeting.KindUnit || op.Target.Controller != targeting.ControllerOpponent {
		t.Fatalf("expected enemy unit target, got %+v", op.Target)
	}
	if !op.NeedsTargets() {
		t.Error("expected mandatory target")
	}
}

func TestCompileMultipleOps(t *testing.T) {
	clause := Compile("When you conquer, draw a card, then gain 1 energy.")
	if clause.Trigger != TriggerConquer {
		t.Fatalf("expected CONQUER trigger, got %s", clause.Trigger)
	}
	if len(clause.Ops) != 2 {
		t.Fatalf("expected 2 ops, got %d", len(clause.Ops))
	}
	if clause.Ops[0].Kind != OpDraw || clause.Ops[1].Kind != OpGainEnergy {
		t.Fatalf("unexpected op order: %+v", clause.Ops)
	}
	if clause.Support != SupportFull {
		t.Errorf("expected full support, got %s", clause.Support)
	}
}

func TestCompileOptionalEffect(t *testing.T) {
	clause := Compile("When I'm played, you may draw a card.")
	if !clause.Ops[0].Optional {
		t.Error("expected optional op for 'you may'")
	}
}

func TestCompileEachPlayer(t *testing.T) {
	clause := Compile("When I'm played, each player draws 1.")
	op := clause.Ops[0]
	if op.Kind != OpDraw || !op.EachPlayer {
		t.Fatalf("expected each-player draw, got %+v", op)
	}
}

func TestCompileEnterReadyCondition(t *testing.T) {
	clause := Compile("I enter play ready if you control another dragon.")
	if clause.Trigger != TriggerEnterReady {
		t.Fatalf("expected ENTER_READY trigger, got %s", clause.Trigger)
	}
	if clause.Condition == nil || clause.Condition.Kind != CondControlTag || clause.Condition.Tag != "dragon" {
		t.Fatalf("expected control-tag condition, got %+v", clause.Condition)
	}
}

func TestCompileStaticAura(t *testing.T) {
	clause := Compile("Friendly units here have +1 might.")
	if clause.Trigger != TriggerStatic {
		t.Fatalf("expected STATIC trigger, got %s", clause.Trigger)
	}
	op := clause.Ops[0]
	if op.Kind != OpBuff || op.Amount != 1 {
		t.Fatalf("expected +1 buff, got %+v", op)
	}
	if op.Target == nil || !op.Target.SameBattlefield {
		t.Fatalf("expected same-battlefield scope, got %+v", op.Target)
	}
}

func TestCompileRoleSensitiveStatic(t *testing.T) {
	clause := Compile("I have +2 might while attacking.")
	if clause.Trigger != TriggerStatic {
		t.Fatalf("expected STATIC trigger, got %s", clause.Trigger)
	}
	if clause.Ops[0].Amount != 2 || clause.Ops[0].Keyword != string(TriggerAttacking) {
		t.Fatalf("expected attacking-scoped +2, got %+v", clause.Ops[0])
	}
}

func TestCompileActivatedWithCosts(t *testing.T) {
	clause := Compile("Exhaust me, pay {2}: deal 1 damage to an enemy unit here.")
	if clause.Trigger != TriggerActivated {
		t.Fatalf("expected ACTIVATED trigger, got %s", clause.Trigger)
	}
	if !clause.Extra.ExhaustSelf || clause.Extra.Energy != 2 {
		t.Fatalf("expected exhaust+2 cost, got %+v", clause.Extra)
	}
	if clause.Ops[0].Target == nil || !clause.Ops[0].Target.SameBattlefield {
		t.Fatalf("expected 'here' scope, got %+v", clause.Ops[0].Target)
	}
}

func TestCompileKillSelfCost(t *testing.T) {
	clause := Compile("Kill me: give a friendly unit +2 might this turn.")
	if !clause.Extra.KillSelf {
		t.Fatalf("expected kill-self cost, got %+v", clause.Extra)
	}
	if clause.Ops[0].Kind != OpBuff || clause.Ops[0].Duration != DurationEndOfTurn {
		t.Fatalf("expected temporary buff, got %+v", clause.Ops[0])
	}
}

func TestCompileConditionPrefixes(t *testing.T) {
	clause := Compile("[Alone] When I attack, draw a card.")
	if clause.Condition == nil || clause.Condition.Kind != CondAlone {
		t.Fatalf("expected alone condition, got %+v", clause.Condition)
	}
	if clause.Trigger != TriggerAttacking {
		t.Fatalf("expected ATTACKING trigger, got %s", clause.Trigger)
	}

	clause = Compile("[Mighty 5] When I attack, deal 1 damage to an enemy unit here.")
	if clause.Condition == nil || clause.Condition.Kind != CondMighty || clause.Condition.Amount != 5 {
		t.Fatalf("expected mighty 5 condition, got %+v", clause.Condition)
	}
}

func TestCompileGainPower(t *testing.T) {
	clause := Compile("When I'm played, gain 1 fury power.")
	op := clause.Ops[0]
	if op.Kind != OpGainPower || op.Domain != runes.DomainFury {
		t.Fatalf("expected fury power gain, got %+v", op)
	}
	if clause.IsReactable() {
		t.Error("pure resource gain should not be reactable")
	}
}

func TestCompileSpellBodyWithoutTrigger(t *testing.T) {
	clause := Compile("Deal 3 damage to an enemy unit.")
	if clause.Trigger != TriggerPlayed {
		t.Fatalf("expected spell body to resolve on play, got %s", clause.Trigger)
	}
	if clause.Support != SupportFull {
		t.Errorf("expected full support, got %s", clause.Support)
	}
}

func TestCompileUnsupportedText(t *testing.T) {
	clause := Compile("When I'm played, transmogrify the entire rift.")
	if clause.Support != SupportUnsupported {
		t.Fatalf("expected unsupported, got %s", clause.Support)
	}
	if len(clause.Ops) != 1 || clause.Ops[0].Kind != OpNothing {
		t.Fatalf("expected single no-op, got %+v", clause.Ops)
	}
}

func TestCompilePartialSupport(t *testing.T) {
	clause := Compile("When I'm played, draw a card, then transmogrify the rift.")
	if clause.Support != SupportPartial {
		t.Fatalf("expected partial support, got %s", clause.Support)
	}
	if clause.Ops[0].Kind != OpDraw || clause.Ops[1].Kind != OpNothing {
		t.Fatalf("expected draw then no-op, got %+v", clause.Ops)
	}
}

func TestCompileNoText(t *testing.T) {
	clause := Compile("")
	if clause.Support != SupportNoText {
		t.Fatalf("expected no-text status, got %s", clause.Support)
	}
}

func TestCompileKeywordOnlyLine(t *testing.T) {
	clause := Compile("[Tank] [Ganking]")
	if clause.Support != SupportFull {
		t.Fatalf("expected keyword line fully supported, got %s", clause.Support)
	}
	if len(clause.Ops) != 0 {
		t.Fatalf("expected no ops for keyword line, got %+v", clause.Ops)
	}
}

func TestCompileOpponentDamage(t *testing.T) {
	clause := Compile("Deal 2 damage to your opponent.")
	op := clause.Ops[0]
	if op.Target == nil || op.Target.Kind != targeting.KindPlayer {
		t.Fatalf("expected player target, got %+v", op.Target)
	}
}

func TestCompileNextDeathTrigger(t *testing.T) {
	clause := Compile("This turn, the next time a friendly unit dies, draw two cards.")
	if clause.Trigger != TriggerNextDeath {
		t.Fatalf("expected NEXT_DEATH trigger, got %s", clause.Trigger)
	}
	if len(clause.Ops) != 1 || clause.Ops[0].Kind != OpDraw || clause.Ops[0].Amount != 2 {
		t.Fatalf("expected draw 2, got %+v", clause.Ops)
	}
	if clause.Support != SupportFull {
		t.Errorf("expected full support, got %s", clause.Support)
	}
}

func TestCompileTurnConditions(t *testing.T) {
	cases := []struct {
		text   string
		kind   CondKind
		amount int
	}{
		{"When I'm played, if a unit died this turn, draw a card.", CondUnitsDied, 0},
		{"When I'm played, if you conquered this turn, gain 1 energy.", CondConquered, 0},
		{"If you've drawn two or more cards this turn, deal 1 damage to an enemy unit.", CondDrewCards, 2},
	}
	for _, tc := range cases {
		clause := Compile(tc.text)
		if clause.Condition == nil || clause.Condition.Kind != tc.kind {
			t.Fatalf("%q: expected %s condition, got %+v", tc.text, tc.kind, clause.Condition)
		}
		if clause.Condition.Amount != tc.amount {
			t.Errorf("%q: expected amount %d, got %d", tc.text, tc.amount, clause.Condition.Amount)
		}
		if clause.Support != SupportFull {
			t.Errorf("%q: expected full support, got %s", tc.text, clause.Support)
		}
	}
}
