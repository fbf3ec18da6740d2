package rules

import "testing"

func TestWindowStackBaseNeverPops(t *testing.T) {
	ws := NewWindowStack()
	if ws.Depth() != 1 {
		t.Fatalf("expected depth 1, got %d", ws.Depth())
	}
	if ws.Current().Kind != WindowOpen {
		t.Fatalf("expected base OPEN window, got %s", ws.Current().Kind)
	}
	if _, err := ws.Pop(); err == nil {
		t.Error("expected error popping the base window")
	}
}

func TestWindowStackNesting(t *testing.T) {
	ws := NewWindowStack()
	if err := ws.Push(Window{Kind: WindowClosed, Initiator: "alice"}); err != nil {
		t.Fatalf("push CLOSED: %v", err)
	}
	if err := ws.Push(Window{Kind: WindowShowdown, BattlefieldID: "bf-1", Initiator: "alice"}); err != nil {
		t.Fatalf("push SHOWDOWN: %v", err)
	}
	if !ws.InShowdown() {
		t.Error("expected InShowdown")
	}
	if err := ws.Push(Window{Kind: WindowCombat, BattlefieldID: "bf-1"}); err != nil {
		t.Fatalf("push COMBAT: %v", err)
	}
	if ws.Current().Kind != WindowCombat {
		t.Fatalf("expected COMBAT on top, got %s", ws.Current().Kind)
	}

	w, err := ws.Pop()
	if err != nil || w.Kind != WindowCombat {
		t.Fatalf("pop combat: %v %s", err, w.Kind)
	}
	w, err = ws.Pop()
	if err != nil || w.Kind != WindowShowdown {
		t.Fatalf("pop showdown: %v %s", err, w.Kind)
	}
	if ws.InShowdown() {
		t.Error("InShowdown after SHOWDOWN popped")
	}
}

func TestWindowStackCombatRequiresShowdown(t *testing.T) {
	ws := NewWindowStack()
	if err := ws.Push(Window{Kind: WindowCombat}); err == nil {
		t.Error("expected error pushing COMBAT without SHOWDOWN")
	}
}

func TestWindowStackReset(t *testing.T) {
	ws := NewWindowStack()
	ws.Push(Window{Kind: WindowShowdown, BattlefieldID: "bf-2"})
	ws.Push(Window{Kind: WindowCombat, BattlefieldID: "bf-2"})
	ws.Reset()
	if ws.Depth() != 1 || ws.Current().Kind != WindowOpen {
		t.Fatalf("reset left %d windows, top %s", ws.Depth(), ws.Current().Kind)
	}
}
