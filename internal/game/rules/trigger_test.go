package rules

import "testing"

func buildEntry(id string) func(Event) ChainEntry {
	return func(Event) ChainEntry {
		return ChainEntry{ID: id, Kind: EntryTriggered}
	}
}

func TestTriggerManagerOrdersActivePlayerFirst(t *testing.T) {
	tm := NewTriggerManager()
	tm.Register(Trigger{
		ID: "t-bob", SourceID: "u1", Controller: "bob", SourceOrder: 1,
		EventType: EventUnitDied, Build: buildEntry("bob-entry"),
	})
	tm.Register(Trigger{
		ID: "t-alice", SourceID: "u2", Controller: "alice", SourceOrder: 2,
		EventType: EventUnitDied, Build: buildEntry("alice-entry"),
	})

	entries := tm.Handle(NewEvent(EventUnitDied), "alice")
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != "alice-entry" || entries[1].ID != "bob-entry" {
		t.Fatalf("active player not first: %s, %s", entries[0].ID, entries[1].ID)
	}
}

func TestTriggerManagerOrdersBySourceThenClause(t *testing.T) {
	tm := NewTriggerManager()
	tm.Register(Trigger{
		ID: "b", SourceID: "late", Controller: "alice", SourceOrder: 5, ClauseIndex: 0,
		EventType: EventCardPlayed, Build: buildEntry("late-0"),
	})
	tm.Register(Trigger{
		ID: "c", SourceID: "early", Controller: "alice", SourceOrder: 2, ClauseIndex: 1,
		EventType: EventCardPlayed, Build: buildEntry("early-1"),
	})
	tm.Register(Trigger{
		ID: "a", SourceID: "early", Controller: "alice", SourceOrder: 2, ClauseIndex: 0,
		EventType: EventCardPlayed, Build: buildEntry("early-0"),
	})

	want := []string{"early-0", "early-1", "late-0"}
	for run := 0; run < 10; run++ {
		entries := tm.Handle(NewEvent(EventCardPlayed), "alice")
		if len(entries) != len(want) {
			t.Fatalf("run %d: expected %d entries, got %d", run, len(want), len(entries))
		}
		for i, w := range want {
			if entries[i].ID != w {
				t.Fatalf("run %d: position %d: expected %s, got %s", run, i, w, entries[i].ID)
			}
		}
	}
}

func TestTriggerManagerCondition(t *testing.T) {
	tm := NewTriggerManager()
	tm.Register(Trigger{
		ID: "cond", SourceID: "u1", Controller: "alice",
		EventType: EventDamageDealt,
		Condition: func(e Event) bool { return e.Amount >= 3 },
		Build:     buildEntry("big-hit"),
	})

	small := NewEvent(EventDamageDealt)
	small.Amount = 1
	if entries := tm.Handle(small, "alice"); len(entries) != 0 {
		t.Fatalf("condition should block firing, got %d entries", len(entries))
	}

	big := NewEvent(EventDamageDealt)
	big.Amount = 3
	if entries := tm.Handle(big, "alice"); len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func TestTriggerManagerOnceAndUnregisterSource(t *testing.T) {
	tm := NewTriggerManager()
	tm.Register(Trigger{
		ID: "once", SourceID: "u1", Controller: "alice",
		EventType: EventConquer, Once: true, Build: buildEntry("one-shot"),
	})
	tm.Register(Trigger{
		ID: "persistent", SourceID: "u2", Controller: "alice", SourceOrder: 1,
		EventType: EventConquer, Build: buildEntry("repeat"),
	})

	if entries := tm.Handle(NewEvent(EventConquer), "alice"); len(entries) != 2 {
		t.Fatalf("first fire: expected 2, got %d", len(entries))
	}
	if entries := tm.Handle(NewEvent(EventConquer), "alice"); len(entries) != 1 {
		t.Fatalf("once trigger refired: got %d entries", len(entries))
	}

	tm.UnregisterSource("u2")
	if entries := tm.Handle(NewEvent(EventConquer), "alice"); len(entries) != 0 {
		t.Fatalf("expected no entries after source unregistered, got %d", len(entries))
	}
}
