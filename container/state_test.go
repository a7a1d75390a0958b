package container

import "testing"

func TestValidTransitionTable(t *testing.T) {
	cases := []struct {
		from, to ProcessingState
		want     bool
	}{
		{Idle, Ready, true},
		{Idle, Processing, false},
		{Ready, Processing, true},
		{Ready, Idle, true},
		{Processing, Processed, true},
		{Processing, Error, true},
		{Processing, Ready, false},
		{Processed, Ready, true},
		{Processed, Processing, true},
		{Error, Ready, true},
		{Error, Processing, false},
		{Idle, NeedsRemoval, true},
		{Processing, NeedsRemoval, true},
	}
	for _, c := range cases {
		got := validTransition(c.from, c.to)
		if got != c.want {
			t.Errorf("validTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestUpdateProcessingStateRejectsIllegalTransition(t *testing.T) {
	sm := newStateMachine()
	if err := sm.UpdateProcessingState(Processing); err == nil {
		t.Fatal("expected StateError for IDLE -> PROCESSING")
	}
	if sm.GetProcessingState() != Idle {
		t.Fatal("state must not change on a rejected transition")
	}
}

func TestStateChangeCallbackFiresAfterTransition(t *testing.T) {
	sm := newStateMachine()
	var seenOld, seenNew ProcessingState
	fired := false
	sm.RegisterStateChangeCallback(func(old, new ProcessingState) {
		fired = true
		seenOld, seenNew = old, new
	})
	if err := sm.UpdateProcessingState(Ready); err != nil {
		t.Fatalf("UpdateProcessingState: %v", err)
	}
	if !fired {
		t.Fatal("expected callback to fire")
	}
	if seenOld != Idle || seenNew != Ready {
		t.Fatalf("callback saw (%s, %s), want (IDLE, READY)", seenOld, seenNew)
	}
	if sm.GetProcessingState() != Ready {
		t.Fatal("state should already be READY by the time the callback fires")
	}
}

func TestUnregisterStateChangeCallback(t *testing.T) {
	sm := newStateMachine()
	calls := 0
	id := sm.RegisterStateChangeCallback(func(old, new ProcessingState) { calls++ })
	sm.UnregisterStateChangeCallback(id)
	_ = sm.UpdateProcessingState(Ready)
	if calls != 0 {
		t.Fatalf("callback fired %d times after unregister, want 0", calls)
	}
}
