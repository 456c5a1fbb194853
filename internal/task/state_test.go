package task

import "testing"

func TestStateCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateQueued, StateRunning, true},
		{StateQueued, StateSucceeded, true},
		{StateQueued, StateCancelled, true},
		{StateRunning, StateFailed, true},
		{StateRunning, StateQueued, false},
		{StateRunning, StateRunning, false},
		{StateSucceeded, StateFailed, false},
		{StateCancelled, StateRunning, false},
		{StateFailed, StateFailed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	if got := State("").String(); got != "unknown" {
		t.Errorf("empty state = %q, want unknown", got)
	}
	if got := StateRunning.String(); got != "running" {
		t.Errorf("running = %q", got)
	}
	if !StateCancelled.IsTerminal() || StateRunning.IsTerminal() {
		t.Error("IsTerminal mismatch")
	}
}
