package core

import "testing"

func TestPhaseOrder(t *testing.T) {
	phases := AllPhases()
	for i := 1; i < len(phases); i++ {
		if PhaseOrder(phases[i]) <= PhaseOrder(phases[i-1]) {
			t.Errorf("PhaseOrder(%s) = %d, not after %s (%d)",
				phases[i], PhaseOrder(phases[i]), phases[i-1], PhaseOrder(phases[i-1]))
		}
	}
}

func TestNextPhase(t *testing.T) {
	tests := []struct {
		from Phase
		want Phase
	}{
		{PhaseInitialization, PhaseDataCollection},
		{PhaseDataCollection, PhaseParallelAnalysis},
		{PhaseParallelAnalysis, PhaseDebateConsensus},
		{PhaseDebateConsensus, PhaseFinalIntegration},
		{PhaseFinalIntegration, PhaseCompleted},
		{PhaseCompleted, ""},
		{PhaseError, ""},
	}
	for _, tt := range tests {
		if got := NextPhase(tt.from); got != tt.want {
			t.Errorf("NextPhase(%s) = %q, want %q", tt.from, got, tt.want)
		}
	}
}

func TestPhaseIsTerminal(t *testing.T) {
	if !PhaseCompleted.IsTerminal() {
		t.Error("completed should be terminal")
	}
	if !PhaseError.IsTerminal() {
		t.Error("error should be terminal")
	}
	for _, p := range AllPhases() {
		if p.IsTerminal() {
			t.Errorf("%s should not be terminal", p)
		}
	}
}

func TestParsePhase(t *testing.T) {
	p, err := ParsePhase("debate_consensus")
	if err != nil {
		t.Fatalf("ParsePhase() error = %v", err)
	}
	if p != PhaseDebateConsensus {
		t.Errorf("ParsePhase() = %s, want %s", p, PhaseDebateConsensus)
	}

	if _, err := ParsePhase("negotiation"); err == nil {
		t.Error("ParsePhase() should fail for unknown phase")
	}
}
