package core

import (
	"math"
	"testing"
)

func TestParseStrategy(t *testing.T) {
	for _, s := range []string{"sequential", "parallel", "dependency-driven", "adaptive"} {
		got, err := ParseStrategy(s)
		if err != nil {
			t.Errorf("ParseStrategy(%s) error = %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStrategy(%s) = %s", s, got)
		}
	}
	if _, err := ParseStrategy("greedy"); err == nil {
		t.Error("ParseStrategy() should reject unknown strategies")
	}
}

func TestRiskAssessment_ComputeScore(t *testing.T) {
	tests := []struct {
		risk RiskAssessment
		want float64
	}{
		{RiskAssessment{}, 0},
		{RiskAssessment{LongExecution: true}, 0.4},
		{RiskAssessment{HighParallelism: true}, 0.3},
		{RiskAssessment{CriticalPath: true}, 0.2},
		{RiskAssessment{ResourceContention: true}, 0.1},
		{RiskAssessment{LongExecution: true, HighParallelism: true, CriticalPath: true, ResourceContention: true}, 1.0},
	}
	for _, tt := range tests {
		tt.risk.ComputeScore()
		if math.Abs(tt.risk.Score-tt.want) > 1e-9 {
			t.Errorf("ComputeScore() with %+v = %f, want %f", tt.risk, tt.risk.Score, tt.want)
		}
	}
}

func TestExecutionPlan_Order(t *testing.T) {
	p := &ExecutionPlan{
		Layers: [][]AnalystID{{"a", "c"}, {"b"}},
	}
	order := p.Order()
	want := []AnalystID{"a", "c", "b"}
	if len(order) != len(want) {
		t.Fatalf("Order() = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Order()[%d] = %s, want %s", i, order[i], want[i])
		}
	}
	if p.AnalystCount() != 3 {
		t.Errorf("AnalystCount() = %d, want 3", p.AnalystCount())
	}
}
