package diagnostics

import "testing"

func TestSuggestedParallelism(t *testing.T) {
	tests := []struct {
		threads int
		want    int
	}{
		{1, 2},
		{2, 2},
		{4, 2},
		{8, 4},
		{16, 8},
		{64, 8},
	}
	for _, tt := range tests {
		got := SuggestedParallelism(SystemInfo{CPUThreads: tt.threads})
		if got != tt.want {
			t.Errorf("SuggestedParallelism(%d threads) = %d, want %d", tt.threads, got, tt.want)
		}
	}
}

func TestSuggestedParallelism_ZeroThreadsFallsBack(t *testing.T) {
	got := SuggestedParallelism(SystemInfo{})
	if got < 2 || got > 8 {
		t.Errorf("SuggestedParallelism() = %d, want within [2, 8]", got)
	}
}
