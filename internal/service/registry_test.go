package service

import (
	"errors"
	"testing"
	"time"

	"github.com/finsight-labs/conclave/internal/core"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	desc := testDescriptor("technical", 5)

	if err := r.Register(desc, fixedAnalyst(core.RecommendationBuy, 0.8)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if !r.Has("technical") {
		t.Error("Has() = false after Register()")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}

	// Duplicate ID rejected, existing registration untouched
	dup := testDescriptor("technical", 9)
	dup.Version = "2.0.0"
	err := r.Register(dup, fixedAnalyst(core.RecommendationSell, 0.1))
	if err == nil {
		t.Fatal("Register() should reject a duplicate ID")
	}
	got, _ := r.Descriptor("technical")
	if got.Version != "1.0.0" {
		t.Errorf("duplicate registration replaced the original: version = %s", got.Version)
	}
}

func TestRegistry_RegisterValidation(t *testing.T) {
	r := NewRegistry()

	bad := testDescriptor("", 1)
	if err := r.Register(bad, fixedAnalyst(core.RecommendationHold, 0.5)); err == nil {
		t.Error("Register() should reject an empty ID")
	}
	if err := r.Register(testDescriptor("a", 1), nil); err == nil {
		t.Error("Register() should reject a nil implementation")
	}
}

func TestRegistry_UpgradePreservesStats(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r, testDescriptor("news", 3))

	r.Stats().RecordRun("news", 25*time.Millisecond, nil)
	r.Stats().RecordRun("news", 35*time.Millisecond, errors.New("feed down"))

	v2 := testDescriptor("news", 3)
	v2.Version = "2.0.0"
	if err := r.Upgrade(v2, fixedAnalyst(core.RecommendationBuy, 0.6)); err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}

	desc, _ := r.Descriptor("news")
	if desc.Version != "2.0.0" {
		t.Errorf("Version = %s after upgrade, want 2.0.0", desc.Version)
	}
	st, ok := r.Stats().Get("news")
	if !ok {
		t.Fatal("Stats().Get() lost the history across an upgrade")
	}
	if st.Invocations != 2 || st.Failures != 1 {
		t.Errorf("stats = %d invocations / %d failures, want 2/1", st.Invocations, st.Failures)
	}

	// Upgrading an unknown ID is rejected
	if err := r.Upgrade(testDescriptor("ghost", 1), fixedAnalyst(core.RecommendationHold, 0.5)); err == nil {
		t.Error("Upgrade() should fail for an unregistered ID")
	}
}

func TestRegistry_Dependents(t *testing.T) {
	r := NewRegistry()
	mustRegister(t, r,
		testDescriptor("base", 1),
		testDescriptor("mid", 2, "base"),
		testDescriptor("top", 3, "base", "mid"),
	)

	deps := r.Dependents("base")
	if len(deps) != 2 || deps[0] != "mid" || deps[1] != "top" {
		t.Errorf("Dependents(base) = %v, want [mid top]", deps)
	}
	if len(r.Dependents("top")) != 0 {
		t.Errorf("Dependents(top) = %v, want none", r.Dependents("top"))
	}

	// Unknown dependency IDs are accepted and stay inert
	if err := r.Register(testDescriptor("edge", 1, "unknown"), fixedAnalyst(core.RecommendationHold, 0.5)); err != nil {
		t.Fatalf("Register() with unknown dependency error = %v", err)
	}
	if got := r.Dependents("unknown"); len(got) != 1 || got[0] != "edge" {
		t.Errorf("Dependents(unknown) = %v, want [edge]", got)
	}
}

func TestRegistry_DescriptorIsolation(t *testing.T) {
	r := NewRegistry()
	orig := testDescriptor("a", 1)
	mustRegister(t, r, orig)

	desc, _ := r.Descriptor("a")
	desc.Priority = 99
	again, _ := r.Descriptor("a")
	if again.Priority != 1 {
		t.Error("Descriptor() must return copies")
	}
}
