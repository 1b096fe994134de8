package provenance

import "testing"

func TestMarkAndIsTracked(t *testing.T) {
	tr := NewTracker()
	tr.Mark("edi") // sub-register of rdi
	if !tr.IsTracked("rdi") {
		t.Fatal("rdi should be tracked after marking its 32-bit alias")
	}
	if tr.IsTracked("rsi") {
		t.Fatal("rsi was never marked")
	}
}

func TestPropagateMovesTrackingToDest(t *testing.T) {
	tr := NewTracker()
	tr.Mark("rdi")
	tr.Propagate("rax", "rdi")
	if !tr.IsTracked("rax") {
		t.Fatal("rax should inherit rdi's tracked source")
	}
}

func TestPropagateFromUntrackedSourceLeavesNothingNew(t *testing.T) {
	tr := NewTracker()
	tr.Mark("rdi")
	tr.Propagate("rdi", "rbx") // rdi overwritten from an untracked source
	if tr.IsTracked("rdi") {
		t.Fatal("rdi was overwritten from an untracked source, should no longer be tracked")
	}
}

func TestClearDropsTracking(t *testing.T) {
	tr := NewTracker()
	tr.Mark("rdi")
	tr.Clear("rdi")
	if tr.IsTracked("rdi") {
		t.Fatal("rdi should no longer be tracked after Clear")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tr := NewTracker()
	tr.Mark("rdi")
	clone := tr.Clone()
	clone.Mark("rsi")

	if tr.IsTracked("rsi") {
		t.Fatal("marking the clone must not affect the original")
	}
	if !clone.IsTracked("rdi") {
		t.Fatal("clone should start with everything the original had")
	}
}

func TestRootsIsSorted(t *testing.T) {
	tr := NewTracker()
	tr.Mark("rsi")
	tr.Mark("rdi")
	tr.Mark("rdx")

	got := tr.Roots()
	want := []string{"rdi", "rdx", "rsi"}
	if len(got) != len(want) {
		t.Fatalf("Roots() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Roots() = %v, want %v", got, want)
		}
	}
}

func TestExplainEmptyWhenNothingTracked(t *testing.T) {
	tr := NewTracker()
	if got := tr.Explain("ZF"); got != "" {
		t.Fatalf("Explain() = %q, want empty string", got)
	}
}

func TestExplainNamesTrackedRoots(t *testing.T) {
	tr := NewTracker()
	tr.Mark("rdi")
	got := tr.Explain("ZF")
	want := "ZF is unknown; traces to rdi"
	if got != want {
		t.Fatalf("Explain() = %q, want %q", got, want)
	}
}
