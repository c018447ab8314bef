package stats

import (
	"errors"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/scenario"
	apperrors "github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/errors"
)

func testScenario(split string, numInstances int) scenario.Scenario {
	instances := make([]scenario.Instance, numInstances)
	for i := range instances {
		instances[i] = scenario.Instance{Input: "input", References: []string{"ref"}}
	}
	return scenario.Scenario{
		Key:       scenario.Key{Split: split, Spec: &scenario.Spec{ClassName: "TestScenario"}},
		Instances: instances,
	}
}

func TestAllocateAssignsDenseSlots(t *testing.T) {
	reg := NewRegistry()
	scA := testScenario("a", 3)
	scB := testScenario("b", 2)

	for i, alloc := range []struct {
		sc scenario.Scenario
		n  int
	}{{scA, 5}, {scA, 13}, {scB, 5}} {
		slot, err := reg.Allocate(alloc.sc, alloc.n)
		if err != nil {
			t.Fatalf("Allocate #%d: %v", i, err)
		}
		if slot != i {
			t.Errorf("Allocate #%d slot = %d, want %d", i, slot, i)
		}
	}

	if len(reg.Records()) != 3 {
		t.Errorf("got %d records, want 3", len(reg.Records()))
	}
	key := Key{Scenario: scA.Key.Fingerprint(), N: 13}
	slot, ok := reg.Slot(key)
	if !ok || slot != 1 {
		t.Errorf("Slot(%v) = %d, %v; want 1, true", key, slot, ok)
	}
	if got := reg.Record(2).NumInstances; got != 2 {
		t.Errorf("record 2 NumInstances = %d, want 2", got)
	}
}

func TestAllocateRejectsDuplicateKey(t *testing.T) {
	reg := NewRegistry()
	sc := testScenario("test", 1)
	if _, err := reg.Allocate(sc, 5); err != nil {
		t.Fatalf("first Allocate: %v", err)
	}
	if _, err := reg.Allocate(sc, 5); !errors.Is(err, apperrors.ErrDuplicateStatsKey) {
		t.Errorf("duplicate Allocate error = %v, want ErrDuplicateStatsKey", err)
	}
	// Same scenario with a different n is a distinct record.
	if _, err := reg.Allocate(sc, 9); err != nil {
		t.Errorf("Allocate with different n: %v", err)
	}
}

func TestMarkIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	slot, _ := reg.Allocate(testScenario("test", 4), 5)

	e := Entry{Slot: slot, Part: PartInput, Instance: 2}
	for i := 0; i < 3; i++ {
		reg.Mark(e)
	}
	rec := reg.Record(slot)
	if got := rec.InputOverlaps(); got != 1 {
		t.Errorf("InputOverlaps = %d after repeated marks, want 1", got)
	}
	if !rec.InputOverlapped(2) {
		t.Error("instance 2 input bit not set")
	}
	if rec.InputOverlapped(0) {
		t.Error("instance 0 input bit set unexpectedly")
	}
	if got := rec.ReferenceOverlaps(); got != 0 {
		t.Errorf("ReferenceOverlaps = %d, want 0", got)
	}
}

func TestMarkSeparatesParts(t *testing.T) {
	reg := NewRegistry()
	slot, _ := reg.Allocate(testScenario("test", 2), 5)

	reg.Mark(Entry{Slot: slot, Part: PartInput, Instance: 0})
	reg.Mark(Entry{Slot: slot, Part: PartReference, Instance: 0})
	reg.Mark(Entry{Slot: slot, Part: PartReference, Instance: 1})

	rec := reg.Record(slot)
	if got := rec.InputOverlaps(); got != 1 {
		t.Errorf("InputOverlaps = %d, want 1", got)
	}
	if got := rec.ReferenceOverlaps(); got != 2 {
		t.Errorf("ReferenceOverlaps = %d, want 2", got)
	}
}

func TestCloneEmptyAndMerge(t *testing.T) {
	reg := NewRegistry()
	slot, _ := reg.Allocate(testScenario("test", 8), 5)
	reg.Mark(Entry{Slot: slot, Part: PartInput, Instance: 0})

	deltaA := reg.CloneEmpty()
	deltaB := reg.CloneEmpty()
	if got := deltaA.Record(slot).InputOverlaps(); got != 0 {
		t.Fatalf("clone has %d input bits set, want 0", got)
	}

	deltaA.Mark(Entry{Slot: slot, Part: PartInput, Instance: 1})
	deltaA.Mark(Entry{Slot: slot, Part: PartReference, Instance: 3})
	deltaB.Mark(Entry{Slot: slot, Part: PartInput, Instance: 1}) // overlaps deltaA
	deltaB.Mark(Entry{Slot: slot, Part: PartInput, Instance: 5})

	reg.Merge(deltaA)
	reg.Merge(deltaB)

	rec := reg.Record(slot)
	if got := rec.InputOverlaps(); got != 3 {
		t.Errorf("merged InputOverlaps = %d, want 3 (instances 0,1,5)", got)
	}
	if got := rec.ReferenceOverlaps(); got != 1 {
		t.Errorf("merged ReferenceOverlaps = %d, want 1", got)
	}
}

func TestSummariesSnapshot(t *testing.T) {
	reg := NewRegistry()
	sc := testScenario("test", 3)
	slot, _ := reg.Allocate(sc, 5)
	reg.Mark(Entry{Slot: slot, Part: PartInput, Instance: 0})

	summaries := reg.Summaries([]string{"run_a"})
	if len(summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(summaries))
	}
	s := summaries[0]
	if s.N != 5 || s.NumInstances != 3 {
		t.Errorf("summary = n:%d instances:%d, want n:5 instances:3", s.N, s.NumInstances)
	}
	if s.NumOverlappingInputs != 1 || s.NumOverlappingReferences != 0 {
		t.Errorf("summary overlaps = %d/%d, want 1/0", s.NumOverlappingInputs, s.NumOverlappingReferences)
	}
	if len(s.Tags) != 1 || s.Tags[0] != "run_a" {
		t.Errorf("summary tags = %v", s.Tags)
	}
	if s.ScenarioFingerprint != sc.Key.Fingerprint() {
		t.Errorf("summary fingerprint = %q", s.ScenarioFingerprint)
	}
	if s.Scenario["split"] != "test" {
		t.Errorf("summary scenario metadata = %v", s.Scenario)
	}

	// Later marks must not change the snapshot.
	reg.Mark(Entry{Slot: slot, Part: PartInput, Instance: 1})
	if s.NumOverlappingInputs != 1 {
		t.Errorf("snapshot mutated by later mark: %d", s.NumOverlappingInputs)
	}
}

func TestPartString(t *testing.T) {
	if got := PartInput.String(); got != "input" {
		t.Errorf("PartInput = %q", got)
	}
	if got := PartReference.String(); got != "references" {
		t.Errorf("PartReference = %q", got)
	}
}
