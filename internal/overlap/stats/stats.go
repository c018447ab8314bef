// Package stats holds the mutable overlap state of a run: one record per
// (scenario, n) pair with a write-once overlap bit per instance and part,
// plus the optional bounded counter of matched n-gram texts.
//
// The registry is not safe for concurrent writers. Parallel scans give each
// worker a private delta registry and merge by bitwise OR, which is
// associative and commutative, so worker interleaving cannot change the
// final bits.
package stats

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/scenario"
	apperrors "github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/errors"
)

// Part selects which overlap flag of an instance an entry refers to.
type Part uint8

const (
	PartInput Part = iota
	PartReference
)

// String renders the part the way report artifacts spell it. The reference
// part covers all of an instance's references collectively.
func (p Part) String() string {
	if p == PartInput {
		return "input"
	}
	return "references"
}

// Key uniquely identifies one overlap stats record.
type Key struct {
	Scenario string // scenario key fingerprint
	N        int
}

// Entry addresses a single overlap bit: one instance part of one stats
// record. Slot is the record's dense registry index, assigned at allocation,
// so the scan hot path avoids hashing full keys.
type Entry struct {
	Slot     int
	Part     Part
	Instance uint32
}

// Record is the overlap state of one (scenario, n) pair: two bitmaps with
// one bit per instance. Bits are only ever set, never cleared.
type Record struct {
	Key          Key
	ScenarioKey  scenario.Key
	NumInstances int
	input        *roaring.Bitmap
	reference    *roaring.Bitmap
}

// InputOverlaps returns the number of instances whose input overlapped.
func (r *Record) InputOverlaps() uint64 {
	return r.input.GetCardinality()
}

// ReferenceOverlaps returns the number of instances where any reference
// overlapped.
func (r *Record) ReferenceOverlaps() uint64 {
	return r.reference.GetCardinality()
}

// InputOverlapped reports whether the given instance's input bit is set.
func (r *Record) InputOverlapped(instance uint32) bool {
	return r.input.Contains(instance)
}

// ReferenceOverlapped reports whether the given instance's reference bit is
// set.
func (r *Record) ReferenceOverlapped(instance uint32) bool {
	return r.reference.Contains(instance)
}

// Registry is the arena of overlap records, with a key lookup assigning each
// record a dense slot.
type Registry struct {
	slots   map[Key]int
	records []*Record
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[Key]int)}
}

// Allocate creates the record for one (scenario, n) pair and returns its
// slot. Allocating the same key twice means two scenarios share identical
// metadata, which is a benchmark definition bug and fails immediately.
func (g *Registry) Allocate(sc scenario.Scenario, n int) (int, error) {
	key := Key{Scenario: sc.Key.Fingerprint(), N: n}
	if _, exists := g.slots[key]; exists {
		return 0, apperrors.Newf(apperrors.ErrDuplicateStatsKey, "scenario %s with n=%d", key.Scenario, n)
	}
	slot := len(g.records)
	g.slots[key] = slot
	g.records = append(g.records, &Record{
		Key:          key,
		ScenarioKey:  sc.Key,
		NumInstances: len(sc.Instances),
		input:        roaring.New(),
		reference:    roaring.New(),
	})
	return slot, nil
}

// Slot resolves a stats key to its record slot.
func (g *Registry) Slot(key Key) (int, bool) {
	slot, ok := g.slots[key]
	return slot, ok
}

// Record returns the record at the given slot.
func (g *Registry) Record(slot int) *Record {
	return g.records[slot]
}

// Records returns all records in allocation order.
func (g *Registry) Records() []*Record {
	return g.records
}

// Mark sets the overlap bit addressed by the entry. Marking an already-set
// bit is a no-op.
func (g *Registry) Mark(e Entry) {
	rec := g.records[e.Slot]
	if e.Part == PartInput {
		rec.input.Add(e.Instance)
	} else {
		rec.reference.Add(e.Instance)
	}
}

// CloneEmpty returns a registry with the same records and slot assignments
// but all bits clear. Workers scan into clones and the results are merged
// back with Merge.
func (g *Registry) CloneEmpty() *Registry {
	clone := &Registry{
		slots:   g.slots,
		records: make([]*Record, len(g.records)),
	}
	for i, rec := range g.records {
		clone.records[i] = &Record{
			Key:          rec.Key,
			ScenarioKey:  rec.ScenarioKey,
			NumInstances: rec.NumInstances,
			input:        roaring.New(),
			reference:    roaring.New(),
		}
	}
	return clone
}

// Merge ORs a delta registry produced by CloneEmpty into this one.
func (g *Registry) Merge(delta *Registry) {
	for i, rec := range g.records {
		rec.input.Or(delta.records[i].input)
		rec.reference.Or(delta.records[i].reference)
	}
}

// Summary is the reportable state of one record. ScenarioFingerprint is the
// comparable scenario identity used by the results store; it is not part of
// the serialized artifact.
type Summary struct {
	Scenario                 map[string]any `json:"scenario"`
	N                        int            `json:"n"`
	NumInstances             int            `json:"num_instances"`
	NumOverlappingInputs     uint64         `json:"num_overlapping_inputs"`
	NumOverlappingReferences uint64         `json:"num_overlapping_references"`
	Tags                     []string       `json:"tags,omitempty"`
	ScenarioFingerprint      string         `json:"-"`
}

// Summaries renders every record, in allocation order, with the given
// provenance tags attached. The returned slice is a consistent snapshot:
// later Mark calls do not affect it.
func (g *Registry) Summaries(tags []string) []Summary {
	summaries := make([]Summary, 0, len(g.records))
	for _, rec := range g.records {
		summaries = append(summaries, Summary{
			Scenario:                 rec.ScenarioKey.Metadata(),
			N:                        rec.Key.N,
			NumInstances:             rec.NumInstances,
			NumOverlappingInputs:     rec.InputOverlaps(),
			NumOverlappingReferences: rec.ReferenceOverlaps(),
			Tags:                     tags,
			ScenarioFingerprint:      rec.Key.Scenario,
		})
	}
	return summaries
}
