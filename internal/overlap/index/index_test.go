package index

import (
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/stats"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/scenario"
	apperrors "github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/errors"
)

func identityTokenizer(t *testing.T) tokenizer.Tokenizer {
	t.Helper()
	tok, err := tokenizer.New(tokenizer.ModeNone)
	if err != nil {
		t.Fatalf("tokenizer.New: %v", err)
	}
	return tok
}

func singleScenario(split string, instances ...scenario.Instance) []scenario.Scenario {
	return []scenario.Scenario{{
		Key:       scenario.Key{Split: split},
		Instances: instances,
	}}
}

func TestGram(t *testing.T) {
	tokens := []string{"the", "cat", "sat", "on", "the", "mat"}
	if got := Gram(tokens, 0, 3); got != "the cat sat" {
		t.Errorf("Gram(0,3) = %q", got)
	}
	if got := Gram(tokens, 3, 3); got != "on the mat" {
		t.Errorf("Gram(3,3) = %q", got)
	}
	if got := Gram(tokens, 5, 1); got != "mat" {
		t.Errorf("Gram(5,1) = %q", got)
	}
}

func TestBuildIndexesInputAndReferences(t *testing.T) {
	scenarios := singleScenario("test",
		scenario.Instance{Input: "the cat sat on the mat", References: []string{"a feline sat"}},
	)
	reg := stats.NewRegistry()
	ix, err := Build(scenarios, []int{3}, identityTokenizer(t), reg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// 6 input tokens give 4 trigrams, 3 reference tokens give 1.
	if got := ix.NgramCount(3); got != 5 {
		t.Errorf("NgramCount(3) = %d, want 5", got)
	}

	entries := ix.Lookup(3, "the cat sat")
	if len(entries) != 1 {
		t.Fatalf("Lookup(the cat sat) = %v, want one entry", entries)
	}
	if entries[0].Part != stats.PartInput || entries[0].Instance != 0 {
		t.Errorf("input gram entry = %+v", entries[0])
	}

	entries = ix.Lookup(3, "a feline sat")
	if len(entries) != 1 || entries[0].Part != stats.PartReference {
		t.Errorf("reference gram entries = %v", entries)
	}

	if got := ix.Lookup(3, "never indexed gram"); got != nil {
		t.Errorf("miss returned %v, want nil", got)
	}
}

func TestBuildSharedGramCollectsAllEntries(t *testing.T) {
	scenarios := singleScenario("test",
		scenario.Instance{Input: "the cat sat", References: nil},
		scenario.Instance{Input: "the cat sat here", References: []string{"the cat sat"}},
	)
	reg := stats.NewRegistry()
	ix, err := Build(scenarios, []int{3}, identityTokenizer(t), reg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	entries := ix.Lookup(3, "the cat sat")
	if len(entries) != 3 {
		t.Fatalf("shared gram entries = %v, want 3", entries)
	}
	got := map[stats.Entry]bool{}
	for _, e := range entries {
		got[e] = true
	}
	slot := entries[0].Slot
	for _, want := range []stats.Entry{
		{Slot: slot, Part: stats.PartInput, Instance: 0},
		{Slot: slot, Part: stats.PartInput, Instance: 1},
		{Slot: slot, Part: stats.PartReference, Instance: 1},
	} {
		if !got[want] {
			t.Errorf("missing entry %+v in %v", want, entries)
		}
	}
}

func TestBuildDeduplicatesRepeatedGramWithinInstance(t *testing.T) {
	scenarios := singleScenario("test",
		scenario.Instance{Input: "a b a b a b", References: nil},
	)
	reg := stats.NewRegistry()
	ix, err := Build(scenarios, []int{2}, identityTokenizer(t), reg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// Bigrams: "a b" x3 and "b a" x2, but entry sets hold each entry once.
	for _, gram := range []string{"a b", "b a"} {
		if entries := ix.Lookup(2, gram); len(entries) != 1 {
			t.Errorf("Lookup(%q) = %v, want one entry", gram, entries)
		}
	}
}

func TestBuildMultipleNValues(t *testing.T) {
	scenarios := singleScenario("test",
		scenario.Instance{Input: "one two three four five", References: nil},
	)
	reg := stats.NewRegistry()
	ix, err := Build(scenarios, []int{13, 5, 2, 5}, identityTokenizer(t), reg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := ix.NValues(); !reflect.DeepEqual(got, []int{2, 5, 13}) {
		t.Errorf("NValues = %v, want sorted deduped [2 5 13]", got)
	}
	if got := ix.NgramCount(2); got != 4 {
		t.Errorf("NgramCount(2) = %d, want 4", got)
	}
	if got := ix.NgramCount(5); got != 1 {
		t.Errorf("NgramCount(5) = %d, want 1", got)
	}
	// Text shorter than n contributes nothing, but the record still exists.
	if got := ix.NgramCount(13); got != 0 {
		t.Errorf("NgramCount(13) = %d, want 0", got)
	}
	key := stats.Key{Scenario: scenarios[0].Key.Fingerprint(), N: 13}
	if _, ok := reg.Slot(key); !ok {
		t.Error("no stats record allocated for n=13")
	}
}

func TestBuildRejectsBadNValues(t *testing.T) {
	scenarios := singleScenario("test", scenario.Instance{Input: "a"})
	tok := identityTokenizer(t)
	if _, err := Build(scenarios, nil, tok, stats.NewRegistry()); !errors.Is(err, apperrors.ErrInvalidNgramSize) {
		t.Errorf("Build(no n values) error = %v, want ErrInvalidNgramSize", err)
	}
	for _, n := range []int{0, -5} {
		if _, err := Build(scenarios, []int{n}, tok, stats.NewRegistry()); !errors.Is(err, apperrors.ErrInvalidNgramSize) {
			t.Errorf("Build(n=%d) error = %v, want ErrInvalidNgramSize", n, err)
		}
	}
}

func TestBuildRejectsDuplicateScenarios(t *testing.T) {
	key := scenario.Key{Split: "test", Attributes: map[string]string{"subject": "law"}}
	scenarios := []scenario.Scenario{
		{Key: key, Instances: []scenario.Instance{{Input: "a b c"}}},
		{Key: key, Instances: []scenario.Instance{{Input: "d e f"}}},
	}
	_, err := Build(scenarios, []int{3}, identityTokenizer(t), stats.NewRegistry())
	if !errors.Is(err, apperrors.ErrDuplicateStatsKey) {
		t.Errorf("Build(duplicate scenarios) error = %v, want ErrDuplicateStatsKey", err)
	}
}

func TestDensity(t *testing.T) {
	scenarios := singleScenario("test",
		scenario.Instance{Input: "a b c d", References: []string{"a b"}},
	)
	reg := stats.NewRegistry()
	ix, err := Build(scenarios, []int{2}, identityTokenizer(t), reg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	density := ix.Density()
	counts := density[2]
	var entries []stats.Entry
	for e := range counts {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Part < entries[j].Part })
	if len(entries) != 2 {
		t.Fatalf("density entries = %v, want 2", entries)
	}
	if got := counts[entries[0]]; got != 3 {
		t.Errorf("input density = %d, want 3 distinct bigrams", got)
	}
	if got := counts[entries[1]]; got != 1 {
		t.Errorf("reference density = %d, want 1 distinct bigram", got)
	}
}
