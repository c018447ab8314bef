// Package index builds the reverse n-gram index of the benchmark corpus:
// for each configured n, a map from every contiguous instance n-gram to the
// set of entries (scenario, n, instance, part) that contain it. The index is
// sized by the benchmark, not the training corpus, and is read-only after
// Build, so concurrent scan workers probe it without synchronization.
package index

import (
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/stats"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/scenario"
	apperrors "github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/errors"
)

// Index is the frozen reverse index over all configured n values.
type Index struct {
	ns      []int
	buckets map[int]map[string][]stats.Entry
}

// Gram renders the n tokens starting at i as an index key. Tokens never
// contain whitespace, so the space join is collision-free and doubles as the
// human-readable n-gram text in reports.
func Gram(tokens []string, i, n int) string {
	return strings.Join(tokens[i:i+n], " ")
}

// Build tokenizes every scenario instance with the given tokenizer,
// allocates the (scenario, n) stats records in the registry, and indexes all
// contiguous n-grams of each instance input and of each reference
// independently. Texts shorter than n contribute nothing for that n.
func Build(scenarios []scenario.Scenario, nValues []int, tok tokenizer.Tokenizer, reg *stats.Registry) (*Index, error) {
	if len(nValues) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidNgramSize, "at least one n value is required")
	}
	ns := make([]int, 0, len(nValues))
	seen := make(map[int]bool, len(nValues))
	for _, n := range nValues {
		if n <= 0 {
			return nil, apperrors.Newf(apperrors.ErrInvalidNgramSize, "n must be positive, got %d", n)
		}
		if !seen[n] {
			seen[n] = true
			ns = append(ns, n)
		}
	}
	sort.Ints(ns)

	building := make(map[int]map[string]map[stats.Entry]struct{}, len(ns))
	for _, n := range ns {
		building[n] = make(map[string]map[stats.Entry]struct{})
	}

	for _, sc := range scenarios {
		inputTokens := make([][]string, len(sc.Instances))
		refTokens := make([][][]string, len(sc.Instances))
		for i, inst := range sc.Instances {
			inputTokens[i] = tok.Tokenize(inst.Input)
			refTokens[i] = make([][]string, len(inst.References))
			for j, ref := range inst.References {
				refTokens[i][j] = tok.Tokenize(ref)
			}
		}
		for _, n := range ns {
			slot, err := reg.Allocate(sc, n)
			if err != nil {
				return nil, err
			}
			for i := range sc.Instances {
				addGrams(building[n], n, inputTokens[i], stats.Entry{
					Slot:     slot,
					Part:     stats.PartInput,
					Instance: uint32(i),
				})
				for _, tokens := range refTokens[i] {
					addGrams(building[n], n, tokens, stats.Entry{
						Slot:     slot,
						Part:     stats.PartReference,
						Instance: uint32(i),
					})
				}
			}
		}
	}

	ix := &Index{
		ns:      ns,
		buckets: make(map[int]map[string][]stats.Entry, len(ns)),
	}
	for _, n := range ns {
		frozen := make(map[string][]stats.Entry, len(building[n]))
		for gram, entrySet := range building[n] {
			entries := make([]stats.Entry, 0, len(entrySet))
			for e := range entrySet {
				entries = append(entries, e)
			}
			frozen[gram] = entries
		}
		ix.buckets[n] = frozen
	}
	return ix, nil
}

func addGrams(buckets map[string]map[stats.Entry]struct{}, n int, tokens []string, e stats.Entry) {
	for i := 0; i+n <= len(tokens); i++ {
		gram := Gram(tokens, i, n)
		entrySet, ok := buckets[gram]
		if !ok {
			entrySet = make(map[stats.Entry]struct{})
			buckets[gram] = entrySet
		}
		entrySet[e] = struct{}{}
	}
}

// NValues returns the configured n values in ascending order.
func (ix *Index) NValues() []int {
	return ix.ns
}

// Lookup returns the entries whose benchmark text contains the given n-gram,
// or nil on a miss.
func (ix *Index) Lookup(n int, gram string) []stats.Entry {
	return ix.buckets[n][gram]
}

// NgramCount returns the number of distinct indexed n-grams for n.
func (ix *Index) NgramCount(n int) int {
	return len(ix.buckets[n])
}

// Density counts, per n and entry, how many distinct indexed n-grams map to
// that entry. This measures index bucket membership, not overlap: it is the
// per-instance metric emitted by the instance detail report.
func (ix *Index) Density() map[int]map[stats.Entry]int {
	density := make(map[int]map[stats.Entry]int, len(ix.ns))
	for _, n := range ix.ns {
		counts := make(map[stats.Entry]int)
		for _, entries := range ix.buckets[n] {
			for _, e := range entries {
				counts[e]++
			}
		}
		density[n] = counts
	}
	return density
}
