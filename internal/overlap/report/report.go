// Package report renders the final overlap artifacts: the per-(scenario, n)
// summary file, the instance-level index density listing, and the optional
// matched n-gram samples. All output is derived from read-only registry,
// index, and counter state after the scan completes.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/index"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/stats"
)

// entryKey is the serialized form of a stats.Entry, with the registry slot
// resolved back to its scenario metadata.
type entryKey struct {
	StatsKey   statsKey `json:"stats_key"`
	Part       string   `json:"part"`
	InstanceID uint32   `json:"instance_id"`
}

type statsKey struct {
	Scenario map[string]any `json:"scenario"`
	N        int            `json:"n"`
}

func renderEntry(reg *stats.Registry, e stats.Entry) entryKey {
	rec := reg.Record(e.Slot)
	return entryKey{
		StatsKey: statsKey{
			Scenario: rec.ScenarioKey.Metadata(),
			N:        rec.Key.N,
		},
		Part:       e.Part.String(),
		InstanceID: e.Instance,
	}
}

// WriteSummaries writes one JSON object per line, one line per stats record,
// in allocation order.
func WriteSummaries(w io.Writer, reg *stats.Registry, tags []string) error {
	enc := json.NewEncoder(w)
	for _, summary := range reg.Summaries(tags) {
		if err := enc.Encode(summary); err != nil {
			return fmt.Errorf("encoding summary: %w", err)
		}
	}
	return nil
}

// WriteInstanceDetail writes, for each n, the index bucket-membership count
// of every entry: the entry key as a JSON line, the count on the next line,
// and a blank separator line. The count is an index density metric (how many
// distinct benchmark n-grams map to the entry), not an overlap count.
func WriteInstanceDetail(w io.Writer, ix *index.Index, reg *stats.Registry) error {
	density := ix.Density()
	for _, n := range ix.NValues() {
		counts := density[n]
		entries := make([]stats.Entry, 0, len(counts))
		for e := range counts {
			entries = append(entries, e)
		}
		sortEntries(entries)
		for _, e := range entries {
			line, err := json.Marshal(renderEntry(reg, e))
			if err != nil {
				return fmt.Errorf("encoding entry key: %w", err)
			}
			if _, err := fmt.Fprintf(w, "%s\n%d\n\n", line, counts[e]); err != nil {
				return fmt.Errorf("writing instance detail: %w", err)
			}
		}
	}
	return nil
}

// ngramSample is one element of the n-gram sample artifact.
type ngramSample struct {
	EntryOverlapKey   entryKey       `json:"entry_overlap_key"`
	OverlappingNgrams map[string]int `json:"overlapping_ngrams"`
}

// WriteNgramSamples writes the captured n-gram counts as a single JSON
// array, one element per entry that matched at least once.
func WriteNgramSamples(w io.Writer, ctr *stats.Counter, reg *stats.Registry) error {
	samples := make([]ngramSample, 0, len(ctr.Entries()))
	for _, e := range ctr.Entries() {
		samples = append(samples, ngramSample{
			EntryOverlapKey:   renderEntry(reg, e),
			OverlappingNgrams: ctr.Ngrams(e),
		})
	}
	enc := json.NewEncoder(w)
	return enc.Encode(samples)
}

func sortEntries(entries []stats.Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Slot != entries[j].Slot {
			return entries[i].Slot < entries[j].Slot
		}
		if entries[i].Part != entries[j].Part {
			return entries[i].Part < entries[j].Part
		}
		return entries[i].Instance < entries[j].Instance
	})
}
