package stats

import (
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/errors"
)

// Unbounded disables the per-entry distinct n-gram cap. Unbounded capture on
// a large corpus keeps every distinct matched n-gram resident and is unsafe
// for unattended runs; it is an explicit opt-in, never a default.
const Unbounded = -1

// Counter records which n-gram texts matched each entry and how often. The
// number of distinct n-grams tracked per entry is capped: once an entry is
// at its cap, counts of already-tracked n-grams keep incrementing but new
// distinct n-grams are dropped. That bounds memory under pathological
// repetition while keeping tracked counts exact.
type Counter struct {
	maxDistinct int
	entries     map[Entry]map[string]int
}

// NewCounter creates a Counter with the given per-entry distinct cap.
// A cap of zero means capture is disabled, in which case no Counter may
// exist at all, so zero is rejected here.
func NewCounter(maxDistinct int) (*Counter, error) {
	if maxDistinct == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidConfig,
			"ngram counter requires a non-zero max distinct cap")
	}
	if maxDistinct < Unbounded {
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig,
			"max distinct cap must be -1 or positive, got %d", maxDistinct)
	}
	return &Counter{
		maxDistinct: maxDistinct,
		entries:     make(map[Entry]map[string]int),
	}, nil
}

// MaxDistinct returns the per-entry cap (-1 for unbounded).
func (c *Counter) MaxDistinct() int {
	return c.maxDistinct
}

// Observe records one occurrence of ngram for the entry, subject to the
// distinct cap.
func (c *Counter) Observe(e Entry, ngram string) {
	grams, ok := c.entries[e]
	if !ok {
		grams = make(map[string]int)
		c.entries[e] = grams
	}
	if _, tracked := grams[ngram]; tracked {
		grams[ngram]++
		return
	}
	if c.maxDistinct == Unbounded || len(grams) < c.maxDistinct {
		grams[ngram] = 1
	}
}

// Ngrams returns the tracked n-gram counts for the entry, or nil if the
// entry never matched.
func (c *Counter) Ngrams(e Entry) map[string]int {
	return c.entries[e]
}

// Entries returns all entries with tracked n-grams in a deterministic order
// (slot, then part, then instance).
func (c *Counter) Entries() []Entry {
	entries := make([]Entry, 0, len(c.entries))
	for e := range c.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Slot != entries[j].Slot {
			return entries[i].Slot < entries[j].Slot
		}
		if entries[i].Part != entries[j].Part {
			return entries[i].Part < entries[j].Part
		}
		return entries[i].Instance < entries[j].Instance
	})
	return entries
}

// CloneEmpty returns an empty counter with the same cap, for worker deltas.
func (c *Counter) CloneEmpty() *Counter {
	return &Counter{
		maxDistinct: c.maxDistinct,
		entries:     make(map[Entry]map[string]int),
	}
}

// Merge folds a worker delta into this counter. Counts of n-grams tracked on
// both sides are summed; new distinct n-grams are admitted only up to the
// cap. Which distinct n-grams win the cap therefore depends on merge order,
// a documented relaxation relative to a sequential scan.
func (c *Counter) Merge(delta *Counter) {
	for e, deltaGrams := range delta.entries {
		grams, ok := c.entries[e]
		if !ok {
			grams = make(map[string]int, len(deltaGrams))
			c.entries[e] = grams
		}
		for ngram, count := range deltaGrams {
			if _, tracked := grams[ngram]; tracked {
				grams[ngram] += count
				continue
			}
			if c.maxDistinct == Unbounded || len(grams) < c.maxDistinct {
				grams[ngram] = count
			}
		}
	}
}
