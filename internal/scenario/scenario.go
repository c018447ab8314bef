// Package scenario defines the benchmark data model consumed by the overlap
// pipeline: scenarios identified by structured metadata, each holding an
// ordered list of instances (one input text plus reference answer texts).
package scenario

import (
	"fmt"
	"sort"
	"strings"
)

// Instance is one benchmark question: an input text and its reference
// (candidate answer) texts. Instances are immutable once loaded and are
// identified within a scenario by their position.
type Instance struct {
	Input      string   `json:"input"`
	References []string `json:"references"`
}

// Spec identifies the benchmark scenario class and its construction
// arguments, mirroring the exported benchmark representation.
type Spec struct {
	ClassName string            `json:"class_name"`
	Args      map[string]string `json:"args,omitempty"`
}

// Key is the structural identity of a scenario. Two scenarios with equal
// keys are the same scenario; duplicate keys in one benchmark file are a
// definition bug. All values are primitive strings so the key can be reduced
// to a comparable fingerprint.
type Key struct {
	Split      string            `json:"split,omitempty"`
	Spec       *Spec             `json:"scenario_spec,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Fingerprint returns a canonical string encoding of the key, stable across
// map iteration order. It is used as the comparable scenario component of
// stats keys.
func (k Key) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "split=%q", k.Split)
	if k.Spec != nil {
		fmt.Fprintf(&b, ";class=%q", k.Spec.ClassName)
		for _, kv := range sortedPairs(k.Spec.Args) {
			fmt.Fprintf(&b, ";arg:%q=%q", kv[0], kv[1])
		}
	}
	for _, kv := range sortedPairs(k.Attributes) {
		fmt.Fprintf(&b, ";attr:%q=%q", kv[0], kv[1])
	}
	return b.String()
}

// Metadata renders the key as the metadata mapping used in report artifacts.
func (k Key) Metadata() map[string]any {
	md := make(map[string]any, len(k.Attributes)+2)
	if k.Split != "" {
		md["split"] = k.Split
	}
	if k.Spec != nil {
		spec := map[string]any{"class_name": k.Spec.ClassName}
		if len(k.Spec.Args) > 0 {
			args := make(map[string]any, len(k.Spec.Args))
			for name, value := range k.Spec.Args {
				args[name] = value
			}
			spec["args"] = args
		}
		md["scenario_spec"] = spec
	}
	for name, value := range k.Attributes {
		md[name] = value
	}
	return md
}

func sortedPairs(m map[string]string) [][2]string {
	pairs := make([][2]string, 0, len(m))
	for name, value := range m {
		pairs = append(pairs, [2]string{name, value})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i][0] < pairs[j][0] })
	return pairs
}

// Scenario couples a key with its ordered instances. The instance slice
// index is the instance_id used throughout the pipeline and is never
// renumbered.
type Scenario struct {
	Key       Key
	Instances []Instance
}
