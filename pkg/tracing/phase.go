// Package tracing tracks the timed phases of an overlap run (loading
// scenarios, building the index, scanning files, writing reports) and logs
// them as structured slog records when each phase ends.
package tracing

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type contextKey string

const runKey contextKey = "overlap_run"

// Phase is one timed step of a run.
type Phase struct {
	Name     string
	Start    time.Time
	Duration time.Duration
	Attrs    map[string]any
}

// Run collects the phases of a single overlap computation.
type Run struct {
	ID     string
	mu     sync.Mutex
	phases []*Phase
}

// NewRun creates a Run and stores it in the returned context.
func NewRun(ctx context.Context, runID string) (context.Context, *Run) {
	run := &Run{ID: runID}
	return context.WithValue(ctx, runKey, run), run
}

// FromContext returns the Run stored in ctx, or nil.
func FromContext(ctx context.Context) *Run {
	run, _ := ctx.Value(runKey).(*Run)
	return run
}

// StartPhase begins a named phase. The returned function ends the phase,
// records its duration, and logs it. Attrs set via SetAttr between start and
// end are included in the log record.
func (r *Run) StartPhase(name string) (phase *Phase, end func()) {
	p := &Phase{
		Name:  name,
		Start: time.Now(),
		Attrs: make(map[string]any),
	}
	if r != nil {
		r.mu.Lock()
		r.phases = append(r.phases, p)
		r.mu.Unlock()
	}
	return p, func() {
		p.Duration = time.Since(p.Start)
		args := []any{"phase", p.Name, "duration", p.Duration.Round(time.Millisecond)}
		if r != nil {
			args = append(args, "run_id", r.ID)
		}
		for k, v := range p.Attrs {
			args = append(args, k, v)
		}
		slog.Info("phase complete", args...)
	}
}

// SetAttr attaches a key/value to the phase for inclusion in its log record.
func (p *Phase) SetAttr(key string, value any) {
	p.Attrs[key] = value
}

// Summary logs a one-line recap of all completed phases.
func (r *Run) Summary() {
	r.mu.Lock()
	defer r.mu.Unlock()
	var total time.Duration
	args := []any{"run_id", r.ID}
	for _, p := range r.phases {
		total += p.Duration
		args = append(args, p.Name, p.Duration.Round(time.Millisecond))
	}
	args = append(args, "total", total.Round(time.Millisecond))
	slog.Info("run summary", args...)
}
