// Package scanner streams the training corpus through the reverse n-gram
// index. Each document is tokenized once; every contiguous n-gram of the
// token sequence, for every configured n, is probed against the index, and
// every entry in a hit bucket gets its overlap bit set (and, when capture is
// enabled, the matched n-gram text counted).
package scanner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/index"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/stats"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/internal/overlap/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/metrics"
)

// Scanner drives the overlap computation over a document stream. The index
// is read-only; the registry and counter are mutated. A Scanner must not be
// shared by concurrent callers; ScanParallel handles its own fan-out with
// private deltas.
type Scanner struct {
	index    *index.Index
	registry *stats.Registry
	tok      tokenizer.Tokenizer
	counter  *stats.Counter
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a Scanner. A nil counter disables n-gram capture; a non-nil
// counter always has a non-zero cap (stats.NewCounter rejects zero), so the
// capture-enabled and capture-disabled states cannot be mixed.
func New(ix *index.Index, reg *stats.Registry, tok tokenizer.Tokenizer, counter *stats.Counter, m *metrics.Metrics) (*Scanner, error) {
	if ix == nil || reg == nil || tok == nil {
		return nil, apperrors.New(apperrors.ErrInvalidConfig, "scanner requires index, registry, and tokenizer")
	}
	return &Scanner{
		index:    ix,
		registry: reg,
		tok:      tok,
		counter:  counter,
		metrics:  m,
		logger:   slog.Default().With("component", "scanner"),
	}, nil
}

// ScanDocument processes one document. Documents shorter than n yield no
// n-grams for that n; empty documents are valid and match nothing.
func (s *Scanner) ScanDocument(doc string) {
	tokens := s.tok.Tokenize(doc)
	if s.metrics != nil {
		s.metrics.DocumentsScannedTotal.Inc()
		s.metrics.BytesScannedTotal.Add(float64(len(doc)))
	}
	for _, n := range s.index.NValues() {
		if len(tokens) < n {
			continue
		}
		probed := 0
		matched := 0
		for i := 0; i+n <= len(tokens); i++ {
			gram := index.Gram(tokens, i, n)
			probed++
			entries := s.index.Lookup(n, gram)
			if len(entries) == 0 {
				continue
			}
			matched++
			for _, e := range entries {
				s.registry.Mark(e)
				if s.metrics != nil {
					s.metrics.EntriesMarkedTotal.WithLabelValues(e.Part.String()).Inc()
				}
				if s.counter != nil {
					s.counter.Observe(e, gram)
				}
			}
		}
		if s.metrics != nil {
			label := strconv.Itoa(n)
			s.metrics.NgramsProbedTotal.WithLabelValues(label).Add(float64(probed))
			if matched > 0 {
				s.metrics.NgramMatchesTotal.WithLabelValues(label).Add(float64(matched))
			}
		}
	}
}

// Scan consumes the source sequentially until it is exhausted or ctx is
// cancelled. On cancellation the stats collected so far remain valid, since
// bits are monotonic and never rolled back.
func (s *Scanner) Scan(ctx context.Context, src corpus.Source) error {
	for {
		doc, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return apperrors.Newf(apperrors.ErrScanAborted, "%v", ctx.Err())
			}
			return err
		}
		s.ScanDocument(doc)
	}
}

// ScanParallel fans documents out to the given number of workers, each
// scanning into a private stats delta (and counter delta, when capture is
// enabled). Deltas are merged by bitwise OR, so the final bits are identical
// to a sequential scan; with a finite capture cap, which distinct n-grams
// win the cap may differ from sequential order.
func (s *Scanner) ScanParallel(ctx context.Context, src corpus.Source, workers int) error {
	if workers <= 1 {
		return s.Scan(ctx, src)
	}

	type delta struct {
		registry *stats.Registry
		counter  *stats.Counter
	}

	docs := make(chan string, 4*workers)
	deltas := make([]delta, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		d := delta{registry: s.registry.CloneEmpty()}
		if s.counter != nil {
			d.counter = s.counter.CloneEmpty()
		}
		deltas[w] = d
		worker := &Scanner{
			index:    s.index,
			registry: d.registry,
			tok:      s.tok,
			counter:  d.counter,
			metrics:  s.metrics,
			logger:   s.logger,
		}
		g.Go(func() error {
			for doc := range docs {
				worker.ScanDocument(doc)
				if err := gctx.Err(); err != nil {
					return err
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(docs)
		for {
			doc, err := src.Next(gctx)
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			select {
			case docs <- doc:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	err := g.Wait()

	// Partial deltas are still valid on error: OR-merging whatever each
	// worker completed preserves monotonic semantics.
	for _, d := range deltas {
		s.registry.Merge(d.registry)
		if s.counter != nil && d.counter != nil {
			s.counter.Merge(d.counter)
		}
	}

	if err != nil {
		if ctx.Err() != nil {
			return apperrors.Newf(apperrors.ErrScanAborted, "%v", ctx.Err())
		}
		return err
	}
	return nil
}
