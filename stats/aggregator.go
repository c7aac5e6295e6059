// Package stats accumulates hit/miss statistics and per-cell access
// frequencies over a classified access trace, and supports scrubbing the
// accumulated state to any frame without recomputation.
package stats

import (
	"fmt"
	"math"

	"github.com/tracelab/gemmcache/gemm"
	"github.com/tracelab/gemmcache/mem/cache"
)

// historyPeriod is the access interval between hit-rate history samples.
const historyPeriod = 100

// A frameDelta records everything one frame contributed, so it can be
// applied and un-applied while scrubbing.
type frameDelta struct {
	frame   gemm.Frame
	results [3]cache.Result

	// Cumulative counts after this frame, for O(1) random reads.
	cumHits   uint64
	cumMisses uint64
}

// An Aggregator consumes ordered (Frame, Result) pairs. It keeps the
// cumulative hit rate, a per-cell frequency table per matrix, and a
// cursor that can replay the accumulated state forward and backward.
//
// A new configuration always gets a fresh Aggregator; state is never
// reused across runs.
type Aggregator struct {
	n int

	hits    uint64
	misses  uint64
	freq    [3][]uint64
	history []float64

	deltas []frameDelta
	cursor int
}

// NewAggregator creates an aggregator for n-by-n matrices.
func NewAggregator(n int) *Aggregator {
	a := &Aggregator{n: n}
	for m := range a.freq {
		a.freq[m] = make([]uint64, n*n)
	}

	return a
}

// Observe consumes the next frame and its three classifications. Frames
// must arrive in sequence order with the cursor at the head.
func (a *Aggregator) Observe(f gemm.Frame, results [3]cache.Result) {
	if a.cursor != len(a.deltas) {
		panic("observe called while the cursor is rewound")
	}

	if f.Index != len(a.deltas) {
		panic(fmt.Sprintf("frame %d observed out of order, want %d",
			f.Index, len(a.deltas)))
	}

	d := frameDelta{frame: f, results: results}

	a.apply(d, true)

	d.cumHits = a.hits
	d.cumMisses = a.misses
	a.deltas = append(a.deltas, d)
	a.cursor++
}

func (a *Aggregator) apply(d frameDelta, recordHistory bool) {
	for i, ev := range d.frame.Events() {
		a.freq[ev.Matrix][ev.Row*a.n+ev.Col]++

		if d.results[i].Hit {
			a.hits++
		} else {
			a.misses++
		}

		if recordHistory && (a.hits+a.misses)%historyPeriod == 0 {
			a.history = append(a.history, a.HitRate())
		}
	}
}

func (a *Aggregator) unapply(d frameDelta) {
	for i, ev := range d.frame.Events() {
		a.freq[ev.Matrix][ev.Row*a.n+ev.Col]--

		if d.results[i].Hit {
			a.hits--
		} else {
			a.misses--
		}
	}
}

// NumObserved returns the number of frames consumed so far.
func (a *Aggregator) NumObserved() int {
	return len(a.deltas)
}

// Cursor returns the number of frames currently applied.
func (a *Aggregator) Cursor() int {
	return a.cursor
}

// StepForward re-applies the next observed frame. It returns false at the
// head of the observed sequence.
func (a *Aggregator) StepForward() bool {
	if a.cursor >= len(a.deltas) {
		return false
	}

	a.apply(a.deltas[a.cursor], false)
	a.cursor++

	return true
}

// StepBack un-applies the most recently applied frame. It returns false
// at frame zero.
func (a *Aggregator) StepBack() bool {
	if a.cursor == 0 {
		return false
	}

	a.cursor--
	a.unapply(a.deltas[a.cursor])

	return true
}

// Seek scrubs the cursor so that exactly the first index frames are
// applied.
func (a *Aggregator) Seek(index int) error {
	if index < 0 || index > len(a.deltas) {
		return fmt.Errorf("cursor index %d not in [0, %d]",
			index, len(a.deltas))
	}

	for a.cursor < index {
		a.StepForward()
	}
	for a.cursor > index {
		a.StepBack()
	}

	return nil
}

// Hits returns the hit count at the cursor.
func (a *Aggregator) Hits() uint64 {
	return a.hits
}

// Misses returns the miss count at the cursor.
func (a *Aggregator) Misses() uint64 {
	return a.misses
}

// TotalAccesses returns hits plus misses at the cursor.
func (a *Aggregator) TotalAccesses() uint64 {
	return a.hits + a.misses
}

// HitRate returns hits over total accesses at the cursor, in [0, 1]. It
// is NaN before the first access.
func (a *Aggregator) HitRate() float64 {
	total := a.hits + a.misses
	if total == 0 {
		return math.NaN()
	}

	return float64(a.hits) / float64(total)
}

// RateAfter returns the cumulative hit rate right after the frame at
// index was applied, regardless of the cursor position.
func (a *Aggregator) RateAfter(index int) float64 {
	d := a.deltas[index]
	return float64(d.cumHits) / float64(d.cumHits+d.cumMisses)
}

// ResultsAt returns the classifications of the frame at index.
func (a *Aggregator) ResultsAt(index int) [3]cache.Result {
	return a.deltas[index].results
}

// FrameAt returns the observed frame at index.
func (a *Aggregator) FrameAt(index int) gemm.Frame {
	return a.deltas[index].frame
}

// Count returns the access count of one cell at the cursor.
func (a *Aggregator) Count(m gemm.MatrixID, row, col int) uint64 {
	return a.freq[m][row*a.n+col]
}

// Frequencies returns a copy of the per-cell counts of one matrix at the
// cursor, in row-major order.
func (a *Aggregator) Frequencies(m gemm.MatrixID) []uint64 {
	out := make([]uint64, len(a.freq[m]))
	copy(out, a.freq[m])

	return out
}

// History returns the hit-rate samples taken every 100 accesses during
// the original observation pass.
func (a *Aggregator) History() []float64 {
	out := make([]float64, len(a.history))
	copy(out, a.history)

	return out
}
