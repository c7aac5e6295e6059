package gemm

import (
	"errors"
	"fmt"
)

// ErrInvalidBlockSize is returned when the block size is outside [1, n].
var ErrInvalidBlockSize = errors.New("invalid block size")

// An AccessEvent is one element access to one matrix.
type AccessEvent struct {
	Matrix MatrixID
	Row    int
	Col    int
	Addr   uint64
	Seq    uint64
}

// A Frame holds the three accesses of one innermost-loop iteration:
// A[i][k], B[k][j], and C[i][j].
type Frame struct {
	Index int
	A     AccessEvent
	B     AccessEvent
	C     AccessEvent
}

// Events returns the frame's accesses in A, B, C order.
func (f Frame) Events() [3]AccessEvent {
	return [3]AccessEvent{f.A, f.B, f.C}
}

// A TraceGenerator walks the n^3 iteration triples of a GEMM in a given
// loop order, blocked or unblocked, and emits one Frame per triple. The
// walk is deterministic: the same parameters always reproduce the same
// sequence.
type TraceGenerator struct {
	n         int
	blockSize int
	order     LoopOrder
	blocked   bool
	matrices  [3]Matrix

	perm      [3]axis
	numFrames int

	cursor int
	origin [3]int
	idx    [3]int
}

// NewTraceGenerator creates a generator for n-by-n matrices with the given
// element size. blockSize is only consulted when blocked is true and must
// then satisfy 1 <= blockSize <= n.
func NewTraceGenerator(
	n, blockSize int,
	order LoopOrder,
	blocked bool,
	elemSize uint64,
) (*TraceGenerator, error) {
	if n < 1 {
		return nil, fmt.Errorf("matrix dimension must be positive, got %d", n)
	}

	if blocked && (blockSize < 1 || blockSize > n) {
		return nil, fmt.Errorf("%w: %d not in [1, %d]",
			ErrInvalidBlockSize, blockSize, n)
	}

	if !blocked {
		// A single block covering the whole range walks the triples in
		// plain permutation order.
		blockSize = n
	}

	g := &TraceGenerator{
		n:         n,
		blockSize: blockSize,
		order:     order,
		blocked:   blocked,
		matrices:  DefaultMatrices(n, elemSize),
		perm:      order.permutation(),
		numFrames: n * n * n,
	}

	g.Reset()

	return g, nil
}

// NumFrames returns the total frame count, n^3 regardless of blocking.
func (g *TraceGenerator) NumFrames() int {
	return g.numFrames
}

// Remaining returns the number of frames not yet emitted.
func (g *TraceGenerator) Remaining() int {
	return g.numFrames - g.cursor
}

// Reset rewinds the generator to the first frame.
func (g *TraceGenerator) Reset() {
	g.cursor = 0
	g.origin = [3]int{}
	g.idx = [3]int{}
}

// Seek positions the generator so that the next call to Next emits the
// frame at index.
func (g *TraceGenerator) Seek(index int) error {
	if index < 0 || index > g.numFrames {
		return fmt.Errorf("frame index %d not in [0, %d]",
			index, g.numFrames)
	}

	if index < g.cursor {
		g.Reset()
	}

	for g.cursor < index {
		g.advance()
		g.cursor++
	}

	return nil
}

// Next emits the next frame. It returns false once all n^3 frames have
// been emitted.
func (g *TraceGenerator) Next() (Frame, bool) {
	if g.cursor >= g.numFrames {
		return Frame{}, false
	}

	var coord [3]int
	for d, a := range g.perm {
		coord[a] = g.idx[d]
	}

	i, j, k := coord[axisI], coord[axisJ], coord[axisK]
	seq := uint64(3 * g.cursor)

	f := Frame{
		Index: g.cursor,
		A: AccessEvent{
			Matrix: MatrixA, Row: i, Col: k,
			Addr: g.matrices[MatrixA].mustAddress(i, k), Seq: seq,
		},
		B: AccessEvent{
			Matrix: MatrixB, Row: k, Col: j,
			Addr: g.matrices[MatrixB].mustAddress(k, j), Seq: seq + 1,
		},
		C: AccessEvent{
			Matrix: MatrixC, Row: i, Col: j,
			Addr: g.matrices[MatrixC].mustAddress(i, j), Seq: seq + 2,
		},
	}

	g.advance()
	g.cursor++

	return f, true
}

// advance steps the nested counters: the three in-block indices in
// permutation order, then the three block origins in the same order.
// Bounds are clamped to n so edge blocks never read past the matrix.
func (g *TraceGenerator) advance() {
	for d := 2; d >= 0; d-- {
		g.idx[d]++
		if g.idx[d] < min(g.origin[d]+g.blockSize, g.n) {
			return
		}

		g.idx[d] = g.origin[d]
	}

	for d := 2; d >= 0; d-- {
		g.origin[d] += g.blockSize
		if g.origin[d] < g.n {
			g.idx = g.origin
			return
		}

		g.origin[d] = 0
	}

	g.idx = g.origin
}
