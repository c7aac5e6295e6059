// Package addressing converts matrix cell references into linear byte
// addresses and decomposes addresses into the tag, set-index, and offset
// fields used by set-associative lookup.
package addressing

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidIndex is returned when a row or column is outside [0, n).
var ErrInvalidIndex = errors.New("invalid index")

// ErrInvalidCacheGeometry is returned when a cache dimension is not a
// power of two, or when the dimensions are inconsistent with each other.
var ErrInvalidCacheGeometry = errors.New("invalid cache geometry")

// CellAddress returns the byte address of element (row, col) of an n-by-n
// row-major matrix that starts at base.
func CellAddress(
	base uint64,
	row, col, n int,
	elemSize uint64,
) (uint64, error) {
	if row < 0 || row >= n {
		return 0, fmt.Errorf("%w: row %d not in [0, %d)",
			ErrInvalidIndex, row, n)
	}

	if col < 0 || col >= n {
		return 0, fmt.Errorf("%w: col %d not in [0, %d)",
			ErrInvalidIndex, col, n)
	}

	return base + (uint64(row)*uint64(n)+uint64(col))*elemSize, nil
}

// A Mapper splits addresses into (tag, set, offset) for a cache with a
// given line size and set count. Both must be powers of two.
type Mapper struct {
	lineSize uint64
	numSets  uint64
}

// NewMapper creates a Mapper, validating the geometry.
func NewMapper(lineSize, numSets uint64) (*Mapper, error) {
	if !IsPowerOfTwo(lineSize) {
		return nil, fmt.Errorf("%w: line size %d is not a power of two",
			ErrInvalidCacheGeometry, lineSize)
	}

	if !IsPowerOfTwo(numSets) {
		return nil, fmt.Errorf("%w: set count %d is not a power of two",
			ErrInvalidCacheGeometry, numSets)
	}

	return &Mapper{lineSize: lineSize, numSets: numSets}, nil
}

// Decompose splits an address into its tag, set index, and in-line offset.
func (m *Mapper) Decompose(addr uint64) (tag, set, offset uint64) {
	offset = addr % m.lineSize
	set = (addr / m.lineSize) % m.numSets
	tag = addr / (m.lineSize * m.numSets)

	return tag, set, offset
}

// Recombine is the inverse of Decompose.
func (m *Mapper) Recombine(tag, set, offset uint64) uint64 {
	return (tag*m.numSets+set)*m.lineSize + offset
}

// IsPowerOfTwo reports whether v is a positive power of two.
func IsPowerOfTwo(v uint64) bool {
	return v != 0 && bits.OnesCount64(v) == 1
}
