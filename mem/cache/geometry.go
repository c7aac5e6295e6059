package cache

import (
	"fmt"

	"github.com/tracelab/gemmcache/mem/addressing"
)

// Geometry describes a set-associative cache. It is immutable after the
// simulator is built.
type Geometry struct {
	CacheSizeBytes   uint64
	LineSizeBytes    uint64
	Associativity    uint64
	ElementSizeBytes uint64
}

// DefaultGeometry matches the reference configuration: 32KB, 64B lines,
// 8-way, 8B elements.
func DefaultGeometry() Geometry {
	return Geometry{
		CacheSizeBytes:   32768,
		LineSizeBytes:    64,
		Associativity:    8,
		ElementSizeBytes: 8,
	}
}

// NumLines returns the total line count.
func (g Geometry) NumLines() uint64 {
	return g.CacheSizeBytes / g.LineSizeBytes
}

// NumSets returns the set count.
func (g Geometry) NumSets() uint64 {
	return g.NumLines() / g.Associativity
}

// Validate rejects malformed geometry. All checks happen here, before any
// access is simulated.
func (g Geometry) Validate() error {
	fields := []struct {
		name  string
		value uint64
	}{
		{"cache size", g.CacheSizeBytes},
		{"line size", g.LineSizeBytes},
		{"associativity", g.Associativity},
		{"element size", g.ElementSizeBytes},
	}

	for _, f := range fields {
		if !addressing.IsPowerOfTwo(f.value) {
			return fmt.Errorf("%w: %s %d is not a power of two",
				addressing.ErrInvalidCacheGeometry, f.name, f.value)
		}
	}

	if g.LineSizeBytes > g.CacheSizeBytes {
		return fmt.Errorf("%w: line size %d exceeds cache size %d",
			addressing.ErrInvalidCacheGeometry,
			g.LineSizeBytes, g.CacheSizeBytes)
	}

	if g.Associativity > g.NumLines() {
		return fmt.Errorf("%w: associativity %d exceeds %d total lines",
			addressing.ErrInvalidCacheGeometry,
			g.Associativity, g.NumLines())
	}

	return nil
}
