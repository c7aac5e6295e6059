package simulation

import (
	"fmt"

	"github.com/tracelab/gemmcache/gemm"
	"github.com/tracelab/gemmcache/mem/cache"
)

// A Config fully describes one simulation run. Changing any field means
// building a new Simulation; no state carries over.
type Config struct {
	N         int
	BlockSize int
	LoopOrder gemm.LoopOrder
	Blocked   bool
	Geometry  cache.Geometry
}

// DefaultConfig matches the reference defaults: 16x16 matrices, KJI,
// blocked with 4x4 tiles, 32KB 8-way cache.
func DefaultConfig() Config {
	return Config{
		N:         16,
		BlockSize: 4,
		LoopOrder: gemm.KJI,
		Blocked:   true,
		Geometry:  cache.DefaultGeometry(),
	}
}

// Validate raises every configuration-time error before any frame is
// generated. A run that starts never fails for a reason detectable here.
func (c Config) Validate() error {
	if c.N < 1 {
		return fmt.Errorf("matrix dimension must be positive, got %d", c.N)
	}

	if c.Blocked && (c.BlockSize < 1 || c.BlockSize > c.N) {
		return fmt.Errorf("%w: %d not in [1, %d]",
			gemm.ErrInvalidBlockSize, c.BlockSize, c.N)
	}

	return c.Geometry.Validate()
}
