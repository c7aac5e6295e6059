package simulation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tracelab/gemmcache/gemm"
	"github.com/tracelab/gemmcache/mem/cache"
	"github.com/tracelab/gemmcache/simulation"
)

// smallGeometry creates enough cache pressure for loop order to matter:
// 4KB, 64B lines, 4-way (the geometry the interactive UI scales to).
func smallGeometry() cache.Geometry {
	return cache.Geometry{
		CacheSizeBytes:   4096,
		LineSizeBytes:    64,
		Associativity:    4,
		ElementSizeBytes: 8,
	}
}

func runConfig(t *testing.T, cfg simulation.Config) simulation.Summary {
	t.Helper()

	s, err := simulation.New(cfg)
	require.NoError(t, err)

	return s.Run()
}

func TestReferenceScenarioKJIBlocked(t *testing.T) {
	summary := runConfig(t, simulation.DefaultConfig())

	assert.Equal(t, uint64(12288), summary.TotalAccesses)
	assert.Equal(t, uint64(12192), summary.Hits)
	assert.Equal(t, uint64(96), summary.Misses)
	assert.InDelta(t, 0.9921875, summary.HitRate, 1e-12)
	assert.Len(t, summary.HitRateHistory, 122)
}

func TestAllOrdersConvergeWhenTheCacheFitsEverything(t *testing.T) {
	// Three 16x16 double matrices occupy 6KB; a 32KB cache holds them
	// all, so only the 96 cold misses remain under every loop order.
	for _, order := range gemm.Orders() {
		cfg := simulation.DefaultConfig()
		cfg.LoopOrder = order

		summary := runConfig(t, cfg)
		assert.Equal(t, uint64(96), summary.Misses, "order %s", order)
	}
}

func TestLoopOrderMattersUnderCachePressure(t *testing.T) {
	base := simulation.Config{
		N:        32,
		Blocked:  false,
		Geometry: smallGeometry(),
	}

	kji := base
	kji.LoopOrder = gemm.KJI
	ijk := base
	ijk.LoopOrder = gemm.IJK

	kjiSummary := runConfig(t, kji)
	ijkSummary := runConfig(t, ijk)

	assert.Equal(t, uint64(98304), kjiSummary.TotalAccesses)
	assert.Equal(t, uint64(32640), kjiSummary.Hits)
	assert.Equal(t, uint64(64248), ijkSummary.Hits)
	assert.Greater(t, ijkSummary.HitRate, kjiSummary.HitRate+0.25)
}

func TestBlockingRecoversHitsUnderCachePressure(t *testing.T) {
	blocked := simulation.Config{
		N:         32,
		BlockSize: 4,
		LoopOrder: gemm.JKI,
		Blocked:   true,
		Geometry:  smallGeometry(),
	}
	unblocked := blocked
	unblocked.Blocked = false

	blockedSummary := runConfig(t, blocked)
	unblockedSummary := runConfig(t, unblocked)

	assert.Equal(t, uint64(93728), blockedSummary.Hits)
	assert.Equal(t, uint64(31744), unblockedSummary.Hits)

	// Same access count either way; blocking only reorders.
	assert.Equal(t,
		unblockedSummary.TotalAccesses, blockedSummary.TotalAccesses)
}

func TestTinyRunIsDeterministicAcrossOrders(t *testing.T) {
	for _, order := range gemm.Orders() {
		cfg := simulation.Config{
			N:         4,
			LoopOrder: order,
			Blocked:   false,
			Geometry:  cache.DefaultGeometry(),
		}

		s, err := simulation.New(cfg)
		require.NoError(t, err)
		assert.Equal(t, 64, s.NumFrames())

		first := s.Run()

		s2, err := simulation.New(cfg)
		require.NoError(t, err)
		assert.Equal(t, first, s2.Run())

		assert.Equal(t, uint64(192), first.TotalAccesses)
	}
}

func TestRecordsAreServedLazilyAndMatchTheRun(t *testing.T) {
	cfg := simulation.DefaultConfig()
	cfg.N = 8

	lazy, err := simulation.New(cfg)
	require.NoError(t, err)

	// Pull a late frame first; earlier ones must still be consistent.
	last, err := lazy.Record(lazy.NumFrames() - 1)
	require.NoError(t, err)

	full, err := simulation.New(cfg)
	require.NoError(t, err)
	summary := full.Run()

	assert.InDelta(t, summary.HitRate, last.HitRate, 1e-12)

	first, err := lazy.Record(0)
	require.NoError(t, err)
	assert.Equal(t, 0, first.Frame)
	assert.False(t, first.A.Hit, "the very first access is a cold miss")
	assert.Equal(t, simulation.CellAccess{Row: 0, Col: 0, Hit: first.C.Hit},
		first.C)

	_, err = lazy.Record(-1)
	assert.Error(t, err)
	_, err = lazy.Record(lazy.NumFrames())
	assert.Error(t, err)
}

func TestHeatmapSnapshotFollowsTheCursor(t *testing.T) {
	cfg := simulation.DefaultConfig()
	cfg.N = 4

	s, err := simulation.New(cfg)
	require.NoError(t, err)
	s.Run()

	for _, count := range s.Heatmap(gemm.MatrixC) {
		assert.Equal(t, uint64(4), count)
	}

	require.NoError(t, s.Stats().Seek(0))
	for _, count := range s.Heatmap(gemm.MatrixC) {
		assert.Zero(t, count)
	}
}

func TestConfigErrorsSurfaceBeforeAnyFrame(t *testing.T) {
	cfg := simulation.DefaultConfig()
	cfg.BlockSize = 64
	_, err := simulation.New(cfg)
	assert.ErrorIs(t, err, gemm.ErrInvalidBlockSize)

	cfg = simulation.DefaultConfig()
	cfg.Geometry.LineSizeBytes = 48
	_, err = simulation.New(cfg)
	assert.Error(t, err)

	cfg = simulation.DefaultConfig()
	cfg.N = 0
	_, err = simulation.New(cfg)
	assert.Error(t, err)
}

func TestSimulationIDsAreUnique(t *testing.T) {
	a, err := simulation.New(simulation.DefaultConfig())
	require.NoError(t, err)
	b, err := simulation.New(simulation.DefaultConfig())
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
}
