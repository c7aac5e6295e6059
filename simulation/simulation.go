// Package simulation wires the trace generator, the cache model, and the
// statistics aggregator into one synchronous pull-based pipeline.
package simulation

import (
	"fmt"

	"github.com/rs/xid"

	"github.com/tracelab/gemmcache/gemm"
	"github.com/tracelab/gemmcache/mem/cache"
	"github.com/tracelab/gemmcache/stats"
)

// A CellAccess is one highlighted cell with its classification.
type CellAccess struct {
	Row int  `json:"row"`
	Col int  `json:"col"`
	Hit bool `json:"hit"`
}

// A Record is what the external renderer pulls for one frame: the three
// highlight positions, their hit/miss flags, and the running hit rate.
type Record struct {
	Frame   int        `json:"frame"`
	A       CellAccess `json:"a"`
	B       CellAccess `json:"b"`
	C       CellAccess `json:"c"`
	HitRate float64    `json:"hit_rate"`
}

// A Summary reports a completed run.
type Summary struct {
	TotalAccesses  uint64    `json:"total_accesses"`
	Hits           uint64    `json:"hits"`
	Misses         uint64    `json:"misses"`
	HitRate        float64   `json:"hit_rate"`
	HitRateHistory []float64 `json:"hit_rate_history"`
}

// A Simulation owns the pipeline state for one configuration. All methods
// are synchronous; reconfiguration means building a new Simulation.
type Simulation struct {
	id        string
	config    Config
	generator *gemm.TraceGenerator
	cache     *cache.Simulator
	stats     *stats.Aggregator
}

// New builds a simulation, failing fast on every configuration error.
func New(config Config) (*Simulation, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	generator, err := gemm.NewTraceGenerator(
		config.N,
		config.BlockSize,
		config.LoopOrder,
		config.Blocked,
		config.Geometry.ElementSizeBytes,
	)
	if err != nil {
		return nil, err
	}

	cacheSim, err := cache.NewSimulator(config.Geometry)
	if err != nil {
		return nil, err
	}

	return &Simulation{
		id:        xid.New().String(),
		config:    config,
		generator: generator,
		cache:     cacheSim,
		stats:     stats.NewAggregator(config.N),
	}, nil
}

// ID returns the unique ID of this simulation instance.
func (s *Simulation) ID() string {
	return s.id
}

// Config returns the configuration of the run.
func (s *Simulation) Config() Config {
	return s.config
}

// Stats returns the aggregator, whose cursor the renderer may scrub.
func (s *Simulation) Stats() *stats.Aggregator {
	return s.stats
}

// NumFrames returns the total frame count, n^3.
func (s *Simulation) NumFrames() int {
	return s.generator.NumFrames()
}

// NumClassified returns the number of frames classified so far.
func (s *Simulation) NumClassified() int {
	return s.stats.NumObserved()
}

// Step classifies one more frame. It returns false once the trace is
// exhausted.
func (s *Simulation) Step() bool {
	f, ok := s.generator.Next()
	if !ok {
		return false
	}

	var results [3]cache.Result
	for i, ev := range f.Events() {
		results[i] = s.cache.Access(ev.Addr)
	}

	s.stats.Observe(f, results)

	return true
}

// Run classifies the remaining frames and returns the run summary.
func (s *Simulation) Run() Summary {
	for s.Step() {
	}

	return s.Summary()
}

// Summary reports the cumulative statistics of the classified frames.
func (s *Simulation) Summary() Summary {
	return Summary{
		TotalAccesses:  s.stats.TotalAccesses(),
		Hits:           s.stats.Hits(),
		Misses:         s.stats.Misses(),
		HitRate:        s.stats.HitRate(),
		HitRateHistory: s.stats.History(),
	}
}

// Record returns the renderer view of one frame, classifying further
// frames on demand.
func (s *Simulation) Record(index int) (Record, error) {
	if index < 0 || index >= s.generator.NumFrames() {
		return Record{}, fmt.Errorf("frame index %d not in [0, %d)",
			index, s.generator.NumFrames())
	}

	if s.stats.NumObserved() <= index {
		// Classification appends at the head, so move the cursor there
		// before generating further frames.
		if err := s.stats.Seek(s.stats.NumObserved()); err != nil {
			return Record{}, err
		}

		for s.stats.NumObserved() <= index {
			if !s.Step() {
				break
			}
		}
	}

	f := s.stats.FrameAt(index)
	results := s.stats.ResultsAt(index)

	return Record{
		Frame: index,
		A:     CellAccess{Row: f.A.Row, Col: f.A.Col, Hit: results[0].Hit},
		B:     CellAccess{Row: f.B.Row, Col: f.B.Col, Hit: results[1].Hit},
		C:     CellAccess{Row: f.C.Row, Col: f.C.Col, Hit: results[2].Hit},
		HitRate: s.stats.RateAfter(index),
	}, nil
}

// Heatmap returns the per-cell access counts of one matrix at the
// aggregator cursor, row-major.
func (s *Simulation) Heatmap(m gemm.MatrixID) []uint64 {
	return s.stats.Frequencies(m)
}
