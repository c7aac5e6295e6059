package datarecording

import (
	"github.com/tracelab/gemmcache/simulation"
)

// RunTableName is the table run summaries are recorded into.
const RunTableName = "runs"

// A RunEntry is one recorded simulation run. All fields are flat so the
// generic recorder can persist them.
type RunEntry struct {
	RunID            string
	N                int
	BlockSize        int
	LoopOrder        string
	Blocked          bool
	CacheSizeBytes   uint64
	LineSizeBytes    uint64
	Associativity    uint64
	ElementSizeBytes uint64
	TotalAccesses    uint64
	Hits             uint64
	Misses           uint64
	HitRate          float64
}

// A RunLog records completed runs through a DataRecorder.
type RunLog struct {
	recorder DataRecorder
}

// NewRunLog creates the run table and returns a logger for it.
func NewRunLog(recorder DataRecorder) *RunLog {
	recorder.CreateTable(RunTableName, RunEntry{})

	return &RunLog{recorder: recorder}
}

// Record persists one completed run.
func (l *RunLog) Record(s *simulation.Simulation, summary simulation.Summary) {
	cfg := s.Config()

	blockSize := cfg.BlockSize
	if !cfg.Blocked {
		blockSize = 0
	}

	l.recorder.InsertData(RunTableName, RunEntry{
		RunID:            s.ID(),
		N:                cfg.N,
		BlockSize:        blockSize,
		LoopOrder:        cfg.LoopOrder.String(),
		Blocked:          cfg.Blocked,
		CacheSizeBytes:   cfg.Geometry.CacheSizeBytes,
		LineSizeBytes:    cfg.Geometry.LineSizeBytes,
		Associativity:    cfg.Geometry.Associativity,
		ElementSizeBytes: cfg.Geometry.ElementSizeBytes,
		TotalAccesses:    summary.TotalAccesses,
		Hits:             summary.Hits,
		Misses:           summary.Misses,
		HitRate:          summary.HitRate,
	})
}

// Flush forces buffered entries to disk.
func (l *RunLog) Flush() {
	l.recorder.Flush()
}
