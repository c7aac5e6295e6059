// Package monitoring turns a simulation into a web server so an external
// renderer can pull frames, statistics, and heatmaps over HTTP. Nothing
// here renders; the endpoints only serve data.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling.
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/tracelab/gemmcache/gemm"
	"github.com/tracelab/gemmcache/simulation"
)

// Monitor serves one simulation run to external renderers.
type Monitor struct {
	sim         *simulation.Simulation
	portNumber  int
	openBrowser bool

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowserOpen makes StartServer open the local browser at the API
// root.
func (m *Monitor) WithBrowserOpen() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterSimulation registers the simulation to be served.
func (m *Monitor) RegisterSimulation(s *simulation.Simulation) {
	m.sim = s
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.sim.ID() + "." + name,
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the progress listing.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/config", m.config)
	r.HandleFunc("/api/summary", m.summary)
	r.HandleFunc("/api/frame/{index}", m.frame)
	r.HandleFunc("/api/history", m.history)
	r.HandleFunc("/api/heatmap/{matrix}", m.heatmap)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/state", m.state)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() {
	http.Handle("/", m.router())

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Serving simulation frames at %s\n", url)

	if m.openBrowser {
		err := browser.OpenURL(url + "/api/summary")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open browser: %s\n", err)
		}
	}

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()
}

type configRsp struct {
	ID        string `json:"id"`
	N         int    `json:"n"`
	BlockSize int    `json:"block_size"`
	LoopOrder string `json:"loop_order"`
	Blocked   bool   `json:"blocked"`
	CacheSize uint64 `json:"cache_size_bytes"`
	LineSize  uint64 `json:"line_size_bytes"`
	Assoc     uint64 `json:"associativity"`
	ElemSize  uint64 `json:"element_size_bytes"`
	NumFrames int    `json:"num_frames"`
}

func (m *Monitor) config(w http.ResponseWriter, _ *http.Request) {
	cfg := m.sim.Config()

	m.writeJSON(w, configRsp{
		ID:        m.sim.ID(),
		N:         cfg.N,
		BlockSize: cfg.BlockSize,
		LoopOrder: cfg.LoopOrder.String(),
		Blocked:   cfg.Blocked,
		CacheSize: cfg.Geometry.CacheSizeBytes,
		LineSize:  cfg.Geometry.LineSizeBytes,
		Assoc:     cfg.Geometry.Associativity,
		ElemSize:  cfg.Geometry.ElementSizeBytes,
		NumFrames: m.sim.NumFrames(),
	})
}

type summaryRsp struct {
	TotalAccesses  uint64    `json:"total_accesses"`
	Hits           uint64    `json:"hits"`
	Misses         uint64    `json:"misses"`
	HitRate        *float64  `json:"hit_rate"`
	HitRateHistory []float64 `json:"hit_rate_history"`
}

func (m *Monitor) summary(w http.ResponseWriter, _ *http.Request) {
	s := m.sim.Summary()

	rsp := summaryRsp{
		TotalAccesses:  s.TotalAccesses,
		Hits:           s.Hits,
		Misses:         s.Misses,
		HitRateHistory: s.HitRateHistory,
	}

	// Before the first access the hit rate is undefined; serve null
	// rather than NaN, which JSON cannot carry.
	if s.TotalAccesses > 0 {
		rsp.HitRate = &s.HitRate
	}

	m.writeJSON(w, rsp)
}

func (m *Monitor) frame(w http.ResponseWriter, r *http.Request) {
	indexStr := mux.Vars(r)["index"]

	index, err := strconv.Atoi(indexStr)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	record, err := m.sim.Record(index)
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	m.writeJSON(w, record)
}

func (m *Monitor) history(w http.ResponseWriter, _ *http.Request) {
	m.writeJSON(w, m.sim.Summary().HitRateHistory)
}

func (m *Monitor) heatmap(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["matrix"]

	var id gemm.MatrixID
	switch name {
	case "A", "a":
		id = gemm.MatrixA
	case "B", "b":
		id = gemm.MatrixB
	case "C", "c":
		id = gemm.MatrixC
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprintf(w, "Error: unknown matrix %q", name)
		return
	}

	m.writeJSON(w, m.sim.Heatmap(id))
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.writeJSON(w, m.progressBars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memoryInfo, err := proc.MemoryInfo()
	dieOnErr(err)

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

func (m *Monitor) state(w http.ResponseWriter, _ *http.Request) {
	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.sim)
	serializer.SetMaxDepth(1)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	m.writeJSON(w, prof)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(data)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
