package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tracelab/gemmcache/simulation"
)

var _ = Describe("Monitor", func() {
	var (
		monitor *Monitor
		server  *httptest.Server
	)

	BeforeEach(func() {
		sim, err := simulation.New(simulation.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		sim.Run()

		monitor = NewMonitor()
		monitor.RegisterSimulation(sim)
		server = httptest.NewServer(monitor.router())
	})

	AfterEach(func() {
		server.Close()
	})

	get := func(path string) (*http.Response, map[string]any) {
		rsp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())

		body := map[string]any{}
		if rsp.StatusCode == http.StatusOK {
			err = json.NewDecoder(rsp.Body).Decode(&body)
			Expect(err).NotTo(HaveOccurred())
		}
		rsp.Body.Close()

		return rsp, body
	}

	It("should serve the configuration", func() {
		rsp, body := get("/api/config")

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["n"]).To(BeEquivalentTo(16))
		Expect(body["loop_order"]).To(Equal("KJI"))
		Expect(body["num_frames"]).To(BeEquivalentTo(4096))
	})

	It("should serve the run summary", func() {
		rsp, body := get("/api/summary")

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["total_accesses"]).To(BeEquivalentTo(12288))
		Expect(body["hits"]).To(BeEquivalentTo(12192))
		Expect(body["hit_rate"]).To(BeNumerically("~", 0.9921875, 1e-9))
	})

	It("should serve null hit rate before any access", func() {
		fresh, err := simulation.New(simulation.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		monitor.RegisterSimulation(fresh)

		rsp, body := get("/api/summary")

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["hit_rate"]).To(BeNil())
	})

	It("should serve frames", func() {
		rsp, body := get("/api/frame/0")

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
		Expect(body["frame"]).To(BeEquivalentTo(0))

		a := body["a"].(map[string]any)
		Expect(a["row"]).To(BeEquivalentTo(0))
		Expect(a["hit"]).To(BeFalse())
	})

	It("should 404 on out-of-range frames", func() {
		rsp, _ := get("/api/frame/4096")
		Expect(rsp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("should 400 on non-numeric frames", func() {
		rsp, _ := get("/api/frame/abc")
		Expect(rsp.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("should serve heatmaps", func() {
		rsp, err := http.Get(server.URL + "/api/heatmap/C")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))

		counts := []uint64{}
		Expect(json.NewDecoder(rsp.Body).Decode(&counts)).To(Succeed())
		Expect(counts).To(HaveLen(256))
		Expect(counts[0]).To(BeEquivalentTo(16))
	})

	It("should 404 on unknown heatmap matrices", func() {
		rsp, _ := get("/api/heatmap/D")
		Expect(rsp.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("should list progress bars", func() {
		bar := monitor.CreateProgressBar("classify", 4096)
		bar.IncrementFinished(4096)

		rsp, err := http.Get(server.URL + "/api/progress")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))

		bars := []map[string]any{}
		Expect(json.NewDecoder(rsp.Body).Decode(&bars)).To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0]["name"]).To(Equal("classify"))
		Expect(bars[0]["finished"]).To(BeEquivalentTo(4096))

		Expect(bar.IsCompleted()).To(BeTrue())

		monitor.CompleteProgressBar(bar)
	})
})
