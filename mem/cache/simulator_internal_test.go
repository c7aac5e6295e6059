package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/tracelab/gemmcache/mem/addressing"
)

var _ = Describe("Simulator", func() {
	var (
		mockCtrl *gomock.Controller
		sim      *Simulator
	)

	// 1KB, 16B lines, 2-way: 32 sets, tags collide every 512B.
	geometry := Geometry{
		CacheSizeBytes:   1024,
		LineSizeBytes:    16,
		Associativity:    2,
		ElementSizeBytes: 8,
	}

	// addr returns an address in set 0 with the given tag.
	addr := func(tag uint64) uint64 {
		return tag * geometry.LineSizeBytes * geometry.NumSets()
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())

		var err error
		sim, err = NewSimulator(geometry)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should derive the geometry", func() {
		Expect(geometry.NumLines()).To(Equal(uint64(64)))
		Expect(geometry.NumSets()).To(Equal(uint64(32)))
	})

	It("should miss on a cold access and hit on the next", func() {
		Expect(sim.Access(addr(1))).To(Equal(Result{Hit: false}))
		Expect(sim.Access(addr(1))).To(Equal(Result{Hit: true}))
	})

	It("should hit anywhere within the same line", func() {
		Expect(sim.Access(0x40).Hit).To(BeFalse())
		Expect(sim.Access(0x4f).Hit).To(BeTrue())
	})

	It("should miss again after the tag is evicted", func() {
		sim.Access(addr(1))
		sim.Access(addr(2))
		// Set 0 is full; tag 3 evicts tag 1, the LRU line.
		Expect(sim.Access(addr(3))).To(Equal(Result{Evicted: true}))

		Expect(sim.Access(addr(1)).Hit).To(BeFalse())
	})

	It("should keep a recently touched line resident", func() {
		sim.Access(addr(1))
		sim.Access(addr(2))
		sim.Access(addr(1)) // tag 2 becomes LRU
		sim.Access(addr(3)) // evicts tag 2

		Expect(sim.Access(addr(1)).Hit).To(BeTrue())
		Expect(sim.Access(addr(2)).Hit).To(BeFalse())
	})

	It("should never hold more lines than the associativity", func() {
		for tag := uint64(0); tag < 100; tag++ {
			sim.Access(addr(tag))

			for _, set := range sim.Sets() {
				Expect(len(set.Lines)).To(
					BeNumerically("<=", int(geometry.Associativity)))
			}
		}
	})

	It("should keep sets independent", func() {
		sim.Access(addr(1))
		sim.Access(addr(1) + geometry.LineSizeBytes) // set 1

		Expect(sim.Access(addr(1)).Hit).To(BeTrue())
		Expect(sim.Access(addr(1) + geometry.LineSizeBytes).Hit).To(BeTrue())
	})

	It("should forget everything on reset", func() {
		sim.Access(addr(1))
		sim.Reset()

		Expect(sim.Access(addr(1)).Hit).To(BeFalse())
	})

	It("should reject non-power-of-two geometry", func() {
		bad := geometry
		bad.LineSizeBytes = 48

		_, err := NewSimulator(bad)
		Expect(err).To(MatchError(addressing.ErrInvalidCacheGeometry))
	})

	It("should reject associativity larger than the line count", func() {
		bad := Geometry{
			CacheSizeBytes:   1024,
			LineSizeBytes:    16,
			Associativity:    128,
			ElementSizeBytes: 8,
		}

		_, err := NewSimulator(bad)
		Expect(err).To(MatchError(addressing.ErrInvalidCacheGeometry))
	})

	It("should reject a line larger than the cache", func() {
		bad := Geometry{
			CacheSizeBytes:   64,
			LineSizeBytes:    128,
			Associativity:    1,
			ElementSizeBytes: 8,
		}

		_, err := NewSimulator(bad)
		Expect(err).To(MatchError(addressing.ErrInvalidCacheGeometry))
	})
})
