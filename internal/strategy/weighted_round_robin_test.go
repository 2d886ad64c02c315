package strategy_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nchalkias/traffic-balancer/internal/backend"
	"github.com/nchalkias/traffic-balancer/internal/strategy"
)

var _ = Describe("WeightedRoundRobin", func() {
	var (
		strat    strategy.Strategy
		backends []*backend.Backend
	)

	BeforeEach(func() {
		strat = strategy.NewWeightedRoundRobinStrategy()
	})

	Context("with weights 5/3/2", func() {
		BeforeEach(func() {
			backends = []*backend.Backend{
				backend.New(mustParseURL("http://localhost:9001"), 5),
				backend.New(mustParseURL("http://localhost:9002"), 3),
				backend.New(mustParseURL("http://localhost:9003"), 2),
			}
		})

		It("should select each backend exactly weight times per full cycle", func() {
			counts := make(map[*backend.Backend]int)
			for i := 0; i < 10; i++ {
				b := strat.SelectBackend(backends)
				Expect(b).NotTo(BeNil())
				counts[b]++
			}

			Expect(counts[backends[0]]).To(Equal(5))
			Expect(counts[backends[1]]).To(Equal(3))
			Expect(counts[backends[2]]).To(Equal(2))
		})

		It("should interleave selections instead of bursting", func() {
			longestRun := 0
			run := 0
			var prev *backend.Backend

			for i := 0; i < 100; i++ {
				b := strat.SelectBackend(backends)
				if b == prev {
					run++
				} else {
					run = 1
					prev = b
				}
				if run > longestRun {
					longestRun = run
				}
			}

			// Weights 5/3/2 must not produce "AAAAA BBB CC"
			Expect(longestRun).To(BeNumerically("<", 5))
		})

		It("should hold proportions over many cycles", func() {
			counts := make(map[*backend.Backend]int)
			for i := 0; i < 1000; i++ {
				counts[strat.SelectBackend(backends)]++
			}

			Expect(counts[backends[0]]).To(Equal(500))
			Expect(counts[backends[1]]).To(Equal(300))
			Expect(counts[backends[2]]).To(Equal(200))
		})
	})

	Context("when a weight changes mid-stream", func() {
		It("should rebuild state and follow the new weights", func() {
			backends = []*backend.Backend{
				backend.New(mustParseURL("http://localhost:9001"), 5),
				backend.New(mustParseURL("http://localhost:9002"), 3),
				backend.New(mustParseURL("http://localhost:9003"), 2),
			}

			for i := 0; i < 7; i++ {
				strat.SelectBackend(backends)
			}

			backends[0].SetWeight(1)

			counts := make(map[*backend.Backend]int)
			for i := 0; i < 6; i++ {
				counts[strat.SelectBackend(backends)]++
			}

			Expect(counts[backends[0]]).To(Equal(1))
			Expect(counts[backends[1]]).To(Equal(3))
			Expect(counts[backends[2]]).To(Equal(2))
		})
	})

	Context("when the pool membership changes", func() {
		It("should rebuild state and spread over the remaining backends", func() {
			backends = []*backend.Backend{
				backend.New(mustParseURL("http://localhost:9001"), 1),
				backend.New(mustParseURL("http://localhost:9002"), 1),
				backend.New(mustParseURL("http://localhost:9003"), 1),
			}

			for i := 0; i < 10; i++ {
				strat.SelectBackend(backends)
			}

			shrunk := backends[:2]

			counts := make(map[*backend.Backend]int)
			for i := 0; i < 100; i++ {
				b := strat.SelectBackend(shrunk)
				Expect(shrunk).To(ContainElement(b))
				counts[b]++
			}

			Expect(counts[backends[0]]).To(Equal(50))
			Expect(counts[backends[1]]).To(Equal(50))
		})
	})

	Context("edge cases", func() {
		It("should return nil for empty backends", func() {
			Expect(strat.SelectBackend(nil)).To(BeNil())
		})

		It("should handle a single backend", func() {
			backends = []*backend.Backend{
				backend.New(mustParseURL("http://localhost:9001"), 10),
			}

			for i := 0; i < 10; i++ {
				Expect(strat.SelectBackend(backends)).To(Equal(backends[0]))
			}
		})

		It("should skip backends with zero weight", func() {
			backends = []*backend.Backend{
				backend.New(mustParseURL("http://localhost:9001"), 0),
				backend.New(mustParseURL("http://localhost:9002"), 5),
			}

			for i := 0; i < 20; i++ {
				Expect(strat.SelectBackend(backends)).To(Equal(backends[1]))
			}
		})

		It("should return nil when all backends have zero weight", func() {
			backends = []*backend.Backend{
				backend.New(mustParseURL("http://localhost:9001"), 0),
				backend.New(mustParseURL("http://localhost:9002"), 0),
			}

			Expect(strat.SelectBackend(backends)).To(BeNil())
		})
	})
})
