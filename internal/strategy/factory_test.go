package strategy_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nchalkias/traffic-balancer/internal/strategy"
)

var _ = Describe("New", func() {
	DescribeTable("known strategy types",
		func(typ string) {
			strat, err := strategy.New(typ, time.Minute)
			Expect(err).NotTo(HaveOccurred())
			Expect(strat).NotTo(BeNil())
		},
		Entry("round robin", strategy.TypeRoundRobin),
		Entry("weighted round robin", strategy.TypeWeighted),
		Entry("sticky sessions", strategy.TypeSticky),
	)

	It("should reject unknown types", func() {
		strat, err := strategy.New("fastest", time.Minute)
		Expect(err).To(MatchError(strategy.ErrUnknownType))
		Expect(strat).To(BeNil())
	})

	It("should return fresh instances on every call", func() {
		a, _ := strategy.New(strategy.TypeRoundRobin, time.Minute)
		b, _ := strategy.New(strategy.TypeRoundRobin, time.Minute)
		Expect(a).NotTo(BeIdenticalTo(b))
	})
})
