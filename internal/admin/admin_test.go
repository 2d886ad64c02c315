package admin_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nchalkias/traffic-balancer/internal/admin"
	"github.com/nchalkias/traffic-balancer/internal/backend"
	"github.com/nchalkias/traffic-balancer/internal/balancer"
	"github.com/nchalkias/traffic-balancer/internal/registry"
	"github.com/nchalkias/traffic-balancer/internal/strategy"
)

var _ = Describe("Handler", func() {
	var (
		bal      *balancer.Balancer
		reg      *registry.Registry
		backends []*backend.Backend
		mux      *http.ServeMux
	)

	do := func(target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		return w
	}

	BeforeEach(func() {
		var err error
		bal, err = balancer.New(strategy.TypeRoundRobin, time.Minute)
		Expect(err).NotTo(HaveOccurred())

		backends = []*backend.Backend{
			backend.New(mustParseURL("http://localhost:9001"), 5),
		}
		reg = registry.New(backends)

		log := slog.New(slog.NewTextHandler(os.Stdout, nil))
		mux = http.NewServeMux()
		admin.NewHandler(log, bal, reg).Register(mux)
	})

	Describe("/admin/strategy", func() {
		It("should switch to a known strategy", func() {
			w := do("/admin/strategy?type=weighted")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(bal.StrategyType()).To(Equal(strategy.TypeWeighted))
		})

		It("should reject unknown strategy types", func() {
			w := do("/admin/strategy?type=fastest")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(bal.StrategyType()).To(Equal(strategy.TypeRoundRobin))
		})
	})

	Describe("/admin/weight", func() {
		It("should update a backend's weight", func() {
			w := do("/admin/weight?backend=localhost:9001&weight=7")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(backends[0].Weight()).To(Equal(7))
		})

		It("should answer 404 for an unknown backend", func() {
			w := do("/admin/weight?backend=localhost:9999&weight=7")

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})

		It("should reject a non-positive weight and keep the old value", func() {
			w := do("/admin/weight?backend=localhost:9001&weight=-1")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(backends[0].Weight()).To(Equal(5))
		})

		It("should reject a malformed weight", func() {
			w := do("/admin/weight?backend=localhost:9001&weight=heavy")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("/admin/session-timeout", func() {
		It("should update the session timeout", func() {
			w := do("/admin/session-timeout?seconds=120")

			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("should reject non-positive seconds", func() {
			w := do("/admin/session-timeout?seconds=0")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})

		It("should reject malformed seconds", func() {
			w := do("/admin/session-timeout?seconds=soon")

			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})
})

func mustParseURL(rawURL string) *url.URL {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	return u
}
