package healthcheck_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nchalkias/traffic-balancer/internal/backend"
	"github.com/nchalkias/traffic-balancer/internal/healthcheck"
	"github.com/nchalkias/traffic-balancer/internal/registry"
)

var _ = Describe("Checker", func() {
	var (
		log        *slog.Logger
		server     *httptest.Server
		statusCode atomic.Int32
		b          *backend.Backend
		reg        *registry.Registry
		checker    *healthcheck.Checker
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(os.Stdout, nil))
		statusCode.Store(http.StatusOK)

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.WriteHeader(int(statusCode.Load()))
		}))

		b = backend.New(mustParseURL(server.URL), 1)
		reg = registry.New([]*backend.Backend{b})

		checker = healthcheck.New(reg, healthcheck.Config{
			Path:        "/health",
			Interval:    50 * time.Millisecond,
			Timeout:     time.Second,
			MaxFailures: 3,
		}, nil, log)
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("RunOnce", func() {
		It("should promote an unhealthy backend on a single successful probe", func() {
			b.SetHealthy(false)
			b.RecordFailure()

			checker.RunOnce(context.Background())

			Expect(b.IsHealthy()).To(BeTrue())
			Expect(b.ConsecutiveFailures()).To(Equal(0))
		})

		It("should demote exactly on the maxFailures-th consecutive failure", func() {
			statusCode.Store(http.StatusInternalServerError)

			checker.RunOnce(context.Background())
			Expect(b.IsHealthy()).To(BeTrue())

			checker.RunOnce(context.Background())
			Expect(b.IsHealthy()).To(BeTrue())

			checker.RunOnce(context.Background())
			Expect(b.IsHealthy()).To(BeFalse())
		})

		It("should reset the failure streak on a success between failures", func() {
			statusCode.Store(http.StatusInternalServerError)
			checker.RunOnce(context.Background())
			checker.RunOnce(context.Background())

			statusCode.Store(http.StatusOK)
			checker.RunOnce(context.Background())
			Expect(b.ConsecutiveFailures()).To(Equal(0))

			statusCode.Store(http.StatusInternalServerError)
			checker.RunOnce(context.Background())
			checker.RunOnce(context.Background())
			Expect(b.IsHealthy()).To(BeTrue())
		})

		It("should treat connection errors as probe failures", func() {
			server.Close()

			checker.RunOnce(context.Background())
			Expect(b.ConsecutiveFailures()).To(Equal(1))
		})

		It("should accept any 2xx status", func() {
			statusCode.Store(http.StatusNoContent)
			b.SetHealthy(false)

			checker.RunOnce(context.Background())
			Expect(b.IsHealthy()).To(BeTrue())
		})
	})

	Describe("Run", func() {
		It("should probe on the configured interval until cancelled", func() {
			statusCode.Store(http.StatusServiceUnavailable)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			go checker.Run(ctx)

			Eventually(b.IsHealthy, time.Second, 10*time.Millisecond).Should(BeFalse())

			statusCode.Store(http.StatusOK)
			Eventually(b.IsHealthy, time.Second, 10*time.Millisecond).Should(BeTrue())
		})

		It("should stop when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())

			go checker.Run(ctx)
			time.Sleep(80 * time.Millisecond)
			cancel()
			time.Sleep(60 * time.Millisecond)
			// Should not panic
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
