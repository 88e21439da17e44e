package web

import (
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"churchconsole/internal/adapters/http/middleware"
	"churchconsole/internal/adapters/photo"
	"churchconsole/internal/application/workspace"
)

// Options configures the console HTTP surface.
type Options struct {
	Workspaces    *workspace.Registry
	Photos        *photo.Normalizer
	CSRFKey       []byte
	CORSOrigins   []string
	Limiter       *middleware.RateLimiter
	SlowRequest   time.Duration
	SessionMaxAge time.Duration
	Metrics       *middleware.RequestMetrics
	// Gatherer backs /metrics; nil serves the default registry.
	Gatherer prometheus.Gatherer
}

// server carries what the handlers share.
type server struct {
	workspaces    *workspace.Registry
	photos        *photo.Normalizer
	sessionMaxAge time.Duration
}

// NewMux wires HTTP handlers for the console.
// PRE: opts.Workspaces, opts.Photos, opts.Limiter are non-nil; CSRFKey is 32 bytes
func NewMux(opts Options) http.Handler {
	s := &server{
		workspaces:    opts.Workspaces,
		photos:        opts.Photos,
		sessionMaxAge: opts.SessionMaxAge,
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	s.registerRoutes(mux)

	// Request order: Timing -> CORS -> SecurityHeaders -> RateLimit -> CSRF -> Auth -> Mux
	return middleware.Chain(mux,
		middleware.Auth(opts.Workspaces),
		middleware.CSRF(opts.CSRFKey, trustedHosts(opts.CORSOrigins)),
		middleware.RateLimit(opts.Limiter),
		middleware.SecurityHeaders,
		middleware.CORS(opts.CORSOrigins),
		middleware.Timing(opts.Metrics, opts.SlowRequest),
	)
}

// trustedHosts reduces origins to the host:port form the CSRF check compares.
func trustedHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			hosts = append(hosts, u.Host)
		}
	}
	return hosts
}
