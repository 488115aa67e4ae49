// Package router wires up all API routes and applies the middleware chain
// (RequestID → CORS → Metrics → RateLimit → Timeout).
package router

import (
	"net/http"
	"time"

	ingesthandler "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/ingestion/handler"
	searchhandler "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/metrics"
	pkgmw "github.com/Adithya-Monish-Kumar-K/fulltext-index-service/pkg/middleware"
)

// Options carries the per-process knobs of the chain.
type Options struct {
	CORSOrigins    []string
	RateLimit      config.RateLimitConfig
	RequestTimeout time.Duration
}

// New builds the full HTTP handler with all routes and middleware.
//
// Route table:
//
//	POST   /api/v1/index/add             → add rows from an xlsx upload
//	POST   /api/v1/index/add-records     → add JSON records
//	POST   /api/v1/index/update          → upsert rows from an xlsx upload
//	POST   /api/v1/index/update-records  → upsert JSON records
//	POST   /api/v1/index/delete          → delete by exact field value
//	POST   /api/v1/index/drop            → drop a whole index
//	GET    /api/v1/search                → keyword search
//	GET    /api/v1/suggest               → single-field suggestions
//	GET    /health/live, /health/ready   → probes
//
// m may be nil, which skips the metrics middleware.
func New(search *searchhandler.Handler, write *ingesthandler.Handler, checker *health.Checker, m *metrics.Metrics, opts Options) http.Handler {
	mux := http.NewServeMux()

	checker.Mount(mux)
	search.Register(mux)
	write.Register(mux)

	// request → RequestID → CORS → Metrics → RateLimit → Timeout → mux
	var chain http.Handler = mux
	chain = pkgmw.Timeout(opts.RequestTimeout)(chain)
	chain = pkgmw.RateLimit(opts.RateLimit.RequestsPerSecond, opts.RateLimit.Burst)(chain)
	if m != nil {
		chain = pkgmw.Metrics(m)(chain)
	}
	chain = pkgmw.CORS(opts.CORSOrigins)(chain)
	chain = pkgmw.RequestID(chain)

	return chain
}
