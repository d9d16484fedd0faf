package middleware

import (
	"net/http"
	"time"

	"brokerscope/internal/metrics"
)

// Metrics records request count and latency per chi route pattern, so
// /api/brokers/{slug} is one series regardless of the slug.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := wrap(w)
		next.ServeHTTP(wrapped, r)

		metrics.ObserveHTTP(routePattern(r), r.Method, wrapped.statusCode, time.Since(start))
	})
}
