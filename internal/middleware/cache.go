package middleware

import (
	"bytes"
	"net/http"

	"brokerscope/internal/cache"
)

// CacheStatusHeader reports whether a response came from the cache.
const CacheStatusHeader = "X-Cache"

// captureWriter buffers the body alongside writing it through.
type captureWriter struct {
	*responseWriter
	buf bytes.Buffer
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	n, err := cw.responseWriter.Write(b)
	cw.buf.Write(b[:n])
	return n, err
}

// CacheResponses serves GET requests from the response cache and stores
// successful JSON responses on a miss. A nil cache disables it.
func CacheResponses(c *cache.ResponseCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if c == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := cache.RequestKey(r)
			if body, ok := c.Get(r.Context(), key); ok {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set(CacheStatusHeader, "HIT")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(body)
				return
			}

			w.Header().Set(CacheStatusHeader, "MISS")
			cw := &captureWriter{responseWriter: wrap(w)}
			next.ServeHTTP(cw, r)

			if cw.statusCode == http.StatusOK && cw.buf.Len() > 0 {
				c.Set(r.Context(), key, cw.buf.Bytes())
			}
		})
	}
}
