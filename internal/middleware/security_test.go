package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecureHeaders(t *testing.T) {
	want := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Permissions-Policy":      "interest-cohort=()",
	}

	// Headers must be present on error responses too, since they are set
	// before the handler runs.
	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			h := SecureHeaders(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				writeError(w, status, "x")
			}))
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/brokers/xtb", nil))

			for header, v := range want {
				if got := rr.Header().Get(header); got != v {
					t.Errorf("%s: got %q, want %q", header, got, v)
				}
			}
			if rr.Header().Get("Content-Type") != "application/json" {
				t.Error("handler Content-Type should survive")
			}
		})
	}
}
