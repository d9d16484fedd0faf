package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireAdminToken(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		configured string
		sent       string
		want       int
	}{
		{name: "valid token", configured: "s3cret", sent: "s3cret", want: http.StatusNoContent},
		{name: "wrong token", configured: "s3cret", sent: "guess", want: http.StatusUnauthorized},
		{name: "missing header", configured: "s3cret", sent: "", want: http.StatusUnauthorized},
		{name: "prefix of token", configured: "s3cret", sent: "s3c", want: http.StatusUnauthorized},
		{name: "admin api disabled", configured: "", sent: "anything", want: http.StatusNotFound},
		{name: "disabled with empty header", configured: "", sent: "", want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAdminToken(tt.configured)(ok)
			req := httptest.NewRequest(http.MethodDelete, "/api/admin/brokers/xtb", nil)
			if tt.sent != "" {
				req.Header.Set(AdminTokenHeader, tt.sent)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status: got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}
