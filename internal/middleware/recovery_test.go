// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRecovererReturnsJSONError(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"string", "nil map write"},
		{"int", 42},
		{"error", errors.New("store exploded")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)
			h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
				panic(tt.value)
			}))

			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/find-brokers-quiz", nil))

			if rr.Code != http.StatusInternalServerError {
				t.Errorf("status: got %d, want 500", rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type: got %q", ct)
			}
			var body map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("body %q: %v", rr.Body.String(), err)
			}
			if body["error"] != "internal server error" {
				t.Errorf("error: got %q", body["error"])
			}

			entry := decodeLine(t, buf)
			if entry["level"] != "error" || entry["path"] != "/api/find-brokers-quiz" {
				t.Errorf("log entry = %v", entry)
			}
			if stack, _ := entry["stack"].(string); stack == "" {
				t.Error("stack trace should be logged")
			}
		})
	}
}

func TestRecovererRepanicsAbort(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Errorf("recovered %v, want http.ErrAbortHandler", rec)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/market-news", nil))
	t.Error("ServeHTTP should have panicked")
}

func TestRecovererPassThrough(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Cache", "HIT")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/brokers", nil))

	if rr.Code != http.StatusOK || rr.Body.String() != `[]` {
		t.Errorf("got %d %q, want 200 []", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Cache") != "HIT" {
		t.Error("handler headers should be preserved")
	}
}
