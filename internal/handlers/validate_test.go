package handlers

import (
	"strings"
	"testing"
)

func TestValidateStruct(t *testing.T) {
	type sample struct {
		Name  string   `json:"name" validate:"required,max=10"`
		Score *int     `json:"score" validate:"required,min=1,max=5"`
		ID    string   `json:"id" validate:"omitempty,uuid"`
		Site  string   `json:"site" validate:"omitempty,url"`
		Tags  []string `json:"tags" validate:"max=2"`
		Kind  string   `json:"kind" validate:"omitempty,oneof=a b"`
	}

	tests := []struct {
		name string
		in   sample
		want string
	}{
		{"valid", sample{Name: "ok", Score: ptr(3)}, ""},
		{"missing name", sample{Score: ptr(3)}, "name is required"},
		{"long name", sample{Name: strings.Repeat("x", 11), Score: ptr(3)}, "name must have at most 10 characters"},
		{"missing score", sample{Name: "ok"}, "score is required"},
		{"score too low", sample{Name: "ok", Score: ptr(0)}, "score must be at least 1"},
		{"score too high", sample{Name: "ok", Score: ptr(6)}, "score must be at most 5"},
		{"bad uuid", sample{Name: "ok", Score: ptr(3), ID: "nope"}, "id must be a valid UUID"},
		{"bad url", sample{Name: "ok", Score: ptr(3), Site: "not a url"}, "site must be a valid URL"},
		{"too many tags", sample{Name: "ok", Score: ptr(3), Tags: []string{"a", "b", "c"}}, "tags must have at most 2 items"},
		{"oneof", sample{Name: "ok", Score: ptr(3), Kind: "c"}, "kind must be one of: a, b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validateStruct(tt.in); got != tt.want {
				t.Errorf("validateStruct = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReviewRequestValidation(t *testing.T) {
	valid := createReviewRequest{BrokerID: "6f1c2b1e-8d3a-4e8f-9a51-2f0c6c1d7e11", Rating: ptr(4)}

	tests := []struct {
		name   string
		mutate func(*createReviewRequest)
		ok     bool
	}{
		{"valid", func(*createReviewRequest) {}, true},
		{"rating one", func(r *createReviewRequest) { r.Rating = ptr(1) }, true},
		{"rating five", func(r *createReviewRequest) { r.Rating = ptr(5) }, true},
		{"rating zero", func(r *createReviewRequest) { r.Rating = ptr(0) }, false},
		{"rating six", func(r *createReviewRequest) { r.Rating = ptr(6) }, false},
		{"rating missing", func(r *createReviewRequest) { r.Rating = nil }, false},
		{"broker missing", func(r *createReviewRequest) { r.BrokerID = "" }, false},
		{"comment too long", func(r *createReviewRequest) { r.Comment = strings.Repeat("a", 5001) }, false},
		{"empty user id", func(r *createReviewRequest) { r.UserID = ptr("") }, true},
		{"bad user id", func(r *createReviewRequest) { r.UserID = ptr("x") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			msg := validateStruct(req)
			if tt.ok && msg != "" {
				t.Errorf("unexpected failure: %s", msg)
			}
			if !tt.ok && msg == "" {
				t.Error("expected a validation failure")
			}
		})
	}
}
