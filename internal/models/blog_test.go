package models

import (
	"strings"
	"testing"
	"time"
)

// TestBlogPostIsPublished verifies that a post is public only once its
// publish timestamp has passed.
func TestBlogPostIsPublished(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name        string
		publishedAt *time.Time
		want        bool
	}{
		{name: "draft", publishedAt: nil, want: false},
		{name: "published in the past", publishedAt: &past, want: true},
		{name: "published exactly now", publishedAt: &now, want: true},
		{name: "scheduled", publishedAt: &future, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &BlogPost{PublishedAt: tt.publishedAt}
			if got := p.IsPublished(now); got != tt.want {
				t.Errorf("IsPublished() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty body", "", 1},
		{"short body", "a few words only", 1},
		{"exactly one minute", strings.Repeat("word ", 200), 1},
		{"just over one minute", strings.Repeat("word ", 201), 2},
		{"five minutes", strings.Repeat("word ", 1000), 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReadingTime(tt.body); got != tt.want {
				t.Errorf("ReadingTime = %d, want %d", got, tt.want)
			}
		})
	}
}
