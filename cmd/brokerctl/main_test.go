package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"brokerscope/internal/dedup"
	"brokerscope/internal/models"
)

// execute runs the CLI with args. Every case here fails before a database
// connection is needed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&app{})
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestArgumentErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"cleanup without names", []string{"cleanup"}, "at least one --name"},
		{"logo set missing url", []string{"logo", "set", "acme"}, "accepts 2 arg(s)"},
		{"logo set bad scheme", []string{"logo", "set", "acme", "ftp://cdn.example.com/a.png"}, "absolute http or https"},
		{"logo set relative", []string{"logo", "set", "acme", "/a.png"}, "absolute http or https"},
		{"logo upload missing file", []string{"logo", "upload", "acme", missing}, "open logo"},
		{"seed missing file", []string{"seed", "--file", missing}, missing},
		{"history bad limit", []string{"history", "--limit", "0"}, "--limit must be positive"},
		{"migrate extra args", []string{"migrate", "now"}, "unknown command"},
		{"unknown command", []string{"frobnicate"}, "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestStrictResult(t *testing.T) {
	tests := []struct {
		failed  int
		strict  bool
		wantErr bool
	}{
		{0, false, false},
		{0, true, false},
		{2, false, false},
		{2, true, true},
	}
	for _, tt := range tests {
		err := strictResult(tt.failed, tt.strict)
		if (err != nil) != tt.wantErr {
			t.Errorf("strictResult(%d, %v) = %v", tt.failed, tt.strict, err)
		}
		if err != nil && !errors.Is(err, errFailures) {
			t.Errorf("error %v should wrap errFailures", err)
		}
	}
}

func TestCheckLogoURL(t *testing.T) {
	for _, ok := range []string{"https://cdn.example.com/a.png", "http://example.com/logo.svg"} {
		if err := checkLogoURL(ok); err != nil {
			t.Errorf("checkLogoURL(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "example.com/a.png", "javascript:alert(1)", "https://"} {
		if err := checkLogoURL(bad); err == nil {
			t.Errorf("checkLogoURL(%q) accepted", bad)
		}
	}
}

func TestLoadSeedDefault(t *testing.T) {
	doc, err := loadSeed("")
	if err != nil {
		t.Fatalf("loadSeed: %v", err)
	}
	if len(doc.Brokers) == 0 {
		t.Error("default document has no brokers")
	}
}

func TestPrintDedupReport(t *testing.T) {
	keep := models.Broker{ID: uuid.New(), Name: "Acme", Slug: "acme"}
	dup := models.Broker{ID: uuid.New(), Name: "acme", Slug: "acme-2"}
	plan := dedup.Plan{Groups: []dedup.PlannedGroup{{Key: "acme", Keep: keep, Remove: []models.Broker{dup}}}}

	var dry bytes.Buffer
	printDedupReport(&dry, &dedup.Report{DryRun: true, Scanned: 2, Plan: plan})
	for _, want := range []string{"scanned 2 brokers, 1 duplicate groups, 1 deletions planned", "keep acme", "remove acme-2", "dry run"} {
		if !strings.Contains(dry.String(), want) {
			t.Errorf("dry run output missing %q:\n%s", want, dry.String())
		}
	}

	var applied bytes.Buffer
	printDedupReport(&applied, &dedup.Report{
		Scanned:  2,
		Plan:     plan,
		Outcomes: []dedup.Outcome{{ID: dup.ID, Name: dup.Name, Status: dedup.StatusFailure, Reason: "connection reset"}},
	})
	for _, want := range []string{"FAILED", "connection reset", "deleted 0, failed 1", "0 duplicate groups remain"} {
		if !strings.Contains(applied.String(), want) {
			t.Errorf("apply output missing %q:\n%s", want, applied.String())
		}
	}
}
