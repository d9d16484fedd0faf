package regulator

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const fcaPage = `<html><body>
<table>
  <thead><tr><th>Firm</th><th>Reference</th><th>Status</th></tr></thead>
  <tbody>
    <tr><td><a href="/firm/195355">IG Markets Ltd</a></td><td>195355</td><td>Authorised</td></tr>
    <tr><td><a href="/firm/100001">IG Old Markets Ltd</a></td><td>100001</td><td>No longer authorised</td></tr>
    <tr><td>Pepperstone Limited</td><td>684312</td><td>Authorised</td></tr>
  </tbody>
</table>
</body></html>`

const asicPage = `<html><body>
<ul>
  <li class="result"><span class="name">Pepperstone Group Limited</span>
      <span class="reference">414530</span><span class="status">Current</span></li>
  <li class="result"><a href="https://asic.example.com/afsl/999">Acme Capital Pty</a>
      <span class="status">Cancelled</span></li>
</ul>
</body></html>`

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Regulator
		wantErr bool
	}{
		{"FCA", FCA, false},
		{" cysec ", CySEC, false},
		{"Asic", ASIC, false},
		{"sec", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownRegulator) {
				t.Errorf("Parse(%q) error = %v, want ErrUnknownRegulator", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("Parse(%q) = (%q, %v), want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestLookupTableRegister(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(fcaPage))
	}))
	defer ts.Close()

	c := NewChecker(URLs{FCA: ts.URL + "/s/search"}, time.Second)

	tests := []struct {
		name         string
		broker       string
		wantLicensed bool
		wantMatches  int
	}{
		{name: "authorised firm", broker: "IG Markets", wantLicensed: true, wantMatches: 1},
		{name: "punctuation ignored", broker: "pepperstone limited.", wantLicensed: true, wantMatches: 1},
		{name: "only revoked entry", broker: "IG Old Markets", wantLicensed: false, wantMatches: 1},
		{name: "absent firm", broker: "XTB", wantLicensed: false, wantMatches: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := c.Lookup(context.Background(), FCA, tt.broker)
			if err != nil {
				t.Fatalf("Lookup: %v", err)
			}
			if gotQuery != tt.broker {
				t.Errorf("query = %q, want %q", gotQuery, tt.broker)
			}
			if res.Licensed != tt.wantLicensed {
				t.Errorf("Licensed = %v, want %v", res.Licensed, tt.wantLicensed)
			}
			if len(res.Matches) != tt.wantMatches {
				t.Errorf("matches = %+v, want %d", res.Matches, tt.wantMatches)
			}
		})
	}
}

func TestLookupResolvesLinks(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fcaPage))
	}))
	defer ts.Close()

	c := NewChecker(URLs{FCA: ts.URL + "/s/search"}, time.Second)
	res, err := c.Lookup(context.Background(), FCA, "IG Markets")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if want := ts.URL + "/firm/195355"; res.Matches[0].URL != want {
		t.Errorf("URL = %q, want %q", res.Matches[0].URL, want)
	}
	if res.Matches[0].Reference != "195355" {
		t.Errorf("Reference = %q", res.Matches[0].Reference)
	}
}

func TestLookupResultList(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("searchText")
		_, _ = w.Write([]byte(asicPage))
	}))
	defer ts.Close()

	c := NewChecker(URLs{ASIC: ts.URL}, time.Second)

	res, err := c.Lookup(context.Background(), ASIC, "Pepperstone")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if gotQuery != "Pepperstone" {
		t.Errorf("searchText = %q", gotQuery)
	}
	if !res.Licensed || len(res.Matches) != 1 || res.Matches[0].Reference != "414530" {
		t.Errorf("result = %+v", res)
	}

	res, err = c.Lookup(context.Background(), ASIC, "Acme Capital")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if res.Licensed {
		t.Error("cancelled entry must not count as licensed")
	}
	if len(res.Matches) != 1 || res.Matches[0].URL != "https://asic.example.com/afsl/999" {
		t.Errorf("matches = %+v", res.Matches)
	}
}

func TestLookupUnconfiguredRegister(t *testing.T) {
	c := NewChecker(URLs{FCA: "https://register.example.com"}, time.Second)
	if _, err := c.Lookup(context.Background(), CySEC, "XTB"); !errors.Is(err, ErrUnknownRegulator) {
		t.Errorf("error = %v, want ErrUnknownRegulator", err)
	}
}

func TestLookupUpstreamError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewChecker(URLs{CySEC: ts.URL}, time.Second)
	if _, err := c.Lookup(context.Background(), CySEC, "XTB"); err == nil {
		t.Fatal("expected an error for a 502 register response")
	}
}

func TestLookupRequiresName(t *testing.T) {
	c := NewChecker(URLs{FCA: "https://register.example.com"}, time.Second)
	if _, err := c.Lookup(context.Background(), FCA, " "); err == nil {
		t.Fatal("expected an error for an empty name")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct{ in, want string }{
		{"IG Markets Ltd.", "ig markets ltd"},
		{"  AT&T  Trading ", "atandt trading"},
		{"eToro (Europe)", "etoro europe"},
	}
	for _, tt := range tests {
		if got := normalize(tt.in); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
