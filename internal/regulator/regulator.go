// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package regulator looks brokers up in the public registers of the
// financial regulators the site tracks (FCA, CySEC, ASIC). Register pages
// are fetched over HTTP and their result tables parsed with goquery.
package regulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"brokerscope/internal/metrics"
)

// ErrUnknownRegulator is returned for a regulator the checker has no
// register for.
var ErrUnknownRegulator = errors.New("unknown regulator")

// Regulator identifies a supported register.
type Regulator string

const (
	FCA   Regulator = "fca"
	CySEC Regulator = "cysec"
	ASIC  Regulator = "asic"
)

// Parse resolves a regulator name case-insensitively.
func Parse(name string) (Regulator, error) {
	switch Regulator(strings.ToLower(strings.TrimSpace(name))) {
	case FCA:
		return FCA, nil
	case CySEC:
		return CySEC, nil
	case ASIC:
		return ASIC, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRegulator, name)
}

// register describes how to query one regulator's search page.
type register struct {
	baseURL    string
	queryParam string
}

// Entry is one row of a register search result.
type Entry struct {
	Name      string `json:"name"`
	Reference string `json:"reference,omitempty"`
	Status    string `json:"status,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Active reports whether the entry's status does not mark the firm as
// removed from the register.
func (e Entry) Active() bool {
	s := strings.ToLower(e.Status)
	for _, w := range inactiveWords {
		if strings.Contains(s, w) {
			return false
		}
	}
	return true
}

var inactiveWords = []string{"no longer", "revoked", "withdrawn", "cancelled", "suspended", "unauthorised", "unauthorized"}

// Result is the outcome of a register lookup.
type Result struct {
	Regulator   Regulator `json:"regulator"`
	BrokerName  string    `json:"broker_name"`
	RegisterURL string    `json:"register_url"`
	Licensed    bool      `json:"licensed"`
	Matches     []Entry   `json:"matches"`
}

// Checker queries regulator registers.
type Checker struct {
	hc        *http.Client
	registers map[Regulator]register
}

// URLs holds the search page of each register.
type URLs struct {
	FCA   string
	CySEC string
	ASIC  string
}

// NewChecker builds a Checker. A register with an empty URL is treated as
// unknown.
func NewChecker(urls URLs, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	regs := map[Regulator]register{}
	if urls.FCA != "" {
		regs[FCA] = register{baseURL: urls.FCA, queryParam: "q"}
	}
	if urls.CySEC != "" {
		regs[CySEC] = register{baseURL: urls.CySEC, queryParam: "search"}
	}
	if urls.ASIC != "" {
		regs[ASIC] = register{baseURL: urls.ASIC, queryParam: "searchText"}
	}
	return &Checker{
		hc:        &http.Client{Timeout: timeout},
		registers: regs,
	}
}

// Lookup searches the regulator's register for brokerName. A broker is
// licensed when an active entry's name contains the searched name.
func (c *Checker) Lookup(ctx context.Context, reg Regulator, brokerName string) (*Result, error) {
	r, ok := c.registers[reg]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRegulator, reg)
	}
	brokerName = strings.TrimSpace(brokerName)
	if brokerName == "" {
		return nil, errors.New("broker name is required")
	}

	u, err := url.Parse(r.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse %s register url: %w", reg, err)
	}
	q := u.Query()
	q.Set(r.queryParam, brokerName)
	u.RawQuery = q.Encode()

	doc, err := c.fetch(ctx, string(reg), u.String())
	if err != nil {
		return nil, err
	}

	res := &Result{
		Regulator:   reg,
		BrokerName:  brokerName,
		RegisterURL: u.String(),
		Matches:     []Entry{},
	}
	want := normalize(brokerName)
	for _, e := range parseEntries(doc, u) {
		if !strings.Contains(normalize(e.Name), want) {
			continue
		}
		res.Matches = append(res.Matches, e)
		if e.Active() {
			res.Licensed = true
		}
	}
	return res, nil
}

func (c *Checker) fetch(ctx context.Context, service, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")
	req.Header.Set("User-Agent", "brokerscope/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		metrics.ObserveExternal("regulator_"+service, 0, time.Since(start))
		return nil, fmt.Errorf("fetch %s register: %w", service, err)
	}
	defer resp.Body.Close()
	metrics.ObserveExternal("regulator_"+service, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("fetch %s register: status %d", service, resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return nil, fmt.Errorf("parse %s register: %w", service, err)
	}
	return doc, nil
}

// parseEntries reads result rows from table bodies and from elements
// marked with a "result" class. Table rows are name, reference, status.
func parseEntries(doc *goquery.Document, base *url.URL) []Entry {
	var entries []Entry

	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}
		e := Entry{Name: cellText(cells.Eq(0))}
		if cells.Length() > 1 {
			e.Reference = cellText(cells.Eq(1))
		}
		if cells.Length() > 2 {
			e.Status = cellText(cells.Eq(2))
		}
		e.URL = link(cells.Eq(0), base)
		if e.Name != "" {
			entries = append(entries, e)
		}
	})

	doc.Find(".result, .search-result").Each(func(_ int, s *goquery.Selection) {
		name := cellText(s.Find(".name").First())
		if name == "" {
			name = cellText(s.Find("a").First())
		}
		if name == "" {
			return
		}
		entries = append(entries, Entry{
			Name:      name,
			Reference: cellText(s.Find(".reference").First()),
			Status:    cellText(s.Find(".status").First()),
			URL:       link(s, base),
		})
	})

	return entries
}

func cellText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// link returns the first href under s resolved against base.
func link(s *goquery.Selection, base *url.URL) string {
	href, ok := s.Find("a[href]").First().Attr("href")
	if !ok {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// normalize lowercases a firm name and drops punctuation so "IG Markets
// Ltd." and "ig markets ltd" compare equal.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		case r == '&':
			b.WriteString("and")
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
