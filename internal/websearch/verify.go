package websearch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Verification is the web evidence gathered for a broker.
type Verification struct {
	Name string `json:"name"`
	// Found is true when any result mentions the broker by name.
	Found bool `json:"found"`
	// OfficialSite is true when a result points at the broker's website.
	OfficialSite bool     `json:"official_site"`
	Results      []Result `json:"results"`
}

// VerifyBroker searches the web for a broker and checks the hits against
// its name and declared website.
func (c *Client) VerifyBroker(ctx context.Context, name, website string) (*Verification, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("broker name is required")
	}
	results, err := c.Search(ctx, fmt.Sprintf("%q broker regulation review", name), 10)
	if err != nil {
		return nil, err
	}

	v := &Verification{Name: name, Results: results}
	host := hostOf(website)
	lname := strings.ToLower(name)
	for _, r := range results {
		if strings.Contains(strings.ToLower(r.Title), lname) || strings.Contains(strings.ToLower(r.Snippet), lname) {
			v.Found = true
		}
		if host != "" && sameSite(hostOf(r.URL), host) {
			v.Found = true
			v.OfficialSite = true
		}
	}
	return v, nil
}

// hostOf returns the lowercase host of a URL without a leading "www.".
// Bare domains without a scheme are accepted.
func hostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// sameSite reports whether host is site or one of its subdomains.
func sameSite(host, site string) bool {
	return host == site || strings.HasSuffix(host, "."+site)
}
