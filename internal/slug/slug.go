// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation for broker names and
// blog titles, plus collision suffixing for the unique slug columns.
package slug

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, space, or hyphen.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// whitespace runs become a single hyphen.
	whitespace = regexp.MustCompile(`\s+`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Fallback is used when a name yields no slug characters at all.
const Fallback = "broker"

// maxAttempts bounds the number of suffixes Unique tries.
const maxAttempts = 100

// Generate creates a URL-friendly slug from the given string.
// Example: "IG Markets & Co. (UK)" → "ig-markets-and-co-uk"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = strings.ReplaceAll(result, "&", " and ")
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = whitespace.ReplaceAllString(result, "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// Candidate returns the n-th slug candidate for base: base itself for n <= 1,
// then base-2, base-3, ...
func Candidate(base string, n int) string {
	if n <= 1 {
		return base
	}
	return fmt.Sprintf("%s-%d", base, n)
}

// Unique generates a slug for name and suffixes it until taken reports the
// candidate as free. taken is typically a store lookup.
func Unique(ctx context.Context, name string, taken func(ctx context.Context, candidate string) (bool, error)) (string, error) {
	base := Generate(name)
	if base == "" {
		base = Fallback
	}
	for n := 1; n <= maxAttempts; n++ {
		c := Candidate(base, n)
		used, err := taken(ctx, c)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", c, err)
		}
		if !used {
			return c, nil
		}
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", name, maxAttempts)
}
