// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug derives URL slugs for courses and categories.
package slug

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen bounds a slug, numeric suffix included.
const MaxLen = 80

// fallback replaces titles with no usable characters.
const fallback = "item"

// maxAttempts bounds the numeric suffixes Unique tries.
const maxAttempts = 100

// Generate lowercases s, strips diacritics ("Café" becomes "cafe") and
// joins the remaining ASCII letter and digit runs with single hyphens.
// Long results are cut at a hyphen so no word is split.
func Generate(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return truncate(b.String(), MaxLen)
}

// truncate cuts s to at most n bytes, preferring the last hyphen boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	if i := strings.LastIndexByte(s, '-'); i > 0 {
		s = s[:i]
	}
	return strings.TrimRight(s, "-")
}

// Unique generates a slug from s and appends "-2", "-3", ... until exists
// reports it free. The base is shortened so the suffixed slug still fits
// MaxLen. An empty base becomes "item".
func Unique(ctx context.Context, s string, exists func(context.Context, string) (bool, error)) (string, error) {
	base := Generate(s)
	if base == "" {
		base = fallback
	}

	candidate := base
	for i := 2; i <= maxAttempts+1; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		suffix := "-" + strconv.Itoa(i)
		candidate = truncate(base, MaxLen-len(suffix)) + suffix
	}
	return "", fmt.Errorf("no free slug for %q after %d attempts", base, maxAttempts)
}
