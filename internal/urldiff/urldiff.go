// Package urldiff normalizes article URLs and computes which of a freshly
// collected set are not yet present in an existing collection.
//
// Normalization is idempotent: applying Normalize to its own output yields
// the same string. All comparisons in CalculateNew happen on normalized form.
package urldiff

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// DefaultBase is the origin relative hrefs are resolved against.
const DefaultBase = "https://note.com"

// infoPath marks informational platform articles that are excluded from
// collection even though they share the article URL shape.
const infoPath = "/info/n/"

// Differ normalizes and diffs article URL collections.
type Differ struct {
	base    *url.URL
	article *regexp.Regexp
}

// New creates a Differ resolving relative URLs against the given base origin.
// An empty base falls back to DefaultBase.
func New(base string) (*Differ, error) {
	if base == "" {
		base = DefaultBase
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("urldiff: parse base: %w", err)
	}
	pattern := `^https://` + regexp.QuoteMeta(u.Host) + `/[^/]+/n/[A-Za-z0-9_-]+$`
	return &Differ{base: u, article: regexp.MustCompile(pattern)}, nil
}

// Normalize resolves a raw href against the base origin, strips query string
// and fragment, and strips trailing slashes. Unparseable input yields "".
func (d *Differ) Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "/") {
		raw = d.base.ResolveReference(&url.URL{Path: raw}).String()
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u.RawQuery = ""
	u.Fragment = ""
	norm := u.Scheme + "://" + u.Host + u.Path
	return strings.TrimRight(norm, "/")
}

// CalculateNew normalizes current, removes duplicates preserving first-seen
// order, and filters out every URL already present in existing. The existing
// set may hold raw URLs; they are normalized before comparison.
func (d *Differ) CalculateNew(existing map[string]struct{}, current []string) []string {
	known := make(map[string]struct{}, len(existing))
	for u := range existing {
		if n := d.Normalize(u); n != "" {
			known[n] = struct{}{}
		}
	}

	seen := make(map[string]struct{}, len(current))
	var fresh []string
	for _, raw := range current {
		n := d.Normalize(raw)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		if _, ok := known[n]; ok {
			continue
		}
		fresh = append(fresh, n)
	}
	return fresh
}

// Validate keeps only URLs matching the canonical article shape, excluding
// informational platform articles.
func (d *Differ) Validate(urls []string) []string {
	var valid []string
	for _, raw := range urls {
		n := d.Normalize(raw)
		if n == "" {
			continue
		}
		if strings.Contains(n, infoPath) {
			continue
		}
		if d.article.MatchString(n) {
			valid = append(valid, n)
		}
	}
	return valid
}

// Batches splits urls into consecutive groups of at most size elements.
// A non-positive size yields a single batch.
func Batches(urls []string, size int) [][]string {
	if size <= 0 {
		if len(urls) == 0 {
			return nil
		}
		return [][]string{urls}
	}
	var batches [][]string
	for start := 0; start < len(urls); start += size {
		end := start + size
		if end > len(urls) {
			end = len(urls)
		}
		batches = append(batches, urls[start:end])
	}
	return batches
}

// Recent returns the first limit URLs, the order articles appear on the
// listing page (newest first).
func Recent(urls []string, limit int) []string {
	if limit <= 0 || len(urls) <= limit {
		return urls
	}
	return urls[:limit]
}
