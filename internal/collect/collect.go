// Package collect pulls article links and per-article metadata out of parsed
// platform pages. Both operations are pure functions over the document: a
// page missing the expected elements yields defaults, never an error.
package collect

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/notescrape/internal/dataset"
)

const (
	// articleMarker is the path segment identifying an individual article.
	articleMarker = "/n/"
	// infoPath marks informational platform articles, excluded from scraping.
	infoPath = "/info/n/"
)

// identifier validates the article id following the marker.
var identifier = regexp.MustCompile(`/n/[A-Za-z0-9_-]+`)

// DefaultTitleSuffixes are the platform decorations stripped from page
// titles, tried in order.
var DefaultTitleSuffixes = []string{"｜note", "|note", " - note"}

// DefaultCurrencyMarkers flag a paid article when found in span text.
var DefaultCurrencyMarkers = []string{"￥", "¥", "円"}

// ValidLink reports whether href points at a genuine article: it carries the
// article marker followed by a well-formed identifier and is not an
// informational platform page.
func ValidLink(href string) bool {
	if href == "" {
		return false
	}
	if !strings.Contains(href, articleMarker) || strings.HasSuffix(href, articleMarker) {
		return false
	}
	if strings.Contains(href, infoPath) {
		return false
	}
	return identifier.MatchString(href)
}

// Links collects all valid article URLs from a rendered listing page,
// resolved against base with query and fragment stripped, deduplicated in
// first-seen order.
func Links(doc *goquery.Document, base string) []string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	var links []string

	doc.Find(`a[href*="/n/"]`).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || !ValidLink(href) {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := baseURL.ResolveReference(ref)
		abs.RawQuery = ""
		abs.Fragment = ""
		full := abs.String()
		if _, dup := seen[full]; dup {
			return
		}
		seen[full] = struct{}{}
		links = append(links, full)
	})

	return links
}

// Meta is the per-article metadata derivable without authenticated state.
type Meta struct {
	PublishDate    string
	PriceTier      dataset.PriceTier
	PurchaseStatus dataset.PurchaseStatus
}

// Metadata extracts publish date and price information from an article page.
// A paid article readable in the current session cannot be told apart from a
// free one, so paid pages report StatusPurchasedOrFree.
func Metadata(doc *goquery.Document) Meta {
	return MetadataWith(doc, DefaultCurrencyMarkers)
}

// MetadataWith is Metadata with a custom currency marker set.
func MetadataWith(doc *goquery.Document, currencyMarkers []string) Meta {
	m := Meta{
		PriceTier:      dataset.TierFree,
		PurchaseStatus: dataset.StatusFree,
	}

	if dt, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		m.PublishDate = strings.TrimSpace(dt)
	}

	doc.Find("span").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		for _, marker := range currencyMarkers {
			if strings.Contains(text, marker) {
				m.PriceTier = dataset.TierPaid
				m.PurchaseStatus = dataset.StatusPurchasedOrFree
				return false
			}
		}
		return true
	})

	return m
}

// Title strips the platform suffix from a raw page title.
func Title(pageTitle string) string {
	return TitleWith(pageTitle, DefaultTitleSuffixes)
}

// TitleWith is Title with a custom suffix list, tried in order; the first
// suffix found wins.
func TitleWith(pageTitle string, suffixes []string) string {
	for _, suffix := range suffixes {
		if idx := strings.Index(pageTitle, suffix); idx >= 0 {
			return strings.TrimSpace(pageTitle[:idx])
		}
	}
	return strings.TrimSpace(pageTitle)
}
