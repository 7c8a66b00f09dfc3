package docfmt

import (
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasClassToken reports whether the node's class list contains cls as an
// exact token.
func hasClassToken(n *html.Node, cls string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == cls {
			return true
		}
	}
	return false
}

// hasClassMarker reports whether any class token contains marker as a
// substring. Platform widget classes carry stable markers inside otherwise
// versioned class names.
func hasClassMarker(n *html.Node, marker string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if strings.Contains(c, marker) {
			return true
		}
	}
	return false
}

// flatText concatenates all descendant text, each segment trimmed, with no
// separator between segments.
func flatText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(n.Data))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// collapseSpace replaces every run of whitespace with a single space while
// keeping leading and trailing runs, so inline fragments keep the source's
// own spacing at element boundaries.
func collapseSpace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			sb.WriteByte(' ')
			space = false
		}
		sb.WriteRune(r)
	}
	if space {
		sb.WriteByte(' ')
	}
	return sb.String()
}

// findFirst returns the first node in document order matching the predicate,
// optionally counting the root itself.
func findFirst(root *html.Node, includeSelf bool, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	var walk func(*html.Node, bool)
	walk = func(n *html.Node, self bool) {
		if found != nil {
			return
		}
		if self && n.Type == html.ElementNode && match(n) {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, true)
		}
	}
	walk(root, includeSelf)
	return found
}

// firstByAtom returns the first descendant (or self) with one of the given tags.
func firstByAtom(root *html.Node, includeSelf bool, atoms ...atom.Atom) *html.Node {
	return findFirst(root, includeSelf, func(n *html.Node) bool {
		for _, a := range atoms {
			if n.DataAtom == a {
				return true
			}
		}
		return false
	})
}

// firstAnchor returns the first descendant-or-self anchor carrying an href.
func firstAnchor(root *html.Node) *html.Node {
	return findFirst(root, true, func(n *html.Node) bool {
		return n.DataAtom == atom.A && attr(n, "href") != ""
	})
}

// ancestorAnchor walks up from n looking for an enclosing anchor with href.
func ancestorAnchor(n *html.Node) *html.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.DataAtom == atom.A && attr(p, "href") != "" {
			return p
		}
	}
	return nil
}

// domainOf extracts the host of a URL, or "".
func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
