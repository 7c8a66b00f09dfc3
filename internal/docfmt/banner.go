package docfmt

import (
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// shortTextLimit is the rune count under which an anchor's own text is still
// usable as a link label.
const shortTextLimit = 100

func runeLen(s string) int { return utf8.RuneCountInString(s) }

// bannerInfo composes the textual form of a banner: a visually distinct
// embedded link block with an optional title, description, and image. The
// scope node is searched for those parts in priority order. Banners without
// a target are dropped.
func bannerInfo(scope *html.Node, href string) string {
	if href == "" {
		return ""
	}

	title := bannerTitle(scope)
	desc := bannerDescription(scope)

	var alt string
	img := firstByAtom(scope, false, atom.Img)
	if img != nil {
		alt = attr(img, "alt")
	}

	label := title
	if label == "" {
		label = alt
	}

	switch {
	case img != nil && label != "":
		if desc != "" {
			return "[image-banner: " + label + " - " + desc + "](" + href + ")"
		}
		return "[image-banner: " + label + "](" + href + ")"
	case title != "" && desc != "":
		return "[banner: " + title + " - " + desc + "](" + href + ")"
	case title != "":
		return "[banner: " + title + "](" + href + ")"
	}

	// No usable title or image: degrade to a labeled plain link.
	domain := domainOf(href)
	if domain == "" {
		return "[link](" + href + ")"
	}
	if text := flatText(scope); text != "" && runeLen(text) < shortTextLimit {
		return "[link: " + text + "](" + href + ")"
	}
	return "[link: " + domain + "](" + href + ")"
}

// bannerTitle picks the banner title: headings first, then bold text, then a
// title-styled span.
func bannerTitle(scope *html.Node) string {
	if h := firstByAtom(scope, false, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6); h != nil {
		if t := flatText(h); t != "" {
			return t
		}
	}
	if b := firstByAtom(scope, false, atom.Strong, atom.B); b != nil {
		if t := flatText(b); t != "" {
			return t
		}
	}
	span := findFirst(scope, false, func(n *html.Node) bool {
		return n.DataAtom == atom.Span && hasClassMarker(n, "title")
	})
	if span != nil {
		return flatText(span)
	}
	return ""
}

// bannerDescription picks the banner description: the first paragraph, then
// any description-styled node.
func bannerDescription(scope *html.Node) string {
	if p := firstByAtom(scope, false, atom.P); p != nil {
		if t := flatText(p); t != "" {
			return t
		}
	}
	desc := findFirst(scope, false, func(n *html.Node) bool {
		return hasClassMarker(n, "description") || hasClassMarker(n, "desc")
	})
	if desc != nil {
		return flatText(desc)
	}
	return ""
}
