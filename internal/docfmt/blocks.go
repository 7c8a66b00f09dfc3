package docfmt

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockParts formats one direct child of the content container into zero or
// more output fragments. A panic while handling a node is swallowed: that
// node contributes nothing and the pass continues.
func (f *Formatter) blockParts(n *html.Node) (parts []string) {
	defer func() {
		if recover() != nil {
			parts = nil
		}
	}()

	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			return []string{t}
		}
		return nil
	}
	if n.Type != html.ElementNode {
		return nil
	}

	switch n.DataAtom {
	case atom.P:
		if s := f.inline(n); s != "" {
			return []string{s, BlockBreak}
		}

	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		if t := flatText(n); t != "" {
			return []string{"**" + t + "**", BlockBreak}
		}

	case atom.Blockquote:
		if t := flatText(n); t != "" {
			return []string{"> " + t, BlockBreak}
		}

	case atom.Hr:
		return []string{HorizontalRule, BlockBreak}

	case atom.Img:
		if s := imageMarkup(n); s != "" {
			return []string{s, BlockBreak}
		}

	case atom.Figure:
		return f.figureParts(n)

	case atom.Div:
		if s := f.resolveEmbed(n); s != "" {
			return []string{s, BlockBreak}
		}

	case atom.A:
		// A top-level anchor may be a banner; plain link rendering is the
		// fallback.
		if s := f.resolveEmbed(n); s != "" {
			return []string{s, BlockBreak}
		}
		if s := anchorMarkup(n); s != "" {
			return []string{s, BlockBreak}
		}

	case atom.Ul, atom.Ol:
		return f.listParts(n)
	}

	return nil
}

// figureParts handles figures: embed-service figures go through the embed
// cascade, plain figures emit their image plus an italicised caption.
func (f *Formatter) figureParts(n *html.Node) []string {
	if attr(n, "embedded-service") != "" {
		if s := f.resolveEmbed(n); s != "" {
			return []string{s, BlockBreak}
		}
		return nil
	}

	img := firstByAtom(n, false, atom.Img)
	if img == nil {
		return nil
	}
	markup := imageMarkup(img)
	if markup == "" {
		return nil
	}

	parts := []string{markup}
	if cap := firstByAtom(n, false, atom.Figcaption); cap != nil {
		if t := flatText(cap); t != "" {
			parts = append(parts, "*"+t+"*")
		}
	}
	return append(parts, BlockBreak)
}

// listParts emits one prefixed line per item and a single break after the
// whole list. Ordered lists keep a literal "1. " prefix, no auto-increment.
func (f *Formatter) listParts(n *html.Node) []string {
	prefix := "- "
	if n.DataAtom == atom.Ol {
		prefix = "1. "
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && c.DataAtom == atom.Li {
			if t := flatText(c); t != "" {
				parts = append(parts, prefix+t)
			}
			return
		}
		for gc := c.FirstChild; gc != nil; gc = gc.NextSibling {
			walk(gc)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return append(parts, BlockBreak)
}

// inline flattens a paragraph's direct children into one line. Fragments are
// concatenated without separators; boundary whitespace in the source text is
// preserved so adjacent words stay apart.
func (f *Formatter) inline(p *html.Node) string {
	var sb strings.Builder

	for c := p.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(collapseSpace(c.Data))
			continue
		}
		if c.Type != html.ElementNode {
			continue
		}

		switch c.DataAtom {
		case atom.Strong, atom.B:
			if t := flatText(c); t != "" {
				sb.WriteString("**" + t + "**")
			}
		case atom.Em, atom.I:
			if t := flatText(c); t != "" {
				sb.WriteString("*" + t + "*")
			}
		case atom.A:
			sb.WriteString(anchorMarkup(c))
		case atom.Br:
			sb.WriteString(BlockBreak)
		default:
			sb.WriteString(flatText(c))
		}
	}

	return strings.TrimSpace(sb.String())
}

// anchorMarkup renders an inline link. A link with no text renders its href
// as the text; a link with no href renders nothing.
func anchorMarkup(a *html.Node) string {
	href := attr(a, "href")
	if href == "" {
		return ""
	}
	text := flatText(a)
	if text == "" {
		text = href
	}
	return "[" + text + "](" + href + ")"
}

// imageMarkup renders an image. No src, no output.
func imageMarkup(img *html.Node) string {
	src := attr(img, "src")
	if src == "" {
		return ""
	}
	alt := attr(img, "alt")
	if alt == "" {
		alt = "image"
	}
	return "![" + alt + "](" + src + ")"
}
