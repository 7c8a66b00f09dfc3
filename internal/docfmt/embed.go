package docfmt

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// externalArticleMarker appears in the class list of the platform's
// external-article banner widget.
const externalArticleMarker = "external-article"

// embedWrapperName is the data-name the platform puts on generic embed
// wrapper containers.
const embedWrapperName = "embedContainer"

// embedResolver is one strategy in the resolution cascade. Strategies are
// evaluated in order; the first non-empty result wins.
type embedResolver struct {
	name string
	fn   func(f *Formatter, n *html.Node) string
}

// embedResolvers returns the cascade in evaluation order. A function rather
// than a package var: resolveWrapper recurses back into resolveEmbed, which
// would otherwise make the slice initialization cyclic.
func embedResolvers() []embedResolver {
	return []embedResolver{
		{"external-widget", (*Formatter).resolveExternalWidget},
		{"wrapper", (*Formatter).resolveWrapper},
		{"service", (*Formatter).resolveService},
		{"anchor", (*Formatter).resolveAnchor},
		{"iframe", (*Formatter).resolveIframe},
		{"data-url", (*Formatter).resolveDataURL},
		{"image", (*Formatter).resolveImage},
	}
}

// resolveEmbed runs a container node through the resolution cascade.
// Returns "" when nothing recognisable is found.
func (f *Formatter) resolveEmbed(n *html.Node) string {
	for _, r := range embedResolvers() {
		if s := r.fn(f, n); s != "" {
			return s
		}
	}
	return ""
}

// resolveExternalWidget handles nodes whose class list marks them as the
// external-article banner widget.
func (f *Formatter) resolveExternalWidget(n *html.Node) string {
	if !hasClassMarker(n, externalArticleMarker) {
		return ""
	}
	return f.bannerWithin(n)
}

// resolveWrapper recurses into generic embed wrapper containers, taking the
// first descendant that resolves to something.
func (f *Formatter) resolveWrapper(n *html.Node) string {
	if attr(n, "data-name") != embedWrapperName && !hasClassMarker(n, "embed") {
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if s := f.resolveEmbed(c); s != "" {
			return s
		}
	}
	return ""
}

// resolveService handles nodes carrying a named embed-service attribute. A
// service other than the external-article kind prefixes the result with its
// name so the reader knows what was embedded.
func (f *Formatter) resolveService(n *html.Node) string {
	svc := attr(n, "embedded-service")
	if svc == "" {
		return ""
	}
	s := f.bannerWithin(n)
	if s == "" {
		return ""
	}
	if svc == externalArticleMarker {
		return s
	}
	return "[" + svc + "] " + s
}

// resolveAnchor extracts banner info from the first anchor in the node.
func (f *Formatter) resolveAnchor(n *html.Node) string {
	a := firstAnchor(n)
	if a == nil {
		return ""
	}
	return bannerInfo(a, attr(a, "href"))
}

// resolveIframe classifies an iframe by source domain and links to it.
func (f *Formatter) resolveIframe(n *html.Node) string {
	ifr := firstByAtom(n, true, atom.Iframe)
	if ifr == nil {
		return ""
	}
	src := attr(ifr, "src")
	if src == "" {
		src = attr(ifr, "data-src")
	}
	if src == "" {
		return ""
	}
	return "[" + classifyIframe(src) + "](" + src + ")"
}

// videoHosts and socialHosts drive iframe classification by source domain.
var (
	videoHosts  = []string{"youtube", "youtu.be", "vimeo", "nicovideo"}
	socialHosts = []string{"twitter", "x.com", "instagram", "facebook", "tiktok"}
)

func classifyIframe(src string) string {
	host := strings.ToLower(domainOf(src))
	for _, h := range videoHosts {
		if strings.Contains(host, h) {
			return "video-embed"
		}
	}
	for _, h := range socialHosts {
		if strings.Contains(host, h) {
			return "social-embed"
		}
	}
	return "generic-embed"
}

// resolveDataURL handles anchor-less nodes whose data attribute points at a
// URL. The node's flattened text labels the link when short enough.
func (f *Formatter) resolveDataURL(n *html.Node) string {
	var target string
	for _, key := range []string{"data-src", "data-url", "data-href"} {
		if v := attr(n, key); strings.HasPrefix(v, "http") {
			target = v
			break
		}
	}
	if target == "" {
		return ""
	}
	label := flatText(n)
	if label == "" || runeLen(label) >= shortTextLimit {
		label = domainOf(target)
	}
	if label == "" {
		return "[link](" + target + ")"
	}
	return "[link: " + label + "](" + target + ")"
}

// resolveImage handles nodes containing an image but no anchor. An enclosing
// anchor, when present, becomes the link target; otherwise the image itself
// is referenced through its alt or caption text.
func (f *Formatter) resolveImage(n *html.Node) string {
	img := firstByAtom(n, true, atom.Img)
	if img == nil {
		return ""
	}
	if a := ancestorAnchor(n); a != nil {
		return bannerInfo(a, attr(a, "href"))
	}
	src := attr(img, "src")
	if src == "" {
		return ""
	}
	label := attr(img, "alt")
	if label == "" {
		if cap := firstByAtom(n, false, atom.Figcaption); cap != nil {
			label = flatText(cap)
		}
	}
	if label == "" {
		return ""
	}
	return "[image-banner: " + label + "](" + src + ")"
}

// bannerWithin keys banner extraction off the first anchor inside the node,
// falling back to a data-src attribute when the widget carries no anchor.
func (f *Formatter) bannerWithin(n *html.Node) string {
	if a := firstAnchor(n); a != nil {
		return bannerInfo(a, attr(a, "href"))
	}
	if ds := attr(n, "data-src"); ds != "" {
		return bannerInfo(n, ds)
	}
	return ""
}
