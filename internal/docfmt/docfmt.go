// Package docfmt converts the content subtree of a rendered article page
// into a single text blob with a constrained inline markup: bold **x**,
// italic *x*, links [text](href), images ![alt](src), list prefixes, and a
// block-break marker separating logical lines.
//
// The formatter is a pure function over an immutable parsed tree. It never
// fails: a node it cannot make sense of contributes nothing, and a document
// without a recognised content container formats to the empty string.
package docfmt

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// BlockBreak is the structural token marking the start of a new line between
// formatted content units. Emitted as its own fragment; runs of consecutive
// breaks are preserved, not collapsed.
const BlockBreak = "→"

// HorizontalRule is the separator token emitted for hr elements.
const HorizontalRule = "===="

// DefaultContainerClasses name the platform content containers, tried in
// priority order; the first match wins.
var DefaultContainerClasses = []string{
	"note-common-styles__textnote-body",
	"note-common-styles__textnote-body-container",
}

// Config tunes the formatter for a platform.
type Config struct {
	// ContainerClasses are tried in order when locating the content root.
	ContainerClasses []string
}

func (c *Config) defaults() {
	if len(c.ContainerClasses) == 0 {
		c.ContainerClasses = DefaultContainerClasses
	}
}

// Formatter linearizes a content container into formatted text.
type Formatter struct {
	cfg Config
}

// New creates a Formatter.
func New(cfg Config) *Formatter {
	cfg.defaults()
	return &Formatter{cfg: cfg}
}

// Format locates the content container in a parsed document and formats it.
// Returns "" when no configured container class matches.
func (f *Formatter) Format(doc *html.Node) string {
	container := f.findContainer(doc)
	if container == nil {
		return ""
	}
	return f.FormatContainer(container)
}

// FormatContainer linearizes the direct children of a content container.
// Fragments are joined with newlines; block-break markers are fragments of
// their own, so each block contributes exactly one trailing break line.
func (f *Formatter) FormatContainer(container *html.Node) string {
	var parts []string
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		parts = append(parts, f.blockParts(c)...)
	}
	return strings.Join(parts, "\n")
}

// findContainer tries each configured container class in priority order.
func (f *Formatter) findContainer(doc *html.Node) *html.Node {
	for _, cls := range f.cfg.ContainerClasses {
		n := findFirst(doc, true, func(n *html.Node) bool {
			return n.DataAtom == atom.Div && hasClassToken(n, cls)
		})
		if n != nil {
			return n
		}
	}
	return nil
}
