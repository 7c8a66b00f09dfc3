package docfmt

import (
	"reflect"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parseDoc(t *testing.T, body string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader("<html><body>" + body + "</body></html>"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

// wrap puts inner inside the platform content container.
func wrap(inner string) string {
	return `<div class="note-common-styles__textnote-body">` + inner + `</div>`
}

func format(t *testing.T, inner string) string {
	t.Helper()
	f := New(Config{})
	return f.Format(parseDoc(t, wrap(inner)))
}

func TestFormat_NoContainer(t *testing.T) {
	f := New(Config{})
	if got := f.Format(parseDoc(t, `<div class="something-else"><p>hi</p></div>`)); got != "" {
		t.Errorf("expected empty output without container, got %q", got)
	}
}

func TestFormat_ContainerPriorityOrder(t *testing.T) {
	f := New(Config{})
	body := `<div class="note-common-styles__textnote-body-container"><p>fallback</p></div>` +
		wrap(`<p>primary</p>`)
	got := f.Format(parseDoc(t, body))
	if !strings.Contains(got, "primary") || strings.Contains(got, "fallback") {
		t.Errorf("first-priority container should win, got %q", got)
	}
}

func TestFormat_ParagraphWithBold(t *testing.T) {
	got := format(t, `<p>A <b>B</b> C</p>`)
	want := "A **B** C\n" + BlockBreak
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormat_ParagraphStrongAndEm(t *testing.T) {
	got := format(t, `<p><strong>bold</strong> and <em>soft</em></p>`)
	want := "**bold** and *soft*\n" + BlockBreak
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormat_ParagraphLink(t *testing.T) {
	got := format(t, `<p><a href="https://example.com/x">text</a></p>`)
	want := "[text](https://example.com/x)\n" + BlockBreak
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormat_ParagraphBareLink(t *testing.T) {
	got := format(t, `<p><a href="https://example.com/x"></a></p>`)
	want := "[https://example.com/x](https://example.com/x)\n" + BlockBreak
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormat_ParagraphLineBreak(t *testing.T) {
	got := format(t, `<p>one<br>two</p>`)
	want := "one" + BlockBreak + "two\n" + BlockBreak
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormat_TwoParagraphsBreakStructure(t *testing.T) {
	got := format(t, `<p>First.</p><p>Second.</p>`)
	lines := strings.Split(got, "\n")
	want := []string{"First.", BlockBreak, "Second.", BlockBreak}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("got lines %v, want %v", lines, want)
	}
}

func TestFormat_EmptyParagraphContributesNothing(t *testing.T) {
	got := format(t, `<p></p><p>real</p>`)
	want := "real\n" + BlockBreak
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormat_Heading(t *testing.T) {
	got := format(t, `<h2>Chapter</h2>`)
	want := "**Chapter**\n" + BlockBreak
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormat_Blockquote(t *testing.T) {
	got := format(t, `<blockquote>wisdom</blockquote>`)
	want := "> wisdom\n" + BlockBreak
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormat_HorizontalRule(t *testing.T) {
	got := format(t, `<hr>`)
	want := HorizontalRule + "\n" + BlockBreak
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormat_Image(t *testing.T) {
	got := format(t, `<img src="https://img.example.com/a.png" alt="cover">`)
	want := "![cover](https://img.example.com/a.png)\n" + BlockBreak
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormat_ImageWithoutSrcDropped(t *testing.T) {
	if got := format(t, `<img alt="ghost">`); got != "" {
		t.Errorf("src-less image should contribute nothing, got %q", got)
	}
}

func TestFormat_FigureWithCaption(t *testing.T) {
	got := format(t, `<figure><img src="/a.png" alt="pic"><figcaption>the caption</figcaption></figure>`)
	lines := strings.Split(got, "\n")
	want := []string{"![pic](/a.png)", "*the caption*", BlockBreak}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("got lines %v, want %v", lines, want)
	}
}

func TestFormat_UnorderedList(t *testing.T) {
	got := format(t, `<ul><li>one</li><li>two</li></ul>`)
	lines := strings.Split(got, "\n")
	want := []string{"- one", "- two", BlockBreak}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("got lines %v, want %v", lines, want)
	}
}

func TestFormat_OrderedListNoAutoIncrement(t *testing.T) {
	got := format(t, `<ol><li>one</li><li>two</li></ol>`)
	lines := strings.Split(got, "\n")
	want := []string{"1. one", "1. two", BlockBreak}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("got lines %v, want %v", lines, want)
	}
}

func TestFormat_PlainTextNodeNoBreak(t *testing.T) {
	got := format(t, `loose text<p>para</p>`)
	lines := strings.Split(got, "\n")
	want := []string{"loose text", "para", BlockBreak}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("got lines %v, want %v", lines, want)
	}
}

func TestFormat_UnknownTagIgnored(t *testing.T) {
	got := format(t, `<table><tr><td>cell</td></tr></table><p>kept</p>`)
	want := "kept\n" + BlockBreak
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormat_EndToEndScenario(t *testing.T) {
	got := format(t, `<h2>Intro</h2><p>Read <a href="https://example.com">this</a> first.</p><img src="/cover.png" alt="cover">`)
	lines := strings.Split(got, "\n")
	want := []string{
		"**Intro**", BlockBreak,
		"Read [this](https://example.com) first.", BlockBreak,
		"![cover](/cover.png)", BlockBreak,
	}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("got lines %v, want %v", lines, want)
	}
}
