package urldiff

import (
	"reflect"
	"testing"
)

func newDiffer(t *testing.T) *Differ {
	t.Helper()
	d, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestNormalize(t *testing.T) {
	d := newDiffer(t)

	cases := []struct {
		in, want string
	}{
		{"https://note.com/writer/n/nabc123", "https://note.com/writer/n/nabc123"},
		{"https://note.com/writer/n/nabc123/", "https://note.com/writer/n/nabc123"},
		{"https://note.com/writer/n/nabc123?magazine_key=m1", "https://note.com/writer/n/nabc123"},
		{"https://note.com/writer/n/nabc123#comments", "https://note.com/writer/n/nabc123"},
		{"/writer/n/nabc123", "https://note.com/writer/n/nabc123"},
		{"", ""},
		{"://bad", ""},
	}
	for _, c := range cases {
		if got := d.Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	d := newDiffer(t)
	inputs := []string{
		"https://note.com/writer/n/nabc123?ref=top#x",
		"/writer/n/nxyz789/",
	}
	for _, in := range inputs {
		once := d.Normalize(in)
		if twice := d.Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeCustomBase(t *testing.T) {
	d, err := New("https://notes.example.org")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := d.Normalize("/author/n/n123")
	want := "https://notes.example.org/author/n/n123"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCalculateNew(t *testing.T) {
	d := newDiffer(t)

	existing := map[string]struct{}{
		"https://note.com/writer/n/nold1?ref=csv": {},
		"https://note.com/writer/n/nold2/":        {},
	}
	current := []string{
		"https://note.com/writer/n/nnew1",
		"/writer/n/nold1", // known, relative form
		"https://note.com/writer/n/nnew2?from=list",
		"https://note.com/writer/n/nnew1/", // duplicate of nnew1 after normalization
		"https://note.com/writer/n/nold2",
	}

	got := d.CalculateNew(existing, current)
	want := []string{
		"https://note.com/writer/n/nnew1",
		"https://note.com/writer/n/nnew2",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestCalculateNew_AllKnown(t *testing.T) {
	d := newDiffer(t)
	existing := map[string]struct{}{"https://note.com/w/n/na": {}}
	if got := d.CalculateNew(existing, []string{"/w/n/na", "https://note.com/w/n/na"}); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestValidate(t *testing.T) {
	d := newDiffer(t)

	urls := []string{
		"https://note.com/writer/n/nabc123",      // valid
		"https://note.com/info/n/nplatform",      // informational, excluded
		"https://note.com/writer/magazines/m123", // not an article
		"https://note.com/writer",                // profile page
		"https://elsewhere.com/writer/n/nabc",    // wrong host
		"/writer/n/n_ok-42",                      // relative, valid after normalization
		"https://note.com/writer/n/nabc123/extra", // trailing path segment
	}
	got := d.Validate(urls)
	want := []string{
		"https://note.com/writer/n/nabc123",
		"https://note.com/writer/n/n_ok-42",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestBatches(t *testing.T) {
	urls := []string{"a", "b", "c", "d", "e"}

	got := Batches(urls, 2)
	want := [][]string{{"a", "b"}, {"c", "d"}, {"e"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if got := Batches(urls, 0); !reflect.DeepEqual(got, [][]string{urls}) {
		t.Errorf("non-positive size should yield one batch, got %v", got)
	}
	if got := Batches(nil, 0); got != nil {
		t.Errorf("empty input should yield nil, got %v", got)
	}
	if got := Batches(nil, 3); got != nil {
		t.Errorf("empty input should yield nil, got %v", got)
	}
}

func TestRecent(t *testing.T) {
	urls := []string{"a", "b", "c"}

	if got := Recent(urls, 2); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("got %v", got)
	}
	if got := Recent(urls, 0); !reflect.DeepEqual(got, urls) {
		t.Errorf("limit 0 should keep everything, got %v", got)
	}
	if got := Recent(urls, 10); !reflect.DeepEqual(got, urls) {
		t.Errorf("limit beyond length should keep everything, got %v", got)
	}
}
