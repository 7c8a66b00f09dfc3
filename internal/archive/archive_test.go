package archive

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/notescrape/internal/dataset"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunLifecycle(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	run := &Run{ID: "run-1", ProfileURL: "https://note.com/writer", StartedAt: time.Now().Unix()}
	if err := s.InsertRun(ctx, run); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}
	if err := s.FinishRun(ctx, run.ID, time.Now().Unix(), 7); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
}

func TestUpsertArticleAndReadBack(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	run := &Run{ID: "run-1", ProfileURL: "https://note.com/writer", StartedAt: 1}
	if err := s.InsertRun(ctx, run); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}

	rec := &dataset.Record{
		Title:          "first pass",
		PublishDate:    "2024-03-10",
		Body:           "body text",
		PriceTier:      dataset.TierFree,
		PurchaseStatus: dataset.StatusFree,
		URL:            "https://note.com/writer/n/na",
	}
	if err := s.UpsertArticle(ctx, rec, "<p>hi</p>", run.ID, 2); err != nil {
		t.Fatalf("UpsertArticle: %v", err)
	}

	got, err := s.Article(ctx, rec.URL)
	if err != nil {
		t.Fatalf("Article: %v", err)
	}
	if got == nil {
		t.Fatal("article should exist")
	}
	if got.Title != "first pass" || got.PriceTier != dataset.TierFree {
		t.Errorf("read back: %+v", got)
	}

	// Second upsert of the same URL replaces, never duplicates.
	rec.Title = "second pass"
	rec.PriceTier = dataset.TierPaid
	rec.PurchaseStatus = dataset.StatusPurchasedOrFree
	if err := s.UpsertArticle(ctx, rec, "<p>hi</p>", run.ID, 3); err != nil {
		t.Fatalf("UpsertArticle again: %v", err)
	}

	got, err = s.Article(ctx, rec.URL)
	if err != nil {
		t.Fatalf("Article after upsert: %v", err)
	}
	if got.Title != "second pass" || got.PriceTier != dataset.TierPaid {
		t.Errorf("upsert did not replace: %+v", got)
	}

	urls, err := s.ExistingURLs(ctx)
	if err != nil {
		t.Fatalf("ExistingURLs: %v", err)
	}
	if len(urls) != 1 {
		t.Errorf("want exactly one URL after double upsert, got %v", urls)
	}
}

func TestUpsertArticleRequiresURL(t *testing.T) {
	s := openStore(t)
	err := s.UpsertArticle(context.Background(), &dataset.Record{Title: "no url"}, "", "run-1", 1)
	if err == nil {
		t.Fatal("expected error for record without url")
	}
}

func TestArticleAbsent(t *testing.T) {
	s := openStore(t)
	got, err := s.Article(context.Background(), "https://note.com/w/n/nmissing")
	if err != nil {
		t.Fatalf("Article: %v", err)
	}
	if got != nil {
		t.Errorf("want nil for absent article, got %+v", got)
	}
}

func TestExistingURLs(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if err := s.InsertRun(ctx, &Run{ID: "r", ProfileURL: "p", StartedAt: 1}); err != nil {
		t.Fatalf("InsertRun: %v", err)
	}
	want := []string{
		"https://note.com/w/n/na",
		"https://note.com/w/n/nb",
	}
	for _, u := range want {
		rec := &dataset.Record{URL: u, PriceTier: dataset.TierFree, PurchaseStatus: dataset.StatusFree}
		if err := s.UpsertArticle(ctx, rec, "", "r", 1); err != nil {
			t.Fatalf("UpsertArticle %s: %v", u, err)
		}
	}

	urls, err := s.ExistingURLs(ctx)
	if err != nil {
		t.Fatalf("ExistingURLs: %v", err)
	}
	for _, u := range want {
		if _, ok := urls[u]; !ok {
			t.Errorf("missing %s in %v", u, urls)
		}
	}
	if len(urls) != len(want) {
		t.Errorf("got %d urls, want %d", len(urls), len(want))
	}
}

func TestSanitizerStripsScripts(t *testing.T) {
	got := sanitizer.Sanitize(`<p>keep</p><script>alert(1)</script><iframe src="https://youtube.com/embed/x"></iframe>`)
	if strings.Contains(got, "script") || strings.Contains(got, "alert") {
		t.Errorf("script survived: %q", got)
	}
	if !strings.Contains(got, "keep") {
		t.Errorf("content lost: %q", got)
	}
	if !strings.Contains(got, "iframe") {
		t.Errorf("iframe should be kept for offline reformatting: %q", got)
	}
}
