// Package archive keeps a local SQLite copy of every scraped article plus
// per-run bookkeeping, so an interrupted batch can resume without refetching
// and past runs stay inspectable. The CSV dataset remains the canonical
// output; the archive is a checkpoint.
package archive

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/notescrape/internal/dataset"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA busy_timeout = 10000;

CREATE TABLE IF NOT EXISTS runs (
    id            TEXT PRIMARY KEY,
    profile_url   TEXT NOT NULL,
    started_at    INTEGER NOT NULL,
    finished_at   INTEGER,
    article_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS articles (
    url             TEXT PRIMARY KEY,
    title           TEXT NOT NULL DEFAULT '',
    publish_date    TEXT NOT NULL DEFAULT '',
    body            TEXT NOT NULL DEFAULT '',
    price_tier      TEXT NOT NULL DEFAULT 'free',
    purchase_status TEXT NOT NULL DEFAULT 'free',
    raw_html        TEXT NOT NULL DEFAULT '',
    run_id          TEXT NOT NULL REFERENCES runs(id),
    scraped_at      INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_articles_run ON articles(run_id);
`

// sanitizer strips scripts and event handlers from archived page HTML while
// keeping the structural elements the formatter cares about, so archived
// pages can be reformatted offline.
var sanitizer = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("figure", "figcaption", "iframe", "time")
	p.AllowAttrs("src", "data-src").OnElements("iframe")
	p.AllowAttrs("datetime").OnElements("time")
	p.AllowAttrs("embedded-service", "data-name", "data-src", "class").Globally()
	return p
}()

// Store is the archive database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the archive at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Run records one scraping run.
type Run struct {
	ID           string
	ProfileURL   string
	StartedAt    int64
	FinishedAt   int64
	ArticleCount int
}

// InsertRun registers a new run.
func (s *Store) InsertRun(ctx context.Context, r *Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, profile_url, started_at) VALUES (?, ?, ?)`,
		r.ID, r.ProfileURL, r.StartedAt)
	if err != nil {
		return fmt.Errorf("archive: insert run: %w", err)
	}
	return nil
}

// FinishRun stamps a run complete with its final article count.
func (s *Store) FinishRun(ctx context.Context, id string, finishedAt int64, count int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, article_count = ? WHERE id = ?`,
		finishedAt, count, id)
	if err != nil {
		return fmt.Errorf("archive: finish run: %w", err)
	}
	return nil
}

// UpsertArticle stores a scraped record, replacing any earlier copy of the
// same URL. rawHTML is sanitised before storage.
func (s *Store) UpsertArticle(ctx context.Context, rec *dataset.Record, rawHTML, runID string, scrapedAt int64) error {
	if rec.URL == "" {
		return fmt.Errorf("archive: record without url")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO articles (url, title, publish_date, body, price_tier, purchase_status, raw_html, run_id, scraped_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			publish_date = excluded.publish_date,
			body = excluded.body,
			price_tier = excluded.price_tier,
			purchase_status = excluded.purchase_status,
			raw_html = excluded.raw_html,
			run_id = excluded.run_id,
			scraped_at = excluded.scraped_at`,
		rec.URL, rec.Title, rec.PublishDate, rec.Body,
		string(rec.PriceTier), string(rec.PurchaseStatus),
		sanitizer.Sanitize(rawHTML), runID, scrapedAt)
	if err != nil {
		return fmt.Errorf("archive: upsert %s: %w", rec.URL, err)
	}
	return nil
}

// ExistingURLs returns the set of article URLs already archived.
func (s *Store) ExistingURLs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT url FROM articles`)
	if err != nil {
		return nil, fmt.Errorf("archive: query urls: %w", err)
	}
	defer rows.Close()

	urls := make(map[string]struct{})
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("archive: scan url: %w", err)
		}
		urls[u] = struct{}{}
	}
	return urls, rows.Err()
}

// Article reads one archived article by URL, or nil when absent.
func (s *Store) Article(ctx context.Context, url string) (*dataset.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT url, title, publish_date, body, price_tier, purchase_status
		FROM articles WHERE url = ?`, url)

	var rec dataset.Record
	var tier, status string
	err := row.Scan(&rec.URL, &rec.Title, &rec.PublishDate, &rec.Body, &tier, &status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("archive: read %s: %w", url, err)
	}
	rec.PriceTier = dataset.PriceTier(tier)
	rec.PurchaseStatus = dataset.PurchaseStatus(status)
	return &rec, nil
}
