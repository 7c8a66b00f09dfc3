// Package notescrape extracts articles from a blogging platform's author
// pages and serializes them to CSV. A human handles what automation cannot
// (login, expanding the paginated article list); the pipeline handles the
// rest: collect links, render each article, format the content tree, merge
// into the dataset.
package notescrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/hazyhaar/notescrape/internal/archive"
	"github.com/hazyhaar/notescrape/internal/browser"
	"github.com/hazyhaar/notescrape/internal/collect"
	"github.com/hazyhaar/notescrape/internal/dataset"
	"github.com/hazyhaar/notescrape/internal/docfmt"
	"github.com/hazyhaar/notescrape/internal/gate"
	"github.com/hazyhaar/notescrape/internal/urldiff"
)

// ErrNoArticles is returned when the listing page yields no article links.
var ErrNoArticles = errors.New("no articles found")

// ErrManualTimeout is returned when the manual-setup wait hits its ceiling.
// The run terminates cleanly; the user may retry.
var ErrManualTimeout = errors.New("manual setup timed out")

// Result summarises a completed run.
type Result struct {
	OutputPath    string
	FileBytes     int64
	ExistingCount int
	CurrentCount  int
	NewCount      int
	TotalCount    int
}

// Scraper sequences the run: manual wait, collect, extract, format, store.
type Scraper struct {
	cfg    Config
	logger *slog.Logger
	differ *urldiff.Differ
	fmtr   *docfmt.Formatter
	arch   *archive.Store
}

// New validates configuration and builds a Scraper.
func New(cfg Config) (*Scraper, error) {
	cfg.applyDefaults()
	if cfg.ProfileURL == "" {
		return nil, fmt.Errorf("notescrape: profile URL is required")
	}

	differ, err := urldiff.New(cfg.Tuning.BaseURL)
	if err != nil {
		return nil, err
	}

	return &Scraper{
		cfg:    cfg,
		logger: cfg.Logger,
		differ: differ,
		fmtr:   docfmt.New(docfmt.Config{ContainerClasses: cfg.Tuning.ContainerClasses}),
	}, nil
}

// Run executes the configured run and writes the output dataset.
func (s *Scraper) Run(ctx context.Context) (*Result, error) {
	// Incremental mode reads the existing dataset before any browser work
	// so a missing input file fails fast.
	var existing *dataset.Dataset
	if s.cfg.ExistingCSV != "" {
		ds, err := dataset.Load(s.cfg.ExistingCSV)
		if err != nil {
			return nil, err
		}
		existing = ds
		s.logger.Info("loaded existing dataset",
			"path", s.cfg.ExistingCSV,
			"articles", ds.Stats.Total,
			"earliest", ds.Stats.Earliest,
			"latest", ds.Stats.Latest)
	}

	if s.cfg.ArchivePath != "" {
		arch, err := archive.Open(s.cfg.ArchivePath)
		if err != nil {
			return nil, err
		}
		defer arch.Close()
		s.arch = arch
	}

	mgr := browser.NewManager(browser.Config{
		Headless:    s.cfg.Headless,
		RemoteURL:   s.cfg.RemoteURL,
		NavTimeout:  s.cfg.Tuning.NavTimeout,
		SettleDelay: s.cfg.Tuning.SettleDelay,
		Logger:      s.logger,
	})
	if err := mgr.Start(ctx); err != nil {
		return nil, err
	}
	defer mgr.Close()

	session, err := mgr.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	current, err := s.collectLinks(ctx, session)
	if err != nil {
		return nil, err
	}
	if len(current) == 0 {
		return nil, ErrNoArticles
	}
	s.logger.Info("collected article links", "count", len(current))

	if existing == nil {
		return s.runFull(ctx, session, current)
	}
	return s.runIncremental(ctx, session, existing, current)
}

func (s *Scraper) runFull(ctx context.Context, session *browser.Session, urls []string) (*Result, error) {
	if s.cfg.ValidateURLs {
		urls = s.differ.Validate(urls)
		s.logger.Info("validated urls", "kept", len(urls))
	}

	records := s.scrapeArticles(ctx, session, urls)

	out := s.cfg.OutputPath
	if out == "" {
		out = fmt.Sprintf("articles_%s.csv", time.Now().Format("20060102_1504"))
	}
	res, err := dataset.Save(out, records)
	if err != nil {
		return nil, err
	}

	return &Result{
		OutputPath:   res.Path,
		FileBytes:    res.Bytes,
		CurrentCount: len(urls),
		NewCount:     len(records),
		TotalCount:   res.TotalCount,
	}, nil
}

func (s *Scraper) runIncremental(ctx context.Context, session *browser.Session, existing *dataset.Dataset, current []string) (*Result, error) {
	fresh := s.differ.CalculateNew(existing.Stats.ExistingURLs, current)
	if s.cfg.ValidateURLs {
		fresh = s.differ.Validate(fresh)
	}
	s.logger.Info("url diff",
		"existing", existing.Stats.Total,
		"current", len(current),
		"new", len(fresh))

	records := s.scrapeArticles(ctx, session, fresh)

	res, err := dataset.MergeAndSave(s.cfg.ExistingCSV, records, s.cfg.OutputPath)
	if err != nil {
		return nil, err
	}

	return &Result{
		OutputPath:    res.Path,
		FileBytes:     res.Bytes,
		ExistingCount: existing.Stats.Total,
		CurrentCount:  len(current),
		NewCount:      res.NewCount,
		TotalCount:    res.TotalCount,
	}, nil
}

// collectLinks opens the article list, waits out the manual phase, and
// collects every valid article link from the rendered page.
func (s *Scraper) collectLinks(ctx context.Context, session *browser.Session) ([]string, error) {
	listURL, err := session.NavigateList(ctx, s.cfg.ProfileURL)
	if err != nil {
		return nil, err
	}
	s.logger.Info("opened article list", "url", listURL)

	if s.cfg.ManualSetup {
		if err := s.waitManual(ctx); err != nil {
			return nil, err
		}
	}

	htmlSrc, err := session.HTML(ctx)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlSrc))
	if err != nil {
		return nil, fmt.Errorf("notescrape: parse listing: %w", err)
	}

	return collect.Links(doc, s.cfg.Tuning.BaseURL), nil
}

// waitManual blocks until any configured gate fires or the ceiling passes.
func (s *Scraper) waitManual(ctx context.Context) error {
	var gates gate.MultiGate
	if s.cfg.SignalFile != "" {
		gates = append(gates, &gate.FileGate{
			Path:     s.cfg.SignalFile,
			Interval: s.cfg.Tuning.PollInterval,
			Logger:   s.logger,
		})
	}
	if s.cfg.SignalAddr != "" {
		gates = append(gates, gate.NewHTTPGate(s.cfg.SignalAddr, s.logger))
	}
	if s.cfg.Prompt || len(gates) == 0 {
		gates = append(gates, &gate.PromptGate{})
	}

	s.logger.Info("manual setup: log in and expand the article list, then signal completion",
		"timeout", s.cfg.ManualTimeout)

	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.ManualTimeout)
	defer cancel()

	if err := gates.Wait(waitCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrManualTimeout
		}
		return err
	}
	s.logger.Info("manual setup complete")
	return nil
}

// scrapeArticles fetches each URL in sequence. A failure on one article
// yields an error record and never aborts the batch.
func (s *Scraper) scrapeArticles(ctx context.Context, session *browser.Session, urls []string) []dataset.Record {
	runID := uuid.NewString()
	if s.arch != nil {
		if err := s.arch.InsertRun(ctx, &archive.Run{
			ID:         runID,
			ProfileURL: s.cfg.ProfileURL,
			StartedAt:  time.Now().UnixMilli(),
		}); err != nil {
			s.logger.Warn("archive: run insert failed", "error", err)
		}
	}

	records := make([]dataset.Record, 0, len(urls))
	batches := urldiff.Batches(urls, s.cfg.BatchSize)
	n := 0
loop:
	for bi, batch := range batches {
		for _, articleURL := range batch {
			n++
			log := s.logger.With("url", articleURL, "n", n, "total", len(urls))

			rec, rawHTML, err := s.scrapeOne(ctx, session, articleURL)
			if err != nil {
				if ctx.Err() != nil {
					log.Warn("run interrupted")
					break loop
				}
				log.Warn("article fetch failed", "error", err)
				rec = errorRecord(articleURL, err)
			} else {
				log.Info("article scraped", "title", rec.Title, "body_len", len(rec.Body))
			}
			records = append(records, rec)

			if s.arch != nil {
				if err := s.arch.UpsertArticle(ctx, &rec, rawHTML, runID, time.Now().UnixMilli()); err != nil {
					log.Warn("archive: upsert failed", "error", err)
				}
			}

			if n < len(urls) {
				select {
				case <-ctx.Done():
				case <-time.After(s.cfg.Delay):
				}
			}
		}
		s.logger.Info("batch complete", "batch", bi+1, "batches", len(batches), "scraped", n)
	}

	if s.arch != nil {
		if err := s.arch.FinishRun(ctx, runID, time.Now().UnixMilli(), len(records)); err != nil {
			s.logger.Warn("archive: run finish failed", "error", err)
		}
	}
	return records
}

// scrapeOne renders one article page and derives a record from its tree.
func (s *Scraper) scrapeOne(ctx context.Context, session *browser.Session, articleURL string) (dataset.Record, string, error) {
	if err := session.Navigate(ctx, articleURL); err != nil {
		return dataset.Record{}, "", err
	}

	pageTitle, err := session.Title(ctx)
	if err != nil {
		return dataset.Record{}, "", err
	}

	htmlSrc, err := session.HTML(ctx)
	if err != nil {
		return dataset.Record{}, "", err
	}

	root, err := html.Parse(strings.NewReader(htmlSrc))
	if err != nil {
		return dataset.Record{}, htmlSrc, fmt.Errorf("notescrape: parse %s: %w", articleURL, err)
	}
	doc := goquery.NewDocumentFromNode(root)

	body := s.fmtr.Format(root)
	if body == "" && s.cfg.GenericFallback {
		if md, err := docfmt.GenericMarkdown(htmlSrc, articleURL); err == nil {
			body = md
		}
	}

	meta := collect.MetadataWith(doc, s.cfg.Tuning.CurrencyMarkers)

	return dataset.Record{
		URL:            s.differ.Normalize(articleURL),
		Title:          collect.TitleWith(pageTitle, s.cfg.Tuning.TitleSuffixes),
		PublishDate:    meta.PublishDate,
		Body:           body,
		PriceTier:      meta.PriceTier,
		PurchaseStatus: meta.PurchaseStatus,
	}, htmlSrc, nil
}

// errorRecord marks a failed fetch so the batch keeps its row for the URL.
func errorRecord(articleURL string, cause error) dataset.Record {
	return dataset.Record{
		URL:            articleURL,
		Title:          "error: " + cause.Error(),
		Body:           "fetch failed: " + cause.Error(),
		PriceTier:      dataset.TierFree,
		PurchaseStatus: dataset.StatusError,
	}
}
