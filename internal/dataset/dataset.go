// Package dataset persists article records as CSV, the exchange format the
// rest of the toolchain consumes. Files are written UTF-8 with a BOM so
// spreadsheet software opens them with the right encoding.
//
// The column order is fixed: sequence_number, publish_date, title, body,
// price_tier, purchase_status, url. Older exports without the url column are
// still readable; their rows simply contribute no known URLs.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const bom = "\uFEFF"

// Header is the fixed CSV column order.
var Header = []string{"sequence_number", "publish_date", "title", "body", "price_tier", "purchase_status", "url"}

// dateLayouts are tried in order when parsing publish dates for statistics.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Stats summarises a loaded dataset.
type Stats struct {
	Total        int
	Earliest     string // YYYY-MM-DD, "" when no parseable dates
	Latest       string
	HasURLColumn bool
	ExistingURLs map[string]struct{}
}

// Dataset is a loaded CSV file.
type Dataset struct {
	Records []Record
	Stats   Stats
}

// SaveResult reports the outcome of a write.
type SaveResult struct {
	Path       string
	Bytes      int64
	NewCount   int
	TotalCount int
}

// Load reads an existing CSV dataset. A missing file is an error: incremental
// runs must not silently start from scratch.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("dataset: read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return &Dataset{Stats: Stats{ExistingURLs: map[string]struct{}{}}}, nil
	}

	header := rows[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	_, hasURL := col["url"]

	ds := &Dataset{Stats: Stats{
		HasURLColumn: hasURL,
		ExistingURLs: make(map[string]struct{}),
	}}

	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	for _, row := range rows[1:] {
		rec := Record{
			PublishDate:    cell(row, "publish_date"),
			Title:          cell(row, "title"),
			Body:           cell(row, "body"),
			PriceTier:      PriceTier(cell(row, "price_tier")),
			PurchaseStatus: PurchaseStatus(cell(row, "purchase_status")),
			URL:            cell(row, "url"),
		}
		if n, err := strconv.Atoi(cell(row, "sequence_number")); err == nil {
			rec.Seq = n
		}
		if rec.URL != "" {
			ds.Stats.ExistingURLs[rec.URL] = struct{}{}
		}
		ds.Records = append(ds.Records, rec)
	}

	ds.Stats.Total = len(ds.Records)
	ds.Stats.Earliest, ds.Stats.Latest = dateRange(ds.Records)
	return ds, nil
}

// Save writes records to path, renumbering sequence numbers densely from 1.
func Save(path string, records []Record) (*SaveResult, error) {
	return write(path, records)
}

// MergeAndSave appends newRecords after the rows already in existingPath and
// writes the combined dataset. Sequence numbers are reassigned densely so the
// output never carries duplicates. An empty outputPath derives
// output/<base>_updated_<timestamp>.csv next to the working directory.
func MergeAndSave(existingPath string, newRecords []Record, outputPath string) (*SaveResult, error) {
	existing, err := Load(existingPath)
	if err != nil {
		return nil, err
	}

	if outputPath == "" {
		if err := os.MkdirAll("output", 0o755); err != nil {
			return nil, fmt.Errorf("dataset: create output dir: %w", err)
		}
		base := strings.TrimSuffix(filepath.Base(existingPath), filepath.Ext(existingPath))
		stamp := time.Now().Format("20060102_1504")
		outputPath = filepath.Join("output", fmt.Sprintf("%s_updated_%s.csv", base, stamp))
	}

	merged := append(existing.Records, newRecords...)
	res, err := write(outputPath, merged)
	if err != nil {
		return nil, err
	}
	res.NewCount = len(newRecords)
	return res, nil
}

func write(path string, records []Record) (*SaveResult, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.WriteString(bom); err != nil {
		return nil, fmt.Errorf("dataset: write bom: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Header); err != nil {
		return nil, fmt.Errorf("dataset: write header: %w", err)
	}
	for i, rec := range records {
		row := []string{
			strconv.Itoa(i + 1),
			rec.PublishDate,
			rec.Title,
			rec.Body,
			string(rec.PriceTier),
			string(rec.PurchaseStatus),
			rec.URL,
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("dataset: write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("dataset: flush %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("dataset: stat %s: %w", path, err)
	}

	return &SaveResult{
		Path:       path,
		Bytes:      info.Size(),
		TotalCount: len(records),
	}, nil
}

func dateRange(records []Record) (earliest, latest string) {
	var min, max time.Time
	for _, rec := range records {
		t, ok := parseDate(rec.PublishDate)
		if !ok {
			continue
		}
		if min.IsZero() || t.Before(min) {
			min = t
		}
		if max.IsZero() || t.After(max) {
			max = t
		}
	}
	if min.IsZero() {
		return "", ""
	}
	return min.Format("2006-01-02"), max.Format("2006-01-02")
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
