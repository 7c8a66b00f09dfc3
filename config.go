package notescrape

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/notescrape/internal/collect"
	"github.com/hazyhaar/notescrape/internal/docfmt"
	"github.com/hazyhaar/notescrape/internal/urldiff"
)

// Config configures one scraping run.
type Config struct {
	// ProfileURL is the author page articles are collected from.
	ProfileURL string

	// ExistingCSV switches the run to incremental mode: only articles not
	// yet present in this dataset are scraped, and the output is the merge
	// of both.
	ExistingCSV string

	// OutputPath overrides the derived output file name.
	OutputPath string

	// Headless runs the browser without a window. Forced off while a manual
	// setup phase is enabled, since a human needs to see the page.
	Headless bool

	// ManualSetup pauses after opening the article list so a human can log
	// in and expand the paginated list. Completion is signalled through the
	// configured gates.
	ManualSetup bool

	// BatchSize is the archive checkpoint interval in articles.
	BatchSize int

	// ValidateURLs filters collected URLs down to the canonical article
	// shape before scraping.
	ValidateURLs bool

	// Delay between article fetches, to respect target-site load.
	Delay time.Duration

	// GenericFallback formats pages without a recognised content container
	// through the generic markdown converter instead of leaving the body
	// empty.
	GenericFallback bool

	// ArchivePath enables the SQLite article archive when non-empty.
	ArchivePath string

	// SignalFile is the sentinel file path confirming manual-step
	// completion. Empty disables the file gate.
	SignalFile string

	// SignalAddr, when non-empty, serves a local HTTP endpoint
	// (GET /status, POST /done) as an additional completion signal.
	SignalAddr string

	// Prompt enables interactive Enter-to-continue confirmation.
	Prompt bool

	// ManualTimeout is the ceiling on the manual-setup wait. Zero means the
	// default long ceiling; the wait is polled, never busy.
	ManualTimeout time.Duration

	// RemoteURL attaches to a running Chrome instead of launching one.
	RemoteURL string

	Tuning Tuning

	Logger *slog.Logger
}

// Tuning holds the platform-specific knobs, loadable from YAML so a platform
// markup change does not require a rebuild.
type Tuning struct {
	BaseURL          string   `yaml:"base_url"`
	ContainerClasses []string `yaml:"container_classes"`
	TitleSuffixes    []string `yaml:"title_suffixes"`
	CurrencyMarkers  []string `yaml:"currency_markers"`
	NavTimeout       time.Duration
	SettleDelay      time.Duration
	PollInterval     time.Duration
}

// UnmarshalYAML accepts durations in time.ParseDuration notation ("30s",
// "1.5s") rather than raw nanosecond integers.
func (t *Tuning) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		BaseURL          string   `yaml:"base_url"`
		ContainerClasses []string `yaml:"container_classes"`
		TitleSuffixes    []string `yaml:"title_suffixes"`
		CurrencyMarkers  []string `yaml:"currency_markers"`
		NavTimeout       string   `yaml:"nav_timeout"`
		SettleDelay      string   `yaml:"settle_delay"`
		PollInterval     string   `yaml:"poll_interval"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	t.BaseURL = raw.BaseURL
	t.ContainerClasses = raw.ContainerClasses
	t.TitleSuffixes = raw.TitleSuffixes
	t.CurrencyMarkers = raw.CurrencyMarkers

	for _, d := range []struct {
		src string
		dst *time.Duration
	}{
		{raw.NavTimeout, &t.NavTimeout},
		{raw.SettleDelay, &t.SettleDelay},
		{raw.PollInterval, &t.PollInterval},
	} {
		if d.src == "" {
			continue
		}
		v, err := time.ParseDuration(d.src)
		if err != nil {
			return fmt.Errorf("config: bad duration %q: %w", d.src, err)
		}
		*d.dst = v
	}
	return nil
}

// LoadTuning reads a YAML tuning file and fills unset fields with defaults.
func LoadTuning(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read tuning %s: %w", path, err)
	}
	var t Tuning
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("config: parse tuning %s: %w", path, err)
	}
	t.applyDefaults()
	return &t, nil
}

func (t *Tuning) applyDefaults() {
	if t.BaseURL == "" {
		t.BaseURL = urldiff.DefaultBase
	}
	if len(t.ContainerClasses) == 0 {
		t.ContainerClasses = docfmt.DefaultContainerClasses
	}
	if len(t.TitleSuffixes) == 0 {
		t.TitleSuffixes = collect.DefaultTitleSuffixes
	}
	if len(t.CurrencyMarkers) == 0 {
		t.CurrencyMarkers = collect.DefaultCurrencyMarkers
	}
	if t.NavTimeout <= 0 {
		t.NavTimeout = 60 * time.Second
	}
	if t.SettleDelay <= 0 {
		t.SettleDelay = 2 * time.Second
	}
	if t.PollInterval <= 0 {
		t.PollInterval = 3 * time.Second
	}
}

func (c *Config) applyDefaults() {
	c.Tuning.applyDefaults()
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.Delay <= 0 {
		c.Delay = 1500 * time.Millisecond
	}
	if c.ManualTimeout <= 0 {
		c.ManualTimeout = 2 * time.Hour
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.ManualSetup {
		// A human cannot interact with a window that does not exist.
		c.Headless = false
		if c.SignalFile == "" && c.SignalAddr == "" {
			c.Prompt = true
		}
	}
}
