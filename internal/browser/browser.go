// Package browser owns the Chrome session used to render platform pages:
// launch or attach, open one stealth page that the whole run reuses, navigate
// with bounded timeouts, and hand back rendered HTML.
//
// One run drives one page sequentially. Manual-interaction phases are waited
// out by the caller through a gate, not by page timeouts.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Config configures the browser manager.
type Config struct {
	// Headless runs Chrome without a visible window. Manual-setup runs need
	// a visible browser, so the orchestrator forces this off when a human is
	// in the loop.
	Headless bool

	// RemoteURL attaches to an already-running Chrome via its WebSocket URL
	// instead of launching one.
	RemoteURL string

	// NavTimeout bounds a single navigation. Default: 60s.
	NavTimeout time.Duration

	// SettleDelay is a fixed wait after navigation for late-rendering
	// content. Default: 2s.
	SettleDelay time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.NavTimeout <= 0 {
		c.NavTimeout = 60 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 2 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager manages the Chrome lifecycle for one run.
type Manager struct {
	cfg     Config
	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewManager creates a Manager. Call Start to launch or attach.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start launches a local Chrome (or connects to RemoteURL).
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("browser: manager is closed")
	}

	log := m.cfg.Logger

	var wsURL string
	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().
			Headless(m.cfg.Headless).
			Set("disable-blink-features", "AutomationControlled").
			NoSandbox(true)

		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browser: launched local chrome", "headless", m.cfg.Headless)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("browser: connect: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		log.Warn("browser: ignore cert errors failed", "error", err)
	}

	m.browser = b
	return nil
}

// Close shuts down Chrome.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	if m.browser != nil {
		m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	return nil
}

// Session is the one page a run drives.
type Session struct {
	page *rod.Page
	cfg  Config
}

// NewSession opens the run's page with stealth applied.
func (m *Manager) NewSession(ctx context.Context) (*Session, error) {
	m.mu.Lock()
	b := m.browser
	m.mu.Unlock()
	if b == nil {
		return nil, fmt.Errorf("browser: not started")
	}

	page, err := stealth.Page(b)
	if err != nil {
		// Fall back to a plain page; stealth is best-effort.
		m.cfg.Logger.Warn("browser: stealth page failed, using plain page", "error", err)
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
		if err != nil {
			return nil, fmt.Errorf("browser: create page: %w", err)
		}
	}

	return &Session{page: page, cfg: m.cfg}, nil
}

// Navigate loads a URL, waits for the load event, and lets the page settle.
func (s *Session) Navigate(ctx context.Context, pageURL string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavTimeout)
	defer cancel()

	if err := s.page.Context(navCtx).Navigate(pageURL); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := s.page.Context(navCtx).WaitLoad(); err != nil {
		s.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("browser: settle interrupted: %w", ctx.Err())
	case <-time.After(s.cfg.SettleDelay):
	}
	return nil
}

// NavigateList loads the author's article listing page and returns its URL.
func (s *Session) NavigateList(ctx context.Context, profileURL string) (string, error) {
	listURL := strings.TrimRight(profileURL, "/") + "/all"
	if err := s.Navigate(ctx, listURL); err != nil {
		return "", err
	}
	return listURL, nil
}

// HTML returns the rendered document as outer HTML.
func (s *Session) HTML(ctx context.Context) (string, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("browser: get DOM: %w", err)
	}
	return res.Value.Str(), nil
}

// Title returns the current page title.
func (s *Session) Title(ctx context.Context) (string, error) {
	res, err := s.page.Context(ctx).Eval(`() => document.title`)
	if err != nil {
		return "", fmt.Errorf("browser: get title: %w", err)
	}
	return res.Value.Str(), nil
}

// Close closes the page.
func (s *Session) Close() error {
	if s.page != nil {
		return s.page.Close()
	}
	return nil
}
