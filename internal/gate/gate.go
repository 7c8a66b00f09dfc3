// Package gate abstracts waiting on a human to finish a browser-side step
// the automation cannot perform itself (login, expanding paginated lists).
//
// Completion is signalled out of band: a sentinel file, an interactive
// confirmation, or an HTTP request to a local endpoint. Every gate honours
// context cancellation so a stuck run can always be interrupted cleanly.
package gate

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// Gate blocks until a manual step is confirmed complete.
type Gate interface {
	Wait(ctx context.Context) error
}

// DefaultPollInterval is how often FileGate checks for its sentinel.
const DefaultPollInterval = 3 * time.Second

// FileGate waits for a sentinel file to appear, then consumes (deletes) it so
// the signal cannot fire twice. Path and interval are injected; nothing is
// hardcoded.
type FileGate struct {
	Path     string
	Interval time.Duration
	Logger   *slog.Logger
}

// Wait polls until the sentinel exists or the context is cancelled.
func (g *FileGate) Wait(ctx context.Context) error {
	interval := g.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	log := g.Logger
	if log == nil {
		log = slog.Default()
	}

	log.Info("gate: waiting for sentinel file", "path", g.Path, "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("gate: wait aborted: %w", ctx.Err())
		case <-ticker.C:
			if _, err := os.Stat(g.Path); err == nil {
				if err := os.Remove(g.Path); err != nil {
					log.Warn("gate: could not consume sentinel", "path", g.Path, "error", err)
				}
				log.Info("gate: sentinel observed", "path", g.Path)
				return nil
			}
		}
	}
}

// PromptGate waits for the user to press Enter.
type PromptGate struct {
	In  io.Reader
	Out io.Writer
}

// Wait prints the prompt and blocks on one line of input. The read happens
// in a goroutine so cancellation is still honoured; when cancellation wins,
// that goroutine stays pinned on the reader until the process exits, so a
// PromptGate must not be re-waited within one run.
func (g *PromptGate) Wait(ctx context.Context) error {
	in := g.In
	if in == nil {
		in = os.Stdin
	}
	out := g.Out
	if out == nil {
		out = os.Stderr
	}

	fmt.Fprintln(out, "Complete the manual step in the browser, then press Enter to continue.")

	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(in).ReadString('\n')
		done <- err
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("gate: wait aborted: %w", ctx.Err())
	case err := <-done:
		if err != nil && err != io.EOF {
			return fmt.Errorf("gate: read confirmation: %w", err)
		}
		return nil
	}
}

// MultiGate fires when any of its gates fires.
type MultiGate []Gate

// Wait runs all gates concurrently and returns the first result, cancelling
// the rest.
func (m MultiGate) Wait(ctx context.Context) error {
	if len(m) == 0 {
		return nil
	}

	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, len(m))
	for _, g := range m {
		go func(g Gate) { done <- g.Wait(waitCtx) }(g)
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("gate: wait aborted: %w", ctx.Err())
	case err := <-done:
		return err
	}
}
