package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

// HTTPGate serves a small local endpoint so the manual step can be confirmed
// from another terminal or a browser extension:
//
//	GET  /status  → {"waiting": true|false}
//	POST /done    → confirms the step, 204
type HTTPGate struct {
	Addr   string
	Logger *slog.Logger

	once sync.Once
	done chan struct{}
	srv  *http.Server
}

// NewHTTPGate creates an HTTPGate listening on addr (e.g. "127.0.0.1:8753").
func NewHTTPGate(addr string, logger *slog.Logger) *HTTPGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPGate{Addr: addr, Logger: logger, done: make(chan struct{})}
}

func (g *HTTPGate) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		waiting := true
		select {
		case <-g.done:
			waiting = false
		default:
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"waiting": waiting})
	})
	r.Post("/done", func(w http.ResponseWriter, _ *http.Request) {
		g.signal()
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func (g *HTTPGate) signal() {
	g.once.Do(func() { close(g.done) })
}

// Wait serves the endpoint until /done is hit or the context is cancelled.
func (g *HTTPGate) Wait(ctx context.Context) error {
	g.srv = &http.Server{Addr: g.Addr, Handler: g.router()}

	errCh := make(chan error, 1)
	go func() {
		if err := g.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	g.Logger.Info("gate: waiting for http signal", "addr", g.Addr)

	defer func() {
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		g.srv.Shutdown(shutCtx)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("gate: wait aborted: %w", ctx.Err())
	case err := <-errCh:
		return fmt.Errorf("gate: http listen %s: %w", g.Addr, err)
	case <-g.done:
		g.Logger.Info("gate: http signal received")
		return nil
	}
}
