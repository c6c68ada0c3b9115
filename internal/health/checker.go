// Package health probes the destination URLs of active links so dead
// destinations show up in logs and metrics. It never mutates link rows:
// a failing destination is the owner's call to disable.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/linkhubhq/linkhub/internal/links"
	"go.uber.org/zap"
)

// Config holds link probe configuration.
type Config struct {
	CheckInterval time.Duration
	ProbeTimeout  time.Duration
	BatchSize     int
}

// TargetLister returns active links whose destinations should be probed.
// Satisfied by links.Repository.
type TargetLister interface {
	ListActiveTargets(ctx context.Context, limit int) ([]links.ProbeTarget, error)
}

// MetricsRecordFunc is an optional callback for recording probe results.
type MetricsRecordFunc func(success bool)

// Checker runs periodic destination probes over the most recently
// touched active links.
type Checker struct {
	lister     TargetLister
	httpClient *http.Client
	cfg        Config
	onMetrics  MetricsRecordFunc
	mu         sync.Mutex
	failCounts map[int64]int
	logger     *zap.Logger
}

// New creates a new Checker.
func New(lister TargetLister, cfg Config, logger *zap.Logger) *Checker {
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 15 * time.Minute
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 200
	}
	return &Checker{
		lister:     lister,
		httpClient: &http.Client{Timeout: cfg.ProbeTimeout},
		cfg:        cfg,
		failCounts: make(map[int64]int),
		logger:     logger,
	}
}

// SetMetricsRecord configures the metrics recording callback.
func (h *Checker) SetMetricsRecord(fn MetricsRecordFunc) {
	h.onMetrics = fn
}

// Start runs the probe loop until ctx is cancelled.
func (h *Checker) Start(ctx context.Context) {
	ticker := time.NewTicker(h.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			probeCtx, cancel := context.WithTimeout(ctx, h.cfg.CheckInterval-time.Second)
			h.CheckAll(probeCtx)
			cancel()
		case <-ctx.Done():
			return
		}
	}
}

// CheckAll probes a batch of active link destinations with bounded concurrency.
func (h *Checker) CheckAll(ctx context.Context) {
	targets, err := h.lister.ListActiveTargets(ctx, h.cfg.BatchSize)
	if err != nil {
		h.logger.Error("health: list probe targets", zap.Error(err))
		return
	}

	sem := make(chan struct{}, 10)
	var wg sync.WaitGroup

	for _, t := range targets {
		wg.Add(1)
		go func(target links.ProbeTarget) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			success := h.probe(ctx, target.URL)

			if h.onMetrics != nil {
				h.onMetrics(success)
			}

			h.mu.Lock()
			if success {
				delete(h.failCounts, target.ID)
				h.mu.Unlock()
				return
			}
			h.failCounts[target.ID]++
			count := h.failCounts[target.ID]
			h.mu.Unlock()

			h.logger.Warn("health: link destination unreachable",
				zap.Int64("link_id", target.ID),
				zap.String("url", target.URL),
				zap.Int("consecutive_failures", count),
			)
		}(t)
	}

	wg.Wait()
}

// probe attempts HEAD then GET, returning true for any 2xx or 3xx response.
// Redirect-level responses count as alive: many short link destinations
// answer HEAD with a redirect.
func (h *Checker) probe(ctx context.Context, rawURL string) bool {
	ok, done := h.tryMethod(ctx, http.MethodHead, rawURL)
	if done {
		return ok
	}
	ok, _ = h.tryMethod(ctx, http.MethodGet, rawURL)
	return ok
}

// tryMethod performs one request. done is false when the result was
// inconclusive and a fallback method is worth attempting.
func (h *Checker) tryMethod(ctx context.Context, method, rawURL string) (ok, done bool) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return false, true
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return false, false
	}
	resp.Body.Close()
	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return true, true
	}
	// 405 on HEAD warrants a GET retry; anything else is conclusive.
	if method == http.MethodHead && resp.StatusCode == http.StatusMethodNotAllowed {
		return false, false
	}
	return false, true
}
