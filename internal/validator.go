package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Prober checks that a resource exists without fetching its content.
type Prober interface {
	Probe(ctx context.Context, url string) error
}

// HTTPProber probes HTTP(S) URLs with HEAD and local paths with stat.
type HTTPProber struct {
	Client *http.Client
}

// Probe returns nil if url exists, an error wrapping ErrResourceUnavailable
// otherwise. Definite misses (missing file, 4xx other than 408 and 429)
// also wrap ErrResourceNotFound.
func (p *HTTPProber) Probe(ctx context.Context, url string) error {
	if !isHTTPURL(url) {
		fi, err := os.Stat(localPath(url))
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %w: %s", ErrResourceUnavailable, ErrResourceNotFound, url)
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrResourceUnavailable, url, err)
		}
		if fi.IsDir() {
			return fmt.Errorf("%w: %w: %s is a directory", ErrResourceUnavailable, ErrResourceNotFound, url)
		}
		return nil
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrResourceUnavailable, url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrResourceUnavailable, url, err)
	}
	resp.Body.Close()
	switch code := resp.StatusCode; {
	case code >= 200 && code <= 299:
		return nil
	case code >= 400 && code <= 499 && code != http.StatusRequestTimeout && code != http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w: %s returned %d", ErrResourceUnavailable, ErrResourceNotFound, url, code)
	default:
		return fmt.Errorf("%w: %s returned %d", ErrResourceUnavailable, url, code)
	}
}

// TrackSwap asks for one track to be pointed at URL.
type TrackSwap struct {
	Track TrackDescriptor
	URL   string
	// Validate requests an existence probe before swapping.
	Validate bool
}

// SwapReport lists the outcome of a batch swap.
type SwapReport struct {
	Swapped []TrackDescriptor
	Skipped []TrackDescriptor
}

// Validator probes alternate caption tracks and swaps the ones that exist.
type Validator struct {
	prober      Prober
	limiter     *rate.Limiter
	concurrency int
	probeTO     time.Duration
	loadTO      time.Duration
	logger      *slog.Logger

	mu sync.Mutex
	// cache holds successes and definite misses only.
	cache map[string]bool
}

// NewValidator creates a Validator from the probe settings.
func NewValidator(prober Prober, cfg ProbeConfig, logger *slog.Logger) *Validator {
	if prober == nil {
		prober = &HTTPProber{}
	}
	if logger == nil {
		logger = discardLogger()
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Validator{
		prober:      prober,
		limiter:     rate.NewLimiter(limit, burst),
		concurrency: concurrency,
		probeTO:     cfg.Timeout.Duration,
		loadTO:      cfg.TrackLoadTimeout.Duration,
		logger:      logger,
		cache:       make(map[string]bool),
	}
}

// Forget drops cached probe results, used when the media item changes.
func (v *Validator) Forget() {
	v.mu.Lock()
	v.cache = make(map[string]bool)
	v.mu.Unlock()
}

// Validate reports whether url exists.
func (v *Validator) Validate(ctx context.Context, url string) bool {
	if url == "" {
		return false
	}
	v.mu.Lock()
	ok, cached := v.cache[url]
	v.mu.Unlock()
	if cached {
		return ok
	}
	if err := v.limiter.Wait(ctx); err != nil {
		return false
	}
	pctx := ctx
	if v.probeTO > 0 {
		var cancel context.CancelFunc
		pctx, cancel = context.WithTimeout(ctx, v.probeTO)
		defer cancel()
	}
	err := v.prober.Probe(pctx, url)
	ok = err == nil
	if err != nil {
		v.logger.Warn("caption track probe failed", "url", url, "error", err)
	}
	if ctx.Err() == nil && (ok || errors.Is(err, ErrResourceNotFound)) {
		v.mu.Lock()
		v.cache[url] = ok
		v.mu.Unlock()
	}
	return ok
}

// ValidateAll probes urls concurrently and returns the result per URL.
func (v *Validator) ValidateAll(ctx context.Context, urls []string) map[string]bool {
	results := make([]bool, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.concurrency)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = v.Validate(gctx, u)
			return nil
		})
	}
	_ = g.Wait()
	out := make(map[string]bool, len(urls))
	for i, u := range urls {
		out[u] = results[i]
	}
	return out
}

// SwapTracks swaps every entry of batch whose URL validates. Entries that do
// not validate, or whose replacement fails, keep their current URL and do
// not abort the rest of the batch.
func (v *Validator) SwapTracks(ctx context.Context, host TrackHost, batch []TrackSwap) SwapReport {
	var toProbe []string
	for _, ts := range batch {
		if ts.Validate && ts.URL != ts.Track.URL {
			toProbe = append(toProbe, ts.URL)
		}
	}
	valid := v.ValidateAll(ctx, toProbe)

	var report SwapReport
	for _, ts := range batch {
		if ts.URL == "" || ts.URL == ts.Track.URL {
			continue
		}
		if ts.Validate && !valid[ts.URL] {
			v.logger.Info("leaving caption track unchanged",
				"kind", ts.Track.Kind,
				"lang", ts.Track.Language,
				"url", ts.Track.URL,
				"candidate", ts.URL)
			report.Skipped = append(report.Skipped, ts.Track)
			continue
		}
		td, err := v.replace(ctx, host, ts)
		if err != nil {
			v.logger.Warn("caption track swap failed",
				"kind", ts.Track.Kind,
				"lang", ts.Track.Language,
				"candidate", ts.URL,
				"error", err)
			report.Skipped = append(report.Skipped, ts.Track)
			continue
		}
		report.Swapped = append(report.Swapped, td)
	}
	return report
}

// replace swaps one track and restores its display mode once the new track
// reports loaded or failed, bounded by the load timeout.
func (v *Validator) replace(ctx context.Context, host TrackHost, ts TrackSwap) (TrackDescriptor, error) {
	old := ts.Track.Track
	mode := old.Mode()
	nt, err := host.ReplaceTrack(ctx, old, ts.URL)
	if err != nil {
		return TrackDescriptor{}, err
	}
	if err := waitSignal(ctx, nt.Loaded(), v.loadTO); err != nil {
		v.logger.Debug("caption track load not confirmed", "url", ts.URL, "error", err)
	}
	nt.SetMode(mode)
	return newTrackDescriptor(nt), nil
}

// waitSignal waits for ch to deliver or close, bounded by timeout.
// A zero timeout waits until ctx is done.
func waitSignal(ctx context.Context, ch <-chan error, timeout time.Duration) error {
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}
	select {
	case err := <-ch:
		return err
	case <-timer:
		return ErrReadyTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}
