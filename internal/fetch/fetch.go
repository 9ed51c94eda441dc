// package fetch retrieves card images, preferring the on-disk cache and
// falling back to rate-limited concurrent network fetches.
//
// The fetcher runs a bounded worker pool coordinated by a shared token-bucket
// limiter: the pool bounds how many requests are in flight, the limiter
// additionally throttles the issue rate even when workers are idle. Failures
// are per-unit; one exhausted retry budget never aborts the rest of the batch.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/cardforge/proxysheet/internal/resolve"
	"github.com/cardforge/proxysheet/internal/shared"
)

// FetchError reports a per-unit failure after all retries were exhausted.
type FetchError struct {
	Unit     resolve.ImageUnit
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %q face %d after %d attempts: %v",
		e.Unit.CardName, e.Unit.FaceIndex, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Result pairs an image unit with its fetched bytes or its failure.
type Result struct {
	Unit      resolve.ImageUnit
	Bytes     []byte
	FromCache bool
	Err       error
}

// Options configures a Fetcher.
type Options struct {
	RateLimit float64 // requests per second, shared across workers
	Workers   int     // maximum simultaneous in-flight requests
	Retries   int     // attempts per request beyond the first
	Backoff   time.Duration
	UserAgent string
	Client    *http.Client
	Cache     *DiskCache // nil disables caching
	Logger    *log.Logger
}

// Fetcher owns the HTTP client, the rate limiter, and the cache for one run.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	cache     *DiskCache
	logger    *log.Logger
	workers   int
	retries   int
	backoff   time.Duration
	userAgent string
}

// New creates a Fetcher. Zero or negative options fall back to defaults;
// worker counts are clamped to keep the remote service comfortable.
func New(opts Options) *Fetcher {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 10.0
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Workers > 10 {
		opts.Workers = 10
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 250 * time.Millisecond
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Fetcher{
		client:    opts.Client,
		limiter:   rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		cache:     opts.Cache,
		logger:    opts.Logger,
		workers:   opts.Workers,
		retries:   opts.Retries,
		backoff:   opts.Backoff,
		userAgent: opts.UserAgent,
	}
}

type keyJob struct {
	key  string
	unit resolve.ImageUnit
}

type keyResult struct {
	key       string
	bytes     []byte
	fromCache bool
	err       error
	attempts  int
}

// FetchAll ensures every unit has image bytes, returning results aligned with
// the input order. Units sharing a cache key are satisfied by a single fetch.
func (f *Fetcher) FetchAll(ctx context.Context, units []resolve.ImageUnit) []Result {
	jobs := make(chan keyJob, len(units))
	results := make(chan keyResult, len(units))

	seen := make(map[string]bool, len(units))
	distinct := 0
	for _, unit := range units {
		if seen[unit.CacheKey] {
			continue
		}
		seen[unit.CacheKey] = true
		jobs <- keyJob{key: unit.CacheKey, unit: unit}
		distinct++
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < f.workers; i++ {
		wg.Add(1)
		go f.worker(ctx, &wg, jobs, results)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	byKey := make(map[string]keyResult, distinct)
	for res := range results {
		byKey[res.key] = res
	}

	out := make([]Result, len(units))
	for i, unit := range units {
		res := byKey[unit.CacheKey]
		out[i] = Result{Unit: unit, Bytes: res.bytes, FromCache: res.fromCache}
		if res.err != nil {
			out[i].Err = &FetchError{Unit: unit, Attempts: res.attempts, Err: res.err}
		}
	}
	return out
}

// FetchOne retrieves the bytes for a single unit, using the same cache and
// rate-limit path as FetchAll. Incremental callers add cards one at a time.
func (f *Fetcher) FetchOne(ctx context.Context, unit resolve.ImageUnit) ([]byte, error) {
	data, _, attempts, err := f.fetchKey(ctx, unit.CacheKey, unit.URL)
	if err != nil {
		return nil, &FetchError{Unit: unit, Attempts: attempts, Err: err}
	}
	return data, nil
}

func (f *Fetcher) worker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan keyJob, results chan<- keyResult) {
	defer wg.Done()
	for job := range jobs {
		select {
		case <-ctx.Done():
			results <- keyResult{key: job.key, err: ctx.Err()}
			continue
		default:
		}

		data, fromCache, attempts, err := f.fetchKey(ctx, job.key, job.unit.URL)
		results <- keyResult{key: job.key, bytes: data, fromCache: fromCache, err: err, attempts: attempts}
	}
}

// fetchKey resolves one cache key: cache read first, then a rate-limited
// network fetch with bounded retries and exponential backoff. A successful
// fetch is persisted before returning; persistence failure only costs the
// next run its cache hit.
func (f *Fetcher) fetchKey(ctx context.Context, key, url string) (data []byte, fromCache bool, attempts int, err error) {
	if f.cache != nil {
		data, ok, err := f.cache.Get(key)
		if err != nil {
			f.logger.Warn("cache read failed, fetching from network", "key", key, "err", err)
		} else if ok {
			return data, true, 0, nil
		}
	}

	backoff := f.backoff
	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		attempts = attempt + 1
		if attempt > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, false, attempts, ctx.Err()
			}
			backoff *= 2
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return nil, false, attempts, err
		}

		data, retryable, err := f.request(ctx, url)
		if err == nil {
			if f.cache != nil {
				if err := f.cache.Put(key, data); err != nil {
					f.logger.Warn("failed to persist image to cache", "key", key, "err", err)
				}
			}
			return data, false, attempts, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, false, attempts, lastErr
}

// request performs one HTTP GET. The bool reports whether the failure is
// worth retrying; 4xx responses are not.
func (f *Fetcher) request(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return nil, false, fmt.Errorf("image request rejected: status %d", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, true, fmt.Errorf("image request failed: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response: %w", err)
	}
	return data, false, nil
}
