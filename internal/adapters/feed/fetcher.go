package feed

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/sony/gobreaker"

	"github.com/okian/courtline/pkg/logger"
	"github.com/okian/courtline/pkg/metrics"
)

const (
	defaultTimeout         = 15 * time.Second
	defaultBreakerFailures = 3
	defaultBreakerCooldown = 60 * time.Second
	defaultMaxBody         = 16 << 20
	userAgent              = "courtline/1.0"
)

// Source names one feed. URL may be http(s), file:// or a plain path.
type Source struct {
	Name   string
	URL    string
	Format string
}

// HTTPFetcher retrieves feeds over HTTP or from disk. Each feed has its own
// circuit breaker so one failing sheet does not slow the others down.
type HTTPFetcher struct {
	client          *http.Client
	timeout         time.Duration
	breakerFailures uint32
	breakerCooldown time.Duration
	maxBody         int64
	log             logger.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// NewHTTPFetcher creates a fetcher.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:          &http.Client{},
		timeout:         defaultTimeout,
		breakerFailures: defaultBreakerFailures,
		breakerCooldown: defaultBreakerCooldown,
		maxBody:         defaultMaxBody,
		breakers:        make(map[string]*gobreaker.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.log == nil {
		f.log = logger.Named("feed")
	}
	return f
}

// Fetch retrieves and parses src into rows.
func (f *HTTPFetcher) Fetch(ctx context.Context, src Source) ([][]string, error) {
	start := time.Now()
	body, err := f.breaker(src.Name).Execute(func() (interface{}, error) {
		return f.read(ctx, src)
	})
	metrics.RecordFeedFetchLatency(src.Name, float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordFeedFetch(src.Name, "error")
		if !errors.Is(err, ErrFeedFetch) {
			err = fmt.Errorf("%w: %s: %w", ErrFeedFetch, src.Name, err)
		}
		return nil, err
	}

	rows, err := Parse(src.Format, body.([]byte))
	if err != nil {
		metrics.RecordFeedFetch(src.Name, "parse_error")
		return nil, fmt.Errorf("%s: %w", src.Name, err)
	}
	metrics.RecordFeedFetch(src.Name, "ok")
	f.log.Debug(ctx, "feed fetched", logger.String("feed", src.Name), logger.Int("rows", len(rows)),
		logger.Duration("elapsed", time.Since(start)))
	return rows, nil
}

// BreakerState reports the breaker state for a feed.
func (f *HTTPFetcher) BreakerState(name string) string {
	return f.breaker(name).State().String()
}

func (f *HTTPFetcher) breaker(name string) *gobreaker.CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := f.breakers[name]; ok {
		return cb
	}
	failures := f.breakerFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: f.breakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.log.Warn(context.Background(), "feed breaker state changed",
				logger.String("feed", name), logger.String("from", from.String()), logger.String("to", to.String()))
		},
	})
	f.breakers[name] = cb
	return cb
}

func (f *HTTPFetcher) read(ctx context.Context, src Source) ([]byte, error) {
	u, err := url.Parse(src.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFeedFetch, src.Name, err)
	}
	switch u.Scheme {
	case "http", "https":
		return f.get(ctx, src)
	case "file":
		return f.file(src.Name, u.Path)
	case "":
		return f.file(src.Name, src.URL)
	default:
		return nil, fmt.Errorf("%w: %s: unsupported scheme %q", ErrFeedFetch, src.Name, u.Scheme)
	}
}

func (f *HTTPFetcher) file(name, path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFeedFetch, name, err)
	}
	return b, nil
}

func (f *HTTPFetcher) get(ctx context.Context, src Source) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFeedFetch, src.Name, err)
	}
	req.Header.Set("Accept-Encoding", "gzip, br")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFeedFetch, src.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: status %d", ErrFeedFetch, src.Name, resp.StatusCode)
	}

	body, err := decode(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFeedFetch, src.Name, err)
	}
	defer body.Close()

	// One byte past the cap tells a truncated sheet from one that fits exactly.
	b, err := io.ReadAll(io.LimitReader(body, f.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFeedFetch, src.Name, err)
	}
	if int64(len(b)) > f.maxBody {
		return nil, fmt.Errorf("%w: %s: body exceeds %d bytes", ErrFeedFetch, src.Name, f.maxBody)
	}
	return b, nil
}

// decode unwraps Content-Encoding. The transport only decodes gzip itself
// when it set Accept-Encoding, which it does not here. Closing the result
// leaves resp.Body to the caller.
func decode(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "br":
		return io.NopCloser(brotli.NewReader(resp.Body)), nil
	case "", "identity":
		return io.NopCloser(resp.Body), nil
	default:
		return nil, fmt.Errorf("unknown content encoding %q", resp.Header.Get("Content-Encoding"))
	}
}
