package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

var (
	// ErrTransport matches every TransportError via errors.Is.
	ErrTransport = errors.New("transport error")
	// ErrStatus matches every StatusError via errors.Is.
	ErrStatus = errors.New("unexpected http status")

	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
	errNoBuffer      = errors.New("receive buffer has zero capacity")
)

// TransportError covers connection, timeout, TLS and breaker failures.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: %s: %d", e.URL, ErrStatus, e.Code)
}
func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// Result describes one bounded GET. Body aliases the caller's buffer.
type Result struct {
	Body      []byte
	Status    int
	Truncated bool
}

// Fetcher performs one GET into a caller-supplied fixed-capacity buffer.
type Fetcher interface {
	Fetch(ctx context.Context, url string, buf []byte) (Result, error)
}

// BackoffConfig controls exponential backoff behaviour between attempts.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Config bundles the HTTP client and resilience settings.
type Config struct {
	Client    *http.Client
	Timeout   time.Duration
	UserAgent string
	Backoff   BackoffConfig
}

// Client is the production Fetcher. Each URL gets its own circuit breaker.
type Client struct {
	cfg Config

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

func NewClient(cfg Config) *Client {
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "stopboard/1.0"
	}
	if cfg.Backoff.InitialInterval <= 0 {
		cfg.Backoff.InitialInterval = 500 * time.Millisecond
	}
	return &Client{
		cfg:      cfg,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

// Fetch issues a GET for url bounded by the configured timeout and copies at
// most len(buf) bytes of the body into buf. A longer body sets Truncated and
// is otherwise still a success. Non-2xx responses return a *StatusError along
// with the Result carrying the status code.
func (c *Client) Fetch(ctx context.Context, url string, buf []byte) (Result, error) {
	if len(buf) == 0 {
		return Result{}, errNoBuffer
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.do(ctx, url)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return Result{Status: se.Code}, err
		}
		return Result{}, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	n, truncated, err := readBounded(resp.Body, buf)
	if err != nil {
		return Result{Status: resp.StatusCode}, &TransportError{URL: url, Err: err}
	}
	if truncated {
		log.Printf("WARN: fetch: body truncated (buf=%d) for %s", len(buf), url)
	}

	return Result{Body: buf[:n], Status: resp.StatusCode, Truncated: truncated}, nil
}

func (c *Client) breaker(url string) *gobreaker.CircuitBreaker {
	c.mu.Lock()
	defer c.mu.Unlock()

	cb, ok := c.breakers[url]
	if !ok {
		cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        url,
			MaxRequests: 1,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("WARN: fetch: breaker for %s %s -> %s", name, from, to)
			},
		})
		c.breakers[url] = cb
	}
	return cb
}

// do executes the request with retries, exponential backoff and the URL's
// circuit breaker. The returned response has a 2xx status.
func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	if c.cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if c.cfg.Backoff.MaxRetries < 0 || c.cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	cb := c.breaker(url)

	var attempt int
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		req.Header.Set("Accept", "application/json")

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := c.cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, &StatusError{URL: url, Code: resp.StatusCode}
			}
			return resp, nil
		})

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		if !retryable(err) || attempt >= c.cfg.Backoff.MaxRetries {
			return nil, err
		}

		delay := c.cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.cfg.Backoff.MaxInterval && c.cfg.Backoff.MaxInterval > 0 {
			delay = c.cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

// retryable excludes client errors other than 429.
func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return true
}

// readBounded fills buf from r. When buf fills up it reads one more byte to
// tell an exact fit from a truncated body.
func readBounded(r io.Reader, buf []byte) (int, bool, error) {
	n, err := io.ReadFull(r, buf)
	switch {
	case err == nil:
		var extra [1]byte
		more, _ := io.ReadFull(r, extra[:])
		return n, more > 0, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return n, false, nil
	default:
		return n, false, err
	}
}

// Classify maps a fetch error onto a short metrics label.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrStatus):
		return "status"
	default:
		return "transport"
	}
}
