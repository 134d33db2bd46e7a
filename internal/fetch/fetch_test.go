package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(timeout time.Duration, retries int) *Client {
	return NewClient(Config{
		Timeout: timeout,
		Backoff: BackoffConfig{
			MaxRetries:      retries,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
		},
	})
}

func TestFetchFitsBuffer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "stopboard/1.0" {
			t.Errorf("unexpected user agent %q", ua)
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	buf := make([]byte, 64)
	res, err := newTestClient(time.Second, 0).Fetch(context.Background(), srv.URL, buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.Status)
	}
	if string(res.Body) != `{"data":[]}` || res.Truncated {
		t.Fatalf("unexpected result: body=%q truncated=%t", res.Body, res.Truncated)
	}
}

func TestFetchExactFitIsNotTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("01234567"))
	}))
	defer srv.Close()

	res, err := newTestClient(time.Second, 0).Fetch(context.Background(), srv.URL, make([]byte, 8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Truncated || string(res.Body) != "01234567" {
		t.Fatalf("unexpected result: body=%q truncated=%t", res.Body, res.Truncated)
	}
}

func TestFetchTruncates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789abcdef"))
	}))
	defer srv.Close()

	res, err := newTestClient(time.Second, 0).Fetch(context.Background(), srv.URL, make([]byte, 8))
	if err != nil {
		t.Fatalf("truncation must not be an error, got %v", err)
	}
	if !res.Truncated {
		t.Fatalf("expected Truncated to be set")
	}
	if string(res.Body) != "01234567" {
		t.Fatalf("body = %q, want first 8 bytes", res.Body)
	}
}

func TestFetchStatusError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	res, err := newTestClient(time.Second, 2).Fetch(context.Background(), srv.URL, make([]byte, 64))
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
	if res.Status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", res.Status)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("404 must not be retried, got %d requests", n)
	}
	if Classify(err) != "status" {
		t.Fatalf("Classify = %q, want status", Classify(err))
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	res, err := newTestClient(time.Second, 1).Fetch(context.Background(), srv.URL, make([]byte, 64))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(res.Body) != "ok" {
		t.Fatalf("body = %q, want ok", res.Body)
	}
}

func TestFetchTimeoutIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	_, err := newTestClient(50*time.Millisecond, 0).Fetch(context.Background(), srv.URL, make([]byte, 64))
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	var te *TransportError
	if !errors.As(err, &te) || te.URL != srv.URL {
		t.Fatalf("expected *TransportError for %s, got %#v", srv.URL, err)
	}
	if Classify(err) != "transport" {
		t.Fatalf("Classify = %q, want transport", Classify(err))
	}
}

func TestFetchRejectsEmptyBuffer(t *testing.T) {
	if _, err := newTestClient(time.Second, 0).Fetch(context.Background(), "http://127.0.0.1:1", nil); err == nil {
		t.Fatalf("expected an error for a zero-capacity buffer")
	}
}
