package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSendAddsSigningHeaders(t *testing.T) {
	var (
		gotSig string
		gotTS  string
		gotEvt string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(HeaderSignature)
		gotTS = r.Header.Get(HeaderTimestamp)
		gotEvt = r.Header.Get(HeaderEvent)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(Config{
		SigningSecret:  "test-secret",
		Timeout:        2 * time.Second,
		MaxAttempts:    1,
		InitialBackoff: 10 * time.Millisecond,
		MaxBackoff:     20 * time.Millisecond,
	})

	err := client.Send(context.Background(), srv.URL, "job.completed", map[string]any{"job_id": "job-1"})
	if err != nil {
		t.Fatalf("send returned error: %v", err)
	}

	if gotSig == "" {
		t.Fatal("expected signature header")
	}
	if gotTS == "" {
		t.Fatal("expected timestamp header")
	}
	if gotEvt != "job.completed" {
		t.Fatalf("expected event header job.completed, got %q", gotEvt)
	}
}

func TestSendSignatureVerifies(t *testing.T) {
	var ok bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ok = Verify("s3cret", r.Header.Get(HeaderTimestamp), r.Header.Get(HeaderSignature), body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(Config{SigningSecret: "s3cret", MaxAttempts: 1})
	err := client.Send(context.Background(), srv.URL, EventJobCompleted, JobEvent{JobID: "job-1", SeamsRemoved: 3})
	if err != nil {
		t.Fatalf("send returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected signature to verify with the shared secret")
	}
	if Verify("other", "1", "sha256=00", []byte("{}")) {
		t.Fatal("expected mismatched signature to fail")
	}
}

func TestSendRetriesServerErrors(t *testing.T) {
	var (
		calls      atomic.Int32
		mu         sync.Mutex
		deliveries = map[string]bool{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		deliveries[r.Header.Get(HeaderDelivery)] = true
		mu.Unlock()
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})
	if err := client.Send(context.Background(), srv.URL, EventJobFailed, map[string]any{"job_id": "job-1"}); err != nil {
		t.Fatalf("expected delivery on third attempt, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if len(deliveries) != 1 || deliveries[""] {
		t.Fatalf("expected one non-empty delivery id across retries, got %v", deliveries)
	}
}

func TestSendStopsOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	client := NewClient(Config{MaxAttempts: 5, InitialBackoff: time.Millisecond})
	if err := client.Send(context.Background(), srv.URL, EventJobFailed, map[string]any{}); err == nil {
		t.Fatal("expected error for 410 response")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	if got := retryAfter(resp); got != 0 {
		t.Fatalf("expected 0 without header, got %s", got)
	}
	resp.Header.Set("Retry-After", "3")
	if got := retryAfter(resp); got != 3*time.Second {
		t.Fatalf("expected 3s, got %s", got)
	}
	resp.Header.Set("Retry-After", "Wed, 21 Oct 2015 07:28:00 GMT")
	if got := retryAfter(resp); got != 0 {
		t.Fatalf("expected 0 for http-date, got %s", got)
	}
	if got := retryAfter(nil); got != 0 {
		t.Fatalf("expected 0 for nil response, got %s", got)
	}
}
