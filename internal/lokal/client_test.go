package lokal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maauso/jobfeed/internal/feed"
	"github.com/maauso/jobfeed/internal/job"
)

const twoJobs = `{"results":[{"id":1,"title":"Cook","company_name":"Hotel"},{"id":2,"title":"Baker"}]}`

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient()

	if client.baseURL != DefaultBaseURL {
		t.Errorf("expected baseURL %q, got %q", DefaultBaseURL, client.baseURL)
	}
	if client.maxRetries != 0 {
		t.Errorf("expected no retries by default, got %d", client.maxRetries)
	}
	if client.httpClient.Timeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %v", client.httpClient.Timeout)
	}
	if client.logger == nil {
		t.Error("expected default logger")
	}
}

func TestNewClient_Options(t *testing.T) {
	hc := &http.Client{}
	client := NewClient(
		WithBaseURL("http://example.test/"),
		WithHTTPClient(hc),
		WithMaxRetries(-1),
		WithBaseBackoff(time.Millisecond),
	)

	if client.baseURL != "http://example.test" {
		t.Errorf("expected trailing slash trimmed, got %q", client.baseURL)
	}
	if client.httpClient != hc {
		t.Error("expected custom HTTP client")
	}
	if client.maxRetries != 0 {
		t.Errorf("expected negative retries clamped to 0, got %d", client.maxRetries)
	}

	if got := NewClient(WithTimeout(3 * time.Second)).httpClient.Timeout; got != 3*time.Second {
		t.Errorf("expected 3s timeout, got %v", got)
	}
}

func TestFetchPage_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/common/jobs" {
			t.Errorf("expected /common/jobs, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("page") != "3" {
			t.Errorf("expected page=3, got %q", r.URL.Query().Get("page"))
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("expected Accept application/json, got %s", r.Header.Get("Accept"))
		}
		_, _ = w.Write([]byte(twoJobs))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	records, err := client.FetchPage(context.Background(), 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	jobs := job.NormalizeAll(records)
	if jobs[0].ID != "1" || jobs[0].Company != "Hotel" {
		t.Errorf("unexpected first job: %+v", jobs[0])
	}
	if jobs[1].Company != job.DefaultCompany {
		t.Errorf("expected default company, got %q", jobs[1].Company)
	}
}

func TestFetchPage_EmptyPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	records, err := NewClient(WithBaseURL(server.URL)).FetchPage(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestFetchPage_InvalidPage(t *testing.T) {
	_, err := NewClient().FetchPage(context.Background(), 0)
	if !errors.Is(err, ErrInvalidPage) {
		t.Errorf("expected ErrInvalidPage, got %v", err)
	}
}

func TestFetchPage_ServerError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantUser    string
	}{
		{"message in body", http.StatusInternalServerError, `{"message":"Database unavailable"}`, "Database unavailable", "Database unavailable"},
		{"plain body", http.StatusBadGateway, "bad gateway", "", feed.MsgServer},
		{"client error", http.StatusNotFound, `{"message":"Not found"}`, "Not found", "Not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewClient(WithBaseURL(server.URL)).FetchPage(context.Background(), 1)
			if !errors.Is(err, feed.ErrServer) {
				t.Fatalf("expected feed.ErrServer, got %v", err)
			}

			var se *feed.ServerError
			if !errors.As(err, &se) {
				t.Fatalf("expected *feed.ServerError, got %T", err)
			}
			if se.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, se.Status)
			}
			if se.Message != tt.wantMessage {
				t.Errorf("expected message %q, got %q", tt.wantMessage, se.Message)
			}
			if got := feed.UserMessage(err); got != tt.wantUser {
				t.Errorf("expected user message %q, got %q", tt.wantUser, got)
			}
		})
	}
}

func TestFetchPage_Malformed(t *testing.T) {
	bodies := map[string]string{
		"not json":        "<html>oops</html>",
		"missing results": `{"data":[]}`,
		"results object":  `{"results":{"id":1}}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			_, err := NewClient(WithBaseURL(server.URL)).FetchPage(context.Background(), 1)
			if !errors.Is(err, feed.ErrMalformedResponse) {
				t.Errorf("expected feed.ErrMalformedResponse, got %v", err)
			}
			if !errors.Is(err, job.ErrMalformedEnvelope) {
				t.Errorf("expected job.ErrMalformedEnvelope in chain, got %v", err)
			}
		})
	}
}

func TestFetchPage_NetworkUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	_, err := NewClient(WithBaseURL(addr)).FetchPage(context.Background(), 1)
	if !errors.Is(err, feed.ErrNetworkUnavailable) {
		t.Fatalf("expected feed.ErrNetworkUnavailable, got %v", err)
	}
	if feed.UserMessage(err) != feed.MsgNetwork {
		t.Errorf("unexpected user message %q", feed.UserMessage(err))
	}
}

func TestFetchPage_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := NewClient(WithBaseURL(server.URL)).FetchPage(ctx, 1)
	if err == nil {
		t.Error("expected error due to context cancellation")
	}
}

func TestRetry_TransientFailure(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt32(&attempts, 1)
		if count < 3 {
			// First two attempts fail with 503
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("service unavailable"))
			return
		}
		_, _ = w.Write([]byte(twoJobs))
	}))
	defer server.Close()

	client := NewClient(
		WithBaseURL(server.URL),
		WithMaxRetries(3),
		WithBaseBackoff(10*time.Millisecond),
	)

	records, err := client.FetchPage(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected 2 records, got %d", len(records))
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetry_MaxRetriesExceeded(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(
		WithBaseURL(server.URL),
		WithMaxRetries(2),
		WithBaseBackoff(time.Millisecond),
	)

	_, err := client.FetchPage(context.Background(), 1)
	if !errors.Is(err, feed.ErrServer) {
		t.Errorf("expected feed.ErrServer, got %v", err)
	}
	if atomic.LoadInt32(&attempts) != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetry_NoRetryOnClientError(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(
		WithBaseURL(server.URL),
		WithMaxRetries(3),
		WithBaseBackoff(time.Millisecond),
	)

	_, err := client.FetchPage(context.Background(), 1)
	if err == nil {
		t.Error("expected error")
	}
	if atomic.LoadInt32(&attempts) != 1 {
		t.Errorf("expected 1 attempt (no retry on 4xx), got %d", attempts)
	}
}

func TestRetry_DisabledByDefault(t *testing.T) {
	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(WithBaseURL(server.URL)).FetchPage(context.Background(), 1)
	if !errors.Is(err, feed.ErrServer) {
		t.Errorf("expected feed.ErrServer, got %v", err)
	}
	if atomic.LoadInt32(&attempts) != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}
