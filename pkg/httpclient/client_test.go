package httpclient

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestDo_SuccessNoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(WithMaxRetries(3), WithBaseDelay(time.Millisecond))

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	defer resp.Body.Close()

	if calls.Load() != 1 {
		t.Errorf("server hit %d times, want 1", calls.Load())
	}
}

func TestDo_RetriesRateLimitThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(
		WithMaxRetries(5),
		WithBaseDelay(time.Millisecond),
		WithHeaderParser(ParseOpenAIHeaders),
	)

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if calls.Load() != 3 {
		t.Errorf("server hit %d times, want 3", calls.Load())
	}
}

func TestDo_ClientErrorIsFinal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := New(WithMaxRetries(5), WithBaseDelay(time.Millisecond))

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := client.Do(req)
	if err == nil {
		t.Fatal("expected error for HTTP 400")
	}
	if resp != nil {
		resp.Body.Close()
	}
	if calls.Load() != 1 {
		t.Errorf("server hit %d times, want 1 (4xx must not retry)", calls.Load())
	}
}

func TestDo_ExhaustionReturnsRetryableError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := New(
		WithMaxRetries(1),
		WithBaseDelay(time.Millisecond),
		WithHeaderParser(ParseOpenAIHeaders),
	)

	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := client.Do(req)
	if resp != nil {
		resp.Body.Close()
	}

	retryErr, ok := err.(*RetryableError)
	if !ok {
		t.Fatalf("error type = %T, want *RetryableError", err)
	}
	if !retryErr.IsRetryable() {
		t.Error("RetryableError.IsRetryable() = false")
	}
	if retryErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d, want 503", retryErr.StatusCode)
	}
}

func TestDefaultRetryStrategy(t *testing.T) {
	tests := []struct {
		status int
		want   RetryStrategy
	}{
		{http.StatusTooManyRequests, SmartRetry},
		{http.StatusServiceUnavailable, SmartRetry},
		{http.StatusInternalServerError, ConservativeRetry},
		{http.StatusBadGateway, ConservativeRetry},
		{http.StatusBadRequest, NoRetry},
		{http.StatusUnauthorized, NoRetry},
		{http.StatusNotFound, NoRetry},
	}

	for _, tt := range tests {
		if got := DefaultRetryStrategy(tt.status); got != tt.want {
			t.Errorf("DefaultRetryStrategy(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestParseAnthropicHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("retry-after", "7")
	headers.Set("anthropic-ratelimit-requests-remaining", "42")

	info := ParseAnthropicHeaders(headers)
	if info.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", info.RetryAfter)
	}
	if info.RequestsRemaining != 42 {
		t.Errorf("RequestsRemaining = %d, want 42", info.RequestsRemaining)
	}
}

func TestParseOpenAIHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Retry-After", "3")
	headers.Set("x-ratelimit-remaining-requests", "10")
	headers.Set("x-ratelimit-remaining-tokens", "9000")

	info := ParseOpenAIHeaders(headers)
	if info.RetryAfter != 3*time.Second {
		t.Errorf("RetryAfter = %v, want 3s", info.RetryAfter)
	}
	if info.RequestsRemaining != 10 || info.TokensRemaining != 9000 {
		t.Errorf("remaining = (%d, %d), want (10, 9000)", info.RequestsRemaining, info.TokensRemaining)
	}
}
