package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// fastPolicy keeps test sleeps negligible.
func fastPolicy(maxAttempts int) Policy {
	return Policy{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Microsecond,
		Base:         2.0,
		Retryable:    RetryAll,
	}
}

func TestDo_SucceedsAfterKFailures(t *testing.T) {
	calls := 0
	op := func() error {
		calls++
		if calls <= 2 {
			return errors.New("boom")
		}
		return nil
	}

	if err := fastPolicy(5).Do(context.Background(), op); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("op invoked %d times, want 3", calls)
	}
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	op := func() error {
		calls++
		return errors.New("always fails")
	}

	err := fastPolicy(4).Do(context.Background(), op)
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}
	if calls != 4 {
		t.Errorf("op invoked %d times, want 4", calls)
	}
	if !errors.Is(err, ErrExhausted) {
		t.Errorf("error %v should wrap ErrExhausted", err)
	}
}

func TestDo_NonRetryableFailsOnce(t *testing.T) {
	calls := 0
	op := func() error {
		calls++
		return Permanent(errors.New("bad response"))
	}

	p := fastPolicy(5)
	p.Retryable = DefaultClassifier

	err := p.Do(context.Background(), op)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("op invoked %d times, want 1", calls)
	}
	if errors.Is(err, ErrExhausted) {
		t.Error("non-retryable error must not be tagged as exhausted")
	}
}

func TestDo_SingleAttempt(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 1, Retryable: RetryAll}

	err := p.Do(context.Background(), func() error {
		calls++
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("op invoked %d times, want 1", calls)
	}
}

func TestDo_SuccessShortCircuits(t *testing.T) {
	calls := 0
	err := fastPolicy(5).Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("op invoked %d times, want 1", calls)
	}
}

func TestDo_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := Policy{
		MaxAttempts:  3,
		InitialDelay: time.Hour,
		Base:         2.0,
		Retryable:    RetryAll,
	}

	done := make(chan error, 1)
	go func() {
		done <- p.Do(ctx, func() error { return errors.New("boom") })
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Do() did not observe cancellation")
	}
}

func TestDelay_ExponentialGrowth(t *testing.T) {
	p := Policy{MaxAttempts: 4, InitialDelay: 100 * time.Millisecond, Base: 2.0}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"default", Default(), false},
		{"single attempt no delay", Policy{MaxAttempts: 1}, false},
		{"zero attempts", Policy{MaxAttempts: 0}, true},
		{"zero delay", Policy{MaxAttempts: 3, Base: 2.0}, true},
		{"base not above one", Policy{MaxAttempts: 3, InitialDelay: time.Second, Base: 1.0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultClassifier(t *testing.T) {
	base := errors.New("network down")

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"transient", Transient(base), true},
		{"permanent", Permanent(base), false},
		{"unmarked", base, false},
		{"wrapped transient", fmt.Errorf("scrape: %w", Transient(base)), true},
		{"wrapped permanent", fmt.Errorf("analyze: %w", Permanent(base)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultClassifier(tt.err); got != tt.want {
				t.Errorf("DefaultClassifier() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransient_NilPassthrough(t *testing.T) {
	if Transient(nil) != nil {
		t.Error("Transient(nil) should be nil")
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}
