// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package retry implements bounded exponential-backoff retry around a
// fallible operation. Retry parameters are plain data so policies can be
// loaded from configuration and attached per pipeline step.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ErrExhausted marks an error returned after the final failed attempt.
// Detect it with errors.Is.
var ErrExhausted = errors.New("retries exhausted")

// Classifier reports whether an error is worth retrying.
type Classifier func(error) bool

// Policy describes a bounded exponential-backoff schedule. The zero value is
// not valid; use Default or fill all fields and call Validate.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first.
	// MaxAttempts = 1 means a single attempt with no retry.
	MaxAttempts int
	// InitialDelay is the sleep before the second attempt.
	InitialDelay time.Duration
	// Base multiplies the delay after every failed attempt. Must be > 1.
	Base float64
	// Jitter, when set, replaces each computed delay with a uniformly random
	// duration in [0, delay) ("full jitter"). Off by default.
	Jitter bool
	// Retryable decides which errors are retried. When nil, DefaultClassifier
	// is used.
	Retryable Classifier
}

// Default returns the policy used for external collaborator calls unless
// configuration overrides it.
func Default() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		Base:         2.0,
	}
}

// Validate checks the policy parameters.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry: max attempts must be >= 1, got %d", p.MaxAttempts)
	}
	if p.MaxAttempts > 1 && p.InitialDelay <= 0 {
		return fmt.Errorf("retry: initial delay must be > 0, got %v", p.InitialDelay)
	}
	if p.MaxAttempts > 1 && p.Base <= 1 {
		return fmt.Errorf("retry: exponential base must be > 1, got %v", p.Base)
	}
	return nil
}

// Delay returns the sleep applied after the given failed attempt (1-based),
// before jitter.
func (p Policy) Delay(attempt int) time.Duration {
	return time.Duration(float64(p.InitialDelay) * math.Pow(p.Base, float64(attempt-1)))
}

// Do runs op up to MaxAttempts times. On success it returns nil immediately.
// A non-retryable error propagates after exactly one invocation. When all
// attempts fail, the last error is returned wrapped with ErrExhausted. The
// backoff sleep is cancellable through ctx; no delay is applied after the
// final attempt.
func (p Policy) Do(ctx context.Context, op func() error) error {
	if err := p.Validate(); err != nil {
		return err
	}

	classify := p.Retryable
	if classify == nil {
		classify = DefaultClassifier
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !classify(lastErr) {
			return lastErr
		}
		if attempt == p.MaxAttempts {
			break
		}

		delay := p.Delay(attempt)
		if p.Jitter {
			delay = time.Duration(rand.Int63n(int64(delay) + 1))
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, p.MaxAttempts, lastErr)
}
