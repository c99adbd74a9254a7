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

package retry

import "errors"

// transientError marks an error as recoverable.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() error { return e.err }

func (e *transientError) IsRetryable() bool { return true }

// permanentError marks an error as not worth retrying.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

func (e *permanentError) IsRetryable() bool { return false }

// Transient wraps err so DefaultClassifier retries it.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// Permanent wraps err so DefaultClassifier propagates it immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// retryable is implemented by errors that carry their own retry decision,
// including the httpclient package's RetryableError.
type retryable interface {
	IsRetryable() bool
}

// DefaultClassifier retries errors marked Transient or implementing
// IsRetryable() == true anywhere in their chain. Errors marked Permanent are
// never retried, and unmarked errors are treated as permanent.
func DefaultClassifier(err error) bool {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if r, ok := e.(retryable); ok {
			return r.IsRetryable()
		}
	}
	return false
}

// RetryAll retries every error. Useful for operations whose failures are
// always worth another attempt, such as page navigation.
func RetryAll(error) bool { return true }
