/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package approval

import (
	"context"
	"fmt"
	"time"

	"deposit-desk-go/internal/store"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

type retryPolicy struct {
	maxAttempts int
	backoff     time.Duration
}

func (p retryPolicy) attempts() int {
	if p.maxAttempts < 1 {
		return 1
	}
	return p.maxAttempts
}

// schedule doubles the delay after each attempt, without jitter, and stops
// once the attempt budget or the context runs out.
func (p retryPolicy) schedule(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.backoff
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(p.attempts()-1)), ctx)
}

// run calls fn until it succeeds, fails permanently, or the attempt budget
// is spent. Only store.IsTransient errors are retried.
func (p retryPolicy) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	var (
		attempt int
		lastErr error
	)
	err := backoff.RetryNotify(func() error {
		attempt++
		lastErr = fn(ctx)
		if lastErr != nil && !store.IsTransient(lastErr) {
			return backoff.Permanent(lastErr)
		}
		return lastErr
	}, p.schedule(ctx), func(err error, delay time.Duration) {
		zap.L().Warn("Transient ledger failure, retrying",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))
	})

	switch {
	case err == nil:
		return nil
	case !store.IsTransient(lastErr):
		return err
	case ctx.Err() != nil:
		return fmt.Errorf("%s abandoned after %d attempts: %w", operation, attempt, lastErr)
	default:
		return fmt.Errorf("%s failed after %d attempts: %w", operation, attempt, lastErr)
	}
}
