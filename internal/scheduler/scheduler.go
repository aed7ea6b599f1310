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

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deposit-desk-go/internal/approval"
	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/store"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const jobTimeout = 5 * time.Minute

// Ledger is the part of store.LedgerStore the maintenance jobs use
type Ledger interface {
	ListLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error)
	ReconcileLedgerEntry(ctx context.Context, userId string) error
	ExpirePendingRequests(ctx context.Context, createdBefore time.Time) ([]models.DepositRequest, error)
}

// Resolver edits every operator copy of a deposit notification
type Resolver interface {
	Resolve(ctx context.Context, requestId, caption string) error
}

// Scheduler runs ledger reconciliation and pending request expiry on cron schedules
type Scheduler struct {
	cron     *cron.Cron
	ledger   Ledger
	resolver Resolver
	maxAge   time.Duration
	now      func() time.Time
}

func New(cfg models.SchedulerConfig, ledger Ledger, resolver Resolver) (*Scheduler, error) {
	if cfg.PendingMaxAge <= 0 {
		return nil, fmt.Errorf("pending max age must be positive, got %s", cfg.PendingMaxAge)
	}

	s := &Scheduler{
		cron:     cron.New(),
		ledger:   ledger,
		resolver: resolver,
		maxAge:   cfg.PendingMaxAge,
		now:      time.Now,
	}

	if _, err := s.cron.AddFunc(cfg.ReconcileSchedule, s.runJob("reconcile", s.reconcileJob)); err != nil {
		return nil, fmt.Errorf("invalid reconcile schedule %q: %w", cfg.ReconcileSchedule, err)
	}
	if _, err := s.cron.AddFunc(cfg.ExpireSchedule, s.runJob("expire", s.expireJob)); err != nil {
		return nil, fmt.Errorf("invalid expire schedule %q: %w", cfg.ExpireSchedule, err)
	}

	return s, nil
}

// Start runs one reconciliation pass to surface drift left by a previous
// run, then hands both jobs to cron
func (s *Scheduler) Start(ctx context.Context) {
	zap.L().Info("Starting maintenance scheduler")

	if _, err := s.Reconcile(ctx); err != nil {
		zap.L().Error("Startup reconciliation failed", zap.Error(err))
	}

	s.cron.Start()
	zap.L().Info("Maintenance scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop waits for running jobs to finish
func (s *Scheduler) Stop() {
	zap.L().Info("Stopping maintenance scheduler")
	<-s.cron.Stop().Done()
	zap.L().Info("Maintenance scheduler stopped")
}

func (s *Scheduler) runJob(name string, job func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := job(ctx); err != nil {
			zap.L().Error("Maintenance job failed", zap.String("job", name), zap.Error(err))
			return
		}
		zap.L().Debug("Maintenance job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
	}
}

func (s *Scheduler) reconcileJob(ctx context.Context) error {
	_, err := s.Reconcile(ctx)
	return err
}

func (s *Scheduler) expireJob(ctx context.Context) error {
	_, err := s.ExpirePending(ctx)
	return err
}

// Reconcile checks every ledger entry's balance against its movement history
// and returns the user ids that do not match
func (s *Scheduler) Reconcile(ctx context.Context) ([]string, error) {
	entries, err := s.ledger.ListLedgerEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}

	var mismatched []string
	for _, entry := range entries {
		err := s.ledger.ReconcileLedgerEntry(ctx, entry.UserId)
		switch {
		case err == nil:
		case errors.Is(err, store.ErrBalanceMismatch):
			mismatched = append(mismatched, entry.UserId)
			zap.L().Error("Ledger balance drift detected",
				zap.String("user_id", entry.UserId),
				zap.String("balance", entry.Balance.String()),
				zap.Error(err))
		default:
			return mismatched, fmt.Errorf("failed to reconcile %s: %w", entry.UserId, err)
		}
	}

	fmt.Printf("%s[%s] Reconciled %d ledger entries%s",
		colorCyan, s.now().Format("15:04:05"), len(entries), colorReset)
	if len(mismatched) > 0 {
		fmt.Printf(" %s✗ %d mismatched%s\n", colorRed, len(mismatched), colorReset)
	} else {
		fmt.Printf(" %s✓%s\n", colorGreen, colorReset)
	}

	return mismatched, nil
}

// ExpirePending marks pending deposit requests older than the configured age
// as expired and updates their operator notifications
func (s *Scheduler) ExpirePending(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.maxAge)

	expired, err := s.ledger.ExpirePendingRequests(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire pending requests: %w", err)
	}

	for _, request := range expired {
		if err := s.resolver.Resolve(ctx, request.Id, approval.ExpiredCaption(request)); err != nil {
			zap.L().Warn("Failed to update expired request notifications",
				zap.String("request_id", request.Id),
				zap.Error(err))
		}
	}

	if len(expired) > 0 {
		zap.L().Info("Expired pending deposit requests",
			zap.Int("count", len(expired)),
			zap.Time("cutoff", cutoff))
	}
	return len(expired), nil
}

// ANSI color helpers for console output.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
)
