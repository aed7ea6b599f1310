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

package database

import (
	"context"
	"errors"
	"sync"
	"testing"

	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestApplyDeposit(t *testing.T) {
	d := decimal.RequireFromString

	tests := []struct {
		name           string
		entry          models.LedgerEntry
		amount         decimal.Decimal
		wantBalance    decimal.Decimal
		wantInitial    decimal.Decimal
		wantBonus      decimal.Decimal
		wantReceived   decimal.Decimal
		wantFirst      bool
		wantHasInitial bool
	}{
		{
			name:           "first deposit with promo",
			entry:          models.LedgerEntry{Balance: d("0"), PromoCodeUsed: "WELCOME10", RegistrationPromoPercent: 10},
			amount:         d("100"),
			wantBalance:    d("110"),
			wantInitial:    d("110"),
			wantBonus:      d("10"),
			wantReceived:   d("10"),
			wantFirst:      true,
			wantHasInitial: true,
		},
		{
			name: "second deposit after bonus",
			entry: models.LedgerEntry{Balance: d("110"), InitialBalance: d("110"), HasInitialDeposit: true,
				PromoCodeUsed: "WELCOME10", RegistrationPromoPercent: 10, PromoBonusReceived: d("10")},
			amount:         d("50"),
			wantBalance:    d("160"),
			wantInitial:    d("110"),
			wantBonus:      d("0"),
			wantReceived:   d("10"),
			wantHasInitial: true,
		},
		{
			name:           "no promo code",
			entry:          models.LedgerEntry{Balance: d("5"), RegistrationPromoPercent: 25},
			amount:         d("20.5"),
			wantBalance:    d("25.5"),
			wantInitial:    d("20.5"),
			wantBonus:      d("0"),
			wantReceived:   d("0"),
			wantFirst:      true,
			wantHasInitial: true,
		},
		{
			name:           "fractional bonus",
			entry:          models.LedgerEntry{Balance: d("0"), PromoCodeUsed: "SPRING15", RegistrationPromoPercent: 15},
			amount:         d("33.33"),
			wantBalance:    d("38.3295"),
			wantInitial:    d("38.3295"),
			wantBonus:      d("4.9995"),
			wantReceived:   d("4.9995"),
			wantFirst:      true,
			wantHasInitial: true,
		},
		{
			name: "promo not yet used but initial deposit already made",
			entry: models.LedgerEntry{Balance: d("40"), InitialBalance: d("40"), HasInitialDeposit: true,
				PromoCodeUsed: "LATE20", RegistrationPromoPercent: 20, PromoBonusReceived: d("0")},
			amount:         d("10"),
			wantBalance:    d("52"),
			wantInitial:    d("40"),
			wantBonus:      d("2"),
			wantReceived:   d("2"),
			wantHasInitial: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, outcome := applyDeposit(tt.entry, tt.amount)

			if !next.Balance.Equal(tt.wantBalance) {
				t.Errorf("balance = %s, want %s", next.Balance.String(), tt.wantBalance.String())
			}
			if !next.InitialBalance.Equal(tt.wantInitial) {
				t.Errorf("initial balance = %s, want %s", next.InitialBalance.String(), tt.wantInitial.String())
			}
			if !outcome.Bonus.Equal(tt.wantBonus) {
				t.Errorf("bonus = %s, want %s", outcome.Bonus.String(), tt.wantBonus.String())
			}
			if !next.PromoBonusReceived.Equal(tt.wantReceived) {
				t.Errorf("promo bonus received = %s, want %s", next.PromoBonusReceived.String(), tt.wantReceived.String())
			}
			if outcome.FirstDeposit != tt.wantFirst {
				t.Errorf("first deposit = %v, want %v", outcome.FirstDeposit, tt.wantFirst)
			}
			if next.HasInitialDeposit != tt.wantHasInitial {
				t.Errorf("has initial deposit = %v, want %v", next.HasInitialDeposit, tt.wantHasInitial)
			}
			if !outcome.NewBalance.Equal(next.Balance) {
				t.Errorf("outcome new balance %s differs from entry balance %s", outcome.NewBalance.String(), next.Balance.String())
			}
		})
	}
}

func TestConfirmDeposit_PromoScenario(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, service, "user1", "user1@example.com", "WELCOME10", 10)

	outcome, err := service.ConfirmDeposit(ctx, store.ConfirmDepositParams{UserId: "user1", Amount: decimal.NewFromInt(100), OperatorId: 42})
	if err != nil {
		t.Fatalf("First ConfirmDeposit failed: %v", err)
	}
	if !outcome.BonusApplied() || !outcome.Bonus.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected bonus 10, got %s", outcome.Bonus.String())
	}

	entry, err := service.GetLedgerEntry(ctx, "user1")
	if err != nil {
		t.Fatalf("GetLedgerEntry failed: %v", err)
	}
	if !entry.Balance.Equal(decimal.NewFromInt(110)) {
		t.Errorf("Expected balance 110, got %s", entry.Balance.String())
	}
	if !entry.PromoBonusReceived.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected promo bonus received 10, got %s", entry.PromoBonusReceived.String())
	}
	if !entry.InitialBalance.Equal(decimal.NewFromInt(110)) {
		t.Errorf("Expected initial balance 110, got %s", entry.InitialBalance.String())
	}
	if !entry.HasInitialDeposit {
		t.Error("Expected has_initial_deposit true after first deposit")
	}

	outcome, err = service.ConfirmDeposit(ctx, store.ConfirmDepositParams{UserId: "user1", Amount: decimal.NewFromInt(50), OperatorId: 42})
	if err != nil {
		t.Fatalf("Second ConfirmDeposit failed: %v", err)
	}
	if outcome.BonusApplied() {
		t.Errorf("Expected no bonus on second deposit, got %s", outcome.Bonus.String())
	}

	entry, err = service.GetLedgerEntry(ctx, "user1")
	if err != nil {
		t.Fatalf("GetLedgerEntry failed: %v", err)
	}
	if !entry.Balance.Equal(decimal.NewFromInt(160)) {
		t.Errorf("Expected balance 160, got %s", entry.Balance.String())
	}
	if !entry.InitialBalance.Equal(decimal.NewFromInt(110)) {
		t.Errorf("Expected initial balance to stay 110, got %s", entry.InitialBalance.String())
	}
	if !entry.PromoBonusReceived.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected promo bonus received to stay 10, got %s", entry.PromoBonusReceived.String())
	}
	if entry.Version != 3 {
		t.Errorf("Expected version 3 after two writes, got %d", entry.Version)
	}

	if err := service.ReconcileLedgerEntry(ctx, "user1"); err != nil {
		t.Errorf("Expected ledger to reconcile, got %v", err)
	}
}

func TestConfirmDeposit_UnknownUser(t *testing.T) {
	service := setupTestService(t)

	_, err := service.ConfirmDeposit(context.Background(), store.ConfirmDepositParams{UserId: "ghost", Amount: decimal.NewFromInt(10)})
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("Expected ErrUserNotFound, got %v", err)
	}
}

func TestConfirmDeposit_InvalidAmount(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, service, "user1", "user1@example.com", "", 0)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		if _, err := service.ConfirmDeposit(ctx, store.ConfirmDepositParams{UserId: "user1", Amount: amount}); err == nil {
			t.Errorf("Expected error for amount %s", amount.String())
		}
	}

	entry, err := service.GetLedgerEntry(ctx, "user1")
	if err != nil {
		t.Fatalf("GetLedgerEntry failed: %v", err)
	}
	if !entry.Balance.IsZero() || entry.Version != 1 {
		t.Errorf("Expected untouched entry, got balance %s version %d", entry.Balance.String(), entry.Version)
	}
}

func TestConfirmDeposit_RequestConfirmedOnce(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, service, "user1", "user1@example.com", "WELCOME10", 10)

	request, err := service.CreateDepositRequest(ctx, "user1", decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("CreateDepositRequest failed: %v", err)
	}

	params := store.ConfirmDepositParams{UserId: "user1", Amount: decimal.NewFromInt(100), RequestId: request.Id, OperatorId: 7}
	if _, err := service.ConfirmDeposit(ctx, params); err != nil {
		t.Fatalf("First ConfirmDeposit failed: %v", err)
	}

	_, err = service.ConfirmDeposit(ctx, params)
	if !errors.Is(err, store.ErrRequestResolved) {
		t.Fatalf("Expected ErrRequestResolved on repeat, got %v", err)
	}

	entry, err := service.GetLedgerEntry(ctx, "user1")
	if err != nil {
		t.Fatalf("GetLedgerEntry failed: %v", err)
	}
	if !entry.Balance.Equal(decimal.NewFromInt(110)) {
		t.Errorf("Expected balance 110 after repeated confirm, got %s", entry.Balance.String())
	}

	stored, err := service.GetDepositRequest(ctx, request.Id)
	if err != nil {
		t.Fatalf("GetDepositRequest failed: %v", err)
	}
	if stored.Status != models.RequestStatusConfirmed || stored.ResolvedBy != 7 {
		t.Errorf("Expected confirmed by 7, got %s by %d", stored.Status, stored.ResolvedBy)
	}
}

func TestConfirmDeposit_RequestMismatch(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, service, "user1", "user1@example.com", "", 0)

	request, err := service.CreateDepositRequest(ctx, "user1", decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("CreateDepositRequest failed: %v", err)
	}

	_, err = service.ConfirmDeposit(ctx, store.ConfirmDepositParams{UserId: "user1", Amount: decimal.NewFromInt(1000), RequestId: request.Id})
	if !errors.Is(err, store.ErrRequestMismatch) {
		t.Fatalf("Expected ErrRequestMismatch, got %v", err)
	}

	entry, err := service.GetLedgerEntry(ctx, "user1")
	if err != nil {
		t.Fatalf("GetLedgerEntry failed: %v", err)
	}
	if !entry.Balance.IsZero() {
		t.Errorf("Expected balance 0 after mismatch, got %s", entry.Balance.String())
	}
}

func TestConfirmDeposit_ConcurrentSameRequest(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, service, "user1", "user1@example.com", "WELCOME10", 10)

	request, err := service.CreateDepositRequest(ctx, "user1", decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("CreateDepositRequest failed: %v", err)
	}

	const operators = 8
	var wg sync.WaitGroup
	results := make(chan error, operators)
	for i := 0; i < operators; i++ {
		wg.Add(1)
		go func(operatorId int64) {
			defer wg.Done()
			_, err := service.ConfirmDeposit(ctx, store.ConfirmDepositParams{
				UserId: "user1", Amount: decimal.NewFromInt(100), RequestId: request.Id, OperatorId: operatorId,
			})
			results <- err
		}(int64(i + 1))
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, store.ErrRequestResolved):
		default:
			t.Errorf("Unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("Expected exactly one confirmation to succeed, got %d", succeeded)
	}

	entry, err := service.GetLedgerEntry(ctx, "user1")
	if err != nil {
		t.Fatalf("GetLedgerEntry failed: %v", err)
	}
	if !entry.Balance.Equal(decimal.NewFromInt(110)) {
		t.Errorf("Expected balance 110, got %s", entry.Balance.String())
	}
	if !entry.PromoBonusReceived.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected bonus 10, got %s", entry.PromoBonusReceived.String())
	}
}

func TestConfirmDeposit_ConcurrentDistinctDeposits(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, service, "user1", "user1@example.com", "WELCOME10", 10)

	const deposits = 6
	var wg sync.WaitGroup
	errs := make(chan error, deposits)
	for i := 0; i < deposits; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.ConfirmDeposit(ctx, store.ConfirmDepositParams{UserId: "user1", Amount: decimal.NewFromInt(100)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("ConfirmDeposit failed: %v", err)
		}
	}

	entry, err := service.GetLedgerEntry(ctx, "user1")
	if err != nil {
		t.Fatalf("GetLedgerEntry failed: %v", err)
	}

	// 6 x 100 plus a single 10% bonus on whichever deposit landed first
	if !entry.Balance.Equal(decimal.NewFromInt(610)) {
		t.Errorf("Expected balance 610, got %s", entry.Balance.String())
	}
	if !entry.PromoBonusReceived.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected bonus credited once (10), got %s", entry.PromoBonusReceived.String())
	}
	if !entry.InitialBalance.Equal(decimal.NewFromInt(110)) {
		t.Errorf("Expected initial balance 110, got %s", entry.InitialBalance.String())
	}
	if entry.Version != deposits+1 {
		t.Errorf("Expected version %d, got %d", deposits+1, entry.Version)
	}
}

func TestRejectDeposit_LeavesLedgerUntouched(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, service, "user1", "user1@example.com", "WELCOME10", 10)

	before, err := service.GetLedgerEntry(ctx, "user1")
	if err != nil {
		t.Fatalf("GetLedgerEntry failed: %v", err)
	}

	request, err := service.CreateDepositRequest(ctx, "user1", decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("CreateDepositRequest failed: %v", err)
	}

	rejected, err := service.RejectDeposit(ctx, store.RejectDepositParams{
		RequestId: request.Id, UserId: "user1", Amount: decimal.NewFromInt(100), OperatorId: 9,
	})
	if err != nil {
		t.Fatalf("RejectDeposit failed: %v", err)
	}
	if rejected.Status != models.RequestStatusRejected {
		t.Errorf("Expected status rejected, got %s", rejected.Status)
	}

	after, err := service.GetLedgerEntry(ctx, "user1")
	if err != nil {
		t.Fatalf("GetLedgerEntry failed: %v", err)
	}
	if !after.Balance.Equal(before.Balance) || after.Version != before.Version ||
		after.HasInitialDeposit != before.HasInitialDeposit || !after.PromoBonusReceived.Equal(before.PromoBonusReceived) {
		t.Errorf("Expected ledger entry unchanged, before %+v after %+v", before, after)
	}

	_, err = service.ConfirmDeposit(ctx, store.ConfirmDepositParams{UserId: "user1", Amount: decimal.NewFromInt(100), RequestId: request.Id})
	if !errors.Is(err, store.ErrRequestResolved) {
		t.Fatalf("Expected confirm after reject to fail with ErrRequestResolved, got %v", err)
	}
}
