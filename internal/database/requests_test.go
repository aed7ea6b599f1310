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
	"testing"
	"time"

	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestCreateDepositRequest(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, service, "user1", "user1@example.com", "", 0)

	request, err := service.CreateDepositRequest(ctx, "user1", decimal.RequireFromString("250.50"))
	if err != nil {
		t.Fatalf("CreateDepositRequest failed: %v", err)
	}
	if request.Id == "" || request.Status != models.RequestStatusPending {
		t.Errorf("Expected pending request with id, got %+v", request)
	}

	stored, err := service.GetDepositRequest(ctx, request.Id)
	if err != nil {
		t.Fatalf("GetDepositRequest failed: %v", err)
	}
	if !stored.Amount.Equal(decimal.RequireFromString("250.5")) || stored.UserId != "user1" {
		t.Errorf("Unexpected stored request: %+v", stored)
	}
	if !stored.ResolvedAt.IsZero() {
		t.Errorf("Expected pending request to have no resolution time, got %v", stored.ResolvedAt)
	}
}

func TestCreateDepositRequest_Invalid(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, service, "user1", "user1@example.com", "", 0)

	if _, err := service.CreateDepositRequest(ctx, "user1", decimal.Zero); err == nil {
		t.Error("Expected error for zero amount")
	}

	_, err := service.CreateDepositRequest(ctx, "ghost", decimal.NewFromInt(10))
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}

	_, err = service.GetDepositRequest(ctx, "missing")
	if !errors.Is(err, store.ErrRequestNotFound) {
		t.Errorf("Expected ErrRequestNotFound, got %v", err)
	}
}

func TestNotificationMessages(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, service, "user1", "user1@example.com", "", 0)

	request, err := service.CreateDepositRequest(ctx, "user1", decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("CreateDepositRequest failed: %v", err)
	}

	refs := []models.MessageRef{
		{ChatId: -1001, MessageId: 55, HasPhoto: true},
		{ChatId: -1002, MessageId: 77, HasPhoto: false},
	}
	for _, ref := range refs {
		if err := service.AttachNotificationMessage(ctx, request.Id, ref); err != nil {
			t.Fatalf("AttachNotificationMessage failed: %v", err)
		}
	}
	// attaching the same message twice is a no-op
	if err := service.AttachNotificationMessage(ctx, request.Id, refs[0]); err != nil {
		t.Fatalf("Repeated AttachNotificationMessage failed: %v", err)
	}

	stored, err := service.GetNotificationMessages(ctx, request.Id)
	if err != nil {
		t.Fatalf("GetNotificationMessages failed: %v", err)
	}
	if len(stored) != 2 {
		t.Fatalf("Expected 2 notification messages, got %d", len(stored))
	}

	found, err := service.FindRequestByMessage(ctx, -1002, 77)
	if err != nil {
		t.Fatalf("FindRequestByMessage failed: %v", err)
	}
	if found.Id != request.Id {
		t.Errorf("Expected request %s, got %s", request.Id, found.Id)
	}

	_, err = service.FindRequestByMessage(ctx, -1002, 78)
	if !errors.Is(err, store.ErrRequestNotFound) {
		t.Errorf("Expected ErrRequestNotFound for unknown message, got %v", err)
	}
}

func TestExpirePendingRequests(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, service, "user1", "user1@example.com", "", 0)

	stale, err := service.CreateDepositRequest(ctx, "user1", decimal.NewFromInt(10))
	if err != nil {
		t.Fatalf("CreateDepositRequest failed: %v", err)
	}
	confirmed, err := service.CreateDepositRequest(ctx, "user1", decimal.NewFromInt(20))
	if err != nil {
		t.Fatalf("CreateDepositRequest failed: %v", err)
	}
	if _, err := service.ConfirmDeposit(ctx, store.ConfirmDepositParams{
		UserId: "user1", Amount: decimal.NewFromInt(20), RequestId: confirmed.Id,
	}); err != nil {
		t.Fatalf("ConfirmDeposit failed: %v", err)
	}

	expired, err := service.ExpirePendingRequests(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("ExpirePendingRequests failed: %v", err)
	}
	if len(expired) != 1 || expired[0].Id != stale.Id {
		t.Fatalf("Expected only the pending request to expire, got %+v", expired)
	}
	if expired[0].Status != models.RequestStatusExpired {
		t.Errorf("Expected status expired, got %s", expired[0].Status)
	}

	_, err = service.ConfirmDeposit(ctx, store.ConfirmDepositParams{UserId: "user1", Amount: decimal.NewFromInt(10), RequestId: stale.Id})
	if !errors.Is(err, store.ErrRequestResolved) {
		t.Errorf("Expected expired request to refuse confirmation, got %v", err)
	}

	again, err := service.ExpirePendingRequests(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Second ExpirePendingRequests failed: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("Expected nothing left to expire, got %d", len(again))
	}
}

func TestExpirePendingRequests_KeepsFreshRequests(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	createTestUser(t, service, "user1", "user1@example.com", "", 0)

	if _, err := service.CreateDepositRequest(ctx, "user1", decimal.NewFromInt(10)); err != nil {
		t.Fatalf("CreateDepositRequest failed: %v", err)
	}

	expired, err := service.ExpirePendingRequests(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("ExpirePendingRequests failed: %v", err)
	}
	if len(expired) != 0 {
		t.Errorf("Expected fresh request to stay pending, got %d expired", len(expired))
	}
}
