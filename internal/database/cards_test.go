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

	"deposit-desk-go/internal/store"
)

func TestBankCards(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()

	_, err := service.GetActiveBankCard(ctx)
	if !errors.Is(err, store.ErrCardNotFound) {
		t.Fatalf("Expected ErrCardNotFound on empty table, got %v", err)
	}

	if _, err := service.SaveBankCard(ctx, store.SaveBankCardParams{
		CardNumber: "1111 2222 3333 4444", HolderName: "IVAN PETROV", Bank: "Sber", CreatedBy: 10,
	}); err != nil {
		t.Fatalf("SaveBankCard failed: %v", err)
	}
	second, err := service.SaveBankCard(ctx, store.SaveBankCardParams{
		CardNumber: "5555 6666 7777 8888", HolderName: "ANNA SMIRNOVA", CreatedBy: 11,
	})
	if err != nil {
		t.Fatalf("SaveBankCard failed: %v", err)
	}

	active, err := service.GetActiveBankCard(ctx)
	if err != nil {
		t.Fatalf("GetActiveBankCard failed: %v", err)
	}
	if active.Id != second.Id || active.CardNumber != "5555 6666 7777 8888" {
		t.Errorf("Expected newest card to be active, got %+v", active)
	}
	if active.Bank != "" {
		t.Errorf("Expected empty bank, got %q", active.Bank)
	}
}
