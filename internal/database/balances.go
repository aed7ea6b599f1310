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
	"database/sql"
	"errors"
	"fmt"

	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanLedgerEntry(row interface{ Scan(...any) error }) (*models.LedgerEntry, error) {
	var entry models.LedgerEntry
	var balanceStr, initialStr, bonusStr string
	var promoCode sql.NullString
	var promoPercent sql.NullInt64

	err := row.Scan(&entry.UserId, &balanceStr, &initialStr, &entry.HasInitialDeposit,
		&promoCode, &promoPercent, &bonusStr, &entry.Version, &entry.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if entry.Balance, err = decimal.NewFromString(balanceStr); err != nil {
		return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
	}
	if entry.InitialBalance, err = decimal.NewFromString(initialStr); err != nil {
		return nil, fmt.Errorf("failed to parse initial balance '%s': %w", initialStr, err)
	}
	if entry.PromoBonusReceived, err = decimal.NewFromString(bonusStr); err != nil {
		return nil, fmt.Errorf("failed to parse promo bonus '%s': %w", bonusStr, err)
	}
	entry.PromoCodeUsed = promoCode.String
	entry.RegistrationPromoPercent = promoPercent.Int64

	return &entry, nil
}

func getLedgerEntry(ctx context.Context, q querier, userId string) (*models.LedgerEntry, error) {
	entry, err := scanLedgerEntry(q.QueryRowContext(ctx, queryGetLedgerEntry, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrUserNotFound, userId)
		}
		return nil, classify(fmt.Errorf("failed to get ledger entry: %w", err))
	}
	return entry, nil
}

// GetLedgerEntry returns the current balance and promo state for a user (O(1) lookup)
func (s *Service) GetLedgerEntry(ctx context.Context, userId string) (*models.LedgerEntry, error) {
	zap.L().Debug("Getting ledger entry", zap.String("user_id", userId))

	entry, err := getLedgerEntry(ctx, s.db, userId)
	if err != nil {
		return nil, err
	}

	zap.L().Debug("Retrieved ledger entry",
		zap.String("user_id", userId),
		zap.String("balance", entry.Balance.String()),
		zap.Int64("version", entry.Version))
	return entry, nil
}

// ListLedgerEntries returns every ledger entry ordered by user id
func (s *Service) ListLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error) {
	zap.L().Debug("Listing ledger entries")

	rows, err := s.db.QueryContext(ctx, queryListLedgerEntries)
	if err != nil {
		zap.L().Error("Failed to list ledger entries", zap.Error(err))
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer closeRows(rows)

	var entries []models.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during ledger entry row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating ledger entry rows: %w", err)
	}

	return entries, nil
}
