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
	"fmt"
	"time"

	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// applyDeposit computes the state a ledger entry moves to when a deposit is
// confirmed. The registration bonus is credited only while nothing has been
// credited yet, and the first confirmed deposit fixes the initial balance.
func applyDeposit(entry models.LedgerEntry, amount decimal.Decimal) (models.LedgerEntry, models.DepositOutcome) {
	outcome := models.DepositOutcome{
		UserId:        entry.UserId,
		Amount:        amount,
		Bonus:         decimal.Zero,
		FinalAmount:   amount,
		BalanceBefore: entry.Balance,
	}

	next := entry
	if entry.PromoEligible() {
		bonus := amount.Mul(decimal.NewFromInt(entry.RegistrationPromoPercent)).Div(hundred)
		if bonus.IsPositive() {
			outcome.Bonus = bonus
			outcome.BonusPercent = entry.RegistrationPromoPercent
			outcome.FinalAmount = amount.Add(bonus)
			next.PromoBonusReceived = bonus
		}
	}

	next.Balance = entry.Balance.Add(outcome.FinalAmount)
	if !entry.HasInitialDeposit {
		next.InitialBalance = outcome.FinalAmount
		next.HasInitialDeposit = true
		outcome.FirstDeposit = true
	}
	outcome.NewBalance = next.Balance

	return next, outcome
}

// ConfirmDeposit credits a confirmed deposit, and the registration bonus when
// due, in a single transaction. The entry is written with a version check so a
// concurrent writer is detected instead of silently overwritten.
func (s *Service) ConfirmDeposit(ctx context.Context, params store.ConfirmDepositParams) (*models.DepositOutcome, error) {
	if params.UserId == "" || !params.Amount.IsPositive() {
		return nil, fmt.Errorf("invalid deposit parameters: user %q amount %s", params.UserId, params.Amount.String())
	}

	zap.L().Info("Confirming deposit",
		zap.String("user_id", params.UserId),
		zap.String("amount", params.Amount.String()),
		zap.String("request_id", params.RequestId),
		zap.Int64("operator_id", params.OperatorId))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer rollback(tx)

	if params.RequestId != "" {
		if _, err := getPendingRequest(ctx, tx, params.RequestId, params.UserId, params.Amount); err != nil {
			return nil, err
		}
	}

	entry, err := getLedgerEntry(ctx, tx, params.UserId)
	if err != nil {
		return nil, err
	}

	next, outcome := applyDeposit(*entry, params.Amount)
	now := time.Now().UTC()
	outcome.RequestId = params.RequestId
	outcome.ProcessedAt = now

	result, err := tx.ExecContext(ctx, queryUpdateLedgerEntry,
		next.Balance.String(), next.InitialBalance.String(), next.HasInitialDeposit, next.PromoBonusReceived.String(),
		now, params.UserId, entry.Version)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to update ledger entry: %w", err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("ledger update failed - %w", store.ErrConcurrentModification)
	}

	if err := s.recordDepositMovements(ctx, tx, params, &outcome, now); err != nil {
		return nil, err
	}

	if params.RequestId != "" {
		if err := resolveRequest(ctx, tx, params.RequestId, models.RequestStatusConfirmed, params.OperatorId, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(fmt.Errorf("failed to commit transaction: %w", err))
	}

	zap.L().Info("Deposit confirmed",
		zap.String("user_id", params.UserId),
		zap.String("amount", outcome.Amount.String()),
		zap.String("bonus", outcome.Bonus.String()),
		zap.String("old_balance", outcome.BalanceBefore.String()),
		zap.String("new_balance", outcome.NewBalance.String()),
		zap.Bool("first_deposit", outcome.FirstDeposit))

	return &outcome, nil
}

func (s *Service) recordDepositMovements(ctx context.Context, tx *sql.Tx, params store.ConfirmDepositParams, outcome *models.DepositOutcome, at time.Time) error {
	_, err := s.subledger.recordMovement(ctx, tx, movementParams{
		UserId:          params.UserId,
		TransactionType: models.TransactionTypeDeposit,
		Amount:          outcome.Amount,
		BalanceBefore:   outcome.BalanceBefore,
		ExternalTxId:    params.RequestId,
		Reference:       fmt.Sprintf("operator:%d", params.OperatorId),
		At:              at,
	})
	if err != nil {
		return classify(fmt.Errorf("error recording deposit: %w", err))
	}

	if !outcome.BonusApplied() {
		return nil
	}

	_, err = s.subledger.recordMovement(ctx, tx, movementParams{
		UserId:          params.UserId,
		TransactionType: models.TransactionTypePromoBonus,
		Amount:          outcome.Bonus,
		BalanceBefore:   outcome.BalanceBefore.Add(outcome.Amount),
		ExternalTxId:    params.RequestId,
		Reference:       fmt.Sprintf("promo:%d%%", outcome.BonusPercent),
		At:              at,
	})
	if err != nil {
		return classify(fmt.Errorf("error recording promo bonus: %w", err))
	}
	return nil
}

// RejectDeposit marks a pending request rejected. The ledger entry is not touched.
func (s *Service) RejectDeposit(ctx context.Context, params store.RejectDepositParams) (*models.DepositRequest, error) {
	zap.L().Info("Rejecting deposit request",
		zap.String("request_id", params.RequestId),
		zap.String("user_id", params.UserId),
		zap.Int64("operator_id", params.OperatorId))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer rollback(tx)

	request, err := getPendingRequest(ctx, tx, params.RequestId, params.UserId, params.Amount)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := resolveRequest(ctx, tx, params.RequestId, models.RequestStatusRejected, params.OperatorId, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(fmt.Errorf("failed to commit transaction: %w", err))
	}

	request.Status = models.RequestStatusRejected
	request.ResolvedBy = params.OperatorId
	request.ResolvedAt = now
	return request, nil
}
