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
	"time"

	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanDepositRequest(row interface{ Scan(...any) error }) (*models.DepositRequest, error) {
	var request models.DepositRequest
	var amountStr string
	var resolvedAt sql.NullTime

	err := row.Scan(&request.Id, &request.UserId, &amountStr, &request.Status,
		&request.ResolvedBy, &request.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}

	if request.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse request amount '%s': %w", amountStr, err)
	}
	if resolvedAt.Valid {
		request.ResolvedAt = resolvedAt.Time
	}
	return &request, nil
}

func getDepositRequest(ctx context.Context, q querier, requestId string) (*models.DepositRequest, error) {
	request, err := scanDepositRequest(q.QueryRowContext(ctx, queryGetDepositRequest, requestId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrRequestNotFound, requestId)
		}
		return nil, classify(fmt.Errorf("failed to get deposit request: %w", err))
	}
	return request, nil
}

// getPendingRequest loads a request and checks it is still pending and matches
// the user and amount carried by the operator's button.
func getPendingRequest(ctx context.Context, q querier, requestId, userId string, amount decimal.Decimal) (*models.DepositRequest, error) {
	request, err := getDepositRequest(ctx, q, requestId)
	if err != nil {
		return nil, err
	}
	if request.Status != models.RequestStatusPending {
		return nil, fmt.Errorf("%w: %s is %s", store.ErrRequestResolved, requestId, request.Status)
	}
	if request.UserId != userId || !request.Amount.Equal(amount) {
		return nil, fmt.Errorf("%w: request %s is for %s %s", store.ErrRequestMismatch, requestId, request.UserId, request.Amount.String())
	}
	return request, nil
}

func resolveRequest(ctx context.Context, tx *sql.Tx, requestId, status string, operatorId int64, at time.Time) error {
	result, err := tx.ExecContext(ctx, queryResolveDepositRequest, status, operatorId, at, requestId)
	if err != nil {
		return classify(fmt.Errorf("failed to resolve deposit request: %w", err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", store.ErrRequestResolved, requestId)
	}
	return nil
}

// CreateDepositRequest records a pending deposit for an existing ledger entry
func (s *Service) CreateDepositRequest(ctx context.Context, userId string, amount decimal.Decimal) (*models.DepositRequest, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("deposit amount must be positive, got %s", amount.String())
	}
	if _, err := getLedgerEntry(ctx, s.db, userId); err != nil {
		return nil, err
	}

	request := &models.DepositRequest{
		Id:        uuid.New().String(),
		UserId:    userId,
		Amount:    amount,
		Status:    models.RequestStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, queryInsertDepositRequest, request.Id, request.UserId, request.Amount.String(), request.CreatedAt)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to insert deposit request: %w", err))
	}

	zap.L().Info("Deposit request created",
		zap.String("request_id", request.Id),
		zap.String("user_id", userId),
		zap.String("amount", amount.String()))
	return request, nil
}

func (s *Service) GetDepositRequest(ctx context.Context, requestId string) (*models.DepositRequest, error) {
	return getDepositRequest(ctx, s.db, requestId)
}

// AttachNotificationMessage links one operator chat copy to its request
func (s *Service) AttachNotificationMessage(ctx context.Context, requestId string, ref models.MessageRef) error {
	_, err := s.db.ExecContext(ctx, queryInsertNotificationMessage, requestId, ref.ChatId, ref.MessageId, ref.HasPhoto)
	if err != nil {
		return classify(fmt.Errorf("failed to attach notification message: %w", err))
	}
	return nil
}

func (s *Service) GetNotificationMessages(ctx context.Context, requestId string) ([]models.MessageRef, error) {
	rows, err := s.db.QueryContext(ctx, queryGetNotificationMessages, requestId)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification messages: %w", err)
	}
	defer closeRows(rows)

	var refs []models.MessageRef
	for rows.Next() {
		var ref models.MessageRef
		if err := rows.Scan(&ref.ChatId, &ref.MessageId, &ref.HasPhoto); err != nil {
			return nil, fmt.Errorf("failed to scan notification message: %w", err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification messages: %w", err)
	}
	return refs, nil
}

// FindRequestByMessage resolves the request a pressed button belongs to
func (s *Service) FindRequestByMessage(ctx context.Context, chatId int64, messageId int) (*models.DepositRequest, error) {
	request, err := scanDepositRequest(s.db.QueryRowContext(ctx, queryFindRequestByMessage, chatId, messageId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: chat %d message %d", store.ErrRequestNotFound, chatId, messageId)
		}
		return nil, classify(fmt.Errorf("failed to find request by message: %w", err))
	}
	return request, nil
}

// ExpirePendingRequests marks requests still pending before the cutoff as expired and returns them
func (s *Service) ExpirePendingRequests(ctx context.Context, createdBefore time.Time) ([]models.DepositRequest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer rollback(tx)

	rows, err := tx.QueryContext(ctx, queryListStalePendingRequests, createdBefore.UTC())
	if err != nil {
		return nil, classify(fmt.Errorf("failed to list stale requests: %w", err))
	}

	var stale []models.DepositRequest
	for rows.Next() {
		request, err := scanDepositRequest(rows)
		if err != nil {
			closeRows(rows)
			return nil, fmt.Errorf("failed to scan deposit request: %w", err)
		}
		stale = append(stale, *request)
	}
	if err := rows.Err(); err != nil {
		closeRows(rows)
		return nil, fmt.Errorf("error iterating deposit requests: %w", err)
	}
	closeRows(rows)

	now := time.Now().UTC()
	for i := range stale {
		if err := resolveRequest(ctx, tx, stale[i].Id, models.RequestStatusExpired, 0, now); err != nil {
			return nil, err
		}
		stale[i].Status = models.RequestStatusExpired
		stale[i].ResolvedAt = now
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(fmt.Errorf("failed to commit expiry: %w", err))
	}

	if len(stale) > 0 {
		zap.L().Info("Expired stale deposit requests", zap.Int("count", len(stale)))
	}
	return stale, nil
}
