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
	"go.uber.org/zap"
)

// SaveBankCard stores a payout card; the newest card becomes the active one
func (s *Service) SaveBankCard(ctx context.Context, params store.SaveBankCardParams) (*models.BankCard, error) {
	card := &models.BankCard{
		Id:         uuid.New().String(),
		CardNumber: params.CardNumber,
		HolderName: params.HolderName,
		Bank:       params.Bank,
		CreatedBy:  params.CreatedBy,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, queryInsertBankCard,
		card.Id, card.CardNumber, card.HolderName, card.Bank, card.CreatedBy, card.CreatedAt)
	if err != nil {
		return nil, classify(fmt.Errorf("failed to insert bank card: %w", err))
	}

	zap.L().Info("Payout card saved",
		zap.String("card_id", card.Id),
		zap.String("holder_name", card.HolderName),
		zap.String("bank", card.Bank),
		zap.Int64("created_by", card.CreatedBy))
	return card, nil
}

func (s *Service) GetActiveBankCard(ctx context.Context) (*models.BankCard, error) {
	var card models.BankCard
	err := s.db.QueryRowContext(ctx, queryGetActiveBankCard).Scan(
		&card.Id, &card.CardNumber, &card.HolderName, &card.Bank, &card.CreatedBy, &card.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get active bank card: %w", err)
	}
	return &card, nil
}
