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

package cards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"deposit-desk-go/internal/common"
	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/store"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const activeCardKey = "active_card"

const formatsText = "📋 Available formats:\n" +
	"1\\. `/set_card 1234 5678 9012 3456 Ivan Ivanov Tinkoff`\n" +
	"2\\. `/set_card 1234 5678 9012 3456 | Ivan Ivanov | Tinkoff`\n" +
	"3\\. `/set_card 1234 5678 9012 3456 Ivan Ivanov (Tinkoff)`"

// UsageText is the reply to a /set_card command with too few arguments
const UsageText = "⚠️ Use the format: `/set_card 1234 5678 9012 3456 Ivan Ivanov Tinkoff`\n\n" +
	"Or with the '\\|' separator: `/set_card 1234 5678 9012 3456 | Ivan Ivanov | Tinkoff`"

// Store is the part of store.LedgerStore that holds payout cards
type Store interface {
	SaveBankCard(ctx context.Context, params store.SaveBankCardParams) (*models.BankCard, error)
	GetActiveBankCard(ctx context.Context) (*models.BankCard, error)
}

// Service registers payout cards from operator commands and serves the
// active card to end users
type Service struct {
	store Store
	cache *cache.Cache
}

func NewService(store Store, ttl time.Duration) *Service {
	return &Service{
		store: store,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Register handles a /set_card command and returns the MarkdownV2 reply for
// the operator. The error is set when nothing was saved.
func (s *Service) Register(ctx context.Context, text string, operatorId int64) (string, error) {
	input, err := ParseSetCard(text)
	if errors.Is(err, ErrUsage) {
		return UsageText, err
	}
	if err != nil {
		return fmt.Sprintf("❌ Error: %s\n\n%s", common.EscapeMarkdown(describe(err)), formatsText), err
	}

	card, err := s.store.SaveBankCard(ctx, store.SaveBankCardParams{
		CardNumber: input.CardNumber,
		HolderName: input.HolderName,
		Bank:       input.Bank,
		CreatedBy:  operatorId,
	})
	if err != nil {
		zap.L().Error("Failed to save payout card", zap.Int64("operator_id", operatorId), zap.Error(err))
		return "❌ Could not save the card, please try again", err
	}
	s.cache.Set(activeCardKey, card, cache.DefaultExpiration)

	return SavedReply(card), nil
}

// ActiveCard returns the newest payout card, cached for the configured TTL
func (s *Service) ActiveCard(ctx context.Context) (*models.BankCard, error) {
	if cached, found := s.cache.Get(activeCardKey); found {
		return cached.(*models.BankCard), nil
	}

	card, err := s.store.GetActiveBankCard(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.Set(activeCardKey, card, cache.DefaultExpiration)
	return card, nil
}

// SavedReply confirms a stored card back to the operator
func SavedReply(card *models.BankCard) string {
	bank := card.Bank
	if bank == "" {
		bank = "Not specified"
	}

	var b strings.Builder
	b.WriteString("✅ Card details saved:\n")
	fmt.Fprintf(&b, "Number: `%s`\n", common.EscapeMarkdownCode(card.CardNumber))
	fmt.Fprintf(&b, "Holder: `%s`\n", common.EscapeMarkdownCode(card.HolderName))
	fmt.Fprintf(&b, "Bank: `%s`", common.EscapeMarkdownCode(bank))
	return b.String()
}

func describe(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCardNumber):
		return "Invalid card number format"
	case errors.Is(err, ErrMissingHolder):
		return "Specify the card holder name"
	default:
		return err.Error()
	}
}
