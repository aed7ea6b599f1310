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
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents an end user who can sign in and submit deposits
type User struct {
	Id           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// LedgerEntry is a user's balance and promo bonus state (one row per user)
type LedgerEntry struct {
	UserId                   string          `db:"user_id"`
	Balance                  decimal.Decimal `db:"balance"`
	InitialBalance           decimal.Decimal `db:"initial_balance"`
	HasInitialDeposit        bool            `db:"has_initial_deposit"`
	PromoCodeUsed            string          `db:"promo_code_used"`
	RegistrationPromoPercent int64           `db:"registration_promo_percent"`
	PromoBonusReceived       decimal.Decimal `db:"promo_bonus_received"`
	Version                  int64           `db:"version"`
	UpdatedAt                time.Time       `db:"updated_at"`
}

// PromoEligible reports whether the next confirmed deposit earns the registration bonus.
func (e *LedgerEntry) PromoEligible() bool {
	return e.PromoCodeUsed != "" && e.PromoBonusReceived.IsZero()
}

// Transaction represents immutable balance movement history
type Transaction struct {
	Id                    string          `db:"id"`
	UserId                string          `db:"user_id"`
	TransactionType       string          `db:"transaction_type"`
	Amount                decimal.Decimal `db:"amount"`
	BalanceBefore         decimal.Decimal `db:"balance_before"`
	BalanceAfter          decimal.Decimal `db:"balance_after"`
	ExternalTransactionId string          `db:"external_transaction_id"`
	Reference             string          `db:"reference"`
	Status                string          `db:"status"`
	CreatedAt             time.Time       `db:"created_at"`
}

const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypePromoBonus = "promo_bonus"
)

// Deposit request lifecycle states
const (
	RequestStatusPending   = "pending"
	RequestStatusConfirmed = "confirmed"
	RequestStatusRejected  = "rejected"
	RequestStatusExpired   = "expired"
)

// DepositRequest is a deposit awaiting an operator decision
type DepositRequest struct {
	Id         string          `db:"id"`
	UserId     string          `db:"user_id"`
	Amount     decimal.Decimal `db:"amount"`
	Status     string          `db:"status"`
	ResolvedBy int64           `db:"resolved_by"`
	CreatedAt  time.Time       `db:"created_at"`
	ResolvedAt time.Time       `db:"resolved_at"`
}

// MessageRef identifies one operator copy of a notification
type MessageRef struct {
	ChatId    int64 `db:"chat_id"`
	MessageId int   `db:"message_id"`
	HasPhoto  bool  `db:"has_photo"`
}

// BankCard is the payout card end users transfer deposits to
type BankCard struct {
	Id         string    `db:"id"`
	CardNumber string    `db:"card_number"`
	HolderName string    `db:"holder_name"`
	Bank       string    `db:"bank"`
	CreatedBy  int64     `db:"created_by"`
	CreatedAt  time.Time `db:"created_at"`
}
