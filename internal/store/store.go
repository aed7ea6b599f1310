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

package store

import (
	"context"
	"errors"
	"time"

	"deposit-desk-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared by every LedgerStore backend
var (
	ErrDuplicateTransaction   = errors.New("duplicate transaction")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrStoreBusy              = errors.New("store busy")
	ErrUserNotFound           = errors.New("user not found")
	ErrEmailExists            = errors.New("email already registered")
	ErrRequestNotFound        = errors.New("deposit request not found")
	ErrRequestResolved        = errors.New("deposit request already resolved")
	ErrRequestMismatch        = errors.New("deposit request does not match callback")
	ErrCardNotFound           = errors.New("no payout card registered")
	ErrBalanceMismatch        = errors.New("ledger balance does not match transaction history")
)

// IsTransient reports whether a failed ledger write may succeed if retried.
func IsTransient(err error) bool {
	return errors.Is(err, ErrConcurrentModification) || errors.Is(err, ErrStoreBusy)
}

// CreateUserParams contains the parameters for registering a user and opening their ledger entry.
type CreateUserParams struct {
	UserId       string
	Name         string
	Email        string
	PasswordHash string
	PromoCode    string
	PromoPercent int64
}

// ConfirmDepositParams describes an operator confirmation.
// RequestId is empty when the notification was not linked to a stored request.
type ConfirmDepositParams struct {
	UserId     string
	Amount     decimal.Decimal
	RequestId  string
	OperatorId int64
}

// RejectDepositParams describes an operator rejection of a stored request.
type RejectDepositParams struct {
	RequestId  string
	UserId     string
	Amount     decimal.Decimal
	OperatorId int64
}

// SaveBankCardParams contains a validated payout card.
type SaveBankCardParams struct {
	CardNumber string
	HolderName string
	Bank       string
	CreatedBy  int64
}

// LedgerStore defines the contract the persistence backend must satisfy.
type LedgerStore interface {
	// --- Users ---
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)

	// --- Ledger ---
	GetLedgerEntry(ctx context.Context, userId string) (*models.LedgerEntry, error)
	ListLedgerEntries(ctx context.Context) ([]models.LedgerEntry, error)
	ConfirmDeposit(ctx context.Context, params ConfirmDepositParams) (*models.DepositOutcome, error)
	RejectDeposit(ctx context.Context, params RejectDepositParams) (*models.DepositRequest, error)
	GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error)
	ReconcileLedgerEntry(ctx context.Context, userId string) error

	// --- Deposit requests ---
	CreateDepositRequest(ctx context.Context, userId string, amount decimal.Decimal) (*models.DepositRequest, error)
	GetDepositRequest(ctx context.Context, requestId string) (*models.DepositRequest, error)
	AttachNotificationMessage(ctx context.Context, requestId string, ref models.MessageRef) error
	GetNotificationMessages(ctx context.Context, requestId string) ([]models.MessageRef, error)
	FindRequestByMessage(ctx context.Context, chatId int64, messageId int) (*models.DepositRequest, error)
	ExpirePendingRequests(ctx context.Context, createdBefore time.Time) ([]models.DepositRequest, error)

	// --- Payout cards ---
	SaveBankCard(ctx context.Context, params SaveBankCardParams) (*models.BankCard, error)
	GetActiveBankCard(ctx context.Context) (*models.BankCard, error)

	// --- Lifecycle ---
	Close()
}
