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
)

// Journal account types
const (
	accountUserBalance     = "user_balance"
	accountUserDeposits    = "system_liability"
	accountPromoExpense    = "promo_expense"
	promoExpenseAccountId  = "promo_bonus"
	userDepositsAccountId  = "user_deposits"
	transactionStatusFinal = "confirmed"
)

// SubledgerService keeps the immutable movement history behind ledger entries
type SubledgerService struct {
	db *sql.DB
}

func NewSubledgerService(db *sql.DB) *SubledgerService {
	return &SubledgerService{
		db: db,
	}
}

func (s *SubledgerService) InitSchema() error {
	schema := `
	-- Transactions Table (Audit Trail)
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		transaction_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		balance_before TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		external_transaction_id TEXT NOT NULL DEFAULT '',
		reference TEXT NOT NULL DEFAULT '',
		status TEXT DEFAULT 'confirmed',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_external_type
		ON transactions(external_transaction_id, transaction_type)
		WHERE external_transaction_id != '';

	-- Journal Entries for Double-Entry Bookkeeping
	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		transaction_id TEXT NOT NULL,
		account_type TEXT NOT NULL,
		account_id TEXT NOT NULL,
		debit_amount TEXT NOT NULL DEFAULT '0',
		credit_amount TEXT NOT NULL DEFAULT '0',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_transaction_id ON journal_entries(transaction_id);
	CREATE INDEX IF NOT EXISTS idx_journal_account ON journal_entries(account_type, account_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// movementParams describes one balance movement recorded inside a caller's transaction
type movementParams struct {
	UserId          string
	TransactionType string
	Amount          decimal.Decimal
	BalanceBefore   decimal.Decimal
	ExternalTxId    string
	Reference       string
	At              time.Time
}

// recordMovement appends an audit row and its journal entries. It must run
// inside the same transaction as the ledger entry update it describes.
func (s *SubledgerService) recordMovement(ctx context.Context, tx *sql.Tx, params movementParams) (*models.Transaction, error) {
	if params.ExternalTxId != "" {
		var existingTxId string
		err := tx.QueryRowContext(ctx, queryCheckDuplicateTransaction, params.ExternalTxId, params.TransactionType).Scan(&existingTxId)
		if err == nil {
			return nil, fmt.Errorf("%w: %s %s already recorded as %s",
				store.ErrDuplicateTransaction, params.TransactionType, params.ExternalTxId, existingTxId)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to check for duplicate transaction: %w", err)
		}
	}

	transaction := &models.Transaction{
		Id:                    uuid.New().String(),
		UserId:                params.UserId,
		TransactionType:       params.TransactionType,
		Amount:                params.Amount,
		BalanceBefore:         params.BalanceBefore,
		BalanceAfter:          params.BalanceBefore.Add(params.Amount),
		ExternalTransactionId: params.ExternalTxId,
		Reference:             params.Reference,
		Status:                transactionStatusFinal,
		CreatedAt:             params.At,
	}

	_, err := tx.ExecContext(ctx, queryInsertTransaction,
		transaction.Id, transaction.UserId, transaction.TransactionType,
		transaction.Amount.String(), transaction.BalanceBefore.String(), transaction.BalanceAfter.String(),
		transaction.ExternalTransactionId, transaction.Reference, transaction.Status, transaction.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	if err := s.addJournalEntries(ctx, tx, transaction); err != nil {
		return nil, fmt.Errorf("failed to add journal entries: %w", err)
	}

	return transaction, nil
}

// addJournalEntries creates double-entry bookkeeping entries.
// A deposit debits the user's balance account against the deposits liability;
// a promo bonus debits it against the promo expense account.
func (s *SubledgerService) addJournalEntries(ctx context.Context, tx *sql.Tx, transaction *models.Transaction) error {
	type journalEntry struct {
		accountType  string
		accountId    string
		debitAmount  decimal.Decimal
		creditAmount decimal.Decimal
	}

	userAccount := journalEntry{accountUserBalance, transaction.UserId, transaction.Amount, decimal.Zero}

	var entries []journalEntry
	switch transaction.TransactionType {
	case models.TransactionTypeDeposit:
		entries = []journalEntry{
			userAccount,
			{accountUserDeposits, userDepositsAccountId, decimal.Zero, transaction.Amount},
		}
	case models.TransactionTypePromoBonus:
		entries = []journalEntry{
			userAccount,
			{accountPromoExpense, promoExpenseAccountId, decimal.Zero, transaction.Amount},
		}
	default:
		return fmt.Errorf("unknown transaction type %q", transaction.TransactionType)
	}

	for _, entry := range entries {
		_, err := tx.ExecContext(ctx, queryInsertJournalEntry,
			uuid.New().String(), transaction.Id, entry.accountType, entry.accountId,
			entry.debitAmount.String(), entry.creditAmount.String(), transaction.CreatedAt)
		if err != nil {
			return err
		}
	}

	return nil
}
