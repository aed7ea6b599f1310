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

const (
	// User queries
	queryGetActiveUsers = `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		WHERE active = 1
		ORDER BY created_at`

	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetUserById = `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		WHERE id = ? AND active = 1`

	queryGetUserByEmail = `
		SELECT id, name, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = ? AND active = 1`

	// Ledger entry queries
	queryInsertLedgerEntry = `
		INSERT INTO ledger_entries (user_id, promo_code_used, registration_promo_percent, updated_at)
		VALUES (?, ?, ?, ?)`

	queryGetLedgerEntry = `
		SELECT user_id, balance, initial_balance, has_initial_deposit,
		       promo_code_used, registration_promo_percent, promo_bonus_received,
		       version, updated_at
		FROM ledger_entries
		WHERE user_id = ?`

	queryListLedgerEntries = `
		SELECT user_id, balance, initial_balance, has_initial_deposit,
		       promo_code_used, registration_promo_percent, promo_bonus_received,
		       version, updated_at
		FROM ledger_entries
		ORDER BY user_id`

	queryUpdateLedgerEntry = `
		UPDATE ledger_entries
		SET balance = ?, initial_balance = ?, has_initial_deposit = ?, promo_bonus_received = ?,
		    version = version + 1, updated_at = ?
		WHERE user_id = ? AND version = ?`

	// Transaction queries
	queryCheckDuplicateTransaction = `
		SELECT id FROM transactions
		WHERE external_transaction_id = ? AND transaction_type = ?
		LIMIT 1`

	queryInsertTransaction = `
		INSERT INTO transactions (
			id, user_id, transaction_type, amount, balance_before, balance_after,
			external_transaction_id, reference, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryInsertJournalEntry = `
		INSERT INTO journal_entries (id, transaction_id, account_type, account_id, debit_amount, credit_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetTransactionHistory = `
		SELECT id, user_id, transaction_type, amount, balance_before, balance_after,
		       external_transaction_id, reference, status, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ? OFFSET ?`

	queryGetTransactionAmounts = `
		SELECT amount
		FROM transactions
		WHERE user_id = ? AND status = 'confirmed'`

	// Deposit request queries
	queryInsertDepositRequest = `
		INSERT INTO deposit_requests (id, user_id, amount, status, created_at)
		VALUES (?, ?, ?, 'pending', ?)`

	queryGetDepositRequest = `
		SELECT id, user_id, amount, status, resolved_by, created_at, resolved_at
		FROM deposit_requests
		WHERE id = ?`

	queryResolveDepositRequest = `
		UPDATE deposit_requests
		SET status = ?, resolved_by = ?, resolved_at = ?
		WHERE id = ? AND status = 'pending'`

	queryListStalePendingRequests = `
		SELECT id, user_id, amount, status, resolved_by, created_at, resolved_at
		FROM deposit_requests
		WHERE status = 'pending' AND created_at < ?
		ORDER BY created_at`

	queryInsertNotificationMessage = `
		INSERT OR IGNORE INTO notification_messages (request_id, chat_id, message_id, has_photo)
		VALUES (?, ?, ?, ?)`

	queryGetNotificationMessages = `
		SELECT chat_id, message_id, has_photo
		FROM notification_messages
		WHERE request_id = ?
		ORDER BY created_at, chat_id`

	queryFindRequestByMessage = `
		SELECT r.id, r.user_id, r.amount, r.status, r.resolved_by, r.created_at, r.resolved_at
		FROM deposit_requests r
		JOIN notification_messages m ON m.request_id = r.id
		WHERE m.chat_id = ? AND m.message_id = ?`

	// Bank card queries
	queryInsertBankCard = `
		INSERT INTO bank_cards (id, card_number, holder_name, bank, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryGetActiveBankCard = `
		SELECT id, card_number, holder_name, bank, created_by, created_at
		FROM bank_cards
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`
)
