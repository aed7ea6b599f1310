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

package common

import (
	"context"
	"fmt"

	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/store"

	"go.uber.org/zap"
)

// AccountInfo pairs a user with their ledger entry for command-line reports
type AccountInfo struct {
	User  models.User
	Entry *models.LedgerEntry
}

// LoadAccounts retrieves accounts based on an optional email filter.
// If emailFilter is provided, returns the single account with that email.
// If emailFilter is empty, returns all accounts.
func LoadAccounts(ctx context.Context, ledger store.LedgerStore, emailFilter string, logger *zap.Logger) ([]AccountInfo, error) {
	var users []models.User

	if emailFilter != "" {
		logger.Info("Looking up user by email", zap.String("email", emailFilter))
		user, err := ledger.GetUserByEmail(ctx, emailFilter)
		if err != nil {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		users = append(users, *user)
	} else {
		all, err := ledger.GetUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get users: %w", err)
		}
		users = all
	}

	accounts := make([]AccountInfo, 0, len(users))
	for _, user := range users {
		entry, err := ledger.GetLedgerEntry(ctx, user.Id)
		if err != nil {
			return nil, fmt.Errorf("failed to get ledger entry for %s: %w", user.Id, err)
		}
		accounts = append(accounts, AccountInfo{User: user, Entry: entry})
	}

	logger.Info("Retrieved accounts", zap.Int("count", len(accounts)))
	return accounts, nil
}
