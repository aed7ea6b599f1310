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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"deposit-desk-go/internal/common"
	"deposit-desk-go/internal/config"
	"deposit-desk-go/internal/database"
	"deposit-desk-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers      int
	fundedUsers     int
	bonusesCredited int
	mismatched      int
	totalBalance    decimal.Decimal
}

func reconcileStatus(ctx context.Context, dbService *database.Service, userId string) string {
	err := dbService.ReconcileLedgerEntry(ctx, userId)
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, store.ErrBalanceMismatch):
		return "MISMATCH"
	default:
		return "error: " + err.Error()
	}
}

func printAccount(account common.AccountInfo, status string) {
	entry := account.Entry
	promo := "none"
	if entry.PromoCodeUsed != "" {
		promo = fmt.Sprintf("%s (%d%%)", entry.PromoCodeUsed, entry.RegistrationPromoPercent)
	}

	fmt.Printf("\n┌─ User: %s (%s)\n", account.User.Name, account.User.Email)
	fmt.Printf("│  ID: %s\n", account.User.Id)
	common.PrintSeparator("─", 78)
	fmt.Printf("%s %-16s: %20s\n", common.BoxPrefix(false), "Balance", common.FormatAmount(entry.Balance))
	fmt.Printf("%s %-16s: %20s\n", common.BoxPrefix(false), "Initial deposit", common.FormatAmount(entry.InitialBalance))
	fmt.Printf("%s %-16s: %20s\n", common.BoxPrefix(false), "Promo", promo)
	fmt.Printf("%s %-16s: %20s\n", common.BoxPrefix(status == ""), "Bonus received", common.FormatAmount(entry.PromoBonusReceived))
	if status != "" {
		fmt.Printf("%s %-16s: %20s (v%d, updated: %s)\n", common.BoxPrefix(true), "Reconciled", status,
			entry.Version, entry.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

func main() {
	ctx := context.Background()

	emailFlag := flag.String("email", "", "Filter by specific user email (optional)")
	checkFlag := flag.Bool("check", false, "Reconcile each balance against its transaction history")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	logger, loggerCleanup := common.InitializeLogger(cfg.LogLevel)
	defer loggerCleanup()

	logger.Info("Starting balance query")

	logger.Info("Connecting to database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	accounts, err := common.LoadAccounts(ctx, dbService, *emailFlag, logger)
	if err != nil {
		logger.Fatal("Failed to load accounts", zap.Error(err))
	}

	common.PrintHeader("USER BALANCE REPORT", common.DefaultWidth)

	stats := balanceStats{totalBalance: decimal.Zero}
	for _, account := range accounts {
		stats.totalUsers++
		if account.Entry.HasInitialDeposit {
			stats.fundedUsers++
		}
		if account.Entry.PromoBonusReceived.IsPositive() {
			stats.bonusesCredited++
		}
		stats.totalBalance = stats.totalBalance.Add(account.Entry.Balance)

		status := ""
		if *checkFlag {
			status = reconcileStatus(ctx, dbService, account.User.Id)
			if status != "ok" {
				stats.mismatched++
			}
		}
		printAccount(account, status)
	}

	summary := fmt.Sprintf("SUMMARY: %d users, %d funded, %d promo bonuses, total %s",
		stats.totalUsers, stats.fundedUsers, stats.bonusesCredited, common.FormatAmount(stats.totalBalance))
	if *checkFlag {
		summary += fmt.Sprintf(", %d failed reconciliation", stats.mismatched)
	}
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Balance query completed",
		zap.Int("users_queried", stats.totalUsers),
		zap.Int("users_funded", stats.fundedUsers),
		zap.Int("reconcile_failures", stats.mismatched))
}
