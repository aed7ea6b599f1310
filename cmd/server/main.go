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
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"deposit-desk-go/internal/api"
	"deposit-desk-go/internal/approval"
	"deposit-desk-go/internal/cards"
	"deposit-desk-go/internal/common"
	"deposit-desk-go/internal/config"
	"deposit-desk-go/internal/notify"
	"deposit-desk-go/internal/scheduler"
	"deposit-desk-go/internal/telegram"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	_, loggerCleanup := common.InitializeLogger(cfg.LogLevel)
	defer loggerCleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zap.L().Info("Starting deposit desk")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if len(cfg.Telegram.OperatorChatIds) == 0 {
		zap.L().Warn("No operator chats configured, deposits cannot be delivered")
	}

	bot, err := telegram.NewBot(cfg.Telegram)
	if err != nil {
		zap.L().Fatal("Failed to create Telegram bot", zap.Error(err))
	}

	dispatcher := notify.NewDispatcher(notify.DispatcherConfig{
		Messenger:   bot,
		Requests:    services.DbService,
		ChatIds:     cfg.Telegram.OperatorChatIds,
		SendTimeout: cfg.Telegram.SendTimeout,
		MaxParallel: cfg.Telegram.MaxParallelSend,
	})

	cardService := cards.NewService(services.DbService, cfg.Http.CardCacheTtl)
	bot.Attach(approval.NewHandler(approval.HandlerConfig{
		Ledger:   services.DbService,
		Notifier: dispatcher,
		Approval: cfg.Approval,
	}), cardService)

	maintenance, err := scheduler.New(cfg.Scheduler, services.DbService, dispatcher)
	if err != nil {
		zap.L().Fatal("Failed to create scheduler", zap.Error(err))
	}

	apiService, err := api.NewLedgerService(api.Config{
		Http:     cfg.Http,
		Accounts: services.Accounts,
		Ledger:   services.DbService,
		Notifier: dispatcher,
		Cards:    cardService,
	})
	if err != nil {
		zap.L().Fatal("Failed to create API service", zap.Error(err))
	}

	bot.Start()
	maintenance.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return apiService.Run(gctx)
	})

	zap.L().Info("Deposit desk running", zap.String("http_address", cfg.Http.Address))
	zap.L().Info("Press Ctrl+C to stop")

	if err := g.Wait(); err != nil {
		zap.L().Error("HTTP server stopped with error", zap.Error(err))
	}

	zap.L().Info("Shutdown signal received, stopping bot and scheduler...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			bot.Stop()
		}()
		go func() {
			defer wg.Done()
			maintenance.Stop()
		}()
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Deposit desk stopped gracefully")
	case <-shutdownCtx.Done():
		zap.L().Warn("Forced shutdown after timeout")
	}
}
