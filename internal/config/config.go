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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"deposit-desk-go/internal/models"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	busyTimeout, err := getEnvDuration("DB_BUSY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	pollTimeout, err := getEnvDuration("TELEGRAM_POLL_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	sendTimeout, err := getEnvDuration("TELEGRAM_SEND_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	operatorChats, err := getEnvInt64List("TELEGRAM_OPERATOR_CHAT_IDS")
	if err != nil {
		return nil, err
	}

	approvalTimeout, err := getEnvDuration("APPROVAL_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	retryBackoff, err := getEnvDuration("APPROVAL_RETRY_BACKOFF", 100*time.Millisecond)
	if err != nil {
		return nil, err
	}

	readTimeout, err := getEnvDuration("HTTP_READ_TIMEOUT", 20*time.Second)
	if err != nil {
		return nil, err
	}

	writeTimeout, err := getEnvDuration("HTTP_WRITE_TIMEOUT", 20*time.Second)
	if err != nil {
		return nil, err
	}

	tokenTtl, err := getEnvDuration("JWT_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	cardCacheTtl, err := getEnvDuration("CARD_CACHE_TTL", time.Minute)
	if err != nil {
		return nil, err
	}

	pendingMaxAge, err := getEnvDuration("PENDING_MAX_AGE", 72*time.Hour)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "ledger.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
			BusyTimeout:     busyTimeout,
		},
		Telegram: models.TelegramConfig{
			BotToken:        getEnvString("TELEGRAM_BOT_TOKEN", ""),
			OperatorChatIds: operatorChats,
			PollTimeout:     pollTimeout,
			SendTimeout:     sendTimeout,
			MaxParallelSend: getEnvInt("TELEGRAM_MAX_PARALLEL_SEND", 4),
		},
		Approval: models.ApprovalConfig{
			Timeout:      approvalTimeout,
			MaxAttempts:  getEnvInt("APPROVAL_MAX_ATTEMPTS", 3),
			RetryBackoff: retryBackoff,
		},
		Http: models.HttpConfig{
			Address:        getEnvString("HTTP_ADDRESS", ":8080"),
			ReadTimeout:    readTimeout,
			WriteTimeout:   writeTimeout,
			JwtSecret:      getEnvString("JWT_SECRET", ""),
			JwtIssuer:      getEnvString("JWT_ISSUER", "deposit-desk"),
			TokenTtl:       tokenTtl,
			UploadDir:      getEnvString("UPLOAD_DIR", "uploads"),
			MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 10<<20)),
			CardCacheTtl:   cardCacheTtl,
		},
		Promo: models.PromoConfig{
			CatalogFile: getEnvString("PROMO_CATALOG_FILE", "promos.yaml"),
		},
		Scheduler: models.SchedulerConfig{
			ReconcileSchedule: getEnvString("RECONCILE_SCHEDULE", "@hourly"),
			ExpireSchedule:    getEnvString("EXPIRE_SCHEDULE", "*/10 * * * *"),
			PendingMaxAge:     pendingMaxAge,
		},
		LogLevel: getEnvString("LOG_LEVEL", "info"),
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvInt64List parses a comma separated list of chat ids. Blank entries are skipped.
func getEnvInt64List(key string) ([]int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return nil, nil
	}

	var ids []int64
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chat id in %s: %q (%w)", key, part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
