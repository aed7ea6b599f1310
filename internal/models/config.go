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

import "time"

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig
	Telegram  TelegramConfig
	Approval  ApprovalConfig
	Http      HttpConfig
	Promo     PromoConfig
	Scheduler SchedulerConfig
	LogLevel  string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	BusyTimeout     time.Duration
}

// TelegramConfig holds operator bot settings
type TelegramConfig struct {
	BotToken        string
	OperatorChatIds []int64
	PollTimeout     time.Duration
	SendTimeout     time.Duration
	MaxParallelSend int
}

// ApprovalConfig bounds how long and how often a confirm/reject is attempted
type ApprovalConfig struct {
	Timeout      time.Duration
	MaxAttempts  int
	RetryBackoff time.Duration
}

// HttpConfig holds the end-user API settings
type HttpConfig struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	JwtSecret      string
	JwtIssuer      string
	TokenTtl       time.Duration
	UploadDir      string
	MaxUploadBytes int64
	CardCacheTtl   time.Duration
}

// PromoConfig points at the promo code catalog
type PromoConfig struct {
	CatalogFile string
}

// SchedulerConfig holds cron specs for maintenance jobs
type SchedulerConfig struct {
	ReconcileSchedule string
	ExpireSchedule    string
	PendingMaxAge     time.Duration
}
