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

package api

import (
	"context"
	"fmt"
	"os"
	"sync"

	"deposit-desk-go/internal/auth"
	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/notify"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Accounts signs end users up and in and verifies their bearer tokens
type Accounts interface {
	SignUp(ctx context.Context, input auth.SignUpInput) (*auth.SignUpResult, error)
	SignIn(ctx context.Context, email, password string) (string, *models.User, error)
	VerifyToken(tokenString string) (*auth.Claims, error)
}

// Ledger is the read side of store.LedgerStore the API exposes
type Ledger interface {
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetLedgerEntry(ctx context.Context, userId string) (*models.LedgerEntry, error)
	GetTransactionHistory(ctx context.Context, userId string, limit, offset int) ([]models.Transaction, error)
}

// Notifier posts end-user submissions to the operator chats
type Notifier interface {
	NotifyDeposit(ctx context.Context, notice notify.DepositNotice) (models.DispatchResult, error)
	NotifyWithdrawal(ctx context.Context, notice notify.WithdrawalNotice) (models.DispatchResult, error)
	NotifyRegistration(ctx context.Context, notice notify.RegistrationNotice) (models.DispatchResult, error)
}

// Cards serves the active payout card
type Cards interface {
	ActiveCard(ctx context.Context) (*models.BankCard, error)
}

type Config struct {
	Http     models.HttpConfig
	Accounts Accounts
	Ledger   Ledger
	Notifier Notifier
	Cards    Cards
}

// LedgerService serves the end-user HTTP API
type LedgerService struct {
	config   models.HttpConfig
	accounts Accounts
	ledger   Ledger
	notifier Notifier
	cards    Cards
	router   *gin.Engine

	background sync.WaitGroup
}

var registerValidators sync.Once

func NewLedgerService(cfg Config) (*LedgerService, error) {
	if cfg.Http.UploadDir == "" {
		return nil, fmt.Errorf("upload directory not configured")
	}
	if err := os.MkdirAll(cfg.Http.UploadDir, 0o750); err != nil {
		return nil, fmt.Errorf("unable to create upload directory: %w", err)
	}

	var err error
	registerValidators.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			err = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
				return auth.PasswordStrong(fl.Field().String())
			})
		}
	})
	if err != nil {
		return nil, fmt.Errorf("unable to register validators: %w", err)
	}

	s := &LedgerService{
		config:   cfg.Http,
		accounts: cfg.Accounts,
		ledger:   cfg.Ledger,
		notifier: cfg.Notifier,
		cards:    cfg.Cards,
	}
	s.router = s.setupRouter()
	return s, nil
}

// Handler exposes the router, mainly for httptest
func (s *LedgerService) Handler() *gin.Engine {
	return s.router
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	_, err := s.ledger.GetUsers(ctx)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

func (s *LedgerService) setupRouter() *gin.Engine {
	router := gin.New()
	router.MaxMultipartMemory = s.config.MaxUploadBytes
	router.Use(requestLogger(), gin.Recovery())

	router.GET("/health", s.Health)
	router.GET("/ready", s.Ready)
	router.GET("/payment/card", s.ActiveCard)

	user := router.Group("/user")
	user.POST("/auth/sign-up", s.SignUp)
	user.POST("/auth/sign-in", s.SignIn)

	authed := user.Group("", s.AuthMiddleware())
	authed.GET("/profile/me", s.Profile)
	authed.GET("/balance", s.Balance)
	authed.GET("/transactions", s.Transactions)
	authed.POST("/deposits", s.SubmitDeposit)
	authed.POST("/withdrawals", s.SubmitWithdrawal)

	return router
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Message: message})
}
