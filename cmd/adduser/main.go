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
	"regexp"

	"deposit-desk-go/internal/auth"
	"deposit-desk-go/internal/common"
	"deposit-desk-go/internal/config"
	"deposit-desk-go/internal/store"

	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func main() {
	ctx := context.Background()

	nameFlag := flag.String("name", "", "User's full name (required)")
	emailFlag := flag.String("email", "", "User's email address (required)")
	passwordFlag := flag.String("password", "", "Initial password, 6 to 72 characters with a digit (required)")
	promoFlag := flag.String("promo", "", "Registration promo code (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	_, loggerCleanup := common.InitializeLogger(cfg.LogLevel)
	defer loggerCleanup()

	if *nameFlag == "" || *emailFlag == "" || *passwordFlag == "" {
		zap.L().Fatal("Flags are required: --name, --email and --password")
	}
	if err := validateName(*nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}
	if err := validateEmail(*emailFlag); err != nil {
		zap.L().Fatal("Invalid email", zap.Error(err))
	}

	zap.L().Info("Starting user creation process",
		zap.String("name", *nameFlag),
		zap.String("email", *emailFlag),
		zap.String("promo_code", *promoFlag))

	zap.L().Info("Initializing services")
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	result, err := services.Accounts.SignUp(ctx, auth.SignUpInput{
		Name:      *nameFlag,
		Email:     *emailFlag,
		Password:  *passwordFlag,
		PromoCode: *promoFlag,
	})
	switch {
	case errors.Is(err, store.ErrEmailExists):
		zap.L().Fatal("User already exists with this email", zap.String("email", *emailFlag))
	case errors.Is(err, auth.ErrInvalidPromoCode):
		zap.L().Fatal("Unknown promo code", zap.String("promo_code", *promoFlag))
	case err != nil:
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}

	promoLine := "none"
	if result.Promo != nil {
		promoLine = fmt.Sprintf("%s (%d%% on first deposit)", result.Promo.Code, result.Promo.Percent)
	}

	fmt.Println()
	common.PrintHeader("USER CREATED", common.DefaultWidth)
	fmt.Printf("ID:    %s\n", result.User.Id)
	fmt.Printf("Name:  %s\n", result.User.Name)
	fmt.Printf("Email: %s\n", result.User.Email)
	fmt.Printf("Promo: %s\n", promoLine)
	fmt.Printf("Token: %s\n", result.Token)
	common.PrintSeparator("=", common.DefaultWidth)
	fmt.Println()

	zap.L().Info("User created successfully", zap.String("id", result.User.Id))
}
