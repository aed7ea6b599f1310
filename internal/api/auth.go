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
	"errors"
	"fmt"
	"net/http"
	"time"

	"deposit-desk-go/internal/auth"
	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/notify"
	"deposit-desk-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const registrationNotifyTimeout = 30 * time.Second

func (s *LedgerService) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.accounts.SignUp(c.Request.Context(), auth.SignUpInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		PromoCode: req.PromoCode,
	})
	switch {
	case errors.Is(err, store.ErrEmailExists):
		abortWithError(c, http.StatusConflict, "Email already registered")
		return
	case errors.Is(err, auth.ErrWeakPassword):
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, auth.ErrInvalidPromoCode):
		abortWithError(c, http.StatusBadRequest, "Invalid promo code")
		return
	case err != nil:
		zap.L().Error("Sign-up failed", zap.String("email", req.Email), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	s.notifyRegistration(c.Request.Context(), result)

	resp := models.SignUpResponse{Token: result.Token}
	if result.Promo != nil {
		resp.PromoCodeApplied = result.Promo.Code
		resp.Message = fmt.Sprintf("Promo code applied: you will receive a %d%% bonus on your first deposit", result.Promo.Percent)
	}
	c.JSON(http.StatusOK, resp)
}

// notifyRegistration tells operators about a new account without holding up the response
func (s *LedgerService) notifyRegistration(ctx context.Context, result *auth.SignUpResult) {
	notice := notify.RegistrationNotice{
		UserId: result.User.Id,
		Name:   result.User.Name,
		Email:  result.User.Email,
	}
	if result.Promo != nil {
		notice.PromoCode = result.Promo.Code
		notice.PromoPercent = result.Promo.Percent
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), registrationNotifyTimeout)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		defer cancel()
		if _, err := s.notifier.NotifyRegistration(ctx, notice); err != nil {
			zap.L().Warn("Registration notification failed", zap.String("user_id", notice.UserId), zap.Error(err))
		}
	}()
}

func (s *LedgerService) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	token, _, err := s.accounts.SignIn(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		abortWithError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if err != nil {
		zap.L().Error("Sign-in failed", zap.String("email", req.Email), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to sign in")
		return
	}

	c.JSON(http.StatusOK, models.TokenResponse{Token: token})
}

func (s *LedgerService) Profile(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.ProfileResponse{Status: "success", UserId: user.Id, Email: user.Email})
}

// currentUser loads the authenticated user, writing the error response when it cannot
func (s *LedgerService) currentUser(c *gin.Context) (*models.User, bool) {
	userId := c.GetString(userIdKey)
	user, err := s.ledger.GetUserById(c.Request.Context(), userId)
	if errors.Is(err, store.ErrUserNotFound) {
		abortWithError(c, http.StatusUnauthorized, "User no longer exists")
		return nil, false
	}
	if err != nil {
		zap.L().Error("Failed to load user", zap.String("user_id", userId), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to load user")
		return nil, false
	}
	return user, true
}
