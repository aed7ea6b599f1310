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
	"net/http"
	"strings"

	"deposit-desk-go/internal/cards"
	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/notify"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubmitWithdrawal forwards a withdrawal request with its receipt to the
// operator chats. Operators settle withdrawals outside the bot.
func (s *LedgerService) SubmitWithdrawal(c *gin.Context) {
	s.limitBody(c)

	var form models.WithdrawalForm
	if err := c.ShouldBind(&form); err != nil {
		abortWithBindError(c, err)
		return
	}

	amount, err := parseAmount(form.Amount)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	cardNumber, err := cards.NormalizeCardNumber(form.CardNumber)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Card number must be 16 digits")
		return
	}

	user, ok := s.currentUser(c)
	if !ok {
		return
	}

	receipt, err := s.saveReceipt(c)
	if err != nil {
		abortWithBindError(c, err)
		return
	}

	result, err := s.notifier.NotifyWithdrawal(c.Request.Context(), notify.WithdrawalNotice{
		UserId:      user.Id,
		Email:       user.Email,
		Amount:      amount,
		ReceiptPath: receipt,
		CardNumber:  cardNumber,
		FullName:    strings.TrimSpace(form.FullName),
	})
	if err != nil {
		zap.L().Error("Withdrawal submission failed",
			zap.String("user_id", user.Id),
			zap.String("amount", amount.String()),
			zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to submit withdrawal")
		return
	}

	if !result.Success() {
		abortWithError(c, http.StatusBadGateway, "Withdrawal could not be delivered to operators, please try again later")
		return
	}

	c.JSON(http.StatusAccepted, models.WithdrawalSubmitResponse{Delivered: result.Delivered})
}
