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
	"errors"
	"net/http"

	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/notify"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SubmitDeposit takes an amount and a transfer receipt and posts them to the
// operator chats for a decision
func (s *LedgerService) SubmitDeposit(c *gin.Context) {
	s.limitBody(c)

	var form models.DepositForm
	if err := c.ShouldBind(&form); err != nil {
		abortWithBindError(c, err)
		return
	}

	amount, err := parseAmount(form.Amount)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
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

	result, err := s.notifier.NotifyDeposit(c.Request.Context(), notify.DepositNotice{
		UserId:      user.Id,
		Email:       user.Email,
		Amount:      amount,
		ReceiptPath: receipt,
	})
	if err != nil {
		zap.L().Error("Deposit submission failed",
			zap.String("user_id", user.Id),
			zap.String("amount", amount.String()),
			zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to submit deposit")
		return
	}

	if !result.Success() {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
			"message":    "Deposit could not be delivered to operators, please try again later",
			"request_id": result.RequestId,
		})
		return
	}

	c.JSON(http.StatusAccepted, models.DepositSubmitResponse{
		RequestId: result.RequestId,
		Delivered: result.Delivered,
	})
}

// abortWithBindError maps form and upload errors to a response
func abortWithBindError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		abortWithError(c, http.StatusRequestEntityTooLarge, "Upload too large")
	case errors.Is(err, errStoreReceipt):
		zap.L().Error("Failed to store upload", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to store receipt")
	default:
		abortWithError(c, http.StatusBadRequest, err.Error())
	}
}
