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
	"strconv"

	"deposit-desk-go/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Balance returns the caller's ledger entry
func (s *LedgerService) Balance(c *gin.Context) {
	userId := c.GetString(userIdKey)

	entry, err := s.ledger.GetLedgerEntry(c.Request.Context(), userId)
	if err != nil {
		zap.L().Error("Failed to get ledger entry", zap.String("user_id", userId), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve balance")
		return
	}

	c.JSON(http.StatusOK, models.BalanceResponse{
		UserId:             entry.UserId,
		Balance:            entry.Balance,
		InitialBalance:     entry.InitialBalance,
		HasInitialDeposit:  entry.HasInitialDeposit,
		PromoCodeUsed:      entry.PromoCodeUsed,
		PromoBonusReceived: entry.PromoBonusReceived,
	})
}

// Transactions returns the caller's paginated movement history, newest first
func (s *LedgerService) Transactions(c *gin.Context) {
	userId := c.GetString(userIdKey)

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultHistoryLimit)))
	if err != nil || limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	transactions, err := s.ledger.GetTransactionHistory(c.Request.Context(), userId, limit, offset)
	if err != nil {
		zap.L().Error("Failed to get transaction history", zap.String("user_id", userId), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve transaction history")
		return
	}

	result := make([]models.TransactionRecord, len(transactions))
	for i, tx := range transactions {
		result[i] = models.TransactionRecord{
			Id:           tx.Id,
			Type:         tx.TransactionType,
			Amount:       tx.Amount,
			BalanceAfter: tx.BalanceAfter,
			RequestId:    tx.ExternalTransactionId,
			CreatedAt:    tx.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{"transactions": result, "limit": limit, "offset": offset})
}
