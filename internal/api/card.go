package api

import (
	"errors"
	"net/http"

	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ActiveCard returns the payout card end users should transfer deposits to
func (s *LedgerService) ActiveCard(c *gin.Context) {
	card, err := s.cards.ActiveCard(c.Request.Context())
	if errors.Is(err, store.ErrCardNotFound) {
		abortWithError(c, http.StatusNotFound, "No payout card available")
		return
	}
	if err != nil {
		zap.L().Error("Failed to load payout card", zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Failed to load payout card")
		return
	}

	c.JSON(http.StatusOK, models.CardResponse{
		CardNumber: card.CardNumber,
		HolderName: card.HolderName,
		Bank:       card.Bank,
	})
}
