package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	errInvalidAmount  = errors.New("amount must be a positive number up to 1000000000 with at most 2 decimal places")
	errMissingReceipt = errors.New("receipt file is required")
	errReceiptType    = errors.New("receipt must be a JPEG, PNG or WEBP image")
	errStoreReceipt   = errors.New("failed to store receipt")
)

// maxAmount keeps confirm/reject callback tokens within Telegram's 64-byte limit
var maxAmount = decimal.NewFromInt(1_000_000_000)

var receiptExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !amount.IsPositive() || !amount.Equal(amount.Round(2)) || amount.GreaterThan(maxAmount) {
		return decimal.Zero, errInvalidAmount
	}
	return amount, nil
}

// limitBody caps the request body before multipart parsing
func (s *LedgerService) limitBody(c *gin.Context) {
	if s.config.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes)
	}
}

// saveReceipt stores the "receipt" file part under a fresh name and returns its path
func (s *LedgerService) saveReceipt(c *gin.Context) (string, error) {
	file, err := c.FormFile("receipt")
	if errors.Is(err, http.ErrMissingFile) {
		return "", errMissingReceipt
	}
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !receiptExtensions[ext] {
		return "", errReceiptType
	}

	dst := filepath.Join(s.config.UploadDir, uuid.New().String()+ext)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", fmt.Errorf("%w: %v", errStoreReceipt, err)
	}
	return dst, nil
}
