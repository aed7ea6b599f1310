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

import (
	"time"

	"github.com/shopspring/decimal"
)

// SignUpRequest is the body of POST /user/auth/sign-up
type SignUpRequest struct {
	Name      string `json:"name" binding:"required,min=2"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,password"`
	PromoCode string `json:"promo_code"`
}

// SignInRequest is the body of POST /user/auth/sign-in
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignUpResponse carries the bearer token and, when a promo code was given, a note about the bonus
type SignUpResponse struct {
	Token            string `json:"token"`
	PromoCodeApplied string `json:"promo_code_applied,omitempty"`
	Message          string `json:"message,omitempty"`
}

// TokenResponse carries a bearer token
type TokenResponse struct {
	Token string `json:"token"`
}

// ErrorResponse is the body of every non-2xx API reply
type ErrorResponse struct {
	Message string `json:"message"`
}

// ProfileResponse is the body of GET /user/profile/me
type ProfileResponse struct {
	Status string `json:"status"`
	UserId string `json:"user_id"`
	Email  string `json:"email"`
}

// BalanceResponse is the public view of a ledger entry
type BalanceResponse struct {
	UserId             string          `json:"user_id"`
	Balance            decimal.Decimal `json:"balance"`
	InitialBalance     decimal.Decimal `json:"initial_balance"`
	HasInitialDeposit  bool            `json:"has_initial_deposit"`
	PromoCodeUsed      string          `json:"promo_code_used,omitempty"`
	PromoBonusReceived decimal.Decimal `json:"promo_bonus_received"`
}

// DepositForm is the multipart body of POST /user/deposits; the receipt is a file part
type DepositForm struct {
	Amount string `form:"amount" binding:"required"`
}

// WithdrawalForm is the multipart body of POST /user/withdrawals
type WithdrawalForm struct {
	Amount     string `form:"amount" binding:"required"`
	CardNumber string `form:"card_number" binding:"required"`
	FullName   string `form:"full_name" binding:"required,min=2"`
}

// TransactionRecord is the public view of one ledger movement
type TransactionRecord struct {
	Id           string          `json:"id"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	RequestId    string          `json:"request_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// DepositSubmitResponse is returned after operators were notified of a deposit
type DepositSubmitResponse struct {
	RequestId string `json:"request_id"`
	Delivered int    `json:"delivered"`
}

// WithdrawalSubmitResponse is returned after operators were notified of a withdrawal
type WithdrawalSubmitResponse struct {
	Delivered int `json:"delivered"`
}

// CardResponse is the public view of the active payout card
type CardResponse struct {
	CardNumber string `json:"card_number"`
	HolderName string `json:"holder_name"`
	Bank       string `json:"bank,omitempty"`
}

// DepositOutcome is the result of a confirmed deposit
type DepositOutcome struct {
	UserId        string          `json:"user_id"`
	RequestId     string          `json:"request_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Bonus         decimal.Decimal `json:"bonus"`
	BonusPercent  int64           `json:"bonus_percent,omitempty"`
	FinalAmount   decimal.Decimal `json:"final_amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	NewBalance    decimal.Decimal `json:"new_balance"`
	FirstDeposit  bool            `json:"first_deposit"`
	ProcessedAt   time.Time       `json:"processed_at"`
}

// BonusApplied reports whether the deposit credited the registration bonus.
func (o *DepositOutcome) BonusApplied() bool {
	return o.Bonus.IsPositive()
}

// DispatchResult summarises a fan-out to operator chats
type DispatchResult struct {
	RequestId string
	Delivered int
	Failed    int
}

// Success is true iff at least one operator chat received the message.
func (r DispatchResult) Success() bool {
	return r.Delivered > 0
}
