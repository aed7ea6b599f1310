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

package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/store"

	"go.uber.org/zap"
)

// Acknowledgments shown to the operator who pressed the button
const (
	AnswerConfirmed        = "Deposit confirmed"
	AnswerRejected         = "Deposit rejected"
	AnswerInvalidFormat    = "Invalid data format"
	AnswerUserNotFound     = "User not found"
	AnswerAlreadyProcessed = "Already processed"
	AnswerFailed           = "Error processing request, please try again"
)

// Ledger is the part of store.LedgerStore the approval path needs
type Ledger interface {
	ConfirmDeposit(ctx context.Context, params store.ConfirmDepositParams) (*models.DepositOutcome, error)
	RejectDeposit(ctx context.Context, params store.RejectDepositParams) (*models.DepositRequest, error)
	FindRequestByMessage(ctx context.Context, chatId int64, messageId int) (*models.DepositRequest, error)
}

// Notifier edits operator notifications once a request is decided
type Notifier interface {
	Resolve(ctx context.Context, requestId, caption string) error
	EditMessage(ctx context.Context, ref models.MessageRef, caption string) error
}

// Callback is one button press. Message is the notification the button was
// attached to; it is zero when the transport does not expose it.
type Callback struct {
	Data    string
	Message models.MessageRef
}

type HandlerConfig struct {
	Ledger   Ledger
	Notifier Notifier
	Approval models.ApprovalConfig
}

// Handler applies operator confirm/reject decisions to the ledger
type Handler struct {
	ledger   Ledger
	notifier Notifier
	locks    *userLocks
	retry    retryPolicy
	timeout  time.Duration
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		ledger:   cfg.Ledger,
		notifier: cfg.Notifier,
		locks:    newUserLocks(),
		retry: retryPolicy{
			maxAttempts: cfg.Approval.MaxAttempts,
			backoff:     cfg.Approval.RetryBackoff,
		},
		timeout: cfg.Approval.Timeout,
	}
}

// Handle processes a callback and returns the acknowledgment for the
// operator. The acknowledgment is always set; the error carries the cause
// when the press did not take effect.
func (h *Handler) Handle(ctx context.Context, cb Callback) (string, error) {
	action, err := ParseAction(cb.Data)
	if err != nil {
		zap.L().Warn("Rejecting malformed callback",
			zap.String("data", cb.Data),
			zap.Error(err))
		return AnswerInvalidFormat, err
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	unlock, err := h.locks.acquire(ctx, action.UserId)
	if err != nil {
		return AnswerFailed, fmt.Errorf("waiting for user lock: %w", err)
	}
	defer unlock()

	requestId, err := h.linkedRequest(ctx, cb.Message)
	if err != nil {
		return AnswerFailed, err
	}

	switch action.Kind {
	case KindConfirm:
		return h.confirm(ctx, action, requestId, cb.Message)
	default:
		return h.reject(ctx, action, requestId, cb.Message)
	}
}

// linkedRequest finds the deposit request a notification belongs to.
// Messages sent before requests were tracked have none.
func (h *Handler) linkedRequest(ctx context.Context, ref models.MessageRef) (string, error) {
	if ref.ChatId == 0 || ref.MessageId == 0 {
		return "", nil
	}

	var request *models.DepositRequest
	err := h.retry.run(ctx, "find request", func(ctx context.Context) error {
		var err error
		request, err = h.ledger.FindRequestByMessage(ctx, ref.ChatId, ref.MessageId)
		return err
	})
	if errors.Is(err, store.ErrRequestNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up deposit request: %w", err)
	}
	return request.Id, nil
}

func (h *Handler) confirm(ctx context.Context, action Action, requestId string, origin models.MessageRef) (string, error) {
	operator := models.GetOperator(ctx)
	params := store.ConfirmDepositParams{
		UserId:     action.UserId,
		Amount:     action.Amount,
		RequestId:  requestId,
		OperatorId: operatorId(operator),
	}

	var outcome *models.DepositOutcome
	err := h.retry.run(ctx, "confirm deposit", func(ctx context.Context) error {
		var err error
		outcome, err = h.ledger.ConfirmDeposit(ctx, params)
		return err
	})
	if err != nil {
		return answerFor(err), fmt.Errorf("confirm deposit for user %s: %w", action.UserId, err)
	}

	h.publish(ctx, requestId, origin, ConfirmedCaption(outcome, operator))
	return AnswerConfirmed, nil
}

func (h *Handler) reject(ctx context.Context, action Action, requestId string, origin models.MessageRef) (string, error) {
	operator := models.GetOperator(ctx)

	if requestId != "" {
		err := h.retry.run(ctx, "reject deposit", func(ctx context.Context) error {
			_, err := h.ledger.RejectDeposit(ctx, store.RejectDepositParams{
				RequestId:  requestId,
				UserId:     action.UserId,
				Amount:     action.Amount,
				OperatorId: operatorId(operator),
			})
			return err
		})
		if err != nil {
			return answerFor(err), fmt.Errorf("reject deposit for user %s: %w", action.UserId, err)
		}
	}

	zap.L().Info("Deposit rejected",
		zap.String("user_id", action.UserId),
		zap.String("amount", action.Amount.String()),
		zap.String("request_id", requestId),
		zap.Int64("operator_id", operatorId(operator)))

	h.publish(ctx, requestId, origin, RejectedCaption(action.UserId, action.Amount, operator))
	return AnswerRejected, nil
}

// publish edits every copy of the notification. Edit failures are logged;
// the ledger decision already stands.
func (h *Handler) publish(ctx context.Context, requestId string, origin models.MessageRef, caption string) {
	var err error
	switch {
	case requestId != "":
		err = h.notifier.Resolve(ctx, requestId, caption)
	case origin.ChatId != 0:
		err = h.notifier.EditMessage(ctx, origin, caption)
	default:
		return
	}
	if err != nil {
		zap.L().Warn("Failed to update operator notification",
			zap.String("request_id", requestId),
			zap.Int64("chat_id", origin.ChatId),
			zap.Error(err))
	}
}

func answerFor(err error) string {
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		return AnswerUserNotFound
	case errors.Is(err, store.ErrRequestResolved), errors.Is(err, store.ErrDuplicateTransaction):
		return AnswerAlreadyProcessed
	case errors.Is(err, store.ErrRequestMismatch):
		return AnswerInvalidFormat
	default:
		return AnswerFailed
	}
}

func operatorId(operator *models.Operator) int64 {
	if operator == nil {
		return 0
	}
	return operator.TelegramId
}
