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

package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"deposit-desk-go/internal/approval"
	"deposit-desk-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNoChats is returned when the dispatcher has nowhere to deliver
var ErrNoChats = errors.New("no operator chats configured")

// Requests is the part of store.LedgerStore the dispatcher needs
type Requests interface {
	CreateDepositRequest(ctx context.Context, userId string, amount decimal.Decimal) (*models.DepositRequest, error)
	AttachNotificationMessage(ctx context.Context, requestId string, ref models.MessageRef) error
	GetNotificationMessages(ctx context.Context, requestId string) ([]models.MessageRef, error)
}

type DepositNotice struct {
	UserId      string
	Email       string
	Amount      decimal.Decimal
	ReceiptPath string
}

type WithdrawalNotice struct {
	UserId      string
	Email       string
	Amount      decimal.Decimal
	ReceiptPath string
	CardNumber  string
	FullName    string
}

type RegistrationNotice struct {
	UserId       string
	Name         string
	Email        string
	PromoCode    string
	PromoPercent int64
}

type DispatcherConfig struct {
	Messenger   Messenger
	Requests    Requests
	ChatIds     []int64
	SendTimeout time.Duration
	MaxParallel int
}

// Dispatcher fans operator notifications out to every configured chat.
// Delivery is best-effort per chat.
type Dispatcher struct {
	messenger   Messenger
	requests    Requests
	chatIds     []int64
	sendTimeout time.Duration
	maxParallel int
	now         func() time.Time
}

func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	maxParallel := cfg.MaxParallel
	if maxParallel < 1 {
		maxParallel = 1
	}
	return &Dispatcher{
		messenger:   cfg.Messenger,
		requests:    cfg.Requests,
		chatIds:     cfg.ChatIds,
		sendTimeout: cfg.SendTimeout,
		maxParallel: maxParallel,
		now:         time.Now,
	}
}

// NotifyDeposit records a pending deposit request and posts the receipt with
// Confirm/Reject buttons to every operator chat.
func (d *Dispatcher) NotifyDeposit(ctx context.Context, notice DepositNotice) (models.DispatchResult, error) {
	if len(d.chatIds) == 0 {
		return models.DispatchResult{}, ErrNoChats
	}

	request, err := d.requests.CreateDepositRequest(ctx, notice.UserId, notice.Amount)
	if err != nil {
		return models.DispatchResult{}, fmt.Errorf("failed to record deposit request: %w", err)
	}

	msg := Outgoing{
		Text:      depositCaption(notice, d.now()),
		PhotoPath: notice.ReceiptPath,
		Buttons: []Button{
			{Text: "✅ Confirm", Data: approval.ConfirmToken(notice.UserId, notice.Amount)},
			{Text: "❌ Reject", Data: approval.RejectToken(notice.UserId, notice.Amount)},
		},
	}

	refs, failed := d.fanOut(ctx, msg)
	for _, ref := range refs {
		if err := d.requests.AttachNotificationMessage(ctx, request.Id, ref); err != nil {
			zap.L().Error("Failed to link notification to deposit request",
				zap.String("request_id", request.Id),
				zap.Int64("chat_id", ref.ChatId),
				zap.Int("message_id", ref.MessageId),
				zap.Error(err))
		}
	}

	result := models.DispatchResult{RequestId: request.Id, Delivered: len(refs), Failed: failed}
	d.logResult("deposit", result, zap.String("user_id", notice.UserId), zap.String("amount", notice.Amount.String()))
	return result, nil
}

// NotifyWithdrawal posts a withdrawal receipt. Withdrawals carry no buttons.
func (d *Dispatcher) NotifyWithdrawal(ctx context.Context, notice WithdrawalNotice) (models.DispatchResult, error) {
	if len(d.chatIds) == 0 {
		return models.DispatchResult{}, ErrNoChats
	}

	refs, failed := d.fanOut(ctx, Outgoing{
		Text:      withdrawalCaption(notice, d.now()),
		PhotoPath: notice.ReceiptPath,
	})

	result := models.DispatchResult{Delivered: len(refs), Failed: failed}
	d.logResult("withdrawal", result, zap.String("user_id", notice.UserId), zap.String("amount", notice.Amount.String()))
	return result, nil
}

// NotifyRegistration tells operators about a new sign-up
func (d *Dispatcher) NotifyRegistration(ctx context.Context, notice RegistrationNotice) (models.DispatchResult, error) {
	if len(d.chatIds) == 0 {
		return models.DispatchResult{}, ErrNoChats
	}

	refs, failed := d.fanOut(ctx, Outgoing{Text: registrationText(notice, d.now())})

	result := models.DispatchResult{Delivered: len(refs), Failed: failed}
	d.logResult("registration", result, zap.String("user_id", notice.UserId))
	return result, nil
}

// Resolve replaces the text of every copy of a deposit request notification
// and drops its buttons. Every copy is attempted even when some fail.
func (d *Dispatcher) Resolve(ctx context.Context, requestId, caption string) error {
	refs, err := d.requests.GetNotificationMessages(ctx, requestId)
	if err != nil {
		return fmt.Errorf("failed to load notification messages: %w", err)
	}

	var mu sync.Mutex
	var errs []error

	g := new(errgroup.Group)
	g.SetLimit(d.maxParallel)
	for _, ref := range refs {
		g.Go(func() error {
			if err := d.EditMessage(ctx, ref, caption); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("%d of %d notification edits failed: %w", len(errs), len(refs), errors.Join(errs...))
	}
	return nil
}

// EditMessage replaces the text of a single notification
func (d *Dispatcher) EditMessage(ctx context.Context, ref models.MessageRef, caption string) error {
	sendCtx, cancel := d.withSendTimeout(ctx)
	defer cancel()

	if err := d.messenger.Edit(sendCtx, ref, caption); err != nil {
		return fmt.Errorf("edit message %d in chat %d: %w", ref.MessageId, ref.ChatId, err)
	}
	return nil
}

// fanOut sends msg to every chat concurrently. A failed chat is logged and
// skipped; the refs of the delivered copies are returned.
func (d *Dispatcher) fanOut(ctx context.Context, msg Outgoing) ([]models.MessageRef, int) {
	var mu sync.Mutex
	refs := make([]models.MessageRef, 0, len(d.chatIds))
	failed := 0

	g := new(errgroup.Group)
	g.SetLimit(d.maxParallel)
	for _, chatId := range d.chatIds {
		g.Go(func() error {
			sendCtx, cancel := d.withSendTimeout(ctx)
			defer cancel()

			ref, err := d.messenger.Send(sendCtx, chatId, msg)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				zap.L().Warn("Failed to deliver operator notification",
					zap.Int64("chat_id", chatId),
					zap.Error(err))
				return nil
			}
			refs = append(refs, ref)
			return nil
		})
	}
	_ = g.Wait()

	return refs, failed
}

func (d *Dispatcher) withSendTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.sendTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.sendTimeout)
}

func (d *Dispatcher) logResult(kind string, result models.DispatchResult, fields ...zap.Field) {
	fields = append(fields,
		zap.String("kind", kind),
		zap.String("request_id", result.RequestId),
		zap.Int("delivered", result.Delivered),
		zap.Int("failed", result.Failed))

	if !result.Success() {
		zap.L().Error("Notification reached no operator chat", fields...)
		return
	}
	zap.L().Info("Operator notification sent", fields...)
}
