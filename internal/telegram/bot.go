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

package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"deposit-desk-go/internal/approval"
	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/notify"

	"go.uber.org/zap"
	"gopkg.in/telebot.v3"
)

const setCardCommand = "/set_card"

// CallbackHandler decides operator button presses
type CallbackHandler interface {
	Handle(ctx context.Context, cb approval.Callback) (string, error)
}

// CardRegistrar handles /set_card commands
type CardRegistrar interface {
	Register(ctx context.Context, text string, operatorId int64) (string, error)
}

// Bot is the Telegram transport: long polling for operator input and
// message delivery for the notification dispatcher
type Bot struct {
	B *telebot.Bot

	operatorChats map[int64]bool
	callbacks     CallbackHandler
	cards         CardRegistrar

	ctx     context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	done    chan struct{}
	mu      sync.Mutex
}

var _ notify.Messenger = (*Bot)(nil)

func NewBot(cfg models.TelegramConfig) (*Bot, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("telegram bot token not configured")
	}

	client, err := newHttpClient(cfg.PollTimeout, cfg.SendTimeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create telegram http client: %w", err)
	}

	return newBot(telebot.Settings{
		Token:  cfg.BotToken,
		Poller: &telebot.LongPoller{Timeout: cfg.PollTimeout},
		Client: client,
	}, cfg.OperatorChatIds)
}

func newBot(settings telebot.Settings, operatorChatIds []int64) (*Bot, error) {
	settings.OnError = func(err error, c telebot.Context) {
		fields := []zap.Field{zap.Error(err)}
		if c != nil && c.Chat() != nil {
			fields = append(fields, zap.Int64("chat_id", c.Chat().ID))
		}
		zap.L().Error("Telegram handler failed", fields...)
	}

	b, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("unable to create telegram bot: %w", err)
	}

	chats := make(map[int64]bool, len(operatorChatIds))
	for _, id := range operatorChatIds {
		chats[id] = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	bot := &Bot{
		B:             b,
		operatorChats: chats,
		ctx:           ctx,
		cancel:        cancel,
	}
	bot.registerHandlers()
	return bot, nil
}

// Attach wires the operator input handlers. It must be called before Start.
func (bot *Bot) Attach(callbacks CallbackHandler, cards CardRegistrar) {
	bot.mu.Lock()
	defer bot.mu.Unlock()
	bot.callbacks = callbacks
	bot.cards = cards
}

func (bot *Bot) registerHandlers() {
	bot.B.Handle(setCardCommand, bot.handleSetCard)
	bot.B.Handle(telebot.OnCallback, bot.handleCallback)
}

// Start begins long polling in the background
func (bot *Bot) Start() {
	if !bot.running.CompareAndSwap(false, true) {
		zap.L().Warn("Telegram bot is already running")
		return
	}

	bot.done = make(chan struct{})
	go func() {
		defer close(bot.done)
		bot.B.Start()
	}()

	zap.L().Info("Telegram bot polling started",
		zap.String("username", bot.B.Me.Username),
		zap.Int("operator_chats", len(bot.operatorChats)))
}

// Stop ends polling and waits for the poller to exit
func (bot *Bot) Stop() {
	if !bot.running.CompareAndSwap(true, false) {
		return
	}

	zap.L().Info("Stopping Telegram bot")
	bot.cancel()
	bot.B.Stop()
	<-bot.done
	zap.L().Info("Telegram bot stopped")
}

func (bot *Bot) IsRunning() bool {
	return bot.running.Load()
}

func (bot *Bot) handlers() (CallbackHandler, CardRegistrar) {
	bot.mu.Lock()
	defer bot.mu.Unlock()
	return bot.callbacks, bot.cards
}

func (bot *Bot) handleCallback(c telebot.Context) error {
	cb := c.Callback()
	if cb == nil {
		return nil
	}

	callbacks, _ := bot.handlers()
	if callbacks == nil {
		return c.Respond(&telebot.CallbackResponse{Text: approval.AnswerFailed})
	}

	// Inline-mode callbacks carry no chat and cannot be traced to an operator
	if cb.Message == nil || cb.Message.Chat == nil {
		zap.L().Warn("Ignoring callback without a source chat", zap.String("data", cb.Data))
		return c.Respond(&telebot.CallbackResponse{Text: "Not allowed"})
	}
	if !bot.operatorChats[cb.Message.Chat.ID] {
		zap.L().Warn("Ignoring callback from non-operator chat", zap.Int64("chat_id", cb.Message.Chat.ID))
		return c.Respond(&telebot.CallbackResponse{Text: "Not allowed"})
	}
	event := approval.Callback{Data: cb.Data, Message: messageRef(cb.Message)}

	ctx := models.WithOperator(bot.ctx, operatorFrom(cb.Sender, cb.Message))
	answer, err := callbacks.Handle(ctx, event)
	if err != nil {
		zap.L().Warn("Callback not applied",
			zap.String("data", cb.Data),
			zap.String("answer", answer),
			zap.Error(err))
	}

	return c.Respond(&telebot.CallbackResponse{Text: answer})
}

func (bot *Bot) handleSetCard(c telebot.Context) error {
	if c.Chat() == nil || !bot.operatorChats[c.Chat().ID] {
		zap.L().Warn("Ignoring /set_card from non-operator chat")
		return nil
	}

	_, cards := bot.handlers()
	if cards == nil {
		return nil
	}

	var operatorId int64
	if c.Sender() != nil {
		operatorId = c.Sender().ID
	}

	reply, err := cards.Register(bot.ctx, c.Text(), operatorId)
	if err != nil {
		zap.L().Info("Payout card not saved", zap.Int64("operator_id", operatorId), zap.Error(err))
	}
	return c.Reply(reply, telebot.ModeMarkdownV2)
}

// Send delivers a message to a chat. Photos carry the text as caption.
func (bot *Bot) Send(ctx context.Context, chatId int64, msg notify.Outgoing) (models.MessageRef, error) {
	opts := []interface{}{telebot.ModeMarkdownV2}
	if markup := inlineMarkup(msg.Buttons); markup != nil {
		opts = append(opts, markup)
	}

	var what interface{} = msg.Text
	if msg.PhotoPath != "" {
		what = &telebot.Photo{File: telebot.FromDisk(msg.PhotoPath), Caption: msg.Text}
	}

	sent, err := withContext(ctx, func() (*telebot.Message, error) {
		return bot.B.Send(telebot.ChatID(chatId), what, opts...)
	})
	if err != nil {
		return models.MessageRef{}, err
	}
	return messageRef(sent), nil
}

// Edit replaces a message's text or caption and drops its buttons
func (bot *Bot) Edit(ctx context.Context, ref models.MessageRef, text string) error {
	stored := telebot.StoredMessage{MessageID: strconv.Itoa(ref.MessageId), ChatID: ref.ChatId}

	_, err := withContext(ctx, func() (*telebot.Message, error) {
		if ref.HasPhoto {
			return bot.B.EditCaption(stored, text, telebot.ModeMarkdownV2)
		}
		return bot.B.Edit(stored, text, telebot.ModeMarkdownV2)
	})
	return err
}

// withContext bounds a Bot API call by ctx. telebot has no per-call context,
// so an abandoned call finishes in the background under the client timeout.
func withContext(ctx context.Context, call func() (*telebot.Message, error)) (*telebot.Message, error) {
	type result struct {
		msg *telebot.Message
		err error
	}

	ch := make(chan result, 1)
	go func() {
		msg, err := call()
		ch <- result{msg, err}
	}()

	select {
	case r := <-ch:
		return r.msg, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func inlineMarkup(buttons []notify.Button) *telebot.ReplyMarkup {
	if len(buttons) == 0 {
		return nil
	}
	row := make([]telebot.InlineButton, 0, len(buttons))
	for _, b := range buttons {
		row = append(row, telebot.InlineButton{Text: b.Text, Data: b.Data})
	}
	return &telebot.ReplyMarkup{InlineKeyboard: [][]telebot.InlineButton{row}}
}

func messageRef(msg *telebot.Message) models.MessageRef {
	if msg == nil {
		return models.MessageRef{}
	}
	ref := models.MessageRef{MessageId: msg.ID, HasPhoto: msg.Photo != nil}
	if msg.Chat != nil {
		ref.ChatId = msg.Chat.ID
	}
	return ref
}

func operatorFrom(sender *telebot.User, msg *telebot.Message) *models.Operator {
	op := &models.Operator{}
	if sender != nil {
		op.TelegramId = sender.ID
		op.Username = sender.Username
	}
	if msg != nil && msg.Chat != nil {
		op.ChatId = msg.Chat.ID
	}
	return op
}
