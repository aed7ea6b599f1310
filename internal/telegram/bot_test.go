package telegram

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"deposit-desk-go/internal/approval"
	"deposit-desk-go/internal/models"
	"deposit-desk-go/internal/notify"

	"github.com/shopspring/decimal"
	"gopkg.in/telebot.v3"
)

const testToken = "123:test"

type apiCall struct {
	method string
	body   string
}

// fakeApi answers Bot API methods the way Telegram does for the calls the bot makes
type fakeApi struct {
	mu    sync.Mutex
	calls []apiCall
}

func (f *fakeApi) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, body: string(body)})
	f.mu.Unlock()

	var result interface{}
	switch method {
	case "getMe":
		result = map[string]interface{}{"id": 1, "is_bot": true, "first_name": "desk", "username": "desk_bot"}
	case "answerCallbackQuery":
		result = true
	case "sendPhoto":
		result = map[string]interface{}{
			"message_id": 42, "date": 0,
			"chat":  map[string]interface{}{"id": -100, "type": "group"},
			"photo": []map[string]interface{}{{"file_id": "f", "file_unique_id": "u", "width": 1, "height": 1}},
		}
	default:
		result = map[string]interface{}{
			"message_id": 43, "date": 0,
			"chat": map[string]interface{}{"id": -100, "type": "group"},
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"ok": true, "result": result})
}

func (f *fakeApi) called(method string) []apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []apiCall
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

type fakeCallbacks struct {
	mu     sync.Mutex
	got    []approval.Callback
	ops    []*models.Operator
	answer string
}

func (f *fakeCallbacks) Handle(ctx context.Context, cb approval.Callback) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, cb)
	f.ops = append(f.ops, models.GetOperator(ctx))
	return f.answer, nil
}

type fakeCards struct {
	texts []string
	ids   []int64
}

func (f *fakeCards) Register(ctx context.Context, text string, operatorId int64) (string, error) {
	f.texts = append(f.texts, text)
	f.ids = append(f.ids, operatorId)
	return "saved", nil
}

func setupTestBot(t *testing.T) (*Bot, *fakeApi) {
	t.Helper()

	api := &fakeApi{}
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	client, err := newHttpClient(time.Second, 5*time.Second)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	bot, err := newBot(telebot.Settings{
		URL:         server.URL,
		Token:       testToken,
		Client:      client,
		Synchronous: true,
	}, []int64{-100})
	if err != nil {
		t.Fatalf("Failed to create bot: %v", err)
	}
	return bot, api
}

func TestNewBot_RequiresToken(t *testing.T) {
	if _, err := NewBot(models.TelegramConfig{}); err == nil {
		t.Error("Expected error without bot token")
	}
}

func TestHandleCallback_FromOperatorChat(t *testing.T) {
	bot, api := setupTestBot(t)
	callbacks := &fakeCallbacks{answer: approval.AnswerConfirmed}
	bot.Attach(callbacks, &fakeCards{})

	bot.B.ProcessUpdate(telebot.Update{
		Callback: &telebot.Callback{
			ID:     "cb-1",
			Data:   "confirm_user-1_100",
			Sender: &telebot.User{ID: 7, Username: "alice"},
			Message: &telebot.Message{
				ID:    10,
				Chat:  &telebot.Chat{ID: -100},
				Photo: &telebot.Photo{},
			},
		},
	})

	if len(callbacks.got) != 1 {
		t.Fatalf("Expected 1 handled callback, got %d", len(callbacks.got))
	}
	cb := callbacks.got[0]
	if cb.Data != "confirm_user-1_100" {
		t.Errorf("Expected raw callback data, got %q", cb.Data)
	}
	want := models.MessageRef{ChatId: -100, MessageId: 10, HasPhoto: true}
	if cb.Message != want {
		t.Errorf("Expected message ref %+v, got %+v", want, cb.Message)
	}

	op := callbacks.ops[0]
	if op == nil || op.TelegramId != 7 || op.Username != "alice" || op.ChatId != -100 {
		t.Errorf("Unexpected operator %+v", op)
	}

	answers := api.called("answerCallbackQuery")
	if len(answers) != 1 {
		t.Fatalf("Expected 1 callback answer, got %d", len(answers))
	}
	if !strings.Contains(answers[0].body, approval.AnswerConfirmed) {
		t.Errorf("Expected answer text in request, got %s", answers[0].body)
	}
}

func TestHandleCallback_IgnoresForeignChat(t *testing.T) {
	bot, api := setupTestBot(t)
	callbacks := &fakeCallbacks{answer: approval.AnswerConfirmed}
	bot.Attach(callbacks, &fakeCards{})

	bot.B.ProcessUpdate(telebot.Update{
		Callback: &telebot.Callback{
			ID:      "cb-2",
			Data:    "confirm_user-1_100",
			Sender:  &telebot.User{ID: 8},
			Message: &telebot.Message{ID: 11, Chat: &telebot.Chat{ID: 555}},
		},
	})

	if len(callbacks.got) != 0 {
		t.Errorf("Expected callback from foreign chat to be ignored")
	}
	if len(api.called("answerCallbackQuery")) != 1 {
		t.Errorf("Expected the press to still be answered")
	}
}

func TestHandleCallback_RefusesInlineMessage(t *testing.T) {
	bot, api := setupTestBot(t)
	callbacks := &fakeCallbacks{answer: approval.AnswerConfirmed}
	bot.Attach(callbacks, &fakeCards{})

	bot.B.ProcessUpdate(telebot.Update{
		Callback: &telebot.Callback{
			ID:        "cb-3",
			Data:      "confirm_user-1_100",
			Sender:    &telebot.User{ID: 9},
			MessageID: "inline-1",
		},
	})

	if len(callbacks.got) != 0 {
		t.Errorf("Expected callback without a chat to be refused")
	}
	answers := api.called("answerCallbackQuery")
	if len(answers) != 1 {
		t.Fatalf("Expected 1 callback answer, got %d", len(answers))
	}
	if !strings.Contains(answers[0].body, "Not allowed") {
		t.Errorf("Expected refusal text, got %s", answers[0].body)
	}
}

func TestHandleSetCard(t *testing.T) {
	bot, api := setupTestBot(t)
	cards := &fakeCards{}
	bot.Attach(&fakeCallbacks{}, cards)

	text := "/set_card 1234 5678 9012 3456 | Ivan Ivanov | Tinkoff"
	bot.B.ProcessUpdate(telebot.Update{
		Message: &telebot.Message{
			ID:     20,
			Text:   text,
			Sender: &telebot.User{ID: 9},
			Chat:   &telebot.Chat{ID: -100},
		},
	})

	if len(cards.texts) != 1 || cards.texts[0] != text || cards.ids[0] != 9 {
		t.Fatalf("Unexpected registrations: %v %v", cards.texts, cards.ids)
	}
	if len(api.called("sendMessage")) != 1 {
		t.Errorf("Expected a reply to the command")
	}

	// Outside operator chats the command is ignored
	bot.B.ProcessUpdate(telebot.Update{
		Message: &telebot.Message{
			ID:     21,
			Text:   text,
			Sender: &telebot.User{ID: 9},
			Chat:   &telebot.Chat{ID: 12345},
		},
	})
	if len(cards.texts) != 1 {
		t.Errorf("Expected command from foreign chat to be ignored")
	}
}

func TestSend_PhotoWithButtons(t *testing.T) {
	bot, api := setupTestBot(t)

	receipt := filepath.Join(t.TempDir(), "receipt.jpg")
	if err := os.WriteFile(receipt, []byte("jpeg"), 0o600); err != nil {
		t.Fatalf("Failed to write receipt: %v", err)
	}

	ref, err := bot.Send(context.Background(), -100, notify.Outgoing{
		Text:      "New deposit",
		PhotoPath: receipt,
		Buttons: []notify.Button{
			{Text: "✅ Confirm", Data: approval.ConfirmToken("user-1", decimal.NewFromInt(100))},
			{Text: "❌ Reject", Data: approval.RejectToken("user-1", decimal.NewFromInt(100))},
		},
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if ref.ChatId != -100 || ref.MessageId != 42 || !ref.HasPhoto {
		t.Errorf("Unexpected ref %+v", ref)
	}

	calls := api.called("sendPhoto")
	if len(calls) != 1 {
		t.Fatalf("Expected 1 sendPhoto call, got %d", len(calls))
	}
	if !strings.Contains(calls[0].body, "confirm_user-1_100") {
		t.Errorf("Expected raw confirm token in markup")
	}
}

func TestEdit_ChoosesCaptionOrText(t *testing.T) {
	bot, api := setupTestBot(t)
	ctx := context.Background()

	if err := bot.Edit(ctx, models.MessageRef{ChatId: -100, MessageId: 42, HasPhoto: true}, "done"); err != nil {
		t.Fatalf("Edit caption failed: %v", err)
	}
	if err := bot.Edit(ctx, models.MessageRef{ChatId: -100, MessageId: 43}, "done"); err != nil {
		t.Fatalf("Edit text failed: %v", err)
	}

	if len(api.called("editMessageCaption")) != 1 {
		t.Errorf("Expected 1 caption edit")
	}
	if len(api.called("editMessageText")) != 1 {
		t.Errorf("Expected 1 text edit")
	}
}

func TestWithContext_Abandons(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	release := make(chan struct{})
	defer close(release)

	_, err := withContext(ctx, func() (*telebot.Message, error) {
		<-release
		return nil, nil
	})
	if err != context.DeadlineExceeded {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestInlineMarkup(t *testing.T) {
	if inlineMarkup(nil) != nil {
		t.Error("Expected no markup without buttons")
	}

	markup := inlineMarkup([]notify.Button{{Text: "a", Data: "x"}, {Text: "b", Data: "y"}})
	if len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 2 {
		t.Fatalf("Expected a single row with two buttons")
	}
	if markup.InlineKeyboard[0][1].Data != "y" || markup.InlineKeyboard[0][1].Unique != "" {
		t.Errorf("Expected raw data buttons, got %+v", markup.InlineKeyboard[0][1])
	}
}
