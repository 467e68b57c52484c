// Package notify turns due tasks into delivered reminders.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Message is a rendered alert.
type Message struct {
	TaskID string
	Title  string
	Body   string
}

func (m Message) Text() string {
	if m.Body == "" {
		return m.Title
	}
	return m.Title + "\n" + m.Body
}

// Notifier delivers a message. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the process log. Used when no chat is configured.
type LogNotifier struct {
	logger *log.Logger
}

func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, msg Message) error {
	n.logger.Printf("[reminder] %s", strings.ReplaceAll(msg.Text(), "\n", " | "))
	return nil
}

// Sender is the part of tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends reminders to a single Telegram chat.
type TelegramNotifier struct {
	api      Sender
	chatID   int64
	keyboard func(taskID string) tgbotapi.InlineKeyboardMarkup
}

func NewTelegramNotifier(api Sender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{api: api, chatID: chatID}
}

// WithKeyboard attaches inline actions to every message that names a task.
func (n *TelegramNotifier) WithKeyboard(build func(taskID string) tgbotapi.InlineKeyboardMarkup) *TelegramNotifier {
	n.keyboard = build
	return n
}

func (n *TelegramNotifier) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := tgbotapi.NewMessage(n.chatID, msg.Text())
	out.DisableWebPagePreview = true
	if n.keyboard != nil && msg.TaskID != "" {
		out.ReplyMarkup = n.keyboard(msg.TaskID)
	}
	if _, err := n.api.Send(out); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
