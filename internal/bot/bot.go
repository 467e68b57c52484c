// Package bot serves the Telegram side of the reminder daemon: inline actions
// on delivered reminders and a few read-only commands for one chat.
package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smarttask/internal/model"
	"smarttask/internal/notify"
	"smarttask/internal/query"
	"smarttask/internal/service"
)

const (
	cbDonePrefix   = "done:"
	cbSnoozePrefix = "snooze:"
)

const helpText = `<b>smarttask</b>
/tasks - open tasks, earliest due first
/summary - daily digest
/done &lt;id&gt; - mark a task completed (the short id from /tasks is enough)

Reminders come with buttons to complete or snooze them.`

// API is the part of tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// NewAPI authorizes the bot token against the Telegram API.
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Printf("[info] bot authorized on account %s", api.Self.UserName)
	return api, nil
}

// Bot answers the configured chat only; updates from anywhere else are dropped.
type Bot struct {
	api        API
	chatID     int64
	tasks      *service.TaskService
	reminders  *service.ReminderService
	dispatcher *notify.Dispatcher
}

func New(api API, chatID int64, tasks *service.TaskService, reminders *service.ReminderService, dispatcher *notify.Dispatcher) *Bot {
	return &Bot{
		api:        api,
		chatID:     chatID,
		tasks:      tasks,
		reminders:  reminders,
		dispatcher: dispatcher,
	}
}

// ReminderKeyboard is the inline keyboard attached to a delivered reminder.
func ReminderKeyboard(snooze time.Duration) func(taskID string) tgbotapi.InlineKeyboardMarkup {
	minutes := int(snooze.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	label := "⏰ Snooze " + formatDuration(time.Duration(minutes)*time.Minute)
	return func(taskID string) tgbotapi.InlineKeyboardMarkup {
		return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Done", cbDonePrefix+taskID),
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s%d:%s", cbSnoozePrefix, minutes, taskID)),
		))
	}
}

// Start polls updates until ctx is cancelled. Updates are handled one at a
// time, so once Start returns no handler is still touching the store.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if err := b.handleUpdate(ctx, update); err != nil {
				log.Printf("handle update: %v", err)
			}
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		return b.handleMessage(ctx, update.Message)
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.Chat == nil || msg.Chat.ID != b.chatID {
		return nil
	}
	if !msg.IsCommand() {
		return b.sendText(helpText)
	}

	log.Printf("[info] command /%s %s", msg.Command(), msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		return b.sendText(helpText)
	case "tasks", "list":
		return b.handleListTasks(ctx)
	case "summary":
		text, err := b.reminders.DailySummary(ctx)
		if err != nil {
			return err
		}
		return b.sendText(html.EscapeString(text))
	case "done":
		return b.handleDone(ctx, strings.TrimSpace(msg.CommandArguments()))
	default:
		return b.sendText("Unknown command. See /help.")
	}
}

func (b *Bot) handleListTasks(ctx context.Context) error {
	open, err := b.reminders.Open(ctx)
	if err != nil {
		return err
	}
	if len(open) == 0 {
		return b.sendText("🎉 No open tasks.")
	}

	engine := b.tasks.Engine()
	var sb strings.Builder
	sb.WriteString("<b>Open tasks</b>\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, r := range open {
		icon := "🟢"
		switch {
		case !engine.Schedulable(r.DueDate):
			icon = "⚠️"
		case r.DueDate.Sub(engine.Now()) <= query.DueSoonWindow:
			icon = "⏳"
		}
		sb.WriteString(fmt.Sprintf("\n%d. %s %s\n   %s, %s <code>%s</code>", i+1, icon, html.EscapeString(r.Title),
			engine.Label(r.DueDate), r.DueDate.In(engine.Location()).Format("15:04"), shortID(r.ID)))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("✅ %d. %s", i+1, shortTitle(r.Title, 24)), cbDonePrefix+r.ID),
		))
	}

	msg := tgbotapi.NewMessage(b.chatID, sb.String())
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleDone(ctx context.Context, raw string) error {
	if raw == "" {
		return b.sendText("Usage: /done &lt;id&gt;")
	}
	id, err := b.tasks.ResolveID(ctx, raw)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return b.sendText("No task matches " + html.EscapeString(raw))
	case errors.Is(err, model.ErrValidation):
		return b.sendText("Several tasks match " + html.EscapeString(raw) + ", type more of the id")
	case err != nil:
		return err
	}
	return b.sendText(b.complete(ctx, id))
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.Message == nil || cb.Message.Chat == nil || cb.Message.Chat.ID != b.chatID {
		b.ack(cb.ID, "")
		return nil
	}

	data := cb.Data
	log.Printf("[info] callback %s", data)

	switch {
	case strings.HasPrefix(data, cbDonePrefix):
		b.ack(cb.ID, b.complete(ctx, strings.TrimPrefix(data, cbDonePrefix)))
	case strings.HasPrefix(data, cbSnoozePrefix):
		id, after, err := parseSnooze(data)
		if err != nil {
			b.ack(cb.ID, "")
			return err
		}
		if err := b.dispatcher.Snooze(id, after); err != nil {
			if errors.Is(err, notify.ErrUnknownReminder) {
				b.ack(cb.ID, "Nothing to snooze")
				return nil
			}
			b.ack(cb.ID, "")
			return err
		}
		b.ack(cb.ID, "⏰ Snoozed for "+formatDuration(after))
	default:
		b.ack(cb.ID, "")
	}
	return nil
}

// complete marks a task done and returns the text shown to the user.
func (b *Bot) complete(ctx context.Context, id string) string {
	err := b.tasks.SetCompleted(ctx, id, true)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return "Task no longer exists"
	case err != nil:
		log.Printf("complete task %s: %v", id, err)
		return "Could not complete the task"
	}
	return "✅ Marked as done"
}

func (b *Bot) ack(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.Printf("callback ack: %v", err)
	}
}

func (b *Bot) sendText(text string) error {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(msg)
	return err
}

// parseSnooze decodes "snooze:<minutes>:<task id>".
func parseSnooze(data string) (string, time.Duration, error) {
	rest := strings.TrimPrefix(data, cbSnoozePrefix)
	minutes, id, ok := strings.Cut(rest, ":")
	if !ok || id == "" {
		return "", 0, fmt.Errorf("bad snooze callback %q", data)
	}
	n, err := strconv.Atoi(minutes)
	if err != nil || n <= 0 {
		return "", 0, fmt.Errorf("bad snooze callback %q", data)
	}
	return id, time.Duration(n) * time.Minute, nil
}

func formatDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dm", int(d.Minutes()))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shortTitle(title string, maxLen int) string {
	runes := []rune(strings.TrimSpace(title))
	if len(runes) <= maxLen {
		return string(runes)
	}
	return string(runes[:maxLen-1]) + "…"
}
