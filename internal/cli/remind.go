package cli

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"smarttask/internal/bot"
	"smarttask/internal/notify"
	"smarttask/internal/service"
)

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the daily digest of open tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			text, err := app.Reminders.DailySummary(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func newRemindCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Run the reminder daemon (Telegram when configured, log otherwise)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			rs, err := buildReminders(app)
			if err != nil {
				return err
			}

			if once {
				n, err := runReminders(cmd.Context(), app.Reminders, rs.dispatcher)
				fmt.Fprintf(cmd.OutOrStdout(), "Sent %d reminder(s)\n", n)
				return err
			}
			return runDaemon(cmd.Context(), app, rs)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "send what is due now and exit")
	return cmd
}

// reminderStack is what the remind command runs: a notifier, the dispatcher
// feeding it and, with Telegram configured, the bot answering reminder actions.
type reminderStack struct {
	notifier   notify.Notifier
	dispatcher *notify.Dispatcher
	bot        *bot.Bot
}

func buildReminders(app *App) (*reminderStack, error) {
	rs := &reminderStack{notifier: notify.NewLogNotifier(nil)}

	var api *tgbotapi.BotAPI
	if app.Config.TelegramToken != "" {
		var err error
		if api, err = bot.NewAPI(app.Config.TelegramToken); err != nil {
			return nil, err
		}
		rs.notifier = notify.NewTelegramNotifier(api, app.Config.TelegramChatID).
			WithKeyboard(bot.ReminderKeyboard(app.Config.ReminderSnooze))
	}

	rs.dispatcher = notify.NewDispatcher(rs.notifier, app.Clock, app.Config.ReminderLead, app.Engine.Location())
	rs.dispatcher.CatchUp(app.Config.ReminderPoll)
	app.Tasks.Observe(rs.dispatcher)

	if api != nil {
		rs.bot = bot.New(api, app.Config.TelegramChatID, app.Tasks, app.Reminders, rs.dispatcher)
	}
	return rs, nil
}

// runReminders reloads open tasks from the store and delivers what is due.
func runReminders(ctx context.Context, reminders *service.ReminderService, d *notify.Dispatcher) (int, error) {
	open, err := reminders.Open(ctx)
	if err != nil {
		return 0, err
	}
	d.Sync(open)
	return d.Tick(ctx)
}

func runDaemon(ctx context.Context, app *App, rs *reminderStack) error {
	scheduler := service.NewSchedulerService(app.Engine.Location(), 0)

	if _, err := scheduler.ScheduleInterval(app.Config.ReminderPoll, "reminders", func(ctx context.Context) error {
		_, err := runReminders(ctx, app.Reminders, rs.dispatcher)
		return err
	}); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}

	if app.Config.SummaryTime != "" {
		if _, err := scheduler.ScheduleDaily(app.Config.SummaryTime, "summary", func(ctx context.Context) error {
			text, err := app.Reminders.DailySummary(ctx)
			if err != nil {
				return err
			}
			return rs.notifier.Notify(ctx, notify.Message{Title: text})
		}); err != nil {
			return fmt.Errorf("schedule summary: %w", err)
		}
	}

	// First pass right away so a restart does not wait a full poll interval.
	if _, err := runReminders(ctx, app.Reminders, rs.dispatcher); err != nil {
		log.Printf("reminders: %v", err)
	}

	scheduler.Start()
	defer scheduler.Stop()
	log.Printf("[info] reminder daemon started poll=%s jobs=%d", app.Config.ReminderPoll, scheduler.Entries())

	botDone := make(chan struct{})
	if rs.bot != nil {
		go func() {
			defer close(botDone)
			if err := rs.bot.Start(ctx); err != nil {
				log.Printf("bot stopped: %v", err)
			}
		}()
	} else {
		close(botDone)
	}

	<-ctx.Done()
	log.Println("[info] reminder daemon stopping")
	// The store is closed after we return; the bot must be done with it.
	<-botDone
	return nil
}
