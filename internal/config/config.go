package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config keeps runtime settings for the task store and reminder daemon.
type Config struct {
	DatabasePath string
	Timezone     string
	Location     *time.Location

	ReminderPoll time.Duration
	// ReminderLead fires reminders this long before the due time.
	ReminderLead time.Duration
	// ReminderSnooze is the delay offered by the snooze action on a delivered reminder.
	ReminderSnooze time.Duration
	// SummaryTime is an HH:MM wall-clock time for the daily digest; empty disables it.
	SummaryTime string

	TelegramToken  string
	TelegramChatID int64
}

const defaultDatabasePath = "smarttask.db"

// Load reads an optional YAML file, SMARTTASK_* environment variables and defaults.
// An empty path searches for smarttask.yaml in the working directory.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("database_path", defaultDatabasePath)
	v.SetDefault("timezone", "Local")
	v.SetDefault("reminder.poll_interval", "1m")
	v.SetDefault("reminder.lead", "0s")
	v.SetDefault("reminder.snooze", "10m")
	v.SetDefault("summary.time", "")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", "")

	v.SetEnvPrefix("smarttask")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("smarttask")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		DatabasePath:  strings.TrimSpace(v.GetString("database_path")),
		Timezone:      strings.TrimSpace(v.GetString("timezone")),
		SummaryTime:   strings.TrimSpace(v.GetString("summary.time")),
		TelegramToken: strings.TrimSpace(v.GetString("telegram.token")),
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDatabasePath
	}

	var err error
	if cfg.ReminderPoll, err = parseDuration(v.GetString("reminder.poll_interval")); err != nil {
		return cfg, fmt.Errorf("reminder.poll_interval: %w", err)
	}
	if cfg.ReminderPoll <= 0 {
		cfg.ReminderPoll = time.Minute
	}
	if cfg.ReminderLead, err = parseDuration(v.GetString("reminder.lead")); err != nil {
		return cfg, fmt.Errorf("reminder.lead: %w", err)
	}
	if cfg.ReminderLead < 0 {
		return cfg, fmt.Errorf("reminder.lead must not be negative")
	}
	if cfg.ReminderSnooze, err = parseDuration(v.GetString("reminder.snooze")); err != nil {
		return cfg, fmt.Errorf("reminder.snooze: %w", err)
	}
	if cfg.ReminderSnooze <= 0 {
		return cfg, fmt.Errorf("reminder.snooze must be positive")
	}

	if cfg.Location, err = loadLocation(cfg.Timezone); err != nil {
		return cfg, err
	}

	if raw := strings.TrimSpace(v.GetString("telegram.chat_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("telegram.chat_id %q is not a number", raw)
		}
		cfg.TelegramChatID = id
	}
	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		return cfg, fmt.Errorf("telegram.chat_id is required when telegram.token is set")
	}

	return cfg, nil
}

func parseDuration(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}

func loadLocation(name string) (*time.Location, error) {
	switch name {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", name, err)
	}
	return loc, nil
}
