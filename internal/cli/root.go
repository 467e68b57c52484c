// Package cli implements the smarttask command tree.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"smarttask/internal/config"
)

type contextKey struct{}

// NewRootCmd builds the command tree. build is called once, before any
// subcommand runs, with the loaded configuration.
func NewRootCmd(build Builder) *cobra.Command {
	var (
		configPath string
		dbPath     string
		app        *App
	)

	root := &cobra.Command{
		Use:           "smarttask",
		Short:         "Personal task manager with reminders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if dbPath != "" {
				cfg.DatabasePath = dbPath
			}
			app, err = build(cfg)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), contextKey{}, app))
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if app == nil {
				return nil
			}
			return app.Close()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./smarttask.yaml)")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "database path, overrides config")

	root.AddCommand(
		newAddCmd(),
		newListCmd(),
		newShowCmd(),
		newEditCmd(),
		newDoneCmd(true),
		newDoneCmd(false),
		newDeleteCmd(),
		newSearchCmd(),
		newExportCmd(),
		newImportCmd(),
		newSummaryCmd(),
		newRemindCmd(),
	)
	return root
}

// Execute runs the command tree against the default builder.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCmd(DefaultBuilder)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func appFrom(cmd *cobra.Command) (*App, error) {
	app, ok := cmd.Context().Value(contextKey{}).(*App)
	if !ok || app == nil {
		return nil, fmt.Errorf("task store not initialized")
	}
	return app, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shortTitle(title string, maxLen int) string {
	title = strings.TrimSpace(title)
	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
