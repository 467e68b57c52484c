package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"smarttask/internal/service"
)

func newExportCmd() *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all tasks as a JSON or YAML array",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			f, err := resolveFormat(format, output)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer file.Close()
				w = file
			}

			n, err := app.Transfer.Export(cmd.Context(), w, f)
			if err != nil {
				return err
			}
			if output != "" && output != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d task(s) to %s\n", n, output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json or yaml (default from file extension, else json)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write, - or empty for stdout")
	return cmd
}

func newImportCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Create tasks from an exported array; ids and creation times are reassigned",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			f, err := resolveFormat(format, args[0])
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				file, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open import file: %w", err)
				}
				defer file.Close()
				r = file
			}

			n, err := app.Transfer.Import(cmd.Context(), r, f)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d task(s)\n", n)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "json or yaml (default from file extension, else json)")
	return cmd
}

func resolveFormat(flag, path string) (service.Format, error) {
	if flag == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			return service.FormatYAML, nil
		}
	}
	return service.ParseFormat(flag)
}
