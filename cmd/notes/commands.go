package main

import (
	"context"

	"github.com/dmitrijs2005/notekeeper/internal/buildinfo"
	"github.com/dmitrijs2005/notekeeper/internal/client/cli"
	"github.com/dmitrijs2005/notekeeper/internal/client/export"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		buildinfo.PrintBuildData(cmd.OutOrStdout())
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the user of the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			if err := app.Restore(ctx); err != nil {
				return err
			}
			return app.Whoami(ctx)
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <note-id> [file]",
	Short: "Export a note as Markdown, PDF or Word",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, _ := cmd.Flags().GetString("format")
		f, err := export.ParseFormat(raw)
		if err != nil {
			return err
		}
		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		return withApp(cmd, func(ctx context.Context, app *cli.App) error {
			if err := app.Restore(ctx); err != nil {
				return err
			}
			return app.ExportNote(ctx, args[0], f, name)
		})
	},
}

func init() {
	exportCmd.Flags().StringP("format", "f", string(export.FormatMarkdown), "md, pdf or doc")
}
