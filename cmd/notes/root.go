package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/notekeeper/internal/client/cli"
	"github.com/dmitrijs2005/notekeeper/internal/client/config"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "notes",
	Short: "Terminal client for collaborative notes",
	Long: `notes signs in to a notes server, keeps a live dashboard of your own,
shared and archived notes, and edits them with autosave while other
collaborators work on the same notes.`,
	SilenceUsage: true,
	RunE:         runREPL,
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start the interactive shell (the default)",
	Args:  cobra.NoArgs,
	RunE:  runREPL,
}

func init() {
	config.BindFlags(rootCmd.PersistentFlags())
	rootCmd.AddCommand(replCmd, versionCmd, whoamiCmd, exportCmd)
}

func runREPL(cmd *cobra.Command, _ []string) error {
	return withApp(cmd, func(ctx context.Context, app *cli.App) error {
		app.Run(ctx)
		return nil
	})
}

// withApp loads the configuration from the command's flags, builds the App
// and hands it to fn.
func withApp(cmd *cobra.Command, fn func(context.Context, *cli.App) error) error {
	flags := cmd.Flags()
	envFile, _ := flags.GetString(config.FlagEnvFile)
	configPath, _ := flags.GetString(config.FlagConfig)

	cfg, err := config.Load(envFile, configPath, flags)
	if err != nil {
		return err
	}

	logger := logging.NewTextLogger(os.Stderr, cfg.LogLevel)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, closer, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closer()

	return fn(ctx, app)
}
