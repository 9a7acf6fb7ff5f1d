package main

import (
	"github.com/spf13/cobra"
)

const defaultConfigPath = "config.yaml"

// annotationOffline marks commands that never call Gemini and so run
// without API keys.
const annotationOffline = "offline"

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "dailypapers",
		Short:         "Turn the day's arXiv papers into a two-host podcast episode",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd == cmd.Root() {
				return nil
			}
			ctx.explicitConfig = cmd.Flags().Changed("config")
			ctx.offline = cmd.Annotations[annotationOffline] == "true"
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", defaultConfigPath, "Configuration file path")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}
