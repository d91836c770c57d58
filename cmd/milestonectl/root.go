package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var databaseFlag string
	var verbose bool

	ctx := newCommandContext(&databaseFlag)

	rootCmd := &cobra.Command{
		Use:           "milestonectl",
		Short:         "Inspect and manage customer milestone notes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(cmd.ErrOrStderr(), verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&databaseFlag, "database-url", "", "Database URL (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(newActivateCommand(ctx))
	rootCmd.AddCommand(newDeactivateCommand(ctx))
	rootCmd.AddCommand(newEvaluateCommand(ctx))
	rootCmd.AddCommand(newCountCommand(ctx))
	rootCmd.AddCommand(newNotesCommand(ctx))

	return rootCmd
}
