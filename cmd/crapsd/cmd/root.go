package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the crapsd root command. It is called once in main.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "crapsd",
		Short:         "Two-player craps ABCI application",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())
		},
	}
	rootCmd.AddCommand(
		newStartCmd(),
		newGenesisCmd(),
		newOracleCmd(),
	)
	return rootCmd
}
