package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fa",
		Short:         "Financial analysis agents (fa): serve and query the supervisor",
		Long:          "fa runs a websocket server where a supervisor classifies each question about a company and dispatches it to the ratios, technical plot and company info workers. It also ships a client for asking questions and commands for inspecting the local data cache.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(app),
		newAskCmd(app),
		newCacheCmd(app),
	)

	return rootCmd
}
