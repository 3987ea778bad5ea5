package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "attune",
	Short: "Attune - personal assistant backend",
	Long: `Attune is a conversational personal-assistant backend built on Genkit.

It exposes a streaming chat API backed by an LLM with tool calling:
tasks, long-term memory, guided meditation, flight booking, and weather.

Run 'attune serve' to start the HTTP API server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
