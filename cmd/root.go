package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "echoframe",
		Short: "Echo-image studio backed by the Gemini image model",
		Long: `Echoframe is a small web service that takes a user-supplied Gemini API key,
an uploaded picture, and returns a reimagined "echo" of that picture together
with the prompt that produced it.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newHistoryCmd())

	return cmd
}
