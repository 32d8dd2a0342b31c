package main

import (
	"github.com/spf13/cobra"
)

var (
	backendURL   string
	apiKey       string
	tokenCommand string
	outputFmt    string
)

var rootCmd = &cobra.Command{
	Use:   "kbctl",
	Short: "CLI for the knowledge base admin API",
	Long: `kbctl manages a knowledge base backend: documents, datasources, uploads,
chats, models and site settings.

Connection settings come from the environment (KB_BASE_URL, KB_API_KEY,
KB_TOKEN_COMMAND) or a .env file, and can be overridden with --backend,
--api-key and --token-command.

The mirror commands keep a local copy of documents and datasources in the
database named by MIRROR_DRIVER and MIRROR_DSN.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "Backend base URL (default: from KB_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key (default: from KB_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&tokenCommand, "token-command", "", "Shell command printing an access token, used instead of the API key")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "Output format: table, json, yaml")

	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(datasourcesCmd)
	rootCmd.AddCommand(uploadsCmd)
	rootCmd.AddCommand(chatsCmd)
	rootCmd.AddCommand(llmsCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mirrorCmd)
}
