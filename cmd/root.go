package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/calchat/calchat/internal/google"
)

// rootCmd represents the base command for the calchat application
var rootCmd = &cobra.Command{
	Use:   "calchat",
	Short: "Conversational assistant for Google Calendar",
	Long: `calchat lets you manage your Google Calendar in plain language. A chat
model translates your requests into calendar operations: searching events,
creating, updating and deleting them, and listing your calendars.

It can run as:
  - An interactive chat session (default)
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calchat version %s\n" .Version}}`)

	// If no subcommand is provided, start a chat session by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "chat")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// setupLogger builds the process logger. Logs go to stderr so that stdout
// stays clean for the chat transcript and the stdio MCP transport.
func setupLogger(debugMode bool) *slog.Logger {
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newCredentialProvider builds the Google credential provider from the
// environment or the client secrets file in the config directory.
func newCredentialProvider(logger *slog.Logger) (*google.Provider, error) {
	conf, err := google.OAuthConfig()
	if err != nil {
		return nil, err
	}
	return google.NewProvider(conf, google.DefaultTokenPath(), logger), nil
}

func init() {
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
}
