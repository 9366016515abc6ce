package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/gmailkit/internal/google"
)

// rootCmd represents the base command for the gmailkit application
var rootCmd = &cobra.Command{
	Use:   "gmailkit",
	Short: "Gmail from the command line and over MCP",
	Long: `gmailkit manages Google OAuth2 credentials and provides typed access
to Gmail: searching, reading and sending mail.

Authorize once with 'gmailkit auth'; the credential is persisted and
access tokens are refreshed silently afterwards.

It can run as:
  - A standalone CLI tool
  - An MCP (Model Context Protocol) server for AI assistants`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(debugMode)
	},
}

// version will be set by main
var version = "dev"

var (
	credentialsPath string
	debugMode       bool
)

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "gmailkit version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	// Log to stderr; stdout is reserved for command output and the MCP
	// stdio transport.
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&credentialsPath, "credentials", google.DefaultCredentialsPath(),
		"Path to the persisted credential file")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newSignatureCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
