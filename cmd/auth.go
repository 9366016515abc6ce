package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/gmailkit/internal/google"
)

func newAuthCmd() *cobra.Command {
	var (
		clientID     string
		clientSecret string
		console      bool
		timeout      time.Duration
		scopes       []string
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to your Google account",
		Long: `Run the interactive OAuth2 authorization flow and persist the
resulting credential.

By default a browser consent page redirects back to a local callback
listener. On machines without a browser, use --console to paste the
authorization code manually.

You only need to authorize once per scope set; afterwards access
tokens are refreshed silently.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(timeout + time.Minute)
			defer cancel()

			manager := newManager(google.FlowConfig{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				Console:      console,
				CodeInput:    os.Stdin,
				Prompt:       cmd.OutOrStdout(),
				Timeout:      timeout,
			}, nil)

			cred, err := manager.New(ctx, scopes)
			if err != nil {
				return err
			}
			if err := manager.Save(cred, credentialsPath); err != nil {
				return fmt.Errorf("authorized but failed to persist credential: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Authorization complete. Credential saved to %s\n", credentialsPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "Google OAuth client ID. Can also use GOOGLE_CLIENT_ID env var.")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "Google OAuth client secret. Can also use GOOGLE_CLIENT_SECRET env var.")
	cmd.Flags().BoolVar(&console, "console", false, "Paste the authorization code manually instead of using a local callback listener")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "How long to wait for the user to complete consent")
	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "OAuth scopes to request (default: gmail.send and gmail.readonly)")

	return cmd
}
