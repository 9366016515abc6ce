package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/gmailkit/internal/gmail"
)

func newSendCmd() *cobra.Command {
	var (
		to            []string
		cc            []string
		bcc           []string
		subject       string
		body          string
		bodyFile      string
		html          bool
		withSignature bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send an email through Gmail",
		Long: `Send an email. The body comes from --body, from a file via
--body-file, or from stdin when --body-file is '-'.

With --with-signature the signature configured for your primary
send-as address is appended to the body.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if body != "" && bodyFile != "" {
				return fmt.Errorf("--body and --body-file are mutually exclusive")
			}
			if bodyFile != "" {
				content, err := readBody(bodyFile)
				if err != nil {
					return err
				}
				body = content
			}

			ctx, cancel := commandContext(0)
			defer cancel()

			client, cleanup, err := gmailClient(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if withSignature {
				signature, err := client.GetSignature(ctx, "")
				if err != nil {
					return fmt.Errorf("failed to fetch signature: %w", err)
				}
				if signature != "" {
					body = body + "\n\n" + signature
				}
			}

			receipt, err := client.SendMessage(ctx, &gmail.OutgoingMessage{
				To:      to,
				Cc:      cc,
				Bcc:     bcc,
				Subject: subject,
				Body:    body,
				HTML:    html,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sent. Message ID: %s (thread %s)\n", receipt.ID, receipt.ThreadID)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&to, "to", nil, "Recipient address(es)")
	cmd.Flags().StringSliceVar(&cc, "cc", nil, "CC address(es)")
	cmd.Flags().StringSliceVar(&bcc, "bcc", nil, "BCC address(es)")
	cmd.Flags().StringVar(&subject, "subject", "", "Email subject")
	cmd.Flags().StringVar(&body, "body", "", "Email body")
	cmd.Flags().StringVar(&bodyFile, "body-file", "", "Read the body from a file, or stdin with '-'")
	cmd.Flags().BoolVar(&html, "html", false, "Send the body as HTML instead of plain text")
	cmd.Flags().BoolVar(&withSignature, "with-signature", false, "Append the configured signature to the body")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func readBody(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read body from stdin: %w", err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read body file: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
