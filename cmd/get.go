package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/gmailkit/internal/gmail"
)

func newGetCmd() *cobra.Command {
	var (
		format   string
		bodyOnly bool
	)

	cmd := &cobra.Command{
		Use:   "get <message-id>",
		Short: "Show a single Gmail message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(0)
			defer cancel()

			client, cleanup, err := gmailClient(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rec, err := client.GetMessage(ctx, args[0], gmail.Format(format))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if bodyOnly {
				fmt.Fprintln(out, rec.Body)
				return nil
			}
			for _, name := range []string{"From", "To", "Cc", "Date", "Subject"} {
				if v := rec.Header(name); v != "" {
					fmt.Fprintf(out, "%s: %s\n", name, v)
				}
			}
			if len(rec.LabelIDs) > 0 {
				fmt.Fprintf(out, "Labels: %s\n", strings.Join(rec.LabelIDs, ", "))
			}
			if rec.Body != "" {
				fmt.Fprintf(out, "\n%s\n", rec.Body)
			} else if rec.Snippet != "" {
				fmt.Fprintf(out, "\n%s\n", rec.Snippet)
			}
			for _, a := range rec.Attachments {
				fmt.Fprintf(out, "\nAttachment: %s (%s, %d bytes)\n", a.Filename, a.MimeType, a.Size)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", string(gmail.FormatFull), "Message format: minimal, full, raw or metadata")
	cmd.Flags().BoolVar(&bodyOnly, "body", false, "Print only the decoded message body")

	return cmd
}
