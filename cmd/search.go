package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/gmailkit/internal/gmail"
)

func newSearchCmd() *cobra.Command {
	var (
		maxResults       int64
		pageToken        string
		labels           []string
		includeSpamTrash bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search Gmail messages",
		Long: `Search messages using Gmail's query syntax, for example:

  gmailkit search "in:inbox is:unread"
  gmailkit search "from:billing@example.com newer_than:7d"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(0)
			defer cancel()

			client, cleanup, err := gmailClient(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			query := strings.Join(args, " ")
			list, err := client.ListMessages(ctx, query, gmail.ListOptions{
				MaxResults:       maxResults,
				PageToken:        pageToken,
				LabelIDs:         labels,
				IncludeSpamTrash: includeSpamTrash,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(list.Messages) == 0 {
				fmt.Fprintln(out, "No messages found.")
				return nil
			}
			for _, m := range list.Messages {
				fmt.Fprintf(out, "%s\t%s\n", m.ID, m.ThreadID)
			}
			if list.NextPageToken != "" {
				fmt.Fprintf(out, "\nNext page: --page-token %s\n", list.NextPageToken)
			}
			return nil
		},
	}

	cmd.Flags().Int64Var(&maxResults, "max-results", 0, "Maximum number of results (default: 100)")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "Page token from a previous search")
	cmd.Flags().StringSliceVar(&labels, "label", nil, "Restrict results to messages carrying this label ID (repeatable)")
	cmd.Flags().BoolVar(&includeSpamTrash, "include-spam-trash", false, "Include messages from SPAM and TRASH")

	return cmd
}
