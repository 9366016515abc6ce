package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSignatureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signature [address]",
		Short: "Show the signature configured for a send-as address",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(0)
			defer cancel()

			client, cleanup, err := gmailClient(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			address := ""
			if len(args) > 0 {
				address = args[0]
			}

			signature, err := client.GetSignature(ctx, address)
			if err != nil {
				return err
			}
			if signature == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No signature configured.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), signature)
			return nil
		},
	}

	return cmd
}
