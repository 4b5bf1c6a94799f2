package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sitepulse/internal/visitors"
)

var sessionIDCmd = &cobra.Command{
	Use:   "session-id [token]",
	Short: "Mint a session token, or show when a token was issued",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := visitors.NewSessionID(time.Now())
		if len(args) == 1 {
			token = args[0]
		}

		issuedAt, ok := visitors.IssuedAt(token)
		if !ok {
			return fmt.Errorf("token %q does not start with a millisecond timestamp", token)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\tissued %s\n", token, issuedAt.UTC().Format(time.RFC3339Nano))
		return nil
	},
}
