package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
)

func newTestAlertCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-alert",
		Short: "Send a test alert through the configured ntfy topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestAlert()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Sent {
					fmt.Fprintln(stdout, "Test alert sent")
					return nil
				}
				fmt.Fprintln(stdout, resp.Message)
				return nil
			})
		},
	}
}
