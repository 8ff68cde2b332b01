package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Force an immediate sync pass, retrying exhausted items too",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ForceSync()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Skipped {
					fmt.Fprintln(stdout, "A sync pass is already in flight")
					return nil
				}
				if resp.Attempted == 0 {
					fmt.Fprintln(stdout, "Nothing to sync")
					return nil
				}
				fmt.Fprintf(stdout, "Synced %d of %d items (%d failed, %d remaining)\n",
					resp.Completed, resp.Attempted, resp.Failed, resp.Remaining)
				return nil
			})
		},
	}
}
