package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the durable sync queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued items in drain order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList(listStatuses)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Items) == 0 {
					fmt.Fprintln(stdout, "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(resp.Items))
				for _, item := range resp.Items {
					rows = append(rows, []string{
						item.ID,
						entityLabel(item.EntityType),
						priorityLabel(item.Priority),
						item.Status,
						fmt.Sprintf("%d", item.RetryCount),
						formatTimestamp(item.CreatedAt),
						truncate(item.LastError, 48),
					})
				}
				table := renderTable([]column{
					{title: "ID"},
					{title: "Entity"},
					{title: "Priority"},
					{title: "Status"},
					{title: "Retries", numeric: true},
					{title: "Created"},
					{title: "Last Error"},
				}, rows)
				fmt.Fprintln(stdout, table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (pending, syncing, completed, failed)")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every queued item, including unsynced work",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				fmt.Fprint(cmd.OutOrStdout(), "This discards all unsynced records. Continue? [y/N]: ")
				reader := bufio.NewReader(cmd.InOrStdin())
				answer, _ := reader.ReadString('\n')
				if !strings.EqualFold(strings.TrimSpace(answer), "y") {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.QueueClear(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Queue cleared")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")
	return cmd
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue database diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DatabaseHealth()
				if err != nil && resp == nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				rows := [][]string{
					{"Database path", resp.DBPath},
					{"Database exists", yesNo(resp.DatabaseExists)},
					{"Database readable", yesNo(resp.DatabaseReadable)},
					{"State table present", yesNo(resp.TableExists)},
					{"Integrity check", yesNo(resp.IntegrityCheck)},
					{"Queued items", fmt.Sprintf("%d", resp.QueuedItems)},
				}
				if resp.Error != "" {
					rows = append(rows, []string{"Error", resp.Error})
				}
				fmt.Fprintln(stdout, renderTable([]column{{title: "Check"}, {title: "Value"}}, rows))
				return nil
			})
		},
	}
}
