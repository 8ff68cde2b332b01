package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"fieldsync/internal/ipc"
	"fieldsync/internal/queue"
)

func newEnqueueCommand(ctx *commandContext) *cobra.Command {
	var entityID string
	var priority int
	var payloadJSON string

	cmd := &cobra.Command{
		Use:   "enqueue <entity-type>",
		Short: "Queue a record for sync through the running daemon",
		Long: "Queue a record for sync. The entity type selects the backend table\n" +
			"(gate_entry, delivery, incident, guest_arrival); the payload is the\n" +
			"entity JSON body.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, ok := queue.ParseEntityType(args[0])
			if !ok {
				known := make([]string, 0, len(queue.AllEntityTypes()))
				for _, et := range queue.AllEntityTypes() {
					known = append(known, string(et))
				}
				return fmt.Errorf("unknown entity type %q (known: %s)", args[0], strings.Join(known, ", "))
			}

			raw := json.RawMessage(strings.TrimSpace(payloadJSON))
			if len(raw) > 0 && !json.Valid(raw) {
				return fmt.Errorf("payload is not valid JSON")
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Enqueue(ipc.EnqueueRequest{
					EntityType: string(entityType),
					EntityID:   entityID,
					Priority:   priority,
					Payload:    raw,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as %s (priority %s)\n",
					entityLabel(resp.Item.EntityType), resp.Item.ID, priorityLabel(resp.Item.Priority))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&entityID, "entity-id", "", "Remote entity id (required for guest_arrival)")
	cmd.Flags().IntVar(&priority, "priority", 3, "Sync priority: 1 critical, 2 high, 3 normal")
	cmd.Flags().StringVar(&payloadJSON, "payload", "{}", "Entity payload as JSON")
	return cmd
}
