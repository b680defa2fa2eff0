package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mrtodp/fleetd/pkg/model"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show the status snapshot of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/tasks/" + args[0])
			if err != nil {
				return fmt.Errorf("get task: %w", err)
			}

			var snap model.TaskSnapshot
			if err := json.Unmarshal(resp.Data, &snap); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Task: %s\n", snap.Task.ID)
			fmt.Printf("  Type:      %s\n", snap.Task.Type)
			fmt.Printf("  State:     %s\n", snap.State)
			fmt.Printf("  Priority:  %d\n", snap.Task.Priority)
			if deadline, ok := snap.Task.DeadlineTime(); ok {
				fmt.Printf("  Deadline:  %s\n", deadline.UTC().Format(time.RFC3339))
			}
			if snap.Robot != "" {
				fmt.Printf("  Robot:     %s\n", snap.Robot)
			}
			if snap.Reason != "" {
				fmt.Printf("  Reason:    %s\n", snap.Reason)
			}
			fmt.Printf("  Submitted: %s (%s)\n",
				snap.SubmittedAt.UTC().Format(time.RFC3339), humanize.Time(snap.SubmittedAt))
			if snap.DispatchedAt != nil {
				fmt.Printf("  Dispatched: %s\n", snap.DispatchedAt.UTC().Format(time.RFC3339))
			}
			if snap.CompletedAt != nil {
				fmt.Printf("  Completed:  %s\n", snap.CompletedAt.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}
}
