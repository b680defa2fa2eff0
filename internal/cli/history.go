package cli

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/dustin/go-humanize"
	"github.com/mrtodp/fleetd/internal/journal"
	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	var limit int
	var state string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent task outcomes from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/history?limit=%d", limit)
			if state != "" {
				path += "&state=" + url.QueryEscape(state)
			}

			resp, err := client.Get(path)
			if err != nil {
				return fmt.Errorf("get history: %w", err)
			}

			var entries []journal.Entry
			if err := json.Unmarshal(resp.Data, &entries); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(entries) == 0 {
				fmt.Println("No history recorded.")
				return nil
			}

			fmt.Printf("%-16s  %-16s  %-10s  %-12s  %s\n", "TASK", "TYPE", "STATE", "ROBOT", "WHEN")
			fmt.Printf("%-16s  %-16s  %-10s  %-12s  %s\n", "----", "----", "-----", "-----", "----")
			for _, e := range entries {
				fmt.Printf("%-16s  %-16s  %-10s  %-12s  %s\n",
					e.TaskID, e.TaskType, e.State, e.RobotID, humanize.Time(e.CreatedAt))
			}

			if resp.Pagination != nil && resp.Pagination.HasMore {
				fmt.Printf("\n(%d of %d shown)\n", len(entries), resp.Pagination.Total)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum entries to show")
	cmd.Flags().StringVar(&state, "state", "", "Filter by terminal state (ASSIGNED, FAILED, DROPPED)")
	return cmd
}
