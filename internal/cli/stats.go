package cli

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/mrtodp/fleetd/pkg/model"
	"github.com/spf13/cobra"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show scheduler counters and queue depth",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/stats")
			if err != nil {
				return fmt.Errorf("get stats: %w", err)
			}

			var stats model.Stats
			if err := json.Unmarshal(resp.Data, &stats); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Scheduled:       %s\n", humanize.Comma(int64(stats.Scheduled)))
			fmt.Printf("Dispatched:      %s\n", humanize.Comma(int64(stats.Dispatched)))
			fmt.Printf("Assigned:        %s\n", humanize.Comma(int64(stats.Assigned)))
			fmt.Printf("Failed:          %s\n", humanize.Comma(int64(stats.Failed)))
			fmt.Printf("Deadline misses: %s\n", humanize.Comma(int64(stats.DeadlineMisses)))
			fmt.Printf("Drained:         %s\n", humanize.Comma(int64(stats.Drained)))
			fmt.Printf("Queue depth:     %d\n", stats.QueueDepth)
			return nil
		},
	}
}
