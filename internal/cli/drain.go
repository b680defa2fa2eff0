package cli

import (
	"encoding/json"
	"fmt"

	"github.com/mrtodp/fleetd/pkg/model"
	"github.com/spf13/cobra"
)

func newDrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Assign every queued task now, highest priority first",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Post("/api/v1/tasks/drain", nil)
			if err != nil {
				return fmt.Errorf("drain: %w", err)
			}

			var data struct {
				Assigned []model.AssignmentRecord `json:"assigned"`
				Count    int                      `json:"count"`
			}
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if data.Count == 0 {
				fmt.Println("Queue empty, nothing to assign.")
				return nil
			}
			for _, rec := range data.Assigned {
				fmt.Println(rec.String())
			}
			fmt.Printf("%d task(s) assigned.\n", data.Count)
			return nil
		},
	}
}
