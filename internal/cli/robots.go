package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mrtodp/fleetd/pkg/model"
	"github.com/spf13/cobra"
)

func newRobotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "robots",
		Short: "List registered robots",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Get("/api/v1/robots/")
			if err != nil {
				return fmt.Errorf("list robots: %w", err)
			}

			var robots []model.Robot
			if err := json.Unmarshal(resp.Data, &robots); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			if len(robots) == 0 {
				fmt.Println("No robots registered.")
				return nil
			}

			fmt.Printf("%-20s  %-44s  %s\n", "ID", "CAPABILITIES", "REGISTERED")
			fmt.Printf("%-20s  %-44s  %s\n", "----", "------------", "----------")
			for _, robot := range robots {
				fmt.Printf("%-20s  %-44s  %s\n", robot.ID,
					strings.Join(robot.Capabilities, ", "),
					humanize.Time(robot.RegisteredAt))
			}
			return nil
		},
	}
}
