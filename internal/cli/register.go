package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mrtodp/fleetd/pkg/model"
	"github.com/spf13/cobra"
)

func newRegisterCmd() *cobra.Command {
	var capabilities []string

	cmd := &cobra.Command{
		Use:   "register <robot-id>",
		Short: "Register a robot and its capabilities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := client.Post("/api/v1/robots/", map[string]any{
				"id":           args[0],
				"capabilities": capabilities,
			})
			if err != nil {
				return fmt.Errorf("register robot: %w", err)
			}

			var robot model.Robot
			if err := json.Unmarshal(resp.Data, &robot); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Robot registered: %s\n", robot.ID)
			fmt.Printf("  Capabilities: %s\n", strings.Join(robot.Capabilities, ", "))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&capabilities, "capability", nil, "Declared capability (repeatable)")
	return cmd
}
