package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mrtodp/fleetd/pkg/model"
	"github.com/spf13/cobra"
)

func newSubmitCmd() *cobra.Command {
	var (
		taskType   string
		priority   uint32
		deadlineIn time.Duration
		robot      string
		requires   []string
		params     string
	)

	cmd := &cobra.Command{
		Use:   "submit <task-id>",
		Short: "Submit a task to the scheduler",
		Long:  "Submit a prioritized task. The payload is the five-number command vector forwarded to the assigned robot.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := parseParams(params)
			if err != nil {
				return err
			}

			req := map[string]any{
				"id":       args[0],
				"type":     taskType,
				"priority": priority,
				"payload":  payload,
			}
			if deadlineIn > 0 {
				req["deadline_ms"] = time.Now().Add(deadlineIn).UnixMilli()
			}
			if robot != "" {
				req["target_robot"] = robot
			}
			if len(requires) > 0 {
				req["required_capabilities"] = requires
			}

			resp, err := client.Post("/api/v1/tasks/", req)
			if err != nil {
				return fmt.Errorf("submit task: %w", err)
			}

			var snap model.TaskSnapshot
			if err := json.Unmarshal(resp.Data, &snap); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}

			fmt.Printf("Task admitted: %s\n", snap.Task.ID)
			fmt.Printf("  State:    %s\n", snap.State)
			fmt.Printf("  Priority: %d\n", snap.Task.Priority)
			if deadline, ok := snap.Task.DeadlineTime(); ok {
				fmt.Printf("  Deadline: %s\n", deadline.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&taskType, "type", "generic", "Task type")
	cmd.Flags().Uint32Var(&priority, "priority", 1, "Priority; higher dispatches first")
	cmd.Flags().DurationVar(&deadlineIn, "deadline-in", 0, "Relative deadline, e.g. 90s (0 = none)")
	cmd.Flags().StringVar(&robot, "robot", "", "Target robot id")
	cmd.Flags().StringSliceVar(&requires, "requires", nil, "Required capability (repeatable)")
	cmd.Flags().StringVar(&params, "params", "0,0,0,0,0", "Comma-separated command parameters (exactly 5)")

	return cmd
}

// parseParams converts "100,10,20,30,1" into the payload vector. Length is
// validated server-side.
func parseParams(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	payload := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid parameter %q: %w", part, err)
		}
		payload = append(payload, v)
	}
	return payload, nil
}
