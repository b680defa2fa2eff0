package delegate

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dop251/goja"

	"github.com/mrtodp/fleetd/pkg/model"
)

// Script evaluates a JavaScript assignment policy. The policy source must
// define a function assign(task, robots) returning the chosen robot id;
// returning null or undefined refuses the task. Each Assign call runs in
// a fresh VM, so policies cannot accumulate state between tasks and the
// delegator stays safe for concurrent callers.
type Script struct {
	src    string
	logger *slog.Logger
}

// NewScript creates a script delegator from policy source code.
func NewScript(src string, logger *slog.Logger) *Script {
	return &Script{
		src:    src,
		logger: logger.With("component", "delegate-script"),
	}
}

// LoadScript reads a policy file and creates a script delegator.
func LoadScript(path string, logger *slog.Logger) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	return NewScript(string(src), logger), nil
}

// Assign implements Delegator.
func (s *Script) Assign(ctx context.Context, task *model.Task, eligible []model.Robot) (string, error) {
	vm := goja.New()

	if _, err := vm.RunString(s.src); err != nil {
		return "", fmt.Errorf("policy: %w", err)
	}

	assign, ok := goja.AssertFunction(vm.Get("assign"))
	if !ok {
		return "", fmt.Errorf("policy does not define assign(task, robots)")
	}

	taskMap := map[string]any{
		"id":                    task.ID,
		"type":                  task.Type,
		"priority":              task.Priority,
		"required_capabilities": task.RequiredCapabilities,
		"payload":               task.Payload,
	}
	if task.Deadline != nil {
		taskMap["deadline"] = *task.Deadline
	}
	if task.TargetRobot != "" {
		taskMap["target_robot"] = task.TargetRobot
	}

	robotMaps := make([]any, len(eligible))
	for i, robot := range eligible {
		robotMaps[i] = map[string]any{
			"id":           robot.ID,
			"capabilities": robot.Capabilities,
		}
	}

	result, err := assign(goja.Undefined(), vm.ToValue(taskMap), vm.ToValue(robotMaps))
	if err != nil {
		return "", fmt.Errorf("assign(%s): %w", task.ID, err)
	}

	robotID, ok := result.Export().(string)
	if !ok || robotID == "" {
		return "", fmt.Errorf("policy returned no robot for task %s", task.ID)
	}

	s.logger.Debug("policy assignment", "task", task.ID, "robot", robotID)
	return robotID, nil
}
