package delegate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mrtodp/fleetd/pkg/model"
)

// MinStrength is the qualification threshold: a robot must score at least
// this on every capability a task requires before it can take the task.
const MinStrength = 50

// StrengthTable maps robot id to capability to proficiency (0..100).
type StrengthTable map[string]map[string]int

// Static assigns tasks from a local capability-strength table, typically
// loaded from the fleet manifest. Among qualified robots the highest
// aggregate strength over the task's required capabilities wins; ties go
// to the lexicographically first robot id.
type Static struct {
	strengths StrengthTable
	logger    *slog.Logger
}

// NewStatic creates a strength-table delegator.
func NewStatic(strengths StrengthTable, logger *slog.Logger) *Static {
	return &Static{
		strengths: strengths,
		logger:    logger.With("component", "delegate-static"),
	}
}

// Assign implements Delegator.
func (s *Static) Assign(ctx context.Context, task *model.Task, eligible []model.Robot) (string, error) {
	best := ""
	bestScore := -1

	// eligible arrives sorted by id, so a strict greater-than comparison
	// makes ties deterministic.
	for _, robot := range eligible {
		score, qualified := s.score(robot.ID, task.RequiredCapabilities)
		if !qualified {
			s.logger.Debug("robot not qualified", "robot", robot.ID, "task", task.ID)
			continue
		}
		if score > bestScore {
			best = robot.ID
			bestScore = score
		}
	}

	if best == "" {
		return "", fmt.Errorf("no suitable robot found for task %s", task.ID)
	}

	s.logger.Debug("assignment chosen", "task", task.ID, "robot", best, "score", bestScore)
	return best, nil
}

// score sums the robot's strengths over the required capabilities. A
// robot missing from the table, or below MinStrength on any required
// capability, is unqualified. With no required capabilities the robot's
// total strength decides, so the strongest generalist wins.
func (s *Static) score(robotID string, required []string) (int, bool) {
	strengths, ok := s.strengths[robotID]
	if !ok {
		return 0, false
	}

	if len(required) == 0 {
		total := 0
		for _, v := range strengths {
			total += v
		}
		return total, true
	}

	total := 0
	for _, cap := range required {
		strength, ok := strengths[cap]
		if !ok || strength < MinStrength {
			return 0, false
		}
		total += strength
	}
	return total, true
}
