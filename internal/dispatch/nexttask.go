package dispatch

import (
	"encoding/json"

	"github.com/jpicklyk/task-orchestrator/internal/repository"
)

func (d *Dispatcher) getNextTask(raw json.RawMessage) Envelope {
	p, err := decode[GetNextTaskParams](raw)
	if err != nil {
		return fail(CodeValidation, "invalid parameters", err.Error())
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 1
	}
	tasks := d.analyser.NextTasks(p.ProjectID, p.FeatureID, limit)
	if len(tasks) == 0 {
		return ok("no eligible tasks", []any{})
	}
	return ok("next eligible task(s)", tasks)
}

// getBlockedTasks lists currently blocked tasks, optionally narrowed by
// project, feature, status, priority, or tags.
func (d *Dispatcher) getBlockedTasks(raw json.RawMessage) Envelope {
	p, err := decode[GetBlockedTasksParams](raw)
	if err != nil {
		return fail(CodeValidation, "invalid parameters", err.Error())
	}

	filters := repository.Filters{
		ProjectID: p.ProjectID,
		Status:    p.Status,
		Priority:  p.Priority,
		Tags:      p.Tags,
		Limit:     p.Limit,
	}
	blocked := d.analyser.BlockedTasks(filters)
	if p.FeatureID != "" {
		filtered := make([]any, 0, len(blocked))
		for _, t := range blocked {
			if t.FeatureID == p.FeatureID {
				filtered = append(filtered, t)
			}
		}
		return ok("blocked tasks", filtered)
	}
	return ok("blocked tasks", blocked)
}
