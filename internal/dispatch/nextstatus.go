package dispatch

import (
	"encoding/json"

	"github.com/jpicklyk/task-orchestrator/internal/executor"
)

func (d *Dispatcher) getNextStatus(raw json.RawMessage) Envelope {
	p, err := decode[GetNextStatusParams](raw)
	if err != nil {
		return fail(CodeValidation, "invalid parameters", err.Error())
	}
	if !validEntityType(p.ContainerType) {
		return fail(CodeValidation, "invalid containerType", p.ContainerType)
	}
	if p.ContainerID == "" && p.CurrentStatus == "" {
		return fail(CodeValidation, "containerId or currentStatus is required", "get_next_status requires one of them")
	}

	result, err := d.exec.GetNextStatus(p.ContainerID, p.ContainerType, p.CurrentStatus, p.Tags)
	if err != nil {
		return fail(CodeNotFound, "container not found", err.Error())
	}

	switch result.Kind {
	case executor.NextBlocked:
		return ok("blocked", result)
	case executor.NextTerminal:
		return ok("terminal", result)
	default:
		return ok("ready", result)
	}
}
