package dispatch

import (
	"encoding/json"

	"github.com/jpicklyk/task-orchestrator/internal/executor"
)

func (d *Dispatcher) requestTransition(raw json.RawMessage) Envelope {
	p, err := decode[RequestTransitionParams](raw)
	if err != nil {
		return fail(CodeValidation, "invalid parameters", err.Error())
	}

	if len(p.Transitions) > 0 {
		requests := make([]executor.TransitionRequest, 0, len(p.Transitions))
		for _, item := range p.Transitions {
			if !validEntityType(item.ContainerType) {
				return fail(CodeValidation, "invalid containerType in batch", item.ContainerType)
			}
			requests = append(requests, executor.TransitionRequest{
				ContainerID:   item.ContainerID,
				ContainerType: item.ContainerType,
				Trigger:       executor.Trigger(item.Trigger),
				Summary:       item.Summary,
			})
		}
		releases := d.lockAll(p.Transitions)
		defer releases()
		resp := d.exec.RequestTransitionBatch(requests)
		return ok("batch transition processed", resp)
	}

	if !validEntityType(p.ContainerType) {
		return fail(CodeValidation, "invalid containerType", p.ContainerType)
	}
	if p.ContainerID == "" {
		return fail(CodeValidation, "containerId is required", "request_transition requires a containerId")
	}

	release := d.locks.Lock(p.ContainerType, p.ContainerID)
	defer release()

	resp := d.exec.RequestTransition(executor.TransitionRequest{
		ContainerID:   p.ContainerID,
		ContainerType: p.ContainerType,
		Trigger:       executor.Trigger(p.Trigger),
		Summary:       p.Summary,
	})
	return transitionEnvelope(resp)
}

func transitionEnvelope(resp executor.TransitionResponse) Envelope {
	if !resp.Applied && resp.ErrorCode != "" {
		additional := map[string]any{}
		if resp.CurrentStatus != "" {
			additional["currentStatus"] = resp.CurrentStatus
		}
		if resp.AttemptedStatus != "" {
			additional["attemptedStatus"] = resp.AttemptedStatus
		}
		if resp.Gate != "" {
			additional["gate"] = resp.Gate
		}
		if len(resp.Suggestions) > 0 {
			additional["suggestions"] = resp.Suggestions
		}
		if len(resp.FailingCriteria) > 0 {
			additional["failingCriteria"] = resp.FailingCriteria
		}
		return failWith(resp.ErrorCode, resp.Message, resp.ErrorDetails, additional)
	}
	return ok(resp.Message, resp)
}

// lockAll acquires the lock for every distinct (containerType, containerId)
// in a batch before any item runs, then releases them all once the batch
// completes, preserving request_transition's all-or-none serialization
// within a batch call.
func (d *Dispatcher) lockAll(items []TransitionItemParams) func() {
	seen := make(map[string]bool)
	releases := make([]func(), 0, len(items))
	for _, item := range items {
		key := item.ContainerType + ":" + item.ContainerID
		if seen[key] {
			continue
		}
		seen[key] = true
		releases = append(releases, d.locks.Lock(item.ContainerType, item.ContainerID))
	}
	return func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
}
