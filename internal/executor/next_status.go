package executor

import (
	"fmt"

	"github.com/jpicklyk/task-orchestrator/internal/config"
	"github.com/jpicklyk/task-orchestrator/internal/workflow"
)

// NextStatusKind classifies a GetNextStatus result.
type NextStatusKind int

const (
	NextReady NextStatusKind = iota
	NextBlocked
	NextTerminal
)

// NextStatusResult is the tagged-union result.
type NextStatusResult struct {
	Kind NextStatusKind

	// Ready fields.
	RecommendedStatus string
	CurrentRole       string
	NextRole          string

	// Blocked fields.
	Blockers []string

	// Terminal fields.
	TerminalStatus string

	// Shared fields.
	ActiveFlow      string
	FlowSequence    []string
	CurrentPosition int
	MatchedTags     []string
	Reason          string
}

// GetNextStatus reports what status an entity would move to next without
// applying anything. entityType is "project", "feature", or "task";
// currentStatus/tags override the entity's stored values when supplied
// (both optional).
func (e *Executor) GetNextStatus(containerID, entityType, currentStatus string, tags []string) (NextStatusResult, error) {
	cfg := e.loadConfig()

	status, entityTags, err := e.resolveCurrent(entityType, containerID, currentStatus, tags)
	if err != nil {
		return NextStatusResult{}, err
	}

	prog := cfg.ProgressionFor(entityType)
	if prog.IsTerminal(status) {
		flowName, _ := prog.ActiveFlow(entityTags)
		return NextStatusResult{
			Kind:           NextTerminal,
			TerminalStatus: status,
			ActiveFlow:     flowName,
			Reason:         fmt.Sprintf("%s is already at a terminal status", entityType),
		}, nil
	}

	flowName, flow := prog.ActiveFlow(entityTags)
	pos := indexOf(flow, status)

	if pos < 0 || pos+1 >= len(flow) {
		return NextStatusResult{
			Kind:            NextTerminal,
			TerminalStatus:  status,
			ActiveFlow:      flowName,
			FlowSequence:    flow,
			CurrentPosition: pos,
			Reason:          "no further status is defined in the active flow",
		}, nil
	}

	next := flow[pos+1]

	ctx := newRepoContext(e.repo, cfg)
	if cfg.StatusValidation.ValidatePrerequisites {
		outcome := workflow.ValidatePrerequisites(entityType, containerID, next, ctx)
		if outcome.Verdict == workflow.Invalid {
			blockers := outcome.Suggestions
			if entityType == "task" {
				blockers = e.taskBlockerMessages(containerID)
			}
			if len(blockers) == 0 {
				blockers = []string{outcome.Reason}
			}
			return NextStatusResult{
				Kind:            NextBlocked,
				Blockers:        blockers,
				ActiveFlow:      flowName,
				FlowSequence:    flow,
				CurrentPosition: pos,
			}, nil
		}
	}

	result := NextStatusResult{
		Kind:              NextReady,
		RecommendedStatus: next,
		ActiveFlow:        flowName,
		FlowSequence:      flow,
		CurrentPosition:   pos,
		Reason:            fmt.Sprintf("next status in the %s flow", flowName),
	}
	if role, ok := cfg.RoleOf(entityType, status); ok {
		result.CurrentRole = role
	}
	if role, ok := cfg.RoleOf(entityType, next); ok {
		result.NextRole = role
	}
	return result, nil
}

// taskBlockerMessages renders inbound blockers as
// "<TaskTitle> needs terminal role (currently <role>)".
func (e *Executor) taskBlockerMessages(taskID string) []string {
	cfg := e.loadConfig()
	ctx := newRepoContext(e.repo, cfg)
	blockers, err := ctx.TaskInboundBlockers(taskID)
	if err != nil {
		return nil
	}
	out := make([]string, 0)
	for _, b := range blockers {
		if b.Satisfied() {
			continue
		}
		role := b.Role
		if role == "" {
			role = "unknown"
		}
		out = append(out, fmt.Sprintf("%s needs %s role (currently %s)", b.Title, unblockAtOrDefault(b.UnblockAt), role))
	}
	return out
}

func unblockAtOrDefault(unblockAt string) string {
	if unblockAt == "" {
		return workflow.DefaultUnblockRole
	}
	return unblockAt
}

// resolveCurrent returns the effective (status, tags) pair for an entity,
// preferring caller-supplied overrides when present, otherwise looking
// the entity up.
func (e *Executor) resolveCurrent(entityType, id, currentStatus string, tags []string) (string, []string, error) {
	if currentStatus != "" {
		return currentStatus, tags, nil
	}
	status, entityTags, _, err := e.entitySnapshot(entityType, id)
	if err != nil {
		return "", nil, err
	}
	if len(tags) > 0 {
		entityTags = tags
	}
	return status, entityTags, nil
}

func indexOf(flow []string, status string) int {
	for i, s := range flow {
		if workflow.EqualFold(s, status) {
			return i
		}
	}
	return -1
}

func (e *Executor) loadConfig() *config.Config {
	return e.loader.Load()
}
