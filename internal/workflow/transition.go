package workflow

import (
	"fmt"

	"github.com/jpicklyk/task-orchestrator/internal/config"
)

// ValidateTransition implements the full algorithm:
// status validation, the terminal guard, the emergency bypass, flow
// positioning (sequentiality/backward policy), and — when id and ctx are
// both supplied — the prerequisite table. ctx may be nil, in which case
// prerequisite checks are skipped entirely (the caller is asking a
// context-free "would this ever be valid" question).
func ValidateTransition(cfg *config.Config, entityType, current, target string, id string, tags []string, ctx PrereqContext) Outcome {
	// Step 1: status validation.
	statusOutcome := ValidateStatus(cfg, entityType, target, tags)
	if statusOutcome.Verdict == Invalid {
		return statusOutcome
	}

	spec := cfg.ProgressionFor(entityType)
	currentNorm := NormalizeStatus(current)
	targetNorm := NormalizeStatus(target)

	// Step 2: terminal guard.
	if spec.IsTerminal(current) {
		return Outcome{
			Verdict: Invalid,
			Reason:  fmt.Sprintf("Cannot transition from terminal status '%s'", current),
		}
	}

	// Step 3: emergency path.
	if cfg.StatusValidation.AllowEmergency && spec.IsEmergency(target) {
		return mergeAdvisory(statusOutcome, prerequisiteOutcome(cfg, entityType, id, target, ctx))
	}

	// Step 4: flow positioning.
	_, flow := spec.ActiveFlow(tags)
	i := indexOfStatus(flow, currentNorm)
	j := indexOfStatus(flow, targetNorm)

	if i < 0 || j < 0 {
		// Either status belongs to another flow; accept rather than
		// reject on a flow we can't position against.
		return mergeAdvisory(statusOutcome, prerequisiteOutcome(cfg, entityType, id, target, ctx))
	}

	if j < i {
		if !cfg.StatusValidation.AllowBackward {
			return Outcome{
				Verdict: Invalid,
				Reason:  fmt.Sprintf("backward transition from '%s' to '%s' is not allowed", current, target),
			}
		}
		return mergeAdvisory(statusOutcome, prerequisiteOutcome(cfg, entityType, id, target, ctx))
	}

	if j > i+1 && cfg.StatusValidation.EnforceSequential {
		skipped := append([]string{}, flow[i+1:j]...)
		return Outcome{
			Verdict:     Invalid,
			Reason:      fmt.Sprintf("cannot skip from '%s' directly to '%s'; '%s' must be reached first", current, target, flow[i+1]),
			Suggestions: skipped,
		}
	}

	// Step 5: prerequisites.
	return mergeAdvisory(statusOutcome, prerequisiteOutcome(cfg, entityType, id, target, ctx))
}

// prerequisiteOutcome runs ValidatePrerequisites when the configuration
// enables it and both id and ctx are supplied, returning Valid otherwise.
func prerequisiteOutcome(cfg *config.Config, entityType, id, target string, ctx PrereqContext) Outcome {
	if !cfg.StatusValidation.ValidatePrerequisites || id == "" || ctx == nil {
		return Outcome{Verdict: Valid}
	}
	return ValidatePrerequisites(entityType, id, target, ctx)
}

// mergeAdvisory combines the status-validation advisory (if any) with the
// prerequisite outcome: a failed prerequisite always wins (Invalid), an
// advisory from step 1 is preserved when the prerequisite step is
// otherwise Valid.
func mergeAdvisory(statusOutcome, prereq Outcome) Outcome {
	if prereq.Verdict == Invalid {
		return prereq
	}
	if statusOutcome.Verdict == ValidWithAdvisory {
		return statusOutcome
	}
	return prereq
}

func indexOfStatus(flow []string, normalizedStatus string) int {
	for i, s := range flow {
		if NormalizeStatus(s) == normalizedStatus {
			return i
		}
	}
	return -1
}
