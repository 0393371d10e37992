// Package workflow implements the status validator: given
// a configured ProgressionSpec set (internal/config), it decides whether
// a status value or a status transition is Valid, ValidWithAdvisory, or
// Invalid, and — when asked — whether an entity's prerequisites for a
// target status are currently satisfied.
package workflow

import (
	"fmt"
	"strings"

	"github.com/jpicklyk/task-orchestrator/internal/config"
)

// Verdict is the three-valued outcome of a validation call.
type Verdict int

const (
	Valid Verdict = iota
	ValidWithAdvisory
	Invalid
)

func (v Verdict) String() string {
	switch v {
	case Valid:
		return "Valid"
	case ValidWithAdvisory:
		return "ValidWithAdvisory"
	case Invalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// Outcome carries a Verdict plus human-readable context: a reason, an
// advisory note, and a bounded suggestion list (e.g. "the next status in
// flow", or the names of blocking items, truncated to three with an
// "and N more" suffix).
type Outcome struct {
	Verdict     Verdict
	Reason      string
	Advisory    string
	Suggestions []string
}

// environmentTags are the tags validate_status checks for before issuing
// the "deployed" advisory.
var environmentTags = map[string]bool{
	"staging": true, "production": true, "canary": true,
	"dev": true, "development": true, "prod": true,
}

// ValidateStatus checks a single status value in isolation: it must
// belong to the derived allowed set for entityType, and targeting
// "deployed" without an environment tag downgrades to
// ValidWithAdvisory rather than Invalid.
func ValidateStatus(cfg *config.Config, entityType, status string, tags []string) Outcome {
	spec := cfg.ProgressionFor(entityType)
	allowed := spec.AllowedStatuses()
	normalized := NormalizeStatus(status)

	found := false
	for s := range allowed {
		if NormalizeStatus(s) == normalized {
			found = true
			break
		}
	}
	if !found {
		return Outcome{Verdict: Invalid, Reason: fmt.Sprintf("status %q is not a recognized status for %s", status, entityType)}
	}

	if normalized == "deployed" && !hasEnvironmentTag(tags) {
		return Outcome{
			Verdict:  ValidWithAdvisory,
			Advisory: "Consider adding an environment tag (staging, production, canary, dev, development, or prod) when deploying",
		}
	}

	return Outcome{Verdict: Valid}
}

func hasEnvironmentTag(tags []string) bool {
	for _, t := range tags {
		if environmentTags[strings.ToLower(t)] {
			return true
		}
	}
	return false
}

// GetAllowedStatuses returns the derived allowed-status set for
// entityType.
func GetAllowedStatuses(cfg *config.Config, entityType string) map[string]bool {
	return cfg.ProgressionFor(entityType).AllowedStatuses()
}

// PrereqContext abstracts the repository queries validate_prerequisites
// needs, so the validator package never imports the repository package.
// Implementations live alongside the transition executor, which has
// repository access.
type PrereqContext interface {
	// FeatureChildTaskCount returns the number of tasks belonging to
	// featureID.
	FeatureChildTaskCount(featureID string) (int, error)

	// FeatureChildTaskStatuses returns the status of every task
	// belonging to featureID.
	FeatureChildTaskStatuses(featureID string) ([]string, error)

	// ProjectChildFeatureStatuses returns the status of every feature
	// belonging to projectID.
	ProjectChildFeatureStatuses(projectID string) ([]string, error)

	// TaskSummary returns the current (or about-to-be-persisted) summary
	// text of taskID, trimmed of surrounding whitespace by the caller.
	TaskSummary(taskID string) (string, error)

	// TaskInboundBlockers returns every task that blocks taskID via a
	// BLOCKS/IS_BLOCKED_BY edge, with the edge's required unblockAt role
	// and the blocking task's currently resolved role.
	TaskInboundBlockers(taskID string) ([]BlockingSource, error)
}

// BlockingSource describes one inbound blocking edge for the purpose of
// the task in-progress prerequisite.
type BlockingSource struct {
	TaskID    string
	Title     string
	Status    string
	Role      string // resolved role of Status; "" if unresolved/unknown
	UnblockAt string // required role, defaulting to DefaultUnblockRole
}

// Satisfied reports whether this blocking edge no longer blocks, i.e. the
// source task's role meets or exceeds UnblockAt. An unresolved Role never
// satisfies.
func (b BlockingSource) Satisfied() bool {
	if b.Role == "" {
		return false
	}
	unblockAt := b.UnblockAt
	if unblockAt == "" {
		unblockAt = DefaultUnblockRole
	}
	return RoleAtLeast(b.Role, unblockAt)
}

// ValidatePrerequisites runs the per-(entityType,targetStatus)
// prerequisite table. It is only meaningful for the
// target statuses the table names; any other target trivially passes.
func ValidatePrerequisites(entityType, id, target string, ctx PrereqContext) Outcome {
	if ctx == nil {
		return Outcome{Verdict: Valid}
	}
	normalized := NormalizeStatus(target)

	switch entityType {
	case "feature":
		switch normalized {
		case "in-development":
			count, err := ctx.FeatureChildTaskCount(id)
			if err != nil {
				return Outcome{Verdict: Invalid, Reason: fmt.Sprintf("could not verify child tasks: %v", err)}
			}
			if count < 1 {
				return Outcome{Verdict: Invalid, Reason: "feature has no child tasks yet"}
			}
		case "testing", "completed":
			statuses, err := ctx.FeatureChildTaskStatuses(id)
			if err != nil {
				return Outcome{Verdict: Invalid, Reason: fmt.Sprintf("could not verify child tasks: %v", err)}
			}
			var incomplete []string
			for _, s := range statuses {
				if !isTaskTerminalStatus(s) {
					incomplete = append(incomplete, s)
				}
			}
			if len(incomplete) > 0 {
				return Outcome{
					Verdict:     Invalid,
					Reason:      fmt.Sprintf("%d child task(s) are not yet completed", len(incomplete)),
					Suggestions: truncateSuggestions(incomplete),
				}
			}
		}
	case "project":
		if normalized == "completed" {
			statuses, err := ctx.ProjectChildFeatureStatuses(id)
			if err != nil {
				return Outcome{Verdict: Invalid, Reason: fmt.Sprintf("could not verify child features: %v", err)}
			}
			var incomplete []string
			for _, s := range statuses {
				if !isTaskTerminalStatus(s) {
					incomplete = append(incomplete, s)
				}
			}
			if len(incomplete) > 0 {
				return Outcome{
					Verdict:     Invalid,
					Reason:      fmt.Sprintf("%d child feature(s) are not yet completed", len(incomplete)),
					Suggestions: truncateSuggestions(incomplete),
				}
			}
		}
	case "task":
		switch normalized {
		case "in-progress":
			blockers, err := ctx.TaskInboundBlockers(id)
			if err != nil {
				return Outcome{Verdict: Invalid, Reason: fmt.Sprintf("could not verify blocking tasks: %v", err)}
			}
			var unresolved []string
			for _, b := range blockers {
				if !b.Satisfied() {
					unresolved = append(unresolved, b.Title)
				}
			}
			if len(unresolved) > 0 {
				return Outcome{
					Verdict:     Invalid,
					Reason:      "task is still blocked by incomplete prerequisite tasks",
					Suggestions: truncateSuggestions(unresolved),
				}
			}
		case "completed":
			summary, err := ctx.TaskSummary(id)
			if err != nil {
				return Outcome{Verdict: Invalid, Reason: fmt.Sprintf("could not read task summary: %v", err)}
			}
			trimmed := strings.TrimSpace(summary)
			if len(trimmed) < 300 || len(trimmed) > 500 {
				return Outcome{
					Verdict: Invalid,
					Reason:  fmt.Sprintf("completion summary must be 300-500 characters (current: %d)", len(trimmed)),
				}
			}
		}
	}

	return Outcome{Verdict: Valid}
}

// isTaskTerminalStatus reports whether s is "completed" or "cancelled".
// The prerequisite table uses it to treat cancelled work as satisfying
// "all done". The cascade engine does not call it: its all_tasks_complete /
// all_features_complete events use the configured terminal statuses, which
// may include others (the default task set also has "deferred").
func isTaskTerminalStatus(s string) bool {
	n := NormalizeStatus(s)
	return n == "completed" || n == "cancelled"
}

func truncateSuggestions(items []string) []string {
	if len(items) <= 3 {
		return items
	}
	out := append([]string{}, items[:3]...)
	out = append(out, fmt.Sprintf("and %d more", len(items)-3))
	return out
}
