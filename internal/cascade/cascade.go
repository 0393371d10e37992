// Package cascade implements the cascade engine: after a
// transition is committed, it detects cross-entity events implied by the
// new state (task -> feature, feature -> project), and either reports
// them (detection) or applies them recursively up to a configured depth
// (application), invoking completion cleanup when a cascade reaches a
// terminal status.
package cascade

import (
	"log"
	"time"

	"github.com/jpicklyk/task-orchestrator/internal/cleanup"
	"github.com/jpicklyk/task-orchestrator/internal/config"
	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/repository"
	"github.com/jpicklyk/task-orchestrator/internal/workflow"
)

// Event is a detected, un-applied cascade suggestion.
type Event struct {
	Name                string
	TargetType          string
	TargetID            string
	TargetCurrentStatus string
	SuggestedStatus     string
	ActiveFlow          string
	Reason              string
}

// Applied is one record of the apply_cascades output.
type Applied struct {
	Event          string
	TargetType     string
	TargetID       string
	TargetName     string
	PreviousStatus string
	NewStatus      string
	AppliedFlag    bool
	Reason         string
	Error          string
	Cleanup        *cleanup.Summary
	ChildCascades  []Applied
}

// Engine detects and applies cascades over a Repository, using cfg for
// flow/terminal lookups and ctx for the prerequisite checks that
// validating a cascaded transition requires.
type Engine struct {
	repo    repository.Repository
	cfg     *config.Config
	ctx     workflow.PrereqContext
	cleaner *cleanup.Cleaner
	logger  *log.Logger
}

// New constructs a cascade Engine. A nil logger defaults to log.Default().
func New(repo repository.Repository, cfg *config.Config, ctx workflow.PrereqContext, cleaner *cleanup.Cleaner, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{repo: repo, cfg: cfg, ctx: ctx, cleaner: cleaner, logger: logger}
}

// Detect returns the raw suggestion list for the entity identified by
// (entityType, id), without mutating anything.
func (e *Engine) Detect(entityType, id string) []Event {
	switch entityType {
	case "task":
		return e.detectFromTask(id)
	case "feature":
		return e.detectFromFeature(id)
	default:
		return nil
	}
}

func (e *Engine) detectFromTask(taskID string) []Event {
	taskResult := e.repo.Tasks().GetByID(taskID)
	if taskResult.IsErr() {
		return nil
	}
	task := taskResult.Value()
	if task.FeatureID == "" {
		return nil
	}
	featureResult := e.repo.Features().GetByID(task.FeatureID)
	if featureResult.IsErr() {
		return nil
	}
	feature := featureResult.Value()

	siblingsResult := e.repo.Tasks().FindByFeature(task.FeatureID)
	if siblingsResult.IsErr() {
		return nil
	}
	siblings := siblingsResult.Value()

	taskProg := e.cfg.ProgressionFor("task")
	featureProg := e.cfg.ProgressionFor("feature")

	var events []Event

	// first_task_started: this task is now non-pending, non-terminal, and
	// every *other* sibling is still pending.
	if !taskProg.IsTerminal(task.Status) && !workflow.EqualFold(task.Status, "pending") {
		allOthersPending := true
		for _, s := range siblings {
			if s.ID == task.ID {
				continue
			}
			if !workflow.EqualFold(s.Status, "pending") {
				allOthersPending = false
				break
			}
		}
		if allOthersPending && workflow.EqualFold(feature.Status, "planning") {
			flowName, _ := featureProg.ActiveFlow(feature.Tags)
			events = append(events, Event{
				Name:                "first_task_started",
				TargetType:          "feature",
				TargetID:            feature.ID,
				TargetCurrentStatus: feature.Status,
				SuggestedStatus:     "in-development",
				ActiveFlow:          flowName,
				Reason:              "first task started work",
			})
		}
	}

	// all_tasks_complete: every sibling (including this one) is terminal.
	if len(siblings) > 0 && allTerminal(siblings, taskProg) {
		flowName, _ := featureProg.ActiveFlow(feature.Tags)
		suggested := terminalTarget(featureProg)
		if suggested != "" && !workflow.EqualFold(feature.Status, suggested) {
			events = append(events, Event{
				Name:                "all_tasks_complete",
				TargetType:          "feature",
				TargetID:            feature.ID,
				TargetCurrentStatus: feature.Status,
				SuggestedStatus:     suggested,
				ActiveFlow:          flowName,
				Reason:              "all child tasks reached a terminal status",
			})
		}
	}

	return events
}

func (e *Engine) detectFromFeature(featureID string) []Event {
	featureResult := e.repo.Features().GetByID(featureID)
	if featureResult.IsErr() {
		return nil
	}
	feature := featureResult.Value()
	if feature.ProjectID == "" {
		return nil
	}
	projectResult := e.repo.Projects().GetByID(feature.ProjectID)
	if projectResult.IsErr() {
		return nil
	}
	project := projectResult.Value()

	siblingsResult := e.repo.Features().FindByProject(feature.ProjectID)
	if siblingsResult.IsErr() {
		return nil
	}
	siblings := siblingsResult.Value()

	featureProg := e.cfg.ProgressionFor("feature")
	projectProg := e.cfg.ProgressionFor("project")

	if len(siblings) == 0 || !allFeaturesTerminal(siblings, featureProg) {
		return nil
	}

	flowName, _ := projectProg.ActiveFlow(project.Tags)
	suggested := terminalTarget(projectProg)
	if suggested == "" || workflow.EqualFold(project.Status, suggested) {
		return nil
	}

	return []Event{{
		Name:                "all_features_complete",
		TargetType:          "project",
		TargetID:            project.ID,
		TargetCurrentStatus: project.Status,
		SuggestedStatus:     suggested,
		ActiveFlow:          flowName,
		Reason:              "all child features reached a terminal status",
	}}
}

func allTerminal(tasks []models.Task, prog *config.ProgressionSpec) bool {
	for _, t := range tasks {
		if !prog.IsTerminal(t.Status) {
			return false
		}
	}
	return true
}

func allFeaturesTerminal(features []models.Feature, prog *config.ProgressionSpec) bool {
	for _, f := range features {
		if !prog.IsTerminal(f.Status) {
			return false
		}
	}
	return true
}

// terminalTarget returns the configured terminal status a cascade should
// advance a parent to, preferring "completed" when present and otherwise
// falling back to the first configured terminal status.
func terminalTarget(prog *config.ProgressionSpec) string {
	for _, s := range prog.TerminalStatuses {
		if workflow.EqualFold(s, "completed") {
			return s
		}
	}
	if len(prog.TerminalStatuses) > 0 {
		return prog.TerminalStatuses[0]
	}
	return ""
}

// Apply applies every event Detect(entityType, id) reports, recursing into
// child cascades up to maxDepth. depth is the chain length already
// consumed by the caller; the top-level call passes depth=0.
func (e *Engine) Apply(entityType, id string, depth, maxDepth int) []Applied {
	events := e.Detect(entityType, id)
	if len(events) == 0 {
		return nil
	}

	out := make([]Applied, 0, len(events))
	for _, ev := range events {
		rec := e.applyOne(ev, depth, maxDepth)
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out
}

func (e *Engine) applyOne(ev Event, depth, maxDepth int) *Applied {
	currentStatus, tags, name, err := e.entitySnapshot(ev.TargetType, ev.TargetID)
	if err != nil {
		// Target vanished between detection and application; nothing to
		// report since there is no AppliedCascade without a target.
		e.logger.Printf("cascade: target %s %s not found during apply: %v", ev.TargetType, ev.TargetID, err)
		return nil
	}

	if workflow.EqualFold(currentStatus, ev.SuggestedStatus) {
		// Already at the suggested status: silently skip, no write, no
		// AppliedCascade.
		return nil
	}

	outcome := workflow.ValidateTransition(e.cfg, ev.TargetType, currentStatus, ev.SuggestedStatus, ev.TargetID, tags, e.ctx)
	if outcome.Verdict == workflow.Invalid {
		return &Applied{
			Event:          ev.Name,
			TargetType:     ev.TargetType,
			TargetID:       ev.TargetID,
			TargetName:     name,
			PreviousStatus: currentStatus,
			NewStatus:      ev.SuggestedStatus,
			AppliedFlag:    false,
			Error:          outcome.Reason,
		}
	}

	if err := e.persistStatus(ev.TargetType, ev.TargetID, ev.SuggestedStatus); err != nil {
		return &Applied{
			Event:          ev.Name,
			TargetType:     ev.TargetType,
			TargetID:       ev.TargetID,
			TargetName:     name,
			PreviousStatus: currentStatus,
			NewStatus:      ev.SuggestedStatus,
			AppliedFlag:    false,
			Error:          err.Error(),
		}
	}

	rec := Applied{
		Event:          ev.Name,
		TargetType:     ev.TargetType,
		TargetID:       ev.TargetID,
		TargetName:     name,
		PreviousStatus: currentStatus,
		NewStatus:      ev.SuggestedStatus,
		AppliedFlag:    true,
		Reason:         ev.Reason,
	}

	prog := e.cfg.ProgressionFor(ev.TargetType)
	if prog.IsTerminal(ev.SuggestedStatus) && ev.TargetType == "feature" {
		summary := e.cleaner.Run(ev.TargetID)
		rec.Cleanup = summary
	}

	if depth+1 < maxDepth {
		rec.ChildCascades = e.Apply(ev.TargetType, ev.TargetID, depth+1, maxDepth)
	}

	return &rec
}

func (e *Engine) entitySnapshot(entityType, id string) (status string, tags []string, name string, err error) {
	switch entityType {
	case "feature":
		r := e.repo.Features().GetByID(id)
		if r.IsErr() {
			return "", nil, "", r.Err()
		}
		f := r.Value()
		return f.Status, f.Tags, f.Name, nil
	case "project":
		r := e.repo.Projects().GetByID(id)
		if r.IsErr() {
			return "", nil, "", r.Err()
		}
		p := r.Value()
		return p.Status, p.Tags, p.Name, nil
	case "task":
		r := e.repo.Tasks().GetByID(id)
		if r.IsErr() {
			return "", nil, "", r.Err()
		}
		t := r.Value()
		return t.Status, t.Tags, t.Title, nil
	default:
		return "", nil, "", errUnknownEntity(entityType)
	}
}

func (e *Engine) persistStatus(entityType, id, status string) error {
	now := time.Now()
	switch entityType {
	case "feature":
		r := e.repo.Features().GetByID(id)
		if r.IsErr() {
			return r.Err()
		}
		f := r.Value()
		f.Status = status
		f.ModifiedAt = now
		u := e.repo.Features().Update(f)
		if u.IsErr() {
			return u.Err()
		}
	case "project":
		r := e.repo.Projects().GetByID(id)
		if r.IsErr() {
			return r.Err()
		}
		p := r.Value()
		p.Status = status
		p.ModifiedAt = now
		u := e.repo.Projects().Update(p)
		if u.IsErr() {
			return u.Err()
		}
	case "task":
		r := e.repo.Tasks().GetByID(id)
		if r.IsErr() {
			return r.Err()
		}
		t := r.Value()
		t.Status = status
		t.ModifiedAt = now
		u := e.repo.Tasks().Update(t)
		if u.IsErr() {
			return u.Err()
		}
	default:
		return errUnknownEntity(entityType)
	}
	return nil
}

type errUnknownEntity string

func (e errUnknownEntity) Error() string { return "unknown entity type: " + string(e) }
