package executor

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jpicklyk/task-orchestrator/internal/blocking"
	"github.com/jpicklyk/task-orchestrator/internal/cascade"
	"github.com/jpicklyk/task-orchestrator/internal/cleanup"
	"github.com/jpicklyk/task-orchestrator/internal/config"
	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/repository"
	"github.com/jpicklyk/task-orchestrator/internal/workflow"
)

// Executor is the transition executor: it fetches,
// validates, persists, logs, cascades, and reports a single status
// transition, and composes batches of them.
type Executor struct {
	repo   repository.Repository
	loader *config.Loader
	logger *log.Logger
}

// New constructs an Executor. A nil logger defaults to log.Default().
func New(repo repository.Repository, loader *config.Loader, logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{repo: repo, loader: loader, logger: logger}
}

type entitySnapshotView struct {
	status               string
	tags                 []string
	name                 string
	requiresVerification bool
}

func (e *Executor) entitySnapshot(entityType, id string) (string, []string, string, error) {
	v, err := e.snapshot(entityType, id)
	if err != nil {
		return "", nil, "", err
	}
	return v.status, v.tags, v.name, nil
}

func (e *Executor) snapshot(entityType, id string) (entitySnapshotView, error) {
	switch entityType {
	case "project":
		r := e.repo.Projects().GetByID(id)
		if r.IsErr() {
			return entitySnapshotView{}, r.Err()
		}
		p := r.Value()
		return entitySnapshotView{status: p.Status, tags: p.Tags, name: p.Name}, nil
	case "feature":
		r := e.repo.Features().GetByID(id)
		if r.IsErr() {
			return entitySnapshotView{}, r.Err()
		}
		f := r.Value()
		return entitySnapshotView{status: f.Status, tags: f.Tags, name: f.Name, requiresVerification: f.RequiresVerification}, nil
	case "task":
		r := e.repo.Tasks().GetByID(id)
		if r.IsErr() {
			return entitySnapshotView{}, r.Err()
		}
		t := r.Value()
		return entitySnapshotView{status: t.Status, tags: t.Tags, name: t.Title, requiresVerification: t.RequiresVerification}, nil
	default:
		return entitySnapshotView{}, fmt.Errorf("unknown container type: %s", entityType)
	}
}

func (e *Executor) persistStatus(entityType, id, status string) error {
	now := time.Now()
	switch entityType {
	case "project":
		r := e.repo.Projects().GetByID(id)
		if r.IsErr() {
			return r.Err()
		}
		p := r.Value()
		p.Status, p.ModifiedAt = status, now
		u := e.repo.Projects().Update(p)
		if u.IsErr() {
			return u.Err()
		}
	case "feature":
		r := e.repo.Features().GetByID(id)
		if r.IsErr() {
			return r.Err()
		}
		f := r.Value()
		f.Status, f.ModifiedAt = status, now
		u := e.repo.Features().Update(f)
		if u.IsErr() {
			return u.Err()
		}
	case "task":
		r := e.repo.Tasks().GetByID(id)
		if r.IsErr() {
			return r.Err()
		}
		t := r.Value()
		t.Status, t.ModifiedAt = status, now
		u := e.repo.Tasks().Update(t)
		if u.IsErr() {
			return u.Err()
		}
	default:
		return fmt.Errorf("unknown container type: %s", entityType)
	}
	return nil
}

// resolveTrigger maps a trigger to its target status.
func (e *Executor) resolveTrigger(entityType, containerID string, trigger Trigger, cfg *config.Config) (string, error) {
	if target, ok := emergencyTriggerStatus[trigger]; ok {
		prog := cfg.ProgressionFor(entityType)
		if !prog.IsEmergency(target) {
			return "", fmt.Errorf("emergency status %q is not configured for %s", target, entityType)
		}
		return target, nil
	}

	next, err := e.GetNextStatus(containerID, entityType, "", nil)
	if err != nil {
		return "", err
	}
	if next.Kind != NextReady {
		return "", fmt.Errorf("%s", firstNonEmpty(strings.Join(next.Blockers, "; "), next.Reason, "no recommended status available"))
	}
	return next.RecommendedStatus, nil
}

// resolveTarget resolves a request to its target status: an explicit
// TargetStatus takes priority (manage_container's setStatus path),
// otherwise the request's Trigger is resolved as usual.
func (e *Executor) resolveTarget(req TransitionRequest, cfg *config.Config) (string, error) {
	if req.TargetStatus != "" {
		return req.TargetStatus, nil
	}
	return e.resolveTrigger(req.ContainerType, req.ContainerID, req.Trigger, cfg)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// RequestTransition executes one transition through its full pipeline:
// snapshot, resolve trigger, no-op check, validate, verification gate,
// persist, role-transition logging, cascade, newly-unblocked computation.
func (e *Executor) RequestTransition(req TransitionRequest) TransitionResponse {
	cfg := e.loader.Load()

	snap, err := e.snapshot(req.ContainerType, req.ContainerID)
	if err != nil {
		return TransitionResponse{
			Applied:      false,
			Message:      "container not found",
			ErrorCode:    "RESOURCE_NOT_FOUND",
			ErrorDetails: err.Error(),
		}
	}

	target, err := e.resolveTarget(req, cfg)
	if err != nil {
		return TransitionResponse{
			Applied:       false,
			Message:       "could not resolve trigger to a target status",
			ErrorCode:     "VALIDATION_ERROR",
			ErrorDetails:  err.Error(),
			CurrentStatus: snap.status,
		}
	}

	if workflow.EqualFold(snap.status, target) {
		return TransitionResponse{
			Applied:        false,
			Message:        "No transition needed",
			PreviousStatus: snap.status,
			NewStatus:      snap.status,
		}
	}

	ctx := newRepoContext(e.repo, cfg)
	outcome := workflow.ValidateTransition(cfg, req.ContainerType, snap.status, target, req.ContainerID, snap.tags, ctx)
	if outcome.Verdict == workflow.Invalid {
		return TransitionResponse{
			Applied:         false,
			Message:         outcome.Reason,
			ErrorCode:       "VALIDATION_ERROR",
			ErrorDetails:    outcome.Reason,
			Suggestions:     outcome.Suggestions,
			CurrentStatus:   snap.status,
			AttemptedStatus: target,
		}
	}

	prog := cfg.ProgressionFor(req.ContainerType)
	if prog.IsTerminal(target) && snap.requiresVerification {
		failing, err := e.runVerificationGate(req.ContainerType, req.ContainerID)
		if err != nil {
			return TransitionResponse{
				Applied:         false,
				Message:         "could not evaluate verification gate",
				ErrorCode:       "VALIDATION_ERROR",
				ErrorDetails:    err.Error(),
				CurrentStatus:   snap.status,
				AttemptedStatus: target,
			}
		}
		if len(failing) > 0 {
			return TransitionResponse{
				Applied:         false,
				Message:         "verification gate failed: not all criteria pass",
				ErrorCode:       "VALIDATION_ERROR",
				FailingCriteria: failing,
				Gate:            "verification",
				CurrentStatus:   snap.status,
				AttemptedStatus: target,
			}
		}
	}

	if err := e.persistStatus(req.ContainerType, req.ContainerID, target); err != nil {
		return TransitionResponse{
			Applied:         false,
			Message:         "failed to persist status change",
			ErrorCode:       "DATABASE_ERROR",
			ErrorDetails:    err.Error(),
			CurrentStatus:   snap.status,
			AttemptedStatus: target,
		}
	}

	previousRole, _ := cfg.RoleOf(req.ContainerType, snap.status)
	newRole, newRoleOK := cfg.RoleOf(req.ContainerType, target)
	if previousRole != "" && newRoleOK && previousRole != newRole {
		rt := models.RoleTransition{
			EntityID:       req.ContainerID,
			EntityType:     models.EntityType(req.ContainerType),
			FromRole:       previousRole,
			ToRole:         newRole,
			FromStatus:     snap.status,
			ToStatus:       target,
			TransitionedAt: time.Now(),
			Trigger:        string(req.Trigger),
			Summary:        req.Summary,
		}
		if res := e.repo.RoleTransitions().Create(rt); res.IsErr() {
			// Logged, never fails the transition.
			e.logger.Printf("executor: recording role transition for %s %s: %v", req.ContainerType, req.ContainerID, res.Err())
		}
	}

	resp := TransitionResponse{
		Applied:        true,
		Message:        "transition applied",
		PreviousStatus: snap.status,
		NewStatus:      target,
		PreviousRole:   previousRole,
		NewRole:        newRole,
	}

	cleaner := cleanup.New(e.repo, cleanup.DefaultPolicy(), e.logger)
	cascadeCtx := newRepoContext(e.repo, cfg)
	engine := cascade.New(e.repo, cfg, cascadeCtx, cleaner, e.logger)

	if cfg.AutoCascade.Enabled {
		applied := engine.Apply(req.ContainerType, req.ContainerID, 0, cfg.AutoCascade.MaxDepth)
		resp.CascadeEvents = renderApplied(applied)
	} else {
		events := engine.Detect(req.ContainerType, req.ContainerID)
		resp.CascadeEvents = renderDetected(events)
	}

	if req.ContainerType == "task" && prog.IsTerminal(target) {
		analyser := blocking.New(e.repo, e.logger)
		unblocked := analyser.NewlyUnblocked(req.ContainerID, func(status string) bool {
			return cfg.ProgressionFor("task").IsTerminal(status)
		})
		for _, u := range unblocked {
			resp.UnblockedTasks = append(resp.UnblockedTasks, UnblockedView{TaskID: u.TaskID, Title: u.Title})
		}
	}

	return resp
}

func renderApplied(applied []cascade.Applied) []CascadeEventView {
	out := make([]CascadeEventView, 0, len(applied))
	for _, a := range applied {
		out = append(out, CascadeEventView{
			Event:          a.Event,
			TargetType:     a.TargetType,
			TargetID:       a.TargetID,
			TargetName:     a.TargetName,
			PreviousStatus: a.PreviousStatus,
			NewStatus:      a.NewStatus,
			Applied:        a.AppliedFlag,
			Automatic:      true,
			Reason:         a.Reason,
			Error:          a.Error,
			Cleanup:        a.Cleanup,
			ChildCascades:  renderApplied(a.ChildCascades),
		})
	}
	return out
}

func renderDetected(events []cascade.Event) []CascadeEventView {
	out := make([]CascadeEventView, 0, len(events))
	for _, ev := range events {
		out = append(out, CascadeEventView{
			Event:          ev.Name,
			TargetType:     ev.TargetType,
			TargetID:       ev.TargetID,
			TargetName:     "",
			PreviousStatus: ev.TargetCurrentStatus,
			NewStatus:      ev.SuggestedStatus,
			Applied:        false,
			Automatic:      false,
			Reason:         ev.Reason,
		})
	}
	return out
}

// RequestTransitionBatch processes each request independently: cascades
// applied by a later item that no-op because an earlier item already
// advanced their target are not counted as failures.
func (e *Executor) RequestTransitionBatch(requests []TransitionRequest) BatchResponse {
	resp := BatchResponse{Summary: BatchSummary{Total: len(requests)}}
	for _, req := range requests {
		item := e.RequestTransition(req)
		resp.Items = append(resp.Items, BatchItemResult{ContainerID: req.ContainerID, Response: item})
		if item.Applied || item.Message == "No transition needed" {
			resp.Summary.Succeeded++
		} else {
			resp.Summary.Failed++
		}
		resp.Summary.CascadesApplied += countAppliedCascades(item.CascadeEvents)
	}
	return resp
}

func countAppliedCascades(events []CascadeEventView) int {
	n := 0
	for _, ev := range events {
		if ev.Applied {
			n++
		}
		n += countAppliedCascades(ev.ChildCascades)
	}
	return n
}
