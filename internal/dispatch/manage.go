package dispatch

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jpicklyk/task-orchestrator/internal/executor"
	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/result"
)

// maxBulkContainers is the upper bound on entries a single bulkUpdate call
// may carry, whether supplied as ids or as containers[].
const maxBulkContainers = 100

func (d *Dispatcher) manageContainer(raw json.RawMessage) Envelope {
	p, err := decode[ManageContainerParams](raw)
	if err != nil {
		return fail(CodeValidation, "invalid parameters", err.Error())
	}
	if !validEntityType(p.ContainerType) {
		return fail(CodeValidation, "invalid containerType", p.ContainerType)
	}

	switch p.Operation {
	case "create":
		return d.createContainer(p)
	case "update":
		return d.updateContainer(p)
	case "delete":
		return d.deleteContainer(p)
	case "setStatus":
		return d.setStatusContainer(p)
	case "bulkUpdate":
		return d.bulkUpdateContainer(p)
	case "apply_template":
		return d.applyTemplate(p)
	default:
		return fail(CodeValidation, "invalid operation", p.Operation)
	}
}

func (d *Dispatcher) createContainer(p ManageContainerParams) Envelope {
	now := time.Now()
	switch p.ContainerType {
	case "project":
		proj := models.Project{
			ID: models.NewID(), Name: p.Name, Summary: p.Summary, Description: p.Description,
			Status: firstOr(p.Status, "planning"), Tags: p.Tags, CreatedAt: now, ModifiedAt: now,
		}
		res := d.repo.Projects().Create(proj)
		return fromResult(res, "project created")
	case "feature":
		feat := models.Feature{
			ID: models.NewID(), Name: p.Name, Summary: p.Summary, Description: p.Description,
			Status: firstOr(p.Status, "planning"), Priority: priorityOr(p.Priority, models.PriorityMedium),
			ProjectID: p.ProjectID, RequiresVerification: boolOr(p.RequiresVerification, false),
			Tags: p.Tags, CreatedAt: now, ModifiedAt: now,
		}
		res := d.repo.Features().Create(feat)
		return fromResult(res, "feature created")
	case "task":
		task := models.Task{
			ID: models.NewID(), Title: p.Title, Summary: p.Summary, Description: p.Description,
			Status: firstOr(p.Status, "pending"), Priority: priorityOr(p.Priority, models.PriorityMedium),
			Complexity: p.Complexity, ProjectID: p.ProjectID, FeatureID: p.FeatureID,
			RequiresVerification: boolOr(p.RequiresVerification, false),
			Tags:                 p.Tags, CreatedAt: now, ModifiedAt: now,
		}
		res := d.repo.Tasks().Create(task)
		if res.IsOk() && len(p.TemplateIDs) > 0 {
			if _, err := d.applier.ApplyMany(p.TemplateIDs, "task", res.Value().ID); err != nil {
				return fail(CodeOperationFailed, "task created but template application failed", err.Error())
			}
		}
		return fromResult(res, "task created")
	default:
		return fail(CodeValidation, "invalid containerType", p.ContainerType)
	}
}

func (d *Dispatcher) updateContainer(p ManageContainerParams) Envelope {
	if p.ID == "" {
		return fail(CodeValidation, "id is required", "update requires an id")
	}
	release := d.locks.Lock(p.ContainerType, p.ID)
	defer release()

	switch p.ContainerType {
	case "project":
		r := d.repo.Projects().GetByID(p.ID)
		if r.IsErr() {
			return fromErr(r.Err())
		}
		proj := r.Value()
		applyIfSet(&proj.Name, p.Name)
		applyIfSet(&proj.Summary, p.Summary)
		applyIfSet(&proj.Description, p.Description)
		applyIfSet(&proj.Status, p.Status)
		if p.Tags != nil {
			proj.Tags = p.Tags
		}
		proj.ModifiedAt = time.Now()
		return fromResult(d.repo.Projects().Update(proj), "project updated")
	case "feature":
		r := d.repo.Features().GetByID(p.ID)
		if r.IsErr() {
			return fromErr(r.Err())
		}
		feat := r.Value()
		applyIfSet(&feat.Name, p.Name)
		applyIfSet(&feat.Summary, p.Summary)
		applyIfSet(&feat.Description, p.Description)
		applyIfSet(&feat.Status, p.Status)
		if p.Priority != "" {
			feat.Priority = models.Priority(p.Priority)
		}
		if p.RequiresVerification != nil {
			feat.RequiresVerification = *p.RequiresVerification
		}
		if p.Tags != nil {
			feat.Tags = p.Tags
		}
		feat.ModifiedAt = time.Now()
		return fromResult(d.repo.Features().Update(feat), "feature updated")
	case "task":
		r := d.repo.Tasks().GetByID(p.ID)
		if r.IsErr() {
			return fromErr(r.Err())
		}
		task := r.Value()
		applyIfSet(&task.Title, p.Title)
		applyIfSet(&task.Summary, p.Summary)
		applyIfSet(&task.Description, p.Description)
		applyIfSet(&task.Status, p.Status)
		if p.Priority != "" {
			task.Priority = models.Priority(p.Priority)
		}
		if p.Complexity != 0 {
			task.Complexity = p.Complexity
		}
		if p.RequiresVerification != nil {
			task.RequiresVerification = *p.RequiresVerification
		}
		if p.Tags != nil {
			task.Tags = p.Tags
		}
		task.ModifiedAt = time.Now()
		return fromResult(d.repo.Tasks().Update(task), "task updated")
	default:
		return fail(CodeValidation, "invalid containerType", p.ContainerType)
	}
}

func (d *Dispatcher) deleteContainer(p ManageContainerParams) Envelope {
	if p.ID == "" {
		return fail(CodeValidation, "id is required", "delete requires an id")
	}
	release := d.locks.Lock(p.ContainerType, p.ID)
	defer release()

	switch p.ContainerType {
	case "project":
		return fromResult(d.repo.Projects().Delete(p.ID, p.Force), "project deleted")
	case "feature":
		return fromResult(d.repo.Features().Delete(p.ID, p.Force), "feature deleted")
	case "task":
		return fromResult(d.repo.Tasks().Delete(p.ID, p.Force), "task deleted")
	default:
		return fail(CodeValidation, "invalid containerType", p.ContainerType)
	}
}

// setStatusContainer implements manage_container's setStatus operation by
// delegating to the transition executor with an explicit target status,
// preserving the validate/cascade/unblock pipeline request_transition
// runs rather than writing the status directly.
func (d *Dispatcher) setStatusContainer(p ManageContainerParams) Envelope {
	if p.ID == "" {
		return fail(CodeValidation, "id is required", "setStatus requires an id")
	}
	if p.Status == "" {
		return fail(CodeValidation, "status is required", "setStatus requires a target status")
	}
	release := d.locks.Lock(p.ContainerType, p.ID)
	defer release()

	resp := d.exec.RequestTransition(executor.TransitionRequest{
		ContainerID:   p.ID,
		ContainerType: p.ContainerType,
		TargetStatus:  p.Status,
	})
	return transitionEnvelope(resp)
}

// bulkUpdateContainer applies an update to every entry of ids or
// containers[], each acquiring and releasing its own per-(entityType, id)
// lock through updateContainer rather than holding one lock across the
// whole batch.
func (d *Dispatcher) bulkUpdateContainer(p ManageContainerParams) Envelope {
	items, err := bulkItems(p)
	if err != nil {
		return fail(CodeValidation, "invalid bulkUpdate request", err.Error())
	}

	results := make([]Envelope, 0, len(items))
	succeeded, failed := 0, 0
	for _, item := range items {
		res := d.updateContainer(item)
		results = append(results, res)
		if res.Success {
			succeeded++
		} else {
			failed++
		}
	}

	summary := map[string]any{
		"results":   results,
		"total":     len(items),
		"succeeded": succeeded,
		"failed":    failed,
	}
	if failed > 0 && succeeded == 0 {
		return failWith(CodeOperationFailed, "bulk update failed for every container", "0 of the requested containers were updated", summary)
	}
	return ok("bulk update processed", summary)
}

// bulkItems expands a bulkUpdate request into one ManageContainerParams
// per target, each carrying that target's id and any per-entry overrides.
func bulkItems(p ManageContainerParams) ([]ManageContainerParams, error) {
	if len(p.Containers) > 0 && len(p.IDs) > 0 {
		return nil, fmt.Errorf("ids and containers are mutually exclusive")
	}

	if len(p.Containers) > 0 {
		if len(p.Containers) > maxBulkContainers {
			return nil, fmt.Errorf("containers exceeds the %d-entry limit", maxBulkContainers)
		}
		out := make([]ManageContainerParams, 0, len(p.Containers))
		for _, c := range p.Containers {
			item := p
			item.ID = c.ID
			applyIfSet(&item.Name, c.Name)
			applyIfSet(&item.Title, c.Title)
			applyIfSet(&item.Summary, c.Summary)
			applyIfSet(&item.Description, c.Description)
			applyIfSet(&item.Status, c.Status)
			if c.Priority != "" {
				item.Priority = c.Priority
			}
			if c.Complexity != 0 {
				item.Complexity = c.Complexity
			}
			if c.Tags != nil {
				item.Tags = c.Tags
			}
			if c.RequiresVerification != nil {
				item.RequiresVerification = c.RequiresVerification
			}
			out = append(out, item)
		}
		return out, nil
	}

	if len(p.IDs) == 0 {
		return nil, fmt.Errorf("ids or containers is required")
	}
	if len(p.IDs) > maxBulkContainers {
		return nil, fmt.Errorf("ids exceeds the %d-entry limit", maxBulkContainers)
	}
	out := make([]ManageContainerParams, 0, len(p.IDs))
	for _, id := range p.IDs {
		item := p
		item.ID = id
		out = append(out, item)
	}
	return out, nil
}

func (d *Dispatcher) applyTemplate(p ManageContainerParams) Envelope {
	if p.ID == "" || len(p.TemplateIDs) == 0 {
		return fail(CodeValidation, "id and templateIds are required", "apply_template requires both")
	}
	release := d.locks.Lock(p.ContainerType, p.ID)
	defer release()

	sections, err := d.applier.ApplyMany(p.TemplateIDs, p.ContainerType, p.ID)
	if err != nil {
		return failWith(CodeOperationFailed, "template application failed", err.Error(), map[string]any{"sectionsCreated": len(sections)})
	}
	return ok("templates applied", sections)
}

func firstOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func priorityOr(v string, def models.Priority) models.Priority {
	if v == "" {
		return def
	}
	return models.Priority(v)
}

func applyIfSet(field *string, v string) {
	if v != "" {
		*field = v
	}
}

func fromResult[T any](r result.Result[T], message string) Envelope {
	if r.IsErr() {
		return fromErr(r.Err())
	}
	return ok(message, r.Value())
}

func fromErr(e *result.Err) Envelope {
	if e == nil {
		return fail(CodeInternal, "operation failed", "unknown error")
	}
	switch e.Kind {
	case result.NotFound:
		return fail(CodeNotFound, "resource not found", e.Message)
	case result.ValidationError:
		return fail(CodeValidation, "validation failed", e.Message)
	case result.ConflictError:
		return fail(CodeConflict, "conflict", e.Message)
	case result.DatabaseError:
		return fail(CodeDatabase, "database error", e.Message)
	default:
		return fail(CodeDatabase, "operation failed", e.Message)
	}
}
