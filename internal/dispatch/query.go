package dispatch

import (
	"encoding/json"
	"time"

	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/repository"
)

func (d *Dispatcher) queryContainer(raw json.RawMessage) Envelope {
	p, err := decode[QueryContainerParams](raw)
	if err != nil {
		return fail(CodeValidation, "invalid parameters", err.Error())
	}
	if !validEntityType(p.ContainerType) {
		return fail(CodeValidation, "invalid containerType", p.ContainerType)
	}

	switch p.Operation {
	case "get":
		return d.getContainer(p)
	case "list", "find_by_filters":
		return d.listContainers(p)
	case "export":
		return d.exportContainer(p)
	default:
		return fail(CodeValidation, "invalid operation", p.Operation)
	}
}

func (d *Dispatcher) getContainer(p QueryContainerParams) Envelope {
	if p.ID == "" {
		return fail(CodeValidation, "id is required", "get requires an id")
	}
	switch p.ContainerType {
	case "project":
		r := d.repo.Projects().GetByID(p.ID)
		if r.IsErr() {
			return fromErr(r.Err())
		}
		return ok("found", d.withSections(p, "project", p.ID, r.Value()))
	case "feature":
		r := d.repo.Features().GetByID(p.ID)
		if r.IsErr() {
			return fromErr(r.Err())
		}
		return ok("found", d.withSections(p, "feature", p.ID, r.Value()))
	case "task":
		r := d.repo.Tasks().GetByID(p.ID)
		if r.IsErr() {
			return fromErr(r.Err())
		}
		return ok("found", d.withSections(p, "task", p.ID, r.Value()))
	default:
		return fail(CodeValidation, "invalid containerType", p.ContainerType)
	}
}

// withSections wraps an entity value with its sections when requested,
// otherwise returns it bare.
func (d *Dispatcher) withSections(p QueryContainerParams, entityType, id string, entity any) any {
	if !p.IncludeSections {
		return entity
	}
	sections := []models.Section{}
	if r := d.repo.Sections().GetSectionsForEntity(models.EntityType(entityType), id); r.IsOk() {
		sections = r.Value()
	}
	return map[string]any{"entity": entity, "sections": sections}
}

func (d *Dispatcher) filtersFrom(p QueryContainerParams) repository.Filters {
	return repository.Filters{
		ProjectID: p.ProjectID,
		Status:    p.Status,
		Priority:  p.Priority,
		Tags:      p.Tags,
		Query:     p.Query,
		Limit:     p.Limit,
	}
}

func (d *Dispatcher) listContainers(p QueryContainerParams) Envelope {
	f := d.filtersFrom(p)
	switch p.ContainerType {
	case "project":
		r := d.repo.Projects().FindByFilters(f)
		if r.IsErr() {
			return fromErr(r.Err())
		}
		return ok("listed", r.Value())
	case "feature":
		if p.ProjectID != "" && p.Query == "" && len(p.Tags) == 0 && p.Status == "" && p.Priority == "" {
			r := d.repo.Features().FindByProject(p.ProjectID)
			if r.IsErr() {
				return fromErr(r.Err())
			}
			return ok("listed", r.Value())
		}
		r := d.repo.Features().FindByFilters(f)
		if r.IsErr() {
			return fromErr(r.Err())
		}
		return ok("listed", r.Value())
	case "task":
		if p.FeatureID != "" {
			r := d.repo.Tasks().FindByFeature(p.FeatureID)
			if r.IsErr() {
				return fromErr(r.Err())
			}
			return ok("listed", r.Value())
		}
		r := d.repo.Tasks().FindByFilters(f)
		if r.IsErr() {
			return fromErr(r.Err())
		}
		return ok("listed", r.Value())
	default:
		return fail(CodeValidation, "invalid containerType", p.ContainerType)
	}
}

// exportContainer snapshots a project or feature and its descendants as a
// structured JSON-serializable tree.
func (d *Dispatcher) exportContainer(p QueryContainerParams) Envelope {
	if p.ID == "" {
		return fail(CodeValidation, "id is required", "export requires an id")
	}
	switch p.ContainerType {
	case "project":
		pr := d.repo.Projects().GetByID(p.ID)
		if pr.IsErr() {
			return fromErr(pr.Err())
		}
		features := d.repo.Features().FindByProject(p.ID)
		snapshot := map[string]any{
			"exportedAt": time.Now(),
			"project":    pr.Value(),
			"features":   []any{},
		}
		if features.IsOk() {
			featureList := make([]any, 0, len(features.Value()))
			for _, f := range features.Value() {
				tasks := d.repo.Tasks().FindByFeature(f.ID)
				taskList := []models.Task{}
				if tasks.IsOk() {
					taskList = tasks.Value()
				}
				featureList = append(featureList, map[string]any{"feature": f, "tasks": taskList})
			}
			snapshot["features"] = featureList
		}
		return ok("exported", snapshot)
	case "feature":
		fr := d.repo.Features().GetByID(p.ID)
		if fr.IsErr() {
			return fromErr(fr.Err())
		}
		tasks := d.repo.Tasks().FindByFeature(p.ID)
		taskList := []models.Task{}
		if tasks.IsOk() {
			taskList = tasks.Value()
		}
		return ok("exported", map[string]any{"feature": fr.Value(), "tasks": taskList})
	default:
		return fail(CodeValidation, "export supports project or feature", p.ContainerType)
	}
}
