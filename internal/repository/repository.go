// Package repository defines the narrow, result-returning accessors
// the engine consumes for entities, sections, dependencies,
// and the role-transition log. No ORM semantics leak through: every
// method returns a result.Result so that expected absence (NotFound) is a
// typed outcome rather than an error string callers must pattern-match.
package repository

import (
	"github.com/jpicklyk/task-orchestrator/internal/models"
	"github.com/jpicklyk/task-orchestrator/internal/result"
)

// TaskCounts summarizes the tasks of one feature by status bucket, as
// returned by GetTaskCountsByFeatureID.
type TaskCounts struct {
	Total      int
	Pending    int
	InProgress int
	Completed  int
	Cancelled  int
	Testing    int
	Blocked    int
}

// Filters narrows a find_by_filters query. Zero-valued fields are not
// applied as constraints.
type Filters struct {
	ProjectID string
	Status    string
	Priority  string
	Tags      []string
	Query     string
	Limit     int
}

// ProjectRepository is the repository interface for Project entities.
type ProjectRepository interface {
	GetByID(id string) result.Result[models.Project]
	Create(p models.Project) result.Result[models.Project]
	Update(p models.Project) result.Result[models.Project]
	Delete(id string, force bool) result.Result[bool]
	FindAll(limit int) result.Result[[]models.Project]
	FindByFilters(f Filters) result.Result[[]models.Project]
	GetFeatureCountsByProjectID(projectID string) result.Result[map[string]int]
}

// FeatureRepository is the repository interface for Feature entities.
type FeatureRepository interface {
	GetByID(id string) result.Result[models.Feature]
	Create(f models.Feature) result.Result[models.Feature]
	Update(f models.Feature) result.Result[models.Feature]
	Delete(id string, force bool) result.Result[bool]
	FindAll(limit int) result.Result[[]models.Feature]
	FindByFilters(f Filters) result.Result[[]models.Feature]
	FindByProject(projectID string) result.Result[[]models.Feature]
	GetTaskCount(featureID string) result.Result[int]
	GetTaskCountsByFeatureID(featureID string) result.Result[TaskCounts]
}

// TaskRepository is the repository interface for Task entities.
type TaskRepository interface {
	GetByID(id string) result.Result[models.Task]
	Create(t models.Task) result.Result[models.Task]
	Update(t models.Task) result.Result[models.Task]
	Delete(id string, force bool) result.Result[bool]
	FindAll(limit int) result.Result[[]models.Task]
	FindByFilters(f Filters) result.Result[[]models.Task]
	FindByProject(projectID string) result.Result[[]models.Task]
	FindByFeature(featureID string) result.Result[[]models.Task]
}

// SectionRepository is the repository interface for Section entities.
type SectionRepository interface {
	GetSectionsForEntity(entityType models.EntityType, entityID string) result.Result[[]models.Section]
	Create(s models.Section) result.Result[models.Section]
	Update(s models.Section) result.Result[models.Section]
	Delete(id string) result.Result[bool]
	DeleteForEntity(entityType models.EntityType, entityID string) result.Result[int]
}

// DependencyRepository is the repository interface for task dependency
// edges.
type DependencyRepository interface {
	FindByTaskID(taskID string) result.Result[[]models.Dependency]
	FindByToTaskID(taskID string) result.Result[[]models.Dependency]
	FindByFromTaskID(taskID string) result.Result[[]models.Dependency]
	Create(d models.Dependency) result.Result[models.Dependency]
	Delete(id string) result.Result[bool]
	DeleteByTaskID(taskID string) result.Result[int]
}

// RoleTransitionRepository is the append-only log of resolved role
// changes.
type RoleTransitionRepository interface {
	Create(rt models.RoleTransition) result.Result[models.RoleTransition]
	FindByEntityID(entityID string) result.Result[[]models.RoleTransition]
}

// TemplateRepository manages named section-prototype bundles.
type TemplateRepository interface {
	GetByID(id string) result.Result[models.Template]
	FindAll() result.Result[[]models.Template]
}

// Repository aggregates every entity-specific interface the engine needs,
// so components depend on one value instead of seven.
type Repository interface {
	Projects() ProjectRepository
	Features() FeatureRepository
	Tasks() TaskRepository
	Sections() SectionRepository
	Dependencies() DependencyRepository
	RoleTransitions() RoleTransitionRepository
	Templates() TemplateRepository
}
